// Package discovery implements the Discovery Engine (spec.md §4.1): SSDP
// multicast + ARP-hinted TCP port sweep + device-description fetch, with
// multi-level deduplication down to a stable, unique Device list.
package discovery

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/lanscope/upnprecon/internal/models"
	"github.com/lanscope/upnprecon/internal/probe"
	"github.com/lanscope/upnprecon/internal/xmlnorm"
	"github.com/lanscope/upnprecon/pkg/utils"
)

// candidateDescriptionPaths are tried, in order, against a port-sweep hit;
// only the first 200 response is used (spec.md §4.1 step 2).
var candidateDescriptionPaths = []string{
	"/xml/device_description.xml",
	"/description.xml",
}

// Engine - Discovery Engine.
type Engine struct {
	cfg     models.DiscoveryConfig
	ssdp    *probe.SSDPProber
	sweeper *probe.TCPSweeper
	fetcher *probe.HTTPFetcher
	logger  *logrus.Logger
}

// NewEngine создает Discovery Engine с заданной конфигурацией.
func NewEngine(cfg models.DiscoveryConfig) *Engine {
	return &Engine{
		cfg:     cfg,
		ssdp:    probe.NewSSDPProber(),
		sweeper: probe.NewTCPSweeper(cfg.PortSweepConcurrency),
		fetcher: probe.NewHTTPFetcher(),
		logger:  utils.GetLogger(),
	}
}

// Discover runs the full algorithm of spec.md §4.1 and returns a
// deduplicated, ip-then-port sorted Device list. Any per-host/per-URL
// error is logged and skipped; the call only fails if the local interface
// cannot be determined.
func (e *Engine) Discover(ctx context.Context) ([]*models.Device, error) {
	timeout := time.Duration(e.cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	cidr := e.cfg.CIDR
	iface, localIP, ipNet, err := resolveInterface(cidr)
	if err != nil {
		return nil, fmt.Errorf("failed to determine local interface: %w", err)
	}

	merger := newDeviceMerger()

	// 1. SSDP phase.
	ssdpResponses, err := e.ssdp.Discover(ctx, timeout, localIP)
	if err != nil {
		e.logger.Warnf("ssdp discovery failed: %v", err)
	}
	e.logger.Infof("ssdp phase: %d unique advertisements", len(ssdpResponses))

	var wg sync.WaitGroup
	sem := make(chan struct{}, e.cfg.DescriptionFetchConcurrency)

	for _, resp := range ssdpResponses {
		if resp.Location == "" {
			continue
		}
		wg.Add(1)
		go func(r probe.SSDPResponse) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				return
			}
			defer func() { <-sem }()

			device, err := e.fetchDescription(ctx, r.Location)
			if err != nil {
				e.logger.Debugf("description fetch failed for %s: %v", r.Location, err)
				return
			}
			device.ServerHeader = r.Server
			device.DiscoveryMethod = models.DiscoveryMethodSSDP
			merger.merge(device)
		}(resp)
	}
	wg.Wait()

	// 2. Port-sweep phase (aggressive only).
	if e.cfg.Aggressive {
		e.portSweepPhase(ctx, iface, ipNet, localIP, merger)
	}

	devices := merger.sorted()
	e.logger.Infof("discovery complete: %d unique devices", len(devices))
	return devices, nil
}

func (e *Engine) portSweepPhase(ctx context.Context, ifaceName string, ipNet *net.IPNet, localIP net.IP, merger *deviceMerger) {
	hosts, err := e.sweeper.HintHostsFromARP(ctx, ifaceName, ipNet, 2*time.Second)
	if err != nil || len(hosts) == 0 {
		e.logger.Debugf("arp hinting unavailable (%v), falling back to full subnet enumeration", err)
		hosts, err = utils.GetSubnetHosts(ipNet.String())
		if err != nil {
			e.logger.Warnf("failed to enumerate subnet hosts: %v", err)
			return
		}
	}
	hosts = excludeHost(hosts, localIP.String())

	ports := e.cfg.Ports
	if len(ports) == 0 {
		ports = models.DefaultPorts
	}

	open := e.sweeper.Sweep(ctx, hosts, ports, 2*time.Second)
	e.logger.Infof("port sweep: %d open endpoints across %d hosts", len(open), len(hosts))

	var wg sync.WaitGroup
	sem := make(chan struct{}, e.cfg.DescriptionFetchConcurrency)

	for _, op := range open {
		wg.Add(1)
		go func(o probe.OpenPort) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				return
			}
			defer func() { <-sem }()

			device := e.tryDescriptionURLs(ctx, o.IP, o.Port)
			if device == nil {
				return
			}
			device.DiscoveryMethod = models.DiscoveryMethodPortScan
			merger.merge(device)
		}(op)
	}
	wg.Wait()
}

// tryDescriptionURLs tries each candidate description path once; the first
// 200 response wins (spec.md §4.1 step 2: "only one description URL is
// tried once to prevent the duplicate-explosion pathology").
func (e *Engine) tryDescriptionURLs(ctx context.Context, ip string, port int) *models.Device {
	for _, path := range candidateDescriptionPaths {
		fetchURL := fmt.Sprintf("http://%s:%d%s", ip, port, path)
		result, err := e.fetcher.Fetch(ctx, fetchURL, probe.FetchOptions{Timeout: 5 * time.Second})
		if err != nil || result.StatusCode != 200 {
			continue
		}
		device, err := xmlnorm.ParseDeviceDescription(result.Body, fetchURL)
		if err != nil {
			continue
		}
		device.IP = ip
		device.Port = port
		return device
	}
	return nil
}

func (e *Engine) fetchDescription(ctx context.Context, location string) (*models.Device, error) {
	result, err := e.fetcher.Fetch(ctx, location, probe.FetchOptions{Timeout: 5 * time.Second})
	if err != nil {
		return nil, err
	}
	if result.StatusCode != 200 {
		return nil, &models.ReconError{Kind: models.ErrHttpStatus, Message: "description fetch", HTTPStatus: result.StatusCode}
	}
	device, err := xmlnorm.ParseDeviceDescription(result.Body, location)
	if err != nil {
		return nil, err
	}
	ip, port, err := splitLocation(location)
	if err == nil {
		device.IP = ip
		device.Port = port
	}
	return device, nil
}

func splitLocation(location string) (string, int, error) {
	u, err := url.Parse(location)
	if err != nil {
		return "", 0, err
	}
	host := u.Hostname()
	portStr := u.Port()
	port := 80
	if u.Scheme == "https" {
		port = 443
	}
	if portStr != "" {
		if p, err := strconv.Atoi(portStr); err == nil {
			port = p
		}
	}
	return host, port, nil
}

func excludeHost(hosts []string, self string) []string {
	out := hosts[:0:0]
	for _, h := range hosts {
		if h != self {
			out = append(out, h)
		}
	}
	return out
}

// resolveInterface picks the interface/subnet to scan: the given CIDR if
// set, else the host's default interface (spec.md §4.1 Inputs). It returns
// the interface name, the local bind address, and the parsed subnet.
func resolveInterface(cidr string) (string, net.IP, *net.IPNet, error) {
	if cidr != "" {
		ipNet, err := utils.ParseSubnet(cidr)
		if err != nil {
			return "", nil, nil, err
		}
		ifaces, err := utils.GetNetworkInterfaces()
		if err != nil {
			return "", nil, nil, err
		}
		for _, iface := range ifaces {
			if ipNet.Contains(iface.IP) {
				return iface.Name, iface.IP, ipNet, nil
			}
		}
		return "", ipNet.IP, ipNet, nil
	}

	ifaces, err := utils.GetNetworkInterfaces()
	if err != nil {
		return "", nil, nil, err
	}
	if len(ifaces) == 0 {
		return "", nil, nil, fmt.Errorf("no active network interfaces found")
	}
	first := ifaces[0]
	return first.Name, first.IP, first.Subnet, nil
}

// deviceMerger implements the identity/dedup/precedence rules of spec.md
// §3 and §4.1 step 4. It is confined to a single Discover call, per
// spec.md §5's shared-resource policy.
type deviceMerger struct {
	mu      sync.Mutex
	devices map[string]*models.Device
}

func newDeviceMerger() *deviceMerger {
	return &deviceMerger{devices: make(map[string]*models.Device)}
}

func (m *deviceMerger) merge(d *models.Device) {
	if d == nil {
		return
	}
	now := time.Now()
	m.mu.Lock()
	defer m.mu.Unlock()

	key := d.Identity()
	existing, exists := m.devices[key]
	if !exists {
		d.FirstSeen = now
		d.LastSeen = now
		m.devices[key] = d
		return
	}

	mergeInto(existing, d)
	existing.LastSeen = now
}

// mergeInto merges new into existing per the SSDP-precedence rule:
// discovery_method prefers "ssdp" over "port_scan"; other fields are
// "later data wins" except where the winning side's field is already set.
func mergeInto(existing, incoming *models.Device) {
	if existing.DiscoveryMethod == models.DiscoveryMethodSSDP && incoming.DiscoveryMethod == models.DiscoveryMethodPortScan {
		copyMissingFields(existing, incoming)
		return
	}
	if existing.DiscoveryMethod == models.DiscoveryMethodPortScan && incoming.DiscoveryMethod == models.DiscoveryMethodSSDP {
		// incoming (ssdp) wins: copy any fields existing had that incoming lacks, then replace.
		copyMissingFields(incoming, existing)
		*existing = *incoming
		return
	}
	// Same discovery method on both sides: later data wins per field.
	copyAllNonEmpty(existing, incoming)
}

func copyMissingFields(dst, src *models.Device) {
	if dst.UDN == "" {
		dst.UDN = src.UDN
	}
	if dst.FriendlyName == "" {
		dst.FriendlyName = src.FriendlyName
	}
	if dst.Manufacturer == "" {
		dst.Manufacturer = src.Manufacturer
	}
	if dst.ModelName == "" {
		dst.ModelName = src.ModelName
	}
	if dst.ModelNumber == "" {
		dst.ModelNumber = src.ModelNumber
	}
	if dst.DeviceType == "" {
		dst.DeviceType = src.DeviceType
	}
	if dst.ServerHeader == "" {
		dst.ServerHeader = src.ServerHeader
	}
	if len(dst.Services) == 0 {
		dst.Services = src.Services
	}
}

func copyAllNonEmpty(dst, src *models.Device) {
	if src.FriendlyName != "" {
		dst.FriendlyName = src.FriendlyName
	}
	if src.Manufacturer != "" {
		dst.Manufacturer = src.Manufacturer
	}
	if src.ModelName != "" {
		dst.ModelName = src.ModelName
	}
	if src.ModelNumber != "" {
		dst.ModelNumber = src.ModelNumber
	}
	if src.DeviceType != "" {
		dst.DeviceType = src.DeviceType
	}
	if src.ServerHeader != "" {
		dst.ServerHeader = src.ServerHeader
	}
	if len(src.Services) > 0 {
		dst.Services = src.Services
	}
}

func (m *deviceMerger) sorted() []*models.Device {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*models.Device, 0, len(m.devices))
	for _, d := range m.devices {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].IP != out[j].IP {
			return ipLess(out[i].IP, out[j].IP)
		}
		return out[i].Port < out[j].Port
	})
	return out
}

func ipLess(a, b string) bool {
	ipA := net.ParseIP(a)
	ipB := net.ParseIP(b)
	if ipA == nil || ipB == nil {
		return a < b
	}
	return string(ipA.To16()) < string(ipB.To16())
}
