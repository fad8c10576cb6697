// Package probe is the Network Probe leaf: UDP multicast SSDP, TCP connect
// sweep, and an HTTP fetcher with stealth/rotating identity (spec.md §4.1,
// §5). It owns every suspension point in the system — UDP send/receive, TCP
// connect, HTTP request/response, and the stealth jitter delay — so higher
// engines never touch a socket directly.
package probe

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/lanscope/upnprecon/pkg/utils"
)

// SSDP multicast address/port (spec.md §6), IPv4 only.
const (
	SSDPMulticastIPv4 = "239.255.255.250"
	SSDPPort          = 1900
)

// Search targets fanned out concurrently on one socket (spec.md §4.1 step 1).
var defaultSearchTargets = []string{
	"upnp:rootdevice",
	"ssdp:all",
	"urn:dial-multiscreen-org:service:dial:1",
}

// SSDPResponse - одно разобранное SSDP объявление (spec.md §4.1).
type SSDPResponse struct {
	Location string
	Server   string
	ST       string
	USN      string
	SourceIP string
}

// SSDPProber отправляет M-SEARCH по мультикасту и собирает ответы.
type SSDPProber struct {
	logger *logrus.Logger
}

// NewSSDPProber создает новый SSDPProber.
func NewSSDPProber() *SSDPProber {
	return &SSDPProber{logger: utils.GetLogger()}
}

// Discover отправляет M-SEARCH запросы для всех search target'ов
// конкурентно на одном UDP сокете и собирает ответы до истечения timeout
// или отмены ctx. Дедупликация по LOCATION выполняется здесь, как того
// требует spec.md §4.1 step 1 ("Deduplicate by LOCATION before fetch").
func (p *SSDPProber) Discover(ctx context.Context, timeout time.Duration, localAddr net.IP) ([]SSDPResponse, error) {
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: localAddr})
	if err != nil {
		return nil, fmt.Errorf("failed to bind ssdp socket: %w", err)
	}
	defer conn.Close()

	multicastAddr, err := net.ResolveUDPAddr("udp4", fmt.Sprintf("%s:%d", SSDPMulticastIPv4, SSDPPort))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve multicast address: %w", err)
	}

	for _, st := range defaultSearchTargets {
		go func(target string) {
			msearch := buildMSearchRequest(target)
			if _, err := conn.WriteToUDP([]byte(msearch), multicastAddr); err != nil {
				p.logger.Warnf("failed to send M-SEARCH for %s: %v", target, err)
			}
		}(st)
	}

	byLocation := make(map[string]SSDPResponse)
	buffer := make([]byte, 4096)
	deadline := time.Now().Add(timeout)

	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return responsesToSlice(byLocation), nil
		default:
		}

		remaining := time.Until(deadline)
		if remaining > 500*time.Millisecond {
			remaining = 500 * time.Millisecond
		}
		conn.SetReadDeadline(time.Now().Add(remaining))

		n, addr, err := conn.ReadFromUDP(buffer)
		if err != nil {
			if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
				continue
			}
			p.logger.Debugf("ssdp read error: %v", err)
			continue
		}

		resp, err := parseSSDPMessage(buffer[:n], addr.IP.String())
		if err != nil {
			p.logger.Debugf("failed to parse ssdp response: %v", err)
			continue
		}

		key := resp.Location
		if key == "" {
			key = resp.SourceIP + "|" + resp.USN
		}
		if _, exists := byLocation[key]; !exists {
			byLocation[key] = *resp
		}
	}

	return responsesToSlice(byLocation), nil
}

func responsesToSlice(m map[string]SSDPResponse) []SSDPResponse {
	out := make([]SSDPResponse, 0, len(m))
	for _, r := range m {
		out = append(out, r)
	}
	return out
}

func buildMSearchRequest(searchTarget string) string {
	return fmt.Sprintf("M-SEARCH * HTTP/1.1\r\n"+
		"HOST: %s:%d\r\n"+
		"MAN: \"ssdp:discover\"\r\n"+
		"ST: %s\r\n"+
		"MX: 3\r\n"+
		"USER-AGENT: upnprecon/1.0\r\n"+
		"\r\n", SSDPMulticastIPv4, SSDPPort, searchTarget)
}

func parseSSDPMessage(data []byte, sourceIP string) (*SSDPResponse, error) {
	text := string(data)
	if !strings.HasPrefix(text, "HTTP/1.1") && !strings.HasPrefix(text, "HTTP/1.0") && !strings.HasPrefix(text, "NOTIFY") {
		return nil, fmt.Errorf("not an SSDP message")
	}

	resp := &SSDPResponse{SourceIP: sourceIP}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, ":", 2)
		if len(parts) != 2 {
			continue
		}
		header := strings.ToLower(strings.TrimSpace(parts[0]))
		value := strings.TrimSpace(parts[1])
		switch header {
		case "location":
			resp.Location = value
		case "server":
			resp.Server = value
		case "st", "nt":
			resp.ST = value
		case "usn":
			resp.USN = value
		}
	}

	return resp, nil
}
