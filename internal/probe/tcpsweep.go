package probe

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcap"
	"github.com/sirupsen/logrus"

	"github.com/lanscope/upnprecon/pkg/utils"
)

// OpenPort - результат успешного TCP connect (spec.md §4.1 step 2).
type OpenPort struct {
	IP   string
	Port int
}

// TCPSweeper выполняет ARP-hinted TCP connect sweep поверх подсети
// (spec.md §4.1 step 2, §5 concurrency cap ≤256).
type TCPSweeper struct {
	concurrency int
	logger      *logrus.Logger
}

// NewTCPSweeper создает TCPSweeper с заданным лимитом конкурентности.
func NewTCPSweeper(concurrency int) *TCPSweeper {
	if concurrency <= 0 {
		concurrency = 256
	}
	return &TCPSweeper{concurrency: concurrency, logger: utils.GetLogger()}
}

// HintHostsFromARP читает ARP-таблицу интерфейса за короткое окно и
// возвращает IP-адреса, видевшие ARP-трафик в пределах subnet. Это
// сужает множество хостов, которые нужно перебирать портами, вместо
// перебора всей подсети (grounded on gopacket/pcap ARP capture).
// Падение pcap (нет прав, нет интерфейса) не является фатальной ошибкой —
// вызывающий код должен упасть обратно на полный перебор подсети.
func (s *TCPSweeper) HintHostsFromARP(ctx context.Context, ifaceName string, subnet *net.IPNet, window time.Duration) ([]string, error) {
	handle, err := pcap.OpenLive(ifaceName, 1600, true, pcap.BlockForever)
	if err != nil {
		return nil, fmt.Errorf("failed to open interface %s: %w", ifaceName, err)
	}
	defer handle.Close()

	if err := handle.SetBPFFilter("arp"); err != nil {
		s.logger.Debugf("failed to set arp bpf filter: %v", err)
	}

	hostsMap := make(map[string]bool)
	packetSource := gopacket.NewPacketSource(handle, handle.LinkType())
	timeout := time.After(window)

	for {
		select {
		case <-ctx.Done():
			return hostsFromMap(hostsMap), nil
		case <-timeout:
			return hostsFromMap(hostsMap), nil
		case packet, ok := <-packetSource.Packets():
			if !ok || packet == nil {
				continue
			}
			arpLayer := packet.Layer(layers.LayerTypeARP)
			if arpLayer == nil {
				continue
			}
			arp, ok := arpLayer.(*layers.ARP)
			if !ok {
				continue
			}
			srcIP := net.IP(arp.SourceProtAddress)
			if subnet.Contains(srcIP) {
				hostsMap[srcIP.String()] = true
			}
		}
	}
}

func hostsFromMap(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for ip := range m {
		out = append(out, ip)
	}
	return out
}

// Sweep выполняет параллельный TCP connect по hosts x ports, bounded by
// the configured concurrency cap, and returns every successful connect.
func (s *TCPSweeper) Sweep(ctx context.Context, hosts []string, ports []int, perConnectTimeout time.Duration) []OpenPort {
	var results []OpenPort
	var mu sync.Mutex
	var wg sync.WaitGroup

	semaphore := make(chan struct{}, s.concurrency)

	for _, host := range hosts {
		for _, port := range ports {
			select {
			case <-ctx.Done():
				wg.Wait()
				return results
			default:
			}

			wg.Add(1)
			go func(ip string, p int) {
				defer wg.Done()

				select {
				case semaphore <- struct{}{}:
				case <-ctx.Done():
					return
				}
				defer func() { <-semaphore }()

				if s.isPortOpen(ctx, ip, p, perConnectTimeout) {
					mu.Lock()
					results = append(results, OpenPort{IP: ip, Port: p})
					mu.Unlock()
				}
			}(host, port)
		}
	}

	wg.Wait()
	return results
}

func (s *TCPSweeper) isPortOpen(ctx context.Context, ip string, port int, timeout time.Duration) bool {
	address := fmt.Sprintf("%s:%d", ip, port)
	dialer := &net.Dialer{Timeout: timeout}

	dialCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	conn, err := dialer.DialContext(dialCtx, "tcp", address)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}
