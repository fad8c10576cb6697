package discovery

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lanscope/upnprecon/internal/models"
)

func TestDeviceMergerSSDPPrecedenceOverPortScan(t *testing.T) {
	m := newDeviceMerger()

	portScanFirst := &models.Device{
		IP: "192.168.1.50", Port: 1400,
		UDN:             "RINCON_ABC",
		DiscoveryMethod: models.DiscoveryMethodPortScan,
	}
	m.merge(portScanFirst)

	ssdpSecond := &models.Device{
		IP: "192.168.1.50", Port: 1400,
		UDN:             "RINCON_ABC",
		FriendlyName:    "Living Room",
		DiscoveryMethod: models.DiscoveryMethodSSDP,
	}
	m.merge(ssdpSecond)

	devices := m.sorted()
	assert.Len(t, devices, 1)
	assert.Equal(t, models.DiscoveryMethodSSDP, devices[0].DiscoveryMethod,
		"ssdp discovery_method must win over port_scan regardless of arrival order")
	assert.Equal(t, "Living Room", devices[0].FriendlyName)
}

func TestDeviceMergerIdempotentOnRepeatedMerge(t *testing.T) {
	m := newDeviceMerger()
	device := &models.Device{IP: "10.0.0.5", Port: 80, DiscoveryMethod: models.DiscoveryMethodSSDP}

	m.merge(device)
	m.merge(&models.Device{IP: "10.0.0.5", Port: 80, DiscoveryMethod: models.DiscoveryMethodSSDP})
	m.merge(&models.Device{IP: "10.0.0.5", Port: 80, DiscoveryMethod: models.DiscoveryMethodSSDP})

	assert.Len(t, m.sorted(), 1, "merging the same identity repeatedly must not duplicate the device")
}

func TestDeviceMergerSortsByIPThenPort(t *testing.T) {
	m := newDeviceMerger()
	m.merge(&models.Device{IP: "10.0.0.5", Port: 443, DiscoveryMethod: models.DiscoveryMethodSSDP})
	m.merge(&models.Device{IP: "10.0.0.5", Port: 80, DiscoveryMethod: models.DiscoveryMethodSSDP})
	m.merge(&models.Device{IP: "10.0.0.2", Port: 1400, DiscoveryMethod: models.DiscoveryMethodSSDP})

	devices := m.sorted()
	assert.Equal(t, "10.0.0.2", devices[0].IP)
	assert.Equal(t, "10.0.0.5", devices[1].IP)
	assert.Equal(t, 80, devices[1].Port)
	assert.Equal(t, "10.0.0.5", devices[2].IP)
	assert.Equal(t, 443, devices[2].Port)
}

func TestExcludeHost(t *testing.T) {
	hosts := []string{"10.0.0.1", "10.0.0.2", "10.0.0.3"}
	filtered := excludeHost(hosts, "10.0.0.2")
	assert.Equal(t, []string{"10.0.0.1", "10.0.0.3"}, filtered)
}

func TestSplitLocation(t *testing.T) {
	ip, port, err := splitLocation("http://192.168.1.50:1400/xml/device_description.xml")
	assert.NoError(t, err)
	assert.Equal(t, "192.168.1.50", ip)
	assert.Equal(t, 1400, port)
}

func TestSplitLocationDefaultsPortByScheme(t *testing.T) {
	ip, port, err := splitLocation("https://192.168.1.1/desc.xml")
	assert.NoError(t, err)
	assert.Equal(t, "192.168.1.1", ip)
	assert.Equal(t, 443, port)
}
