package probe

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildMSearchRequest(t *testing.T) {
	req := buildMSearchRequest("upnp:rootdevice")

	assert.True(t, strings.HasPrefix(req, "M-SEARCH * HTTP/1.1\r\n"))
	assert.True(t, strings.Contains(req, "HOST: 239.255.255.250:1900\r\n"))
	assert.True(t, strings.Contains(req, "ST: upnp:rootdevice\r\n"))
	assert.True(t, strings.HasSuffix(req, "\r\n\r\n"))
}

func TestParseSSDPMessageExtractsHeaders(t *testing.T) {
	raw := "HTTP/1.1 200 OK\r\n" +
		"LOCATION: http://192.168.1.50:1400/xml/device_description.xml\r\n" +
		"SERVER: Linux/3.14 UPnP/1.0 Sonos/64.0\r\n" +
		"ST: urn:schemas-upnp-org:device:ZonePlayer:1\r\n" +
		"USN: uuid:RINCON_000E58ABC12345::urn:schemas-upnp-org:device:ZonePlayer:1\r\n" +
		"\r\n"

	resp, err := parseSSDPMessage([]byte(raw), "192.168.1.50")
	require.NoError(t, err)

	assert.Equal(t, "http://192.168.1.50:1400/xml/device_description.xml", resp.Location)
	assert.Equal(t, "Linux/3.14 UPnP/1.0 Sonos/64.0", resp.Server)
	assert.Equal(t, "urn:schemas-upnp-org:device:ZonePlayer:1", resp.ST)
	assert.Equal(t, "uuid:RINCON_000E58ABC12345::urn:schemas-upnp-org:device:ZonePlayer:1", resp.USN)
	assert.Equal(t, "192.168.1.50", resp.SourceIP)
}

func TestParseSSDPMessageRejectsNonSSDPData(t *testing.T) {
	_, err := parseSSDPMessage([]byte("garbage packet, not http or notify"), "10.0.0.1")
	assert.Error(t, err)
}

func TestParseSSDPMessageAcceptsNotify(t *testing.T) {
	raw := "NOTIFY * HTTP/1.1\r\n" +
		"LOCATION: http://10.0.0.5:8080/desc.xml\r\n" +
		"NT: upnp:rootdevice\r\n" +
		"\r\n"

	resp, err := parseSSDPMessage([]byte(raw), "10.0.0.5")
	require.NoError(t, err)
	assert.Equal(t, "http://10.0.0.5:8080/desc.xml", resp.Location)
	assert.Equal(t, "upnp:rootdevice", resp.ST)
}
