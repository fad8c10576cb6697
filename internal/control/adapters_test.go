package control

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lanscope/upnprecon/internal/models"
)

func TestUPnPAdapterBuildsEnvelopeFromDeviceServices(t *testing.T) {
	device := &models.Device{
		IP: "192.168.1.50",
		Services: []models.Service{
			{ServiceType: "urn:schemas-upnp-org:service:AVTransport:1", ControlURL: "http://192.168.1.50:1400/MediaRenderer/AVTransport/Control"},
		},
	}

	built, err := upnpAdapter{}.buildRequest(device, nil, Request{
		Action: "Play",
		Args:   map[string]string{"InstanceID": "0", "Speed": "1"},
	})
	require.NoError(t, err)

	assert.Equal(t, "POST", built.Method)
	assert.Equal(t, "http://192.168.1.50:1400/MediaRenderer/AVTransport/Control", built.URL)
	assert.Equal(t, "\"urn:schemas-upnp-org:service:AVTransport:1#Play\"", built.Headers["SOAPACTION"])
}

func TestUPnPAdapterBuildsEnvelopeBodyInDeclaredArgOrder(t *testing.T) {
	device := &models.Device{
		IP: "192.168.1.50",
		Services: []models.Service{
			{ServiceType: "urn:schemas-upnp-org:service:RenderingControl:1", ControlURL: "http://192.168.1.50:1400/MediaRenderer/RenderingControl/Control"},
		},
	}

	built, err := upnpAdapter{}.buildRequest(device, nil, Request{
		Action:   "GetVolume",
		Args:     map[string]string{"Channel": "Master", "InstanceID": "0"},
		ArgOrder: []string{"InstanceID", "Channel"},
	})
	require.NoError(t, err)

	body := string(built.Body)
	instanceIdx := strings.Index(body, "<InstanceID>")
	channelIdx := strings.Index(body, "<Channel>")
	require.NotEqual(t, -1, instanceIdx)
	require.NotEqual(t, -1, channelIdx)
	assert.Less(t, instanceIdx, channelIdx, "InstanceID must precede Channel per SCPD ArgumentsIn order")
	assert.Contains(t, body, `<u:GetVolume xmlns:u="urn:schemas-upnp-org:service:RenderingControl:1">`)
}

func TestUPnPAdapterFallsBackToSortedArgOrderWhenUndeclared(t *testing.T) {
	device := &models.Device{
		IP: "192.168.1.50",
		Services: []models.Service{
			{ServiceType: "urn:schemas-upnp-org:service:RenderingControl:1", ControlURL: "http://192.168.1.50:1400/ctl"},
		},
	}

	built, err := upnpAdapter{}.buildRequest(device, nil, Request{
		Action: "GetVolume",
		Args:   map[string]string{"Zebra": "1", "Apple": "2"},
	})
	require.NoError(t, err)

	body := string(built.Body)
	appleIdx := strings.Index(body, "<Apple>")
	zebraIdx := strings.Index(body, "<Zebra>")
	require.NotEqual(t, -1, appleIdx)
	require.NotEqual(t, -1, zebraIdx)
	assert.Less(t, appleIdx, zebraIdx, "without a declared ArgOrder, args fall back to sorted key order, not map iteration order")
}

func TestUPnPAdapterPrefersProfileHintOverDeviceServices(t *testing.T) {
	device := &models.Device{IP: "192.168.1.50"}
	profile := &models.DeviceProfile{
		UPnP: map[string]models.UPnPServiceHint{
			"avtransport": {ServiceType: "urn:schemas-upnp-org:service:AVTransport:1", ControlURL: "http://192.168.1.50:1400/ctl"},
		},
	}

	built, err := upnpAdapter{}.buildRequest(device, profile, Request{Action: "Play"})
	require.NoError(t, err)
	assert.Equal(t, "http://192.168.1.50:1400/ctl", built.URL)
}

func TestUPnPAdapterExplicitOverrideWins(t *testing.T) {
	device := &models.Device{
		IP: "192.168.1.50",
		Services: []models.Service{
			{ServiceType: "urn:schemas-upnp-org:service:AVTransport:1", ControlURL: "http://192.168.1.50:1400/wrong"},
		},
	}

	built, err := upnpAdapter{}.buildRequest(device, nil, Request{
		Action:      "Play",
		ServiceType: "urn:schemas-upnp-org:service:AVTransport:1",
		ControlURL:  "http://192.168.1.50:1400/explicit",
	})
	require.NoError(t, err)
	assert.Equal(t, "http://192.168.1.50:1400/explicit", built.URL)
}

func TestSelectProtocolPrefersCastOverUPnP(t *testing.T) {
	device := &models.Device{IP: "192.168.1.60"}
	profile := &models.DeviceProfile{
		Cast: &models.CastBlock{Port: 8008, LaunchURL: "/apps/{app_id}"},
		UPnP: map[string]models.UPnPServiceHint{
			"avtransport": {ServiceType: "urn:schemas-upnp-org:service:AVTransport:1", ControlURL: "http://192.168.1.60/ctl"},
		},
	}

	assert.Equal(t, models.ProtocolCast, SelectProtocol(device, profile))
}

func TestSelectProtocolFallsBackToUPnPWhenNoOtherBlocksMatch(t *testing.T) {
	device := &models.Device{IP: "192.168.1.60"}
	profile := &models.DeviceProfile{
		UPnP: map[string]models.UPnPServiceHint{
			"avtransport": {ServiceType: "urn:schemas-upnp-org:service:AVTransport:1", ControlURL: "http://192.168.1.60/ctl"},
		},
	}

	assert.Equal(t, models.ProtocolUPnP, SelectProtocol(device, profile))
}

func TestEndpointTemplateAdapterSubstitutesArgs(t *testing.T) {
	device := &models.Device{IP: "192.168.1.70"}
	profile := &models.DeviceProfile{
		HEOS: &models.EndpointTemplate{
			Port:     1255,
			Endpoint: "/goform/formiPhoneAppDirect.xml",
			Commands: map[string]string{"set_volume": "?SV{level}"},
		},
	}

	built, err := heosAdapter{}.buildRequest(device, profile, Request{
		Action: "set_volume",
		Args:   map[string]string{"level": "30"},
	})
	require.NoError(t, err)
	assert.Equal(t, "http://192.168.1.70:1255/goform/formiPhoneAppDirect.xml?SV30", built.URL)
}
