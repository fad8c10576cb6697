package xmlnorm_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lanscope/upnprecon/internal/models"
	"github.com/lanscope/upnprecon/internal/xmlnorm"
)

const sonosDeviceDescription = `<?xml version="1.0"?>
<root xmlns="urn:schemas-upnp-org:device-1-0">
  <device>
    <deviceType>urn:schemas-upnp-org:device:ZonePlayer:1</deviceType>
    <friendlyName>Living Room</friendlyName>
    <manufacturer>Sonos, Inc.</manufacturer>
    <modelName>Sonos One</modelName>
    <modelNumber>S13</modelNumber>
    <UDN>uuid:RINCON_000E58123456401400</UDN>
    <serviceList>
      <service>
        <serviceType>urn:schemas-upnp-org:service:AVTransport:1</serviceType>
        <serviceId>urn:upnp-org:serviceId:AVTransport</serviceId>
        <controlURL>/MediaRenderer/AVTransport/Control</controlURL>
        <eventSubURL>/MediaRenderer/AVTransport/Event</eventSubURL>
        <SCPDURL>/xml/AVTransport1.xml</SCPDURL>
      </service>
    </serviceList>
  </device>
</root>`

const genericIGDDeviceDescription = `<root>
  <URLBase>http://192.168.1.1:49152/</URLBase>
  <device>
    <deviceType>urn:schemas-upnp-org:device:InternetGatewayDevice:1</deviceType>
    <friendlyName>Home Router</friendlyName>
    <manufacturer>Generic Corp</manufacturer>
    <modelName>IGD-1000</modelName>
    <UDN>uuid:11223344-5566-7788-99aa-bbccddeeff00</UDN>
    <serviceList>
      <service>
        <serviceType>urn:schemas-upnp-org:service:WANIPConnection:1</serviceType>
        <serviceId>urn:upnp-org:serviceId:WANIPConn1</serviceId>
        <controlURL>ctl/IPConn</controlURL>
        <eventSubURL>evt/IPConn</eventSubURL>
        <SCPDURL>WANIPCn.xml</SCPDURL>
      </service>
    </serviceList>
  </device>
</root>`

const sonyIRCCDeviceDescription = `<?xml version="1.0"?>
<root xmlns="urn:schemas-upnp-org:device-1-0" xmlns:av="urn:schemas-sony-com:av">
  <device>
    <deviceType>urn:schemas-upnp-org:device:MediaRenderer:1</deviceType>
    <friendlyName>Living Room TV</friendlyName>
    <manufacturer>Sony Corporation</manufacturer>
    <modelName>BRAVIA KDL-50W800B</modelName>
    <UDN>uuid:9ab0c000-f061-11e3-8001-10bf48c18e71</UDN>
    <serviceList>
      <service>
        <serviceType>urn:schemas-sony-com:service:IRCC:1</serviceType>
        <serviceId>urn:schemas-sony-com:serviceId:IRCC</serviceId>
        <controlURL>/upnp/control/IRCC</controlURL>
        <eventSubURL>/upnp/event/IRCC</eventSubURL>
        <SCPDURL>/scpd/IRCC</SCPDURL>
      </service>
    </serviceList>
  </device>
</root>`

func TestParseDeviceDescriptionSonyIRCC(t *testing.T) {
	device, err := xmlnorm.ParseDeviceDescription([]byte(sonyIRCCDeviceDescription), "http://192.168.1.80:52323/dmr.xml")
	require.NoError(t, err)

	assert.Equal(t, "Sony Corporation", device.Manufacturer)
	assert.Equal(t, "BRAVIA KDL-50W800B", device.ModelName)
	require.Len(t, device.Services, 1)
	assert.Equal(t, "urn:schemas-sony-com:service:IRCC:1", device.Services[0].ServiceType)
	assert.Equal(t, "http://192.168.1.80:52323/upnp/control/IRCC", device.Services[0].ControlURL,
		"vendor-namespaced service types resolve relative URLs the same as schemas-upnp-org ones")
}

func TestParseDeviceDescriptionSonos(t *testing.T) {
	device, err := xmlnorm.ParseDeviceDescription([]byte(sonosDeviceDescription), "http://192.168.1.50:1400/xml/device_description.xml")
	require.NoError(t, err)

	assert.Equal(t, "Living Room", device.FriendlyName)
	assert.Equal(t, "Sonos, Inc.", device.Manufacturer)
	assert.Equal(t, "RINCON_000E58123456401400", device.UDN, "uuid: prefix should be stripped")
	require.Len(t, device.Services, 1)
	assert.Equal(t, "http://192.168.1.50:1400/MediaRenderer/AVTransport/Control", device.Services[0].ControlURL,
		"relative controlURL resolves against the fetch URL's scheme+host+port when no URLBase is present")
}

func TestParseDeviceDescriptionResolvesAgainstURLBase(t *testing.T) {
	device, err := xmlnorm.ParseDeviceDescription([]byte(genericIGDDeviceDescription), "http://192.168.1.1:8080/desc.xml")
	require.NoError(t, err)

	require.Len(t, device.Services, 1)
	assert.Equal(t, "http://192.168.1.1:49152/ctl/IPConn", device.Services[0].ControlURL,
		"an explicit URLBase overrides the fetch URL's own host/port")
}

func TestParseDeviceDescriptionMalformedXML(t *testing.T) {
	_, err := xmlnorm.ParseDeviceDescription([]byte("not xml at all"), "http://x/desc.xml")
	require.Error(t, err)

	var recErr *models.ReconError
	require.ErrorAs(t, err, &recErr)
	assert.Equal(t, models.ErrMalformedXml, recErr.Kind)
}

const avTransportSCPD = `<scpd>
  <actionList>
    <action>
      <name>SetAVTransportURI</name>
      <argumentList>
        <argument>
          <name>InstanceID</name>
          <direction>in</direction>
          <relatedStateVariable>A_ARG_TYPE_InstanceID</relatedStateVariable>
        </argument>
        <argument>
          <name>CurrentURI</name>
          <direction>in</direction>
          <relatedStateVariable>AVTransportURI</relatedStateVariable>
        </argument>
      </argumentList>
    </action>
    <action>
      <name>GetTransportInfo</name>
      <argumentList>
        <argument>
          <name>InstanceID</name>
          <direction>in</direction>
          <relatedStateVariable>A_ARG_TYPE_InstanceID</relatedStateVariable>
        </argument>
        <argument>
          <name>CurrentTransportState</name>
          <direction>out</direction>
          <relatedStateVariable>TransportState</relatedStateVariable>
        </argument>
      </argumentList>
    </action>
  </actionList>
  <serviceStateTable>
    <stateVariable sendEvents="no">
      <name>A_ARG_TYPE_InstanceID</name>
      <dataType>ui4</dataType>
    </stateVariable>
    <stateVariable sendEvents="no">
      <name>AVTransportURI</name>
      <dataType>string</dataType>
    </stateVariable>
    <stateVariable sendEvents="yes">
      <name>TransportState</name>
      <dataType>string</dataType>
      <allowedValueList>
        <allowedValue>PLAYING</allowedValue>
        <allowedValue>STOPPED</allowedValue>
      </allowedValueList>
    </stateVariable>
  </serviceStateTable>
</scpd>`

func TestParseSCPDResolvesArgumentDataTypes(t *testing.T) {
	doc, err := xmlnorm.ParseSCPD([]byte(avTransportSCPD))
	require.NoError(t, err)
	require.Len(t, doc.Actions, 2)

	setURI := doc.Actions["SetAVTransportURI"]
	require.NotNil(t, setURI)
	assert.Equal(t, models.CategoryMediaControl, setURI.Category)
	assert.Equal(t, models.ComplexityMedium, setURI.Complexity)

	getInfo := doc.Actions["GetTransportInfo"]
	require.NotNil(t, getInfo)
	assert.Equal(t, models.CategoryInformation, getInfo.Category,
		"GetTransportInfo must fall through to information, not media_control")

	var transportStateArg *models.ActionArgument
	for i := range getInfo.ArgumentsOut {
		if getInfo.ArgumentsOut[i].Name == "CurrentTransportState" {
			transportStateArg = &getInfo.ArgumentsOut[i]
		}
	}
	require.NotNil(t, transportStateArg)
	assert.Equal(t, []string{"PLAYING", "STOPPED"}, transportStateArg.AllowedValues)
}

const sonyIRCCSCPD = `<scpd>
  <actionList>
    <action>
      <name>X_SendIRCC</name>
      <argumentList>
        <argument>
          <name>IRCCCode</name>
          <direction>in</direction>
          <relatedStateVariable>X_A_ARG_TYPE_IRCCCode</relatedStateVariable>
        </argument>
      </argumentList>
    </action>
    <action>
      <name>X_GetStatus</name>
      <argumentList>
        <argument>
          <name>id</name>
          <direction>in</direction>
          <relatedStateVariable>X_A_ARG_TYPE_CommandId</relatedStateVariable>
        </argument>
        <argument>
          <name>value</name>
          <direction>out</direction>
          <relatedStateVariable>X_A_ARG_TYPE_CommandValue</relatedStateVariable>
        </argument>
      </argumentList>
    </action>
  </actionList>
  <serviceStateTable>
    <stateVariable sendEvents="no">
      <name>X_A_ARG_TYPE_IRCCCode</name>
      <dataType>string</dataType>
    </stateVariable>
    <stateVariable sendEvents="no">
      <name>X_A_ARG_TYPE_CommandId</name>
      <dataType>string</dataType>
    </stateVariable>
    <stateVariable sendEvents="no">
      <name>X_A_ARG_TYPE_CommandValue</name>
      <dataType>string</dataType>
    </stateVariable>
  </serviceStateTable>
</scpd>`

func TestParseSCPDSonyIRCCVendorExtensionActions(t *testing.T) {
	doc, err := xmlnorm.ParseSCPD([]byte(sonyIRCCSCPD))
	require.NoError(t, err)
	require.Len(t, doc.Actions, 2)

	sendIRCC := doc.Actions["X_SendIRCC"]
	require.NotNil(t, sendIRCC)
	require.Len(t, sendIRCC.ArgumentsIn, 1)
	assert.Equal(t, "IRCCCode", sendIRCC.ArgumentsIn[0].Name)
	assert.Equal(t, models.ComplexityEasy, sendIRCC.Complexity)
	assert.Equal(t, models.CategoryOther, sendIRCC.Category,
		"Sony's X_ prefix/IRCC vendor action name matches none of the spec's category keywords")

	getStatus := doc.Actions["X_GetStatus"]
	require.NotNil(t, getStatus)
	assert.Equal(t, models.CategoryInformation, getStatus.Category,
		"X_GetStatus still matches the generic \"get\" keyword despite the vendor X_ prefix")
}

func TestCategorizeAction(t *testing.T) {
	cases := []struct {
		action string
		want   string
	}{
		{"SetPassword", models.CategorySecurity},
		{"SetVolume", models.CategoryVolumeControl},
		{"Play", models.CategoryMediaControl},
		{"SetAVTransportURI", models.CategoryMediaControl},
		{"GetTransportInfo", models.CategoryInformation},
		{"SetConfigURL", models.CategoryConfiguration},
		{"GetDeviceCapabilities", models.CategoryInformation},
		{"Reboot", models.CategoryOther},
	}

	for _, tc := range cases {
		t.Run(tc.action, func(t *testing.T) {
			assert.Equal(t, tc.want, xmlnorm.CategorizeAction(tc.action))
		})
	}
}
