package xmlnorm_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lanscope/upnprecon/internal/models"
	"github.com/lanscope/upnprecon/internal/xmlnorm"
)

const getTransportInfoResponse = `<?xml version="1.0"?>
<s:Envelope xmlns:s="http://schemas.xmlsoap.org/soap/envelope/">
  <s:Body>
    <u:GetTransportInfoResponse xmlns:u="urn:schemas-upnp-org:service:AVTransport:1">
      <CurrentTransportState>PLAYING</CurrentTransportState>
      <CurrentTransportStatus>OK</CurrentTransportStatus>
    </u:GetTransportInfoResponse>
  </s:Body>
</s:Envelope>`

const soapFaultResponse = `<?xml version="1.0"?>
<s:Envelope xmlns:s="http://schemas.xmlsoap.org/soap/envelope/">
  <s:Body>
    <s:Fault>
      <faultcode>s:Client</faultcode>
      <faultstring>UPnPError</faultstring>
      <detail>
        <UPnPError xmlns="urn:schemas-upnp-org:control-1-0">
          <errorCode>501</errorCode>
          <errorDescription>Action Failed</errorDescription>
        </UPnPError>
      </detail>
    </s:Fault>
  </s:Body>
</s:Envelope>`

func TestParseSOAPResponseSuccess(t *testing.T) {
	out, err := xmlnorm.ParseSOAPResponse([]byte(getTransportInfoResponse))
	require.NoError(t, err)
	assert.Equal(t, "PLAYING", out["CurrentTransportState"])
	assert.Equal(t, "OK", out["CurrentTransportStatus"])
}

func TestParseSOAPResponseFault(t *testing.T) {
	_, err := xmlnorm.ParseSOAPResponse([]byte(soapFaultResponse))
	require.Error(t, err)

	var recErr *models.ReconError
	require.ErrorAs(t, err, &recErr)
	assert.Equal(t, models.ErrSoapFault, recErr.Kind)
	assert.Equal(t, 501, recErr.UPnPCode)
	assert.True(t, recErr.IsTransient(), "UPnP error 501 (Action Failed) is classified as transient")
}
