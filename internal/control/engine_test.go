package control

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lanscope/upnprecon/internal/models"
)

func deviceWithControlURL(url string) *models.Device {
	return &models.Device{
		IP: "127.0.0.1",
		Services: []models.Service{
			{ServiceType: "urn:schemas-upnp-org:service:AVTransport:1", ControlURL: url},
		},
	}
}

func TestInvokeSucceedsOnFirstAttempt(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`<s:Envelope xmlns:s="http://schemas.xmlsoap.org/soap/envelope/">
			<s:Body><u:PlayResponse xmlns:u="urn:schemas-upnp-org:service:AVTransport:1"></u:PlayResponse></s:Body>
		</s:Envelope>`))
	}))
	defer srv.Close()

	e := NewEngine()
	device := deviceWithControlURL(srv.URL)
	result := e.Invoke(context.Background(), device, nil, Request{Action: "Play", Args: map[string]string{"InstanceID": "0"}}, DefaultOptions())

	assert.Equal(t, StateDone, result.State)
	assert.Equal(t, models.ProtocolUPnP, result.Protocol)
	assert.Equal(t, 1, result.Attempts)
	assert.Equal(t, http.StatusOK, result.StatusCode)
	assert.NoError(t, result.Err)
	assert.NotEmpty(t, result.CorrelationID)
}

func TestInvokeDryRunDoesNotSend(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	e := NewEngine()
	device := deviceWithControlURL(srv.URL)
	opts := DefaultOptions()
	opts.DryRun = true

	result := e.Invoke(context.Background(), device, nil, Request{Action: "Play"}, opts)

	assert.Equal(t, StateDone, result.State)
	assert.True(t, result.DryRun)
	assert.False(t, called, "dry-run must not reach the wire")
}

func TestInvokeRetriesOnTransientHTTPStatusThenFails(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	e := NewEngine()
	device := deviceWithControlURL(srv.URL)
	opts := DefaultOptions()
	opts.MaxAttempts = 2

	result := e.Invoke(context.Background(), device, nil, Request{Action: "Play"}, opts)

	assert.Equal(t, StateFail, result.State)
	assert.Equal(t, 2, attempts, "a 503 is transient and must be retried up to MaxAttempts")
	assert.Equal(t, 2, result.Attempts)
	require.Error(t, result.Err)
}

func TestInvokeDoesNotRetryOnNonTransientHTTPStatus(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	e := NewEngine()
	device := deviceWithControlURL(srv.URL)
	opts := DefaultOptions()
	opts.MaxAttempts = 3

	result := e.Invoke(context.Background(), device, nil, Request{Action: "Play"}, opts)

	assert.Equal(t, StateFail, result.State)
	assert.Equal(t, 1, attempts, "a 404 is not transient and must fail fast")
}

func TestInvokeParsesUPnPSoapFaultWithoutRetrying(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`<s:Envelope xmlns:s="http://schemas.xmlsoap.org/soap/envelope/">
			<s:Body><s:Fault>
				<faultcode>s:Client</faultcode>
				<faultstring>UPnPError</faultstring>
				<detail><UPnPError xmlns="urn:schemas-upnp-org:control-1-0">
					<errorCode>401</errorCode>
					<errorDescription>Invalid Action</errorDescription>
				</UPnPError></detail>
			</s:Fault></s:Body>
		</s:Envelope>`))
	}))
	defer srv.Close()

	e := NewEngine()
	device := deviceWithControlURL(srv.URL)
	result := e.Invoke(context.Background(), device, nil, Request{Action: "Bogus"}, DefaultOptions())

	assert.Equal(t, StateFail, result.State)
	assert.Equal(t, 1, attempts, "UPnPError 401 is not a transient fault code")

	var recErr *models.ReconError
	require.ErrorAs(t, result.Err, &recErr)
	assert.Equal(t, models.ErrSoapFault, recErr.Kind)
	assert.Equal(t, 401, recErr.UPnPCode)
}
