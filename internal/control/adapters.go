package control

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/lanscope/upnprecon/internal/models"
	"github.com/lanscope/upnprecon/internal/xmlnorm"
)

// builtRequest is what an adapter hands back to the engine's SEND step.
type builtRequest struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    []byte
}

// adapter is one vendor protocol's Build/Parse pair (spec.md §4.4). Every
// adapter is stateless; BuildRequest alone decides whether a given
// device/profile/action combination is invocable over this protocol.
type adapter interface {
	protocol() string
	buildRequest(device *models.Device, profile *models.DeviceProfile, req Request) (*builtRequest, error)
	parseResponse(statusCode int, body []byte) (map[string]string, error)
}

// protocolOrder is the priority order the engine tries adapters in, per
// the Control Engine's selection rule (spec.md §3/§4.4 priority weights:
// Cast > WAM > ECP > UPnP; HEOS/MusicCast/JSONRPC/SoundTouch slot between
// ECP and the generic UPnP fallback since the source spec gives them no
// explicit relative order beyond "above plain UPnP").
var protocolOrder = []adapter{
	castAdapter{},
	wamAdapter{},
	ecpAdapter{},
	heosAdapter{},
	musicCastAdapter{},
	jsonRPCAdapter{},
	soundTouchAdapter{},
	upnpAdapter{},
}

// substitute replaces every {key} token in template with args[key].
func substitute(template string, args map[string]string) string {
	out := template
	for k, v := range args {
		out = strings.ReplaceAll(out, "{"+k+"}", v)
	}
	return out
}

func endpointURL(ip string, port int, path string) string {
	return fmt.Sprintf("http://%s:%d%s", ip, port, path)
}

// --- Cast (DIAL launch only; full CASTV2 control is out of scope) ---

type castAdapter struct{}

func (castAdapter) protocol() string { return models.ProtocolCast }

func (castAdapter) buildRequest(device *models.Device, profile *models.DeviceProfile, req Request) (*builtRequest, error) {
	if profile == nil || profile.Cast == nil {
		return nil, models.NewReconError(models.ErrUnknownService, "profile has no cast block", nil)
	}
	if req.Action != "launch" {
		return nil, models.NewReconError(models.ErrNotImplemented, "cast protocol supports only DIAL app launch over HTTP; full CASTV2 media control is out of scope", nil)
	}
	launchURL := profile.Cast.LaunchURL
	if launchURL == "" {
		return nil, models.NewReconError(models.ErrUnknownService, "cast profile missing launch_url", nil)
	}
	return &builtRequest{
		Method:  "POST",
		URL:     endpointURL(device.IP, profile.Cast.Port, substitute(launchURL, req.Args)),
		Headers: map[string]string{"Content-Type": "text/plain; charset=utf-8"},
		Body:    []byte(req.Args["app_args"]),
	}, nil
}

func (castAdapter) parseResponse(statusCode int, body []byte) (map[string]string, error) {
	return map[string]string{"status": strconv.Itoa(statusCode)}, nil
}

// --- WAM (Samsung Wireless Audio Multiroom: SetAVTransportURI-shaped REST) ---

type wamAdapter struct{}

func (wamAdapter) protocol() string { return models.ProtocolWAM }

func (wamAdapter) buildRequest(device *models.Device, profile *models.DeviceProfile, req Request) (*builtRequest, error) {
	if profile == nil || profile.WAM == nil {
		return nil, models.NewReconError(models.ErrUnknownService, "profile has no wam block", nil)
	}
	if req.Action != profile.WAM.SetURLPlayback.Cmd {
		return nil, models.NewReconError(models.ErrUnknownAction, fmt.Sprintf("wam adapter only supports %q", profile.WAM.SetURLPlayback.Cmd), nil)
	}
	return &builtRequest{
		Method:  "POST",
		URL:     endpointURL(device.IP, profile.WAM.Port, profile.WAM.SetURLPlayback.Endpoint),
		Headers: map[string]string{"Content-Type": "text/xml; charset=utf-8"},
		Body:    []byte(substitute(req.Args["payload_template"], req.Args)),
	}, nil
}

func (wamAdapter) parseResponse(statusCode int, body []byte) (map[string]string, error) {
	return map[string]string{"status": strconv.Itoa(statusCode), "raw": string(body)}, nil
}

// --- ECP (Roku External Control Protocol) ---

type ecpAdapter struct{}

func (ecpAdapter) protocol() string { return models.ProtocolECP }

func (ecpAdapter) buildRequest(device *models.Device, profile *models.DeviceProfile, req Request) (*builtRequest, error) {
	if profile == nil || profile.ECP == nil {
		return nil, models.NewReconError(models.ErrUnknownService, "profile has no ecp block", nil)
	}
	var path string
	switch req.Action {
	case "launch":
		path = profile.ECP.LaunchURL
	case "input":
		path = profile.ECP.InputURL
	default:
		return nil, models.NewReconError(models.ErrUnknownAction, fmt.Sprintf("ecp adapter does not support action %q", req.Action), nil)
	}
	return &builtRequest{
		Method: "POST",
		URL:    endpointURL(device.IP, profile.ECP.Port, substitute(path, req.Args)),
	}, nil
}

func (ecpAdapter) parseResponse(statusCode int, body []byte) (map[string]string, error) {
	return map[string]string{"status": strconv.Itoa(statusCode)}, nil
}

// --- EndpointTemplate-driven adapters: HEOS, MusicCast, JSONRPC, SoundTouch ---

func buildFromEndpointTemplate(device *models.Device, tmpl *models.EndpointTemplate, req Request, protocolName string) (*builtRequest, error) {
	if tmpl == nil {
		return nil, models.NewReconError(models.ErrUnknownService, fmt.Sprintf("profile has no %s block", protocolName), nil)
	}
	pathTemplate, ok := tmpl.Commands[req.Action]
	if !ok {
		return nil, models.NewReconError(models.ErrUnknownAction, fmt.Sprintf("%s adapter does not support action %q", protocolName, req.Action), nil)
	}
	return &builtRequest{
		Method: "GET",
		URL:    endpointURL(device.IP, tmpl.Port, substitute(tmpl.Endpoint+pathTemplate, req.Args)),
	}, nil
}

type heosAdapter struct{}

func (heosAdapter) protocol() string { return models.ProtocolHEOS }
func (heosAdapter) buildRequest(device *models.Device, profile *models.DeviceProfile, req Request) (*builtRequest, error) {
	if profile == nil {
		return nil, models.NewReconError(models.ErrUnknownService, "no profile", nil)
	}
	return buildFromEndpointTemplate(device, profile.HEOS, req, "heos")
}
func (heosAdapter) parseResponse(statusCode int, body []byte) (map[string]string, error) {
	return map[string]string{"status": strconv.Itoa(statusCode), "raw": string(body)}, nil
}

type musicCastAdapter struct{}

func (musicCastAdapter) protocol() string { return models.ProtocolMusicCast }
func (musicCastAdapter) buildRequest(device *models.Device, profile *models.DeviceProfile, req Request) (*builtRequest, error) {
	if profile == nil {
		return nil, models.NewReconError(models.ErrUnknownService, "no profile", nil)
	}
	return buildFromEndpointTemplate(device, profile.MusicCast, req, "musiccast")
}
func (musicCastAdapter) parseResponse(statusCode int, body []byte) (map[string]string, error) {
	return map[string]string{"status": strconv.Itoa(statusCode), "raw": string(body)}, nil
}

type jsonRPCAdapter struct{}

func (jsonRPCAdapter) protocol() string { return models.ProtocolJSONRPC }
func (jsonRPCAdapter) buildRequest(device *models.Device, profile *models.DeviceProfile, req Request) (*builtRequest, error) {
	if profile == nil {
		return nil, models.NewReconError(models.ErrUnknownService, "no profile", nil)
	}
	built, err := buildFromEndpointTemplate(device, profile.JSONRPC, req, "jsonrpc")
	if err != nil {
		return nil, err
	}
	built.Method = "POST"
	built.Headers = map[string]string{"Content-Type": "application/json"}
	return built, nil
}
func (jsonRPCAdapter) parseResponse(statusCode int, body []byte) (map[string]string, error) {
	return map[string]string{"status": strconv.Itoa(statusCode), "raw": string(body)}, nil
}

type soundTouchAdapter struct{}

func (soundTouchAdapter) protocol() string { return models.ProtocolSoundTouch }
func (soundTouchAdapter) buildRequest(device *models.Device, profile *models.DeviceProfile, req Request) (*builtRequest, error) {
	if profile == nil {
		return nil, models.NewReconError(models.ErrUnknownService, "no profile", nil)
	}
	return buildFromEndpointTemplate(device, profile.SoundTouch, req, "soundtouch")
}
func (soundTouchAdapter) parseResponse(statusCode int, body []byte) (map[string]string, error) {
	return map[string]string{"status": strconv.Itoa(statusCode), "raw": string(body)}, nil
}

// --- Generic UPnP/SOAP fallback: every device with an advertised service ---

type upnpAdapter struct{}

func (upnpAdapter) protocol() string { return models.ProtocolUPnP }

func (upnpAdapter) buildRequest(device *models.Device, profile *models.DeviceProfile, req Request) (*builtRequest, error) {
	serviceType, controlURL := req.ServiceType, req.ControlURL
	if controlURL == "" {
		serviceType, controlURL = resolveServiceFromHint(device, profile, req.Action)
	}
	if controlURL == "" {
		return nil, models.NewReconError(models.ErrUnknownService, "no matching advertised service for action "+req.Action, nil)
	}

	envelope := buildSOAPEnvelope(req.Action, serviceType, orderedArgs(req.Args, req.ArgOrder))

	return &builtRequest{
		Method: "POST",
		URL:    controlURL,
		Headers: map[string]string{
			"Content-Type": "text/xml; charset=\"utf-8\"",
			"SOAPACTION":   soapActionHeader(serviceType, req.Action),
		},
		Body: []byte(envelope),
	}, nil
}

func (upnpAdapter) parseResponse(statusCode int, body []byte) (map[string]string, error) {
	// A 500 with a SOAP Fault body is the normal UPnP error-signaling path
	// (spec.md §7), so always try to parse the envelope before falling
	// back to a bare HTTP-status error.
	out, err := xmlnorm.ParseSOAPResponse(body)
	if err == nil {
		return out, nil
	}
	if statusCode >= 400 {
		var recErr *models.ReconError
		if errors.As(err, &recErr) && recErr.Kind == models.ErrSoapFault {
			return nil, recErr
		}
		httpErr := models.NewReconError(models.ErrHttpStatus, fmt.Sprintf("soap invoke returned status %d", statusCode), nil)
		httpErr.HTTPStatus = statusCode
		return nil, httpErr
	}
	return nil, err
}

// resolveServiceFromHint returns the first profile UPnP hint that carries both
// a serviceType and a controlURL (hints are visited in map order, so with
// several complete hints the one returned is not defined), falling back to
// the first device service that advertises a controlURL. The action name is
// not consulted when choosing the service.
func resolveServiceFromHint(device *models.Device, profile *models.DeviceProfile, action string) (serviceType, controlURL string) {
	if profile != nil {
		for _, hint := range profile.UPnP {
			if hint.ServiceType != "" && hint.ControlURL != "" {
				serviceType, controlURL = hint.ServiceType, hint.ControlURL
				return
			}
		}
	}
	for _, svc := range device.Services {
		if svc.ControlURL != "" {
			return svc.ServiceType, svc.ControlURL
		}
	}
	return "", ""
}
