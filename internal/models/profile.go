package models

// Match score weights per category (spec.md §3 DeviceProfile).
const (
	MatchWeightManufacturer = 4
	MatchWeightModel        = 3
	MatchWeightDeviceType   = 2
	MatchWeightServer       = 1
)

// GenericFallbackProfileName is the designated fallback that matches any
// device exposing a MediaRenderer service, scoring 1 (spec.md §3, §4.5).
const GenericFallbackProfileName = "generic-media-renderer"

// ProfileMatch criteria: each field is a list of substrings, matched
// case-insensitively against the corresponding device field.
type ProfileMatch struct {
	Manufacturer []string `yaml:"manufacturer,omitempty" json:"manufacturer,omitempty"`
	ModelName    []string `yaml:"modelName,omitempty" json:"modelName,omitempty"`
	DeviceType   []string `yaml:"deviceType,omitempty" json:"deviceType,omitempty"`
	ServerHeader []string `yaml:"server_header,omitempty" json:"server_header,omitempty"`
}

// EndpointTemplate is a port + URL/command template carrying {PLACEHOLDER}
// tokens substituted at invocation time (spec.md §4.4).
type EndpointTemplate struct {
	Port     int               `yaml:"port,omitempty" json:"port,omitempty"`
	Endpoint string            `yaml:"endpoint,omitempty" json:"endpoint,omitempty"`
	Commands map[string]string `yaml:"commands,omitempty" json:"commands,omitempty"`
}

// UPnPServiceHint pins an explicit controlURL/serviceType for the generic
// UPnP/SOAP adapter when the profile wants to override autodiscovery.
type UPnPServiceHint struct {
	ServiceType string `yaml:"serviceType,omitempty" json:"serviceType,omitempty"`
	ControlURL  string `yaml:"controlURL,omitempty" json:"controlURL,omitempty"`
}

// ECPBlock - Roku External Control Protocol endpoints.
type ECPBlock struct {
	Port      int    `yaml:"port,omitempty" json:"port,omitempty"`
	LaunchURL string `yaml:"launchURL,omitempty" json:"launchURL,omitempty"`
	InputURL  string `yaml:"inputURL,omitempty" json:"inputURL,omitempty"`
}

// WAMSetURLPlayback describes the Samsung WAM "cmd" template for playback URL set.
type WAMSetURLPlayback struct {
	Cmd      string `yaml:"cmd,omitempty" json:"cmd,omitempty"`
	Endpoint string `yaml:"endpoint,omitempty" json:"endpoint,omitempty"`
}

// WAMBlock - Samsung Wireless Audio Multiroom endpoints.
type WAMBlock struct {
	Port           int               `yaml:"port,omitempty" json:"port,omitempty"`
	SetURLPlayback WAMSetURLPlayback `yaml:"setUrlPlayback,omitempty" json:"setUrlPlayback,omitempty"`
}

// CastBlock - Google Cast / DIAL identification endpoints (no invocation, §4.4).
type CastBlock struct {
	Port           int    `yaml:"port,omitempty" json:"port,omitempty"`
	DeviceDescURL  string `yaml:"deviceDescURL,omitempty" json:"deviceDescURL,omitempty"`
	MediaNamespace string `yaml:"mediaNamespace,omitempty" json:"mediaNamespace,omitempty"`
	LaunchURL      string `yaml:"launchURL,omitempty" json:"launchURL,omitempty"`
}

// DeviceProfile - декларативная запись, описывающая семейство устройств и
// их протоколы-сиблинги, загружаемая из внешнего файла (spec.md §3, §6).
type DeviceProfile struct {
	Name  string       `yaml:"name" json:"name"`
	Match ProfileMatch `yaml:"match" json:"match"`

	UPnP       map[string]UPnPServiceHint `yaml:"upnp,omitempty" json:"upnp,omitempty"`
	ECP        *ECPBlock                  `yaml:"ecp,omitempty" json:"ecp,omitempty"`
	WAM        *WAMBlock                  `yaml:"wam,omitempty" json:"wam,omitempty"`
	Cast       *CastBlock                 `yaml:"cast,omitempty" json:"cast,omitempty"`
	HEOS       *EndpointTemplate          `yaml:"heos,omitempty" json:"heos,omitempty"`
	MusicCast  *EndpointTemplate          `yaml:"musiccast,omitempty" json:"musiccast,omitempty"`
	JSONRPC    *EndpointTemplate          `yaml:"jsonrpc,omitempty" json:"jsonrpc,omitempty"`
	SoundTouch *EndpointTemplate          `yaml:"soundtouch,omitempty" json:"soundtouch,omitempty"`

	Notes string `yaml:"notes,omitempty" json:"notes,omitempty"`
}

// IsGenericFallback reports whether this is the designated catch-all profile.
func (p *DeviceProfile) IsGenericFallback() bool {
	return p.Name == GenericFallbackProfileName
}
