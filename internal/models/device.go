package models

import (
	"strconv"
	"time"
)

// Device - обнаруженное UPnP/DLNA/DIAL устройство.
type Device struct {
	IP               string    `json:"ip" yaml:"ip" xml:"ip"`
	Port             int       `json:"port" yaml:"port" xml:"port"`
	UDN              string    `json:"udn,omitempty" yaml:"udn,omitempty" xml:"udn,omitempty"`
	FriendlyName     string    `json:"friendly_name,omitempty" yaml:"friendly_name,omitempty" xml:"friendly_name,omitempty"`
	Manufacturer     string    `json:"manufacturer,omitempty" yaml:"manufacturer,omitempty" xml:"manufacturer,omitempty"`
	ModelName        string    `json:"model_name,omitempty" yaml:"model_name,omitempty" xml:"model_name,omitempty"`
	ModelNumber      string    `json:"model_number,omitempty" yaml:"model_number,omitempty" xml:"model_number,omitempty"`
	DeviceType       string    `json:"device_type,omitempty" yaml:"device_type,omitempty" xml:"device_type,omitempty"`
	DescriptionURL   string    `json:"description_url,omitempty" yaml:"description_url,omitempty" xml:"description_url,omitempty"`
	ServerHeader     string    `json:"server_header,omitempty" yaml:"server_header,omitempty" xml:"server_header,omitempty"`
	DiscoveryMethod  string    `json:"discovery_method" yaml:"discovery_method" xml:"discovery_method"`
	FirstSeen        time.Time `json:"first_seen" yaml:"first_seen" xml:"first_seen"`
	LastSeen         time.Time `json:"last_seen" yaml:"last_seen" xml:"last_seen"`
	Services         []Service `json:"services,omitempty" yaml:"services,omitempty" xml:"services>service,omitempty"`
}

// Discovery method tags, referenced by the SSDP-precedence merge rule (spec.md §3, §4.1 step 4).
const (
	DiscoveryMethodSSDP     = "ssdp"
	DiscoveryMethodPortScan = "port_scan"
)

// Service - один UPnP-сервис устройства.
type Service struct {
	ServiceType  string `json:"service_type" yaml:"service_type" xml:"service_type"`
	ServiceID    string `json:"service_id,omitempty" yaml:"service_id,omitempty" xml:"service_id,omitempty"`
	ControlURL   string `json:"control_url" yaml:"control_url" xml:"control_url"`
	EventSubURL  string `json:"event_sub_url,omitempty" yaml:"event_sub_url,omitempty" xml:"event_sub_url,omitempty"`
	SCPDURL      string `json:"scpd_url" yaml:"scpd_url" xml:"scpd_url"`
}

// Identity returns the device's primary key per the identity rule of spec.md §3:
// UDN when present; otherwise (ip, port); otherwise (manufacturer, model, friendlyName).
func (d *Device) Identity() string {
	if d.UDN != "" {
		return "udn:" + d.UDN
	}
	if d.IP != "" {
		return "ipport:" + d.IP + ":" + strconv.Itoa(d.Port)
	}
	return "triple:" + d.Manufacturer + "|" + d.ModelName + "|" + d.FriendlyName
}
