package models

// Priority score weights (spec.md §3 TargetAssessment, capped at 100).
const (
	PriorityWeightCast              = 15
	PriorityWeightWAM               = 12
	PriorityWeightECP               = 10
	PriorityWeightUPnPMediaService   = 2 // per matching UPnP media service
	PriorityWeightSecurityAction    = 10 // per security action
	PriorityWeightAdminInterface    = 8
	PriorityWeightExposedHTTPAdmin  = 15
	PriorityWeightMediaCapability   = 5
	PriorityScoreCap                = 100
)

// Priority buckets used by the Mass Orchestrator's report (spec.md §4.6).
const (
	PriorityBucketHigh    = "high"
	PriorityBucketMedium  = "medium"
	PriorityBucketLow     = "low"
	PriorityBucketUnknown = "unknown"
)

// Primary protocol identifiers for TargetAssessment.PrimaryProtocol.
const (
	ProtocolCast       = "cast"
	ProtocolWAM        = "wam"
	ProtocolECP        = "ecp"
	ProtocolHEOS       = "heos"
	ProtocolMusicCast  = "musiccast"
	ProtocolJSONRPC    = "jsonrpc"
	ProtocolSoundTouch = "soundtouch"
	ProtocolUPnP       = "upnp"
	ProtocolUnknown    = "unknown"
)

// ProfileMatchResult pairs a DeviceProfile with its computed score (spec.md §4.5).
type ProfileMatchResult struct {
	Profile *DeviceProfile `json:"profile"`
	Score   int            `json:"score"`
}

// SecurityFinding flags one security-relevant action exposed by a device.
type SecurityFinding struct {
	ServiceName string `json:"service_name"`
	ActionName  string `json:"action_name"`
	Reason      string `json:"reason"`
}

// TargetAssessment - вывод Mass Orchestrator для одного устройства (spec.md §3).
type TargetAssessment struct {
	Device            *Device            `json:"device"`
	ProfileMatch      ProfileMatchResult `json:"profile_match"`
	PrimaryProtocol   string             `json:"primary_protocol"`
	PriorityScore     int                `json:"priority_score"`
	CategoriesSummary map[string]int     `json:"categories_summary,omitempty"`
	SecurityFindings  []SecurityFinding  `json:"security_findings,omitempty"`
}

// ClampPriorityScore caps a raw additive score at [0, PriorityScoreCap].
func ClampPriorityScore(raw int) int {
	if raw < 0 {
		return 0
	}
	if raw > PriorityScoreCap {
		return PriorityScoreCap
	}
	return raw
}

// Bucket returns the report bucket for this assessment's priority score.
func (t *TargetAssessment) Bucket() string {
	switch {
	case t.PriorityScore >= 20:
		return PriorityBucketHigh
	case t.PriorityScore >= 10:
		return PriorityBucketMedium
	case t.PriorityScore > 0:
		return PriorityBucketLow
	default:
		return PriorityBucketUnknown
	}
}
