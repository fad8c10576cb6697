// Package matcher implements the Profile Matcher (spec.md §4.5): scores a
// discovered Device against every profile in the Profile Store and picks
// the best match, falling back to a generic profile when nothing scores
// above zero.
package matcher

import (
	"strings"

	"github.com/lanscope/upnprecon/internal/models"
	"github.com/lanscope/upnprecon/internal/profilestore"
)

// Matcher сопоставляет устройство с каталогом DeviceProfile.
type Matcher struct {
	store *profilestore.Store
}

// NewMatcher создает Matcher поверх заданного Profile Store.
func NewMatcher(store *profilestore.Store) *Matcher {
	return &Matcher{store: store}
}

// Match scores device against every catalog profile using the weighted
// field-match rule of spec.md §4.5 (manufacturer=4, model=3, deviceType=2,
// server=1) and returns the highest-scoring profile. Ties break toward the
// profile whose matched pattern is longest/most specific. A device that
// fails to score against any profile matches the generic fallback with
// score 1, conditioned on it exposing a MediaRenderer-shaped service.
func (m *Matcher) Match(device *models.Device) models.ProfileMatchResult {
	var best *models.DeviceProfile
	bestScore := 0
	bestSpecificity := 0

	for _, profile := range m.store.All() {
		score, specificity := scoreProfile(device, profile)
		if score <= 0 {
			continue
		}
		if score > bestScore || (score == bestScore && specificity > bestSpecificity) {
			best = profile
			bestScore = score
			bestSpecificity = specificity
		}
	}

	if best != nil {
		return models.ProfileMatchResult{Profile: best, Score: bestScore}
	}

	if fallback := m.store.ByName(models.GenericFallbackProfileName); fallback != nil && isMediaRenderer(device) {
		return models.ProfileMatchResult{Profile: fallback, Score: 1}
	}

	return models.ProfileMatchResult{Profile: nil, Score: 0}
}

// scoreProfile returns the additive weighted match score and a specificity
// tiebreaker (sum of matched pattern lengths — longer, more specific
// matches win ties, per spec.md §4.5).
func scoreProfile(device *models.Device, profile *models.DeviceProfile) (int, int) {
	score := 0
	specificity := 0

	if pattern, ok := matchesAny(device.Manufacturer, profile.Match.Manufacturer); ok {
		score += models.MatchWeightManufacturer
		specificity += len(pattern)
	}
	if pattern, ok := matchesAny(device.ModelName, profile.Match.ModelName); ok {
		score += models.MatchWeightModel
		specificity += len(pattern)
	}
	if pattern, ok := matchesAny(device.DeviceType, profile.Match.DeviceType); ok {
		score += models.MatchWeightDeviceType
		specificity += len(pattern)
	}
	if pattern, ok := matchesAny(device.ServerHeader, profile.Match.ServerHeader); ok {
		score += models.MatchWeightServer
		specificity += len(pattern)
	}

	return score, specificity
}

// matchesAny reports whether value case-insensitively contains any of the
// candidate patterns; it returns the matched pattern for specificity scoring.
func matchesAny(value string, patterns []string) (string, bool) {
	if value == "" {
		return "", false
	}
	lowerValue := strings.ToLower(value)
	for _, p := range patterns {
		if p == "" {
			continue
		}
		if strings.Contains(lowerValue, strings.ToLower(p)) {
			return p, true
		}
	}
	return "", false
}

// isMediaRenderer reports whether device advertises a MediaRenderer-family
// service, the eligibility condition for the generic fallback (spec.md §4.5).
func isMediaRenderer(device *models.Device) bool {
	if strings.Contains(strings.ToLower(device.DeviceType), "mediarenderer") {
		return true
	}
	for _, svc := range device.Services {
		if strings.Contains(strings.ToLower(svc.ServiceType), "avtransport") ||
			strings.Contains(strings.ToLower(svc.ServiceType), "renderingcontrol") {
			return true
		}
	}
	return false
}
