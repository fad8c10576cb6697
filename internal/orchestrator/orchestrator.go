// Package orchestrator implements the Mass Orchestrator (spec.md §4.6):
// runs Discovery, matches every device against the Profile Store, decides
// between a shallow or full profiling pass, and emits a priority-sorted
// TargetAssessment report.
package orchestrator

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/lanscope/upnprecon/internal/control"
	"github.com/lanscope/upnprecon/internal/discovery"
	"github.com/lanscope/upnprecon/internal/matcher"
	"github.com/lanscope/upnprecon/internal/models"
	"github.com/lanscope/upnprecon/internal/profiling"
	"github.com/lanscope/upnprecon/pkg/utils"
)

// Orchestrator - Mass Orchestrator.
type Orchestrator struct {
	discoveryEngine *discovery.Engine
	matcher         *matcher.Matcher
	profilingEngine *profiling.Engine
	logger          *logrus.Logger
}

// NewOrchestrator wires the three engines together.
func NewOrchestrator(de *discovery.Engine, m *matcher.Matcher, pe *profiling.Engine) *Orchestrator {
	return &Orchestrator{
		discoveryEngine: de,
		matcher:         m,
		profilingEngine: pe,
		logger:          utils.GetLogger(),
	}
}

// Report - итог прогона Mass Orchestrator: список оценок, отсортированных
// по priority_score (убыв.), затем ip, плюс сводка по buckets (spec.md §4.6).
type Report struct {
	Assessments []*models.TargetAssessment
	BucketCounts map[string]int
}

// Run executes Discover -> per-device Match + shallow/full profile ->
// TargetAssessment, bounded by MassConcurrency (spec.md §4.6, §5).
func (o *Orchestrator) Run(ctx context.Context, deepProfile bool) (*Report, error) {
	devices, err := o.discoveryEngine.Discover(ctx)
	if err != nil {
		return nil, err
	}
	o.logger.Infof("mass orchestrator: assessing %d devices (deep profile = %v)", len(devices), deepProfile)

	var profiles []*profiling.DeviceProfile
	if deepProfile {
		profiles = o.profilingEngine.MassProfile(ctx, devices)
	}
	profileByIdentity := make(map[string]*profiling.DeviceProfile, len(profiles))
	for _, p := range profiles {
		profileByIdentity[p.Device.Identity()] = p
	}

	assessments := make([]*models.TargetAssessment, len(devices))
	var wg sync.WaitGroup
	for i, d := range devices {
		wg.Add(1)
		go func(idx int, device *models.Device) {
			defer wg.Done()
			var scpd *profiling.DeviceProfile
			if deepProfile {
				scpd = profileByIdentity[device.Identity()]
			}
			assessments[idx] = o.assess(device, scpd)
		}(i, d)
	}
	wg.Wait()

	sort.Slice(assessments, func(i, j int) bool {
		if assessments[i].PriorityScore != assessments[j].PriorityScore {
			return assessments[i].PriorityScore > assessments[j].PriorityScore
		}
		return assessments[i].Device.IP < assessments[j].Device.IP
	})

	counts := map[string]int{
		models.PriorityBucketHigh:    0,
		models.PriorityBucketMedium:  0,
		models.PriorityBucketLow:     0,
		models.PriorityBucketUnknown: 0,
	}
	for _, a := range assessments {
		counts[a.Bucket()]++
	}

	return &Report{Assessments: assessments, BucketCounts: counts}, nil
}

// assess builds one TargetAssessment per the additive priority formula of
// spec.md §3, using the deep profiling scan's category summary when
// available.
func (o *Orchestrator) assess(device *models.Device, scpd *profiling.DeviceProfile) *models.TargetAssessment {
	match := o.matcher.Match(device)

	assessment := &models.TargetAssessment{
		Device:          device,
		ProfileMatch:    match,
		PrimaryProtocol: control.SelectProtocol(device, match.Profile),
	}

	score := 0
	switch assessment.PrimaryProtocol {
	case models.ProtocolCast:
		score += models.PriorityWeightCast
	case models.ProtocolWAM:
		score += models.PriorityWeightWAM
	case models.ProtocolECP:
		score += models.PriorityWeightECP
	}

	mediaServiceCount := 0
	for _, svc := range device.Services {
		lower := strings.ToLower(svc.ServiceType)
		if strings.Contains(lower, "avtransport") || strings.Contains(lower, "renderingcontrol") || strings.Contains(lower, "connectionmanager") {
			mediaServiceCount++
		}
	}
	score += mediaServiceCount * models.PriorityWeightUPnPMediaService
	if mediaServiceCount > 0 {
		score += models.PriorityWeightMediaCapability
	}

	if isAdminLike(device) {
		score += models.PriorityWeightAdminInterface
	}
	if device.Port == 80 || device.Port == 8080 {
		score += models.PriorityWeightExposedHTTPAdmin
	}

	if scpd != nil {
		assessment.CategoriesSummary = scpd.Summary.ByCategory
		assessment.SecurityFindings = scpd.Summary.SecurityRelevant
		score += len(scpd.Summary.SecurityRelevant) * models.PriorityWeightSecurityAction
	}

	assessment.PriorityScore = models.ClampPriorityScore(score)
	return assessment
}

func isAdminLike(device *models.Device) bool {
	lower := strings.ToLower(device.FriendlyName + " " + device.ModelName + " " + device.DeviceType)
	return strings.Contains(lower, "router") || strings.Contains(lower, "gateway") || strings.Contains(lower, "igd")
}
