// Package profiling implements the Profiling Engine (spec.md §4.3): fetches
// every service's SCPD document for a device and builds its Action
// Inventory, with a mass-profiling variant bounded by a global concurrency
// cap (spec.md §5).
package profiling

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/lanscope/upnprecon/internal/models"
	"github.com/lanscope/upnprecon/internal/probe"
	"github.com/lanscope/upnprecon/internal/xmlnorm"
	"github.com/lanscope/upnprecon/pkg/utils"
)

// ServiceProfile - SCPD-разбор одного сервиса устройства (spec.md §4.3).
type ServiceProfile struct {
	ServiceName string // последний токен service type, в нижнем регистре, без цифр
	ServiceType string
	ControlURL  string
	SCPD        *models.SCPDDocument
	FetchError  string
}

// DeviceProfile - полная Action Inventory одного устройства: разобранный
// SCPD каждого объявленного сервиса плюс агрегированная сводка.
type DeviceProfile struct {
	Device   *models.Device
	Services []ServiceProfile
	Summary  ScpdAnalysis
}

// ScpdAnalysis - агрегированная сводка по всем сервисам устройства
// (spec.md §4.3: "summary of actions by category/complexity").
type ScpdAnalysis struct {
	TotalActions     int
	ByCategory       map[string]int
	ByComplexity     map[string]int
	SecurityRelevant []models.SecurityFinding
}

var serviceNameDigits = regexp.MustCompile(`[0-9]+$`)

// deriveServiceName берет последний токен URN (после последнего ':') и
// убирает версию в конце (spec.md §4.3: "urn:schemas-upnp-org:service:
// AVTransport:1" -> "avtransport").
func deriveServiceName(serviceType string) string {
	parts := strings.Split(serviceType, ":")
	last := parts[len(parts)-1]
	if len(parts) > 1 && serviceNameDigits.ReplaceAllString(last, "") == "" {
		last = parts[len(parts)-2]
	}
	last = serviceNameDigits.ReplaceAllString(last, "")
	return strings.ToLower(last)
}

// Engine - Profiling Engine.
type Engine struct {
	perDeviceConcurrency int
	massConcurrency      int
	fetcher              *probe.HTTPFetcher
	logger               *logrus.Logger
}

// NewEngine создает Profiling Engine с заданной конфигурацией.
func NewEngine(cfg models.ProfilingConfig) *Engine {
	perDevice := cfg.PerDeviceConcurrency
	if perDevice <= 0 {
		perDevice = 8
	}
	mass := cfg.MassConcurrency
	if mass <= 0 {
		mass = 16
	}
	return &Engine{
		perDeviceConcurrency: perDevice,
		massConcurrency:      mass,
		fetcher:              probe.NewHTTPFetcher(),
		logger:               utils.GetLogger(),
	}
}

// ProfileDevice fetches and parses every advertised service's SCPD document
// for one device, bounded by PerDeviceConcurrency (spec.md §4.3, §5).
func (e *Engine) ProfileDevice(ctx context.Context, device *models.Device) (*DeviceProfile, error) {
	if device == nil {
		return nil, fmt.Errorf("profiling: nil device")
	}

	profiles := make([]ServiceProfile, len(device.Services))
	sem := make(chan struct{}, e.perDeviceConcurrency)
	var wg sync.WaitGroup

	for i, svc := range device.Services {
		wg.Add(1)
		go func(idx int, s models.Service) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				return
			}
			defer func() { <-sem }()

			profiles[idx] = e.profileService(ctx, s)
		}(i, svc)
	}
	wg.Wait()

	dp := &DeviceProfile{
		Device:   device,
		Services: profiles,
		Summary:  summarize(profiles),
	}
	return dp, nil
}

func (e *Engine) profileService(ctx context.Context, svc models.Service) ServiceProfile {
	sp := ServiceProfile{
		ServiceName: deriveServiceName(svc.ServiceType),
		ServiceType: svc.ServiceType,
		ControlURL:  svc.ControlURL,
	}

	if svc.SCPDURL == "" {
		sp.FetchError = "no SCPDURL advertised"
		return sp
	}

	result, err := e.fetcher.Fetch(ctx, svc.SCPDURL, probe.FetchOptions{Timeout: 5 * time.Second})
	if err != nil {
		sp.FetchError = err.Error()
		return sp
	}
	if result.StatusCode != 200 {
		sp.FetchError = fmt.Sprintf("scpd fetch returned status %d", result.StatusCode)
		return sp
	}

	doc, err := xmlnorm.ParseSCPD(result.Body)
	if err != nil {
		sp.FetchError = err.Error()
		return sp
	}
	sp.SCPD = doc
	return sp
}

// MassProfile profiles many devices concurrently, bounded by the global
// MassConcurrency cap shared across all devices (spec.md §4.6, §5 — the
// per-device cap nests inside this outer one).
func (e *Engine) MassProfile(ctx context.Context, devices []*models.Device) []*DeviceProfile {
	results := make([]*DeviceProfile, len(devices))
	sem := make(chan struct{}, e.massConcurrency)
	var wg sync.WaitGroup

	for i, d := range devices {
		wg.Add(1)
		go func(idx int, device *models.Device) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				return
			}
			defer func() { <-sem }()

			dp, err := e.ProfileDevice(ctx, device)
			if err != nil {
				e.logger.Warnf("profiling failed for %s: %v", device.Identity(), err)
				return
			}
			results[idx] = dp
		}(i, d)
	}
	wg.Wait()

	out := results[:0]
	for _, r := range results {
		if r != nil {
			out = append(out, r)
		}
	}
	return out
}

// summarize builds the ScpdAnalysis aggregate across a device's services.
func summarize(profiles []ServiceProfile) ScpdAnalysis {
	summary := ScpdAnalysis{
		ByCategory:   make(map[string]int),
		ByComplexity: make(map[string]int),
	}

	for _, sp := range profiles {
		if sp.SCPD == nil {
			continue
		}
		for _, action := range sp.SCPD.Actions {
			summary.TotalActions++
			summary.ByCategory[action.Category]++
			summary.ByComplexity[action.Complexity]++

			if action.Category == models.CategorySecurity {
				summary.SecurityRelevant = append(summary.SecurityRelevant, models.SecurityFinding{
					ServiceName: sp.ServiceName,
					ActionName:  action.Name,
					Reason:      "action name/category indicates security-sensitive control",
				})
			}
		}
	}

	return summary
}
