package control

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/lanscope/upnprecon/internal/models"
	"github.com/lanscope/upnprecon/internal/probe"
	"github.com/lanscope/upnprecon/pkg/utils"
)

// Engine - Control Engine (spec.md §4.4): picks the best-fit protocol
// adapter for a device/profile pair and runs one invocation through the
// BUILD -> SEND -> WAIT -> PARSE -> DONE|FAIL state machine, retrying
// transient failures up to Options.MaxAttempts.
type Engine struct {
	fetcher *probe.HTTPFetcher
	logger  *logrus.Logger
}

// NewEngine создает Control Engine поверх общего HTTPFetcher.
func NewEngine() *Engine {
	return &Engine{
		fetcher: probe.NewHTTPFetcher(),
		logger:  utils.GetLogger(),
	}
}

// SelectProtocol returns the name of the first applicable adapter in
// priority order for the given profile (spec.md §4.4), without sending
// anything. Used by the Mass Orchestrator to set
// TargetAssessment.PrimaryProtocol.
func SelectProtocol(device *models.Device, profile *models.DeviceProfile) string {
	for _, a := range protocolOrder {
		if _, err := a.buildRequest(device, profile, Request{Action: probeAction(a, profile)}); err == nil {
			return a.protocol()
		}
	}
	if profile != nil {
		return models.ProtocolUPnP
	}
	return models.ProtocolUnknown
}

// probeAction returns a harmless action name used only to test whether an
// adapter's profile block is populated, without claiming any specific
// action is actually supported.
func probeAction(a adapter, profile *models.DeviceProfile) string {
	switch a.protocol() {
	case models.ProtocolCast:
		return "launch"
	case models.ProtocolECP:
		return "launch"
	}
	if profile == nil {
		return "__probe__"
	}
	if a.protocol() == models.ProtocolWAM && profile.WAM != nil {
		return profile.WAM.SetURLPlayback.Cmd
	}
	templates := map[string]*models.EndpointTemplate{
		models.ProtocolHEOS: profile.HEOS, models.ProtocolMusicCast: profile.MusicCast,
		models.ProtocolJSONRPC: profile.JSONRPC, models.ProtocolSoundTouch: profile.SoundTouch,
	}
	if tmpl := templates[a.protocol()]; tmpl != nil {
		for name := range tmpl.Commands {
			return name
		}
	}
	return "__probe__"
}

// Invoke runs one action invocation against device, using profile to pick
// and configure the adapter, honoring opts (timeout/TLS/stealth/dry-run/
// retry), per spec.md §4.4.
func (e *Engine) Invoke(ctx context.Context, device *models.Device, profile *models.DeviceProfile, req Request, opts Options) *Result {
	result := &Result{CorrelationID: uuid.NewString(), State: StateBuild}
	e.logger.Debugf("invoke %s: correlation_id=%s action=%s", device.Identity(), result.CorrelationID, req.Action)

	chosen, built, err := e.selectAndBuild(device, profile, req)
	if err != nil {
		result.State = StateFail
		result.Err = err
		return result
	}
	result.Protocol = chosen.protocol()
	result.RequestBody = string(built.Body)

	if opts.DryRun {
		result.State = StateDone
		result.DryRun = true
		return result
	}

	maxAttempts := opts.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 3
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		result.Attempts = attempt + 1
		result.State = StateSend

		fetchOpts := probe.FetchOptions{
			Timeout:   opts.Timeout,
			UseSSL:    opts.UseSSL,
			VerifyTLS: opts.VerifyTLS,
			Stealth:   opts.Stealth,
			Headers:   built.Headers,
			Body:      built.Body,
			Method:    built.Method,
		}

		result.State = StateWait
		fetchResult, fetchErr := e.fetcher.Fetch(ctx, built.URL, fetchOpts)
		if fetchErr != nil {
			lastErr = fetchErr
			if !isRetryable(fetchErr) || attempt == maxAttempts-1 {
				break
			}
			if !e.sleepBackoff(ctx, attempt) {
				lastErr = ctx.Err()
				break
			}
			continue
		}

		truncateBytes := opts.TruncateBytes
		if truncateBytes <= 0 {
			truncateBytes = 300
		}
		result.StatusCode = fetchResult.StatusCode
		result.ResponseBody = models.TruncateSnippet(fetchResult.Body, truncateBytes)

		result.State = StateParse
		outArgs, parseErr := chosen.parseResponse(fetchResult.StatusCode, fetchResult.Body)
		if parseErr != nil {
			lastErr = parseErr
			if !isRetryable(parseErr) || attempt == maxAttempts-1 {
				break
			}
			if !e.sleepBackoff(ctx, attempt) {
				lastErr = ctx.Err()
				break
			}
			continue
		}

		result.OutArgs = outArgs
		result.State = StateDone
		return result
	}

	result.State = StateFail
	result.Err = lastErr
	return result
}

func (e *Engine) selectAndBuild(device *models.Device, profile *models.DeviceProfile, req Request) (adapter, *builtRequest, error) {
	if req.ServiceType != "" || req.ControlURL != "" {
		built, err := upnpAdapter{}.buildRequest(device, profile, req)
		if err == nil {
			return upnpAdapter{}, built, nil
		}
	}

	for _, a := range protocolOrder {
		built, err := a.buildRequest(device, profile, req)
		if err == nil {
			return a, built, nil
		}
	}

	return nil, nil, models.NewReconError(models.ErrUnknownAction, "no adapter could build a request for action "+req.Action, nil)
}

func (e *Engine) sleepBackoff(ctx context.Context, attempt int) bool {
	timer := time.NewTimer(backoffDelay(attempt))
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}

