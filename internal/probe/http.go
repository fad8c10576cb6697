package probe

import (
	"context"
	"crypto/tls"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"

	"github.com/lanscope/upnprecon/internal/models"
	"github.com/lanscope/upnprecon/pkg/utils"
)

var insecureTLSConfig = tls.Config{InsecureSkipVerify: true}

func forceHTTPS(url string) string {
	if len(url) >= 7 && url[:7] == "http://" {
		return "https://" + url[7:]
	}
	return url
}

// userAgentPool - ротация identity для stealth-режима (spec.md §4.4),
// построена из распространённых строк Server: UPnP-устройств (зеркально
// тому, что RekadzeAV-Local-video-server's parseServerHeader пытается
// разобрать в обратную сторону).
var userAgentPool = []string{
	"Linux/3.14 UPnP/1.0 DLNADOC/1.50 upnprecon/1.0",
	"Windows 10/10.0 UPnP/1.1 UPnP-Device-Host/1.0 upnprecon/1.0",
	"Darwin/22.0 UPnP/1.0 upnprecon/1.0",
	"SONOS/67.0-rc1 UPnP/1.0 Sonos/67.0 upnprecon/1.0",
	"Roku/11.5 UPnP/1.0 upnprecon/1.0",
}

// FetchOptions controls a single HTTP fetch/invoke through the Probe.
type FetchOptions struct {
	Timeout    time.Duration
	UseSSL     bool
	VerifyTLS  bool
	Stealth    bool
	JitterMin  time.Duration
	JitterMax  time.Duration
	Headers    map[string]string
	Body       []byte
	Method     string // default GET
}

// HTTPFetcher - shared entrypoint for outbound HTTP used by the Discovery
// Engine (description fetch), Profiling Engine (SCPD fetch) and Control
// Engine (SOAP/REST transport). It is called concurrently (Discovery's
// description-fetch phase, Profiling's per-device/mass fan-out through
// PerDeviceConcurrency x MassConcurrency), so it holds no per-call resty
// state: every Fetch builds its own resty.Client sized for that one
// request's Timeout/VerifyTLS, rather than mutating one shared client, per
// spec.md §5 ("global per-call deadline + per-request deadline; the
// earlier one wins").
type HTTPFetcher struct {
	logger *logrus.Logger
	rng    *rand.Rand
	rngMu  sync.Mutex
}

// NewHTTPFetcher builds an HTTPFetcher.
func NewHTTPFetcher() *HTTPFetcher {
	return &HTTPFetcher{
		logger: utils.GetLogger(),
		rng:    rand.New(rand.NewSource(1)),
	}
}

// FetchResult - raw response captured for the caller to parse/classify.
type FetchResult struct {
	StatusCode int
	Body       []byte
	UserAgent  string
}

// Fetch performs one HTTP request honoring FetchOptions' stealth jitter,
// rotating user-agent, TLS toggle, and deadline. It is the sole
// suspension point for outbound HTTP in the system.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string, opts FetchOptions) (*FetchResult, error) {
	if opts.Stealth {
		if err := f.jitter(ctx, opts); err != nil {
			return nil, err
		}
	}

	method := opts.Method
	if method == "" {
		method = "GET"
	}

	if opts.UseSSL {
		url = forceHTTPS(url)
	}

	client := resty.New()
	client.SetRetryCount(0) // retry policy lives in the Control Engine, not here
	if opts.Timeout > 0 {
		client.SetTimeout(opts.Timeout)
	}
	if !opts.VerifyTLS {
		client.SetTLSClientConfig(&insecureTLSConfig)
	}
	req := client.R().SetContext(ctx)

	ua := "upnprecon/1.0"
	if opts.Stealth {
		ua = userAgentPool[f.randomUserAgentIndex()]
	}
	req.SetHeader("User-Agent", ua)
	for k, v := range opts.Headers {
		req.SetHeader(k, v)
	}
	if len(opts.Body) > 0 {
		req.SetBody(opts.Body)
	}

	resp, err := req.Execute(method, url)
	if err != nil {
		if ctx.Err() != nil {
			return nil, &models.ReconError{Kind: models.ErrCanceled, Message: "fetch canceled", Cause: ctx.Err()}
		}
		return nil, &models.ReconError{Kind: models.ErrNetworkUnreachable, Message: fmt.Sprintf("fetch %s", url), Cause: err}
	}

	return &FetchResult{StatusCode: resp.StatusCode(), Body: resp.Body(), UserAgent: ua}, nil
}

// randomUserAgentIndex picks a userAgentPool index, guarding the shared rng
// since Fetch is called concurrently across Discovery/Profiling/Control.
func (f *HTTPFetcher) randomUserAgentIndex() int {
	f.rngMu.Lock()
	defer f.rngMu.Unlock()
	return f.rng.Intn(len(userAgentPool))
}

// jitter sleeps a random duration in [JitterMin, JitterMax] before sending,
// honoring ctx cancellation (spec.md §4.4 stealth, §5 cancellation).
func (f *HTTPFetcher) jitter(ctx context.Context, opts FetchOptions) error {
	lo, hi := opts.JitterMin, opts.JitterMax
	if lo <= 0 {
		lo = 50 * time.Millisecond
	}
	if hi <= lo {
		hi = 400 * time.Millisecond
	}
	span := hi - lo
	delay := lo
	if span > 0 {
		f.rngMu.Lock()
		delay += time.Duration(f.rng.Int63n(int64(span)))
		f.rngMu.Unlock()
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return &models.ReconError{Kind: models.ErrCanceled, Message: "canceled during stealth jitter", Cause: ctx.Err()}
	}
}
