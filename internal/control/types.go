package control

import (
	"time"

	"github.com/lanscope/upnprecon/internal/models"
)

// Invocation state machine (spec.md §4.4): BUILD -> SEND -> WAIT -> PARSE
// -> DONE|FAIL.
const (
	StateBuild = "build"
	StateSend  = "send"
	StateWait  = "wait"
	StateParse = "parse"
	StateDone  = "done"
	StateFail  = "fail"
)

// Options governs one Invoke call's transport behavior (spec.md §4.4).
type Options struct {
	Timeout       time.Duration
	UseSSL        bool
	VerifyTLS     bool
	Stealth       bool
	MaxAttempts   int
	DryRun        bool
	TruncateBytes int
}

// DefaultOptions mirrors models.ControlConfig's defaults for callers that
// do not load a full Config.
func DefaultOptions() Options {
	return Options{
		Timeout:       10 * time.Second,
		VerifyTLS:     true,
		MaxAttempts:   3,
		TruncateBytes: 300,
	}
}

// Request - один запрос на вызов действия через Control Engine.
// ServiceType/ControlURL are optional overrides for the generic UPnP/SOAP
// adapter when the caller already knows which advertised service hosts the
// action (e.g. from a Profiling Engine Action Inventory); left empty, the
// adapter falls back to a best-effort match against the device's own
// service list.
//
// ArgOrder declares the order Args' keys must appear as SOAP body children
// (spec.md §4.4: "encodes arguments as direct children in the order
// declared in the SCPD"). Callers that know the action's SCPD
// ArgumentsIn (e.g. via a Profiling Engine Action Inventory) should set it
// with ArgOrderFromAction; left empty, the generic UPnP adapter falls back
// to a sorted key order rather than Go's randomized map iteration.
type Request struct {
	Action      string
	Args        map[string]string
	ArgOrder    []string
	ServiceType string
	ControlURL  string
}

// ArgOrderFromAction returns the declared ArgumentsIn order for action, for
// populating Request.ArgOrder from a Profiling Engine Action Inventory.
func ArgOrderFromAction(action *models.SoapAction) []string {
	if action == nil {
		return nil
	}
	order := make([]string, 0, len(action.ArgumentsIn))
	for _, arg := range action.ArgumentsIn {
		order = append(order, arg.Name)
	}
	return order
}

// Result - итог одного вызова (spec.md §4.4): финальное состояние, сколько
// попыток потребовалось, протокол-адаптер, что ушло на провод и что
// вернулось, разобранные out-аргументы.
type Result struct {
	CorrelationID string
	State         string
	Protocol      string
	Attempts      int
	RequestBody   string
	StatusCode    int
	ResponseBody  string
	OutArgs       map[string]string
	Err           error
	DryRun        bool
}
