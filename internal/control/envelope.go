// Package control implements the Control Engine (spec.md §4.4): a uniform
// BUILD -> SEND -> WAIT -> PARSE -> DONE|FAIL state machine over a set of
// per-vendor protocol adapters (UPnP/SOAP, Cast, WAM, ECP, HEOS, MusicCast,
// JSONRPC, SoundTouch), selected from a matched DeviceProfile.
package control

import (
	"fmt"
	"sort"
	"strings"
)

const soapEnvelopeTemplate = `<?xml version="1.0" encoding="utf-8"?>` +
	`<s:Envelope xmlns:s="http://schemas.xmlsoap.org/soap/envelope/" s:encodingStyle="http://schemas.xmlsoap.org/soap/encoding/">` +
	`<s:Body><u:%s xmlns:u="%s">%s</u:%s></s:Body></s:Envelope>`

// buildSOAPEnvelope assembles the SOAP request body for one action
// invocation, in the declaration order given by args (spec.md §4.4: "the
// envelope's argument order follows the SCPD argumentList order").
func buildSOAPEnvelope(action, serviceType string, args []argPair) string {
	var body strings.Builder
	for _, a := range args {
		fmt.Fprintf(&body, "<%s>%s</%s>", a.name, escapeXMLText(a.value), a.name)
	}
	return fmt.Sprintf(soapEnvelopeTemplate, action, serviceType, body.String(), action)
}

// soapActionHeader builds the SOAPACTION header value (spec.md §4.4).
func soapActionHeader(serviceType, action string) string {
	return fmt.Sprintf("\"%s#%s\"", serviceType, action)
}

type argPair struct {
	name  string
	value string
}

// orderedArgs turns args into a deterministically-ordered []argPair: order
// lists the declared SCPD ArgumentsIn order (spec.md §4.4); any key in args
// not named in order is appended afterward in sorted order, so unknown
// overrides never get silently dropped and never depend on Go's
// randomized map iteration.
func orderedArgs(args map[string]string, order []string) []argPair {
	out := make([]argPair, 0, len(args))
	seen := make(map[string]bool, len(order))
	for _, name := range order {
		if v, ok := args[name]; ok {
			out = append(out, argPair{name: name, value: v})
			seen[name] = true
		}
	}

	remaining := make([]string, 0, len(args))
	for k := range args {
		if !seen[k] {
			remaining = append(remaining, k)
		}
	}
	sort.Strings(remaining)
	for _, k := range remaining {
		out = append(out, argPair{name: k, value: args[k]})
	}
	return out
}

func escapeXMLText(s string) string {
	r := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
		"'", "&apos;",
	)
	return r.Replace(s)
}
