package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lanscope/upnprecon/internal/config"
	"github.com/lanscope/upnprecon/internal/control"
	"github.com/lanscope/upnprecon/internal/discovery"
	"github.com/lanscope/upnprecon/internal/matcher"
	"github.com/lanscope/upnprecon/internal/models"
	"github.com/lanscope/upnprecon/internal/profiling"
	"github.com/lanscope/upnprecon/internal/profilestore"
	"github.com/lanscope/upnprecon/pkg/utils"
)

func newInvokeCmd() *cobra.Command {
	var ip string
	var port int
	var action string
	var argPairs []string
	var serviceType, controlURL string
	var dryRun bool
	var stealth bool

	cmd := &cobra.Command{
		Use:   "invoke",
		Short: "match a discovered device against the Profile Store and invoke one action through the Control Engine",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !utils.ValidateIP(ip) {
				return fmt.Errorf("invalid --ip %q: not a valid IP address", ip)
			}

			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}

			ctx := context.Background()
			devices, err := discovery.NewEngine(cfg.Discovery).Discover(ctx)
			if err != nil {
				return fmt.Errorf("discovery failed: %w", err)
			}

			var target *models.Device
			for _, d := range devices {
				if d.IP == ip && (port == 0 || d.Port == port) {
					target = d
					break
				}
			}
			if target == nil {
				return fmt.Errorf("no discovered device matches ip=%s port=%d", ip, port)
			}

			store, err := profilestore.Load(cfg.ProfileStore.Dir)
			if err != nil {
				return err
			}
			match := matcher.NewMatcher(store).Match(target)

			args, argOrder := parseArgPairs(argPairs)
			if scpdOrder := lookupSCPDArgOrder(ctx, cfg, target, action); scpdOrder != nil {
				argOrder = scpdOrder
			}

			req := control.Request{
				Action:      action,
				Args:        args,
				ArgOrder:    argOrder,
				ServiceType: serviceType,
				ControlURL:  controlURL,
			}
			opts := control.Options{
				Timeout:       cfg.Control.Timeout,
				UseSSL:        cfg.Control.UseSSL,
				VerifyTLS:     cfg.Control.VerifyTLS,
				Stealth:       cfg.Control.Stealth || stealth,
				MaxAttempts:   cfg.Control.MaxAttempts,
				DryRun:        dryRun,
				TruncateBytes: cfg.Control.TruncateBytes,
			}

			result := control.NewEngine().Invoke(ctx, target, match.Profile, req, opts)
			out, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}

	cmd.Flags().StringVar(&ip, "ip", "", "target device IP (required)")
	cmd.Flags().IntVar(&port, "port", 0, "target device port (optional)")
	cmd.Flags().StringVar(&action, "action", "", "action name to invoke (required)")
	cmd.Flags().StringSliceVar(&argPairs, "arg", nil, "action argument as name=value (repeatable)")
	cmd.Flags().StringVar(&serviceType, "service-type", "", "override: UPnP service type for the generic SOAP adapter")
	cmd.Flags().StringVar(&controlURL, "control-url", "", "override: UPnP controlURL for the generic SOAP adapter")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "build the request but do not send it")
	cmd.Flags().BoolVar(&stealth, "stealth", false, "rotate user-agent and jitter before sending")
	cmd.MarkFlagRequired("ip")
	cmd.MarkFlagRequired("action")

	return cmd
}

// parseArgPairs parses --arg name=value flags into a lookup map plus the
// order they were declared on the command line, so the generic UPnP
// adapter has a deterministic fallback order even when no SCPD action
// order is available (see lookupSCPDArgOrder).
func parseArgPairs(pairs []string) (map[string]string, []string) {
	out := make(map[string]string, len(pairs))
	order := make([]string, 0, len(pairs))
	for _, p := range pairs {
		kv := strings.SplitN(p, "=", 2)
		if len(kv) != 2 {
			continue
		}
		out[kv[0]] = kv[1]
		order = append(order, kv[0])
	}
	return out, order
}

// lookupSCPDArgOrder profiles target's advertised services looking for
// action, returning its declared SCPD ArgumentsIn order (spec.md §4.4) so
// the Control Engine builds the SOAP envelope in the device's own
// argument order rather than the CLI's. Returns nil if no service
// advertises the action or profiling fails, leaving the caller's
// CLI-declared order as the fallback.
func lookupSCPDArgOrder(ctx context.Context, cfg *models.Config, target *models.Device, action string) []string {
	profile, err := profiling.NewEngine(cfg.Profiling).ProfileDevice(ctx, target)
	if err != nil {
		return nil
	}
	for _, svc := range profile.Services {
		if svc.SCPD == nil {
			continue
		}
		if soapAction, ok := svc.SCPD.Actions[action]; ok {
			return control.ArgOrderFromAction(soapAction)
		}
	}
	return nil
}
