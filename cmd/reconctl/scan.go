package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lanscope/upnprecon/internal/config"
	"github.com/lanscope/upnprecon/internal/discovery"
	"github.com/lanscope/upnprecon/internal/matcher"
	"github.com/lanscope/upnprecon/internal/orchestrator"
	"github.com/lanscope/upnprecon/internal/profiling"
	"github.com/lanscope/upnprecon/internal/profilestore"
)

func newScanCmd() *cobra.Command {
	var deep bool

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "run the Mass Orchestrator: discover, match, assess, and print a priority-sorted report",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}

			store, err := profilestore.Load(cfg.ProfileStore.Dir)
			if err != nil {
				return err
			}

			o := orchestrator.NewOrchestrator(
				discovery.NewEngine(cfg.Discovery),
				matcher.NewMatcher(store),
				profiling.NewEngine(cfg.Profiling),
			)

			report, err := o.Run(context.Background(), deep)
			if err != nil {
				return fmt.Errorf("mass orchestrator run failed: %w", err)
			}

			out, err := json.MarshalIndent(report, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}

	cmd.Flags().BoolVar(&deep, "deep", false, "run full SCPD profiling on every device instead of a shallow scan")

	return cmd
}
