package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lanscope/upnprecon/internal/config"
	"github.com/lanscope/upnprecon/internal/discovery"
	"github.com/lanscope/upnprecon/pkg/utils"
)

func newDiscoverCmd() *cobra.Command {
	var cidr string
	var aggressive bool

	cmd := &cobra.Command{
		Use:   "discover",
		Short: "run the Discovery Engine (SSDP + ARP-hinted port sweep) and print devices as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cidr != "" && !utils.ValidateSubnet(cidr) {
				return fmt.Errorf("invalid --cidr %q: not a valid CIDR subnet, e.g. 192.168.1.0/24", cidr)
			}

			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			if cidr != "" {
				cfg.Discovery.CIDR = cidr
			}
			cfg.Discovery.Aggressive = cfg.Discovery.Aggressive || aggressive

			engine := discovery.NewEngine(cfg.Discovery)
			devices, err := engine.Discover(context.Background())
			if err != nil {
				return fmt.Errorf("discovery failed: %w", err)
			}

			out, err := json.MarshalIndent(devices, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}

	cmd.Flags().StringVar(&cidr, "cidr", "", "subnet to scan, e.g. 192.168.1.0/24 (default: auto-detect)")
	cmd.Flags().BoolVar(&aggressive, "aggressive", false, "enable the ARP-hinted TCP port sweep phase")

	return cmd
}
