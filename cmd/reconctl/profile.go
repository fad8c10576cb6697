package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lanscope/upnprecon/internal/config"
	"github.com/lanscope/upnprecon/internal/discovery"
	"github.com/lanscope/upnprecon/internal/models"
	"github.com/lanscope/upnprecon/internal/profiling"
	"github.com/lanscope/upnprecon/pkg/utils"
)

func newProfileCmd() *cobra.Command {
	var ip string
	var port int

	cmd := &cobra.Command{
		Use:   "profile",
		Short: "run the Profiling Engine against one discovered device and print its Action Inventory",
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

			profile, err := profiling.NewEngine(cfg.Profiling).ProfileDevice(ctx, target)
			if err != nil {
				return fmt.Errorf("profiling failed: %w", err)
			}

			out, err := json.MarshalIndent(profile, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}

	cmd.Flags().StringVar(&ip, "ip", "", "target device IP (required)")
	cmd.Flags().IntVar(&port, "port", 0, "target device port (optional, disambiguates multiple devices on one IP)")
	cmd.MarkFlagRequired("ip")

	return cmd
}
