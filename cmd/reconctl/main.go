// Command reconctl is the CLI entrypoint wiring the Discovery, Profiling,
// Matcher, Control, and Mass Orchestrator engines together (spec.md §6).
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lanscope/upnprecon/pkg/utils"
)

var (
	cfgFile string
	logLevel string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "reconctl",
		Short: "UPnP reconnaissance, profiling, and control toolkit",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return utils.InitLogger(logLevel, "text", "")
		},
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "path to reconctl.yaml (default: search ./ and $HOME/.reconctl)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(newDiscoverCmd())
	root.AddCommand(newProfileCmd())
	root.AddCommand(newInvokeCmd())
	root.AddCommand(newScanCmd())

	return root
}
