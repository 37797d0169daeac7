package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/repotriage/repotriage/cmd/scan"
	"github.com/repotriage/repotriage/cmd/version"
	"github.com/repotriage/repotriage/pkg/shared/config"
)

var (
	cfgFile   string
	AppConfig *config.Config
	rootCmd   = &cobra.Command{
		Use:                   "repotriage [command]",
		SilenceUsage:          true,
		DisableFlagsInUseLine: true,
		Short:                 "Repotriage analyzes a source repository for security issues.",
		Long: `Repotriage runs a layered security analysis over a source repository:
	fast pattern rules plus a two-tier model review, reconciled into a single
	scored report.
	`,
	}
)

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is config.yml)")
	rootCmd.AddCommand(version.NewVersionCmd())
	rootCmd.AddCommand(scan.ScanCmd)
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		return 1
	}
	return 0
}

func initConfig() {
	var err error

	if cfgFile == "" {
		cfgFile = "config.yml"
	}
	AppConfig, err = config.LoadConfig(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config %q: %v\n", cfgFile, err)
		os.Exit(1)
	}
	if err := config.ValidateConfig(AppConfig); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	scan.Init(AppConfig)
}
