// cmd/root.go
package cmd

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/jackchuka/allerscan/internal/config"
	"github.com/jackchuka/allerscan/internal/logging"
	"github.com/jackchuka/allerscan/tui"
)

var (
	cfgFile    string
	cfg        *config.Config
	denyCamera bool
)

var rootCmd = &cobra.Command{
	Use:   "allerscan",
	Short: "Scan a barcode, see the product's allergens",
	Long: `
  allerscan

  Watches a barcode scanner, looks the scanned product up on
  Open Food Facts and lists its declared allergens. Press r to
  scan the next product, c to switch between the back and
  front scanner.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !isatty.IsTerminal(os.Stdout.Fd()) || !isatty.IsTerminal(os.Stdin.Fd()) {
			return runWatch(cmd, args)
		}

		log, closer, err := logging.New(cfg.LogFile, cfg.LogLevel, nil)
		if err != nil {
			return err
		}
		defer closer.Close()

		return tui.Run(cfg, tui.Deps{
			Permission:   newPermissionProvider(false),
			Lookup:       newLookup(),
			OpenDetector: newDetectorOpener(),
			Logger:       log,
		})
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $XDG_CONFIG_HOME/allerscan/config.yaml)")
	rootCmd.PersistentFlags().String("back", "", "back scanner device (overrides config file, - for stdin)")
	rootCmd.PersistentFlags().String("front", "", "front scanner device (overrides config file)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVar(&denyCamera, "deny-camera", false, "start with scanner access denied")
}

func initConfig() {
	if cfgFile == "" {
		cfgFile = config.DefaultConfigPath()
	}

	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	// Flags override the config file
	if back, _ := rootCmd.PersistentFlags().GetString("back"); back != "" {
		cfg.BackDevice = config.ExpandHome(back)
	}
	if front, _ := rootCmd.PersistentFlags().GetString("front"); front != "" {
		cfg.FrontDevice = config.ExpandHome(front)
	}
	if level, _ := rootCmd.PersistentFlags().GetString("log-level"); level != "" {
		cfg.LogLevel = level
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
}
