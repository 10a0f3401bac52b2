package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-logr/logr"
	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceRegmap/internal/logging"
)

var (
	// Global flags
	verbose  bool
	logLevel string

	// logger is built from the global flags before any subcommand runs
	logger = logr.Discard()
)

var rootCmd = &cobra.Command{
	Use:   "regmap",
	Short: "Register map translator and writer",
	Long: `Translate named chip parameters (block.access.param) into the register
addresses and little-endian byte values that program them, and write those
values to hardware through a USB I²C bridge.

Examples:
  regmap translate testdata/regmaps/econ_t.yaml                     # Default register image
  regmap translate econ_t.yaml -c config.yaml --set ERRTOP.RW.CONFIG_err_mask=3
  regmap write econ_t.yaml --transport mcp2221 --i2c-addr 0x20 --verify
  regmap decode econ_t.yaml image.cbor                              # Parameter values in an image`,
	Version:       "0.3.0",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		log, err := logging.New(os.Stderr, logLevel, verbose)
		if err != nil {
			return err
		}
		logger = log
		return nil
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "NOTICE",
		"log level ("+strings.Join(logging.Levels, ", ")+")")
}
