package cmd

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceRegmap/pkg/hwio"
	"github.com/OpenTraceLab/OpenTraceRegmap/pkg/image"
)

var (
	writeFlags       configFlags
	transportKind    string
	chipAddress      string
	addressWidth     int
	verifyWrites     bool
	byteWrites       bool
	readModifyWrite  bool
	writeOut         string
	metricsTextfile  string
	transportTimeout time.Duration
)

var writeCmd = &cobra.Command{
	Use:   "write <regmap.yaml>",
	Short: "Translate a configuration and write it to the chip",
	Long: `Translate the configuration like "translate" does, then write every register
through a USB I²C bridge (or the simulator) in ascending address order.

With --read-modify-write the touched registers are read first, so bits no
parameter owns keep their value on the chip.

Examples:
  # Dry run against the simulator, verifying every register
  regmap write testdata/regmaps/econ_t.yaml --verify

  # MCP2221A bridge, chip at 0x20 with 16-bit register addresses
  regmap write econ_t.yaml --transport mcp2221 --i2c-addr 0x20 -c econt_config.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runWrite,
}

func init() {
	rootCmd.AddCommand(writeCmd)

	writeFlags.register(writeCmd)
	writeCmd.Flags().StringVarP(&transportKind, "transport", "t", string(hwio.InterfaceKindSim),
		"transport (sim, mcp2221)")
	writeCmd.Flags().StringVar(&chipAddress, "i2c-addr", "0x20",
		"7-bit I²C address of the chip")
	writeCmd.Flags().IntVar(&addressWidth, "addr-width", 2,
		"register address bytes on the wire (1 or 2)")
	writeCmd.Flags().BoolVar(&verifyWrites, "verify", false,
		"read every register back after writing it")
	writeCmd.Flags().BoolVar(&byteWrites, "byte-writes", false,
		"write one byte per address instead of whole registers")
	writeCmd.Flags().BoolVar(&readModifyWrite, "read-modify-write", false,
		"read touched registers first and preserve bits no parameter owns")
	writeCmd.Flags().StringVarP(&writeOut, "out", "o", "",
		"save the written image as CBOR")
	writeCmd.Flags().StringVar(&metricsTextfile, "metrics-textfile", "",
		"write Prometheus counters to this file after writing")
	writeCmd.Flags().DurationVar(&transportTimeout, "timeout", hwio.DefaultTimeout,
		"per-transaction timeout")
}

func runWrite(cmd *cobra.Command, args []string) error {
	addr, err := strconv.ParseUint(chipAddress, 0, 7)
	if err != nil {
		return fmt.Errorf("invalid --i2c-addr %q: %w", chipAddress, err)
	}

	schema, cfg, err := writeFlags.load(args[0])
	if err != nil {
		return err
	}
	tr, err := writeFlags.translator()
	if err != nil {
		return err
	}
	set, err := tr.Translate(cfg)
	if err != nil {
		return err
	}

	transport, err := hwio.OpenTransport(hwio.InterfaceKind(transportKind), &hwio.BridgeOptions{
		ChipAddress:  uint8(addr),
		AddressWidth: addressWidth,
		Timeout:      transportTimeout,
	})
	if err != nil {
		return err
	}
	defer transport.Close()

	if info, err := transport.Info(); err == nil {
		logger.Info("opened transport", "name", info.Name, "serial", info.SerialNumber,
			"chip", fmt.Sprintf("0x%02X", info.ChipAddress))
	}

	registry := prometheus.NewRegistry()
	metrics, err := hwio.NewMetrics(registry)
	if err != nil {
		return err
	}
	mode := hwio.WriteModeRegister
	if byteWrites {
		mode = hwio.WriteModeByte
	}
	writer, err := hwio.NewWriter(transport, &hwio.WriterOptions{
		Mode:    mode,
		Verify:  verifyWrites,
		Logger:  logger.WithName("writer"),
		Metrics: metrics,
	})
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if readModifyWrite {
		current, err := writer.ReadBack(ctx, set.Widths())
		if err != nil {
			return err
		}
		if set, err = tr.TranslateOnto(current, cfg); err != nil {
			return err
		}
	}

	report, err := writer.Write(ctx, set)
	if err != nil {
		return err
	}

	fmt.Print(set.String())
	fmt.Printf("Wrote %d registers (%d bytes), session %s\n", report.Registers, report.Bytes, report.Session)

	if writeOut != "" {
		im := image.FromPairs(schema.Name(), report.Session, set)
		if err := image.Save(writeOut, im); err != nil {
			return err
		}
	}
	if metricsTextfile != "" {
		if err := prometheus.WriteToTextfile(metricsTextfile, registry); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}
	return nil
}
