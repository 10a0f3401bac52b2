package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceRegmap/pkg/hwio"
)

var interfacesCmd = &cobra.Command{
	Use:   "interfaces",
	Short: "List available USB I²C bridges",
	Long: `Scan the host for supported USB I²C bridges (MCP2221A) and print a summary of
the detected transports. Use this to verify connectivity before "write".`,
	RunE: runInterfaces,
}

func init() {
	rootCmd.AddCommand(interfacesCmd)
}

func runInterfaces(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	infos, err := hwio.DiscoverInterfaces(ctx)
	if err != nil {
		return fmt.Errorf("discover interfaces: %w", err)
	}

	fmt.Println("Detected interfaces:")
	for _, iface := range infos {
		fmt.Printf("  - %s [%s] (VID:PID %04X:%04X)\n", iface.Label(), iface.Kind, iface.VendorID, iface.ProductID)
	}
	return nil
}
