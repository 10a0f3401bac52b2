package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceRegmap/pkg/image"
	"github.com/OpenTraceLab/OpenTraceRegmap/pkg/regmap"
	"github.com/OpenTraceLab/OpenTraceRegmap/pkg/translator"
)

var (
	diffSchema string
	diffChip   string
)

var diffCmd = &cobra.Command{
	Use:   "diff <a.cbor> <b.cbor>",
	Short: "Compare two register images",
	Long: `List registers added, removed or changed from the first image to the second.
With --schema, changed registers are also broken down into parameters.`,
	Args: cobra.ExactArgs(2),
	RunE: runDiff,
}

func init() {
	rootCmd.AddCommand(diffCmd)

	diffCmd.Flags().StringVar(&diffSchema, "schema", "",
		"register map used to report parameter-level differences")
	diffCmd.Flags().StringVar(&diffChip, "chip", "",
		"top-level chip key in the register map (default: the only one)")
}

func runDiff(cmd *cobra.Command, args []string) error {
	a, err := image.Load(args[0])
	if err != nil {
		return err
	}
	b, err := image.Load(args[1])
	if err != nil {
		return err
	}

	changes := image.Compare(a, b)
	if len(changes) == 0 {
		fmt.Println("No differences.")
		return nil
	}
	for _, c := range changes {
		fmt.Println(c)
	}

	if diffSchema == "" {
		return nil
	}
	schema, err := regmap.LoadSchema(diffSchema, diffChip)
	if err != nil {
		return err
	}
	pa, err := a.Pairs()
	if err != nil {
		return err
	}
	pb, err := b.Pairs()
	if err != nil {
		return err
	}

	// Parameters absent from either image cannot be compared
	before, err := translator.Decode(schema.Configuration(), pa)
	if err != nil && !errors.Is(err, translator.ErrMissing) {
		return err
	}
	mismatches, err := translator.Diff(before, pb)
	if err != nil && !errors.Is(err, translator.ErrMissing) {
		return err
	}
	changed := make(map[uint32]bool, len(changes))
	for _, c := range changes {
		if c.Kind == image.Changed {
			changed[c.Address] = true
		}
	}
	for _, m := range mismatches {
		if def, ok := schema.Lookup(m.Ref); !ok || !changed[def.Address()] {
			continue
		}
		fmt.Printf("  %s: 0x%X -> 0x%X\n", m.Ref, m.Want, m.Got)
	}
	return nil
}
