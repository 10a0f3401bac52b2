package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceRegmap/pkg/image"
	"github.com/OpenTraceLab/OpenTraceRegmap/pkg/regmap"
	"github.com/OpenTraceLab/OpenTraceRegmap/pkg/translator"
)

var (
	decodeChip      string
	decodeValuesOut string
)

var decodeCmd = &cobra.Command{
	Use:   "decode <regmap.yaml> <image.cbor>",
	Short: "Print the parameter values held in a register image",
	Long: `Extract every parameter of the register map from a saved register image.
Parameters whose register is not in the image are listed as missing.

The decoded values can be saved as a values file usable with "translate -c".`,
	Args: cobra.ExactArgs(2),
	RunE: runDecode,
}

func init() {
	rootCmd.AddCommand(decodeCmd)

	decodeCmd.Flags().StringVar(&decodeChip, "chip", "",
		"top-level chip key in the register map (default: the only one)")
	decodeCmd.Flags().StringVar(&decodeValuesOut, "values-out", "",
		"write the decoded values as a YAML values file")
}

func runDecode(cmd *cobra.Command, args []string) error {
	schema, err := regmap.LoadSchema(args[0], decodeChip)
	if err != nil {
		return err
	}
	im, err := image.Load(args[1])
	if err != nil {
		return err
	}
	if im.Chip != "" && im.Chip != schema.Name() {
		logger.Info("image was written for a different chip", "image", im.Chip, "schema", schema.Name())
	}
	set, err := im.Pairs()
	if err != nil {
		return err
	}

	decoded, err := translator.Decode(schema.Configuration(), set)
	missing := map[regmap.ParamRef]bool{}
	var me *translator.MissingRegisterError
	switch {
	case errors.As(err, &me):
		for _, ref := range me.Params {
			missing[ref] = true
		}
	case err != nil:
		return err
	}

	_ = decoded.Walk(func(ref regmap.ParamRef, def regmap.ParameterDefinition) error {
		if missing[ref] {
			fmt.Printf("%s = (not in image)\n", ref)
			return nil
		}
		fmt.Printf("%s = 0x%X\n", ref, def.Value)
		return nil
	})

	if decodeValuesOut != "" {
		data, err := regmap.MarshalValues(decoded)
		if err != nil {
			return err
		}
		if err := os.WriteFile(decodeValuesOut, data, 0o644); err != nil {
			return err
		}
	}
	return nil
}
