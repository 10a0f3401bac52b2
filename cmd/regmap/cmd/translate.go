package cmd

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceRegmap/pkg/image"
	"github.com/OpenTraceLab/OpenTraceRegmap/pkg/translator"
)

var (
	translateFlags configFlags
	translateOut   string
	translateOnto  string
)

var translateCmd = &cobra.Command{
	Use:   "translate <regmap.yaml>",
	Short: "Translate a configuration into register writes",
	Long: `Pack every parameter of the register map, with defaults replaced by the given
values, into its register and print one "0xADDR 0xBYTE" line per byte.

Examples:
  # Defaults only
  regmap translate testdata/regmaps/econ_t.yaml

  # Values file plus a command-line override
  regmap translate econ_t.yaml -c econt_config.yaml --set FMTBUF.RW.CONFIG_use_sum=1

  # Only one block, on top of the image last written
  regmap translate econ_t.yaml --block ERRTOP --onto last.cbor --out next.cbor`,
	Args: cobra.ExactArgs(1),
	RunE: runTranslate,
}

func init() {
	rootCmd.AddCommand(translateCmd)

	translateFlags.register(translateCmd)
	translateCmd.Flags().StringVarP(&translateOut, "out", "o", "",
		"save the result as a CBOR register image")
	translateCmd.Flags().StringVar(&translateOnto, "onto", "",
		"CBOR register image whose unowned bits are preserved")
}

func runTranslate(cmd *cobra.Command, args []string) error {
	schema, cfg, err := translateFlags.load(args[0])
	if err != nil {
		return err
	}
	tr, err := translateFlags.translator()
	if err != nil {
		return err
	}

	var base *translator.PairSet
	if translateOnto != "" {
		im, err := image.Load(translateOnto)
		if err != nil {
			return err
		}
		if base, err = im.Pairs(); err != nil {
			return err
		}
	}

	set, err := tr.TranslateOnto(base, cfg)
	if err != nil {
		return err
	}
	fmt.Print(set.String())

	if translateOut != "" {
		if err := image.Save(translateOut, image.FromPairs(schema.Name(), uuid.New(), set)); err != nil {
			return err
		}
		logger.Info("saved register image", "path", translateOut, "registers", set.Len())
	}
	return nil
}
