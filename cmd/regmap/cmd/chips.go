package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceRegmap/pkg/regmap"
	"github.com/OpenTraceLab/OpenTraceRegmap/pkg/translator"
)

var chipsCmd = &cobra.Command{
	Use:   "chips <dir>",
	Short: "List the register maps in a directory",
	Long: `Load every .yaml/.yml register map below a directory, translate each chip's
defaults and print a summary. A register map that does not load or translate
fails the command.`,
	Args: cobra.ExactArgs(1),
	RunE: runChips,
}

func init() {
	rootCmd.AddCommand(chipsCmd)
}

func runChips(cmd *cobra.Command, args []string) error {
	repo := regmap.NewRepository()
	if err := repo.LoadDir(args[0]); err != nil {
		return err
	}

	names := repo.Names()
	if len(names) == 0 {
		fmt.Println("No register maps found.")
		return nil
	}

	cfgs := make([]*regmap.Configuration, len(names))
	for i, name := range names {
		schema, err := repo.Lookup(name)
		if err != nil {
			return err
		}
		cfgs[i] = schema.Configuration()
	}

	tr, err := translator.New(&translator.Options{Logger: logger.WithName("translator")})
	if err != nil {
		return err
	}
	sets, err := tr.TranslateAll(context.Background(), cfgs)
	if err != nil {
		return err
	}

	for i, name := range names {
		fmt.Printf("%-8s %3d parameters %3d registers  %s\n", name, cfgs[i].Len(), sets[i].Len(), repo.Source(name))
	}
	return nil
}
