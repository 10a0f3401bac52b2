package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceRegmap/pkg/override"
	"github.com/OpenTraceLab/OpenTraceRegmap/pkg/regmap"
	"github.com/OpenTraceLab/OpenTraceRegmap/pkg/translator"
)

// configFlags selects a schema and the values applied on top of its
// defaults. Values files apply first, then override files, then --set.
type configFlags struct {
	chip          string
	valueFiles    []string
	overrideFiles []string
	sets          []string

	blocks       []string
	paramPattern string
	order        string
}

func (f *configFlags) register(c *cobra.Command) {
	c.Flags().StringVar(&f.chip, "chip", "",
		"top-level chip key in the register map (default: the only one)")
	c.Flags().StringArrayVarP(&f.valueFiles, "config", "c", nil,
		"YAML values file overriding defaults (repeatable)")
	c.Flags().StringArrayVar(&f.overrideFiles, "overrides", nil,
		"override file of block.access.param = value lines (repeatable)")
	c.Flags().StringArrayVar(&f.sets, "set", nil,
		"override expression, e.g. ERRTOP.RW.CONFIG_err_mask=0x3 (repeatable)")
	c.Flags().StringSliceVar(&f.blocks, "block", nil,
		"only translate parameters of these blocks")
	c.Flags().StringVar(&f.paramPattern, "param", "",
		"only translate parameters whose name matches this regex")
	c.Flags().StringVar(&f.order, "order", "address",
		"output order (address, insertion)")
}

func (f *configFlags) reset() {
	*f = configFlags{order: "address"}
}

// load reads the schema at path and applies every value source.
func (f *configFlags) load(path string) (*regmap.Schema, *regmap.Configuration, error) {
	schema, err := regmap.LoadSchema(path, f.chip)
	if err != nil {
		return nil, nil, err
	}

	var overrides []regmap.Override
	for _, vf := range f.valueFiles {
		ov, err := regmap.LoadValues(vf, schema.Name())
		if err != nil {
			return nil, nil, err
		}
		overrides = append(overrides, ov...)
	}
	for _, of := range f.overrideFiles {
		ov, err := override.LoadFile(of)
		if err != nil {
			return nil, nil, err
		}
		overrides = append(overrides, ov...)
	}
	ov, err := override.ParseOverrides(f.sets...)
	if err != nil {
		return nil, nil, err
	}
	overrides = append(overrides, ov...)

	cfg, err := schema.Apply(overrides...)
	if err != nil {
		return nil, nil, err
	}
	logger.V(1).Info("loaded configuration", "chip", schema.Name(), "parameters", cfg.Len(), "overrides", len(overrides))
	return schema, cfg, nil
}

func (f *configFlags) translator() (*translator.Translator, error) {
	opts := translator.DefaultOptions()
	switch f.order {
	case "address", "":
		opts.Order = translator.OrderAscending
	case "insertion":
		opts.Order = translator.OrderInsertion
	default:
		return nil, fmt.Errorf("unknown --order %q (want address or insertion)", f.order)
	}
	opts.OnlyBlocks = f.blocks
	opts.OnlyParamPattern = f.paramPattern
	opts.Logger = logger.WithName("translator")
	return translator.New(opts)
}
