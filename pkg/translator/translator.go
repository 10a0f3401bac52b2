package translator

import (
	"github.com/OpenTraceLab/OpenTraceRegmap/pkg/regmap"
)

// Translator turns configurations into register pairs. It holds only its
// options, so one Translator may be shared by concurrent callers.
type Translator struct {
	opts Options
}

// New builds a Translator. A nil opts uses DefaultOptions.
func New(opts *Options) (*Translator, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	o := *opts
	o.OnlyBlocks = append([]string(nil), opts.OnlyBlocks...)
	if err := o.Validate(); err != nil {
		return nil, err
	}
	return &Translator{opts: o}, nil
}

// Translate converts cfg with default options.
func Translate(cfg *regmap.Configuration) (*PairSet, error) {
	t, err := New(nil)
	if err != nil {
		return nil, err
	}
	return t.Translate(cfg)
}

// Translate walks cfg in order, folds every parameter into its register and
// serializes each register that was touched. The result does not depend on
// visitation order; an error is returned instead whenever it would.
func (t *Translator) Translate(cfg *regmap.Configuration) (*PairSet, error) {
	return t.TranslateOnto(nil, cfg)
}

// TranslateOnto is Translate seeded with an existing register image, such as
// the last values written or values read back from the chip. For every
// register cfg touches, bits owned by a parameter are replaced and all other
// bits keep their value from base. Registers cfg does not touch are not part
// of the result.
func (t *Translator) TranslateOnto(base *PairSet, cfg *regmap.Configuration) (*PairSet, error) {
	acc := newAccumulator(t.opts.Logger)
	if base != nil {
		for _, p := range base.pairs {
			acc.seed(p.Address, p.Data)
		}
	}

	err := cfg.Walk(func(ref regmap.ParamRef, def regmap.ParameterDefinition) error {
		if !t.opts.ShouldPack(ref) {
			return nil
		}
		return acc.fold(ref, def)
	})
	if err != nil {
		return nil, err
	}

	set, err := acc.pairs(t.opts.Order)
	if err != nil {
		return nil, err
	}
	t.opts.Logger.V(1).Info("translated configuration", "parameters", cfg.Len(), "registers", set.Len())
	return set, nil
}
