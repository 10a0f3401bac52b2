package translator

import (
	"regexp"

	"github.com/go-logr/logr"

	"github.com/OpenTraceLab/OpenTraceRegmap/pkg/regmap"
)

// Order selects how a PairSet iterates.
type Order int

const (
	// OrderAscending iterates by ascending address.
	OrderAscending Order = iota
	// OrderInsertion iterates in the order registers were first touched.
	OrderInsertion
)

// Options controls a Translator.
type Options struct {
	// Output ordering (default: OrderAscending)
	Order Order

	// Parameter filtering
	OnlyBlocks       []string // If set, only pack parameters of these blocks
	OnlyParamPattern string   // If set, only pack parameters whose name matches this regex

	// Logger receives V(1) traces of every folded parameter (default: discard)
	Logger logr.Logger

	paramRegex *regexp.Regexp
}

// DefaultOptions returns Options that pack every parameter and order output
// by address.
func DefaultOptions() *Options {
	return &Options{
		Order:  OrderAscending,
		Logger: logr.Discard(),
	}
}

// Validate normalises the options and compiles the parameter pattern.
func (o *Options) Validate() error {
	if o.Order != OrderAscending && o.Order != OrderInsertion {
		o.Order = OrderAscending
	}

	o.paramRegex = nil
	if o.OnlyParamPattern != "" {
		regex, err := regexp.Compile(o.OnlyParamPattern)
		if err != nil {
			return err
		}
		o.paramRegex = regex
	}
	return nil
}

// ShouldPack reports whether ref passes the block and name filters.
func (o *Options) ShouldPack(ref regmap.ParamRef) bool {
	if len(o.OnlyBlocks) > 0 {
		found := false
		for _, b := range o.OnlyBlocks {
			if b == ref.Block {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if o.paramRegex != nil && !o.paramRegex.MatchString(ref.Param) {
		return false
	}
	return true
}
