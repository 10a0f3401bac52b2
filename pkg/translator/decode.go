package translator

import (
	"math/big"

	"github.com/OpenTraceLab/OpenTraceRegmap/pkg/regmap"
)

// Mismatch is a parameter whose value in an image differs from the
// configured one. Want is the configured value after masking.
type Mismatch struct {
	Ref  regmap.ParamRef
	Want uint64
	Got  uint64
}

// Decode reads every parameter of cfg back out of an image:
//
//	value = (register >> shift) & mask
//
// The returned configuration is a copy of cfg carrying the decoded values.
// Parameters whose register is absent keep their configured value and are
// listed in a *MissingRegisterError returned alongside the configuration.
func Decode(cfg *regmap.Configuration, pairs *PairSet) (*regmap.Configuration, error) {
	out := cfg.Clone()
	var missing []regmap.ParamRef

	err := cfg.Walk(func(ref regmap.ParamRef, def regmap.ParameterDefinition) error {
		if err := def.Validate(); err != nil {
			return &DefinitionError{Param: ref, Err: err}
		}
		data, ok := pairs.Get(def.Address())
		if !ok {
			missing = append(missing, ref)
			return nil
		}
		if len(data) != def.SizeBytes {
			return &SizeMismatchError{Address: def.Address(), Param: ref, Size: def.SizeBytes, OtherSize: len(data)}
		}
		return out.SetValue(ref, Extract(data, def))
	})
	if err != nil {
		return nil, err
	}
	if len(missing) > 0 {
		return out, &MissingRegisterError{Params: missing}
	}
	return out, nil
}

// Extract pulls one parameter's value out of its register bytes.
func Extract(data []byte, def regmap.ParameterDefinition) uint64 {
	reg := Deserialize(data)
	reg.Rsh(reg, def.Shift())
	reg.And(reg, new(big.Int).SetUint64(def.Mask()))
	return reg.Uint64()
}

// Diff lists the parameters of cfg whose value in pairs differs from the
// configured one, in visitation order.
func Diff(cfg *regmap.Configuration, pairs *PairSet) ([]Mismatch, error) {
	decoded, err := Decode(cfg, pairs)
	if decoded == nil {
		return nil, err
	}

	var out []Mismatch
	_ = cfg.Walk(func(ref regmap.ParamRef, def regmap.ParameterDefinition) error {
		if _, ok := pairs.Get(def.Address()); !ok {
			return nil
		}
		got, _ := decoded.Get(ref)
		want := def.MaskedValue() & def.Mask()
		if got.Value != want {
			out = append(out, Mismatch{Ref: ref, Want: want, Got: got.Value})
		}
		return nil
	})
	return out, err
}
