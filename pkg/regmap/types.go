package regmap

import (
	"fmt"
	"math"
	"strings"
)

// AnyAccess matches every access category of a block when used in an Override.
const AnyAccess = "*"

// ParamRef uniquely identifies a parameter inside a configuration.
type ParamRef struct {
	Block  string // e.g. "ALIGNER"
	Access string // e.g. "RW"
	Param  string // e.g. "CONFIG_i2c_config"
}

// String renders the reference in dotted form, "block.access.param".
func (r ParamRef) String() string {
	return r.Block + "." + r.Access + "." + r.Param
}

// IsZero reports whether the reference names nothing.
func (r ParamRef) IsZero() bool {
	return r.Block == "" && r.Access == "" && r.Param == ""
}

// ParseParamRef splits a dotted "block.access.param" reference.
func ParseParamRef(s string) (ParamRef, error) {
	parts := strings.Split(s, ".")
	if len(parts) != 3 {
		return ParamRef{}, fmt.Errorf("regmap: reference %q must have the form block.access.param", s)
	}
	for _, p := range parts {
		if p == "" {
			return ParamRef{}, fmt.Errorf("regmap: reference %q has an empty component", s)
		}
	}
	return ParamRef{Block: parts[0], Access: parts[1], Param: parts[2]}, nil
}

// ParameterDefinition is the metadata for one named configuration value.
//
// ParamMask and ParamShift are optional in the register map. A nil mask means
// every bit of the register from the shift upward belongs to the parameter; a
// nil shift means zero.
type ParameterDefinition struct {
	Register   uint32
	RegOffset  uint32
	SizeBytes  int
	ParamMask  *uint64
	ParamShift *uint
	Value      uint64
}

// Address returns the physical register address, Register + RegOffset. The
// sum wraps for definitions that fail Validate.
func (d ParameterDefinition) Address() uint32 {
	return d.Register + d.RegOffset
}

// Validate checks that the field lies inside a register of positive width and
// that Register + RegOffset does not wrap.
func (d ParameterDefinition) Validate() error {
	if d.SizeBytes < 1 {
		return fmt.Errorf("size_byte must be positive, got %d", d.SizeBytes)
	}
	if bits := uint(d.SizeBytes) * 8; d.Shift() >= bits {
		return fmt.Errorf("param_shift %d outside %d-bit register", d.Shift(), bits)
	}
	if d.Register > math.MaxUint32-d.RegOffset {
		return fmt.Errorf("register 0x%X + reg_offset 0x%X overflows a 32-bit address", d.Register, d.RegOffset)
	}
	return nil
}

// Shift returns the parameter's bit offset inside the register.
func (d ParameterDefinition) Shift() uint {
	if d.ParamShift == nil {
		return 0
	}
	return *d.ParamShift
}

// Mask returns the parameter's value mask. Without an explicit mask the field
// spans the rest of the register above the shift, capped at 64 bits.
func (d ParameterDefinition) Mask() uint64 {
	if d.ParamMask != nil {
		return *d.ParamMask
	}
	width := d.SizeBytes*8 - int(d.Shift())
	switch {
	case width <= 0:
		return 0
	case width >= 64:
		return ^uint64(0)
	default:
		return (uint64(1) << uint(width)) - 1
	}
}

// HasMask reports whether the register map supplied an explicit mask.
func (d ParameterDefinition) HasMask() bool { return d.ParamMask != nil }

// MaskedValue is the value that gets shifted into the register. Only an
// explicit mask is applied; without one, bits beyond the register width are
// kept so that packing can report the overflow.
func (d ParameterDefinition) MaskedValue() uint64 {
	if d.ParamMask == nil {
		return d.Value
	}
	return d.Value & *d.ParamMask
}

// WithValue returns a copy of the definition carrying a different value.
func (d ParameterDefinition) WithValue(v uint64) ParameterDefinition {
	d.Value = v
	return d
}

// clone deep-copies the optional fields so callers never share pointers with
// a Schema.
func (d ParameterDefinition) clone() ParameterDefinition {
	if d.ParamMask != nil {
		m := *d.ParamMask
		d.ParamMask = &m
	}
	if d.ParamShift != nil {
		s := *d.ParamShift
		d.ParamShift = &s
	}
	return d
}

// Mask and Shift build optional field values for literal definitions.
func Mask(m uint64) *uint64 { return &m }

// Shift is the ParamShift counterpart of Mask.
func Shift(s uint) *uint { return &s }

// Override replaces the value of one parameter (or, with Access == AnyAccess,
// every parameter of that name within the block).
type Override struct {
	Ref   ParamRef
	Value uint64
}

func (o Override) String() string {
	return fmt.Sprintf("%s=0x%X", o.Ref, o.Value)
}
