package translator

import (
	"errors"
	"fmt"

	"github.com/OpenTraceLab/OpenTraceRegmap/pkg/regmap"
)

// Sentinels matched with errors.Is against the typed errors below.
var (
	ErrSizeMismatch = errors.New("translator: register width mismatch")
	ErrOverlap      = errors.New("translator: overlapping bit ranges")
	ErrOverflow     = errors.New("translator: value does not fit register")
	ErrMissing      = errors.New("translator: register missing from image")
	ErrDefinition   = errors.New("translator: invalid parameter definition")
)

// DefinitionError is returned when a parameter's geometry cannot describe a
// field of a register. Err carries the reason from Validate.
type DefinitionError struct {
	Param regmap.ParamRef
	Err   error
}

func (e *DefinitionError) Error() string {
	return fmt.Sprintf("translator: %s: %v", e.Param, e.Err)
}

func (e *DefinitionError) Unwrap() error { return e.Err }

func (e *DefinitionError) Is(target error) bool { return target == ErrDefinition }

// SizeMismatchError is returned when two parameters (or a parameter and a seed
// image) declare different widths for the same address. Other is zero when
// the earlier width came from a register image.
type SizeMismatchError struct {
	Address   uint32
	Param     regmap.ParamRef
	Size      int
	Other     regmap.ParamRef
	OtherSize int
}

func (e *SizeMismatchError) Error() string {
	other := "the register image"
	if !e.Other.IsZero() {
		other = e.Other.String()
	}
	return fmt.Sprintf("translator: register 0x%04X: %s declares %d bytes, %s declares %d",
		e.Address, e.Param, e.Size, other, e.OtherSize)
}

func (e *SizeMismatchError) Is(target error) bool { return target == ErrSizeMismatch }

// OverlapError is returned when two parameters claim intersecting bits of the
// same register. LowBit and HighBit bound the intersection.
type OverlapError struct {
	Address uint32
	First   regmap.ParamRef
	Second  regmap.ParamRef
	LowBit  int
	HighBit int
}

func (e *OverlapError) Error() string {
	return fmt.Sprintf("translator: register 0x%04X: %s overlaps %s in bits %d..%d",
		e.Address, e.Second, e.First, e.LowBit, e.HighBit)
}

func (e *OverlapError) Is(target error) bool { return target == ErrOverlap }

// OverflowError is returned when a value needs more bits than its register
// holds. Param is zero when the overflow was detected on a finished register.
type OverflowError struct {
	Address uint32
	Param   regmap.ParamRef
	Size    int
	BitLen  int
}

func (e *OverflowError) Error() string {
	what := "accumulated value"
	if !e.Param.IsZero() {
		what = e.Param.String()
	}
	return fmt.Sprintf("translator: register 0x%04X: %s needs %d bits, register holds %d",
		e.Address, what, e.BitLen, e.Size*8)
}

func (e *OverflowError) Is(target error) bool { return target == ErrOverflow }

// MissingRegisterError lists parameters that could not be decoded because the
// image lacks their register.
type MissingRegisterError struct {
	Params []regmap.ParamRef
}

func (e *MissingRegisterError) Error() string {
	if len(e.Params) == 1 {
		return fmt.Sprintf("translator: no register in image for %s", e.Params[0])
	}
	return fmt.Sprintf("translator: no register in image for %s and %d more", e.Params[0], len(e.Params)-1)
}

func (e *MissingRegisterError) Is(target error) bool { return target == ErrMissing }
