package override

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2/lexer"

	"github.com/OpenTraceLab/OpenTraceRegmap/pkg/regmap"
)

// File is a sequence of assignments separated by newlines or semicolons.
type File struct {
	Lines []*Line `parser:"@@*"`
}

// Line is either an assignment or a bare separator.
type Line struct {
	Assignment *Assignment `parser:"  @@"`
	Separator  string      `parser:"| @Separator"`
}

// Assignment sets one parameter.
// Example: FMTBUF.*.CONFIG_use_sum = 1
type Assignment struct {
	Pos lexer.Position

	Block  string `parser:"@Ident Dot"`
	Access string `parser:"@( Ident | Asterisk ) Dot"`
	Param  string `parser:"@Ident"`
	Value  string `parser:"Assign @Number"`
}

// Ref returns the parameter the assignment targets. Access may be
// regmap.AnyAccess.
func (a *Assignment) Ref() regmap.ParamRef {
	return regmap.ParamRef{Block: a.Block, Access: a.Access, Param: a.Param}
}

// Uint64 parses the assigned value.
func (a *Assignment) Uint64() (uint64, error) {
	v, err := parseNumber(a.Value)
	if err != nil {
		return 0, fmt.Errorf("override: %s: %s: %w", a.Pos, a.Ref(), err)
	}
	return v, nil
}

// Assignments returns the assignments in source order.
func (f *File) Assignments() []*Assignment {
	var out []*Assignment
	for _, l := range f.Lines {
		if l.Assignment != nil {
			out = append(out, l.Assignment)
		}
	}
	return out
}

// Overrides converts every assignment, stopping at the first bad value.
func (f *File) Overrides() ([]regmap.Override, error) {
	assignments := f.Assignments()
	out := make([]regmap.Override, 0, len(assignments))
	for _, a := range assignments {
		v, err := a.Uint64()
		if err != nil {
			return nil, err
		}
		out = append(out, regmap.Override{Ref: a.Ref(), Value: v})
	}
	return out, nil
}

// parseNumber accepts 0x, 0b and plain decimal. A leading zero on a decimal
// literal does not make it octal.
func parseNumber(s string) (uint64, error) {
	lower := strings.ToLower(s)
	if strings.HasPrefix(lower, "0x") || strings.HasPrefix(lower, "0b") {
		return strconv.ParseUint(s, 0, 64)
	}
	return strconv.ParseUint(strings.ReplaceAll(s, "_", ""), 10, 64)
}
