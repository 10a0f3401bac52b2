package override

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// Lexer tokenizes override expressions such as
//
//	ALIGNER.RW.CONFIG_i2c_config_mask = 0x5   # bench value
var Lexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `#[^\n]*`},

	// Newlines separate assignments, so they are not whitespace here
	{Name: "Whitespace", Pattern: `[ \t\r]+`},
	{Name: "Separator", Pattern: `[;\n]`},

	// 0x / 0b prefixed or decimal, Go-style underscores allowed
	{Name: "Number", Pattern: `0[xX][0-9A-Fa-f_]+|0[bB][01_]+|[0-9][0-9_]*`},

	{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_]*`},
	{Name: "Asterisk", Pattern: `\*`},
	{Name: "Dot", Pattern: `\.`},
	{Name: "Assign", Pattern: `=`},
})
