package override

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alecthomas/participle/v2"

	"github.com/OpenTraceLab/OpenTraceRegmap/pkg/regmap"
)

// Parser parses override files and command-line expressions.
type Parser struct {
	parser *participle.Parser[File]
}

// NewParser creates a new override parser instance
func NewParser() (*Parser, error) {
	parser, err := participle.Build[File](
		participle.Lexer(Lexer),
		participle.Elide("Comment", "Whitespace"),
	)
	if err != nil {
		return nil, fmt.Errorf("override: failed to build parser: %w", err)
	}
	return &Parser{parser: parser}, nil
}

// Parse parses overrides from a reader. name is used in error positions.
func (p *Parser) Parse(name string, r io.Reader) (*File, error) {
	f, err := p.parser.Parse(name, r)
	if err != nil {
		return nil, fmt.Errorf("override: parse error: %w", err)
	}
	return f, nil
}

// ParseString parses overrides from a string
func (p *Parser) ParseString(input string) (*File, error) {
	f, err := p.parser.ParseString("", input)
	if err != nil {
		return nil, fmt.Errorf("override: parse error: %w", err)
	}
	return f, nil
}

// ParseFile parses an override file from a path
func (p *Parser) ParseFile(filename string) (*File, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("override: failed to open file: %w", err)
	}
	defer file.Close()

	return p.Parse(filename, file)
}

// ParseOverrides parses command-line expressions, each holding one or more
// assignments.
func ParseOverrides(exprs ...string) ([]regmap.Override, error) {
	if len(exprs) == 0 {
		return nil, nil
	}
	p, err := NewParser()
	if err != nil {
		return nil, err
	}
	f, err := p.ParseString(strings.Join(exprs, "\n"))
	if err != nil {
		return nil, err
	}
	return f.Overrides()
}

// LoadFile reads the overrides in filename.
func LoadFile(filename string) ([]regmap.Override, error) {
	p, err := NewParser()
	if err != nil {
		return nil, err
	}
	f, err := p.ParseFile(filename)
	if err != nil {
		return nil, err
	}
	return f.Overrides()
}
