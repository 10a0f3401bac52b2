package regmap

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Schema is an immutable, loaded register map for one chip. Build it once per
// session and pass it to whoever needs parameter definitions.
type Schema struct {
	name  string
	cfg   *Configuration
	index map[ParamRef]ParameterDefinition
}

// rawParameter mirrors one parameter entry of the register-map YAML. Pointer
// fields distinguish "absent" from "zero".
type rawParameter struct {
	Register   *uint32 `yaml:"register"`
	RegOffset  *uint32 `yaml:"reg_offset"`
	SizeByte   *int    `yaml:"size_byte"`
	ParamMask  *uint64 `yaml:"param_mask"`
	ParamShift *int    `yaml:"param_shift"`
	Default    *uint64 `yaml:"default"`
}

// NewSchema validates cfg and wraps a private copy of it.
func NewSchema(name string, cfg *Configuration) (*Schema, error) {
	s := &Schema{
		name:  name,
		cfg:   cfg.Clone(),
		index: make(map[ParamRef]ParameterDefinition),
	}
	err := s.cfg.Walk(func(ref ParamRef, def ParameterDefinition) error {
		if err := def.Validate(); err != nil {
			return &LoadError{Ref: ref.String(), Message: err.Error()}
		}
		s.index[ref] = def
		return nil
	})
	if err != nil {
		return nil, err
	}
	if err := checkWidths(s.cfg); err != nil {
		return nil, err
	}
	return s, nil
}

// ParseSchemas parses every chip found at the top level of a register-map
// document, in document order.
func ParseSchemas(data []byte) ([]*Schema, error) {
	top, err := parseDocument(data)
	if err != nil {
		return nil, err
	}

	var schemas []*Schema
	for _, kv := range pairsOf(top) {
		s, err := parseChip(kv[0].Value, kv[1])
		if err != nil {
			return nil, err
		}
		schemas = append(schemas, s)
	}
	if len(schemas) == 0 {
		return nil, &LoadError{Message: "register map defines no chips"}
	}
	return schemas, nil
}

// ParseSchema parses the chip named root. An empty root selects the only
// chip of a single-chip document.
func ParseSchema(data []byte, root string) (*Schema, error) {
	top, err := parseDocument(data)
	if err != nil {
		return nil, err
	}

	pairs := pairsOf(top)
	if root == "" {
		if len(pairs) != 1 {
			return nil, &LoadError{
				Line:    top.Line,
				Message: fmt.Sprintf("document has %d top-level chips, a root name is required", len(pairs)),
			}
		}
		return parseChip(pairs[0][0].Value, pairs[0][1])
	}
	for _, kv := range pairs {
		if kv[0].Value == root {
			return parseChip(root, kv[1])
		}
	}
	return nil, &LoadError{Message: fmt.Sprintf("chip %q not found", root)}
}

// LoadSchema reads and parses a register-map file.
func LoadSchema(path, root string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{File: path, Message: "failed to read file", Cause: err}
	}
	s, err := ParseSchema(data, root)
	if err != nil {
		return nil, withFile(err, path)
	}
	return s, nil
}

// Name returns the chip name the schema was loaded under.
func (s *Schema) Name() string { return s.name }

// Len returns the number of parameters.
func (s *Schema) Len() int { return len(s.index) }

// Refs lists all parameters in document order.
func (s *Schema) Refs() []ParamRef { return s.cfg.Refs() }

// Lookup returns the definition of ref with its default value.
func (s *Schema) Lookup(ref ParamRef) (ParameterDefinition, bool) {
	def, ok := s.index[ref]
	if !ok {
		return ParameterDefinition{}, false
	}
	return def.clone(), true
}

// Configuration returns a fresh copy of the schema with default values.
func (s *Schema) Configuration() *Configuration {
	return s.cfg.Clone()
}

// Widths maps each physical address to its register width in bytes.
func (s *Schema) Widths() map[uint32]int {
	widths := make(map[uint32]int)
	for _, def := range s.index {
		widths[def.Address()] = def.SizeBytes
	}
	return widths
}

// Addresses lists the physical addresses of the schema in ascending order.
func (s *Schema) Addresses() []uint32 {
	widths := s.Widths()
	addrs := make([]uint32, 0, len(widths))
	for a := range widths {
		addrs = append(addrs, a)
	}
	sort.Slice(addrs, func(i, j int) bool { return addrs[i] < addrs[j] })
	return addrs
}

// Apply returns a configuration with default values replaced by overrides,
// applied in order so later overrides win. An override with Access ==
// AnyAccess hits every access category of its block that defines the
// parameter.
func (s *Schema) Apply(overrides ...Override) (*Configuration, error) {
	cfg := s.Configuration()
	for _, ov := range overrides {
		if ov.Ref.Access != AnyAccess {
			if _, ok := s.index[ov.Ref]; !ok {
				return nil, &UnknownParameterError{Ref: ov.Ref}
			}
			if err := cfg.SetValue(ov.Ref, ov.Value); err != nil {
				return nil, err
			}
			continue
		}

		matched := 0
		for _, ref := range s.Refs() {
			if ref.Block == ov.Ref.Block && ref.Param == ov.Ref.Param {
				if err := cfg.SetValue(ref, ov.Value); err != nil {
					return nil, err
				}
				matched++
			}
		}
		if matched == 0 {
			return nil, &UnknownParameterError{Ref: ov.Ref}
		}
	}
	return cfg, nil
}

func parseDocument(data []byte) (*yaml.Node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &LoadError{Message: "failed to parse YAML", Cause: err}
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, &LoadError{Message: "empty document"}
	}
	top := resolve(doc.Content[0])
	if top.Kind != yaml.MappingNode {
		return nil, &LoadError{Line: top.Line, Message: "top level must be a mapping"}
	}
	return top, nil
}

func parseChip(name string, node *yaml.Node) (*Schema, error) {
	cfg := &Configuration{}

	blocks, err := mapping(node, name)
	if err != nil {
		return nil, err
	}
	for _, b := range blocks {
		blockName := b[0].Value
		accesses, err := mapping(b[1], name+"."+blockName)
		if err != nil {
			return nil, err
		}
		for _, a := range accesses {
			accessName := a[0].Value
			params, err := mapping(a[1], name+"."+blockName+"."+accessName)
			if err != nil {
				return nil, err
			}
			for _, p := range params {
				ref := ParamRef{Block: blockName, Access: accessName, Param: p[0].Value}
				def, err := decodeDefinition(ref, resolve(p[1]))
				if err != nil {
					return nil, err
				}
				if err := cfg.Add(ref, def); err != nil {
					return nil, &LoadError{Line: p[0].Line, Ref: ref.String(), Message: err.Error()}
				}
			}
		}
	}
	return NewSchema(name, cfg)
}

func decodeDefinition(ref ParamRef, node *yaml.Node) (ParameterDefinition, error) {
	var raw rawParameter
	if err := node.Decode(&raw); err != nil {
		return ParameterDefinition{}, &LoadError{Line: node.Line, Ref: ref.String(), Message: "invalid parameter definition", Cause: err}
	}

	missing := func(field string) error {
		return &LoadError{Line: node.Line, Ref: ref.String(), Message: fmt.Sprintf("missing required field %q", field)}
	}
	switch {
	case raw.Register == nil:
		return ParameterDefinition{}, missing("register")
	case raw.RegOffset == nil:
		return ParameterDefinition{}, missing("reg_offset")
	case raw.SizeByte == nil:
		return ParameterDefinition{}, missing("size_byte")
	case raw.Default == nil:
		return ParameterDefinition{}, missing("default")
	}

	def := ParameterDefinition{
		Register:  *raw.Register,
		RegOffset: *raw.RegOffset,
		SizeBytes: *raw.SizeByte,
		ParamMask: raw.ParamMask,
		Value:     *raw.Default,
	}
	if raw.ParamShift != nil {
		if *raw.ParamShift < 0 {
			return ParameterDefinition{}, &LoadError{Line: node.Line, Ref: ref.String(), Message: fmt.Sprintf("negative param_shift %d", *raw.ParamShift)}
		}
		def.ParamShift = Shift(uint(*raw.ParamShift))
	}
	if err := def.Validate(); err != nil {
		return ParameterDefinition{}, &LoadError{Line: node.Line, Ref: ref.String(), Message: err.Error()}
	}
	return def, nil
}

// checkWidths enforces one declared width per physical address.
func checkWidths(cfg *Configuration) error {
	type seen struct {
		size int
		ref  ParamRef
	}
	widths := make(map[uint32]seen)
	return cfg.Walk(func(ref ParamRef, def ParameterDefinition) error {
		addr := def.Address()
		prev, ok := widths[addr]
		if !ok {
			widths[addr] = seen{size: def.SizeBytes, ref: ref}
			return nil
		}
		if prev.size != def.SizeBytes {
			return &LoadError{
				Ref: ref.String(),
				Message: fmt.Sprintf("register 0x%04X declared %d bytes wide, but %d bytes by %s",
					addr, def.SizeBytes, prev.size, prev.ref),
			}
		}
		return nil
	})
}

// mapping returns the key/value pairs of a mapping node, following aliases.
func mapping(node *yaml.Node, path string) ([][2]*yaml.Node, error) {
	node = resolve(node)
	if node.Kind != yaml.MappingNode {
		return nil, &LoadError{Line: node.Line, Ref: path, Message: "expected a mapping"}
	}
	return pairsOf(node), nil
}

func pairsOf(node *yaml.Node) [][2]*yaml.Node {
	pairs := make([][2]*yaml.Node, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		pairs = append(pairs, [2]*yaml.Node{node.Content[i], node.Content[i+1]})
	}
	return pairs
}

func resolve(node *yaml.Node) *yaml.Node {
	for node.Kind == yaml.AliasNode && node.Alias != nil {
		node = node.Alias
	}
	return node
}

func withFile(err error, path string) error {
	if le, ok := err.(*LoadError); ok {
		le.File = path
		return le
	}
	return &LoadError{File: path, Message: err.Error()}
}
