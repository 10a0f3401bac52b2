package regmap

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// rawValue is the mapping form of a leaf in a values file.
type rawValue struct {
	Value   *uint64 `yaml:"value"`
	Default *uint64 `yaml:"default"`
}

// ParseValues reads a values file: the register-map hierarchy
// (block → access → parameter) where each leaf is either an integer or a
// mapping with a "value" (or "default") key. When root is non-empty and the
// document's only top-level key equals root, parsing starts below it.
//
// The returned overrides keep document order.
func ParseValues(data []byte, root string) ([]Override, error) {
	top, err := parseDocument(data)
	if err != nil {
		return nil, err
	}
	if root != "" {
		if pairs := pairsOf(top); len(pairs) == 1 && pairs[0][0].Value == root {
			top = resolve(pairs[0][1])
		}
	}

	var overrides []Override
	blocks, err := mapping(top, "")
	if err != nil {
		return nil, err
	}
	for _, b := range blocks {
		accesses, err := mapping(b[1], b[0].Value)
		if err != nil {
			return nil, err
		}
		for _, a := range accesses {
			params, err := mapping(a[1], b[0].Value+"."+a[0].Value)
			if err != nil {
				return nil, err
			}
			for _, p := range params {
				ref := ParamRef{Block: b[0].Value, Access: a[0].Value, Param: p[0].Value}
				v, err := decodeValue(ref, resolve(p[1]))
				if err != nil {
					return nil, err
				}
				overrides = append(overrides, Override{Ref: ref, Value: v})
			}
		}
	}
	return overrides, nil
}

// LoadValues reads and parses a values file.
func LoadValues(path, root string) ([]Override, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{File: path, Message: "failed to read file", Cause: err}
	}
	ov, err := ParseValues(data, root)
	if err != nil {
		return nil, withFile(err, path)
	}
	return ov, nil
}

// MarshalValues renders a configuration's values in the values-file layout,
// suitable for ParseValues.
func MarshalValues(cfg *Configuration) ([]byte, error) {
	root := &yaml.Node{Kind: yaml.MappingNode}
	for _, b := range cfg.Blocks {
		blockNode := &yaml.Node{Kind: yaml.MappingNode}
		for _, a := range b.Access {
			accessNode := &yaml.Node{Kind: yaml.MappingNode}
			for _, p := range a.Params {
				accessNode.Content = append(accessNode.Content,
					scalar(p.Name),
					&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: fmt.Sprintf("0x%X", p.Def.Value)},
				)
			}
			blockNode.Content = append(blockNode.Content, scalar(a.Name), accessNode)
		}
		root.Content = append(root.Content, scalar(b.Name), blockNode)
	}
	return yaml.Marshal(root)
}

func scalar(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
}

func decodeValue(ref ParamRef, node *yaml.Node) (uint64, error) {
	switch node.Kind {
	case yaml.ScalarNode:
		var v uint64
		if err := node.Decode(&v); err != nil {
			return 0, &LoadError{Line: node.Line, Ref: ref.String(), Message: "value must be a non-negative integer", Cause: err}
		}
		return v, nil
	case yaml.MappingNode:
		var raw rawValue
		if err := node.Decode(&raw); err != nil {
			return 0, &LoadError{Line: node.Line, Ref: ref.String(), Message: "invalid value entry", Cause: err}
		}
		if raw.Value != nil {
			return *raw.Value, nil
		}
		if raw.Default != nil {
			return *raw.Default, nil
		}
		return 0, &LoadError{Line: node.Line, Ref: ref.String(), Message: `entry has neither "value" nor "default"`}
	default:
		return 0, &LoadError{Line: node.Line, Ref: ref.String(), Message: "expected an integer or a mapping"}
	}
}
