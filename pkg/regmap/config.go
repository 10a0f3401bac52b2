package regmap

import "fmt"

// Parameter is one named entry of an access category.
type Parameter struct {
	Name string
	Def  ParameterDefinition
}

// Access groups the parameters of one access category ("RW", "RO", ...).
type Access struct {
	Name   string
	Params []Parameter
}

// Block groups the access categories of one chip block.
type Block struct {
	Name   string
	Access []Access
}

// Configuration is the ordered block → access → parameter tree handed to the
// translator. Slice order is the visitation order.
type Configuration struct {
	Blocks []Block
}

// WalkFunc is called for every parameter in order. Returning an error stops
// the walk and the error is returned from Walk.
type WalkFunc func(ref ParamRef, def ParameterDefinition) error

// Walk visits blocks, then access categories, then parameters, in order.
func (c *Configuration) Walk(fn WalkFunc) error {
	if c == nil {
		return nil
	}
	for _, b := range c.Blocks {
		for _, a := range b.Access {
			for _, p := range a.Params {
				ref := ParamRef{Block: b.Name, Access: a.Name, Param: p.Name}
				if err := fn(ref, p.Def); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// Len returns the number of parameters.
func (c *Configuration) Len() int {
	n := 0
	_ = c.Walk(func(ParamRef, ParameterDefinition) error {
		n++
		return nil
	})
	return n
}

// Refs lists every parameter reference in visitation order.
func (c *Configuration) Refs() []ParamRef {
	var refs []ParamRef
	_ = c.Walk(func(ref ParamRef, _ ParameterDefinition) error {
		refs = append(refs, ref)
		return nil
	})
	return refs
}

// Get returns the definition stored under ref.
func (c *Configuration) Get(ref ParamRef) (ParameterDefinition, bool) {
	p := c.find(ref)
	if p == nil {
		return ParameterDefinition{}, false
	}
	return p.Def, true
}

// Add appends a parameter, creating its block and access category on first
// use. Adding the same reference twice is an error.
func (c *Configuration) Add(ref ParamRef, def ParameterDefinition) error {
	if ref.Block == "" || ref.Access == "" || ref.Param == "" {
		return fmt.Errorf("regmap: incomplete reference %q", ref)
	}
	if c.find(ref) != nil {
		return fmt.Errorf("regmap: duplicate parameter %s", ref)
	}

	bi := -1
	for i := range c.Blocks {
		if c.Blocks[i].Name == ref.Block {
			bi = i
			break
		}
	}
	if bi < 0 {
		c.Blocks = append(c.Blocks, Block{Name: ref.Block})
		bi = len(c.Blocks) - 1
	}
	block := &c.Blocks[bi]

	ai := -1
	for i := range block.Access {
		if block.Access[i].Name == ref.Access {
			ai = i
			break
		}
	}
	if ai < 0 {
		block.Access = append(block.Access, Access{Name: ref.Access})
		ai = len(block.Access) - 1
	}
	access := &block.Access[ai]
	access.Params = append(access.Params, Parameter{Name: ref.Param, Def: def.clone()})
	return nil
}

// SetValue overrides the value of an existing parameter.
func (c *Configuration) SetValue(ref ParamRef, v uint64) error {
	p := c.find(ref)
	if p == nil {
		return &UnknownParameterError{Ref: ref}
	}
	p.Def.Value = v
	return nil
}

// Clone returns a deep copy.
func (c *Configuration) Clone() *Configuration {
	out := &Configuration{}
	if c == nil {
		return out
	}
	out.Blocks = make([]Block, len(c.Blocks))
	for i, b := range c.Blocks {
		nb := Block{Name: b.Name, Access: make([]Access, len(b.Access))}
		for j, a := range b.Access {
			na := Access{Name: a.Name, Params: make([]Parameter, len(a.Params))}
			for k, p := range a.Params {
				na.Params[k] = Parameter{Name: p.Name, Def: p.Def.clone()}
			}
			nb.Access[j] = na
		}
		out.Blocks[i] = nb
	}
	return out
}

// Subset returns a copy holding only the parameters keep accepts. Empty
// blocks and access categories are dropped.
func (c *Configuration) Subset(keep func(ParamRef) bool) *Configuration {
	out := &Configuration{}
	_ = c.Walk(func(ref ParamRef, def ParameterDefinition) error {
		if keep(ref) {
			// cannot fail: refs in c are unique
			_ = out.Add(ref, def)
		}
		return nil
	})
	return out
}

// OnlyBlocks returns a Subset filter keeping the named blocks.
func OnlyBlocks(names ...string) func(ParamRef) bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return func(ref ParamRef) bool { return set[ref.Block] }
}

func (c *Configuration) find(ref ParamRef) *Parameter {
	if c == nil {
		return nil
	}
	for i := range c.Blocks {
		b := &c.Blocks[i]
		if b.Name != ref.Block {
			continue
		}
		for j := range b.Access {
			a := &b.Access[j]
			if a.Name != ref.Access {
				continue
			}
			for k := range a.Params {
				if a.Params[k].Name == ref.Param {
					return &a.Params[k]
				}
			}
		}
	}
	return nil
}
