package translator

import (
	"fmt"
	"math/big"

	"github.com/go-logr/logr"

	"github.com/OpenTraceLab/OpenTraceRegmap/pkg/regmap"
)

// register is the accumulator state for one physical address.
type register struct {
	size    int
	value   *big.Int
	claimed *big.Int // union of every owner's bits
	owners  []owner
	touched bool // a parameter targeted this address
}

// owner records which bits of a register a parameter claimed.
type owner struct {
	ref  regmap.ParamRef
	bits *big.Int
}

// accumulator folds parameter contributions into per-address values. It is
// local to one translation.
type accumulator struct {
	regs  map[uint32]*register
	order []uint32
	log   logr.Logger
}

func newAccumulator(log logr.Logger) *accumulator {
	return &accumulator{
		regs: make(map[uint32]*register),
		log:  log,
	}
}

// seed preloads addr with an existing register image. Bits no parameter
// claims keep the seeded value.
func (a *accumulator) seed(addr uint32, data []byte) {
	a.regs[addr] = &register{
		size:    len(data),
		value:   Deserialize(data),
		claimed: new(big.Int),
	}
}

// fold merges one parameter into its register:
//
//	contribution = (value & mask) << shift
//
// where an absent mask leaves the value untouched. The parameter's field
// (mask << shift, clipped to the register width) must not intersect any field
// already folded into the register, so OR-ing the contribution is equivalent
// to adding it.
func (a *accumulator) fold(ref regmap.ParamRef, def regmap.ParameterDefinition) error {
	if err := def.Validate(); err != nil {
		return &DefinitionError{Param: ref, Err: err}
	}
	addr := def.Address()
	size := def.SizeBytes

	reg, ok := a.regs[addr]
	if !ok {
		reg = &register{size: size, value: new(big.Int), claimed: new(big.Int)}
		a.regs[addr] = reg
	}
	if reg.size != size {
		var other regmap.ParamRef
		if len(reg.owners) > 0 {
			other = reg.owners[0].ref
		}
		return &SizeMismatchError{Address: addr, Param: ref, Size: size, Other: other, OtherSize: reg.size}
	}

	width := uint(size) * 8
	shift := def.Shift()
	mask := def.Mask()

	contribution := new(big.Int).SetUint64(def.MaskedValue())
	contribution.Lsh(contribution, shift)
	if contribution.BitLen() > int(width) {
		return &OverflowError{Address: addr, Param: ref, Size: size, BitLen: contribution.BitLen()}
	}

	field := new(big.Int).SetUint64(mask)
	field.Lsh(field, shift)
	field.And(field, ones(width))

	if common := new(big.Int).And(reg.claimed, field); common.Sign() != 0 {
		for _, o := range reg.owners {
			hit := new(big.Int).And(o.bits, field)
			if hit.Sign() == 0 {
				continue
			}
			return &OverlapError{
				Address: addr,
				First:   o.ref,
				Second:  ref,
				LowBit:  int(hit.TrailingZeroBits()),
				HighBit: hit.BitLen() - 1,
			}
		}
	}

	if !reg.touched {
		reg.touched = true
		a.order = append(a.order, addr)
	}
	reg.value.AndNot(reg.value, field)
	reg.value.Or(reg.value, contribution)
	reg.claimed.Or(reg.claimed, field)
	reg.owners = append(reg.owners, owner{ref: ref, bits: field})

	a.log.V(1).Info("folded parameter",
		"param", ref.String(),
		"address", fmt.Sprintf("0x%04X", addr),
		"contribution", fmt.Sprintf("0x%X", contribution),
		"register", fmt.Sprintf("0x%X", reg.value))
	return nil
}

// pairs serializes every register a parameter touched.
func (a *accumulator) pairs(order Order) (*PairSet, error) {
	set := &PairSet{index: make(map[uint32]int, len(a.order))}
	for _, addr := range a.order {
		reg := a.regs[addr]
		data, err := Serialize(reg.value, reg.size)
		if err != nil {
			if oe, ok := err.(*OverflowError); ok {
				oe.Address = addr
			}
			return nil, err
		}
		set.pairs = append(set.pairs, RegisterPair{Address: addr, Data: data})
		set.insertion = append(set.insertion, addr)
	}
	set.order(order)
	return set, nil
}

// ones returns a value with the low n bits set.
func ones(n uint) *big.Int {
	v := new(big.Int).Lsh(big.NewInt(1), n)
	return v.Sub(v, big.NewInt(1))
}
