package translator

import (
	"fmt"
	"sort"
	"strings"
)

// RegisterPair is one physical register and the bytes to write to it, least
// significant byte first.
type RegisterPair struct {
	Address uint32
	Data    []byte
}

func (p RegisterPair) clone() RegisterPair {
	return RegisterPair{Address: p.Address, Data: append([]byte(nil), p.Data...)}
}

// PairSet is the translator's output: at most one pair per address, iterated
// in ascending address order unless built with OrderInsertion.
type PairSet struct {
	pairs     []RegisterPair
	index     map[uint32]int
	insertion []uint32
}

// NewPairSet builds an ascending PairSet from literal pairs. Duplicate
// addresses and empty data are rejected.
func NewPairSet(pairs ...RegisterPair) (*PairSet, error) {
	set := &PairSet{index: make(map[uint32]int, len(pairs))}
	for _, p := range pairs {
		if len(p.Data) == 0 {
			return nil, fmt.Errorf("translator: register 0x%04X has no data", p.Address)
		}
		if _, dup := set.index[p.Address]; dup {
			return nil, fmt.Errorf("translator: duplicate register 0x%04X", p.Address)
		}
		set.index[p.Address] = len(set.pairs)
		set.pairs = append(set.pairs, p.clone())
		set.insertion = append(set.insertion, p.Address)
	}
	set.order(OrderAscending)
	return set, nil
}

func (s *PairSet) order(o Order) {
	if o == OrderAscending {
		sort.SliceStable(s.pairs, func(i, j int) bool { return s.pairs[i].Address < s.pairs[j].Address })
	}
	for i, p := range s.pairs {
		s.index[p.Address] = i
	}
}

// Len returns the number of registers.
func (s *PairSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.pairs)
}

// Pairs returns a copy of the pairs in iteration order.
func (s *PairSet) Pairs() []RegisterPair {
	if s == nil {
		return nil
	}
	out := make([]RegisterPair, len(s.pairs))
	for i, p := range s.pairs {
		out[i] = p.clone()
	}
	return out
}

// Get returns a copy of the bytes for addr.
func (s *PairSet) Get(addr uint32) ([]byte, bool) {
	if s == nil {
		return nil, false
	}
	i, ok := s.index[addr]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), s.pairs[i].Data...), true
}

// Addresses lists the addresses in iteration order.
func (s *PairSet) Addresses() []uint32 {
	if s == nil {
		return nil
	}
	out := make([]uint32, len(s.pairs))
	for i, p := range s.pairs {
		out[i] = p.Address
	}
	return out
}

// InsertionOrder lists the addresses in the order the translator first
// touched them.
func (s *PairSet) InsertionOrder() []uint32 {
	if s == nil {
		return nil
	}
	return append([]uint32(nil), s.insertion...)
}

// Map returns the pairs as an address → bytes map.
func (s *PairSet) Map() map[uint32][]byte {
	out := make(map[uint32][]byte, s.Len())
	if s == nil {
		return out
	}
	for _, p := range s.pairs {
		out[p.Address] = append([]byte(nil), p.Data...)
	}
	return out
}

// Widths maps each address to its register width.
func (s *PairSet) Widths() map[uint32]int {
	out := make(map[uint32]int, s.Len())
	if s == nil {
		return out
	}
	for _, p := range s.pairs {
		out[p.Address] = len(p.Data)
	}
	return out
}

// String renders one "0xADDR 0xBYTE" line per byte, the bench's dump format.
func (s *PairSet) String() string {
	var b strings.Builder
	for _, p := range s.Pairs() {
		for _, v := range p.Data {
			fmt.Fprintf(&b, "0x%x 0x%x\n", p.Address, v)
		}
	}
	return b.String()
}
