package image

import (
	"bytes"
	"fmt"
	"sort"
)

// ChangeKind classifies one entry of a Compare result.
type ChangeKind int

const (
	Added ChangeKind = iota
	Removed
	Changed
)

func (k ChangeKind) String() string {
	switch k {
	case Added:
		return "added"
	case Removed:
		return "removed"
	case Changed:
		return "changed"
	default:
		return fmt.Sprintf("ChangeKind(%d)", int(k))
	}
}

// Change is a register that differs between two images. Old is nil for
// Added, New is nil for Removed.
type Change struct {
	Kind    ChangeKind
	Address uint32
	Old     []byte
	New     []byte
}

func (c Change) String() string {
	switch c.Kind {
	case Added:
		return fmt.Sprintf("+ 0x%04X % X", c.Address, c.New)
	case Removed:
		return fmt.Sprintf("- 0x%04X % X", c.Address, c.Old)
	default:
		return fmt.Sprintf("~ 0x%04X % X -> % X", c.Address, c.Old, c.New)
	}
}

// Compare lists the registers that differ from a to b, by ascending address.
func Compare(a, b *Image) []Change {
	old := index(a)
	cur := index(b)

	addrs := make([]uint32, 0, len(old)+len(cur))
	for addr := range old {
		addrs = append(addrs, addr)
	}
	for addr := range cur {
		if _, ok := old[addr]; !ok {
			addrs = append(addrs, addr)
		}
	}
	sort.Slice(addrs, func(i, j int) bool { return addrs[i] < addrs[j] })

	var out []Change
	for _, addr := range addrs {
		o, inOld := old[addr]
		n, inNew := cur[addr]
		switch {
		case !inOld:
			out = append(out, Change{Kind: Added, Address: addr, New: n})
		case !inNew:
			out = append(out, Change{Kind: Removed, Address: addr, Old: o})
		case !bytes.Equal(o, n):
			out = append(out, Change{Kind: Changed, Address: addr, Old: o, New: n})
		}
	}
	return out
}

func index(im *Image) map[uint32][]byte {
	out := make(map[uint32][]byte)
	if im == nil {
		return out
	}
	for _, r := range im.Registers {
		out[r.Address] = r.Data
	}
	return out
}
