package hwio

import (
	"context"
	"errors"
	"fmt"
)

// TransportInfo describes the bridge a Transport talks through and the chip
// it addresses.
type TransportInfo struct {
	Name         string
	Vendor       string
	Model        string
	SerialNumber string
	ChipAddress  uint8 // 7-bit I²C address
	AddressWidth int   // register address bytes on the wire
	MaxTransfer  int   // largest data payload per register access
	Notes        string
}

// Transport abstracts a physical or virtual path to a chip's register file.
// Register addresses are byte addresses; a multi-byte access covers
// addr..addr+len-1.
type Transport interface {
	Info() (TransportInfo, error)
	WriteRegister(ctx context.Context, addr uint32, data []byte) error
	ReadRegister(ctx context.Context, addr uint32, n int) ([]byte, error)
	Close() error
}

// ErrClosed is returned by transports used after Close.
var ErrClosed = errors.New("hwio: transport closed")

// ValidateAccess checks that an access of n bytes at addr is representable
// with addrWidth address bytes and fits in maxTransfer (0 means unlimited).
func ValidateAccess(addr uint32, n, addrWidth, maxTransfer int) error {
	if n <= 0 {
		return fmt.Errorf("hwio: access length must be positive, got %d", n)
	}
	if maxTransfer > 0 && n > maxTransfer {
		return fmt.Errorf("hwio: %d bytes exceed the %d-byte transfer limit", n, maxTransfer)
	}
	if addrWidth > 0 && addrWidth < 4 {
		limit := uint64(1) << (8 * uint(addrWidth))
		if uint64(addr)+uint64(n) > limit {
			return fmt.Errorf("hwio: register 0x%X+%d outside %d-byte address space", addr, n, addrWidth)
		}
	}
	return nil
}
