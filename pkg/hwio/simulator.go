package hwio

import (
	"context"
	"sync"
)

// WriteHook allows the simulator to emulate device-specific behaviour, such
// as read-only or self-clearing bits. The returned bytes are stored instead of
// data; returning an error fails the write.
type WriteHook func(addr uint32, data []byte) ([]byte, error)

// WriteOp captures one write invocation for inspection within tests.
type WriteOp struct {
	Address uint32
	Data    []byte
}

// SimTransport is an in-memory register file useful for unit tests and dry
// runs. Reads return what was written, zero for bytes never written.
type SimTransport struct {
	InfoData TransportInfo

	OnWrite WriteHook

	mu     sync.Mutex
	mem    map[uint32]byte
	writes []WriteOp
	reads  int
	closed bool
}

// NewSimTransport constructs a simulator configured with the provided info.
func NewSimTransport(info TransportInfo) *SimTransport {
	if info.Name == "" {
		info.Name = "Simulator"
	}
	return &SimTransport{InfoData: info, mem: make(map[uint32]byte)}
}

// Writes returns a copy of every write in order.
func (s *SimTransport) Writes() []WriteOp {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]WriteOp, len(s.writes))
	for i, w := range s.writes {
		out[i] = WriteOp{Address: w.Address, Data: append([]byte(nil), w.Data...)}
	}
	return out
}

// ReadCount reports how many reads have been served.
func (s *SimTransport) ReadCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reads
}

// Poke stores bytes without logging a write, to preload chip state.
func (s *SimTransport) Poke(addr uint32, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.store(addr, data)
}

func (s *SimTransport) Info() (TransportInfo, error) {
	return s.InfoData, nil
}

func (s *SimTransport) WriteRegister(ctx context.Context, addr uint32, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := ValidateAccess(addr, len(data), s.InfoData.AddressWidth, s.InfoData.MaxTransfer); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	s.writes = append(s.writes, WriteOp{Address: addr, Data: append([]byte(nil), data...)})
	stored := data
	if s.OnWrite != nil {
		var err error
		if stored, err = s.OnWrite(addr, data); err != nil {
			return err
		}
	}
	s.store(addr, stored)
	return nil
}

func (s *SimTransport) ReadRegister(ctx context.Context, addr uint32, n int) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := ValidateAccess(addr, n, s.InfoData.AddressWidth, s.InfoData.MaxTransfer); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}

	s.reads++
	out := make([]byte, n)
	for i := range out {
		out[i] = s.mem[addr+uint32(i)]
	}
	return out, nil
}

func (s *SimTransport) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *SimTransport) store(addr uint32, data []byte) {
	if s.mem == nil {
		s.mem = make(map[uint32]byte)
	}
	for i, b := range data {
		s.mem[addr+uint32(i)] = b
	}
}
