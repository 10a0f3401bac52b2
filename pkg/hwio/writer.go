package hwio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/uuid"

	"github.com/OpenTraceLab/OpenTraceRegmap/pkg/translator"
)

// WriteMode selects how a register's bytes go on the wire.
type WriteMode int

const (
	// WriteModeRegister sends each register in one transaction.
	WriteModeRegister WriteMode = iota
	// WriteModeByte sends byte i of a register to address+i, one
	// transaction per byte.
	WriteModeByte
)

func (m WriteMode) String() string {
	switch m {
	case WriteModeRegister:
		return "register"
	case WriteModeByte:
		return "byte"
	default:
		return fmt.Sprintf("WriteMode(%d)", int(m))
	}
}

// ErrVerify is matched by *VerifyError.
var ErrVerify = errors.New("hwio: read-back mismatch")

// VerifyError reports a register whose read-back differs from what was
// written.
type VerifyError struct {
	Address uint32
	Want    []byte
	Got     []byte
}

func (e *VerifyError) Error() string {
	return fmt.Sprintf("hwio: register 0x%04X read back % X, wrote % X", e.Address, e.Got, e.Want)
}

func (e *VerifyError) Is(target error) bool { return target == ErrVerify }

// WriterOptions controls a Writer.
type WriterOptions struct {
	Mode   WriteMode
	Verify bool // read every register back after writing it

	Logger  logr.Logger // default: discard
	Metrics *Metrics    // optional
}

// DefaultWriterOptions writes whole registers without verification.
func DefaultWriterOptions() *WriterOptions {
	return &WriterOptions{
		Mode:   WriteModeRegister,
		Logger: logr.Discard(),
	}
}

// Report summarizes one Write call.
type Report struct {
	Session   uuid.UUID
	Registers int
	Bytes     int
	Started   time.Time
	Finished  time.Time
}

// Writer pushes register images through a Transport and remembers the last
// value written to every address.
type Writer struct {
	transport Transport
	opts      WriterOptions

	mu    sync.Mutex
	cache map[uint32][]byte
}

// NewWriter wraps t. A nil opts uses DefaultWriterOptions.
func NewWriter(t Transport, opts *WriterOptions) (*Writer, error) {
	if t == nil {
		return nil, fmt.Errorf("hwio: transport is nil")
	}
	if opts == nil {
		opts = DefaultWriterOptions()
	}
	if opts.Mode != WriteModeRegister && opts.Mode != WriteModeByte {
		return nil, fmt.Errorf("hwio: unknown write mode %s", opts.Mode)
	}
	return &Writer{
		transport: t,
		opts:      *opts,
		cache:     make(map[uint32][]byte),
	}, nil
}

// Write sends every pair of set in ascending address order. It stops at the
// first transport or verification failure; registers written before the
// failure stay in the cache.
func (w *Writer) Write(ctx context.Context, set *translator.PairSet) (Report, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	report := Report{Session: uuid.New(), Started: time.Now()}
	log := w.opts.Logger.WithValues("session", report.Session.String())

	pairs := set.Pairs()
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].Address < pairs[j].Address })
	log.Info("writing registers", "registers", len(pairs), "mode", w.opts.Mode.String())

	for _, p := range pairs {
		if err := w.writePair(ctx, p); err != nil {
			report.Finished = time.Now()
			return report, err
		}
		w.cache[p.Address] = append([]byte(nil), p.Data...)
		report.Registers++
		report.Bytes += len(p.Data)
		log.V(1).Info("wrote register", "address", fmt.Sprintf("0x%04X", p.Address), "data", fmt.Sprintf("% X", p.Data))

		if !w.opts.Verify {
			continue
		}
		got, err := w.transport.ReadRegister(ctx, p.Address, len(p.Data))
		if err != nil {
			report.Finished = time.Now()
			return report, fmt.Errorf("hwio: verify 0x%04X: %w", p.Address, err)
		}
		if !bytes.Equal(got, p.Data) {
			w.opts.Metrics.verifyFailed()
			report.Finished = time.Now()
			return report, &VerifyError{Address: p.Address, Want: p.Data, Got: got}
		}
	}

	report.Finished = time.Now()
	log.Info("write complete", "registers", report.Registers, "bytes", report.Bytes,
		"elapsed", report.Finished.Sub(report.Started).String())
	return report, nil
}

func (w *Writer) writePair(ctx context.Context, p translator.RegisterPair) error {
	if w.opts.Mode == WriteModeByte {
		for i, b := range p.Data {
			addr := p.Address + uint32(i)
			if err := w.transport.WriteRegister(ctx, addr, []byte{b}); err != nil {
				return fmt.Errorf("hwio: write 0x%04X: %w", addr, err)
			}
			w.opts.Metrics.wrote(1)
		}
		return nil
	}
	if err := w.transport.WriteRegister(ctx, p.Address, p.Data); err != nil {
		return fmt.Errorf("hwio: write 0x%04X: %w", p.Address, err)
	}
	w.opts.Metrics.wrote(len(p.Data))
	return nil
}

// Cache returns the last value written to every address.
func (w *Writer) Cache() *translator.PairSet {
	w.mu.Lock()
	defer w.mu.Unlock()

	pairs := make([]translator.RegisterPair, 0, len(w.cache))
	for addr, data := range w.cache {
		pairs = append(pairs, translator.RegisterPair{Address: addr, Data: data})
	}
	// cache keys are unique and never empty
	set, _ := translator.NewPairSet(pairs...)
	return set
}

// ReadBack reads each address in widths, the register image a translation can
// be seeded with.
func (w *Writer) ReadBack(ctx context.Context, widths map[uint32]int) (*translator.PairSet, error) {
	addrs := make([]uint32, 0, len(widths))
	for addr := range widths {
		addrs = append(addrs, addr)
	}
	sort.Slice(addrs, func(i, j int) bool { return addrs[i] < addrs[j] })

	pairs := make([]translator.RegisterPair, 0, len(addrs))
	for _, addr := range addrs {
		data, err := w.transport.ReadRegister(ctx, addr, widths[addr])
		if err != nil {
			return nil, fmt.Errorf("hwio: read back 0x%04X: %w", addr, err)
		}
		pairs = append(pairs, translator.RegisterPair{Address: addr, Data: data})
	}
	w.opts.Logger.V(1).Info("read back registers", "registers", len(pairs))
	return translator.NewPairSet(pairs...)
}
