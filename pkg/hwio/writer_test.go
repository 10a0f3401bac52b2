package hwio

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/OpenTraceLab/OpenTraceRegmap/pkg/translator"
)

func testPairs(t *testing.T) *translator.PairSet {
	t.Helper()
	set, err := translator.NewPairSet(
		translator.RegisterPair{Address: 0x3A0, Data: []byte{0x23, 0xA1}},
		translator.RegisterPair{Address: 0x380, Data: []byte{0x13}},
	)
	if err != nil {
		t.Fatalf("NewPairSet: %v", err)
	}
	return set
}

func TestWriterRegisterMode(t *testing.T) {
	sim := NewSimTransport(TransportInfo{})
	reg := prometheus.NewRegistry()
	metrics, err := NewMetrics(reg)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}

	w, err := NewWriter(sim, &WriterOptions{Metrics: metrics})
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	report, err := w.Write(context.Background(), testPairs(t))
	if err != nil {
		t.Fatalf("Write: %v", err)
	}

	if report.Session == uuid.Nil {
		t.Error("session id not set")
	}
	if report.Registers != 2 || report.Bytes != 3 {
		t.Errorf("report %+v", report)
	}

	writes := sim.Writes()
	if len(writes) != 2 {
		t.Fatalf("expected 2 writes, got %d", len(writes))
	}
	if writes[0].Address != 0x380 || writes[1].Address != 0x3A0 {
		t.Errorf("writes not in ascending order: %+v", writes)
	}

	if got := testutil.ToFloat64(metrics.RegistersWritten); got != 2 {
		t.Errorf("registers written = %v", got)
	}
	if got := testutil.ToFloat64(metrics.BytesWritten); got != 3 {
		t.Errorf("bytes written = %v", got)
	}
	if n := testutil.CollectAndCount(reg); n != 3 {
		t.Errorf("registry holds %d metrics, want 3", n)
	}
}

func TestWriterByteMode(t *testing.T) {
	sim := NewSimTransport(TransportInfo{})
	w, err := NewWriter(sim, &WriterOptions{Mode: WriteModeByte, Verify: true})
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	if _, err := w.Write(context.Background(), testPairs(t)); err != nil {
		t.Fatalf("Write: %v", err)
	}

	writes := sim.Writes()
	want := []WriteOp{
		{Address: 0x380, Data: []byte{0x13}},
		{Address: 0x3A0, Data: []byte{0x23}},
		{Address: 0x3A1, Data: []byte{0xA1}},
	}
	if len(writes) != len(want) {
		t.Fatalf("expected %d writes, got %d", len(want), len(writes))
	}
	for i := range want {
		if writes[i].Address != want[i].Address || !bytes.Equal(writes[i].Data, want[i].Data) {
			t.Errorf("write %d = %+v, want %+v", i, writes[i], want[i])
		}
	}
	if sim.ReadCount() != 2 {
		t.Errorf("expected one verify read per register, got %d", sim.ReadCount())
	}
}

func TestWriterVerifyFailure(t *testing.T) {
	sim := NewSimTransport(TransportInfo{})
	sim.OnWrite = func(addr uint32, data []byte) ([]byte, error) {
		if addr == 0x3A0 {
			return []byte{0x00, 0x00}, nil
		}
		return data, nil
	}
	metrics, _ := NewMetrics(nil)

	w, err := NewWriter(sim, &WriterOptions{Verify: true, Metrics: metrics})
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	report, err := w.Write(context.Background(), testPairs(t))

	var ve *VerifyError
	if !errors.As(err, &ve) {
		t.Fatalf("expected VerifyError, got %v", err)
	}
	if !errors.Is(err, ErrVerify) {
		t.Error("VerifyError does not match ErrVerify")
	}
	if ve.Address != 0x3A0 || !bytes.Equal(ve.Got, []byte{0, 0}) {
		t.Errorf("unexpected %+v", ve)
	}
	if report.Registers != 2 {
		t.Errorf("Registers = %d, want 2", report.Registers)
	}
	if got := testutil.ToFloat64(metrics.VerifyFailures); got != 1 {
		t.Errorf("verify failures = %v", got)
	}
}

func TestWriterCacheAndReadBack(t *testing.T) {
	ctx := context.Background()
	sim := NewSimTransport(TransportInfo{})
	sim.Poke(0x500, []byte{0xAA})

	w, err := NewWriter(sim, nil)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	if w.Cache().Len() != 0 {
		t.Error("new writer has a cache")
	}
	if _, err := w.Write(ctx, testPairs(t)); err != nil {
		t.Fatalf("Write: %v", err)
	}

	cache := w.Cache()
	if got, _ := cache.Get(0x3A0); !bytes.Equal(got, []byte{0x23, 0xA1}) {
		t.Errorf("cache 0x3A0 = % X", got)
	}

	image, err := w.ReadBack(ctx, map[uint32]int{0x3A0: 2, 0x500: 1, 0x380: 1})
	if err != nil {
		t.Fatalf("ReadBack: %v", err)
	}
	if got := image.Addresses(); len(got) != 3 || got[0] != 0x380 || got[2] != 0x500 {
		t.Errorf("addresses %v", got)
	}
	if got, _ := image.Get(0x500); got[0] != 0xAA {
		t.Errorf("0x500 = % X", got)
	}
}

func TestWriterErrors(t *testing.T) {
	if _, err := NewWriter(nil, nil); err == nil {
		t.Error("expected error for nil transport")
	}
	if _, err := NewWriter(NewSimTransport(TransportInfo{}), &WriterOptions{Mode: 7}); err == nil {
		t.Error("expected error for unknown mode")
	}

	sim := NewSimTransport(TransportInfo{})
	sim.Close()
	w, _ := NewWriter(sim, nil)
	if _, err := w.Write(context.Background(), testPairs(t)); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}

	reg := prometheus.NewRegistry()
	if _, err := NewMetrics(reg); err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	if _, err := NewMetrics(reg); err == nil {
		t.Error("expected duplicate registration error")
	}
}
