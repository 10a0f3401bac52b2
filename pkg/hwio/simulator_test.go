package hwio

import (
	"bytes"
	"context"
	"errors"
	"testing"
)

func TestSimTransportReadWrite(t *testing.T) {
	ctx := context.Background()
	sim := NewSimTransport(TransportInfo{})

	if err := sim.WriteRegister(ctx, 0x3A0, []byte{0x23, 0xA1}); err != nil {
		t.Fatalf("WriteRegister: %v", err)
	}

	got, err := sim.ReadRegister(ctx, 0x39F, 4)
	if err != nil {
		t.Fatalf("ReadRegister: %v", err)
	}
	if want := []byte{0x00, 0x23, 0xA1, 0x00}; !bytes.Equal(got, want) {
		t.Errorf("read % X, want % X", got, want)
	}

	writes := sim.Writes()
	if len(writes) != 1 || writes[0].Address != 0x3A0 {
		t.Fatalf("unexpected write log %+v", writes)
	}
	if sim.ReadCount() != 1 {
		t.Errorf("ReadCount = %d, want 1", sim.ReadCount())
	}
}

func TestSimTransportHook(t *testing.T) {
	ctx := context.Background()
	sim := NewSimTransport(TransportInfo{})
	// bit 0 is read-only zero
	sim.OnWrite = func(addr uint32, data []byte) ([]byte, error) {
		out := append([]byte(nil), data...)
		out[0] &^= 0x01
		return out, nil
	}

	if err := sim.WriteRegister(ctx, 0x10, []byte{0xFF}); err != nil {
		t.Fatalf("WriteRegister: %v", err)
	}
	got, _ := sim.ReadRegister(ctx, 0x10, 1)
	if got[0] != 0xFE {
		t.Errorf("read 0x%02X, want 0xFE", got[0])
	}

	boom := errors.New("boom")
	sim.OnWrite = func(uint32, []byte) ([]byte, error) { return nil, boom }
	if err := sim.WriteRegister(ctx, 0x10, []byte{0x01}); !errors.Is(err, boom) {
		t.Errorf("expected hook error, got %v", err)
	}
}

func TestSimTransportLimits(t *testing.T) {
	ctx := context.Background()
	sim := NewSimTransport(TransportInfo{AddressWidth: 1, MaxTransfer: 4})

	if err := sim.WriteRegister(ctx, 0xFF, []byte{1, 2}); err == nil {
		t.Error("expected address space error")
	}
	if err := sim.WriteRegister(ctx, 0x00, make([]byte, 5)); err == nil {
		t.Error("expected transfer limit error")
	}
	if _, err := sim.ReadRegister(ctx, 0x00, 0); err == nil {
		t.Error("expected length error")
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if err := sim.WriteRegister(cancelled, 0x00, []byte{1}); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}

	sim.Close()
	if err := sim.WriteRegister(ctx, 0x00, []byte{1}); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}

func TestOpenTransportSim(t *testing.T) {
	tr, err := OpenTransport(InterfaceKindSim, &BridgeOptions{AddressWidth: 1})
	if err != nil {
		t.Fatalf("OpenTransport: %v", err)
	}
	info, _ := tr.Info()
	if info.Name != "Simulator" || info.AddressWidth != 1 {
		t.Errorf("unexpected info %+v", info)
	}

	if _, err := OpenTransport("ftdi", nil); err == nil {
		t.Error("expected unknown transport error")
	}
}

func TestInterfaceLabel(t *testing.T) {
	info, ok := classifyUSBDevice(VendorIDMicrochip, ProductIDMCP2221A)
	if !ok {
		t.Fatal("MCP2221A not recognised")
	}
	if info.Kind != InterfaceKindMCP2221 {
		t.Errorf("Kind = %s", info.Kind)
	}
	if _, ok := classifyUSBDevice(0x1234, 0x5678); ok {
		t.Error("unknown device classified")
	}

	bare := InterfaceInfo{Kind: InterfaceKindMCP2221, VendorID: 0x04D8, ProductID: 0x00DD}
	if got := bare.Label(); got != "mcp2221 (04D8:00DD)" {
		t.Errorf("Label = %q", got)
	}
	if got := simInterface().Label(); got != "Simulator (no hardware)" {
		t.Errorf("Label = %q", got)
	}
}
