package hwio

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/gousb"
)

const (
	// MCP2221A USB identifiers
	VendorIDMicrochip = 0x04D8
	ProductIDMCP2221A = 0x00DD

	// HID reports are fixed size in both directions
	PacketSize = 64

	DefaultTimeout     = 2 * time.Second
	DefaultRetries     = 50
	DefaultChipAddress = 0x20
)

// Bridge command codes
const (
	cmdStatus          byte = 0x10
	cmdI2CGetData      byte = 0x40
	cmdI2CWrite        byte = 0x90
	cmdI2CRead         byte = 0x91
	cmdI2CReadRepStart byte = 0x93
	cmdI2CWriteNoStop  byte = 0x94
)

// I²C engine states reported in status byte 8 and get-data byte 2
const (
	i2cStateIdle          byte = 0x00
	i2cStateAddrTimeout   byte = 0x23
	i2cStateAddrNACK      byte = 0x25
	i2cStatePartialData   byte = 0x41
	i2cStateWriteTimeout  byte = 0x44
	i2cStateWritingNoStop byte = 0x45
	i2cStateReadTimeout   byte = 0x52
	i2cStateReadComplete  byte = 0x55
	i2cStateReadError     byte = 0x7F
)

// header is cmd, length lo, length hi, address
const i2cPayloadMax = PacketSize - 4

const pollInterval = 300 * time.Microsecond

// packetIO moves raw HID reports. The gousb implementation is usbPipe; tests
// substitute a bridge emulator.
type packetIO interface {
	writePacket(ctx context.Context, p []byte) error
	readPacket(ctx context.Context, p []byte) (int, error)
	Close() error
}

// BridgeOptions configures a USBBridge.
type BridgeOptions struct {
	ChipAddress  uint8         // 7-bit I²C address of the target chip
	AddressWidth int           // register address bytes, 1 or 2 (default: 2)
	Timeout      time.Duration // per transaction (default: DefaultTimeout)
	Retries      int           // status polls before giving up (default: DefaultRetries)
}

// DefaultBridgeOptions returns options for a chip at DefaultChipAddress with
// 16-bit register addresses.
func DefaultBridgeOptions() *BridgeOptions {
	return &BridgeOptions{
		ChipAddress:  DefaultChipAddress,
		AddressWidth: 2,
		Timeout:      DefaultTimeout,
		Retries:      DefaultRetries,
	}
}

// Validate fills zero fields with defaults and rejects unusable values.
func (o *BridgeOptions) Validate() error {
	if o.AddressWidth == 0 {
		o.AddressWidth = 2
	}
	if o.AddressWidth != 1 && o.AddressWidth != 2 {
		return fmt.Errorf("hwio: register address width must be 1 or 2 bytes, got %d", o.AddressWidth)
	}
	if o.ChipAddress > 0x7F {
		return fmt.Errorf("hwio: chip address 0x%02X is not a 7-bit address", o.ChipAddress)
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.Retries <= 0 {
		o.Retries = DefaultRetries
	}
	return nil
}

// NACKError is returned when the chip does not acknowledge its address.
type NACKError struct {
	ChipAddress uint8
}

func (e *NACKError) Error() string {
	return fmt.Sprintf("hwio: I²C NACK from address 0x%02X", e.ChipAddress)
}

// USBBridge is a Transport over an MCP2221A USB to I²C bridge. Each register
// access is one I²C transaction: the register address, big-endian, followed
// by the data.
type USBBridge struct {
	mu   sync.Mutex
	io   packetIO
	opts BridgeOptions
	info TransportInfo
}

// OpenUSBBridge opens the first bridge matching vid:pid.
func OpenUSBBridge(vid, pid uint16, opts *BridgeOptions) (*USBBridge, error) {
	if opts == nil {
		opts = DefaultBridgeOptions()
	}
	pipe, err := openUSBPipe(vid, pid)
	if err != nil {
		return nil, err
	}

	info := TransportInfo{
		Name:   "MCP2221A",
		Vendor: "Microchip",
		Model:  fmt.Sprintf("%04X:%04X", vid, pid),
	}
	if serial, err := pipe.dev.SerialNumber(); err == nil {
		info.SerialNumber = serial
	}

	bridge, err := newUSBBridge(pipe, *opts, info)
	if err != nil {
		pipe.Close()
		return nil, err
	}
	return bridge, nil
}

func newUSBBridge(io packetIO, opts BridgeOptions, info TransportInfo) (*USBBridge, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	info.ChipAddress = opts.ChipAddress
	info.AddressWidth = opts.AddressWidth
	info.MaxTransfer = i2cPayloadMax - opts.AddressWidth
	return &USBBridge{io: io, opts: opts, info: info}, nil
}

func (b *USBBridge) Info() (TransportInfo, error) {
	return b.info, nil
}

// WriteRegister sends [addr, data...] in one write-with-stop transaction.
func (b *USBBridge) WriteRegister(ctx context.Context, addr uint32, data []byte) error {
	if err := ValidateAccess(addr, len(data), b.opts.AddressWidth, b.info.MaxTransfer); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, b.opts.Timeout)
	defer cancel()

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.io == nil {
		return ErrClosed
	}

	payload := append(b.registerAddress(addr), data...)
	if _, err := b.send(ctx, cmdI2CWrite, b.header(payload, len(payload), false)); err != nil {
		return fmt.Errorf("hwio: write 0x%04X: %w", addr, err)
	}
	if err := b.waitState(ctx, i2cStateIdle); err != nil {
		return fmt.Errorf("hwio: write 0x%04X: %w", addr, err)
	}
	return nil
}

// ReadRegister sets the register pointer without a stop condition, then reads
// n bytes with a repeated start.
func (b *USBBridge) ReadRegister(ctx context.Context, addr uint32, n int) ([]byte, error) {
	if err := ValidateAccess(addr, n, b.opts.AddressWidth, b.info.MaxTransfer); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, b.opts.Timeout)
	defer cancel()

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.io == nil {
		return nil, ErrClosed
	}

	reg := b.registerAddress(addr)
	if _, err := b.send(ctx, cmdI2CWriteNoStop, b.header(reg, len(reg), false)); err != nil {
		return nil, fmt.Errorf("hwio: read 0x%04X: %w", addr, err)
	}
	if err := b.waitState(ctx, i2cStateWritingNoStop); err != nil {
		return nil, fmt.Errorf("hwio: read 0x%04X: %w", addr, err)
	}
	if _, err := b.send(ctx, cmdI2CReadRepStart, b.header(nil, n, true)); err != nil {
		return nil, fmt.Errorf("hwio: read 0x%04X: %w", addr, err)
	}

	out := make([]byte, 0, n)
	for retry := 0; len(out) < n; retry++ {
		if retry >= b.opts.Retries {
			return nil, fmt.Errorf("hwio: read 0x%04X: too many retries", addr)
		}
		rsp, err := b.send(ctx, cmdI2CGetData, make([]byte, PacketSize))
		if err != nil {
			return nil, fmt.Errorf("hwio: read 0x%04X: %w", addr, err)
		}
		if rsp[2] == i2cStateAddrNACK {
			return nil, &NACKError{ChipAddress: b.opts.ChipAddress}
		}
		count := int(rsp[3])
		if rsp[3] == i2cStateReadError || count == 0 {
			if err := sleep(ctx, pollInterval); err != nil {
				return nil, err
			}
			continue
		}
		if count > n-len(out) {
			count = n - len(out)
		}
		out = append(out, rsp[4:4+count]...)
	}
	return out, nil
}

func (b *USBBridge) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.io == nil {
		return nil
	}
	err := b.io.Close()
	b.io = nil
	return err
}

// registerAddress renders addr big-endian in AddressWidth bytes.
func (b *USBBridge) registerAddress(addr uint32) []byte {
	out := make([]byte, b.opts.AddressWidth)
	for i := range out {
		out[len(out)-1-i] = byte(addr >> (8 * uint(i)))
	}
	return out
}

// header builds a command packet: length little-endian, then the 8-bit bus
// address, then the payload.
func (b *USBBridge) header(payload []byte, length int, read bool) []byte {
	p := make([]byte, PacketSize)
	p[1] = byte(length)
	p[2] = byte(length >> 8)
	p[3] = b.opts.ChipAddress << 1
	if read {
		p[3] |= 0x01
	}
	copy(p[4:], payload)
	return p
}

func (b *USBBridge) send(ctx context.Context, cmd byte, p []byte) ([]byte, error) {
	p[0] = cmd
	if err := b.io.writePacket(ctx, p); err != nil {
		return nil, fmt.Errorf("command 0x%02X: %w", cmd, err)
	}

	rsp := make([]byte, PacketSize)
	n, err := b.io.readPacket(ctx, rsp)
	if err != nil {
		return nil, fmt.Errorf("command 0x%02X: %w", cmd, err)
	}
	if n < PacketSize {
		return nil, fmt.Errorf("command 0x%02X: short read (%d of %d bytes)", cmd, n, PacketSize)
	}
	if rsp[0] != cmd {
		return nil, fmt.Errorf("command 0x%02X: response for 0x%02X", cmd, rsp[0])
	}
	if rsp[1] != 0 {
		return nil, fmt.Errorf("command 0x%02X: bridge busy (0x%02X)", cmd, rsp[1])
	}
	return rsp, nil
}

// waitState polls the bridge status until the I²C engine reaches want.
func (b *USBBridge) waitState(ctx context.Context, want byte) error {
	for retry := 0; retry < b.opts.Retries; retry++ {
		rsp, err := b.send(ctx, cmdStatus, make([]byte, PacketSize))
		if err != nil {
			return err
		}
		switch state := rsp[8]; state {
		case want:
			return nil
		case i2cStateAddrNACK:
			return &NACKError{ChipAddress: b.opts.ChipAddress}
		case i2cStateAddrTimeout, i2cStateWriteTimeout, i2cStateReadTimeout:
			return fmt.Errorf("I²C timeout (state 0x%02X)", state)
		}
		if err := sleep(ctx, pollInterval); err != nil {
			return err
		}
	}
	return fmt.Errorf("too many retries")
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// usbPipe exchanges HID reports over the bridge's interrupt endpoints.
type usbPipe struct {
	ctx  *gousb.Context
	dev  *gousb.Device
	cfg  *gousb.Config
	intf *gousb.Interface

	epOut *gousb.OutEndpoint
	epIn  *gousb.InEndpoint
}

func openUSBPipe(vid, pid uint16) (*usbPipe, error) {
	ctx := gousb.NewContext()

	dev, err := ctx.OpenDeviceWithVIDPID(gousb.ID(vid), gousb.ID(pid))
	if err != nil {
		ctx.Close()
		return nil, fmt.Errorf("hwio: USB error: %w", err)
	}
	if dev == nil {
		ctx.Close()
		return nil, fmt.Errorf("hwio: device not found (VID:0x%04X PID:0x%04X)", vid, pid)
	}

	// The kernel HID driver owns the interface on Linux; failure is not fatal
	// on other platforms.
	_ = dev.SetAutoDetach(true)

	pipe := &usbPipe{ctx: ctx, dev: dev}
	if err := pipe.claimInterface(); err != nil {
		pipe.Close()
		return nil, err
	}
	return pipe, nil
}

// claimInterface finds and claims the HID interface
func (p *usbPipe) claimInterface() error {
	cfg, err := p.dev.Config(1)
	if err != nil {
		return fmt.Errorf("hwio: failed to get config: %w", err)
	}
	p.cfg = cfg

	hidIntfNum := -1
	for _, intf := range cfg.Desc.Interfaces {
		if len(intf.AltSettings) > 0 && intf.AltSettings[0].Class == gousb.ClassHID {
			hidIntfNum = intf.Number
			break
		}
	}
	if hidIntfNum == -1 {
		return fmt.Errorf("hwio: no HID interface on device")
	}

	intf, err := cfg.Interface(hidIntfNum, 0)
	if err != nil {
		return fmt.Errorf("hwio: failed to claim interface %d: %w", hidIntfNum, err)
	}
	p.intf = intf

	var outNum, inNum int
	for _, ep := range intf.Setting.Endpoints {
		if ep.TransferType != gousb.TransferTypeInterrupt {
			continue
		}
		switch ep.Direction {
		case gousb.EndpointDirectionOut:
			outNum = ep.Number
		case gousb.EndpointDirectionIn:
			inNum = ep.Number
		}
	}
	if outNum == 0 || inNum == 0 {
		return fmt.Errorf("hwio: interrupt endpoints not found")
	}

	if p.epOut, err = intf.OutEndpoint(outNum); err != nil {
		return fmt.Errorf("hwio: failed to open OUT endpoint: %w", err)
	}
	if p.epIn, err = intf.InEndpoint(inNum); err != nil {
		return fmt.Errorf("hwio: failed to open IN endpoint: %w", err)
	}
	return nil
}

func (p *usbPipe) writePacket(ctx context.Context, data []byte) error {
	_, err := p.epOut.WriteContext(ctx, data)
	return err
}

func (p *usbPipe) readPacket(ctx context.Context, data []byte) (int, error) {
	return p.epIn.ReadContext(ctx, data)
}

// Close releases USB resources
func (p *usbPipe) Close() error {
	if p.intf != nil {
		p.intf.Close()
		p.intf = nil
	}
	if p.cfg != nil {
		p.cfg.Close()
		p.cfg = nil
	}
	if p.dev != nil {
		p.dev.Close()
		p.dev = nil
	}
	if p.ctx != nil {
		p.ctx.Close()
		p.ctx = nil
	}
	return nil
}
