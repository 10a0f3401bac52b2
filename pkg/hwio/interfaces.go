package hwio

import (
	"context"
	"fmt"

	"github.com/google/gousb"
)

// InterfaceKind categorizes bridge families.
type InterfaceKind string

const (
	InterfaceKindMCP2221 InterfaceKind = "mcp2221"
	InterfaceKindSim     InterfaceKind = "sim"
)

// InterfaceInfo describes a detected bridge.
type InterfaceInfo struct {
	Kind        InterfaceKind
	Description string
	VendorID    uint16
	ProductID   uint16
	Bus         int
	Address     int
}

// Label returns a user-friendly description for the interface.
func (i InterfaceInfo) Label() string {
	if i.Description != "" {
		return i.Description
	}
	if i.Kind != "" {
		return fmt.Sprintf("%s (%04X:%04X)", string(i.Kind), i.VendorID, i.ProductID)
	}
	return fmt.Sprintf("Interface %04X:%04X", i.VendorID, i.ProductID)
}

// DiscoverInterfaces enumerates connected USB bridges that match known
// VID/PID pairs. It always returns at least the simulator entry so register
// images can be written without hardware connected.
func DiscoverInterfaces(ctx context.Context) ([]InterfaceInfo, error) {
	var results []InterfaceInfo
	usb := gousb.NewContext()
	defer usb.Close()

	_, err := usb.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		select {
		case <-ctx.Done():
			return false
		default:
		}

		if info, ok := classifyUSBDevice(desc.Vendor, desc.Product); ok {
			info.Bus = desc.Bus
			info.Address = desc.Address
			results = append(results, info)
		}
		return false
	})
	if err != nil && err != gousb.ErrorAccess {
		return results, err
	}

	results = append(results, simInterface())
	return results, nil
}

func simInterface() InterfaceInfo {
	return InterfaceInfo{
		Kind:        InterfaceKindSim,
		Description: "Simulator (no hardware)",
	}
}

func classifyUSBDevice(vid, pid gousb.ID) (InterfaceInfo, bool) {
	for _, known := range knownBridgeVIDPIDs {
		if uint16(vid) == known.VendorID && uint16(pid) == known.ProductID {
			return InterfaceInfo{
				Kind:        known.Kind,
				Description: known.Description,
				VendorID:    known.VendorID,
				ProductID:   known.ProductID,
			}, true
		}
	}
	return InterfaceInfo{}, false
}

type knownUSBDevice struct {
	Kind        InterfaceKind
	VendorID    uint16
	ProductID   uint16
	Description string
}

var knownBridgeVIDPIDs = []knownUSBDevice{
	{Kind: InterfaceKindMCP2221, VendorID: VendorIDMicrochip, ProductID: ProductIDMCP2221A, Description: "Microchip MCP2221A USB-I²C bridge"},
}

// OpenTransport opens a transport by kind. The simulator ignores opts except
// for the address width.
func OpenTransport(kind InterfaceKind, opts *BridgeOptions) (Transport, error) {
	switch kind {
	case InterfaceKindSim, "":
		info := TransportInfo{}
		if opts != nil {
			info.ChipAddress = opts.ChipAddress
			info.AddressWidth = opts.AddressWidth
		}
		return NewSimTransport(info), nil
	case InterfaceKindMCP2221:
		return OpenUSBBridge(VendorIDMicrochip, ProductIDMCP2221A, opts)
	default:
		return nil, fmt.Errorf("hwio: unknown transport %q", kind)
	}
}
