// Package image persists register images: the (address, bytes) pairs a
// translation produced, tagged with the chip and write session they belong to.
package image

import (
	"fmt"
	"os"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"

	"github.com/OpenTraceLab/OpenTraceRegmap/pkg/translator"
)

// FormatVersion is written into every image.
const FormatVersion = 1

// Register is one stored register, bytes least significant first.
type Register struct {
	Address uint32 `cbor:"1,keyasint"`
	Data    []byte `cbor:"2,keyasint"`
}

// Image is a register image as stored on disk.
type Image struct {
	Version   int        `cbor:"1,keyasint"`
	Chip      string     `cbor:"2,keyasint,omitempty"`
	Session   uuid.UUID  `cbor:"3,keyasint"`
	Created   time.Time  `cbor:"4,keyasint"`
	Registers []Register `cbor:"5,keyasint"`
}

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error

	encOpts := cbor.EncOptions{
		Sort:          cbor.SortCanonical,
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsEmpty,
		Time:          cbor.TimeRFC3339Nano,
	}
	encMode, err = encOpts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create image CBOR encoder mode: %v", err))
	}

	decOpts := cbor.DecOptions{
		DupMapKey:   cbor.DupMapKeyEnforcedAPF,
		IndefLength: cbor.IndefLengthForbidden,
	}
	decMode, err = decOpts.DecMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create image CBOR decoder mode: %v", err))
	}
}

// FromPairs captures set, in its iteration order, as a new image.
func FromPairs(chip string, session uuid.UUID, set *translator.PairSet) *Image {
	im := &Image{
		Version: FormatVersion,
		Chip:    chip,
		Session: session,
		Created: time.Now().UTC(),
	}
	for _, p := range set.Pairs() {
		im.Registers = append(im.Registers, Register{Address: p.Address, Data: p.Data})
	}
	return im
}

// Pairs converts the image back into an ascending PairSet.
func (im *Image) Pairs() (*translator.PairSet, error) {
	pairs := make([]translator.RegisterPair, len(im.Registers))
	for i, r := range im.Registers {
		pairs[i] = translator.RegisterPair{Address: r.Address, Data: r.Data}
	}
	set, err := translator.NewPairSet(pairs...)
	if err != nil {
		return nil, fmt.Errorf("image: %w", err)
	}
	return set, nil
}

// Validate checks the version and that registers are unique and non-empty.
func (im *Image) Validate() error {
	if im.Version != FormatVersion {
		return fmt.Errorf("image: unsupported format version %d", im.Version)
	}
	_, err := im.Pairs()
	return err
}

// Encode serializes im as canonical CBOR.
func Encode(im *Image) ([]byte, error) {
	data, err := encMode.Marshal(im)
	if err != nil {
		return nil, fmt.Errorf("image: encode: %w", err)
	}
	return data, nil
}

// Decode parses and validates an encoded image.
func Decode(data []byte) (*Image, error) {
	var im Image
	if err := decMode.Unmarshal(data, &im); err != nil {
		return nil, fmt.Errorf("image: decode: %w", err)
	}
	if err := im.Validate(); err != nil {
		return nil, err
	}
	return &im, nil
}

// Save writes im to path.
func Save(path string, im *Image) error {
	data, err := Encode(im)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("image: %w", err)
	}
	return nil
}

// Load reads the image stored at path.
func Load(path string) (*Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("image: %w", err)
	}
	im, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return im, nil
}
