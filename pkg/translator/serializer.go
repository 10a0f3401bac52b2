package translator

import (
	"fmt"
	"math/big"
)

// Serialize encodes v into exactly size bytes, least significant byte first.
// Values needing more than size*8 bits fail with an *OverflowError instead of
// being truncated.
func Serialize(v *big.Int, size int) ([]byte, error) {
	if size < 1 {
		return nil, fmt.Errorf("translator: invalid register width %d", size)
	}
	if v.Sign() < 0 {
		return nil, fmt.Errorf("translator: cannot serialize negative value %s", v)
	}
	if v.BitLen() > size*8 {
		return nil, &OverflowError{Size: size, BitLen: v.BitLen()}
	}

	if size == 1 {
		return []byte{byte(v.Uint64())}, nil
	}

	// FillBytes is big-endian
	buf := make([]byte, size)
	v.FillBytes(buf)
	for i, j := 0, len(buf)-1; i < j; i, j = i+1, j-1 {
		buf[i], buf[j] = buf[j], buf[i]
	}
	return buf, nil
}

// SerializeUint64 is Serialize for a machine-word value.
func SerializeUint64(v uint64, size int) ([]byte, error) {
	return Serialize(new(big.Int).SetUint64(v), size)
}

// Deserialize decodes little-endian register bytes.
func Deserialize(data []byte) *big.Int {
	be := make([]byte, len(data))
	for i, b := range data {
		be[len(data)-1-i] = b
	}
	return new(big.Int).SetBytes(be)
}
