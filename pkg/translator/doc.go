// Package translator packs register-map parameters into the bytes written to
// hardware.
//
// Every parameter of a regmap.Configuration names a physical register
// (register + reg_offset), a width in bytes and the bit field it occupies
// (param_mask, param_shift). Translate folds the parameters that share an
// address into one value and serializes it little-endian into exactly the
// register's width:
//
//	p1: register 0x10, size 1, mask 0x0F, shift 0, value 0x0A
//	p2: register 0x10, size 1, mask 0x0F, shift 4, value 0x03
//
//	0x10 -> [0x3A]
//
// # Failure modes
//
// Translation fails fast rather than emitting a corrupted register:
//   - SizeMismatchError: two parameters give one address different widths
//   - OverlapError: two parameters claim the same bit of one register
//   - OverflowError: a value does not fit in its register
//
// All three match their sentinel (ErrSizeMismatch, ErrOverlap, ErrOverflow)
// with errors.Is.
//
// # Read-modify-write
//
// TranslateOnto seeds the accumulator with an existing image so that a
// partial configuration only replaces the bits it owns. Decode and Diff run
// the other way, extracting parameter values from an image.
package translator
