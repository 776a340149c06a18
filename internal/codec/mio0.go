package codec

import (
	"encoding/binary"
	"fmt"
)

const mio0HeaderSize = 16

// decodeMIO0 decompresses a MIO0 block. The header declares the decompressed
// size and the offsets of the compressed-pair plane and the literal plane;
// the control bit plane starts right after the header and is consumed MSB
// first. A set bit emits a literal byte, a clear bit a (length, distance)
// pair copied from the already emitted output.
func decodeMIO0(src []byte, maxSize uint32) ([]byte, error) {
	if len(src) < mio0HeaderSize {
		return nil, fmt.Errorf("%w: %d header bytes available, %d needed",
			ErrInvalidHeader, len(src), mio0HeaderSize)
	}
	if string(src[:4]) != "MIO0" {
		return nil, fmt.Errorf("%w: bad magic %q", ErrInvalidHeader, src[:4])
	}

	size := binary.BigEndian.Uint32(src[4:8])
	compOffset := binary.BigEndian.Uint32(src[8:12])
	rawOffset := binary.BigEndian.Uint32(src[12:16])

	if size > maxSize {
		return nil, fmt.Errorf("%w: declared 0x%X, ceiling 0x%X", ErrTooLarge, size, maxSize)
	}
	if uint64(compOffset) > uint64(len(src)) || uint64(rawOffset) > uint64(len(src)) {
		return nil, fmt.Errorf("%w: plane offsets 0x%X/0x%X exceed input size 0x%X",
			ErrInvalidHeader, compOffset, rawOffset, len(src))
	}
	if compOffset < mio0HeaderSize || rawOffset < compOffset {
		return nil, fmt.Errorf("%w: plane offsets 0x%X/0x%X out of order",
			ErrInvalidHeader, compOffset, rawOffset)
	}

	dst := make([]byte, size)
	written := 0

	maskPos := uint32(mio0HeaderSize)
	compPos := compOffset
	rawPos := rawOffset

	var control byte
	var bits int

	for written < len(dst) {
		if bits == 0 {
			if maskPos >= compOffset || maskPos >= uint32(len(src)) {
				return nil, fmt.Errorf("%w: control plane exhausted", ErrInvalidHeader)
			}
			control = src[maskPos]
			maskPos++
			bits = 8
		}

		if control&0x80 != 0 { // literal
			if rawPos >= uint32(len(src)) {
				return nil, fmt.Errorf("%w: literal plane exhausted", ErrInvalidHeader)
			}
			dst[written] = src[rawPos]
			written++
			rawPos++
		} else { // back reference
			if compPos+1 >= uint32(len(src)) {
				return nil, fmt.Errorf("%w: pair plane exhausted", ErrInvalidHeader)
			}
			pair := binary.BigEndian.Uint16(src[compPos : compPos+2])
			compPos += 2

			length := int(pair>>12) + 3
			dist := int(pair&0xFFF) + 1

			if dist > written {
				return nil, fmt.Errorf("%w: back reference distance %d with only %d bytes written",
					ErrInvalidHeader, dist, written)
			}
			if written+length > len(dst) {
				length = len(dst) - written
			}
			for i := 0; i < length; i++ {
				dst[written] = dst[written-dist]
				written++
			}
		}

		control <<= 1
		bits--
	}

	return dst, nil
}
