package codec

import (
	"encoding/binary"
	"fmt"
)

const yaz0HeaderSize = 16

// decodeYaz0 decompresses a Yaz0 stream: a 16 byte header (magic, big-endian
// decompressed size, padding) followed by groups of eight blocks described by
// a control byte. A set bit emits a literal, a clear bit copies a run from
// the already emitted output.
func decodeYaz0(src []byte, maxSize uint32) ([]byte, error) {
	if len(src) < yaz0HeaderSize {
		return nil, fmt.Errorf("%w: %d header bytes available, %d needed",
			ErrInvalidHeader, len(src), yaz0HeaderSize)
	}
	if string(src[:4]) != "Yaz0" {
		return nil, fmt.Errorf("%w: bad magic %q", ErrInvalidHeader, src[:4])
	}

	size := binary.BigEndian.Uint32(src[4:8])
	if size > maxSize {
		return nil, fmt.Errorf("%w: declared 0x%X, ceiling 0x%X", ErrTooLarge, size, maxSize)
	}

	dst := make([]byte, size)
	written := 0
	pos := yaz0HeaderSize

	var control byte
	var bits int

	for written < len(dst) {
		if bits == 0 {
			if pos >= len(src) {
				return nil, fmt.Errorf("%w: stream truncated at control byte", ErrInvalidHeader)
			}
			control = src[pos]
			pos++
			bits = 8
		}

		if control&0x80 != 0 { // literal
			if pos >= len(src) {
				return nil, fmt.Errorf("%w: stream truncated at literal", ErrInvalidHeader)
			}
			dst[written] = src[pos]
			written++
			pos++
		} else { // back reference
			if pos+1 >= len(src) {
				return nil, fmt.Errorf("%w: stream truncated at back reference", ErrInvalidHeader)
			}
			b1, b2 := src[pos], src[pos+1]
			pos += 2

			dist := (int(b1&0x0F)<<8 | int(b2)) + 1
			length := int(b1 >> 4)
			if length == 0 {
				if pos >= len(src) {
					return nil, fmt.Errorf("%w: stream truncated at extended length", ErrInvalidHeader)
				}
				length = int(src[pos]) + 0x12
				pos++
			} else {
				length += 2
			}

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
