package codec

import (
	"encoding/binary"
	"fmt"
)

const yay0HeaderSize = 16

// decodeYay0 decompresses a Yay0 block, the planar sibling of Yaz0: control
// bits after the header, (length, distance) pairs in a link table, literals
// and extended length bytes in a chunk plane.
func decodeYay0(src []byte, maxSize uint32) ([]byte, error) {
	if len(src) < yay0HeaderSize {
		return nil, fmt.Errorf("%w: %d header bytes available, %d needed",
			ErrInvalidHeader, len(src), yay0HeaderSize)
	}
	if string(src[:4]) != "Yay0" {
		return nil, fmt.Errorf("%w: bad magic %q", ErrInvalidHeader, src[:4])
	}

	size := binary.BigEndian.Uint32(src[4:8])
	linkOffset := binary.BigEndian.Uint32(src[8:12])
	chunkOffset := binary.BigEndian.Uint32(src[12:16])

	if size > maxSize {
		return nil, fmt.Errorf("%w: declared 0x%X, ceiling 0x%X", ErrTooLarge, size, maxSize)
	}
	if uint64(linkOffset) > uint64(len(src)) || uint64(chunkOffset) > uint64(len(src)) {
		return nil, fmt.Errorf("%w: plane offsets 0x%X/0x%X exceed input size 0x%X",
			ErrInvalidHeader, linkOffset, chunkOffset, len(src))
	}

	dst := make([]byte, size)
	written := 0

	maskPos := uint32(yay0HeaderSize)
	linkPos := linkOffset
	chunkPos := chunkOffset

	var control uint32
	var bits int

	for written < len(dst) {
		if bits == 0 {
			if maskPos+3 >= linkOffset || maskPos+3 >= uint32(len(src)) {
				return nil, fmt.Errorf("%w: control plane exhausted", ErrInvalidHeader)
			}
			control = binary.BigEndian.Uint32(src[maskPos : maskPos+4])
			maskPos += 4
			bits = 32
		}

		if control&0x80000000 != 0 { // literal
			if chunkPos >= uint32(len(src)) {
				return nil, fmt.Errorf("%w: chunk plane exhausted", ErrInvalidHeader)
			}
			dst[written] = src[chunkPos]
			written++
			chunkPos++
		} else { // back reference
			if linkPos+1 >= uint32(len(src)) {
				return nil, fmt.Errorf("%w: link table exhausted", ErrInvalidHeader)
			}
			pair := binary.BigEndian.Uint16(src[linkPos : linkPos+2])
			linkPos += 2

			dist := int(pair&0xFFF) + 1
			length := int(pair >> 12)
			if length == 0 {
				if chunkPos >= uint32(len(src)) {
					return nil, fmt.Errorf("%w: chunk plane exhausted at extended length", ErrInvalidHeader)
				}
				length = int(src[chunkPos]) + 0x12
				chunkPos++
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
