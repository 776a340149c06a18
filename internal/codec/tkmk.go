package codec

import (
	"encoding/binary"
	"fmt"
)

const (
	tkmkHeaderSize  = 8
	tkmkPaletteSize = 256 * 2
	tkmkPlaneStart  = tkmkHeaderSize + tkmkPaletteSize
)

// decodeTKMK00 decompresses a TKMK00 block, the dual output codec: a
// run-length encoded index plane plus an RGBA5551 palette. It returns the
// palette resolved RGBA32 color plane and the raw index plane.
func decodeTKMK00(src []byte, maxSize uint32) (color, index []byte, err error) {
	if len(src) < tkmkPlaneStart {
		return nil, nil, fmt.Errorf("%w: %d header bytes available, %d needed",
			ErrInvalidHeader, len(src), tkmkPlaneStart)
	}
	if string(src[:4]) != "TKMK" {
		return nil, nil, fmt.Errorf("%w: bad magic %q", ErrInvalidHeader, src[:4])
	}

	width := binary.BigEndian.Uint16(src[4:6])
	height := binary.BigEndian.Uint16(src[6:8])
	if width == 0 || height == 0 {
		return nil, nil, fmt.Errorf("%w: zero dimension %dx%d", ErrInvalidHeader, width, height)
	}

	pixels := uint32(width) * uint32(height)
	// the color plane size can exceed 32 bits, keep the comparison wide
	if uint64(pixels)*4 > uint64(maxSize) {
		return nil, nil, fmt.Errorf("%w: %dx%d color plane needs 0x%X, ceiling 0x%X",
			ErrTooLarge, width, height, uint64(pixels)*4, maxSize)
	}

	index = make([]byte, pixels)
	written := uint32(0)
	pos := tkmkPlaneStart

	for written < pixels {
		if pos+1 >= len(src) {
			return nil, nil, fmt.Errorf("%w: index plane truncated", ErrInvalidHeader)
		}
		count := uint32(src[pos]) + 1
		value := src[pos+1]
		pos += 2

		if written+count > pixels {
			count = pixels - written
		}
		for i := uint32(0); i < count; i++ {
			index[written] = value
			written++
		}
	}

	color = make([]byte, pixels*4)
	palette := src[tkmkHeaderSize:tkmkPlaneStart]
	for i, idx := range index {
		entry := binary.BigEndian.Uint16(palette[int(idx)*2 : int(idx)*2+2])
		color[i*4+0] = expand5(byte(entry >> 11 & 0x1F))
		color[i*4+1] = expand5(byte(entry >> 6 & 0x1F))
		color[i*4+2] = expand5(byte(entry >> 1 & 0x1F))
		if entry&1 != 0 {
			color[i*4+3] = 0xFF
		}
	}

	return color, index, nil
}

// expand5 widens a 5 bit channel to 8 bits.
func expand5(v byte) byte {
	return v<<3 | v>>2
}
