package codec

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"
)

const zlibHeaderSize = 4

// decodeZlib decompresses a size-prefixed zlib stream: a big-endian 32 bit
// decompressed size followed by the deflate data. Seen in modified images
// that repack assets with standard compression.
func decodeZlib(src []byte, maxSize uint32) ([]byte, error) {
	if len(src) < zlibHeaderSize {
		return nil, fmt.Errorf("%w: %d header bytes available, %d needed",
			ErrInvalidHeader, len(src), zlibHeaderSize)
	}

	size := binary.BigEndian.Uint32(src[:4])
	if size > maxSize {
		return nil, fmt.Errorf("%w: declared 0x%X, ceiling 0x%X", ErrTooLarge, size, maxSize)
	}

	r, err := zlib.NewReader(bytes.NewReader(src[zlibHeaderSize:]))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidHeader, err)
	}
	defer func() { _ = r.Close() }()

	dst := make([]byte, size)
	if _, err := io.ReadFull(r, dst); err != nil {
		return nil, fmt.Errorf("%w: stream shorter than declared size: %s", ErrInvalidHeader, err)
	}
	return dst, nil
}
