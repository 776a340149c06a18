// Package rom provides read access to the source image buffer.
package rom

import (
	"encoding/binary"
	"fmt"
	"os"
)

// Image is the contiguous binary buffer that assets are extracted from.
// It is immutable after loading; all accessors return views or copies.
type Image struct {
	data []byte
}

// New creates an image from an in-memory buffer.
func New(data []byte) *Image {
	return &Image{data: data}
}

// LoadFile reads an image from disk.
func LoadFile(name string) (*Image, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("reading image file %s: %w", name, err)
	}
	return &Image{data: data}, nil
}

// Len returns the image size in bytes.
func (img *Image) Len() int {
	return len(img.data)
}

// Bytes returns the raw image buffer. Callers must not modify it.
func (img *Image) Bytes() []byte {
	return img.data
}

// Slice returns a read-only view of [offset, offset+size).
func (img *Image) Slice(offset, size uint32) ([]byte, error) {
	end := uint64(offset) + uint64(size)
	if end > uint64(len(img.data)) {
		return nil, fmt.Errorf("range [0x%X, 0x%X) exceeds image size 0x%X",
			offset, end, len(img.data))
	}
	return img.data[offset:end:end], nil
}

// U8 reads a byte at the given offset.
func (img *Image) U8(offset uint32) (byte, error) {
	if offset >= uint32(len(img.data)) {
		return 0, fmt.Errorf("offset 0x%X exceeds image size 0x%X", offset, len(img.data))
	}
	return img.data[offset], nil
}

// U16 reads a big-endian 16 bit value at the given offset.
func (img *Image) U16(offset uint32) (uint16, error) {
	b, err := img.Slice(offset, 2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

// U32 reads a big-endian 32 bit value at the given offset.
func (img *Image) U32(offset uint32) (uint32, error) {
	b, err := img.Slice(offset, 4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}
