package rom

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/retroenv/retrogolib/assert"
)

func TestSlice(t *testing.T) {
	img := New([]byte{0x10, 0x20, 0x30, 0x40})

	b, err := img.Slice(1, 2)
	assert.NoError(t, err)
	assert.Equal(t, []byte{0x20, 0x30}, b)

	b, err = img.Slice(4, 0)
	assert.NoError(t, err)
	assert.Equal(t, 0, len(b))

	_, err = img.Slice(3, 2)
	assert.ErrorContains(t, err, "exceeds image size")

	// a huge size must not wrap around
	_, err = img.Slice(1, 0xFFFFFFFF)
	assert.Error(t, err)
}

func TestReads(t *testing.T) {
	img := New([]byte{0x12, 0x34, 0x56, 0x78})

	b, err := img.U8(0)
	assert.NoError(t, err)
	assert.Equal(t, byte(0x12), b)

	u16, err := img.U16(1)
	assert.NoError(t, err)
	assert.Equal(t, uint16(0x3456), u16)

	u32, err := img.U32(0)
	assert.NoError(t, err)
	assert.Equal(t, uint32(0x12345678), u32)

	_, err = img.U8(4)
	assert.Error(t, err)
	_, err = img.U32(1)
	assert.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	name := filepath.Join(t.TempDir(), "test.z64")
	assert.NoError(t, os.WriteFile(name, []byte{1, 2, 3}, 0600))

	img, err := LoadFile(name)
	assert.NoError(t, err)
	assert.Equal(t, 3, img.Len())

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.z64"))
	assert.ErrorContains(t, err, "reading image file")
}
