package export

import (
	"sync"
	"testing"

	"github.com/retroenv/retrogolib/assert"
)

func TestKindFromString(t *testing.T) {
	kind, err := KindFromString("Binary")
	assert.NoError(t, err)
	assert.Equal(t, KindBinary, kind)

	_, err = KindFromString("yaml")
	assert.ErrorContains(t, err, "unsupported exporter kind")
}

func TestNewWriteEntry(t *testing.T) {
	a := NewWriteEntry("tex", "TEXTURE", []byte{1, 2, 3}, "")
	b := NewWriteEntry("tex_copy", "TEXTURE", []byte{1, 2, 3}, "")
	c := NewWriteEntry("other", "TEXTURE", []byte{1, 2, 4}, "")

	assert.Equal(t, a.Digest, b.Digest)
	assert.True(t, a.Digest != c.Digest)
}

func TestCollectorDrain(t *testing.T) {
	c := NewCollector()
	c.Append(NewWriteEntry("first", "BLOB", []byte{1}, ""))
	c.Append(NewWriteEntry("second", "BLOB", []byte{2}, ""))
	assert.Equal(t, 2, c.Len())

	entries := c.Drain()
	assert.Equal(t, 2, len(entries))
	assert.Equal(t, "first", entries[0].Name)
	assert.Equal(t, "second", entries[1].Name)

	assert.Equal(t, 0, c.Len())
	assert.Empty(t, c.Drain())
}

func TestCollectorConcurrentAppend(t *testing.T) {
	c := NewCollector()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.Append(NewWriteEntry("entry", "BLOB", []byte{byte(j)}, ""))
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 800, c.Len())
}
