// Package codec implements the custom binary codecs used by the source image
// and a content-addressed cache that avoids redundant decoding.
package codec

import (
	"errors"
	"fmt"

	"github.com/cespare/xxhash/v2"
	"github.com/retroenv/retrogolib/log"
)

// Kind identifies one of the supported codecs. The set is closed, decode
// dispatch matches exhaustively over it.
type Kind byte

const (
	// None marks an uncompressed byte range.
	None Kind = iota
	// Yaz0 is the streaming control byte codec with back references.
	Yaz0
	// Yay0 is the planar variant of Yaz0 with a separate link table.
	Yay0
	// MIO0 is the planar codec with split literal and pair planes.
	MIO0
	// TKMK00 is the dual output codec producing an index plane and a
	// palette resolved color plane.
	TKMK00
	// Zlib is a big-endian size prefix followed by a zlib stream.
	Zlib
)

var kindNames = map[Kind]string{
	None:   "none",
	Yaz0:   "yaz0",
	Yay0:   "yay0",
	MIO0:   "mio0",
	TKMK00: "tkmk00",
	Zlib:   "zlib",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("unknown(%d)", byte(k))
}

// KindFromString parses a codec selector as used in asset graphs.
func KindFromString(s string) (Kind, bool) {
	for kind, name := range kindNames {
		if name == s {
			return kind, true
		}
	}
	return None, false
}

// Decode error sentinels, wrapped with offset context by the engine.
var (
	ErrInvalidHeader = errors.New("invalid codec header")
	ErrOutOfBounds   = errors.New("offset out of bounds")
	ErrTooLarge      = errors.New("declared size exceeds decompression ceiling")

	// ErrCodecMismatch reports a cache hit whose stored codec tag differs
	// from the requested one. The cache is keyed by offset only, two codecs
	// at the same offset indicate a broken asset graph.
	ErrCodecMismatch = errors.New("cached chunk codec differs from request")
)

// Chunk is one decoded, owned byte buffer.
type Chunk struct {
	Data   []byte
	Kind   Kind
	Offset uint32
	Digest uint64 // xxhash of Data
}

// DefaultMaxSize is the default ceiling for header-declared decompressed sizes.
const DefaultMaxSize = 16 * 1024 * 1024

// Engine decodes compressed byte ranges of the source image. Successful
// decodes are cached by source offset; the cache is owned by the engine
// instance and lives for the run.
type Engine struct {
	logger  *log.Logger
	maxSize uint32
	cache   *cache
}

// NewEngine creates a decompression engine. A maxSize of 0 selects
// DefaultMaxSize.
func NewEngine(logger *log.Logger, maxSize uint32) *Engine {
	if maxSize == 0 {
		maxSize = DefaultMaxSize
	}
	return &Engine{
		logger:  logger,
		maxSize: maxSize,
		cache:   newCache(),
	}
}

// Decode decompresses the byte range starting at offset. A prior successful
// decode at the same offset is returned from the cache without redecoding;
// concurrent requests for an in-flight offset wait for the first decode.
func (e *Engine) Decode(buffer []byte, offset uint32, kind Kind) (*Chunk, error) {
	if chunk, ok := e.cache.get(offset); ok {
		if chunk.Kind != kind {
			return nil, fmt.Errorf("offset 0x%X: %w: cached %s, requested %s",
				offset, ErrCodecMismatch, chunk.Kind, kind)
		}
		return chunk, nil
	}

	chunk, err := e.cache.decode(offset, func() (*Chunk, error) {
		return e.decode(buffer, offset, kind)
	})
	if err != nil {
		return nil, err
	}
	if chunk.Kind != kind {
		return nil, fmt.Errorf("offset 0x%X: %w: cached %s, requested %s",
			offset, ErrCodecMismatch, chunk.Kind, kind)
	}
	return chunk, nil
}

// DecodeNoCache decompresses the byte range starting at offset, bypassing the
// cache in both directions.
func (e *Engine) DecodeNoCache(buffer []byte, offset uint32, kind Kind) (*Chunk, error) {
	return e.decode(buffer, offset, kind)
}

// DecodeDual decodes a dual output codec range. The primary output (the
// resolved color plane) is cached, the secondary index plane is returned to
// the caller as a one-off buffer.
func (e *Engine) DecodeDual(buffer []byte, offset uint32) (primary, secondary *Chunk, err error) {
	if err := checkOffset(buffer, offset); err != nil {
		return nil, nil, err
	}

	color, index, err := decodeTKMK00(buffer[offset:], e.maxSize)
	if err != nil {
		return nil, nil, fmt.Errorf("decoding %s at offset 0x%X: %w", TKMK00, offset, err)
	}

	primary = newChunk(color, TKMK00, offset)
	secondary = newChunk(index, TKMK00, offset)
	e.cache.put(offset, primary)
	return primary, secondary, nil
}

// ClearCache releases every cached chunk. Afterwards the cache is empty and a
// later decode at a previously cached offset recomputes.
func (e *Engine) ClearCache() {
	released := e.cache.clear()
	if e.logger != nil {
		e.logger.Debug("Decode cache cleared", log.Int("released", released))
	}
}

// CacheLen returns the number of cached chunks.
func (e *Engine) CacheLen() int {
	return e.cache.len()
}

// Stats returns the cache hit and decode invocation counters.
func (e *Engine) Stats() Stats {
	return e.cache.stats()
}

func (e *Engine) decode(buffer []byte, offset uint32, kind Kind) (*Chunk, error) {
	if err := checkOffset(buffer, offset); err != nil {
		return nil, err
	}
	src := buffer[offset:]

	var (
		data []byte
		err  error
	)
	switch kind {
	case None:
		data = append([]byte(nil), src...)
	case Yaz0:
		data, err = decodeYaz0(src, e.maxSize)
	case Yay0:
		data, err = decodeYay0(src, e.maxSize)
	case MIO0:
		data, err = decodeMIO0(src, e.maxSize)
	case TKMK00:
		data, _, err = decodeTKMK00(src, e.maxSize)
	case Zlib:
		data, err = decodeZlib(src, e.maxSize)
	default:
		return nil, fmt.Errorf("unsupported codec %s", kind)
	}
	if err != nil {
		return nil, fmt.Errorf("decoding %s at offset 0x%X: %w", kind, offset, err)
	}

	return newChunk(data, kind, offset), nil
}

func newChunk(data []byte, kind Kind, offset uint32) *Chunk {
	return &Chunk{
		Data:   data,
		Kind:   kind,
		Offset: offset,
		Digest: xxhash.Sum64(data),
	}
}

// checkOffset rejects offsets past the buffer end before any read occurs.
// offset == len(buffer) is allowed and yields an empty source view.
func checkOffset(buffer []byte, offset uint32) error {
	if uint64(offset) > uint64(len(buffer)) {
		return fmt.Errorf("offset 0x%X with buffer size 0x%X: %w",
			offset, len(buffer), ErrOutOfBounds)
	}
	return nil
}
