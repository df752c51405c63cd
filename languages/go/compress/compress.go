// Package compress holds the compressors a wire frame may be packed with. Gzip, snappy and
// zstd are registered at init; Register adds or replaces one.
package compress

import (
	"fmt"
	"io"

	"github.com/gostdlib/base/concurrency/sync"
	"github.com/gostdlib/base/values/sizes"

	"github.com/epics-base/pvdata/languages/go/errors"
)

// Type is the compressor byte at the front of a wire frame.
type Type uint8

const (
	CmpNone   Type = 0
	CmpGzip   Type = 1
	CmpSnappy Type = 2
	CmpZstd   Type = 3
)

var typeNames = map[Type]string{CmpNone: "none", CmpGzip: "gzip", CmpSnappy: "snappy", CmpZstd: "zstd"}

func (t Type) String() string {
	if s, ok := typeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("Type(%d)", uint8(t))
}

// ParseType returns the Type named s, as printed by Type.String.
func ParseType(s string) (Type, error) {
	for t, name := range typeNames {
		if name == s {
			return t, nil
		}
	}
	return CmpNone, fmt.Errorf("unknown compressor %q", s)
}

// DefaultLimit is the largest output a registered compressor will decompress to when its
// Limit is 0. Frames come off the network, so the output size is never taken on trust.
const DefaultLimit = 256 * sizes.MiB

// ErrTooLarge is returned by Decompress when the output would be larger than the limit.
var ErrTooLarge = errors.New("decompressed data is over the size limit")

func limitOf(n int) int {
	if n <= 0 {
		return DefaultLimit
	}
	return n
}

// readLimited reads r to the end. It fails with ErrTooLarge once more than limit bytes
// have been read, without reading the rest.
func readLimited(r io.Reader, limit int) ([]byte, error) {
	b, err := io.ReadAll(io.LimitReader(r, int64(limit)+1))
	if err != nil {
		return nil, err
	}
	if len(b) > limit {
		return nil, fmt.Errorf("more than %d bytes: %w", limit, ErrTooLarge)
	}
	return b, nil
}

// Compressor is one compression algorithm.
type Compressor interface {
	Compress(data []byte) ([]byte, error)
	Decompress(data []byte) ([]byte, error)
	// Type is the byte written into the frame.
	Type() Type
}

var (
	registry   = map[Type]Compressor{}
	registryMu sync.RWMutex
)

// Register adds c, replacing any compressor with the same Type.
func Register(c Compressor) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[c.Type()] = c
}

// Get returns the compressor for t or nil.
func Get(t Type) Compressor {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return registry[t]
}

// Compress packs data with t. CmpNone and empty data pass through.
func Compress(t Type, data []byte) ([]byte, error) {
	if t == CmpNone || len(data) == 0 {
		return data, nil
	}
	c := Get(t)
	if c == nil {
		return nil, fmt.Errorf("compressor not registered for type %v", t)
	}
	return c.Compress(data)
}

// Decompress reverses Compress.
func Decompress(t Type, data []byte) ([]byte, error) {
	if t == CmpNone || len(data) == 0 {
		return data, nil
	}
	c := Get(t)
	if c == nil {
		return nil, fmt.Errorf("compressor not registered for type %v", t)
	}
	return c.Decompress(data)
}

func init() {
	Register(&Gzip{})
	Register(&Snappy{})
	Register(&Zstd{})
}
