package compress

import (
	"bytes"
	"fmt"

	"github.com/gostdlib/base/values/sizes"
	"github.com/klauspost/compress/zstd"

	"github.com/epics-base/pvdata/languages/go/errors"
)

// zstdMinMemory is the least decoder memory allowed, whatever the Limit. The exact limit is
// enforced on the output.
const zstdMinMemory = 1 * sizes.MiB

// Zstd compresses with Zstandard. Level 0 means zstd.SpeedDefault. Limit caps the
// decompressed size, 0 means DefaultLimit.
type Zstd struct {
	Level zstd.EncoderLevel
	Limit int
}

func (z *Zstd) Type() Type {
	return CmpZstd
}

func (z *Zstd) Compress(data []byte) ([]byte, error) {
	level := z.Level
	if level == 0 {
		level = zstd.SpeedDefault
	}
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(level), zstd.WithEncoderConcurrency(1))
	if err != nil {
		return nil, err
	}
	defer enc.Close()
	return enc.EncodeAll(data, make([]byte, 0, len(data)/2)), nil
}

// Decompress streams the frame so a frame that claims a huge window or content size is
// stopped at the limit instead of being allocated.
func (z *Zstd) Decompress(data []byte) ([]byte, error) {
	limit := limitOf(z.Limit)
	dec, err := zstd.NewReader(
		bytes.NewReader(data),
		zstd.WithDecoderConcurrency(1),
		zstd.WithDecoderMaxMemory(uint64(max(limit, zstdMinMemory))),
	)
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	b, err := readLimited(dec, limit)
	if errors.Is(err, zstd.ErrDecoderSizeExceeded) || errors.Is(err, zstd.ErrWindowSizeExceeded) {
		return nil, fmt.Errorf("zstd: %v: %w", err, ErrTooLarge)
	}
	return b, err
}
