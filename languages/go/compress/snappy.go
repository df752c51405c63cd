package compress

import (
	"fmt"

	"github.com/golang/snappy"
)

// Snappy uses the block format, which stores the decoded length up front. Limit caps the
// decompressed size, 0 means DefaultLimit.
type Snappy struct {
	Limit int
}

func (s *Snappy) Type() Type {
	return CmpSnappy
}

func (s *Snappy) Compress(data []byte) ([]byte, error) {
	return snappy.Encode(nil, data), nil
}

func (s *Snappy) Decompress(data []byte) ([]byte, error) {
	n, err := snappy.DecodedLen(data)
	if err != nil {
		return nil, err
	}
	if limit := limitOf(s.Limit); n > limit {
		return nil, fmt.Errorf("snappy block decodes to %d bytes, limit is %d: %w", n, limit, ErrTooLarge)
	}
	return snappy.Decode(make([]byte, n), data)
}
