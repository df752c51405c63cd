package compress

import (
	"bytes"

	"github.com/klauspost/compress/gzip"
)

// Gzip compresses with gzip. Level 0 means gzip.DefaultCompression. Limit caps the
// decompressed size, 0 means DefaultLimit.
type Gzip struct {
	Level int
	Limit int
}

func (g *Gzip) Type() Type {
	return CmpGzip
}

func (g *Gzip) Compress(data []byte) ([]byte, error) {
	level := g.Level
	if level == 0 {
		level = gzip.DefaultCompression
	}
	var buf bytes.Buffer
	buf.Grow(len(data) / 2)
	w, err := gzip.NewWriterLevel(&buf, level)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		w.Close()
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (g *Gzip) Decompress(data []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	// A frame holds one payload, so a second gzip member is garbage.
	r.Multistream(false)
	return readLimited(r, limitOf(g.Limit))
}
