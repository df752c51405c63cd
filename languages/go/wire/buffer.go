package wire

import (
	"bytes"
	"fmt"
	"math"

	"github.com/epics-base/pvdata/internal/binary"
	"github.com/epics-base/pvdata/languages/go/errors"
)

const (
	// sizes below this fit in one byte.
	shortSize = 254
	longSize  = 0xFE
	nullSize  = 0xFF
)

type writer struct {
	order   binary.Order
	buf     *bytes.Buffer
	scratch [8]byte
}

func put[T binary.Number](w *writer, v T) {
	w.buf.Write(binary.Append(w.order, w.scratch[:0], v))
}

func (w *writer) boolean(v bool) {
	if v {
		w.buf.WriteByte(1)
		return
	}
	w.buf.WriteByte(0)
}

func (w *writer) size(n int) {
	if n < shortSize {
		w.buf.WriteByte(byte(n))
		return
	}
	w.buf.WriteByte(longSize)
	put(w, uint32(n))
}

func (w *writer) str(s string) {
	w.size(len(s))
	w.buf.WriteString(s)
}

type reader struct {
	order binary.Order
	b     []byte
	off   int
}

func (r *reader) remaining() int {
	return len(r.b) - r.off
}

func (r *reader) need(n int) ([]byte, error) {
	if n < 0 || r.remaining() < n {
		return nil, fmt.Errorf("need %d bytes at offset %d, have %d: %w", n, r.off, r.remaining(), errors.ErrEncoding)
	}
	p := r.b[r.off : r.off+n]
	r.off += n
	return p, nil
}

// done returns an error if bytes are left over.
func (r *reader) done() error {
	if r.remaining() != 0 {
		return fmt.Errorf("%d trailing bytes at offset %d: %w", r.remaining(), r.off, errors.ErrEncoding)
	}
	return nil
}

func (r *reader) next() (byte, error) {
	p, err := r.need(1)
	if err != nil {
		return 0, err
	}
	return p[0], nil
}

func get[T binary.Number](r *reader) (T, error) {
	p, err := r.need(binary.Size[T]())
	if err != nil {
		return 0, err
	}
	return binary.Get[T](r.order, p), nil
}

// size reads a size and checks that at least size*elem bytes follow it.
func (r *reader) size(elem int) (int, error) {
	b, err := r.next()
	if err != nil {
		return 0, err
	}
	var n int
	switch b {
	case nullSize:
		return 0, fmt.Errorf("null size at offset %d: %w", r.off-1, errors.ErrEncoding)
	case longSize:
		v, err := get[uint32](r)
		if err != nil {
			return 0, err
		}
		if v > math.MaxInt32 {
			return 0, fmt.Errorf("size %d at offset %d too large: %w", v, r.off-4, errors.ErrEncoding)
		}
		n = int(v)
	default:
		n = int(b)
	}
	if n*elem > r.remaining() {
		return 0, fmt.Errorf("size %d at offset %d exceeds the %d bytes left: %w", n, r.off, r.remaining(), errors.ErrEncoding)
	}
	return n, nil
}

func (r *reader) str() (string, error) {
	n, err := r.size(1)
	if err != nil {
		return "", err
	}
	p, err := r.need(n)
	if err != nil {
		return "", err
	}
	return string(p), nil
}
