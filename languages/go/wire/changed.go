package wire

import (
	"bytes"
	"fmt"

	"github.com/gostdlib/base/context"

	"github.com/epics-base/pvdata/languages/go/errors"
	"github.com/epics-base/pvdata/languages/go/field"
	"github.com/epics-base/pvdata/languages/go/patch"
	"github.com/epics-base/pvdata/languages/go/structs"
)

// A changed-field encoding is the change set followed by the values of the fields in it,
// in offset order:
//
//	[size: n bytes of set][full 64 bit words][low bytes of the last word][values]
//
// The set bytes drop the high zero bytes of the last word, so an empty set is a single 0.

// EncodeChanged returns the encoding of the fields of s whose offsets are in changed. A
// Structure offset writes the whole structure.
func EncodeChanged(ctx context.Context, s *structs.Struct, changed *patch.Set, options ...Option) ([]byte, error) {
	opts, err := getOptions(options)
	if err != nil {
		return nil, errors.E(ctx, errors.CatUser, errors.TypeParameter, err)
	}
	if s.Destroyed() {
		return nil, errors.Kind(ctx, fmt.Errorf("wire: %w", errors.ErrInvalidHandle))
	}
	if err := patch.Check(s.Map(), changed); err != nil {
		return nil, errors.Kind(ctx, err)
	}
	w := newWriter(ctx, opts.ByteOrder)
	defer w.release(ctx)
	w.set(changed)
	if err := w.changed(s, changed, 0); err != nil {
		return nil, errors.Kind(ctx, err)
	}
	return bytes.Clone(w.buf.Bytes()), nil
}

// DecodeChanged reads data written by EncodeChanged into s and returns the change set. Fields
// not in the set are left alone. All of data must be consumed.
func DecodeChanged(ctx context.Context, data []byte, s *structs.Struct, options ...Option) (*patch.Set, error) {
	opts, err := getOptions(options)
	if err != nil {
		return nil, errors.E(ctx, errors.CatUser, errors.TypeParameter, err)
	}
	if s.Destroyed() {
		return nil, errors.Kind(ctx, fmt.Errorf("wire: %w", errors.ErrInvalidHandle))
	}
	r := &reader{order: opts.ByteOrder.order(), b: data}
	changed, err := r.set()
	if err != nil {
		return nil, errors.Kind(ctx, err)
	}
	if err := patch.Check(s.Map(), changed); err != nil {
		return nil, errors.Kind(ctx, fmt.Errorf("change set: %v: %w", err, errors.ErrEncoding))
	}
	err = r.changed(s, changed, 0)
	if err == nil {
		err = r.done()
	}
	if err != nil {
		return nil, errors.Kind(ctx, err)
	}
	return changed, nil
}

func (w *writer) set(s *patch.Set) {
	words := s.Words()
	if len(words) == 0 {
		w.size(0)
		return
	}
	last := words[len(words)-1]
	n := 8 * (len(words) - 1)
	for x := last; x != 0; x >>= 8 {
		n++
	}
	w.size(n)
	for _, word := range words[:len(words)-1] {
		put(w, word)
	}
	for x := last; x != 0; x >>= 8 {
		w.buf.WriteByte(byte(x))
	}
}

func (r *reader) set() (*patch.Set, error) {
	n, err := r.size(1)
	if err != nil {
		return nil, fmt.Errorf("change set: %w", err)
	}
	words := make([]uint64, 0, (n+7)/8)
	for range n / 8 {
		word, err := get[uint64](r)
		if err != nil {
			return nil, fmt.Errorf("change set: %w", err)
		}
		words = append(words, word)
	}
	if rest := n % 8; rest > 0 {
		p, err := r.need(rest)
		if err != nil {
			return nil, fmt.Errorf("change set: %w", err)
		}
		var word uint64
		for i, b := range p {
			word |= uint64(b) << (8 * i)
		}
		words = append(words, word)
	}
	return patch.FromWords(words), nil
}

// changed writes the fields of s in changed. base is the offset of s in the top level
// structure.
func (w *writer) changed(s *structs.Struct, changed *patch.Set, base int) error {
	if changed.Has(base) {
		return w.value(s)
	}
	m := s.Map()
	for i, fd := range m.All() {
		off, _ := m.Offset(i)
		off += base
		next := changed.Next(off)
		if next < 0 {
			return nil
		}
		if next >= off+fd.Size() {
			continue
		}
		if fd.Category() == field.Structure && next != off {
			sub, err := s.GetStruct(fd.Name())
			if err != nil {
				return err
			}
			if err := w.changed(sub, changed, off); err != nil {
				return err
			}
			continue
		}
		if err := w.fieldValue(s, fd); err != nil {
			return err
		}
	}
	return nil
}

// changed is the reverse of writer.changed.
func (r *reader) changed(s *structs.Struct, changed *patch.Set, base int) error {
	if changed.Has(base) {
		return r.value(s)
	}
	m := s.Map()
	for i, fd := range m.All() {
		off, _ := m.Offset(i)
		off += base
		next := changed.Next(off)
		if next < 0 {
			return nil
		}
		if next >= off+fd.Size() {
			continue
		}
		if fd.Category() == field.Structure && next != off {
			sub, err := s.GetStruct(fd.Name())
			if err != nil {
				return err
			}
			if err := r.changed(sub, changed, off); err != nil {
				return err
			}
			continue
		}
		if err := r.fieldValue(s, fd); err != nil {
			return err
		}
	}
	return nil
}
