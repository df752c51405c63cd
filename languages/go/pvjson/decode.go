package pvjson

import (
	"fmt"
	"math"

	"github.com/go-json-experiment/json/jsontext"

	"github.com/epics-base/pvdata/languages/go/convert"
	"github.com/epics-base/pvdata/languages/go/errors"
	"github.com/epics-base/pvdata/languages/go/field"
	"github.com/epics-base/pvdata/languages/go/mapping"
	"github.com/epics-base/pvdata/languages/go/structs"
)

type decoder struct {
	dec  *jsontext.Decoder
	opts unmarshalOptions
}

func (d decoder) expect(kind jsontext.Kind, what string) error {
	tok, err := d.dec.ReadToken()
	if err != nil {
		return fmt.Errorf("%s: %w", what, err)
	}
	if tok.Kind() != kind {
		return fmt.Errorf("%s: got JSON %v, want %v: %w", what, tok.Kind(), kind, errors.ErrTypeMismatch)
	}
	return nil
}

func (d decoder) object(s *structs.Struct) error {
	if s.Destroyed() {
		return fmt.Errorf("pvjson: %w", errors.ErrInvalidHandle)
	}
	if err := d.expect('{', s.Map().ID()); err != nil {
		return err
	}
	for d.dec.PeekKind() != '}' {
		tok, err := d.dec.ReadToken()
		if err != nil {
			return err
		}
		name := tok.String()
		fd, err := s.Map().ByName(name)
		if err != nil {
			if d.opts.IgnoreUnknownFields {
				if err := d.dec.SkipValue(); err != nil {
					return err
				}
				continue
			}
			return err
		}
		if err := d.member(s, fd); err != nil {
			return err
		}
	}
	return d.expect('}', s.Map().ID())
}

func (d decoder) member(s *structs.Struct, fd *mapping.FieldDescr) error {
	name := fd.Name()
	switch fd.Category() {
	case field.Scalar:
		tok, err := d.dec.ReadToken()
		if err != nil {
			return err
		}
		v, err := scalar(fd.ScalarType(), tok)
		if err != nil {
			return fmt.Errorf("field %q: %w", name, err)
		}
		return s.SetAny(name, v)
	case field.ScalarArray:
		if d.dec.PeekKind() == 'n' {
			d.dec.ReadToken()
			return s.SetArrayLen(name, 0)
		}
		if err := d.expect('[', name); err != nil {
			return err
		}
		var vals []any
		for d.dec.PeekKind() != ']' {
			tok, err := d.dec.ReadToken()
			if err != nil {
				return err
			}
			v, err := scalar(fd.ScalarType(), tok)
			if err != nil {
				return fmt.Errorf("field %q[%d]: %w", name, len(vals), err)
			}
			vals = append(vals, v)
		}
		if err := d.expect(']', name); err != nil {
			return err
		}
		return s.SetArrayAny(name, slice(fd.ScalarType(), vals))
	case field.Structure:
		sub, err := s.GetStruct(name)
		if err != nil {
			return err
		}
		return d.object(sub)
	case field.StructureArray:
		list, err := s.GetStructs(name)
		if err != nil {
			return err
		}
		if err := list.SetLen(0); err != nil {
			return err
		}
		if d.dec.PeekKind() == 'n' {
			d.dec.ReadToken()
			return nil
		}
		if err := d.expect('[', name); err != nil {
			return err
		}
		for d.dec.PeekKind() != ']' {
			item, err := list.Append()
			if err != nil {
				return err
			}
			if err := d.object(item); err != nil {
				return err
			}
		}
		return d.expect(']', name)
	}
	return fmt.Errorf("bug: field %q has category %v", name, fd.Category())
}

// scalar converts tok to the Go type that holds t. Numbers are parsed from their literal
// text so that out of range values and fractions in integer fields are rejected.
func scalar(t field.ScalarType, tok jsontext.Token) (any, error) {
	switch tok.Kind() {
	case 't', 'f':
		if t != field.Boolean {
			return nil, fmt.Errorf("got a boolean for a %v: %w", t, errors.ErrTypeMismatch)
		}
		return tok.Bool(), nil
	case '"':
		if t != field.String {
			return nil, fmt.Errorf("got a string for a %v: %w", t, errors.ErrTypeMismatch)
		}
		return tok.String(), nil
	case '0':
		if !t.IsNumeric() {
			return nil, fmt.Errorf("got a number for a %v: %w", t, errors.ErrTypeMismatch)
		}
		return convert.Parse(t, tok.String())
	case 'n':
		switch t {
		case field.Float:
			return float32(math.NaN()), nil
		case field.Double:
			return math.NaN(), nil
		}
		return nil, fmt.Errorf("got null for a %v: %w", t, errors.ErrTypeMismatch)
	}
	return nil, fmt.Errorf("got JSON %v for a %v: %w", tok.Kind(), t, errors.ErrTypeMismatch)
}

func slice(t field.ScalarType, vals []any) any {
	switch t {
	case field.Boolean:
		return fill[bool](vals)
	case field.Byte:
		return fill[int8](vals)
	case field.Short:
		return fill[int16](vals)
	case field.Int:
		return fill[int32](vals)
	case field.Long:
		return fill[int64](vals)
	case field.UByte:
		return fill[uint8](vals)
	case field.UShort:
		return fill[uint16](vals)
	case field.UInt:
		return fill[uint32](vals)
	case field.ULong:
		return fill[uint64](vals)
	case field.Float:
		return fill[float32](vals)
	case field.Double:
		return fill[float64](vals)
	}
	return fill[string](vals)
}

func fill[T structs.Scalar](vals []any) []T {
	out := make([]T, len(vals))
	for i, v := range vals {
		out[i] = v.(T)
	}
	return out
}
