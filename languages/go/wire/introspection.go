package wire

import (
	"fmt"

	"github.com/epics-base/pvdata/languages/go/errors"
	"github.com/epics-base/pvdata/languages/go/field"
	"github.com/epics-base/pvdata/languages/go/mapping"
)

const (
	arrayFlag       = 0x08
	structCode      = 0x80
	structArrayCode = 0x88

	// maxDepth bounds structure nesting when decoding.
	maxDepth = 64
)

var scalarCodes = [...]byte{
	field.Boolean: 0x00,
	field.Byte:    0x20,
	field.Short:   0x21,
	field.Int:     0x22,
	field.Long:    0x23,
	field.UByte:   0x24,
	field.UShort:  0x25,
	field.UInt:    0x26,
	field.ULong:   0x27,
	field.Float:   0x42,
	field.Double:  0x43,
	field.String:  0x60,
}

// TypeCode returns the introspection byte for a field of category c and scalar type t.
// t is ignored for the structure categories.
func TypeCode(c field.Category, t field.ScalarType) byte {
	switch c {
	case field.Scalar:
		return scalarCodes[t]
	case field.ScalarArray:
		return scalarCodes[t] | arrayFlag
	case field.Structure:
		return structCode
	}
	return structArrayCode
}

func scalarOf(code byte) (field.ScalarType, bool) {
	for t, c := range scalarCodes {
		if c == code {
			return field.ScalarType(t), true
		}
	}
	return 0, false
}

func (w *writer) mapping(m *mapping.Map) {
	w.buf.WriteByte(structCode)
	id := m.ID()
	if id == mapping.DefaultID {
		id = ""
	}
	w.str(id)
	w.size(m.NumFields())
	for _, fd := range m.All() {
		w.str(fd.Name())
		w.field(fd)
	}
}

func (w *writer) field(fd *mapping.FieldDescr) {
	switch fd.Category() {
	case field.Structure:
		w.mapping(fd.Mapping())
	case field.StructureArray:
		w.buf.WriteByte(structArrayCode)
		w.mapping(fd.Mapping())
	default:
		w.buf.WriteByte(TypeCode(fd.Category(), fd.ScalarType()))
	}
}

func (r *reader) mapping(depth int) (*mapping.Map, error) {
	code, err := r.next()
	if err != nil {
		return nil, err
	}
	if code != structCode {
		return nil, fmt.Errorf("offset %d: got type code %#x, want structure %#x: %w", r.off-1, code, structCode, errors.ErrEncoding)
	}
	return r.structBody(depth)
}

func (r *reader) structBody(depth int) (*mapping.Map, error) {
	if depth > maxDepth {
		return nil, fmt.Errorf("structures nested deeper than %d: %w", maxDepth, errors.ErrEncoding)
	}
	id, err := r.str()
	if err != nil {
		return nil, err
	}
	// Each field is at least a one byte name size and a type code.
	n, err := r.size(2)
	if err != nil {
		return nil, err
	}
	fields := make([]*mapping.FieldDescr, 0, n)
	for i := 0; i < n; i++ {
		name, err := r.str()
		if err != nil {
			return nil, err
		}
		fd, err := r.field(name, depth)
		if err != nil {
			return nil, err
		}
		fields = append(fields, fd)
	}
	m, err := mapping.NewMapWithID(id, fields...)
	if err != nil {
		return nil, fmt.Errorf("structure %q: %w", id, err)
	}
	return m, nil
}

func (r *reader) field(name string, depth int) (*mapping.FieldDescr, error) {
	code, err := r.next()
	if err != nil {
		return nil, err
	}
	switch code {
	case structCode:
		m, err := r.structBody(depth + 1)
		if err != nil {
			return nil, err
		}
		return mapping.NewStructure(name, m)
	case structArrayCode:
		m, err := r.mapping(depth + 1)
		if err != nil {
			return nil, err
		}
		return mapping.NewStructureArray(name, m)
	}
	if t, ok := scalarOf(code); ok {
		return mapping.NewScalar(name, t)
	}
	if t, ok := scalarOf(code &^ arrayFlag); ok && code&arrayFlag != 0 {
		return mapping.NewScalarArray(name, t)
	}
	return nil, fmt.Errorf("field %q: unknown type code %#x: %w", name, code, errors.ErrEncoding)
}
