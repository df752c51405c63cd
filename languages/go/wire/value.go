package wire

import (
	"fmt"

	"github.com/epics-base/pvdata/internal/binary"
	"github.com/epics-base/pvdata/languages/go/errors"
	"github.com/epics-base/pvdata/languages/go/field"
	"github.com/epics-base/pvdata/languages/go/mapping"
	"github.com/epics-base/pvdata/languages/go/structs"
)

func (w *writer) value(s *structs.Struct) error {
	if s.Destroyed() {
		return fmt.Errorf("wire: %w", errors.ErrInvalidHandle)
	}
	for _, fd := range s.Map().All() {
		if err := w.fieldValue(s, fd); err != nil {
			return err
		}
	}
	return nil
}

// fieldValue writes the value of the field fd of s.
func (w *writer) fieldValue(s *structs.Struct, fd *mapping.FieldDescr) error {
	name := fd.Name()
	switch fd.Category() {
	case field.Scalar:
		v, err := s.GetAny(name)
		if err != nil {
			return err
		}
		return w.scalar(v)
	case field.ScalarArray:
		v, err := s.GetArrayAny(name)
		if err != nil {
			return err
		}
		return w.array(v)
	case field.Structure:
		sub, err := s.GetStruct(name)
		if err != nil {
			return err
		}
		return w.value(sub)
	case field.StructureArray:
		list, err := s.GetStructs(name)
		if err != nil {
			return err
		}
		w.size(list.Len())
		for _, item := range list.All() {
			w.boolean(true)
			if err := w.value(item); err != nil {
				return err
			}
		}
	}
	return nil
}

func (w *writer) scalar(v any) error {
	switch x := v.(type) {
	case bool:
		w.boolean(x)
	case int8:
		put(w, x)
	case int16:
		put(w, x)
	case int32:
		put(w, x)
	case int64:
		put(w, x)
	case uint8:
		put(w, x)
	case uint16:
		put(w, x)
	case uint32:
		put(w, x)
	case uint64:
		put(w, x)
	case float32:
		put(w, x)
	case float64:
		put(w, x)
	case string:
		w.str(x)
	default:
		return fmt.Errorf("bug: unsupported scalar %T", v)
	}
	return nil
}

func (w *writer) array(v any) error {
	switch x := v.(type) {
	case []bool:
		w.size(len(x))
		for _, b := range x {
			w.boolean(b)
		}
	case []int8:
		putEach(w, x)
	case []int16:
		putEach(w, x)
	case []int32:
		putEach(w, x)
	case []int64:
		putEach(w, x)
	case []uint8:
		putEach(w, x)
	case []uint16:
		putEach(w, x)
	case []uint32:
		putEach(w, x)
	case []uint64:
		putEach(w, x)
	case []float32:
		putEach(w, x)
	case []float64:
		putEach(w, x)
	case []string:
		w.size(len(x))
		for _, s := range x {
			w.str(s)
		}
	default:
		return fmt.Errorf("bug: unsupported array %T", v)
	}
	return nil
}

func putEach[T binary.Number](w *writer, vals []T) {
	w.size(len(vals))
	for _, v := range vals {
		put(w, v)
	}
}

// value fills s from r. Structure array elements flagged absent are left at their zero value.
func (r *reader) value(s *structs.Struct) error {
	if s.Destroyed() {
		return fmt.Errorf("wire: %w", errors.ErrInvalidHandle)
	}
	for _, fd := range s.Map().All() {
		if err := r.fieldValue(s, fd); err != nil {
			return err
		}
	}
	return nil
}

// fieldValue reads the value of the field fd of s.
func (r *reader) fieldValue(s *structs.Struct, fd *mapping.FieldDescr) error {
	name := fd.Name()
	switch fd.Category() {
	case field.Scalar:
		v, err := r.scalar(fd.ScalarType())
		if err != nil {
			return fmt.Errorf("field %q: %w", name, err)
		}
		return s.SetAny(name, v)
	case field.ScalarArray:
		v, err := r.array(fd.ScalarType())
		if err != nil {
			return fmt.Errorf("field %q: %w", name, err)
		}
		return s.SetArrayAny(name, v)
	case field.Structure:
		sub, err := s.GetStruct(name)
		if err != nil {
			return err
		}
		return r.value(sub)
	case field.StructureArray:
		list, err := s.GetStructs(name)
		if err != nil {
			return err
		}
		n, err := r.size(1)
		if err != nil {
			return fmt.Errorf("field %q: %w", name, err)
		}
		if err := list.SetLen(0); err != nil {
			return err
		}
		for i := 0; i < n; i++ {
			present, err := r.next()
			if err != nil {
				return fmt.Errorf("field %q[%d]: %w", name, i, err)
			}
			item, err := list.Append()
			if err != nil {
				return err
			}
			if present == 0 {
				continue
			}
			if err := r.value(item); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *reader) scalar(t field.ScalarType) (any, error) {
	switch t {
	case field.Boolean:
		b, err := r.next()
		if err != nil {
			return nil, err
		}
		return b != 0, nil
	case field.Byte:
		return get[int8](r)
	case field.Short:
		return get[int16](r)
	case field.Int:
		return get[int32](r)
	case field.Long:
		return get[int64](r)
	case field.UByte:
		return get[uint8](r)
	case field.UShort:
		return get[uint16](r)
	case field.UInt:
		return get[uint32](r)
	case field.ULong:
		return get[uint64](r)
	case field.Float:
		return get[float32](r)
	case field.Double:
		return get[float64](r)
	case field.String:
		return r.str()
	}
	return nil, fmt.Errorf("bug: scalar type %v", t)
}

func (r *reader) array(t field.ScalarType) (any, error) {
	switch t {
	case field.Boolean:
		n, err := r.size(1)
		if err != nil {
			return nil, err
		}
		p, err := r.need(n)
		if err != nil {
			return nil, err
		}
		out := make([]bool, n)
		for i, b := range p {
			out[i] = b != 0
		}
		return out, nil
	case field.Byte:
		return getEach[int8](r)
	case field.Short:
		return getEach[int16](r)
	case field.Int:
		return getEach[int32](r)
	case field.Long:
		return getEach[int64](r)
	case field.UByte:
		return getEach[uint8](r)
	case field.UShort:
		return getEach[uint16](r)
	case field.UInt:
		return getEach[uint32](r)
	case field.ULong:
		return getEach[uint64](r)
	case field.Float:
		return getEach[float32](r)
	case field.Double:
		return getEach[float64](r)
	case field.String:
		n, err := r.size(1)
		if err != nil {
			return nil, err
		}
		out := make([]string, n)
		for i := range out {
			if out[i], err = r.str(); err != nil {
				return nil, err
			}
		}
		return out, nil
	}
	return nil, fmt.Errorf("bug: scalar type %v", t)
}

func getEach[T binary.Number](r *reader) (any, error) {
	sz := binary.Size[T]()
	n, err := r.size(sz)
	if err != nil {
		return nil, err
	}
	p, err := r.need(n * sz)
	if err != nil {
		return nil, err
	}
	out := make([]T, n)
	for i := range out {
		out[i] = binary.Get[T](r.order, p[i*sz:])
	}
	return out, nil
}
