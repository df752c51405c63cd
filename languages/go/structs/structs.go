// Package structs contains the value containers for pvdata. A Struct is bound to one
// mapping.Map at creation and holds a live value for every field the Map describes.
//
// A Struct and everything nested under it is not safe for concurrent use. Every Struct
// returned by New must be released with Destroy, nested containers are owned by their
// parent and are released with it.
package structs

import (
	"fmt"
	"math"
	"strings"

	"github.com/epics-base/pvdata/languages/go/errors"
	"github.com/epics-base/pvdata/languages/go/field"
	"github.com/epics-base/pvdata/languages/go/mapping"
)

// DestroyHook is called once for every container that is destroyed, nested containers included.
type DestroyHook func(s *Struct)

type newOptions struct {
	hook DestroyHook
}

// NewOption is an optional argument to New().
type NewOption func(newOptions) (newOptions, error)

// WithDestroyHook sets a function that is called whenever the container or one of the
// containers nested in it is destroyed. Children are reported before their parent.
func WithDestroyHook(hook DestroyHook) NewOption {
	return func(o newOptions) (newOptions, error) {
		o.hook = hook
		return o, nil
	}
}

// Struct holds the values of a structure.
type Struct struct {
	mapping *mapping.Map
	// values holds one entry per field. Scalar fields hold the Go value (int32, string, ...),
	// ScalarArray fields an *array, Structure fields a *Struct and StructureArray fields a *Structs.
	values []any

	// parent is set when this Struct is owned by another container.
	parent    *Struct
	destroyed bool
	hook      DestroyHook
}

// New creates a Struct with the shape of m. Scalars are set to their zero value, arrays and
// structure arrays are empty and Structure fields are created recursively.
func New(m *mapping.Map, options ...NewOption) (*Struct, error) {
	if m == nil {
		return nil, fmt.Errorf("structs.New: Map must not be nil: %w", errors.ErrInvalidType)
	}
	opts := newOptions{}
	for _, o := range options {
		var err error
		opts, err = o(opts)
		if err != nil {
			return nil, err
		}
	}
	return newStruct(m, nil, opts.hook), nil
}

// MustNew is like New, but panics on an error.
func MustNew(m *mapping.Map, options ...NewOption) *Struct {
	s, err := New(m, options...)
	if err != nil {
		panic(err)
	}
	return s
}

func newStruct(m *mapping.Map, parent *Struct, hook DestroyHook) *Struct {
	s := &Struct{
		mapping: m,
		values:  make([]any, m.NumFields()),
		parent:  parent,
		hook:    hook,
	}
	for i, fd := range m.All() {
		switch fd.Category() {
		case field.Scalar:
			s.values[i] = Zero(fd.ScalarType())
		case field.ScalarArray:
			s.values[i] = &array{typ: fd.ScalarType(), data: makeSlice(fd.ScalarType(), 0)}
		case field.Structure:
			s.values[i] = newStruct(fd.Mapping(), s, hook)
		case field.StructureArray:
			s.values[i] = &Structs{mapping: fd.Mapping(), owner: s}
		}
	}
	return s
}

// Map returns the description of the Struct.
func (s *Struct) Map() *mapping.Map {
	return s.mapping
}

// Parent returns the container that owns s, or nil if s was created by New.
func (s *Struct) Parent() *Struct {
	return s.parent
}

// Destroyed reports if Destroy() was called on s or on the container that owns it.
func (s *Struct) Destroyed() bool {
	return s.destroyed
}

// Destroy releases the container and every container nested in it, children first.
// The Map is not touched. A second call returns ErrInvalidHandle and calling Destroy on
// a nested container returns ErrNotOwner.
func (s *Struct) Destroy() error {
	if s.destroyed {
		return fmt.Errorf("Struct(%s).Destroy: %w", s.mapping.ID(), errors.ErrInvalidHandle)
	}
	if s.parent != nil {
		return fmt.Errorf("Struct(%s).Destroy: %w", s.mapping.ID(), errors.ErrNotOwner)
	}
	s.destroy()
	return nil
}

func (s *Struct) destroy() {
	for i, v := range s.values {
		switch x := v.(type) {
		case *array:
			x.invalidate()
			x.data = nil
		case *Struct:
			x.destroy()
		case *Structs:
			for _, item := range x.items {
				item.destroy()
			}
			x.items = nil
		}
		s.values[i] = nil
	}
	s.destroyed = true
	if s.hook != nil {
		s.hook(s)
	}
}

func (s *Struct) live() error {
	if s.destroyed {
		return fmt.Errorf("Struct(%s) was destroyed: %w", s.mapping.ID(), errors.ErrInvalidHandle)
	}
	return nil
}

// resolve finds name in s. name may be a dotted path through Structure fields, such as
// "timeStamp.nanoseconds". It returns the container that holds the last element and its index.
func (s *Struct) resolve(name string) (*Struct, int, *mapping.FieldDescr, error) {
	if err := s.live(); err != nil {
		return nil, 0, nil, err
	}
	cur := s
	path := name
	for {
		head, rest, more := strings.Cut(path, ".")
		i := cur.mapping.FindField(head)
		if i == mapping.NotFound {
			return nil, 0, nil, fmt.Errorf("structure %q has no field %q: %w", cur.mapping.ID(), name, errors.ErrFieldNotFound)
		}
		fd, _ := cur.mapping.Field(i)
		if !more {
			return cur, i, fd, nil
		}
		if fd.Category() != field.Structure {
			return nil, 0, nil, fmt.Errorf("path %q: field %q is a %v: %w", name, head, fd.Category(), errors.ErrWrongCategory)
		}
		cur = cur.values[i].(*Struct)
		path = rest
	}
}

// Field returns the description of the field at name, which may be a dotted path.
func (s *Struct) Field(name string) (*mapping.FieldDescr, error) {
	_, _, fd, err := s.resolve(name)
	return fd, err
}

func (s *Struct) resolveCategory(name string, want field.Category) (*Struct, int, *mapping.FieldDescr, error) {
	c, i, fd, err := s.resolve(name)
	if err != nil {
		return nil, 0, nil, err
	}
	if fd.Category() != want {
		return nil, 0, nil, fmt.Errorf("field %q is a %v, not a %v: %w", name, fd.Category(), want, errors.ErrWrongCategory)
	}
	return c, i, fd, nil
}

// GetScalar gets the value of the scalar field at name. T must be the Go type that holds the
// declared scalar type of the field (int32 for an int field, ...), otherwise ErrTypeMismatch
// is returned. Use the convert package for reads that convert between types.
func GetScalar[T Scalar](s *Struct, name string) (T, error) {
	var zero T
	c, i, fd, err := s.resolveCategory(name, field.Scalar)
	if err != nil {
		return zero, err
	}
	if want := ScalarTypeOf[T](); fd.ScalarType() != want {
		return zero, fmt.Errorf("field %q is %v, not %v: %w", name, fd.ScalarType(), want, errors.ErrTypeMismatch)
	}
	return c.values[i].(T), nil
}

// SetScalar sets the value of the scalar field at name. It has the same failure modes as GetScalar.
func SetScalar[T Scalar](s *Struct, name string, v T) error {
	c, i, fd, err := s.resolveCategory(name, field.Scalar)
	if err != nil {
		return err
	}
	if want := ScalarTypeOf[T](); fd.ScalarType() != want {
		return fmt.Errorf("field %q is %v, not %v: %w", name, fd.ScalarType(), want, errors.ErrTypeMismatch)
	}
	c.values[i] = v
	return nil
}

// GetAny gets the value of the scalar field at name as the Go type that holds it.
func (s *Struct) GetAny(name string) (any, error) {
	c, i, _, err := s.resolveCategory(name, field.Scalar)
	if err != nil {
		return nil, err
	}
	return c.values[i], nil
}

// SetAny sets the scalar field at name. The dynamic type of v must be the Go type that
// holds the declared scalar type.
func (s *Struct) SetAny(name string, v any) error {
	c, i, fd, err := s.resolveCategory(name, field.Scalar)
	if err != nil {
		return err
	}
	t, ok := lookupScalarType(v)
	if !ok || t != fd.ScalarType() {
		return fmt.Errorf("field %q is %v, cannot set %T: %w", name, fd.ScalarType(), v, errors.ErrTypeMismatch)
	}
	c.values[i] = v
	return nil
}

// GetStruct returns the container of the Structure field at name. It is owned by s.
func (s *Struct) GetStruct(name string) (*Struct, error) {
	c, i, _, err := s.resolveCategory(name, field.Structure)
	if err != nil {
		return nil, err
	}
	return c.values[i].(*Struct), nil
}

// GetStructs returns the sequence held by the StructureArray field at name. It is owned by s.
func (s *Struct) GetStructs(name string) (*Structs, error) {
	c, i, _, err := s.resolveCategory(name, field.StructureArray)
	if err != nil {
		return nil, err
	}
	return c.values[i].(*Structs), nil
}

// Copy copies every value in src to dst. Both must have equal Maps. Arrays in dst are
// replaced, so views taken on dst become invalid.
func Copy(dst, src *Struct) error {
	if err := dst.live(); err != nil {
		return err
	}
	if err := src.live(); err != nil {
		return err
	}
	if !dst.mapping.Equal(src.mapping) {
		return fmt.Errorf("Copy: cannot copy %q to %q: %w", src.mapping.ID(), dst.mapping.ID(), errors.ErrTypeMismatch)
	}
	for i := range src.values {
		if err := copyValue(dst, src, i); err != nil {
			return err
		}
	}
	return nil
}

func copyValue(dst, src *Struct, i int) error {
	switch x := src.values[i].(type) {
	case *array:
		d := dst.values[i].(*array)
		d.invalidate()
		d.data = cloneAny(x.data)
	case *Struct:
		return Copy(dst.values[i].(*Struct), x)
	case *Structs:
		d := dst.values[i].(*Structs)
		if err := d.SetLen(x.Len()); err != nil {
			return err
		}
		for j, item := range x.items {
			if err := Copy(d.items[j], item); err != nil {
				return err
			}
		}
	default:
		dst.values[i] = x
	}
	return nil
}

// pair resolves name in two containers that have equal Maps.
func pair(a, b *Struct, name string) (*Struct, *Struct, int, error) {
	if err := b.live(); err != nil {
		return nil, nil, 0, err
	}
	if !a.mapping.Equal(b.mapping) {
		return nil, nil, 0, fmt.Errorf("structures %q and %q differ: %w", a.mapping.ID(), b.mapping.ID(), errors.ErrTypeMismatch)
	}
	ca, i, _, err := a.resolve(name)
	if err != nil {
		return nil, nil, 0, err
	}
	cb, _, _, err := b.resolve(name)
	if err != nil {
		return nil, nil, 0, err
	}
	return ca, cb, i, nil
}

// CopyField copies the field at name, which may be a dotted path, from src to dst. Both
// must have equal Maps.
func CopyField(dst, src *Struct, name string) error {
	d, s, i, err := pair(dst, src, name)
	if err != nil {
		return err
	}
	return copyValue(d, s, i)
}

// EqualField reports if the field at name holds equal values in a and b, as Equal does for
// whole containers. Both must have equal Maps.
func EqualField(a, b *Struct, name string) (bool, error) {
	ca, cb, i, err := pair(a, b, name)
	if err != nil {
		return false, err
	}
	return equalValue(ca.values[i], cb.values[i]), nil
}

// Equal reports if a and b have equal Maps and equal values. Floating point fields are
// equal when both are NaN. A destroyed container is equal to nothing.
func Equal(a, b *Struct) bool {
	if a.destroyed || b.destroyed || !a.mapping.Equal(b.mapping) {
		return false
	}
	for i, v := range a.values {
		if !equalValue(v, b.values[i]) {
			return false
		}
	}
	return true
}

func equalValue(a, b any) bool {
	switch x := a.(type) {
	case float32:
		y := b.(float32)
		return x == y || (math.IsNaN(float64(x)) && math.IsNaN(float64(y)))
	case float64:
		y := b.(float64)
		return x == y || (math.IsNaN(x) && math.IsNaN(y))
	case *array:
		return equalArray(x.data, b.(*array).data)
	case *Struct:
		return Equal(x, b.(*Struct))
	case *Structs:
		y := b.(*Structs)
		if len(x.items) != len(y.items) {
			return false
		}
		for i, item := range x.items {
			if !Equal(item, y.items[i]) {
				return false
			}
		}
		return true
	}
	return a == b
}

func equalArray(a, b any) bool {
	switch x := a.(type) {
	case []bool:
		return equalSlice(x, b.([]bool))
	case []int8:
		return equalSlice(x, b.([]int8))
	case []int16:
		return equalSlice(x, b.([]int16))
	case []int32:
		return equalSlice(x, b.([]int32))
	case []int64:
		return equalSlice(x, b.([]int64))
	case []uint8:
		return equalSlice(x, b.([]uint8))
	case []uint16:
		return equalSlice(x, b.([]uint16))
	case []uint32:
		return equalSlice(x, b.([]uint32))
	case []uint64:
		return equalSlice(x, b.([]uint64))
	case []float32:
		return equalSlice(x, b.([]float32))
	case []float64:
		return equalSlice(x, b.([]float64))
	case []string:
		return equalSlice(x, b.([]string))
	}
	panic(fmt.Sprintf("bug: unsupported slice type %T", a))
}

func equalSlice[T Scalar](a, b []T) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !equalValue(a[i], b[i]) {
			return false
		}
	}
	return true
}
