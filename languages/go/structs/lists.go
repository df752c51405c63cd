package structs

import (
	"fmt"
	"iter"

	"github.com/epics-base/pvdata/languages/go/errors"
	"github.com/epics-base/pvdata/languages/go/field"
	"github.com/epics-base/pvdata/languages/go/mapping"
)

// array is the storage of a ScalarArray field. data is a []T whose length is the
// logical length of the field.
type array struct {
	typ  field.ScalarType
	data any
	// gen is incremented whenever data may have been reallocated. Views hold the
	// gen they were taken at.
	gen uint64
}

func (a *array) invalidate() {
	a.gen++
}

// View is a borrowed, zero-copy view of the backing storage of a ScalarArray field.
// Writes to the slice returned by Data() are writes to the field. A View becomes invalid
// at the next SetArrayLen on the same field, a SetArray or Copy into it, or when the
// container is destroyed.
type View[T Scalar] struct {
	owner *Struct
	arr   *array
	gen   uint64
}

// Valid reports if the view may still be used.
func (v View[T]) Valid() bool {
	return v.arr != nil && !v.owner.destroyed && v.arr.gen == v.gen
}

// Data returns the live backing slice. It returns ErrInvalidHandle if the view is no longer valid.
func (v View[T]) Data() ([]T, error) {
	if !v.Valid() {
		return nil, fmt.Errorf("array view is stale: %w", errors.ErrInvalidHandle)
	}
	return v.arr.data.([]T), nil
}

// Len is the number of elements in the view, 0 if the view is invalid.
func (v View[T]) Len() int {
	if !v.Valid() {
		return 0
	}
	return lenAny(v.arr.data)
}

// ElementType is the scalar type of the elements.
func (v View[T]) ElementType() field.ScalarType {
	return ScalarTypeOf[T]()
}

func (s *Struct) resolveArray(name string) (*Struct, *array, error) {
	c, i, _, err := s.resolveCategory(name, field.ScalarArray)
	if err != nil {
		return nil, nil, err
	}
	return c, c.values[i].(*array), nil
}

// ArrayLen returns the length of the ScalarArray field at name.
func (s *Struct) ArrayLen(name string) (int, error) {
	_, a, err := s.resolveArray(name)
	if err != nil {
		return 0, err
	}
	return lenAny(a.data), nil
}

// SetArrayLen sets the length of the ScalarArray field at name. Growing zero fills the new
// elements, shrinking discards the trailing ones. Views taken on the field before the call
// are invalid afterwards.
func (s *Struct) SetArrayLen(name string, n int) error {
	_, a, err := s.resolveArray(name)
	if err != nil {
		return err
	}
	if n < 0 {
		return fmt.Errorf("field %q: length %d: %w", name, n, errors.ErrIndexOutOfRange)
	}
	a.data = resizeAny(a.data, n)
	a.invalidate()
	return nil
}

// ElementType returns the element type of the ScalarArray field at name.
func (s *Struct) ElementType(name string) (field.ScalarType, error) {
	_, a, err := s.resolveArray(name)
	if err != nil {
		return 0, err
	}
	return a.typ, nil
}

func resolveTypedArray[T Scalar](s *Struct, name string) (*Struct, *array, error) {
	c, a, err := s.resolveArray(name)
	if err != nil {
		return nil, nil, err
	}
	if want := ScalarTypeOf[T](); a.typ != want {
		return nil, nil, fmt.Errorf("field %q is %v[], not %v[]: %w", name, a.typ, want, errors.ErrTypeMismatch)
	}
	return c, a, nil
}

// GetArrayView returns a zero-copy View of the ScalarArray field at name. T must hold the
// element type of the field.
func GetArrayView[T Scalar](s *Struct, name string) (View[T], error) {
	c, a, err := resolveTypedArray[T](s, name)
	if err != nil {
		return View[T]{}, err
	}
	return View[T]{owner: c, arr: a, gen: a.gen}, nil
}

// GetArray returns a copy of the ScalarArray field at name.
func GetArray[T Scalar](s *Struct, name string) ([]T, error) {
	_, a, err := resolveTypedArray[T](s, name)
	if err != nil {
		return nil, err
	}
	return clone(a.data.([]T)), nil
}

// SetArray copies vals into the ScalarArray field at name and sets its length to len(vals).
func SetArray[T Scalar](s *Struct, name string, vals []T) error {
	_, a, err := resolveTypedArray[T](s, name)
	if err != nil {
		return err
	}
	a.data = clone(vals)
	a.invalidate()
	return nil
}

// GetArrayAny returns a copy of the ScalarArray field at name as a []T.
func (s *Struct) GetArrayAny(name string) (any, error) {
	_, a, err := s.resolveArray(name)
	if err != nil {
		return nil, err
	}
	return cloneAny(a.data), nil
}

// SetArrayAny is SetArray where vals is a []T matching the element type of the field.
func (s *Struct) SetArrayAny(name string, vals any) error {
	_, a, err := s.resolveArray(name)
	if err != nil {
		return err
	}
	t, ok := lookupArrayType(vals)
	if !ok || t != a.typ {
		return fmt.Errorf("field %q is %v[], cannot set %T: %w", name, a.typ, vals, errors.ErrTypeMismatch)
	}
	a.data = cloneAny(vals)
	a.invalidate()
	return nil
}

// Structs is the ordered sequence of containers held by a StructureArray field. Every
// element has the Map of the field and is owned by the container holding the field.
type Structs struct {
	mapping *mapping.Map
	owner   *Struct
	items   []*Struct
}

// Map is the description shared by every element.
func (l *Structs) Map() *mapping.Map {
	return l.mapping
}

// Len returns the number of elements.
func (l *Structs) Len() int {
	return len(l.items)
}

// Get returns the element at index.
func (l *Structs) Get(index int) (*Struct, error) {
	if err := l.owner.live(); err != nil {
		return nil, err
	}
	if index < 0 || index >= len(l.items) {
		return nil, fmt.Errorf("Structs.Get(%d): len is %d: %w", index, len(l.items), errors.ErrIndexOutOfRange)
	}
	return l.items[index], nil
}

// Append adds a new zero valued element to the end and returns it.
func (l *Structs) Append() (*Struct, error) {
	if err := l.owner.live(); err != nil {
		return nil, err
	}
	item := newStruct(l.mapping, l.owner, l.owner.hook)
	l.items = append(l.items, item)
	return item, nil
}

// SetLen grows the sequence with new zero valued elements or shrinks it, destroying the
// elements that are removed.
func (l *Structs) SetLen(n int) error {
	if err := l.owner.live(); err != nil {
		return err
	}
	if n < 0 {
		return fmt.Errorf("Structs.SetLen(%d): %w", n, errors.ErrIndexOutOfRange)
	}
	for len(l.items) > n {
		last := len(l.items) - 1
		l.items[last].destroy()
		l.items[last] = nil
		l.items = l.items[:last]
	}
	for len(l.items) < n {
		l.items = append(l.items, newStruct(l.mapping, l.owner, l.owner.hook))
	}
	return nil
}

// All iterates over the elements in order.
func (l *Structs) All() iter.Seq2[int, *Struct] {
	return func(yield func(int, *Struct) bool) {
		for i, item := range l.items {
			if !yield(i, item) {
				return
			}
		}
	}
}
