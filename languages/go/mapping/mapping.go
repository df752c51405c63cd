// Package mapping holds the immutable descriptors that give a pvdata structure its shape.
// A FieldDescr describes one named field, a Map is the ordered list of fields of a structure.
// Neither holds values; see the structs package for that.
package mapping

import (
	"fmt"
	"iter"
	"strings"
	"unicode"

	"github.com/epics-base/pvdata/languages/go/errors"
	"github.com/epics-base/pvdata/languages/go/field"
)

// DefaultID is the ID of a structure that was not given one.
const DefaultID = "structure"

// NotFound is returned by FindField when a name does not resolve to a field.
const NotFound = -1

// FieldDescr describes a field. Once created it cannot be changed.
type FieldDescr struct {
	name       string
	category   field.Category
	scalarType field.ScalarType
	// mapping is set if category is field.Structure or field.StructureArray.
	mapping *Map
}

// NewScalar creates the description of a scalar field.
func NewScalar(name string, t field.ScalarType) (*FieldDescr, error) {
	return newScalar(name, field.Scalar, t)
}

// NewScalarArray creates the description of an array of scalars.
func NewScalarArray(name string, t field.ScalarType) (*FieldDescr, error) {
	return newScalar(name, field.ScalarArray, t)
}

func newScalar(name string, c field.Category, t field.ScalarType) (*FieldDescr, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	if !t.IsValid() {
		return nil, fmt.Errorf("field %q: %v: %w", name, t, errors.ErrInvalidType)
	}
	return &FieldDescr{name: name, category: c, scalarType: t}, nil
}

// NewStructure creates the description of a nested structure field.
func NewStructure(name string, m *Map) (*FieldDescr, error) {
	return newStructure(name, field.Structure, m)
}

// NewStructureArray creates the description of an array of structures that all have
// the shape m.
func NewStructureArray(name string, m *Map) (*FieldDescr, error) {
	return newStructure(name, field.StructureArray, m)
}

func newStructure(name string, c field.Category, m *Map) (*FieldDescr, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	if m == nil {
		return nil, fmt.Errorf("field %q: %v had nil Map: %w", name, c, errors.ErrInvalidType)
	}
	return &FieldDescr{name: name, category: c, mapping: m}, nil
}

// MustNewScalar is like NewScalar, but panics on an error.
func MustNewScalar(name string, t field.ScalarType) *FieldDescr {
	return must(NewScalar(name, t))
}

// MustNewScalarArray is like NewScalarArray, but panics on an error.
func MustNewScalarArray(name string, t field.ScalarType) *FieldDescr {
	return must(NewScalarArray(name, t))
}

// MustNewStructure is like NewStructure, but panics on an error.
func MustNewStructure(name string, m *Map) *FieldDescr {
	return must(NewStructure(name, m))
}

// MustNewStructureArray is like NewStructureArray, but panics on an error.
func MustNewStructureArray(name string, m *Map) *FieldDescr {
	return must(NewStructureArray(name, m))
}

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

// Name is the name of the field.
func (f *FieldDescr) Name() string {
	return f.name
}

// Category is the shape kind of the field.
func (f *FieldDescr) Category() field.Category {
	return f.category
}

// ScalarType is the scalar type of a Scalar field or the element type of a ScalarArray.
// For other categories it returns 0, check Category() first.
func (f *FieldDescr) ScalarType() field.ScalarType {
	return f.scalarType
}

// Mapping is the description of a Structure field or of the elements of a StructureArray.
// It is nil for scalar categories.
func (f *FieldDescr) Mapping() *Map {
	return f.mapping
}

// TypeID is the identifier of the field's type as it appears in a dump. This is "double",
// "double[]", the nested structure ID or "<ID>[]" for a structure array.
func (f *FieldDescr) TypeID() string {
	switch f.category {
	case field.Scalar, field.ScalarArray:
		return field.TypeID(f.category, f.scalarType)
	case field.Structure:
		return f.mapping.ID()
	case field.StructureArray:
		return f.mapping.ID() + "[]"
	}
	return f.category.String()
}

// Equal reports if f and o have the same name and shape.
func (f *FieldDescr) Equal(o *FieldDescr) bool {
	if f == o {
		return true
	}
	if f == nil || o == nil {
		return false
	}
	if f.name != o.name || f.category != o.category || f.scalarType != o.scalarType {
		return false
	}
	return f.mapping.Equal(o.mapping)
}

// Map is the ordered list of fields in a structure. Field order defines both the order
// of a dump and the index used to address a field. Maps are immutable and may be shared
// by any number of containers.
type Map struct {
	id     string
	fields []*FieldDescr
	index  map[string]int

	// offsets[i] is the offset of fields[i] relative to the structure, see Offset.
	offsets []int
	size    int
}

// NewMap creates a structure description with the DefaultID.
func NewMap(fields ...*FieldDescr) (*Map, error) {
	return NewMapWithID(DefaultID, fields...)
}

// NewMapWithID creates a structure description with a type ID, such as "time_t".
// An empty id is replaced by DefaultID. See ValidateID for the IDs that are rejected.
func NewMapWithID(id string, fields ...*FieldDescr) (*Map, error) {
	if id == "" {
		id = DefaultID
	}
	if err := ValidateID(id); err != nil {
		return nil, err
	}
	m := &Map{
		id:     id,
		fields: make([]*FieldDescr, 0, len(fields)),
		index:  make(map[string]int, len(fields)),
	}
	for i, f := range fields {
		if f == nil {
			return nil, fmt.Errorf("structure %q: field %d is nil: %w", id, i, errors.ErrInvalidType)
		}
		if _, ok := m.index[f.name]; ok {
			return nil, fmt.Errorf("structure %q: field %q: %w", id, f.name, errors.ErrDuplicateFieldName)
		}
		m.index[f.name] = i
		m.fields = append(m.fields, f)
	}
	m.offsets = make([]int, len(m.fields))
	m.size = 1
	for i, f := range m.fields {
		m.offsets[i] = m.size
		m.size += f.Size()
	}
	return m, nil
}

// MustNewMap is like NewMap, but panics on an error.
func MustNewMap(fields ...*FieldDescr) *Map {
	return must(NewMap(fields...))
}

// MustNewMapWithID is like NewMapWithID, but panics on an error.
func MustNewMapWithID(id string, fields ...*FieldDescr) *Map {
	return must(NewMapWithID(id, fields...))
}

// ID is the type ID of the structure.
func (m *Map) ID() string {
	return m.id
}

// NumFields is the number of fields in the structure.
func (m *Map) NumFields() int {
	return len(m.fields)
}

// Field returns the description of the field at index i.
func (m *Map) Field(i int) (*FieldDescr, error) {
	if i < 0 || i >= len(m.fields) {
		return nil, fmt.Errorf("index %d, structure has %d fields: %w", i, len(m.fields), errors.ErrIndexOutOfRange)
	}
	return m.fields[i], nil
}

// FieldName returns the name of the field at index i.
func (m *Map) FieldName(i int) (string, error) {
	f, err := m.Field(i)
	if err != nil {
		return "", err
	}
	return f.name, nil
}

// FieldCategory returns the category of the field at index i.
func (m *Map) FieldCategory(i int) (field.Category, error) {
	f, err := m.Field(i)
	if err != nil {
		return 0, err
	}
	return f.category, nil
}

// ScalarType returns the scalar type of the field at index i. For a ScalarArray this is
// the element type. Structure categories return ErrWrongCategory.
func (m *Map) ScalarType(i int) (field.ScalarType, error) {
	f, err := m.Field(i)
	if err != nil {
		return 0, err
	}
	if !f.category.HasScalarType() {
		return 0, fmt.Errorf("field %q is a %v: %w", f.name, f.category, errors.ErrWrongCategory)
	}
	return f.scalarType, nil
}

// ElementType returns the element type of the ScalarArray field at index i.
func (m *Map) ElementType(i int) (field.ScalarType, error) {
	f, err := m.Field(i)
	if err != nil {
		return 0, err
	}
	if f.category != field.ScalarArray {
		return 0, fmt.Errorf("field %q is a %v: %w", f.name, f.category, errors.ErrWrongCategory)
	}
	return f.scalarType, nil
}

// FindField returns the index of the field with name. If there is no such field it
// returns NotFound, it never fails.
func (m *Map) FindField(name string) int {
	if i, ok := m.index[name]; ok {
		return i
	}
	return NotFound
}

// ByName retrieves the FieldDescr by name. If the name can't be found, it returns
// ErrFieldNotFound.
func (m *Map) ByName(name string) (*FieldDescr, error) {
	i, ok := m.index[name]
	if !ok {
		return nil, fmt.Errorf("structure %q has no field %q: %w", m.id, name, errors.ErrFieldNotFound)
	}
	return m.fields[i], nil
}

// Lookup resolves a dotted path, such as "timeStamp.nanoseconds", through nested
// Structure fields. It returns the description of the last element along with the
// indexes taken at each level.
func (m *Map) Lookup(path string) (*FieldDescr, []int, error) {
	if path == "" {
		return nil, nil, fmt.Errorf("empty path: %w", errors.ErrFieldNotFound)
	}
	cur := m
	var idx []int
	for {
		name, rest, more := strings.Cut(path, ".")
		i := cur.FindField(name)
		if i == NotFound {
			return nil, nil, fmt.Errorf("structure %q has no field %q: %w", cur.id, name, errors.ErrFieldNotFound)
		}
		idx = append(idx, i)
		f := cur.fields[i]
		if !more {
			return f, idx, nil
		}
		if f.category != field.Structure {
			return nil, nil, fmt.Errorf("path %q: field %q is a %v: %w", path, name, f.category, errors.ErrWrongCategory)
		}
		cur = f.mapping
		path = rest
	}
}

// All iterates over the fields in declaration order.
func (m *Map) All() iter.Seq2[int, *FieldDescr] {
	return func(yield func(int, *FieldDescr) bool) {
		for i, f := range m.fields {
			if !yield(i, f) {
				return
			}
		}
	}
}

// Equal reports if m and o have the same ID and the same fields in the same order.
func (m *Map) Equal(o *Map) bool {
	if m == o {
		return true
	}
	if m == nil || o == nil {
		return false
	}
	if m.id != o.id || len(m.fields) != len(o.fields) {
		return false
	}
	for i, f := range m.fields {
		if !f.Equal(o.fields[i]) {
			return false
		}
	}
	return true
}

// ValidateID checks a structure type ID. An ID may hold any printable character except
// whitespace, but may not start with "#", end in "[]" or be the type ID of a scalar or
// scalar array, since the descriptor dump could not be read back.
func ValidateID(id string) error {
	if strings.HasPrefix(id, "#") || strings.HasSuffix(id, "[]") {
		return fmt.Errorf("structure ID %q: %w", id, errors.ErrInvalidType)
	}
	if strings.IndexFunc(id, func(r rune) bool { return unicode.IsSpace(r) || !unicode.IsPrint(r) }) >= 0 {
		return fmt.Errorf("structure ID %q has whitespace or unprintable characters: %w", id, errors.ErrInvalidType)
	}
	if _, _, ok := field.ParseTypeID(id); ok {
		return fmt.Errorf("structure ID %q is a scalar type: %w", id, errors.ErrInvalidType)
	}
	return nil
}

// ValidateName checks that name is usable as a field name. Names start with a letter or
// an underscore and continue with letters, digits or underscores.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("empty name: %w", errors.ErrInvalidFieldName)
	}
	for i, r := range name {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return fmt.Errorf("%q has illegal character %q at %d: %w", name, r, i, errors.ErrInvalidFieldName)
		}
	}
	return nil
}
