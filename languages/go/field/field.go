// Package field details the field categories and scalar types used by pvdata structures.
// The numeric values of both enumerations are part of the handle boundary and must not change.
package field

import (
	"fmt"
	"strings"
)

// Category represents the shape kind of a field.
type Category uint8

const (
	Scalar         Category = 0 // scalar
	ScalarArray    Category = 1 // scalarArray
	Structure      Category = 2 // structure
	StructureArray Category = 3 // structureArray
)

var categoryNames = [...]string{
	Scalar:         "scalar",
	ScalarArray:    "scalarArray",
	Structure:      "structure",
	StructureArray: "structureArray",
}

// String implements fmt.Stringer.
func (c Category) String() string {
	if !c.IsValid() {
		return fmt.Sprintf("Category(%d)", uint8(c))
	}
	return categoryNames[c]
}

// IsValid reports if c is one of the four known categories.
func (c Category) IsValid() bool {
	return int(c) < len(categoryNames)
}

// HasScalarType reports if fields of this category carry a ScalarType.
func (c Category) HasScalarType() bool {
	return c == Scalar || c == ScalarArray
}

// HasStructure reports if fields of this category carry a nested structure description.
func (c Category) HasStructure() bool {
	return c == Structure || c == StructureArray
}

// ScalarType represents the primitive kind held by a Scalar or ScalarArray field.
type ScalarType uint8

const (
	Boolean ScalarType = 0  // boolean
	Byte    ScalarType = 1  // byte
	Short   ScalarType = 2  // short
	Int     ScalarType = 3  // int
	Long    ScalarType = 4  // long
	UByte   ScalarType = 5  // ubyte
	UShort  ScalarType = 6  // ushort
	UInt    ScalarType = 7  // uint
	ULong   ScalarType = 8  // ulong
	Float   ScalarType = 9  // float
	Double  ScalarType = 10 // double
	String  ScalarType = 11 // string
)

var scalarNames = [...]string{
	Boolean: "boolean",
	Byte:    "byte",
	Short:   "short",
	Int:     "int",
	Long:    "long",
	UByte:   "ubyte",
	UShort:  "ushort",
	UInt:    "uint",
	ULong:   "ulong",
	Float:   "float",
	Double:  "double",
	String:  "string",
}

// ScalarTypes lists every ScalarType in enumeration order.
var ScalarTypes = []ScalarType{
	Boolean, Byte, Short, Int, Long, UByte, UShort, UInt, ULong, Float, Double, String,
}

// NumberTypes is a list of scalar types that represent a number.
var NumberTypes = []ScalarType{
	Byte, Short, Int, Long, UByte, UShort, UInt, ULong, Float, Double,
}

// String implements fmt.Stringer. This is the name used in dumps and descriptor text.
func (t ScalarType) String() string {
	if !t.IsValid() {
		return fmt.Sprintf("ScalarType(%d)", uint8(t))
	}
	return scalarNames[t]
}

// IsValid reports if t is one of the twelve known scalar types.
func (t ScalarType) IsValid() bool {
	return int(t) < len(scalarNames)
}

// IsInteger reports if t is a signed or unsigned integer type.
func (t ScalarType) IsInteger() bool {
	return t >= Byte && t <= ULong
}

// IsUnsigned reports if t is an unsigned integer type.
func (t ScalarType) IsUnsigned() bool {
	return t >= UByte && t <= ULong
}

// IsNumeric reports if t is an integer or floating point type.
func (t ScalarType) IsNumeric() bool {
	return t >= Byte && t <= Double
}

// ElementSize is the number of bytes one value of t occupies on the wire. Strings
// are variable length and return 0.
func (t ScalarType) ElementSize() int {
	switch t {
	case Boolean, Byte, UByte:
		return 1
	case Short, UShort:
		return 2
	case Int, UInt, Float:
		return 4
	case Long, ULong, Double:
		return 8
	}
	return 0
}

// ParseScalarType converts a scalar type name ("double", "ushort", ...) into a ScalarType.
func ParseScalarType(s string) (ScalarType, error) {
	for i, n := range scalarNames {
		if n == s {
			return ScalarType(i), nil
		}
	}
	return 0, fmt.Errorf("unknown scalar type %q", s)
}

// TypeID is the identifier of a scalar or scalar array field as it appears in a dump,
// such as "double" or "double[]".
func TypeID(c Category, t ScalarType) string {
	if c == ScalarArray {
		return t.String() + "[]"
	}
	return t.String()
}

// ParseTypeID is the reverse of TypeID. ok is false if id does not name a scalar type, in
// which case id is the ID of a structure (or "<ID>[]" of a structure array).
func ParseTypeID(id string) (c Category, t ScalarType, ok bool) {
	c = Scalar
	if strings.HasSuffix(id, "[]") {
		c = ScalarArray
		id = strings.TrimSuffix(id, "[]")
	}
	t, err := ParseScalarType(id)
	if err != nil {
		return 0, 0, false
	}
	return c, t, true
}
