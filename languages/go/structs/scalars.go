package structs

import (
	"fmt"

	"github.com/epics-base/pvdata/languages/go/field"
)

// Number is the set of Go types that hold a numeric pvdata scalar.
type Number interface {
	int8 | int16 | int32 | int64 | uint8 | uint16 | uint32 | uint64 | float32 | float64
}

// Scalar is the set of Go types that hold a pvdata scalar. Each Go type maps to exactly
// one field.ScalarType, see ScalarTypeOf.
type Scalar interface {
	bool | string | Number
}

// ScalarTypeOf returns the field.ScalarType stored as T.
func ScalarTypeOf[T Scalar]() field.ScalarType {
	var t T
	return scalarTypeOfValue(t)
}

// scalarTypeOfValue returns the field.ScalarType for the dynamic type of v. It panics
// if v is not a Scalar type.
func scalarTypeOfValue(v any) field.ScalarType {
	t, ok := lookupScalarType(v)
	if !ok {
		panic(fmt.Sprintf("unsupported type that passed the type constraint %T", v))
	}
	return t
}

func lookupScalarType(v any) (field.ScalarType, bool) {
	switch v.(type) {
	case bool:
		return field.Boolean, true
	case int8:
		return field.Byte, true
	case int16:
		return field.Short, true
	case int32:
		return field.Int, true
	case int64:
		return field.Long, true
	case uint8:
		return field.UByte, true
	case uint16:
		return field.UShort, true
	case uint32:
		return field.UInt, true
	case uint64:
		return field.ULong, true
	case float32:
		return field.Float, true
	case float64:
		return field.Double, true
	case string:
		return field.String, true
	}
	return 0, false
}

// lookupArrayType is lookupScalarType for slices.
func lookupArrayType(v any) (field.ScalarType, bool) {
	switch v.(type) {
	case []bool:
		return field.Boolean, true
	case []int8:
		return field.Byte, true
	case []int16:
		return field.Short, true
	case []int32:
		return field.Int, true
	case []int64:
		return field.Long, true
	case []uint8:
		return field.UByte, true
	case []uint16:
		return field.UShort, true
	case []uint32:
		return field.UInt, true
	case []uint64:
		return field.ULong, true
	case []float32:
		return field.Float, true
	case []float64:
		return field.Double, true
	case []string:
		return field.String, true
	}
	return 0, false
}

// Zero returns the zero value of t as the Go type that holds it.
func Zero(t field.ScalarType) any {
	switch t {
	case field.Boolean:
		return false
	case field.Byte:
		return int8(0)
	case field.Short:
		return int16(0)
	case field.Int:
		return int32(0)
	case field.Long:
		return int64(0)
	case field.UByte:
		return uint8(0)
	case field.UShort:
		return uint16(0)
	case field.UInt:
		return uint32(0)
	case field.ULong:
		return uint64(0)
	case field.Float:
		return float32(0)
	case field.Double:
		return float64(0)
	case field.String:
		return ""
	}
	panic(fmt.Sprintf("bug: unknown scalar type %v", t))
}

// makeSlice returns a []T of length n for scalar type t.
func makeSlice(t field.ScalarType, n int) any {
	switch t {
	case field.Boolean:
		return make([]bool, n)
	case field.Byte:
		return make([]int8, n)
	case field.Short:
		return make([]int16, n)
	case field.Int:
		return make([]int32, n)
	case field.Long:
		return make([]int64, n)
	case field.UByte:
		return make([]uint8, n)
	case field.UShort:
		return make([]uint16, n)
	case field.UInt:
		return make([]uint32, n)
	case field.ULong:
		return make([]uint64, n)
	case field.Float:
		return make([]float32, n)
	case field.Double:
		return make([]float64, n)
	case field.String:
		return make([]string, n)
	}
	panic(fmt.Sprintf("bug: unknown scalar type %v", t))
}

// resize sets the length of s to n. New slots are zero valued and slots past n are cleared
// so that strings can be collected. The backing array is reused when it has room.
func resize[T Scalar](s []T, n int) []T {
	old := len(s)
	switch {
	case n == old:
		return s
	case n < old:
		clear(s[n:old])
		return s[:n]
	case n <= cap(s):
		s = s[:n]
		clear(s[old:n])
		return s
	}
	ns := make([]T, n)
	copy(ns, s)
	return ns
}

func resizeAny(s any, n int) any {
	switch v := s.(type) {
	case []bool:
		return resize(v, n)
	case []int8:
		return resize(v, n)
	case []int16:
		return resize(v, n)
	case []int32:
		return resize(v, n)
	case []int64:
		return resize(v, n)
	case []uint8:
		return resize(v, n)
	case []uint16:
		return resize(v, n)
	case []uint32:
		return resize(v, n)
	case []uint64:
		return resize(v, n)
	case []float32:
		return resize(v, n)
	case []float64:
		return resize(v, n)
	case []string:
		return resize(v, n)
	}
	panic(fmt.Sprintf("bug: unsupported slice type %T", s))
}

func clone[T Scalar](s []T) []T {
	n := make([]T, len(s))
	copy(n, s)
	return n
}

func cloneAny(s any) any {
	switch v := s.(type) {
	case []bool:
		return clone(v)
	case []int8:
		return clone(v)
	case []int16:
		return clone(v)
	case []int32:
		return clone(v)
	case []int64:
		return clone(v)
	case []uint8:
		return clone(v)
	case []uint16:
		return clone(v)
	case []uint32:
		return clone(v)
	case []uint64:
		return clone(v)
	case []float32:
		return clone(v)
	case []float64:
		return clone(v)
	case []string:
		return clone(v)
	}
	panic(fmt.Sprintf("bug: unsupported slice type %T", s))
}

func lenAny(s any) int {
	switch v := s.(type) {
	case []bool:
		return len(v)
	case []int8:
		return len(v)
	case []int16:
		return len(v)
	case []int32:
		return len(v)
	case []int64:
		return len(v)
	case []uint8:
		return len(v)
	case []uint16:
		return len(v)
	case []uint32:
		return len(v)
	case []uint64:
		return len(v)
	case []float32:
		return len(v)
	case []float64:
		return len(v)
	case []string:
		return len(v)
	}
	panic(fmt.Sprintf("bug: unsupported slice type %T", s))
}
