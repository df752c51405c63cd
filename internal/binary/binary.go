// Package binary reads and appends fixed width numbers in either byte order using generics.
package binary

import (
	"encoding/binary"
	"fmt"
	"math"

	"golang.org/x/exp/constraints"
)

// Number is every fixed width type that can be encoded. int, uint and uintptr pass the
// constraint but panic, since their width depends on the platform.
type Number interface {
	constraints.Integer | constraints.Float
}

// Order is a byte order that can both read and append.
type Order interface {
	binary.ByteOrder
	binary.AppendByteOrder
}

var (
	LittleEndian Order = binary.LittleEndian
	BigEndian    Order = binary.BigEndian
)

// Size returns the encoded width of T in bytes.
func Size[T Number]() int {
	var r T
	switch any(r).(type) {
	case int8, uint8:
		return 1
	case int16, uint16:
		return 2
	case int32, uint32, float32:
		return 4
	case int64, uint64, float64:
		return 8
	}
	panic(fmt.Sprintf("unsupported type that passed the type constraint %T", r))
}

// Get decodes a T from the front of b.
func Get[T Number](o Order, b []byte) T {
	_ = b[Size[T]()-1] // bounds check hint to compiler; see golang.org/issue/14808

	var r T
	switch any(r).(type) {
	case int8:
		return T(int8(b[0]))
	case uint8:
		return T(b[0])
	case int16:
		return T(int16(o.Uint16(b)))
	case uint16:
		return T(o.Uint16(b))
	case int32:
		return T(int32(o.Uint32(b)))
	case uint32:
		return T(o.Uint32(b))
	case int64:
		return T(int64(o.Uint64(b)))
	case uint64:
		return T(o.Uint64(b))
	case float32:
		return T(math.Float32frombits(o.Uint32(b)))
	case float64:
		return T(math.Float64frombits(o.Uint64(b)))
	}
	panic(fmt.Sprintf("unsupported type that passed the type constraint %T", r))
}

// Append appends the encoding of v to b.
func Append[T Number](o Order, b []byte, v T) []byte {
	switch x := any(v).(type) {
	case int8:
		return append(b, byte(x))
	case uint8:
		return append(b, x)
	case int16:
		return o.AppendUint16(b, uint16(x))
	case uint16:
		return o.AppendUint16(b, x)
	case int32:
		return o.AppendUint32(b, uint32(x))
	case uint32:
		return o.AppendUint32(b, x)
	case int64:
		return o.AppendUint64(b, uint64(x))
	case uint64:
		return o.AppendUint64(b, x)
	case float32:
		return o.AppendUint32(b, math.Float32bits(x))
	case float64:
		return o.AppendUint64(b, math.Float64bits(x))
	}
	panic(fmt.Sprintf("unsupported type that passed the type constraint %T", v))
}
