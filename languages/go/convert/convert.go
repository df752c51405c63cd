// Package convert reads and writes scalar fields of a structs.Struct while converting
// between the field's declared type and the type the caller has. Numbers convert to any
// other number with a Go conversion, numbers and booleans convert to and from strings.
// Booleans never convert to or from numbers.
package convert

import (
	"fmt"
	"strconv"

	"golang.org/x/exp/constraints"

	"github.com/epics-base/pvdata/languages/go/errors"
	"github.com/epics-base/pvdata/languages/go/field"
	"github.com/epics-base/pvdata/languages/go/structs"
)

// Number is any Go integer or floating point type.
type Number interface {
	constraints.Integer | constraints.Float
}

// Get reads the scalar field at name and converts it to T. String fields are parsed.
func Get[T Number](s *structs.Struct, name string) (T, error) {
	v, err := s.GetAny(name)
	if err != nil {
		return 0, err
	}
	n, err := toNumber[T](v)
	if err != nil {
		return 0, fmt.Errorf("field %q: %w", name, err)
	}
	return n, nil
}

func toNumber[T Number](v any) (T, error) {
	switch x := v.(type) {
	case int8:
		return T(x), nil
	case int16:
		return T(x), nil
	case int32:
		return T(x), nil
	case int64:
		return T(x), nil
	case uint8:
		return T(x), nil
	case uint16:
		return T(x), nil
	case uint32:
		return T(x), nil
	case uint64:
		return T(x), nil
	case float32:
		return T(x), nil
	case float64:
		return T(x), nil
	case string:
		if i, err := strconv.ParseInt(x, 10, 64); err == nil {
			return T(i), nil
		}
		if u, err := strconv.ParseUint(x, 10, 64); err == nil {
			return T(u), nil
		}
		f, err := strconv.ParseFloat(x, 64)
		if err != nil {
			return 0, fmt.Errorf("%q is not a number: %w", x, errors.ErrTypeMismatch)
		}
		return T(f), nil
	}
	return 0, fmt.Errorf("cannot convert %T to a number: %w", v, errors.ErrTypeMismatch)
}

// Put converts v to the declared type of the scalar field at name and stores it.
// Storing into a string field formats v.
func Put[T Number](s *structs.Struct, name string, v T) error {
	fd, err := s.Field(name)
	if err != nil {
		return err
	}
	if fd.Category() != field.Scalar {
		return fmt.Errorf("field %q is a %v: %w", name, fd.Category(), errors.ErrWrongCategory)
	}
	var val any
	switch fd.ScalarType() {
	case field.Byte:
		val = int8(v)
	case field.Short:
		val = int16(v)
	case field.Int:
		val = int32(v)
	case field.Long:
		val = int64(v)
	case field.UByte:
		val = uint8(v)
	case field.UShort:
		val = uint16(v)
	case field.UInt:
		val = uint32(v)
	case field.ULong:
		val = uint64(v)
	case field.Float:
		val = float32(v)
	case field.Double:
		val = float64(v)
	case field.String:
		val = Format(v)
	default:
		return fmt.Errorf("field %q is %v, cannot store %T: %w", name, fd.ScalarType(), v, errors.ErrTypeMismatch)
	}
	return s.SetAny(name, val)
}

// ToString renders the scalar field at name as text.
func ToString(s *structs.Struct, name string) (string, error) {
	v, err := s.GetAny(name)
	if err != nil {
		return "", err
	}
	return Format(v), nil
}

// FromString parses text as the declared type of the scalar field at name and stores it.
func FromString(s *structs.Struct, name, text string) error {
	fd, err := s.Field(name)
	if err != nil {
		return err
	}
	if fd.Category() != field.Scalar {
		return fmt.Errorf("field %q is a %v: %w", name, fd.Category(), errors.ErrWrongCategory)
	}
	v, err := Parse(fd.ScalarType(), text)
	if err != nil {
		return fmt.Errorf("field %q: %w", name, err)
	}
	return s.SetAny(name, v)
}

// Format renders a scalar value. Floating point values use the shortest representation
// that round trips, booleans are "true" or "false" and strings are returned as is.
func Format(v any) string {
	switch x := v.(type) {
	case bool:
		return strconv.FormatBool(x)
	case int8:
		return strconv.FormatInt(int64(x), 10)
	case int16:
		return strconv.FormatInt(int64(x), 10)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case int64:
		return strconv.FormatInt(x, 10)
	case uint8:
		return strconv.FormatUint(uint64(x), 10)
	case uint16:
		return strconv.FormatUint(uint64(x), 10)
	case uint32:
		return strconv.FormatUint(uint64(x), 10)
	case uint64:
		return strconv.FormatUint(x, 10)
	case float32:
		return strconv.FormatFloat(float64(x), 'g', -1, 32)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case string:
		return x
	}
	return fmt.Sprint(v)
}

// Parse converts text to the Go type that holds t.
func Parse(t field.ScalarType, text string) (any, error) {
	bad := func(err error) error {
		return fmt.Errorf("%q is not a %v (%v): %w", text, t, err, errors.ErrTypeMismatch)
	}
	switch t {
	case field.Boolean:
		b, err := strconv.ParseBool(text)
		if err != nil {
			return nil, bad(err)
		}
		return b, nil
	case field.Byte, field.Short, field.Int, field.Long:
		i, err := strconv.ParseInt(text, 10, t.ElementSize()*8)
		if err != nil {
			return nil, bad(err)
		}
		return signed(t, i), nil
	case field.UByte, field.UShort, field.UInt, field.ULong:
		u, err := strconv.ParseUint(text, 10, t.ElementSize()*8)
		if err != nil {
			return nil, bad(err)
		}
		return unsigned(t, u), nil
	case field.Float:
		f, err := strconv.ParseFloat(text, 32)
		if err != nil {
			return nil, bad(err)
		}
		return float32(f), nil
	case field.Double:
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, bad(err)
		}
		return f, nil
	case field.String:
		return text, nil
	}
	return nil, fmt.Errorf("%v: %w", t, errors.ErrInvalidType)
}

func signed(t field.ScalarType, i int64) any {
	switch t {
	case field.Byte:
		return int8(i)
	case field.Short:
		return int16(i)
	case field.Int:
		return int32(i)
	}
	return i
}

func unsigned(t field.ScalarType, u uint64) any {
	switch t {
	case field.UByte:
		return uint8(u)
	case field.UShort:
		return uint16(u)
	case field.UInt:
		return uint32(u)
	}
	return u
}
