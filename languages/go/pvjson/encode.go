package pvjson

import (
	"fmt"
	"math"
	"strconv"

	"github.com/go-json-experiment/json/jsontext"

	"github.com/epics-base/pvdata/languages/go/errors"
	"github.com/epics-base/pvdata/languages/go/field"
	"github.com/epics-base/pvdata/languages/go/structs"
)

func writeStruct(enc *jsontext.Encoder, s *structs.Struct) error {
	if s.Destroyed() {
		return fmt.Errorf("pvjson: %w", errors.ErrInvalidHandle)
	}
	if err := enc.WriteToken(jsontext.BeginObject); err != nil {
		return err
	}
	for _, fd := range s.Map().All() {
		if err := enc.WriteToken(jsontext.String(fd.Name())); err != nil {
			return err
		}
		switch fd.Category() {
		case field.Scalar:
			v, err := s.GetAny(fd.Name())
			if err != nil {
				return err
			}
			if err := writeScalar(enc, v); err != nil {
				return err
			}
		case field.ScalarArray:
			v, err := s.GetArrayAny(fd.Name())
			if err != nil {
				return err
			}
			if err := writeArray(enc, v); err != nil {
				return err
			}
		case field.Structure:
			sub, err := s.GetStruct(fd.Name())
			if err != nil {
				return err
			}
			if err := writeStruct(enc, sub); err != nil {
				return err
			}
		case field.StructureArray:
			list, err := s.GetStructs(fd.Name())
			if err != nil {
				return err
			}
			if err := enc.WriteToken(jsontext.BeginArray); err != nil {
				return err
			}
			for _, item := range list.All() {
				if err := writeStruct(enc, item); err != nil {
					return err
				}
			}
			if err := enc.WriteToken(jsontext.EndArray); err != nil {
				return err
			}
		}
	}
	return enc.WriteToken(jsontext.EndObject)
}

func writeScalar(enc *jsontext.Encoder, v any) error {
	switch x := v.(type) {
	case bool:
		return enc.WriteToken(jsontext.Bool(x))
	case int8:
		return enc.WriteToken(jsontext.Int(int64(x)))
	case int16:
		return enc.WriteToken(jsontext.Int(int64(x)))
	case int32:
		return enc.WriteToken(jsontext.Int(int64(x)))
	case int64:
		return enc.WriteToken(jsontext.Int(x))
	case uint8:
		return enc.WriteToken(jsontext.Uint(uint64(x)))
	case uint16:
		return enc.WriteToken(jsontext.Uint(uint64(x)))
	case uint32:
		return enc.WriteToken(jsontext.Uint(uint64(x)))
	case uint64:
		return enc.WriteToken(jsontext.Uint(x))
	case float32:
		f := float64(x)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return enc.WriteToken(jsontext.Null)
		}
		// Formatting as float32 keeps 0.1 from becoming 0.10000000149011612.
		return enc.WriteValue(jsontext.Value(strconv.FormatFloat(f, 'g', -1, 32)))
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return enc.WriteToken(jsontext.Null)
		}
		return enc.WriteToken(jsontext.Float(x))
	case string:
		return enc.WriteToken(jsontext.String(x))
	}
	return fmt.Errorf("bug: unsupported scalar %T", v)
}

func writeArray(enc *jsontext.Encoder, v any) error {
	if err := enc.WriteToken(jsontext.BeginArray); err != nil {
		return err
	}
	var err error
	switch x := v.(type) {
	case []bool:
		err = writeEach(enc, x)
	case []int8:
		err = writeEach(enc, x)
	case []int16:
		err = writeEach(enc, x)
	case []int32:
		err = writeEach(enc, x)
	case []int64:
		err = writeEach(enc, x)
	case []uint8:
		err = writeEach(enc, x)
	case []uint16:
		err = writeEach(enc, x)
	case []uint32:
		err = writeEach(enc, x)
	case []uint64:
		err = writeEach(enc, x)
	case []float32:
		err = writeEach(enc, x)
	case []float64:
		err = writeEach(enc, x)
	case []string:
		err = writeEach(enc, x)
	default:
		err = fmt.Errorf("bug: unsupported array %T", v)
	}
	if err != nil {
		return err
	}
	return enc.WriteToken(jsontext.EndArray)
}

func writeEach[T structs.Scalar](enc *jsontext.Encoder, vals []T) error {
	for _, v := range vals {
		if err := writeScalar(enc, v); err != nil {
			return err
		}
	}
	return nil
}
