package pvtext

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/epics-base/pvdata/languages/go/convert"
	"github.com/epics-base/pvdata/languages/go/errors"
	"github.com/epics-base/pvdata/languages/go/field"
	"github.com/epics-base/pvdata/languages/go/mapping"
	"github.com/epics-base/pvdata/languages/go/structs"
)

type writer struct {
	buf    *bytes.Buffer
	indent string
}

func (w writer) pad(depth int) {
	for i := 0; i < depth; i++ {
		w.buf.WriteString(w.indent)
	}
}

// header writes "<ID>" or "<ID> <name>".
func (w writer) header(depth int, id, name string) {
	w.pad(depth)
	w.buf.WriteString(id)
	if name != "" {
		w.buf.WriteByte(' ')
		w.buf.WriteString(name)
	}
	w.buf.WriteByte('\n')
}

func (w writer) descriptor(m *mapping.Map) {
	w.header(0, m.ID(), "")
	w.fields(1, m)
}

func (w writer) fields(depth int, m *mapping.Map) {
	for _, fd := range m.All() {
		w.header(depth, fd.TypeID(), fd.Name())
		switch fd.Category() {
		case field.Structure:
			w.fields(depth+1, fd.Mapping())
		case field.StructureArray:
			w.header(depth+1, fd.Mapping().ID(), "")
			w.fields(depth+2, fd.Mapping())
		}
	}
}

func (w writer) value(s *structs.Struct) error {
	if s.Destroyed() {
		return fmt.Errorf("pvtext: %w", errors.ErrInvalidHandle)
	}
	w.header(0, s.Map().ID(), "")
	return w.values(1, s)
}

func (w writer) values(depth int, s *structs.Struct) error {
	for _, fd := range s.Map().All() {
		switch fd.Category() {
		case field.Scalar:
			v, err := s.GetAny(fd.Name())
			if err != nil {
				return err
			}
			w.pad(depth)
			w.buf.WriteString(fd.TypeID())
			w.buf.WriteByte(' ')
			w.buf.WriteString(fd.Name())
			w.buf.WriteByte(' ')
			if str, ok := v.(string); ok {
				w.buf.WriteString(escape(str))
			} else {
				w.buf.WriteString(convert.Format(v))
			}
			w.buf.WriteByte('\n')
		case field.ScalarArray:
			v, err := s.GetArrayAny(fd.Name())
			if err != nil {
				return err
			}
			w.pad(depth)
			w.buf.WriteString(fd.TypeID())
			w.buf.WriteByte(' ')
			w.buf.WriteString(fd.Name())
			w.buf.WriteByte(' ')
			w.array(v)
			w.buf.WriteByte('\n')
		case field.Structure:
			sub, err := s.GetStruct(fd.Name())
			if err != nil {
				return err
			}
			w.header(depth, fd.TypeID(), fd.Name())
			if err := w.values(depth+1, sub); err != nil {
				return err
			}
		case field.StructureArray:
			list, err := s.GetStructs(fd.Name())
			if err != nil {
				return err
			}
			w.header(depth, fd.TypeID(), fd.Name())
			for _, item := range list.All() {
				w.header(depth+1, item.Map().ID(), "")
				if err := w.values(depth+2, item); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// array writes [a,b,c]. Strings are quoted and separated by ", ".
func (w writer) array(v any) {
	w.buf.WriteByte('[')
	if strs, ok := v.([]string); ok {
		for i, s := range strs {
			if i > 0 {
				w.buf.WriteString(", ")
			}
			w.buf.WriteByte('"')
			w.buf.WriteString(escape(s))
			w.buf.WriteByte('"')
		}
		w.buf.WriteByte(']')
		return
	}
	forEach(v, func(i int, e any) {
		if i > 0 {
			w.buf.WriteByte(',')
		}
		w.buf.WriteString(convert.Format(e))
	})
	w.buf.WriteByte(']')
}

func forEach(v any, fn func(int, any)) {
	switch x := v.(type) {
	case []bool:
		each(x, fn)
	case []int8:
		each(x, fn)
	case []int16:
		each(x, fn)
	case []int32:
		each(x, fn)
	case []int64:
		each(x, fn)
	case []uint8:
		each(x, fn)
	case []uint16:
		each(x, fn)
	case []uint32:
		each(x, fn)
	case []uint64:
		each(x, fn)
	case []float32:
		each(x, fn)
	case []float64:
		each(x, fn)
	}
}

func each[T structs.Scalar](s []T, fn func(int, any)) {
	for i, v := range s {
		fn(i, v)
	}
}

// escape escapes control characters, quotes and backslashes the way a Go string
// literal would, without the surrounding quotes.
func escape(s string) string {
	q := strconv.Quote(s)
	return q[1 : len(q)-1]
}
