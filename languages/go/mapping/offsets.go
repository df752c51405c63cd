package mapping

import (
	"fmt"
	"strings"

	"github.com/epics-base/pvdata/languages/go/errors"
	"github.com/epics-base/pvdata/languages/go/field"
)

// Every field in a structure tree has an offset. The structure itself is offset 0 and the
// fields follow depth first in declaration order, so a Structure field is immediately
// followed by its own fields. Scalars, arrays and structure arrays take one offset each.
//
//	structure            0
//	    double value     1
//	    time_t timeStamp 2
//	        long secondsPastEpoch 3
//	        int nanoseconds       4
//	    int count        5

// Size is the number of offsets the field takes: 1, or Map().Size() for a Structure.
func (f *FieldDescr) Size() int {
	if f.category == field.Structure {
		return f.mapping.size
	}
	return 1
}

// Size is the number of offsets in the structure, the structure itself included.
func (m *Map) Size() int {
	return m.size
}

// Offset returns the offset of the field at index i relative to the structure.
func (m *Map) Offset(i int) (int, error) {
	if i < 0 || i >= len(m.fields) {
		return 0, fmt.Errorf("index %d, structure has %d fields: %w", i, len(m.fields), errors.ErrIndexOutOfRange)
	}
	return m.offsets[i], nil
}

// OffsetOf returns the offset of the field at a dotted path. The empty path is the
// structure itself, offset 0.
func (m *Map) OffsetOf(path string) (int, error) {
	if path == "" {
		return 0, nil
	}
	_, idx, err := m.Lookup(path)
	if err != nil {
		return 0, err
	}
	off := 0
	cur := m
	for _, i := range idx {
		off += cur.offsets[i]
		cur = cur.fields[i].mapping
	}
	return off, nil
}

// PathAt is the reverse of OffsetOf. It returns the dotted path and description of the
// field at off. Offset 0 returns "" and a nil FieldDescr.
func (m *Map) PathAt(off int) (string, *FieldDescr, error) {
	if off < 0 || off >= m.size {
		return "", nil, fmt.Errorf("offset %d, structure %q has %d: %w", off, m.id, m.size, errors.ErrIndexOutOfRange)
	}
	var path []string
	var fd *FieldDescr
	cur := m
	for off > 0 {
		// The field holding off is the last one starting at or before it.
		i := len(cur.offsets) - 1
		for cur.offsets[i] > off {
			i--
		}
		fd = cur.fields[i]
		path = append(path, fd.name)
		off -= cur.offsets[i]
		if off > 0 {
			cur = fd.mapping
		}
	}
	return strings.Join(path, "."), fd, nil
}
