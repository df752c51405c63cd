package patch

import (
	"fmt"

	"github.com/epics-base/pvdata/languages/go/errors"
	"github.com/epics-base/pvdata/languages/go/field"
	"github.com/epics-base/pvdata/languages/go/mapping"
	"github.com/epics-base/pvdata/languages/go/structs"
)

// Diff returns the offsets of the fields whose values differ between from and to, in the
// form Compress leaves them. Arrays and structure arrays are compared whole. from and to
// must have equal Maps.
func Diff(from, to *structs.Struct) (*Set, error) {
	if from.Destroyed() || to.Destroyed() {
		return nil, fmt.Errorf("cannot diff a destroyed structure: %w", errors.ErrInvalidHandle)
	}
	if !from.Map().Equal(to.Map()) {
		return nil, fmt.Errorf("structures %q and %q differ: %w", from.Map().ID(), to.Map().ID(), errors.ErrTypeMismatch)
	}
	s := &Set{}
	if err := diff(from, to, 0, s); err != nil {
		return nil, err
	}
	Compress(from.Map(), s)
	return s, nil
}

func diff(from, to *structs.Struct, base int, s *Set) error {
	m := from.Map()
	for i, fd := range m.All() {
		off, _ := m.Offset(i)
		off += base
		if fd.Category() == field.Structure {
			a, err := from.GetStruct(fd.Name())
			if err != nil {
				return err
			}
			b, err := to.GetStruct(fd.Name())
			if err != nil {
				return err
			}
			if err := diff(a, b, off, s); err != nil {
				return err
			}
			continue
		}
		eq, err := structs.EqualField(from, to, fd.Name())
		if err != nil {
			return err
		}
		if !eq {
			s.Add(off)
		}
	}
	return nil
}

// Compress rewrites s so a structure whose fields are all in the set is recorded by its own
// offset alone, and drops offsets inside a structure whose own offset is set. It reports if
// anything in m is in the set.
func Compress(m *mapping.Map, s *Set) bool {
	return compress(m, s, 0)
}

func compress(m *mapping.Map, s *Set, base int) bool {
	if s.Has(base) {
		for off := s.Next(base + 1); off >= 0 && off < base+m.Size(); off = s.Next(off + 1) {
			s.Remove(off)
		}
		return true
	}
	if m.NumFields() == 0 {
		return false
	}
	found, all := false, true
	for i, fd := range m.All() {
		off, _ := m.Offset(i)
		off += base
		if fd.Category() == field.Structure {
			if compress(fd.Mapping(), s, off) {
				found = true
			}
		} else if s.Has(off) {
			found = true
		}
		if !s.Has(off) {
			all = false
		}
	}
	if all {
		for off := s.Next(base + 1); off >= 0 && off < base+m.Size(); off = s.Next(off + 1) {
			s.Remove(off)
		}
		s.Add(base)
	}
	return found
}

// Fields returns the dotted paths of the offsets in s. Offset 0 is returned as "".
func Fields(m *mapping.Map, s *Set) ([]string, error) {
	var paths []string
	for off := range s.All() {
		p, _, err := m.PathAt(off)
		if err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}
	return paths, nil
}

// Check returns an error if s holds an offset outside m.
func Check(m *mapping.Map, s *Set) error {
	words := s.Words()
	if len(words) == 0 {
		return nil
	}
	last := (len(words)-1)*wordBits + 63 - leadingZeros(words[len(words)-1])
	if last >= m.Size() {
		return fmt.Errorf("offset %d, structure %q has %d: %w", last, m.ID(), m.Size(), errors.ErrIndexOutOfRange)
	}
	return nil
}
