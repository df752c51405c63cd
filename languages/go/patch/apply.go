package patch

import (
	"fmt"

	"github.com/epics-base/pvdata/languages/go/errors"
	"github.com/epics-base/pvdata/languages/go/field"
	"github.com/epics-base/pvdata/languages/go/structs"
)

// Apply copies the fields of src whose offsets are in changed into dst. A set Structure
// offset copies the whole structure. dst and src must have equal Maps.
func Apply(dst, src *structs.Struct, changed *Set) error {
	if dst.Destroyed() || src.Destroyed() {
		return fmt.Errorf("cannot apply to or from a destroyed structure: %w", errors.ErrInvalidHandle)
	}
	if !dst.Map().Equal(src.Map()) {
		return fmt.Errorf("structures %q and %q differ: %w", dst.Map().ID(), src.Map().ID(), errors.ErrTypeMismatch)
	}
	if err := Check(src.Map(), changed); err != nil {
		return err
	}
	return apply(dst, src, changed, 0)
}

func apply(dst, src *structs.Struct, changed *Set, base int) error {
	if changed.Has(base) {
		return structs.Copy(dst, src)
	}
	m := src.Map()
	for i, fd := range m.All() {
		off, _ := m.Offset(i)
		off += base
		next := changed.Next(off)
		if next < 0 {
			return nil
		}
		if next >= off+fd.Size() {
			continue
		}
		if fd.Category() == field.Structure && next != off {
			d, err := dst.GetStruct(fd.Name())
			if err != nil {
				return err
			}
			s, err := src.GetStruct(fd.Name())
			if err != nil {
				return err
			}
			if err := apply(d, s, changed, off); err != nil {
				return err
			}
			continue
		}
		if err := structs.CopyField(dst, src, fd.Name()); err != nil {
			return err
		}
	}
	return nil
}
