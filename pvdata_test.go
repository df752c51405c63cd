package pvdata

import "testing"

// The numeric values cross the handle boundary and must not move.
func TestEnumValues(t *testing.T) {
	t.Parallel()

	categories := []Category{Scalar, ScalarArray, Structure, StructureArray}
	for i, c := range categories {
		if int(c) != i {
			t.Errorf("TestEnumValues(%v): got %d, want %d", c, c, i)
		}
	}
	scalars := []ScalarType{Boolean, Byte, Short, Int, Long, UByte, UShort, UInt, ULong, Float, Double, String}
	for i, st := range scalars {
		if int(st) != i {
			t.Errorf("TestEnumValues(%v): got %d, want %d", st, st, i)
		}
	}
}
