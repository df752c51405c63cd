package mapping

import (
	"fmt"
	"testing"

	"github.com/kylelemons/godebug/pretty"

	"github.com/epics-base/pvdata/languages/go/errors"
	"github.com/epics-base/pvdata/languages/go/field"
)

func timeMap() *Map {
	return MustNewMapWithID(
		"time_t",
		MustNewScalar("secondsPastEpoch", field.Long),
		MustNewScalar("nanoseconds", field.Int),
		MustNewScalar("userTag", field.Int),
	)
}

func TestFieldNamesInOrder(t *testing.T) {
	t.Parallel()

	for n := 0; n < 20; n++ {
		fields := make([]*FieldDescr, 0, n)
		want := make([]string, 0, n)
		for i := 0; i < n; i++ {
			name := fmt.Sprintf("f%d", i)
			want = append(want, name)
			fields = append(fields, MustNewScalar(name, field.ScalarTypes[i%len(field.ScalarTypes)]))
		}
		m, err := NewMap(fields...)
		if err != nil {
			t.Fatalf("TestFieldNamesInOrder(%d): got err == %s, want err == nil", n, err)
		}
		if m.NumFields() != n {
			t.Errorf("TestFieldNamesInOrder(%d): NumFields() got %d, want %d", n, m.NumFields(), n)
		}
		got := make([]string, 0, n)
		for i := 0; i < m.NumFields(); i++ {
			name, err := m.FieldName(i)
			if err != nil {
				t.Fatalf("TestFieldNamesInOrder(%d): FieldName(%d) got err == %s", n, i, err)
			}
			got = append(got, name)
		}
		if diff := pretty.Compare(want, got); diff != "" {
			t.Errorf("TestFieldNamesInOrder(%d): -want/+got:\n%s", n, diff)
		}
	}
}

func TestNewMapErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		fields func() ([]*FieldDescr, error)
		want   error
	}{
		{
			name: "Error: duplicate name",
			fields: func() ([]*FieldDescr, error) {
				return []*FieldDescr{MustNewScalar("x", field.Int), MustNewScalar("x", field.Double)}, nil
			},
			want: errors.ErrDuplicateFieldName,
		},
		{
			name: "Error: empty name",
			fields: func() ([]*FieldDescr, error) {
				f, err := NewScalar("", field.Int)
				return []*FieldDescr{f}, err
			},
			want: errors.ErrInvalidFieldName,
		},
		{
			name: "Error: name starts with digit",
			fields: func() ([]*FieldDescr, error) {
				f, err := NewScalarArray("1abc", field.Int)
				return []*FieldDescr{f}, err
			},
			want: errors.ErrInvalidFieldName,
		},
		{
			name: "Error: name with dot",
			fields: func() ([]*FieldDescr, error) {
				f, err := NewScalar("a.b", field.Int)
				return []*FieldDescr{f}, err
			},
			want: errors.ErrInvalidFieldName,
		},
		{
			name: "Error: bad scalar type",
			fields: func() ([]*FieldDescr, error) {
				f, err := NewScalar("a", field.ScalarType(12))
				return []*FieldDescr{f}, err
			},
			want: errors.ErrInvalidType,
		},
		{
			name: "Error: nil nested map",
			fields: func() ([]*FieldDescr, error) {
				f, err := NewStructure("a", nil)
				return []*FieldDescr{f}, err
			},
			want: errors.ErrInvalidType,
		},
		{
			name: "Error: nil field",
			fields: func() ([]*FieldDescr, error) {
				return []*FieldDescr{nil}, nil
			},
			want: errors.ErrInvalidType,
		},
		{
			name: "Error: ID with a space",
			fields: func() ([]*FieldDescr, error) {
				_, err := NewMapWithID("my thing", MustNewScalar("x", field.Int))
				return nil, err
			},
			want: errors.ErrInvalidType,
		},
		{
			name: "Error: ID is a scalar type",
			fields: func() ([]*FieldDescr, error) {
				_, err := NewMapWithID("double", MustNewScalar("x", field.Int))
				return nil, err
			},
			want: errors.ErrInvalidType,
		},
		{
			name: "Error: ID is a scalar array type",
			fields: func() ([]*FieldDescr, error) {
				_, err := NewMapWithID("int[]")
				return nil, err
			},
			want: errors.ErrInvalidType,
		},
		{
			name: "Error: ID starts a comment",
			fields: func() ([]*FieldDescr, error) {
				_, err := NewMapWithID("#x")
				return nil, err
			},
			want: errors.ErrInvalidType,
		},
		{
			name: "Success: normative type ID",
			fields: func() ([]*FieldDescr, error) {
				_, err := NewMapWithID("epics:nt/NTScalar:1.0", MustNewScalar("value", field.Double))
				return nil, err
			},
		},
		{
			name: "Success: same name at different levels",
			fields: func() ([]*FieldDescr, error) {
				inner := MustNewMap(MustNewScalar("x", field.Int))
				return []*FieldDescr{MustNewScalar("x", field.Int), MustNewStructure("s", inner)}, nil
			},
		},
	}

	for _, test := range tests {
		fields, err := test.fields()
		if err == nil {
			_, err = NewMap(fields...)
		}
		switch {
		case err == nil && test.want != nil:
			t.Errorf("TestNewMapErrors(%s): got err == nil, want err == %s", test.name, test.want)
			continue
		case err != nil && test.want == nil:
			t.Errorf("TestNewMapErrors(%s): got err == %s, want err == nil", test.name, err)
			continue
		case err != nil && !errors.Is(err, test.want):
			t.Errorf("TestNewMapErrors(%s): got err == %s, want errors.Is(err, %s)", test.name, err, test.want)
		}
	}
}

func TestIntrospection(t *testing.T) {
	t.Parallel()

	m := MustNewMap(
		MustNewScalar("hello", field.Double),
		MustNewScalar("world", field.Int),
		MustNewScalarArray("data", field.Double),
		MustNewStructure("timeStamp", timeMap()),
		MustNewStructureArray("items", timeMap()),
	)

	tests := []struct {
		name    string
		index   int
		cat     field.Category
		scalar  field.ScalarType
		elem    field.ScalarType
		catErr  error
		scalErr error
		elemErr error
	}{
		{name: "scalar", index: 0, cat: field.Scalar, scalar: field.Double, elemErr: errors.ErrWrongCategory},
		{name: "int scalar", index: 1, cat: field.Scalar, scalar: field.Int, elemErr: errors.ErrWrongCategory},
		{name: "array", index: 2, cat: field.ScalarArray, scalar: field.Double, elem: field.Double},
		{name: "structure", index: 3, cat: field.Structure, scalErr: errors.ErrWrongCategory, elemErr: errors.ErrWrongCategory},
		{name: "structure array", index: 4, cat: field.StructureArray, scalErr: errors.ErrWrongCategory, elemErr: errors.ErrWrongCategory},
		{name: "negative", index: -1, catErr: errors.ErrIndexOutOfRange, scalErr: errors.ErrIndexOutOfRange, elemErr: errors.ErrIndexOutOfRange},
		{name: "past end", index: 5, catErr: errors.ErrIndexOutOfRange, scalErr: errors.ErrIndexOutOfRange, elemErr: errors.ErrIndexOutOfRange},
	}

	for _, test := range tests {
		c, err := m.FieldCategory(test.index)
		if !errors.Is(err, test.catErr) {
			t.Errorf("TestIntrospection(%s): FieldCategory() got err == %v, want %v", test.name, err, test.catErr)
		}
		if err == nil && c != test.cat {
			t.Errorf("TestIntrospection(%s): FieldCategory() got %v, want %v", test.name, c, test.cat)
		}
		s, err := m.ScalarType(test.index)
		if !errors.Is(err, test.scalErr) {
			t.Errorf("TestIntrospection(%s): ScalarType() got err == %v, want %v", test.name, err, test.scalErr)
		}
		if err == nil && s != test.scalar {
			t.Errorf("TestIntrospection(%s): ScalarType() got %v, want %v", test.name, s, test.scalar)
		}
		e, err := m.ElementType(test.index)
		if !errors.Is(err, test.elemErr) {
			t.Errorf("TestIntrospection(%s): ElementType() got err == %v, want %v", test.name, err, test.elemErr)
		}
		if err == nil && e != test.elem {
			t.Errorf("TestIntrospection(%s): ElementType() got %v, want %v", test.name, e, test.elem)
		}
	}

	if _, err := m.FieldName(5); !errors.Is(err, errors.ErrIndexOutOfRange) {
		t.Errorf("TestIntrospection: FieldName(5) got err == %v, want ErrIndexOutOfRange", err)
	}
}

func TestFindField(t *testing.T) {
	t.Parallel()

	m := MustNewMap(
		MustNewScalar("hello", field.Double),
		MustNewScalar("world", field.Int),
		MustNewScalarArray("data", field.Double),
	)

	tests := []struct {
		name string
		want int
	}{
		{"hello", 0},
		{"world", 1},
		{"data", 2},
		{"nonexistent", NotFound},
		{"", NotFound},
		{"Hello", NotFound},
	}

	for _, test := range tests {
		got := m.FindField(test.name)
		if got != test.want {
			t.Errorf("TestFindField(%q): got %d, want %d", test.name, got, test.want)
		}
		if test.want == NotFound && got >= 0 && got < m.NumFields() {
			t.Errorf("TestFindField(%q): sentinel %d is a valid index", test.name, got)
		}
	}
}

func TestLookup(t *testing.T) {
	t.Parallel()

	m := MustNewMap(
		MustNewScalar("value", field.Double),
		MustNewStructure("timeStamp", timeMap()),
		MustNewStructureArray("history", timeMap()),
	)

	tests := []struct {
		desc    string
		path    string
		want    string
		wantIdx []int
		err     error
	}{
		{desc: "Success: top level", path: "value", want: "value", wantIdx: []int{0}},
		{desc: "Success: nested", path: "timeStamp.nanoseconds", want: "nanoseconds", wantIdx: []int{1, 1}},
		{desc: "Error: missing leaf", path: "timeStamp.bogus", err: errors.ErrFieldNotFound},
		{desc: "Error: missing top", path: "bogus.nanoseconds", err: errors.ErrFieldNotFound},
		{desc: "Error: through scalar", path: "value.x", err: errors.ErrWrongCategory},
		{desc: "Error: through structure array", path: "history.userTag", err: errors.ErrWrongCategory},
		{desc: "Error: empty", path: "", err: errors.ErrFieldNotFound},
	}

	for _, test := range tests {
		f, idx, err := m.Lookup(test.path)
		switch {
		case err == nil && test.err != nil:
			t.Errorf("TestLookup(%s): got err == nil, want err == %s", test.desc, test.err)
			continue
		case err != nil && test.err == nil:
			t.Errorf("TestLookup(%s): got err == %s, want err == nil", test.desc, err)
			continue
		case err != nil:
			if !errors.Is(err, test.err) {
				t.Errorf("TestLookup(%s): got err == %s, want errors.Is(err, %s)", test.desc, err, test.err)
			}
			continue
		}
		if f.Name() != test.want {
			t.Errorf("TestLookup(%s): got field %q, want %q", test.desc, f.Name(), test.want)
		}
		if diff := pretty.Compare(test.wantIdx, idx); diff != "" {
			t.Errorf("TestLookup(%s): index -want/+got:\n%s", test.desc, diff)
		}
	}
}

func TestTypeIDAndEqual(t *testing.T) {
	t.Parallel()

	m := MustNewMap(
		MustNewScalar("a", field.UShort),
		MustNewScalarArray("b", field.String),
		MustNewStructure("c", timeMap()),
		MustNewStructureArray("d", timeMap()),
	)
	var got []string
	for _, f := range m.All() {
		got = append(got, f.TypeID())
	}
	want := []string{"ushort", "string[]", "time_t", "time_t[]"}
	if diff := pretty.Compare(want, got); diff != "" {
		t.Errorf("TestTypeIDAndEqual: TypeID -want/+got:\n%s", diff)
	}

	if m.ID() != DefaultID {
		t.Errorf("TestTypeIDAndEqual: ID() got %q, want %q", m.ID(), DefaultID)
	}

	same := MustNewMap(
		MustNewScalar("a", field.UShort),
		MustNewScalarArray("b", field.String),
		MustNewStructure("c", timeMap()),
		MustNewStructureArray("d", timeMap()),
	)
	if !m.Equal(same) {
		t.Errorf("TestTypeIDAndEqual: Equal() got false for identical shapes")
	}
	other := MustNewMapWithID("other", MustNewScalar("a", field.UShort))
	if m.Equal(other) {
		t.Errorf("TestTypeIDAndEqual: Equal() got true for different shapes")
	}
}
