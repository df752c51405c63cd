package pvtext

import (
	"bytes"
	"strings"
	"testing"

	"github.com/gostdlib/base/context"

	"github.com/epics-base/pvdata/languages/go/errors"
	"github.com/epics-base/pvdata/languages/go/field"
	"github.com/epics-base/pvdata/languages/go/mapping"
	"github.com/epics-base/pvdata/languages/go/standard"
	"github.com/epics-base/pvdata/languages/go/structs"
)

func testMap() *mapping.Map {
	point := mapping.MustNewMapWithID(
		"point_t",
		mapping.MustNewScalar("x", field.Double),
		mapping.MustNewScalar("y", field.Double),
	)
	return mapping.MustNewMap(
		mapping.MustNewScalar("hello", field.Double),
		mapping.MustNewScalar("world", field.Int),
		mapping.MustNewScalarArray("data", field.Double),
		mapping.MustNewScalar("desc", field.String),
		mapping.MustNewScalarArray("names", field.String),
		mapping.MustNewScalarArray("flags", field.Boolean),
		mapping.MustNewStructure("timeStamp", standard.TimeStamp()),
		mapping.MustNewStructureArray("points", point),
	)
}

const testDescriptor = `structure
    double hello
    int world
    double[] data
    string desc
    string[] names
    boolean[] flags
    time_t timeStamp
        long secondsPastEpoch
        int nanoseconds
        int userTag
    point_t[] points
        point_t
            double x
            double y
`

func TestDescriptor(t *testing.T) {
	t.Parallel()

	got := DescriptorString(testMap())
	if got != testDescriptor {
		t.Errorf("TestDescriptor:\ngot:\n%s\nwant:\n%s", got, testDescriptor)
	}

	ctx := context.Background()
	var buf bytes.Buffer
	if err := WriteDescriptor(ctx, &buf, standard.Alarm(), WithIndent("\t")); err != nil {
		t.Fatalf("TestDescriptor: WriteDescriptor got err == %s", err)
	}
	want := "alarm_t\n\tint severity\n\tint status\n\tstring message\n"
	if buf.String() != want {
		t.Errorf("TestDescriptor(tab indent):\ngot:\n%s\nwant:\n%s", buf.String(), want)
	}
}

func TestValue(t *testing.T) {
	t.Parallel()

	s := structs.MustNew(testMap())
	defer s.Destroy()

	structs.SetScalar(s, "hello", 102.5)
	structs.SetScalar(s, "world", int32(101))
	structs.SetArray(s, "data", []float64{-10, 200})
	structs.SetScalar(s, "desc", `say "hi"`)
	structs.SetArray(s, "names", []string{"a", "b c"})
	structs.SetArray(s, "flags", []bool{true, false})
	structs.SetScalar(s, "timeStamp.nanoseconds", int32(5))
	points, _ := s.GetStructs("points")
	p, _ := points.Append()
	structs.SetScalar(p, "x", 1.0)
	structs.SetScalar(p, "y", -2.0)

	want := `structure
    double hello 102.5
    int world 101
    double[] data [-10,200]
    string desc say \"hi\"
    string[] names ["a", "b c"]
    boolean[] flags [true,false]
    time_t timeStamp
        long secondsPastEpoch 0
        int nanoseconds 5
        int userTag 0
    point_t[] points
        point_t
            double x 1
            double y -2
`
	got := ValueString(s)
	if got != want {
		t.Errorf("TestValue:\ngot:\n%s\nwant:\n%s", got, want)
	}
}

func TestValueEmptyAndDestroyed(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := mapping.MustNewMap(
		mapping.MustNewScalarArray("data", field.Int),
		mapping.MustNewScalar("ok", field.Boolean),
	)
	s := structs.MustNew(m)

	buf, err := Value(ctx, s)
	if err != nil {
		t.Fatalf("TestValueEmptyAndDestroyed: got err == %s", err)
	}
	want := "structure\n    int[] data []\n    boolean ok false\n"
	if buf.String() != want {
		t.Errorf("TestValueEmptyAndDestroyed:\ngot:\n%s\nwant:\n%s", buf.String(), want)
	}
	buf.Release(ctx)

	s.Destroy()
	if _, err := Value(ctx, s); !errors.Is(err, errors.ErrInvalidHandle) {
		t.Errorf("TestValueEmptyAndDestroyed: destroyed container got err == %v, want ErrInvalidHandle", err)
	}
}

func TestParseDescriptor(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	nt, err := standard.Scalar(field.Double, "alarm,timeStamp,display,control")
	if err != nil {
		t.Fatal(err)
	}
	for _, m := range []*mapping.Map{testMap(), nt, standard.Alarm(), mapping.MustNewMap()} {
		text := DescriptorString(m)
		got, err := ParseDescriptor(ctx, text)
		if err != nil {
			t.Errorf("TestParseDescriptor(%s): got err == %s", m.ID(), err)
			continue
		}
		if !got.Equal(m) {
			t.Errorf("TestParseDescriptor(%s): parsed Map differs, got:\n%s", m.ID(), DescriptorString(got))
		}
	}

	// Tabs, comments and blank lines.
	text := "# a definition\nmy_t\n\tdouble value\n\n\ttime_t ts\n\t\tlong secondsPastEpoch\n"
	got, err := ParseDescriptor(ctx, text)
	if err != nil {
		t.Fatalf("TestParseDescriptor(tabs): got err == %s", err)
	}
	want := mapping.MustNewMapWithID(
		"my_t",
		mapping.MustNewScalar("value", field.Double),
		mapping.MustNewStructure("ts", mapping.MustNewMapWithID("time_t", mapping.MustNewScalar("secondsPastEpoch", field.Long))),
	)
	if !got.Equal(want) {
		t.Errorf("TestParseDescriptor(tabs): got:\n%s\nwant:\n%s", DescriptorString(got), DescriptorString(want))
	}
}

func TestParseDescriptorErrors(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	tests := []struct {
		desc string
		text string
		want error
	}{
		{"empty", "", errors.ErrEncoding},
		{"only comments", "# nothing\n", errors.ErrEncoding},
		{"header with name", "structure name\n", errors.ErrEncoding},
		{"indented header", "    structure\n", errors.ErrEncoding},
		{"bad indentation", "structure\n   int x\n", errors.ErrEncoding},
		{"too deep", "structure\n        int x\n", errors.ErrEncoding},
		{"missing name", "structure\n    int\n", errors.ErrEncoding},
		{"duplicate", "structure\n    int x\n    double x\n", errors.ErrDuplicateFieldName},
		{"bad name", "structure\n    int 1x\n", errors.ErrInvalidFieldName},
		{"no element header", "structure\n    point_t[] p\n    int x\n", errors.ErrEncoding},
		{"wrong element header", "structure\n    point_t[] p\n        other_t\n", errors.ErrEncoding},
		{"field after the structure", "structure\n    int x\ndouble junk\n", errors.ErrEncoding},
		{"second structure", "structure\n    int x\nstructure\n    int y\n", errors.ErrEncoding},
		{"scalar type as ID", "double\n", errors.ErrInvalidType},
	}

	for _, test := range tests {
		_, err := ParseDescriptor(ctx, test.text)
		if !errors.Is(err, test.want) {
			t.Errorf("TestParseDescriptorErrors(%s): got err == %v, want %v", test.desc, err, test.want)
		}
	}
}

func TestParseDescriptorLineNumbers(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	tests := []struct {
		desc string
		text string
		want string
	}{
		{"header", "# comment\nstructure name\n", "[Line 2]"},
		{"field", "structure\n    int\n", "[Line 2]"},
		{"after blank line", "structure\n    int x\n\n    double\n", "[Line 4]"},
		{"trailing text", "structure\nmy thing sub\n", "[Line 2]"},
	}

	for _, test := range tests {
		_, err := ParseDescriptor(ctx, test.text)
		if err == nil {
			t.Errorf("TestParseDescriptorLineNumbers(%s): got err == nil", test.desc)
			continue
		}
		if !strings.Contains(err.Error(), test.want) {
			t.Errorf("TestParseDescriptorLineNumbers(%s): got %q, want it to contain %q", test.desc, err, test.want)
		}
	}
}

func TestDescriptorLinesMatchFields(t *testing.T) {
	t.Parallel()

	m := mapping.MustNewMap(
		mapping.MustNewScalar("hello", field.Double),
		mapping.MustNewScalar("world", field.Int),
		mapping.MustNewScalarArray("data", field.Double),
	)
	lines := strings.Split(strings.TrimSuffix(DescriptorString(m), "\n"), "\n")
	if len(lines) != m.NumFields()+1 {
		t.Fatalf("TestDescriptorLinesMatchFields: got %d lines, want %d", len(lines), m.NumFields()+1)
	}
	for i := 0; i < m.NumFields(); i++ {
		name, _ := m.FieldName(i)
		if !strings.HasSuffix(lines[i+1], " "+name) {
			t.Errorf("TestDescriptorLinesMatchFields: line %d = %q, want field %q", i+1, lines[i+1], name)
		}
	}
}
