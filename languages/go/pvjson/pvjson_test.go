package pvjson

import (
	"bytes"
	"context"
	"math"
	"testing"

	"github.com/epics-base/pvdata/languages/go/errors"
	"github.com/epics-base/pvdata/languages/go/field"
	"github.com/epics-base/pvdata/languages/go/mapping"
	"github.com/epics-base/pvdata/languages/go/pvtext"
	"github.com/epics-base/pvdata/languages/go/standard"
	"github.com/epics-base/pvdata/languages/go/structs"
)

func testMap() *mapping.Map {
	point := mapping.MustNewMapWithID(
		"point_t",
		mapping.MustNewScalar("x", field.Float),
		mapping.MustNewScalar("y", field.Float),
	)
	return mapping.MustNewMap(
		mapping.MustNewScalar("hello", field.Double),
		mapping.MustNewScalar("world", field.Int),
		mapping.MustNewScalar("flag", field.Boolean),
		mapping.MustNewScalar("big", field.ULong),
		mapping.MustNewScalar("name", field.String),
		mapping.MustNewScalarArray("data", field.Double),
		mapping.MustNewScalarArray("tags", field.String),
		mapping.MustNewStructure("timeStamp", standard.TimeStamp()),
		mapping.MustNewStructureArray("points", point),
	)
}

func fillValues(t *testing.T, s *structs.Struct) {
	t.Helper()
	structs.SetScalar(s, "hello", 102.5)
	structs.SetScalar(s, "world", int32(-101))
	structs.SetScalar(s, "flag", true)
	structs.SetScalar(s, "big", uint64(math.MaxUint64))
	structs.SetScalar(s, "name", `a "quoted" name`)
	structs.SetArray(s, "data", []float64{-10, 0.5, 200})
	structs.SetArray(s, "tags", []string{"x", "y"})
	structs.SetScalar(s, "timeStamp.secondsPastEpoch", int64(1700000000))
	points, _ := s.GetStructs("points")
	p, _ := points.Append()
	structs.SetScalar(p, "x", float32(0.1))
	structs.SetScalar(p, "y", float32(-2))
}

func TestMarshal(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := structs.MustNew(testMap())
	defer s.Destroy()
	fillValues(t, s)

	got, err := Marshal(ctx, s)
	if err != nil {
		t.Fatalf("TestMarshal: got err == %s", err)
	}
	want := `{"hello":102.5,"world":-101,"flag":true,"big":18446744073709551615,` +
		`"name":"a \"quoted\" name","data":[-10,0.5,200],"tags":["x","y"],` +
		`"timeStamp":{"secondsPastEpoch":1700000000,"nanoseconds":0,"userTag":0},` +
		`"points":[{"x":0.1,"y":-2}]}`
	if string(bytes.TrimSpace(got)) != want {
		t.Errorf("TestMarshal:\ngot:  %s\nwant: %s", got, want)
	}

	indented, err := Marshal(ctx, s, WithIndent("  "))
	if err != nil {
		t.Fatalf("TestMarshal(indent): got err == %s", err)
	}
	if !bytes.Contains(indented, []byte("\n  \"hello\"")) {
		t.Errorf("TestMarshal(indent): output not indented:\n%s", indented)
	}
}

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	src := structs.MustNew(testMap())
	defer src.Destroy()
	fillValues(t, src)

	b, err := Marshal(ctx, src)
	if err != nil {
		t.Fatalf("TestRoundTrip: Marshal got err == %s", err)
	}
	dst := structs.MustNew(testMap())
	defer dst.Destroy()
	if err := Unmarshal(ctx, b, dst); err != nil {
		t.Fatalf("TestRoundTrip: Unmarshal got err == %s", err)
	}
	if got, want := pvtext.ValueString(dst), pvtext.ValueString(src); got != want {
		t.Errorf("TestRoundTrip:\ngot:\n%s\nwant:\n%s", got, want)
	}
}

func TestNaN(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := mapping.MustNewMap(mapping.MustNewScalar("v", field.Double))
	s := structs.MustNew(m)
	defer s.Destroy()
	structs.SetScalar(s, "v", math.Inf(1))

	b, err := Marshal(ctx, s)
	if err != nil {
		t.Fatalf("TestNaN: Marshal got err == %s", err)
	}
	if string(bytes.TrimSpace(b)) != `{"v":null}` {
		t.Errorf("TestNaN: got %s, want {\"v\":null}", b)
	}
	if err := Unmarshal(ctx, b, s); err != nil {
		t.Fatalf("TestNaN: Unmarshal got err == %s", err)
	}
	v, _ := structs.GetScalar[float64](s, "v")
	if !math.IsNaN(v) {
		t.Errorf("TestNaN: got %v, want NaN", v)
	}
}

func TestUnmarshal(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	tests := []struct {
		desc    string
		json    string
		options []UnmarshalOption
		check   func(s *structs.Struct) bool
		err     error
	}{
		{
			desc: "Success: partial object leaves other fields",
			json: `{"world": 7}`,
			check: func(s *structs.Struct) bool {
				w, _ := structs.GetScalar[int32](s, "world")
				h, _ := structs.GetScalar[float64](s, "hello")
				return w == 7 && h == 0
			},
		},
		{
			desc: "Success: array sets length",
			json: `{"data": [1, 2, 3, 4]}`,
			check: func(s *structs.Struct) bool {
				n, _ := s.ArrayLen("data")
				return n == 4
			},
		},
		{
			desc:    "Success: unknown member ignored",
			json:    `{"bogus": {"a": [1, 2]}, "world": 3}`,
			options: []UnmarshalOption{WithIgnoreUnknownFields(true)},
			check: func(s *structs.Struct) bool {
				w, _ := structs.GetScalar[int32](s, "world")
				return w == 3
			},
		},
		{
			desc: "Error: unknown member",
			json: `{"bogus": 1}`,
			err:  errors.ErrFieldNotFound,
		},
		{
			desc: "Error: string for number",
			json: `{"world": "7"}`,
			err:  errors.ErrTypeMismatch,
		},
		{
			desc: "Error: fraction for int",
			json: `{"world": 7.5}`,
			err:  errors.ErrTypeMismatch,
		},
		{
			desc: "Error: int out of range",
			json: `{"world": 4294967296}`,
			err:  errors.ErrTypeMismatch,
		},
		{
			desc: "Error: number for boolean",
			json: `{"flag": 1}`,
			err:  errors.ErrTypeMismatch,
		},
		{
			desc: "Error: object for array",
			json: `{"data": {}}`,
			err:  errors.ErrTypeMismatch,
		},
		{
			desc: "Error: not an object",
			json: `[1]`,
			err:  errors.ErrTypeMismatch,
		},
		{
			desc: "Success: trailing whitespace",
			json: "{\"world\": 5}\n\t ",
			check: func(s *structs.Struct) bool {
				w, _ := structs.GetScalar[int32](s, "world")
				return w == 5
			},
		},
		{
			desc: "Error: second object",
			json: `{"world": 5} {"world": 7}`,
			err:  errors.ErrEncoding,
		},
		{
			desc: "Error: garbage after object",
			json: `{"world": 5} garbage`,
			err:  errors.ErrEncoding,
		},
		{
			desc: "Error: bad element",
			json: `{"points": [{"x": true}]}`,
			err:  errors.ErrTypeMismatch,
		},
	}

	for _, test := range tests {
		s := structs.MustNew(testMap())
		err := Unmarshal(ctx, []byte(test.json), s, test.options...)
		switch {
		case err == nil && test.err != nil:
			t.Errorf("TestUnmarshal(%s): got err == nil, want err == %s", test.desc, test.err)
		case err != nil && test.err == nil:
			t.Errorf("TestUnmarshal(%s): got err == %s, want err == nil", test.desc, err)
		case err != nil && !errors.Is(err, test.err):
			t.Errorf("TestUnmarshal(%s): got err == %s, want errors.Is(err, %s)", test.desc, err, test.err)
		case err == nil && !test.check(s):
			t.Errorf("TestUnmarshal(%s): values not as expected:\n%s", test.desc, pvtext.ValueString(s))
		}
		s.Destroy()
	}
}
