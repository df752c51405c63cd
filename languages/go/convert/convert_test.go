package convert

import (
	"testing"

	"github.com/epics-base/pvdata/languages/go/errors"
	"github.com/epics-base/pvdata/languages/go/field"
	"github.com/epics-base/pvdata/languages/go/mapping"
	"github.com/epics-base/pvdata/languages/go/structs"
)

func newAll(t *testing.T) *structs.Struct {
	t.Helper()
	fields := make([]*mapping.FieldDescr, 0, len(field.ScalarTypes)+1)
	for _, st := range field.ScalarTypes {
		fields = append(fields, mapping.MustNewScalar(st.String(), st))
	}
	fields = append(fields, mapping.MustNewScalarArray("arr", field.Int))
	return structs.MustNew(mapping.MustNewMap(fields...))
}

func TestPutGetNumbers(t *testing.T) {
	t.Parallel()

	s := newAll(t)
	defer s.Destroy()

	for _, st := range field.NumberTypes {
		name := st.String()
		if err := Put(s, name, 42); err != nil {
			t.Errorf("TestPutGetNumbers(%s): Put got err == %s", name, err)
			continue
		}
		got, err := Get[float64](s, name)
		if err != nil {
			t.Errorf("TestPutGetNumbers(%s): Get got err == %s", name, err)
			continue
		}
		if got != 42 {
			t.Errorf("TestPutGetNumbers(%s): got %v, want 42", name, got)
		}
		raw, _ := s.GetAny(name)
		if Format(raw) != "42" {
			t.Errorf("TestPutGetNumbers(%s): stored %v", name, raw)
		}
	}

	// Into and out of strings.
	if err := Put(s, "string", 2.5); err != nil {
		t.Fatalf("TestPutGetNumbers: Put(string) got err == %s", err)
	}
	str, _ := structs.GetScalar[string](s, "string")
	if str != "2.5" {
		t.Errorf("TestPutGetNumbers: string field got %q, want %q", str, "2.5")
	}
	f, err := Get[float32](s, "string")
	if err != nil || f != 2.5 {
		t.Errorf("TestPutGetNumbers: Get[float32](string) got (%v, %v), want 2.5", f, err)
	}
}

func TestConvertErrors(t *testing.T) {
	t.Parallel()

	s := newAll(t)
	defer s.Destroy()
	structs.SetScalar(s, "string", "not a number")

	tests := []struct {
		desc string
		do   func() error
		want error
	}{
		{"number from boolean", func() error { _, err := Get[int](s, "boolean"); return err }, errors.ErrTypeMismatch},
		{"number into boolean", func() error { return Put(s, "boolean", 1) }, errors.ErrTypeMismatch},
		{"unparsable string", func() error { _, err := Get[int](s, "string"); return err }, errors.ErrTypeMismatch},
		{"array field", func() error { return Put(s, "arr", 1) }, errors.ErrWrongCategory},
		{"missing field", func() error { _, err := Get[int](s, "nope"); return err }, errors.ErrFieldNotFound},
		{"bad int text", func() error { return FromString(s, "int", "1.5") }, errors.ErrTypeMismatch},
		{"byte overflow", func() error { return FromString(s, "byte", "300") }, errors.ErrTypeMismatch},
		{"negative ulong", func() error { return FromString(s, "ulong", "-1") }, errors.ErrTypeMismatch},
		{"bad boolean", func() error { return FromString(s, "boolean", "yes") }, errors.ErrTypeMismatch},
	}
	for _, test := range tests {
		if err := test.do(); !errors.Is(err, test.want) {
			t.Errorf("TestConvertErrors(%s): got err == %v, want %v", test.desc, err, test.want)
		}
	}
}

func TestStringRoundTrip(t *testing.T) {
	t.Parallel()

	s := newAll(t)
	defer s.Destroy()

	tests := []struct {
		name string
		text string
	}{
		{"boolean", "true"},
		{"byte", "-128"},
		{"short", "32767"},
		{"int", "-5"},
		{"long", "9223372036854775807"},
		{"ubyte", "255"},
		{"ushort", "65535"},
		{"uint", "4294967295"},
		{"ulong", "18446744073709551615"},
		{"float", "0.1"},
		{"double", "-10.25"},
		{"string", "hello world"},
	}
	for _, test := range tests {
		if err := FromString(s, test.name, test.text); err != nil {
			t.Errorf("TestStringRoundTrip(%s): FromString got err == %s", test.name, err)
			continue
		}
		got, err := ToString(s, test.name)
		if err != nil {
			t.Errorf("TestStringRoundTrip(%s): ToString got err == %s", test.name, err)
			continue
		}
		if got != test.text {
			t.Errorf("TestStringRoundTrip(%s): got %q, want %q", test.name, got, test.text)
		}
	}
}
