package standard

import (
	"testing"

	"github.com/kylelemons/godebug/pretty"

	"github.com/epics-base/pvdata/languages/go/errors"
	"github.com/epics-base/pvdata/languages/go/field"
	"github.com/epics-base/pvdata/languages/go/mapping"
)

func names(m *mapping.Map) []string {
	var n []string
	for _, f := range m.All() {
		n = append(n, f.Name()+":"+f.TypeID())
	}
	return n
}

func TestNormativeTypes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		desc   string
		build  func() (*mapping.Map, error)
		wantID string
		want   []string
		err    error
	}{
		{
			desc:   "scalar without properties",
			build:  func() (*mapping.Map, error) { return Scalar(field.Double, "") },
			wantID: NTScalarID,
			want:   []string{"value:double"},
		},
		{
			desc:   "scalar properties are ordered",
			build:  func() (*mapping.Map, error) { return Scalar(field.Int, "control, timeStamp,alarm,display") },
			wantID: NTScalarID,
			want: []string{
				"value:int", "alarm:alarm_t", "timeStamp:time_t", "display:display_t", "control:control_t",
			},
		},
		{
			desc:   "scalar array",
			build:  func() (*mapping.Map, error) { return ScalarArray(field.String, "alarm") },
			wantID: NTScalarArrayID,
			want:   []string{"value:string[]", "alarm:alarm_t"},
		},
		{
			desc:   "enum",
			build:  func() (*mapping.Map, error) { return Enum("timeStamp") },
			wantID: NTEnumID,
			want:   []string{"value:enum_t", "timeStamp:time_t"},
		},
		{
			desc:   "structure array",
			build:  func() (*mapping.Map, error) { return StructureArray(TimeStamp(), "") },
			wantID: NTStructureArrayID,
			want:   []string{"value:time_t[]"},
		},
		{
			desc:  "unknown property",
			build: func() (*mapping.Map, error) { return Scalar(field.Double, "alarm,valueAlarm") },
			err:   errors.ErrInvalidFieldName,
		},
		{
			desc:  "bad scalar type",
			build: func() (*mapping.Map, error) { return Scalar(field.ScalarType(99), "") },
			err:   errors.ErrInvalidType,
		},
	}

	for _, test := range tests {
		m, err := test.build()
		switch {
		case err == nil && test.err != nil:
			t.Errorf("TestNormativeTypes(%s): got err == nil, want err == %s", test.desc, test.err)
			continue
		case err != nil && test.err == nil:
			t.Errorf("TestNormativeTypes(%s): got err == %s, want err == nil", test.desc, err)
			continue
		case err != nil:
			if !errors.Is(err, test.err) {
				t.Errorf("TestNormativeTypes(%s): got err == %s, want errors.Is(err, %s)", test.desc, err, test.err)
			}
			continue
		}
		if m.ID() != test.wantID {
			t.Errorf("TestNormativeTypes(%s): ID got %q, want %q", test.desc, m.ID(), test.wantID)
		}
		if diff := pretty.Compare(test.want, names(m)); diff != "" {
			t.Errorf("TestNormativeTypes(%s): -want/+got:\n%s", test.desc, diff)
		}
	}
}

func TestPropertyStructures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		m    *mapping.Map
		id   string
		want []string
	}{
		{Alarm(), "alarm_t", []string{"severity:int", "status:int", "message:string"}},
		{TimeStamp(), "time_t", []string{"secondsPastEpoch:long", "nanoseconds:int", "userTag:int"}},
		{Display(), "display_t", []string{"limitLow:double", "limitHigh:double", "description:string", "format:string", "units:string"}},
		{Control(), "control_t", []string{"limitLow:double", "limitHigh:double", "minStep:double"}},
		{Enumerated(), "enum_t", []string{"index:int", "choices:string[]"}},
	}
	for _, test := range tests {
		if test.m.ID() != test.id {
			t.Errorf("TestPropertyStructures: got ID %q, want %q", test.m.ID(), test.id)
		}
		if diff := pretty.Compare(test.want, names(test.m)); diff != "" {
			t.Errorf("TestPropertyStructures(%s): -want/+got:\n%s", test.id, diff)
		}
	}
}
