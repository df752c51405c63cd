// Package standard provides the descriptors of the well known property structures
// (alarm, timeStamp, display, control, enumerated) and of the normative types that wrap
// a value with a set of those properties.
package standard

import (
	"fmt"
	"strings"

	"github.com/epics-base/pvdata/languages/go/errors"
	"github.com/epics-base/pvdata/languages/go/field"
	"github.com/epics-base/pvdata/languages/go/mapping"
)

// IDs of the normative types.
const (
	NTScalarID         = "epics:nt/NTScalar:1.0"
	NTScalarArrayID    = "epics:nt/NTScalarArray:1.0"
	NTEnumID           = "epics:nt/NTEnum:1.0"
	NTStructureArrayID = "epics:nt/NTStructureArray:1.0"
)

// Property names, in the order they are added to a normative type.
const (
	PropAlarm     = "alarm"
	PropTimeStamp = "timeStamp"
	PropDisplay   = "display"
	PropControl   = "control"
)

var propOrder = []string{PropAlarm, PropTimeStamp, PropDisplay, PropControl}

var (
	alarm = mapping.MustNewMapWithID(
		"alarm_t",
		mapping.MustNewScalar("severity", field.Int),
		mapping.MustNewScalar("status", field.Int),
		mapping.MustNewScalar("message", field.String),
	)
	timeStamp = mapping.MustNewMapWithID(
		"time_t",
		mapping.MustNewScalar("secondsPastEpoch", field.Long),
		mapping.MustNewScalar("nanoseconds", field.Int),
		mapping.MustNewScalar("userTag", field.Int),
	)
	display = mapping.MustNewMapWithID(
		"display_t",
		mapping.MustNewScalar("limitLow", field.Double),
		mapping.MustNewScalar("limitHigh", field.Double),
		mapping.MustNewScalar("description", field.String),
		mapping.MustNewScalar("format", field.String),
		mapping.MustNewScalar("units", field.String),
	)
	control = mapping.MustNewMapWithID(
		"control_t",
		mapping.MustNewScalar("limitLow", field.Double),
		mapping.MustNewScalar("limitHigh", field.Double),
		mapping.MustNewScalar("minStep", field.Double),
	)
	enumerated = mapping.MustNewMapWithID(
		"enum_t",
		mapping.MustNewScalar("index", field.Int),
		mapping.MustNewScalarArray("choices", field.String),
	)
)

// Alarm is alarm_t: int severity, int status, string message.
func Alarm() *mapping.Map { return alarm }

// TimeStamp is time_t: long secondsPastEpoch, int nanoseconds, int userTag.
func TimeStamp() *mapping.Map { return timeStamp }

// Display is display_t: double limitLow, double limitHigh, string description, string format, string units.
func Display() *mapping.Map { return display }

// Control is control_t: double limitLow, double limitHigh, double minStep.
func Control() *mapping.Map { return control }

// Enumerated is enum_t: int index, string[] choices.
func Enumerated() *mapping.Map { return enumerated }

// Scalar returns an NTScalar with a "value" field of type t followed by the requested properties.
// properties is a comma separated list such as "alarm,timeStamp". Order in the list does
// not matter, properties are always added as alarm, timeStamp, display, control.
func Scalar(t field.ScalarType, properties string) (*mapping.Map, error) {
	v, err := mapping.NewScalar("value", t)
	if err != nil {
		return nil, err
	}
	return withProperties(NTScalarID, v, properties)
}

// ScalarArray is Scalar for a "value" that is an array of t.
func ScalarArray(t field.ScalarType, properties string) (*mapping.Map, error) {
	v, err := mapping.NewScalarArray("value", t)
	if err != nil {
		return nil, err
	}
	return withProperties(NTScalarArrayID, v, properties)
}

// Enum is Scalar for a "value" that is an enum_t.
func Enum(properties string) (*mapping.Map, error) {
	v, err := mapping.NewStructure("value", enumerated)
	if err != nil {
		return nil, err
	}
	return withProperties(NTEnumID, v, properties)
}

// StructureArray is Scalar for a "value" that is an array of m.
func StructureArray(m *mapping.Map, properties string) (*mapping.Map, error) {
	v, err := mapping.NewStructureArray("value", m)
	if err != nil {
		return nil, err
	}
	return withProperties(NTStructureArrayID, v, properties)
}

func withProperties(id string, value *mapping.FieldDescr, properties string) (*mapping.Map, error) {
	want, err := parseProperties(properties)
	if err != nil {
		return nil, err
	}
	fields := []*mapping.FieldDescr{value}
	for _, p := range propOrder {
		if !want[p] {
			continue
		}
		var m *mapping.Map
		switch p {
		case PropAlarm:
			m = alarm
		case PropTimeStamp:
			m = timeStamp
		case PropDisplay:
			m = display
		case PropControl:
			m = control
		}
		fields = append(fields, mapping.MustNewStructure(p, m))
	}
	return mapping.NewMapWithID(id, fields...)
}

func parseProperties(properties string) (map[string]bool, error) {
	want := map[string]bool{}
	for _, p := range strings.Split(properties, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		switch p {
		case PropAlarm, PropTimeStamp, PropDisplay, PropControl:
			want[p] = true
		default:
			return nil, fmt.Errorf("unsupported property %q: %w", p, errors.ErrInvalidFieldName)
		}
	}
	return want, nil
}
