// Package pvdata is the root of a self describing structured data model. Descriptors
// (package mapping) describe ordered, named fields. Value containers (package structs) hold
// the data for a descriptor.
//
// This package re-exports the field enumerations for convenience.
package pvdata

import (
	"github.com/epics-base/pvdata/languages/go/field"
)

// Category is the shape of a field.
type Category = field.Category

const (
	Scalar         = field.Scalar
	ScalarArray    = field.ScalarArray
	Structure      = field.Structure
	StructureArray = field.StructureArray
)

// ScalarType is the primitive type held by a scalar or scalar array field.
type ScalarType = field.ScalarType

const (
	Boolean = field.Boolean
	Byte    = field.Byte
	Short   = field.Short
	Int     = field.Int
	Long    = field.Long
	UByte   = field.UByte
	UShort  = field.UShort
	UInt    = field.UInt
	ULong   = field.ULong
	Float   = field.Float
	Double  = field.Double
	String  = field.String
)
