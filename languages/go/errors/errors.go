// Package errors provides an errors package for pvdata. It includes all of the stdlib's
// functions and types, the error kinds returned by the data model and a wrapper
// around github.com/gostdlib/base/errors for context aware layers.
package errors

import (
	"github.com/gostdlib/base/context"
	"github.com/gostdlib/base/errors"
)

// Category represents the category of the error.
type Category uint32

func (c Category) Category() string {
	return c.String()
}

func (c Category) String() string {
	switch c {
	case CatUser:
		return "User"
	case CatInternal:
		return "Internal"
	}
	return "Unknown"
}

const (
	// CatUnknown represents an unknown category. This should not be used.
	CatUnknown Category = Category(0) // Unknown
	// CatUser represents an error that is caused by bad user input.
	CatUser Category = Category(1) // User
	// CatInternal represents an internal error.
	CatInternal Category = Category(2) // Internal
)

// Type represents the type of the error.
type Type uint16

func (t Type) Type() string {
	return t.String()
}

func (t Type) String() string {
	if s, ok := typeNames[t]; ok {
		return s
	}
	return "Unknown"
}

const (
	// TypeUnknown represents an unknown type.
	TypeUnknown Type = Type(0) // Unknown
	// TypeBug represents a bug in the calling code. An example would be a switch statement
	// that doesn't cover all cases. The default case should return an error of this type.
	TypeBug Type = Type(1) // Bug
	// TypeParameter represents an error with a parameter that didn't pass validation.
	TypeParameter Type = Type(2) // Parameter
	// TypeFS represents an error with the file system.
	TypeFS Type = Type(5) // FS

	// TypeDuplicateFieldName is a structure built with two fields of the same name.
	TypeDuplicateFieldName Type = Type(100) // DuplicateFieldName
	// TypeIndexOutOfRange is an index or length outside the valid range.
	TypeIndexOutOfRange Type = Type(101) // IndexOutOfRange
	// TypeFieldNotFound is a name that does not resolve to a field.
	TypeFieldNotFound Type = Type(102) // FieldNotFound
	// TypeWrongCategory is an operation applied to a field of the wrong category.
	TypeWrongCategory Type = Type(103) // WrongCategory
	// TypeTypeMismatch is a value whose scalar type differs from the field's declared type.
	TypeTypeMismatch Type = Type(104) // TypeMismatch
	// TypeInvalidHandle is the use of a destroyed container, stale view or unknown handle.
	TypeInvalidHandle Type = Type(105) // InvalidHandle
	// TypeInvalidFieldName is a field name that is empty or has illegal characters.
	TypeInvalidFieldName Type = Type(106) // InvalidFieldName
	// TypeInvalidType is an unknown category or scalar type.
	TypeInvalidType Type = Type(107) // InvalidType
	// TypeNotOwner is an attempt to destroy a container that is owned by a parent.
	TypeNotOwner Type = Type(108) // NotOwner
	// TypeEncoding is malformed input to a decoder.
	TypeEncoding Type = Type(109) // Encoding
)

var typeNames = map[Type]string{
	TypeUnknown:            "Unknown",
	TypeBug:                "Bug",
	TypeParameter:          "Parameter",
	TypeFS:                 "FS",
	TypeDuplicateFieldName: "DuplicateFieldName",
	TypeIndexOutOfRange:    "IndexOutOfRange",
	TypeFieldNotFound:      "FieldNotFound",
	TypeWrongCategory:      "WrongCategory",
	TypeTypeMismatch:       "TypeMismatch",
	TypeInvalidHandle:      "InvalidHandle",
	TypeInvalidFieldName:   "InvalidFieldName",
	TypeInvalidType:        "InvalidType",
	TypeNotOwner:           "NotOwner",
	TypeEncoding:           "Encoding",
}

// The error kinds returned by the data model packages. Errors are wrapped with
// fmt.Errorf("...: %w", kind), so use Is() to branch on them.
var (
	ErrDuplicateFieldName = New("duplicate field name")
	ErrIndexOutOfRange    = New("index out of range")
	ErrFieldNotFound      = New("field not found")
	ErrWrongCategory      = New("wrong field category")
	ErrTypeMismatch       = New("scalar type mismatch")
	ErrInvalidHandle      = New("invalid handle")
	ErrInvalidFieldName   = New("invalid field name")
	ErrInvalidType        = New("invalid type")
	ErrNotOwner           = New("container is owned by a parent")
	ErrEncoding           = New("malformed encoding")
)

var kinds = []struct {
	err error
	t   Type
}{
	{ErrDuplicateFieldName, TypeDuplicateFieldName},
	{ErrIndexOutOfRange, TypeIndexOutOfRange},
	{ErrFieldNotFound, TypeFieldNotFound},
	{ErrWrongCategory, TypeWrongCategory},
	{ErrTypeMismatch, TypeTypeMismatch},
	{ErrInvalidHandle, TypeInvalidHandle},
	{ErrInvalidFieldName, TypeInvalidFieldName},
	{ErrInvalidType, TypeInvalidType},
	{ErrNotOwner, TypeNotOwner},
	{ErrEncoding, TypeEncoding},
}

// TypeOf returns the Type matching the error kind wrapped in err. If err does not wrap
// one of the kinds in this package, TypeUnknown is returned.
func TypeOf(err error) Type {
	for _, k := range kinds {
		if Is(err, k.err) {
			return k.t
		}
	}
	return TypeUnknown
}

// LogAttrer is an interface that can be implemented by an error to return a list of attributes
// used in logging.
type LogAttrer = errors.LogAttrer

// Error is the error type for this service. Error implements github.com/gostdlib/base/errors.E .
type Error = errors.Error

// EOption is an optional argument for E().
type EOption = errors.EOption

// WithSuppressTraceErr will prevent the trace as being recorded with an error status.
// The trace will still receive the error message.
func WithSuppressTraceErr() EOption {
	return errors.WithSuppressTraceErr()
}

// WithCallNum is used if you need to set the runtime.CallNum() in order to get the correct filename and line.
// This can happen if you create a call wrapper around E(), because you would then need to look up one more stack frame
// for every wrapper. This defaults to 1 which sets to the frame of the caller of E().
func WithCallNum(i int) EOption {
	return errors.WithCallNum(i)
}

// WithStackTrace will add a stack trace to the error.
func WithStackTrace() EOption {
	return errors.WithStackTrace()
}

// E creates a new Error with the given parameters.
func E(ctx context.Context, c errors.Category, t errors.Type, msg error, options ...errors.EOption) Error {
	// This makes sure we do the correct call number since we are a wrapper. Now, if they set the
	// call number, this will not override it.
	opts := make([]errors.EOption, 0, len(options)+1)
	opts = append(opts, WithCallNum(2))
	opts = append(opts, options...)

	return errors.E(ctx, c, t, msg, opts...)
}

// Kind wraps a data model error with E(). The Type is derived from the error kind and
// the Category is CatUser for every kind except TypeUnknown, which is CatInternal.
// A nil err returns nil.
func Kind(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	var already Error
	if As(err, &already) {
		return err
	}
	t := TypeOf(err)
	c := CatUser
	if t == TypeUnknown {
		c = CatInternal
	}
	return E(ctx, c, t, err, WithCallNum(3))
}
