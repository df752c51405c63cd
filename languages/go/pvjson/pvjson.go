// Package pvjson converts value containers to and from JSON. A container becomes an object
// with one member per field in declaration order. Arrays become JSON arrays, structure
// arrays become arrays of objects. NaN and infinite floating point values are written as null.
package pvjson

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/go-json-experiment/json/jsontext"

	"github.com/epics-base/pvdata/languages/go/errors"
	"github.com/epics-base/pvdata/languages/go/structs"
)

// marshalOptions provides options for writing containers to JSON.
type marshalOptions struct {
	Indent string
}

// MarshalOption provides options for marshaling a container to JSON.
type MarshalOption func(marshalOptions) (marshalOptions, error)

// WithIndent writes multiline JSON using indent for each level.
func WithIndent(indent string) MarshalOption {
	return func(m marshalOptions) (marshalOptions, error) {
		m.Indent = indent
		return m, nil
	}
}

// Marshal marshals the container to JSON.
func Marshal(ctx context.Context, s *structs.Struct, options ...MarshalOption) ([]byte, error) {
	var buf bytes.Buffer
	if err := MarshalWriter(ctx, s, &buf, options...); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// MarshalWriter marshals the container to JSON, writing to the provided io.Writer.
func MarshalWriter(ctx context.Context, s *structs.Struct, w io.Writer, options ...MarshalOption) error {
	opts := marshalOptions{}
	for _, opt := range options {
		var err error
		opts, err = opt(opts)
		if err != nil {
			return err
		}
	}
	var encOpts []jsontext.Options
	if opts.Indent != "" {
		encOpts = append(encOpts, jsontext.WithIndent(opts.Indent))
	}
	enc := jsontext.NewEncoder(w, encOpts...)
	if err := writeStruct(enc, s); err != nil {
		return errors.Kind(ctx, err)
	}
	return nil
}

// unmarshalOptions provides options for reading JSON into containers.
type unmarshalOptions struct {
	IgnoreUnknownFields bool
}

// UnmarshalOption provides options for unmarshaling JSON into a container.
type UnmarshalOption func(unmarshalOptions) (unmarshalOptions, error)

// WithIgnoreUnknownFields configures whether members that name no field are skipped.
// By default they fail with errors.ErrFieldNotFound.
func WithIgnoreUnknownFields(ignore bool) UnmarshalOption {
	return func(u unmarshalOptions) (unmarshalOptions, error) {
		u.IgnoreUnknownFields = ignore
		return u, nil
	}
}

// Unmarshal reads a JSON object into s. Anything but whitespace after the object fails
// with errors.ErrEncoding. Members that are absent leave their field untouched.
// Arrays replace the whole array, including its length.
func Unmarshal(ctx context.Context, data []byte, s *structs.Struct, options ...UnmarshalOption) error {
	return UnmarshalReader(ctx, bytes.NewReader(data), s, options...)
}

// UnmarshalReader is Unmarshal reading from r.
func UnmarshalReader(ctx context.Context, r io.Reader, s *structs.Struct, options ...UnmarshalOption) error {
	opts := unmarshalOptions{}
	for _, opt := range options {
		var err error
		opts, err = opt(opts)
		if err != nil {
			return err
		}
	}
	d := decoder{dec: jsontext.NewDecoder(r), opts: opts}
	if err := d.object(s); err != nil {
		return errors.Kind(ctx, err)
	}
	if _, err := d.dec.ReadToken(); !errors.Is(err, io.EOF) {
		return errors.Kind(ctx, fmt.Errorf("input continues after the %s object: %w", s.Map().ID(), errors.ErrEncoding))
	}
	return nil
}
