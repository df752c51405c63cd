// Package pvtext renders descriptors and value containers as indented text for debugging,
// and parses the descriptor rendering back into a mapping.Map.
//
// A descriptor renders as its ID followed by one line per field, "<typeID> <name>", indented
// one level per nesting depth:
//
//	structure
//	    double hello
//	    int world
//	    double[] data
//	    time_t timeStamp
//	        long secondsPastEpoch
//	        int nanoseconds
//	        int userTag
//
// A value container renders the same way with the current value appended to scalar and array lines.
package pvtext

import (
	"bytes"
	"io"

	"github.com/gostdlib/base/concurrency/sync"
	"github.com/gostdlib/base/context"
	"github.com/gostdlib/base/values/sizes"

	"github.com/epics-base/pvdata/languages/go/mapping"
	"github.com/epics-base/pvdata/languages/go/structs"
)

// DefaultIndent is the text written once per nesting level.
const DefaultIndent = "    "

var bufferPool = &textPool{
	pool: sync.NewPool[*bytes.Buffer](
		context.Background(),
		"pvtext.bufferPool",
		func() *bytes.Buffer {
			b := &bytes.Buffer{}
			b.Grow(256)
			return b
		},
	),
}

// Buffer is a bytes.Buffer with a Release method to return it to the pool.
type Buffer struct {
	*bytes.Buffer
}

// Release returns the Buffer to the pool. Only use this once you are done with it.
func (b Buffer) Release(ctx context.Context) {
	bufferPool.put(ctx, b.Buffer)
}

type textPool struct {
	pool *sync.Pool[*bytes.Buffer]
}

func (t *textPool) get(ctx context.Context) *bytes.Buffer {
	return t.pool.Get(ctx)
}

func (t *textPool) put(ctx context.Context, b *bytes.Buffer) {
	if b.Cap() > 10*sizes.MiB {
		return
	}
	b.Reset()
	t.pool.Put(ctx, b)
}

// options provides options for rendering and parsing text.
type options struct {
	Indent string
}

// Option provides options for rendering and parsing text.
type Option func(options) (options, error)

// WithIndent sets the text used for one level of indentation (default is 4 spaces).
// When parsing, a tab always counts as one level.
func WithIndent(indent string) Option {
	return func(o options) (options, error) {
		o.Indent = indent
		return o, nil
	}
}

func getOptions(opts []Option) (options, error) {
	o := options{Indent: DefaultIndent}
	for _, opt := range opts {
		var err error
		o, err = opt(o)
		if err != nil {
			return o, err
		}
	}
	if o.Indent == "" {
		o.Indent = DefaultIndent
	}
	return o, nil
}

// Descriptor renders m into a pooled Buffer.
func Descriptor(ctx context.Context, m *mapping.Map, options ...Option) (Buffer, error) {
	buf := bufferPool.get(ctx)
	if err := WriteDescriptor(ctx, buf, m, options...); err != nil {
		bufferPool.put(ctx, buf)
		return Buffer{}, err
	}
	return Buffer{buf}, nil
}

// WriteDescriptor renders m to w.
func WriteDescriptor(ctx context.Context, w io.Writer, m *mapping.Map, options ...Option) error {
	opts, err := getOptions(options)
	if err != nil {
		return err
	}
	buf := bufferPool.get(ctx)
	defer bufferPool.put(ctx, buf)

	wr := writer{buf: buf, indent: opts.Indent}
	wr.descriptor(m)
	_, err = w.Write(buf.Bytes())
	return err
}

// DescriptorString renders m with the default options.
func DescriptorString(m *mapping.Map) string {
	ctx := context.Background()
	buf, err := Descriptor(ctx, m)
	if err != nil {
		return err.Error()
	}
	defer buf.Release(ctx)
	return buf.String()
}

// Value renders s into a pooled Buffer.
func Value(ctx context.Context, s *structs.Struct, options ...Option) (Buffer, error) {
	buf := bufferPool.get(ctx)
	if err := WriteValue(ctx, buf, s, options...); err != nil {
		bufferPool.put(ctx, buf)
		return Buffer{}, err
	}
	return Buffer{buf}, nil
}

// WriteValue renders s to w. A destroyed container returns ErrInvalidHandle.
func WriteValue(ctx context.Context, w io.Writer, s *structs.Struct, options ...Option) error {
	opts, err := getOptions(options)
	if err != nil {
		return err
	}
	buf := bufferPool.get(ctx)
	defer bufferPool.put(ctx, buf)

	wr := writer{buf: buf, indent: opts.Indent}
	if err := wr.value(s); err != nil {
		return err
	}
	_, err = w.Write(buf.Bytes())
	return err
}

// ValueString renders s with the default options.
func ValueString(s *structs.Struct) string {
	ctx := context.Background()
	buf, err := Value(ctx, s)
	if err != nil {
		return err.Error()
	}
	defer buf.Release(ctx)
	return buf.String()
}
