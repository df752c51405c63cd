// Package wire encodes descriptors and value containers in the pvData binary format.
//
// A descriptor is written as type codes: one byte per scalar or scalar array field, and for
// a structure 0x80 followed by its ID, its field count and each (name, field) pair. A
// structure array is 0x88 followed by its element structure. A value is written field by
// field in declaration order with no type information, so it can only be read against the
// descriptor it was written with.
//
// Marshal joins both into a frame that Unmarshal turns back into a new container:
//
//	[compressor][flags][payload: descriptor + value, compressed as the first byte says]
//
// Bit 7 of flags is set when the payload is big endian.
//
// EncodeChanged and DecodeChanged carry only the fields named by a patch.Set, for sending
// updates to a peer that already holds the rest of the value.
package wire

import (
	"bytes"
	"fmt"

	"github.com/gostdlib/base/concurrency/sync"
	"github.com/gostdlib/base/context"
	"github.com/gostdlib/base/telemetry/otel/trace/span"
	"github.com/gostdlib/base/values/sizes"
	"go.opentelemetry.io/otel/attribute"

	"github.com/epics-base/pvdata/internal/binary"
	"github.com/epics-base/pvdata/internal/bits"
	"github.com/epics-base/pvdata/languages/go/compress"
	"github.com/epics-base/pvdata/languages/go/errors"
	"github.com/epics-base/pvdata/languages/go/mapping"
	"github.com/epics-base/pvdata/languages/go/structs"
)

// ByteOrder selects the byte order of numbers in the payload.
type ByteOrder uint8

const (
	LittleEndian ByteOrder = 0
	BigEndian    ByteOrder = 1
)

func (b ByteOrder) String() string {
	if b == BigEndian {
		return "big endian"
	}
	return "little endian"
}

func (b ByteOrder) order() binary.Order {
	if b == BigEndian {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

const (
	headerSize = 2
	// bigEndianBit is the flags bit set for big endian payloads.
	bigEndianBit = 7
)

var bufferPool = sync.NewPool[*bytes.Buffer](
	context.Background(),
	"wire.bufferPool",
	func() *bytes.Buffer {
		b := &bytes.Buffer{}
		b.Grow(512)
		return b
	},
)

func newWriter(ctx context.Context, order ByteOrder) *writer {
	return &writer{order: order.order(), buf: bufferPool.Get(ctx)}
}

func (w *writer) release(ctx context.Context) {
	if w.buf.Cap() > 10*sizes.MiB {
		return
	}
	w.buf.Reset()
	bufferPool.Put(ctx, w.buf)
}

// options provides options for encoding.
type options struct {
	ByteOrder   ByteOrder
	Compression compress.Type
}

// Option provides options for encoding.
type Option func(options) (options, error)

// WithByteOrder sets the byte order. The default is little endian.
func WithByteOrder(order ByteOrder) Option {
	return func(o options) (options, error) {
		if order != LittleEndian && order != BigEndian {
			return o, fmt.Errorf("unknown byte order %d", order)
		}
		o.ByteOrder = order
		return o, nil
	}
}

// WithCompression compresses the Marshal payload. It must be registered in package compress.
// It has no effect on the Encode and Decode functions.
func WithCompression(t compress.Type) Option {
	return func(o options) (options, error) {
		if t != compress.CmpNone && compress.Get(t) == nil {
			return o, fmt.Errorf("compressor %v is not registered", t)
		}
		o.Compression = t
		return o, nil
	}
}

func getOptions(opts []Option) (options, error) {
	o := options{}
	for _, opt := range opts {
		var err error
		o, err = opt(o)
		if err != nil {
			return o, err
		}
	}
	return o, nil
}

// EncodeMap returns the introspection encoding of m.
func EncodeMap(ctx context.Context, m *mapping.Map, options ...Option) ([]byte, error) {
	if m == nil {
		return nil, errors.Kind(ctx, fmt.Errorf("nil Map: %w", errors.ErrInvalidType))
	}
	opts, err := getOptions(options)
	if err != nil {
		return nil, errors.E(ctx, errors.CatUser, errors.TypeParameter, err)
	}
	w := newWriter(ctx, opts.ByteOrder)
	defer w.release(ctx)
	w.mapping(m)
	return bytes.Clone(w.buf.Bytes()), nil
}

// DecodeMap reads a Map written by EncodeMap. All of data must be consumed.
func DecodeMap(ctx context.Context, data []byte, options ...Option) (*mapping.Map, error) {
	opts, err := getOptions(options)
	if err != nil {
		return nil, errors.E(ctx, errors.CatUser, errors.TypeParameter, err)
	}
	r := &reader{order: opts.ByteOrder.order(), b: data}
	m, err := r.mapping(0)
	if err == nil {
		err = r.done()
	}
	if err != nil {
		return nil, errors.Kind(ctx, err)
	}
	return m, nil
}

// EncodeValue returns the value encoding of s, without its descriptor.
func EncodeValue(ctx context.Context, s *structs.Struct, options ...Option) ([]byte, error) {
	opts, err := getOptions(options)
	if err != nil {
		return nil, errors.E(ctx, errors.CatUser, errors.TypeParameter, err)
	}
	w := newWriter(ctx, opts.ByteOrder)
	defer w.release(ctx)
	if err := w.value(s); err != nil {
		return nil, errors.Kind(ctx, err)
	}
	return bytes.Clone(w.buf.Bytes()), nil
}

// DecodeValue fills s from data written by EncodeValue for a container with the same
// descriptor. All of data must be consumed.
func DecodeValue(ctx context.Context, data []byte, s *structs.Struct, options ...Option) error {
	opts, err := getOptions(options)
	if err != nil {
		return errors.E(ctx, errors.CatUser, errors.TypeParameter, err)
	}
	r := &reader{order: opts.ByteOrder.order(), b: data}
	err = r.value(s)
	if err == nil {
		err = r.done()
	}
	return errors.Kind(ctx, err)
}

// Marshal encodes the descriptor and value of s into one frame.
func Marshal(ctx context.Context, s *structs.Struct, options ...Option) (frame []byte, err error) {
	ctx, sp := span.New(ctx, span.WithName("wire.Marshal"))
	defer func() {
		if err != nil {
			sp.Span.RecordError(err)
		}
		sp.End()
	}()

	opts, err := getOptions(options)
	if err != nil {
		return nil, errors.E(ctx, errors.CatUser, errors.TypeParameter, err)
	}
	if s.Destroyed() {
		return nil, errors.Kind(ctx, fmt.Errorf("wire: %w", errors.ErrInvalidHandle))
	}

	w := newWriter(ctx, opts.ByteOrder)
	defer w.release(ctx)
	w.mapping(s.Map())
	if err := w.value(s); err != nil {
		return nil, errors.Kind(ctx, err)
	}
	payload, err := compress.Compress(opts.Compression, w.buf.Bytes())
	if err != nil {
		return nil, errors.E(ctx, errors.CatInternal, errors.TypeEncoding, err)
	}

	flags := bits.SetBit(byte(0), bigEndianBit, opts.ByteOrder == BigEndian)
	frame = make([]byte, 0, headerSize+len(payload))
	frame = append(frame, byte(opts.Compression), flags)
	frame = append(frame, payload...)

	sp.Span.SetAttributes(
		attribute.String("pvdata.structure.id", s.Map().ID()),
		attribute.String("pvdata.wire.compression", opts.Compression.String()),
		attribute.Int("pvdata.wire.payload_size", w.buf.Len()),
		attribute.Int("pvdata.wire.frame_size", len(frame)),
	)
	return frame, nil
}

// Unmarshal decodes a frame written by Marshal into a new container. The caller owns the
// container and must Destroy it.
func Unmarshal(ctx context.Context, frame []byte, options ...structs.NewOption) (s *structs.Struct, err error) {
	ctx, sp := span.New(ctx, span.WithName("wire.Unmarshal"))
	defer func() {
		if err != nil {
			sp.Span.RecordError(err)
		}
		sp.End()
	}()

	if len(frame) < headerSize {
		return nil, errors.Kind(ctx, fmt.Errorf("frame of %d bytes has no header: %w", len(frame), errors.ErrEncoding))
	}
	ct := compress.Type(frame[0])
	order := LittleEndian
	if bits.GetBit(frame[1], bigEndianBit) {
		order = BigEndian
	}
	payload, err := compress.Decompress(ct, frame[headerSize:])
	if err != nil {
		return nil, errors.Kind(ctx, fmt.Errorf("%v payload: %w: %w", ct, err, errors.ErrEncoding))
	}

	r := &reader{order: order.order(), b: payload}
	m, err := r.mapping(0)
	if err != nil {
		return nil, errors.Kind(ctx, err)
	}
	s, err = structs.New(m, options...)
	if err != nil {
		return nil, errors.Kind(ctx, err)
	}
	err = r.value(s)
	if err == nil {
		err = r.done()
	}
	if err != nil {
		s.Destroy()
		return nil, errors.Kind(ctx, err)
	}
	sp.Span.SetAttributes(
		attribute.String("pvdata.structure.id", m.ID()),
		attribute.String("pvdata.wire.compression", ct.String()),
		attribute.Int("pvdata.wire.frame_size", len(frame)),
	)
	return s, nil
}
