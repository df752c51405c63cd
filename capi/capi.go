// Package capi is a handle based interface to descriptors and value containers, for hosts
// that cannot hold Go pointers. An Arena owns every object it creates and hands out typed
// handles. A handle carries a generation, so using it after its object was destroyed fails
// with errors.ErrInvalidHandle instead of reaching a different object that reused the slot.
//
// Introspection calls accept either kind of handle. For a PVStructureHandle they describe the
// descriptor the container was created from.
package capi

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/gostdlib/base/concurrency/sync"
	"github.com/gostdlib/base/context"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/epics-base/pvdata/languages/go/errors"
	"github.com/epics-base/pvdata/languages/go/field"
	"github.com/epics-base/pvdata/languages/go/mapping"
	"github.com/epics-base/pvdata/languages/go/pvtext"
	"github.com/epics-base/pvdata/languages/go/structs"
)

// NotFound is returned by GetSubfield for a name that is not a field.
const NotFound = mapping.NotFound

// Handle is either a StructureHandle or a PVStructureHandle.
type Handle interface {
	ref() ref
}

// StructureHandle refers to a descriptor. The zero value is never valid.
type StructureHandle uint64

func (h StructureHandle) ref() ref { return ref{raw: uint64(h), kind: kindStructure} }

// PVStructureHandle refers to a value container. The zero value is never valid.
type PVStructureHandle uint64

func (h PVStructureHandle) ref() ref { return ref{raw: uint64(h), kind: kindPVStructure} }

type kind uint8

const (
	kindFree kind = iota
	kindStructure
	kindPVStructure
)

func (k kind) String() string {
	switch k {
	case kindStructure:
		return "structure"
	case kindPVStructure:
		return "pvstructure"
	}
	return "free"
}

// ref is a handle split into its slot index and generation.
type ref struct {
	raw  uint64
	kind kind
}

func (r ref) index() uint32 { return uint32(r.raw) }
func (r ref) gen() uint32   { return uint32(r.raw >> 32) }

func pack(index, gen uint32) uint64 {
	return uint64(gen)<<32 | uint64(index)
}

type slot struct {
	gen  uint32
	kind kind
	m    *mapping.Map
	s    *structs.Struct
}

// FieldVariant describes one field passed to CreateStructureVariant. ScalarType is used by
// the scalar categories, Structure by the structure categories, where it names the nested
// descriptor or the element descriptor of a structure array.
type FieldVariant struct {
	Name       string
	Type       field.Category
	ScalarType field.ScalarType
	Structure  StructureHandle
}

// Option is an optional argument to New.
type Option func(options) (options, error)

type options struct {
	meterProvider metric.MeterProvider
}

// WithMeterProvider sets the MeterProvider the live handle gauge is created on.
// By default the meter comes from context.Meter(ctx).
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(o options) (options, error) {
		if mp == nil {
			return o, fmt.Errorf("nil MeterProvider")
		}
		o.meterProvider = mp
		return o, nil
	}
}

// Arena owns descriptors and containers created through handles. It is safe for concurrent
// use, but a single container must still only be used by one goroutine at a time.
type Arena struct {
	// ctx is only used to attach telemetry to returned errors.
	ctx context.Context

	mu    sync.RWMutex
	slots []slot
	free  []uint32

	live metric.Int64UpDownCounter
}

// New creates an Arena.
func New(ctx context.Context, opts ...Option) (*Arena, error) {
	o := options{}
	for _, opt := range opts {
		var err error
		o, err = opt(o)
		if err != nil {
			return nil, errors.E(ctx, errors.CatUser, errors.TypeParameter, err)
		}
	}

	var meter metric.Meter
	if o.meterProvider != nil {
		meter = o.meterProvider.Meter("pvdata-capi")
	} else {
		meter = context.Meter(ctx)
	}
	live, err := meter.Int64UpDownCounter(
		"pvdata.capi.live_handles",
		metric.WithDescription("Number of descriptors and containers held by handle"),
	)
	if err != nil {
		return nil, errors.E(ctx, errors.CatInternal, errors.TypeBug, err)
	}

	return &Arena{ctx: ctx, live: live}, nil
}

func (a *Arena) err(err error) error {
	return errors.Kind(a.ctx, err)
}

func (a *Arena) count(k kind, n int64) {
	a.live.Add(a.ctx, n, metric.WithAttributes(attribute.String("kind", k.String())))
}

// alloc stores an object and returns its handle. Callers hold a.mu.
func (a *Arena) alloc(s slot) uint64 {
	var i uint32
	if n := len(a.free); n > 0 {
		i = a.free[n-1]
		a.free = a.free[:n-1]
		s.gen = a.slots[i].gen
	} else {
		i = uint32(len(a.slots))
		s.gen = 1
		a.slots = append(a.slots, slot{})
	}
	a.slots[i] = s
	a.count(s.kind, 1)
	return pack(i, s.gen)
}

// release frees a slot and bumps its generation. Callers hold a.mu.
func (a *Arena) release(i uint32) {
	sl := &a.slots[i]
	a.count(sl.kind, -1)
	gen := sl.gen + 1
	if gen == 0 {
		gen = 1
	}
	*sl = slot{gen: gen}
	a.free = append(a.free, i)
}

// lookup returns the slot r refers to. Callers hold a.mu.
func (a *Arena) lookup(r ref) (*slot, error) {
	i := r.index()
	if int(i) >= len(a.slots) {
		return nil, fmt.Errorf("handle %#x: %w", r.raw, errors.ErrInvalidHandle)
	}
	sl := &a.slots[i]
	if sl.kind != r.kind || sl.gen != r.gen() {
		return nil, fmt.Errorf("handle %#x is not a live %v: %w", r.raw, r.kind, errors.ErrInvalidHandle)
	}
	return sl, nil
}

func (a *Arena) mapOf(h Handle) (*mapping.Map, error) {
	if h == nil {
		return nil, fmt.Errorf("nil handle: %w", errors.ErrInvalidHandle)
	}
	sl, err := a.lookup(h.ref())
	if err != nil {
		return nil, err
	}
	if sl.kind == kindPVStructure {
		return sl.s.Map(), nil
	}
	return sl.m, nil
}

func (a *Arena) pv(h PVStructureHandle) (*structs.Struct, error) {
	sl, err := a.lookup(h.ref())
	if err != nil {
		return nil, err
	}
	return sl.s, nil
}

// CreateStructureVariant builds a descriptor from fields. An empty id gives the default
// ID "structure". Nested descriptors are shared, so destroying them afterwards does not
// affect the new one.
func (a *Arena) CreateStructureVariant(id string, fields []FieldVariant) (StructureHandle, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	descrs := make([]*mapping.FieldDescr, 0, len(fields))
	for _, f := range fields {
		fd, err := a.variant(f)
		if err != nil {
			return 0, a.err(err)
		}
		descrs = append(descrs, fd)
	}
	m, err := mapping.NewMapWithID(id, descrs...)
	if err != nil {
		return 0, a.err(err)
	}
	return StructureHandle(a.alloc(slot{kind: kindStructure, m: m})), nil
}

func (a *Arena) variant(f FieldVariant) (*mapping.FieldDescr, error) {
	switch f.Type {
	case field.Scalar:
		return mapping.NewScalar(f.Name, f.ScalarType)
	case field.ScalarArray:
		return mapping.NewScalarArray(f.Name, f.ScalarType)
	case field.Structure, field.StructureArray:
		sl, err := a.lookup(f.Structure.ref())
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", f.Name, err)
		}
		if f.Type == field.Structure {
			return mapping.NewStructure(f.Name, sl.m)
		}
		return mapping.NewStructureArray(f.Name, sl.m)
	}
	return nil, fmt.Errorf("field %q has category %v: %w", f.Name, f.Type, errors.ErrInvalidType)
}

// CreatePVStructure creates a container for the descriptor h.
func (a *Arena) CreatePVStructure(h StructureHandle) (PVStructureHandle, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	sl, err := a.lookup(h.ref())
	if err != nil {
		return 0, a.err(err)
	}
	s, err := structs.New(sl.m)
	if err != nil {
		return 0, a.err(err)
	}
	return PVStructureHandle(a.alloc(slot{kind: kindPVStructure, s: s})), nil
}

// GetNumberFields returns the number of top level fields.
func (a *Arena) GetNumberFields(h Handle) (int, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	m, err := a.mapOf(h)
	if err != nil {
		return 0, a.err(err)
	}
	return m.NumFields(), nil
}

// GetFieldName returns the name of field i.
func (a *Arena) GetFieldName(h Handle, i int) (string, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	m, err := a.mapOf(h)
	if err != nil {
		return "", a.err(err)
	}
	name, err := m.FieldName(i)
	return name, a.err(err)
}

// GetFieldType returns the category of field i.
func (a *Arena) GetFieldType(h Handle, i int) (field.Category, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	m, err := a.mapOf(h)
	if err != nil {
		return 0, a.err(err)
	}
	c, err := m.FieldCategory(i)
	return c, a.err(err)
}

// GetScalarType returns the scalar type of field i, which must be a scalar or scalar array.
func (a *Arena) GetScalarType(h Handle, i int) (field.ScalarType, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	m, err := a.mapOf(h)
	if err != nil {
		return 0, a.err(err)
	}
	t, err := m.ScalarType(i)
	return t, a.err(err)
}

// GetElementType returns the element type of field i, which must be a scalar array.
func (a *Arena) GetElementType(h Handle, i int) (field.ScalarType, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	m, err := a.mapOf(h)
	if err != nil {
		return 0, a.err(err)
	}
	t, err := m.ElementType(i)
	return t, a.err(err)
}

// GetSubfield returns the index of the top level field name, or NotFound.
// Only an invalid handle is an error.
func (a *Arena) GetSubfield(h Handle, name string) (int, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	m, err := a.mapOf(h)
	if err != nil {
		return NotFound, a.err(err)
	}
	return m.FindField(name), nil
}

// GetFieldInt reads an int field. name may be a dotted path into nested structures.
func (a *Arena) GetFieldInt(h PVStructureHandle, name string) (int32, error) {
	return getField[int32](a, h, name)
}

// GetFieldDouble reads a double field.
func (a *Arena) GetFieldDouble(h PVStructureHandle, name string) (float64, error) {
	return getField[float64](a, h, name)
}

// PutFieldInt writes an int field.
func (a *Arena) PutFieldInt(h PVStructureHandle, name string, v int32) error {
	return putField(a, h, name, v)
}

// PutFieldDouble writes a double field.
func (a *Arena) PutFieldDouble(h PVStructureHandle, name string, v float64) error {
	return putField(a, h, name, v)
}

func getField[T structs.Scalar](a *Arena, h PVStructureHandle, name string) (T, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	s, err := a.pv(h)
	if err != nil {
		var zero T
		return zero, a.err(err)
	}
	v, err := structs.GetScalar[T](s, name)
	return v, a.err(err)
}

func putField[T structs.Scalar](a *Arena, h PVStructureHandle, name string, v T) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	s, err := a.pv(h)
	if err != nil {
		return a.err(err)
	}
	return a.err(structs.SetScalar(s, name, v))
}

// GetLength returns the length of an array field.
func (a *Arena) GetLength(h PVStructureHandle, name string) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	s, err := a.pv(h)
	if err != nil {
		return 0, a.err(err)
	}
	n, err := s.ArrayLen(name)
	return n, a.err(err)
}

// SetLength resizes an array field. Views taken earlier on the field become invalid.
func (a *Arena) SetLength(h PVStructureHandle, name string, n int) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	s, err := a.pv(h)
	if err != nil {
		return a.err(err)
	}
	return a.err(s.SetArrayLen(name, n))
}

// GetArrayInt returns a view over the live storage of an int array. Writes through the view
// change the container. The view stays valid until the next SetLength on the field or the
// container is destroyed.
func (a *Arena) GetArrayInt(h PVStructureHandle, name string) (structs.View[int32], error) {
	return getArray[int32](a, h, name)
}

// GetArrayDouble is GetArrayInt for double arrays.
func (a *Arena) GetArrayDouble(h PVStructureHandle, name string) (structs.View[float64], error) {
	return getArray[float64](a, h, name)
}

func getArray[T structs.Scalar](a *Arena, h PVStructureHandle, name string) (structs.View[T], error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	s, err := a.pv(h)
	if err != nil {
		return structs.View[T]{}, a.err(err)
	}
	v, err := structs.GetArrayView[T](s, name)
	return v, a.err(err)
}

// DestroyStructure releases a descriptor. Containers and descriptors built from it keep working.
func (a *Arena) DestroyStructure(h StructureHandle) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	r := h.ref()
	if _, err := a.lookup(r); err != nil {
		return a.err(err)
	}
	a.release(r.index())
	return nil
}

// DestroyPVStructure destroys a container and everything nested in it.
func (a *Arena) DestroyPVStructure(h PVStructureHandle) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	r := h.ref()
	sl, err := a.lookup(r)
	if err != nil {
		return a.err(err)
	}
	if err := sl.s.Destroy(); err != nil {
		return a.err(err)
	}
	a.release(r.index())
	return nil
}

// PVStructureToString writes the value dump of h to w, or to os.Stdout if w is nil.
func (a *Arena) PVStructureToString(h PVStructureHandle, w io.Writer) error {
	if w == nil {
		w = os.Stdout
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	s, err := a.pv(h)
	if err != nil {
		return a.err(err)
	}
	return a.err(pvtext.WriteValue(a.ctx, w, s))
}

// Live returns how many descriptors and containers are held by handle.
func (a *Arena) Live() (structures, pvstructures int) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	for _, sl := range a.slots {
		switch sl.kind {
		case kindStructure:
			structures++
		case kindPVStructure:
			pvstructures++
		}
	}
	return structures, pvstructures
}

// Close destroys every object still held and logs how many there were. All handles are
// invalid afterwards, even when an error is returned. The Arena can be reused.
func (a *Arena) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	var structures, pvstructures int
	var errs []error
	for i := range a.slots {
		sl := &a.slots[i]
		switch sl.kind {
		case kindStructure:
			structures++
		case kindPVStructure:
			pvstructures++
			if err := sl.s.Destroy(); err != nil {
				errs = append(errs, fmt.Errorf("handle %#x: %w", pack(uint32(i), sl.gen), err))
			}
		default:
			continue
		}
		a.release(uint32(i))
	}
	if structures+pvstructures > 0 {
		log.Printf("capi: released %d leaked handles (%d structures, %d pvstructures)", structures+pvstructures, structures, pvstructures)
	}
	return a.err(errors.Join(errs...))
}
