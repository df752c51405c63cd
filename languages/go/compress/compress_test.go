package compress

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"

	"github.com/kylelemons/godebug/pretty"

	"github.com/epics-base/pvdata/languages/go/errors"
)

// waveform is what a large double array looks like on the wire.
func waveform(n int) []byte {
	b := make([]byte, 8*n)
	for i := 0; i < n; i++ {
		binary.LittleEndian.PutUint64(b[i*8:], math.Float64bits(float64(i%64)*0.5))
	}
	return b
}

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		typ  Type
		data []byte
	}{
		{"Success: gzip small", CmpGzip, []byte("epics:nt/NTScalar:1.0")},
		{"Success: gzip waveform", CmpGzip, waveform(4096)},
		{"Success: snappy small", CmpSnappy, []byte("epics:nt/NTScalar:1.0")},
		{"Success: snappy waveform", CmpSnappy, waveform(4096)},
		{"Success: zstd small", CmpZstd, []byte("epics:nt/NTScalar:1.0")},
		{"Success: zstd waveform", CmpZstd, waveform(4096)},
		{"Success: none passthrough", CmpNone, []byte("epics:nt/NTScalar:1.0")},
	}

	for _, test := range tests {
		packed, err := Compress(test.typ, test.data)
		if err != nil {
			t.Errorf("TestRoundTrip(%s): Compress got err == %s, want err == nil", test.name, err)
			continue
		}
		got, err := Decompress(test.typ, packed)
		if err != nil {
			t.Errorf("TestRoundTrip(%s): Decompress got err == %s, want err == nil", test.name, err)
			continue
		}
		if diff := pretty.Compare(test.data, got); diff != "" {
			t.Errorf("TestRoundTrip(%s): -want/+got:\n%s", test.name, diff)
		}
	}
}

func TestEmpty(t *testing.T) {
	t.Parallel()

	for _, typ := range []Type{CmpNone, CmpGzip, CmpSnappy, CmpZstd} {
		packed, err := Compress(typ, nil)
		if err != nil {
			t.Errorf("TestEmpty(%v): Compress got err == %s", typ, err)
			continue
		}
		got, err := Decompress(typ, packed)
		if err != nil {
			t.Errorf("TestEmpty(%v): Decompress got err == %s", typ, err)
			continue
		}
		if len(got) != 0 {
			t.Errorf("TestEmpty(%v): got len %d, want 0", typ, len(got))
		}
	}
}

func TestShrinks(t *testing.T) {
	t.Parallel()

	data := waveform(4096)
	for _, typ := range []Type{CmpGzip, CmpSnappy, CmpZstd} {
		packed, err := Compress(typ, data)
		if err != nil {
			t.Errorf("TestShrinks(%v): got err == %s", typ, err)
			continue
		}
		if len(packed) >= len(data) {
			t.Errorf("TestShrinks(%v): compressed size %d >= original size %d", typ, len(packed), len(data))
		}
	}
}

func TestLimit(t *testing.T) {
	t.Parallel()

	data := waveform(4096)
	tests := []struct {
		name  string
		c     Compressor
		small Compressor
	}{
		{"gzip", &Gzip{Limit: len(data)}, &Gzip{Limit: 1000}},
		{"snappy", &Snappy{Limit: len(data)}, &Snappy{Limit: 1000}},
		{"zstd", &Zstd{Limit: len(data)}, &Zstd{Limit: 1000}},
	}

	for _, test := range tests {
		packed, err := test.c.Compress(data)
		if err != nil {
			t.Errorf("TestLimit(%s): Compress got err == %s", test.name, err)
			continue
		}
		got, err := test.c.Decompress(packed)
		if err != nil {
			t.Errorf("TestLimit(%s): Decompress at the limit got err == %s", test.name, err)
		} else if !bytes.Equal(got, data) {
			t.Errorf("TestLimit(%s): Decompress at the limit returned different data", test.name)
		}
		if _, err := test.small.Decompress(packed); !errors.Is(err, ErrTooLarge) {
			t.Errorf("TestLimit(%s): Decompress over the limit got err == %v, want ErrTooLarge", test.name, err)
		}
	}
}

func TestCustomAndUnregistered(t *testing.T) {
	t.Parallel()

	Register(reverser{})
	data := []byte("structure")
	packed, err := Compress(reverser{}.Type(), data)
	if err != nil {
		t.Fatalf("TestCustomAndUnregistered: Compress got err == %s", err)
	}
	if bytes.Equal(packed, data) {
		t.Errorf("TestCustomAndUnregistered: custom compressor was not used")
	}
	got, err := Decompress(reverser{}.Type(), packed)
	if err != nil {
		t.Fatalf("TestCustomAndUnregistered: Decompress got err == %s", err)
	}
	if diff := pretty.Compare(data, got); diff != "" {
		t.Errorf("TestCustomAndUnregistered: -want/+got:\n%s", diff)
	}

	if _, err := Compress(Type(200), data); err == nil {
		t.Errorf("TestCustomAndUnregistered: Compress(200) got err == nil, want err != nil")
	}
	if _, err := Decompress(Type(200), data); err == nil {
		t.Errorf("TestCustomAndUnregistered: Decompress(200) got err == nil, want err != nil")
	}
	if Get(CmpNone) != nil {
		t.Errorf("TestCustomAndUnregistered: Get(CmpNone) got compressor, want nil")
	}
}

func TestParseType(t *testing.T) {
	t.Parallel()

	for _, typ := range []Type{CmpNone, CmpGzip, CmpSnappy, CmpZstd} {
		got, err := ParseType(typ.String())
		if err != nil || got != typ {
			t.Errorf("TestParseType(%v): got %v, %v", typ, got, err)
		}
	}
	if _, err := ParseType("lz4"); err == nil {
		t.Errorf("TestParseType(lz4): got err == nil, want err != nil")
	}
	if got := Type(9).String(); got != "Type(9)" {
		t.Errorf("TestParseType: got %q, want %q", got, "Type(9)")
	}
}

// reverser is a stand in for a user registered compressor.
type reverser struct{}

func (reverser) Type() Type { return Type(100) }

func (reverser) Compress(data []byte) ([]byte, error) {
	out := make([]byte, len(data))
	for i, b := range data {
		out[len(data)-1-i] = b
	}
	return out, nil
}

func (r reverser) Decompress(data []byte) ([]byte, error) {
	return r.Compress(data)
}
