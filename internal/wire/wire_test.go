package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	A uint64
	B string
	C bool
	D *string
	E uint8
}

func (s sample) MarshalWire(e *Encoder) {
	e.Uint64(s.A)
	e.String(s.B)
	e.Bool(s.C)
	e.OptionalString(s.D)
	e.Uint8(s.E)
}

func (s *sample) UnmarshalWire(d *Decoder) error {
	s.A = d.Uint64()
	s.B = d.String()
	s.C = d.Bool()
	s.D = d.OptionalString()
	s.E = d.Uint8()
	return d.Err()
}

type empty struct{}

func (empty) MarshalWire(*Encoder) {}

func TestEmptyPayload(t *testing.T) {
	assert.Equal(t, []byte{}, Marshal(empty{}))
}

func TestSmallValuesTakeOneByte(t *testing.T) {
	var e Encoder
	e.Uint64(1)
	e.Bool(false)
	e.String("hi")
	assert.Equal(t, []byte{1, 0, 2, 'h', 'i'}, e.Bytes())
}

func TestRoundTrip(t *testing.T) {
	ctx := "context"
	in := sample{A: 1 << 40, B: "привет", C: true, D: &ctx, E: 200}
	var out sample
	require.NoError(t, Unmarshal(Marshal(in), &out))
	assert.Equal(t, in, out)

	in.D = nil
	out = sample{}
	require.NoError(t, Unmarshal(Marshal(in), &out))
	assert.Equal(t, in, out)
}

func TestDecodeErrors(t *testing.T) {
	data := Marshal(sample{A: 5, B: "abc"})

	var out sample
	assert.ErrorIs(t, Unmarshal(data[:2], &out), ErrTruncated)

	assert.Error(t, Unmarshal(append(data, 0), &out), "trailing bytes")

	bad := []byte{0, 1, 0xff, 2, 0, 0}
	assert.Error(t, Unmarshal(bad, &out), "invalid utf-8")

	d := NewDecoder([]byte{2})
	d.Bool()
	assert.Error(t, d.Err())

	d = NewDecoder([]byte{0x80, 0x02})
	d.Uint8()
	assert.Error(t, d.Err())
}
