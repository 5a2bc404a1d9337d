// Package wire implements the compact positional payload format used by
// every message: fields are written in declaration order without names,
// integers as varints, strings and bytes with a varint length prefix.
package wire

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"google.golang.org/protobuf/encoding/protowire"
)

// ErrTruncated is returned when a payload ends before all fields are read.
var ErrTruncated = errors.New("wire: unexpected end of data")

// Marshaler is implemented by values that know their payload layout.
type Marshaler interface {
	MarshalWire(e *Encoder)
}

// Unmarshaler is implemented by values that can read their payload layout.
type Unmarshaler interface {
	UnmarshalWire(d *Decoder) error
}

// Encoder appends fields to a buffer.
type Encoder struct {
	buf []byte
}

// Bytes returns the encoded payload.
func (e *Encoder) Bytes() []byte { return e.buf }

func (e *Encoder) Uint64(v uint64) { e.buf = protowire.AppendVarint(e.buf, v) }
func (e *Encoder) Uint16(v uint16) { e.Uint64(uint64(v)) }
func (e *Encoder) Uint8(v uint8)   { e.Uint64(uint64(v)) }

func (e *Encoder) Bool(v bool) {
	if v {
		e.Uint64(1)
		return
	}
	e.Uint64(0)
}

func (e *Encoder) String(v string) { e.buf = protowire.AppendString(e.buf, v) }
func (e *Encoder) Raw(v []byte)    { e.buf = protowire.AppendBytes(e.buf, v) }

// OptionalString writes a presence flag followed by the value when set.
func (e *Encoder) OptionalString(v *string) {
	if v == nil {
		e.Bool(false)
		return
	}
	e.Bool(true)
	e.String(*v)
}

// Marshal encodes a value into a fresh payload.
func Marshal(m Marshaler) []byte {
	var e Encoder
	m.MarshalWire(&e)
	if e.buf == nil {
		return []byte{}
	}
	return e.buf
}

// Decoder reads fields sequentially. The first error sticks and every
// following read returns a zero value.
type Decoder struct {
	data []byte
	err  error
}

// NewDecoder creates a decoder over data.
func NewDecoder(data []byte) *Decoder {
	return &Decoder{data: data}
}

// Err returns the first decoding error.
func (d *Decoder) Err() error { return d.err }

func (d *Decoder) fail(err error) {
	if d.err == nil {
		d.err = err
	}
}

func (d *Decoder) Uint64() uint64 {
	if d.err != nil {
		return 0
	}
	v, n := protowire.ConsumeVarint(d.data)
	if n < 0 {
		d.fail(fmt.Errorf("%w: %v", ErrTruncated, protowire.ParseError(n)))
		return 0
	}
	d.data = d.data[n:]
	return v
}

func (d *Decoder) Uint16() uint16 {
	v := d.Uint64()
	if v > 0xffff {
		d.fail(fmt.Errorf("wire: value %d overflows uint16", v))
		return 0
	}
	return uint16(v)
}

func (d *Decoder) Uint8() uint8 {
	v := d.Uint64()
	if v > 0xff {
		d.fail(fmt.Errorf("wire: value %d overflows uint8", v))
		return 0
	}
	return uint8(v)
}

func (d *Decoder) Bool() bool {
	switch v := d.Uint64(); v {
	case 0:
		return false
	case 1:
		return true
	default:
		d.fail(fmt.Errorf("wire: invalid bool value %d", v))
		return false
	}
}

func (d *Decoder) Raw() []byte {
	if d.err != nil {
		return nil
	}
	v, n := protowire.ConsumeBytes(d.data)
	if n < 0 {
		d.fail(fmt.Errorf("%w: %v", ErrTruncated, protowire.ParseError(n)))
		return nil
	}
	d.data = d.data[n:]
	out := make([]byte, len(v))
	copy(out, v)
	return out
}

func (d *Decoder) String() string {
	v := d.Raw()
	if d.err != nil {
		return ""
	}
	if !utf8.Valid(v) {
		d.fail(errors.New("wire: string is not valid UTF-8"))
		return ""
	}
	return string(v)
}

// OptionalString reads a value written by Encoder.OptionalString.
func (d *Decoder) OptionalString() *string {
	if !d.Bool() {
		return nil
	}
	v := d.String()
	if d.err != nil {
		return nil
	}
	return &v
}

// Finish reports an error if bytes remain after the last field.
func (d *Decoder) Finish() error {
	if d.err != nil {
		return d.err
	}
	if len(d.data) != 0 {
		return fmt.Errorf("wire: %d trailing bytes", len(d.data))
	}
	return nil
}

// Unmarshal decodes data into u and requires it to be fully consumed.
func Unmarshal(data []byte, u Unmarshaler) error {
	d := NewDecoder(data)
	if err := u.UnmarshalWire(d); err != nil {
		return err
	}
	return d.Finish()
}
