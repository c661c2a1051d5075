// Copyright (C) 2024 The Binlayout Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package binlayout

import (
	"bytes"
	"errors"
	"testing"

	"github.com/binlayout/binlayout/bitstream"
)

func TestUintRoundTrip(t *testing.T) {
	cases := []struct {
		n int
		v uint64
	}{
		{0, 0},
		{4, 9},
		{8, 255},
		{13, 4096},
		{64, 1<<64 - 1},
	}
	for _, c := range cases {
		d := Uint(c.n)
		w := bitstream.NewWriter()
		if err := d.encodeValue(w, c.v, nil, nil); err != nil {
			t.Fatalf("uint(%d) encode %d: %v", c.n, c.v, err)
		}
		r := bitstream.NewReader(w.Bytes())
		got, err := d.decodeValue(r, nil, nil)
		if err != nil {
			t.Fatalf("uint(%d) decode: %v", c.n, err)
		}
		if got.(uint64) != c.v {
			t.Fatalf("uint(%d) round-trip = %d, want %d", c.n, got, c.v)
		}
	}
}

func TestUintZeroWidthConsumesNoBits(t *testing.T) {
	r := bitstream.NewReader([]byte{0xFF})
	v, err := Uint(0).decodeValue(r, nil, nil)
	if err != nil || v.(uint64) != 0 {
		t.Fatalf("uint(0) decode = %v, %v", v, err)
	}
	if r.BitPosition() != 0 {
		t.Fatalf("BitPosition = %d, want 0", r.BitPosition())
	}
}

func TestUintRangeError(t *testing.T) {
	w := bitstream.NewWriter()
	err := Uint(4).encodeValue(w, uint64(16), nil, nil)
	if !errors.Is(err, ErrRangeError) {
		t.Fatalf("err = %v, want ErrRangeError", err)
	}
}

func TestIntRoundTrip(t *testing.T) {
	cases := []struct {
		n int
		v int64
	}{
		{0, 0},
		{6, -1},
		{6, 31},
		{6, -32},
		{8, -128},
		{64, -1},
	}
	for _, c := range cases {
		d := Int(c.n)
		w := bitstream.NewWriter()
		if err := d.encodeValue(w, c.v, nil, nil); err != nil {
			t.Fatalf("int(%d) encode %d: %v", c.n, c.v, err)
		}
		r := bitstream.NewReader(w.Bytes())
		got, err := d.decodeValue(r, nil, nil)
		if err != nil {
			t.Fatalf("int(%d) decode: %v", c.n, err)
		}
		if got.(int64) != c.v {
			t.Fatalf("int(%d) round-trip = %d, want %d", c.n, got, c.v)
		}
	}
}

func TestIntOutOfRange(t *testing.T) {
	w := bitstream.NewWriter()
	err := Int(4).encodeValue(w, int64(8), nil, nil)
	if !errors.Is(err, ErrRangeError) {
		t.Fatalf("err = %v, want ErrRangeError", err)
	}
}

func TestBoolRoundTrip(t *testing.T) {
	for _, v := range []bool{true, false} {
		w := bitstream.NewWriter()
		if err := Bool().encodeValue(w, v, nil, nil); err != nil {
			t.Fatalf("encode %v: %v", v, err)
		}
		r := bitstream.NewReader(w.Bytes())
		got, err := Bool().decodeValue(r, nil, nil)
		if err != nil || got.(bool) != v {
			t.Fatalf("round-trip %v -> %v, %v", v, got, err)
		}
	}
}

func TestBytesRoundTrip(t *testing.T) {
	d := Bytes(3)
	w := bitstream.NewWriter()
	in := []byte{0x01, 0x02, 0x03}
	if err := d.encodeValue(w, in, nil, nil); err != nil {
		t.Fatalf("encode: %v", err)
	}
	r := bitstream.NewReader(w.Bytes())
	got, err := d.decodeValue(r, nil, nil)
	if err != nil || !bytes.Equal(got.([]byte), in) {
		t.Fatalf("round-trip = %v, %v", got, err)
	}
}

func TestBytesWrongLength(t *testing.T) {
	w := bitstream.NewWriter()
	err := Bytes(3).encodeValue(w, []byte{1, 2}, nil, nil)
	if !errors.Is(err, ErrRangeError) {
		t.Fatalf("err = %v, want ErrRangeError", err)
	}
}

func TestBitsRoundTrip(t *testing.T) {
	d := Bits(5)
	w := bitstream.NewWriter()
	in := BitString{Value: 0b10110, Width: 5}
	if err := d.encodeValue(w, in, nil, nil); err != nil {
		t.Fatalf("encode: %v", err)
	}
	r := bitstream.NewReader(w.Bytes())
	got, err := d.decodeValue(r, nil, nil)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	bs := got.(BitString)
	if bs.Value != in.Value || bs.Width != 5 {
		t.Fatalf("round-trip = %+v, want %+v", bs, in)
	}
}

func TestStrExactFit(t *testing.T) {
	d := Str(1, nil)
	w := bitstream.NewWriter()
	if err := d.encodeValue(w, "x", nil, nil); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if !bytes.Equal(w.Bytes(), []byte("x")) {
		t.Fatalf("bytes = %x", w.Bytes())
	}
	r := bitstream.NewReader(w.Bytes())
	got, err := d.decodeValue(r, nil, nil)
	if err != nil || got.(string) != "x" {
		t.Fatalf("decode = %v, %v", got, err)
	}
}

func TestStrRightPadAndTrim(t *testing.T) {
	d := Str(5, nil)
	w := bitstream.NewWriter()
	if err := d.encodeValue(w, "hi", nil, nil); err != nil {
		t.Fatalf("encode: %v", err)
	}
	want := []byte("hi\x00\x00\x00")
	if !bytes.Equal(w.Bytes(), want) {
		t.Fatalf("bytes = %x, want %x", w.Bytes(), want)
	}
	r := bitstream.NewReader(w.Bytes())
	got, err := d.decodeValue(r, nil, nil)
	if err != nil || got.(string) != "hi" {
		t.Fatalf("decode = %v, %v", got, err)
	}
}

func TestStrInteriorNullsSurvive(t *testing.T) {
	// Right-strip only: an interior NUL is not a terminator.
	raw := []byte{'a', 0, 'b', 0, 0}
	r := bitstream.NewReader(raw)
	got, err := Str(5, nil).decodeValue(r, nil, nil)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.(string) != "a\x00b" {
		t.Fatalf("decode = %q, want %q", got, "a\x00b")
	}
}

func TestStrTooLong(t *testing.T) {
	w := bitstream.NewWriter()
	err := Str(2, nil).encodeValue(w, "abc", nil, nil)
	if !errors.Is(err, ErrRangeError) {
		t.Fatalf("err = %v, want ErrRangeError", err)
	}
}

func TestNoneZeroWidth(t *testing.T) {
	r := bitstream.NewReader([]byte{0xFF})
	got, err := None().decodeValue(r, nil, nil)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, ok := got.(Unit); !ok {
		t.Fatalf("decode = %T, want Unit", got)
	}
	if r.BitPosition() != 0 {
		t.Fatalf("BitPosition = %d, want 0", r.BitPosition())
	}
	w := bitstream.NewWriter()
	if err := None().encodeValue(w, nil, nil, nil); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if len(w.Bytes()) != 0 {
		t.Fatalf("Bytes() = %x, want empty", w.Bytes())
	}
}

func TestUintEnum(t *testing.T) {
	d := UintEnum(8, []uint64{1, 2, 3})
	w := bitstream.NewWriter()
	if err := d.encodeValue(w, uint64(2), nil, nil); err != nil {
		t.Fatalf("encode: %v", err)
	}
	r := bitstream.NewReader(w.Bytes())
	got, err := d.decodeValue(r, nil, nil)
	if err != nil || got.(uint64) != 2 {
		t.Fatalf("decode = %v, %v", got, err)
	}

	r2 := bitstream.NewReader([]byte{9})
	if _, err := d.decodeValue(r2, nil, nil); !errors.Is(err, ErrEnumOutOfRange) {
		t.Fatalf("err = %v, want ErrEnumOutOfRange", err)
	}

	w2 := bitstream.NewWriter()
	if err := d.encodeValue(w2, uint64(9), nil, nil); !errors.Is(err, ErrEnumOutOfRange) {
		t.Fatalf("err = %v, want ErrEnumOutOfRange", err)
	}
}

func TestIntEnum(t *testing.T) {
	d := IntEnum(8, []int64{-1, 0, 1})
	w := bitstream.NewWriter()
	if err := d.encodeValue(w, int64(-1), nil, nil); err != nil {
		t.Fatalf("encode: %v", err)
	}
	r := bitstream.NewReader(w.Bytes())
	got, err := d.decodeValue(r, nil, nil)
	if err != nil || got.(int64) != -1 {
		t.Fatalf("decode = %v, %v", got, err)
	}
}

func TestLitUint(t *testing.T) {
	d := LitUint(8, 0xFF)
	w := bitstream.NewWriter()
	if err := d.encodeValue(w, uint64(0xFF), nil, nil); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if dv, _ := literalDefault(d); dv.(uint64) != 0xFF {
		t.Fatalf("DefaultValue = %v", dv)
	}
	r := bitstream.NewReader([]byte{0x01})
	if _, err := d.decodeValue(r, nil, nil); !errors.Is(err, ErrLiteralMismatch) {
		t.Fatalf("err = %v, want ErrLiteralMismatch", err)
	}
}

func TestLitBytesAndLitStr(t *testing.T) {
	lb := LitBytes([]byte{0xCA, 0xFE})
	w := bitstream.NewWriter()
	if err := lb.encodeValue(w, []byte{0xCA, 0xFE}, nil, nil); err != nil {
		t.Fatalf("lit_bytes encode: %v", err)
	}
	if !bytes.Equal(w.Bytes(), []byte{0xCA, 0xFE}) {
		t.Fatalf("bytes = %x", w.Bytes())
	}

	ls := LitStr("hi", nil)
	w2 := bitstream.NewWriter()
	if err := ls.encodeValue(w2, "hi", nil, nil); err != nil {
		t.Fatalf("lit_str encode: %v", err)
	}
	r := bitstream.NewReader(w2.Bytes())
	got, err := ls.decodeValue(r, nil, nil)
	if err != nil || got.(string) != "hi" {
		t.Fatalf("lit_str decode = %v, %v", got, err)
	}
	if _, err := ls.decodeValue(bitstream.NewReader([]byte("xx")), nil, nil); !errors.Is(err, ErrLiteralMismatch) {
		t.Fatalf("mismatched literal should fail, got %v", err)
	}
}

func TestEndOfStreamTranslated(t *testing.T) {
	r := bitstream.NewReader([]byte{})
	_, err := Uint(8).decodeValue(r, nil, nil)
	if !errors.Is(err, ErrEndOfStream) {
		t.Fatalf("err = %v, want ErrEndOfStream", err)
	}
}
