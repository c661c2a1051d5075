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

package bitstream

import (
	"errors"
	"testing"
)

func TestTakeAligned(t *testing.T) {
	r := NewReader([]byte{0x12, 0x34})
	cases := []struct {
		n    int
		want uint64
	}{
		{8, 0x12},
		{8, 0x34},
	}
	for _, c := range cases {
		got, err := r.Take(c.n)
		if err != nil {
			t.Fatalf("Take(%d): %v", c.n, err)
		}
		if got != c.want {
			t.Fatalf("Take(%d) = %#x, want %#x", c.n, got, c.want)
		}
	}
	if r.Remaining() != 0 {
		t.Fatalf("Remaining() = %d, want 0", r.Remaining())
	}
}

func TestTakeNibbles(t *testing.T) {
	r := NewReader([]byte{0x12})
	hi, err := r.Take(4)
	if err != nil || hi != 1 {
		t.Fatalf("hi = %d, %v; want 1, nil", hi, err)
	}
	lo, err := r.Take(4)
	if err != nil || lo != 2 {
		t.Fatalf("lo = %d, %v; want 2, nil", lo, err)
	}
}

func TestTakeUnaligned(t *testing.T) {
	// 0xB4 = 1011_0100; taking 3 then 13 bits splits the second read across the byte boundary.
	r := NewReader([]byte{0xB4, 0xFF})
	a, err := r.Take(3)
	if err != nil || a != 0b101 {
		t.Fatalf("a = %b, %v; want 101, nil", a, err)
	}
	b, err := r.Take(13)
	if err != nil {
		t.Fatalf("b: %v", err)
	}
	want := uint64(0b10100) << 8
	want |= 0xFF
	if b != want {
		t.Fatalf("b = %#x, want %#x", b, want)
	}
}

func TestTakeZero(t *testing.T) {
	r := NewReader([]byte{0xFF})
	v, err := r.Take(0)
	if err != nil || v != 0 {
		t.Fatalf("Take(0) = %d, %v; want 0, nil", v, err)
	}
	if r.BitPosition() != 0 {
		t.Fatalf("BitPosition() = %d, want 0", r.BitPosition())
	}
}

func TestTakeEndOfStream(t *testing.T) {
	r := NewReader([]byte{0xFF})
	if _, err := r.Take(9); !errors.Is(err, ErrEndOfStream) {
		t.Fatalf("err = %v, want ErrEndOfStream", err)
	}
}

func TestTakeBytesAligned(t *testing.T) {
	r := NewReader([]byte{0xDE, 0xAD, 0xBE, 0xEF})
	b, err := r.TakeBytes(4)
	if err != nil {
		t.Fatalf("TakeBytes: %v", err)
	}
	want := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	for i := range want {
		if b[i] != want[i] {
			t.Fatalf("byte %d = %#x, want %#x", i, b[i], want[i])
		}
	}
}

func TestTakeBytesUnaligned(t *testing.T) {
	r := NewReader([]byte{0xF0, 0x12, 0x34, 0x0F})
	if _, err := r.Take(4); err != nil {
		t.Fatalf("Take(4): %v", err)
	}
	b, err := r.TakeBytes(2)
	if err != nil {
		t.Fatalf("TakeBytes: %v", err)
	}
	if b[0] != 0x01 || b[1] != 0x23 {
		t.Fatalf("b = %#x %#x, want 01 23", b[0], b[1])
	}
}

func TestTakeBytesEndOfStream(t *testing.T) {
	r := NewReader([]byte{0x00})
	if _, err := r.TakeBytes(2); !errors.Is(err, ErrEndOfStream) {
		t.Fatalf("err = %v, want ErrEndOfStream", err)
	}
}
