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

// Package binlayout is a declarative bitfield codec: descriptors
// describe binary packet layouts at bit granularity and a Schema
// built from them gives symmetric Encode/Decode for free.
//
// The package speaks only of an ordered list of named descriptors
// operating on a *Record; how a user attaches fields to a struct
// definition, enum value types, and string-encoding catalogues are
// all external collaborators (see mapper/ for one such adapter).
package binlayout

import (
	"errors"
	"fmt"

	"github.com/binlayout/binlayout/bitstream"
)

// Descriptor is a decode/encode/length triple over one field's value.
// Descriptors are immutable data; they carry no state between calls
// and compose into trees with no cycles. The interface is
// unexported-method-only by design: the only way to build one is
// through the primitive and combinator constructors in this package,
// so the algebra stays closed.
type Descriptor interface {
	decodeValue(r *bitstream.Reader, partial *Record, ctx any) (any, error)
	encodeValue(w *bitstream.Writer, v any, partial *Record, ctx any) error
	// Length reports the descriptor's static bit width, if known
	// independently of any sibling or stream state.
	Length() (bits int, ok bool)
	// Name is a short diagnostic label, e.g. "uint(8)" or
	// "list(bitfield(Foo),3)". The package's error messages are
	// formatted without calling it.
	Name() string
}

// defaultValuer is implemented by descriptors (currently only the
// literal family) whose value is fully determined without any input,
// so the record engine can substitute it when a field is omitted
// from the record passed to Encode.
type defaultValuer interface {
	DefaultValue() (any, bool)
}

func literalDefault(d Descriptor) (any, bool) {
	if dv, ok := d.(defaultValuer); ok {
		return dv.DefaultValue()
	}
	return nil, false
}

// translateReadErr maps the bitstream package's own end-of-stream
// sentinel onto this package's ErrEndOfStream, so callers only ever
// need to check errors.Is against the binlayout sentinels.
func translateReadErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, bitstream.ErrEndOfStream) {
		return fmt.Errorf("%w: %v", ErrEndOfStream, err)
	}
	return err
}

func fitsUint(v uint64, n int) bool {
	if n >= 64 {
		return true
	}
	return v < uint64(1)<<uint(n)
}

func fitsInt(v int64, n int) bool {
	if n == 0 {
		return v == 0
	}
	if n >= 64 {
		return true
	}
	lo := -(int64(1) << uint(n-1))
	hi := int64(1)<<uint(n-1) - 1
	return v >= lo && v <= hi
}

func checkWidth(n int) {
	if n < 0 || n > 64 {
		panic(schemaErrf("bit width %d out of range [0,64]", n))
	}
}
