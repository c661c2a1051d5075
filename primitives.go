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
	"fmt"
	"unicode/utf8"

	"github.com/binlayout/binlayout/bitstream"
)

// Values produced and consumed by the primitive descriptors below are
// always exactly uint64 (for the uint family) or int64 (for the int
// family): Decode never hands back a narrower Go integer type, and
// Encode requires the matching widened type back. This keeps
// round-tripping exact (property 1 in the spec) without the codec
// silently truncating an int32 or similarly narrowed value a caller
// passed in by mistake.

// Unit is the value decoded by None() and the zero-width branch of a
// dynamic field whose factory returns nil.
type Unit struct{}

// BitString is the value decoded by Bits(n): the raw n-bit pattern,
// kept as a small value type so it prints and compares sensibly.
type BitString struct {
	Value uint64
	Width int
}

func (b BitString) String() string {
	return fmt.Sprintf("%0*b", b.Width, b.Value)
}

// TextEncoding converts between wire bytes and a Go string for the
// Str/LitStr descriptors. Enum value types, date/string-encoding
// catalogues, and similar higher-level vocabularies live outside the
// core (see spec.md §1); TextEncoding is the minimal seam the core
// needs to stay agnostic of any particular charset table.
type TextEncoding interface {
	Name() string
	Encode(s string) ([]byte, error)
	Decode(b []byte) (string, error)
}

type utf8Encoding struct{}

func (utf8Encoding) Name() string { return "utf-8" }
func (utf8Encoding) Encode(s string) ([]byte, error) {
	return []byte(s), nil
}
func (utf8Encoding) Decode(b []byte) (string, error) {
	if !utf8.Valid(b) {
		return "", fmt.Errorf("invalid utf-8 byte sequence")
	}
	return string(b), nil
}

// UTF8 is the default TextEncoding used by Str/LitStr when none is
// supplied.
var UTF8 TextEncoding = utf8Encoding{}

func rightTrimNulls(b []byte) []byte {
	i := len(b)
	for i > 0 && b[i-1] == 0 {
		i--
	}
	return b[:i]
}

// --- uint ---

type uintDesc struct{ n int }

// Uint builds a descriptor for an unsigned integer stored in n bits
// (0 <= n <= 64), decoded and encoded as a plain uint64.
func Uint(n int) Descriptor {
	checkWidth(n)
	return uintDesc{n: n}
}

func (d uintDesc) Length() (int, bool) { return d.n, true }
func (d uintDesc) Name() string        { return fmt.Sprintf("uint(%d)", d.n) }

func (d uintDesc) decodeValue(r *bitstream.Reader, _ *Record, _ any) (any, error) {
	v, err := r.Take(d.n)
	if err != nil {
		return nil, translateReadErr(err)
	}
	return v, nil
}

func (d uintDesc) encodeValue(w *bitstream.Writer, v any, _ *Record, _ any) error {
	val, ok := v.(uint64)
	if !ok {
		return rangeErrf("uint(%d): value %v is not a uint64", d.n, v)
	}
	if !fitsUint(val, d.n) {
		return rangeErrf("uint(%d): value %d does not fit in %d bits", d.n, val, d.n)
	}
	w.Put(val, d.n)
	return nil
}

// --- int ---

type intDesc struct{ n int }

// Int builds a descriptor for a two's-complement signed integer
// stored in n bits (0 <= n <= 64), decoded and encoded as an int64.
func Int(n int) Descriptor {
	checkWidth(n)
	return intDesc{n: n}
}

func (d intDesc) Length() (int, bool) { return d.n, true }
func (d intDesc) Name() string        { return fmt.Sprintf("int(%d)", d.n) }

func (d intDesc) decodeValue(r *bitstream.Reader, _ *Record, _ any) (any, error) {
	raw, err := r.Take(d.n)
	if err != nil {
		return nil, translateReadErr(err)
	}
	if d.n == 0 {
		return int64(0), nil
	}
	signBit := uint64(1) << uint(d.n-1)
	var val int64
	if raw&signBit != 0 {
		val = int64(raw) - int64(1)<<uint(d.n)
	} else {
		val = int64(raw)
	}
	return val, nil
}

func (d intDesc) encodeValue(w *bitstream.Writer, v any, _ *Record, _ any) error {
	val, ok := v.(int64)
	if !ok {
		return rangeErrf("int(%d): value %v is not an int64", d.n, v)
	}
	if !fitsInt(val, d.n) {
		return rangeErrf("int(%d): value %d does not fit in %d bits", d.n, val, d.n)
	}
	var uv uint64
	if d.n > 0 {
		uv = uint64(val) & (1<<uint(d.n) - 1)
	}
	w.Put(uv, d.n)
	return nil
}

// --- bool ---

type boolDesc struct{}

// Bool builds a 1-bit boolean descriptor (1 = true, 0 = false).
func Bool() Descriptor { return boolDesc{} }

func (boolDesc) Length() (int, bool) { return 1, true }
func (boolDesc) Name() string        { return "bool" }

func (boolDesc) decodeValue(r *bitstream.Reader, _ *Record, _ any) (any, error) {
	v, err := r.Take(1)
	if err != nil {
		return nil, translateReadErr(err)
	}
	return v != 0, nil
}

func (boolDesc) encodeValue(w *bitstream.Writer, v any, _ *Record, _ any) error {
	b, ok := v.(bool)
	if !ok {
		return rangeErrf("bool: value %v is not a bool", v)
	}
	if b {
		w.Put(1, 1)
	} else {
		w.Put(0, 1)
	}
	return nil
}

// --- bytes ---

type bytesDesc struct{ k int }

// Bytes builds a descriptor for an exact k-byte sequence (8k bits).
func Bytes(k int) Descriptor {
	if k < 0 {
		panic(schemaErrf("bytes width %d is negative", k))
	}
	return bytesDesc{k: k}
}

func (d bytesDesc) Length() (int, bool) { return 8 * d.k, true }
func (d bytesDesc) Name() string        { return fmt.Sprintf("bytes(%d)", d.k) }

func (d bytesDesc) decodeValue(r *bitstream.Reader, _ *Record, _ any) (any, error) {
	b, err := r.TakeBytes(d.k)
	if err != nil {
		return nil, translateReadErr(err)
	}
	return b, nil
}

func (d bytesDesc) encodeValue(w *bitstream.Writer, v any, _ *Record, _ any) error {
	b, ok := v.([]byte)
	if !ok {
		return rangeErrf("bytes(%d): value %v is not []byte", d.k, v)
	}
	if len(b) != d.k {
		return rangeErrf("bytes(%d): value has %d bytes", d.k, len(b))
	}
	w.PutBytes(b)
	return nil
}

// --- bits ---

type bitsDesc struct{ n int }

// Bits builds a descriptor for a raw n-bit pattern, decoded as a
// BitString rather than an integer, for callers that want to treat
// the field as an opaque bit run (e.g. reserved/padding fields).
func Bits(n int) Descriptor {
	checkWidth(n)
	return bitsDesc{n: n}
}

func (d bitsDesc) Length() (int, bool) { return d.n, true }
func (d bitsDesc) Name() string        { return fmt.Sprintf("bits(%d)", d.n) }

func (d bitsDesc) decodeValue(r *bitstream.Reader, _ *Record, _ any) (any, error) {
	v, err := r.Take(d.n)
	if err != nil {
		return nil, translateReadErr(err)
	}
	return BitString{Value: v, Width: d.n}, nil
}

func (d bitsDesc) encodeValue(w *bitstream.Writer, v any, _ *Record, _ any) error {
	bs, ok := v.(BitString)
	if !ok {
		return rangeErrf("bits(%d): value %v is not a BitString", d.n, v)
	}
	if !fitsUint(bs.Value, d.n) {
		return rangeErrf("bits(%d): value %d does not fit in %d bits", d.n, bs.Value, d.n)
	}
	w.Put(bs.Value, d.n)
	return nil
}

// --- str ---

type strDesc struct {
	k   int
	enc TextEncoding
}

// Str builds a descriptor for a k-byte text field: decode null-trims
// (from the right only) then decodes with enc; encode encodes then
// right-pads with zero bytes to k. A nil enc defaults to UTF8.
func Str(k int, enc TextEncoding) Descriptor {
	if k < 0 {
		panic(schemaErrf("str width %d is negative", k))
	}
	if enc == nil {
		enc = UTF8
	}
	return strDesc{k: k, enc: enc}
}

func (d strDesc) Length() (int, bool) { return 8 * d.k, true }
func (d strDesc) Name() string        { return fmt.Sprintf("str(%d,%s)", d.k, d.enc.Name()) }

func (d strDesc) decodeValue(r *bitstream.Reader, _ *Record, _ any) (any, error) {
	raw, err := r.TakeBytes(d.k)
	if err != nil {
		return nil, translateReadErr(err)
	}
	s, err := d.enc.Decode(rightTrimNulls(raw))
	if err != nil {
		return nil, encodingErrf("str(%d,%s): %v", d.k, d.enc.Name(), err)
	}
	return s, nil
}

func (d strDesc) encodeValue(w *bitstream.Writer, v any, _ *Record, _ any) error {
	s, ok := v.(string)
	if !ok {
		return rangeErrf("str(%d,%s): value %v is not a string", d.k, d.enc.Name(), v)
	}
	enc, err := d.enc.Encode(s)
	if err != nil {
		return encodingErrf("str(%d,%s): %v", d.k, d.enc.Name(), err)
	}
	if len(enc) > d.k {
		return rangeErrf("str(%d,%s): encoded value is %d bytes", d.k, d.enc.Name(), len(enc))
	}
	padded := make([]byte, d.k)
	copy(padded, enc)
	w.PutBytes(padded)
	return nil
}

// --- none ---

type noneDesc struct{}

// None builds a zero-width descriptor whose value is always Unit{}.
func None() Descriptor { return noneDesc{} }

func (noneDesc) Length() (int, bool) { return 0, true }
func (noneDesc) Name() string        { return "none" }

func (noneDesc) decodeValue(*bitstream.Reader, *Record, any) (any, error) {
	return Unit{}, nil
}

func (noneDesc) encodeValue(*bitstream.Writer, any, *Record, any) error {
	return nil
}

// --- enums ---

type uintEnumDesc struct {
	n       int
	allowed map[uint64]bool
}

// UintEnum builds a descriptor for an n-bit unsigned integer that
// must decode to one of allowed's members; an unmatched value is an
// EnumOutOfRange error. The enum's richer value type (names, Go enum
// type) is layered on top with Mapped; the core only knows the
// numeric catalogue.
func UintEnum(n int, allowed []uint64) Descriptor {
	checkWidth(n)
	set := make(map[uint64]bool, len(allowed))
	for _, v := range allowed {
		set[v] = true
	}
	return uintEnumDesc{n: n, allowed: set}
}

func (d uintEnumDesc) Length() (int, bool) { return d.n, true }
func (d uintEnumDesc) Name() string        { return fmt.Sprintf("uint_enum(%d)", d.n) }

func (d uintEnumDesc) decodeValue(r *bitstream.Reader, _ *Record, _ any) (any, error) {
	raw, err := r.Take(d.n)
	if err != nil {
		return nil, translateReadErr(err)
	}
	if !d.allowed[raw] {
		return nil, enumErrf("uint_enum(%d): %d is not a valid member", d.n, raw)
	}
	return raw, nil
}

func (d uintEnumDesc) encodeValue(w *bitstream.Writer, v any, _ *Record, _ any) error {
	val, ok := v.(uint64)
	if !ok || !d.allowed[val] {
		return enumErrf("uint_enum(%d): value %v is not a valid member", d.n, v)
	}
	w.Put(val, d.n)
	return nil
}

type intEnumDesc struct {
	n       int
	allowed map[int64]bool
}

// IntEnum is the signed counterpart of UintEnum.
func IntEnum(n int, allowed []int64) Descriptor {
	checkWidth(n)
	set := make(map[int64]bool, len(allowed))
	for _, v := range allowed {
		set[v] = true
	}
	return intEnumDesc{n: n, allowed: set}
}

func (d intEnumDesc) Length() (int, bool) { return d.n, true }
func (d intEnumDesc) Name() string        { return fmt.Sprintf("int_enum(%d)", d.n) }

func (d intEnumDesc) decodeValue(r *bitstream.Reader, _ *Record, _ any) (any, error) {
	inner := intDesc{n: d.n}
	v, err := inner.decodeValue(r, nil, nil)
	if err != nil {
		return nil, err
	}
	val := v.(int64)
	if !d.allowed[val] {
		return nil, enumErrf("int_enum(%d): %d is not a valid member", d.n, val)
	}
	return val, nil
}

func (d intEnumDesc) encodeValue(w *bitstream.Writer, v any, _ *Record, _ any) error {
	val, ok := v.(int64)
	if !ok || !d.allowed[val] {
		return enumErrf("int_enum(%d): value %v is not a valid member", d.n, v)
	}
	inner := intDesc{n: d.n}
	return inner.encodeValue(w, val, nil, nil)
}

// --- literals ---

type litUintDesc struct {
	n int
	v uint64
}

// LitUint builds a descriptor whose decoded value must equal v
// exactly (a LiteralMismatch otherwise) and whose encoded value is
// always v's n-bit pattern. Since the numeric bit width cannot be
// inferred from v alone, it must be given explicitly.
func LitUint(n int, v uint64) Descriptor {
	checkWidth(n)
	if !fitsUint(v, n) {
		panic(schemaErrf("lit_uint: literal %d does not fit in %d bits", v, n))
	}
	return litUintDesc{n: n, v: v}
}

func (d litUintDesc) Length() (int, bool)         { return d.n, true }
func (d litUintDesc) Name() string                { return fmt.Sprintf("lit_uint(%d,%d)", d.n, d.v) }
func (d litUintDesc) DefaultValue() (any, bool)    { return d.v, true }

func (d litUintDesc) decodeValue(r *bitstream.Reader, _ *Record, _ any) (any, error) {
	raw, err := r.Take(d.n)
	if err != nil {
		return nil, translateReadErr(err)
	}
	if raw != d.v {
		return nil, literalErrf("lit_uint(%d): decoded %d, want %d", d.n, raw, d.v)
	}
	return raw, nil
}

func (d litUintDesc) encodeValue(w *bitstream.Writer, v any, _ *Record, _ any) error {
	val, ok := v.(uint64)
	if !ok || val != d.v {
		return literalErrf("lit_uint(%d): value %v does not match literal %d", d.n, v, d.v)
	}
	w.Put(d.v, d.n)
	return nil
}

type litIntDesc struct {
	n int
	v int64
}

// LitInt is the signed counterpart of LitUint.
func LitInt(n int, v int64) Descriptor {
	checkWidth(n)
	if !fitsInt(v, n) {
		panic(schemaErrf("lit_int: literal %d does not fit in %d bits", v, n))
	}
	return litIntDesc{n: n, v: v}
}

func (d litIntDesc) Length() (int, bool)      { return d.n, true }
func (d litIntDesc) Name() string             { return fmt.Sprintf("lit_int(%d,%d)", d.n, d.v) }
func (d litIntDesc) DefaultValue() (any, bool) { return d.v, true }

func (d litIntDesc) decodeValue(r *bitstream.Reader, _ *Record, _ any) (any, error) {
	inner := intDesc{n: d.n}
	v, err := inner.decodeValue(r, nil, nil)
	if err != nil {
		return nil, err
	}
	val := v.(int64)
	if val != d.v {
		return nil, literalErrf("lit_int(%d): decoded %d, want %d", d.n, val, d.v)
	}
	return val, nil
}

func (d litIntDesc) encodeValue(w *bitstream.Writer, v any, _ *Record, _ any) error {
	val, ok := v.(int64)
	if !ok || val != d.v {
		return literalErrf("lit_int(%d): value %v does not match literal %d", d.n, v, d.v)
	}
	inner := intDesc{n: d.n}
	return inner.encodeValue(w, d.v, nil, nil)
}

type litBytesDesc struct{ v []byte }

// LitBytes builds a descriptor whose decoded value must equal v
// exactly, byte for byte; the width is inferred from len(v).
func LitBytes(v []byte) Descriptor {
	cp := append([]byte(nil), v...)
	return litBytesDesc{v: cp}
}

func (d litBytesDesc) Length() (int, bool)      { return 8 * len(d.v), true }
func (d litBytesDesc) Name() string             { return fmt.Sprintf("lit_bytes(%d)", len(d.v)) }
func (d litBytesDesc) DefaultValue() (any, bool) { return append([]byte(nil), d.v...), true }

func (d litBytesDesc) decodeValue(r *bitstream.Reader, _ *Record, _ any) (any, error) {
	raw, err := r.TakeBytes(len(d.v))
	if err != nil {
		return nil, translateReadErr(err)
	}
	if !bytes.Equal(raw, d.v) {
		return nil, literalErrf("lit_bytes: decoded % x, want % x", raw, d.v)
	}
	return raw, nil
}

func (d litBytesDesc) encodeValue(w *bitstream.Writer, v any, _ *Record, _ any) error {
	b, ok := v.([]byte)
	if !ok || !bytes.Equal(b, d.v) {
		return literalErrf("lit_bytes: value % x does not match literal % x", v, d.v)
	}
	w.PutBytes(d.v)
	return nil
}

type litStrDesc struct {
	v   string
	enc TextEncoding
	raw []byte // enc.Encode(v), computed once at construction
}

// LitStr builds a descriptor whose decoded value must equal v
// exactly; the width is inferred from the encoded length of v under
// enc (UTF8 if nil).
func LitStr(v string, enc TextEncoding) Descriptor {
	if enc == nil {
		enc = UTF8
	}
	raw, err := enc.Encode(v)
	if err != nil {
		panic(schemaErrf("lit_str: literal %q does not encode under %s: %v", v, enc.Name(), err))
	}
	return litStrDesc{v: v, enc: enc, raw: raw}
}

func (d litStrDesc) Length() (int, bool)      { return 8 * len(d.raw), true }
func (d litStrDesc) Name() string             { return fmt.Sprintf("lit_str(%q)", d.v) }
func (d litStrDesc) DefaultValue() (any, bool) { return d.v, true }

func (d litStrDesc) decodeValue(r *bitstream.Reader, _ *Record, _ any) (any, error) {
	raw, err := r.TakeBytes(len(d.raw))
	if err != nil {
		return nil, translateReadErr(err)
	}
	if !bytes.Equal(raw, d.raw) {
		return nil, literalErrf("lit_str: decoded % x, want % x for %q", raw, d.raw, d.v)
	}
	return d.v, nil
}

func (d litStrDesc) encodeValue(w *bitstream.Writer, v any, _ *Record, _ any) error {
	s, ok := v.(string)
	if !ok || s != d.v {
		return literalErrf("lit_str: value %q does not match literal %q", v, d.v)
	}
	w.PutBytes(d.raw)
	return nil
}
