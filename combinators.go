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
	"fmt"

	"github.com/binlayout/binlayout/bitstream"
)

// --- list ---

type listDesc struct {
	inner      Descriptor
	fixedCount int
	fixedKnown bool
	countFn    func(p *Record, ctx any) (int, error)
}

// List builds a descriptor for exactly count values of inner.
func List(inner Descriptor, count int) Descriptor {
	if count < 0 {
		panic(schemaErrf("list: negative count %d", count))
	}
	return listDesc{inner: inner, fixedCount: count, fixedKnown: true}
}

// ListDyn builds a list descriptor whose element count is computed
// from the partial record at decode/encode time, e.g. an earlier
// "n_items" field.
func ListDyn(inner Descriptor, countFn func(p *Record, ctx any) (int, error)) Descriptor {
	return listDesc{inner: inner, countFn: countFn}
}

func (d listDesc) Length() (int, bool) {
	if !d.fixedKnown {
		return 0, false
	}
	innerLen, ok := d.inner.Length()
	if !ok {
		return 0, false
	}
	return innerLen * d.fixedCount, true
}

func (d listDesc) Name() string {
	if d.fixedKnown {
		return fmt.Sprintf("list(%s,%d)", d.inner.Name(), d.fixedCount)
	}
	return fmt.Sprintf("list(%s,dyn)", d.inner.Name())
}

func (d listDesc) resolveCount(p *Record, ctx any) (int, error) {
	if d.fixedKnown {
		return d.fixedCount, nil
	}
	n, err := d.countFn(p, ctx)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, schemaErrf("list: count function returned negative count %d", n)
	}
	return n, nil
}

func (d listDesc) decodeValue(r *bitstream.Reader, partial *Record, ctx any) (any, error) {
	n, err := d.resolveCount(partial, ctx)
	if err != nil {
		return nil, err
	}
	out := make([]any, n)
	for i := 0; i < n; i++ {
		v, err := d.inner.decodeValue(r, partial, ctx)
		if err != nil {
			return nil, wrapPath(err, fmt.Sprintf("[%d]", i), r.BitPosition())
		}
		out[i] = v
	}
	return out, nil
}

func (d listDesc) encodeValue(w *bitstream.Writer, v any, partial *Record, ctx any) error {
	list, ok := v.([]any)
	if !ok {
		return rangeErrf("list: value %v is not []any", v)
	}
	n, err := d.resolveCount(partial, ctx)
	if err != nil {
		return err
	}
	if len(list) != n {
		return rangeErrf("list: value has %d elements, want %d", len(list), n)
	}
	for i, elem := range list {
		if err := d.inner.encodeValue(w, elem, partial, ctx); err != nil {
			return wrapPath(err, fmt.Sprintf("[%d]", i), w.BitPosition())
		}
	}
	return nil
}

// --- mapped ---

type mappedDesc struct {
	inner  Descriptor
	mapper ValueMapper
}

// Mapped builds a descriptor that applies mapper.Back to inner's
// decoded value and mapper.Forward to a value before handing it to
// inner for encoding. The mapper is opaque to the engine; a panic
// from either direction is reported as a MapperError.
func Mapped(inner Descriptor, mapper ValueMapper) Descriptor {
	return mappedDesc{inner: inner, mapper: mapper}
}

func (d mappedDesc) Length() (int, bool) { return d.inner.Length() }
func (d mappedDesc) Name() string        { return fmt.Sprintf("mapped(%s)", d.inner.Name()) }

func (d mappedDesc) decodeValue(r *bitstream.Reader, partial *Record, ctx any) (any, error) {
	wire, err := d.inner.decodeValue(r, partial, ctx)
	if err != nil {
		return nil, err
	}
	domain, err := callMapper(func() (any, error) { return d.mapper.Back(wire) })
	if err != nil {
		return nil, err
	}
	return domain, nil
}

func (d mappedDesc) encodeValue(w *bitstream.Writer, v any, partial *Record, ctx any) error {
	wire, err := callMapper(func() (any, error) { return d.mapper.Forward(v) })
	if err != nil {
		return err
	}
	return d.inner.encodeValue(w, wire, partial, ctx)
}

// --- bitfield ---

type bitfieldDesc struct {
	schema *Schema
}

// Bitfield nests schema as a field: decoding runs the record engine
// on schema against the same stream and context, isolated from the
// parent's own partial record; only the finished child *Record
// appears in the parent's partial record.
func Bitfield(schema *Schema) Descriptor {
	return bitfieldDesc{schema: schema}
}

func (d bitfieldDesc) Length() (int, bool) { return d.schema.Length() }
func (d bitfieldDesc) Name() string        { return fmt.Sprintf("bitfield(%s)", d.schema.Name) }

func (d bitfieldDesc) decodeValue(r *bitstream.Reader, _ *Record, ctx any) (any, error) {
	rec, err := d.schema.decodeFields(r, ctx)
	if err != nil {
		return nil, err
	}
	rec.schema = d.schema
	return rec, nil
}

func (d bitfieldDesc) encodeValue(w *bitstream.Writer, v any, _ *Record, ctx any) error {
	rec, ok := v.(*Record)
	if !ok {
		return rangeErrf("bitfield(%s): value %v is not a *Record", d.schema.Name, v)
	}
	return d.schema.encodeFields(w, rec, ctx)
}

// --- dynamic ---

type dynamicDesc struct {
	factory func(p *Record, ctx any) (Descriptor, error)
}

// Dynamic builds a descriptor chosen at decode/encode time by
// factory, which sees the partial record built so far. factory may
// return nil, in which case the field's value is Unit{} and no bits
// are consumed or produced.
func Dynamic(factory func(p *Record, ctx any) (Descriptor, error)) Descriptor {
	return dynamicDesc{factory: factory}
}

func (dynamicDesc) Length() (int, bool) { return 0, false }
func (dynamicDesc) Name() string        { return "dynamic" }

func (d dynamicDesc) decodeValue(r *bitstream.Reader, partial *Record, ctx any) (any, error) {
	resolved, err := d.factory(partial, ctx)
	if err != nil {
		return nil, err
	}
	if resolved == nil {
		return Unit{}, nil
	}
	return resolved.decodeValue(r, partial, ctx)
}

func (d dynamicDesc) encodeValue(w *bitstream.Writer, v any, partial *Record, ctx any) error {
	resolved, err := d.factory(partial, ctx)
	if err != nil {
		return err
	}
	if resolved == nil {
		return nil
	}
	return resolved.encodeValue(w, v, partial, ctx)
}

// --- dynamic with remaining-bits ---

type dynamicRemainingDesc struct {
	factory func(p *Record, remaining int, ctx any) (Descriptor, error)
}

// DynamicRemaining builds a descriptor chosen at decode time by
// factory, which additionally sees the number of bits left in the
// stream (e.g. to consume "the rest" of a variable-length record).
//
// Because the encoder has no notion of "remaining bits" for a value
// it is about to serialize, Encode never calls factory for this
// variant. Instead it determines how to encode v purely from v's own
// type: a nested bitfield *Record re-encodes using the Schema it was
// decoded from, and bool/[]byte/Unit are self-describing outright.
// Any other value type fails with ErrUnsupportedDynamicEncode, since
// there would be no sound way to recover the bit width that was used
// to decode it.
func DynamicRemaining(factory func(p *Record, remaining int, ctx any) (Descriptor, error)) Descriptor {
	return dynamicRemainingDesc{factory: factory}
}

func (dynamicRemainingDesc) Length() (int, bool) { return 0, false }
func (dynamicRemainingDesc) Name() string        { return "dynamic(remaining)" }

func (d dynamicRemainingDesc) decodeValue(r *bitstream.Reader, partial *Record, ctx any) (any, error) {
	resolved, err := d.factory(partial, r.Remaining(), ctx)
	if err != nil {
		return nil, err
	}
	if resolved == nil {
		return Unit{}, nil
	}
	val, err := resolved.decodeValue(r, partial, ctx)
	if err != nil {
		return nil, err
	}
	if rec, ok := val.(*Record); ok && rec.schema == nil {
		if bd, ok := resolved.(bitfieldDesc); ok {
			rec.schema = bd.schema
		}
	}
	return val, nil
}

func (d dynamicRemainingDesc) encodeValue(w *bitstream.Writer, v any, partial *Record, ctx any) error {
	switch val := v.(type) {
	case Unit:
		return nil
	case bool:
		return Bool().encodeValue(w, val, partial, ctx)
	case []byte:
		return Bytes(len(val)).encodeValue(w, val, partial, ctx)
	case *Record:
		if val.schema == nil {
			return fmt.Errorf("%w: nested record was not produced by a known schema", ErrUnsupportedDynamicEncode)
		}
		return Bitfield(val.schema).encodeValue(w, val, partial, ctx)
	default:
		return fmt.Errorf("%w: value of type %T is not self-describing without the stream's remaining-bit count", ErrUnsupportedDynamicEncode, v)
	}
}
