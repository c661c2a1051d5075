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

	"golang.org/x/exp/slices"

	"github.com/binlayout/binlayout/bitstream"
)

// SchemaField pairs a field name with the descriptor that decodes
// and encodes it, plus an optional default substituted when the
// field is omitted from the record passed to Encode.
type SchemaField struct {
	Name       string
	D          Descriptor
	Default    any
	HasDefault bool
}

// Field declares a field with a fixed descriptor.
func Field(name string, d Descriptor) SchemaField {
	return SchemaField{Name: name, D: d}
}

// FieldDefault declares a field with a fixed descriptor and a
// default value used when the field is missing from the record
// passed to Encode. Literal descriptors (LitUint, LitInt, LitBytes,
// LitStr) already default themselves this way and don't need it.
func FieldDefault(name string, d Descriptor, def any) SchemaField {
	return SchemaField{Name: name, D: d, Default: def, HasDefault: true}
}

// Schema is an ordered, named sequence of descriptors: the record
// engine of §4.5. Name identifies the schema in diagnostics and as
// the outermost segment of every error path it raises.
type Schema struct {
	Name   string
	Fields []SchemaField

	length      int
	lengthKnown bool
}

// New builds a schema from an ordered list of fields. The schema's
// static length (if every field's is known) is computed once here,
// since descriptors are immutable and the sum can never change.
func New(name string, fields ...SchemaField) *Schema {
	var names []string
	for _, f := range fields {
		if slices.Contains(names, f.Name) {
			panic(schemaErrf("schema %q: duplicate field name %q", name, f.Name))
		}
		names = append(names, f.Name)
	}

	s := &Schema{Name: name, Fields: fields}
	total := 0
	known := true
	for _, f := range fields {
		n, ok := f.D.Length()
		if !ok {
			known = false
			break
		}
		total += n
	}
	s.length, s.lengthKnown = total, known
	return s
}

// HasField reports whether name is one of s's declared fields.
func (s *Schema) HasField(name string) bool {
	return slices.IndexFunc(s.Fields, func(f SchemaField) bool { return f.Name == name }) >= 0
}

// Length reports the schema's total static bit width, if every
// field's width is known independently of the other fields.
func (s *Schema) Length() (int, bool) { return s.length, s.lengthKnown }

// FieldShape describes one field's static shape, for tooling.
type FieldShape struct {
	Name          string
	BitWidth      int
	BitWidthKnown bool
}

// Describe returns each field's name and static bit width (if any),
// in schema order, for documentation/tooling use. It is read-only
// reflection over an already-built schema, not a way to attach
// fields to a struct definition (that stays outside the core).
func (s *Schema) Describe() []FieldShape {
	out := make([]FieldShape, len(s.Fields))
	for i, f := range s.Fields {
		n, ok := f.D.Length()
		out[i] = FieldShape{Name: f.Name, BitWidth: n, BitWidthKnown: ok}
	}
	return out
}

// decodeFields runs the fields of s against r in order, building up
// a fresh *Record that later dynamic fields see as their partial
// record. It does not add s.Name to a failing error's path; that is
// the job of the public entry points (DecodeExact/DecodeOne), so
// that a nested Bitfield field only contributes its own field name,
// not a redundant inner schema name, to the reported path.
func (s *Schema) decodeFields(r *bitstream.Reader, ctx any) (*Record, error) {
	rec := NewRecord()
	for _, f := range s.Fields {
		bitpos := r.BitPosition()
		val, err := f.D.decodeValue(r, rec, ctx)
		if err != nil {
			return nil, wrapPath(err, f.Name, bitpos)
		}
		rec.Set(f.Name, val)
	}
	return rec, nil
}

// encodeFields is decodeFields's encode-direction counterpart: it
// reads each field's value out of v (substituting a default or a
// literal descriptor's own constant when absent) and builds the
// same kind of partial-record view for sibling dynamic fields, this
// time from already-encoded input values rather than freshly decoded
// ones.
func (s *Schema) encodeFields(w *bitstream.Writer, v *Record, ctx any) error {
	partial := NewRecord()
	for _, f := range s.Fields {
		val, ok := v.Get(f.Name)
		if !ok {
			if f.HasDefault {
				val = f.Default
			} else if dv, ok2 := literalDefault(f.D); ok2 {
				val = dv
			} else {
				return wrapPath(schemaErrf("missing value for field %q", f.Name), f.Name, w.BitPosition())
			}
		}
		bitpos := w.BitPosition()
		if err := f.D.encodeValue(w, val, partial, ctx); err != nil {
			return wrapPath(err, f.Name, bitpos)
		}
		partial.Set(f.Name, val)
	}
	return nil
}

// DecodeExact decodes buf against s and requires every bit to be
// consumed, failing with ErrTrailingBits otherwise.
func (s *Schema) DecodeExact(buf []byte, ctx any) (*Record, error) {
	r := bitstream.NewReader(buf)
	rec, err := s.decodeFields(r, ctx)
	if err != nil {
		return nil, wrapPath(err, s.Name, 0)
	}
	if r.Remaining() != 0 {
		return nil, wrapPath(fmt.Errorf("%w: %d bits remain", ErrTrailingBits, r.Remaining()), s.Name, r.BitPosition())
	}
	rec.schema = s
	return rec, nil
}

// DecodeOne decodes a single record as a byte-aligned prefix of buf,
// returning the decoded record and the unconsumed suffix. It fails
// with ErrUnalignedConsumption if the record's encoding does not end
// on a byte boundary.
func (s *Schema) DecodeOne(buf []byte, ctx any) (*Record, []byte, error) {
	r := bitstream.NewReader(buf)
	rec, err := s.decodeFields(r, ctx)
	if err != nil {
		return nil, nil, wrapPath(err, s.Name, 0)
	}
	if !r.Aligned() {
		return nil, nil, wrapPath(fmt.Errorf("%w: consumed %d bits", ErrUnalignedConsumption, r.BitPosition()), s.Name, r.BitPosition())
	}
	rec.schema = s
	consumed := r.BitPosition() / 8
	return rec, buf[consumed:], nil
}

// DecodeBatch repeatedly applies DecodeOne until it fails, returning
// every record decoded so far and the final unconsumed suffix. A
// failure decoding the very first record is not fatal: DecodeBatch
// never fails, it just returns an empty list and the original buf.
func (s *Schema) DecodeBatch(buf []byte, ctx any) ([]*Record, []byte) {
	var out []*Record
	rest := buf
	for {
		rec, tail, err := s.DecodeOne(rest, ctx)
		if err != nil {
			break
		}
		out = append(out, rec)
		if len(tail) == len(rest) {
			// A zero-width record (e.g. all None/literal fields)
			// would otherwise loop forever consuming nothing.
			rest = tail
			break
		}
		rest = tail
		if len(rest) == 0 {
			break
		}
	}
	return out, rest
}

// Encode serializes v according to s, requiring the result to be
// byte-aligned (failing with ErrUnalignedOutput otherwise).
func (s *Schema) Encode(v *Record, ctx any) ([]byte, error) {
	w := bitstream.NewWriter()
	if err := s.encodeFields(w, v, ctx); err != nil {
		return nil, wrapPath(err, s.Name, 0)
	}
	if !w.Aligned() {
		return nil, wrapPath(fmt.Errorf("%w: %d leftover bits", ErrUnalignedOutput, w.BitPosition()%8), s.Name, w.BitPosition())
	}
	return w.Bytes(), nil
}
