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
	"reflect"

	"golang.org/x/exp/maps"
)

// Record is the one concrete type the core speaks in terms of: it is
// both the append-only partial record a dynamic field factory sees
// during decode, and the named-value bag Encode consumes as its
// input. A field at position i of a schema only ever sees the values
// bound for positions 0..i-1.
type Record struct {
	order []string
	vals  map[string]any

	// schema identifies the Schema a nested bitfield record was
	// decoded from, if any. It lets a remaining-bits dynamic field
	// re-encode a nested record without needing to re-run its
	// factory (see DynamicRemaining in combinators.go): a *Record's
	// own shape is "self-describing" precisely because it carries
	// this back-reference.
	schema *Schema
}

// NewRecord returns an empty record.
func NewRecord() *Record {
	return &Record{vals: make(map[string]any)}
}

// Get returns the value bound to name and whether it was present.
func (r *Record) Get(name string) (any, bool) {
	v, ok := r.vals[name]
	return v, ok
}

// Set binds name to v, appending name to the declaration order the
// first time it is set.
func (r *Record) Set(name string, v any) {
	if _, exists := r.vals[name]; !exists {
		r.order = append(r.order, name)
	}
	r.vals[name] = v
}

// Keys returns the names bound so far, in the order they were set.
func (r *Record) Keys() []string {
	return append([]string(nil), r.order...)
}

// Len returns the number of bound fields.
func (r *Record) Len() int { return len(r.order) }

// Snapshot returns a defensive copy of the record's values, for
// diagnostic or logging use outside the codec's own call stack. It is
// not used on the decode/encode hot path.
func (r *Record) Snapshot() map[string]any {
	return maps.Clone(r.vals)
}

// Equal reports whether two records hold the same named values,
// independent of binding order. A *Record bound directly as a value
// is compared the same way, recursively; records held inside a list
// ([]any) are compared with reflect.DeepEqual, which is sensitive to
// binding order and to the schema back-reference.
func (r *Record) Equal(other *Record) bool {
	if r == nil || other == nil {
		return r == other
	}
	if len(r.vals) != len(other.vals) {
		return false
	}
	for k, v := range r.vals {
		ov, ok := other.vals[k]
		if !ok {
			return false
		}
		if !valuesEqual(v, ov) {
			return false
		}
	}
	return true
}

func valuesEqual(a, b any) bool {
	ar, aok := a.(*Record)
	br, bok := b.(*Record)
	if aok && bok {
		return ar.Equal(br)
	}
	if aok != bok {
		return false
	}
	// A list of nested bitfields decodes as []any of *Record (listDesc
	// in combinators.go never produces []*Record), so it falls through
	// to DeepEqual here rather than getting its own case; two records
	// built by the same schema always bind fields in the same order,
	// so DeepEqual agrees with Equal's order-independence in practice.
	return reflect.DeepEqual(a, b)
}
