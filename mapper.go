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

// ValueMapper converts between a wire value (whatever an inner
// descriptor decodes to / expects to encode) and a domain value of
// the caller's choosing. Both directions are treated as opaque by
// the engine; a ValueMapper that panics is recovered and reported as
// a MapperError carrying the failing field's path.
type ValueMapper interface {
	// Forward converts a domain value into the wire value an inner
	// descriptor will encode.
	Forward(domain any) (wire any, err error)
	// Back converts a decoded wire value into a domain value.
	Back(wire any) (domain any, err error)
}

type funcMapper struct {
	forward func(any) (any, error)
	back    func(any) (any, error)
}

func (m *funcMapper) Forward(domain any) (any, error) { return m.forward(domain) }
func (m *funcMapper) Back(wire any) (any, error)      { return m.back(wire) }

// NewMapper builds a ValueMapper from a pair of typed total
// functions, the way the value-mapper interface is described in the
// spec: forward maps a domain value to its wire representation, back
// maps a decoded wire value back to the domain type. The returned
// mapper does its own type assertions so it can satisfy the untyped
// ValueMapper interface the engine expects.
func NewMapper[Domain, Wire any](forward func(Domain) (Wire, error), back func(Wire) (Domain, error)) ValueMapper {
	return &funcMapper{
		forward: func(d any) (any, error) {
			return forward(d.(Domain))
		},
		back: func(w any) (any, error) {
			return back(w.(Wire))
		},
	}
}

// callMapper invokes fn, converting any failure from within the
// opaque mapper callback into a MapperError instead of letting it
// escape the codec: a panic is recovered, and an ordinary returned
// error is wrapped the same way primitives.go wraps a TextEncoding
// callback's error into an EncodingError.
func callMapper(fn func() (any, error)) (res any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = mapperErrf("panic: %v", r)
		}
	}()
	res, err = fn()
	if err != nil {
		return nil, mapperErrf("%v", err)
	}
	return res, nil
}
