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

// Package fingerprint hashes a schema's static shape into a short
// digest, so two schemas built in different places that happen to
// describe the same layout are recognizably "the same shape" without
// comparing their descriptor trees field by field. It is a diagnostic
// and benchmarking aid only; nothing in the codec's decode/encode path
// consults it.
package fingerprint

import (
	"encoding/binary"
	"encoding/hex"

	"golang.org/x/crypto/blake2b"

	"github.com/binlayout/binlayout"
)

// Shape hashes the field names and static bit widths of s's fields,
// in order, returning a 16-byte digest rendered as hex. Fields whose
// static width is unknown (dynamic/list-with-dynamic-count fields)
// contribute their name and a sentinel width marker rather than being
// skipped, so a schema that only differs in which field is dynamic
// still hashes differently.
func Shape(s *binlayout.Schema) string {
	h, err := blake2b.New(16, nil)
	if err != nil {
		// Only an out-of-range size or a key longer than 64 bytes
		// make New fail; both are compile-time constants here.
		panic(err)
	}
	for _, f := range s.Describe() {
		h.Write([]byte(f.Name))
		h.Write([]byte{0})
		var width uint64
		if f.BitWidthKnown {
			width = uint64(f.BitWidth) + 1
		}
		var buf [8]byte
		binary.BigEndian.PutUint64(buf[:], width)
		h.Write(buf[:])
	}
	return hex.EncodeToString(h.Sum(nil))
}
