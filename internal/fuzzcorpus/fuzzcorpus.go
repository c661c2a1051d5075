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

// Package fuzzcorpus deterministically expands a small seed into a
// byte corpus for decode_batch property tests, so a test run is
// reproducible without reaching for math/rand's global state.
package fuzzcorpus

import (
	"encoding/binary"

	"github.com/dchest/siphash"
)

// Gen produces n pseudo-random bytes derived from seed and a fixed
// 128-bit key, by running SipHash-2-4 over an incrementing counter
// and concatenating the 8-byte outputs.
func Gen(seed uint64, n int) []byte {
	const k0, k1 = 0x6c696e656c617921, 0x62696e6c61796f75 // arbitrary fixed key
	out := make([]byte, 0, n+8)
	var counter uint64
	for len(out) < n {
		var msg [16]byte
		binary.LittleEndian.PutUint64(msg[0:8], seed)
		binary.LittleEndian.PutUint64(msg[8:16], counter)
		h := siphash.Hash(k0, k1, msg[:])
		var buf [8]byte
		binary.LittleEndian.PutUint64(buf[:], h)
		out = append(out, buf[:]...)
		counter++
	}
	return out[:n]
}

// Records returns a Gen-produced corpus of recordLen*count bytes as
// one flat slice, i.e. count back-to-back records of recordLen bytes,
// the shape decode_batch fuzz tests exercise against a fixed schema.
func Records(seed uint64, recordLen, count int) []byte {
	return Gen(seed, recordLen*count)
}
