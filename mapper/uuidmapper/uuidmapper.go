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

// Package uuidmapper adapts a 16-byte wire field to uuid.UUID, the way
// a correlation id travels on the wire in a query-handler request.
package uuidmapper

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/binlayout/binlayout"
)

// New returns a ValueMapper between a 16-byte wire value (as produced
// by binlayout.Bytes(16)) and uuid.UUID. Pair it with binlayout.Bytes(16)
// via binlayout.Mapped to get a uuid.UUID-valued field.
func New() binlayout.ValueMapper {
	return binlayout.NewMapper(forward, back)
}

func forward(id uuid.UUID) ([]byte, error) {
	b, err := id.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("uuidmapper: %w", err)
	}
	return b, nil
}

func back(wire []byte) (uuid.UUID, error) {
	var id uuid.UUID
	if err := id.UnmarshalBinary(wire); err != nil {
		return uuid.UUID{}, fmt.Errorf("uuidmapper: %w", err)
	}
	return id, nil
}

// Field builds a ready-to-use schema field bound to name that reads
// and writes a uuid.UUID over a 16-byte wire representation.
func Field(name string) binlayout.SchemaField {
	return binlayout.Field(name, binlayout.Mapped(binlayout.Bytes(16), New()))
}
