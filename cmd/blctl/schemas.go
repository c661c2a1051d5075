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

package main

import (
	"fmt"

	"github.com/binlayout/binlayout"
	"github.com/binlayout/binlayout/mapper/uuidmapper"
)

// registry is the small set of schemas blctl knows how to run, keyed
// by the name a Config file refers to them by. A real deployment
// would load schemas from a plugin or a schema-definition file; this
// is a fixed registry since schema construction from user-supplied
// data is explicitly out of scope (SPEC_FULL.md §5).
var registry = map[string]*binlayout.Schema{
	"event": binlayout.New("Event",
		uuidmapper.Field("id"),
		binlayout.Field("kind", binlayout.Uint(8)),
		binlayout.Field("note", binlayout.Str(16, nil)),
	),
}

// schemaHandle pairs a looked-up schema with the context value its
// fields see during Decode/Encode (here, just the chosen text
// encoding's name - the registry's schemas don't currently have any
// dynamic field that consults it, but it keeps the plumbing in place
// for one that would).
type schemaHandle struct {
	schema *binlayout.Schema
	ctx    any
}

func lookupSchema(name string) (*binlayout.Schema, error) {
	s, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("blctl: no such schema %q", name)
	}
	return s, nil
}
