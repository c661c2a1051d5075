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
	"os"

	"sigs.k8s.io/yaml"
)

// Config is blctl's run configuration: which named schema to decode
// or encode with, and the context value (currently just a chosen
// text encoding name) passed through to Decode/Encode.
type Config struct {
	Schema   string `json:"schema"`
	Encoding string `json:"encoding,omitempty"`
}

func loadConfig(path string) (*Config, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("blctl: reading config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(buf, &cfg); err != nil {
		return nil, fmt.Errorf("blctl: parsing config %s: %w", path, err)
	}
	if cfg.Schema == "" {
		return nil, fmt.Errorf("blctl: config %s does not name a schema", path)
	}
	return &cfg, nil
}
