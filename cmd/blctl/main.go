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

// blctl decodes records against one of a small built-in set of named
// schemas, driven by a YAML config file. Its encode mode exits with an
// error without encoding anything.
package main

import (
	"bufio"
	"encoding/hex"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/google/uuid"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("blctl: ")

	var (
		configPath = flag.String("config", "", "path to a YAML config naming the schema to run")
		mode       = flag.String("mode", "decode", "decode|encode")
	)
	flag.Parse()

	if *configPath == "" {
		log.Fatal("-config is required")
	}
	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatal(err)
	}
	schema, err := lookupSchema(cfg.Schema)
	if err != nil {
		log.Fatal(err)
	}
	handle := &schemaHandle{schema: schema, ctx: cfg.Encoding}

	corr := uuid.New()
	log.Printf("correlation=%s schema=%s mode=%s", corr, cfg.Schema, *mode)

	switch *mode {
	case "decode":
		if err := runDecode(handle, os.Stdin, os.Stdout); err != nil {
			log.Fatal(err)
		}
	case "encode":
		log.Fatal("encode mode is not implemented: building a record from textual input is out of scope")
	default:
		log.Fatalf("unknown -mode %q", *mode)
	}
}

// runDecode reads one hex-encoded record per line from in and prints
// its decoded fields, one per line, to out. Records are expected to
// be byte-aligned (see Schema.DecodeOne).
func runDecode(s *schemaHandle, in *os.File, out *os.File) error {
	scanner := bufio.NewScanner(in)
	w := bufio.NewWriter(out)
	defer w.Flush()

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		buf, err := hex.DecodeString(line)
		if err != nil {
			return fmt.Errorf("blctl: decoding hex input: %w", err)
		}
		rec, _, err := s.schema.DecodeOne(buf, s.ctx)
		if err != nil {
			return fmt.Errorf("blctl: %w", err)
		}
		for _, k := range rec.Keys() {
			v, _ := rec.Get(k)
			fmt.Fprintf(w, "%s=%v\n", k, v)
		}
		fmt.Fprintln(w)
	}
	return scanner.Err()
}
