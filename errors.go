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
	"errors"
	"fmt"
	"strings"
)

// The error kinds a descriptor or the record engine can raise. Each
// is a sentinel whose Error() text is exactly the kind's name, so a
// wrapped leaf error (fmt.Errorf("%w: detail", ErrRangeError)) prints
// as "RangeError: detail" and still satisfies errors.Is against the
// sentinel.
var (
	ErrEndOfStream              = errors.New("EndOfStream")
	ErrTrailingBits             = errors.New("TrailingBits")
	ErrUnalignedConsumption     = errors.New("UnalignedConsumption")
	ErrUnalignedOutput          = errors.New("UnalignedOutput")
	ErrRangeError               = errors.New("RangeError")
	ErrLiteralMismatch          = errors.New("LiteralMismatch")
	ErrEnumOutOfRange           = errors.New("EnumOutOfRange")
	ErrEncodingError            = errors.New("EncodingError")
	ErrMapperError              = errors.New("MapperError")
	ErrUnsupportedDynamicEncode = errors.New("UnsupportedDynamicEncode")
	ErrSchemaError              = errors.New("SchemaError")
)

// Path is the sequence of record and field names an error passed
// through on its way up to the caller, outermost first.
type Path []string

func (p Path) String() string { return strings.Join(p, ".") }

// FieldError is the error type returned by every public Schema
// operation that fails. Kind unwraps to one of the sentinels above.
type FieldError struct {
	Kind   error
	Path   Path
	BitPos int
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s (bit %d)", e.Path.String(), e.Kind.Error(), e.BitPos)
}

func (e *FieldError) Unwrap() error { return e.Kind }

// wrapPath prepends name to err's path, turning a bare leaf error
// into a *FieldError the first time it is seen and extending an
// existing one on every enclosing layer after that. bitpos is only
// used the first time, to record where in the stream the failure
// occurred.
func wrapPath(err error, name string, bitpos int) error {
	if err == nil {
		return nil
	}
	var fe *FieldError
	if errors.As(err, &fe) {
		fe.Path = append(Path{name}, fe.Path...)
		return fe
	}
	return &FieldError{Kind: err, Path: Path{name}, BitPos: bitpos}
}

func rangeErrf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrRangeError}, args...)...)
}

func schemaErrf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrSchemaError}, args...)...)
}

func encodingErrf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrEncodingError}, args...)...)
}

func literalErrf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrLiteralMismatch}, args...)...)
}

func enumErrf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrEnumOutOfRange}, args...)...)
}

func mapperErrf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrMapperError}, args...)...)
}
