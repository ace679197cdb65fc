package header

import (
	"errors"
	"fmt"
	"io"

	saveerrors "github.com/knoxfighter/factorio-lib/pkg/saves/errors"
)

// DecodeError reports which header field failed and where. Kind is one of
// the sentinels in pkg/saves/errors, so callers can use errors.Is on it.
type DecodeError struct {
	Field  string // e.g. "level_name", "mods[2].version"
	Offset int64  // byte offset where the failing read started
	Kind   error
	Err    error // underlying cause, may be nil

	// Value is the offending byte or length for invalid encodings.
	Value    uint64
	HasValue bool
}

func (e *DecodeError) Error() string {
	msg := e.Kind.Error()
	if e.Field != "" {
		msg = fmt.Sprintf("%s: %s", e.Field, msg)
	}
	msg = fmt.Sprintf("%s at offset %d", msg, e.Offset)
	if e.HasValue {
		msg = fmt.Sprintf("%s (value %d)", msg, e.Value)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *DecodeError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func endOfInput(offset int64) *DecodeError {
	return &DecodeError{Offset: offset, Kind: saveerrors.ErrEndOfInput}
}

func invalidValue(offset int64, value uint64, err error) *DecodeError {
	return &DecodeError{
		Offset:   offset,
		Kind:     saveerrors.ErrInvalidEncoding,
		Err:      err,
		Value:    value,
		HasValue: true,
	}
}

// ioError classifies a failed read. Short reads are end-of-input; any other
// error from the stream (a codec or the filesystem) is returned unmodified.
func ioError(offset int64, err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return endOfInput(offset)
	}
	return err
}

// withField names the field on a decode error that has none yet. Errors
// that already carry a field (from a nested record) keep it.
func withField(field string, err error) error {
	var de *DecodeError
	if errors.As(err, &de) {
		if de.Field == "" {
			de.Field = field
		}
		return de
	}
	return err
}
