// Package errors holds the error kinds shared by the save header decoder
// and its container collaborators. Callers match them with errors.Is.
package errors

import "errors"

var (
	// Decode errors 📜
	ErrEndOfInput         = errors.New("❌ unexpected end of input")
	ErrInvalidEncoding    = errors.New("❌ invalid encoding")
	ErrUnsupportedVersion = errors.New("❌ unsupported save version")
	ErrInvalidWidth       = errors.New("❌ invalid integer width")

	// Container errors 📦
	ErrHeaderNotFound   = errors.New("❌ save header entry not found")
	ErrUnknownOperation = errors.New("❌ unknown operation")

	// Output errors 🖨
	ErrUnknownFormat    = errors.New("❌ unknown output format")
	ErrUnknownAlgorithm = errors.New("❌ unknown checksum algorithm")
)
