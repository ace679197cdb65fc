package pkg

import "errors"

var (
	// Verification errors 🔒
	ErrDigestMismatch = errors.New("❌ header digest mismatch")
)
