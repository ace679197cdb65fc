// Package operations is the registry of codecs a save container may wrap
// its header entry in. Codecs register themselves from the compress
// sub-package; import it for side effects.
package operations

import (
	"fmt"
	"io"
	"sync"

	saveerrors "github.com/knoxfighter/factorio-lib/pkg/saves/errors"
)

// Operation identifiers
const (
	// No operation - raw data
	OP_NONE = 0x00

	// Compression operations (0x10-0x2F)
	OP_GZIP  = 0x10 // GZIP compression
	OP_ZLIB  = 0x11 // ZLIB (RFC 1950), used by the game for level.dat0
	OP_BZIP2 = 0x13 // BZIP2 compression
	OP_ZSTD  = 0x1B // Zstandard compression
	OP_LZ4   = 0x1C // LZ4 frame compression
)

// Operation represents a single transformation operation
type Operation interface {
	// ID returns the operation identifier (e.g., OP_ZLIB)
	ID() uint8

	// Name returns the human-readable name
	Name() string

	// Apply applies the operation to input data
	Apply(input []byte) ([]byte, error)

	// ApplyStream applies the operation to a stream
	ApplyStream(input io.Reader, output io.Writer) error

	// Reverse reverses the operation (e.g., decompress for compression)
	Reverse(input []byte) ([]byte, error)

	// ReverseStream reverses the operation on a stream
	ReverseStream(input io.Reader, output io.Writer) error

	// NewReverseReader returns a reader that reverses the operation lazily,
	// so a caller can stop after the bytes it needs.
	NewReverseReader(input io.Reader) (io.ReadCloser, error)
}

// BaseOperation provides common functionality for operations
type BaseOperation struct {
	OpID   uint8
	OpName string
}

func (o *BaseOperation) ID() uint8 {
	return o.OpID
}

func (o *BaseOperation) Name() string {
	return o.OpName
}

var (
	registryMu sync.RWMutex
	registry   = make(map[uint8]Operation)
)

// Register registers an operation implementation
func Register(op Operation) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[op.ID()] = op
}

// Get retrieves an operation by ID
func Get(id uint8) (Operation, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	op, ok := registry[id]
	if !ok {
		return nil, fmt.Errorf("%w: 0x%02x", saveerrors.ErrUnknownOperation, id)
	}
	return op, nil
}

// GetName returns the name of an operation by ID
func GetName(id uint8) string {
	switch id {
	case OP_NONE:
		return "NONE"
	case OP_GZIP:
		return "GZIP"
	case OP_ZLIB:
		return "ZLIB"
	case OP_BZIP2:
		return "BZIP2"
	case OP_ZSTD:
		return "ZSTD"
	case OP_LZ4:
		return "LZ4"
	default:
		return fmt.Sprintf("UNKNOWN_%02x", id)
	}
}
