package operations

import (
	"errors"
	"fmt"
	"io"
	"strings"

	saveerrors "github.com/knoxfighter/factorio-lib/pkg/saves/errors"
)

// Named operations for parsing
var namedOperations = map[string]uint8{
	"NONE":  OP_NONE,
	"RAW":   OP_NONE,
	"GZIP":  OP_GZIP,
	"ZLIB":  OP_ZLIB,
	"BZIP2": OP_BZIP2,
	"ZSTD":  OP_ZSTD,
	"LZ4":   OP_LZ4,
}

// File suffixes of repackaged entries, e.g. "level.dat.gz"
var suffixOperations = map[string]uint8{
	".gz":   OP_GZIP,
	".zz":   OP_ZLIB,
	".bz2":  OP_BZIP2,
	".zst":  OP_ZSTD,
	".zstd": OP_ZSTD,
	".lz4":  OP_LZ4,
}

// ParseOperations parses a pipe-separated chain like "zstd|gzip", in
// application order. "raw" and "" give an empty chain.
func ParseOperations(opString string) ([]uint8, error) {
	var ops []uint8
	for _, part := range strings.Split(opString, "|") {
		part = strings.TrimSpace(strings.ToUpper(part))
		if part == "" {
			continue
		}
		op, ok := namedOperations[part]
		if !ok {
			return nil, fmt.Errorf("%w: %s", saveerrors.ErrUnknownOperation, strings.ToLower(part))
		}
		if op == OP_NONE {
			continue
		}
		ops = append(ops, op)
	}
	return ops, nil
}

// OperationsToString converts a chain to its pipe format.
func OperationsToString(ops []uint8) string {
	if len(ops) == 0 {
		return "raw"
	}
	names := make([]string, len(ops))
	for i, op := range ops {
		names[i] = strings.ToLower(GetName(op))
	}
	return strings.Join(names, "|")
}

// ForEntryName strips codec suffixes from an archive entry name. It returns
// the bare name and the chain that was applied to produce the entry, in
// application order.
func ForEntryName(name string) (string, []uint8) {
	var ops []uint8
	for {
		matched := false
		lower := strings.ToLower(name)
		for suffix, op := range suffixOperations {
			if strings.HasSuffix(lower, suffix) && len(name) > len(suffix) {
				name = name[:len(name)-len(suffix)]
				ops = append([]uint8{op}, ops...)
				matched = true
				break
			}
		}
		if !matched {
			return name, ops
		}
	}
}

// ApplyChain applies a chain of operations to data
func ApplyChain(data []byte, operations []uint8) ([]byte, error) {
	current := data

	for _, opID := range operations {
		op, err := Get(opID)
		if err != nil {
			return nil, fmt.Errorf("operation 0x%02x: %w", opID, err)
		}

		result, err := op.Apply(current)
		if err != nil {
			return nil, fmt.Errorf("applying %s: %w", op.Name(), err)
		}

		current = result
	}

	return current, nil
}

// chainReader closes every layer of a reversed chain, innermost last.
type chainReader struct {
	io.Reader
	layers []io.Closer
}

func (c *chainReader) Close() error {
	var errs []error
	for i := len(c.layers) - 1; i >= 0; i-- {
		if err := c.layers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ReverseChainReader layers lazy readers that undo operations over input.
// Errors from the codecs are returned as the codecs report them.
func ReverseChainReader(input io.Reader, operations []uint8) (io.ReadCloser, error) {
	cr := &chainReader{Reader: input}

	for i := len(operations) - 1; i >= 0; i-- {
		op, err := Get(operations[i])
		if err != nil {
			cr.Close()
			return nil, err
		}
		rc, err := op.NewReverseReader(cr.Reader)
		if err != nil {
			cr.Close()
			return nil, err
		}
		cr.Reader = rc
		cr.layers = append(cr.layers, rc)
	}

	return cr, nil
}
