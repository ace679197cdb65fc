package compress

import (
	"bytes"
	"fmt"
	"io"

	"github.com/pierrec/lz4/v4"

	"github.com/knoxfighter/factorio-lib/pkg/saves/operations"
)

func init() {
	operations.Register(NewLz4Operation())
}

// Lz4Operation implements LZ4 frame compression
type Lz4Operation struct {
	operations.BaseOperation
}

// NewLz4Operation creates a new LZ4 operation
func NewLz4Operation() *Lz4Operation {
	return &Lz4Operation{
		BaseOperation: operations.BaseOperation{
			OpID:   operations.OP_LZ4,
			OpName: "LZ4",
		},
	}
}

// Apply compresses data using LZ4
func (o *Lz4Operation) Apply(input []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := o.ApplyStream(bytes.NewReader(input), &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ApplyStream compresses a stream using LZ4
func (o *Lz4Operation) ApplyStream(input io.Reader, output io.Writer) error {
	lw := lz4.NewWriter(output)

	if _, err := io.Copy(lw, input); err != nil {
		lw.Close()
		return fmt.Errorf("compressing stream: %w", err)
	}

	if err := lw.Close(); err != nil {
		return fmt.Errorf("closing lz4 writer: %w", err)
	}
	return nil
}

// Reverse decompresses LZ4 data
func (o *Lz4Operation) Reverse(input []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := o.ReverseStream(bytes.NewReader(input), &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ReverseStream decompresses a LZ4 stream
func (o *Lz4Operation) ReverseStream(input io.Reader, output io.Writer) error {
	if _, err := io.Copy(output, lz4.NewReader(input)); err != nil {
		return fmt.Errorf("decompressing stream: %w", err)
	}
	return nil
}

// NewReverseReader returns a lazily decompressing LZ4 reader
func (o *Lz4Operation) NewReverseReader(input io.Reader) (io.ReadCloser, error) {
	return io.NopCloser(lz4.NewReader(input)), nil
}
