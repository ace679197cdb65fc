package compress

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"

	"github.com/knoxfighter/factorio-lib/pkg/saves/operations"
)

func init() {
	operations.Register(NewZlibOperation())
}

// ZlibOperation implements ZLIB compression, the codec the game uses for
// its compressed level files.
type ZlibOperation struct {
	operations.BaseOperation
}

// NewZlibOperation creates a new ZLIB operation
func NewZlibOperation() *ZlibOperation {
	return &ZlibOperation{
		BaseOperation: operations.BaseOperation{
			OpID:   operations.OP_ZLIB,
			OpName: "ZLIB",
		},
	}
}

// Apply compresses data using ZLIB
func (o *ZlibOperation) Apply(input []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := o.ApplyStream(bytes.NewReader(input), &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ApplyStream compresses a stream using ZLIB
func (o *ZlibOperation) ApplyStream(input io.Reader, output io.Writer) error {
	zw := zlib.NewWriter(output)

	if _, err := io.Copy(zw, input); err != nil {
		zw.Close()
		return fmt.Errorf("compressing stream: %w", err)
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("closing zlib writer: %w", err)
	}
	return nil
}

// Reverse decompresses ZLIB data
func (o *ZlibOperation) Reverse(input []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := o.ReverseStream(bytes.NewReader(input), &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ReverseStream decompresses a ZLIB stream
func (o *ZlibOperation) ReverseStream(input io.Reader, output io.Writer) error {
	zr, err := o.NewReverseReader(input)
	if err != nil {
		return err
	}
	defer zr.Close()

	if _, err := io.Copy(output, zr); err != nil {
		return fmt.Errorf("decompressing stream: %w", err)
	}

	return nil
}

// NewReverseReader returns a lazily decompressing ZLIB reader
func (o *ZlibOperation) NewReverseReader(input io.Reader) (io.ReadCloser, error) {
	zr, err := zlib.NewReader(input)
	if err != nil {
		return nil, fmt.Errorf("creating zlib reader: %w", err)
	}
	return zr, nil
}
