package compress

import (
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"

	"github.com/knoxfighter/factorio-lib/pkg/saves/operations"
)

func init() {
	operations.Register(NewZstdOperation())
}

// ZstdOperation implements Zstandard compression
type ZstdOperation struct {
	operations.BaseOperation
}

// NewZstdOperation creates a new ZSTD operation
func NewZstdOperation() *ZstdOperation {
	return &ZstdOperation{
		BaseOperation: operations.BaseOperation{
			OpID:   operations.OP_ZSTD,
			OpName: "ZSTD",
		},
	}
}

// Apply compresses data using ZSTD
func (o *ZstdOperation) Apply(input []byte) ([]byte, error) {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, fmt.Errorf("creating zstd encoder: %w", err)
	}
	defer enc.Close()
	return enc.EncodeAll(input, nil), nil
}

// ApplyStream compresses a stream using ZSTD
func (o *ZstdOperation) ApplyStream(input io.Reader, output io.Writer) error {
	enc, err := zstd.NewWriter(output)
	if err != nil {
		return fmt.Errorf("creating zstd encoder: %w", err)
	}

	if _, err := io.Copy(enc, input); err != nil {
		enc.Close()
		return fmt.Errorf("compressing stream: %w", err)
	}

	if err := enc.Close(); err != nil {
		return fmt.Errorf("closing zstd encoder: %w", err)
	}
	return nil
}

// Reverse decompresses ZSTD data
func (o *ZstdOperation) Reverse(input []byte) ([]byte, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("creating zstd decoder: %w", err)
	}
	defer dec.Close()

	data, err := dec.DecodeAll(input, nil)
	if err != nil {
		return nil, fmt.Errorf("reading zstd data: %w", err)
	}
	return data, nil
}

// ReverseStream decompresses a ZSTD stream
func (o *ZstdOperation) ReverseStream(input io.Reader, output io.Writer) error {
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

// NewReverseReader returns a lazily decompressing ZSTD reader
func (o *ZstdOperation) NewReverseReader(input io.Reader) (io.ReadCloser, error) {
	dec, err := zstd.NewReader(input, zstd.WithDecoderConcurrency(1))
	if err != nil {
		return nil, fmt.Errorf("creating zstd decoder: %w", err)
	}
	return dec.IOReadCloser(), nil
}
