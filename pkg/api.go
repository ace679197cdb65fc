// Package pkg is the entry point for reading save headers from archives on
// disk, one at a time or in batches.
package pkg

import (
	"context"
	"runtime"

	"github.com/hashicorp/go-hclog"
	"golang.org/x/sync/errgroup"

	"github.com/knoxfighter/factorio-lib/pkg/saves/container"
	"github.com/knoxfighter/factorio-lib/pkg/saves/header"
)

// Result is the outcome of reading one save.
type Result struct {
	Path   string
	Header *header.SaveHeader
	// Digest is set when BatchOptions.Digest asked for one.
	Digest string
	Err    error
}

// BatchOptions configures GetHeadersWithOptions.
type BatchOptions struct {
	// Workers bounds concurrent decodes. Zero means one per CPU.
	Workers int
	Decoder header.Options
	Digest  *container.ChecksumAlgorithm
	Logger  hclog.Logger
	// EntryOperations are passed to every container reader.
	EntryOperations []uint8
}

// GetHeader reads the header of the save archive at path.
func GetHeader(path string) (*header.SaveHeader, error) {
	return GetHeaderWithOptions(path, header.Options{})
}

// GetHeaderWithOptions reads the header of the save archive at path.
func GetHeaderWithOptions(path string, opts header.Options) (*header.SaveHeader, error) {
	result := readOne(path, BatchOptions{Decoder: opts})
	return result.Header, result.Err
}

// GetHeaders reads many saves with at most workers decodes at a time.
// Results are in the order of paths.
func GetHeaders(ctx context.Context, paths []string, workers int) ([]Result, error) {
	return GetHeadersWithOptions(ctx, paths, BatchOptions{Workers: workers})
}

// GetHeadersWithOptions reads many saves. A failing save does not stop the
// others; its error is in its Result. Cancelling ctx stops scheduling new
// saves, marks them with the context error and returns it, while decodes
// already running finish.
func GetHeadersWithOptions(ctx context.Context, paths []string, opts BatchOptions) ([]Result, error) {
	if opts.Logger == nil {
		opts.Logger = hclog.NewNullLogger()
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	results := make([]Result, len(paths))
	var g errgroup.Group
	g.SetLimit(workers)

	for i, path := range paths {
		if err := ctx.Err(); err != nil {
			for j := i; j < len(paths); j++ {
				results[j] = Result{Path: paths[j], Err: err}
			}
			break
		}
		g.Go(func() error {
			results[i] = readOne(path, opts)
			return nil
		})
	}

	_ = g.Wait()
	opts.Logger.Debug("📚 Batch decode finished", "saves", len(paths), "workers", workers)
	return results, ctx.Err()
}

func readOne(path string, opts BatchOptions) Result {
	logger := opts.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	logger = logger.With("save", path)

	reader, err := container.NewReaderWithOptions(path, container.ReaderOptions{
		Logger:          logger,
		EntryOperations: opts.EntryOperations,
	})
	if err != nil {
		return Result{Path: path, Err: err}
	}
	defer func() {
		if err := reader.Close(); err != nil {
			logger.Debug("Failed to close reader", "error", err)
		}
	}()

	decoderOpts := opts.Decoder
	if decoderOpts.Logger == nil {
		decoderOpts.Logger = logger
	}

	if opts.Digest != nil {
		h, digest, err := reader.ReadHeaderWithDigest(decoderOpts, *opts.Digest)
		return Result{Path: path, Header: h, Digest: digest, Err: err}
	}
	h, err := reader.ReadHeader(decoderOpts)
	return Result{Path: path, Header: h, Err: err}
}
