package pkg

import (
	"fmt"

	"github.com/hashicorp/go-hclog"

	"github.com/knoxfighter/factorio-lib/pkg/logging"
	"github.com/knoxfighter/factorio-lib/pkg/saves/container"
)

// VerifyHeaderWithLogger checks that the header of the save at path hashes
// to checksum ("algorithm:hex", or bare hex for sha256/sha512/adler32).
// A mismatch is reported as ErrDigestMismatch.
func VerifyHeaderWithLogger(path, checksum string, logger hclog.Logger) error {
	return VerifyHeaderWithOptions(path, checksum, BatchOptions{Logger: logger})
}

// VerifyHeaderWithOptions is VerifyHeaderWithLogger with decoder and entry
// settings. Workers and Digest are ignored.
func VerifyHeaderWithOptions(path, checksum string, opts BatchOptions) error {
	logger := opts.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	algo, expected, err := container.ParseChecksum(checksum)
	if err != nil {
		return err
	}

	reader, err := container.NewReaderWithOptions(path, container.ReaderOptions{
		Logger:          logger,
		EntryOperations: opts.EntryOperations,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := reader.Close(); err != nil {
			logger.Debug("Failed to close reader", "error", err)
		}
	}()

	logger.Info("Verifying save header", "path", path, "algorithm", algo.String())

	decoderOpts := opts.Decoder
	if decoderOpts.Logger == nil {
		decoderOpts.Logger = logger
	}

	_, actual, err := reader.ReadHeaderWithDigest(decoderOpts, algo)
	if err != nil {
		logger.Error("✗ Header could not be read", "error", err)
		return err
	}

	if actual != algo.String()+":"+expected {
		logger.Error("✗ Header digest mismatch", "expected", expected, "actual", actual)
		return fmt.Errorf("%w: %s", ErrDigestMismatch, path)
	}

	logger.Info("✓ Header digest valid")
	return nil
}

// VerifyHeader verifies a save header using default logger settings
func VerifyHeader(path, checksum string) error {
	logger := logging.NewLogger("factorio-verify", logging.GetLogLevel(), nil)
	return VerifyHeaderWithLogger(path, checksum, logger)
}
