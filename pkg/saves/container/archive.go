// Package container opens save archives and hands the header entry to the
// header decoder as a plain stream.
package container

import (
	"errors"
	"fmt"
	"io"
	"path"
	"slices"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/klauspost/compress/zip"

	saveerrors "github.com/knoxfighter/factorio-lib/pkg/saves/errors"
	"github.com/knoxfighter/factorio-lib/pkg/saves/header"
	"github.com/knoxfighter/factorio-lib/pkg/saves/operations"
	_ "github.com/knoxfighter/factorio-lib/pkg/saves/operations/compress"
)

// headerEntries lists the entries that start with a save header, most
// preferred first, with the codec the game itself applied.
var headerEntries = []struct {
	name string
	ops  []uint8
}{
	{"level-init.dat", nil},
	{"level.dat", nil},
	{"level.dat0", []uint8{operations.OP_ZLIB}},
}

// HeaderEntry is the archive entry holding the header and the operations
// that were applied to produce it, in application order.
type HeaderEntry struct {
	File       *zip.File
	Operations []uint8
}

// Name returns the entry's path inside the archive.
func (e *HeaderEntry) Name() string {
	return e.File.Name
}

// Reader reads save archives
type Reader struct {
	savePath string
	archive  *zip.ReadCloser
	logger   hclog.Logger
	entryOps []uint8
}

// ReaderOptions configures NewReaderWithOptions.
type ReaderOptions struct {
	Logger hclog.Logger
	// EntryOperations were applied to the header entry on top of what its
	// name shows, in application order. Tools that recompress saves without
	// renaming the entry need this.
	EntryOperations []uint8
}

// NewReader creates a new save reader
func NewReader(savePath string) (*Reader, error) {
	return NewReaderWithOptions(savePath, ReaderOptions{})
}

// NewReaderWithLogger creates a new save reader with a custom logger
func NewReaderWithLogger(savePath string, logger hclog.Logger) (*Reader, error) {
	return NewReaderWithOptions(savePath, ReaderOptions{Logger: logger})
}

// NewReaderWithOptions creates a new save reader. Unknown entry operations
// are rejected here rather than on first read.
func NewReaderWithOptions(savePath string, opts ReaderOptions) (*Reader, error) {
	logger := opts.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	for _, op := range opts.EntryOperations {
		if _, err := operations.Get(op); err != nil {
			return nil, err
		}
	}
	return &Reader{
		savePath: savePath,
		logger:   logger,
		entryOps: slices.Clone(opts.EntryOperations),
	}, nil
}

// Path returns the archive path
func (r *Reader) Path() string {
	return r.savePath
}

// Open opens the archive
func (r *Reader) Open() error {
	if r.archive != nil {
		return nil
	}

	archive, err := zip.OpenReader(r.savePath)
	if err != nil {
		return err
	}

	r.archive = archive
	r.logger.Debug("📦 Opened save archive", "path", r.savePath, "entries", len(archive.File))
	return nil
}

// Close closes the archive
func (r *Reader) Close() error {
	if r.archive != nil {
		err := r.archive.Close()
		r.archive = nil
		return err
	}
	return nil
}

// FindHeaderEntry locates the entry holding the save header. Entries are
// matched by base name so the save's top-level directory does not matter.
// Repackaged entries like "level.dat.zst" are accepted with their codec
// added to the chain, followed by the reader's entry operations.
func (r *Reader) FindHeaderEntry() (*HeaderEntry, error) {
	if err := r.Open(); err != nil {
		return nil, err
	}

	for _, candidate := range headerEntries {
		for _, f := range r.archive.File {
			if strings.HasSuffix(f.Name, "/") {
				continue
			}
			bare, suffixOps := operations.ForEntryName(path.Base(f.Name))
			if bare != candidate.name {
				continue
			}

			ops := slices.Concat(candidate.ops, suffixOps, r.entryOps)
			r.logger.Debug("🔍 Found header entry", "entry", f.Name, "operations", operations.OperationsToString(ops))
			return &HeaderEntry{File: f, Operations: ops}, nil
		}
	}

	return nil, fmt.Errorf("%w: %s", saveerrors.ErrHeaderNotFound, r.savePath)
}

// OpenHeader opens the header entry and undoes its operations lazily.
// Archive and codec errors are returned as they are reported.
func (r *Reader) OpenHeader() (io.ReadCloser, error) {
	entry, err := r.FindHeaderEntry()
	if err != nil {
		return nil, err
	}

	raw, err := entry.File.Open()
	if err != nil {
		return nil, err
	}

	rc, err := operations.ReverseChainReader(raw, entry.Operations)
	if err != nil {
		raw.Close()
		return nil, err
	}

	return &entryReader{ReadCloser: rc, raw: raw}, nil
}

// entryReader closes the codec layers and then the archive entry.
type entryReader struct {
	io.ReadCloser
	raw io.Closer
}

func (e *entryReader) Close() error {
	err := e.ReadCloser.Close()
	if rawErr := e.raw.Close(); err == nil {
		err = rawErr
	}
	return err
}

// ReadHeader decodes the save header.
func (r *Reader) ReadHeader(opts header.Options) (*header.SaveHeader, error) {
	h, _, err := r.readHeader(opts, nil)
	return h, err
}

// ReadHeaderWithDigest decodes the save header and returns a checksum of
// exactly the bytes the decoder consumed, in "algorithm:hex" form.
func (r *Reader) ReadHeaderWithDigest(opts header.Options, algorithm ChecksumAlgorithm) (*header.SaveHeader, string, error) {
	return r.readHeader(opts, &algorithm)
}

func (r *Reader) readHeader(opts header.Options, algorithm *ChecksumAlgorithm) (*header.SaveHeader, string, error) {
	rc, err := r.OpenHeader()
	if err != nil {
		return nil, "", err
	}
	defer rc.Close()

	if opts.Logger == nil {
		opts.Logger = r.logger
	}

	var src io.Reader = rc
	var digest func() string
	if algorithm != nil {
		h, err := algorithm.newHash()
		if err != nil {
			return nil, "", err
		}
		src = io.TeeReader(rc, h)
		digest = func() string { return formatChecksum(*algorithm, h) }
	}

	decoded, err := header.NewDecoder(opts).Decode(src)
	if err != nil {
		var de *header.DecodeError
		if errors.As(err, &de) {
			return nil, "", fmt.Errorf("decoding %s: %w", r.savePath, err)
		}
		return nil, "", err
	}

	var sum string
	if digest != nil {
		sum = digest()
	}
	return decoded, sum, nil
}
