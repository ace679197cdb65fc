// Checksums of header bytes in prefixed format.
//
// Format: "algorithm:hexvalue" (e.g., "sha256:c0ffee123...", "adler32:babe1337")

package container

import (
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
	"hash/adler32"
	"strings"

	"github.com/zeebo/blake3"

	saveerrors "github.com/knoxfighter/factorio-lib/pkg/saves/errors"
)

// ChecksumAlgorithm represents supported checksum algorithms
type ChecksumAlgorithm int

const (
	ChecksumSHA256 ChecksumAlgorithm = iota
	ChecksumSHA512
	ChecksumAdler32
	ChecksumBlake3
)

func (c ChecksumAlgorithm) String() string {
	switch c {
	case ChecksumSHA256:
		return "sha256"
	case ChecksumSHA512:
		return "sha512"
	case ChecksumAdler32:
		return "adler32"
	case ChecksumBlake3:
		return "blake3"
	default:
		return "unknown"
	}
}

// ParseAlgorithm maps a name like "blake3" to its algorithm.
func ParseAlgorithm(name string) (ChecksumAlgorithm, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "sha256":
		return ChecksumSHA256, nil
	case "sha512":
		return ChecksumSHA512, nil
	case "adler32":
		return ChecksumAdler32, nil
	case "blake3":
		return ChecksumBlake3, nil
	default:
		return ChecksumSHA256, fmt.Errorf("%w: %s", saveerrors.ErrUnknownAlgorithm, name)
	}
}

// newHash returns a fresh hash for the algorithm
func (c ChecksumAlgorithm) newHash() (hash.Hash, error) {
	switch c {
	case ChecksumSHA256:
		return sha256.New(), nil
	case ChecksumSHA512:
		return sha512.New(), nil
	case ChecksumAdler32:
		return adler32.New(), nil
	case ChecksumBlake3:
		return blake3.New(), nil
	default:
		return nil, fmt.Errorf("%w: %d", saveerrors.ErrUnknownAlgorithm, int(c))
	}
}

// ParseChecksum parses a checksum string that may or may not have a prefix
func ParseChecksum(checksumStr string) (ChecksumAlgorithm, string, error) {
	if algoName, value, ok := strings.Cut(checksumStr, ":"); ok {
		algo, err := ParseAlgorithm(algoName)
		if err != nil {
			return ChecksumSHA256, "", err
		}
		return algo, strings.ToLower(value), nil
	}

	// Unprefixed - guess based on length. blake3 and sha256 share a length
	// and unprefixed values are taken as sha256.
	var algo ChecksumAlgorithm
	switch len(checksumStr) {
	case 128:
		algo = ChecksumSHA512
	case 8:
		algo = ChecksumAdler32
	default:
		algo = ChecksumSHA256
	}

	return algo, strings.ToLower(checksumStr), nil
}

// CalculateChecksum calculates checksum with prefix
func CalculateChecksum(data []byte, algorithm ChecksumAlgorithm) (string, error) {
	h, err := algorithm.newHash()
	if err != nil {
		return "", err
	}
	h.Write(data)
	return formatChecksum(algorithm, h), nil
}

func formatChecksum(algorithm ChecksumAlgorithm, h hash.Hash) string {
	return algorithm.String() + ":" + hex.EncodeToString(h.Sum(nil))
}

// VerifyChecksum verifies data against a checksum string
func VerifyChecksum(data []byte, checksumStr string) (bool, error) {
	algo, expected, err := ParseChecksum(checksumStr)
	if err != nil {
		return false, err
	}

	actual, err := CalculateChecksum(data, algo)
	if err != nil {
		return false, err
	}

	// Compare just the hex part
	_, actualHex, _ := strings.Cut(actual, ":")
	return actualHex == expected, nil
}
