package header

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"unicode/utf8"

	saveerrors "github.com/knoxfighter/factorio-lib/pkg/saves/errors"
)

// Width is the bit width of an unsigned integer on the wire.
type Width uint8

const (
	Width8  Width = 8
	Width16 Width = 16
	Width32 Width = 32
	Width64 Width = 64
)

// optimizedEscape marks an optimized number whose value follows in full.
const optimizedEscape = 0xFF

func (w Width) valid() bool {
	switch w {
	case Width8, Width16, Width32, Width64:
		return true
	}
	return false
}

// NumberRule says how one integer field is encoded: a plain little-endian
// value of Width bits, or an optimized number escaping to that width.
type NumberRule struct {
	Width     Width
	Optimized bool
}

// Fixed returns a rule for a plain little-endian integer.
func Fixed(w Width) NumberRule {
	if !w.valid() {
		panic(fmt.Sprintf("header: invalid integer width %d", w))
	}
	return NumberRule{Width: w}
}

// Optimized returns a rule for an optimized number. An 8-bit optimized
// number cannot escape, so Width8 is rejected here rather than at decode.
func Optimized(w Width) NumberRule {
	if !w.valid() || w == Width8 {
		panic(fmt.Sprintf("header: optimized number needs width > 8, got %d", w))
	}
	return NumberRule{Width: w, Optimized: true}
}

func (n NumberRule) String() string {
	if n.Optimized {
		return fmt.Sprintf("optimized u%d", n.Width)
	}
	return fmt.Sprintf("fixed u%d", n.Width)
}

// Reader decodes primitives from a forward-only stream and tracks how many
// bytes have been consumed.
type Reader struct {
	r      io.Reader
	offset int64
	buf    [8]byte
}

// NewReader wraps r. Reads are issued exactly as large as each field needs,
// so r is never read past the end of the header.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

// Offset returns the number of bytes consumed so far.
func (r *Reader) Offset() int64 {
	return r.offset
}

func (r *Reader) fill(n int) ([]byte, error) {
	start := r.offset
	read, err := io.ReadFull(r.r, r.buf[:n])
	r.offset += int64(read)
	if err != nil {
		return nil, ioError(start, err)
	}
	return r.buf[:n], nil
}

// ReadByte reads a single byte.
func (r *Reader) ReadByte() (byte, error) {
	b, err := r.fill(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// ReadBool reads one byte; any nonzero value is true.
func (r *Reader) ReadBool() (bool, error) {
	b, err := r.ReadByte()
	if err != nil {
		return false, err
	}
	return b != 0, nil
}

// ReadFixed reads a little-endian unsigned integer of width w.
func (r *Reader) ReadFixed(w Width) (uint64, error) {
	if !w.valid() {
		return 0, &DecodeError{Offset: r.offset, Kind: saveerrors.ErrInvalidWidth, Value: uint64(w), HasValue: true}
	}
	b, err := r.fill(int(w) / 8)
	if err != nil {
		return 0, err
	}
	switch w {
	case Width8:
		return uint64(b[0]), nil
	case Width16:
		return uint64(binary.LittleEndian.Uint16(b)), nil
	case Width32:
		return uint64(binary.LittleEndian.Uint32(b)), nil
	default:
		return binary.LittleEndian.Uint64(b), nil
	}
}

// ReadOptimized reads an optimized number: one byte below 255 is the value
// itself, 255 is followed by the full fixed-width value. Width8 is refused
// without consuming input.
func (r *Reader) ReadOptimized(w Width) (uint64, error) {
	if !w.valid() || w == Width8 {
		return 0, &DecodeError{Offset: r.offset, Kind: saveerrors.ErrInvalidWidth, Value: uint64(w), HasValue: true}
	}
	first, err := r.ReadByte()
	if err != nil {
		return 0, err
	}
	if first != optimizedEscape {
		return uint64(first), nil
	}
	return r.ReadFixed(w)
}

// ReadNumber reads an integer according to rule.
func (r *Reader) ReadNumber(rule NumberRule) (uint64, error) {
	if rule.Optimized {
		return r.ReadOptimized(rule.Width)
	}
	return r.ReadFixed(rule.Width)
}

// ReadString reads a length-prefixed UTF-8 string. Lengths above maxLen
// are rejected before any payload is read; a maxLen of zero disables the
// check. The buffer grows with the bytes actually delivered, so a corrupt
// length on a short stream fails with end-of-input instead of allocating.
func (r *Reader) ReadString(length NumberRule, maxLen uint64) (string, error) {
	start := r.offset
	n, err := r.ReadNumber(length)
	if err != nil {
		return "", err
	}
	if maxLen > 0 && n > maxLen {
		return "", invalidValue(start, n, fmt.Errorf("string length exceeds limit %d", maxLen))
	}
	if n > math.MaxInt64 {
		return "", invalidValue(start, n, fmt.Errorf("string length overflows"))
	}

	bodyStart := r.offset
	var buf bytes.Buffer
	copied, err := io.CopyN(&buf, r.r, int64(n))
	r.offset += copied
	if err != nil {
		return "", ioError(bodyStart, err)
	}

	data := buf.Bytes()
	if !utf8.Valid(data) {
		bad := firstInvalidByte(data)
		return "", invalidValue(bodyStart, uint64(data[bad]), fmt.Errorf("invalid UTF-8 at byte %d", bad))
	}
	return string(data), nil
}

func firstInvalidByte(data []byte) int {
	for i := 0; i < len(data); {
		rn, size := utf8.DecodeRune(data[i:])
		if rn == utf8.RuneError && size <= 1 {
			return i
		}
		i += size
	}
	return 0
}
