package header

import (
	"fmt"

	saveerrors "github.com/knoxfighter/factorio-lib/pkg/saves/errors"
)

// Era is a contiguous range of game versions that write headers with the
// same encoding rules. Eras are ordered oldest first.
type Era uint8

const (
	Era13 Era = iota
	Era14
	Era1414
	Era15
	Era16
	Era17
	// Era20 is the 2.x line: Era17 plus the large-blueprint-size byte.
	Era20
)

func (e Era) String() string {
	switch e {
	case Era13:
		return "0.13"
	case Era14:
		return "0.14"
	case Era1414:
		return "0.14.14"
	case Era15:
		return "0.15"
	case Era16:
		return "0.16"
	case Era17:
		return "0.17"
	case Era20:
		return "2.0"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(e))
	}
}

// MarshalText lets encoders print eras by name.
func (e Era) MarshalText() ([]byte, error) {
	return []byte(e.String()), nil
}

// classification is one row of the era table. Rows are tried in order and
// the first matching predicate wins.
type classification struct {
	match func(major, minor, patch uint16) bool
	era   Era
}

func minorLine(minor uint16) func(uint16, uint16, uint16) bool {
	return func(major, mi, _ uint16) bool {
		return major == 0 && mi == minor
	}
}

var classifications = []classification{
	{func(major, _, _ uint16) bool { return major >= 2 }, Era20},
	{func(major, _, _ uint16) bool { return major >= 1 }, Era17},
	{minorLine(18), Era17},
	{minorLine(17), Era17},
	{minorLine(16), Era16},
	{minorLine(15), Era15},
	{func(major, minor, patch uint16) bool { return major == 0 && minor == 14 && patch >= 14 }, Era1414},
	{minorLine(14), Era14},
	{minorLine(13), Era13},
}

// Classify maps a version triple to its era. Versions older than 0.13 (and
// any other unmatched triple) give ErrUnsupportedVersion.
func Classify(major, minor, patch uint16) (Era, error) {
	for _, c := range classifications {
		if c.match(major, minor, patch) {
			return c.era, nil
		}
	}
	return 0, fmt.Errorf("%w: %d.%d.%d", saveerrors.ErrUnsupportedVersion, major, minor, patch)
}

// EraOf classifies a full version tag.
func EraOf(v Version) (Era, error) {
	return Classify(v.Major, v.Minor, v.Patch)
}
