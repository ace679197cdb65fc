package header

import "fmt"

// Version is the four-component game version written at the very start of
// every header. It orders lexicographically by component.
type Version struct {
	Major uint16 `json:"major" yaml:"major" toml:"major" cbor:"major"`
	Minor uint16 `json:"minor" yaml:"minor" toml:"minor" cbor:"minor"`
	Patch uint16 `json:"patch" yaml:"patch" toml:"patch" cbor:"patch"`
	Build uint16 `json:"build" yaml:"build" toml:"build" cbor:"build"`
}

func (v Version) components() [4]uint16 {
	return [4]uint16{v.Major, v.Minor, v.Patch, v.Build}
}

// Compare returns -1, 0 or 1.
func (v Version) Compare(o Version) int {
	a, b := v.components(), o.components()
	for i := range a {
		switch {
		case a[i] < b[i]:
			return -1
		case a[i] > b[i]:
			return 1
		}
	}
	return 0
}

func (v Version) Less(o Version) bool {
	return v.Compare(o) < 0
}

// Triple drops the build component.
func (v Version) Triple() VersionTriple {
	return VersionTriple{Major: v.Major, Minor: v.Minor, Patch: v.Patch}
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d.%d", v.Major, v.Minor, v.Patch, v.Build)
}

// VersionTriple is a major.minor.patch version, as used by mods and the
// loaded-from field.
type VersionTriple struct {
	Major uint16 `json:"major" yaml:"major" toml:"major" cbor:"major"`
	Minor uint16 `json:"minor" yaml:"minor" toml:"minor" cbor:"minor"`
	Patch uint16 `json:"patch" yaml:"patch" toml:"patch" cbor:"patch"`
}

func (v VersionTriple) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

func readVersion(r *Reader) (Version, error) {
	var c [4]uint16
	for i := range c {
		n, err := r.ReadFixed(Width16)
		if err != nil {
			return Version{}, err
		}
		c[i] = uint16(n)
	}
	return Version{Major: c[0], Minor: c[1], Patch: c[2], Build: c[3]}, nil
}

func readTriple(r *Reader, rule NumberRule) (VersionTriple, error) {
	var c [3]uint16
	for i := range c {
		n, err := r.ReadNumber(rule)
		if err != nil {
			return VersionTriple{}, err
		}
		c[i] = uint16(n)
	}
	return VersionTriple{Major: c[0], Minor: c[1], Patch: c[2]}, nil
}
