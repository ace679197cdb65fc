package header

import "fmt"

// Mod is one entry of the header's mod list.
type Mod struct {
	Name    string        `json:"name" yaml:"name" toml:"name" cbor:"name"`
	Version VersionTriple `json:"version" yaml:"version" toml:"version" cbor:"version"`
	// CRC is written from 0.15 on.
	CRC *uint32 `json:"crc,omitempty" yaml:"crc,omitempty" toml:"crc,omitempty" cbor:"crc,omitempty"`
}

func (m Mod) String() string {
	if m.CRC == nil {
		return fmt.Sprintf("%s %s", m.Name, m.Version)
	}
	return fmt.Sprintf("%s %s (crc %08x)", m.Name, m.Version, *m.CRC)
}

// DecodeMod reads one mod record under rules. Errors carry the sub-field
// ("name", "version", "crc"); the header decoder prefixes the list index.
func DecodeMod(rules Rules, r *Reader) (Mod, error) {
	return decodeMod(rules, r, defaultMaxStringLength)
}

func decodeMod(rules Rules, r *Reader, maxLen uint64) (Mod, error) {
	var m Mod
	var err error

	if m.Name, err = r.ReadString(rules.ModNameLength, maxLen); err != nil {
		return Mod{}, withField("name", err)
	}
	if m.Version, err = readTriple(r, rules.VersionTriple); err != nil {
		return Mod{}, withField("version", err)
	}
	if rules.ModChecksum {
		crc, err := r.ReadFixed(Width32)
		if err != nil {
			return Mod{}, withField("crc", err)
		}
		c := uint32(crc)
		m.CRC = &c
	}
	return m, nil
}
