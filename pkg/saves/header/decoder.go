// Package header decodes the metadata prefix of a Factorio save's level
// file without touching the map state that follows it.
//
// The first eight bytes are the game version. The version picks an Era and
// the era's Rules decide, field by field, how integers, strings and the mod
// list are encoded and which optional fields exist. Fields are read in one
// fixed order; only the encoding of each field changes between eras.
package header

import (
	"fmt"
	"io"

	"github.com/hashicorp/go-hclog"
)

// defaultMaxStringLength bounds a single string in the header. Real headers
// hold names of a few dozen bytes.
const defaultMaxStringLength = 1 << 20

// SaveHeader is the decoded header of one save.
type SaveHeader struct {
	Version Version `json:"version" yaml:"version" toml:"version" cbor:"version"`
	Era     Era     `json:"era" yaml:"era" toml:"era" cbor:"era"`

	// QualityVersion is written from 0.17 on.
	QualityVersion *uint8 `json:"quality_version,omitempty" yaml:"quality_version,omitempty" toml:"quality_version,omitempty" cbor:"quality_version,omitempty"`

	Campaign   string     `json:"campaign" yaml:"campaign" toml:"campaign" cbor:"campaign"`
	Name       string     `json:"name" yaml:"name" toml:"name" cbor:"name"`
	BaseMod    string     `json:"base_mod" yaml:"base_mod" toml:"base_mod" cbor:"base_mod"`
	Difficulty Difficulty `json:"difficulty" yaml:"difficulty" toml:"difficulty" cbor:"difficulty"`
	Finished   bool       `json:"finished" yaml:"finished" toml:"finished" cbor:"finished"`
	PlayerWon  bool       `json:"player_won" yaml:"player_won" toml:"player_won" cbor:"player_won"`
	NextLevel  string     `json:"next_level" yaml:"next_level" toml:"next_level" cbor:"next_level"`

	CanContinue           bool `json:"can_continue" yaml:"can_continue" toml:"can_continue" cbor:"can_continue"`
	FinishedButContinuing bool `json:"finished_but_continuing" yaml:"finished_but_continuing" toml:"finished_but_continuing" cbor:"finished_but_continuing"`
	SavingReplay          bool `json:"saving_replay" yaml:"saving_replay" toml:"saving_replay" cbor:"saving_replay"`

	// AllowNonAdminDebugOptions is written from 0.16 on.
	AllowNonAdminDebugOptions *bool `json:"allow_non_admin_debug_options,omitempty" yaml:"allow_non_admin_debug_options,omitempty" toml:"allow_non_admin_debug_options,omitempty" cbor:"allow_non_admin_debug_options,omitempty"`

	LoadedFrom      VersionTriple   `json:"loaded_from" yaml:"loaded_from" toml:"loaded_from" cbor:"loaded_from"`
	LoadedFromBuild uint16          `json:"loaded_from_build" yaml:"loaded_from_build" toml:"loaded_from_build" cbor:"loaded_from_build"`
	AllowedCommands AllowedCommands `json:"allowed_commands" yaml:"allowed_commands" toml:"allowed_commands" cbor:"allowed_commands"`

	// LargeBlueprintSize is written from 2.0 on.
	LargeBlueprintSize *bool `json:"large_blueprint_size,omitempty" yaml:"large_blueprint_size,omitempty" toml:"large_blueprint_size,omitempty" cbor:"large_blueprint_size,omitempty"`

	// Mods are in on-disk (load) order.
	Mods []Mod `json:"mods" yaml:"mods" toml:"mods" cbor:"mods"`
}

// Options configures a Decoder. The zero value is usable.
type Options struct {
	Logger hclog.Logger
	// CommandMapping selects how the allowed-commands byte is read.
	CommandMapping CommandMapping
	// MaxStringLength rejects longer strings as invalid encoding. Zero
	// means the default of 1 MiB.
	MaxStringLength uint64
}

// Decoder decodes headers. It holds no per-decode state and may be shared
// between goroutines.
type Decoder struct {
	logger   hclog.Logger
	commands CommandMapping
	maxLen   uint64
}

// NewDecoder creates a decoder with the given options.
func NewDecoder(opts Options) *Decoder {
	d := &Decoder{
		logger:   opts.Logger,
		commands: opts.CommandMapping,
		maxLen:   opts.MaxStringLength,
	}
	if d.logger == nil {
		d.logger = hclog.NewNullLogger()
	}
	if d.maxLen == 0 {
		d.maxLen = defaultMaxStringLength
	}
	return d
}

var defaultDecoder = NewDecoder(Options{})

// Decode reads one header from r with default options.
func Decode(r io.Reader) (*SaveHeader, error) {
	return defaultDecoder.Decode(r)
}

// Decode reads one header from r. It either returns a complete header or
// an error; r is left positioned wherever decoding stopped.
func (d *Decoder) Decode(r io.Reader) (*SaveHeader, error) {
	rd := NewReader(r)
	h := &SaveHeader{}

	version, err := readVersion(rd)
	if err != nil {
		return nil, withField("version", err)
	}
	h.Version = version

	era, err := EraOf(version)
	if err != nil {
		return nil, &DecodeError{Field: "version", Offset: 0, Kind: err}
	}
	rules, err := RulesFor(era)
	if err != nil {
		return nil, &DecodeError{Field: "version", Offset: 0, Kind: err}
	}
	h.Era = era
	d.logger.Debug("Resolved save era", "version", version.String(), "era", era.String())

	if err := d.decodeBody(rd, rules, h); err != nil {
		d.logger.Debug("Header decode failed", "era", era.String(), "offset", rd.Offset(), "error", err)
		return nil, err
	}

	d.logger.Debug("Decoded save header", "name", h.Name, "mods", len(h.Mods), "bytes", rd.Offset())
	return h, nil
}

func (d *Decoder) decodeBody(rd *Reader, rules Rules, h *SaveHeader) error {
	var err error

	if rules.QualityVersion {
		q, err := rd.ReadByte()
		if err != nil {
			return withField("quality_version", err)
		}
		h.QualityVersion = &q
	}

	if h.Campaign, err = rd.ReadString(rules.Length, d.maxLen); err != nil {
		return withField("campaign_name", err)
	}
	if h.Name, err = rd.ReadString(rules.Length, d.maxLen); err != nil {
		return withField("level_name", err)
	}
	if h.BaseMod, err = rd.ReadString(rules.Length, d.maxLen); err != nil {
		return withField("base_mod_name", err)
	}

	offset := rd.Offset()
	b, err := rd.ReadByte()
	if err != nil {
		return withField("difficulty", err)
	}
	difficulty, ok := parseDifficulty(b)
	if !ok {
		return withField("difficulty", invalidValue(offset, uint64(b), fmt.Errorf("difficulty out of range")))
	}
	h.Difficulty = difficulty

	if h.Finished, err = rd.ReadBool(); err != nil {
		return withField("finished", err)
	}
	if h.PlayerWon, err = rd.ReadBool(); err != nil {
		return withField("player_won", err)
	}
	if h.NextLevel, err = rd.ReadString(rules.Length, d.maxLen); err != nil {
		return withField("next_level", err)
	}
	if h.CanContinue, err = rd.ReadBool(); err != nil {
		return withField("can_continue", err)
	}
	if h.FinishedButContinuing, err = rd.ReadBool(); err != nil {
		return withField("finished_but_continuing", err)
	}
	if h.SavingReplay, err = rd.ReadBool(); err != nil {
		return withField("saving_replay", err)
	}

	if rules.DebugOptions {
		allow, err := rd.ReadBool()
		if err != nil {
			return withField("allow_non_admin_debug_options", err)
		}
		h.AllowNonAdminDebugOptions = &allow
	}

	if h.LoadedFrom, err = readTriple(rd, rules.VersionTriple); err != nil {
		return withField("loaded_from", err)
	}
	build, err := rd.ReadNumber(rules.Build)
	if err != nil {
		return withField("loaded_from_build", err)
	}
	h.LoadedFromBuild = uint16(build)

	offset = rd.Offset()
	if b, err = rd.ReadByte(); err != nil {
		return withField("allowed_commands", err)
	}
	commands, ok := d.commands.parse(b)
	if !ok {
		return withField("allowed_commands", invalidValue(offset, uint64(b), fmt.Errorf("no %s mapping", d.commands)))
	}
	h.AllowedCommands = commands

	if rules.LargeBlueprintSize {
		large, err := rd.ReadBool()
		if err != nil {
			return withField("large_blueprint_size", err)
		}
		h.LargeBlueprintSize = &large
	}

	mods, err := d.decodeMods(rd, rules)
	if err != nil {
		return err
	}
	h.Mods = mods
	return nil
}

// modPrealloc caps how many mod slots are reserved up front from a count
// read off the wire.
const modPrealloc = 256

func (d *Decoder) decodeMods(rd *Reader, rules Rules) ([]Mod, error) {
	count, err := rd.ReadNumber(rules.Length)
	if err != nil {
		return nil, withField("mods", err)
	}

	mods := make([]Mod, 0, min(count, modPrealloc))
	for i := uint64(0); i < count; i++ {
		m, err := decodeMod(rules, rd, d.maxLen)
		if err != nil {
			return nil, modField(i, err)
		}
		d.logger.Trace("Decoded mod", "index", i, "name", m.Name, "version", m.Version.String())
		mods = append(mods, m)
	}
	return mods, nil
}

func modField(i uint64, err error) error {
	if de, ok := err.(*DecodeError); ok {
		de.Field = fmt.Sprintf("mods[%d].%s", i, de.Field)
		return de
	}
	return err
}
