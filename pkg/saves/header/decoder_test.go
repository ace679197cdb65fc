package header

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"
	"testing/iotest"

	"github.com/hashicorp/go-hclog"

	saveerrors "github.com/knoxfighter/factorio-lib/pkg/saves/errors"
)

func u8(v uint8) *uint8    { return &v }
func u32(v uint32) *uint32 { return &v }
func flag(v bool) *bool    { return &v }

func triple(major, minor, patch uint16) VersionTriple {
	return VersionTriple{Major: major, Minor: minor, Patch: patch}
}

// fixtures maps each testdata file to the header it must decode to.
var fixtures = map[string]SaveHeader{
	"v0_13": {
		Version:         Version{0, 13, 20, 0},
		Era:             Era13,
		Campaign:        "transport-belt-madness",
		Name:            "fixture-013",
		BaseMod:         "base",
		Difficulty:      DifficultyNormal,
		SavingReplay:    true,
		LoadedFrom:      triple(0, 13, 20),
		LoadedFromBuild: 22961,
		AllowedCommands: CommandsEnabled,
		Mods: []Mod{
			{Name: "base", Version: triple(0, 13, 20)},
		},
	},
	"v0_14": {
		Version:         Version{0, 14, 1, 0},
		Era:             Era14,
		Campaign:        "freeplay",
		Name:            "fixture-014",
		BaseMod:         "base",
		Difficulty:      DifficultyEasy,
		SavingReplay:    true,
		LoadedFrom:      triple(0, 14, 1),
		LoadedFromBuild: 26000,
		AllowedCommands: CommandsDisabled,
		Mods: []Mod{
			{Name: "base", Version: triple(0, 14, 1)},
			{Name: "Foo Mod", Version: triple(1, 2, 3)},
		},
	},
	"v0_14_14": {
		Version:         Version{0, 14, 14, 3},
		Era:             Era1414,
		Campaign:        "freeplay",
		Name:            "fixture-01414",
		BaseMod:         "base",
		Difficulty:      DifficultyHard,
		SavingReplay:    true,
		LoadedFrom:      triple(0, 14, 14),
		LoadedFromBuild: 27000,
		AllowedCommands: CommandsAdminsOnly,
		Mods: []Mod{
			{Name: "base", Version: triple(0, 14, 14)},
			{Name: strings.Repeat("m", 260), Version: triple(0, 1, 300)},
		},
	},
	"v0_15": {
		Version:         Version{0, 15, 40, 0},
		Era:             Era15,
		Campaign:        "freeplay",
		Name:            "fixture-015",
		BaseMod:         "base",
		Difficulty:      DifficultyNormal,
		Finished:        true,
		PlayerWon:       true,
		NextLevel:       "next-level",
		SavingReplay:    true,
		LoadedFrom:      triple(0, 15, 40),
		LoadedFromBuild: 30000,
		AllowedCommands: CommandsEnabled,
		Mods: []Mod{
			{Name: "base", Version: triple(0, 15, 40), CRC: u32(0xDEADBEEF)},
			{Name: "Squeak Through", Version: triple(1, 2, 3), CRC: u32(12345)},
		},
	},
	"v0_16": {
		Version:                   Version{0, 16, 51, 0},
		Era:                       Era16,
		Campaign:                  "freeplay",
		Name:                      "fixture-016",
		BaseMod:                   "base",
		Difficulty:                DifficultyNormal,
		SavingReplay:              true,
		AllowNonAdminDebugOptions: flag(true),
		LoadedFrom:                triple(0, 16, 51),
		LoadedFromBuild:           36101,
		AllowedCommands:           CommandsEnabled,
		Mods: []Mod{
			{Name: "Warehousing", Version: triple(0, 1, 3), CRC: u32(4151823552)},
			{Name: "base", Version: triple(0, 16, 51), CRC: u32(3323233190)},
		},
	},
	"v0_17": {
		Version:                   Version{0, 17, 79, 0},
		Era:                       Era17,
		QualityVersion:            u8(0),
		Campaign:                  "freeplay",
		Name:                      "fixture-017",
		BaseMod:                   "base",
		Difficulty:                DifficultyNormal,
		CanContinue:               true,
		SavingReplay:              true,
		AllowNonAdminDebugOptions: flag(false),
		LoadedFrom:                triple(0, 17, 79),
		LoadedFromBuild:           49963,
		AllowedCommands:           CommandsAdminsOnly,
		Mods: []Mod{
			{Name: "base", Version: triple(0, 17, 79), CRC: u32(1)},
		},
	},
	"v0_18": {
		Version:                   Version{0, 18, 47, 0},
		Era:                       Era17,
		QualityVersion:            u8(0),
		Campaign:                  "freeplay",
		Name:                      "Fabrik ü ☃",
		BaseMod:                   "base",
		Difficulty:                DifficultyNothing,
		FinishedButContinuing:     true,
		SavingReplay:              true,
		AllowNonAdminDebugOptions: flag(false),
		LoadedFrom:                triple(0, 18, 47),
		LoadedFromBuild:           50943,
		AllowedCommands:           CommandsEnabled,
		Mods: []Mod{
			{Name: "base", Version: triple(0, 18, 47), CRC: u32(2)},
			{Name: "Bottleneck", Version: triple(0, 11, 7), CRC: u32(3)},
			{Name: "base", Version: triple(0, 18, 47), CRC: u32(2)},
		},
	},
	"v1_1": {
		Version:                   Version{1, 1, 110, 0},
		Era:                       Era17,
		QualityVersion:            u8(0),
		Campaign:                  "freeplay",
		Name:                      "fixture-110",
		BaseMod:                   "base",
		Difficulty:                DifficultyNormal,
		SavingReplay:              true,
		AllowNonAdminDebugOptions: flag(false),
		LoadedFrom:                triple(1, 1, 110),
		LoadedFromBuild:           62000,
		AllowedCommands:           CommandsDisabled,
		Mods: []Mod{
			{Name: "base", Version: triple(1, 1, 110), CRC: u32(111)},
			{Name: "flib", Version: triple(0, 12, 9), CRC: u32(222)},
		},
	},
	"v1_1_14": {
		Version:                   Version{1, 1, 14, 0},
		Era:                       Era17,
		QualityVersion:            u8(0),
		Campaign:                  "freeplay",
		Name:                      "long-" + strings.Repeat("x", 295),
		BaseMod:                   "base",
		Difficulty:                DifficultyNormal,
		SavingReplay:              true,
		AllowNonAdminDebugOptions: flag(true),
		LoadedFrom:                triple(1, 0, 0),
		LoadedFromBuild:           300,
		AllowedCommands:           CommandsEnabled,
		Mods: []Mod{
			{Name: "base", Version: triple(1, 1, 14), CRC: u32(7)},
		},
	},
	"v2_0_13": {
		Version:                   Version{2, 0, 13, 0},
		Era:                       Era20,
		QualityVersion:            u8(1),
		Campaign:                  "freeplay",
		Name:                      "fixture-200",
		BaseMod:                   "base",
		Difficulty:                DifficultyNormal,
		SavingReplay:              true,
		AllowNonAdminDebugOptions: flag(false),
		LoadedFrom:                triple(2, 0, 13),
		LoadedFromBuild:           12345,
		AllowedCommands:           CommandsEnabled,
		LargeBlueprintSize:        flag(true),
		Mods: []Mod{
			{Name: "base", Version: triple(2, 0, 13), CRC: u32(1000)},
			{Name: "elevated-rails", Version: triple(2, 0, 13), CRC: u32(2000)},
			{Name: "quality", Version: triple(2, 0, 13), CRC: u32(3000)},
			{Name: "space-age", Version: triple(2, 0, 13), CRC: u32(4000)},
		},
	},
}

func loadFixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name+".dat"))
	if err != nil {
		t.Fatalf("reading fixture %s: %v", name, err)
	}
	return data
}

func testLogger() hclog.Logger {
	return hclog.New(&hclog.LoggerOptions{
		Name:  "header_test",
		Level: hclog.Trace,
	})
}

func TestDecodeFixtures(t *testing.T) {
	decoder := NewDecoder(Options{Logger: testLogger()})

	for name, expected := range fixtures {
		t.Run(name, func(t *testing.T) {
			data := loadFixture(t, name)
			r := bytes.NewReader(data)

			got, err := decoder.Decode(r)
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}
			if !reflect.DeepEqual(*got, expected) {
				t.Errorf("Decode mismatch\n got: %+v\nwant: %+v", *got, expected)
			}
			if r.Len() != 0 {
				t.Errorf("%d bytes left unread", r.Len())
			}
		})
	}
}

func TestDecode016Mods(t *testing.T) {
	h, err := Decode(bytes.NewReader(loadFixture(t, "v0_16")))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if h.QualityVersion != nil {
		t.Errorf("quality version = %d, want absent", *h.QualityVersion)
	}
	if h.AllowNonAdminDebugOptions == nil || !*h.AllowNonAdminDebugOptions {
		t.Error("allow_non_admin_debug_options should be true")
	}
	if len(h.Mods) != 2 || h.Mods[0].Name != "Warehousing" || h.Mods[1].Name != "base" {
		t.Fatalf("mods = %v", h.Mods)
	}
	if *h.Mods[0].CRC != 4151823552 || *h.Mods[1].CRC != 3323233190 {
		t.Errorf("mod checksums = %d, %d", *h.Mods[0].CRC, *h.Mods[1].CRC)
	}
}

func TestDecodeTruncated(t *testing.T) {
	for name := range fixtures {
		t.Run(name, func(t *testing.T) {
			data := loadFixture(t, name)
			for n := 0; n < len(data); n++ {
				h, err := Decode(bytes.NewReader(data[:n]))
				if h != nil {
					t.Fatalf("prefix of %d/%d bytes returned a header", n, len(data))
				}
				if !errors.Is(err, saveerrors.ErrEndOfInput) {
					t.Fatalf("prefix of %d/%d bytes: got %v, want end of input", n, len(data), err)
				}
			}
		})
	}
}

func TestDecodeStreamErrorPassesThrough(t *testing.T) {
	errStream := errors.New("inflate: corrupt block")
	data := loadFixture(t, "v0_16")

	// The stream fails partway through the map name.
	for _, n := range []int{0, 9, 20} {
		src := io.MultiReader(bytes.NewReader(data[:n]), iotest.ErrReader(errStream))
		h, err := Decode(src)
		if h != nil {
			t.Fatalf("failure after %d bytes returned a header", n)
		}
		if err != errStream {
			t.Errorf("failure after %d bytes: got %v, want the stream error unchanged", n, err)
		}
		if errors.Is(err, saveerrors.ErrEndOfInput) {
			t.Errorf("failure after %d bytes reported as end of input", n)
		}
	}
}

func TestDecodeKeepsModOrder(t *testing.T) {
	h, err := Decode(bytes.NewReader(loadFixture(t, "v0_18")))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	names := make([]string, len(h.Mods))
	for i, m := range h.Mods {
		names[i] = m.Name
	}
	want := []string{"base", "Bottleneck", "base"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("mod order = %v, want %v", names, want)
	}
}

// offsets of single-byte fields in the 0.16 fixture
const (
	difficultyOffset016      = 8 + 1 + 8 + 1 + 11 + 1 + 4
	allowedCommandsOffset016 = difficultyOffset016 + 3 + 1 + 3 + 1 + 3 + 2
)

func TestDecodeInvalidEnums(t *testing.T) {
	testCases := []struct {
		name   string
		offset int
		value  byte
		field  string
	}{
		{name: "difficulty", offset: difficultyOffset016, value: 4, field: "difficulty"},
		{name: "difficulty max", offset: difficultyOffset016, value: 0xFF, field: "difficulty"},
		{name: "allowed commands zero", offset: allowedCommandsOffset016, value: 0, field: "allowed_commands"},
		{name: "allowed commands four", offset: allowedCommandsOffset016, value: 4, field: "allowed_commands"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			data := loadFixture(t, "v0_16")
			data[tc.offset] = tc.value

			h, err := Decode(bytes.NewReader(data))
			if h != nil {
				t.Fatal("got a header for corrupt input")
			}
			if !errors.Is(err, saveerrors.ErrInvalidEncoding) {
				t.Fatalf("got %v, want invalid encoding", err)
			}
			var de *DecodeError
			if !errors.As(err, &de) {
				t.Fatalf("got %T, want *DecodeError", err)
			}
			if de.Field != tc.field || de.Value != uint64(tc.value) || de.Offset != int64(tc.offset) {
				t.Errorf("error = %+v", de)
			}
		})
	}
}

func TestDecodeCommandMappings(t *testing.T) {
	testCases := []struct {
		mapping  CommandMapping
		value    byte
		expected AllowedCommands
		ok       bool
	}{
		{CommandsOneBased, 1, CommandsEnabled, true},
		{CommandsOneBased, 2, CommandsDisabled, true},
		{CommandsOneBased, 3, CommandsAdminsOnly, true},
		{CommandsOneBased, 0, 0, false},
		{CommandsZeroBased, 0, CommandsEnabled, true},
		{CommandsZeroBased, 1, CommandsDisabled, true},
		{CommandsZeroBased, 2, CommandsAdminsOnly, true},
		{CommandsZeroBased, 3, 0, false},
	}

	for _, tc := range testCases {
		data := loadFixture(t, "v0_16")
		data[allowedCommandsOffset016] = tc.value

		h, err := NewDecoder(Options{CommandMapping: tc.mapping}).Decode(bytes.NewReader(data))
		if tc.ok {
			if err != nil {
				t.Errorf("%s byte %d: %v", tc.mapping, tc.value, err)
				continue
			}
			if h.AllowedCommands != tc.expected {
				t.Errorf("%s byte %d = %s, want %s", tc.mapping, tc.value, h.AllowedCommands, tc.expected)
			}
		} else if !errors.Is(err, saveerrors.ErrInvalidEncoding) {
			t.Errorf("%s byte %d: got %v, want invalid encoding", tc.mapping, tc.value, err)
		}
	}
}

func TestDecodeInvalidUTF8(t *testing.T) {
	data := loadFixture(t, "v0_16")
	// first byte of the level name
	data[8+1+8+1] = 0xFF

	_, err := Decode(bytes.NewReader(data))
	var de *DecodeError
	if !errors.As(err, &de) || !errors.Is(err, saveerrors.ErrInvalidEncoding) {
		t.Fatalf("got %v, want invalid encoding", err)
	}
	if de.Field != "level_name" || de.Value != 0xFF {
		t.Errorf("error = %+v", de)
	}
}

func TestDecodeUnsupportedVersion(t *testing.T) {
	data := []byte{0, 0, 12, 0, 35, 0, 0, 0, 0, 0, 0, 0}
	_, err := Decode(bytes.NewReader(data))
	if !errors.Is(err, saveerrors.ErrUnsupportedVersion) {
		t.Fatalf("got %v, want unsupported version", err)
	}
	var de *DecodeError
	if !errors.As(err, &de) || de.Field != "version" {
		t.Errorf("error = %v", err)
	}
}

func TestDecodeModErrorNamesIndex(t *testing.T) {
	data := loadFixture(t, "v0_16")
	// cut inside the checksum of the second mod
	data = data[:len(data)-2]

	_, err := Decode(bytes.NewReader(data))
	var de *DecodeError
	if !errors.As(err, &de) {
		t.Fatalf("got %T, want *DecodeError", err)
	}
	if de.Field != "mods[1].crc" {
		t.Errorf("field = %q, want mods[1].crc", de.Field)
	}
}

func TestDecodeStringLimit(t *testing.T) {
	data := loadFixture(t, "v1_1_14")
	_, err := NewDecoder(Options{MaxStringLength: 64}).Decode(bytes.NewReader(data))
	if !errors.Is(err, saveerrors.ErrInvalidEncoding) {
		t.Fatalf("got %v, want invalid encoding", err)
	}
}

func TestDecodeConcurrent(t *testing.T) {
	decoder := NewDecoder(Options{})

	var wg sync.WaitGroup
	errs := make(chan error, len(fixtures)*4)
	for i := 0; i < 4; i++ {
		for name, expected := range fixtures {
			data := loadFixture(t, name)
			wg.Add(1)
			go func(name string, data []byte, expected SaveHeader) {
				defer wg.Done()
				h, err := decoder.Decode(bytes.NewReader(data))
				if err != nil {
					errs <- err
					return
				}
				if !reflect.DeepEqual(*h, expected) {
					errs <- errors.New(name + ": mismatch")
				}
			}(name, data, expected)
		}
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}
