package header

import (
	"fmt"
	"strings"
)

// Difficulty is the map difficulty stored in the header.
type Difficulty uint8

const (
	DifficultyEasy Difficulty = iota
	DifficultyNormal
	DifficultyHard
	DifficultyNothing
)

func (d Difficulty) String() string {
	switch d {
	case DifficultyEasy:
		return "easy"
	case DifficultyNormal:
		return "normal"
	case DifficultyHard:
		return "hard"
	case DifficultyNothing:
		return "nothing"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(d))
	}
}

func (d Difficulty) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func parseDifficulty(b byte) (Difficulty, bool) {
	if b > byte(DifficultyNothing) {
		return 0, false
	}
	return Difficulty(b), true
}

// AllowedCommands says who may run console commands in the save.
type AllowedCommands uint8

const (
	CommandsEnabled AllowedCommands = iota
	CommandsDisabled
	CommandsAdminsOnly
)

func (c AllowedCommands) String() string {
	switch c {
	case CommandsEnabled:
		return "enabled"
	case CommandsDisabled:
		return "disabled"
	case CommandsAdminsOnly:
		return "admins-only"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(c))
	}
}

func (c AllowedCommands) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// CommandMapping translates the allowed-commands byte. Saves seen in the
// wild disagree on whether the enum starts at 0 or 1, so the mapping is a
// decoder option.
type CommandMapping uint8

const (
	// CommandsOneBased reads 1/2/3 as enabled/disabled/admins-only; 0 is
	// rejected.
	CommandsOneBased CommandMapping = iota
	// CommandsZeroBased reads 0/1/2 as enabled/disabled/admins-only.
	CommandsZeroBased
)

func (m CommandMapping) String() string {
	switch m {
	case CommandsOneBased:
		return "one-based"
	case CommandsZeroBased:
		return "zero-based"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(m))
	}
}

// ParseCommandMapping accepts "one-based" or "zero-based".
func ParseCommandMapping(s string) (CommandMapping, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "one-based", "one", "1", "":
		return CommandsOneBased, nil
	case "zero-based", "zero", "0":
		return CommandsZeroBased, nil
	default:
		return 0, fmt.Errorf("unknown allowed-commands mapping: %q", s)
	}
}

func (m CommandMapping) parse(b byte) (AllowedCommands, bool) {
	base := byte(1)
	if m == CommandsZeroBased {
		base = 0
	}
	if b < base || b-base > byte(CommandsAdminsOnly) {
		return 0, false
	}
	return AllowedCommands(b - base), true
}
