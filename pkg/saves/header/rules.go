package header

import (
	"fmt"
	"slices"

	saveerrors "github.com/knoxfighter/factorio-lib/pkg/saves/errors"
)

// Rules is the resolved decoding strategy for one era. Every field is
// filled in: later eras start from a copy of their predecessor's rules.
type Rules struct {
	Era Era

	// Length prefixes strings and the mod list.
	Length NumberRule
	// ModNameLength prefixes mod names. It went optimized in 0.14.14, two
	// eras before Length did, so it is kept apart.
	ModNameLength NumberRule
	// VersionTriple encodes each component of loaded_from and mod versions.
	VersionTriple NumberRule
	// Build encodes loaded_from_build.
	Build NumberRule

	QualityVersion     bool
	DebugOptions       bool
	ModChecksum        bool
	LargeBlueprintSize bool

	// Overrides names the rules this era changed relative to its
	// predecessor. Empty for the base era.
	Overrides []string
}

// override is one named delta an era applies on top of its predecessor.
type override struct {
	name  string
	apply func(*Rules)
}

type eraDefinition struct {
	era         Era
	predecessor Era
	overrides   []override
}

func baseRules() Rules {
	return Rules{
		Era:           Era13,
		Length:        Fixed(Width32),
		ModNameLength: Fixed(Width32),
		VersionTriple: Fixed(Width16),
		Build:         Fixed(Width16),
	}
}

// eraChain lists eras oldest first. A predecessor must appear before the
// eras that build on it.
var eraChain = []eraDefinition{
	{era: Era13, predecessor: Era13},
	{era: Era14, predecessor: Era13},
	{era: Era1414, predecessor: Era14, overrides: []override{
		{"mod_name_length", func(r *Rules) { r.ModNameLength = Optimized(Width32) }},
		{"version_triple", func(r *Rules) { r.VersionTriple = Optimized(Width16) }},
	}},
	{era: Era15, predecessor: Era1414, overrides: []override{
		{"mod_checksum", func(r *Rules) { r.ModChecksum = true }},
	}},
	{era: Era16, predecessor: Era15, overrides: []override{
		{"length", func(r *Rules) { r.Length = Optimized(Width32) }},
		{"debug_options", func(r *Rules) { r.DebugOptions = true }},
	}},
	{era: Era17, predecessor: Era16, overrides: []override{
		{"quality_version", func(r *Rules) { r.QualityVersion = true }},
	}},
	{era: Era20, predecessor: Era17, overrides: []override{
		{"large_blueprint_size", func(r *Rules) { r.LargeBlueprintSize = true }},
	}},
}

var resolvedRules = resolveChain(eraChain)

func resolveChain(chain []eraDefinition) map[Era]Rules {
	resolved := make(map[Era]Rules, len(chain))
	for _, def := range chain {
		var rules Rules
		if def.era == def.predecessor {
			rules = baseRules()
		} else {
			prev, ok := resolved[def.predecessor]
			if !ok {
				panic(fmt.Sprintf("header: era %s defined before its predecessor %s", def.era, def.predecessor))
			}
			rules = prev
		}
		rules.Era = def.era
		rules.Overrides = nil
		for _, o := range def.overrides {
			o.apply(&rules)
			rules.Overrides = append(rules.Overrides, o.name)
		}
		resolved[def.era] = rules
	}
	return resolved
}

// RulesFor returns the resolved rules of an era.
func RulesFor(era Era) (Rules, error) {
	rules, ok := resolvedRules[era]
	if !ok {
		return Rules{}, fmt.Errorf("%w: no rules for era %s", saveerrors.ErrUnsupportedVersion, era)
	}
	rules.Overrides = slices.Clone(rules.Overrides)
	return rules, nil
}

// RulesForVersion classifies v and returns its rules.
func RulesForVersion(v Version) (Rules, error) {
	era, err := EraOf(v)
	if err != nil {
		return Rules{}, err
	}
	return RulesFor(era)
}

// Eras lists every known era, oldest first.
func Eras() []Era {
	eras := make([]Era, len(eraChain))
	for i, def := range eraChain {
		eras[i] = def.era
	}
	return eras
}

// Predecessor returns the era that era builds on. The base era is its own
// predecessor.
func Predecessor(era Era) (Era, bool) {
	for _, def := range eraChain {
		if def.era == era {
			return def.predecessor, true
		}
	}
	return 0, false
}
