package header

import (
	"reflect"
	"testing"
)

func TestRulesTable(t *testing.T) {
	fixed32, opt32 := Fixed(Width32), Optimized(Width32)
	fixed16, opt16 := Fixed(Width16), Optimized(Width16)

	testCases := []struct {
		era           Era
		length        NumberRule
		modNameLength NumberRule
		triple        NumberRule
		quality       bool
		debug         bool
		checksum      bool
		largeBP       bool
	}{
		{Era13, fixed32, fixed32, fixed16, false, false, false, false},
		{Era14, fixed32, fixed32, fixed16, false, false, false, false},
		{Era1414, fixed32, opt32, opt16, false, false, false, false},
		{Era15, fixed32, opt32, opt16, false, false, true, false},
		{Era16, opt32, opt32, opt16, false, true, true, false},
		{Era17, opt32, opt32, opt16, true, true, true, false},
		{Era20, opt32, opt32, opt16, true, true, true, true},
	}

	for _, tc := range testCases {
		t.Run(tc.era.String(), func(t *testing.T) {
			rules, err := RulesFor(tc.era)
			if err != nil {
				t.Fatalf("RulesFor failed: %v", err)
			}
			if rules.Era != tc.era {
				t.Errorf("Era = %s", rules.Era)
			}
			if rules.Length != tc.length {
				t.Errorf("Length = %s, want %s", rules.Length, tc.length)
			}
			if rules.ModNameLength != tc.modNameLength {
				t.Errorf("ModNameLength = %s, want %s", rules.ModNameLength, tc.modNameLength)
			}
			if rules.VersionTriple != tc.triple {
				t.Errorf("VersionTriple = %s, want %s", rules.VersionTriple, tc.triple)
			}
			if rules.Build != fixed16 {
				t.Errorf("Build = %s, want fixed u16", rules.Build)
			}
			if rules.QualityVersion != tc.quality {
				t.Errorf("QualityVersion = %v", rules.QualityVersion)
			}
			if rules.DebugOptions != tc.debug {
				t.Errorf("DebugOptions = %v", rules.DebugOptions)
			}
			if rules.ModChecksum != tc.checksum {
				t.Errorf("ModChecksum = %v", rules.ModChecksum)
			}
			if rules.LargeBlueprintSize != tc.largeBP {
				t.Errorf("LargeBlueprintSize = %v", rules.LargeBlueprintSize)
			}
		})
	}
}

func TestModNameLengthLeadsGeneralLength(t *testing.T) {
	for _, era := range []Era{Era1414, Era15} {
		rules, _ := RulesFor(era)
		if rules.Length.Optimized || !rules.ModNameLength.Optimized {
			t.Errorf("%s: Length=%s ModNameLength=%s", era, rules.Length, rules.ModNameLength)
		}
	}
}

func TestOverridesAreDeltas(t *testing.T) {
	expected := map[Era][]string{
		Era13:   nil,
		Era14:   nil,
		Era1414: {"mod_name_length", "version_triple"},
		Era15:   {"mod_checksum"},
		Era16:   {"length", "debug_options"},
		Era17:   {"quality_version"},
		Era20:   {"large_blueprint_size"},
	}
	for era, want := range expected {
		rules, _ := RulesFor(era)
		if !reflect.DeepEqual(rules.Overrides, want) {
			t.Errorf("%s overrides = %v, want %v", era, rules.Overrides, want)
		}
	}
}

func TestRulesForReturnsCopy(t *testing.T) {
	rules, err := RulesFor(Era1414)
	if err != nil {
		t.Fatal(err)
	}
	rules.Overrides[0] = "length"
	_ = append(rules.Overrides[:1], "build")

	again, _ := RulesFor(Era1414)
	want := []string{"mod_name_length", "version_triple"}
	if !reflect.DeepEqual(again.Overrides, want) {
		t.Errorf("caller edits leaked into the table: %v", again.Overrides)
	}
}

func TestPredecessorChain(t *testing.T) {
	eras := Eras()
	if len(eras) != 7 || eras[0] != Era13 || eras[len(eras)-1] != Era20 {
		t.Fatalf("Eras() = %v", eras)
	}
	for i, era := range eras {
		pred, ok := Predecessor(era)
		if !ok {
			t.Fatalf("no predecessor for %s", era)
		}
		if i == 0 {
			if pred != era {
				t.Errorf("base era %s has predecessor %s", era, pred)
			}
			continue
		}
		if pred != eras[i-1] {
			t.Errorf("%s predecessor = %s, want %s", era, pred, eras[i-1])
		}
	}
}

func TestResolveChainRejectsForwardReference(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("resolveChain accepted an era before its predecessor")
		}
	}()
	resolveChain([]eraDefinition{
		{era: Era13, predecessor: Era13},
		{era: Era15, predecessor: Era14},
	})
}

func TestRulesForUnknownEra(t *testing.T) {
	if _, err := RulesFor(Era(42)); err == nil {
		t.Error("RulesFor(42) succeeded")
	}
}
