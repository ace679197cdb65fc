package header

import (
	"errors"
	"testing"

	saveerrors "github.com/knoxfighter/factorio-lib/pkg/saves/errors"
)

func TestClassify(t *testing.T) {
	testCases := []struct {
		version  [3]uint16
		expected Era
	}{
		{[3]uint16{0, 13, 0}, Era13},
		{[3]uint16{0, 13, 20}, Era13},
		{[3]uint16{0, 14, 0}, Era14},
		{[3]uint16{0, 14, 13}, Era14},
		{[3]uint16{0, 14, 14}, Era1414},
		{[3]uint16{0, 14, 23}, Era1414},
		{[3]uint16{0, 15, 40}, Era15},
		{[3]uint16{0, 16, 51}, Era16},
		{[3]uint16{0, 17, 0}, Era17},
		{[3]uint16{0, 17, 79}, Era17},
		{[3]uint16{0, 18, 47}, Era17},
		{[3]uint16{1, 0, 0}, Era17},
		{[3]uint16{1, 1, 14}, Era17},
		{[3]uint16{1, 1, 110}, Era17},
		{[3]uint16{2, 0, 13}, Era20},
		{[3]uint16{3, 7, 1}, Era20},
	}

	for _, tc := range testCases {
		v := tc.version
		got, err := Classify(v[0], v[1], v[2])
		if err != nil {
			t.Errorf("Classify(%v) failed: %v", v, err)
			continue
		}
		if got != tc.expected {
			t.Errorf("Classify(%v) = %s, want %s", v, got, tc.expected)
		}
	}
}

func TestClassifyBoundary(t *testing.T) {
	below, err := Classify(0, 14, 13)
	if err != nil || below != Era14 {
		t.Fatalf("0.14.13 -> %s, %v; want 0.14", below, err)
	}
	at, err := Classify(0, 14, 14)
	if err != nil || at != Era1414 {
		t.Fatalf("0.14.14 -> %s, %v; want 0.14.14", at, err)
	}

	belowRules, _ := RulesFor(below)
	atRules, _ := RulesFor(at)
	if belowRules.VersionTriple.Optimized {
		t.Error("0.14.13 uses optimized numbers")
	}
	if !atRules.VersionTriple.Optimized {
		t.Error("0.14.14 does not use optimized numbers")
	}
}

func TestClassifyModernLines(t *testing.T) {
	for major := uint16(1); major < 6; major++ {
		for _, minor := range []uint16{0, 1, 17, 255} {
			for _, patch := range []uint16{0, 14, 999} {
				era, err := Classify(major, minor, patch)
				if err != nil {
					t.Fatalf("Classify(%d.%d.%d) failed: %v", major, minor, patch, err)
				}
				if era < Era17 {
					t.Errorf("Classify(%d.%d.%d) = %s, want 0.17 or later", major, minor, patch, era)
				}
				if (major >= 2) != (era == Era20) {
					t.Errorf("Classify(%d.%d.%d) = %s", major, minor, patch, era)
				}
			}
		}
	}
	for _, minor := range []uint16{17, 18} {
		for patch := uint16(0); patch < 300; patch++ {
			if era, err := Classify(0, minor, patch); err != nil || era != Era17 {
				t.Fatalf("Classify(0.%d.%d) = %s, %v", minor, patch, era, err)
			}
		}
	}
}

func TestClassifyUnsupported(t *testing.T) {
	unsupported := [][3]uint16{
		{0, 0, 0},
		{0, 12, 35},
		{0, 10, 0},
		{0, 19, 0},
		{0, 255, 1},
	}
	for _, v := range unsupported {
		_, err := Classify(v[0], v[1], v[2])
		if !errors.Is(err, saveerrors.ErrUnsupportedVersion) {
			t.Errorf("Classify(%v): got %v, want unsupported version", v, err)
		}
	}
}

func TestClassifyIsPure(t *testing.T) {
	for minor := uint16(0); minor < 20; minor++ {
		for patch := uint16(0); patch < 30; patch++ {
			first, err1 := Classify(0, minor, patch)
			second, err2 := Classify(0, minor, patch)
			if first != second || (err1 == nil) != (err2 == nil) {
				t.Fatalf("Classify(0.%d.%d) not stable: %s/%v vs %s/%v", minor, patch, first, err1, second, err2)
			}
		}
	}
}

func TestEraString(t *testing.T) {
	expected := map[Era]string{
		Era13:   "0.13",
		Era14:   "0.14",
		Era1414: "0.14.14",
		Era15:   "0.15",
		Era16:   "0.16",
		Era17:   "0.17",
		Era20:   "2.0",
		Era(99): "unknown(99)",
	}
	for era, want := range expected {
		if got := era.String(); got != want {
			t.Errorf("Era(%d).String() = %q, want %q", uint8(era), got, want)
		}
	}
}
