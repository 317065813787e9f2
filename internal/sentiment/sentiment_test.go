package sentiment

import (
	"math"
	"testing"
)

func TestDeriveFearGreed(t *testing.T) {
	cases := []struct {
		vix, want float64
	}{
		{18.4, 79.0},
		{50, 0},
		{60, 0},
		{10, 100},
		{5, 100},
		{30, 50},
	}
	for _, tc := range cases {
		if got := DeriveFearGreed(tc.vix); math.Abs(got-tc.want) > 1e-9 {
			t.Errorf("DeriveFearGreed(%v): expected %v, got %v", tc.vix, tc.want, got)
		}
	}
}

func TestDeriveFearGreedIsBoundedAndMonotone(t *testing.T) {
	prev := math.Inf(1)
	for vix := -10.0; vix <= 90; vix += 0.5 {
		got := DeriveFearGreed(vix)
		if got < 0 || got > 100 {
			t.Fatalf("DeriveFearGreed(%v) = %v out of range", vix, got)
		}
		if got > prev {
			t.Fatalf("Expected non-increasing output at vix %v", vix)
		}
		prev = got
	}
}

func TestMoods(t *testing.T) {
	if VIXMood(19.9) != Stable || VIXMood(20) != Normal || VIXMood(30) != Unstable {
		t.Error("Unexpected VIX mood boundaries")
	}
	if FearGreedMood(10) != ExtremeFear || FearGreedMood(44) != Fear || FearGreedMood(50) != NeutralMood ||
		FearGreedMood(74) != Greed || FearGreedMood(79) != ExtremeGreed {
		t.Error("Unexpected fear and greed mood boundaries")
	}
}

func TestSnapshot(t *testing.T) {
	s := Snapshot(18.4)
	if s.VIX != 18.4 || math.Abs(s.FearAndGreedIndex-79.0) > 1e-9 {
		t.Errorf("Unexpected snapshot %+v", s)
	}
}
