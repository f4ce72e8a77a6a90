package scoring_test

import (
	"context"
	"testing"

	"github.com/daotrust/daotrust/internal/scoring"
)

var ctx = context.Background()

func TestScore_deterministicPerAddress(t *testing.T) {
	s := scoring.NewHeuristicScorer()

	first, err := s.Score(ctx, "0xabc")
	if err != nil {
		t.Fatal(err)
	}
	second, err := s.Score(ctx, "0xabc")
	if err != nil {
		t.Fatal(err)
	}
	if first.Score != second.Score {
		t.Errorf("same address scored differently: %v vs %v", first.Score, second.Score)
	}
}

func TestScore_withinRange(t *testing.T) {
	s := scoring.NewHeuristicScorer()

	for _, addr := range []string{"0xabc", "0xdef", "0x0000', OR 1=1 --", "wallet.eth", ""} {
		report, err := s.Score(ctx, addr)
		if err != nil {
			t.Fatal(err)
		}
		if report.Score < 0 || report.Score > 100 {
			t.Errorf("score for %q out of range: %v", addr, report.Score)
		}
		if report.Tier == "" {
			t.Errorf("missing tier for %q", addr)
		}
	}
}

func TestScore_anonymousSubject(t *testing.T) {
	s := scoring.NewHeuristicScorer()

	report, err := s.Score(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	if report.Score != 50 {
		t.Errorf("anonymous score: got %v, want 50", report.Score)
	}
	if len(report.Factors) != 0 {
		t.Errorf("anonymous subject should have no factors, got %d", len(report.Factors))
	}
}

func TestScore_factorsSumToScore(t *testing.T) {
	s := scoring.NewHeuristicScorer()

	report, err := s.Score(ctx, "0xabc")
	if err != nil {
		t.Fatal(err)
	}

	sum := 0.0
	for _, f := range report.Factors {
		sum += f.Weight
	}
	if sum > 100 {
		sum = 100
	}
	if sum != report.Score {
		t.Errorf("factor weights sum to %v, score is %v", sum, report.Score)
	}
}
