// Package scoring provides the mocked trust scorer for the demo flow.
// Scores are arbitrary heuristics with no on-chain meaning; the package
// exists so the ledger can be fed reproducible values through a fixed
// interface instead of raw randomness.
package scoring

import "context"

// Factor is a single signal that contributed to a score.
type Factor struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Weight      float64 `json:"weight"`
}

// Report is the output of a scoring run.
type Report struct {
	// Score is the aggregate trust score (0–100).
	Score float64 `json:"score"`

	// Tier is a human-readable label derived from Score:
	//   0–14   → "untrusted"
	//   15–34  → "low"
	//   35–64  → "fair"
	//   65–84  → "good"
	//   85–100 → "excellent"
	Tier string `json:"tier"`

	// Factors lists every signal that contributed.
	Factors []Factor `json:"factors"`
}

// Scorer computes a trust score for a wallet address.
type Scorer interface {
	Score(ctx context.Context, address string) (*Report, error)
}

// tierLabel maps a 0–100 score to a tier string.
func tierLabel(score float64) string {
	switch {
	case score >= 85:
		return "excellent"
	case score >= 65:
		return "good"
	case score >= 35:
		return "fair"
	case score >= 15:
		return "low"
	default:
		return "untrusted"
	}
}
