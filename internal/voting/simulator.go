// Package voting provides the mocked DAO vote simulator. The outcome is
// a deterministic function of the subject address and score, so the
// demo flow and the ledger tests see reproducible results.
package voting

import (
	"context"
	"crypto/sha256"
	"fmt"
	"strconv"

	"github.com/daotrust/daotrust/internal/ledger"
	"github.com/google/uuid"
)

// Simulator runs one simulated DAO vote over a scored subject.
type Simulator interface {
	Run(ctx context.Context, address string, score float64) (*ledger.VoteResult, error)
}

// QuorumSimulator is the default Simulator. It splits 100 simulated
// votes between yes and no based on a digest of the inputs, and
// approves when yes carries both the majority and the quorum.
type QuorumSimulator struct {
	quorum int
	newRef func() string
}

// NewQuorumSimulator returns a QuorumSimulator with the given quorum
// threshold (percent of yes votes required). A quorum outside (0,100]
// falls back to 60.
func NewQuorumSimulator(quorum int) *QuorumSimulator {
	if quorum <= 0 || quorum > 100 {
		quorum = 60
	}
	return &QuorumSimulator{
		quorum: quorum,
		newRef: func() string { return "dao-" + uuid.NewString() },
	}
}

// SetReferenceIDFunc overrides proposal reference ID generation, for tests.
func (s *QuorumSimulator) SetReferenceIDFunc(fn func() string) {
	s.newRef = fn
}

// Run implements Simulator.
func (s *QuorumSimulator) Run(_ context.Context, address string, score float64) (*ledger.VoteResult, error) {
	seed := sha256.Sum256([]byte(address + "|" + strconv.FormatFloat(score, 'g', -1, 64)))

	// Bias the yes share by the trust score: higher-trust subjects draw
	// more favourable simulated turnout.
	yes := int(seed[0]%51) + int(score/2) // 0–100
	if yes > 100 {
		yes = 100
	}
	no := 100 - yes

	ref := s.newRef()
	if ref == "" {
		return nil, fmt.Errorf("voting: empty proposal reference id")
	}

	return &ledger.VoteResult{
		Approved:    yes > no && yes >= s.quorum,
		Yes:         yes,
		No:          no,
		Quorum:      s.quorum,
		ReferenceID: ref,
	}, nil
}
