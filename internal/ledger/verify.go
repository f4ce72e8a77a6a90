package ledger

import "errors"

// ErrMissingHash is returned by Verify when the candidate entry carries
// no hash to check. This is a malformed request, not an integrity result.
var ErrMissingHash = errors.New("ledger: candidate entry has no hash")

// Verification reasons. Hash mismatch takes priority in reporting: a
// corrupted entry's linkage claim is meaningless.
const (
	ReasonHashMismatch        = "hash mismatch"
	ReasonPredecessorNotFound = "predecessor not found in provided window"
	ReasonBadGenesis          = "genesis entry must use the genesis sentinel"
)

// Result is the outcome of a verification. Integrity failures are
// reported here, never as errors.
type Result struct {
	Valid   bool   `json:"valid"`
	HashOk  bool   `json:"hashOk"`
	ChainOk bool   `json:"chainOk"`
	Reason  string `json:"reason,omitempty"`
}

// Verify checks a candidate entry's content hash and its chain linkage
// against a window of prior entries. It is pure: no access to the Core,
// safe under arbitrary concurrency.
//
// The window need not be the full ledger; linkage holds when it contains
// an entry at height-1 whose hash matches the candidate's prevHash. An
// empty window can only vouch for a candidate that claims no
// predecessor.
func Verify(candidate *Entry, window []*Entry) (*Result, error) {
	if candidate == nil || candidate.Hash == "" {
		return nil, ErrMissingHash
	}

	expected, err := HashEntry(candidate)
	if err != nil {
		return nil, err
	}

	res := &Result{HashOk: expected == candidate.Hash}

	switch {
	case candidate.Height == 1:
		res.ChainOk = candidate.PrevHash == GenesisPrevHash
		if !res.ChainOk {
			res.Reason = ReasonBadGenesis
		}
	case len(window) == 0 && candidate.PrevHash == "":
		// Nothing to check against and nothing claimed.
		res.ChainOk = true
	default:
		for _, prior := range window {
			if prior != nil && prior.Hash == candidate.PrevHash && prior.Height == candidate.Height-1 {
				res.ChainOk = true
				break
			}
		}
		if !res.ChainOk {
			res.Reason = ReasonPredecessorNotFound
		}
	}

	if !res.HashOk {
		res.Reason = ReasonHashMismatch
	}

	res.Valid = res.HashOk && res.ChainOk
	if res.Valid {
		res.Reason = ""
	}
	return res, nil
}
