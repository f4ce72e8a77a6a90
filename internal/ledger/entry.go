package ledger

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/daotrust/daotrust/internal/canonical"
)

// Kind is the schema discriminator embedded in every entry body. It pins
// both the field set and the genesis convention: bump it if either changes.
const Kind = "dao-trust-entry/v1"

// GenesisPrevHash is the designated "no predecessor" value carried by the
// entry at height 1. It is always present in the encoded body, so a
// verifier never has to handle an absent prevHash key.
const GenesisPrevHash = "0000000000000000000000000000000000000000000000000000000000000000"

// VoteResult is the DAO vote outcome attached to an entry. The ledger
// treats it as an opaque payload: it is hashed but never interpreted.
type VoteResult struct {
	Approved    bool   `json:"approved"`
	Yes         int    `json:"yes"`
	No          int    `json:"no"`
	Quorum      int    `json:"quorum"`
	ReferenceID string `json:"referenceId"`
}

// Entry is a single immutable record in the ledger. Hash is the SHA-256
// of the canonical encoding of every other field.
type Entry struct {
	Kind       string     `json:"kind"`
	LedgerID   string     `json:"ledgerId"`
	Height     uint64     `json:"height"`
	PrevHash   string     `json:"prevHash"`
	Address    string     `json:"address,omitempty"`
	Score      float64    `json:"score"`
	VoteResult VoteResult `json:"voteResult"`
	CreatedAt  time.Time  `json:"createdAt"`
	Hash       string     `json:"hash,omitempty"`
}

// HashEntry computes the content hash of e's body: the entry is reduced
// to its JSON shape, the hash field is excluded, and the remainder is
// canonically encoded and digested with SHA-256.
func HashEntry(e *Entry) (string, error) {
	body := *e
	body.Hash = ""

	v, err := canonical.Normalize(body)
	if err != nil {
		return "", fmt.Errorf("normalize entry body: %w", err)
	}
	m, ok := v.(map[string]any)
	if !ok {
		return "", fmt.Errorf("entry body did not normalize to an object")
	}
	delete(m, "hash")

	encoded, err := canonical.Encode(m)
	if err != nil {
		return "", fmt.Errorf("encode entry body: %w", err)
	}

	sum := sha256.Sum256(encoded)
	return hex.EncodeToString(sum[:]), nil
}
