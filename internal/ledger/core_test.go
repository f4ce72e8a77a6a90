package ledger_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/daotrust/daotrust/internal/ledger"
	"go.uber.org/zap"
)

var ctx = context.Background()

var testVote = ledger.VoteResult{
	Approved:    true,
	Yes:         70,
	No:          30,
	Quorum:      60,
	ReferenceID: "r1",
}

func newCore(t *testing.T) *ledger.Core {
	t.Helper()
	return ledger.NewCore(nil, zap.NewNop())
}

func TestAppend_genesis(t *testing.T) {
	c := newCore(t)

	e, _, err := c.Append(ctx, "0xabc", 75, testVote)
	if err != nil {
		t.Fatal(err)
	}

	if e.Height != 1 {
		t.Errorf("genesis height: got %d, want 1", e.Height)
	}
	if e.PrevHash != ledger.GenesisPrevHash {
		t.Errorf("genesis prevHash: got %q, want sentinel", e.PrevHash)
	}
	if e.Kind != ledger.Kind {
		t.Errorf("kind: got %q, want %q", e.Kind, ledger.Kind)
	}
	if e.LedgerID == "" {
		t.Error("ledgerId is empty")
	}

	// The hash must be derivable by re-running the encoder over the body.
	recomputed, err := ledger.HashEntry(e)
	if err != nil {
		t.Fatal(err)
	}
	if recomputed != e.Hash {
		t.Errorf("hash not reproducible: got %q, want %q", recomputed, e.Hash)
	}
}

func TestAppend_chainsToPredecessor(t *testing.T) {
	c := newCore(t)

	e1, _, err := c.Append(ctx, "0xabc", 75, testVote)
	if err != nil {
		t.Fatal(err)
	}
	e2, _, err := c.Append(ctx, "0xdef", 40, testVote)
	if err != nil {
		t.Fatal(err)
	}

	if e2.Height != 2 {
		t.Errorf("second height: got %d, want 2", e2.Height)
	}
	if e2.PrevHash != e1.Hash {
		t.Errorf("chain broken: e2.PrevHash=%q, want e1.Hash=%q", e2.PrevHash, e1.Hash)
	}
}

func TestAppend_invariantsOverManyEntries(t *testing.T) {
	c := newCore(t)

	for i := 0; i < 8; i++ {
		if _, _, err := c.Append(ctx, "0xabc", float64(i*10), testVote); err != nil {
			t.Fatal(err)
		}
	}

	window := c.RecentWindow(8)
	if len(window) != 8 {
		t.Fatalf("window length: got %d, want 8", len(window))
	}
	for i, e := range window {
		if e.Height != uint64(i+1) {
			t.Errorf("entry %d: height %d, want %d", i, e.Height, i+1)
		}
		if i == 0 {
			continue
		}
		prev := window[i-1]
		if e.PrevHash != prev.Hash {
			t.Errorf("entry %d: prevHash %q, want %q", i, e.PrevHash, prev.Hash)
		}
		if e.CreatedAt.Before(prev.CreatedAt) {
			t.Errorf("entry %d: createdAt went backwards", i)
		}
	}
}

func TestAppend_createdAtNeverDecreases(t *testing.T) {
	c := newCore(t)

	// A clock that steps backwards between appends.
	times := []time.Time{
		time.Date(2026, 8, 30, 12, 0, 10, 0, time.UTC),
		time.Date(2026, 8, 30, 12, 0, 5, 0, time.UTC),
	}
	i := 0
	c.SetClock(func() time.Time {
		ts := times[i]
		i++
		return ts
	})

	e1, _, _ := c.Append(ctx, "0xabc", 75, testVote)
	e2, _, _ := c.Append(ctx, "0xabc", 75, testVote)

	if e2.CreatedAt.Before(e1.CreatedAt) {
		t.Errorf("createdAt decreased: %v then %v", e1.CreatedAt, e2.CreatedAt)
	}
}

func TestAppend_createdAtMicrosecondPrecision(t *testing.T) {
	c := newCore(t)
	c.SetClock(func() time.Time {
		return time.Date(2026, 8, 30, 12, 0, 0, 123456789, time.UTC)
	})

	e, _, err := c.Append(ctx, "0xabc", 75, testVote)
	if err != nil {
		t.Fatal(err)
	}

	if e.CreatedAt.Nanosecond()%1000 != 0 {
		t.Errorf("createdAt carries sub-microsecond digits: %v", e.CreatedAt)
	}

	// A storage backend that keeps only microseconds must hand back an
	// entry that still hashes to the committed value.
	recovered := *e
	recovered.CreatedAt = e.CreatedAt.Truncate(time.Microsecond)
	hash, err := ledger.HashEntry(&recovered)
	if err != nil {
		t.Fatal(err)
	}
	if hash != e.Hash {
		t.Errorf("hash changed across a microsecond round trip: got %q, want %q", hash, e.Hash)
	}

	res, err := ledger.Verify(&recovered, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !res.HashOk || !res.Valid {
		t.Errorf("recovered entry failed verification: %+v", res)
	}
}

func TestAppend_absentAddress(t *testing.T) {
	c := newCore(t)

	e, _, err := c.Append(ctx, "", 50, testVote)
	if err != nil {
		t.Fatal(err)
	}
	if e.Address != "" {
		t.Errorf("address: got %q, want empty", e.Address)
	}

	// Entries with and without an address must both verify.
	res, err := ledger.Verify(e, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Valid {
		t.Errorf("entry without address failed verification: %+v", res)
	}
}

// failingSink always errors, simulating a deployment with no writable storage.
type failingSink struct{}

func (failingSink) Append(context.Context, *ledger.Entry) error {
	return errors.New("disk on fire")
}
func (failingSink) LoadLast(context.Context) (*ledger.Entry, error) {
	return nil, errors.New("disk on fire")
}

func TestAppend_sinkFailureDoesNotFailAppend(t *testing.T) {
	c := ledger.NewCore(failingSink{}, zap.NewNop())

	e, persisted, err := c.Append(ctx, "0xabc", 75, testVote)
	if err != nil {
		t.Fatalf("append failed on sink error: %v", err)
	}
	if persisted {
		t.Error("persisted=true despite sink failure")
	}
	if e.Height != 1 {
		t.Errorf("height: got %d, want 1", e.Height)
	}
	if c.Height() != 1 {
		t.Errorf("in-memory commit rolled back: height %d", c.Height())
	}
}

func TestRecover_sinkReadFailureStartsFresh(t *testing.T) {
	c := ledger.NewCore(failingSink{}, zap.NewNop())
	c.Recover(ctx)

	if c.Height() != 0 {
		t.Errorf("height after failed recovery: got %d, want 0", c.Height())
	}
}

func TestRecentWindow(t *testing.T) {
	c := newCore(t)
	for i := 0; i < 5; i++ {
		_, _, _ = c.Append(ctx, "0xabc", 50, testVote)
	}

	window := c.RecentWindow(3)
	if len(window) != 3 {
		t.Fatalf("window length: got %d, want 3", len(window))
	}
	if window[0].Height != 3 || window[2].Height != 5 {
		t.Errorf("window heights: got %d..%d, want 3..5 oldest first",
			window[0].Height, window[2].Height)
	}

	if got := c.RecentWindow(0); got != nil {
		t.Errorf("RecentWindow(0): got %d entries, want none", len(got))
	}
}

func TestReset(t *testing.T) {
	c := newCore(t)
	_, _, _ = c.Append(ctx, "0xabc", 75, testVote)
	_, _, _ = c.Append(ctx, "0xdef", 40, testVote)

	c.Reset()

	if c.Height() != 0 {
		t.Errorf("height after reset: got %d, want 0", c.Height())
	}
	if c.RecentWindow(10) != nil {
		t.Error("window not empty after reset")
	}

	// Next append begins a new genesis.
	e, _, err := c.Append(ctx, "0xabc", 75, testVote)
	if err != nil {
		t.Fatal(err)
	}
	if e.Height != 1 || e.PrevHash != ledger.GenesisPrevHash {
		t.Errorf("post-reset entry is not a genesis: height=%d prevHash=%q", e.Height, e.PrevHash)
	}
}

func TestAppend_concurrent(t *testing.T) {
	c := newCore(t)

	const n = 50
	done := make(chan *ledger.Entry, n)
	for i := 0; i < n; i++ {
		go func() {
			e, _, err := c.Append(ctx, "0xabc", 50, testVote)
			if err != nil {
				t.Error(err)
			}
			done <- e
		}()
	}

	seen := make(map[uint64]bool)
	for i := 0; i < n; i++ {
		e := <-done
		if seen[e.Height] {
			t.Errorf("duplicate height %d", e.Height)
		}
		seen[e.Height] = true
	}
	if c.Height() != n {
		t.Errorf("final height: got %d, want %d", c.Height(), n)
	}

	window := c.RecentWindow(n)
	for i := 1; i < len(window); i++ {
		if window[i].PrevHash != window[i-1].Hash {
			t.Fatalf("chain broken at height %d under concurrency", window[i].Height)
		}
	}
}
