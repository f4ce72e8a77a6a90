package ledger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Core is the single source of truth for the chain within a process.
// Appends are serialised so that height assignment, prevHash capture and
// commit appear atomic; reads may run concurrently and always observe a
// consistent prefix of the log.
type Core struct {
	mu      sync.RWMutex
	entries []*Entry
	height  uint64
	tipHash string
	lastAt  time.Time

	// sinkMu orders mirror writes: it is acquired before mu is released,
	// so entries reach the sink in commit order and an append-only sink's
	// tail is always the newest commit.
	sinkMu sync.Mutex

	sink   Sink
	clock  func() time.Time
	logger *zap.Logger
}

// NewCore creates a Core with an optional durable sink. sink may be nil,
// in which case appends are in-memory only and reported as unpersisted.
func NewCore(sink Sink, logger *zap.Logger) *Core {
	return &Core{
		sink:   sink,
		clock:  time.Now,
		logger: logger,
	}
}

// SetClock overrides the wall clock, for tests.
func (c *Core) SetClock(clock func() time.Time) {
	c.clock = clock
}

// Recover seeds the chain tail from the sink's last durable entry so a
// restarted process continues the same chain instead of starting a new
// genesis. Sink read failures are treated as "no prior state".
func (c *Core) Recover(ctx context.Context) {
	if c.sink == nil {
		return
	}
	last, err := c.sink.LoadLast(ctx)
	if err != nil {
		c.logger.Warn("ledger recovery failed, starting fresh", zap.Error(err))
		return
	}
	if last == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = []*Entry{last}
	c.height = last.Height
	c.tipHash = last.Hash
	c.lastAt = last.CreatedAt
	c.logger.Info("ledger recovered from durable log",
		zap.Uint64("height", last.Height),
		zap.String("tip", last.Hash),
	)
}

// Append commits a new entry chained to the current tip and mirrors it
// to the sink. The returned bool reports whether the durable write
// succeeded; a sink failure never fails the append itself. Append only
// errors when the entry body cannot be canonically encoded.
func (c *Core) Append(ctx context.Context, address string, score float64, vote VoteResult) (*Entry, bool, error) {
	c.mu.Lock()

	// Microsecond precision: TIMESTAMPTZ keeps no nanoseconds, so a finer
	// createdAt would hash differently after a postgres round trip.
	now := c.clock().UTC().Truncate(time.Microsecond)
	if now.Before(c.lastAt) {
		// Clock stepped backwards; keep createdAt non-decreasing.
		now = c.lastAt
	}

	prevHash := c.tipHash
	if c.height == 0 {
		prevHash = GenesisPrevHash
	}

	entry := &Entry{
		Kind:       Kind,
		LedgerID:   fmt.Sprintf("led-%d-%d", now.UnixMilli(), c.height+1),
		Height:     c.height + 1,
		PrevHash:   prevHash,
		Address:    address,
		Score:      score,
		VoteResult: vote,
		CreatedAt:  now,
	}

	hash, err := HashEntry(entry)
	if err != nil {
		c.mu.Unlock()
		return nil, false, fmt.Errorf("hash entry: %w", err)
	}
	entry.Hash = hash

	c.entries = append(c.entries, entry)
	c.height = entry.Height
	c.tipHash = entry.Hash
	c.lastAt = now
	if c.sink != nil {
		c.sinkMu.Lock()
	}
	c.mu.Unlock()

	persisted := false
	if c.sink != nil {
		err := c.sink.Append(ctx, entry)
		c.sinkMu.Unlock()
		if err != nil {
			c.logger.Warn("durable ledger write failed",
				zap.Uint64("height", entry.Height),
				zap.Error(err),
			)
		} else {
			persisted = true
		}
	}

	c.logger.Debug("ledger entry appended",
		zap.Uint64("height", entry.Height),
		zap.String("hash", entry.Hash),
		zap.Bool("persisted", persisted),
	)
	return entry, persisted, nil
}

// RecentWindow returns the last n committed entries, oldest first. It
// returns fewer when the in-memory log is shorter than n.
func (c *Core) RecentWindow(n int) []*Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if n <= 0 || len(c.entries) == 0 {
		return nil
	}
	start := len(c.entries) - n
	if start < 0 {
		start = 0
	}
	out := make([]*Entry, len(c.entries)-start)
	copy(out, c.entries[start:])
	return out
}

// Height returns the height of the chain tip, 0 when empty.
func (c *Core) Height() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.height
}

// TipHash returns the hash of the most recent entry, "" when empty.
func (c *Core) TipHash() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tipHash
}

// Reset discards the in-memory chain so the next append begins a new
// genesis. The durable log is not truncated. Test and demo use only.
func (c *Core) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = nil
	c.height = 0
	c.tipHash = ""
	c.lastAt = time.Time{}
	c.logger.Info("ledger reset")
}
