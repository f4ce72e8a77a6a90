package ledger

import "context"

// Sink is the durable mirror of the in-memory chain. It is a secondary,
// best-effort copy: the Core commits in memory first and a failing sink
// never rolls a commit back or fails the append.
type Sink interface {
	// Append writes one committed entry to durable storage.
	Append(ctx context.Context, e *Entry) error

	// LoadLast returns the most recent durable entry, or (nil, nil) when
	// no prior state exists. Used at process start to continue the chain
	// rather than begin a new genesis.
	LoadLast(ctx context.Context) (*Entry, error)
}
