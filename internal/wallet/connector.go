// Package wallet supplies the subject address for ledger records. The
// real identity layer lives in the browser; server-side the connector is
// a mock that either fabricates a session address or reports no identity.
package wallet

import "context"

// Connector discovers the wallet address of the current subject. An
// empty address with a nil error means the subject has no identity yet;
// the ledger records such entries with an absent address.
type Connector interface {
	Connect(ctx context.Context) (string, error)
}
