package wallet

import (
	"context"

	"go.uber.org/zap"
)

// NoopConnector reports no wallet identity. Use when the deployment has
// no identity layer at all; resulting ledger entries carry no address.
type NoopConnector struct {
	logger *zap.Logger
}

// NewNoopConnector creates a NoopConnector backed by the given logger.
func NewNoopConnector(logger *zap.Logger) *NoopConnector {
	return &NoopConnector{logger: logger}
}

// Connect returns an empty address.
func (n *NoopConnector) Connect(_ context.Context) (string, error) {
	n.logger.Debug("wallet connect (noop — no identity)")
	return "", nil
}
