package wallet

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// MockConnector fabricates a single session address on first use and
// keeps returning it, mimicking a wallet that stays connected.
type MockConnector struct {
	mu      sync.Mutex
	address string
	logger  *zap.Logger
}

// NewMockConnector creates a MockConnector backed by the given logger.
func NewMockConnector(logger *zap.Logger) *MockConnector {
	return &MockConnector{logger: logger}
}

// Connect implements Connector.
func (m *MockConnector) Connect(_ context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.address != "" {
		return m.address, nil
	}

	buf := make([]byte, 20)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate mock address: %w", err)
	}
	m.address = "0x" + hex.EncodeToString(buf)
	m.logger.Info("mock wallet connected", zap.String("address", m.address))
	return m.address, nil
}
