package mocks

import (
	"context"
)

// MockTxManager is a pass-through port.TxManager: it runs the function with
// the given context so service logic can be tested without a database.
type MockTxManager struct{}

func (m *MockTxManager) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
