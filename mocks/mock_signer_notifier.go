package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"signet/internal/port"
)

// MockSignerNotifier is a mock implementation of port.SignerNotifier.
type MockSignerNotifier struct {
	mock.Mock
}

func (m *MockSignerNotifier) SendSigningInvite(ctx context.Context, invite port.SigningInvite) error {
	args := m.Called(ctx, invite)
	return args.Error(0)
}

func (m *MockSignerNotifier) SendCompletionNotice(ctx context.Context, toEmail, toName, documentTitle, downloadURL string) error {
	args := m.Called(ctx, toEmail, toName, documentTitle, downloadURL)
	return args.Error(0)
}

func (m *MockSignerNotifier) SendDeclineNotice(ctx context.Context, toEmail, toName, documentTitle, reason string) error {
	args := m.Called(ctx, toEmail, toName, documentTitle, reason)
	return args.Error(0)
}
