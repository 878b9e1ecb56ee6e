package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"signet/internal/domain"
)

// MockPlaceholderRepo is a mock implementation of port.PlaceholderRepository.
type MockPlaceholderRepo struct {
	mock.Mock
}

func (m *MockPlaceholderRepo) ReplaceAll(ctx context.Context, docID uuid.UUID, placeholders []domain.Placeholder) error {
	args := m.Called(ctx, docID, placeholders)
	return args.Error(0)
}

func (m *MockPlaceholderRepo) ListByDocument(ctx context.Context, docID uuid.UUID) ([]domain.Placeholder, error) {
	args := m.Called(ctx, docID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Placeholder), args.Error(1)
}

func (m *MockPlaceholderRepo) ListBySigner(ctx context.Context, docID uuid.UUID, signerID *uuid.UUID) ([]domain.Placeholder, error) {
	args := m.Called(ctx, docID, signerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Placeholder), args.Error(1)
}
