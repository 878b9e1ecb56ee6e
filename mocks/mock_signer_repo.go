package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"signet/internal/domain"
)

// MockSignerRepo is a mock implementation of port.SignerRepository.
type MockSignerRepo struct {
	mock.Mock
}

func (m *MockSignerRepo) CreateBatch(ctx context.Context, signers []domain.Signer) error {
	args := m.Called(ctx, signers)
	return args.Error(0)
}

func (m *MockSignerRepo) Resolve(ctx context.Context, docID, signerID uuid.UUID) (*domain.Signer, error) {
	args := m.Called(ctx, docID, signerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Signer), args.Error(1)
}

func (m *MockSignerRepo) GetByExternalID(ctx context.Context, externalID uuid.UUID) (*domain.Signer, error) {
	args := m.Called(ctx, externalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Signer), args.Error(1)
}

func (m *MockSignerRepo) ListByDocument(ctx context.Context, docID uuid.UUID) ([]domain.Signer, error) {
	args := m.Called(ctx, docID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Signer), args.Error(1)
}

func (m *MockSignerRepo) UpdateContact(ctx context.Context, signer *domain.Signer) error {
	args := m.Called(ctx, signer)
	return args.Error(0)
}

func (m *MockSignerRepo) DeleteByDocument(ctx context.Context, docID uuid.UUID) error {
	args := m.Called(ctx, docID)
	return args.Error(0)
}
