package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"signet/internal/domain"
)

// MockVersionRepo is a mock implementation of port.VersionRepository.
type MockVersionRepo struct {
	mock.Mock
}

func (m *MockVersionRepo) Create(ctx context.Context, v *domain.DocumentVersion) error {
	args := m.Called(ctx, v)
	return args.Error(0)
}

func (m *MockVersionRepo) GetByID(ctx context.Context, versionID uuid.UUID) (*domain.DocumentVersion, error) {
	args := m.Called(ctx, versionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DocumentVersion), args.Error(1)
}

func (m *MockVersionRepo) ListByDocument(ctx context.Context, docID uuid.UUID) ([]domain.DocumentVersion, error) {
	args := m.Called(ctx, docID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.DocumentVersion), args.Error(1)
}

func (m *MockVersionRepo) MaxVersionNumber(ctx context.Context, docID uuid.UUID) (int, error) {
	args := m.Called(ctx, docID)
	return args.Int(0), args.Error(1)
}

func (m *MockVersionRepo) LockContentHash(ctx context.Context, hash string) error {
	args := m.Called(ctx, hash)
	return args.Error(0)
}

func (m *MockVersionRepo) FindByContentHash(ctx context.Context, hash string) (*domain.DocumentVersion, error) {
	args := m.Called(ctx, hash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DocumentVersion), args.Error(1)
}

func (m *MockVersionRepo) FindByDocumentAndHash(ctx context.Context, docID uuid.UUID, hash string) (*domain.DocumentVersion, error) {
	args := m.Called(ctx, docID, hash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DocumentVersion), args.Error(1)
}

func (m *MockVersionRepo) ListMissingContentHash(ctx context.Context, limit int) ([]domain.DocumentVersion, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.DocumentVersion), args.Error(1)
}

func (m *MockVersionRepo) UpdateContentHash(ctx context.Context, versionID uuid.UUID, hash string) error {
	args := m.Called(ctx, versionID, hash)
	return args.Error(0)
}

func (m *MockVersionRepo) Delete(ctx context.Context, versionID uuid.UUID) error {
	args := m.Called(ctx, versionID)
	return args.Error(0)
}
