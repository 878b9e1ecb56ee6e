package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"signet/internal/domain"
	"signet/internal/service"
)

// MockVersionService is a mock implementation of service.VersionService.
type MockVersionService struct {
	mock.Mock
}

func (m *MockVersionService) CreateVersion(ctx context.Context, input *service.CreateVersionInput) (*domain.DocumentVersion, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DocumentVersion), args.Error(1)
}

func (m *MockVersionService) GetVersion(ctx context.Context, versionID uuid.UUID) (*domain.DocumentVersion, error) {
	args := m.Called(ctx, versionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DocumentVersion), args.Error(1)
}

func (m *MockVersionService) ListVersions(ctx context.Context, docID uuid.UUID) ([]domain.DocumentVersion, error) {
	args := m.Called(ctx, docID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.DocumentVersion), args.Error(1)
}

func (m *MockVersionService) DownloadVersion(ctx context.Context, versionID uuid.UUID) ([]byte, *domain.DocumentVersion, error) {
	args := m.Called(ctx, versionID)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).([]byte), args.Get(1).(*domain.DocumentVersion), args.Error(2)
}

func (m *MockVersionService) PresignVersion(ctx context.Context, versionID uuid.UUID) (string, error) {
	args := m.Called(ctx, versionID)
	return args.String(0), args.Error(1)
}
