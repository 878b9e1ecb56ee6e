package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"signet/internal/port"
)

// MockPDFStamper is a mock implementation of port.PDFStamper.
type MockPDFStamper struct {
	mock.Mock
}

func (m *MockPDFStamper) Embed(ctx context.Context, input port.EmbedInput) ([]byte, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockPDFStamper) PageCount(ctx context.Context, pdfBytes []byte) (int, error) {
	args := m.Called(ctx, pdfBytes)
	return args.Int(0), args.Error(1)
}
