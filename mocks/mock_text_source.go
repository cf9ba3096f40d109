package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockTextSource is a mock implementation of port.TextSource.
type MockTextSource struct {
	mock.Mock
}

func (m *MockTextSource) FromUpload(data []byte, contentType, filename string) (string, error) {
	args := m.Called(data, contentType, filename)
	return args.String(0), args.Error(1)
}

func (m *MockTextSource) FromURL(ctx context.Context, url string) (string, error) {
	args := m.Called(ctx, url)
	return args.String(0), args.Error(1)
}
