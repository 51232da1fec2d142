package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) TemplateCount(ctx context.Context, userID string) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

func (m *MockUserRepository) SetTemplateCount(ctx context.Context, userID string, count int) error {
	args := m.Called(ctx, userID, count)
	return args.Error(0)
}

func (m *MockUserRepository) AdjustTemplateCount(ctx context.Context, userID string, delta int) error {
	args := m.Called(ctx, userID, delta)
	return args.Error(0)
}
