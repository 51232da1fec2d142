package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"templify/internal/model"
	"templify/internal/service"
)

type MockDocumentService struct {
	mock.Mock
}

func (m *MockDocumentService) Create(ctx context.Context, in service.DocumentCreateInput, actor model.Actor) (*model.Document, error) {
	args := m.Called(ctx, in, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockDocumentService) Get(ctx context.Context, id string, actor model.Actor) (*model.Document, error) {
	args := m.Called(ctx, id, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockDocumentService) ListByOwner(ctx context.Context, actor model.Actor) ([]model.Document, error) {
	args := m.Called(ctx, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Document), args.Error(1)
}

func (m *MockDocumentService) Update(ctx context.Context, id string, actor model.Actor, patch model.DocumentPatch) (*model.Document, error) {
	args := m.Called(ctx, id, actor, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockDocumentService) Delete(ctx context.Context, id string, actor model.Actor) error {
	args := m.Called(ctx, id, actor)
	return args.Error(0)
}

func (m *MockDocumentService) DownloadURL(ctx context.Context, id string, actor model.Actor) (string, error) {
	args := m.Called(ctx, id, actor)
	return args.String(0), args.Error(1)
}
