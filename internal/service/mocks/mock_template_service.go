package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"templify/internal/model"
	"templify/internal/service"
)

type MockTemplateService struct {
	mock.Mock
}

func (m *MockTemplateService) CreateFromUpload(ctx context.Context, in service.TemplateCreateInput, actor model.Actor) (*model.Template, error) {
	args := m.Called(ctx, in, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Template), args.Error(1)
}

func (m *MockTemplateService) CreateFromPath(ctx context.Context, in service.TemplatePathInput, actor model.Actor) (*model.Template, error) {
	args := m.Called(ctx, in, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Template), args.Error(1)
}

func (m *MockTemplateService) Get(ctx context.Context, id string, actor model.Actor) (*model.Template, error) {
	args := m.Called(ctx, id, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Template), args.Error(1)
}

func (m *MockTemplateService) List(ctx context.Context, actor model.Actor) ([]model.Template, error) {
	args := m.Called(ctx, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Template), args.Error(1)
}

func (m *MockTemplateService) GetVariables(ctx context.Context, id string, actor model.Actor) ([]string, error) {
	args := m.Called(ctx, id, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockTemplateService) Update(ctx context.Context, id string, actor model.Actor, patch model.TemplatePatch, newFile *service.UploadFile) (*model.Template, error) {
	args := m.Called(ctx, id, actor, patch, newFile)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Template), args.Error(1)
}

func (m *MockTemplateService) Delete(ctx context.Context, id string, actor model.Actor) error {
	args := m.Called(ctx, id, actor)
	return args.Error(0)
}

func (m *MockTemplateService) Download(ctx context.Context, id string, actor model.Actor) (*service.DownloadResult, error) {
	args := m.Called(ctx, id, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.DownloadResult), args.Error(1)
}
