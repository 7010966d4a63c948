package mocks

import (
	"context"
	"encoding/json"

	"github.com/stretchr/testify/mock"

	"medquest/internal/content"
)

// MockSource is a mock implementation of content.Source
type MockSource struct {
	mock.Mock
}

func (m *MockSource) LoadNotes(ctx context.Context) (json.RawMessage, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(json.RawMessage), args.Error(1)
}

func (m *MockSource) LoadQuestionBank(ctx context.Context, kind content.Kind) (json.RawMessage, error) {
	args := m.Called(ctx, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(json.RawMessage), args.Error(1)
}
