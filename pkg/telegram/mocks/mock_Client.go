// Package mocks provides test doubles for the telegram client.
package mocks

import (
	"context"

	mock "github.com/stretchr/testify/mock"
	telegram "github.com/zvilnymo/casecheck/pkg/telegram"
)

// MockClient is a mock type for the Client interface.
type MockClient struct {
	mock.Mock
}

// DeleteWebhook provides a mock function with given fields: ctx, dropPending
func (_m *MockClient) DeleteWebhook(ctx context.Context, dropPending bool) error {
	ret := _m.Called(ctx, dropPending)

	if len(ret) == 0 {
		panic("no return value specified for DeleteWebhook")
	}

	var r0 error
	if rf, ok := ret.Get(0).(func(context.Context, bool) error); ok {
		r0 = rf(ctx, dropPending)
	} else {
		r0 = ret.Error(0)
	}

	return r0
}

// GetMe provides a mock function with given fields: ctx
func (_m *MockClient) GetMe(ctx context.Context) (*telegram.User, error) {
	ret := _m.Called(ctx)

	if len(ret) == 0 {
		panic("no return value specified for GetMe")
	}

	var r0 *telegram.User
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context) (*telegram.User, error)); ok {
		return rf(ctx)
	}
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*telegram.User)
	}
	r1 = ret.Error(1)

	return r0, r1
}

// GetUpdates provides a mock function with given fields: ctx, offset, timeoutSecs
func (_m *MockClient) GetUpdates(ctx context.Context, offset int64, timeoutSecs int) ([]telegram.Update, error) {
	ret := _m.Called(ctx, offset, timeoutSecs)

	if len(ret) == 0 {
		panic("no return value specified for GetUpdates")
	}

	var r0 []telegram.Update
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, int64, int) ([]telegram.Update, error)); ok {
		return rf(ctx, offset, timeoutSecs)
	}
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]telegram.Update)
	}
	r1 = ret.Error(1)

	return r0, r1
}

// SendMessage provides a mock function with given fields: ctx, chatID, text
func (_m *MockClient) SendMessage(ctx context.Context, chatID int64, text string) error {
	ret := _m.Called(ctx, chatID, text)

	if len(ret) == 0 {
		panic("no return value specified for SendMessage")
	}

	var r0 error
	if rf, ok := ret.Get(0).(func(context.Context, int64, string) error); ok {
		r0 = rf(ctx, chatID, text)
	} else {
		r0 = ret.Error(0)
	}

	return r0
}

// NewMockClient creates a new instance of MockClient. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
// The first argument is typically a *testing.T value.
func NewMockClient(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockClient {
	mock := &MockClient{}
	mock.Mock.Test(t)

	t.Cleanup(func() { mock.AssertExpectations(t) })

	return mock
}
