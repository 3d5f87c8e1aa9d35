// Package mocks provides test doubles for the drive client.
package mocks

import (
	"context"

	mock "github.com/stretchr/testify/mock"
	drive "github.com/zvilnymo/casecheck/pkg/drive"
)

// MockClient is a mock type for the Client interface.
type MockClient struct {
	mock.Mock
}

// List provides a mock function with given fields: ctx, q, pageToken
func (_m *MockClient) List(ctx context.Context, q drive.Query, pageToken string) (*drive.FileList, error) {
	ret := _m.Called(ctx, q, pageToken)

	if len(ret) == 0 {
		panic("no return value specified for List")
	}

	var r0 *drive.FileList
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, drive.Query, string) (*drive.FileList, error)); ok {
		return rf(ctx, q, pageToken)
	}
	if rf, ok := ret.Get(0).(func(context.Context, drive.Query, string) *drive.FileList); ok {
		r0 = rf(ctx, q, pageToken)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(*drive.FileList)
		}
	}

	if rf, ok := ret.Get(1).(func(context.Context, drive.Query, string) error); ok {
		r1 = rf(ctx, q, pageToken)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// Get provides a mock function with given fields: ctx, fileID
func (_m *MockClient) Get(ctx context.Context, fileID string) (*drive.File, error) {
	ret := _m.Called(ctx, fileID)

	if len(ret) == 0 {
		panic("no return value specified for Get")
	}

	var r0 *drive.File
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, string) (*drive.File, error)); ok {
		return rf(ctx, fileID)
	}
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*drive.File)
	}
	r1 = ret.Error(1)

	return r0, r1
}

// ViewLink provides a mock function with given fields: ctx, fileID
func (_m *MockClient) ViewLink(ctx context.Context, fileID string) (string, error) {
	ret := _m.Called(ctx, fileID)

	if len(ret) == 0 {
		panic("no return value specified for ViewLink")
	}

	if rf, ok := ret.Get(0).(func(context.Context, string) (string, error)); ok {
		return rf(ctx, fileID)
	}
	return ret.String(0), ret.Error(1)
}

// NewMockClient creates a new instance of MockClient. It also registers a
// testing interface on the mock and a cleanup function to assert the mocks
// expectations.
func NewMockClient(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockClient {
	m := &MockClient{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
