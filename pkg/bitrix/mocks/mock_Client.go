// Package mocks provides test doubles for the bitrix client.
package mocks

import (
	"context"

	mock "github.com/stretchr/testify/mock"
	bitrix "github.com/zvilnymo/casecheck/pkg/bitrix"
)

// MockClient is a mock type for the Client interface.
type MockClient struct {
	mock.Mock
}

// FindContactByPhone provides a mock function with given fields: ctx, canonicalPhone
func (_m *MockClient) FindContactByPhone(ctx context.Context, canonicalPhone string) (*bitrix.Contact, error) {
	ret := _m.Called(ctx, canonicalPhone)

	if len(ret) == 0 {
		panic("no return value specified for FindContactByPhone")
	}

	var r0 *bitrix.Contact
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*bitrix.Contact)
	}
	return r0, ret.Error(1)
}

// LatestDeal provides a mock function with given fields: ctx, contactID, categoryID, extraFields
func (_m *MockClient) LatestDeal(ctx context.Context, contactID int64, categoryID int, extraFields []string) (*bitrix.Deal, error) {
	ret := _m.Called(ctx, contactID, categoryID, extraFields)

	if len(ret) == 0 {
		panic("no return value specified for LatestDeal")
	}

	var r0 *bitrix.Deal
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*bitrix.Deal)
	}
	return r0, ret.Error(1)
}

// StageLabels provides a mock function with given fields: ctx, categoryID
func (_m *MockClient) StageLabels(ctx context.Context, categoryID int) (map[string]string, error) {
	ret := _m.Called(ctx, categoryID)

	if len(ret) == 0 {
		panic("no return value specified for StageLabels")
	}

	var r0 map[string]string
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(map[string]string)
	}
	return r0, ret.Error(1)
}

// StageHistory provides a mock function with given fields: ctx, dealID, limit
func (_m *MockClient) StageHistory(ctx context.Context, dealID int64, limit int) ([]bitrix.StageRecord, error) {
	ret := _m.Called(ctx, dealID, limit)

	if len(ret) == 0 {
		panic("no return value specified for StageHistory")
	}

	var r0 []bitrix.StageRecord
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]bitrix.StageRecord)
	}
	return r0, ret.Error(1)
}

// UserName provides a mock function with given fields: ctx, userID
func (_m *MockClient) UserName(ctx context.Context, userID int64) string {
	ret := _m.Called(ctx, userID)

	if len(ret) == 0 {
		panic("no return value specified for UserName")
	}

	return ret.String(0)
}

// DealURL provides a mock function with given fields: dealID
func (_m *MockClient) DealURL(dealID int64) string {
	ret := _m.Called(dealID)

	if len(ret) == 0 {
		panic("no return value specified for DealURL")
	}

	return ret.String(0)
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
