//	mockgen -destination=internal/usecase/mocks/mock_gateway.go -package=mocks github.com/iho/chequer/internal/usecase SettlementGateway
//

package mocks

import (
	context "context"
	reflect "reflect"

	gomock "go.uber.org/mock/gomock"

	domain "github.com/iho/chequer/internal/domain"
)

// MockSettlementGateway is a mock of SettlementGateway interface.
type MockSettlementGateway struct {
	ctrl     *gomock.Controller
	recorder *MockSettlementGatewayMockRecorder
	isgomock struct{}
}

// MockSettlementGatewayMockRecorder is the mock recorder for MockSettlementGateway.
type MockSettlementGatewayMockRecorder struct {
	mock *MockSettlementGateway
}

// NewMockSettlementGateway creates a new mock instance.
func NewMockSettlementGateway(ctrl *gomock.Controller) *MockSettlementGateway {
	mock := &MockSettlementGateway{ctrl: ctrl}
	mock.recorder = &MockSettlementGatewayMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockSettlementGateway) EXPECT() *MockSettlementGatewayMockRecorder {
	return m.recorder
}

// Reconcile mocks base method.
func (m *MockSettlementGateway) Reconcile(ctx context.Context, attemptID string) (domain.GatewayResult, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Reconcile", ctx, attemptID)
	ret0, _ := ret[0].(domain.GatewayResult)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// Reconcile indicates an expected call of Reconcile.
func (mr *MockSettlementGatewayMockRecorder) Reconcile(ctx, attemptID any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Reconcile", reflect.TypeOf((*MockSettlementGateway)(nil).Reconcile), ctx, attemptID)
}

// Submit mocks base method.
func (m *MockSettlementGateway) Submit(ctx context.Context, cheque *domain.Cheque, attemptID string) (domain.GatewayResult, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Submit", ctx, cheque, attemptID)
	ret0, _ := ret[0].(domain.GatewayResult)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// Submit indicates an expected call of Submit.
func (mr *MockSettlementGatewayMockRecorder) Submit(ctx, cheque, attemptID any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Submit", reflect.TypeOf((*MockSettlementGateway)(nil).Submit), ctx, cheque, attemptID)
}
