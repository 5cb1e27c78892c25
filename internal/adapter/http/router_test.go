package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/iho/chequer/internal/adapter/http/handler"
	apimiddleware "github.com/iho/chequer/internal/adapter/http/middleware"
	"github.com/iho/chequer/internal/domain"
	"github.com/iho/chequer/internal/usecase"
)

func TestNewRouter_HealthEndpointAvailable(t *testing.T) {
	router := NewRouter(newRouterConfig())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected /health to return 200, got %d", rec.Code)
	}
}

func TestNewRouter_MetricsEndpointAvailable(t *testing.T) {
	router := NewRouter(newRouterConfig())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected /metrics to return 200, got %d", rec.Code)
	}
}

func TestNewRouter_RateLimiterBlocksExcessRequests(t *testing.T) {
	rl := apimiddleware.NewRateLimiter(1, 1)
	router := NewRouter(newRouterConfig(func(cfg *RouterConfig) {
		cfg.RateLimiter = rl
	}))

	req1 := httptest.NewRequest(http.MethodGet, "/health", nil)
	req1.RemoteAddr = "1.2.3.4:1234"
	rec1 := httptest.NewRecorder()
	router.ServeHTTP(rec1, req1)
	if rec1.Code != http.StatusOK {
		t.Fatalf("expected first request to succeed, got %d", rec1.Code)
	}

	req2 := httptest.NewRequest(http.MethodGet, "/health", nil)
	req2.RemoteAddr = "1.2.3.4:1234"
	rec2 := httptest.NewRecorder()
	router.ServeHTTP(rec2, req2)
	if rec2.Code != http.StatusTooManyRequests {
		t.Fatalf("expected second request to be throttled, got %d", rec2.Code)
	}
}

func TestNewRouter_IdempotencyMiddlewareInvokesStore(t *testing.T) {
	store := &stubIdempotencyStore{}
	router := NewRouter(newRouterConfig(func(cfg *RouterConfig) {
		cfg.IdempotencyStore = store
	}))

	body := `{"routing_code":"021000021","account_number":"123456789","serial_number":"000042","payer_account":"p1","payee_account":"p2","amount_minor":1000,"issue_date":"2025-06-01"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/cheques/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(apimiddleware.IdempotencyKeyHeader, "key-123")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if !store.checkCalled {
		t.Fatalf("expected idempotency store to be used")
	}
}

func TestNewRouter_RegistersKeyRoutes(t *testing.T) {
	router := NewRouter(newRouterConfig())

	chiRoutes, ok := router.(chi.Router)
	if !ok {
		t.Fatal("router does not implement chi.Routes")
	}

	seen := map[string]bool{}
	if err := chi.Walk(chiRoutes, func(method string, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		seen[method+" "+route] = true
		return nil
	}); err != nil {
		t.Fatalf("walk failed: %v", err)
	}

	expected := []string{
		"GET /health",
		"GET /ready",
		"POST /api/v1/cheques/",
		"GET /api/v1/cheques/{id}",
		"GET /api/v1/cheques/{id}/attempts",
		"GET /api/v1/cheques/{id}/events",
		"POST /api/v1/cheques/{id}/cancel",
		"POST /api/v1/cheques/{id}/reverse",
		"POST /api/v1/accounts/",
		"GET /api/v1/accounts/",
		"GET /api/v1/accounts/{id}",
	}

	for _, route := range expected {
		if !seen[route] {
			t.Fatalf("expected route %s to be registered", route)
		}
	}
}

func newRouterConfig(opts ...func(*RouterConfig)) RouterConfig {
	chequeHandler := handler.NewChequeHandler(stubSubmissionService{}, stubStatusService{}, stubReversalService{})
	accountHandler := handler.NewAccountHandler(stubAccountService{})

	cfg := RouterConfig{
		ChequeHandler:  chequeHandler,
		AccountHandler: accountHandler,
		HealthHandler:  &handler.HealthHandler{},
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	return cfg
}

type stubSubmissionService struct{}

func (stubSubmissionService) SubmitCheque(ctx context.Context, input usecase.SubmitChequeInput) (*usecase.SubmitResult, error) {
	return &usecase.SubmitResult{Cheque: &domain.Cheque{ID: "chq"}}, nil
}

func (stubSubmissionService) CancelCheque(ctx context.Context, chequeID string) (*domain.Cheque, error) {
	return &domain.Cheque{ID: chequeID}, nil
}

type stubStatusService struct{}

func (stubStatusService) GetStatus(ctx context.Context, chequeID string) (*usecase.ChequeStatus, error) {
	return &usecase.ChequeStatus{Cheque: &domain.Cheque{ID: chequeID}}, nil
}

func (stubStatusService) ListAttempts(ctx context.Context, chequeID string) ([]*domain.SettlementAttempt, error) {
	return []*domain.SettlementAttempt{}, nil
}

func (stubStatusService) ListEvents(ctx context.Context, input usecase.ListEventsInput) ([]*domain.OutboxEvent, error) {
	return []*domain.OutboxEvent{}, nil
}

type stubReversalService struct{}

func (stubReversalService) ReverseCheque(ctx context.Context, chequeID string) (*domain.Cheque, error) {
	return &domain.Cheque{ID: chequeID}, nil
}

type stubAccountService struct{}

func (stubAccountService) CreateAccount(ctx context.Context, input usecase.CreateAccountInput) (*domain.Account, error) {
	return &domain.Account{ID: "acc"}, nil
}

func (stubAccountService) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	return &domain.Account{ID: id}, nil
}

func (stubAccountService) ListAccounts(ctx context.Context, input usecase.ListAccountsInput) ([]*domain.Account, error) {
	return []*domain.Account{}, nil
}

type stubIdempotencyStore struct {
	checkCalled bool
}

func (s *stubIdempotencyStore) CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	s.checkCalled = true
	return false, nil, nil
}

func (s *stubIdempotencyStore) Update(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	return nil
}
