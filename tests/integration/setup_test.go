package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/iho/chequer/internal/adapter/gateway"
	adaptershttp "github.com/iho/chequer/internal/adapter/http"
	"github.com/iho/chequer/internal/adapter/http/handler"
	"github.com/iho/chequer/internal/adapter/repository/postgres"
	redisrepo "github.com/iho/chequer/internal/adapter/repository/redis"
	infraredis "github.com/iho/chequer/internal/infrastructure/redis"
	"github.com/iho/chequer/internal/usecase"
	"github.com/iho/chequer/tests/testutil"
)

// testApp wires the full clearing stack against real Postgres and Redis,
// with the settlement network stubbed by an httptest server.
type testApp struct {
	router       http.Handler
	submissionUC *usecase.SubmissionUseCase
	settlementUC *usecase.SettlementUseCase
	reversalUC   *usecase.ReversalUseCase
	statusUC     *usecase.StatusUseCase
	accountUC    *usecase.AccountUseCase
	pool         *pgxpool.Pool
	redis        *goredis.Client
}

func newTestApp(t *testing.T, testDB *testutil.TestDB, gatewayURL string) *testApp {
	t.Helper()

	ctx := context.Background()
	pool := testDB.Pool
	policy := testutil.TestPolicy()

	txManager := postgres.NewTxManager(pool)
	chequeRepo := postgres.NewChequeRepository(pool)
	ledgerRepo := postgres.NewLedgerRepository(pool)
	attemptRepo := postgres.NewAttemptRepository(pool)
	accountRepo := postgres.NewAccountRepository(pool)
	outboxRepo := postgres.NewOutboxRepository(pool)
	idGen := postgres.NewULIDGenerator()
	retrier := postgres.NewRetrier()

	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		redisURL = "redis://localhost:6379"
	}

	redisClient, err := infraredis.NewClient(ctx, redisURL)
	if err != nil {
		t.Fatalf("failed to connect to redis: %v", err)
	}
	t.Cleanup(func() { _ = redisClient.Close() })

	leases := redisrepo.NewLeaseStore(redisClient)
	idempotencyStore := redisrepo.NewIdempotencyStore(redisClient)

	gw := gateway.NewHTTPGateway(gatewayURL, policy.GatewayTimeout, nil)

	submissionUC := usecase.NewSubmissionUseCase(txManager, chequeRepo, ledgerRepo, accountRepo, outboxRepo, idGen, retrier, policy, nil)
	settlementUC := usecase.NewSettlementUseCase(txManager, chequeRepo, ledgerRepo, attemptRepo, accountRepo, outboxRepo, gw, leases, idGen, policy, nil, nil)
	reversalUC := usecase.NewReversalUseCase(txManager, chequeRepo, ledgerRepo, accountRepo, outboxRepo, idGen, policy, nil)
	statusUC := usecase.NewStatusUseCase(chequeRepo, ledgerRepo, attemptRepo, outboxRepo)
	accountUC := usecase.NewAccountUseCase(accountRepo, idGen)

	router := adaptershttp.NewRouter(adaptershttp.RouterConfig{
		ChequeHandler:    handler.NewChequeHandler(submissionUC, statusUC, reversalUC),
		AccountHandler:   handler.NewAccountHandler(accountUC),
		HealthHandler:    handler.NewHealthHandler(pool, redisClient),
		IdempotencyStore: idempotencyStore,
	})

	return &testApp{
		router:       router,
		submissionUC: submissionUC,
		settlementUC: settlementUC,
		reversalUC:   reversalUC,
		statusUC:     statusUC,
		accountUC:    accountUC,
		pool:         pool,
		redis:        redisClient,
	}
}

// postJSON performs a POST against the router and decodes the response body.
func (app *testApp) postJSON(t *testing.T, path string, body, out any) *httptest.ResponseRecorder {
	t.Helper()

	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	app.router.ServeHTTP(rec, req)

	if out != nil && rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
			t.Fatalf("decode response %q: %v", rec.Body.String(), err)
		}
	}
	return rec
}

// getJSON performs a GET against the router and decodes the response body.
func (app *testApp) getJSON(t *testing.T, path string, out any) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	app.router.ServeHTTP(rec, req)

	if out != nil && rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
			t.Fatalf("decode response %q: %v", rec.Body.String(), err)
		}
	}
	return rec
}

// postWithIdempotencyKey performs a POST carrying an Idempotency-Key header.
func postWithIdempotencyKey(t *testing.T, app *testApp, path string, body any, key string) *httptest.ResponseRecorder {
	t.Helper()

	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", key)
	rec := httptest.NewRecorder()
	app.router.ServeHTTP(rec, req)
	return rec
}

// decimalFromMinor converts integer minor units to a decimal major amount.
func decimalFromMinor(minor int64) decimal.Decimal {
	return decimal.New(minor, -2)
}

// stubGateway is a scripted settlement network. Each submit answers with the
// next scripted response; reconcile answers from the recorded attempts.
type stubGateway struct {
	server    *httptest.Server
	responses chan stubResponse

	mu   sync.Mutex
	seen map[string]stubResponse
}

type stubResponse struct {
	code int
	body map[string]any
}

func newStubGateway(t *testing.T) *stubGateway {
	t.Helper()

	g := &stubGateway{
		responses: make(chan stubResponse, 16),
		seen:      make(map[string]stubResponse),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/settlements", func(w http.ResponseWriter, r *http.Request) {
		var resp stubResponse
		select {
		case resp = <-g.responses:
		default:
			resp = stubResponse{code: http.StatusOK, body: map[string]any{"status": "confirmed", "reference": "G-" + testutil.GenerateID()}}
		}
		g.mu.Lock()
		g.seen[r.Header.Get("Idempotency-Key")] = resp
		g.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(resp.code)
		_ = json.NewEncoder(w).Encode(resp.body)
	})
	mux.HandleFunc("GET /v1/settlements/{id}", func(w http.ResponseWriter, r *http.Request) {
		g.mu.Lock()
		resp, ok := g.seen[r.PathValue("id")]
		g.mu.Unlock()
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(resp.code)
		_ = json.NewEncoder(w).Encode(resp.body)
	})

	g.server = httptest.NewServer(mux)
	t.Cleanup(g.server.Close)
	return g
}

// enqueue scripts the next submit response.
func (g *stubGateway) enqueue(code int, body map[string]any) {
	g.responses <- stubResponse{code: code, body: body}
}

// recordAttempt seeds a reconcile answer for an attempt the network already
// processed, without a submit having gone through the stub.
func (g *stubGateway) recordAttempt(attemptID string, code int, body map[string]any) {
	g.mu.Lock()
	g.seen[attemptID] = stubResponse{code: code, body: body}
	g.mu.Unlock()
}
