package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/iho/chequer/internal/domain"
	"github.com/iho/chequer/internal/infrastructure/metrics"
)

// HTTPGateway talks to the settlement network over HTTP and classifies every
// response. Transport failures and 5xx answers are Retryable and marked
// ambiguous, since the attempt may have been recorded; a 4xx answer is a
// definitive business rejection. The attempt id travels as the
// Idempotency-Key header, so resubmitting the same attempt is safe on the
// network side.
type HTTPGateway struct {
	baseURL string
	client  *http.Client
	metrics *metrics.Metrics
}

// NewHTTPGateway creates a new HTTPGateway.
func NewHTTPGateway(baseURL string, timeout time.Duration, metrics *metrics.Metrics) *HTTPGateway {
	return &HTTPGateway{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		metrics: metrics,
	}
}

type submitRequest struct {
	AttemptID     string `json:"attempt_id"`
	RoutingCode   string `json:"routing_code"`
	AccountNumber string `json:"account_number"`
	SerialNumber  string `json:"serial_number"`
	PayerAccount  string `json:"payer_account"`
	PayeeAccount  string `json:"payee_account"`
	AmountMinor   int64  `json:"amount_minor"`
	IssueDate     string `json:"issue_date"`
}

type gatewayResponse struct {
	Status     string `json:"status"`
	Reference  string `json:"reference"`
	ReasonCode string `json:"reason_code"`
	Detail     string `json:"detail"`
}

// Submit presents a cheque for settlement under the given attempt id.
func (g *HTTPGateway) Submit(ctx context.Context, cheque *domain.Cheque, attemptID string) (domain.GatewayResult, error) {
	body, err := json.Marshal(submitRequest{
		AttemptID:     attemptID,
		RoutingCode:   cheque.RoutingCode,
		AccountNumber: cheque.AccountNumber,
		SerialNumber:  cheque.SerialNumber,
		PayerAccount:  cheque.PayerAccount,
		PayeeAccount:  cheque.PayeeAccount,
		AmountMinor:   cheque.AmountMinor,
		IssueDate:     cheque.IssueDate.UTC().Format("2006-01-02"),
	})
	if err != nil {
		return domain.GatewayResult{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/v1/settlements", bytes.NewReader(body))
	if err != nil {
		return domain.GatewayResult{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", attemptID)

	start := time.Now()
	resp, err := g.client.Do(req)
	g.observe("submit", start)
	if err != nil {
		// The request may or may not have reached the network; the caller
		// must reconcile this attempt id before submitting again.
		return domain.GatewayResult{
			Status:    domain.OutcomeRetryable,
			Detail:    err.Error(),
			Ambiguous: true,
		}, nil
	}
	defer resp.Body.Close()

	return g.classify(resp, domain.OutcomeRetryable)
}

// Reconcile asks the network what became of a previous attempt. It never
// triggers a new submission; an unknown attempt id stays Unknown.
func (g *HTTPGateway) Reconcile(ctx context.Context, attemptID string) (domain.GatewayResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/v1/settlements/"+attemptID, nil)
	if err != nil {
		return domain.GatewayResult{}, err
	}

	start := time.Now()
	resp, err := g.client.Do(req)
	g.observe("reconcile", start)
	if err != nil {
		return domain.GatewayResult{
			Status: domain.OutcomeUnknown,
			Detail: err.Error(),
		}, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		// The network never saw the attempt.
		return domain.GatewayResult{Status: domain.OutcomeUnknown}, nil
	}

	return g.classify(resp, domain.OutcomeUnknown)
}

// classify maps an HTTP response to a gateway result. ambiguous is the status
// used when the response gives no definitive answer: Retryable on the submit
// path, Unknown on the reconcile path. Every ambiguous result carries the
// Ambiguous flag, because the network received the request and may have
// recorded the attempt.
func (g *HTTPGateway) classify(resp *http.Response, ambiguous domain.OutcomeStatus) (domain.GatewayResult, error) {
	var parsed gatewayResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil && resp.StatusCode < 300 {
		return domain.GatewayResult{
			Status:    ambiguous,
			Detail:    fmt.Sprintf("unreadable response body: %v", err),
			Ambiguous: true,
		}, nil
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		status := domain.OutcomeConfirmed
		switch parsed.Status {
		case "rejected":
			status = domain.OutcomeRejected
		case "pending":
			status = ambiguous
		}

		return domain.GatewayResult{
			Status:     status,
			Reference:  parsed.Reference,
			ReasonCode: parsed.ReasonCode,
			Detail:     parsed.Detail,
			Ambiguous:  status == ambiguous,
		}, nil
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return domain.GatewayResult{
			Status:     domain.OutcomeRejected,
			Reference:  parsed.Reference,
			ReasonCode: parsed.ReasonCode,
			Detail:     parsed.Detail,
		}, nil
	default:
		return domain.GatewayResult{
			Status:    ambiguous,
			Detail:    fmt.Sprintf("gateway returned status %d", resp.StatusCode),
			Ambiguous: true,
		}, nil
	}
}

func (g *HTTPGateway) observe(operation string, start time.Time) {
	if g.metrics != nil {
		g.metrics.GatewayDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	}
}
