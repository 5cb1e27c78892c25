package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/mock/gomock"

	"github.com/iho/chequer/internal/domain"
	"github.com/iho/chequer/internal/usecase"
	"github.com/iho/chequer/internal/usecase/mocks"
)

type settlementFixture struct {
	chequeRepo  *mocks.MockChequeRepository
	ledgerRepo  *mocks.MockLedgerRepository
	attemptRepo *mocks.MockAttemptRepository
	accountRepo *mocks.MockAccountRepository
	outboxRepo  *mocks.MockOutboxRepository
	gateway     *mocks.MockSettlementGateway
	leases      *mocks.MockLeaseStore
	uc          *usecase.SettlementUseCase
}

func newSettlementFixture(t *testing.T, policy usecase.ClearingPolicy) *settlementFixture {
	t.Helper()

	ctrl := gomock.NewController(t)
	chequeRepo := mocks.NewMockChequeRepository()
	ledgerRepo := mocks.NewMockLedgerRepository(chequeRepo)
	attemptRepo := mocks.NewMockAttemptRepository()
	accountRepo := mocks.NewMockAccountRepository()
	outboxRepo := mocks.NewMockOutboxRepository()
	gateway := mocks.NewMockSettlementGateway(ctrl)
	leases := mocks.NewMockLeaseStore()

	uc := usecase.NewSettlementUseCase(
		&mocks.MockTransactionManager{},
		chequeRepo,
		ledgerRepo,
		attemptRepo,
		accountRepo,
		outboxRepo,
		gateway,
		leases,
		&mocks.MockIDGenerator{},
		policy,
		nil,
		nil,
	)

	return &settlementFixture{
		chequeRepo:  chequeRepo,
		ledgerRepo:  ledgerRepo,
		attemptRepo: attemptRepo,
		accountRepo: accountRepo,
		outboxRepo:  outboxRepo,
		gateway:     gateway,
		leases:      leases,
		uc:          uc,
	}
}

// seedPending puts a cheque in PendingSettlement with its history in place.
func (f *settlementFixture) seedPending(id string) *domain.Cheque {
	cheque := &domain.Cheque{
		ID:            id,
		RoutingCode:   "HDFC0001234",
		AccountNumber: "123456789",
		SerialNumber:  "000042",
		PayerAccount:  "111122223333",
		PayeeAccount:  "444455556666",
		AmountMinor:   12_500,
		IssueDate:     time.Now().UTC().AddDate(0, 0, -1),
		CurrentState:  domain.StatePendingSettlement,
	}
	f.chequeRepo.Put(cheque)

	ctx := context.Background()
	_ = f.ledgerRepo.Append(ctx, nil, &domain.ClearingRecord{ChequeID: id, ToState: domain.StateSubmitted, Actor: domain.ActorSystem})
	_ = f.ledgerRepo.Append(ctx, nil, &domain.ClearingRecord{ChequeID: id, FromState: domain.StateSubmitted, ToState: domain.StateValidating, Actor: domain.ActorSystem})
	_ = f.ledgerRepo.Append(ctx, nil, &domain.ClearingRecord{ChequeID: id, FromState: domain.StateValidating, ToState: domain.StatePendingSettlement, Actor: domain.ActorSystem})
	return cheque
}

func TestSettleCheque_ConfirmedOutcome(t *testing.T) {
	f := newSettlementFixture(t, testPolicy())
	cheque := f.seedPending("chq-1")

	f.gateway.EXPECT().
		Submit(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(domain.GatewayResult{Status: domain.OutcomeConfirmed, Reference: "G123"}, nil)

	if err := f.uc.SettleCheque(context.Background(), "chq-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cheque.CurrentState != domain.StateSettled {
		t.Fatalf("expected settled, got %s", cheque.CurrentState)
	}

	records, _ := f.ledgerRepo.ListByCheque(context.Background(), "chq-1")
	last := records[len(records)-1]
	if last.ToState != domain.StateSettled || last.GatewayRef != "G123" {
		t.Fatalf("expected settled record with gateway ref, got %+v", last)
	}

	attempts, _ := f.attemptRepo.ListByCheque(context.Background(), "chq-1")
	if len(attempts) != 1 {
		t.Fatalf("expected one attempt, got %d", len(attempts))
	}
	if attempts[0].Status != domain.AttemptStatusConfirmed || attempts[0].GatewayRef != "G123" {
		t.Fatalf("unexpected attempt outcome: %+v", attempts[0])
	}
	if attempts[0].Number != 1 {
		t.Fatalf("expected attempt number 1, got %d", attempts[0].Number)
	}
}

func TestSettleCheque_StableAttemptIDAcrossRetries(t *testing.T) {
	f := newSettlementFixture(t, testPolicy())
	cheque := f.seedPending("chq-1")

	var attemptIDs []string
	record := func(ctx context.Context, c *domain.Cheque, attemptID string) {
		attemptIDs = append(attemptIDs, attemptID)
	}

	gomock.InOrder(
		f.gateway.EXPECT().Submit(gomock.Any(), gomock.Any(), gomock.Any()).
			Do(record).
			Return(domain.GatewayResult{Status: domain.OutcomeRetryable, ReasonCode: "timeout"}, nil),
		f.gateway.EXPECT().Submit(gomock.Any(), gomock.Any(), gomock.Any()).
			Do(record).
			Return(domain.GatewayResult{Status: domain.OutcomeRetryable, ReasonCode: "timeout"}, nil),
		f.gateway.EXPECT().Submit(gomock.Any(), gomock.Any(), gomock.Any()).
			Do(record).
			Return(domain.GatewayResult{Status: domain.OutcomeConfirmed, Reference: "G777"}, nil),
	)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if err := f.uc.SettleCheque(ctx, "chq-1"); err != nil {
			t.Fatalf("cycle %d: unexpected error: %v", i, err)
		}
	}

	if cheque.CurrentState != domain.StateSettled {
		t.Fatalf("expected settled after third attempt, got %s", cheque.CurrentState)
	}
	if len(attemptIDs) != 3 {
		t.Fatalf("expected 3 gateway calls, got %d", len(attemptIDs))
	}
	if attemptIDs[0] == "" || attemptIDs[0] != attemptIDs[1] || attemptIDs[1] != attemptIDs[2] {
		t.Fatalf("attempt id must stay stable across retries, got %v", attemptIDs)
	}

	attempts, _ := f.attemptRepo.ListByCheque(ctx, "chq-1")
	if len(attempts) != 3 {
		t.Fatalf("expected 3 attempt rows, got %d", len(attempts))
	}
	for i, a := range attempts {
		if a.Number != i+1 {
			t.Fatalf("attempt %d: expected number %d, got %d", i, i+1, a.Number)
		}
	}
}

func TestSettleCheque_RetryableSchedulesBackoff(t *testing.T) {
	f := newSettlementFixture(t, testPolicy())
	cheque := f.seedPending("chq-1")

	f.gateway.EXPECT().
		Submit(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(domain.GatewayResult{Status: domain.OutcomeRetryable, ReasonCode: "unavailable"}, nil)

	before := time.Now().UTC()
	if err := f.uc.SettleCheque(context.Background(), "chq-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cheque.CurrentState != domain.StatePendingSettlement {
		t.Fatalf("expected re-queue to pending_settlement, got %s", cheque.CurrentState)
	}
	if cheque.NextAttemptAt == nil {
		t.Fatal("expected a scheduled next attempt")
	}
	if delay := cheque.NextAttemptAt.Sub(before); delay < 25*time.Second || delay > 35*time.Second {
		t.Fatalf("expected ~30s initial backoff, got %v", delay)
	}

	// not claimable until the backoff elapses
	due, _ := f.chequeRepo.ListClaimable(context.Background(), time.Now().UTC(), 10)
	if len(due) != 0 {
		t.Fatalf("expected no due cheques during backoff, got %d", len(due))
	}
}

func TestSettleCheque_RetryBudgetExhausted(t *testing.T) {
	policy := testPolicy()
	policy.RetryBound = 2
	f := newSettlementFixture(t, policy)
	cheque := f.seedPending("chq-1")

	f.gateway.EXPECT().
		Submit(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(domain.GatewayResult{Status: domain.OutcomeRetryable, ReasonCode: "timeout"}, nil).
		Times(2)

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if err := f.uc.SettleCheque(ctx, "chq-1"); err != nil {
			t.Fatalf("cycle %d: unexpected error: %v", i, err)
		}
	}

	if cheque.CurrentState != domain.StateSettlementFailed {
		t.Fatalf("expected settlement_failed after exhausting retries, got %s", cheque.CurrentState)
	}

	records, _ := f.ledgerRepo.ListByCheque(ctx, "chq-1")
	last := records[len(records)-1]
	if last.ReasonCode != domain.ReasonRetryExhausted {
		t.Fatalf("expected retry_exhausted, got %s", last.ReasonCode)
	}
}

func TestSettleCheque_BusinessRejectionIsTerminal(t *testing.T) {
	f := newSettlementFixture(t, testPolicy())
	cheque := f.seedPending("chq-1")

	f.gateway.EXPECT().
		Submit(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(domain.GatewayResult{Status: domain.OutcomeRejected, ReasonCode: "account_closed"}, nil)

	if err := f.uc.SettleCheque(context.Background(), "chq-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cheque.CurrentState != domain.StateSettlementFailed {
		t.Fatalf("expected settlement_failed, got %s", cheque.CurrentState)
	}

	records, _ := f.ledgerRepo.ListByCheque(context.Background(), "chq-1")
	last := records[len(records)-1]
	if last.ReasonCode != domain.ReasonGatewayRejected {
		t.Fatalf("expected gateway_rejected, got %s", last.ReasonCode)
	}
}

func TestSettleCheque_TransportErrorTreatedAsRetryable(t *testing.T) {
	f := newSettlementFixture(t, testPolicy())
	cheque := f.seedPending("chq-1")

	f.gateway.EXPECT().
		Submit(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(domain.GatewayResult{}, errors.New("connection refused"))

	if err := f.uc.SettleCheque(context.Background(), "chq-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cheque.CurrentState != domain.StatePendingSettlement {
		t.Fatalf("expected re-queue on transport error, got %s", cheque.CurrentState)
	}

	// the attempt row must record that the submission may have landed
	attempts, _ := f.attemptRepo.ListByCheque(context.Background(), "chq-1")
	if len(attempts) != 1 || attempts[0].Status != domain.AttemptStatusAmbiguous {
		t.Fatalf("expected an ambiguous attempt row, got %+v", attempts)
	}
}

func TestSettleCheque_AmbiguousFailureReconcilesBeforeResubmit(t *testing.T) {
	f := newSettlementFixture(t, testPolicy())
	cheque := f.seedPending("chq-1")

	var attemptID string
	gomock.InOrder(
		f.gateway.EXPECT().Submit(gomock.Any(), gomock.Any(), gomock.Any()).
			Do(func(ctx context.Context, c *domain.Cheque, id string) { attemptID = id }).
			Return(domain.GatewayResult{}, errors.New("i/o timeout")),
		// No further Submit is registered: resubmitting without asking the
		// gateway what became of the first attempt would fail the test.
		f.gateway.EXPECT().Reconcile(gomock.Any(), gomock.Any()).
			Do(func(ctx context.Context, id string) {
				if id != attemptID {
					t.Errorf("reconcile must use the stored attempt id %q, got %q", attemptID, id)
				}
			}).
			Return(domain.GatewayResult{Status: domain.OutcomeConfirmed, Reference: "G321"}, nil),
	)

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if err := f.uc.SettleCheque(ctx, "chq-1"); err != nil {
			t.Fatalf("cycle %d: unexpected error: %v", i, err)
		}
	}

	if cheque.CurrentState != domain.StateSettled {
		t.Fatalf("expected settled via reconciliation, got %s", cheque.CurrentState)
	}

	attempts, _ := f.attemptRepo.ListByCheque(ctx, "chq-1")
	if len(attempts) != 2 {
		t.Fatalf("expected 2 attempt rows, got %d", len(attempts))
	}
	if attempts[0].Status != domain.AttemptStatusAmbiguous {
		t.Fatalf("expected first attempt marked ambiguous, got %s", attempts[0].Status)
	}
	if attempts[1].Status != domain.AttemptStatusConfirmed || attempts[1].GatewayRef != "G321" {
		t.Fatalf("expected second attempt confirmed with G321, got %+v", attempts[1])
	}
	if attempts[0].AttemptID != attempts[1].AttemptID {
		t.Fatalf("attempt id must stay stable, got %q and %q", attempts[0].AttemptID, attempts[1].AttemptID)
	}
}

func TestSettleCheque_AmbiguousThenUnknownResubmitsSameAttemptID(t *testing.T) {
	f := newSettlementFixture(t, testPolicy())
	cheque := f.seedPending("chq-1")

	var submitIDs []string
	record := func(ctx context.Context, c *domain.Cheque, id string) {
		submitIDs = append(submitIDs, id)
	}

	gomock.InOrder(
		f.gateway.EXPECT().Submit(gomock.Any(), gomock.Any(), gomock.Any()).
			Do(record).
			Return(domain.GatewayResult{}, errors.New("connection reset")),
		f.gateway.EXPECT().Reconcile(gomock.Any(), gomock.Any()).
			Return(domain.GatewayResult{Status: domain.OutcomeUnknown}, nil),
		f.gateway.EXPECT().Submit(gomock.Any(), gomock.Any(), gomock.Any()).
			Do(record).
			Return(domain.GatewayResult{Status: domain.OutcomeConfirmed, Reference: "G555"}, nil),
	)

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if err := f.uc.SettleCheque(ctx, "chq-1"); err != nil {
			t.Fatalf("cycle %d: unexpected error: %v", i, err)
		}
	}

	if cheque.CurrentState != domain.StateSettled {
		t.Fatalf("expected settled after resubmission, got %s", cheque.CurrentState)
	}
	if len(submitIDs) != 2 || submitIDs[0] != submitIDs[1] {
		t.Fatalf("expected the same attempt id on both submissions, got %v", submitIDs)
	}
}

func TestSettleCheque_LeaseContention(t *testing.T) {
	f := newSettlementFixture(t, testPolicy())
	f.seedPending("chq-1")

	// another worker holds the lease; no gateway call may happen
	if ok, _ := f.leases.Acquire(context.Background(), "chq-1", "other-worker", time.Minute); !ok {
		t.Fatal("test setup: lease acquisition failed")
	}

	err := f.uc.SettleCheque(context.Background(), "chq-1")
	if !errors.Is(err, domain.ErrLeaseNotAcquired) {
		t.Fatalf("expected ErrLeaseNotAcquired, got %v", err)
	}
}

func TestSettleDue_ProcessesDueAndSkipsContended(t *testing.T) {
	f := newSettlementFixture(t, testPolicy())
	f.seedPending("chq-1")
	f.seedPending("chq-2")

	if ok, _ := f.leases.Acquire(context.Background(), "chq-2", "other-worker", time.Minute); !ok {
		t.Fatal("test setup: lease acquisition failed")
	}

	f.gateway.EXPECT().
		Submit(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(domain.GatewayResult{Status: domain.OutcomeConfirmed, Reference: "G1"}, nil)

	processed, err := f.uc.SettleDue(context.Background(), 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if processed != 1 {
		t.Fatalf("expected 1 processed, got %d", processed)
	}
}

// seedSettling puts a cheque mid-settlement with a stale update time, the
// shape a crashed worker leaves behind.
func (f *settlementFixture) seedSettling(id, attemptID string, attemptCount int) *domain.Cheque {
	cheque := f.seedPending(id)
	ctx := context.Background()
	_ = f.ledgerRepo.Append(ctx, nil, &domain.ClearingRecord{ChequeID: id, FromState: domain.StatePendingSettlement, ToState: domain.StateSettling, Actor: domain.ActorSystem})
	cheque.CurrentState = domain.StateSettling
	cheque.AttemptID = attemptID
	cheque.AttemptCount = attemptCount
	cheque.UpdatedAt = time.Now().UTC().Add(-10 * time.Minute)
	return cheque
}

func TestRecoverInFlight_ReconcileConfirmedNeverResubmits(t *testing.T) {
	f := newSettlementFixture(t, testPolicy())
	cheque := f.seedSettling("chq-1", "att-original", 1)

	// Submit must never be called during recovery; only Reconcile with the
	// original attempt id.
	f.gateway.EXPECT().
		Reconcile(gomock.Any(), "att-original").
		Return(domain.GatewayResult{Status: domain.OutcomeConfirmed, Reference: "G999"}, nil)

	recovered, err := f.uc.RecoverInFlight(context.Background(), 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if recovered != 1 {
		t.Fatalf("expected 1 recovered, got %d", recovered)
	}
	if cheque.CurrentState != domain.StateSettled {
		t.Fatalf("expected settled, got %s", cheque.CurrentState)
	}

	records, _ := f.ledgerRepo.ListByCheque(context.Background(), "chq-1")
	last := records[len(records)-1]
	if last.ReasonCode != domain.ReasonReconciled || last.GatewayRef != "G999" {
		t.Fatalf("expected reconciled record with G999, got %+v", last)
	}

	attempts, _ := f.attemptRepo.ListByCheque(context.Background(), "chq-1")
	if len(attempts) != 1 || attempts[0].AttemptID != "att-original" {
		t.Fatalf("expected an audit row for the original attempt, got %+v", attempts)
	}
}

func TestRecoverInFlight_ReconcileRejected(t *testing.T) {
	f := newSettlementFixture(t, testPolicy())
	cheque := f.seedSettling("chq-1", "att-original", 1)

	f.gateway.EXPECT().
		Reconcile(gomock.Any(), "att-original").
		Return(domain.GatewayResult{Status: domain.OutcomeRejected, ReasonCode: "account_closed"}, nil)

	if _, err := f.uc.RecoverInFlight(context.Background(), 10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cheque.CurrentState != domain.StateSettlementFailed {
		t.Fatalf("expected settlement_failed, got %s", cheque.CurrentState)
	}
}

func TestRecoverInFlight_UnknownOutcomeRequeues(t *testing.T) {
	f := newSettlementFixture(t, testPolicy())
	cheque := f.seedSettling("chq-1", "att-original", 1)

	f.gateway.EXPECT().
		Reconcile(gomock.Any(), "att-original").
		Return(domain.GatewayResult{Status: domain.OutcomeUnknown}, nil)

	if _, err := f.uc.RecoverInFlight(context.Background(), 10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cheque.CurrentState != domain.StatePendingSettlement {
		t.Fatalf("expected re-queue for a fresh attempt, got %s", cheque.CurrentState)
	}
	if cheque.NextAttemptAt == nil {
		t.Fatal("expected a backoff-scheduled next attempt")
	}
}

func TestRecoverInFlight_UnknownAfterBudgetFlagsReview(t *testing.T) {
	policy := testPolicy()
	policy.RetryBound = 1
	f := newSettlementFixture(t, policy)
	cheque := f.seedSettling("chq-1", "att-original", 1)

	f.gateway.EXPECT().
		Reconcile(gomock.Any(), "att-original").
		Return(domain.GatewayResult{Status: domain.OutcomeUnknown}, nil)

	recovered, err := f.uc.RecoverInFlight(context.Background(), 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if recovered != 1 {
		t.Fatalf("expected the flagged cheque counted as recovered, got %d", recovered)
	}

	// the cheque stays in Settling, flagged instead of silently dropped
	if cheque.CurrentState != domain.StateSettling {
		t.Fatalf("expected cheque held in settling, got %s", cheque.CurrentState)
	}
	if !cheque.NeedsReview {
		t.Fatal("expected the cheque flagged for review")
	}

	var flagged bool
	for _, e := range f.outboxRepo.Events() {
		if e.EventType == domain.EventTypeRecoveryInconsistency {
			flagged = true
		}
	}
	if !flagged {
		t.Fatal("expected a recovery inconsistency event")
	}
}

func TestRecoverInFlight_FlaggedChequeEscalatesOnce(t *testing.T) {
	policy := testPolicy()
	policy.RetryBound = 1
	f := newSettlementFixture(t, policy)
	cheque := f.seedSettling("chq-1", "att-original", 1)

	// One reconcile only: once flagged, the cheque leaves the recovery scan
	// and waits for an operator.
	f.gateway.EXPECT().
		Reconcile(gomock.Any(), "att-original").
		Return(domain.GatewayResult{Status: domain.OutcomeUnknown}, nil).
		Times(1)

	ctx := context.Background()
	if _, err := f.uc.RecoverInFlight(ctx, 10); err != nil {
		t.Fatalf("first sweep: unexpected error: %v", err)
	}
	if !cheque.NeedsReview {
		t.Fatal("expected the cheque flagged for review")
	}

	recovered, err := f.uc.RecoverInFlight(ctx, 10)
	if err != nil {
		t.Fatalf("second sweep: unexpected error: %v", err)
	}
	if recovered != 0 {
		t.Fatalf("expected the flagged cheque skipped on the second sweep, got %d recovered", recovered)
	}

	var events int
	for _, e := range f.outboxRepo.Events() {
		if e.EventType == domain.EventTypeRecoveryInconsistency {
			events++
		}
	}
	if events != 1 {
		t.Fatalf("expected exactly one escalation event, got %d", events)
	}
}

func TestSettleCheque_DebitsPayerAccount(t *testing.T) {
	f := newSettlementFixture(t, testPolicy())
	cheque := f.seedPending("chq-1")

	ctx := context.Background()
	if err := f.accountRepo.Create(ctx, &domain.Account{
		ID:            "acc-1",
		AccountNumber: "111122223333",
		Balance:       decimal.New(200_00, -2),
	}); err != nil {
		t.Fatalf("test setup: %v", err)
	}

	f.gateway.EXPECT().
		Submit(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(domain.GatewayResult{Status: domain.OutcomeConfirmed, Reference: "G100"}, nil)

	if err := f.uc.SettleCheque(ctx, "chq-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cheque.CurrentState != domain.StateSettled {
		t.Fatalf("expected settled, got %s", cheque.CurrentState)
	}

	account, _ := f.accountRepo.GetByNumber(ctx, "111122223333")
	if want := decimal.New(75_00, -2); !account.Balance.Equal(want) {
		t.Fatalf("expected balance %s after debit, got %s", want, account.Balance)
	}
	if cheque.NeedsReview {
		t.Fatal("a covered debit must not flag the cheque")
	}
}

func TestSettleCheque_OverdraftSettlesAndFlagsReview(t *testing.T) {
	f := newSettlementFixture(t, testPolicy())
	cheque := f.seedPending("chq-1")

	ctx := context.Background()
	if err := f.accountRepo.Create(ctx, &domain.Account{
		ID:            "acc-1",
		AccountNumber: "111122223333",
		Balance:       decimal.New(50_00, -2),
	}); err != nil {
		t.Fatalf("test setup: %v", err)
	}

	f.gateway.EXPECT().
		Submit(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(domain.GatewayResult{Status: domain.OutcomeConfirmed, Reference: "G100"}, nil)

	if err := f.uc.SettleCheque(ctx, "chq-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// the network confirmed the settlement, so the debit goes through even
	// though it overdraws the account
	if cheque.CurrentState != domain.StateSettled {
		t.Fatalf("expected settled despite overdraft, got %s", cheque.CurrentState)
	}
	account, _ := f.accountRepo.GetByNumber(ctx, "111122223333")
	if want := decimal.New(-75_00, -2); !account.Balance.Equal(want) {
		t.Fatalf("expected balance %s after overdraft, got %s", want, account.Balance)
	}
	if !cheque.NeedsReview {
		t.Fatal("expected the overdrawn cheque flagged for review")
	}
	if cheque.ReviewReason != "payer account overdrawn on settlement" {
		t.Fatalf("unexpected review reason %q", cheque.ReviewReason)
	}
}
