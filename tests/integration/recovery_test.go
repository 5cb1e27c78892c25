package integration

import (
	"context"
	"net/http"
	"testing"

	"github.com/iho/chequer/internal/adapter/http/dto"
	"github.com/iho/chequer/internal/domain"
	"github.com/iho/chequer/tests/testutil"
)

// strandInSettling simulates a worker that appended the Settling record and
// then died before committing any outcome: a stale in-flight cheque.
func strandInSettling(t *testing.T, app *testApp, chequeID, attemptID string) {
	t.Helper()

	ctx := context.Background()

	_, err := app.pool.Exec(ctx, `
		INSERT INTO clearing_records (id, cheque_id, sequence, from_state, to_state, actor)
		SELECT $1, $2, MAX(sequence) + 1, 'pending_settlement', 'settling', 'system'
		FROM clearing_records WHERE cheque_id = $2`,
		testutil.GenerateID(), chequeID)
	if err != nil {
		t.Fatalf("failed to append settling record: %v", err)
	}

	_, err = app.pool.Exec(ctx, `
		UPDATE cheques
		SET current_state = 'settling', attempt_id = $2, attempt_count = attempt_count + 1,
		    version = version + 1, updated_at = NOW() - INTERVAL '10 minutes'
		WHERE id = $1`,
		chequeID, attemptID)
	if err != nil {
		t.Fatalf("failed to strand cheque: %v", err)
	}
}

func TestRecovery(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()

	testDB := testutil.NewTestDB(t)
	defer testDB.Cleanup()

	gw := newStubGateway(t)
	app := newTestApp(t, testDB, gw.server.URL)

	submit := func(t *testing.T) string {
		t.Helper()
		var resp dto.ChequeResponse
		if rec := app.postJSON(t, "/api/v1/cheques/", testutil.ValidSubmission(), &resp); rec.Code != http.StatusCreated {
			t.Fatalf("submit failed: %d %s", rec.Code, rec.Body.String())
		}
		return resp.ID
	}

	t.Run("confirmed attempt is recovered without resubmitting", func(t *testing.T) {
		testDB.TruncateAll(ctx)
		id := submit(t)

		// first submit reached the network and was confirmed, but the worker
		// died before committing; the stub remembers the attempt
		attemptID := testutil.GenerateID()
		gw.recordAttempt(attemptID, http.StatusOK, map[string]any{"status": "confirmed", "reference": "G-REC-1"})

		strandInSettling(t, app, id, attemptID)

		recovered, err := app.settlementUC.RecoverInFlight(ctx, 10)
		if err != nil {
			t.Fatalf("recover: %v", err)
		}
		if recovered != 1 {
			t.Fatalf("expected 1 recovered, got %d", recovered)
		}

		var status dto.ChequeStatusResponse
		app.getJSON(t, "/api/v1/cheques/"+id, &status)
		if status.State != string(domain.StateSettled) {
			t.Fatalf("expected settled via reconcile, got %s", status.State)
		}
		last := status.History[len(status.History)-1]
		if last.ReasonCode != domain.ReasonReconciled {
			t.Fatalf("expected reconciled, got %s", last.ReasonCode)
		}
	})

	t.Run("attempt unknown to the network is re-queued", func(t *testing.T) {
		testDB.TruncateAll(ctx)
		id := submit(t)

		// the network never saw this attempt; reconcile answers 404
		strandInSettling(t, app, id, testutil.GenerateID())

		recovered, err := app.settlementUC.RecoverInFlight(ctx, 10)
		if err != nil {
			t.Fatalf("recover: %v", err)
		}
		if recovered != 1 {
			t.Fatalf("expected 1 recovered, got %d", recovered)
		}

		var status dto.ChequeStatusResponse
		app.getJSON(t, "/api/v1/cheques/"+id, &status)
		if status.State != string(domain.StatePendingSettlement) {
			t.Fatalf("expected re-queue for a fresh attempt, got %s", status.State)
		}
	})

	t.Run("unknown outcome past the retry budget is flagged for review", func(t *testing.T) {
		testDB.TruncateAll(ctx)
		id := submit(t)

		strandInSettling(t, app, id, testutil.GenerateID())

		// burn the remaining budget
		policy := testutil.TestPolicy()
		_, err := app.pool.Exec(ctx, `UPDATE cheques SET attempt_count = $2 WHERE id = $1`, id, policy.RetryBound)
		if err != nil {
			t.Fatalf("failed to set attempt count: %v", err)
		}

		recovered, err := app.settlementUC.RecoverInFlight(ctx, 10)
		if err != nil {
			t.Fatalf("recover: %v", err)
		}
		if recovered != 1 {
			t.Fatalf("expected the flagged cheque counted as recovered, got %d", recovered)
		}

		var status dto.ChequeStatusResponse
		app.getJSON(t, "/api/v1/cheques/"+id, &status)
		if status.State != string(domain.StateSettling) {
			t.Fatalf("expected cheque held in settling, got %s", status.State)
		}
		if !status.Cheque.NeedsReview {
			t.Fatal("expected the cheque flagged for review")
		}
	})
}
