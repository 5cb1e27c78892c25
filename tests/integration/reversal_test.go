package integration

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/iho/chequer/internal/adapter/http/dto"
	"github.com/iho/chequer/internal/domain"
	"github.com/iho/chequer/tests/testutil"
)

func TestReversal(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()

	testDB := testutil.NewTestDB(t)
	defer testDB.Cleanup()

	gw := newStubGateway(t)
	app := newTestApp(t, testDB, gw.server.URL)

	settleOne := func(t *testing.T) string {
		t.Helper()

		var resp dto.ChequeResponse
		if rec := app.postJSON(t, "/api/v1/cheques/", testutil.ValidSubmission(), &resp); rec.Code != http.StatusCreated {
			t.Fatalf("submit failed: %d %s", rec.Code, rec.Body.String())
		}
		gw.enqueue(http.StatusOK, map[string]any{"status": "confirmed", "reference": "G-RV"})
		if err := app.settlementUC.SettleCheque(ctx, resp.ID); err != nil {
			t.Fatalf("settle: %v", err)
		}
		return resp.ID
	}

	t.Run("reversal appends and credits the payer", func(t *testing.T) {
		testDB.TruncateAll(ctx)

		payer := testDB.CreateTestAccount(ctx, "111122223333", "HDFC0001234", "Asha Rao", decimalFromMinor(1_000_00))
		id := settleOne(t)

		var reversed dto.ChequeResponse
		rec := app.postJSON(t, "/api/v1/cheques/"+id+"/reverse", nil, &reversed)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if reversed.State != string(domain.StateReversed) {
			t.Fatalf("expected reversed, got %s", reversed.State)
		}

		var status dto.ChequeStatusResponse
		app.getJSON(t, "/api/v1/cheques/"+id, &status)
		last := status.History[len(status.History)-1]
		if last.Actor != string(domain.ActorOperator) {
			t.Fatalf("expected operator actor, got %s", last.Actor)
		}
		// the settled record stays in place
		if status.History[len(status.History)-2].ToState != string(domain.StateSettled) {
			t.Fatal("settled record must remain in the history")
		}

		// the debit was returned: back to the opening balance
		account, err := app.accountUC.GetAccount(ctx, payer.ID)
		if err != nil {
			t.Fatalf("get account: %v", err)
		}
		if want := decimal.New(1_000_00, -2); !account.Balance.Equal(want) {
			t.Fatalf("expected balance %s, got %s", want, account.Balance)
		}
	})

	t.Run("second reversal is refused", func(t *testing.T) {
		testDB.TruncateAll(ctx)
		id := settleOne(t)

		if rec := app.postJSON(t, "/api/v1/cheques/"+id+"/reverse", nil, nil); rec.Code != http.StatusOK {
			t.Fatalf("first reversal: %d", rec.Code)
		}
		rec := app.postJSON(t, "/api/v1/cheques/"+id+"/reverse", nil, nil)
		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}
	})

	t.Run("unsettled cheque cannot be reversed", func(t *testing.T) {
		testDB.TruncateAll(ctx)

		var resp dto.ChequeResponse
		if rec := app.postJSON(t, "/api/v1/cheques/", testutil.ValidSubmission(), &resp); rec.Code != http.StatusCreated {
			t.Fatalf("submit failed: %d", rec.Code)
		}

		rec := app.postJSON(t, "/api/v1/cheques/"+resp.ID+"/reverse", nil, nil)
		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}
	})

	t.Run("reversal outside the window is refused", func(t *testing.T) {
		testDB.TruncateAll(ctx)
		id := settleOne(t)

		// age the settled record past the window
		_, err := app.pool.Exec(ctx, `
			UPDATE clearing_records SET created_at = NOW() - INTERVAL '100 hours'
			WHERE cheque_id = $1 AND to_state = 'settled'`, id)
		if err != nil {
			t.Fatalf("failed to age settled record: %v", err)
		}

		_, err = app.reversalUC.ReverseCheque(ctx, id)
		if !errors.Is(err, domain.ErrReversalWindowClosed) {
			t.Fatalf("expected ErrReversalWindowClosed, got %v", err)
		}
	})
}
