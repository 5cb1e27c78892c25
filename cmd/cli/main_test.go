package main

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"
)

func captureOutput(t *testing.T, fn func()) string {
	t.Helper()

	origStdout := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("failed to create pipe: %v", err)
	}
	os.Stdout = w

	fn()

	_ = w.Close()
	os.Stdout = origStdout

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		t.Fatalf("failed to read stdout: %v", err)
	}
	return buf.String()
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Fatalf("expected short unchanged, got %q", got)
	}

	if got := truncate("longerstring", 6); got != "lon..." {
		t.Fatalf("expected lon..., got %q", got)
	}
}

func TestPrintJSON(t *testing.T) {
	out := captureOutput(t, func() {
		printJSON(struct {
			A int `json:"a"`
		}{A: 1})
	})

	expected := "{\n  \"a\": 1\n}\n"
	if out != expected {
		t.Fatalf("unexpected json output:\n%s", out)
	}
}

func TestChequeStatusCmd(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/cheques/chq-1" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"state":"settled"}`))
	}))
	defer srv.Close()

	origURL, origTimeout := baseURL, timeout
	baseURL, timeout = srv.URL, 5*time.Second
	defer func() { baseURL, timeout = origURL, origTimeout }()

	cmd := chequeStatusCmd()
	cmd.SetArgs([]string{"chq-1"})

	out := captureOutput(t, func() {
		if err := cmd.Execute(); err != nil {
			t.Fatalf("command failed: %v", err)
		}
	})

	if !strings.Contains(out, `"state": "settled"`) {
		t.Fatalf("expected settled state in output, got %q", out)
	}
}

func TestSubmitChequeCmd_SendsPayload(t *testing.T) {
	var captured map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("expected POST, got %s", r.Method)
		}
		body, _ := io.ReadAll(r.Body)
		captured = map[string]any{"raw": string(body)}
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":"chq-1"}`))
	}))
	defer srv.Close()

	origURL, origTimeout := baseURL, timeout
	baseURL, timeout = srv.URL, 5*time.Second
	defer func() { baseURL, timeout = origURL, origTimeout }()

	cmd := submitChequeCmd()
	cmd.SetArgs([]string{
		"--routing-code", "HDFC0001234",
		"--account-number", "123456789",
		"--serial-number", "000042",
		"--payer", "p1",
		"--payee", "p2",
		"--amount", "12500",
		"--issue-date", "2025-06-01",
	})

	captureOutput(t, func() {
		if err := cmd.Execute(); err != nil {
			t.Fatalf("command failed: %v", err)
		}
	})

	raw := captured["raw"].(string)
	if !strings.Contains(raw, `"serial_number":"000042"`) || !strings.Contains(raw, `"amount_minor":12500`) {
		t.Fatalf("unexpected request body: %s", raw)
	}
}
