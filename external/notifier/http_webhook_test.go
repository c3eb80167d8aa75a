package notifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/foxseedlab/bateponto/internal/notifier"
)

var testPolicy = RetryPolicy{
	MaxAttempts:  3,
	InitialDelay: time.Millisecond,
	MaxDelay:     5 * time.Millisecond,
}

func testEvent() notifier.ShiftCompletedEvent {
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	return notifier.ShiftCompletedEvent{
		UserID:        "111",
		SessionID:     "s-1",
		StartedAt:     start,
		EndedAt:       start.Add(2 * time.Hour),
		DurationHours: 1.5,
		PauseCount:    1,
		TotalHours:    4.5,
	}
}

func TestNotifyShiftCompleted_EmptyWebhookURL(t *testing.T) {
	sender := NewHTTPSender("", testPolicy)
	if err := sender.NotifyShiftCompleted(context.Background(), testEvent()); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
}

func TestNotifyShiftCompleted_Success(t *testing.T) {
	var got notifier.ShiftCompletedEvent
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method: %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("unexpected content type: %s", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("failed to decode body: %v", err)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	sender := NewHTTPSender(server.URL, testPolicy)
	if err := sender.NotifyShiftCompleted(context.Background(), testEvent()); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	want := testEvent()
	if got.SessionID != want.SessionID || got.DurationHours != want.DurationHours || !got.EndedAt.Equal(want.EndedAt) {
		t.Fatalf("unexpected payload: %+v", got)
	}
}

func TestNotifyShiftCompleted_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	sender := NewHTTPSender(server.URL, testPolicy)
	if err := sender.NotifyShiftCompleted(context.Background(), testEvent()); err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if calls.Load() != 3 {
		t.Fatalf("expected 3 calls, got %d", calls.Load())
	}
}

func TestNotifyShiftCompleted_ClientErrorIsFinal(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	sender := NewHTTPSender(server.URL, testPolicy)
	if err := sender.NotifyShiftCompleted(context.Background(), testEvent()); err == nil {
		t.Fatal("expected error for non-2xx response")
	}
	if calls.Load() != 1 {
		t.Fatalf("expected a single call, got %d", calls.Load())
	}
}

func TestIsRetryableWebhookError(t *testing.T) {
	cases := map[string]struct {
		err  error
		want bool
	}{
		"nil":          {nil, false},
		"canceled":     {context.Canceled, false},
		"rate limited": {&statusError{code: http.StatusTooManyRequests}, true},
		"bad gateway":  {&statusError{code: http.StatusBadGateway}, true},
		"not found":    {&statusError{code: http.StatusNotFound}, false},
		"transport":    {&json.SyntaxError{}, true},
	}
	for name, tc := range cases {
		if got := isRetryableWebhookError(tc.err); got != tc.want {
			t.Errorf("%s: got %v, want %v", name, got, tc.want)
		}
	}
}
