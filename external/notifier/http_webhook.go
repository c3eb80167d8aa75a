package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/felixgeelhaar/fortify/retry"
	"github.com/foxseedlab/bateponto/internal/notifier"
)

const webhookTimeout = 10 * time.Second

type RetryPolicy struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
}

var DefaultRetryPolicy = RetryPolicy{
	MaxAttempts:  3,
	InitialDelay: 500 * time.Millisecond,
	MaxDelay:     5 * time.Second,
}

type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("webhook returned status %d", e.code)
}

// HTTPSender posts each event as JSON to a webhook URL.
type HTTPSender struct {
	webhookURL string
	client     *http.Client
	retrier    retry.Retry[struct{}]
}

func NewHTTPSender(webhookURL string, policy RetryPolicy) *HTTPSender {
	return &HTTPSender{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: webhookTimeout},
		retrier: retry.New[struct{}](retry.Config{
			MaxAttempts:   policy.MaxAttempts,
			InitialDelay:  policy.InitialDelay,
			MaxDelay:      policy.MaxDelay,
			Multiplier:    2.0,
			BackoffPolicy: retry.BackoffExponential,
			Jitter:        true,
			IsRetryable:   isRetryableWebhookError,
		}),
	}
}

func (s *HTTPSender) NotifyShiftCompleted(ctx context.Context, event notifier.ShiftCompletedEvent) error {
	if s.webhookURL == "" {
		return nil
	}

	b, err := json.Marshal(event)
	if err != nil {
		return err
	}
	_, err = s.retrier.Do(ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.post(ctx, b)
	})
	return err
}

func (s *HTTPSender) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if !isHTTPSuccessStatus(resp.StatusCode) {
		return &statusError{code: resp.StatusCode}
	}
	return nil
}

func isHTTPSuccessStatus(statusCode int) bool {
	return statusCode >= 200 && statusCode < 300
}

// isRetryableWebhookError retries transport failures, 429 and 5xx. Other
// 4xx answers and cancellation are final.
func isRetryableWebhookError(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var se *statusError
	if errors.As(err, &se) {
		return se.code == http.StatusTooManyRequests || se.code >= 500
	}
	return true
}
