package carriers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"freight/internal/pkg/errs"
	"freight/internal/pkg/metrics"
	"freight/internal/pkg/resilience"
)

const (
	DefaultTimeout = 12 * time.Second

	maxResponseBytes = 4 << 20
)

// CallRecorder receives one observation per logical carrier call.
type CallRecorder interface {
	RecordCarrierCall(carrier, operation, outcome string, duration time.Duration)
}

// TransportConfig configures the HTTP transport of one carrier.
type TransportConfig struct {
	Carrier     string
	DisplayName string
	BaseURL     string
	Timeout     time.Duration
	Retry       resilience.RetryConfig
}

// Call is one carrier API request. Header values are sent verbatim under the
// given (case-preserved) names.
type Call struct {
	Operation string
	Method    string
	Path      string
	Query     url.Values
	Header    map[string]string
	Body      any
}

// StatusError is a non-2xx carrier response.
type StatusError struct {
	StatusCode int
	Body       []byte
}

func (e *StatusError) Error() string {
	body := strings.TrimSpace(string(e.Body))
	if len(body) > 300 {
		body = body[:300] + "..."
	}
	return fmt.Sprintf("carrier responded %d: %s", e.StatusCode, body)
}

// Retryable reports whether the status is worth another attempt.
func (e *StatusError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// Transport sends JSON requests to one carrier with a per-attempt timeout,
// jittered retries on timeouts, network errors, 429 and 5xx, and a circuit
// breaker around the whole retry loop. Every call is logged with credentials
// masked.
type Transport struct {
	cfg      TransportConfig
	client   *http.Client
	breaker  *resilience.CircuitBreaker
	recorder CallRecorder
	logger   *slog.Logger
}

func NewTransport(
	cfg TransportConfig,
	breakers *resilience.CircuitBreakerRegistry,
	recorder CallRecorder,
	logger *slog.Logger,
) *Transport {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.DisplayName == "" {
		cfg.DisplayName = cfg.Carrier
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Transport{
		cfg:      cfg,
		client:   &http.Client{Timeout: cfg.Timeout},
		breaker:  breakers.Get(cfg.Carrier),
		recorder: recorder,
		logger:   logger.With("component", "carrier_transport", "carrier", cfg.Carrier),
	}
}

// BreakerConfig is the breaker configuration for carrier transports: client
// errors (4xx other than 429) do not count as failures.
func BreakerConfig(name string) resilience.CircuitBreakerConfig {
	cfg := resilience.DefaultCircuitBreakerConfig(name)
	cfg.IsSuccessful = func(err error) bool {
		if err == nil {
			return true
		}
		var se *StatusError
		return errors.As(err, &se) && !se.Retryable()
	}
	return cfg
}

// Do sends call and returns the raw 2xx response body. Failures are
// *errs.AppError values in the UPSTREAM category: CARRIER_UNAVAILABLE for an
// open breaker, timeouts and exhausted 429/5xx retries, CARRIER_ERROR for the
// rest.
func (t *Transport) Do(ctx context.Context, call Call) ([]byte, error) {
	endpoint := t.endpoint(call)
	start := time.Now()
	attempts := 0

	var body []byte
	err := t.breaker.Execute(func() (err error) {
		body, err = resilience.RetryWithResult(ctx, t.cfg.Retry, func() ([]byte, error) {
			attempts++
			b, err := t.once(ctx, call, endpoint)
			if err != nil && !isRetryable(err) {
				return nil, resilience.Permanent(err)
			}
			return b, err
		}, func(err error, wait time.Duration) {
			t.logger.WarnContext(ctx, "carrier call failed, retrying",
				"operation", call.Operation,
				"endpoint", RedactURL(endpoint),
				"attempt", attempts,
				"wait_ms", wait.Milliseconds(),
				"error", RedactURL(err.Error()),
			)
		})
		return err
	})
	latency := time.Since(start)

	if err != nil {
		appErr := t.toAppError(err)
		outcome := metrics.OutcomeError
		if errors.Is(err, resilience.ErrCircuitOpen) {
			outcome = metrics.OutcomeCircuitOpen
		}
		t.record(call.Operation, outcome, latency)
		t.logger.ErrorContext(ctx, "carrier call failed",
			"operation", call.Operation,
			"method", call.Method,
			"endpoint", RedactURL(endpoint),
			"attempts", attempts,
			"latency_ms", latency.Milliseconds(),
			"error_code", appErr.Code,
			"error", RedactURL(err.Error()),
		)
		return nil, appErr
	}

	t.record(call.Operation, metrics.OutcomeSuccess, latency)
	t.logger.InfoContext(ctx, "carrier call",
		"operation", call.Operation,
		"method", call.Method,
		"endpoint", RedactURL(endpoint),
		"attempts", attempts,
		"latency_ms", latency.Milliseconds(),
	)
	return body, nil
}

// DoJSON is Do followed by decoding the body into out. It returns the raw
// body as well so callers can keep the carrier payload.
func (t *Transport) DoJSON(ctx context.Context, call Call, out any) (json.RawMessage, error) {
	body, err := t.Do(ctx, call)
	if err != nil {
		return nil, err
	}
	if out != nil && len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, out); err != nil {
			return nil, errs.NewUpstreamError(errs.CodeCarrierError,
				fmt.Sprintf("%s returned an unreadable response.", t.cfg.DisplayName), err).
				WithDetails(map[string]any{"carrier": t.cfg.Carrier, "operation": call.Operation})
		}
	}
	return json.RawMessage(body), nil
}

func (t *Transport) once(ctx context.Context, call Call, endpoint string) ([]byte, error) {
	var reader io.Reader
	if call.Body != nil {
		payload, err := json.Marshal(call.Body)
		if err != nil {
			return nil, fmt.Errorf("encode %s request: %w", call.Operation, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, call.Method, endpoint, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range call.Header {
		req.Header[k] = []string{v}
	}
	t.logger.DebugContext(ctx, "carrier request", "operation", call.Operation, "headers", RedactHeaders(req.Header))

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: body}
	}
	return body, nil
}

func (t *Transport) endpoint(call Call) string {
	u := t.cfg.BaseURL + "/" + strings.TrimLeft(call.Path, "/")
	if len(call.Query) > 0 {
		u += "?" + call.Query.Encode()
	}
	return u
}

func (t *Transport) record(operation, outcome string, latency time.Duration) {
	if t.recorder != nil {
		t.recorder.RecordCarrierCall(t.cfg.Carrier, operation, outcome, latency)
	}
}

func (t *Transport) toAppError(err error) *errs.AppError {
	details := map[string]any{"carrier": t.cfg.Carrier}
	cause := errors.New(RedactURL(err.Error()))

	var se *StatusError
	switch {
	case errors.Is(err, resilience.ErrCircuitOpen):
		return errs.NewUpstreamError(errs.CodeCarrierUnavailable,
			fmt.Sprintf("%s is temporarily unavailable. Try again shortly.", t.cfg.DisplayName), cause).
			WithDetails(details)
	case errors.As(err, &se):
		details["status"] = se.StatusCode
		if se.Retryable() {
			return errs.NewUpstreamError(errs.CodeCarrierUnavailable,
				fmt.Sprintf("%s is not responding. Try again shortly.", t.cfg.DisplayName), cause).
				WithDetails(details)
		}
		return errs.NewUpstreamError(errs.CodeCarrierError,
			fmt.Sprintf("%s rejected the request.", t.cfg.DisplayName), cause).
			WithDetails(details)
	case isTimeout(err):
		return errs.NewUpstreamError(errs.CodeCarrierUnavailable,
			fmt.Sprintf("%s timed out.", t.cfg.DisplayName), cause).
			WithDetails(details)
	default:
		return errs.NewUpstreamError(errs.CodeCarrierError,
			fmt.Sprintf("%s request failed.", t.cfg.DisplayName), cause).
			WithDetails(details)
	}
}

func isRetryable(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Retryable()
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if isTimeout(err) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
