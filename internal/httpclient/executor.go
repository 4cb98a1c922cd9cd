package httpclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/Checker-Finance/signal-exports/internal/metrics"
	"github.com/Checker-Finance/signal-exports/internal/rate"
)

// Backoff returns the retry sleep duration for the given attempt number.
func Backoff(attempt int) time.Duration {
	switch attempt {
	case 0:
		return 100 * time.Millisecond
	case 1:
		return 250 * time.Millisecond
	default:
		return 500 * time.Millisecond
	}
}

// ErrorHandler turns a 4xx response into a destination-specific error.
type ErrorHandler func(status int, body []byte) error

// Executor performs rate-limited HTTP calls against one destination,
// retrying network errors and 5xx responses.
type Executor struct {
	logger       *zap.Logger
	rateMgr      *rate.Manager
	http         *http.Client
	retryMax     int
	destination  string
	errorHandler ErrorHandler
	sleep        func(time.Duration)
}

// New creates an Executor. rateMgr and errorHandler may be nil.
func New(
	logger *zap.Logger,
	rateMgr *rate.Manager,
	httpClient *http.Client,
	retryMax int,
	destination string,
	errorHandler ErrorHandler,
) *Executor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Executor{
		logger:       logger,
		rateMgr:      rateMgr,
		http:         httpClient,
		retryMax:     retryMax,
		destination:  destination,
		errorHandler: errorHandler,
		sleep:        time.Sleep,
	}
}

// Do executes req and returns the body of the first non-5xx response.
// A request body is replayed on retry through req.GetBody.
func (e *Executor) Do(ctx context.Context, req *http.Request) ([]byte, error) {
	if e.rateMgr != nil {
		if err := e.rateMgr.Wait(ctx, e.destination); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	var lastErr error
	for attempt := 0; attempt <= e.retryMax; attempt++ {
		if attempt > 0 {
			if err := rewind(req); err != nil {
				return nil, err
			}
		}

		start := time.Now()
		resp, err := e.http.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			metrics.IncDestinationRequest(e.destination, req.Method, "error")
			e.logger.Warn(e.destination+".http_failed",
				zap.String("url", redactedURL(req)),
				zap.Error(err),
				zap.Int("attempt", attempt))
			e.sleep(Backoff(attempt))
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		elapsed := time.Since(start)
		metrics.IncDestinationRequest(e.destination, req.Method, strconv.Itoa(resp.StatusCode))
		metrics.DestinationRequestDuration.WithLabelValues(e.destination, req.Method).Observe(elapsed.Seconds())

		if resp.StatusCode >= 500 {
			e.logger.Warn(e.destination+".server_error",
				zap.Int("status", resp.StatusCode),
				zap.String("url", redactedURL(req)),
				zap.Duration("latency", elapsed))
			lastErr = fmt.Errorf("%s server error: %d", e.destination, resp.StatusCode)
			e.sleep(Backoff(attempt))
			continue
		}

		if resp.StatusCode >= 400 {
			if e.errorHandler != nil {
				return nil, e.errorHandler(resp.StatusCode, body)
			}
			return nil, fmt.Errorf("%s returned %d", e.destination, resp.StatusCode)
		}
		if readErr != nil {
			return nil, fmt.Errorf("%s read body: %w", e.destination, readErr)
		}

		e.logger.Debug(e.destination+".http_success",
			zap.String("url", redactedURL(req)),
			zap.Int("status", resp.StatusCode),
			zap.Duration("elapsed", elapsed))
		return body, nil
	}

	return nil, fmt.Errorf("%s request failed after %d attempts: %w", e.destination, e.retryMax+1, lastErr)
}

// DoJSON executes req and JSON-decodes a non-empty response body into out.
func (e *Executor) DoJSON(ctx context.Context, req *http.Request, out any) error {
	body, err := e.Do(ctx, req)
	if err != nil {
		return err
	}
	if out != nil && len(body) > 0 {
		if err := json.Unmarshal(body, out); err != nil {
			e.logger.Warn(e.destination+".decode_failed",
				zap.Error(err),
				zap.String("url", redactedURL(req)),
				zap.String("body", string(body)))
			return fmt.Errorf("decode failed: %w", err)
		}
	}
	return nil
}

// CloseIdleConnections releases pooled connections held by the underlying client.
func (e *Executor) CloseIdleConnections() {
	e.http.CloseIdleConnections()
}

func rewind(req *http.Request) error {
	if req.Body == nil || req.GetBody == nil {
		return nil
	}
	body, err := req.GetBody()
	if err != nil {
		return fmt.Errorf("rewind request body: %w", err)
	}
	req.Body = body
	return nil
}

// redactedURL drops the query string, which may carry API keys.
func redactedURL(req *http.Request) string {
	u := *req.URL
	u.RawQuery = ""
	return u.String()
}
