package collective2

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Checker-Finance/signal-exports/internal/httpclient"
	"github.com/Checker-Finance/signal-exports/internal/rate"
)

// DefaultBaseURL is the Collective2 API host.
const DefaultBaseURL = "https://api.collective2.com"

const desiredPositionsPath = "/world/apiv3/setDesiredPositions"

// apiResponse is the envelope returned by the apiv3 endpoints.
// "ok" is "1" or 1 on success.
type apiResponse struct {
	OK      json.RawMessage `json:"ok"`
	Message string          `json:"message,omitempty"`
	Error   struct {
		Message string `json:"message,omitempty"`
	} `json:"error,omitempty"`
}

func (r apiResponse) succeeded() bool {
	v := strings.Trim(string(r.OK), `"`)
	return v == "1" || v == "true"
}

func (r apiResponse) reason() string {
	if r.Error.Message != "" {
		return r.Error.Message
	}
	if r.Message != "" {
		return r.Message
	}
	return "ok=" + string(r.OK)
}

// Transport posts desired-positions messages.
type Transport struct {
	logger  *zap.Logger
	exec    *httpclient.Executor
	baseURL string
}

// NewTransport builds a transport with its own HTTP client.
func NewTransport(logger *zap.Logger, baseURL string, rateMgr *rate.Manager) *Transport {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	httpClient := &http.Client{Timeout: 30 * time.Second}
	exec := httpclient.New(logger, rateMgr, httpClient, 2, Name, func(status int, body []byte) error {
		var resp apiResponse
		_ = json.Unmarshal(body, &resp)
		logger.Warn("collective2.client_error",
			zap.Int("status", status),
			zap.String("message", resp.reason()))
		return fmt.Errorf("collective2 returned %d: %s", status, resp.reason())
	})
	return &Transport{
		logger:  logger,
		exec:    exec,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// Deliver POSTs msg as JSON and checks the "ok" flag of the reply.
func (t *Transport) Deliver(ctx context.Context, msg []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+desiredPositionsPath, bytes.NewReader(msg))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	var resp apiResponse
	if err := t.exec.DoJSON(ctx, req, &resp); err != nil {
		return err
	}
	if !resp.succeeded() {
		return fmt.Errorf("collective2 refused positions: %s", resp.reason())
	}
	return nil
}

func (t *Transport) Close() error {
	t.exec.CloseIdleConnections()
	return nil
}
