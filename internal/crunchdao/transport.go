package crunchdao

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Checker-Finance/signal-exports/internal/httpclient"
	"github.com/Checker-Finance/signal-exports/internal/rate"
)

// DefaultBaseURL is the CrunchDAO tournament API host.
const DefaultBaseURL = "https://api.tournament.crunchdao.com"

const (
	submissionsPath = "/v3/alpha-submissions"
	fileName        = "submission.csv"
)

// SubmissionInfo labels an upload on the CrunchDAO side.
type SubmissionInfo struct {
	Model   string
	Label   string
	Comment string
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e errorResponse) String() string {
	switch {
	case e.Code != "" && e.Message != "":
		return e.Code + ": " + e.Message
	case e.Message != "":
		return e.Message
	default:
		return e.Code
	}
}

// Transport uploads submission files as multipart forms.
type Transport struct {
	logger  *zap.Logger
	exec    *httpclient.Executor
	baseURL string
	apiKey  string
	info    SubmissionInfo
}

// NewTransport builds a transport with its own HTTP client.
func NewTransport(logger *zap.Logger, baseURL, apiKey string, info SubmissionInfo, rateMgr *rate.Manager) *Transport {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	httpClient := &http.Client{Timeout: 60 * time.Second}
	exec := httpclient.New(logger, rateMgr, httpClient, 2, Name, func(status int, body []byte) error {
		var resp errorResponse
		_ = json.Unmarshal(body, &resp)
		logger.Warn("crunchdao.client_error",
			zap.Int("status", status),
			zap.String("code", resp.Code))
		return fmt.Errorf("crunchdao returned %d: %s", status, resp)
	})
	return &Transport{
		logger:  logger,
		exec:    exec,
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		info:    info,
	}
}

// Deliver uploads msg as submission.csv together with the model, label and comment fields.
func (t *Transport) Deliver(ctx context.Context, msg []byte) error {
	body, contentType, err := t.form(msg)
	if err != nil {
		return err
	}

	endpoint := t.baseURL + submissionsPath + "?" + url.Values{"apiKey": {t.apiKey}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	if _, err := t.exec.Do(ctx, req); err != nil {
		return err
	}
	t.logger.Info("crunchdao.submission.uploaded",
		zap.String("model", t.info.Model),
		zap.String("label", t.info.Label),
		zap.Int("bytes", len(msg)))
	return nil
}

func (t *Transport) form(msg []byte) ([]byte, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	fields := []struct{ key, value string }{
		{"model", t.info.Model},
		{"label", t.info.Label},
		{"comment", t.info.Comment},
	}
	for _, f := range fields {
		if err := mw.WriteField(f.key, f.value); err != nil {
			return nil, "", err
		}
	}

	part, err := mw.CreateFormFile("file", fileName)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(msg); err != nil {
		return nil, "", err
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), mw.FormDataContentType(), nil
}

func (t *Transport) Close() error {
	t.exec.CloseIdleConnections()
	return nil
}
