package numerai

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

// DefaultBaseURL is the Numerai tournament GraphQL endpoint.
const DefaultBaseURL = "https://api-tournament.numer.ai"

const fileName = "predictions.csv"

// Credentials authenticate against the Numerai API.
type Credentials struct {
	PublicID  string
	SecretKey string
}

func (c Credentials) header() string {
	return "Token " + c.PublicID + "$" + c.SecretKey
}

// Transport uploads predictions in three steps: request a presigned URL, PUT the
// file, then register the submission for the model.
type Transport struct {
	logger  *zap.Logger
	exec    *httpclient.Executor
	baseURL string
	creds   Credentials
	modelID string
}

// NewTransport builds a transport with its own HTTP client.
func NewTransport(logger *zap.Logger, baseURL string, creds Credentials, modelID string, rateMgr *rate.Manager) *Transport {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	httpClient := &http.Client{Timeout: 60 * time.Second}
	exec := httpclient.New(logger, rateMgr, httpClient, 2, Name, func(status int, body []byte) error {
		var resp graphQLResponse[json.RawMessage]
		_ = json.Unmarshal(body, &resp)
		logger.Warn("numerai.client_error", zap.Int("status", status), zap.String("errors", resp.err()))
		return fmt.Errorf("numerai returned %d: %s", status, resp.err())
	})
	return &Transport{
		logger:  logger,
		exec:    exec,
		baseURL: strings.TrimRight(baseURL, "/"),
		creds:   creds,
		modelID: modelID,
	}
}

func (t *Transport) Deliver(ctx context.Context, msg []byte) error {
	vars := map[string]any{"filename": fileName, "modelId": t.modelID}

	var auth graphQLResponse[uploadAuth]
	if err := t.query(ctx, uploadAuthQuery, vars, &auth); err != nil {
		return fmt.Errorf("upload auth: %w", err)
	}
	if len(auth.Errors) > 0 || auth.Data.Auth == nil || auth.Data.Auth.URL == "" {
		return fmt.Errorf("upload auth refused: %s", auth.err())
	}

	if err := t.upload(ctx, auth.Data.Auth.URL, msg); err != nil {
		return err
	}

	vars["filename"] = auth.Data.Auth.Filename
	var created graphQLResponse[createSubmission]
	if err := t.query(ctx, createSubmissionMutation, vars, &created); err != nil {
		return fmt.Errorf("create submission: %w", err)
	}
	if len(created.Errors) > 0 || created.Data.Submission == nil {
		return fmt.Errorf("create submission refused: %s", created.err())
	}

	t.logger.Info("numerai.submission.created",
		zap.String("model_id", t.modelID),
		zap.String("submission_id", created.Data.Submission.ID))
	return nil
}

func (t *Transport) query(ctx context.Context, query string, vars map[string]any, out any) error {
	body, err := json.Marshal(graphQLRequest{Query: query, Variables: vars})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", t.creds.header())
	return t.exec.DoJSON(ctx, req, out)
}

// upload PUTs the file to the presigned URL. The URL carries its own signature.
func (t *Transport) upload(ctx context.Context, url string, msg []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(msg))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "text/csv")
	if _, err := t.exec.Do(ctx, req); err != nil {
		return fmt.Errorf("upload predictions: %w", err)
	}
	return nil
}

func (t *Transport) Close() error {
	t.exec.CloseIdleConnections()
	return nil
}
