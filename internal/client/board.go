// Package client talks to the board API and keeps a boardview.Cache in step with it.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/propagation"
	"go.uber.org/zap"

	"projecthub/internal/board"
	"projecthub/internal/boardview"
	"projecthub/internal/model"
	"projecthub/pkg/otel"
	"projecthub/pkg/trace"
)

// APIError is a non-2xx response from the API.
type APIError struct {
	Status  int
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d (%s): %s", e.Status, e.Code, e.Message)
}

// NotFound reports whether the server no longer knows the resource.
func (e *APIError) NotFound() bool {
	return e.Status == http.StatusNotFound
}

type Board struct {
	baseURL    string
	token      string
	httpClient *http.Client
	cache      *boardview.Cache
	logger     *zap.Logger
}

func NewBoard(baseURL, token string, projectID int, logger *zap.Logger) *Board {
	return &Board{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
		cache:  boardview.New(projectID),
		logger: logger,
	}
}

// WithHTTPClient swaps the transport, mostly for tests.
func (b *Board) WithHTTPClient(hc *http.Client) *Board {
	b.httpClient = hc
	return b
}

func (b *Board) Cache() *boardview.Cache {
	return b.cache
}

func (b *Board) Columns() []model.Column {
	return b.cache.Columns()
}

// Refresh reloads the whole board from the server.
func (b *Board) Refresh(ctx context.Context) error {
	var out struct {
		Columns []model.Column `json:"columns"`
	}
	path := fmt.Sprintf("/projects/%d/board", b.cache.ProjectID())
	if err := b.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return err
	}
	b.cache.Load(out.Columns)
	return nil
}

// Move applies the move locally, sends it, and reconciles with the server's answer.
// On any failure the board is reloaded so the cache never keeps an unconfirmed layout.
func (b *Board) Move(ctx context.Context, taskID int, toStatus model.TaskStatus, toIndex int) (*board.MoveResult, error) {
	if !b.cache.Loaded() {
		if err := b.Refresh(ctx); err != nil {
			return nil, err
		}
	}

	intent, err := b.cache.MoveLocal(taskID, toStatus, toIndex)
	if err != nil {
		return nil, err
	}

	var res board.MoveResult
	if err := b.do(ctx, http.MethodPost, fmt.Sprintf("/tasks/%d/move", taskID), intent, &res); err != nil {
		b.logger.Warn("Move rejected, reloading board",
			zap.Int("task_id", taskID),
			zap.Error(err),
		)
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.NotFound() {
			b.cache.Forget(taskID)
		}
		if rerr := b.Refresh(ctx); rerr != nil {
			b.logger.Error("Failed to reload board after rejected move", zap.Error(rerr))
		}
		return nil, err
	}

	b.cache.Reconcile(&res)
	b.logger.Debug("Move confirmed",
		zap.Int("task_id", taskID),
		zap.String("status", string(res.Task.Status)),
		zap.Int("position", res.Task.Position),
	)
	return &res, nil
}

func (b *Board) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, b.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if b.token != "" {
		req.Header.Set("Authorization", "Bearer "+b.token)
	}
	if traceID := trace.FromContext(ctx); traceID != "" {
		req.Header.Set(trace.HeaderName(), traceID)
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		var envelope struct {
			Error *APIError `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&envelope); err == nil && envelope.Error != nil {
			apiErr.Code = envelope.Error.Code
			apiErr.Message = envelope.Error.Message
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
