package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/nhle/notify-center/internal/model"
)

// Gateway is a stateless REST client for the notification endpoints.
// Every operation is a single request/response call; errors propagate to
// the caller, which decides whether to retry.
type Gateway struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *zap.Logger
}

// ListResult holds a page of notifications with its pagination metadata.
type ListResult struct {
	Items []model.Notification `json:"items"`
	Meta  model.ListMeta       `json:"meta"`
}

// New creates a gateway against baseURL, authenticating every request
// with the given bearer token.
func New(baseURL, token string, logger *zap.Logger) *Gateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gateway{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}
}

// List retrieves a page of notifications matching the filter state.
func (g *Gateway) List(ctx context.Context, filters model.FilterState) (*ListResult, error) {
	if err := filters.Validate(); err != nil {
		return nil, &ValidationError{Message: err.Error()}
	}

	q := url.Values{}
	q.Set("page", strconv.Itoa(filters.Page))
	q.Set("limit", strconv.Itoa(filters.Limit))
	if filters.Type != nil {
		q.Set("type", string(*filters.Type))
	}
	if filters.IsRead != nil {
		q.Set("isRead", strconv.FormatBool(*filters.IsRead))
	}

	var result ListResult
	if err := g.do(ctx, http.MethodGet, "/api/notifications?"+q.Encode(), nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// UnreadCount retrieves the server-authoritative count of unread
// notifications for the bound identity.
func (g *Gateway) UnreadCount(ctx context.Context) (int, error) {
	var resp struct {
		Count int `json:"count"`
	}
	if err := g.do(ctx, http.MethodGet, "/api/notifications/unread-count", nil, &resp); err != nil {
		return 0, err
	}
	return resp.Count, nil
}

// MarkRead marks the given notifications as read. Already-read ids are a
// server-side no-op, not an error. The call is all-or-nothing; there is
// no partial success.
func (g *Gateway) MarkRead(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return &ValidationError{Message: "mark-read requires at least one notification id"}
	}
	body := struct {
		IDs []int64 `json:"ids"`
	}{IDs: ids}

	var resp successResponse
	if err := g.do(ctx, http.MethodPost, "/api/notifications/mark-read", body, &resp); err != nil {
		return err
	}
	return resp.check("mark-read")
}

// MarkAllRead marks the entire unread set as read server-side, not just
// the currently loaded page.
func (g *Gateway) MarkAllRead(ctx context.Context) error {
	var resp successResponse
	if err := g.do(ctx, http.MethodPost, "/api/notifications/mark-all-read", nil, &resp); err != nil {
		return err
	}
	return resp.check("mark-all-read")
}

// Delete removes a single notification.
func (g *Gateway) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return &ValidationError{Message: fmt.Sprintf("invalid notification id %d", id)}
	}
	var resp successResponse
	path := fmt.Sprintf("/api/notifications/%d", id)
	if err := g.do(ctx, http.MethodDelete, path, nil, &resp); err != nil {
		return err
	}
	return resp.check("delete")
}

// successResponse is the `{success: bool}` body returned by mutation
// endpoints.
type successResponse struct {
	Success bool `json:"success"`
}

func (r successResponse) check(op string) error {
	if !r.Success {
		return &TransportError{
			Op:      op,
			Message: "the server rejected the request",
		}
	}
	return nil
}

// do builds the request, handles auth and JSON (de)serialization, and
// maps failures to TransportError.
func (g *Gateway) do(ctx context.Context, method, path string, body any, result any) error {
	endpoint := g.baseURL + path

	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return &TransportError{
				Op:      method + " " + path,
				Message: "could not encode the request",
				Err:     err,
			}
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, bodyReader)
	if err != nil {
		return &TransportError{
			Op:      method + " " + path,
			Message: "could not build the request",
			Err:     err,
		}
	}

	req.Header.Set("Authorization", "Bearer "+g.token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		g.logger.Warn("notification request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err))
		return &TransportError{
			Op:      method + " " + path,
			Message: "could not reach the notification server",
			Err:     err,
		}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{
			Op:      method + " " + path,
			Message: "could not read the server response",
			Err:     err,
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		g.logger.Warn("notification request rejected",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode))
		return &TransportError{
			Op:      method + " " + path,
			Message: serverMessage(resp.StatusCode, respBody),
		}
	}

	if result == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}

	if err := json.Unmarshal(respBody, result); err != nil {
		return &TransportError{
			Op:      method + " " + path,
			Message: "the server returned an unreadable response",
			Err:     err,
		}
	}

	return nil
}

// serverMessage extracts a human-readable message from an error response
// body, falling back to the status code.
func serverMessage(status int, body []byte) string {
	var errBody struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &errBody) == nil {
		if errBody.Message != "" {
			return errBody.Message
		}
		if errBody.Error != "" {
			return errBody.Error
		}
	}
	return fmt.Sprintf("the server returned status %d", status)
}
