package boardsim

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// HTTPClient wraps http.Client with a base URL and JSON helpers.
type HTTPClient struct {
	client  *http.Client
	baseURL string
}

// newHTTPClient creates a new HTTP client with timeout.
func newHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// do sends body as JSON and decodes the response into out when the status
// matches want.
func (c *HTTPClient) do(ctx context.Context, method, path string, body, out any, want int) error {
	var rdr io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		rdr = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s %s: read body: %w", method, path, err)
	}
	if resp.StatusCode != want {
		return fmt.Errorf("%w: %s %s returned %d: %s", ErrUnexpectedStatus, method, path, resp.StatusCode, strings.TrimSpace(string(data)))
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s %s: decode: %w", method, path, err)
	}
	return nil
}

func (c *HTTPClient) health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/healthz", nil, nil, http.StatusOK)
}

func (c *HTTPClient) putProfile(ctx context.Context, p Player) error {
	return c.do(ctx, http.MethodPut, "/profiles/"+p.ID, p, nil, http.StatusOK)
}

func (c *HTTPClient) createEvent(ctx context.Context, ev Event) (Event, error) {
	var out Event
	err := c.do(ctx, http.MethodPost, "/events", ev, &out, http.StatusCreated)
	return out, err
}

func (c *HTTPClient) attend(ctx context.Context, eventID, playerID string) error {
	body := map[string]any{"player_id": playerID, "attending": true}
	return c.do(ctx, http.MethodPost, "/events/"+eventID+"/attendance", body, nil, http.StatusOK)
}

func (c *HTTPClient) openSession(ctx context.Context) (string, error) {
	var out struct {
		SessionID string `json:"session_id"`
	}
	err := c.do(ctx, http.MethodPost, "/sessions", nil, &out, http.StatusCreated)
	return out.SessionID, err
}

func (c *HTTPClient) closeSession(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/sessions/"+id, nil, nil, http.StatusNoContent)
}

func (c *HTTPClient) activate(ctx context.Context, sessionID, eventID string) (Board, error) {
	var out Board
	err := c.do(ctx, http.MethodPost, "/sessions/"+sessionID+"/activate", map[string]string{"event_id": eventID}, &out, http.StatusOK)
	return out, err
}

func (c *HTTPClient) measure(ctx context.Context, sessionID string, width, height float64) error {
	body := map[string]float64{"width": width, "height": height}
	return c.do(ctx, http.MethodPut, "/sessions/"+sessionID+"/surface", body, nil, http.StatusOK)
}

func (c *HTTPClient) seed(ctx context.Context, sessionID string) (Board, error) {
	var out Board
	err := c.do(ctx, http.MethodPost, "/sessions/"+sessionID+"/selection/seed", nil, &out, http.StatusOK)
	return out, err
}

func (c *HTTPClient) board(ctx context.Context, sessionID string) (Board, error) {
	var out Board
	err := c.do(ctx, http.MethodGet, "/sessions/"+sessionID+"/board", nil, &out, http.StatusOK)
	return out, err
}

func (c *HTTPClient) drag(ctx context.Context, sessionID, phase string, in DragInput) (DragResult, error) {
	var out DragResult
	err := c.do(ctx, http.MethodPost, "/sessions/"+sessionID+"/drag/"+phase, in, &out, http.StatusOK)
	return out, err
}

func (c *HTTPClient) save(ctx context.Context, sessionID string) (SaveResponse, error) {
	var out SaveResponse
	err := c.do(ctx, http.MethodPost, "/sessions/"+sessionID+"/save", nil, &out, http.StatusOK)
	return out, err
}
