package gateway

import (
	"bytes"
	"casal/src-server/model"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// HTTP talks to the remote dashboard backend. Status codes map onto the
// failure taxonomy: 404 is ErrNotFound, 400/422 is ValidationError,
// anything else non-2xx (and transport errors) is NetworkError.
type HTTP struct {
	baseURL string
	client  *http.Client
}

var _ Gateway = (*HTTP)(nil)

func NewHTTP(baseURL string, client *http.Client) *HTTP {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTP{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  client,
	}
}

func (g *HTTP) do(ctx context.Context, op, method, path string, body any, out any) error {
	var reqBody io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("(*HTTP).do: can't marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("(*HTTP).do: can't create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return &NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode == http.StatusBadRequest,
		resp.StatusCode == http.StatusUnprocessableEntity:
		raw, _ := io.ReadAll(resp.Body)
		return &ValidationError{Reason: strings.TrimSpace(string(raw))}
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return &NetworkError{Op: op, Err: fmt.Errorf("bad status code: %d", resp.StatusCode)}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &NetworkError{Op: op, Err: fmt.Errorf("can't decode response body: %w", err)}
	}
	return nil
}

func (g *HTTP) FetchByYear(ctx context.Context, year int, variant Variant) ([]model.Event, error) {
	events := make([]model.Event, 0)
	path := fmt.Sprintf("/events?year=%d&variant=%s", year, variant)
	if err := g.do(ctx, "fetch by year", http.MethodGet, path, nil, &events); err != nil {
		return nil, err
	}
	return events, nil
}

func (g *HTTP) FetchByID(ctx context.Context, id int64) (model.Event, error) {
	var ev model.Event
	path := fmt.Sprintf("/events/%d", id)
	if err := g.do(ctx, "fetch by id", http.MethodGet, path, nil, &ev); err != nil {
		return model.Event{}, err
	}
	return ev, nil
}

func (g *HTTP) Create(ctx context.Context, ev model.Event) (model.Event, error) {
	var saved model.Event
	if err := g.do(ctx, "create", http.MethodPost, "/events", ev, &saved); err != nil {
		return model.Event{}, err
	}
	return saved, nil
}

func (g *HTTP) Update(ctx context.Context, id int64, ev model.Event) (model.Event, error) {
	var saved model.Event
	path := fmt.Sprintf("/events/%d", id)
	if err := g.do(ctx, "update", http.MethodPut, path, ev, &saved); err != nil {
		return model.Event{}, err
	}
	return saved, nil
}

func (g *HTTP) Delete(ctx context.Context, id int64) error {
	path := fmt.Sprintf("/events/%d", id)
	return g.do(ctx, "delete", http.MethodDelete, path, nil, nil)
}

func (g *HTTP) DeleteGroupExcept(ctx context.Context, groupID string, keepID int64) error {
	if groupID == "" {
		return fmt.Errorf("(*HTTP).DeleteGroupExcept: group id is blank")
	}
	path := fmt.Sprintf("/events/group/%s?keep=%d", groupID, keepID)
	return g.do(ctx, "delete group", http.MethodDelete, path, nil, nil)
}
