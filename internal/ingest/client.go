package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/okian/vigia/internal/domain/model"
	"github.com/okian/vigia/internal/domain/types"
)

// Outcome of a single action submission.
type Outcome int

const (
	OutcomeFailed Outcome = iota
	OutcomeRecorded
	OutcomeDuplicate
)

// ErrUnexpectedStatus is returned when the service answers with a status the
// client does not expect for the call.
var ErrUnexpectedStatus = errors.New("unexpected status")

// Client talks to the service HTTP API.
type Client struct {
	base string
	hc   *http.Client
}

// NewClient creates a client for baseURL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		base: strings.TrimRight(baseURL, "/"),
		hc:   &http.Client{Timeout: timeout},
	}
}

// ServiceStats is the subset of GET /stats the runner reads.
type ServiceStats struct {
	Started     bool   `json:"started"`
	QueueLength int    `json:"queueLength"`
	Politicians int    `json:"politicians"`
	Actions     int    `json:"actions"`
	Processed   uint64 `json:"processed"`
	Failed      uint64 `json:"failed"`
}

type ack struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

// Health checks GET /healthz.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/healthz", nil, nil, http.StatusOK)
}

// PutPriorities replaces the active priority set.
func (c *Client) PutPriorities(ctx context.Context, prios []model.Priority) error {
	body := struct {
		Priorities []model.Priority `json:"priorities"`
	}{prios}
	return c.do(ctx, http.MethodPut, "/priorities", body, nil, http.StatusOK)
}

// PutPolitician creates or updates a profile.
func (c *Client) PutPolitician(ctx context.Context, p model.Politician) error {
	body := struct {
		Name     string `json:"name"`
		Party    string `json:"party"`
		Position string `json:"position"`
	}{p.Name, p.Party, p.Position}
	return c.do(ctx, http.MethodPut, "/politicians/"+url.PathEscape(p.ID), body, nil, http.StatusOK)
}

// SubmitAction posts one action, synchronously or through the queue.
func (c *Client) SubmitAction(ctx context.Context, a model.Action, async bool) (Outcome, error) { //nolint:gocritic // hugeParam
	path := "/actions"
	if async {
		path = "/actions/async"
	}
	var res ack
	err := c.do(ctx, http.MethodPost, path, wireAction(a), &res,
		http.StatusCreated, http.StatusOK, http.StatusAccepted)
	if err != nil {
		return OutcomeFailed, err
	}
	if res.Duplicate {
		return OutcomeDuplicate, nil
	}
	return OutcomeRecorded, nil
}

// Ranking fetches GET /ranking for ids, or for everyone when ids is empty.
func (c *Client) Ranking(ctx context.Context, ids ...string) ([]types.Entry, error) {
	path := "/ranking"
	if len(ids) > 0 {
		path += "?ids=" + url.QueryEscape(strings.Join(ids, ","))
	}
	var out []types.Entry
	if err := c.do(ctx, http.MethodGet, path, nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return out, nil
}

// Stats fetches GET /stats.
func (c *Client) Stats(ctx context.Context) (ServiceStats, error) {
	var out ServiceStats
	err := c.do(ctx, http.MethodGet, "/stats", nil, &out, http.StatusOK)
	return out, err
}

func (c *Client) do(ctx context.Context, method, path string, in, out any, want ...int) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if !statusIn(resp.StatusCode, want) {
		return fmt.Errorf("%s %s: %w %d: %s", method, path, ErrUnexpectedStatus, resp.StatusCode, bytes.TrimSpace(data))
	}
	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

func statusIn(code int, want []int) bool {
	for _, w := range want {
		if code == w {
			return true
		}
	}
	return false
}

// wireAction renders dates as RFC 3339, which the API requires.
func wireAction(a model.Action) map[string]any { //nolint:gocritic // hugeParam
	return map[string]any{
		"id":            a.ID,
		"politician_id": a.PoliticianID,
		"title":         a.Title,
		"description":   a.Description,
		"date":          a.Date.UTC().Format(time.RFC3339),
		"category":      a.Category,
		"impact":        a.Impact,
		"source":        a.Source,
	}
}
