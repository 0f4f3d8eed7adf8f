// internal/api/client.go
//
// HTTP client for the Globetrotter backend.
// All paths are rooted at a configurable base URL; bodies are JSON.
// Any non-2xx response becomes an *Error carrying the backend's "error"
// field when present, else "API error: <status>".

package api

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

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// DefaultTimeout bounds a single backend request.
const DefaultTimeout = 10 * time.Second

// Client talks to the backend.
type Client struct {
	baseURL string
	http    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets the per-request timeout of the default *http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// NewClient builds a Client for baseURL (trailing slashes are trimmed).
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: DefaultTimeout},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// BaseURL reports the backend root this client targets.
func (c *Client) BaseURL() string { return c.baseURL }

// ------------------------------ destinations -------------------------------

// RandomDestination fetches a random destination (fun facts may be absent).
func (c *Client) RandomDestination(ctx context.Context) (Destination, error) {
	var d Destination
	err := c.do(ctx, http.MethodGet, "/api/destinations/random", nil, &d)
	return d, err
}

// Destination fetches full destination detail, including fun facts.
func (c *Client) Destination(ctx context.Context, id int) (Destination, error) {
	var d Destination
	err := c.do(ctx, http.MethodGet, "/api/destinations/"+strconv.Itoa(id), nil, &d)
	return d, err
}

// CheckAnswer submits a guess (or a give-up) for scoring.
func (c *Client) CheckAnswer(ctx context.Context, req CheckAnswerRequest) (AnswerResult, error) {
	var res AnswerResult
	err := c.do(ctx, http.MethodPost, "/api/destinations/check-answer", req, &res)
	return res, err
}

// --------------------------------- users -----------------------------------

// CreateUser registers username, or returns the existing record.
func (c *Client) CreateUser(ctx context.Context, username string) (User, error) {
	var u User
	err := c.do(ctx, http.MethodPost, "/api/users", map[string]string{"username": username}, &u)
	return u, err
}

// GetUser fetches a player by name.
func (c *Client) GetUser(ctx context.Context, username string) (User, error) {
	var u User
	err := c.do(ctx, http.MethodGet, "/api/users/"+url.PathEscape(username), nil, &u)
	return u, err
}

// ------------------------------- transport ---------------------------------

// do performs one JSON request/response exchange.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	op := method + " " + path

	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encode body: %w", op, err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	reqID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", reqID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		log.Warn().Err(err).Str("op", op).Str("request_id", reqID).Msg("backend unreachable")
		return &Error{Op: op, Message: "request failed", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := fmt.Sprintf("API error: %d", resp.StatusCode)
		var eb errorBody
		if err := json.NewDecoder(resp.Body).Decode(&eb); err == nil && eb.Error != "" {
			msg = eb.Error
		}
		log.Warn().Str("op", op).Int("status", resp.StatusCode).Str("request_id", reqID).Msg(msg)
		return &Error{Op: op, Status: resp.StatusCode, Message: msg}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &Error{Op: op, Message: "invalid response", Err: err}
	}
	log.Debug().Str("op", op).Int("status", resp.StatusCode).Str("request_id", reqID).Msg("backend ok")
	return nil
}
