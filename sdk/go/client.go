package sdk

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"rankboard/core"
)

// Option configures the Client.
type Option func(*Client)

// Client provides typed access to the rankboard HTTP + WebSocket API.
type Client struct {
	baseURL    string
	wsURL      string
	httpClient *http.Client
	headers    http.Header
}

// NewClient constructs a client targeting baseURL (e.g. http://localhost:8080/api).
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.New("baseURL is required")
	}
	baseURL = strings.TrimSuffix(baseURL, "/")

	c := &Client{
		baseURL:    baseURL,
		wsURL:      deriveWSURL(baseURL),
		httpClient: http.DefaultClient,
		headers:    make(http.Header),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.httpClient = h
		}
	}
}

// WithAPIKey adds an X-API-Key header to HTTP and WS calls.
func WithAPIKey(key string) Option {
	return func(c *Client) {
		if strings.TrimSpace(key) != "" {
			c.headers.Set("X-API-Key", key)
		}
	}
}

// WithHeader sets an arbitrary header applied to HTTP and WS calls.
func WithHeader(k, v string) Option {
	return func(c *Client) {
		if k != "" {
			c.headers.Set(k, v)
		}
	}
}

func (c *Client) ListBoards(ctx context.Context) (Result, error) {
	return c.do(ctx, http.MethodGet, "/boards", nil)
}

// CreateBoard creates board with creator as its only participant.
func (c *Client) CreateBoard(ctx context.Context, board, creator string) (Result, error) {
	if err := requireBoard(board); err != nil {
		return Result{}, err
	}
	if err := requireName(creator); err != nil {
		return Result{}, err
	}
	return c.do(ctx, http.MethodPost, boardPath(board), url.Values{"creator": {creator}})
}

// Board returns the standings of board.
func (c *Client) Board(ctx context.Context, board string) (Result, error) {
	if err := requireBoard(board); err != nil {
		return Result{}, err
	}
	return c.do(ctx, http.MethodGet, boardPath(board), nil)
}

func (c *Client) DeleteBoard(ctx context.Context, board string) (Result, error) {
	if err := requireBoard(board); err != nil {
		return Result{}, err
	}
	return c.do(ctx, http.MethodDelete, boardPath(board), nil)
}

func (c *Client) AddParticipant(ctx context.Context, board, name string) (Result, error) {
	if err := requireBoard(board); err != nil {
		return Result{}, err
	}
	if err := requireName(name); err != nil {
		return Result{}, err
	}
	return c.do(ctx, http.MethodPost, boardPath(board)+"/participants/"+url.PathEscape(name), nil)
}

func (c *Client) RemoveParticipant(ctx context.Context, board, name string) (Result, error) {
	if err := requireBoard(board); err != nil {
		return Result{}, err
	}
	if err := requireName(name); err != nil {
		return Result{}, err
	}
	return c.do(ctx, http.MethodDelete, boardPath(board)+"/participants/"+url.PathEscape(name), nil)
}

// RecordWin reports that winner beat loser on board.
func (c *Client) RecordWin(ctx context.Context, board, winner, loser string) (Result, error) {
	if err := requireBoard(board); err != nil {
		return Result{}, err
	}
	for _, name := range []string{winner, loser} {
		if err := requireName(name); err != nil {
			return Result{}, err
		}
	}
	return c.do(ctx, http.MethodPost, boardPath(board)+"/wins", url.Values{"winner": {winner}, "loser": {loser}})
}

// Health calls /healthz. An unhealthy server still yields a status.
func (c *Client) Health(ctx context.Context) (HealthStatus, error) {
	resp, err := c.send(ctx, http.MethodGet, "/healthz", nil)
	if err != nil {
		return HealthStatus{}, err
	}
	defer resp.Body.Close()

	var hs HealthStatus
	if err := json.NewDecoder(resp.Body).Decode(&hs); err != nil {
		return HealthStatus{}, fmt.Errorf("decode health (status %d): %w", resp.StatusCode, err)
	}
	return hs, nil
}

// SubscribeEvents connects to the WebSocket stream and emits ranking events,
// restricted to board when it is non-empty. The returned channel closes when
// ctx is done or the connection drops.
func (c *Client) SubscribeEvents(ctx context.Context, board string) (<-chan core.Event, error) {
	if c.wsURL == "" {
		return nil, errors.New("wsURL is not set; ensure baseURL is http/https")
	}
	target := c.wsURL
	if board != "" {
		target += "?board=" + url.QueryEscape(board)
	}
	dialer := websocket.Dialer{HandshakeTimeout: 5 * time.Second}
	conn, _, err := dialer.DialContext(ctx, target, c.headers)
	if err != nil {
		return nil, err
	}

	// unblock ReadJSON once the caller gives up
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })

	out := make(chan core.Event, 32)
	go func() {
		defer close(out)
		defer stop()
		defer conn.Close()
		for {
			var evt core.Event
			if err := conn.ReadJSON(&evt); err != nil {
				return
			}
			select {
			case out <- evt:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func (c *Client) send(ctx context.Context, method, path string, q url.Values) (*http.Response, error) {
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, nil)
	if err != nil {
		return nil, err
	}
	for k, vals := range c.headers {
		for _, v := range vals {
			req.Header.Add(k, v)
		}
	}
	return c.httpClient.Do(req)
}

// do issues a board request. Bodies carrying an error code become *APIError;
// outcome bodies are returned as a Result whatever their status.
func (c *Client) do(ctx context.Context, method, path string, q url.Values) (Result, error) {
	resp, err := c.send(ctx, method, path, q)
	if err != nil {
		return Result{}, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, err
	}
	var apiErr APIError
	if json.Unmarshal(raw, &apiErr) == nil && apiErr.Code != "" {
		apiErr.Status = resp.StatusCode
		return Result{}, &apiErr
	}
	var res Result
	if err := json.Unmarshal(raw, &res); err != nil {
		return Result{}, fmt.Errorf("request failed: status %d", resp.StatusCode)
	}
	return res, nil
}

func boardPath(board string) string { return "/boards/" + url.PathEscape(board) }

func requireBoard(board string) error {
	if strings.TrimSpace(board) == "" {
		return ErrEmptyBoard
	}
	return nil
}

func requireName(name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrEmptyParticipant
	}
	return nil
}

func deriveWSURL(httpBase string) string {
	u, err := url.Parse(httpBase)
	if err != nil {
		return ""
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http":
		u.Scheme = "ws"
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/ws"
	return u.String()
}
