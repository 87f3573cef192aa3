// ABOUTME: HTTP client for long-lived server-sent event streams from the answer API
// ABOUTME: Opens GET <base>/answer?q=&user_id=, delivers events in order, supports Close

package sse

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// DefaultMaxEventSize bounds a single line of the stream.
	DefaultMaxEventSize = 64 * 1024

	// defaultEventType is what the browser EventSource calls unnamed events.
	defaultEventType = "message"
)

// ErrStreamEnded is reported when the server closes the connection before the
// stream was closed by the caller.
var ErrStreamEnded = errors.New("event stream ended by server")

// StatusError is reported when the server answers with a non-200 status.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("event stream returned status %d: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("event stream returned status %d", e.Code)
}

// Event is one dispatched server-sent event.
type Event struct {
	Type string
	ID   string
	Data string
}

// Handler receives the events of one stream. Calls for a given stream are
// made from a single goroutine, in arrival order. OnError is called at most
// once and never after the stream has been closed by the caller.
type Handler interface {
	OnEvent(Event)
	OnError(error)
}

// Client opens event streams against an answer API.
type Client struct {
	baseURL      string
	token        string
	httpClient   *http.Client
	maxEventSize int
	logger       *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithToken sets a bearer token sent with every request.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithMaxEventSize bounds the size of a single stream line.
func WithMaxEventSize(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxEventSize = n
		}
	}
}

// WithResponseHeaderTimeout bounds how long opening a stream may wait for the
// response headers. It does not limit the stream's lifetime.
func WithResponseHeaderTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d <= 0 {
			return
		}
		transport := http.DefaultTransport.(*http.Transport).Clone()
		transport.ResponseHeaderTimeout = d
		c.httpClient = &http.Client{Transport: transport}
	}
}

// WithLogger sets the logger. Nil keeps the default.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient creates a client for the API rooted at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		httpClient:   &http.Client{},
		maxEventSize: DefaultMaxEventSize,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "sse")
	return c
}

// AnswerURL returns the stream URL for a question asked by userID.
func (c *Client) AnswerURL(question, userID string) string {
	q := url.Values{}
	q.Set("q", question)
	q.Set("user_id", userID)
	return c.baseURL + "/answer?" + q.Encode()
}

// OpenAnswer opens the answer stream for question.
func (c *Client) OpenAnswer(question, userID string, h Handler) *Stream {
	return c.Connect(context.Background(), c.AnswerURL(question, userID), h)
}

// Connect opens an event stream at rawURL. It returns immediately; connection
// failures are delivered to h.OnError.
func (c *Client) Connect(ctx context.Context, rawURL string, h Handler) *Stream {
	ctx, cancel := context.WithCancel(ctx)
	s := &Stream{
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go c.run(ctx, s, rawURL, h)
	return s
}

// run owns the connection for one stream.
func (c *Client) run(ctx context.Context, s *Stream, rawURL string, h Handler) {
	defer close(s.done)
	defer s.cancel()

	err := c.consume(ctx, s, rawURL, h)
	if s.closed.Load() {
		return
	}
	if err == nil {
		err = ErrStreamEnded
	}

	c.logger.Debug("event stream failed", "error", err)
	h.OnError(err)
}

// consume performs the request and parses the response body. A nil return
// means the server closed the stream cleanly.
func (c *Client) consume(ctx context.Context, s *Stream, rawURL string, h Handler) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("opening stream: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return handleErrorResponse(resp)
	}

	return c.parseStream(ctx, s, resp.Body, h)
}

// handleErrorResponse extracts the error message from a non-200 response.
func handleErrorResponse(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		var errResp struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(body, &errResp) == nil && errResp.Error != "" {
			return &StatusError{Code: resp.StatusCode, Message: errResp.Error}
		}
	}

	return &StatusError{Code: resp.StatusCode, Message: strings.TrimSpace(string(body))}
}

// parseStream reads events from body and hands them to h until the body ends,
// the context is cancelled, or the stream is closed.
func (c *Client) parseStream(ctx context.Context, s *Stream, body io.Reader, h Handler) error {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, min(4096, c.maxEventSize)), c.maxEventSize)

	var eventType, lastID string
	var dataLines []string

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line := scanner.Text()

		// Empty line signals end of event
		if line == "" {
			if len(dataLines) > 0 {
				if s.closed.Load() {
					return nil
				}
				if eventType == "" {
					eventType = defaultEventType
				}
				h.OnEvent(Event{
					Type: eventType,
					ID:   lastID,
					Data: strings.Join(dataLines, "\n"),
				})
			}
			eventType = ""
			dataLines = nil
			continue
		}

		// Comment lines keep the connection alive
		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")

		switch field {
		case "event":
			eventType = value
		case "data":
			dataLines = append(dataLines, value)
		case "id":
			lastID = value
		}
	}

	if err := scanner.Err(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("reading event stream: %w", err)
	}

	return nil
}
