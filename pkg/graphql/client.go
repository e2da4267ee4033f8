// Package graphql implements the consuming side of a GraphQL-shaped
// query/mutation endpoint: POST {query, variables}, decode {data, errors}.
// The grid controller only depends on the Executor interface, so any
// transport with the same envelope can stand in.
package graphql

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	gerrors "github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Error is one entry of the response-level errors array.
type Error struct {
	Message    string         `json:"message"`
	Path       []any          `json:"path,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

func (e Error) Error() string {
	return e.Message
}

// Response is the standard GraphQL envelope.
type Response struct {
	Data   json.RawMessage `json:"data"`
	Errors []Error         `json:"errors,omitempty"`
}

// Err returns the first backend error, or nil when the response is clean.
func (r *Response) Err() error {
	if len(r.Errors) == 0 {
		return nil
	}
	return r.Errors[0]
}

// Executor issues one query or mutation and returns the raw envelope.
// A non-nil error means the request itself failed (transport, status,
// decode); backend-reported errors come back inside the Response.
type Executor interface {
	Execute(ctx context.Context, query string, variables map[string]any) (*Response, error)
}

type Client struct {
	endpoint        *url.URL
	authorization   string
	requestIDHeader string
	httpClient      *http.Client
	log             *logrus.Logger
}

type ClientOption func(*Client)

func WithAuthorization(authorization string) ClientOption {
	return func(c *Client) { c.authorization = strings.TrimSpace(authorization) }
}

func WithRequestIDHeader(header string) ClientOption {
	return func(c *Client) { c.requestIDHeader = header }
}

func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) { c.httpClient.Timeout = timeout }
}

func WithLogger(log *logrus.Logger) ClientOption {
	return func(c *Client) { c.log = log }
}

func NewClient(endpoint string, opts ...ClientOption) (*Client, error) {
	u, err := url.Parse(strings.TrimSpace(endpoint))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid endpoint: %q", endpoint)
	}
	c := &Client{
		endpoint:        u,
		requestIDHeader: "X-Request-ID",
		httpClient:      &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type requestBody struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

func (c *Client) Execute(ctx context.Context, query string, variables map[string]any) (*Response, error) {
	b, err := json.Marshal(requestBody{Query: query, Variables: variables})
	if err != nil {
		return nil, gerrors.Wrap(err, "marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint.String(), bytes.NewReader(b))
	if err != nil {
		return nil, gerrors.Wrap(err, "build request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.requestIDHeader != "" {
		req.Header.Set(c.requestIDHeader, uuid.NewString())
	}
	if c.authorization != "" {
		req.Header.Set("Authorization", c.authorization)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, gerrors.Wrap(err, "http do")
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, gerrors.Wrap(err, "read response")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if c.log != nil {
			c.log.Errorf("graphql: %s returned status=%d body=%s", c.endpoint, resp.StatusCode, strings.TrimSpace(string(respBody)))
		}
		return nil, fmt.Errorf("http status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var out Response
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, gerrors.Wrap(err, "unmarshal envelope")
	}
	return &out, nil
}
