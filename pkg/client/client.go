package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/doodlesbykumbi/secrets-in-go/pkg/server/store"
)

// DefaultTimeout bounds a whole request, including reading the answer.
const DefaultTimeout = 30 * time.Second

// baseURL is never resolved; every connection goes to the socket.
const baseURL = "http://secrets"

// StatusError is returned for answers other than 200.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("%d %s: %s", e.StatusCode, http.StatusText(e.StatusCode), e.Message)
}

// IsStatus reports whether err is a *StatusError carrying code.
func IsStatus(err error, code int) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr) && statusErr.StatusCode == code
}

// Status is the daemon status as seen by the caller.
type Status struct {
	Status  string       `json:"status"`
	Version string       `json:"version"`
	UID     uint32       `json:"uid"`
	Usage   store.Usage  `json:"usage"`
	Limits  store.Limits `json:"limits"`
}

type Client struct {
	socketPath string
	httpClient *http.Client
}

type Option func(*Client)

// WithTimeout replaces DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// New creates a client for the daemon listening on socketPath.
func New(socketPath string, opts ...Option) *Client {
	c := &Client{
		socketPath: socketPath,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
			Transport: &http.Transport{
				DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
					var d net.Dialer
					return d.DialContext(ctx, "unix", socketPath)
				},
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SocketPath returns the socket the client connects to.
func (c *Client) SocketPath() string {
	return c.socketPath
}

// ListSecrets returns the names held by the container at path. The
// separator is appended when missing.
func (c *Client) ListSecrets(ctx context.Context, path string) ([]string, error) {
	body, err := c.do(ctx, http.MethodGet, ContainerPath(path), nil, nil)
	if err != nil {
		return nil, err
	}
	var names []string
	if err := json.Unmarshal(body, &names); err != nil {
		return nil, fmt.Errorf("failed to decode listing: %w", err)
	}
	return names, nil
}

// GetSecret returns the value of the secret at path.
func (c *Client) GetSecret(ctx context.Context, path string) ([]byte, error) {
	return c.do(ctx, http.MethodGet, path, nil, map[string]string{"Accept": "application/octet-stream"})
}

// SetSecret creates the secret at path. Existing secrets are never
// overwritten.
func (c *Client) SetSecret(ctx context.Context, path string, value []byte) error {
	_, err := c.do(ctx, http.MethodPut, path, value, map[string]string{"Content-Type": "application/octet-stream"})
	return err
}

// CreateContainer creates the container at path. path is sent as given, so
// a path without the trailing separator is answered with 400.
func (c *Client) CreateContainer(ctx context.Context, path string) error {
	_, err := c.do(ctx, http.MethodPost, path, nil, nil)
	return err
}

// DeleteSecret deletes the secret, or empty container, at path.
func (c *Client) DeleteSecret(ctx context.Context, path string) error {
	_, err := c.do(ctx, http.MethodDelete, path, nil, nil)
	return err
}

// Status returns the daemon status.
func (c *Client) Status(ctx context.Context) (*Status, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/", nil)
	if err != nil {
		return nil, err
	}
	body, err := c.send(req)
	if err != nil {
		return nil, err
	}
	var status Status
	if err := json.Unmarshal(body, &status); err != nil {
		return nil, fmt.Errorf("failed to decode status: %w", err)
	}
	return &status, nil
}

func (c *Client) do(ctx context.Context, method, path string, value []byte, headers map[string]string) ([]byte, error) {
	var body io.Reader
	if value != nil {
		body = bytes.NewReader(value)
	}
	req, err := http.NewRequestWithContext(ctx, method, baseURL+"/secrets/"+escapePath(path), body)
	if err != nil {
		return nil, err
	}
	for key, val := range headers {
		req.Header.Set(key, val)
	}
	return c.send(req)
}

func (c *Client) send(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach %s: %w", c.socketPath, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read answer: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{StatusCode: resp.StatusCode, Message: errorMessage(body)}
	}
	return body, nil
}

// errorMessage extracts the message of a JSON error body.
func errorMessage(body []byte) string {
	var payload struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return strings.TrimSpace(string(body))
	}
	return payload.Error.Message
}

// ContainerPath returns path with the trailing separator a container path
// needs.
func ContainerPath(path string) string {
	if strings.HasSuffix(path, "/") {
		return path
	}
	return path + "/"
}

// escapePath escapes each segment of path on its own so that separators
// keep their meaning.
func escapePath(path string) string {
	path = strings.TrimPrefix(path, "/")
	segments := strings.Split(path, "/")
	for i, segment := range segments {
		segments[i] = url.PathEscape(segment)
	}
	return strings.Join(segments, "/")
}
