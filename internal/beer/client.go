package beer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

// Gateway defines the REST operations the synchronization core depends on.
// This interface is implemented by *Client and can be used for testing.
type Gateway interface {
	ListItems(ctx context.Context, token string) ([]Item, error)
	ListPage(ctx context.Context, token string, page int) ([]Item, error)
	CreateItem(ctx context.Context, token string, item Item) (Item, error)
	UpdateItem(ctx context.Context, token string, item Item) (Item, error)
	DeleteItem(ctx context.Context, token string, id string) error
}

// Ensure Client implements Gateway at compile time.
var _ Gateway = (*Client)(nil)

// Client talks to the beer service HTTP API.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
	dialer    *websocket.Dialer
	logger    *slog.Logger
}

const (
	defaultAPIHost   = "localhost:3000"
	defaultUserAgent = "beerstore/0.1"
	requestTimeout   = 10 * time.Second

	itemsPath = "/api/beer"
	loginPath = "/api/auth/login"
)

// NewClient builds a Client for the given host:port or URL.
func NewClient(apiHost string, logger *slog.Logger) (*Client, error) {
	base, err := parseBaseURL(apiHost)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: base,
		http: &http.Client{
			Timeout: requestTimeout,
		},
		userAgent: defaultUserAgent,
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: requestTimeout,
		},
		logger: logger.With("component", "gateway"),
	}, nil
}

// ListItems retrieves every item owned by the session.
func (c *Client) ListItems(ctx context.Context, token string) ([]Item, error) {
	var items []Item
	if err := c.do(ctx, "getItems", http.MethodGet, itemsPath, token, nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// ListPage retrieves one page of items.
func (c *Client) ListPage(ctx context.Context, token string, page int) ([]Item, error) {
	var items []Item
	path := itemsPath + "/page/" + strconv.Itoa(page)
	if err := c.do(ctx, "getPageItems", http.MethodGet, path, token, nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// CreateItem posts a new item and returns it with the server-assigned id.
func (c *Client) CreateItem(ctx context.Context, token string, item Item) (Item, error) {
	var created Item
	if err := c.do(ctx, "createItem", http.MethodPost, itemsPath, token, item, &created); err != nil {
		return Item{}, err
	}
	return created, nil
}

// UpdateItem replaces the item identified by item.ID.
func (c *Client) UpdateItem(ctx context.Context, token string, item Item) (Item, error) {
	if !item.Persisted() {
		return Item{}, &NetworkError{Op: "updateItem", Err: fmt.Errorf("item id required")}
	}
	var updated Item
	path := itemsPath + "/" + url.PathEscape(item.ID)
	if err := c.do(ctx, "updateItem", http.MethodPut, path, token, item, &updated); err != nil {
		return Item{}, err
	}
	return updated, nil
}

// DeleteItem removes the item with the given id.
func (c *Client) DeleteItem(ctx context.Context, token string, id string) error {
	if strings.TrimSpace(id) == "" {
		return &NetworkError{Op: "deleteItem", Err: fmt.Errorf("item id required")}
	}
	path := itemsPath + "/" + url.PathEscape(id)
	return c.do(ctx, "deleteItem", http.MethodDelete, path, token, nil, nil)
}

// Login exchanges credentials for a session token.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	var resp loginResponse
	body := loginRequest{Username: username, Password: password}
	if err := c.do(ctx, "login", http.MethodPost, loginPath, "", body, &resp); err != nil {
		return "", err
	}
	if strings.TrimSpace(resp.Token) == "" {
		return "", &NetworkError{Op: "login", Err: fmt.Errorf("empty token in response")}
	}
	return resp.Token, nil
}

func (c *Client) do(ctx context.Context, op, method, path, token string, body, dest any) error {
	if c == nil {
		return &NetworkError{Op: op, Err: fmt.Errorf("client is nil")}
	}
	start := time.Now()
	err := c.doURL(ctx, method, &url.URL{Path: path}, token, body, dest)
	if err != nil {
		c.logger.Warn("request failed", "op", op, "method", method, "path", path, "error", err)
		var ne *NetworkError
		if errors.As(err, &ne) {
			ne.Op = op
			return ne
		}
		return &NetworkError{Op: op, Err: err}
	}
	c.logger.Debug("request succeeded", "op", op, "method", method, "path", path, "took", time.Since(start))
	return nil
}

func (c *Client) doURL(ctx context.Context, method string, rel *url.URL, token string, body, dest any) error {
	reqURL := c.baseURL.ResolveReference(rel)

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &NetworkError{
			Status: resp.StatusCode,
			Err:    fmt.Errorf("api %s returned status %d", rel.String(), resp.StatusCode),
		}
	}
	if dest == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// pushURL derives the websocket endpoint from the API base URL.
func (c *Client) pushURL() string {
	u := *c.baseURL
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = "/"
	return u.String()
}

func parseBaseURL(apiHost string) (*url.URL, error) {
	trimmed := strings.TrimSpace(apiHost)
	if trimmed == "" {
		trimmed = defaultAPIHost
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse api_host %q: %w", apiHost, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("parse api_host %q: missing host", apiHost)
	}
	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
