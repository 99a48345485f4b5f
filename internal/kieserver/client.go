package kieserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/mmcdole/casedesk/internal/domain"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

const (
	defaultTimeout = 30 * time.Second
	maxRetries     = 3
	baseRetryDelay = 500 * time.Millisecond
)

// Client implements domain.CaseSource against the KIE server REST API
type Client struct {
	baseURL    string
	username   string
	password   string
	container  string // limits case queries to one container when set
	httpClient *http.Client
	limiter    *rate.Limiter
	inflight   singleflight.Group
	writes     atomic.Uint64 // completed non-GET requests, scopes inflight
	retryDelay time.Duration
	logger     *slog.Logger
}

var _ domain.CaseSource = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger for the client.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithRateLimit limits outgoing requests to rps per second. Zero disables limiting.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), max(burst, 1))
	}
}

// WithContainer restricts case queries to a single container.
func WithContainer(containerID string) Option {
	return func(c *Client) {
		c.container = containerID
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// withRetryDelay shortens backoff in tests
func withRetryDelay(d time.Duration) Option {
	return func(c *Client) {
		c.retryDelay = d
	}
}

// NewClient creates a new KIE server client authenticating with Basic auth
func NewClient(baseURL, username, password string, opts ...Option) *Client {
	c := &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		username: username,
		password: password,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		retryDelay: baseRetryDelay,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// doRequest performs an authenticated request against the REST API.
// 5xx responses are retried with exponential backoff. Identical concurrent
// GETs share one round trip, so a lookahead probe and the page fetch that
// follows it for the same page cost one request. A GET never joins one that
// started before the last completed write.
func (c *Client) doRequest(ctx context.Context, method, path string, query url.Values, payload any) ([]byte, error) {
	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
	}

	if method != http.MethodGet {
		defer c.writes.Add(1)
		return c.send(ctx, method, reqURL, body)
	}

	flight := strconv.FormatUint(c.writes.Load(), 10) + " " + reqURL
	ch := c.inflight.DoChan(flight, func() (any, error) {
		return c.send(ctx, method, reqURL, nil)
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			c.logger.Debug("shared in-flight request", "url", reqURL)
		}
		return res.Val.([]byte), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// send runs the retry loop for a single logical request
func (c *Client) send(ctx context.Context, method, reqURL string, body []byte) ([]byte, error) {
	requestID := uuid.NewString()

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		// Check context before each attempt
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		// Wait before retry (exponential backoff)
		if attempt > 0 {
			delay := c.retryDelay * time.Duration(1<<(attempt-1)) // 500ms, 1s, 2s
			c.logger.Debug("retrying request", "attempt", attempt, "delay", delay, "url", reqURL, "request_id", requestID)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, fmt.Errorf("rate limit: %w", err)
			}
		}

		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("X-Request-ID", requestID)
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		req.SetBasicAuth(c.username, c.password)

		c.logger.Debug("kie request", "method", method, "url", reqURL, "attempt", attempt, "request_id", requestID)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			c.logger.Error("kie request failed", "error", err, "request_id", requestID)
			return nil, fmt.Errorf("%w: %v", domain.ErrServerOffline, err)
		}

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read response: %w", err)
		}

		switch {
		case resp.StatusCode == http.StatusUnauthorized:
			return nil, domain.ErrAuthFailed
		case resp.StatusCode == http.StatusForbidden:
			return nil, domain.ErrForbidden
		case resp.StatusCode == http.StatusNotFound:
			return nil, domain.ErrCaseNotFound
		case resp.StatusCode >= 500 && resp.StatusCode < 600:
			lastErr = fmt.Errorf("server error: %d - %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
			c.logger.Warn("kie server error, will retry",
				"status", resp.StatusCode,
				"attempt", attempt,
				"maxRetries", maxRetries,
				"url", reqURL,
				"request_id", requestID,
			)
			continue
		case resp.StatusCode < 200 || resp.StatusCode >= 300:
			c.logger.Error("kie request error", "status", resp.StatusCode, "body", string(respBody), "request_id", requestID)
			return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
		}

		return respBody, nil
	}

	c.logger.Error("kie request failed after retries", "error", lastErr, "url", reqURL, "request_id", requestID)
	return nil, lastErr
}

// decode parses a JSON response body into v
func decode(body []byte, v any) error {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

func pageQuery(page, pageSize int) url.Values {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("pageSize", strconv.Itoa(pageSize))
	return q
}

func casePath(ref domain.CaseRef) string {
	return fmt.Sprintf("/containers/%s/cases/instances/%s", url.PathEscape(ref.ContainerID), url.PathEscape(ref.CaseID))
}

// Ping checks connectivity and credentials, returning the server description
func (c *Client) Ping(ctx context.Context) (*ServerInfo, error) {
	body, err := c.doRequest(ctx, http.MethodGet, "/server", nil, nil)
	if err != nil {
		return nil, err
	}
	var resp ServerInfoResponse
	if err := decode(body, &resp); err != nil {
		return nil, err
	}
	if resp.Type != "" && resp.Type != "SUCCESS" {
		return nil, fmt.Errorf("server info: %s", resp.Msg)
	}
	return &resp.Result.Info, nil
}

// GetCaseInstances returns one page of cases. The query API has no free text
// parameter, so req.Filter is not sent and the page is returned unfiltered.
func (c *Client) GetCaseInstances(ctx context.Context, req domain.CaseSearchRequest, page, pageSize int) ([]domain.CaseInstance, error) {
	query := pageQuery(page, pageSize)
	if s := statusParam(req.Status); s != "" {
		query.Set("status", s)
	}
	if req.SortBy != "" {
		query.Set("sort", req.SortBy)
		query.Set("sortOrder", strconv.FormatBool(req.Ascending))
	}

	path := "/queries/cases/instances"
	if c.container != "" {
		path = fmt.Sprintf("/containers/%s/cases/instances", url.PathEscape(c.container))
	}

	body, err := c.doRequest(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch cases page %d: %w", page, err)
	}

	var resp CaseInstancesResponse
	if err := decode(body, &resp); err != nil {
		return nil, err
	}

	return MapCaseInstances(resp.Instances), nil
}

// GetCaseInstance returns a single case
func (c *Client) GetCaseInstance(ctx context.Context, ref domain.CaseRef) (*domain.CaseInstance, error) {
	body, err := c.doRequest(ctx, http.MethodGet, casePath(ref), nil, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch case %s: %w", ref, err)
	}
	var item CaseInstance
	if err := decode(body, &item); err != nil {
		return nil, err
	}
	ci := mapCaseInstance(item)
	if ci.ContainerID == "" {
		ci.ContainerID = ref.ContainerID
	}
	return &ci, nil
}

// GetCaseDefinitions returns the case definitions the user can start
func (c *Client) GetCaseDefinitions(ctx context.Context) ([]domain.CaseDefinition, error) {
	path := "/queries/cases"
	if c.container != "" {
		path = fmt.Sprintf("/containers/%s/cases/definitions", url.PathEscape(c.container))
	}
	body, err := c.doRequest(ctx, http.MethodGet, path, pageQuery(0, 100), nil)
	if err != nil {
		return nil, fmt.Errorf("fetch case definitions: %w", err)
	}
	var resp CaseDefinitionsResponse
	if err := decode(body, &resp); err != nil {
		return nil, err
	}
	return MapDefinitions(resp.Definitions), nil
}

// StartCase starts a case with owner assigned to the owner role
func (c *Client) StartCase(ctx context.Context, def domain.CaseDefinition, owner string) (string, error) {
	path := fmt.Sprintf("/containers/%s/cases/%s/instances", url.PathEscape(def.ContainerID), url.PathEscape(def.ID))
	payload := StartCaseRequest{
		Data:             map[string]any{},
		UserAssignments:  map[string]string{"owner": owner},
		GroupAssignments: map[string]string{},
	}
	body, err := c.doRequest(ctx, http.MethodPost, path, nil, payload)
	if err != nil {
		return "", fmt.Errorf("start case %s: %w", def.ID, err)
	}
	var caseID string
	if err := decode(body, &caseID); err != nil {
		return "", err
	}
	return caseID, nil
}

// CancelCase cancels a case and keeps its data
func (c *Client) CancelCase(ctx context.Context, ref domain.CaseRef) error {
	if _, err := c.doRequest(ctx, http.MethodDelete, casePath(ref), nil, nil); err != nil {
		return fmt.Errorf("cancel case %s: %w", ref, err)
	}
	return nil
}

// DestroyCase cancels a case and removes its data
func (c *Client) DestroyCase(ctx context.Context, ref domain.CaseRef) error {
	query := url.Values{}
	query.Set("destroy", "true")
	if _, err := c.doRequest(ctx, http.MethodDelete, casePath(ref), query, nil); err != nil {
		return fmt.Errorf("destroy case %s: %w", ref, err)
	}
	return nil
}

// GetComments returns one page of case comments
func (c *Client) GetComments(ctx context.Context, ref domain.CaseRef, page, pageSize int) ([]domain.CaseComment, error) {
	body, err := c.doRequest(ctx, http.MethodGet, casePath(ref)+"/comments", pageQuery(page, pageSize), nil)
	if err != nil {
		return nil, fmt.Errorf("fetch comments of %s page %d: %w", ref, page, err)
	}
	var resp CaseCommentsResponse
	if err := decode(body, &resp); err != nil {
		return nil, err
	}
	return MapComments(resp.Comments), nil
}

// AddComment adds a comment and returns its id
func (c *Client) AddComment(ctx context.Context, ref domain.CaseRef, author, text string) (string, error) {
	query := url.Values{}
	query.Set("author", author)
	body, err := c.doRequest(ctx, http.MethodPost, casePath(ref)+"/comments", query, text)
	if err != nil {
		return "", fmt.Errorf("add comment to %s: %w", ref, err)
	}
	var id string
	if err := decode(body, &id); err != nil {
		return "", err
	}
	return id, nil
}

// UpdateComment replaces a comment's text
func (c *Client) UpdateComment(ctx context.Context, ref domain.CaseRef, commentID, author, text string) error {
	query := url.Values{}
	query.Set("author", author)
	path := casePath(ref) + "/comments/" + url.PathEscape(commentID)
	if _, err := c.doRequest(ctx, http.MethodPut, path, query, text); err != nil {
		return fmt.Errorf("update comment %s: %w", commentID, err)
	}
	return nil
}

// RemoveComment deletes a comment
func (c *Client) RemoveComment(ctx context.Context, ref domain.CaseRef, commentID string) error {
	path := casePath(ref) + "/comments/" + url.PathEscape(commentID)
	if _, err := c.doRequest(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return fmt.Errorf("remove comment %s: %w", commentID, err)
	}
	return nil
}

// CaseURL returns the REST URL of a case, used to open it in a browser
func (c *Client) CaseURL(ref domain.CaseRef) string {
	return c.baseURL + casePath(ref)
}
