package qbit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"grabarr/internal/logging"
	"grabarr/internal/media"
)

// Client talks to one qBittorrent WebUI instance. Session cookies live in
// the embedded cookie jar; an expired session is re-established once per
// request on a 403.
type Client struct {
	baseURL  string
	username string
	password string
	http     *http.Client
	limiter  *rate.Limiter
	logger   *slog.Logger

	mu            sync.Mutex
	authenticated bool
}

// New constructs a client. requestsPerSecond bounds the request rate; zero
// or negative disables the limiter.
func New(baseURL, username, password string, requestsPerSecond float64, logger *slog.Logger) *Client {
	jar, _ := cookiejar.New(nil)
	limit := rate.Inf
	if requestsPerSecond > 0 {
		limit = rate.Limit(requestsPerSecond)
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Client{
		baseURL:  strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		username: username,
		password: password,
		http: &http.Client{
			Jar:     jar,
			Timeout: 30 * time.Second,
		},
		limiter: rate.NewLimiter(limit, 1),
		logger:  logger,
	}
}

func (c *Client) login(ctx context.Context) error {
	form := url.Values{
		"username": {c.username},
		"password": {c.password},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v2/auth/login", strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Referer", c.baseURL)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
	if resp.StatusCode != http.StatusOK || strings.TrimSpace(string(body)) == "Fails." {
		return fmt.Errorf("login rejected (status %d)", resp.StatusCode)
	}
	c.authenticated = true
	return nil
}

func (c *Client) ensureLogin(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.authenticated {
		return nil
	}
	return c.login(ctx)
}

func (c *Client) invalidate() {
	c.mu.Lock()
	c.authenticated = false
	c.mu.Unlock()
}

// doAuthed performs one rate-limited, authenticated request. A 403 triggers
// a single re-login and retry. The caller owns the response body.
func (c *Client) doAuthed(ctx context.Context, method, path string, form url.Values) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	if err := c.ensureLogin(ctx); err != nil {
		return nil, err
	}
	resp, err := c.send(ctx, method, path, form)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusForbidden {
		resp.Body.Close()
		c.invalidate()
		if err := c.ensureLogin(ctx); err != nil {
			return nil, fmt.Errorf("re-login after 403: %w", err)
		}
		if resp, err = c.send(ctx, method, path, form); err != nil {
			return nil, err
		}
	}
	return resp, nil
}

// call performs one authenticated API call and decodes the JSON response
// into out when non-nil.
func (c *Client) call(ctx context.Context, method, path string, form url.Values, out any) error {
	resp, err := c.doAuthed(ctx, method, path, form)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s returned %d: %s", path, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

func (c *Client) send(ctx context.Context, method, path string, form url.Values) (*http.Response, error) {
	endpoint := c.baseURL + path
	var body io.Reader
	if method == http.MethodGet {
		if len(form) > 0 {
			endpoint += "?" + form.Encode()
		}
	} else if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", strings.ToLower(method), path, err)
	}
	return resp, nil
}

// Version probes the WebUI. It is used as the readiness check before a run,
// so it takes the same guarded re-login path as every other call.
func (c *Client) Version(ctx context.Context) (string, error) {
	resp, err := c.doAuthed(ctx, http.MethodGet, "/api/v2/app/version", nil)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("version returned %d", resp.StatusCode)
	}
	version, err := io.ReadAll(io.LimitReader(resp.Body, 64))
	if err != nil {
		return "", fmt.Errorf("read version: %w", err)
	}
	return strings.TrimSpace(string(version)), nil
}

// SearchJobStatus is one entry of the search status array.
type SearchJobStatus struct {
	ID     int64  `json:"id"`
	Status string `json:"status"`
	Total  int    `json:"total"`
}

// StatusStopped is the terminal search status reported by the engine.
const StatusStopped = "Stopped"

// StartSearch kicks off a plugin search and returns the job id.
func (c *Client) StartSearch(ctx context.Context, pattern string) (int64, error) {
	form := url.Values{
		"pattern":  {pattern},
		"plugins":  {"enabled"},
		"category": {"all"},
	}
	var started struct {
		ID int64 `json:"id"`
	}
	if err := c.call(ctx, http.MethodPost, "/api/v2/search/start", form, &started); err != nil {
		return 0, err
	}
	return started.ID, nil
}

// SearchStatus reports the state of one search job.
func (c *Client) SearchStatus(ctx context.Context, id int64) (SearchJobStatus, error) {
	form := url.Values{"id": {strconv.FormatInt(id, 10)}}
	var statuses []SearchJobStatus
	if err := c.call(ctx, http.MethodGet, "/api/v2/search/status", form, &statuses); err != nil {
		return SearchJobStatus{}, err
	}
	if len(statuses) == 0 {
		return SearchJobStatus{}, fmt.Errorf("search %d: no status returned", id)
	}
	return statuses[0], nil
}

// SearchResults fetches up to limit hits for a search job.
func (c *Client) SearchResults(ctx context.Context, id int64, limit int) ([]media.Candidate, error) {
	form := url.Values{
		"id":    {strconv.FormatInt(id, 10)},
		"limit": {strconv.Itoa(limit)},
	}
	var page struct {
		Results []media.Candidate `json:"results"`
	}
	if err := c.call(ctx, http.MethodGet, "/api/v2/search/results", form, &page); err != nil {
		return nil, err
	}
	return page.Results, nil
}

// StopSearch halts a running search job.
func (c *Client) StopSearch(ctx context.Context, id int64) error {
	form := url.Values{"id": {strconv.FormatInt(id, 10)}}
	return c.call(ctx, http.MethodPost, "/api/v2/search/stop", form, nil)
}

// AddTorrent submits a torrent URL for download.
func (c *Client) AddTorrent(ctx context.Context, torrentURL, rename, tag, category string) error {
	form := url.Values{
		"urls": {torrentURL},
	}
	if rename != "" {
		form.Set("rename", rename)
	}
	if tag != "" {
		form.Set("tags", tag)
	}
	if category != "" {
		form.Set("category", category)
	}
	return c.call(ctx, http.MethodPost, "/api/v2/torrents/add", form, nil)
}
