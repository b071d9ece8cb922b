package arr

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

	"grabarr/internal/logging"
	"grabarr/internal/media"
)

// HTTPDoer describes the HTTP client used by the library client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client is a thin wrapper around one Radarr or Sonarr instance.
type Client struct {
	baseURL string
	apiKey  string
	kind    media.Kind
	http    HTTPDoer
	logger  *slog.Logger
}

// New constructs a client for the given library kind. Passing a nil HTTP
// client falls back to http.DefaultClient.
func New(kind media.Kind, baseURL, apiKey string, httpClient HTTPDoer, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		apiKey:  strings.TrimSpace(apiKey),
		kind:    kind,
		http:    httpClient,
		logger:  logger,
	}
}

// Kind returns the library kind this client serves.
func (c *Client) Kind() media.Kind {
	return c.kind
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	endpoint := c.baseURL + "/api/v3/" + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build %s request: %w", path, err)
	}
	return c.do(req, path, out)
}

func (c *Client) post(ctx context.Context, path string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", path, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v3/"+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build %s request: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, path, out)
}

func (c *Client) do(req *http.Request, path string, out any) error {
	req.Header.Set("X-Api-Key", c.apiKey)
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", strings.ToLower(req.Method), path, err)
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

// Status probes the service. It is used as the readiness check before a run.
func (c *Client) Status(ctx context.Context) error {
	return c.get(ctx, "system/status", nil, nil)
}

type wantedMovieRecord struct {
	ID        int64    `json:"id"`
	Title     string   `json:"title"`
	SortTitle string   `json:"sortTitle"`
	Year      int      `json:"year"`
	Runtime   int      `json:"runtime"`
	IMDBID    string   `json:"imdbId"`
	TMDBID    int64    `json:"tmdbId"`
	Genres    []string `json:"genres"`
}

type wantedEpisodeRecord struct {
	ID            int64  `json:"id"`
	SeriesID      int64  `json:"seriesId"`
	SeasonNumber  int    `json:"seasonNumber"`
	EpisodeNumber int    `json:"episodeNumber"`
	Title         string `json:"title"`
	Runtime       int    `json:"runtime"`
}

// WantedMissing fetches the first page of the library's missing list.
func (c *Client) WantedMissing(ctx context.Context, pageSize int) ([]media.WantedItem, error) {
	query := url.Values{
		"page":     {"1"},
		"pageSize": {strconv.Itoa(pageSize)},
	}
	if c.kind == media.KindMovies {
		var page struct {
			Records []wantedMovieRecord `json:"records"`
		}
		if err := c.get(ctx, "wanted/missing", query, &page); err != nil {
			return nil, err
		}
		items := make([]media.WantedItem, 0, len(page.Records))
		for _, rec := range page.Records {
			items = append(items, media.WantedItem{
				ID:        rec.ID,
				Title:     rec.Title,
				SortTitle: rec.SortTitle,
				Year:      rec.Year,
				Runtime:   rec.Runtime,
				IMDBID:    rec.IMDBID,
				TMDBID:    rec.TMDBID,
				Genres:    rec.Genres,
			})
		}
		return items, nil
	}

	var page struct {
		Records []wantedEpisodeRecord `json:"records"`
	}
	if err := c.get(ctx, "wanted/missing", query, &page); err != nil {
		return nil, err
	}
	items := make([]media.WantedItem, 0, len(page.Records))
	for _, rec := range page.Records {
		items = append(items, media.WantedItem{
			ID:            rec.ID,
			Title:         rec.Title,
			Runtime:       rec.Runtime,
			SeriesID:      rec.SeriesID,
			SeasonNumber:  rec.SeasonNumber,
			EpisodeNumber: rec.EpisodeNumber,
		})
	}
	return items, nil
}

// Queue fetches the first page of the download queue.
func (c *Client) Queue(ctx context.Context, pageSize int) ([]media.QueueEntry, error) {
	query := url.Values{
		"page":     {"1"},
		"pageSize": {strconv.Itoa(pageSize)},
	}
	var page struct {
		Records []struct {
			MovieID   int64  `json:"movieId"`
			EpisodeID int64  `json:"episodeId"`
			Status    string `json:"status"`
		} `json:"records"`
	}
	if err := c.get(ctx, "queue", query, &page); err != nil {
		return nil, err
	}
	entries := make([]media.QueueEntry, 0, len(page.Records))
	for _, rec := range page.Records {
		entries = append(entries, media.QueueEntry{
			MovieID:   rec.MovieID,
			EpisodeID: rec.EpisodeID,
			Status:    strings.ToLower(rec.Status),
		})
	}
	return entries, nil
}

// Series fetches one series with per-season episode totals.
func (c *Client) Series(ctx context.Context, id int64) (media.Series, error) {
	var rec struct {
		ID        int64  `json:"id"`
		Title     string `json:"title"`
		SortTitle string `json:"sortTitle"`
		TVDBID    int64  `json:"tvdbId"`
		Seasons   []struct {
			SeasonNumber int `json:"seasonNumber"`
			Statistics   struct {
				TotalEpisodeCount int `json:"totalEpisodeCount"`
			} `json:"statistics"`
		} `json:"seasons"`
	}
	if err := c.get(ctx, "series/"+strconv.FormatInt(id, 10), nil, &rec); err != nil {
		return media.Series{}, err
	}
	series := media.Series{
		ID:        rec.ID,
		Title:     rec.Title,
		SortTitle: rec.SortTitle,
		TVDBID:    rec.TVDBID,
		Seasons:   make([]media.SeasonStats, 0, len(rec.Seasons)),
	}
	for _, s := range rec.Seasons {
		series.Seasons = append(series.Seasons, media.SeasonStats{
			SeasonNumber:      s.SeasonNumber,
			TotalEpisodeCount: s.Statistics.TotalEpisodeCount,
		})
	}
	return series, nil
}

// TriggerRefresh asks the service to re-read its indexer feeds.
func (c *Client) TriggerRefresh(ctx context.Context) error {
	c.logger.Debug("triggering rss sync", logging.String("library", string(c.kind)))
	return c.post(ctx, "command", map[string]string{"name": "RssSync"}, nil)
}
