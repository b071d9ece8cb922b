package feedstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"grabarr/internal/logging"
	"grabarr/internal/media"
	"grabarr/internal/scoring"
)

// Record is one published result with the request metadata stamped on. The
// JSON shape is the on-disk store format and the source the feed renders
// from.
type Record struct {
	FileName   string    `json:"fileName"`
	FileSize   int64     `json:"fileSize"`
	Seeders    int       `json:"nbSeeders"`
	Leechers   int       `json:"nbLeechers"`
	PubDate    int64     `json:"pubDate"`
	Engine     string    `json:"engineName"`
	FileURL    string    `json:"fileUrl"`
	DescrLink  string    `json:"descrLink"`
	SiteURL    string    `json:"siteUrl"`
	Jackett    bool      `json:"jackett"`
	Tag        string    `json:"tag,omitempty"`
	SizeRateMB float64   `json:"sizeRateMB"`
	Category   string    `json:"category"`
	Score      int       `json:"score"`
	LastAdded  time.Time `json:"lastAdded"`
	Kind       string    `json:"type"`
	IMDBID     string    `json:"imdbid,omitempty"`
	TVDBID     int64     `json:"tvdbid,omitempty"`
	Season     int       `json:"season,omitempty"`
	Episode    int       `json:"episode,omitempty"`
	Genres     []string  `json:"genres,omitempty"`
}

// FromResult stamps request metadata onto a scored result.
func FromResult(result scoring.Result, meta media.RequestMeta) Record {
	return Record{
		FileName:   result.FileName,
		FileSize:   result.FileSize,
		Seeders:    result.Seeders,
		Leechers:   result.Leechers,
		PubDate:    result.PubDate,
		Engine:     result.Engine,
		FileURL:    result.FileURL,
		DescrLink:  result.DescrLink,
		SiteURL:    result.SiteURL,
		Jackett:    result.Jackett,
		Tag:        result.Tag,
		SizeRateMB: result.SizeRateMB,
		Category:   result.Category,
		Score:      result.Score,
		LastAdded:  result.LastAdded,
		Kind:       string(meta.Kind),
		IMDBID:     meta.IMDBID,
		TVDBID:     meta.TVDBID,
		Season:     meta.Season,
		Episode:    meta.Episode,
		Genres:     meta.Genres,
	}
}

// Store owns the feed document on disk.
type Store struct {
	path   string
	logger *slog.Logger
	now    func() time.Time
	mu     sync.Mutex
}

// New constructs a store over the given file path.
func New(path string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Store{
		path:   path,
		logger: logging.NewComponentLogger(logger, "feedstore"),
		now:    time.Now,
	}
}

// Path returns the store file path.
func (s *Store) Path() string {
	return s.path
}

// Load reads the retained records. A missing or unreadable store yields an
// empty map so a fresh run can rebuild it.
func (s *Store) Load() map[string]Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *Store) load() map[string]Record {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("failed to read feed store, starting empty",
				logging.String(logging.FieldStore, s.path),
				logging.Error(err))
		}
		return map[string]Record{}
	}
	var records map[string]Record
	if err := json.Unmarshal(data, &records); err != nil {
		s.logger.Warn("feed store corrupt, starting empty",
			logging.String(logging.FieldStore, s.path),
			logging.Error(err))
		return map[string]Record{}
	}
	return records
}

// Publish merges the run's results into the retained set, evicts records
// older than retentionDays, and rewrites the store atomically. The merge
// keys on each record's details link, so re-running the same searches is
// idempotent.
func (s *Store) Publish(results []Record, retentionDays int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := s.load()
	cutoff := s.now().AddDate(0, 0, -retentionDays)
	evicted := 0
	for key, record := range records {
		if record.LastAdded.Before(cutoff) {
			delete(records, key)
			evicted++
		}
	}
	for _, result := range results {
		if result.DescrLink == "" {
			continue
		}
		records[result.DescrLink] = result
	}

	if err := s.save(records); err != nil {
		return err
	}
	s.logger.Info("feed store published",
		logging.Int("added", len(results)),
		logging.Int("evicted", evicted),
		logging.Int("retained", len(records)))
	return nil
}

func (s *Store) save(records map[string]Record) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode feed store: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create store directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".feedstore-*.json")
	if err != nil {
		return fmt.Errorf("create temp store: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write temp store: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp store: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replace store: %w", err)
	}
	return nil
}

// ModTime reports when the store file last changed. A missing store returns
// the zero time.
func (s *Store) ModTime() time.Time {
	info, err := os.Stat(s.path)
	if err != nil {
		return time.Time{}
	}
	return info.ModTime()
}
