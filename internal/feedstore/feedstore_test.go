package feedstore

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func record(link string, lastAdded time.Time) Record {
	return Record{
		FileName:  "Alpha.2020.1080p",
		FileSize:  3221225472,
		Seeders:   40,
		FileURL:   "http://x/dl" + link,
		DescrLink: link,
		Category:  "HD",
		Score:     18,
		LastAdded: lastAdded,
		Kind:      "Movies",
	}
}

func TestLoadMissingStore(t *testing.T) {
	store := New(filepath.Join(t.TempDir(), "torrents.json"), nil)
	if got := store.Load(); len(got) != 0 {
		t.Fatalf("Load on missing store = %v, want empty", got)
	}
}

func TestLoadCorruptStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "torrents.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	store := New(path, nil)
	if got := store.Load(); len(got) != 0 {
		t.Fatalf("Load on corrupt store = %v, want empty", got)
	}
}

func TestPublishRoundTrip(t *testing.T) {
	store := New(filepath.Join(t.TempDir(), "torrents.json"), nil)
	now := time.Now()

	if err := store.Publish([]Record{record("http://x/t/1", now)}, 365); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	records := store.Load()
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	got, ok := records["http://x/t/1"]
	if !ok {
		t.Fatalf("record not keyed by details link: %v", records)
	}
	if got.FileName != "Alpha.2020.1080p" || got.Score != 18 {
		t.Fatalf("record = %+v", got)
	}
}

func TestPublishIsIdempotent(t *testing.T) {
	store := New(filepath.Join(t.TempDir(), "torrents.json"), nil)
	now := time.Now()
	results := []Record{record("http://x/t/1", now), record("http://x/t/2", now)}

	if err := store.Publish(results, 365); err != nil {
		t.Fatalf("first Publish: %v", err)
	}
	if err := store.Publish(results, 365); err != nil {
		t.Fatalf("second Publish: %v", err)
	}
	if got := store.Load(); len(got) != 2 {
		t.Fatalf("got %d records after republish, want 2", len(got))
	}
}

func TestPublishLastWriteWins(t *testing.T) {
	store := New(filepath.Join(t.TempDir(), "torrents.json"), nil)
	now := time.Now()

	first := record("http://x/t/1", now)
	first.Score = 8
	if err := store.Publish([]Record{first}, 365); err != nil {
		t.Fatal(err)
	}
	second := record("http://x/t/1", now)
	second.Score = 18
	if err := store.Publish([]Record{second}, 365); err != nil {
		t.Fatal(err)
	}
	records := store.Load()
	if got := records["http://x/t/1"].Score; got != 18 {
		t.Fatalf("score = %d, want the later publish to win", got)
	}
}

func TestPublishEvictsExpiredRecords(t *testing.T) {
	store := New(filepath.Join(t.TempDir(), "torrents.json"), nil)
	now := time.Now()
	store.now = func() time.Time { return now }

	stale := record("http://x/t/old", now.AddDate(0, 0, -400))
	fresh := record("http://x/t/fresh", now.AddDate(0, 0, -10))
	if err := store.Publish([]Record{stale, fresh}, 365); err != nil {
		t.Fatal(err)
	}
	// A later empty publish sweeps out the stale record.
	if err := store.Publish(nil, 365); err != nil {
		t.Fatal(err)
	}
	records := store.Load()
	if _, ok := records["http://x/t/old"]; ok {
		t.Error("expired record survived eviction")
	}
	if _, ok := records["http://x/t/fresh"]; !ok {
		t.Error("fresh record evicted")
	}
}

func TestPublishSkipsRecordsWithoutKey(t *testing.T) {
	store := New(filepath.Join(t.TempDir(), "torrents.json"), nil)
	keyless := record("", time.Now())
	if err := store.Publish([]Record{keyless}, 365); err != nil {
		t.Fatal(err)
	}
	if got := store.Load(); len(got) != 0 {
		t.Fatalf("keyless record published: %v", got)
	}
}

func TestModTime(t *testing.T) {
	store := New(filepath.Join(t.TempDir(), "torrents.json"), nil)
	if !store.ModTime().IsZero() {
		t.Fatal("ModTime on missing store should be zero")
	}
	if err := store.Publish([]Record{record("http://x/t/1", time.Now())}, 365); err != nil {
		t.Fatal(err)
	}
	if store.ModTime().IsZero() {
		t.Fatal("ModTime after publish should be set")
	}
}
