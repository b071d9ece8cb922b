package runlog

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestRecordAndRecent(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		run := Run{
			Library:    "Movies",
			StartedAt:  base.Add(time.Duration(i) * time.Hour),
			FinishedAt: base.Add(time.Duration(i)*time.Hour + 5*time.Minute),
			Requests:   4,
			Published:  2,
			Succeeded:  true,
		}
		if _, err := store.Record(ctx, run); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	runs, err := store.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("got %d runs, want 2", len(runs))
	}
	if !runs[0].StartedAt.After(runs[1].StartedAt) {
		t.Fatalf("runs not newest first: %v then %v", runs[0].StartedAt, runs[1].StartedAt)
	}
	if runs[0].Library != "Movies" || runs[0].Requests != 4 || runs[0].Published != 2 || !runs[0].Succeeded {
		t.Fatalf("run = %+v", runs[0])
	}
}

func TestRecordFailure(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	run := Run{
		Library:    "TV",
		StartedAt:  time.Now().UTC(),
		FinishedAt: time.Now().UTC(),
		Error:      "service sonarr unavailable",
	}
	if _, err := store.Record(ctx, run); err != nil {
		t.Fatalf("Record: %v", err)
	}
	runs, err := store.Recent(ctx, 1)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if runs[0].Succeeded {
		t.Error("failed run recorded as succeeded")
	}
	if runs[0].Error != "service sonarr unavailable" {
		t.Errorf("error = %q", runs[0].Error)
	}
}

func TestPrune(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	old := Run{Library: "Movies", StartedAt: now.AddDate(0, 0, -120), FinishedAt: now.AddDate(0, 0, -120)}
	fresh := Run{Library: "Movies", StartedAt: now.AddDate(0, 0, -5), FinishedAt: now.AddDate(0, 0, -5)}
	if _, err := store.Record(ctx, old); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Record(ctx, fresh); err != nil {
		t.Fatal(err)
	}

	removed, err := store.Prune(ctx, 90)
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if removed != 1 {
		t.Fatalf("pruned %d runs, want 1", removed)
	}
	runs, err := store.Recent(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 {
		t.Fatalf("got %d runs after prune, want 1", len(runs))
	}
}
