package orchestrator

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"grabarr/internal/feedstore"
	"grabarr/internal/media"
	"grabarr/internal/testsupport"
)

type fakeLibrary struct {
	kind      media.Kind
	wanted    []media.WantedItem
	queued    []media.QueueEntry
	series    map[int64]media.Series
	statusErr error
	wantedErr error
	refreshed int
}

func (f *fakeLibrary) Status(ctx context.Context) error { return f.statusErr }

func (f *fakeLibrary) WantedMissing(ctx context.Context, pageSize int) ([]media.WantedItem, error) {
	return f.wanted, f.wantedErr
}

func (f *fakeLibrary) Queue(ctx context.Context, pageSize int) ([]media.QueueEntry, error) {
	return f.queued, nil
}

func (f *fakeLibrary) Series(ctx context.Context, id int64) (media.Series, error) {
	s, ok := f.series[id]
	if !ok {
		return media.Series{}, errors.New("series not found")
	}
	return s, nil
}

func (f *fakeLibrary) TriggerRefresh(ctx context.Context) error {
	f.refreshed++
	return nil
}

type fakeSearch struct {
	results    map[string][]media.Candidate
	failQuery  string
	versionErr error
	searches   []string
	added      []string
}

func (f *fakeSearch) Version(ctx context.Context) (string, error) {
	return "v5.0.1", f.versionErr
}

func (f *fakeSearch) Search(ctx context.Context, query string, limit int, pollInterval, timeout time.Duration) ([]media.Candidate, error) {
	f.searches = append(f.searches, query)
	if query == f.failQuery {
		return nil, errors.New("engine exploded")
	}
	return f.results[query], nil
}

func (f *fakeSearch) AddTorrent(ctx context.Context, torrentURL, rename, tag, category string) error {
	f.added = append(f.added, torrentURL)
	return nil
}

func goodCandidate(name string) media.Candidate {
	return media.Candidate{
		FileName:  name,
		FileSize:  int64(30 * 100 * 1024 * 1024), // 30 MB/min at 100 min
		Seeders:   40,
		PubDate:   1700000000,
		FileURL:   "http://x/dl/" + name,
		DescrLink: "http://x/t/" + name,
		SiteURL:   "https://torrents-csv.com",
	}
}

func wantedMovie(id int64, title string, year int) media.WantedItem {
	return media.WantedItem{ID: id, Title: title, Year: year, Runtime: 100, TMDBID: id * 10, IMDBID: "tt0000001"}
}

func newTestOrchestrator(t *testing.T, library *fakeLibrary, search *fakeSearch) (*Orchestrator, *feedstore.Store) {
	t.Helper()
	cfg := testsupport.NewConfig(t, testsupport.WithLibraries(library.kind == media.KindMovies, library.kind == media.KindTV))
	store := feedstore.New(cfg.StoreFile(), nil)
	libraries := map[media.Kind]LibraryService{library.kind: library}
	return NewWithServices(cfg, store, nil, nil, libraries, search), store
}

func TestRunPublishesScoredResults(t *testing.T) {
	library := &fakeLibrary{
		kind:   media.KindMovies,
		wanted: []media.WantedItem{wantedMovie(1, "Alpha", 2020)},
	}
	search := &fakeSearch{results: map[string][]media.Candidate{
		"Alpha 2020": {goodCandidate("Alpha.2020.1080p.WEB-DL"), goodCandidate("Alpha.2019.trash")},
	}}
	orch, store := newTestOrchestrator(t, library, search)

	outcome, err := orch.Run(context.Background(), Options{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(outcome.Libraries) != 1 || !outcome.Libraries[0].Succeeded {
		t.Fatalf("outcome = %+v", outcome)
	}
	records := store.Load()
	if len(records) != 1 {
		t.Fatalf("published %d records, want 1 (mismatched year filtered out)", len(records))
	}
	record, ok := records["http://x/t/Alpha.2020.1080p.WEB-DL"]
	if !ok {
		t.Fatalf("records = %v", records)
	}
	if record.Kind != "Movies" || record.IMDBID != "tt0000001" || record.Category != "HD" {
		t.Fatalf("record = %+v", record)
	}
	if library.refreshed != 1 {
		t.Fatalf("refresh triggered %d times, want 1", library.refreshed)
	}
}

func TestRunIsolatesFailedSearches(t *testing.T) {
	library := &fakeLibrary{
		kind: media.KindMovies,
		wanted: []media.WantedItem{
			wantedMovie(1, "Alpha", 2020),
			wantedMovie(2, "Beta", 2021),
		},
	}
	search := &fakeSearch{
		failQuery: "Alpha 2020",
		results: map[string][]media.Candidate{
			"Beta 2021": {{
				FileName: "Beta.2021.1080p", FileSize: int64(30 * 100 * 1024 * 1024),
				Seeders: 40, FileURL: "http://x/dl/b", DescrLink: "http://x/t/b",
				SiteURL: "https://torrents-csv.com",
			}},
		},
	}
	orch, store := newTestOrchestrator(t, library, search)

	_, err := orch.Run(context.Background(), Options{})
	if err != nil {
		t.Fatalf("Run: %v (one failed search must not fail the run)", err)
	}
	if len(search.searches) != 2 {
		t.Fatalf("searched %d times, want 2", len(search.searches))
	}
	if got := store.Load(); len(got) != 1 {
		t.Fatalf("published %d records, want the surviving search's result", len(got))
	}
}

func TestRunUnavailableServiceFailsLibrary(t *testing.T) {
	library := &fakeLibrary{kind: media.KindMovies, statusErr: errors.New("connection refused")}
	orch, store := newTestOrchestrator(t, library, &fakeSearch{})

	outcome, err := orch.Run(context.Background(), Options{})
	if err == nil {
		t.Fatal("Run succeeded with unavailable library service")
	}
	if len(outcome.Libraries) != 1 || outcome.Libraries[0].Succeeded {
		t.Fatalf("outcome = %+v", outcome)
	}
	if got := store.Load(); len(got) != 0 {
		t.Fatalf("store modified by failed run: %v", got)
	}
}

func TestRunStoreIntactWhenWantedFetchFails(t *testing.T) {
	seed := feedstore.Record{DescrLink: "http://x/t/keep", FileName: "Keep", LastAdded: time.Now(), Kind: "Movies"}
	library := &fakeLibrary{kind: media.KindMovies, wantedErr: errors.New("boom")}
	orch, store := newTestOrchestrator(t, library, &fakeSearch{})
	if err := store.Publish([]feedstore.Record{seed}, 365); err != nil {
		t.Fatal(err)
	}

	if _, err := orch.Run(context.Background(), Options{}); err == nil {
		t.Fatal("Run succeeded despite wanted fetch failure")
	}
	records := store.Load()
	if _, ok := records["http://x/t/keep"]; !ok {
		t.Fatalf("failed run disturbed the store: %v", records)
	}
}

func TestRunDryRunPublishesNothing(t *testing.T) {
	library := &fakeLibrary{
		kind:   media.KindMovies,
		wanted: []media.WantedItem{wantedMovie(1, "Alpha", 2020)},
	}
	search := &fakeSearch{results: map[string][]media.Candidate{
		"Alpha 2020": {goodCandidate("Alpha.2020.1080p")},
	}}
	orch, store := newTestOrchestrator(t, library, search)

	if _, err := orch.Run(context.Background(), Options{DryRun: true, Download: true}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := store.Load(); len(got) != 0 {
		t.Fatalf("dry run published %d records", len(got))
	}
	if len(search.added) != 0 {
		t.Fatalf("dry run triggered downloads: %v", search.added)
	}
	if library.refreshed != 0 {
		t.Fatal("dry run triggered a library refresh")
	}
}

func TestRunDownloadTriggersTopResultOnly(t *testing.T) {
	library := &fakeLibrary{
		kind:   media.KindMovies,
		wanted: []media.WantedItem{wantedMovie(1, "Alpha", 2020)},
	}
	weaker := goodCandidate("Alpha.2020.720p.weak")
	weaker.Seeders = 5
	search := &fakeSearch{results: map[string][]media.Candidate{
		"Alpha 2020": {weaker, goodCandidate("Alpha.2020.1080p.strong")},
	}}
	orch, _ := newTestOrchestrator(t, library, search)

	if _, err := orch.Run(context.Background(), Options{Download: true}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(search.added) != 1 {
		t.Fatalf("added %d torrents, want 1", len(search.added))
	}
	if !strings.Contains(search.added[0], "strong") {
		t.Fatalf("added %q, want the top-scored result", search.added[0])
	}
}

func TestRunExternalIDFiltersMovies(t *testing.T) {
	library := &fakeLibrary{
		kind: media.KindMovies,
		wanted: []media.WantedItem{
			wantedMovie(1, "Alpha", 2020),
			wantedMovie(2, "Beta", 2021),
		},
	}
	search := &fakeSearch{}
	orch, _ := newTestOrchestrator(t, library, search)

	// tmdbid of movie 2 is 20
	if _, err := orch.Run(context.Background(), Options{ExternalID: "20"}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(search.searches) != 1 || search.searches[0] != "Beta 2021" {
		t.Fatalf("searches = %v, want only the filtered movie", search.searches)
	}
}

func TestRunSeasonPackPipeline(t *testing.T) {
	wanted := make([]media.WantedItem, 0, 10)
	for i := 1; i <= 10; i++ {
		wanted = append(wanted, media.WantedItem{
			ID: int64(100 + i), SeriesID: 5, SeasonNumber: 1, EpisodeNumber: i, Runtime: 10,
		})
	}
	library := &fakeLibrary{
		kind:   media.KindTV,
		wanted: wanted,
		series: map[int64]media.Series{
			5: {ID: 5, SortTitle: "beta show", TVDBID: 998877,
				Seasons: []media.SeasonStats{{SeasonNumber: 1, TotalEpisodeCount: 10}}},
		},
	}
	pack := goodCandidate("Beta.Show.S01.1080p")
	pack.FileSize = int64(30 * 100 * 1024 * 1024) // 100 min of episodes
	search := &fakeSearch{results: map[string][]media.Candidate{
		"Beta Show S01": {pack},
	}}
	orch, store := newTestOrchestrator(t, library, search)

	if _, err := orch.Run(context.Background(), Options{}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(search.searches) != 1 {
		t.Fatalf("searches = %v, want one season-pack query", search.searches)
	}
	records := store.Load()
	record, ok := records["http://x/t/Beta.Show.S01.1080p"]
	if !ok {
		t.Fatalf("records = %v", records)
	}
	if record.Kind != "TV" || record.TVDBID != 998877 || record.Season != 1 || record.Episode != 0 {
		t.Fatalf("record = %+v", record)
	}
}

func TestRunSkipsDisabledLibrary(t *testing.T) {
	library := &fakeLibrary{kind: media.KindMovies}
	orch, _ := newTestOrchestrator(t, library, &fakeSearch{})

	_, err := orch.Run(context.Background(), Options{Libraries: []media.Kind{media.KindTV}})
	if err == nil || !strings.Contains(err.Error(), "not enabled") {
		t.Fatalf("err = %v, want not-enabled error", err)
	}
}
