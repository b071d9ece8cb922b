package qbit

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

// fakeQBit emulates the WebUI endpoints the client touches.
type fakeQBit struct {
	mux *http.ServeMux

	logins      atomic.Int32
	statusPolls atomic.Int32
	stops       atomic.Int32

	// pollsUntilStopped controls how many status reads report Running
	// before the job flips to Stopped.
	pollsUntilStopped int32
	total             int
	rejectFirstCall   bool
	firstRejected     atomic.Bool

	// expireSession makes the next authenticated endpoint hit return 403
	// once, emulating an idled-out WebUI session.
	expireSession atomic.Bool
}

func newFakeQBit() *fakeQBit {
	f := &fakeQBit{mux: http.NewServeMux(), total: 2}
	f.mux.HandleFunc("/api/v2/auth/login", func(w http.ResponseWriter, r *http.Request) {
		f.logins.Add(1)
		if r.Header.Get("Referer") == "" {
			http.Error(w, "Fails.", http.StatusOK)
			return
		}
		w.Write([]byte("Ok."))
	})
	f.mux.HandleFunc("/api/v2/app/version", func(w http.ResponseWriter, r *http.Request) {
		if f.expireSession.CompareAndSwap(true, false) {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.Write([]byte("v5.0.1"))
	})
	f.mux.HandleFunc("/api/v2/search/start", func(w http.ResponseWriter, r *http.Request) {
		if f.rejectFirstCall && f.firstRejected.CompareAndSwap(false, true) {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.Write([]byte(`{"id":77}`))
	})
	f.mux.HandleFunc("/api/v2/search/status", func(w http.ResponseWriter, r *http.Request) {
		n := f.statusPolls.Add(1)
		status := "Running"
		if n > f.pollsUntilStopped || f.stops.Load() > 0 {
			status = "Stopped"
		}
		fmt.Fprintf(w, `[{"id":77,"status":%q,"total":%d}]`, status, f.total)
	})
	f.mux.HandleFunc("/api/v2/search/results", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results":[
			{"fileName":"Alpha.2020.1080p.WEB-DL","fileSize":3221225472,"nbSeeders":40,
			 "pubDate":1700000000,"engineName":"jackett","fileUrl":"http://x/dl/1",
			 "descrLink":"http://x/t/1","siteUrl":"http://x"},
			{"fileName":"Alpha.2020.720p","fileSize":1073741824,"nbSeeders":4,
			 "pubDate":1690000000,"engineName":"jackett","fileUrl":"http://x/dl/2",
			 "descrLink":"http://x/t/2","siteUrl":"http://x"}
		]}`))
	})
	f.mux.HandleFunc("/api/v2/search/stop", func(w http.ResponseWriter, r *http.Request) {
		f.stops.Add(1)
		w.WriteHeader(http.StatusOK)
	})
	f.mux.HandleFunc("/api/v2/torrents/add", func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		if r.PostForm.Get("urls") == "" {
			http.Error(w, "missing urls", http.StatusBadRequest)
			return
		}
		w.Write([]byte("Ok."))
	})
	return f
}

func newTestClient(t *testing.T, fake *fakeQBit) *Client {
	t.Helper()
	server := httptest.NewServer(fake.mux)
	t.Cleanup(server.Close)
	client := New(server.URL, "admin", "adminadmin", 0, nil)
	jar := client.http.Jar
	client.http = server.Client()
	client.http.Jar = jar
	return client
}

func TestVersionLogsInOnce(t *testing.T) {
	fake := newFakeQBit()
	client := newTestClient(t, fake)

	version, err := client.Version(context.Background())
	if err != nil {
		t.Fatalf("Version: %v", err)
	}
	if version != "v5.0.1" {
		t.Fatalf("version = %q", version)
	}
	if _, err := client.Version(context.Background()); err != nil {
		t.Fatalf("second Version: %v", err)
	}
	if got := fake.logins.Load(); got != 1 {
		t.Fatalf("logged in %d times, want 1", got)
	}
}

func TestVersionReloginsAfterSessionExpiry(t *testing.T) {
	fake := newFakeQBit()
	client := newTestClient(t, fake)

	if _, err := client.Version(context.Background()); err != nil {
		t.Fatalf("Version: %v", err)
	}
	fake.expireSession.Store(true)

	version, err := client.Version(context.Background())
	if err != nil {
		t.Fatalf("Version after session expiry: %v", err)
	}
	if version != "v5.0.1" {
		t.Fatalf("version = %q", version)
	}
	if got := fake.logins.Load(); got != 2 {
		t.Fatalf("logged in %d times, want 2 (initial + re-login)", got)
	}
	// the restored session keeps serving without another login
	if _, err := client.Version(context.Background()); err != nil {
		t.Fatalf("Version after recovery: %v", err)
	}
	if got := fake.logins.Load(); got != 2 {
		t.Fatalf("logged in %d times after recovery, want 2", got)
	}
}

func TestCallReloginsAfterForbidden(t *testing.T) {
	fake := newFakeQBit()
	fake.rejectFirstCall = true
	client := newTestClient(t, fake)

	id, err := client.StartSearch(context.Background(), "alpha 2020")
	if err != nil {
		t.Fatalf("StartSearch: %v", err)
	}
	if id != 77 {
		t.Fatalf("search id = %d", id)
	}
	if got := fake.logins.Load(); got != 2 {
		t.Fatalf("logged in %d times, want 2 (initial + re-login)", got)
	}
}

func TestSearchPollsUntilStopped(t *testing.T) {
	fake := newFakeQBit()
	fake.pollsUntilStopped = 2
	client := newTestClient(t, fake)

	results, err := client.Search(context.Background(), "alpha 2020", 50, time.Millisecond, time.Minute)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].FileName != "Alpha.2020.1080p.WEB-DL" {
		t.Fatalf("first result = %q", results[0].FileName)
	}
	if fake.stops.Load() != 0 {
		t.Fatal("search was stopped despite finishing naturally")
	}
}

func TestSearchStopsAtTimeout(t *testing.T) {
	fake := newFakeQBit()
	fake.pollsUntilStopped = 1 << 30 // never stops on its own
	client := newTestClient(t, fake)

	results, err := client.Search(context.Background(), "alpha 2020", 50, time.Millisecond, 10*time.Millisecond)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if fake.stops.Load() != 1 {
		t.Fatalf("stop called %d times, want 1", fake.stops.Load())
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want partial results after stop", len(results))
	}
}

func TestSearchSkipsResultsWhenEmpty(t *testing.T) {
	fake := newFakeQBit()
	fake.total = 0
	client := newTestClient(t, fake)

	results, err := client.Search(context.Background(), "nonexistent", 50, time.Millisecond, time.Minute)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if results != nil {
		t.Fatalf("results = %v, want nil for empty search", results)
	}
}

func TestAddTorrent(t *testing.T) {
	fake := newFakeQBit()
	client := newTestClient(t, fake)

	err := client.AddTorrent(context.Background(), "http://x/dl/1", "Alpha.2020.1080p", "RARBG", "HD")
	if err != nil {
		t.Fatalf("AddTorrent: %v", err)
	}
}
