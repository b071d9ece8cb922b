package media

// Kind identifies which library a media unit belongs to. The values double as
// the "type" field stamped onto published records and matched by the Torznab
// top-level categories.
type Kind string

const (
	KindMovies Kind = "Movies"
	KindTV     Kind = "TV"
)

// Valid reports whether the kind is one of the known library kinds.
func (k Kind) Valid() bool {
	return k == KindMovies || k == KindTV
}

// WantedItem is a media unit the library has marked as desired but not yet
// acquired. Items are immutable within a run.
type WantedItem struct {
	ID            int64
	Title         string
	SortTitle     string
	Year          int
	Runtime       int // minutes, 0 when unknown
	SeriesID      int64
	SeasonNumber  int
	EpisodeNumber int
	IMDBID        string
	TMDBID        int64
	TVDBID        int64
	Genres        []string
}

// QueueEntry is one row of the library's download queue. A non-terminal
// status means the item is already being acquired and must not be searched
// again.
type QueueEntry struct {
	MovieID   int64
	EpisodeID int64
	Status    string
}

// StatusCompleted is the only terminal queue status; anything else counts as
// in progress.
const StatusCompleted = "completed"

// InProgress reports whether the entry still occupies the queue.
func (q QueueEntry) InProgress() bool {
	return q.Status != StatusCompleted
}

// Series carries the series metadata the planner needs to decide between
// season packs and per-episode requests.
type Series struct {
	ID        int64
	Title     string
	SortTitle string
	TVDBID    int64
	Seasons   []SeasonStats
}

// SeasonStats holds the known episode total for one season. A zero total
// means the season's size is unknown.
type SeasonStats struct {
	SeasonNumber      int
	TotalEpisodeCount int
}

// TotalEpisodes returns the known episode total for the given season number,
// or 0 when the season is unknown.
func (s Series) TotalEpisodes(season int) int {
	for _, st := range s.Seasons {
		if st.SeasonNumber == season {
			return st.TotalEpisodeCount
		}
	}
	return 0
}

// RequestMeta is stamped onto every published record produced from a search
// request so the feed can answer tvsearch/movie queries.
type RequestMeta struct {
	Kind    Kind
	IMDBID  string
	TVDBID  int64
	Season  int
	Episode int // 0 denotes a whole-season request
	Genres  []string
}

// SearchRequest is one normalized unit of search work. Requests are never
// mutated after planning and are consumed exactly once by the search driver.
type SearchRequest struct {
	Query         string
	MatchPattern  string // literal containment or regexp against candidate file names
	IgnorePattern string // regexp; a match disqualifies the candidate
	Items         []WantedItem
	Meta          RequestMeta
}

// Runtime defaults applied when the library does not know an item's runtime.
const (
	DefaultMovieRuntime   = 100
	DefaultEpisodeRuntime = 20
)

// RuntimeMinutes returns the runtime the scorer should assume for this
// request: the movie's own runtime, or the summed runtimes of all covered
// episodes, with per-kind defaults for unknown values.
func (r SearchRequest) RuntimeMinutes() int {
	if r.Meta.Kind == KindMovies {
		if len(r.Items) > 0 && r.Items[0].Runtime > 0 {
			return r.Items[0].Runtime
		}
		return DefaultMovieRuntime
	}
	total := 0
	for _, item := range r.Items {
		if item.Runtime > 0 {
			total += item.Runtime
		} else {
			total += DefaultEpisodeRuntime
		}
	}
	if total == 0 {
		total = DefaultEpisodeRuntime
	}
	return total
}

// ErrorFileSize is the sentinel size search engines report for placeholder
// or errored entries; such candidates never survive filtering.
const ErrorFileSize = -1

// Candidate is one raw hit returned by the search backend. The JSON tags
// match the qBittorrent search results payload.
type Candidate struct {
	FileName  string `json:"fileName"`
	FileSize  int64  `json:"fileSize"`
	Seeders   int    `json:"nbSeeders"`
	Leechers  int    `json:"nbLeechers"`
	PubDate   int64  `json:"pubDate"`
	Engine    string `json:"engineName"`
	FileURL   string `json:"fileUrl"`
	DescrLink string `json:"descrLink"`
	SiteURL   string `json:"siteUrl"`
}
