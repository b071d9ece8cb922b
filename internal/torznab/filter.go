package torznab

import (
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"grabarr/internal/feedstore"
	"grabarr/internal/media"
)

// Query is one parsed /api request.
type Query struct {
	Mode    string
	Q       string
	Cats    []int
	IMDBID  string
	TVDBID  int64
	Season  int
	Episode int
	Genre   string
	Offset  int
	Limit   int
}

// Search modes understood by the endpoint.
const (
	ModeCaps    = "caps"
	ModeSearch  = "search"
	ModeTV      = "tvsearch"
	ModeMovie   = "movie"
	ModeDetails = "details"
)

// ParseQuery extracts the torznab parameters from a request query string.
func ParseQuery(values url.Values) (Query, error) {
	q := Query{
		Mode:  strings.ToLower(values.Get("t")),
		Q:     strings.TrimSpace(values.Get("q")),
		Genre: strings.TrimSpace(values.Get("genre")),
	}
	if q.Mode == "" {
		return Query{}, fmt.Errorf("missing parameter t")
	}
	if raw := values.Get("cat"); raw != "" {
		for _, field := range strings.Split(raw, ",") {
			field = strings.TrimSpace(field)
			if field == "" {
				continue
			}
			id, err := strconv.Atoi(field)
			if err != nil {
				return Query{}, fmt.Errorf("invalid cat %q", field)
			}
			q.Cats = append(q.Cats, id)
		}
	}
	q.IMDBID = strings.TrimPrefix(strings.TrimSpace(values.Get("imdbid")), "tt")
	var err error
	if raw := values.Get("tvdbid"); raw != "" {
		if q.TVDBID, err = strconv.ParseInt(raw, 10, 64); err != nil {
			return Query{}, fmt.Errorf("invalid tvdbid %q", raw)
		}
	}
	if raw := values.Get("season"); raw != "" {
		if q.Season, err = strconv.Atoi(raw); err != nil {
			return Query{}, fmt.Errorf("invalid season %q", raw)
		}
	}
	if raw := values.Get("ep"); raw != "" {
		if q.Episode, err = strconv.Atoi(raw); err != nil {
			return Query{}, fmt.Errorf("invalid ep %q", raw)
		}
	}
	if raw := values.Get("offset"); raw != "" {
		if q.Offset, err = strconv.Atoi(raw); err != nil || q.Offset < 0 {
			return Query{}, fmt.Errorf("invalid offset %q", raw)
		}
	}
	if raw := values.Get("limit"); raw != "" {
		if q.Limit, err = strconv.Atoi(raw); err != nil || q.Limit < 0 {
			return Query{}, fmt.Errorf("invalid limit %q", raw)
		}
	}
	return q, nil
}

// Select filters the store against the query and returns records sorted by
// score, then publication date, both descending. Pagination happens later in
// the renderer.
func Select(records map[string]feedstore.Record, query Query, cats *CategoryTable) []feedstore.Record {
	matcher := nameMatcher(query.Q)

	var kept []feedstore.Record
	for link, record := range records {
		if query.Mode == ModeDetails {
			if link == query.Q {
				kept = append(kept, record)
			}
			continue
		}
		if !kindMatches(query.Mode, record.Kind) {
			continue
		}
		if matcher != nil && !matcher.MatchString(record.FileName) {
			continue
		}
		if len(query.Cats) > 0 && !categoryMatches(record, query.Cats, cats) {
			continue
		}
		if query.IMDBID != "" && strings.TrimPrefix(record.IMDBID, "tt") != query.IMDBID {
			continue
		}
		if query.TVDBID != 0 && record.TVDBID != query.TVDBID {
			continue
		}
		if query.Season != 0 && record.Season != query.Season {
			continue
		}
		// A whole-season record satisfies any episode query for its season.
		if query.Episode != 0 && record.Episode != 0 && record.Episode != query.Episode {
			continue
		}
		if query.Genre != "" && !genreMatches(record.Genres, query.Genre) {
			continue
		}
		kept = append(kept, record)
	}

	sort.Slice(kept, func(i, j int) bool {
		if kept[i].Score != kept[j].Score {
			return kept[i].Score > kept[j].Score
		}
		return kept[i].PubDate > kept[j].PubDate
	})
	return kept
}

// nameMatcher turns a free-text query into a tolerant regexp: word tokens
// must appear in order, with any separator between them, so "beta show"
// matches "Beta.Show.S01.1080p".
func nameMatcher(q string) *regexp.Regexp {
	if q == "" {
		return nil
	}
	tokens := regexp.MustCompile(`\w+`).FindAllString(q, -1)
	if len(tokens) == 0 {
		return nil
	}
	for i, token := range tokens {
		tokens[i] = regexp.QuoteMeta(token)
	}
	return regexp.MustCompile(`(?i)` + strings.Join(tokens, `[\W_]*`))
}

func kindMatches(mode, kind string) bool {
	switch mode {
	case ModeTV:
		return kind == string(media.KindTV)
	case ModeMovie:
		return kind == string(media.KindMovies)
	default:
		return true
	}
}

func categoryMatches(record feedstore.Record, wanted []int, cats *CategoryTable) bool {
	id, ok := cats.IDFor(record.Kind, record.Category)
	if !ok {
		return false
	}
	root, _ := cats.Root(id)
	for _, want := range wanted {
		if want == id || want == root.ID {
			return true
		}
	}
	return false
}

func genreMatches(genres []string, want string) bool {
	for _, genre := range genres {
		if strings.EqualFold(strings.TrimSpace(genre), want) {
			return true
		}
	}
	return false
}
