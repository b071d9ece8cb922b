package planner

import (
	"fmt"
	"strconv"
	"strings"

	"grabarr/internal/media"
)

// Filter narrows a run to a single media unit, as used by the webhook and
// the CLI. The zero value matches everything.
type Filter struct {
	TMDBID  int64
	TVDBID  int64
	Seasons []int
}

// ParseExternalID parses the "id" or "id:s1,s2" form carried by approval
// webhooks: a TMDB id for movies, a TVDB id with optional requested seasons
// for TV.
func ParseExternalID(kind media.Kind, raw string) (Filter, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Filter{}, nil
	}
	idPart, seasonPart, _ := strings.Cut(raw, ":")
	id, err := strconv.ParseInt(strings.TrimSpace(idPart), 10, 64)
	if err != nil {
		return Filter{}, fmt.Errorf("invalid external id %q: %w", raw, err)
	}

	var filter Filter
	if kind == media.KindMovies {
		filter.TMDBID = id
	} else {
		filter.TVDBID = id
	}
	if seasonPart != "" {
		for _, field := range strings.Split(seasonPart, ",") {
			season, err := strconv.Atoi(strings.TrimSpace(field))
			if err != nil {
				return Filter{}, fmt.Errorf("invalid season in %q: %w", raw, err)
			}
			filter.Seasons = append(filter.Seasons, season)
		}
	}
	return filter, nil
}

func (f Filter) matchMovie(item media.WantedItem) bool {
	return f.TMDBID == 0 || f.TMDBID == item.TMDBID
}

func (f Filter) matchSeries(series media.Series) bool {
	return f.TVDBID == 0 || f.TVDBID == series.TVDBID
}

func (f Filter) matchSeason(season int) bool {
	if len(f.Seasons) == 0 {
		return true
	}
	for _, s := range f.Seasons {
		if s == season {
			return true
		}
	}
	return false
}
