package planner

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"grabarr/internal/logging"
	"grabarr/internal/media"
)

// SeriesLookup resolves series metadata for episodic planning.
type SeriesLookup interface {
	Series(ctx context.Context, id int64) (media.Series, error)
}

// Planner builds search requests for one library kind.
type Planner struct {
	kind   media.Kind
	lookup SeriesLookup
	logger *slog.Logger
	titler cases.Caser
}

// New constructs a planner. lookup may be nil for the movie kind.
func New(kind media.Kind, lookup SeriesLookup, logger *slog.Logger) *Planner {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Planner{
		kind:   kind,
		lookup: lookup,
		logger: logger,
		titler: cases.Title(language.Und, cases.NoLower),
	}
}

// Plan converts wanted items into search requests, skipping anything the
// download queue already covers and anything the filter excludes.
func (p *Planner) Plan(ctx context.Context, wanted []media.WantedItem, queued []media.QueueEntry, filter Filter) ([]media.SearchRequest, error) {
	if p.kind == media.KindMovies {
		return p.planMovies(wanted, queued, filter), nil
	}
	return p.planEpisodes(ctx, wanted, queued, filter)
}

func (p *Planner) planMovies(wanted []media.WantedItem, queued []media.QueueEntry, filter Filter) []media.SearchRequest {
	inQueue := make(map[int64]bool, len(queued))
	for _, entry := range queued {
		if entry.MovieID != 0 && entry.InProgress() {
			inQueue[entry.MovieID] = true
		}
	}

	var requests []media.SearchRequest
	for _, item := range wanted {
		if inQueue[item.ID] {
			p.logger.Debug("movie already queued, skipping",
				logging.String("title", item.Title))
			continue
		}
		if !filter.matchMovie(item) {
			continue
		}
		requests = append(requests, media.SearchRequest{
			Query:        fmt.Sprintf("%s %d", p.queryTitle(item.Title), item.Year),
			MatchPattern: strconv.Itoa(item.Year),
			Items:        []media.WantedItem{item},
			Meta: media.RequestMeta{
				Kind:   media.KindMovies,
				IMDBID: item.IMDBID,
				Genres: item.Genres,
			},
		})
	}
	return requests
}

func (p *Planner) planEpisodes(ctx context.Context, wanted []media.WantedItem, queued []media.QueueEntry, filter Filter) ([]media.SearchRequest, error) {
	inQueue := make(map[int64]bool, len(queued))
	for _, entry := range queued {
		if entry.EpisodeID != 0 && entry.InProgress() {
			inQueue[entry.EpisodeID] = true
		}
	}

	bySeries := make(map[int64][]media.WantedItem)
	var seriesOrder []int64
	for _, item := range wanted {
		if inQueue[item.ID] {
			continue
		}
		if _, seen := bySeries[item.SeriesID]; !seen {
			seriesOrder = append(seriesOrder, item.SeriesID)
		}
		bySeries[item.SeriesID] = append(bySeries[item.SeriesID], item)
	}

	var requests []media.SearchRequest
	for _, seriesID := range seriesOrder {
		series, err := p.lookup.Series(ctx, seriesID)
		if err != nil {
			return nil, fmt.Errorf("look up series %d: %w", seriesID, err)
		}
		if !filter.matchSeries(series) {
			continue
		}
		requests = append(requests, p.planSeries(series, bySeries[seriesID], filter)...)
	}
	return requests, nil
}

func (p *Planner) planSeries(series media.Series, missing []media.WantedItem, filter Filter) []media.SearchRequest {
	bySeason := make(map[int][]media.WantedItem)
	var seasons []int
	for _, item := range missing {
		if !filter.matchSeason(item.SeasonNumber) {
			continue
		}
		if _, seen := bySeason[item.SeasonNumber]; !seen {
			seasons = append(seasons, item.SeasonNumber)
		}
		bySeason[item.SeasonNumber] = append(bySeason[item.SeasonNumber], item)
	}
	sort.Ints(seasons)

	var requests []media.SearchRequest
	for _, season := range seasons {
		items := bySeason[season]
		sort.Slice(items, func(i, j int) bool {
			return items[i].EpisodeNumber < items[j].EpisodeNumber
		})
		for i := range items {
			items[i].TVDBID = series.TVDBID
		}

		total := series.TotalEpisodes(season)
		if total > 0 && len(items) == total {
			p.logger.Debug("whole season missing, requesting pack",
				logging.String("series", series.Title),
				logging.Int("season", season),
				logging.Int("episodes", total))
			requests = append(requests, media.SearchRequest{
				Query:         fmt.Sprintf("%s %s", p.queryTitle(series.SortTitle), media.SeasonToken(season)),
				MatchPattern:  media.SeasonMatchPattern(season),
				IgnorePattern: media.SeasonPackIgnorePattern,
				Items:         items,
				Meta: media.RequestMeta{
					Kind:   media.KindTV,
					TVDBID: series.TVDBID,
					Season: season,
				},
			})
			continue
		}

		for _, item := range items {
			requests = append(requests, media.SearchRequest{
				Query:        fmt.Sprintf("%s %s", p.queryTitle(series.SortTitle), media.EpisodeToken(item.SeasonNumber, item.EpisodeNumber)),
				MatchPattern: media.EpisodeToken(item.SeasonNumber, item.EpisodeNumber),
				Items:        []media.WantedItem{item},
				Meta: media.RequestMeta{
					Kind:    media.KindTV,
					TVDBID:  series.TVDBID,
					Season:  item.SeasonNumber,
					Episode: item.EpisodeNumber,
				},
			})
		}
	}
	return requests
}

// queryTitle normalizes a title for search engines: punctuation that
// trackers rarely index is dropped and casing is regularized.
func (p *Planner) queryTitle(title string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case ':', ';', ',', '!', '?', '\'', '(', ')':
			return -1
		}
		return r
	}, title)
	return p.titler.String(strings.Join(strings.Fields(cleaned), " "))
}
