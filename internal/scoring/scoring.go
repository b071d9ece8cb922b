package scoring

import (
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"time"

	"grabarr/internal/logging"
	"grabarr/internal/media"
)

// Heuristic weights per library kind. Seed health dominates; the size gate
// does the heavy lifting before weights even apply.
var (
	movieWeights = weights{seeds10: 7, sizeBest: 5, favorite: 3, seeds50: 2, quality: 1}
	tvWeights    = weights{seeds10: 7, sizeBest: 5, seeds50: 3, quality: 2, favorite: 1}
)

type weights struct {
	seeds10  int
	seeds50  int
	quality  int
	favorite int
	sizeBest int
}

// Size gates in megabytes per minute of runtime. Candidates outside the
// acceptable window never publish; the best window earns a score bonus.
const (
	sizeMinRate  = 10.0
	sizeMaxRate  = 60.0
	sizeBestLow  = 25.0
	sizeBestHigh = 40.0
)

// minScore is the exclusive score threshold a candidate must beat.
const minScore = 5

// Quality category thresholds, megabytes per minute.
const (
	movieHDRate  = 25.0
	movieUHDRate = 60.0
	tvSDRate     = 25.0
	tvHDRate     = 40.0
	tvUHDRate    = 60.0
)

const mebibyte = 1024 * 1024

// jackettPrefix captures the tracker name Jackett prepends to result names.
var jackettPrefix = regexp.MustCompile(`^\[([^\]]+)\] `)

// Result is one candidate that survived filtering, annotated with scoring
// detail. Results are the unit the feed store persists.
type Result struct {
	media.Candidate
	Jackett    bool
	Tag        string
	SizeRateMB float64
	Category   string
	Score      int
	LastAdded  time.Time
}

// Scorer ranks candidates. The now hook exists for tests.
type Scorer struct {
	preferredSite string
	trackers      map[string]string
	logger        *slog.Logger
	now           func() time.Time
}

// New constructs a scorer. trackers maps Jackett tracker names to the short
// tags stamped onto published results.
func New(preferredSite string, trackers map[string]string, logger *slog.Logger) *Scorer {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Scorer{
		preferredSite: strings.TrimRight(strings.TrimSpace(preferredSite), "/"),
		trackers:      trackers,
		logger:        logger,
		now:           time.Now,
	}
}

// Score filters and ranks the candidates for one request. The returned
// results are sorted by score, then publication date, both descending.
func (s *Scorer) Score(req media.SearchRequest, candidates []media.Candidate) []Result {
	filtered := s.filter(req, candidates)
	if len(filtered) == 0 {
		return nil
	}

	maxSeeders := 1
	for _, c := range filtered {
		if c.Seeders > maxSeeders {
			maxSeeders = c.Seeders
		}
	}

	runtime := req.RuntimeMinutes()
	kindWeights := movieWeights
	if req.Meta.Kind == media.KindTV {
		kindWeights = tvWeights
	}
	now := s.now()

	var results []Result
	for _, c := range filtered {
		name, jackett, tag := s.unwrapJackett(c.FileName)
		rate := float64(c.FileSize) / mebibyte / float64(runtime)

		seeds10 := float64(c.Seeders) >= 0.1*float64(maxSeeders)
		seeds50 := float64(c.Seeders) >= 0.5*float64(maxSeeders)
		lower := strings.ToLower(name)
		quality := strings.Contains(lower, "1080p") || strings.Contains(lower, "2160p")
		favorite := strings.TrimRight(c.SiteURL, "/") == s.preferredSite
		sizeMin := rate >= sizeMinRate && rate <= sizeMaxRate
		sizeBest := rate >= sizeBestLow && rate <= sizeBestHigh

		score := 0
		if seeds10 {
			score += kindWeights.seeds10
		}
		if seeds50 {
			score += kindWeights.seeds50
		}
		if quality {
			score += kindWeights.quality
		}
		if favorite {
			score += kindWeights.favorite
		}
		if sizeBest {
			score += kindWeights.sizeBest
		}

		if score <= minScore || !sizeMin {
			continue
		}

		result := Result{
			Candidate:  c,
			Jackett:    jackett,
			Tag:        tag,
			SizeRateMB: rate,
			Category:   categoryFor(req.Meta.Kind, rate),
			Score:      score,
			LastAdded:  now,
		}
		result.FileName = name
		results = append(results, result)
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].PubDate > results[j].PubDate
	})
	s.logger.Debug("scored candidates",
		logging.String(logging.FieldQuery, req.Query),
		logging.Int("candidates", len(candidates)),
		logging.Int("kept", len(results)))
	return results
}

// filter drops candidates that miss the match pattern, hit the ignore
// pattern, or carry the engine's error size sentinel.
func (s *Scorer) filter(req media.SearchRequest, candidates []media.Candidate) []media.Candidate {
	match := compilePattern(req.MatchPattern)
	var ignore *regexp.Regexp
	if req.IgnorePattern != "" {
		ignore = compilePattern(req.IgnorePattern)
	}

	var kept []media.Candidate
	for _, c := range candidates {
		if c.FileSize == media.ErrorFileSize {
			continue
		}
		name, _, _ := s.unwrapJackett(c.FileName)
		if match != nil && !match.MatchString(name) {
			continue
		}
		if ignore != nil && ignore.MatchString(name) {
			continue
		}
		kept = append(kept, c)
	}
	return kept
}

// compilePattern builds a case-insensitive matcher. Patterns that do not
// compile as regular expressions fall back to literal containment.
func compilePattern(pattern string) *regexp.Regexp {
	if pattern == "" {
		return nil
	}
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return regexp.MustCompile("(?i)" + regexp.QuoteMeta(pattern))
	}
	return re
}

func (s *Scorer) unwrapJackett(fileName string) (name string, jackett bool, tag string) {
	m := jackettPrefix.FindStringSubmatch(fileName)
	if m == nil {
		return fileName, false, ""
	}
	tracker := m[1]
	if short, ok := s.trackers[tracker]; ok {
		tracker = short
	}
	return fileName[len(m[0]):], true, tracker
}

func categoryFor(kind media.Kind, rate float64) string {
	if kind == media.KindMovies {
		switch {
		case rate < movieHDRate:
			return "SD"
		case rate < movieUHDRate:
			return "HD"
		default:
			return "UHD"
		}
	}
	switch {
	case rate < tvSDRate:
		return "WEB-DL"
	case rate < tvHDRate:
		return "SD"
	case rate < tvUHDRate:
		return "HD"
	default:
		return "UHD"
	}
}
