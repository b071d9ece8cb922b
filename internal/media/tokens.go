package media

import "fmt"

// SeasonToken formats the zero-padded season label, e.g. "S01".
func SeasonToken(season int) string {
	return fmt.Sprintf("S%02d", season)
}

// EpisodeToken formats the zero-padded season/episode label, e.g. "S01E05".
func EpisodeToken(season, episode int) string {
	return fmt.Sprintf("S%02dE%02d", season, episode)
}

// SeasonMatchPattern matches releases that name either the padded season
// token or a spelled-out "Season N".
func SeasonMatchPattern(season int) string {
	return fmt.Sprintf("(%s|Season 0?%d)", SeasonToken(season), season)
}

// SeasonPackIgnorePattern rejects single-episode releases when a whole
// season pack is wanted.
const SeasonPackIgnorePattern = `E\d{2,3}\D`
