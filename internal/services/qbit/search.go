package qbit

import (
	"context"
	"time"

	"grabarr/internal/logging"
	"grabarr/internal/media"
)

// Search runs the full search lifecycle for one query: start the job, poll
// its status every pollInterval, and fetch up to limit results once the
// engine stops. When the job is still running at timeout the driver stops it
// and takes whatever accumulated by then. A job that finishes with zero hits
// skips the results fetch entirely. Only transport failures surface as
// errors; an empty result set is a normal outcome.
func (c *Client) Search(ctx context.Context, query string, limit int, pollInterval, timeout time.Duration) ([]media.Candidate, error) {
	id, err := c.StartSearch(ctx, query)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("search started",
		logging.Int64("search_id", id),
		logging.String(logging.FieldQuery, query))

	deadline := time.Now().Add(timeout)
	var status SearchJobStatus
	for {
		status, err = c.SearchStatus(ctx, id)
		if err != nil {
			return nil, err
		}
		if status.Status == StatusStopped {
			break
		}
		if time.Now().After(deadline) {
			c.logger.Debug("search timed out, stopping",
				logging.Int64("search_id", id),
				logging.String(logging.FieldQuery, query))
			if err := c.StopSearch(ctx, id); err != nil {
				return nil, err
			}
			if status, err = c.SearchStatus(ctx, id); err != nil {
				return nil, err
			}
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(pollInterval):
		}
	}

	if status.Total == 0 {
		c.logger.Debug("search finished with no hits",
			logging.String(logging.FieldQuery, query))
		return nil, nil
	}
	results, err := c.SearchResults(ctx, id, limit)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("search finished",
		logging.String(logging.FieldQuery, query),
		logging.Int("hits", len(results)))
	return results, nil
}
