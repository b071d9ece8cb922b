package daemon

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"grabarr/internal/logging"
	"grabarr/internal/media"
	"grabarr/internal/orchestrator"
)

// Notification types that trigger a targeted refresh. Anything else is
// acknowledged and ignored.
const (
	notificationApproved     = "MEDIA_APPROVED"
	notificationAutoApproved = "MEDIA_AUTO_APPROVED"
)

// flexString tolerates JSON values that arrive as either strings or
// numbers, which approval webhooks do freely.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("value %s is neither string nor number", data)
	}
	*f = flexString(n.String())
	return nil
}

// flexStrings tolerates a scalar or a list in the same position.
type flexStrings []string

func (f *flexStrings) UnmarshalJSON(data []byte) error {
	var list []flexString
	if err := json.Unmarshal(data, &list); err == nil {
		for _, item := range list {
			*f = append(*f, string(item))
		}
		return nil
	}
	var single flexString
	if err := json.Unmarshal(data, &single); err != nil {
		return err
	}
	*f = flexStrings{string(single)}
	return nil
}

type webhookPayload struct {
	NotificationType string `json:"notification_type"`
	Media            struct {
		MediaType string     `json:"media_type"`
		TMDBID    flexString `json:"tmdbId"`
		TVDBID    flexString `json:"tvdbId"`
	} `json:"media"`
	Extra []struct {
		Name  string      `json:"name"`
		Value flexStrings `json:"value"`
	} `json:"extra"`
}

// externalID builds the planner's filter string from the payload: the TMDB
// id for movies, or "tvdbid:s1,s2" for TV with requested seasons.
func (p webhookPayload) externalID(kind media.Kind) string {
	if kind == media.KindMovies {
		return string(p.Media.TMDBID)
	}
	id := string(p.Media.TVDBID)
	var seasons []string
	for _, extra := range p.Extra {
		if !strings.EqualFold(extra.Name, "Requested Seasons") {
			continue
		}
		for _, value := range extra.Value {
			for _, field := range strings.Split(value, ",") {
				field = strings.TrimSpace(field)
				if field == "" {
					continue
				}
				seasons = append(seasons, field)
			}
		}
	}
	if len(seasons) == 0 {
		return id
	}
	return id + ":" + strings.Join(seasons, ",")
}

func (p webhookPayload) kind() (media.Kind, bool) {
	switch strings.ToLower(p.Media.MediaType) {
	case "movie":
		return media.KindMovies, true
	case "tv":
		return media.KindTV, true
	default:
		return "", false
	}
}

func (s *apiServer) handleWebhook(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleWebhookNotify(w, r)
	case http.MethodGet:
		s.handleWebhookSync(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleWebhookNotify accepts an approval notification, schedules a delayed
// targeted run, and returns immediately. The delay gives the library time
// to register the approved request before the wanted list is read.
func (s *apiServer) handleWebhookNotify(w http.ResponseWriter, r *http.Request) {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		http.Error(w, "missing authorization header", http.StatusUnauthorized)
		return
	}
	if auth != s.daemon.cfg.Webhook.Key {
		http.Error(w, "invalid api key", http.StatusForbidden)
		return
	}
	var payload webhookPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	if payload.NotificationType != notificationApproved && payload.NotificationType != notificationAutoApproved {
		s.writeJSON(w, http.StatusOK, map[string]string{"result": "ignored"})
		return
	}
	kind, ok := payload.kind()
	if !ok {
		http.Error(w, "unknown media type", http.StatusBadRequest)
		return
	}
	externalID := payload.externalID(kind)
	if externalID == "" {
		http.Error(w, "missing media id", http.StatusBadRequest)
		return
	}

	wait := time.Duration(s.daemon.cfg.Webhook.WaitSeconds) * time.Second
	s.logger.Info("approval received, scheduling targeted run",
		logging.String(logging.FieldLibrary, string(kind)),
		logging.String("external_id", externalID),
		logging.Duration("delay", wait))

	s.daemon.wg.Add(1)
	go func() {
		defer s.daemon.wg.Done()
		select {
		case <-s.daemon.ctx.Done():
			return
		case <-time.After(wait):
		}
		opts := orchestrator.Options{
			Libraries:  []media.Kind{kind},
			ExternalID: externalID,
		}
		if _, err := s.daemon.runner.Run(s.daemon.ctx, opts); err != nil {
			s.logger.Error("webhook run failed",
				logging.String("external_id", externalID),
				logging.Error(err))
		}
	}()
	s.writeJSON(w, http.StatusAccepted, map[string]string{"result": "scheduled"})
}

// handleWebhookSync runs a refresh inline, for manual use. Both query
// params are optional: no type runs every enabled library, no id runs
// without an external filter.
func (s *apiServer) handleWebhookSync(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("key") != s.daemon.cfg.Webhook.Key {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	var kinds []media.Kind
	switch strings.ToLower(strings.TrimSpace(r.URL.Query().Get("type"))) {
	case "":
	case "movie", "movies":
		kinds = []media.Kind{media.KindMovies}
	case "tv":
		kinds = []media.Kind{media.KindTV}
	default:
		http.Error(w, "type must be movies or tv", http.StatusBadRequest)
		return
	}

	opts := orchestrator.Options{
		Libraries:  kinds,
		ExternalID: strings.TrimSpace(r.URL.Query().Get("id")),
	}
	outcome, err := s.daemon.runner.Run(r.Context(), opts)
	if err != nil {
		s.writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
		return
	}
	published := 0
	for _, run := range outcome.Libraries {
		published += run.Published
	}
	s.writeJSON(w, http.StatusOK, map[string]string{
		"result":    "ok",
		"published": strconv.Itoa(published),
	})
}
