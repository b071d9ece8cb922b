package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"grabarr/internal/config"
	"grabarr/internal/logging"
	"grabarr/internal/torznab"
)

type apiServer struct {
	bind   string
	logger *slog.Logger
	daemon *Daemon

	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) *apiServer {
	srv := &apiServer{
		bind:   strings.TrimSpace(cfg.Paths.APIBind),
		logger: logger,
		daemon: d,
	}
	srv.server = &http.Server{
		Handler:           srv.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv
}

func (s *apiServer) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/status", s.handleStatus)
	mux.HandleFunc("/api", s.handleTorznab)
	mux.HandleFunc("/webhook", s.handleWebhook)
	return mux
}

func (s *apiServer) start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()
	s.logger.Info("api server listening",
		logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

func (s *apiServer) addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *apiServer) handleTorznab(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	renderer := s.daemon.renderer
	if r.URL.Query().Get("apikey") != s.daemon.cfg.Feed.APIKey {
		s.writeXMLError(w, torznab.CodeAPIDisabled, "incorrect api key")
		return
	}
	query, err := torznab.ParseQuery(r.URL.Query())
	if err != nil {
		s.writeXMLError(w, torznab.CodeMissingParameter, err.Error())
		return
	}

	var body []byte
	switch query.Mode {
	case torznab.ModeCaps:
		body, err = renderer.Caps()
	case torznab.ModeSearch, torznab.ModeTV, torznab.ModeMovie, torznab.ModeDetails:
		records := torznab.Select(s.daemon.store.Load(), query, renderer.Categories())
		if query.Mode == torznab.ModeDetails && len(records) == 0 {
			s.writeXMLError(w, torznab.CodeNoSuchItem, "no such item")
			return
		}
		body, err = renderer.RSS(records, query.Offset, query.Limit)
	default:
		s.writeXMLError(w, torznab.CodeUnknownFunction, "unknown function "+query.Mode)
		return
	}
	if err != nil {
		s.logger.Error("torznab render failed", logging.Error(err))
		s.writeXMLError(w, torznab.CodeUnknownError, "internal error")
		return
	}
	s.writeXML(w, http.StatusOK, body)
}

func (s *apiServer) writeXML(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func (s *apiServer) writeXMLError(w http.ResponseWriter, code int, description string) {
	body, err := s.daemon.renderer.Error(code, description)
	if err != nil {
		http.Error(w, description, http.StatusInternalServerError)
		return
	}
	s.writeXML(w, http.StatusOK, body)
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("encode response", logging.Error(err))
	}
}
