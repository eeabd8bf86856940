package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"herald/internal/api"
	"herald/internal/config"
	"herald/internal/emitter"
	"herald/internal/event"
	"herald/internal/logging"
	"herald/internal/store"
)

type apiServer struct {
	bind   string
	logger *slog.Logger
	daemon *Daemon

	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) (*apiServer, error) {
	if cfg == nil || d == nil {
		return nil, nil
	}
	bind := strings.TrimSpace(cfg.Paths.APIBind)
	if bind == "" {
		return nil, nil
	}

	srv := &apiServer{bind: bind, logger: logger, daemon: d}

	router := chi.NewRouter()
	router.Use(authMiddleware(cfg.Paths.APIToken))
	router.Get("/api/health", srv.handleHealth)
	router.Get("/api/status", srv.handleStatus)
	router.Get("/api/notifications", srv.handleList)
	router.Get("/api/notifications/{id}", srv.handleGet)
	router.Post("/api/notifications/{id}/seen", srv.handleSeen)
	router.Post("/api/notifications/{id}/unseen", srv.handleUnseen)
	router.Post("/api/notifications/{id}/agent", srv.handleAgentStatus)
	router.Post("/api/notifications/{id}/resolve", srv.handleResolve)
	router.Post("/api/emit", srv.handleEmit)

	srv.server = &http.Server{
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv, nil
}

func (s *apiServer) start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log().Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.log().Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	if s == nil || s.server == nil {
		return
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = s.server.Shutdown(shutdownCtx)
}

func (s *apiServer) log() *slog.Logger {
	if s.logger != nil {
		return s.logger
	}
	return logging.NewNop()
}

// authMiddleware validates bearer tokens. An empty token disables
// authentication entirely.
func authMiddleware(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if token == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") || strings.TrimPrefix(auth, "Bearer ") != token {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (s *apiServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.daemon.Status(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *apiServer) handleList(w http.ResponseWriter, r *http.Request) {
	filter, err := filterFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	notifications, err := s.daemon.service.List(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"notifications": notifications})
}

func (s *apiServer) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	notification, err := s.daemon.service.Describe(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, notification)
}

func (s *apiServer) handleSeen(w http.ResponseWriter, r *http.Request) {
	s.setHumanStatus(w, r, store.HumanSeen)
}

func (s *apiServer) handleUnseen(w http.ResponseWriter, r *http.Request) {
	s.setHumanStatus(w, r, store.HumanUnseen)
}

func (s *apiServer) setHumanStatus(w http.ResponseWriter, r *http.Request, status store.HumanStatus) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	notification, err := s.daemon.service.SetHumanStatus(r.Context(), id, status)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, notification)
}

func (s *apiServer) handleAgentStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var body struct {
		Status  string `json:"status"`
		AgentID string `json:"agentId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	status := store.AgentStatus(body.Status)
	if !store.ValidAgentStatus(status) {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid agent status %q", body.Status))
		return
	}
	notification, err := s.daemon.service.SetAgentStatus(r.Context(), id, status, body.AgentID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, notification)
}

func (s *apiServer) handleResolve(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var body struct {
		Resolution event.Payload `json:"resolution"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	notification, err := s.daemon.service.Resolve(r.Context(), id, body.Resolution)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, notification)
}

func (s *apiServer) handleEmit(w http.ResponseWriter, r *http.Request) {
	if s.daemon.emitter == nil {
		writeError(w, http.StatusServiceUnavailable, "emitter not configured")
		return
	}
	var body struct {
		Type        string        `json:"type"`
		Source      string        `json:"source"`
		Level       string        `json:"level"`
		Domain      string        `json:"domain"`
		Entity      string        `json:"entity"`
		Description string        `json:"description"`
		Visibility  string        `json:"visibility"`
		Payload     event.Payload `json:"payload"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	evt := emitter.Event{
		Type:        body.Type,
		Source:      body.Source,
		Domain:      body.Domain,
		Entity:      body.Entity,
		Description: body.Description,
		Visibility:  event.Visibility(body.Visibility),
		Payload:     body.Payload,
	}
	if body.Level != "" {
		level, err := event.ParseLevel(body.Level)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		evt.Level = level
	}

	entryID, err := s.daemon.emitter.Emit(r.Context(), evt)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"entryId": entryID})
}

func filterFromQuery(r *http.Request) (store.Filter, error) {
	query := r.URL.Query()
	filter := store.Filter{
		EventType:   query.Get("event_type"),
		Domain:      query.Get("domain"),
		HumanStatus: store.HumanStatus(query.Get("human_status")),
		AgentStatus: store.AgentStatus(query.Get("agent_status")),
		Visibility:  event.Visibility(query.Get("visibility")),
	}
	if raw := query.Get("level"); raw != "" {
		level, err := event.ParseLevel(raw)
		if err != nil {
			return store.Filter{}, err
		}
		filter.Level = level
	}
	if raw := query.Get("since"); raw != "" {
		since, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return store.Filter{}, fmt.Errorf("invalid since %q", raw)
		}
		filter.Since = since
	}
	if raw := query.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return store.Filter{}, fmt.Errorf("invalid limit %q", raw)
		}
		filter.Limit = limit
	}
	if raw := query.Get("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			return store.Filter{}, fmt.Errorf("invalid offset %q", raw)
		}
		filter.Offset = offset
	}
	return filter, nil
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid notification id")
		return 0, false
	}
	return id, true
}

func writeServiceError(w http.ResponseWriter, err error) {
	if api.IsNotFound(err) {
		writeError(w, http.StatusNotFound, "notification not found")
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
