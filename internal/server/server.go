package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"feedmaker/feed"
	"feedmaker/internal/builder"
	"feedmaker/internal/config"
	"feedmaker/internal/db"
	"feedmaker/internal/logger"
	"feedmaker/internal/metrics"
	"feedmaker/internal/models"
)

const (
	rssContentType  = "application/rss+xml"
	atomContentType = "application/atom+xml"
	jsonContentType = "application/feed+json"

	maxListLimit = 100
)

// Server хранит зависимости HTTP-обработчиков: хранилище, каналы и метрики.
type Server struct {
	store    db.Store
	channels []config.ChannelConfig
	metrics  *metrics.Metrics

	// Clock задаёт время сборки лент; nil означает time.Now.
	Clock feed.Clock
	// Rebuild, если задан, вызывается после добавления записи.
	Rebuild func(ctx context.Context, channel string) error
}

// NewServer создаёт новый экземпляр Server.
func NewServer(store db.Store, channels []config.ChannelConfig, m *metrics.Metrics) *Server {
	return &Server{store: store, channels: channels, metrics: m}
}

// Routes возвращает обработчик со всеми маршрутами и middleware.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.HealthCheck)
	mux.Handle("GET /metrics", s.metrics.Handler())
	mux.HandleFunc("GET /feeds/{channel}/rss", s.GetRSS)
	mux.HandleFunc("GET /feeds/{channel}/atom", s.GetAtom)
	mux.HandleFunc("GET /feeds/{channel}/json", s.GetJSON)
	mux.HandleFunc("GET /api/channels/{channel}/entries", s.ListEntries)
	mux.HandleFunc("POST /api/channels/{channel}/entries", s.CreateEntry)

	return RequestIDMiddleware(LoggingMiddleware(mux))
}

// HealthCheck отвечает 200 OK, если хранилище доступно, иначе 503.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		http.Error(w, "DB unavailable", http.StatusServiceUnavailable)
		return
	}
	w.Write([]byte("OK"))
}

// GetRSS отдаёт ленту канала в формате RSS 2.0.
func (s *Server) GetRSS(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ch, f, ok := s.buildFeed(w, r)
	if !ok {
		return
	}
	if err := f.Emit(w, rssContentType); err != nil {
		s.log(r).Errorf("Emit failed: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.metrics.ObserveRender(ch.Name, "rss", start)
}

// GetAtom отдаёт ленту канала в формате Atom.
func (s *Server) GetAtom(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "atom", atomContentType, builder.Atom)
}

// GetJSON отдаёт ленту канала в формате JSON Feed.
func (s *Server) GetJSON(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "json", jsonContentType, builder.JSON)
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, format, contentType string, encode func(*feed.Feed) (string, error)) {
	start := time.Now()
	ch, f, ok := s.buildFeed(w, r)
	if !ok {
		return
	}
	body, err := encode(f)
	if err != nil {
		s.log(r).Errorf("Render %s failed: %v", format, err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Write([]byte(body))
	s.metrics.ObserveRender(ch.Name, format, start)
}

func (s *Server) buildFeed(w http.ResponseWriter, r *http.Request) (config.ChannelConfig, *feed.Feed, bool) {
	ch, ok := s.channel(w, r)
	if !ok {
		return ch, nil, false
	}

	entries, err := s.store.ListEntries(r.Context(), ch.Name, ch.ItemLimit())
	if err != nil {
		s.log(r).Errorf("List entries failed: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return ch, nil, false
	}

	f, err := builder.Build(ch, entries, s.Clock)
	if err != nil {
		s.log(r).Errorf("Build feed failed: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return ch, nil, false
	}
	return ch, f, true
}

// ListEntries возвращает JSON-массив последних limit записей канала.
func (s *Server) ListEntries(w http.ResponseWriter, r *http.Request) {
	ch, ok := s.channel(w, r)
	if !ok {
		return
	}

	limit := ch.ItemLimit()
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			http.Error(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		limit = min(n, maxListLimit)
	}

	entries, err := s.store.ListEntries(r.Context(), ch.Name, limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []models.Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// CreateEntry сохраняет запись из тела запроса и отвечает 201 с сохранённой записью.
func (s *Server) CreateEntry(w http.ResponseWriter, r *http.Request) {
	ch, ok := s.channel(w, r)
	if !ok {
		return
	}

	var e models.Entry
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&e); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	e.Channel = ch.Name
	if err := e.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	e.Prepare(s.now())
	if err := s.store.SaveEntry(r.Context(), &e); err != nil {
		s.log(r).Errorf("Save entry failed: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.metrics.EntriesCreated.WithLabelValues(ch.Name).Inc()

	if s.Rebuild != nil {
		if err := s.Rebuild(r.Context(), ch.Name); err != nil {
			s.log(r).Warnf("Rebuild request failed: %v", err)
		}
	}
	writeJSON(w, http.StatusCreated, e)
}

func (s *Server) channel(w http.ResponseWriter, r *http.Request) (config.ChannelConfig, bool) {
	name := r.PathValue("channel")
	for _, ch := range s.channels {
		if ch.Name == name {
			return ch, true
		}
	}
	http.Error(w, "Channel not found", http.StatusNotFound)
	return config.ChannelConfig{}, false
}

func (s *Server) now() time.Time {
	if s.Clock != nil {
		return s.Clock()
	}
	return time.Now()
}

func (s *Server) log(r *http.Request) *logger.Entry {
	return logger.Component("server").WithField("request_id", RequestID(r.Context()))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Log.Errorf("Failed to encode response: %v", err)
	}
}
