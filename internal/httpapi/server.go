package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/netip"
	"sort"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/EugeneVC/web-monitor/internal/domain"
	apimw "github.com/EugeneVC/web-monitor/internal/httpapi/middleware"
	"github.com/EugeneVC/web-monitor/internal/repo"
)

// Options configures the dashboard router.
type Options struct {
	APIKeys        []string // empty allows all readers
	AllowedOrigins []string // empty allows any origin
	TrustedProxies []netip.Prefix
	RPM            int
	Burst          int
}

// RecordFinder looks one record up in durable storage. It returns nil, nil
// for an unknown id.
type RecordFinder interface {
	Get(ctx context.Context, id string) (*domain.LogRecord, error)
}

// RecentLister reads the records held by a shared store, newest first.
type RecentLister interface {
	Recent(ctx context.Context) ([]domain.LogRecord, error)
}

// Server is the read-only dashboard over the recent-records buffer.
type Server struct {
	Logger  *zap.Logger
	Records repo.RecordReader
	Sites   []domain.Site
	Metrics http.Handler // optional

	// Archive backs /api/records/{id} for records no longer in the buffer.
	Archive RecordFinder
	// Sources are extra record sets selectable with ?source=name.
	Sources map[string]RecentLister
}

func NewServer(l *zap.Logger, records repo.RecordReader, sites []domain.Site, metrics http.Handler) *Server {
	return &Server{Logger: l, Records: records, Sites: sites, Metrics: metrics}
}

func (s *Server) Router(opts Options) http.Handler {
	r := chi.NewRouter()
	if len(opts.AllowedOrigins) == 0 {
		r.Use(cors.AllowAll().Handler)
	} else {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: opts.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodOptions},
			AllowedHeaders: []string{"Authorization", "X-API-Key"},
		}))
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if s.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.Metrics)
	}

	r.Group(func(r chi.Router) {
		r.Use(apimw.RateLimit(opts.RPM, opts.Burst, opts.TrustedProxies))
		r.Use(apimw.RequireKey(opts.APIKeys))

		r.Get("/", s.handleText)
		r.Get("/api/records", s.handleRecords)
		r.Get("/api/records/{id}", s.handleRecord)
		r.Get("/api/sites", s.handleSites)
	})

	return r
}

type recordsResponse struct {
	Size     int                `json:"size"`
	Capacity int                `json:"capacity,omitempty"`
	Records  []domain.LogRecord `json:"records"`
}

func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request) {
	recs, status, err := s.filtered(r)
	if err != nil {
		http.Error(w, err.Error(), status)
		return
	}
	resp := recordsResponse{Size: len(recs), Records: recs}
	if c, ok := s.Records.(interface{ Cap() int }); ok && isMemorySource(r) {
		resp.Capacity = c.Cap()
	}
	writeJSON(w, s.Logger, resp)
}

// handleRecord serves one record from the buffer, falling back to the archive.
func (s *Server) handleRecord(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	for _, rec := range s.Records.Items() {
		if rec.ID == id {
			writeJSON(w, s.Logger, rec)
			return
		}
	}
	if s.Archive != nil {
		rec, err := s.Archive.Get(r.Context(), id)
		if err != nil {
			s.Logger.Warn("api_archive_error", zap.String("id", id), zap.Error(err))
			http.Error(w, "archive unavailable", http.StatusBadGateway)
			return
		}
		if rec != nil {
			writeJSON(w, s.Logger, rec)
			return
		}
	}
	http.Error(w, "record not found", http.StatusNotFound)
}

// handleText renders the snapshot in the record log line format.
func (s *Server) handleText(w http.ResponseWriter, r *http.Request) {
	recs, status, err := s.filtered(r)
	if err != nil {
		http.Error(w, err.Error(), status)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	for _, rec := range recs {
		fmt.Fprintln(w, rec.String())
	}
}

func (s *Server) handleSites(w http.ResponseWriter, r *http.Request) {
	out := s.Sites
	if out == nil {
		out = []domain.Site{}
	}
	writeJSON(w, s.Logger, out)
}

// filtered applies the optional ?name= and ?limit= query parameters to a
// fresh snapshot of the selected ?source= (the in-memory buffer by default).
// On error it also returns the HTTP status to answer with.
func (s *Server) filtered(r *http.Request) ([]domain.LogRecord, int, error) {
	var recs []domain.LogRecord
	if isMemorySource(r) {
		recs = s.Records.Items()
	} else {
		name := r.URL.Query().Get("source")
		src, ok := s.Sources[name]
		if !ok {
			return nil, http.StatusBadRequest, fmt.Errorf("unknown source %q (have %s)", name, strings.Join(s.sourceNames(), ", "))
		}
		var err error
		if recs, err = src.Recent(r.Context()); err != nil {
			s.Logger.Warn("api_source_error", zap.String("source", name), zap.Error(err))
			return nil, http.StatusBadGateway, fmt.Errorf("source %q unavailable", name)
		}
	}

	if name := r.URL.Query().Get("name"); name != "" {
		kept := recs[:0]
		for _, rec := range recs {
			if rec.Name == name {
				kept = append(kept, rec)
			}
		}
		recs = kept
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return nil, http.StatusBadRequest, fmt.Errorf("invalid limit %q", v)
		}
		if n < len(recs) {
			recs = recs[:n]
		}
	}
	return recs, http.StatusOK, nil
}

func isMemorySource(r *http.Request) bool {
	src := r.URL.Query().Get("source")
	return src == "" || src == "memory"
}

func (s *Server) sourceNames() []string {
	names := []string{"memory"}
	for name := range s.Sources {
		names = append(names, name)
	}
	sort.Strings(names[1:])
	return names
}

func writeJSON(w http.ResponseWriter, log *zap.Logger, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn("api_encode_error", zap.Error(err))
	}
}
