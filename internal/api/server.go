package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/JakeFAU/weblink-inspector/internal/config"
	"github.com/JakeFAU/weblink-inspector/internal/metrics"
	"github.com/JakeFAU/weblink-inspector/internal/urlutil"
	"github.com/JakeFAU/weblink-inspector/internal/weblink"
)

// Inspector is the part of the inspection service the API needs.
type Inspector interface {
	Inspect(ctx context.Context, url string) weblink.Outcome
	History(ctx context.Context, url string) ([]weblink.Record, error)
	Latest(ctx context.Context, url string) (weblink.Record, error)
}

// ReadinessCheck reports whether a downstream dependency is usable.
type ReadinessCheck func(ctx context.Context) error

// Server wires HTTP handlers to the inspection service.
type Server struct {
	router    chi.Router
	inspector Inspector
	checks    map[string]ReadinessCheck
	logger    *zap.Logger
}

// NewServer constructs a Server with middleware and routes.
func NewServer(inspector Inspector, cfg config.Config, logger *zap.Logger, checks map[string]ReadinessCheck) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		inspector: inspector,
		checks:    checks,
		logger:    logger,
	}
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(logger))
	r.Use(recoverMiddleware(logger))
	r.Use(metrics.Middleware)
	r.Use(timeoutMiddleware(60 * time.Second))

	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/v1", func(r chi.Router) {
		if cfg.Auth.Enabled {
			r.Use(apiKeyMiddleware(cfg.Auth.APIKey))
		}
		r.Post("/inspections", s.createInspection)
		r.Get("/weblinks", s.listWebLinks)
		r.Get("/weblinks/latest", s.latestWebLink)
	})

	s.router = r
	return s
}

// Handler returns the Router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	failures := map[string]string{}
	for name, check := range s.checks {
		if err := check(ctx); err != nil {
			failures[name] = err.Error()
		}
	}
	if len(failures) > 0 {
		s.logger.Warn("readiness check failed", zap.Any("failures", failures))
		s.writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "unavailable", "failures": failures})
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

type inspectionRequest struct {
	URL  string `json:"url"`
	Base string `json:"base"`
}

func (s *Server) createInspection(w http.ResponseWriter, r *http.Request) {
	var req inspectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	target, err := resolveTarget(req.URL, req.Base)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	outcome := s.inspector.Inspect(r.Context(), target)
	status := http.StatusCreated
	if !outcome.Success {
		status = http.StatusUnprocessableEntity
	}
	s.writeJSON(w, status, outcome)
}

func (s *Server) listWebLinks(w http.ResponseWriter, r *http.Request) {
	target, err := resolveTarget(r.URL.Query().Get("url"), "")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	records, err := s.inspector.History(r.Context(), target)
	if err != nil {
		s.logger.Error("load history failed", zap.String("url", target), zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "failed to load weblinks")
		return
	}
	if records == nil {
		records = []weblink.Record{}
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"url": target, "records": records})
}

func (s *Server) latestWebLink(w http.ResponseWriter, r *http.Request) {
	target, err := resolveTarget(r.URL.Query().Get("url"), "")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	record, err := s.inspector.Latest(r.Context(), target)
	switch {
	case errors.Is(err, weblink.ErrNotFound):
		s.writeError(w, http.StatusNotFound, "weblink not found")
	case err != nil:
		s.logger.Error("load latest failed", zap.String("url", target), zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "failed to load weblink")
	default:
		s.writeJSON(w, http.StatusOK, record)
	}
}

// resolveTarget applies the optional base and checks the result is an
// absolute http(s) URL. The stored URL is the resolved string, not its
// normalized form.
func resolveTarget(raw, base string) (string, error) {
	if raw == "" {
		return "", errors.New("url required")
	}
	target := raw
	if base != "" {
		fixed, err := urlutil.FixURL(base, raw)
		if err != nil {
			return "", fmt.Errorf("resolve url: %w", err)
		}
		target = fixed
	}
	normalized, err := urlutil.NormalizeURL(target)
	if err != nil {
		return "", err
	}
	u, err := url.Parse(normalized)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("url %q must be an absolute http(s) URL", target)
	}
	return target, nil
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("write JSON failed", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}
