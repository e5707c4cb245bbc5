package httpserver

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"tenmunches/internal/app"
	"tenmunches/internal/domain"
)

// Queries is the read side served by the API.
type Queries interface {
	ListCategories(ctx context.Context) ([]domain.CategoryResult, error)
	GetCategory(ctx context.Context, name string) (domain.CategoryResult, error)
	Health(ctx context.Context) app.Health
}

// Trigger starts a background refresh.
type Trigger interface {
	Trigger(ctx context.Context) error
}

type Handlers struct {
	Q Queries
	R Trigger // optional; without it refresh requests get 503
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Route("/api", func(r chi.Router) {
		r.Get("/health", h.health)
		r.Get("/categories", h.listCategories)
		r.Get("/categories/{name}", h.getCategory)
		r.Post("/refresh", h.refresh)
	})
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return "", nil, err
	}
	sum := sha1.Sum(body)
	return `W/"` + hex.EncodeToString(sum[:]) + `"`, body, nil
}

// writeCached writes v with a weak ETag, answering 304 when the client
// already holds this version.
func writeCached(w http.ResponseWriter, r *http.Request, v any) {
	etag, body, err := calcETagAndBody(v)
	if err != nil {
		log.Error().Err(err).Msg("marshal response failed")
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "")
		return
	}
	w.Header().Set("ETag", etag)
	if etagMatches(r.Header.Values("If-None-Match"), etag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Str("path", r.URL.Path).Msg("write body failed")
	}
}

// etagMatches applies the weak comparison of If-None-Match: any listed tag,
// with or without the W/ prefix, or "*".
func etagMatches(headers []string, etag string) bool {
	want := strings.TrimPrefix(etag, "W/")
	for _, h := range headers {
		for _, tag := range strings.Split(h, ",") {
			tag = strings.TrimSpace(tag)
			if tag == "*" || (tag != "" && strings.TrimPrefix(tag, "W/") == want) {
				return true
			}
		}
	}
	return false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}

func (h *Handlers) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Q.Health(r.Context()))
}

func (h *Handlers) listCategories(w http.ResponseWriter, r *http.Request) {
	out, err := h.Q.ListCategories(r.Context())
	switch {
	case errors.Is(err, domain.ErrNoData):
		writeProblem(w, http.StatusServiceUnavailable, "No Data", "No data available. Run a refresh first.")
		return
	case err != nil:
		log.Error().Err(err).Msg("list categories failed")
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "")
		return
	}
	writeCached(w, r, out)
}

func (h *Handlers) getCategory(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(chi.URLParam(r, "name"))
	out, err := h.Q.GetCategory(r.Context(), name)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeProblem(w, http.StatusNotFound, "Not Found", fmt.Sprintf("Category '%s' not found", name))
		return
	case err != nil:
		log.Error().Err(err).Str("category", name).Msg("get category failed")
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "")
		return
	}
	writeCached(w, r, out)
}

func (h *Handlers) refresh(w http.ResponseWriter, r *http.Request) {
	if h.R == nil {
		writeProblem(w, http.StatusServiceUnavailable, "Refresh Disabled", "this instance cannot run refreshes")
		return
	}
	err := h.R.Trigger(r.Context())
	switch {
	case errors.Is(err, domain.ErrRefreshInProgress):
		writeProblem(w, http.StatusConflict, "Conflict", "A refresh is already running.")
		return
	case errors.Is(err, app.ErrSchedulerStopped):
		writeProblem(w, http.StatusServiceUnavailable, "Shutting Down", "the server is shutting down")
		return
	case err != nil:
		log.Error().Err(err).Msg("trigger refresh failed")
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", err.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted", "message": "Data refresh started"})
}
