// Package httpapi exposes the engine over HTTP for the viewer
// integration and the CLI client commands.
package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/carjohnson/annosync/internal/core/completion"
	"github.com/carjohnson/annosync/internal/ctxutil"
	"github.com/carjohnson/annosync/internal/ports/primary"
	"github.com/carjohnson/annosync/internal/version"
)

// Router serves the engine's HTTP surface.
type Router struct {
	syncSvc       primary.SyncService
	completionSvc primary.CompletionService
	activitySvc   primary.ActivityService
}

// NewRouter builds the HTTP handler. allowedOrigins feeds the CORS
// layer; an empty list allows any origin, for single-host deployments.
func NewRouter(syncSvc primary.SyncService, completionSvc primary.CompletionService, activitySvc primary.ActivityService, allowedOrigins []string) http.Handler {
	r := &Router{
		syncSvc:       syncSvc,
		completionSvc: completionSvc,
		activitySvc:   activitySvc,
	}

	origins := allowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	mux := chi.NewRouter()
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Annosync-User", "X-Annosync-Role"},
		MaxAge:         300,
	}))
	mux.Use(correlationID)
	mux.Use(callerFromHeaders)

	mux.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok", "version": version.String()})
	})
	mux.Handle("/metrics", promhttp.Handler())

	mux.Route("/v1", func(rt chi.Router) {
		rt.Post("/events", r.wrap(r.handleEvents))
		rt.Post("/flush", r.wrap(r.handleFlush))
		rt.Get("/status", r.wrap(r.handleStatus))
		rt.Post("/series/{uid}/complete", r.wrap(r.handleCompleteSeries))
		rt.Post("/series/{uid}/activate", r.wrap(r.handleActivateSeries))
		rt.Post("/study/complete", r.wrap(r.handleCompleteStudy))
		rt.Get("/activity", r.wrap(r.handleActivity))
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

// httpError carries a status code chosen by the handler; bare errors
// from the services default to 500.
type httpError struct {
	status int
	err    error
}

func (e *httpError) Error() string {
	return e.err.Error()
}

func (e *httpError) Unwrap() error {
	return e.err
}

func badRequest(err error) error {
	return &httpError{status: http.StatusBadRequest, err: err}
}

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if err := h(w, req); err != nil {
			status := http.StatusInternalServerError
			var he *httpError
			var denied *completion.DeniedError
			switch {
			case errors.As(err, &he):
				status = he.status
			case errors.As(err, &denied):
				status = http.StatusForbidden
			}
			writeJSON(w, status, map[string]string{"error": err.Error()})
		}
	}
}

// correlationID stamps every response with a request identifier so log
// lines on both sides of the wire can be matched up.
func correlationID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		id := req.Header.Get("X-Correlation-Id")
		if id == "" {
			id = uuid.New().String()
		}
		w.Header().Set("X-Correlation-Id", id)
		next.ServeHTTP(w, req)
	})
}

// callerFromHeaders lifts the request's caller identity into the
// context, where the services resolve it ahead of the configured
// workspace identity.
func callerFromHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		username := req.Header.Get("X-Annosync-User")
		if username != "" {
			role := req.Header.Get("X-Annosync-Role")
			ctx := ctxutil.WithActor(req.Context(), ctxutil.Actor{Username: username, Role: role})
			req = req.WithContext(ctx)
		}
		next.ServeHTTP(w, req)
	})
}

type eventsRequest struct {
	Changes []primary.ChangeNotification `json:"changes"`
}

// POST /v1/events
func (r *Router) handleEvents(w http.ResponseWriter, req *http.Request) error {
	var body eventsRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return badRequest(fmt.Errorf("invalid request body: %w", err))
	}
	if len(body.Changes) == 0 {
		return badRequest(fmt.Errorf("changes must not be empty"))
	}
	if err := r.syncSvc.OnChange(req.Context(), body.Changes); err != nil {
		return err
	}
	writeJSON(w, http.StatusAccepted, map[string]int{"accepted": len(body.Changes)})
	return nil
}

// POST /v1/flush
func (r *Router) handleFlush(w http.ResponseWriter, req *http.Request) error {
	if err := r.syncSvc.Flush(req.Context()); err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "flushed"})
	return nil
}

// GET /v1/status
func (r *Router) handleStatus(w http.ResponseWriter, req *http.Request) error {
	status, err := r.syncSvc.Status(req.Context())
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, status)
	return nil
}

// POST /v1/series/{uid}/complete
func (r *Router) handleCompleteSeries(w http.ResponseWriter, req *http.Request) error {
	resp, err := r.completionSvc.CompleteSeries(req.Context(), primary.CompleteSeriesRequest{
		SeriesUID: chi.URLParam(req, "uid"),
	})
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, resp)
	return nil
}

// POST /v1/series/{uid}/activate
func (r *Router) handleActivateSeries(w http.ResponseWriter, req *http.Request) error {
	if err := r.completionSvc.SetActiveSeries(req.Context(), chi.URLParam(req, "uid")); err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "active"})
	return nil
}

// POST /v1/study/complete
func (r *Router) handleCompleteStudy(w http.ResponseWriter, req *http.Request) error {
	var body primary.CompleteStudyRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return badRequest(fmt.Errorf("invalid request body: %w", err))
	}
	resp, err := r.completionSvc.CompleteStudy(req.Context(), body)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, resp)
	return nil
}

// GET /v1/activity?limit=
func (r *Router) handleActivity(w http.ResponseWriter, req *http.Request) error {
	limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))
	records, err := r.activitySvc.Recent(req.Context(), limit)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, records)
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
