package httpserver

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/google/uuid"

	"github.com/bryanwahyu/automaton-review/internal/application/dispatch"
	"github.com/bryanwahyu/automaton-review/internal/domain/analysis"
	"github.com/bryanwahyu/automaton-review/internal/middleware"
)

type Router struct {
	svc *dispatch.Service
}

func NewRouter(svc *dispatch.Service, checkers map[string]middleware.HealthChecker) http.Handler {
	r := &Router{svc: svc}
	mux := chi.NewRouter()

	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
	}))
	mux.Use(middleware.LoggingMiddleware)
	mux.Use(middleware.MetricsMiddleware)

	mux.Get("/livez", middleware.LivenessHandler)
	mux.Get("/health", middleware.HealthHandler(checkers))
	mux.Get("/metrics", middleware.MetricsHandler)

	mux.Post("/v1/invoke", r.handleInvoke)

	return mux
}

// POST /v1/invoke
// Body: one invocation request; its shape picks the path (event-sourced file
// analysis, direct prompt analysis, or the static status reply). The reply is
// always 200 with an envelope; the envelope status is the failure signal.
func (r *Router) handleInvoke(w http.ResponseWriter, req *http.Request) {
	requestID := req.Header.Get("X-Request-Id")
	if requestID == "" {
		requestID = uuid.New().String()
	}

	var body analysis.Request
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, dispatch.Envelope{
			Status:    dispatch.StatusError,
			Message:   fmt.Sprintf("invalid request body: %v", err),
			RequestID: requestID,
		})
		return
	}

	switch body.Kind() {
	case analysis.KindFileAnalysis:
		middleware.IncrementFileAnalyses()
	case analysis.KindPromptAnalysis:
		middleware.IncrementPromptAnalyses()
	}

	env := r.svc.Dispatch(req.Context(), body, requestID)

	if env.Status == dispatch.StatusError {
		middleware.IncrementAnalysesFailed()
	} else {
		middleware.IncrementAnalysesSuccess()
	}

	writeJSON(w, http.StatusOK, env)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
