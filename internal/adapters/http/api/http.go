// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	eventqueue "github.com/okian/vigia/internal/adapters/mq/queue"
	repository "github.com/okian/vigia/internal/adapters/repository"
	"github.com/okian/vigia/internal/domain/flow"
	"github.com/okian/vigia/internal/domain/model"
	"github.com/okian/vigia/internal/domain/types"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	PriorityDependencies
	ActionDependencies
	PoliticianDependencies
	RankingDependencies
	SessionDependencies
}

// Entry mirrors the read shape returned by ranking queries.
type Entry = types.Entry

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	prioritiesHandler  *PrioritiesHandler
	actionsHandler     *ActionsHandler
	politiciansHandler *PoliticiansHandler
	rankingHandler     *RankingHandler
	sessionsHandler    *SessionsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	v := newValidator()
	return &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(statsProvider),
		prioritiesHandler:  NewPrioritiesHandler(deps, v),
		actionsHandler:     NewActionsHandler(deps, v),
		politiciansHandler: NewPoliticiansHandler(deps, v),
		rankingHandler:     NewRankingHandler(deps),
		sessionsHandler:    NewSessionsHandler(deps, v),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	mux.HandleFunc("GET /priorities", MetricsMiddleware(s.prioritiesHandler.HandleGet, "priorities"))
	mux.HandleFunc("PUT /priorities", MetricsMiddleware(s.prioritiesHandler.HandlePut, "priorities"))

	mux.HandleFunc("POST /actions", MetricsMiddleware(s.actionsHandler.HandlePost, "actions"))
	mux.HandleFunc("POST /actions/async", MetricsMiddleware(s.actionsHandler.HandlePostAsync, "actions_async"))

	mux.HandleFunc("GET /politicians/{id}", MetricsMiddleware(s.politiciansHandler.HandleGet, "politicians"))
	mux.HandleFunc("PUT /politicians/{id}", MetricsMiddleware(s.politiciansHandler.HandlePut, "politicians"))

	mux.HandleFunc("GET /ranking", MetricsMiddleware(s.rankingHandler.HandleRanking, "ranking"))
	mux.HandleFunc("GET /compare", MetricsMiddleware(s.rankingHandler.HandleCompare, "compare"))

	mux.HandleFunc("POST /sessions", MetricsMiddleware(s.sessionsHandler.HandleStart, "sessions"))
	mux.HandleFunc("GET /sessions/{id}", MetricsMiddleware(s.sessionsHandler.HandleGet, "sessions"))
	mux.HandleFunc("DELETE /sessions/{id}", MetricsMiddleware(s.sessionsHandler.HandleDelete, "sessions"))
	mux.HandleFunc("POST /sessions/{id}/events", MetricsMiddleware(s.sessionsHandler.HandleEvent, "session_events"))
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// report json names in validation messages
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// decode reads a JSON body into dst and validates it.
func decode(w http.ResponseWriter, r *http.Request, v *validator.Validate, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	if err := v.Struct(dst); err != nil {
		return validationMessage(err)
	}
	return nil
}

// validationMessage flattens validator errors into one readable error.
func validationMessage(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		_, field, _ := strings.Cut(fe.Namespace(), ".")
		if fe.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s: %s=%s", field, fe.Tag(), fe.Param()))
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %s", field, fe.Tag()))
	}
	return errors.New(strings.Join(parts, "; "))
}

// writeServiceError translates domain errors to HTTP statuses.
func writeServiceError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, model.ErrValidation):
		writeError(w, http.StatusBadRequest, "validation_failed", WrapKind(op, ErrBadRequest, err))
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", Wrap(op, err))
	case errors.Is(err, flow.ErrUnknownSession):
		writeError(w, http.StatusNotFound, "unknown_session", Wrap(op, err))
	case errors.Is(err, flow.ErrInvalidTransition):
		writeError(w, http.StatusConflict, "invalid_transition", Wrap(op, err))
	case errors.Is(err, eventqueue.ErrFull):
		writeError(w, http.StatusTooManyRequests, "backpressure", WrapKind(op, ErrBackpressure, err))
	case errors.Is(err, eventqueue.ErrClosed):
		writeError(w, http.StatusServiceUnavailable, "unavailable", Wrap(op, err))
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
	}
}
