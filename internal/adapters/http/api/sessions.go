package api

import (
	"context"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/okian/vigia/internal/domain/flow"
)

// SessionDependencies defines the interface for onboarding sessions.
type SessionDependencies interface {
	StartSession(ctx context.Context) (flow.Session, error)
	Session(ctx context.Context, id string) (flow.Session, []flow.EventType, error)
	Dispatch(ctx context.Context, id string, e flow.Event) (flow.Session, error)
	EndSession(ctx context.Context, id string) error
}

type eventRequest struct {
	Type          flow.EventType    `json:"type" validate:"required,oneof=get_started continue set_priorities select_politicians view_politician compare back open_settings close_settings"`
	Priorities    []priorityRequest `json:"priorities" validate:"omitempty,dive"`
	PoliticianIDs []string          `json:"politician_ids" validate:"omitempty,dive,required"`
	PoliticianID  string            `json:"politician_id" validate:"max=128"`
}

type sessionResponse struct {
	flow.Session
	Allowed []flow.EventType `json:"allowed_events"`
}

// SessionsHandler handles onboarding session requests.
type SessionsHandler struct {
	deps     SessionDependencies
	validate *validator.Validate
}

// NewSessionsHandler creates a new sessions handler.
func NewSessionsHandler(deps SessionDependencies, v *validator.Validate) *SessionsHandler {
	return &SessionsHandler{deps: deps, validate: v}
}

// HandleStart handles POST /sessions requests.
func (h *SessionsHandler) HandleStart(w http.ResponseWriter, r *http.Request) {
	const op = "api.start_session"
	s, err := h.deps.StartSession(r.Context())
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusCreated, sessionResponse{Session: s, Allowed: flow.Allowed(s)})
}

// HandleGet handles GET /sessions/{id} requests.
func (h *SessionsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_session"
	s, allowed, err := h.deps.Session(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{Session: s, Allowed: allowed})
}

// HandleDelete handles DELETE /sessions/{id} requests.
func (h *SessionsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	const op = "api.end_session"
	if err := h.deps.EndSession(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, op, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleEvent handles POST /sessions/{id}/events requests.
func (h *SessionsHandler) HandleEvent(w http.ResponseWriter, r *http.Request) {
	const op = "api.session_event"
	var req eventRequest
	if err := decode(w, r, h.validate, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	e := flow.Event{
		Type:          req.Type,
		PoliticianIDs: req.PoliticianIDs,
		PoliticianID:  req.PoliticianID,
	}
	if req.Priorities != nil {
		e.Priorities = toPriorities(req.Priorities)
	}
	s, err := h.deps.Dispatch(r.Context(), r.PathValue("id"), e)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{Session: s, Allowed: flow.Allowed(s)})
}
