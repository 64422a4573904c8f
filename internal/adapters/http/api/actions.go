package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/okian/vigia/internal/domain/model"
)

// ActionDependencies defines the interface for action ingestion.
type ActionDependencies interface {
	// AppendAction records synchronously; false means an identical action
	// was already recorded.
	AppendAction(ctx context.Context, a model.Action) (bool, error)
	// Enqueue hands the action to the ingestion workers.
	Enqueue(ctx context.Context, a model.Action) error
}

// actionRequest mirrors the OpenAPI schema for POST /actions.
type actionRequest struct {
	ID           string   `json:"id" validate:"required,max=128"`
	PoliticianID string   `json:"politician_id" validate:"required,max=128"`
	Title        string   `json:"title" validate:"max=500"`
	Description  string   `json:"description" validate:"max=5000"`
	Date         string   `json:"date" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
	Category     string   `json:"category" validate:"required,max=128"`
	Impact       *float64 `json:"impact" validate:"required"`
	Source       string   `json:"source" validate:"max=500"`
}

func (a *actionRequest) toModel() (model.Action, error) {
	date, err := time.Parse(time.RFC3339, a.Date)
	if err != nil {
		return model.Action{}, err
	}
	return model.Action{
		ID:           a.ID,
		PoliticianID: a.PoliticianID,
		Title:        a.Title,
		Description:  a.Description,
		Date:         date,
		Category:     a.Category,
		Impact:       *a.Impact,
		Source:       a.Source,
	}, nil
}

type ackResponse struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

// ActionsHandler handles action requests.
type ActionsHandler struct {
	deps     ActionDependencies
	validate *validator.Validate
}

// NewActionsHandler creates a new actions handler.
func NewActionsHandler(deps ActionDependencies, v *validator.Validate) *ActionsHandler {
	return &ActionsHandler{deps: deps, validate: v}
}

func (h *ActionsHandler) read(w http.ResponseWriter, r *http.Request, op string) (model.Action, bool) {
	var req actionRequest
	if err := decode(w, r, h.validate, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return model.Action{}, false
	}
	a, err := req.toModel()
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return model.Action{}, false
	}
	return a, true
}

// HandlePost handles POST /actions requests.
func (h *ActionsHandler) HandlePost(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_action"
	a, ok := h.read(w, r, op)
	if !ok {
		return
	}
	added, err := h.deps.AppendAction(r.Context(), a)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	if !added {
		writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", Duplicate: true})
		return
	}
	writeJSON(w, http.StatusCreated, ackResponse{Status: "recorded"})
}

// HandlePostAsync handles POST /actions/async requests.
func (h *ActionsHandler) HandlePostAsync(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_action_async"
	a, ok := h.read(w, r, op)
	if !ok {
		return
	}
	if err := h.deps.Enqueue(r.Context(), a); err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted"})
}
