package api

import (
	"context"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/okian/vigia/internal/domain/model"
)

// PriorityDependencies defines the interface for priority operations.
type PriorityDependencies interface {
	SetPriorities(ctx context.Context, priorities []model.Priority) error
	Priorities(ctx context.Context) ([]model.Priority, uint64, error)
}

// priorityRequest mirrors the OpenAPI schema of a priority.
type priorityRequest struct {
	ID          string   `json:"id" validate:"required,max=64"`
	Name        string   `json:"name" validate:"max=200"`
	Description string   `json:"description" validate:"max=2000"`
	Weight      *float64 `json:"weight" validate:"required,gte=0"`
}

func (p priorityRequest) toModel() model.Priority {
	return model.Priority{ID: p.ID, Name: p.Name, Description: p.Description, Weight: *p.Weight}
}

func toPriorities(in []priorityRequest) []model.Priority {
	out := make([]model.Priority, len(in))
	for i := range in {
		out[i] = in[i].toModel()
	}
	return out
}

type prioritiesRequest struct {
	Priorities []priorityRequest `json:"priorities" validate:"required,dive"`
}

type prioritiesResponse struct {
	Version    uint64           `json:"version"`
	Priorities []model.Priority `json:"priorities"`
}

// PrioritiesHandler handles priority set requests.
type PrioritiesHandler struct {
	deps     PriorityDependencies
	validate *validator.Validate
}

// NewPrioritiesHandler creates a new priorities handler.
func NewPrioritiesHandler(deps PriorityDependencies, v *validator.Validate) *PrioritiesHandler {
	return &PrioritiesHandler{deps: deps, validate: v}
}

// HandleGet handles GET /priorities requests.
func (h *PrioritiesHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_priorities"
	prios, version, err := h.deps.Priorities(r.Context())
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, prioritiesResponse{Version: version, Priorities: prios})
}

// HandlePut handles PUT /priorities requests. The set is replaced as a whole.
func (h *PrioritiesHandler) HandlePut(w http.ResponseWriter, r *http.Request) {
	const op = "api.put_priorities"
	var req prioritiesRequest
	if err := decode(w, r, h.validate, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := h.deps.SetPriorities(r.Context(), toPriorities(req.Priorities)); err != nil {
		writeServiceError(w, op, err)
		return
	}
	h.HandleGet(w, r)
}
