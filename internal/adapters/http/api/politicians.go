package api

import (
	"context"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/okian/vigia/internal/domain/model"
)

// PoliticianDependencies defines the interface for politician operations.
type PoliticianDependencies interface {
	Politician(ctx context.Context, id string) (model.PoliticianView, error)
	PutPolitician(ctx context.Context, p model.Politician) error
}

type politicianRequest struct {
	Name     string `json:"name" validate:"required,max=200"`
	Party    string `json:"party" validate:"max=50"`
	Position string `json:"position" validate:"max=200"`
	Avatar   string `json:"avatar" validate:"omitempty,url"`
}

// PoliticiansHandler handles politician requests.
type PoliticiansHandler struct {
	deps     PoliticianDependencies
	validate *validator.Validate
}

// NewPoliticiansHandler creates a new politicians handler.
func NewPoliticiansHandler(deps PoliticianDependencies, v *validator.Validate) *PoliticiansHandler {
	return &PoliticiansHandler{deps: deps, validate: v}
}

// HandleGet handles GET /politicians/{id} requests.
func (h *PoliticiansHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_politician"
	view, err := h.deps.Politician(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// HandlePut handles PUT /politicians/{id} requests.
func (h *PoliticiansHandler) HandlePut(w http.ResponseWriter, r *http.Request) {
	const op = "api.put_politician"
	var req politicianRequest
	if err := decode(w, r, h.validate, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	p := model.Politician{
		ID:       r.PathValue("id"),
		Name:     req.Name,
		Party:    req.Party,
		Position: req.Position,
		Avatar:   req.Avatar,
	}
	if err := h.deps.PutPolitician(r.Context(), p); err != nil {
		writeServiceError(w, op, err)
		return
	}
	h.HandleGet(w, r)
}
