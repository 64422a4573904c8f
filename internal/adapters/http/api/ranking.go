package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/okian/vigia/internal/domain/types"
)

// maxRankIDs bounds the ids accepted by one ranking request.
const maxRankIDs = 500

// RankingDependencies defines the interface for ranking and comparison.
type RankingDependencies interface {
	Rank(ctx context.Context, ids []string) ([]Entry, error)
	Compare(ctx context.Context, a, b string) (types.Comparison, error)
}

// RankingHandler handles ranking and comparison requests.
type RankingHandler struct {
	deps RankingDependencies
}

// NewRankingHandler creates a new ranking handler.
func NewRankingHandler(deps RankingDependencies) *RankingHandler {
	return &RankingHandler{deps: deps}
}

// HandleRanking handles GET /ranking?ids=a,b,c requests. Without ids every
// tracked politician is ranked.
func (h *RankingHandler) HandleRanking(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_ranking"
	var ids []string
	for _, raw := range r.URL.Query()["ids"] {
		for _, id := range strings.Split(raw, ",") {
			if id = strings.TrimSpace(id); id != "" {
				ids = append(ids, id)
			}
		}
	}
	if len(ids) > maxRankIDs {
		writeError(w, http.StatusBadRequest, "limit_exceeded", NewKind(op, ErrBadRequest))
		return
	}
	entries, err := h.deps.Rank(r.Context(), ids)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	if entries == nil {
		entries = []Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// HandleCompare handles GET /compare?a=X&b=Y requests.
func (h *RankingHandler) HandleCompare(w http.ResponseWriter, r *http.Request) {
	const op = "api.compare"
	a := strings.TrimSpace(r.URL.Query().Get("a"))
	b := strings.TrimSpace(r.URL.Query().Get("b"))
	if a == "" || b == "" {
		writeError(w, http.StatusBadRequest, "bad_request",
			WrapKind(op, ErrBadRequest, errors.New("both a and b are required")))
		return
	}
	cmp, err := h.deps.Compare(r.Context(), a, b)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, cmp)
}
