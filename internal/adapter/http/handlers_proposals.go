package http

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Strob0t/ProposalForge/internal/domain/proposal"
	"github.com/Strob0t/ProposalForge/internal/middleware"
)

// CreateProposal handles POST /api/v1/proposals
func (h *Handlers) CreateProposal(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[proposal.Request](w, r)
	if !ok {
		return
	}

	ctx := r.Context()
	id, err := h.Proposals.Create(ctx, middleware.CallerFromContext(ctx), middleware.LocationFromContext(ctx), &req)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/v1/proposals/"+id)
	writeJSON(w, http.StatusCreated, idResponse{ID: id})
}

// UpdateProposal handles PUT /api/v1/proposals/{id}
func (h *Handlers) UpdateProposal(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	req, ok := readJSON[proposal.Request](w, r)
	if !ok {
		return
	}

	ctx := r.Context()
	if err := h.Proposals.Update(ctx, middleware.CallerFromContext(ctx), id, &req); err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, idResponse{ID: id})
}

// GetProposal handles GET /api/v1/proposals/{id}
func (h *Handlers) GetProposal(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, err := h.Proposals.Get(ctx, middleware.CallerFromContext(ctx), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if p.Installments == nil {
		p.Installments = []proposal.Installment{}
	}
	writeJSON(w, http.StatusOK, p)
}

// ListProposals handles GET /api/v1/proposals
func (h *Handlers) ListProposals(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	loc, ok := requireLocation(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	filter := proposal.ListFilter{
		UnitID:    q.Get("unit_id"),
		CreatedBy: q.Get("created_by"),
	}
	for _, p := range []struct {
		name string
		dst  *int
	}{{"limit", &filter.Limit}, {"offset", &filter.Offset}} {
		raw := q.Get(p.name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeFieldError(w, r, p.name, false)
			return
		}
		*p.dst = n
	}

	list, err := h.Proposals.List(ctx, middleware.CallerFromContext(ctx), loc, filter)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if list == nil {
		list = []proposal.Proposal{}
	}
	writeJSON(w, http.StatusOK, list)
}

// requireLocation returns the X-Location-ID of the request or reports it
// missing.
func requireLocation(w http.ResponseWriter, r *http.Request) (string, bool) {
	loc := middleware.LocationFromContext(r.Context())
	if loc == "" {
		writeFieldError(w, r, middleware.HeaderLocationID, true)
		return "", false
	}
	return loc, true
}
