package http

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Strob0t/ProposalForge/internal/domain/adjustment"
	"github.com/Strob0t/ProposalForge/internal/middleware"
)

// GetAdjustments handles GET /api/v1/units/{id}/adjustments
func (h *Handlers) GetAdjustments(w http.ResponseWriter, r *http.Request) {
	loc, ok := requireLocation(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	t, err := h.Adjustments.Table(ctx, middleware.CallerFromContext(ctx), loc, chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// UpsertAdjustments handles PUT /api/v1/units/{id}/adjustments/{year}
func (h *Handlers) UpsertAdjustments(w http.ResponseWriter, r *http.Request) {
	loc, ok := requireLocation(w, r)
	if !ok {
		return
	}
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		writeFieldError(w, r, "year", false)
		return
	}
	rate, ok := readJSON[adjustment.MonthlyRate](w, r)
	if !ok {
		return
	}
	if rate.Year != 0 && rate.Year != year {
		writeFieldError(w, r, "year", false)
		return
	}
	rate.Year = year

	ctx := r.Context()
	saved, err := h.Adjustments.Upsert(ctx, middleware.CallerFromContext(ctx), loc, chi.URLParam(r, "id"), rate)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}
