package http

import (
	"net/http"
	"slices"

	"github.com/Strob0t/ProposalForge/internal/domain"
	"github.com/Strob0t/ProposalForge/internal/domain/preferences"
)

// preferencesBody is the wire form of a preferences update. Settings are
// decoded as strings so each bad value is reported by field name.
type preferencesBody struct {
	ViewProposals              *string `json:"view_proposals"`
	ManageProposals            *string `json:"manage_proposals"`
	ViewBuildings              *string `json:"view_buildings"`
	ManageBuildings            *string `json:"manage_buildings"`
	RestrictProposalsToCreator *bool   `json:"restrict_proposals_to_creator"`
}

func (b *preferencesBody) toRequest() (preferences.UpdateRequest, error) {
	req := preferences.UpdateRequest{RestrictProposalsToCreator: b.RestrictProposalsToCreator}
	verr := &domain.ValidationError{}
	fields := []struct {
		name string
		raw  *string
		dst  **preferences.PermissionSetting
	}{
		{"view_proposals", b.ViewProposals, &req.ViewProposals},
		{"manage_proposals", b.ManageProposals, &req.ManageProposals},
		{"view_buildings", b.ViewBuildings, &req.ViewBuildings},
		{"manage_buildings", b.ManageBuildings, &req.ManageBuildings},
	}
	for _, f := range fields {
		if f.raw == nil {
			continue
		}
		v, err := preferences.ParsePermissionSetting(*f.raw)
		if err != nil {
			verr.Invalid = append(verr.Invalid, f.name)
			continue
		}
		*f.dst = &v
	}
	if !verr.Empty() {
		slices.Sort(verr.Invalid)
		return req, verr
	}
	return req, nil
}

type preferencesResponse struct {
	AgencyID                   string                        `json:"agency_id"`
	ViewProposals              preferences.PermissionSetting `json:"view_proposals"`
	ManageProposals            preferences.PermissionSetting `json:"manage_proposals"`
	ViewBuildings              preferences.PermissionSetting `json:"view_buildings"`
	ManageBuildings            preferences.PermissionSetting `json:"manage_buildings"`
	RestrictProposalsToCreator bool                          `json:"restrict_proposals_to_creator"`
}

// newPreferencesResponse reports agency_id as the location id the client
// addressed the agency by.
func newPreferencesResponse(locationID string, p *preferences.Preferences) preferencesResponse {
	return preferencesResponse{
		AgencyID:                   locationID,
		ViewProposals:              p.ViewProposals,
		ManageProposals:            p.ManageProposals,
		ViewBuildings:              p.ViewBuildings,
		ManageBuildings:            p.ManageBuildings,
		RestrictProposalsToCreator: p.RestrictProposalsToCreator,
	}
}

// GetPreferences handles GET /api/v1/preferences
func (h *Handlers) GetPreferences(w http.ResponseWriter, r *http.Request) {
	loc, ok := requireLocation(w, r)
	if !ok {
		return
	}
	_, p, err := h.Preferences.GetForLocation(r.Context(), loc)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newPreferencesResponse(loc, p))
}

// UpdatePreferences handles PUT /api/v1/preferences
func (h *Handlers) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	loc, ok := requireLocation(w, r)
	if !ok {
		return
	}
	body, ok := readJSON[preferencesBody](w, r)
	if !ok {
		return
	}
	req, err := body.toRequest()
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	ag, err := h.Preferences.ResolveAgency(r.Context(), loc)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	p, err := h.Preferences.Update(r.Context(), ag.ID, req)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newPreferencesResponse(loc, p))
}
