package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/Strob0t/ProposalForge/internal/domain"
	"github.com/Strob0t/ProposalForge/internal/domain/agency"
	"github.com/Strob0t/ProposalForge/internal/domain/preferences"
	"github.com/Strob0t/ProposalForge/internal/port/cache"
	"github.com/Strob0t/ProposalForge/internal/port/database"
)

const preferencesCacheNS = "preferences"

// PreferencesService resolves agencies and their permission preferences.
// A preferences row is created with schema defaults the first time an
// agency's preferences are read.
type PreferencesService struct {
	store database.Store
	cache cache.Cache
	ttl   time.Duration
}

// NewPreferencesService creates a PreferencesService. c may be nil to
// disable caching.
func NewPreferencesService(store database.Store, c cache.Cache, ttl time.Duration) *PreferencesService {
	return &PreferencesService{store: store, cache: c, ttl: ttl}
}

// ResolveAgency looks up the agency registered for an external location id.
func (s *PreferencesService) ResolveAgency(ctx context.Context, locationID string) (*agency.Agency, error) {
	if locationID == "" {
		return nil, fmt.Errorf("empty location id: %w", domain.ErrAgencyNotFound)
	}
	a, err := s.store.GetAgencyByLocation(ctx, locationID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("location %s: %w", locationID, domain.ErrAgencyNotFound)
		}
		return nil, domain.StageError("resolve agency", err)
	}
	return a, nil
}

// Get returns the agency's preferences, creating the default row when none
// exists. A concurrent first read that loses the insert race re-reads the
// winner's row.
func (s *PreferencesService) Get(ctx context.Context, agencyID string) (*preferences.Preferences, error) {
	if p, ok := s.cached(ctx, agencyID); ok {
		return p, nil
	}

	p, err := s.store.GetPreferences(ctx, agencyID)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrNotFound):
		p, err = s.store.CreatePreferences(ctx, agencyID)
		if errors.Is(err, domain.ErrConflict) {
			slog.Debug("preferences created concurrently, re-fetching", "agency_id", agencyID)
			p, err = s.store.GetPreferences(ctx, agencyID)
		}
		if err != nil {
			return nil, domain.StageError("fetch preferences", err)
		}
	default:
		return nil, domain.StageError("fetch preferences", err)
	}

	s.remember(ctx, p)
	return p, nil
}

// GetForLocation resolves the agency and then its preferences. An unknown
// location never creates a preferences row.
func (s *PreferencesService) GetForLocation(ctx context.Context, locationID string) (*agency.Agency, *preferences.Preferences, error) {
	a, err := s.ResolveAgency(ctx, locationID)
	if err != nil {
		return nil, nil, err
	}
	p, err := s.Get(ctx, a.ID)
	if err != nil {
		return nil, nil, err
	}
	return a, p, nil
}

// Update applies the supplied fields to the agency's preferences.
func (s *PreferencesService) Update(ctx context.Context, agencyID string, req preferences.UpdateRequest) (*preferences.Preferences, error) {
	verr := &domain.ValidationError{}
	for name, v := range map[string]*preferences.PermissionSetting{
		"view_proposals":   req.ViewProposals,
		"manage_proposals": req.ManageProposals,
		"view_buildings":   req.ViewBuildings,
		"manage_buildings": req.ManageBuildings,
	} {
		if v != nil && !v.Valid() {
			verr.Invalid = append(verr.Invalid, name)
		}
	}
	if !verr.Empty() {
		slices.Sort(verr.Invalid)
		return nil, verr
	}

	p, err := s.Get(ctx, agencyID)
	if err != nil {
		return nil, err
	}
	if req.Empty() {
		return p, nil
	}

	next := *p
	next.Apply(req)
	updated, err := s.store.UpdatePreferences(ctx, &next)
	if err != nil {
		return nil, domain.StageError("update preferences", err)
	}

	s.forget(ctx, agencyID)
	return updated, nil
}

func (s *PreferencesService) cached(ctx context.Context, agencyID string) (*preferences.Preferences, bool) {
	if s.cache == nil {
		return nil, false
	}
	data, ok, err := s.cache.Get(ctx, cache.Key(preferencesCacheNS, agencyID))
	if err != nil || !ok {
		return nil, false
	}
	var p preferences.Preferences
	if err := json.Unmarshal(data, &p); err != nil {
		slog.Warn("discarding undecodable cached preferences", "agency_id", agencyID, "error", err)
		return nil, false
	}
	return &p, true
}

func (s *PreferencesService) remember(ctx context.Context, p *preferences.Preferences) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(p)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, cache.Key(preferencesCacheNS, p.AgencyID), data, s.ttl); err != nil {
		slog.Warn("preferences cache set failed", "agency_id", p.AgencyID, "error", err)
	}
}

func (s *PreferencesService) forget(ctx context.Context, agencyID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, cache.Key(preferencesCacheNS, agencyID)); err != nil {
		slog.Warn("preferences cache invalidation failed", "agency_id", agencyID, "error", err)
	}
}
