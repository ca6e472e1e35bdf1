package http_test

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Strob0t/ProposalForge/internal/domain"
	"github.com/Strob0t/ProposalForge/internal/domain/adjustment"
	"github.com/Strob0t/ProposalForge/internal/domain/agency"
	"github.com/Strob0t/ProposalForge/internal/domain/contact"
	"github.com/Strob0t/ProposalForge/internal/domain/preferences"
	"github.com/Strob0t/ProposalForge/internal/domain/proposal"
	"github.com/Strob0t/ProposalForge/internal/domain/unit"
	"github.com/Strob0t/ProposalForge/internal/port/database"
)

var _ database.Store = (*mockStore)(nil)

// mockStore is an in-memory database.Store for handler tests.
type mockStore struct {
	mu           sync.Mutex
	agencies     []agency.Agency
	prefs        map[string]*preferences.Preferences
	contacts     []contact.Contact
	units        map[string]*unit.Unit
	rates        []adjustment.MonthlyRate
	proposals    map[string]*proposal.Proposal
	installments map[string][]proposal.Installment

	createProposalErr error
}

func newMockStore() *mockStore {
	return &mockStore{
		prefs:        map[string]*preferences.Preferences{},
		units:        map[string]*unit.Unit{},
		proposals:    map[string]*proposal.Proposal{},
		installments: map[string][]proposal.Installment{},
	}
}

func (m *mockStore) seedAgency(locationID string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := uuid.NewString()
	m.agencies = append(m.agencies, agency.Agency{ID: id, LocationID: locationID, Name: locationID})
	return id
}

func (m *mockStore) seedUnit(agencyID string, addr unit.Address) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := uuid.NewString()
	m.units[id] = &unit.Unit{ID: id, AgencyID: agencyID, Number: addr.Number, Tower: addr.Tower, Floor: addr.Floor, Status: unit.StatusFree}
	return id
}

func (m *mockStore) proposalCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.proposals)
}

func (m *mockStore) GetAgency(_ context.Context, id string) (*agency.Agency, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.agencies {
		if a.ID == id {
			return &a, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockStore) GetAgencyByLocation(_ context.Context, locationID string) (*agency.Agency, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.agencies {
		if a.LocationID == locationID {
			return &a, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockStore) GetPreferences(_ context.Context, agencyID string) (*preferences.Preferences, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.prefs[agencyID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *mockStore) CreatePreferences(_ context.Context, agencyID string) (*preferences.Preferences, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.prefs[agencyID]; ok {
		return nil, domain.ErrConflict
	}
	p := &preferences.Preferences{ID: uuid.NewString(), AgencyID: agencyID}
	m.prefs[agencyID] = p
	cp := *p
	return &cp, nil
}

func (m *mockStore) UpdatePreferences(_ context.Context, p *preferences.Preferences) (*preferences.Preferences, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.prefs[p.AgencyID] = &cp
	out := cp
	return &out, nil
}

func (m *mockStore) FindContactByExternalID(_ context.Context, externalID string) (*contact.Contact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.contacts {
		if c.ExternalID != nil && *c.ExternalID == externalID {
			return &c, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockStore) FindContactByName(_ context.Context, name string) (*contact.Contact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.contacts {
		if c.Name == name {
			return &c, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockStore) CreateContact(_ context.Context, in contact.Input) (*contact.Contact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := contact.Contact{ID: uuid.NewString(), Name: in.Name}
	if in.ExternalID != "" {
		ext := in.ExternalID
		c.ExternalID = &ext
	}
	m.contacts = append(m.contacts, c)
	return &c, nil
}

func (m *mockStore) UpdateContactName(_ context.Context, id, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.contacts {
		if m.contacts[i].ID == id {
			m.contacts[i].Name = name
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m *mockStore) GetUnit(_ context.Context, id string) (*unit.Unit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.units[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *mockStore) FindUnitByAddress(_ context.Context, agencyID string, addr unit.Address) (*unit.Unit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.units {
		if u.AgencyID == agencyID && u.Number == addr.Number && u.Tower == addr.Tower && u.Floor == addr.Floor {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockStore) ReserveUnit(_ context.Context, id, agencyID string, until time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.units[id]
	if !ok || u.AgencyID != agencyID {
		return domain.ErrNotFound
	}
	u.Status = unit.StatusReserved
	u.ReservedUntil = &until
	return nil
}

func (m *mockStore) ListAdjustmentRates(_ context.Context, unitID string) ([]adjustment.MonthlyRate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []adjustment.MonthlyRate
	for _, r := range m.rates {
		if r.UnitID == unitID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *mockStore) UpsertAdjustmentRate(_ context.Context, r *adjustment.MonthlyRate) (*adjustment.MonthlyRate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *r
	for i := range m.rates {
		if m.rates[i].UnitID == r.UnitID && m.rates[i].Year == r.Year {
			cp.ID = m.rates[i].ID
			m.rates[i] = cp
			return &cp, nil
		}
	}
	cp.ID = uuid.NewString()
	m.rates = append(m.rates, cp)
	return &cp, nil
}

func (m *mockStore) GetProposal(_ context.Context, id string) (*proposal.Proposal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.proposals[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *mockStore) ListProposals(_ context.Context, agencyID string, f proposal.ListFilter) ([]proposal.Proposal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []proposal.Proposal
	for _, p := range m.proposals {
		if p.AgencyID == agencyID && (f.UnitID == "" || p.UnitID == f.UnitID) {
			out = append(out, *p)
		}
	}
	slices.SortFunc(out, func(a, b proposal.Proposal) int { return b.CreatedAt.Compare(a.CreatedAt) })
	if f.Offset >= len(out) {
		return nil, nil
	}
	out = out[f.Offset:]
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (m *mockStore) CreateProposal(_ context.Context, p *proposal.Proposal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createProposalErr != nil {
		return m.createProposalErr
	}
	p.CreatedAt = time.Now()
	cp := *p
	m.proposals[p.ID] = &cp
	return nil
}

func (m *mockStore) UpdateProposal(_ context.Context, p *proposal.Proposal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.proposals[p.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *p
	m.proposals[p.ID] = &cp
	return nil
}

func (m *mockStore) ListInstallments(_ context.Context, proposalID string) ([]proposal.Installment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.installments[proposalID]), nil
}

func (m *mockStore) DeleteInstallments(_ context.Context, proposalID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.installments, proposalID)
	return nil
}

func (m *mockStore) InsertInstallments(_ context.Context, proposalID string, items []proposal.Installment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.installments[proposalID] = append(m.installments[proposalID], items...)
	return nil
}
