package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	pfotel "github.com/Strob0t/ProposalForge/internal/adapter/otel"
	"github.com/Strob0t/ProposalForge/internal/domain"
	"github.com/Strob0t/ProposalForge/internal/domain/permission"
	"github.com/Strob0t/ProposalForge/internal/domain/proposal"
	"github.com/Strob0t/ProposalForge/internal/domain/unit"
	"github.com/Strob0t/ProposalForge/internal/domain/user"
	"github.com/Strob0t/ProposalForge/internal/port/database"
	"github.com/Strob0t/ProposalForge/internal/port/messagequeue"
	"github.com/Strob0t/ProposalForge/internal/resilience"
)

// Workflow stage names. They label store failures and trace spans.
const (
	stagePersistProposal    = "persist proposal"
	stageDeleteInstallments = "delete installments"
	stageInsertInstallments = "insert installments"
)

// ProposalService runs the create and update workflows of sales proposals.
// Steps run strictly in order and none is retried. Once the proposal row is
// written, later failures do not undo it.
type ProposalService struct {
	store    database.Store
	prefs    *PreferencesService
	contacts *ContactResolver
	units    *UnitInventory
	metrics  *pfotel.Metrics
	queue    messagequeue.Queue
	breaker  *resilience.Breaker
	now      func() time.Time
}

// NewProposalService creates a ProposalService. Events are not published
// until SetEventPublisher is called.
func NewProposalService(
	store database.Store,
	prefs *PreferencesService,
	contacts *ContactResolver,
	units *UnitInventory,
	metrics *pfotel.Metrics,
) *ProposalService {
	return &ProposalService{
		store:    store,
		prefs:    prefs,
		contacts: contacts,
		units:    units,
		metrics:  metrics,
		now:      time.Now,
	}
}

// SetEventPublisher enables best-effort domain events through q, guarded
// by b.
func (s *ProposalService) SetEventPublisher(q messagequeue.Queue, b *resilience.Breaker) {
	s.queue = q
	s.breaker = b
}

// Create runs the create workflow and returns the new proposal id.
// locationID is used when the request carries no agency_id.
func (s *ProposalService) Create(ctx context.Context, caller *user.Caller, locationID string, req *proposal.Request) (id string, err error) {
	ctx, span := pfotel.StartProposalSpan(ctx, "create", "", callerID(caller))
	start := s.now()
	defer func() {
		s.observe(ctx, "create", start, err)
		pfotel.EndSpan(span, err)
	}()

	// 1. Authorize
	if err := authenticate(caller); err != nil {
		return "", err
	}
	if req.AgencyID == "" {
		req.AgencyID = locationID
	}
	if req.AgencyID == "" {
		return "", req.Validate(proposal.ModeCreate)
	}
	ag, prefs, err := s.prefs.GetForLocation(ctx, req.AgencyID)
	if err != nil {
		return "", err
	}
	if !permission.CanManageProposals(prefs, caller.Role) {
		return "", fmt.Errorf("manage proposals: %w", domain.ErrForbidden)
	}

	// 2. Validate
	if err := req.Validate(proposal.ModeCreate); err != nil {
		return "", err
	}

	// 3. Resolve unit
	var u *unit.Unit
	if req.UnitID != "" {
		u, err = s.units.VerifyOwnership(ctx, req.UnitID, ag.ID)
	} else {
		u, err = s.units.FindByAddress(ctx, ag.ID, req.UnitAddress())
	}
	if err != nil {
		return "", err
	}

	// 4. Resolve contacts
	primaryID, secondaryID, err := s.resolveContacts(ctx, req)
	if err != nil {
		return "", err
	}

	// 5. Persist proposal
	p := &proposal.Proposal{
		ID:                 uuid.NewString(),
		AgencyID:           ag.ID,
		OpportunityID:      req.OpportunityID,
		ProposalDate:       req.ProposalDate,
		PrimaryContactID:   primaryID,
		SecondaryContactID: secondaryID,
		UnitID:             u.ID,
		ResponsibleName:    req.ResponsibleName,
		DisplayName:        req.DisplayName,
		ReservedUntil:      req.ReservedUntil,
		CreatedBy:          caller.ID,
	}
	if err := s.store.CreateProposal(ctx, p); err != nil {
		return "", domain.StageError(stagePersistProposal, err)
	}

	// 6. Installments
	items := req.BuildInstallments(p.ID)
	if len(items) > 0 {
		if err := s.store.InsertInstallments(ctx, p.ID, items); err != nil {
			return "", domain.StageError(stageInsertInstallments, err)
		}
	}

	// 7. Reservation
	s.reserve(ctx, p, req)

	s.metrics.ProposalsCreated.Add(ctx, 1)
	s.publishProposal(ctx, messagequeue.SubjectProposalCreated, p, len(items), caller.ID)
	slog.InfoContext(ctx, "proposal created", "proposal_id", p.ID, "agency_id", ag.ID, "unit_id", u.ID)

	// 8. Identifier
	return p.ID, nil
}

// Update runs the update workflow for an existing proposal. The unit must
// belong to the proposal's own agency; any agency_id in req is ignored.
func (s *ProposalService) Update(ctx context.Context, caller *user.Caller, id string, req *proposal.Request) (err error) {
	ctx, span := pfotel.StartProposalSpan(ctx, "update", id, callerID(caller))
	start := s.now()
	defer func() {
		s.observe(ctx, "update", start, err)
		pfotel.EndSpan(span, err)
	}()

	// 1. Authorize
	if err := authenticate(caller); err != nil {
		return err
	}
	existing, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	prefs, err := s.prefs.Get(ctx, existing.AgencyID)
	if err != nil {
		return err
	}
	if !permission.CanManageProposals(prefs, caller.Role) {
		return fmt.Errorf("manage proposals: %w", domain.ErrForbidden)
	}
	if permission.RestrictProposalsToCreator(prefs, caller.Role) && existing.CreatedBy != caller.ID {
		return fmt.Errorf("proposal %s belongs to another user: %w", id, domain.ErrForbidden)
	}

	// 2. Validate
	if err := req.Validate(proposal.ModeUpdate); err != nil {
		return err
	}

	// 3. Resolve unit
	u, err := s.units.VerifyOwnership(ctx, req.UnitID, existing.AgencyID)
	if err != nil {
		return err
	}

	// 4. Resolve contacts
	primaryID, secondaryID, err := s.resolveContacts(ctx, req)
	if err != nil {
		return err
	}
	if secondaryID == nil {
		secondaryID = existing.SecondaryContactID
	}

	// 5. Persist proposal
	p := *existing
	p.OpportunityID = req.OpportunityID
	p.ProposalDate = req.ProposalDate
	p.PrimaryContactID = primaryID
	p.SecondaryContactID = secondaryID
	p.UnitID = u.ID
	p.ResponsibleName = req.ResponsibleName
	p.DisplayName = req.DisplayName
	if req.ReservedUntil != nil {
		p.ReservedUntil = req.ReservedUntil
	}
	if err := s.store.UpdateProposal(ctx, &p); err != nil {
		return domain.StageError(stagePersistProposal, err)
	}

	// 6. Replace installments. A failed insert leaves the proposal without
	// installments.
	items := req.BuildInstallments(p.ID)
	if len(items) > 0 {
		if err := s.store.DeleteInstallments(ctx, p.ID); err != nil {
			return domain.StageError(stageDeleteInstallments, err)
		}
		if err := s.store.InsertInstallments(ctx, p.ID, items); err != nil {
			return domain.StageError(stageInsertInstallments, err)
		}
	}

	// 7. Reservation
	s.reserve(ctx, &p, req)

	s.metrics.ProposalsUpdated.Add(ctx, 1)
	s.publishProposal(ctx, messagequeue.SubjectProposalUpdated, &p, len(items), caller.ID)
	slog.InfoContext(ctx, "proposal updated", "proposal_id", p.ID, "agency_id", p.AgencyID)
	return nil
}

// Get returns a proposal with its installments.
func (s *ProposalService) Get(ctx context.Context, caller *user.Caller, id string) (*proposal.Proposal, error) {
	if err := authenticate(caller); err != nil {
		return nil, err
	}
	p, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	prefs, err := s.prefs.Get(ctx, p.AgencyID)
	if err != nil {
		return nil, err
	}
	if !permission.CanViewProposals(prefs, caller.Role) {
		return nil, fmt.Errorf("view proposals: %w", domain.ErrForbidden)
	}

	items, err := s.store.ListInstallments(ctx, p.ID)
	if err != nil {
		return nil, domain.StageError("list installments", err)
	}
	p.Installments = items
	return p, nil
}

// List returns the proposals of the agency registered for locationID,
// newest first.
func (s *ProposalService) List(ctx context.Context, caller *user.Caller, locationID string, filter proposal.ListFilter) ([]proposal.Proposal, error) {
	if err := authenticate(caller); err != nil {
		return nil, err
	}
	ag, prefs, err := s.prefs.GetForLocation(ctx, locationID)
	if err != nil {
		return nil, err
	}
	if !permission.CanViewProposals(prefs, caller.Role) {
		return nil, fmt.Errorf("view proposals: %w", domain.ErrForbidden)
	}

	if filter.Limit <= 0 || filter.Limit > proposal.DefaultListLimit {
		filter.Limit = proposal.DefaultListLimit
	}
	filter.Offset = max(filter.Offset, 0)

	list, err := s.store.ListProposals(ctx, ag.ID, filter)
	if err != nil {
		return nil, domain.StageError("list proposals", err)
	}
	return list, nil
}

func (s *ProposalService) load(ctx context.Context, id string) (*proposal.Proposal, error) {
	if uuid.Validate(id) != nil {
		return nil, fmt.Errorf("proposal %q: %w", id, domain.ErrNotFound)
	}
	p, err := s.store.GetProposal(ctx, id)
	if err != nil {
		return nil, domain.StageError("load proposal", err)
	}
	return p, nil
}

// resolveContacts returns a nil secondary id when the request names no
// secondary contact.
func (s *ProposalService) resolveContacts(ctx context.Context, req *proposal.Request) (string, *string, error) {
	primaryID, err := s.contacts.Resolve(ctx, req.PrimaryContact)
	if err != nil {
		return "", nil, err
	}
	if req.SecondaryContact == nil {
		return primaryID, nil, nil
	}
	secondaryID, err := s.contacts.Resolve(ctx, *req.SecondaryContact)
	if err != nil {
		return "", nil, err
	}
	if secondaryID == "" {
		return primaryID, nil, nil
	}
	return primaryID, &secondaryID, nil
}

// reserve never fails the workflow; errors are logged and counted.
func (s *ProposalService) reserve(ctx context.Context, p *proposal.Proposal, req *proposal.Request) {
	if !req.WantsReservation() {
		return
	}
	until := *req.ReservedUntil
	if err := s.units.Reserve(ctx, p.UnitID, p.AgencyID, until); err != nil {
		s.metrics.ReservationsFailed.Add(ctx, 1)
		slog.WarnContext(ctx, "unit reservation failed", "proposal_id", p.ID, "unit_id", p.UnitID, "error", err)
		return
	}
	s.publish(ctx, messagequeue.SubjectUnitReserved, messagequeue.UnitReservedPayload{
		UnitID:        p.UnitID,
		AgencyID:      p.AgencyID,
		ProposalID:    p.ID,
		ReservedUntil: until,
	})
}

func (s *ProposalService) publishProposal(ctx context.Context, subject string, p *proposal.Proposal, installments int, actorID string) {
	s.publish(ctx, subject, messagequeue.ProposalEventPayload{
		ProposalID:       p.ID,
		AgencyID:         p.AgencyID,
		OpportunityID:    p.OpportunityID,
		UnitID:           p.UnitID,
		InstallmentCount: installments,
		ActorID:          actorID,
		OccurredAt:       s.now().UTC(),
	})
}

// publish sends a best-effort event. Failures are logged and counted.
func (s *ProposalService) publish(ctx context.Context, subject string, payload any) {
	if s.queue == nil {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("marshal event", "subject", subject, "error", err)
		return
	}

	send := func(ctx context.Context) error { return s.queue.Publish(ctx, subject, data) }
	if s.breaker != nil {
		err = s.breaker.Do(ctx, send)
	} else {
		err = send(ctx)
	}
	if err != nil {
		s.metrics.EventsFailed.Add(ctx, 1, metric.WithAttributes(attribute.String("subject", subject)))
		slog.WarnContext(ctx, "event publish failed", "subject", subject, "error", err)
	}
}

func (s *ProposalService) observe(ctx context.Context, op string, start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = errorCode(err)
		logFailure(ctx, "proposal "+op+" failed", err)
	}
	s.metrics.WorkflowDuration.Record(ctx, s.now().Sub(start).Seconds(),
		metric.WithAttributes(attribute.String("op", op), attribute.String("outcome", outcome)))
}

func callerID(c *user.Caller) string {
	if c == nil {
		return ""
	}
	return c.ID
}
