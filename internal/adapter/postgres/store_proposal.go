package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/Strob0t/ProposalForge/internal/domain/proposal"
)

const proposalColumns = `id, agency_id, opportunity_id, proposal_date::text, primary_contact_id,
	secondary_contact_id, unit_id, responsible_name, display_name, reserved_until,
	created_by, created_at, updated_at`

func scanProposal(row scannable) (*proposal.Proposal, error) {
	var p proposal.Proposal
	if err := row.Scan(&p.ID, &p.AgencyID, &p.OpportunityID, &p.ProposalDate, &p.PrimaryContactID,
		&p.SecondaryContactID, &p.UnitID, &p.ResponsibleName, &p.DisplayName, &p.ReservedUntil,
		&p.CreatedBy, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) GetProposal(ctx context.Context, id string) (*proposal.Proposal, error) {
	p, err := scanProposal(s.pool.QueryRow(ctx,
		`SELECT `+proposalColumns+` FROM proposals WHERE id = $1`, id))
	if err != nil {
		return nil, notFoundWrap(err, "get proposal %s", id)
	}
	return p, nil
}

// ListProposals returns an agency's proposals, newest first.
func (s *Store) ListProposals(ctx context.Context, agencyID string, filter proposal.ListFilter) ([]proposal.Proposal, error) {
	where := []string{"agency_id = $1"}
	args := []any{agencyID}
	if filter.UnitID != "" {
		args = append(args, filter.UnitID)
		where = append(where, fmt.Sprintf("unit_id = $%d", len(args)))
	}
	if filter.CreatedBy != "" {
		args = append(args, filter.CreatedBy)
		where = append(where, fmt.Sprintf("created_by = $%d", len(args)))
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = proposal.DefaultListLimit
	}
	args = append(args, limit, max(filter.Offset, 0))

	query := fmt.Sprintf(`SELECT %s FROM proposals WHERE %s ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d`,
		proposalColumns, strings.Join(where, " AND "), len(args)-1, len(args))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, storeErr(err, "list proposals for agency %s", agencyID)
	}
	defer rows.Close()

	var out []proposal.Proposal
	for rows.Next() {
		p, err := scanProposal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan proposal: %w", err)
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr(err, "list proposals for agency %s", agencyID)
	}
	return orEmpty(out), nil
}

// CreateProposal inserts p under its pre-assigned id and fills the
// server-side timestamps.
func (s *Store) CreateProposal(ctx context.Context, p *proposal.Proposal) error {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO proposals (id, agency_id, opportunity_id, proposal_date, primary_contact_id,
		   secondary_contact_id, unit_id, responsible_name, display_name, reserved_until, created_by)
		 VALUES ($1, $2, $3, $4::date, $5, $6, $7, $8, $9, $10, $11)
		 RETURNING created_at, updated_at`,
		p.ID, p.AgencyID, p.OpportunityID, p.ProposalDate, p.PrimaryContactID,
		p.SecondaryContactID, p.UnitID, p.ResponsibleName, p.DisplayName, nullTime(p.ReservedUntil), p.CreatedBy,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return storeErr(err, "create proposal")
	}
	return nil
}

// UpdateProposal rewrites the mutable columns of p. Agency and creator
// never change.
func (s *Store) UpdateProposal(ctx context.Context, p *proposal.Proposal) error {
	err := s.pool.QueryRow(ctx,
		`UPDATE proposals SET opportunity_id = $2, proposal_date = $3::date, primary_contact_id = $4,
		   secondary_contact_id = $5, unit_id = $6, responsible_name = $7, display_name = $8,
		   reserved_until = $9, updated_at = NOW()
		 WHERE id = $1
		 RETURNING updated_at`,
		p.ID, p.OpportunityID, p.ProposalDate, p.PrimaryContactID, p.SecondaryContactID,
		p.UnitID, p.ResponsibleName, p.DisplayName, nullTime(p.ReservedUntil),
	).Scan(&p.UpdatedAt)
	if err != nil {
		return notFoundWrap(err, "update proposal %s", p.ID)
	}
	return nil
}

// --- Installments ---

func (s *Store) ListInstallments(ctx context.Context, proposalID string) ([]proposal.Installment, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, proposal_id, position, payment_type, amount_per_installment::text,
		        installments_count, total_amount::text, start_date::text
		 FROM installments WHERE proposal_id = $1 ORDER BY position`, proposalID)
	if err != nil {
		return nil, storeErr(err, "list installments for proposal %s", proposalID)
	}
	defer rows.Close()

	var out []proposal.Installment
	for rows.Next() {
		var (
			in            proposal.Installment
			amount, total string
		)
		if err := rows.Scan(&in.ID, &in.ProposalID, &in.Position, &in.Type, &amount,
			&in.InstallmentsCount, &total, &in.StartDate); err != nil {
			return nil, fmt.Errorf("scan installment: %w", err)
		}
		if in.AmountPerInstallment, err = parseDecimal(&amount); err != nil {
			return nil, fmt.Errorf("installment %s amount: %w", in.ID, err)
		}
		if in.TotalAmount, err = parseDecimal(&total); err != nil {
			return nil, fmt.Errorf("installment %s total: %w", in.ID, err)
		}
		out = append(out, in)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr(err, "list installments for proposal %s", proposalID)
	}
	return orEmpty(out), nil
}

// DeleteInstallments removes every installment of a proposal. Deleting an
// empty set is not an error.
func (s *Store) DeleteInstallments(ctx context.Context, proposalID string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM installments WHERE proposal_id = $1`, proposalID); err != nil {
		return storeErr(err, "delete installments for proposal %s", proposalID)
	}
	return nil
}

// InsertInstallments writes items in one transaction: either the whole set
// is stored or none of it.
func (s *Store) InsertInstallments(ctx context.Context, proposalID string, items []proposal.Installment) error {
	if len(items) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return storeErr(err, "begin insert installments")
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	batch := &pgx.Batch{}
	for _, in := range items {
		batch.Queue(
			`INSERT INTO installments (proposal_id, position, payment_type, amount_per_installment,
			   installments_count, total_amount, start_date)
			 VALUES ($1, $2, $3, $4::numeric, $5, $6::numeric, $7::date)`,
			proposalID, in.Position, in.Type, in.AmountPerInstallment.String(),
			in.InstallmentsCount, in.TotalAmount.String(), in.StartDate)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return storeErr(err, "insert installments for proposal %s", proposalID)
	}

	if err := tx.Commit(ctx); err != nil {
		return storeErr(err, "commit installments for proposal %s", proposalID)
	}
	return nil
}
