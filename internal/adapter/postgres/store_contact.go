package postgres

import (
	"context"

	"github.com/Strob0t/ProposalForge/internal/domain/contact"
)

const contactColumns = `id, external_id, name, created_at, updated_at`

func scanContact(row scannable) (*contact.Contact, error) {
	var c contact.Contact
	if err := row.Scan(&c.ID, &c.ExternalID, &c.Name, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Store) FindContactByExternalID(ctx context.Context, externalID string) (*contact.Contact, error) {
	c, err := scanContact(s.pool.QueryRow(ctx,
		`SELECT `+contactColumns+` FROM contacts WHERE external_id = $1`, externalID))
	if err != nil {
		return nil, notFoundWrap(err, "find contact by external id %s", externalID)
	}
	return c, nil
}

// FindContactByName returns the oldest contact carrying name.
func (s *Store) FindContactByName(ctx context.Context, name string) (*contact.Contact, error) {
	c, err := scanContact(s.pool.QueryRow(ctx,
		`SELECT `+contactColumns+` FROM contacts WHERE name = $1 ORDER BY created_at, id LIMIT 1`, name))
	if err != nil {
		return nil, notFoundWrap(err, "find contact by name")
	}
	return c, nil
}

func (s *Store) CreateContact(ctx context.Context, in contact.Input) (*contact.Contact, error) {
	c, err := scanContact(s.pool.QueryRow(ctx,
		`INSERT INTO contacts (external_id, name) VALUES ($1, $2) RETURNING `+contactColumns,
		nullIfEmpty(in.ExternalID), in.Name))
	if err != nil {
		return nil, storeErr(err, "create contact")
	}
	return c, nil
}

func (s *Store) UpdateContactName(ctx context.Context, id, name string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE contacts SET name = $2, updated_at = NOW() WHERE id = $1`, id, name)
	return execExpectOne(tag, err, "update contact %s", id)
}
