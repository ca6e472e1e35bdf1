package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/Strob0t/ProposalForge/internal/domain"
	"github.com/Strob0t/ProposalForge/internal/domain/contact"
	"github.com/Strob0t/ProposalForge/internal/port/database"
)

// ContactResolver maps a requested contact onto a stored contact id,
// creating the contact when it is new. Resolving the same input twice yields
// the same id. Only a failed insert of a new contact is returned as an error;
// lookup and rename failures are logged and the workflow continues.
//
// Lookup-then-insert is not serialized: two concurrent first requests for
// the same name can create two rows. Contacts carrying an external id are
// protected by a unique index and converge on one row.
type ContactResolver struct {
	store database.Store
}

// NewContactResolver creates a new ContactResolver.
func NewContactResolver(store database.Store) *ContactResolver {
	return &ContactResolver{store: store}
}

// Resolve returns the id of the contact described by in, or "" when in
// names nobody. An existing contact's name is overwritten with in.Name.
func (r *ContactResolver) Resolve(ctx context.Context, in contact.Input) (string, error) {
	in = in.Normalize()
	if in.Omitted() {
		return "", nil
	}

	if existing := r.lookup(ctx, in); existing != nil {
		return r.rename(ctx, existing.ID, in.Name), nil
	}

	created, err := r.store.CreateContact(ctx, in)
	if err == nil {
		return created.ID, nil
	}
	if in.ExternalID != "" && errors.Is(err, domain.ErrConflict) {
		// Another request inserted the same external id first.
		existing, lookupErr := r.store.FindContactByExternalID(ctx, in.ExternalID)
		if lookupErr == nil {
			slog.Debug("contact created concurrently, reusing", "contact_id", existing.ID)
			return r.rename(ctx, existing.ID, in.Name), nil
		}
	}
	return "", domain.StageError("create contact", err)
}

// lookup returns nil on a miss. A failed lookup is treated as a miss, so
// the caller falls through to insert.
func (r *ContactResolver) lookup(ctx context.Context, in contact.Input) *contact.Contact {
	var (
		c   *contact.Contact
		err error
	)
	if in.ExternalID != "" {
		c, err = r.store.FindContactByExternalID(ctx, in.ExternalID)
	} else {
		c, err = r.store.FindContactByName(ctx, in.Name)
	}
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			slog.WarnContext(ctx, "contact lookup failed, treating as new", "error", err)
		}
		return nil
	}
	return c
}

// rename keeps the stored name in step with the request. The contact id is
// valid either way, so a failed update only costs a stale name.
func (r *ContactResolver) rename(ctx context.Context, id, name string) string {
	if err := r.store.UpdateContactName(ctx, id, name); err != nil {
		slog.WarnContext(ctx, "contact rename failed", "contact_id", id, "error", err)
	}
	return id
}
