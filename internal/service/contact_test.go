package service

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/Strob0t/ProposalForge/internal/domain"
	"github.com/Strob0t/ProposalForge/internal/domain/contact"
)

func TestContactResolver_Idempotent(t *testing.T) {
	store := newMockStore()
	r := NewContactResolver(store)
	ctx := context.Background()

	first, err := r.Resolve(ctx, contact.Input{Name: "X"})
	if err != nil {
		t.Fatal(err)
	}
	second, err := r.Resolve(ctx, contact.Input{Name: "X"})
	if err != nil {
		t.Fatal(err)
	}
	if first == "" || first != second {
		t.Errorf("expected same id twice, got %q and %q", first, second)
	}
	if len(store.contacts) != 1 {
		t.Errorf("expected one contact row, got %d", len(store.contacts))
	}
}

func TestContactResolver_ExternalIDRenames(t *testing.T) {
	store := newMockStore()
	r := NewContactResolver(store)
	ctx := context.Background()

	id, err := r.Resolve(ctx, contact.Input{Name: "Maria", ExternalID: "crm-1"})
	if err != nil {
		t.Fatal(err)
	}
	again, err := r.Resolve(ctx, contact.Input{Name: "Maria Silva", ExternalID: "crm-1"})
	if err != nil {
		t.Fatal(err)
	}
	if again != id {
		t.Fatalf("expected external id match, got new contact %s", again)
	}
	if store.contacts[0].Name != "Maria Silva" {
		t.Errorf("expected name updated in place, got %q", store.contacts[0].Name)
	}
}

func TestContactResolver_Omitted(t *testing.T) {
	r := NewContactResolver(newMockStore())
	id, err := r.Resolve(context.Background(), contact.Input{Name: "   "})
	if err != nil || id != "" {
		t.Errorf("expected empty id without error, got %q, %v", id, err)
	}
}

func TestContactResolver_ConflictReusesWinner(t *testing.T) {
	store := newMockStore()
	r := NewContactResolver(store)
	ctx := context.Background()

	// A concurrent request inserts the row between lookup and insert.
	ext := "crm-9"
	store.contacts = append(store.contacts, contact.Contact{ID: "winner", Name: "Old", ExternalID: &ext})
	store.staleContactLookups = 1

	id, err := r.Resolve(ctx, contact.Input{Name: "New", ExternalID: ext})
	if err != nil || id != "winner" {
		t.Fatalf("expected winner id, got %q, %v", id, err)
	}
	if store.createContactHits != 1 {
		t.Errorf("expected one insert attempt, got %d", store.createContactHits)
	}
	if store.contacts[0].Name != "New" {
		t.Errorf("expected winner renamed, got %q", store.contacts[0].Name)
	}
}

func TestContactResolver_InsertFailurePropagates(t *testing.T) {
	store := newMockStore()
	store.createContactErr = errors.New("disk full")

	_, err := NewContactResolver(store).Resolve(context.Background(), contact.Input{Name: "New"})

	var se *domain.StoreError
	if !errors.As(err, &se) {
		t.Fatalf("expected *domain.StoreError, got %v", err)
	}
	if se.Stage != "create contact" {
		t.Errorf("expected stage %q, got %q", "create contact", se.Stage)
	}
}

// captureLogs routes the default logger into a buffer for the test.
func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return &buf
}

func TestContactResolver_RenameFailureKeepsID(t *testing.T) {
	logs := captureLogs(t)
	store := newMockStore()
	store.contacts = append(store.contacts, contact.Contact{ID: "c1", Name: "Known"})
	store.updateContactErr = errors.New("deadlock")

	id, err := NewContactResolver(store).Resolve(context.Background(), contact.Input{Name: "Known"})
	if err != nil {
		t.Fatalf("rename failure must not abort resolution: %v", err)
	}
	if id != "c1" {
		t.Errorf("expected existing id c1, got %q", id)
	}
	if !strings.Contains(logs.String(), "contact rename failed") || !strings.Contains(logs.String(), "deadlock") {
		t.Errorf("expected rename failure to be logged, got %s", logs.String())
	}
}

func TestContactResolver_LookupFailureFallsThroughToInsert(t *testing.T) {
	tests := []struct {
		name string
		in   contact.Input
	}{
		{"by name", contact.Input{Name: "Maria"}},
		{"by external id", contact.Input{Name: "Maria", ExternalID: "crm-7"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logs := captureLogs(t)
			store := newMockStore()
			store.findContactErr = errors.New("connection reset")

			id, err := NewContactResolver(store).Resolve(context.Background(), tt.in)
			if err != nil {
				t.Fatalf("lookup failure must not abort resolution: %v", err)
			}
			if id == "" || store.createContactHits != 1 {
				t.Errorf("expected a new contact, got id=%q inserts=%d", id, store.createContactHits)
			}
			if !strings.Contains(logs.String(), "contact lookup failed") {
				t.Errorf("expected lookup failure to be logged, got %s", logs.String())
			}
		})
	}
}
