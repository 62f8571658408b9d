package repository

import (
	"context"

	"rideshare/internal/domain"
)

// WalletRepository defines the persistence operations for accounts and
// their ledger entries. AppendEntry and ResolveEntry write the entry and
// the owner's cached balance as one atomic unit; callers serialize
// per-account access and supply the new balance.
type WalletRepository interface {
	// GetAccount retrieves an account by owner ID.
	GetAccount(ctx context.Context, ownerID string) (*domain.Account, error)

	// AppendEntry persists a new ledger entry and sets the owner's
	// balance, creating the account if it does not exist yet.
	AppendEntry(ctx context.Context, entry *domain.LedgerEntry, newBalance domain.Money) error

	// ResolveEntry moves a pending entry to a terminal status and sets
	// the owner's balance.
	ResolveEntry(ctx context.Context, entryID string, status domain.EntryStatus, newBalance domain.Money) error

	// GetEntry retrieves a ledger entry by ID.
	GetEntry(ctx context.Context, entryID string) (*domain.LedgerEntry, error)

	// ListEntries retrieves an owner's ledger entries, newest first.
	ListEntries(ctx context.Context, ownerID string) ([]*domain.LedgerEntry, error)
}
