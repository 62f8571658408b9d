package domain

import "time"

// Account is a user's wallet. Balance is the fold of all completed ledger
// entries for the owner, cached for O(1) reads; it only changes through an
// appended entry and is never negative after a successful debit.
type Account struct {
	OwnerID   string
	Balance   Money
	UpdatedAt time.Time
}

// EntryKind classifies a ledger entry.
type EntryKind string

const (
	EntryKindTopUp   EntryKind = "TOP_UP"
	EntryKindPayment EntryKind = "PAYMENT"
	EntryKindRefund  EntryKind = "REFUND"
)

// EntryStatus is the processing state of a ledger entry.
type EntryStatus string

const (
	EntryStatusPending   EntryStatus = "PENDING"
	EntryStatusCompleted EntryStatus = "COMPLETED"
	EntryStatusFailed    EntryStatus = "FAILED"
)

// LedgerEntry is one immutable, signed monetary movement on an account.
// Positive amounts credit the account, negative amounts debit it. Entries
// are append-only: corrections are new entries, never edits, and a
// completed entry's amount and owner never change.
type LedgerEntry struct {
	ID        string
	OwnerID   string
	TripID    string // empty for standalone top-ups
	RefundOf  string // original entry ID when Kind is REFUND
	Amount    Money
	Kind      EntryKind
	Status    EntryStatus
	CreatedAt time.Time
}

// Clone returns a copy of the entry.
func (e *LedgerEntry) Clone() *LedgerEntry {
	if e == nil {
		return nil
	}
	clone := *e
	return &clone
}
