package postgres

import (
	"context"
	"database/sql"
	"errors"

	"rideshare/internal/domain"
	"rideshare/internal/repository"
)

const entryColumns = `id, owner_id, trip_id, refund_of, amount, kind, status, created_at`

// WalletRepository is a PostgreSQL implementation of
// repository.WalletRepository. It holds *sql.DB rather than a Querier
// because AppendEntry and ResolveEntry span two statements and open
// their own transaction.
type WalletRepository struct {
	db *sql.DB
}

// NewWalletRepository creates a new PostgreSQL wallet repository.
func NewWalletRepository(db *sql.DB) *WalletRepository {
	return &WalletRepository{db: db}
}

// GetAccount retrieves an account by owner ID.
func (r *WalletRepository) GetAccount(ctx context.Context, ownerID string) (*domain.Account, error) {
	query := `SELECT owner_id, balance, updated_at FROM accounts WHERE owner_id = $1`

	var acct domain.Account
	var balance int64

	err := r.db.QueryRowContext(ctx, query, ownerID).Scan(&acct.OwnerID, &balance, &acct.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	acct.Balance = domain.Money(balance)
	return &acct, nil
}

// AppendEntry persists a ledger entry and the owner's new balance in one
// transaction, creating the account on first use.
func (r *WalletRepository) AppendEntry(ctx context.Context, entry *domain.LedgerEntry, newBalance domain.Money) error {
	return runInTx(ctx, r.db, func(tx *sql.Tx) error {
		insertEntry := `
			INSERT INTO ledger_entries (` + entryColumns + `)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`

		var tripID, refundOf sql.NullString
		if entry.TripID != "" {
			tripID = sql.NullString{String: entry.TripID, Valid: true}
		}
		if entry.RefundOf != "" {
			refundOf = sql.NullString{String: entry.RefundOf, Valid: true}
		}

		if _, err := tx.ExecContext(ctx, insertEntry,
			entry.ID,
			entry.OwnerID,
			tripID,
			refundOf,
			int64(entry.Amount),
			entry.Kind,
			entry.Status,
			entry.CreatedAt,
		); err != nil {
			return err
		}

		upsertAccount := `
			INSERT INTO accounts (owner_id, balance, updated_at)
			VALUES ($1, $2, $3)
			ON CONFLICT (owner_id) DO UPDATE
			SET balance = EXCLUDED.balance, updated_at = EXCLUDED.updated_at
		`

		_, err := tx.ExecContext(ctx, upsertAccount, entry.OwnerID, int64(newBalance), entry.CreatedAt)
		return err
	})
}

// ResolveEntry moves a pending entry to a terminal status and sets the
// owner's balance in one transaction.
func (r *WalletRepository) ResolveEntry(ctx context.Context, entryID string, status domain.EntryStatus, newBalance domain.Money) error {
	return runInTx(ctx, r.db, func(tx *sql.Tx) error {
		updateEntry := `UPDATE ledger_entries SET status = $1 WHERE id = $2 RETURNING owner_id`

		var ownerID string
		if err := tx.QueryRowContext(ctx, updateEntry, status, entryID).Scan(&ownerID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return repository.ErrNotFound
			}
			return err
		}

		updateAccount := `UPDATE accounts SET balance = $1 WHERE owner_id = $2`
		_, err := tx.ExecContext(ctx, updateAccount, int64(newBalance), ownerID)
		return err
	})
}

// GetEntry retrieves a ledger entry by ID.
func (r *WalletRepository) GetEntry(ctx context.Context, entryID string) (*domain.LedgerEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM ledger_entries WHERE id = $1`

	entry, err := scanEntry(r.db.QueryRowContext(ctx, query, entryID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return entry, nil
}

// ListEntries retrieves an owner's ledger entries, newest first.
func (r *WalletRepository) ListEntries(ctx context.Context, ownerID string) ([]*domain.LedgerEntry, error) {
	query := `
		SELECT ` + entryColumns + `
		FROM ledger_entries
		WHERE owner_id = $1
		ORDER BY created_at DESC, id DESC
	`

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*domain.LedgerEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// scanEntry reads one ledger entry row in entryColumns order.
func scanEntry(row rowScanner) (*domain.LedgerEntry, error) {
	var entry domain.LedgerEntry
	var tripID, refundOf sql.NullString
	var amount int64

	err := row.Scan(
		&entry.ID,
		&entry.OwnerID,
		&tripID,
		&refundOf,
		&amount,
		&entry.Kind,
		&entry.Status,
		&entry.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	entry.Amount = domain.Money(amount)
	if tripID.Valid {
		entry.TripID = tripID.String
	}
	if refundOf.Valid {
		entry.RefundOf = refundOf.String
	}

	return &entry, nil
}
