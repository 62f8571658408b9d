package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"rideshare/internal/domain"
	"rideshare/internal/keylock"
	"rideshare/internal/repository"
)

// PaymentProvider is the interface for the external payment provider that
// funds wallet top-ups.
type PaymentProvider interface {
	Charge(ctx context.Context, ownerID string, amount domain.Money) (bool, error)
}

// MockProvider is an in-memory PaymentProvider. The real gateway adapter
// lives outside this service; everything here talks to the capability,
// not the vendor.
type MockProvider struct{}

// NewMockProvider creates a new mock payment provider.
func NewMockProvider() *MockProvider {
	return &MockProvider{}
}

// Charge simulates a charge. Always succeeds.
func (p *MockProvider) Charge(ctx context.Context, ownerID string, amount domain.Money) (bool, error) {
	return true, nil
}

// WalletService owns accounts and their append-only ledgers. Every
// balance change goes through an entry, and all operations on one
// account serialize on a per-owner lock, so the cached balance always
// equals the fold of completed entries.
type WalletService struct {
	repo     repository.WalletRepository
	provider PaymentProvider
	notifier Notifier
	clock    Clock
	locks    *keylock.Table
}

// NewWalletService creates a new WalletService.
func NewWalletService(
	repo repository.WalletRepository,
	provider PaymentProvider,
	notifier Notifier,
	clock Clock,
) *WalletService {
	return &WalletService{
		repo:     repo,
		provider: provider,
		notifier: notifier,
		clock:    clock,
		locks:    keylock.New(),
	}
}

// CreditRequest contains the parameters for crediting an account.
type CreditRequest struct {
	OwnerID string
	Amount  domain.Money
	TripID  string           // Optional: empty for standalone credits
	Kind    domain.EntryKind // Optional: defaults to PAYMENT
}

// Credit appends a completed credit entry and raises the balance. Always
// succeeds for a positive amount.
func (s *WalletService) Credit(ctx context.Context, req CreditRequest) (*domain.LedgerEntry, error) {
	if req.OwnerID == "" {
		return nil, ErrInvalidOwnerID
	}
	if req.Amount <= 0 {
		return nil, ErrInvalidAmount
	}

	kind := req.Kind
	if kind == "" {
		kind = domain.EntryKindPayment
	}

	s.locks.Lock(req.OwnerID)
	defer s.locks.Unlock(req.OwnerID)

	balance, err := s.balanceLocked(ctx, req.OwnerID)
	if err != nil {
		return nil, err
	}

	entry := &domain.LedgerEntry{
		ID:        uuid.New().String(),
		OwnerID:   req.OwnerID,
		TripID:    req.TripID,
		Amount:    req.Amount,
		Kind:      kind,
		Status:    domain.EntryStatusCompleted,
		CreatedAt: s.clock.Now(),
	}

	if err := s.repo.AppendEntry(ctx, entry, balance+req.Amount); err != nil {
		return nil, err
	}

	return entry, nil
}

// DebitRequest contains the parameters for debiting an account.
type DebitRequest struct {
	OwnerID string
	Amount  domain.Money
	TripID  string // Optional
}

// Debit appends a completed negative entry and lowers the balance. The
// balance check and the write happen under the per-owner lock, so a
// debit never drives the balance negative regardless of interleaving.
func (s *WalletService) Debit(ctx context.Context, req DebitRequest) (*domain.LedgerEntry, error) {
	if req.OwnerID == "" {
		return nil, ErrInvalidOwnerID
	}
	if req.Amount <= 0 {
		return nil, ErrInvalidAmount
	}

	s.locks.Lock(req.OwnerID)
	defer s.locks.Unlock(req.OwnerID)

	balance, err := s.balanceLocked(ctx, req.OwnerID)
	if err != nil {
		return nil, err
	}

	if balance < req.Amount {
		return nil, ErrInsufficientFunds
	}

	entry := &domain.LedgerEntry{
		ID:        uuid.New().String(),
		OwnerID:   req.OwnerID,
		TripID:    req.TripID,
		Amount:    -req.Amount,
		Kind:      domain.EntryKindPayment,
		Status:    domain.EntryStatusCompleted,
		CreatedAt: s.clock.Now(),
	}

	if err := s.repo.AppendEntry(ctx, entry, balance-req.Amount); err != nil {
		return nil, err
	}

	return entry, nil
}

// Refund appends a compensating credit for a completed debit. The
// original entry is never mutated; the refund references it via
// RefundOf.
func (s *WalletService) Refund(ctx context.Context, entryID string) (*domain.LedgerEntry, error) {
	if entryID == "" {
		return nil, ErrInvalidEntryID
	}

	orig, err := s.repo.GetEntry(ctx, entryID)
	if err != nil {
		return nil, err
	}

	if orig.Status != domain.EntryStatusCompleted || orig.Amount >= 0 {
		return nil, ErrEntryNotRefundable
	}

	s.locks.Lock(orig.OwnerID)
	defer s.locks.Unlock(orig.OwnerID)

	// A debit refunds at most once.
	prior, err := s.repo.ListEntries(ctx, orig.OwnerID)
	if err != nil {
		return nil, err
	}
	for _, e := range prior {
		if e.RefundOf == orig.ID {
			return nil, ErrEntryNotRefundable
		}
	}

	balance, err := s.balanceLocked(ctx, orig.OwnerID)
	if err != nil {
		return nil, err
	}

	refund := &domain.LedgerEntry{
		ID:        uuid.New().String(),
		OwnerID:   orig.OwnerID,
		TripID:    orig.TripID,
		RefundOf:  orig.ID,
		Amount:    -orig.Amount,
		Kind:      domain.EntryKindRefund,
		Status:    domain.EntryStatusCompleted,
		CreatedAt: s.clock.Now(),
	}

	if err := s.repo.AppendEntry(ctx, refund, balance+refund.Amount); err != nil {
		return nil, err
	}

	if s.notifier != nil {
		_ = s.notifier.Notify(ctx, refund.OwnerID, EventRefundCompleted, map[string]any{
			"entry_id":  refund.ID,
			"refund_of": orig.ID,
			"amount":    refund.Amount.String(),
		})
	}

	return refund, nil
}

// TopUpRequest contains the parameters for topping up an account.
type TopUpRequest struct {
	OwnerID string
	Amount  domain.Money
}

// TopUp records a pending entry, charges the payment provider, then
// resolves the entry to COMPLETED or FAILED. The balance only moves on
// completion, and the provider is called without the account lock held
// so unrelated wallet traffic is never stalled behind a slow charge.
// A declined charge is reported through the returned entry's status, not
// an error.
func (s *WalletService) TopUp(ctx context.Context, req TopUpRequest) (*domain.LedgerEntry, error) {
	if req.OwnerID == "" {
		return nil, ErrInvalidOwnerID
	}
	if req.Amount <= 0 {
		return nil, ErrInvalidAmount
	}

	entry := &domain.LedgerEntry{
		ID:        uuid.New().String(),
		OwnerID:   req.OwnerID,
		Amount:    req.Amount,
		Kind:      domain.EntryKindTopUp,
		Status:    domain.EntryStatusPending,
		CreatedAt: s.clock.Now(),
	}

	if err := s.appendPending(ctx, entry); err != nil {
		return nil, err
	}

	ok, chargeErr := s.provider.Charge(ctx, req.OwnerID, req.Amount)

	s.locks.Lock(req.OwnerID)
	defer s.locks.Unlock(req.OwnerID)

	balance, err := s.balanceLocked(ctx, req.OwnerID)
	if err != nil {
		return nil, err
	}

	if chargeErr != nil || !ok {
		if err := s.repo.ResolveEntry(ctx, entry.ID, domain.EntryStatusFailed, balance); err != nil {
			return nil, err
		}
		entry.Status = domain.EntryStatusFailed
		if s.notifier != nil {
			_ = s.notifier.Notify(ctx, req.OwnerID, EventTopUpFailed, map[string]any{
				"entry_id": entry.ID,
				"amount":   req.Amount.String(),
			})
		}
		return entry, nil
	}

	if err := s.repo.ResolveEntry(ctx, entry.ID, domain.EntryStatusCompleted, balance+req.Amount); err != nil {
		return nil, err
	}
	entry.Status = domain.EntryStatusCompleted
	if s.notifier != nil {
		_ = s.notifier.Notify(ctx, req.OwnerID, EventTopUpCompleted, map[string]any{
			"entry_id": entry.ID,
			"amount":   req.Amount.String(),
		})
	}

	return entry, nil
}

// Balance returns the owner's balance. An owner with no account yet has
// a zero balance; accounts materialize with their first entry.
func (s *WalletService) Balance(ctx context.Context, ownerID string) (domain.Money, error) {
	if ownerID == "" {
		return 0, ErrInvalidOwnerID
	}

	acct, err := s.repo.GetAccount(ctx, ownerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return acct.Balance, nil
}

// History returns the owner's ledger entries, newest first.
func (s *WalletService) History(ctx context.Context, ownerID string) ([]*domain.LedgerEntry, error) {
	if ownerID == "" {
		return nil, ErrInvalidOwnerID
	}
	return s.repo.ListEntries(ctx, ownerID)
}

// Entry returns one ledger entry by ID.
func (s *WalletService) Entry(ctx context.Context, entryID string) (*domain.LedgerEntry, error) {
	if entryID == "" {
		return nil, ErrInvalidEntryID
	}
	return s.repo.GetEntry(ctx, entryID)
}

// appendPending writes a pending entry under the account lock without
// moving the balance.
func (s *WalletService) appendPending(ctx context.Context, entry *domain.LedgerEntry) error {
	s.locks.Lock(entry.OwnerID)
	defer s.locks.Unlock(entry.OwnerID)

	balance, err := s.balanceLocked(ctx, entry.OwnerID)
	if err != nil {
		return err
	}
	return s.repo.AppendEntry(ctx, entry, balance)
}

// balanceLocked reads the owner's balance. Caller holds the owner lock.
func (s *WalletService) balanceLocked(ctx context.Context, ownerID string) (domain.Money, error) {
	acct, err := s.repo.GetAccount(ctx, ownerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return acct.Balance, nil
}
