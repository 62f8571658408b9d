// Package memory provides an in-memory implementation of the repository
// interfaces. The store is an explicit object constructed once and passed
// by handle; there is no package-level state. It backs tests and
// single-node deployments, and implements TripStream natively by pushing
// a fresh snapshot on every trip write.
package memory

import (
	"context"
	"sort"
	"sync"

	"rideshare/internal/domain"
	"rideshare/internal/repository"
)

// Store holds trips, accounts and ledger entries behind one RWMutex.
// All reads return deep copies, so callers can never mutate stored state
// without going through a write method.
type Store struct {
	mu       sync.RWMutex
	trips    map[string]*domain.Trip
	accounts map[string]*domain.Account
	entries  map[string]*domain.LedgerEntry
	ledger   []string // entry IDs in append order

	watchMu   sync.Mutex
	watchers  map[int]chan []*domain.Trip
	nextWatch int
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		trips:    make(map[string]*domain.Trip),
		accounts: make(map[string]*domain.Account),
		entries:  make(map[string]*domain.LedgerEntry),
		watchers: make(map[int]chan []*domain.Trip),
	}
}

// Compile-time interface checks.
var (
	_ repository.TripRepository   = (*Store)(nil)
	_ repository.WalletRepository = (*Store)(nil)
	_ repository.TripStream       = (*Store)(nil)
)

// Create persists a new trip.
func (s *Store) Create(ctx context.Context, trip *domain.Trip) error {
	s.mu.Lock()
	s.trips[trip.ID] = trip.Clone()
	snapshot := s.openLocked()
	s.mu.Unlock()

	s.broadcast(snapshot)
	return nil
}

// GetByID retrieves a trip by ID.
func (s *Store) GetByID(ctx context.Context, id string) (*domain.Trip, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	trip, ok := s.trips[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return trip.Clone(), nil
}

// GetOpen retrieves all PENDING trips, ordered by creation time.
func (s *Store) GetOpen(ctx context.Context) ([]*domain.Trip, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.openLocked(), nil
}

// GetAll retrieves all trips, ordered by creation time.
func (s *Store) GetAll(ctx context.Context) ([]*domain.Trip, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	trips := make([]*domain.Trip, 0, len(s.trips))
	for _, trip := range s.trips {
		trips = append(trips, trip.Clone())
	}
	sortTrips(trips)
	return trips, nil
}

// Update updates an existing trip.
func (s *Store) Update(ctx context.Context, trip *domain.Trip) error {
	s.mu.Lock()
	if _, ok := s.trips[trip.ID]; !ok {
		s.mu.Unlock()
		return repository.ErrNotFound
	}
	s.trips[trip.ID] = trip.Clone()
	snapshot := s.openLocked()
	s.mu.Unlock()

	s.broadcast(snapshot)
	return nil
}

// GetActiveByDriverID retrieves the trip a driver is currently assigned
// to, if any.
func (s *Store) GetActiveByDriverID(ctx context.Context, driverID string) (*domain.Trip, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, trip := range s.trips {
		if trip.Driver == nil || trip.Driver.ID != driverID {
			continue
		}
		if trip.Status.IsTerminal() {
			continue
		}
		return trip.Clone(), nil
	}
	return nil, nil
}

// GetAccount retrieves an account by owner ID.
func (s *Store) GetAccount(ctx context.Context, ownerID string) (*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	acct, ok := s.accounts[ownerID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	clone := *acct
	return &clone, nil
}

// AppendEntry persists a ledger entry and sets the owner's balance,
// creating the account on first use.
func (s *Store) AppendEntry(ctx context.Context, entry *domain.LedgerEntry, newBalance domain.Money) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[entry.ID] = entry.Clone()
	s.ledger = append(s.ledger, entry.ID)

	acct, ok := s.accounts[entry.OwnerID]
	if !ok {
		acct = &domain.Account{OwnerID: entry.OwnerID}
		s.accounts[entry.OwnerID] = acct
	}
	acct.Balance = newBalance
	acct.UpdatedAt = entry.CreatedAt

	return nil
}

// ResolveEntry moves a pending entry to a terminal status and sets the
// owner's balance.
func (s *Store) ResolveEntry(ctx context.Context, entryID string, status domain.EntryStatus, newBalance domain.Money) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[entryID]
	if !ok {
		return repository.ErrNotFound
	}
	entry.Status = status

	acct, ok := s.accounts[entry.OwnerID]
	if !ok {
		acct = &domain.Account{OwnerID: entry.OwnerID}
		s.accounts[entry.OwnerID] = acct
	}
	acct.Balance = newBalance

	return nil
}

// GetEntry retrieves a ledger entry by ID.
func (s *Store) GetEntry(ctx context.Context, entryID string) (*domain.LedgerEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[entryID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return entry.Clone(), nil
}

// ListEntries retrieves an owner's ledger entries, newest first.
func (s *Store) ListEntries(ctx context.Context, ownerID string) ([]*domain.LedgerEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var entries []*domain.LedgerEntry
	for i := len(s.ledger) - 1; i >= 0; i-- {
		entry := s.entries[s.ledger[i]]
		if entry.OwnerID == ownerID {
			entries = append(entries, entry.Clone())
		}
	}
	return entries, nil
}

// WatchOpen returns a channel of open-trip snapshots. The current
// snapshot is delivered immediately, then one on every trip write. The
// channel is closed when ctx is done.
func (s *Store) WatchOpen(ctx context.Context) <-chan []*domain.Trip {
	ch := make(chan []*domain.Trip, 1)

	s.mu.RLock()
	snapshot := s.openLocked()
	s.mu.RUnlock()
	ch <- snapshot

	s.watchMu.Lock()
	id := s.nextWatch
	s.nextWatch++
	s.watchers[id] = ch
	s.watchMu.Unlock()

	go func() {
		<-ctx.Done()
		s.watchMu.Lock()
		delete(s.watchers, id)
		s.watchMu.Unlock()
		close(ch)
	}()

	return ch
}

// openLocked builds the open-trip snapshot. Caller must hold s.mu.
func (s *Store) openLocked() []*domain.Trip {
	open := make([]*domain.Trip, 0)
	for _, trip := range s.trips {
		if trip.Status == domain.TripStatusPending {
			open = append(open, trip.Clone())
		}
	}
	sortTrips(open)
	return open
}

// broadcast pushes a snapshot to every watcher without blocking.
func (s *Store) broadcast(snapshot []*domain.Trip) {
	s.watchMu.Lock()
	defer s.watchMu.Unlock()

	for _, ch := range s.watchers {
		repository.Offer(ch, snapshot)
	}
}

func sortTrips(trips []*domain.Trip) {
	sort.Slice(trips, func(i, j int) bool {
		if trips[i].CreatedAt.Equal(trips[j].CreatedAt) {
			return trips[i].ID < trips[j].ID
		}
		return trips[i].CreatedAt.Before(trips[j].CreatedAt)
	})
}
