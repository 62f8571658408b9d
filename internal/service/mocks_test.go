package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"rideshare/internal/domain"
	"rideshare/internal/geo"
	"rideshare/internal/redis"
	"rideshare/internal/repository"
)

// ──────────────────────────────────────────────
// FAKE CLOCK
// ──────────────────────────────────────────────

// fakeClock is a Clock pinned to a settable instant.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(now time.Time) *fakeClock {
	return &fakeClock{now: now}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward.
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Set pins the clock to an instant.
func (c *fakeClock) Set(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

// ──────────────────────────────────────────────
// MOCK PAYMENT GATEWAY
// ──────────────────────────────────────────────

// MockGateway is a PaymentProvider with controllable outcomes.
type MockGateway struct {
	mu sync.Mutex

	// Control behavior
	ShouldDecline bool
	ChargeError   error

	// Counters
	ChargeCallCount int32
}

// NewMockGateway creates a new mock payment gateway.
func NewMockGateway() *MockGateway {
	return &MockGateway{}
}

func (m *MockGateway) Charge(ctx context.Context, ownerID string, amount domain.Money) (bool, error) {
	atomic.AddInt32(&m.ChargeCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ChargeError != nil {
		return false, m.ChargeError
	}
	if m.ShouldDecline {
		return false, nil
	}
	return true, nil
}

// ──────────────────────────────────────────────
// MOCK NOTIFIER
// ──────────────────────────────────────────────

type recordedEvent struct {
	UserID  string
	Event   Event
	Payload map[string]any
}

// MockNotifier records every notification for assertions.
type MockNotifier struct {
	mu     sync.Mutex
	events []recordedEvent
}

// NewMockNotifier creates a new mock notifier.
func NewMockNotifier() *MockNotifier {
	return &MockNotifier{}
}

func (m *MockNotifier) Notify(ctx context.Context, userID string, event Event, payload map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, recordedEvent{UserID: userID, Event: event, Payload: payload})
	return nil
}

// Count returns how many times an event was sent.
func (m *MockNotifier) Count(event Event) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, e := range m.events {
		if e.Event == event {
			count++
		}
	}
	return count
}

// LastRecipient returns who received the most recent occurrence of an
// event, or "" if it was never sent.
func (m *MockNotifier) LastRecipient(event Event) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.events) - 1; i >= 0; i-- {
		if m.events[i].Event == event {
			return m.events[i].UserID
		}
	}
	return ""
}

// ──────────────────────────────────────────────
// MOCK LOCATION STORE
// ──────────────────────────────────────────────

// MockLocationStore is an in-memory LocationStoreInterface.
type MockLocationStore struct {
	mu        sync.RWMutex
	positions []redis.DriverPosition

	// Counters
	UpdateLocationCallCount int32
	LastRadiusKm            float64

	// Error injection
	UpdateLocationError    error
	FindNearbyDriversError error
}

// NewMockLocationStore creates a new mock location store.
func NewMockLocationStore() *MockLocationStore {
	return &MockLocationStore{
		positions: make([]redis.DriverPosition, 0),
	}
}

// SetPositions replaces all positions (for test setup).
func (m *MockLocationStore) SetPositions(positions []redis.DriverPosition) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.positions = positions
}

func (m *MockLocationStore) UpdateLocation(ctx context.Context, driverID string, p geo.Point) error {
	atomic.AddInt32(&m.UpdateLocationCallCount, 1)
	if m.UpdateLocationError != nil {
		return m.UpdateLocationError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, pos := range m.positions {
		if pos.DriverID == driverID {
			m.positions[i].Point = p
			return nil
		}
	}
	m.positions = append(m.positions, redis.DriverPosition{DriverID: driverID, Point: p})
	return nil
}

func (m *MockLocationStore) FindNearbyDrivers(ctx context.Context, p geo.Point, radiusKm float64) ([]redis.DriverPosition, error) {
	if m.FindNearbyDriversError != nil {
		return nil, m.FindNearbyDriversError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastRadiusKm = radiusKm
	// Return all positions (mock does no real geo filtering).
	result := make([]redis.DriverPosition, len(m.positions))
	copy(result, m.positions)
	return result, nil
}

func (m *MockLocationStore) RemoveLocation(ctx context.Context, driverID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, pos := range m.positions {
		if pos.DriverID == driverID {
			m.positions = append(m.positions[:i], m.positions[i+1:]...)
			return nil
		}
	}
	return nil
}

// HasPosition reports whether a driver is in the index.
func (m *MockLocationStore) HasPosition(driverID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, pos := range m.positions {
		if pos.DriverID == driverID {
			return true
		}
	}
	return false
}

// ──────────────────────────────────────────────
// MOCK LOCK STORE
// ──────────────────────────────────────────────

// MockLockStore is an in-memory LockStoreInterface.
type MockLockStore struct {
	mu    sync.Mutex
	locks map[string]time.Time

	// Counters
	AcquireCallCount int32
	ReleaseCallCount int32

	// Force lock failure
	ForceAcquireFailure bool
}

// NewMockLockStore creates a new mock lock store.
func NewMockLockStore() *MockLockStore {
	return &MockLockStore{
		locks: make(map[string]time.Time),
	}
}

func (m *MockLockStore) AcquireTripLock(ctx context.Context, tripID string, ttl time.Duration) (bool, error) {
	atomic.AddInt32(&m.AcquireCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ForceAcquireFailure {
		return false, nil
	}
	if expiry, exists := m.locks[tripID]; exists && time.Now().Before(expiry) {
		return false, nil
	}
	m.locks[tripID] = time.Now().Add(ttl)
	return true, nil
}

func (m *MockLockStore) ReleaseTripLock(ctx context.Context, tripID string) error {
	atomic.AddInt32(&m.ReleaseCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locks, tripID)
	return nil
}

// IsLocked reports whether a trip lock is currently held.
func (m *MockLockStore) IsLocked(tripID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	expiry, exists := m.locks[tripID]
	return exists && time.Now().Before(expiry)
}

// ──────────────────────────────────────────────
// FAILING TRIP REPOSITORY
// ──────────────────────────────────────────────

// FailingTripRepository wraps a real repository with injectable errors.
type FailingTripRepository struct {
	repository.TripRepository

	// Error injection
	UpdateError  error
	GetOpenError error
}

func (f *FailingTripRepository) Update(ctx context.Context, trip *domain.Trip) error {
	if f.UpdateError != nil {
		return f.UpdateError
	}
	return f.TripRepository.Update(ctx, trip)
}

func (f *FailingTripRepository) GetOpen(ctx context.Context) ([]*domain.Trip, error) {
	if f.GetOpenError != nil {
		return nil, f.GetOpenError
	}
	return f.TripRepository.GetOpen(ctx)
}

// ──────────────────────────────────────────────
// HELPER ERRORS
// ──────────────────────────────────────────────

var (
	ErrMockDBDown  = errors.New("mock: database unavailable")
	ErrMockTimeout = errors.New("mock: operation timeout")
)
