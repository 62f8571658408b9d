package repository

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"rideshare/internal/domain"
)

// stubTripRepo is a TripRepository whose open set is settable from the
// test.
type stubTripRepo struct {
	mu   sync.Mutex
	open []*domain.Trip
	err  error
}

func (s *stubTripRepo) SetOpen(trips []*domain.Trip) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.open = trips
}

func (s *stubTripRepo) SetErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

func (s *stubTripRepo) GetOpen(ctx context.Context) ([]*domain.Trip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	out := make([]*domain.Trip, len(s.open))
	copy(out, s.open)
	return out, nil
}

func (s *stubTripRepo) Create(ctx context.Context, trip *domain.Trip) error { return nil }
func (s *stubTripRepo) Update(ctx context.Context, trip *domain.Trip) error { return nil }

func (s *stubTripRepo) GetByID(ctx context.Context, id string) (*domain.Trip, error) {
	return nil, ErrNotFound
}

func (s *stubTripRepo) GetAll(ctx context.Context) ([]*domain.Trip, error) {
	return s.GetOpen(ctx)
}

func (s *stubTripRepo) GetActiveByDriverID(ctx context.Context, driverID string) (*domain.Trip, error) {
	return nil, nil
}

func receiveSnapshot(t *testing.T, ch <-chan []*domain.Trip) []*domain.Trip {
	t.Helper()
	select {
	case snap, ok := <-ch:
		if !ok {
			t.Fatal("stream closed early")
		}
		return snap
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for snapshot")
	}
	return nil
}

func TestOffer_ReplacesPendingSnapshot(t *testing.T) {
	t.Parallel()

	ch := make(chan []*domain.Trip, 1)

	Offer(ch, []*domain.Trip{{ID: "trip-1"}})
	Offer(ch, []*domain.Trip{{ID: "trip-2"}})

	got := <-ch
	if len(got) != 1 || got[0].ID != "trip-2" {
		t.Fatalf("expected the fresh snapshot, got %d trips", len(got))
	}

	select {
	case <-ch:
		t.Error("expected channel to be drained")
	default:
	}
}

func TestOpenSetChanged(t *testing.T) {
	t.Parallel()

	now := time.Now()
	a := &domain.Trip{ID: "trip-a", UpdatedAt: now}
	b := &domain.Trip{ID: "trip-b", UpdatedAt: now}
	bTouched := &domain.Trip{ID: "trip-b", UpdatedAt: now.Add(time.Second)}

	cases := []struct {
		name     string
		old, cur []*domain.Trip
		want     bool
	}{
		{"both empty", nil, nil, false},
		{"same set reordered", []*domain.Trip{a, b}, []*domain.Trip{b, a}, false},
		{"trip added", []*domain.Trip{a}, []*domain.Trip{a, b}, true},
		{"trip removed", []*domain.Trip{a, b}, []*domain.Trip{a}, true},
		{"trip updated", []*domain.Trip{a, b}, []*domain.Trip{a, bTouched}, true},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			if got := openSetChanged(tc.old, tc.cur); got != tc.want {
				t.Errorf("openSetChanged = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestOpenTripPoller_PushesFirstPollAndChanges(t *testing.T) {
	t.Parallel()

	repo := &stubTripRepo{}
	poller := NewOpenTripPoller(repo, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := poller.WatchOpen(ctx)

	first := receiveSnapshot(t, ch)
	if len(first) != 0 {
		t.Errorf("expected empty first snapshot, got %d trips", len(first))
	}

	repo.SetOpen([]*domain.Trip{{ID: "trip-1", UpdatedAt: time.Now()}})

	next := receiveSnapshot(t, ch)
	if len(next) != 1 || next[0].ID != "trip-1" {
		t.Fatalf("expected snapshot with trip-1, got %d trips", len(next))
	}

	// The open set has not changed since; nothing further should arrive.
	select {
	case snap, ok := <-ch:
		if ok {
			t.Errorf("unexpected snapshot with %d trips", len(snap))
		}
	case <-time.After(100 * time.Millisecond):
	}
}

func TestOpenTripPoller_SkipsFailedPolls(t *testing.T) {
	t.Parallel()

	repo := &stubTripRepo{}
	repo.SetErr(errors.New("store unavailable"))
	poller := NewOpenTripPoller(repo, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := poller.WatchOpen(ctx)

	// While polls fail, nothing is pushed.
	select {
	case <-ch:
		t.Fatal("expected no snapshot while polls fail")
	case <-time.After(100 * time.Millisecond):
	}

	repo.SetErr(nil)

	first := receiveSnapshot(t, ch)
	if len(first) != 0 {
		t.Errorf("expected empty snapshot after recovery, got %d trips", len(first))
	}
}

func TestOpenTripPoller_ClosesOnCancel(t *testing.T) {
	t.Parallel()

	repo := &stubTripRepo{}
	poller := NewOpenTripPoller(repo, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	ch := poller.WatchOpen(ctx)

	receiveSnapshot(t, ch)
	cancel()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("stream not closed after cancel")
		}
	}
}

func TestOpenTripPoller_DefaultsInterval(t *testing.T) {
	t.Parallel()

	poller := NewOpenTripPoller(&stubTripRepo{}, 0)
	if poller.interval != time.Second {
		t.Errorf("expected default interval 1s, got %v", poller.interval)
	}
}
