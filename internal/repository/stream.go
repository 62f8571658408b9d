package repository

import (
	"context"
	"time"

	"rideshare/internal/domain"
)

// TripStream delivers snapshots of the open trip set as it changes.
type TripStream interface {
	// WatchOpen returns a channel of open-trip snapshots. The channel is
	// closed when ctx is done. Slow receivers see the latest snapshot,
	// not every intermediate one.
	WatchOpen(ctx context.Context) <-chan []*domain.Trip
}

// OpenTripPoller implements TripStream over a plain TripRepository by
// polling at a fixed interval. Used for backends without native change
// notification; the interval bounds snapshot staleness.
type OpenTripPoller struct {
	repo     TripRepository
	interval time.Duration
}

// NewOpenTripPoller creates a poller with the given interval. Intervals
// of zero or less default to one second.
func NewOpenTripPoller(repo TripRepository, interval time.Duration) *OpenTripPoller {
	if interval <= 0 {
		interval = time.Second
	}
	return &OpenTripPoller{repo: repo, interval: interval}
}

// WatchOpen polls the repository and pushes a snapshot whenever the open
// trip set changes. The first successful poll is always pushed.
func (p *OpenTripPoller) WatchOpen(ctx context.Context) <-chan []*domain.Trip {
	out := make(chan []*domain.Trip, 1)

	go func() {
		defer close(out)

		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		var last []*domain.Trip
		sent := false

		for {
			trips, err := p.repo.GetOpen(ctx)
			if err == nil && (!sent || openSetChanged(last, trips)) {
				Offer(out, trips)
				last = trips
				sent = true
			}

			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()

	return out
}

// Offer delivers a snapshot without blocking: if the receiver is lagging,
// the pending snapshot is replaced with the fresh one.
func Offer(ch chan []*domain.Trip, trips []*domain.Trip) {
	select {
	case ch <- trips:
		return
	default:
	}

	select {
	case <-ch:
	default:
	}

	select {
	case ch <- trips:
	default:
	}
}

// openSetChanged compares two snapshots as sets of (ID, UpdatedAt) pairs,
// so repository ordering differences do not count as changes.
func openSetChanged(old, cur []*domain.Trip) bool {
	if len(old) != len(cur) {
		return true
	}

	seen := make(map[string]time.Time, len(old))
	for _, t := range old {
		seen[t.ID] = t.UpdatedAt
	}

	for _, t := range cur {
		at, ok := seen[t.ID]
		if !ok || !at.Equal(t.UpdatedAt) {
			return true
		}
	}
	return false
}
