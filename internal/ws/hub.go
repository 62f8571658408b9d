// Package ws pushes open-trip snapshots to connected drivers over
// WebSocket. The hub fans one snapshot stream out to all clients; a
// client that cannot keep up is dropped rather than allowed to stall
// the feed.
package ws

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"rideshare/internal/domain"
)

// Hub tracks connected feed clients and broadcasts open-trip snapshots
// to them.
type Hub struct {
	mu      sync.Mutex
	clients map[*Client]struct{}
	last    []byte
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
	}
}

// Run consumes open-trip snapshots and broadcasts each one until ctx is
// done or the stream closes.
func (h *Hub) Run(ctx context.Context, updates <-chan []*domain.Trip) {
	for {
		select {
		case <-ctx.Done():
			return
		case trips, ok := <-updates:
			if !ok {
				return
			}

			frame, err := json.Marshal(newSnapshotFrame(trips))
			if err != nil {
				log.Printf("ws: marshal snapshot: %v", err)
				continue
			}

			h.broadcast(frame)
		}
	}
}

// add registers a client and queues the latest snapshot so a late
// joiner sees the current open set immediately.
func (h *Hub) add(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[c] = struct{}{}
	if h.last != nil {
		select {
		case c.send <- h.last:
		default:
		}
	}
}

// remove unregisters a client and closes its send channel. Safe to call
// more than once.
func (h *Hub) remove(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(c)
}

func (h *Hub) removeLocked(c *Client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
}

// broadcast sends a frame to every client. Clients with a full buffer
// are dropped.
func (h *Hub) broadcast(frame []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.last = frame
	for c := range h.clients {
		select {
		case c.send <- frame:
		default:
			h.removeLocked(c)
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// snapshotFrame is one feed message: the full set of open trips.
type snapshotFrame struct {
	Type  string        `json:"type"`
	Count int           `json:"count"`
	Trips []tripSummary `json:"trips"`
}

// tripSummary is the feed's view of an open trip.
type tripSummary struct {
	ID               string  `json:"id"`
	OriginLabel      string  `json:"origin_label"`
	OriginLat        float64 `json:"origin_lat"`
	OriginLng        float64 `json:"origin_lng"`
	DestinationLabel string  `json:"destination_label"`
	DestinationLat   float64 `json:"destination_lat"`
	DestinationLng   float64 `json:"destination_lng"`
	DepartureTime    string  `json:"departure_time"`
	Seats            int     `json:"seats"`
	PricePerSeat     string  `json:"price_per_seat"`
	TotalCost        string  `json:"total_cost"`
	CreatedAt        string  `json:"created_at"`
}

func newSnapshotFrame(trips []*domain.Trip) snapshotFrame {
	summaries := make([]tripSummary, 0, len(trips))
	for _, t := range trips {
		summaries = append(summaries, tripSummary{
			ID:               t.ID,
			OriginLabel:      t.Origin.Label,
			OriginLat:        t.Origin.Point.Lat,
			OriginLng:        t.Origin.Point.Lng,
			DestinationLabel: t.Destination.Label,
			DestinationLat:   t.Destination.Point.Lat,
			DestinationLng:   t.Destination.Point.Lng,
			DepartureTime:    t.DepartureTime.Format(time.RFC3339),
			Seats:            t.Seats,
			PricePerSeat:     t.PricePerSeat.String(),
			TotalCost:        t.TotalCost.String(),
			CreatedAt:        t.CreatedAt.Format(time.RFC3339),
		})
	}

	return snapshotFrame{
		Type:  "open_trips",
		Count: len(summaries),
		Trips: summaries,
	}
}
