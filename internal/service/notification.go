package service

import (
	"context"
	"log"
	"time"
)

// Event identifies what happened to a trip or wallet.
type Event string

const (
	EventTripCreated     Event = "TRIP_CREATED"
	EventTripAccepted    Event = "TRIP_ACCEPTED"
	EventTripPaid        Event = "TRIP_PAID"
	EventTripStarted     Event = "TRIP_STARTED"
	EventTripCompleted   Event = "TRIP_COMPLETED"
	EventTripCancelled   Event = "TRIP_CANCELLED"
	EventPaymentFailed   Event = "PAYMENT_FAILED"
	EventEarningSettled  Event = "EARNING_SETTLED"
	EventTopUpCompleted  Event = "TOP_UP_COMPLETED"
	EventTopUpFailed     Event = "TOP_UP_FAILED"
	EventRefundCompleted Event = "REFUND_COMPLETED"
)

// Notifier is the outbound notification port. Delivery is fire-and-
// forget: a failure to notify never fails or rolls back the state
// transition that produced the event, so callers ignore the returned
// error outside of logging.
type Notifier interface {
	Notify(ctx context.Context, userID string, event Event, payload map[string]any) error
}

// Notification is one outbound message.
type Notification struct {
	Event       Event
	RecipientID string
	Title       string
	Payload     map[string]any
	CreatedAt   time.Time
}

// NotificationService is the log-backed Notifier used until a real
// delivery channel (push, SMS, websocket fan-out) is wired in.
type NotificationService struct{}

// NewNotificationService creates a new NotificationService.
func NewNotificationService() *NotificationService {
	return &NotificationService{}
}

// Notify delivers a notification to one user.
func (s *NotificationService) Notify(ctx context.Context, userID string, event Event, payload map[string]any) error {
	if userID == "" {
		return nil // No one to notify
	}

	n := Notification{
		Event:       event,
		RecipientID: userID,
		Title:       eventTitle(event),
		Payload:     payload,
		CreatedAt:   time.Now(),
	}

	log.Printf("[NOTIFICATION] Event=%s, Recipient=%s, Title=%s, Payload=%v",
		n.Event, n.RecipientID, n.Title, n.Payload)

	return nil
}

func eventTitle(event Event) string {
	switch event {
	case EventTripCreated:
		return "Trip Published"
	case EventTripAccepted:
		return "Driver Found"
	case EventTripPaid:
		return "Payment Received"
	case EventTripStarted:
		return "Trip Started"
	case EventTripCompleted:
		return "Trip Completed"
	case EventTripCancelled:
		return "Trip Cancelled"
	case EventPaymentFailed:
		return "Payment Failed"
	case EventEarningSettled:
		return "Earning Settled"
	case EventTopUpCompleted:
		return "Top-Up Successful"
	case EventTopUpFailed:
		return "Top-Up Failed"
	case EventRefundCompleted:
		return "Refund Issued"
	default:
		return string(event)
	}
}
