// Package events holds the Kafka topics, CloudEvent types and payloads the
// shuttle service produces and consumes.
package events

import (
	"time"

	"github.com/google/uuid"
)

// Topics.
const (
	TopicBookingEvents = "booking.events"
	TopicWalletEvents  = "wallet.events"
	TopicPaymentEvents = "payment.events"
)

// CloudEvent types.
const (
	BookingCreated   = "booking.created"
	BookingConfirmed = "booking.confirmed"
	BookingCompleted = "booking.completed"
	BookingCancelled = "booking.cancelled"

	WalletRechargeRequested = "wallet.recharge.requested"
	WalletRechargeCompleted = "wallet.recharge.completed"
	WalletRechargeFailed    = "wallet.recharge.failed"

	PaymentRechargeSucceeded = "payment.recharge.succeeded"
	PaymentRechargeFailed    = "payment.recharge.failed"
)

// BookingCreatedEvent is published when a rider books a trip.
type BookingCreatedEvent struct {
	BookingID       uuid.UUID  `json:"booking_id"`
	BookingNumber   string     `json:"booking_number"`
	UserID          uuid.UUID  `json:"user_id"`
	RouteID         uuid.UUID  `json:"route_id"`
	SecondRouteID   *uuid.UUID `json:"second_route_id,omitempty"`
	StartStopID     uuid.UUID  `json:"start_stop_id"`
	EndStopID       uuid.UUID  `json:"end_stop_id"`
	PointsDeducted  int        `json:"points_deducted"`
	DurationMinutes int        `json:"duration_minutes"`
	OccurredAt      time.Time  `json:"occurred_at"`
}

// BookingStatusChangedEvent is published on confirm, complete and cancel.
type BookingStatusChangedEvent struct {
	BookingID      uuid.UUID `json:"booking_id"`
	BookingNumber  string    `json:"booking_number"`
	UserID         uuid.UUID `json:"user_id"`
	Status         string    `json:"status"`
	PointsRefunded int       `json:"points_refunded,omitempty"`
	Reason         string    `json:"reason,omitempty"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// RechargeRequestedEvent asks the payment collaborator to collect a recharge.
type RechargeRequestedEvent struct {
	TransactionID uuid.UUID `json:"transaction_id"`
	UserID        uuid.UUID `json:"user_id"`
	Amount        int       `json:"amount"`
	PaymentMethod string    `json:"payment_method"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// RechargeSettledEvent reports the final state of a recharge.
type RechargeSettledEvent struct {
	TransactionID uuid.UUID `json:"transaction_id"`
	UserID        uuid.UUID `json:"user_id"`
	Amount        int       `json:"amount"`
	Status        string    `json:"status"`
	Reason        string    `json:"reason,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// PaymentResultEvent is consumed from the payment collaborator.
type PaymentResultEvent struct {
	TransactionID uuid.UUID `json:"transaction_id"`
	PaymentRef    string    `json:"payment_ref,omitempty"`
	Reason        string    `json:"reason,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}
