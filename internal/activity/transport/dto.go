package transport

import (
	"time"

	"github.com/google/uuid"
)

// RecordPaymentRequest records one payment for a customer of the caller's
// business. occurredAt defaults to now when omitted.
type RecordPaymentRequest struct {
	CustomerID  uuid.UUID  `json:"customerId" validate:"required"`
	AmountCents int64      `json:"amountCents" validate:"min=0"`
	Succeeded   *bool      `json:"succeeded,omitempty"`
	OccurredAt  *time.Time `json:"occurredAt,omitempty"`
}

// RecordAppointmentRequest records one appointment touch.
type RecordAppointmentRequest struct {
	CustomerID uuid.UUID  `json:"customerId" validate:"required"`
	OccurredAt *time.Time `json:"occurredAt,omitempty"`
}

// RecordActivityResponse confirms one recorded activity.
type RecordActivityResponse struct {
	CustomerID uuid.UUID `json:"customerId"`
	BusinessID uuid.UUID `json:"businessId"`
	OccurredAt string    `json:"occurredAt"`
	Activated  bool      `json:"activated,omitempty"`
}
