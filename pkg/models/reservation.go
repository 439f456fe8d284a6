package models

import (
	"time"

	"semprejoias/pkg/metadata"
)

// Reservation promises future stock of a SKU; it is not tied to a unit.
type Reservation struct {
	ID        string                     `json:"id"`
	SKU       string                     `json:"sku"`
	Quantity  int                        `json:"quantity"`
	Note      string                     `json:"note,omitempty"`
	Customer  string                     `json:"customer,omitempty"`
	Status    metadata.ReservationStatus `json:"status"`
	CreatedAt time.Time                  `json:"createdAt"`
	CreatedBy string                     `json:"createdBy,omitempty"`
	Version   int                        `json:"version"`
}

func (r *Reservation) Normalize() {
	if r.Status == "" {
		r.Status = metadata.ReservationPending
	}
	if r.Quantity <= 0 {
		r.Quantity = 1
	}
}

func (r *Reservation) CreateLogView() AuditLog {
	return AuditLog{
		ResourceID:   r.ID,
		ResourceType: "reservation",
	}
}
