package models

import (
	"time"

	"semprejoias/pkg/metadata"
)

type Customer struct {
	Name  string `json:"name"`
	Phone string `json:"phone,omitempty"`
	Email string `json:"email,omitempty"`
}

type Shipping struct {
	Street string `json:"street,omitempty"`
	Number string `json:"number,omitempty"`
	City   string `json:"city,omitempty"`
	State  string `json:"state,omitempty"`
	ZIP    string `json:"zip,omitempty"`
}

// Specs are the technical details the workshop builds from.
type Specs struct {
	Size      string `json:"size,omitempty"`
	Material  string `json:"material,omitempty"`
	Stone     string `json:"stone,omitempty"`
	Engraving string `json:"engraving,omitempty"`
	Finish    string `json:"finish,omitempty"`
	Notes     string `json:"notes,omitempty"`
}

type ProductionOrder struct {
	ID                 string                 `json:"id"`
	OrderNumber        string                 `json:"orderNumber"`
	SKU                string                 `json:"sku"`
	Status             metadata.OrderStatus   `json:"status"`
	TransitStatus      metadata.TransitStatus `json:"transitStatus"`
	Customer           Customer               `json:"customer"`
	Shipping           Shipping               `json:"shipping"`
	Specs              Specs                  `json:"specs"`
	FromStock          bool                   `json:"fromStock"`
	IsInterceptedPE    bool                   `json:"isInterceptedPE"`
	StockItemID        *string                `json:"stockItemId,omitempty"`
	ReservationID      string                 `json:"reservationId,omitempty"`
	Archived           bool                   `json:"archived"`
	ArchivedAt         *time.Time             `json:"archivedAt,omitempty"`
	CreatedAt          time.Time              `json:"createdAt"`
	EffectiveCreatedAt *time.Time             `json:"effectiveCreatedAt,omitempty"`
	CreatedBy          string                 `json:"createdBy,omitempty"`
	UpdatedAt          time.Time              `json:"updatedAt"`
	UpdatedBy          string                 `json:"updatedBy,omitempty"`
	Version            int                    `json:"version"`
}

// Normalize resolves every field default in one place.
func (o *ProductionOrder) Normalize() {
	if o.Status == "" {
		o.Status = metadata.OrderSolicitacao
	}
	o.TransitStatus = o.TransitStatus.OrNone()
	if o.UpdatedAt.IsZero() {
		o.UpdatedAt = o.CreatedAt
	}
	if o.StockItemID != nil && *o.StockItemID == "" {
		o.StockItemID = nil
	}
}

// AgingStart is the operator override when set, the creation time otherwise.
func (o *ProductionOrder) AgingStart() time.Time {
	if o.EffectiveCreatedAt != nil && !o.EffectiveCreatedAt.IsZero() {
		return *o.EffectiveCreatedAt
	}
	return o.CreatedAt
}

func (o *ProductionOrder) Touch(actor Actor, at time.Time) {
	o.UpdatedAt = at
	o.UpdatedBy = actor.Label()
}

func (o *ProductionOrder) CreateLogView() AuditLog {
	return AuditLog{
		ResourceID:   o.ID,
		ResourceType: "production_order",
	}
}
