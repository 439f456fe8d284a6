package orders

import (
	"time"

	"semprejoias/pkg/models"
)

type Compensation string

const (
	CompensationNone      Compensation = "none"
	CompensationRestocked Compensation = "restocked"
	CompensationRequeued  Compensation = "requeued"
)

type DeleteResult struct {
	OrderID      string                `json:"orderId"`
	Compensation Compensation          `json:"compensation"`
	Unit         *models.InventoryUnit `json:"unit,omitempty"`

	order *models.ProductionOrder
}

type StatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type TransitRequest struct {
	TransitStatus string `json:"transitStatus"`
}

type EffectiveCreatedAtRequest struct {
	EffectiveCreatedAt *time.Time `json:"effectiveCreatedAt"`
}
