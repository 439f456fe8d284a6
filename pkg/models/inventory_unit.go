package models

import (
	"time"

	"semprejoias/pkg/metadata"
)

const (
	RemovalReasonAdjustment = "adjustment"
	RemovalReasonSale       = "sale"
	RemovalReasonOrder      = "order"
)

// InventoryUnit is one physical piece on the ledger.
type InventoryUnit struct {
	ID                    string               `json:"id"`
	SKU                   string               `json:"sku"`
	Status                metadata.UnitStatus  `json:"status"`
	IsStockProduction     bool                 `json:"isStockProduction"`
	CreatedAt             time.Time            `json:"createdAt"`
	CreatedBy             string               `json:"createdBy,omitempty"`
	RemovedAt             *time.Time           `json:"removedAt,omitempty"`
	RemovedBy             *string              `json:"removedBy,omitempty"`
	RemovalReason         *string              `json:"removalReason,omitempty"`
	LinkedOrderID         *string              `json:"linkedOrderId,omitempty"`
	PreInterceptionStatus *metadata.UnitStatus `json:"preInterceptionStatus,omitempty"`
	UpdatedAt             time.Time            `json:"updatedAt"`
	Version               int                  `json:"version"`
}

// Normalize resolves defaults for documents written without every field.
func (u *InventoryUnit) Normalize() {
	if u.Status == "" {
		u.Status = metadata.UnitInStock
	}
	if u.UpdatedAt.IsZero() {
		u.UpdatedAt = u.CreatedAt
	}
}

// MarkRemoved moves the unit out of stock and records who took it and why.
func (u *InventoryUnit) MarkRemoved(status metadata.UnitStatus, reason string, actor Actor, at time.Time) {
	by := actor.Label()
	u.Status = status
	u.RemovedAt = &at
	u.RemovedBy = &by
	u.RemovalReason = &reason
	u.UpdatedAt = at
}

// RestoreToStock undoes MarkRemoved.
func (u *InventoryUnit) RestoreToStock(at time.Time) {
	u.Status = metadata.UnitInStock
	u.RemovedAt = nil
	u.RemovedBy = nil
	u.RemovalReason = nil
	u.LinkedOrderID = nil
	u.UpdatedAt = at
}

// PreInterception returns the queue state the unit returns to when its order goes away.
func (u *InventoryUnit) PreInterception() metadata.UnitStatus {
	if u.PreInterceptionStatus != nil && u.PreInterceptionStatus.IsProductionQueue() {
		return *u.PreInterceptionStatus
	}
	return metadata.UnitPERequested
}

func (u *InventoryUnit) CreateLogView() AuditLog {
	return AuditLog{
		ResourceID:   u.ID,
		ResourceType: "inventory_unit",
	}
}
