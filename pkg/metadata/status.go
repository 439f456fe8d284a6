package metadata

import "fmt"

// UnitStatus is the ledger state of a single physical unit.
type UnitStatus string

const (
	UnitInStock       UnitStatus = "in_stock"
	UnitAdjustedOut   UnitStatus = "adjusted_out"
	UnitSold          UnitStatus = "sold"
	UnitPERequested   UnitStatus = "pe_requested"
	UnitPEPrinting    UnitStatus = "pe_printing"
	UnitPECast        UnitStatus = "pe_cast"
	UnitPEReview      UnitStatus = "pe_review"
	UnitPEIntercepted UnitStatus = "pe_intercepted"
)

func NewUnitStatus(value string) (UnitStatus, error) {
	status := UnitStatus(value)
	if !status.isValid() {
		return "", fmt.Errorf("invalid unit status: %s", value)
	}
	return status, nil
}

func (s UnitStatus) isValid() bool {
	switch s {
	case UnitInStock, UnitAdjustedOut, UnitSold,
		UnitPERequested, UnitPEPrinting, UnitPECast, UnitPEReview, UnitPEIntercepted:
		return true
	default:
		return false
	}
}

// IsProductionQueue reports whether the unit is still moving through the
// stock-production pipeline and can be intercepted for an order.
func (s UnitStatus) IsProductionQueue() bool {
	switch s {
	case UnitPERequested, UnitPEPrinting, UnitPECast, UnitPEReview:
		return true
	default:
		return false
	}
}

func (s UnitStatus) String() string {
	return string(s)
}

// ReservationStatus only has one live value; consumed reservations are deleted.
type ReservationStatus string

const ReservationPending ReservationStatus = "pending"
