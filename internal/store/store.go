// Package store is the contract every lifecycle service is written against.
// A Store is opened once, injected into the services and closed on shutdown.
package store

import (
	"context"
	"time"

	"semprejoias/pkg/models"
)

type Collection string

const (
	CollectionUnits        Collection = "inventory_units"
	CollectionReservations Collection = "reservations"
	CollectionOrders       Collection = "production_orders"
)

func Collections() []Collection {
	return []Collection{CollectionUnits, CollectionReservations, CollectionOrders}
}

func (c Collection) IsValid() bool {
	switch c {
	case CollectionUnits, CollectionReservations, CollectionOrders:
		return true
	default:
		return false
	}
}

// Filter narrows a list or a subscription. Unset fields match everything,
// except Archived which always applies to orders: active views pass false.
type Filter struct {
	SKU      string `form:"sku"`
	Status   string `form:"status"`
	Archived bool   `form:"archived"`
}

type SearchField string

const (
	SearchOrderNumber  SearchField = "order_number"
	SearchCustomerName SearchField = "customer_name"
	SearchSKU          SearchField = "sku"
	SearchCity         SearchField = "ship_city"
	SearchStreet       SearchField = "ship_street"
	SearchZIP          SearchField = "ship_zip"
	SearchEngraving    SearchField = "engraving"
)

// SearchPredicate is one single-field query over archived orders. Prefix
// predicates are range scans from Term up to Term+"\uf8ff".
type SearchPredicate struct {
	Field  SearchField
	Term   string
	Prefix bool
}

// Cursor is the last-seen sort key of an archive page (archivedAt desc, id desc).
type Cursor struct {
	ArchivedAt time.Time `json:"archivedAt"`
	ID         string    `json:"id"`
}

type UnitRepository interface {
	Insert(ctx context.Context, units []models.InventoryUnit) error
	// Get locks the unit inside read-write transactions.
	Get(ctx context.Context, id string) (*models.InventoryUnit, error)
	// OldestInStock returns up to limit in_stock units of sku, oldest first, locked.
	OldestInStock(ctx context.Context, sku string, limit int) ([]models.InventoryUnit, error)
	Update(ctx context.Context, unit models.InventoryUnit) error
	CountInStock(ctx context.Context, skus []string) (map[string]int, error)
	List(ctx context.Context, filter Filter) ([]models.InventoryUnit, error)
}

type ReservationRepository interface {
	Insert(ctx context.Context, reservation models.Reservation) error
	Get(ctx context.Context, id string) (*models.Reservation, error)
	Delete(ctx context.Context, id string) error
	ReservedQuantity(ctx context.Context, skus []string) (map[string]int, error)
	ExistsForSKU(ctx context.Context, sku string) (bool, error)
	List(ctx context.Context, filter Filter) ([]models.Reservation, error)
}

type OrderRepository interface {
	Insert(ctx context.Context, order models.ProductionOrder) error
	Get(ctx context.Context, id string) (*models.ProductionOrder, error)
	Update(ctx context.Context, order models.ProductionOrder) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter Filter) ([]models.ProductionOrder, error)
	Search(ctx context.Context, predicate SearchPredicate) ([]models.ProductionOrder, error)
	// ArchivePage returns archived orders strictly after the cursor; nil starts at the top.
	ArchivePage(ctx context.Context, after *Cursor, limit int) ([]models.ProductionOrder, error)
}

// Tx is one unit of work. Everything done through it commits or rolls back together.
type Tx interface {
	Units() UnitRepository
	Reservations() ReservationRepository
	Orders() OrderRepository
	// Touch schedules a change notification for c, published only on commit.
	Touch(c Collection)
}

type Store interface {
	// WithTx runs fn atomically. Returning an error from fn rolls back every write.
	WithTx(ctx context.Context, fn func(tx Tx) error) error
	// View runs fn against a consistent read-only view.
	View(ctx context.Context, fn func(tx Tx) error) error
	Subscribe(ctx context.Context, c Collection, filter Filter) (*Subscription, error)
	Ping(ctx context.Context) error
	Close() error
}
