// Package receiving implements goods-received reconciliation and pricing for a single
// receiving line: quantity reconciliation, purchase cost, wholesale pricing, date ordering,
// validation and assembly into an immutable line.
package receiving

import (
	"context"

	"stockroom/internal/core/types"
)

// Wholesale holds optional bulk-pricing terms: TotalPrice buys MinQty items.
type Wholesale struct {
	Enabled    bool        `json:"enabled"`
	MinQty     int64       `json:"minQty"`
	TotalPrice types.Money `json:"totalPrice"`
}

// ReceivingLineInput is the raw data entered for the item being received.
// It is mutable while the item is being edited and recomputed on every change.
type ReceivingLineInput struct {
	ItemRef string `json:"itemRef"`

	BuyingPrice types.Money `json:"buyingPrice"`

	// Units is the number of packs/cartons, ItemsPerUnit the pack size.
	Units        int64 `json:"units"`
	ItemsPerUnit int64 `json:"itemsPerUnit"`

	// FreeUnits are bonus items supplied free of charge (FOC).
	FreeUnits int64 `json:"freeUnits"`

	// RejectedUnits are items declined on inspection.
	RejectedUnits int64 `json:"rejectedUnits"`

	// BilledUnpaidUnits are items received but settled later as a supplier debt.
	BilledUnpaidUnits int64 `json:"billedUnpaidUnits"`

	SellingPrice types.Money `json:"sellingPrice"`
	Wholesale    Wholesale   `json:"wholesale"`

	BatchNumber     string     `json:"batchNumber"`
	ManufactureDate types.Date `json:"manufactureDate"`
	ExpiryDate      types.Date `json:"expiryDate"`
	ReceivedDate    types.Date `json:"receivedDate"`

	Comments string `json:"comments,omitempty"`
}

// ItemSnapshot is the catalog state of an item at the moment it was selected.
// It is frozen into the line for audit display.
type ItemSnapshot struct {
	ItemRef         string      `json:"itemRef"`
	Name            string      `json:"name"`
	SellingPrice    types.Money `json:"sellingPrice"`
	LastBuyingPrice types.Money `json:"lastBuyingPrice"`
	StockOnHand     int64       `json:"stockOnHand"`
}

// Catalog resolves catalog items. Master data maintenance lives elsewhere.
type Catalog interface {
	GetItem(ctx context.Context, itemRef string) (ItemSnapshot, error)
}
