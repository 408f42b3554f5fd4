package receiving

import "stockroom/internal/core/types"

// CostFigures is the purchase cost invoiced by the supplier for the line.
type CostFigures struct {
	PurchasedUnits int64       `json:"purchasedUnits"`
	TotalCost      types.Money `json:"totalCost"`
}

// ComputeCost prices the purchased packs. Free units cost nothing, and rejected or
// billed units are not subtracted: the cost reflects the supplier invoice, while
// rejection and debt accounting are handled separately. An overflowing unit count
// saturates like Reconcile.
func ComputeCost(buyingPrice types.Money, units, itemsPerUnit int64) CostFigures {
	purchased, _ := purchasedUnits(units, itemsPerUnit)
	return CostFigures{
		PurchasedUnits: purchased,
		TotalCost:      types.MulCount(buyingPrice, purchased),
	}
}
