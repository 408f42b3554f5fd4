package receiving

import "math"

// ReconciledQuantities are the item counts derived from raw receiving data.
type ReconciledQuantities struct {
	TotalItemsReceived int64 `json:"totalItemsReceived"`
	NetAfterRejection  int64 `json:"netAfterRejection"`
	PaidQuantity       int64 `json:"paidQuantity"`
}

// Reconcile converts raw receiving counts into the net paid quantity.
//
// PaidQuantity is clamped at zero: when rejected and billed units exceed what was
// received, the excess is reported by validation instead of producing a negative count.
// Counts whose total does not fit in int64 saturate at math.MaxInt64; validation
// flags them.
func Reconcile(units, itemsPerUnit, freeUnits, rejectedUnits, billedUnpaidUnits int64) ReconciledQuantities {
	total, _ := totalReceived(units, itemsPerUnit, freeUnits)
	net := total - rejectedUnits

	paid := net - billedUnpaidUnits
	if paid < 0 {
		paid = 0
	}

	return ReconciledQuantities{
		TotalItemsReceived: total,
		NetAfterRejection:  net,
		PaidQuantity:       paid,
	}
}

// purchasedUnits returns units×itemsPerUnit, or math.MaxInt64 and false when
// the product overflows. Negative counts are rejected by validation.
func purchasedUnits(units, itemsPerUnit int64) (int64, bool) {
	if units > 0 && itemsPerUnit > 0 && units > math.MaxInt64/itemsPerUnit {
		return math.MaxInt64, false
	}
	return units * itemsPerUnit, true
}

// totalReceived returns purchased plus free units with the same overflow rule.
func totalReceived(units, itemsPerUnit, freeUnits int64) (int64, bool) {
	purchased, ok := purchasedUnits(units, itemsPerUnit)
	if !ok {
		return math.MaxInt64, false
	}
	if freeUnits > 0 && purchased > math.MaxInt64-freeUnits {
		return math.MaxInt64, false
	}
	return purchased + freeUnits, true
}
