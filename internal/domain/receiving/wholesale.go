package receiving

import (
	"github.com/shopspring/decimal"

	"stockroom/internal/core/types"
)

var hundred = decimal.NewFromInt(100)

// WholesaleFigures compares bulk pricing with the retail price of the same quantity.
type WholesaleFigures struct {
	PerUnitWholesalePrice types.Money `json:"perUnitWholesalePrice"`
	RetailEquivalentTotal types.Money `json:"retailEquivalentTotal"`

	// Savings is negative when the wholesale price is a premium over retail.
	Savings         types.Money `json:"savings"`
	DiscountPercent types.Money `json:"discountPercent"`
	IsPremium       bool        `json:"isPremium"`
}

// EvaluateWholesale returns nil unless wholesale is enabled and the total price,
// minimum quantity and selling price are all strictly positive.
func EvaluateWholesale(w Wholesale, sellingPrice types.Money) *WholesaleFigures {
	if !w.Enabled || w.MinQty <= 0 || !w.TotalPrice.IsPositive() || !sellingPrice.IsPositive() {
		return nil
	}

	retail := types.MulCount(sellingPrice, w.MinQty)
	savings := retail.Sub(w.TotalPrice)

	discount := types.Zero()
	if !retail.IsZero() {
		discount = savings.Div(retail).Mul(hundred)
	}

	return &WholesaleFigures{
		PerUnitWholesalePrice: types.DivCount(w.TotalPrice, w.MinQty),
		RetailEquivalentTotal: retail,
		Savings:               savings,
		DiscountPercent:       discount,
		IsPremium:             savings.IsNegative(),
	}
}

// CheckStockSufficiency reports whether the paid quantity reaches the wholesale
// minimum. Returns nil when wholesale is disabled.
func CheckStockSufficiency(w Wholesale, paidQuantity int64) *bool {
	if !w.Enabled {
		return nil
	}
	ok := paidQuantity >= w.MinQty
	return &ok
}
