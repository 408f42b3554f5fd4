package receiving

import "stockroom/internal/core/types"

// Policy tunes how strictly business rules are enforced.
type Policy struct {
	// StrictWholesaleMinimum blocks lines whose paid quantity is below the
	// wholesale minimum. When false the shortfall is only a warning.
	StrictWholesaleMinimum bool
}

// DefaultPolicy returns the lenient policy.
func DefaultPolicy() Policy {
	return Policy{}
}

// Figures is everything derived from one ReceivingLineInput.
type Figures struct {
	Quantities      ReconciledQuantities `json:"quantities"`
	Cost            CostFigures          `json:"cost"`
	Wholesale       *WholesaleFigures    `json:"wholesale,omitempty"`
	StockSufficient *bool                `json:"stockSufficient,omitempty"`
	Dates           DateChecks           `json:"dates"`
	Validation      Validation           `json:"validation"`
}

// Recompute runs every calculator over the input and validates the result.
// It is pure: the same input, date and policy always produce the same figures.
func Recompute(in ReceivingLineInput, today types.Date, policy Policy) Figures {
	q := Reconcile(in.Units, in.ItemsPerUnit, in.FreeUnits, in.RejectedUnits, in.BilledUnpaidUnits)

	fig := Figures{
		Quantities:      q,
		Cost:            ComputeCost(in.BuyingPrice, in.Units, in.ItemsPerUnit),
		Wholesale:       EvaluateWholesale(in.Wholesale, in.SellingPrice),
		StockSufficient: CheckStockSufficiency(in.Wholesale, q.PaidQuantity),
		Dates:           ValidateDates(in.ManufactureDate, in.ExpiryDate, in.ReceivedDate, today),
	}
	fig.Validation = validate(in, fig, policy)

	return fig
}
