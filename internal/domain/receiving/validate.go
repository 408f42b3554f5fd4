package receiving

import (
	"sort"
	"strings"
)

// Input field names used as keys in Validation.Fields.
const (
	FieldItemRef             = "itemRef"
	FieldBuyingPrice         = "buyingPrice"
	FieldUnits               = "units"
	FieldItemsPerUnit        = "itemsPerUnit"
	FieldFreeUnits           = "freeUnits"
	FieldRejectedUnits       = "rejectedUnits"
	FieldBilledUnpaidUnits   = "billedUnpaidUnits"
	FieldSellingPrice        = "sellingPrice"
	FieldWholesaleMinQty     = "wholesale.minQty"
	FieldWholesaleTotalPrice = "wholesale.totalPrice"
	FieldBatchNumber         = "batchNumber"
	FieldManufactureDate     = "manufactureDate"
	FieldExpiryDate          = "expiryDate"
	FieldReceivedDate        = "receivedDate"
)

// Business rule and warning codes.
const (
	IssueRejectedExceedsReceived  = "rejected_exceeds_received"
	IssueBilledExceedsAvailable   = "billed_exceeds_available"
	IssueNothingToReceive         = "nothing_to_receive"
	IssueWholesaleMinimumNotMet   = "wholesale_minimum_not_met"
	IssueWholesaleMinimumExceeded = "wholesale_minimum_exceeds_paid"
	IssueWholesalePremium         = "wholesale_premium"
	IssueWholesaleUnpriced        = "wholesale_unpriced"
)

// Issue is a cross-field business error or a warning.
type Issue struct {
	Code    string `json:"code"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// Validation separates per-field errors, blocking business errors and
// non-blocking warnings. Fields and Business block assembly; Warnings never do.
type Validation struct {
	Fields   map[string]string `json:"fields,omitempty"`
	Business []Issue           `json:"business,omitempty"`
	Warnings []Issue           `json:"warnings,omitempty"`
}

// Blocking reports whether the line may not be assembled.
func (v Validation) Blocking() bool {
	return len(v.Fields) > 0 || len(v.Business) > 0
}

// HasField reports whether the field carries an error.
func (v Validation) HasField(field string) bool {
	_, ok := v.Fields[field]
	return ok
}

// HasIssue reports whether a business error or warning with the code exists.
func (v Validation) HasIssue(code string) bool {
	for _, is := range v.Business {
		if is.Code == code {
			return true
		}
	}
	for _, is := range v.Warnings {
		if is.Code == code {
			return true
		}
	}
	return false
}

// FieldNames returns the flagged fields in stable order.
func (v Validation) FieldNames() []string {
	names := make([]string, 0, len(v.Fields))
	for k := range v.Fields {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func (v *Validation) field(name, msg string) {
	if v.Fields == nil {
		v.Fields = make(map[string]string)
	}
	if _, exists := v.Fields[name]; !exists {
		v.Fields[name] = msg
	}
}

func (v *Validation) business(code, field, msg string) {
	v.Business = append(v.Business, Issue{Code: code, Field: field, Message: msg})
}

func (v *Validation) warn(code, field, msg string) {
	v.Warnings = append(v.Warnings, Issue{Code: code, Field: field, Message: msg})
}

// validate derives field errors, business errors and warnings from the input
// and the already computed figures.
func validate(in ReceivingLineInput, fig Figures, policy Policy) Validation {
	var v Validation

	if strings.TrimSpace(in.ItemRef) == "" {
		v.field(FieldItemRef, "item is required")
	}

	counts := []struct {
		name  string
		value int64
	}{
		{FieldUnits, in.Units},
		{FieldItemsPerUnit, in.ItemsPerUnit},
		{FieldFreeUnits, in.FreeUnits},
		{FieldRejectedUnits, in.RejectedUnits},
		{FieldBilledUnpaidUnits, in.BilledUnpaidUnits},
	}
	for _, c := range counts {
		if c.value < 0 {
			v.field(c.name, "must not be negative")
		}
	}

	if _, ok := purchasedUnits(in.Units, in.ItemsPerUnit); !ok {
		const msg = "units multiplied by items per unit is too large"
		v.field(FieldUnits, msg)
		v.field(FieldItemsPerUnit, msg)
	} else if _, ok := totalReceived(in.Units, in.ItemsPerUnit, in.FreeUnits); !ok {
		v.field(FieldFreeUnits, "total items received is too large")
	}

	if !in.BuyingPrice.IsPositive() {
		v.field(FieldBuyingPrice, "buying price must be greater than zero")
	}
	if in.SellingPrice.IsNegative() {
		v.field(FieldSellingPrice, "must not be negative")
	}

	if strings.TrimSpace(in.BatchNumber) == "" {
		v.field(FieldBatchNumber, "batch number is required")
	}

	validateDateFields(&v, in, fig.Dates)

	if in.Wholesale.Enabled {
		if in.Wholesale.MinQty <= 0 {
			v.field(FieldWholesaleMinQty, "minimum quantity must be greater than zero")
		}
		if !in.Wholesale.TotalPrice.IsPositive() {
			v.field(FieldWholesaleTotalPrice, "wholesale price must be greater than zero")
		}
	}

	q := fig.Quantities
	switch {
	case in.RejectedUnits > q.TotalItemsReceived:
		v.business(IssueRejectedExceedsReceived, FieldRejectedUnits,
			"rejected units cannot exceed total items received")
	case in.BilledUnpaidUnits > q.NetAfterRejection:
		v.business(IssueBilledExceedsAvailable, FieldBilledUnpaidUnits,
			"billed units cannot exceed items remaining after rejection")
	}

	if q.PaidQuantity == 0 && in.BilledUnpaidUnits == 0 {
		v.business(IssueNothingToReceive, FieldUnits,
			"nothing to receive: paid quantity and billed units are both zero")
	}

	if fig.StockSufficient != nil && !*fig.StockSufficient {
		msg := "paid quantity is below the wholesale minimum quantity"
		if policy.StrictWholesaleMinimum {
			v.business(IssueWholesaleMinimumExceeded, FieldWholesaleMinQty, msg)
		} else {
			v.warn(IssueWholesaleMinimumNotMet, FieldWholesaleMinQty, msg)
		}
	}

	if in.Wholesale.Enabled && fig.Wholesale == nil && !in.SellingPrice.IsPositive() {
		v.warn(IssueWholesaleUnpriced, FieldSellingPrice,
			"selling price is required to compare wholesale pricing")
	}
	if fig.Wholesale != nil && fig.Wholesale.IsPremium {
		v.warn(IssueWholesalePremium, FieldWholesaleTotalPrice,
			"wholesale price is higher than retail for the same quantity")
	}

	return v
}

func validateDateFields(v *Validation, in ReceivingLineInput, d DateChecks) {
	if !d.ManufactureDateValid {
		if in.ManufactureDate.IsZero() {
			v.field(FieldManufactureDate, "manufacture date is required")
		} else {
			v.field(FieldManufactureDate, "manufacture date cannot be in the future")
		}
	}

	if !d.ExpiryDateValid {
		if in.ExpiryDate.IsZero() {
			v.field(FieldExpiryDate, "expiry date is required")
		} else {
			v.field(FieldExpiryDate, "expiry date cannot be before manufacture date")
		}
	}

	if !d.ReceivedDateValid {
		switch {
		case in.ReceivedDate.IsZero():
			v.field(FieldReceivedDate, "received date is required")
		case !in.ManufactureDate.IsZero() && in.ReceivedDate.Before(in.ManufactureDate):
			v.field(FieldReceivedDate, "received date cannot be before manufacture date")
		default:
			v.field(FieldReceivedDate, "received date cannot be after expiry date")
		}
	}
}
