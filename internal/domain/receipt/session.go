// Package receipt holds the receipt session: the header and the assembled
// receiving lines of one goods-received note, their persistence and submission.
package receipt

import (
	"strings"

	"stockroom/internal/core/apperror"
	"stockroom/internal/core/types"
	"stockroom/internal/domain/receiving"
)

// Header describes the delivery being received.
type Header struct {
	SupplierName   string     `json:"supplierName"`
	InvoiceNumber  string     `json:"invoiceNumber"`
	LPONumber      string     `json:"lpoNumber"`
	DeliveryPerson string     `json:"deliveryPerson"`
	DeliveryNumber string     `json:"deliveryNumber"`
	Description    string     `json:"description"`
	ReceivingDate  types.Date `json:"receivingDate"`
}

// DefaultHeader returns an empty header dated today.
func DefaultHeader(today types.Date) Header {
	return Header{ReceivingDate: today}
}

// HeaderPatch is a partial header update. Nil fields are left unchanged.
type HeaderPatch struct {
	SupplierName   *string     `json:"supplierName,omitempty"`
	InvoiceNumber  *string     `json:"invoiceNumber,omitempty"`
	LPONumber      *string     `json:"lpoNumber,omitempty"`
	DeliveryPerson *string     `json:"deliveryPerson,omitempty"`
	DeliveryNumber *string     `json:"deliveryNumber,omitempty"`
	Description    *string     `json:"description,omitempty"`
	ReceivingDate  *types.Date `json:"receivingDate,omitempty"`
}

// Apply returns h with the patch merged in.
func (h Header) Apply(p HeaderPatch) Header {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	set(&h.SupplierName, p.SupplierName)
	set(&h.InvoiceNumber, p.InvoiceNumber)
	set(&h.LPONumber, p.LPONumber)
	set(&h.DeliveryPerson, p.DeliveryPerson)
	set(&h.DeliveryNumber, p.DeliveryNumber)
	set(&h.Description, p.Description)
	if p.ReceivingDate != nil {
		h.ReceivingDate = *p.ReceivingDate
	}
	return h
}

// Validate checks the header is complete enough to submit.
func (h Header) Validate() error {
	if h.SupplierName == "" {
		return apperror.NewValidation("supplier is required").
			WithDetail("field", "supplierName")
	}
	if h.ReceivingDate.IsZero() {
		return apperror.NewValidation("receiving date is required").
			WithDetail("field", "receivingDate")
	}
	return nil
}

// Totals summarizes the lines of a session.
type Totals struct {
	LineCount    int         `json:"lineCount"`
	TotalCost    types.Money `json:"totalCost"`
	PaidQuantity int64       `json:"paidQuantity"`
	BilledUnits  int64       `json:"billedUnits"`
}

// ComputeTotals sums cost and quantities over lines.
func ComputeTotals(lines []receiving.ReceivingLine) Totals {
	t := Totals{LineCount: len(lines), TotalCost: types.Zero()}
	for _, l := range lines {
		t.TotalCost = t.TotalCost.Add(l.Cost.TotalCost)
		t.PaidQuantity += l.Quantities.PaidQuantity
		t.BilledUnits += l.Input.BilledUnpaidUnits
	}
	return t
}
