package dto

import (
	"time"

	"stockroom/internal/core/types"
	"stockroom/internal/domain/grn"
	"stockroom/internal/domain/receipt"
	"stockroom/internal/domain/receiving"
)

// --- Request DTOs ---

// SelectItemRequest picks the item to edit in the session's slot.
type SelectItemRequest struct {
	ItemRef string `json:"itemRef" binding:"required"`
}

// UpdateHeaderRequest patches the receipt header. Absent fields are left unchanged.
type UpdateHeaderRequest struct {
	SupplierName   *string     `json:"supplierName,omitempty"`
	InvoiceNumber  *string     `json:"invoiceNumber,omitempty"`
	LPONumber      *string     `json:"lpoNumber,omitempty"`
	DeliveryPerson *string     `json:"deliveryPerson,omitempty"`
	DeliveryNumber *string     `json:"deliveryNumber,omitempty"`
	Description    *string     `json:"description,omitempty"`
	ReceivingDate  *types.Date `json:"receivingDate,omitempty"`
}

// ToPatch converts request to a header patch.
func (r *UpdateHeaderRequest) ToPatch() receipt.HeaderPatch {
	return receipt.HeaderPatch{
		SupplierName:   r.SupplierName,
		InvoiceNumber:  r.InvoiceNumber,
		LPONumber:      r.LPONumber,
		DeliveryPerson: r.DeliveryPerson,
		DeliveryNumber: r.DeliveryNumber,
		Description:    r.Description,
		ReceivingDate:  r.ReceivingDate,
	}
}

// LineInputRequest carries the raw receiving entry for the slot or a preview.
// Range checks happen in the domain so every failing field is reported at once.
type LineInputRequest struct {
	receiving.ReceivingLineInput
}

// ToInput converts request to domain input.
func (r *LineInputRequest) ToInput() receiving.ReceivingLineInput {
	return r.ReceivingLineInput
}

// --- Response DTOs ---

// SubmitResponse identifies the receipt created from a session.
type SubmitResponse struct {
	ReceiptID string `json:"receiptId"`
	Number    string `json:"number"`
}

// FromResult creates SubmitResponse from a creator result.
func FromResult(r receipt.Result) SubmitResponse {
	return SubmitResponse{ReceiptID: r.ReceiptID, Number: r.Number}
}

// GRNResponse represents a goods-received note in API responses.
type GRNResponse struct {
	ID             string            `json:"id"`
	Number         string            `json:"number"`
	SupplierName   string            `json:"supplierName"`
	InvoiceNumber  string            `json:"invoiceNumber,omitempty"`
	LPONumber      string            `json:"lpoNumber,omitempty"`
	DeliveryPerson string            `json:"deliveryPerson,omitempty"`
	DeliveryNumber string            `json:"deliveryNumber,omitempty"`
	Description    string            `json:"description,omitempty"`
	ReceivingDate  types.Date        `json:"receivingDate"`
	TotalQuantity  int64             `json:"totalQuantity"`
	TotalCost      types.Money       `json:"totalCost"`
	CreatedBy      string            `json:"createdBy,omitempty"`
	CreatedAt      time.Time         `json:"createdAt"`
	Lines          []GRNLineResponse `json:"lines"`
}

// GRNLineResponse represents a note line in API responses.
type GRNLineResponse struct {
	LineNo          int         `json:"lineNo"`
	LineID          string      `json:"lineId"`
	ItemID          string      `json:"itemId"`
	Name            string      `json:"name"`
	Quantity        int64       `json:"quantity"`
	FOC             int64       `json:"foc"`
	Rejected        int64       `json:"rejected"`
	BilledAmount    int64       `json:"billedAmount"`
	BuyingPrice     types.Money `json:"buyingPrice"`
	SellingPrice    types.Money `json:"sellingPrice"`
	TotalCost       types.Money `json:"totalCost"`
	EnableWholesale bool        `json:"enableWholesale"`
	WholesaleMinQty int64       `json:"wholesaleMinQty"`
	WholesalePrice  types.Money `json:"wholesalePrice"`
	BatchNumber     string      `json:"batchNumber,omitempty"`
	ManufactureDate types.Date  `json:"manufactureDate"`
	ExpiryDate      types.Date  `json:"expiryDate"`
	Comments        string      `json:"comments,omitempty"`
}

// FromGRN creates GRNResponse from a domain note.
func FromGRN(n *grn.Note) GRNResponse {
	lines := make([]GRNLineResponse, 0, len(n.Lines))
	for _, l := range n.Lines {
		lines = append(lines, GRNLineResponse{
			LineNo:          l.LineNo,
			LineID:          l.LineID,
			ItemID:          l.ItemID,
			Name:            l.Name,
			Quantity:        l.Quantity,
			FOC:             l.FOC,
			Rejected:        l.Rejected,
			BilledAmount:    l.BilledAmount,
			BuyingPrice:     l.BuyingPrice,
			SellingPrice:    l.SellingPrice,
			TotalCost:       l.TotalCost,
			EnableWholesale: l.EnableWholesale,
			WholesaleMinQty: l.WholesaleMinQty,
			WholesalePrice:  l.WholesalePrice,
			BatchNumber:     l.BatchNumber,
			ManufactureDate: dateOf(l.ManufactureDate),
			ExpiryDate:      dateOf(l.ExpiryDate),
			Comments:        l.Comments,
		})
	}

	return GRNResponse{
		ID:             n.ID.String(),
		Number:         n.Number,
		SupplierName:   n.SupplierName,
		InvoiceNumber:  n.InvoiceNumber,
		LPONumber:      n.LPONumber,
		DeliveryPerson: n.DeliveryPerson,
		DeliveryNumber: n.DeliveryNumber,
		Description:    n.Description,
		ReceivingDate:  types.DateOf(n.ReceivingDate),
		TotalQuantity:  n.TotalQuantity,
		TotalCost:      n.TotalCost,
		CreatedBy:      n.CreatedBy,
		CreatedAt:      n.CreatedAt,
		Lines:          lines,
	}
}

func dateOf(t *time.Time) types.Date {
	if t == nil {
		return types.Date{}
	}
	return types.DateOf(*t)
}
