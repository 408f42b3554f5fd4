package receipt

import (
	"stockroom/internal/core/types"
	"stockroom/internal/domain/receiving"
)

// SubmissionPayload is handed to the receipt creator on submit.
type SubmissionPayload struct {
	SupplierName   string        `json:"supplierName"`
	InvoiceNumber  string        `json:"invoiceNumber"`
	LPONumber      string        `json:"lpoNumber"`
	DeliveryPerson string        `json:"deliveryPerson"`
	DeliveryNumber string        `json:"deliveryNumber"`
	Description    string        `json:"description"`
	ReceivingDate  types.Date    `json:"receivingDate"`
	Items          []PayloadItem `json:"items"`
}

// PayloadItem is one receiving line in creator terms.
type PayloadItem struct {
	ItemID          string      `json:"itemId"`
	LineID          string      `json:"lineId"`
	Name            string      `json:"name"`
	Quantity        int64       `json:"quantity"`
	BuyingPrice     types.Money `json:"buyingPrice"`
	SellingPrice    types.Money `json:"sellingPrice"`
	EnableWholesale bool        `json:"enableWholesale"`
	WholesaleMinQty int64       `json:"wholesaleMinQty"`
	WholesalePrice  types.Money `json:"wholesalePrice"`
	BatchNumber     string      `json:"batchNumber"`
	ManufactureDate types.Date  `json:"manufactureDate"`
	ExpiryDate      types.Date  `json:"expiryDate"`
	FOC             int64       `json:"foc"`
	Rejected        int64       `json:"rejected"`
	BilledAmount    int64       `json:"billedAmount"`
	Comments        string      `json:"comments"`
	TotalCost       types.Money `json:"totalCost"`
}

// BuildPayload maps a header and its lines to the submission payload.
// Quantity is the paid quantity and BilledAmount the billed-but-unpaid units.
func BuildPayload(h Header, lines []receiving.ReceivingLine) SubmissionPayload {
	items := make([]PayloadItem, 0, len(lines))
	for _, l := range lines {
		in := l.Input
		items = append(items, PayloadItem{
			ItemID:          in.ItemRef,
			LineID:          l.LineID,
			Name:            l.Prior.Name,
			Quantity:        l.Quantities.PaidQuantity,
			BuyingPrice:     in.BuyingPrice,
			SellingPrice:    in.SellingPrice,
			EnableWholesale: in.Wholesale.Enabled,
			WholesaleMinQty: in.Wholesale.MinQty,
			WholesalePrice:  in.Wholesale.TotalPrice,
			BatchNumber:     in.BatchNumber,
			ManufactureDate: in.ManufactureDate,
			ExpiryDate:      in.ExpiryDate,
			FOC:             in.FreeUnits,
			Rejected:        in.RejectedUnits,
			BilledAmount:    in.BilledUnpaidUnits,
			Comments:        in.Comments,
			TotalCost:       l.Cost.TotalCost,
		})
	}

	return SubmissionPayload{
		SupplierName:   h.SupplierName,
		InvoiceNumber:  h.InvoiceNumber,
		LPONumber:      h.LPONumber,
		DeliveryPerson: h.DeliveryPerson,
		DeliveryNumber: h.DeliveryNumber,
		Description:    h.Description,
		ReceivingDate:  h.ReceivingDate,
		Items:          items,
	}
}
