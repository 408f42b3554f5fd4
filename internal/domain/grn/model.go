// Package grn provides the goods-received note, the persisted result of a
// submitted receiving session.
package grn

import (
	"time"

	"stockroom/internal/core/id"
	"stockroom/internal/core/types"
	"stockroom/internal/domain/receipt"
)

// Note is a goods-received note header.
type Note struct {
	ID     id.ID  `db:"id" json:"id"`
	Number string `db:"number" json:"number"`

	SupplierName   string    `db:"supplier_name" json:"supplierName"`
	InvoiceNumber  string    `db:"invoice_number" json:"invoiceNumber,omitempty"`
	LPONumber      string    `db:"lpo_number" json:"lpoNumber,omitempty"`
	DeliveryPerson string    `db:"delivery_person" json:"deliveryPerson,omitempty"`
	DeliveryNumber string    `db:"delivery_number" json:"deliveryNumber,omitempty"`
	Description    string    `db:"description" json:"description,omitempty"`
	ReceivingDate  time.Time `db:"receiving_date" json:"receivingDate"`

	// Totals (calculated from lines)
	TotalQuantity int64       `db:"total_quantity" json:"totalQuantity"`
	TotalCost     types.Money `db:"total_cost" json:"totalCost"`

	CreatedBy string    `db:"created_by" json:"createdBy,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`

	// Table part: received goods
	Lines []Line `db:"-" json:"lines"`
}

// Line is one received item of a note.
type Line struct {
	LineNo int    `db:"line_no" json:"lineNo"`
	LineID string `db:"line_id" json:"lineId"`
	ItemID string `db:"item_id" json:"itemId"`
	Name   string `db:"name" json:"name"`

	// Paid quantity; FOC, rejected and billed-unpaid units are kept alongside.
	Quantity     int64 `db:"quantity" json:"quantity"`
	FOC          int64 `db:"foc" json:"foc"`
	Rejected     int64 `db:"rejected" json:"rejected"`
	BilledAmount int64 `db:"billed_amount" json:"billedAmount"`

	BuyingPrice  types.Money `db:"buying_price" json:"buyingPrice"`
	SellingPrice types.Money `db:"selling_price" json:"sellingPrice"`
	TotalCost    types.Money `db:"total_cost" json:"totalCost"`

	EnableWholesale bool        `db:"enable_wholesale" json:"enableWholesale"`
	WholesaleMinQty int64       `db:"wholesale_min_qty" json:"wholesaleMinQty"`
	WholesalePrice  types.Money `db:"wholesale_price" json:"wholesalePrice"`

	BatchNumber     string     `db:"batch_number" json:"batchNumber,omitempty"`
	ManufactureDate *time.Time `db:"manufacture_date" json:"manufactureDate,omitempty"`
	ExpiryDate      *time.Time `db:"expiry_date" json:"expiryDate,omitempty"`
	Comments        string     `db:"comments" json:"comments,omitempty"`
}

// NewNote builds an unnumbered note from a submission payload.
func NewNote(p receipt.SubmissionPayload, createdBy string) *Note {
	n := &Note{
		ID:             id.New(),
		SupplierName:   p.SupplierName,
		InvoiceNumber:  p.InvoiceNumber,
		LPONumber:      p.LPONumber,
		DeliveryPerson: p.DeliveryPerson,
		DeliveryNumber: p.DeliveryNumber,
		Description:    p.Description,
		ReceivingDate:  p.ReceivingDate.Time(),
		CreatedBy:      createdBy,
		CreatedAt:      time.Now().UTC(),
		Lines:          make([]Line, 0, len(p.Items)),
	}

	for i, item := range p.Items {
		n.Lines = append(n.Lines, Line{
			LineNo:          i + 1,
			LineID:          item.LineID,
			ItemID:          item.ItemID,
			Name:            item.Name,
			Quantity:        item.Quantity,
			FOC:             item.FOC,
			Rejected:        item.Rejected,
			BilledAmount:    item.BilledAmount,
			BuyingPrice:     item.BuyingPrice,
			SellingPrice:    item.SellingPrice,
			TotalCost:       item.TotalCost,
			EnableWholesale: item.EnableWholesale,
			WholesaleMinQty: item.WholesaleMinQty,
			WholesalePrice:  item.WholesalePrice,
			BatchNumber:     item.BatchNumber,
			ManufactureDate: optionalDate(item.ManufactureDate),
			ExpiryDate:      optionalDate(item.ExpiryDate),
			Comments:        item.Comments,
		})
	}

	n.recalculateTotals()
	return n
}

// recalculateTotals updates note totals from lines.
func (n *Note) recalculateTotals() {
	n.TotalQuantity = 0
	n.TotalCost = types.Zero()

	for _, line := range n.Lines {
		n.TotalQuantity += line.Quantity
		n.TotalCost = n.TotalCost.Add(line.TotalCost)
	}
}

func optionalDate(d types.Date) *time.Time {
	if d.IsZero() {
		return nil
	}
	t := d.Time()
	return &t
}
