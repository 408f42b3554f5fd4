package receiving

import (
	"time"

	"stockroom/internal/core/apperror"
	"stockroom/internal/core/id"
)

// ReceivingLine is an assembled, immutable receiving record.
// It is passed by value; use Clone when handing it out of a store.
type ReceivingLine struct {
	LineID string `json:"lineId"`

	Input           ReceivingLineInput   `json:"input"`
	Quantities      ReconciledQuantities `json:"quantities"`
	Cost            CostFigures          `json:"cost"`
	Wholesale       *WholesaleFigures    `json:"wholesale,omitempty"`
	StockSufficient *bool                `json:"stockSufficient,omitempty"`
	Warnings        []Issue              `json:"warnings,omitempty"`

	// Prior is the catalog state at selection time, kept for audit display.
	Prior ItemSnapshot `json:"prior"`

	AssembledAt time.Time `json:"assembledAt"`
}

// Clone returns a deep copy sharing no pointers or slices with l.
func (l ReceivingLine) Clone() ReceivingLine {
	out := l
	if l.Wholesale != nil {
		w := *l.Wholesale
		out.Wholesale = &w
	}
	if l.StockSufficient != nil {
		ok := *l.StockSufficient
		out.StockSufficient = &ok
	}
	if l.Warnings != nil {
		out.Warnings = append([]Issue(nil), l.Warnings...)
	}
	return out
}

// Assemble freezes the input and its figures into a ReceivingLine with a fresh
// line id. It fails with LINE_REJECTED when any field or business error exists;
// warnings are carried onto the line.
func Assemble(in ReceivingLineInput, fig Figures, prior ItemSnapshot, gen id.Generator) (ReceivingLine, error) {
	if fig.Validation.Blocking() {
		appErr := apperror.NewLineRejected("receiving line has validation errors")
		if len(fig.Validation.Fields) > 0 {
			appErr = appErr.WithDetail("fields", fig.Validation.Fields)
		}
		if len(fig.Validation.Business) > 0 {
			appErr = appErr.WithDetail("business", fig.Validation.Business)
		}
		return ReceivingLine{}, appErr
	}

	if gen == nil {
		gen = id.UUIDGenerator{}
	}

	line := ReceivingLine{
		LineID:          gen.NewID(),
		Input:           in,
		Quantities:      fig.Quantities,
		Cost:            fig.Cost,
		Wholesale:       fig.Wholesale,
		StockSufficient: fig.StockSufficient,
		Warnings:        fig.Validation.Warnings,
		Prior:           prior,
		AssembledAt:     time.Now().UTC(),
	}

	// Detach from the caller's figures.
	return line.Clone(), nil
}
