package receipt

import (
	"context"
)

// Creator turns a submitted session into a persisted goods-received note.
type Creator interface {
	CreateReceipt(ctx context.Context, payload SubmissionPayload) (Result, error)
}

// Result identifies the created receipt.
type Result struct {
	ReceiptID string `json:"receiptId"`
	Number    string `json:"number"`
}
