package grn

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"stockroom/internal/core/apperror"
	appctx "stockroom/internal/core/context"
	"stockroom/internal/core/id"
	"stockroom/internal/core/numerator"
	"stockroom/internal/core/tx"
	"stockroom/internal/domain/receipt"
	"stockroom/pkg/logger"
)

var tracer = otel.Tracer("stockroom/grn")

// Service records goods-received notes. It is the receipt creator behind
// session submission.
type Service struct {
	repo      Repository
	numerator numerator.Generator
	txManager tx.Manager
	now       func() time.Time
}

var _ receipt.Creator = (*Service)(nil)

// NewService creates a new goods-received note service.
func NewService(repo Repository, numerator numerator.Generator, txManager tx.Manager) *Service {
	return &Service{
		repo:      repo,
		numerator: numerator,
		txManager: txManager,
		now:       time.Now,
	}
}

// CreateReceipt numbers and stores a note for a submitted session.
// Number allocation and inserts share one transaction.
func (s *Service) CreateReceipt(ctx context.Context, payload receipt.SubmissionPayload) (receipt.Result, error) {
	ctx, span := tracer.Start(ctx, "grn.create")
	defer span.End()

	if len(payload.Items) == 0 {
		return receipt.Result{}, apperror.NewValidation("receipt has no lines").
			WithDetail("field", "items")
	}

	note := NewNote(payload, appctx.GetOperatorID(ctx))

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		cfg := numerator.DefaultConfig(NumberPrefix)
		number, err := s.numerator.GetNextNumber(ctx, cfg, &numerator.Options{Strategy: NumeratorStrategy}, s.now())
		if err != nil {
			return fmt.Errorf("generate number: %w", err)
		}
		note.Number = number

		if err := s.repo.Create(ctx, note); err != nil {
			return fmt.Errorf("create note: %w", err)
		}
		return nil
	})
	if err != nil {
		return receipt.Result{}, err
	}

	span.SetAttributes(
		attribute.String("grn.number", note.Number),
		attribute.Int("grn.lines", len(note.Lines)),
	)

	logger.Info(ctx, "goods received note created",
		"id", note.ID,
		"number", note.Number,
		"lines", len(note.Lines),
		"total_cost", note.TotalCost.String())

	return receipt.Result{ReceiptID: note.ID.String(), Number: note.Number}, nil
}

// GetByID retrieves a note with lines.
func (s *Service) GetByID(ctx context.Context, noteID id.ID) (*Note, error) {
	note, err := s.repo.GetByID(ctx, noteID)
	if err != nil {
		return nil, err
	}

	lines, err := s.repo.GetLines(ctx, noteID)
	if err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}
	note.Lines = lines

	return note, nil
}
