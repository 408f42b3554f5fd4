package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stockroom/internal/core/id"
	"stockroom/internal/domain/grn"
	"stockroom/internal/infrastructure/storage/postgres"
)

const (
	grnTable      = "doc_goods_received_notes"
	grnLinesTable = "doc_goods_received_note_lines"

	// EventGRNCreated is published to the outbox for downstream ledgers.
	EventGRNCreated = "goods_received_note.created"
)

// lineColumns are the line table columns in COPY order; note_id comes first.
var lineColumns = append([]string{"note_id"}, postgres.ExtractDBColumns[grn.Line]()...)

// GRNRepo implements grn.Repository.
type GRNRepo struct {
	*BaseDocumentRepo[*grn.Note]
	batch  *postgres.BatchInserter
	outbox *postgres.OutboxPublisher
}

var _ grn.Repository = (*GRNRepo)(nil)

// NewGRNRepo creates a new goods-received note repository.
func NewGRNRepo(txManager *postgres.TxManager) *GRNRepo {
	return &GRNRepo{
		BaseDocumentRepo: NewBaseDocumentRepo(
			txManager,
			grnTable,
			postgres.ExtractDBColumns[grn.Note](),
			func() *grn.Note { return &grn.Note{} },
		),
		batch:  postgres.NewBatchInserter(txManager),
		outbox: postgres.NewOutboxPublisher(txManager),
	}
}

// Create inserts the header, copies the lines and publishes the created event.
// Must run inside a transaction.
func (r *GRNRepo) Create(ctx context.Context, note *grn.Note) error {
	if err := r.BaseDocumentRepo.Create(ctx, note); err != nil {
		return err
	}

	if len(note.Lines) > 0 {
		n, err := r.batch.CopyFromSlice(ctx, grnLinesTable, lineColumns, lineRows(note.ID, note.Lines))
		if err != nil {
			return fmt.Errorf("save lines: %w", err)
		}
		if n != int64(len(note.Lines)) {
			return fmt.Errorf("save lines: copied %d of %d", n, len(note.Lines))
		}
	}

	return r.outbox.Publish(ctx, postgres.DomainEvent{
		AggregateType: "goods_received_note",
		AggregateID:   note.ID,
		EventType:     EventGRNCreated,
		Payload:       note,
	})
}

// GetLines retrieves lines for a note.
func (r *GRNRepo) GetLines(ctx context.Context, noteID id.ID) ([]grn.Line, error) {
	sql, args, err := r.linesQuery(noteID).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var lines []grn.Line
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &lines, sql, args...); err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}

	return lines, nil
}

func (r *GRNRepo) linesQuery(noteID id.ID) squirrel.SelectBuilder {
	return r.Builder().
		Select(lineColumns[1:]...).
		From(grnLinesTable).
		Where(squirrel.Eq{"note_id": noteID}).
		OrderBy("line_no")
}

// lineRows converts lines into COPY rows ordered as lineColumns.
func lineRows(noteID id.ID, lines []grn.Line) [][]any {
	rows := make([][]any, 0, len(lines))
	for _, line := range lines {
		data := postgres.StructToMap(line)
		row := make([]any, len(lineColumns))
		row[0] = noteID
		for i, col := range lineColumns[1:] {
			row[i+1] = data[col]
		}
		rows = append(rows, row)
	}
	return rows
}
