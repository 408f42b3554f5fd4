// Package catalog_repo provides PostgreSQL lookups into catalog master data.
package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stockroom/internal/core/apperror"
	"stockroom/internal/core/types"
	"stockroom/internal/domain/receiving"
	"stockroom/internal/infrastructure/storage/postgres"
)

const (
	itemsTable        = "cat_items"
	stockBalanceTable = "reg_stock_balances"
)

// itemRow is the scanned shape of an item with its stock on hand.
type itemRow struct {
	Ref             string      `db:"ref"`
	Name            string      `db:"name"`
	SellingPrice    types.Money `db:"selling_price"`
	LastBuyingPrice types.Money `db:"last_buying_price"`
	StockOnHand     int64       `db:"stock_on_hand"`
}

func (r itemRow) snapshot() receiving.ItemSnapshot {
	return receiving.ItemSnapshot{
		ItemRef:         r.Ref,
		Name:            r.Name,
		SellingPrice:    r.SellingPrice,
		LastBuyingPrice: r.LastBuyingPrice,
		StockOnHand:     r.StockOnHand,
	}
}

// ItemRepo implements receiving.Catalog over cat_items.
type ItemRepo struct {
	txManager *postgres.TxManager
}

var _ receiving.Catalog = (*ItemRepo)(nil)

// NewItemRepo creates a new item repository.
func NewItemRepo(txManager *postgres.TxManager) *ItemRepo {
	return &ItemRepo{txManager: txManager}
}

// Builder returns a new squirrel builder with PostgreSQL placeholder format.
func (r *ItemRepo) Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// GetItem returns the catalog snapshot of an active item.
func (r *ItemRepo) GetItem(ctx context.Context, itemRef string) (receiving.ItemSnapshot, error) {
	sql, args, err := r.itemQuery(itemRef).ToSql()
	if err != nil {
		return receiving.ItemSnapshot{}, fmt.Errorf("build query: %w", err)
	}

	var row itemRow
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &row, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return receiving.ItemSnapshot{}, apperror.NewNotFound("item", itemRef)
		}
		return receiving.ItemSnapshot{}, fmt.Errorf("get item: %w", err)
	}

	return row.snapshot(), nil
}

// Upsert creates or replaces an item's catalog prices.
func (r *ItemRepo) Upsert(ctx context.Context, item receiving.ItemSnapshot) error {
	sql, args, err := r.upsertQuery(item).ToSql()
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("upsert item %s: %w", item.ItemRef, err)
	}
	return nil
}

func (r *ItemRepo) itemQuery(itemRef string) squirrel.SelectBuilder {
	stock := r.Builder().
		Select("COALESCE(SUM(b.quantity), 0)").
		From(stockBalanceTable + " b").
		Where("b.item_ref = i.ref")

	return r.Builder().
		Select("i.ref", "i.name", "i.selling_price", "i.last_buying_price").
		Column(squirrel.Alias(stock, "stock_on_hand")).
		From(itemsTable + " i").
		Where(squirrel.Eq{"i.ref": itemRef}).
		Where(squirrel.Eq{"i.deletion_mark": false})
}

func (r *ItemRepo) upsertQuery(item receiving.ItemSnapshot) squirrel.InsertBuilder {
	return r.Builder().
		Insert(itemsTable).
		Columns("ref", "name", "selling_price", "last_buying_price").
		Values(item.ItemRef, item.Name, item.SellingPrice, item.LastBuyingPrice).
		Suffix(`ON CONFLICT (ref) DO UPDATE SET
			name = EXCLUDED.name,
			selling_price = EXCLUDED.selling_price,
			last_buying_price = EXCLUDED.last_buying_price,
			deletion_mark = false`)
}
