package dataset

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/andresuchdata/demandcast/internal/domain"
)

// CSVLoader loads transaction history from a local CSV file.
type CSVLoader struct {
	Path string
}

func NewCSVLoader(path string) *CSVLoader {
	return &CSVLoader{Path: path}
}

func (l *CSVLoader) Name() string {
	return "csv:" + l.Path
}

func (l *CSVLoader) Load(_ context.Context) ([]domain.TransactionRecord, error) {
	return LoadCSV(l.Path)
}

const salesHistoryQuery = `
	SELECT
		transaction_date,
		branch_id,
		product_id,
		COALESCE(product_name, '') AS product_name,
		COALESCE(category, '') AS category,
		quantity_sold,
		selling_price,
		cost_price,
		COALESCE(discount_percentage, 0) AS discount_percentage,
		current_stock,
		COALESCE(festival_flag, 0) AS festival_flag
	FROM sales_transactions
	ORDER BY branch_id, product_id, transaction_date`

// SQLLoader loads transaction history from the sales_transactions table.
type SQLLoader struct {
	db *sqlx.DB
}

func NewSQLLoader(db *sqlx.DB) *SQLLoader {
	return &SQLLoader{db: db}
}

func (l *SQLLoader) Name() string {
	return "postgres:sales_transactions"
}

func (l *SQLLoader) Load(ctx context.Context) ([]domain.TransactionRecord, error) {
	records := make([]domain.TransactionRecord, 0)
	if err := l.db.SelectContext(ctx, &records, salesHistoryQuery); err != nil {
		return nil, fmt.Errorf("querying sales_transactions: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("sales_transactions table is empty")
	}
	return records, nil
}
