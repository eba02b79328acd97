package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/andresuchdata/demandcast/internal/dataset"
	"github.com/andresuchdata/demandcast/pkg/logger"
)

type dbKeyType struct{}

var dbKey dbKeyType

func newDBURLFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "db-url",
		Usage:    "Database connection string",
		Required: true,
		EnvVars:  []string{"DATABASE_URL"},
	}
}

func initDB(c *cli.Context) error {
	db, err := sql.Open("pgx", c.String("db-url"))
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	c.Context = context.WithValue(c.Context, dbKey, db)
	return nil
}

func closeDB(c *cli.Context) error {
	if db, ok := c.Context.Value(dbKey).(*sql.DB); ok && db != nil {
		return db.Close()
	}
	return nil
}

func main() {
	if err := godotenv.Load(".env"); err != nil {
		logger.Log.Debug().Err(err).Msg("no .env file loaded")
	}

	app := &cli.App{
		Name:  "seed",
		Usage: "Seed the database with sales history",
		Commands: []*cli.Command{
			{
				Name:  "sales",
				Usage: "Load a sales history CSV into the sales_transactions table",
				Flags: []cli.Flag{
					newDBURLFlag(),
					&cli.StringFlag{
						Name:     "input",
						Usage:    "Sales history CSV file",
						Required: true,
						EnvVars:  []string{"FORECAST_INPUT"},
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Rows per insert batch",
						Value: 500,
					},
				},
				Before: initDB,
				After:  closeDB,
				Action: seedSales,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Log.Fatal().Err(err).Msg("seed failed")
	}
}

func seedSales(c *cli.Context) error {
	db, ok := c.Context.Value(dbKey).(*sql.DB)
	if !ok || db == nil {
		return fmt.Errorf("database connection not initialized")
	}

	records, err := dataset.LoadCSV(c.String("input"))
	if err != nil {
		return err
	}
	logger.Log.Info().Int("rows", len(records)).Msg("sales history parsed")

	batchSize := c.Int("batch-size")
	if batchSize < 1 {
		batchSize = 500
	}

	query := `
		INSERT INTO sales_transactions (
			transaction_date, branch_id, product_id, product_name, category,
			quantity_sold, selling_price, cost_price, discount_percentage,
			current_stock, festival_flag
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (transaction_date, branch_id, product_id) DO UPDATE SET
			product_name = EXCLUDED.product_name,
			category = EXCLUDED.category,
			quantity_sold = EXCLUDED.quantity_sold,
			selling_price = EXCLUDED.selling_price,
			cost_price = EXCLUDED.cost_price,
			discount_percentage = EXCLUDED.discount_percentage,
			current_stock = EXCLUDED.current_stock,
			festival_flag = EXCLUDED.festival_flag
	`

	inserted := 0
	for start := 0; start < len(records); start += batchSize {
		end := start + batchSize
		if end > len(records) {
			end = len(records)
		}

		tx, err := db.BeginTx(c.Context, nil)
		if err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}

		stmt, err := tx.PrepareContext(c.Context, query)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to prepare statement: %w", err)
		}

		for _, r := range records[start:end] {
			if _, err := stmt.ExecContext(c.Context,
				r.Date, r.BranchID, r.ProductID, r.ProductName, r.Category,
				r.QuantitySold, r.SellingPrice, r.CostPrice, r.DiscountPct,
				r.CurrentStock, r.FestivalFlag,
			); err != nil {
				_ = stmt.Close()
				_ = tx.Rollback()
				return fmt.Errorf("failed to insert row: %w", err)
			}
		}

		if err := stmt.Close(); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to close statement: %w", err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit batch: %w", err)
		}
		inserted += end - start
	}

	logger.Log.Info().Int("rows", inserted).Msg("sales history seeded")
	return nil
}
