// internal/repository/postgres/forecast_repository.go
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/andresuchdata/demandcast/internal/domain"
)

type forecastRepository struct {
	db *DB
}

func NewForecastRepository(db *DB) *forecastRepository {
	return &forecastRepository{db: db}
}

// SaveRecommendations replaces the recommendation set for a forecast date.
// Entity rows are upserted so a rerun of the same date overwrites cleanly.
func (r *forecastRepository) SaveRecommendations(ctx context.Context, recs []domain.Recommendation) error {
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		query := `
			INSERT INTO recommendations (
				branch_id, product_id, product_name, forecast_date,
				predicted_units, predicted_revenue, predicted_profit,
				current_stock, required_stock, stock_gap, status,
				best_discount_pct, best_profit, suggestion, created_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
			ON CONFLICT (branch_id, product_id, forecast_date)
			DO UPDATE SET
				product_name = EXCLUDED.product_name,
				predicted_units = EXCLUDED.predicted_units,
				predicted_revenue = EXCLUDED.predicted_revenue,
				predicted_profit = EXCLUDED.predicted_profit,
				current_stock = EXCLUDED.current_stock,
				required_stock = EXCLUDED.required_stock,
				stock_gap = EXCLUDED.stock_gap,
				status = EXCLUDED.status,
				best_discount_pct = EXCLUDED.best_discount_pct,
				best_profit = EXCLUDED.best_profit,
				suggestion = EXCLUDED.suggestion,
				updated_at = NOW()
		`

		stmt, err := tx.PrepareContext(ctx, query)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer stmt.Close()

		now := time.Now()
		for _, rec := range recs {
			_, err := stmt.ExecContext(
				ctx,
				rec.BranchID,
				rec.ProductID,
				rec.ProductName,
				rec.ForecastDate,
				rec.PredictedUnits,
				rec.PredictedRevenue,
				rec.PredictedProfit,
				rec.CurrentStock,
				rec.RequiredStock,
				rec.StockGap,
				rec.Status,
				rec.BestDiscountPct,
				rec.BestProfit,
				rec.Suggestion,
				now,
			)
			if err != nil {
				return fmt.Errorf("failed to insert recommendation: %w", err)
			}
		}

		return nil
	})
}

// SavePredictions upserts the per-day forecast table rows.
func (r *forecastRepository) SavePredictions(ctx context.Context, predictions []domain.Prediction) error {
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		query := `
			INSERT INTO predictions (
				forecast_date, branch_id, product_id, predicted_sales,
				stock_requirement, current_stock, reorder_needed,
				reorder_quantity, created_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (forecast_date, branch_id, product_id)
			DO UPDATE SET
				predicted_sales = EXCLUDED.predicted_sales,
				stock_requirement = EXCLUDED.stock_requirement,
				current_stock = EXCLUDED.current_stock,
				reorder_needed = EXCLUDED.reorder_needed,
				reorder_quantity = EXCLUDED.reorder_quantity,
				updated_at = NOW()
		`

		stmt, err := tx.PrepareContext(ctx, query)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer stmt.Close()

		now := time.Now()
		for _, p := range predictions {
			_, err := stmt.ExecContext(
				ctx,
				p.Date,
				p.BranchID,
				p.ProductID,
				p.PredictedSales,
				p.StockRequirement,
				p.CurrentStock,
				p.ReorderNeeded,
				p.ReorderQuantity,
				now,
			)
			if err != nil {
				return fmt.Errorf("failed to insert prediction: %w", err)
			}
		}

		return nil
	})
}

// LatestRecommendations returns the recommendation set of the newest forecast
// date, optionally filtered by branch (branchID <= 0 means all branches).
func (r *forecastRepository) LatestRecommendations(ctx context.Context, branchID int) ([]domain.Recommendation, error) {
	query := `
		SELECT
			branch_id, product_id, product_name, forecast_date,
			predicted_units, predicted_revenue, predicted_profit,
			current_stock, required_stock, stock_gap, status,
			best_discount_pct, best_profit, suggestion
		FROM recommendations
		WHERE forecast_date = (SELECT MAX(forecast_date) FROM recommendations)
	`
	args := []interface{}{}
	if branchID > 0 {
		query += " AND branch_id = $1"
		args = append(args, branchID)
	}
	query += " ORDER BY branch_id, product_id"

	recs := make([]domain.Recommendation, 0)
	if err := r.db.SelectContext(ctx, &recs, query, args...); err != nil {
		return nil, fmt.Errorf("failed to query recommendations: %w", err)
	}
	return recs, nil
}

// RecommendationsByDate returns the recommendation set of a specific forecast date.
func (r *forecastRepository) RecommendationsByDate(ctx context.Context, date time.Time, branchID int) ([]domain.Recommendation, error) {
	query := `
		SELECT
			branch_id, product_id, product_name, forecast_date,
			predicted_units, predicted_revenue, predicted_profit,
			current_stock, required_stock, stock_gap, status,
			best_discount_pct, best_profit, suggestion
		FROM recommendations
		WHERE forecast_date = $1
	`
	args := []interface{}{date}
	if branchID > 0 {
		query += " AND branch_id = $2"
		args = append(args, branchID)
	}
	query += " ORDER BY branch_id, product_id"

	recs := make([]domain.Recommendation, 0)
	if err := r.db.SelectContext(ctx, &recs, query, args...); err != nil {
		return nil, fmt.Errorf("failed to query recommendations: %w", err)
	}
	return recs, nil
}

// AvailableDates lists the forecast dates present in the recommendations
// table, newest first.
func (r *forecastRepository) AvailableDates(ctx context.Context) ([]time.Time, error) {
	dates := make([]time.Time, 0)
	query := `SELECT DISTINCT forecast_date FROM recommendations ORDER BY forecast_date DESC`
	if err := r.db.SelectContext(ctx, &dates, query); err != nil {
		return nil, fmt.Errorf("failed to query forecast dates: %w", err)
	}
	return dates, nil
}

// PredictionsByDate returns the prediction table rows for one day.
func (r *forecastRepository) PredictionsByDate(ctx context.Context, date time.Time) ([]domain.Prediction, error) {
	query := `
		SELECT
			forecast_date, branch_id, product_id, predicted_sales,
			stock_requirement, current_stock, reorder_needed, reorder_quantity
		FROM predictions
		WHERE forecast_date = $1
		ORDER BY branch_id, product_id
	`
	predictions := make([]domain.Prediction, 0)
	if err := r.db.SelectContext(ctx, &predictions, query, date); err != nil {
		return nil, fmt.Errorf("failed to query predictions: %w", err)
	}
	return predictions, nil
}
