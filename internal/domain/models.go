// internal/domain/models.go
package domain

import "time"

// EntityKey identifies an independent (branch, product) time series. Every
// lag and rolling computation is scoped to a single EntityKey.
type EntityKey struct {
	BranchID  int `json:"branch_id"`
	ProductID int `json:"product_id"`
}

// Less orders keys by (branch, product) for deterministic tie-breaking.
func (k EntityKey) Less(other EntityKey) bool {
	if k.BranchID != other.BranchID {
		return k.BranchID < other.BranchID
	}
	return k.ProductID < other.ProductID
}

// TransactionRecord is one observed (date, branch, product) sales row. It is
// the source of truth for all derived features and is never mutated after
// ingestion.
type TransactionRecord struct {
	Date         time.Time `json:"date" db:"transaction_date"`
	BranchID     int       `json:"branch_id" db:"branch_id"`
	ProductID    int       `json:"product_id" db:"product_id"`
	ProductName  string    `json:"product_name" db:"product_name"`
	Category     string    `json:"category" db:"category"`
	QuantitySold float64   `json:"quantity_sold" db:"quantity_sold"`
	SellingPrice float64   `json:"selling_price" db:"selling_price"`
	CostPrice    float64   `json:"cost_price" db:"cost_price"`
	DiscountPct  float64   `json:"discount_percentage" db:"discount_percentage"`
	CurrentStock float64   `json:"current_stock" db:"current_stock"`
	FestivalFlag int       `json:"festival_flag" db:"festival_flag"`
}

// Key returns the entity this record belongs to.
func (r TransactionRecord) Key() EntityKey {
	return EntityKey{BranchID: r.BranchID, ProductID: r.ProductID}
}

// Prediction is one row of the per-day forecast table for the next week.
type Prediction struct {
	Date             time.Time `json:"date" db:"forecast_date"`
	BranchID         int       `json:"branch_id" db:"branch_id"`
	ProductID        int       `json:"product_id" db:"product_id"`
	PredictedSales   int       `json:"predicted_sales" db:"predicted_sales"`
	StockRequirement int       `json:"stock_requirement" db:"stock_requirement"`
	CurrentStock     int       `json:"current_stock" db:"current_stock"`
	ReorderNeeded    bool      `json:"reorder_needed" db:"reorder_needed"`
	ReorderQuantity  int       `json:"reorder_quantity" db:"reorder_quantity"`
}

// Recommendation is the final per-entity output of the batch run: the
// one-week-ahead forecast, its financial projection, the stock position and
// the discount suggestion. Immutable once created by the aggregator.
type Recommendation struct {
	BranchID         int         `json:"branch_id" db:"branch_id"`
	ProductID        int         `json:"product_id" db:"product_id"`
	ProductName      string      `json:"product_name" db:"product_name"`
	ForecastDate     time.Time   `json:"forecast_date" db:"forecast_date"`
	PredictedUnits   float64     `json:"predicted_units" db:"predicted_units"`
	PredictedRevenue float64     `json:"predicted_revenue" db:"predicted_revenue"`
	PredictedProfit  float64     `json:"predicted_profit" db:"predicted_profit"`
	CurrentStock     float64     `json:"current_stock" db:"current_stock"`
	RequiredStock    float64     `json:"required_stock" db:"required_stock"`
	StockGap         float64     `json:"stock_gap" db:"stock_gap"`
	Status           StockStatus `json:"status" db:"status"`
	BestDiscountPct  float64     `json:"best_discount_pct" db:"best_discount_pct"`
	BestProfit       float64     `json:"best_profit" db:"best_profit"`
	Suggestion       string      `json:"suggestion" db:"suggestion"`
}

// Key returns the entity this recommendation belongs to.
func (r Recommendation) Key() EntityKey {
	return EntityKey{BranchID: r.BranchID, ProductID: r.ProductID}
}
