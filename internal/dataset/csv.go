// internal/dataset/csv.go
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/andresuchdata/demandcast/internal/domain"
)

// date layouts accepted in input files, tried in order
var dateLayouts = []string{"2006-01-02", "2006/01/02", "02-01-2006"}

var columnNameSanitizer = strings.NewReplacer(" ", "", "_", "", ".", "", "-", "", "/", "")

func normalizeColumnName(name string) string {
	name = strings.TrimSpace(strings.ToLower(name))
	return columnNameSanitizer.Replace(name)
}

// LoadCSV reads a sales history file into transaction records. Header names
// are matched after normalization, so "Quantity Sold", "quantity_sold" and
// "QUANTITY-SOLD" all resolve to the same column.
func LoadCSV(path string) ([]domain.TransactionRecord, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset %s: %w", path, err)
	}
	defer file.Close()

	records, err := ReadCSV(file)
	if err != nil {
		return nil, fmt.Errorf("read dataset %s: %w", path, err)
	}
	return records, nil
}

// ReadCSV parses transaction records from any reader of CSV data.
func ReadCSV(r io.Reader) ([]domain.TransactionRecord, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	colIndex := func(names ...string) int {
		targets := make(map[string]struct{}, len(names))
		for _, name := range names {
			targets[normalizeColumnName(name)] = struct{}{}
		}
		for i, h := range header {
			if _, ok := targets[normalizeColumnName(h)]; ok {
				return i
			}
		}
		return -1
	}

	idxDate := colIndex("date", "transaction_date")
	idxBranch := colIndex("branch_id", "branch")
	idxProduct := colIndex("product_id", "product")
	idxName := colIndex("product_name", "name")
	idxCategory := colIndex("category")
	idxQty := colIndex("quantity_sold", "qty_sold", "quantity")
	idxPrice := colIndex("selling_price", "price")
	idxCost := colIndex("cost_price", "cost")
	idxDiscount := colIndex("discount_percentage", "discount_pct", "discount")
	idxStock := colIndex("current_stock", "stock")
	idxFestival := colIndex("festival_flag", "festival")

	for name, idx := range map[string]int{
		"date": idxDate, "branch_id": idxBranch, "product_id": idxProduct,
		"quantity_sold": idxQty, "selling_price": idxPrice, "cost_price": idxCost,
		"current_stock": idxStock,
	} {
		if idx < 0 {
			return nil, fmt.Errorf("dataset is missing required column %q", name)
		}
	}

	rows := make([]domain.TransactionRecord, 0)
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		line++

		get := func(idx int) string {
			if idx < 0 || idx >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[idx])
		}

		parseFloat := func(idx int) float64 {
			v := get(idx)
			if v == "" {
				return 0
			}
			v = strings.ReplaceAll(v, ",", "")
			f, _ := strconv.ParseFloat(v, 64)
			return f
		}

		parseInt := func(idx int) int {
			return int(parseFloat(idx))
		}

		date, err := parseDate(get(idxDate))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		rows = append(rows, domain.TransactionRecord{
			Date:         date,
			BranchID:     parseInt(idxBranch),
			ProductID:    parseInt(idxProduct),
			ProductName:  get(idxName),
			Category:     get(idxCategory),
			QuantitySold: parseFloat(idxQty),
			SellingPrice: parseFloat(idxPrice),
			CostPrice:    parseFloat(idxCost),
			DiscountPct:  parseFloat(idxDiscount),
			CurrentStock: parseFloat(idxStock),
			FestivalFlag: parseInt(idxFestival),
		})
	}

	if len(rows) == 0 {
		return nil, errors.New("dataset contains no data rows")
	}

	return rows, nil
}

func parseDate(v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, errors.New("empty date")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", v)
}
