package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/simaogato/portfolio-metrics/internal/domain"
)

var (
	dateColumnNames  = []string{"dates", "date", "fecha"}
	assetColumnNames = []string{"activos", "activo", "asset", "assets", "nombre", "name"}
)

// ReadPriceTable reads a wide price table: one date column followed by one
// column per asset. Blank cells are skipped.
func ReadPriceTable(r io.Reader) ([]PriceRow, error) {
	header, records, err := readAll(r)
	if err != nil {
		return nil, fmt.Errorf("price table: %w", err)
	}

	dateCol := pickColumn(header, dateColumnNames...)
	if dateCol < 0 {
		dateCol = 0
	}

	var rows []PriceRow
	for i, record := range records {
		line := i + 2
		if dateCol >= len(record) || strings.TrimSpace(record[dateCol]) == "" {
			continue
		}
		date, err := parseCellDate(record[dateCol])
		if err != nil {
			return nil, fmt.Errorf("price table line %d: %w", line, err)
		}

		for col, assetName := range header {
			if col == dateCol || col >= len(record) || assetName == "" {
				continue
			}
			cell := cleanCell(record[col])
			if cell == "" {
				continue
			}
			price, err := decimal.NewFromString(cell)
			if err != nil {
				return nil, fmt.Errorf("%w: price table line %d, asset %q: %q is not a number",
					domain.ErrInvalidInput, line, assetName, cell)
			}
			rows = append(rows, PriceRow{AssetName: assetName, Date: date, Price: price})
		}
	}
	return rows, nil
}

// ReadWeights reads an asset-by-portfolio weights table and returns the
// column that belongs to portfolioName.
// Column resolution order:
//  1. column, when given, matched by header name
//  2. a header equal to the portfolio name
//  3. the portfolio's trailing number ("Portafolio 2" selects "portafolio 2", "p2" or "2")
func ReadWeights(r io.Reader, portfolioName, column string) ([]WeightRow, error) {
	header, records, err := readAll(r)
	if err != nil {
		return nil, fmt.Errorf("weights table: %w", err)
	}

	nameCol := pickColumn(header, assetColumnNames...)
	if nameCol < 0 {
		nameCol = 0
	}

	weightCol, err := weightColumn(header, nameCol, portfolioName, column)
	if err != nil {
		return nil, err
	}

	var rows []WeightRow
	for i, record := range records {
		if nameCol >= len(record) || weightCol >= len(record) {
			continue
		}
		assetName := strings.TrimSpace(record[nameCol])
		cell := cleanCell(record[weightCol])
		if assetName == "" || cell == "" {
			continue
		}
		weight, err := decimal.NewFromString(cell)
		if err != nil {
			return nil, fmt.Errorf("%w: weights table line %d, asset %q: %q is not a number",
				domain.ErrInvalidInput, i+2, assetName, cell)
		}
		rows = append(rows, WeightRow{AssetName: assetName, Weight: weight})
	}
	return rows, nil
}

// ReadFiles reads a price table and a weights table from disk
func ReadFiles(pricesPath, weightsPath, portfolioName, column string) ([]PriceRow, []WeightRow, error) {
	pf, err := os.Open(pricesPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open price table: %w", err)
	}
	defer pf.Close()

	prices, err := ReadPriceTable(pf)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", pricesPath, err)
	}

	wf, err := os.Open(weightsPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open weights table: %w", err)
	}
	defer wf.Close()

	weights, err := ReadWeights(wf, portfolioName, column)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", weightsPath, err)
	}
	return prices, weights, nil
}

func weightColumn(header []string, nameCol int, portfolioName, column string) (int, error) {
	if column != "" {
		if idx := pickColumn(header, column); idx >= 0 {
			return idx, nil
		}
		return -1, fmt.Errorf("%w: weights column %q not found in %v", domain.ErrInvalidInput, column, header)
	}

	name := strings.TrimSpace(portfolioName)
	if idx := pickColumn(header, name); idx >= 0 && idx != nameCol {
		return idx, nil
	}

	if n := trailingNumber(name); n != "" {
		if idx := pickColumn(header, "portafolio "+n, "portfolio "+n, "p"+n, n); idx >= 0 && idx != nameCol {
			return idx, nil
		}
	}

	return -1, fmt.Errorf("%w: no weights column for portfolio %q in %v", domain.ErrInvalidInput, portfolioName, header)
}

func readAll(r io.Reader) ([]string, [][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil, fmt.Errorf("%w: empty file", domain.ErrInvalidInput)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	for i := range header {
		header[i] = cleanCell(header[i])
	}

	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read CSV records: %w", err)
	}
	return header, records, nil
}

// pickColumn returns the index of the first header matching any candidate, ignoring case
func pickColumn(header []string, candidates ...string) int {
	for _, c := range candidates {
		for i, h := range header {
			if strings.EqualFold(h, strings.TrimSpace(c)) {
				return i
			}
		}
	}
	return -1
}

func trailingNumber(s string) string {
	end := len(s)
	start := end
	for start > 0 && s[start-1] >= '0' && s[start-1] <= '9' {
		start--
	}
	return s[start:end]
}

func cleanCell(s string) string {
	s = strings.TrimPrefix(s, "\ufeff")
	s = strings.TrimSpace(s)
	return strings.Trim(s, "\"")
}

// parseCellDate accepts YYYY-MM-DD, optionally followed by a time of day as spreadsheet exports write it
func parseCellDate(s string) (time.Time, error) {
	s = cleanCell(s)
	if len(s) > len(domain.DateLayout) {
		s = s[:len(domain.DateLayout)]
	}
	return domain.ParseDate(s)
}
