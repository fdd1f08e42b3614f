package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"storefront-cart/internal/domain"
)

type DiscountWriter interface {
	Upsert(ctx context.Context, d domain.Discount) error
}

// CSVImporter loads discount documents from a CSV export with a header row.
// Recognized columns: id, name, type, percentage, minPurchaseAmount, isActive,
// startDate, endDate, productIds (semicolon separated).
type CSVImporter struct {
	reader *csv.Reader
	writer DiscountWriter
}

func NewCSVImporter(r io.Reader, w DiscountWriter) *CSVImporter {
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1
	csvr.TrimLeadingSpace = true
	return &CSVImporter{reader: csvr, writer: w}
}

// Run upserts every row and returns how many discounts were written. Blank rows are
// skipped; the first malformed row stops the import.
func (i *CSVImporter) Run(ctx context.Context) (int, error) {
	headers, err := i.reader.Read()
	if err != nil {
		return 0, fmt.Errorf("read headers: %w", err)
	}
	index := headerIndex(headers)
	if _, ok := index["id"]; !ok {
		return 0, errors.New("missing id column")
	}

	imported := 0
	line := 1
	for {
		record, err := i.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return imported, fmt.Errorf("read row %d: %w", line, err)
		}

		d, ok, err := parseRow(record, index)
		if err != nil {
			return imported, fmt.Errorf("row %d: %w", line, err)
		}
		if !ok {
			continue
		}
		if err := i.writer.Upsert(ctx, d); err != nil {
			return imported, fmt.Errorf("upsert discount %s: %w", d.ID, err)
		}
		imported++
	}
	return imported, nil
}

func headerIndex(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return idx
}

func parseRow(record []string, index map[string]int) (domain.Discount, bool, error) {
	get := func(key string) string {
		i, ok := index[strings.ToLower(key)]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	id := get("id")
	if id == "" {
		return domain.Discount{}, false, nil
	}

	d := domain.Discount{
		ID:       id,
		Name:     get("name"),
		Type:     domain.DiscountType(strings.ToLower(get("type"))),
		IsActive: true,
	}
	if d.Type == "" {
		d.Type = domain.DiscountTypeOrder
	}
	if d.Type != domain.DiscountTypeOrder && d.Type != domain.DiscountTypeProduct {
		return d, false, fmt.Errorf("unknown type %q", d.Type)
	}

	pct, err := strconv.ParseFloat(get("percentage"), 64)
	if err != nil || pct < 0 || pct > 100 {
		return d, false, fmt.Errorf("invalid percentage %q", get("percentage"))
	}
	d.Percentage = pct

	if v := get("minPurchaseAmount"); v != "" {
		minAmount, err := strconv.ParseInt(v, 10, 64)
		if err != nil || minAmount < 0 {
			return d, false, fmt.Errorf("invalid minPurchaseAmount %q", v)
		}
		d.MinPurchaseAmount = minAmount
	}
	if v := get("isActive"); v != "" {
		active, err := strconv.ParseBool(v)
		if err != nil {
			return d, false, fmt.Errorf("invalid isActive %q", v)
		}
		d.IsActive = active
	}
	if d.StartDate, err = parseDate(get("startDate")); err != nil {
		return d, false, err
	}
	if d.EndDate, err = parseDate(get("endDate")); err != nil {
		return d, false, err
	}
	if v := get("productIds"); v != "" {
		for _, p := range strings.Split(v, ";") {
			if p = strings.TrimSpace(p); p != "" {
				d.ProductIDs = append(d.ProductIDs, p)
			}
		}
	}
	if d.Type == domain.DiscountTypeProduct && len(d.ProductIDs) == 0 {
		return d, false, errors.New("product discount without productIds")
	}
	return d, true, nil
}

func parseDate(v string) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, v); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, fmt.Errorf("invalid date %q", v)
}
