package sandbox

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"healthstore/model"
)

var reportContentTypes = map[model.ReportFormat]string{
	model.ReportCSV:   "text/csv",
	model.ReportExcel: "application/vnd.ms-excel",
	model.ReportPDF:   "application/pdf",
}

// Report renders an admin report. Orders outside [from, to] are skipped;
// zero bounds are open. csv is real CSV; excel is tab separated and pdf is
// a plain text rendering, which is enough for a local sandbox.
func (s *Service) Report(typ model.ReportType, format model.ReportFormat, from, to time.Time) ([]byte, string, error) {
	ct, ok := reportContentTypes[format]
	if !ok {
		return nil, "", errors.New("invalid report format")
	}
	rows, err := s.reportRows(typ, from, to)
	if err != nil {
		return nil, "", err
	}

	var buf bytes.Buffer
	switch format {
	case model.ReportCSV, model.ReportExcel:
		w := csv.NewWriter(&buf)
		if format == model.ReportExcel {
			w.Comma = '\t'
		}
		if err := w.WriteAll(rows); err != nil {
			return nil, "", fmt.Errorf("write report: %w", err)
		}
	default:
		fmt.Fprintf(&buf, "%s report\n\n", strings.ToUpper(string(typ[:1]))+string(typ[1:]))
		for _, r := range rows {
			buf.WriteString(strings.Join(r, "  "))
			buf.WriteByte('\n')
		}
	}
	return buf.Bytes(), ct, nil
}

func (s *Service) reportRows(typ model.ReportType, from, to time.Time) ([][]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var orders []model.Order
	for _, o := range sortedValues(s.orders) {
		if !from.IsZero() && o.CreatedAt.Before(from) {
			continue
		}
		if !to.IsZero() && o.CreatedAt.After(to) {
			continue
		}
		orders = append(orders, o)
	}

	money := func(v float64) string { return strconv.FormatFloat(v, 'f', 2, 64) }

	switch typ {
	case model.ReportSummary:
		var revenue float64
		active := 0
		for _, o := range orders {
			if o.Status != model.OrderCancelled {
				revenue += o.Total
				active++
			}
		}
		return [][]string{
			{"metric", "value"},
			{"orders", strconv.Itoa(len(orders))},
			{"active_orders", strconv.Itoa(active)},
			{"revenue", money(revenue)},
			{"users", strconv.Itoa(len(s.accounts))},
			{"products", strconv.Itoa(len(s.products))},
		}, nil
	case model.ReportDetailed:
		rows := [][]string{{"order_id", "user_id", "status", "payment_method", "product_id", "quantity", "price", "created_at"}}
		for _, o := range orders {
			for _, it := range o.Items {
				rows = append(rows, []string{
					strconv.FormatInt(o.ID, 10),
					strconv.FormatInt(o.UserID, 10),
					string(o.Status),
					string(o.PaymentMethod),
					strconv.FormatInt(it.ProductID, 10),
					strconv.Itoa(it.Quantity),
					money(it.Price),
					o.CreatedAt.Format(time.RFC3339),
				})
			}
		}
		return rows, nil
	case model.ReportSales:
		rows := [][]string{{"order_id", "status", "total", "created_at"}}
		for _, o := range orders {
			rows = append(rows, []string{
				strconv.FormatInt(o.ID, 10),
				string(o.Status),
				money(o.Total),
				o.CreatedAt.Format(time.RFC3339),
			})
		}
		return rows, nil
	case model.ReportInventory:
		rows := [][]string{{"product_id", "name", "stock", "price"}}
		for _, p := range sortedValues(s.products) {
			rows = append(rows, []string{strconv.FormatInt(p.ID, 10), p.Name, strconv.Itoa(p.Stock), money(p.Price)})
		}
		return rows, nil
	}
	return nil, errors.New("invalid report type")
}
