package journal

import (
	"encoding/csv"
	"os"
	"strconv"
	"time"
)

// CSVJournal appends orders and equity snapshots to two flat files. Fills
// and rejections fold into the orders file as rows with their own kind tag,
// which keeps the backend at two files like the original trade journal.
type CSVJournal struct {
	orders *csv.Writer
	equity *csv.Writer
	of, ef *os.File
}

func NewCSV(ordersPath, equityPath string) (*CSVJournal, error) {
	of, err := os.Create(ordersPath)
	if err != nil {
		return nil, err
	}
	ef, err := os.Create(equityPath)
	if err != nil {
		of.Close()
		return nil, err
	}

	ow := csv.NewWriter(of)
	ew := csv.NewWriter(ef)

	if err := ow.Write([]string{"kind", "order_id", "symbol", "side", "quantity", "filled_quantity", "avg_fill_price", "state", "reason", "time"}); err != nil {
		return nil, err
	}
	if err := ew.Write([]string{"time", "cash", "equity", "peak_equity", "daily_loss", "drawdown_pct", "open_positions"}); err != nil {
		return nil, err
	}

	ow.Flush()
	if err := ow.Error(); err != nil {
		return nil, err
	}
	ew.Flush()
	if err := ew.Error(); err != nil {
		return nil, err
	}

	return &CSVJournal{orders: ow, equity: ew, of: of, ef: ef}, nil
}

func (j *CSVJournal) RecordOrder(o OrderRecord) error {
	err := j.orders.Write([]string{
		"order",
		o.OrderID,
		o.Symbol,
		o.Side,
		f(o.Quantity),
		f(o.FilledQuantity),
		f(o.AvgFillPrice),
		o.State,
		o.Reason,
		o.CreatedAt.Format(time.RFC3339),
	})
	if err != nil {
		return err
	}
	j.orders.Flush()
	return j.orders.Error()
}

func (j *CSVJournal) RecordFill(rec FillRecord) error {
	err := j.orders.Write([]string{
		"fill",
		rec.OrderID,
		rec.Symbol,
		"",
		f(rec.Quantity),
		"",
		f(rec.Price),
		"",
		"",
		rec.Time.Format(time.RFC3339),
	})
	if err != nil {
		return err
	}
	j.orders.Flush()
	return j.orders.Error()
}

func (j *CSVJournal) RecordEquity(e EquitySnapshot) error {
	err := j.equity.Write([]string{
		e.Time.Format(time.RFC3339),
		f(e.Cash),
		f(e.Equity),
		f(e.PeakEquity),
		f(e.DailyLoss),
		f(e.DrawdownPct),
		strconv.Itoa(e.Open),
	})
	if err != nil {
		return err
	}
	j.equity.Flush()
	return j.equity.Error()
}

func (j *CSVJournal) RecordRejection(r RejectionRecord) error {
	err := j.orders.Write([]string{
		"rejection", "", r.Symbol, "", "", "", "", "", r.Reason,
		r.Time.Format(time.RFC3339),
	})
	if err != nil {
		return err
	}
	j.orders.Flush()
	return j.orders.Error()
}

func (j *CSVJournal) Close() error {
	j.orders.Flush()
	if err := j.orders.Error(); err != nil {
		return err
	}
	j.equity.Flush()
	if err := j.equity.Error(); err != nil {
		return err
	}

	if err := j.of.Close(); err != nil {
		return err
	}
	return j.ef.Close()
}

func f(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}
