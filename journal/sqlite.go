package journal

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
)

type SQLiteJournal struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLiteJournal, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteJournal{db: db}, nil
}

func (j *SQLiteJournal) RecordOrder(o OrderRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO orders
		(order_id, symbol, side, quantity, filled_quantity, avg_fill_price, state, reason, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		o.OrderID, o.Symbol, o.Side, o.Quantity, o.FilledQuantity,
		o.AvgFillPrice, o.State, o.Reason, o.CreatedAt,
	)
	return err
}

func (j *SQLiteJournal) RecordFill(f FillRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO fills (order_id, symbol, quantity, price, time)
		VALUES (?, ?, ?, ?, ?)`,
		f.OrderID, f.Symbol, f.Quantity, f.Price, f.Time,
	)
	return err
}

func (j *SQLiteJournal) RecordEquity(e EquitySnapshot) error {
	_, err := j.db.Exec(`
		INSERT INTO equity
		(time, cash, equity, peak_equity, daily_loss, drawdown_pct, open_positions)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.Time, e.Cash, e.Equity, e.PeakEquity, e.DailyLoss, e.DrawdownPct, e.Open,
	)
	return err
}

func (j *SQLiteJournal) RecordRejection(r RejectionRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO rejections (symbol, reason, time) VALUES (?, ?, ?)`,
		r.Symbol, r.Reason, r.Time,
	)
	return err
}

// OrderHistory returns every recorded state of one order, oldest first.
func (j *SQLiteJournal) OrderHistory(orderID string) ([]OrderRecord, error) {
	rows, err := j.db.Query(`
		SELECT order_id, symbol, side, quantity, filled_quantity, avg_fill_price, state, reason, created_at
		FROM orders WHERE order_id = ? ORDER BY rowid`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []OrderRecord
	for rows.Next() {
		var o OrderRecord
		err := rows.Scan(&o.OrderID, &o.Symbol, &o.Side, &o.Quantity,
			&o.FilledQuantity, &o.AvgFillPrice, &o.State, &o.Reason, &o.CreatedAt)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (j *SQLiteJournal) Close() error {
	return j.db.Close()
}
