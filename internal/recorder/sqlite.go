package recorder

import (
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"TradeWarden/internal/model"
)

// SQLiteRecorder persists the trade journal to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode for better concurrent read performance (the status API
	// reads history while the bot writes).
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS trades (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp INTEGER NOT NULL,
			symbol    TEXT NOT NULL,
			action    TEXT NOT NULL,
			quantity  REAL NOT NULL,
			price     REAL NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_trades_ts ON trades(timestamp)`,

		`CREATE TABLE IF NOT EXISTS equity_snapshots (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp INTEGER NOT NULL,
			equity    REAL NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_equity_ts ON equity_snapshots(timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordTrade(t *Trade) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO trades (timestamp, symbol, action, quantity, price)
		VALUES (?,?,?,?,?)`,
		t.Time.Unix(), t.Symbol, string(t.Action), t.Quantity, t.Price,
	)
	return err
}

func (r *SQLiteRecorder) RecordEquity(e *EquitySnapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO equity_snapshots (timestamp, equity) VALUES (?,?)`,
		e.Time.Unix(), e.Equity,
	)
	return err
}

// TradeHistory returns the most recent trades, newest first.
func (r *SQLiteRecorder) TradeHistory(limit int) ([]Trade, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.Query(`SELECT timestamp, symbol, action, quantity, price
		FROM trades ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trades []Trade
	for rows.Next() {
		var ts int64
		var t Trade
		var action string
		if err := rows.Scan(&ts, &t.Symbol, &action, &t.Quantity, &t.Price); err != nil {
			return nil, err
		}
		t.Time = time.Unix(ts, 0)
		t.Action = model.TradeAction(action)
		trades = append(trades, t)
	}
	return trades, rows.Err()
}

// EquityHistory returns the most recent equity observations, oldest first.
func (r *SQLiteRecorder) EquityHistory(limit int) ([]model.EquityPoint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if limit <= 0 {
		limit = 500
	}
	rows, err := r.db.Query(`SELECT timestamp, equity FROM (
			SELECT id, timestamp, equity FROM equity_snapshots ORDER BY id DESC LIMIT ?
		) ORDER BY id ASC`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var points []model.EquityPoint
	for rows.Next() {
		var ts int64
		var eq float64
		if err := rows.Scan(&ts, &eq); err != nil {
			return nil, err
		}
		points = append(points, model.EquityPoint{Time: time.Unix(ts, 0), Equity: eq})
	}
	return points, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	log.Println("[INFO] closing sqlite recorder")
	return r.db.Close()
}
