package sink

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/apatel/nifty-data/internal/model"
)

// SQLite writes tick batches to a local sqlite file. Intended for dev and
// offline runs where postgres is not available.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens (creating if needed) the sqlite store at path.
func NewSQLite(path string) (*SQLite, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		_ = os.MkdirAll(dir, 0o755)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	s := &SQLite{db: db}
	if err := s.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLite) migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS ticks (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  instrument_key TEXT NOT NULL,
  ltp REAL NOT NULL,
  spot REAL,
  observed_at INTEGER NOT NULL,
  UNIQUE(instrument_key, observed_at)
);
CREATE INDEX IF NOT EXISTS idx_ticks_key ON ticks(instrument_key);
CREATE INDEX IF NOT EXISTS idx_ticks_observed ON ticks(observed_at);
`)
	return err
}

func (s *SQLite) Write(ctx context.Context, ticks []model.Tick) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO ticks (instrument_key, ltp, spot, observed_at)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, tk := range ticks {
		var spot any
		if tk.SpotPrice > 0 {
			spot = tk.SpotPrice
		}
		if _, err := stmt.ExecContext(ctx, tk.InstrumentKey, tk.LastTradedPrice, spot, tk.ObservedAt.UnixMicro()); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (s *SQLite) Close() error { return s.db.Close() }
