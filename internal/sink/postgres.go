package sink

import (
	"log/slog"

	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/apatel/nifty-data/internal/model"
)

// Postgres writes tick batches to the ticks table using pgx.Batch.
// Duplicate (instrument_key, observed_at) rows are dropped via
// ON CONFLICT DO NOTHING so a replayed frame cannot double-insert.
type Postgres struct {
	db     *pgxpool.Pool
	logger *slog.Logger
}

// NewPostgres creates the postgres sink and ensures the ticks table exists.
func NewPostgres(ctx context.Context, db *pgxpool.Pool, logger *slog.Logger) (*Postgres, error) {
	if logger == nil {
		logger = slog.Default()
	}

	_, err := db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS ticks (
			instrument_key TEXT        NOT NULL,
			ltp            DOUBLE PRECISION NOT NULL,
			spot           DOUBLE PRECISION,
			observed_at    BIGINT      NOT NULL,
			PRIMARY KEY (instrument_key, observed_at)
		)
	`)
	if err != nil {
		return nil, err
	}

	return &Postgres{db: db, logger: logger}, nil
}

func (p *Postgres) Write(ctx context.Context, ticks []model.Tick) error {
	batch := &pgx.Batch{}
	for _, tk := range ticks {
		var spot any
		if tk.SpotPrice > 0 {
			spot = tk.SpotPrice
		}
		batch.Queue(`
			INSERT INTO ticks (instrument_key, ltp, spot, observed_at)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (instrument_key, observed_at) DO NOTHING
		`, tk.InstrumentKey, tk.LastTradedPrice, spot, tk.ObservedAt.UnixMicro())
	}

	results := p.db.SendBatch(ctx, batch)
	defer results.Close()

	conflicts := 0
	for range ticks {
		ct, err := results.Exec()
		if err != nil {
			return err
		}
		if ct.RowsAffected() == 0 {
			conflicts++
		}
	}

	if conflicts > 0 {
		p.logger.Debug("duplicate ticks skipped", "count", conflicts)
	}
	return nil
}

func (p *Postgres) Close() error {
	p.db.Close()
	return nil
}
