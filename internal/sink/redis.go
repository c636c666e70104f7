package sink

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/apatel/nifty-data/internal/model"
)

// Redis maintains a latest-price view: one hash keyed by instrument,
// field value is the most recent tick as JSON. Not a durable store; it
// serves dashboards that only want the current chain state.
type Redis struct {
	rdb       *redis.Client
	keyLatest string
	ttl       time.Duration
}

type latestTick struct {
	InstrumentKey string  `json:"instrument_key"`
	LTP           float64 `json:"ltp"`
	Spot          float64 `json:"spot,omitempty"`
	ObservedAt    int64   `json:"observed_at"`
}

// NewRedis creates the latest-price sink under prefix.
func NewRedis(rdb *redis.Client, prefix string, ttl time.Duration) *Redis {
	return &Redis{
		rdb:       rdb,
		keyLatest: prefix + ":latest",
		ttl:       ttl,
	}
}

func (r *Redis) Write(ctx context.Context, ticks []model.Tick) error {
	pipe := r.rdb.Pipeline()
	for _, tk := range ticks {
		if tk.LastTradedPrice <= 0 {
			continue
		}
		lt := latestTick{
			InstrumentKey: tk.InstrumentKey,
			LTP:           tk.LastTradedPrice,
			Spot:          tk.SpotPrice,
			ObservedAt:    tk.ObservedAt.UnixMicro(),
		}
		b, _ := json.Marshal(lt)
		pipe.HSet(ctx, r.keyLatest, tk.InstrumentKey, string(b))
	}
	if r.ttl > 0 {
		pipe.Expire(ctx, r.keyLatest, r.ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (r *Redis) Close() error { return r.rdb.Close() }
