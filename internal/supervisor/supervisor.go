package supervisor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/apatel/nifty-data/internal/catalog"
	"github.com/apatel/nifty-data/internal/config"
	"github.com/apatel/nifty-data/internal/feed"
	"github.com/apatel/nifty-data/internal/model"
	"github.com/apatel/nifty-data/internal/resolve"
	"github.com/apatel/nifty-data/internal/sink"
	"github.com/apatel/nifty-data/internal/strike"
)

// Market is the REST surface the supervisor depends on.
type Market interface {
	feed.Authorizer
	GetLTP(ctx context.Context, instrumentKey string) (float64, error)
	DownloadInstruments(ctx context.Context, rawURL string) ([]byte, error)
}

// runner is one feed session. Satisfied by *feed.Session.
type runner interface {
	Start(ctx context.Context) error
	Close()
	Done() <-chan feed.CloseEvent
}

// sessionFactory builds a fresh session for a subscription.
type sessionFactory func(sub model.Subscription) runner

// Snapshot is the supervisor's externally visible state, served by the
// health endpoint.
type Snapshot struct {
	Status      string    `json:"status"` // "starting", "running", "restarting"
	Underlying  string    `json:"underlying"`
	Spot        float64   `json:"spot,omitempty"`
	ATM         float64   `json:"atm,omitempty"`
	Expiry      string    `json:"expiry,omitempty"`
	Instruments int       `json:"instruments"`
	Restarts    int       `json:"restarts"`
	Since       time.Time `json:"since"`
}

// Supervisor runs the resolve-subscribe-monitor loop. At most one feed
// session is live at any moment; every restart passes through the same
// fixed delay.
type Supervisor struct {
	market  Market
	sink    sink.Sink
	cfg     config.FeedConfig
	api     config.APIConfig
	session sessionFactory
	logger  *slog.Logger

	catalog *catalog.Catalog

	mu       sync.Mutex
	snap     Snapshot
	current  runner
	restarts int
}

// New builds a supervisor whose sessions use the given sink and session
// config.
func New(market Market, sk sink.Sink, feedCfg config.FeedConfig, apiCfg config.APIConfig, logger *slog.Logger) *Supervisor {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "supervisor")

	s := &Supervisor{
		market: market,
		sink:   sk,
		cfg:    feedCfg,
		api:    apiCfg,
		logger: logger,
		snap: Snapshot{
			Status:     "starting",
			Underlying: feedCfg.Underlying,
			Since:      time.Now().UTC(),
		},
	}
	s.session = func(sub model.Subscription) runner {
		sessCfg := feed.DefaultSessionConfig()
		sessCfg.AccessToken = apiCfg.AccessToken
		sessCfg.HeartbeatInterval = feedCfg.HeartbeatInterval
		return feed.NewSession(market, sk, sub, sessCfg, logger)
	}
	return s
}

// Snapshot returns a copy of the current state.
func (s *Supervisor) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

// Run drives the supervisor until ctx is cancelled. It returns ctx.Err()
// on cancellation; all other failures restart the loop after the fixed
// delay.
func (s *Supervisor) Run(ctx context.Context) error {
	for {
		if err := s.runOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.logger.Error("feed cycle ended", "error", err)
		}

		s.mu.Lock()
		s.restarts++
		s.snap.Status = "restarting"
		s.snap.Restarts = s.restarts
		s.mu.Unlock()

		s.logger.Info("restarting feed", "delay", s.cfg.RestartDelay)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.cfg.RestartDelay):
		}
	}
}

// runOnce resolves the subscription, runs one session, and returns when
// that session ends. A clean drift-triggered close returns nil.
func (s *Supervisor) runOnce(ctx context.Context) error {
	if err := s.ensureCatalog(ctx); err != nil {
		return err
	}

	spot, err := s.market.GetLTP(ctx, s.cfg.SpotKey)
	if err != nil {
		return fmt.Errorf("fetching spot: %w", err)
	}

	atm := strike.ComputeATM(spot, s.cfg.StrikeGap)
	window := strike.GenerateWindow(atm, s.cfg.StrikeGap, s.cfg.StrikeRange)

	expiry, err := resolve.NearestFutureExpiry(s.catalog, s.cfg.Underlying, model.Segment(s.cfg.Segment), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("resolving expiry: %w", err)
	}
	keys, err := resolve.ResolveKeys(s.catalog, s.cfg.Underlying, model.Segment(s.cfg.Segment), expiry, window.Strikes)
	if err != nil {
		return fmt.Errorf("resolving instruments: %w", err)
	}

	sub := model.Subscription{
		Expiry:         expiry,
		SpotKey:        s.cfg.SpotKey,
		InstrumentKeys: append(keys, s.cfg.SpotKey),
	}

	s.logger.Info("resolved option chain",
		"spot", spot,
		"atm", atm,
		"expiry", expiry.Format("2006-01-02"),
		"instruments", len(sub.InstrumentKeys))

	sess := s.session(sub)
	if err := sess.Start(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	s.current = sess
	s.snap.Status = "running"
	s.snap.Spot = spot
	s.snap.ATM = atm
	s.snap.Expiry = expiry.Format("2006-01-02")
	s.snap.Instruments = len(sub.InstrumentKeys)
	s.mu.Unlock()

	return s.monitor(ctx, sess, atm)
}

// monitor watches the live session and probes spot for ATM drift. It
// returns once the session has terminated.
func (s *Supervisor) monitor(ctx context.Context, sess runner, atm float64) error {
	probe := time.NewTicker(s.cfg.DriftProbeInterval)
	defer probe.Stop()

	for {
		select {
		case <-ctx.Done():
			sess.Close()
			<-sess.Done()
			return ctx.Err()

		case ev := <-sess.Done():
			if ev.Err != nil {
				return fmt.Errorf("session ended: %w", ev.Err)
			}
			return nil

		case <-probe.C:
			spot, err := s.market.GetLTP(ctx, s.cfg.SpotKey)
			if err != nil {
				s.logger.Warn("spot probe failed", "error", err)
				continue
			}
			newATM := strike.ComputeATM(spot, s.cfg.StrikeGap)
			if !strike.HasDrifted(atm, newATM, s.cfg.DriftThreshold) {
				continue
			}
			s.logger.Info("atm drift detected", "old_atm", atm, "new_atm", newATM, "spot", spot)
			sess.Close()
			<-sess.Done()
			return nil
		}
	}
}

// ensureCatalog downloads and parses the instrument master once per
// process. A stale catalog across restarts is acceptable within a
// trading day.
func (s *Supervisor) ensureCatalog(ctx context.Context) error {
	if s.catalog != nil {
		return nil
	}

	raw, err := s.market.DownloadInstruments(ctx, s.api.InstrumentsURL)
	if err != nil {
		return fmt.Errorf("downloading instrument master: %w", err)
	}
	cat, err := catalog.Load(raw)
	if err != nil {
		return fmt.Errorf("parsing instrument master: %w", err)
	}

	s.catalog = cat
	s.logger.Info("instrument master loaded", "instruments", cat.Len())
	return nil
}
