package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/apatel/nifty-data/internal/model"
	"github.com/apatel/nifty-data/internal/sink"
)

// Authorizer exchanges the REST credential for a single-use websocket URL.
type Authorizer interface {
	AuthorizeFeed(ctx context.Context) (string, error)
}

// Dialer builds the websocket client for an authorized URL. Injectable
// so tests can point the session at a local server.
type Dialer func(url string) Client

// Session drives one websocket connection from authorization through
// subscription to close. Sessions are single-use: after the done event
// fires, build a new one.
type Session struct {
	authorizer Authorizer
	dial       Dialer
	sink       sink.Sink
	sub        model.Subscription
	cfg        SessionConfig
	logger     *slog.Logger

	mu      sync.Mutex
	state   SessionState
	started bool
	client  Client

	closing chan struct{}
	closeMu sync.Once
	done    chan CloseEvent

	lastLTP map[string]float64
}

// NewSession builds a session for one subscription. The dialer defaults
// to a real websocket client using cfg's token and timeouts.
func NewSession(auth Authorizer, sk sink.Sink, sub model.Subscription, cfg SessionConfig, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Session{
		authorizer: auth,
		sink:       sk,
		sub:        sub,
		cfg:        cfg,
		logger:     logger.With("component", "feed"),
		state:      StateIdle,
		closing:    make(chan struct{}),
		done:       make(chan CloseEvent, 1),
		lastLTP:    make(map[string]float64),
	}
	s.dial = func(url string) Client {
		return NewClient(ClientConfig{
			URL:          url,
			AccessToken:  cfg.AccessToken,
			WriteTimeout: cfg.WriteTimeout,
			BufferSize:   cfg.BufferSize,
		}, logger)
	}
	return s
}

// SetDialer overrides the websocket constructor. Must be called before Start.
func (s *Session) SetDialer(d Dialer) { s.dial = d }

// State reports the session's current state.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Done delivers the session's terminal event exactly once.
func (s *Session) Done() <-chan CloseEvent { return s.done }

// Start runs authorization, dials, subscribes, then hands off to the run
// loop. It returns once the session is subscribed or has failed; the run
// loop continues in the background until close or error.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return ErrAlreadyRun
	}
	s.started = true
	s.state = StateAuthorizing
	s.mu.Unlock()

	wsURL, err := s.authorizer.AuthorizeFeed(ctx)
	if err != nil {
		err = fmt.Errorf("authorizing feed: %w", err)
		s.fail(err)
		return err
	}

	client := s.dial(wsURL)
	if err := client.Connect(ctx); err != nil {
		err = fmt.Errorf("connecting feed: %w", err)
		s.fail(err)
		return err
	}

	s.mu.Lock()
	s.client = client
	s.state = StateConnected
	s.mu.Unlock()

	req := subscribeRequest{
		GUID:   uuid.New().String(),
		Method: "subscribe",
		Data: subscribeData{
			Mode:           "ltp",
			InstrumentKeys: s.sub.InstrumentKeys,
		},
	}
	payload, err := json.Marshal(req)
	if err != nil {
		err = fmt.Errorf("encoding subscribe request: %w", err)
		client.Close()
		s.fail(err)
		return err
	}
	if err := client.Send(payload); err != nil {
		err = fmt.Errorf("subscribing: %w", err)
		client.Close()
		s.fail(err)
		return err
	}

	s.mu.Lock()
	s.state = StateSubscribed
	s.mu.Unlock()

	s.logger.Info("feed subscribed",
		"instruments", len(s.sub.InstrumentKeys),
		"expiry", s.sub.Expiry.Format("2006-01-02"))

	go s.run(ctx)
	return nil
}

// Close requests a clean shutdown. Safe to call from any goroutine, any
// number of times; completion is observed on Done.
func (s *Session) Close() {
	s.closeMu.Do(func() { close(s.closing) })
}

func (s *Session) run(ctx context.Context) {
	heartbeat := time.NewTicker(s.cfg.HeartbeatInterval)
	defer heartbeat.Stop()

	client := s.client

	for {
		select {
		case <-s.closing:
			heartbeat.Stop()
			client.Close()
			s.finish(CloseEvent{State: StateClosing, Code: websocket.CloseNormalClosure})
			return

		case <-ctx.Done():
			heartbeat.Stop()
			client.Close()
			s.finish(CloseEvent{State: StateClosing, Err: ctx.Err()})
			return

		case err := <-client.Errors():
			client.Close()
			ev := CloseEvent{State: StateFailed, Err: err}
			var ce *websocket.CloseError
			if errors.As(err, &ce) {
				ev.Code = ce.Code
			}
			s.finish(ev)
			return

		case <-heartbeat.C:
			if !client.IsConnected() {
				continue
			}
			if err := client.Ping(); err != nil {
				s.logger.Warn("heartbeat failed", "error", err)
			}

		case msg := <-client.Messages():
			s.handleFrame(ctx, msg)
		}
	}
}

// handleFrame decodes one frame into ticks and writes them to the sink.
// Decode failures drop the frame; sink failures drop the batch. Neither
// ends the session.
func (s *Session) handleFrame(ctx context.Context, msg TimestampedMessage) {
	entries, _, err := DecodeFrame(msg.Data)
	if err != nil {
		s.logger.Warn("dropping undecodable frame", "error", err, "bytes", len(msg.Data))
		return
	}
	if len(entries) == 0 {
		return
	}

	var spot float64
	for _, e := range entries {
		if e.InstrumentKey == s.sub.SpotKey && e.LTP > 0 {
			spot = e.LTP
			break
		}
	}

	ticks := make([]model.Tick, 0, len(entries))
	for _, e := range entries {
		if e.LTP <= 0 {
			continue
		}
		if e.InstrumentKey == s.sub.SpotKey {
			continue
		}
		ticks = append(ticks, model.Tick{
			InstrumentKey:   e.InstrumentKey,
			LastTradedPrice: e.LTP,
			SpotPrice:       spot,
			ObservedAt:      msg.ReceivedAt,
		})

		if prev, seen := s.lastLTP[e.InstrumentKey]; !seen || math.Abs(e.LTP-prev) > s.cfg.LogEpsilon {
			s.logger.Debug("tick", "instrument", e.InstrumentKey, "ltp", e.LTP, "variant", e.Variant.String())
		}
		s.lastLTP[e.InstrumentKey] = e.LTP
	}

	if len(ticks) == 0 {
		return
	}
	if err := s.sink.Write(ctx, ticks); err != nil {
		s.logger.Error("sink write failed", "error", err, "ticks", len(ticks))
	}
}

func (s *Session) fail(err error) {
	s.finish(CloseEvent{State: StateFailed, Err: err})
}

func (s *Session) finish(ev CloseEvent) {
	s.mu.Lock()
	s.state = ev.State
	s.mu.Unlock()

	select {
	case s.done <- ev:
	default:
	}
}
