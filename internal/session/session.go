package session

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/azckamp/lanetimer/internal/protocol"
)

// State of the logical session. Owned by the session; everyone else reads it.
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

// EventKind tags events delivered to the owner loop.
type EventKind int

const (
	KindConnected EventKind = iota
	KindDisconnected
	KindMessage
)

// Event is the only thing the session hands to the core: connection
// transitions and decoded inbound messages, in delivery order.
type Event struct {
	Kind EventKind
	Msg  any // decoded protocol message, set for KindMessage
}

// Config for the websocket session.
type Config struct {
	URL                  string
	HandshakeTimeout     time.Duration
	WriteTimeout         time.Duration
	ReconnectInterval    time.Duration // initial retry spacing
	MaxReconnectInterval time.Duration // backoff cap
	SendBufferSize       int
	EventBufferSize      int
}

// DefaultConfig matches the device's historical 5s retry interval, hardened
// with a capped doubling backoff.
func DefaultConfig(url string) Config {
	return Config{
		URL:                  url,
		HandshakeTimeout:     10 * time.Second,
		WriteTimeout:         10 * time.Second,
		ReconnectInterval:    5 * time.Second,
		MaxReconnectInterval: 40 * time.Second,
		SendBufferSize:       64,
		EventBufferSize:      64,
	}
}

// Session maintains exactly one logical duplex connection to the timing
// server, redialing with backoff whenever it drops. Inbound frames are
// decoded and pushed onto the event channel; outbound messages are
// serialized through a per-connection write pump.
type Session struct {
	cfg    Config
	clock  clockwork.Clock
	events chan Event
	state  atomic.Int32

	mu     sync.Mutex
	sendCh chan []byte // nil while disconnected
}

func New(cfg Config, clock clockwork.Clock) *Session {
	return &Session{
		cfg:    cfg,
		clock:  clock,
		events: make(chan Event, cfg.EventBufferSize),
	}
}

// Events returns the channel the core loop consumes. A single producer
// writes to it, so ordering matches the transport.
func (s *Session) Events() <-chan Event { return s.events }

func (s *Session) State() State { return State(s.state.Load()) }

// Send encodes and queues one outbound message. Returns false when
// disconnected or when the send buffer is full; queued messages are never
// replayed across connections.
func (s *Session) Send(msg any) bool {
	data, err := protocol.Encode(msg)
	if err != nil {
		log.Error().Err(err).Msg("failed to encode outbound message")
		return false
	}

	s.mu.Lock()
	ch := s.sendCh
	s.mu.Unlock()
	if ch == nil {
		return false
	}

	select {
	case ch <- data:
		return true
	default:
		log.Warn().Msg("send buffer full, dropping outbound message")
		return false
	}
}

// Run owns the connect/reconnect loop until the context is cancelled.
func (s *Session) Run(ctx context.Context) error {
	backoff := s.cfg.ReconnectInterval
	dialer := &websocket.Dialer{HandshakeTimeout: s.cfg.HandshakeTimeout}

	for {
		if ctx.Err() != nil {
			s.state.Store(int32(StateDisconnected))
			return ctx.Err()
		}

		s.state.Store(int32(StateConnecting))
		conn, _, err := dialer.DialContext(ctx, s.cfg.URL, nil)
		if err != nil {
			s.state.Store(int32(StateDisconnected))
			log.Warn().Err(err).Str("url", s.cfg.URL).Dur("retry_in", backoff).Msg("connect failed")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-s.clock.After(backoff):
			}
			backoff *= 2
			if backoff > s.cfg.MaxReconnectInterval {
				backoff = s.cfg.MaxReconnectInterval
			}
			continue
		}
		backoff = s.cfg.ReconnectInterval

		attemptID := uuid.New().String()
		sendCh := make(chan []byte, s.cfg.SendBufferSize)
		s.mu.Lock()
		s.sendCh = sendCh
		s.mu.Unlock()
		s.state.Store(int32(StateConnected))

		log.Info().Str("connection_id", attemptID).Str("url", s.cfg.URL).Msg("connected")
		s.emit(ctx, Event{Kind: KindConnected})

		writerStop := make(chan struct{})
		writerDone := make(chan struct{})
		go s.writePump(conn, sendCh, writerStop, writerDone)

		// Force the blocking read down when the context goes away.
		connCtx, connCancel := context.WithCancel(ctx)
		go func() {
			<-connCtx.Done()
			conn.Close()
		}()

		s.readLoop(ctx, conn, attemptID)
		connCancel()

		// Tear the connection down and stop accepting writes before the
		// disconnect is surfaced. The per-connection send channel is simply
		// abandoned; nothing queued on it survives into the next connection.
		s.mu.Lock()
		s.sendCh = nil
		s.mu.Unlock()
		close(writerStop)
		<-writerDone
		conn.Close()
		s.state.Store(int32(StateDisconnected))

		log.Warn().Str("connection_id", attemptID).Msg("disconnected")
		s.emit(ctx, Event{Kind: KindDisconnected})
	}
}

func (s *Session) readLoop(ctx context.Context, conn *websocket.Conn, attemptID string) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Str("connection_id", attemptID).Msg("read error")
			}
			return
		}

		msg, err := protocol.Decode(data)
		if err != nil {
			// Malformed frames are dropped with no state change.
			log.Debug().Err(err).Str("connection_id", attemptID).Msg("dropping undecodable frame")
			continue
		}
		s.emit(ctx, Event{Kind: KindMessage, Msg: msg})
	}
}

func (s *Session) writePump(conn *websocket.Conn, sendCh <-chan []byte, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	for {
		select {
		case <-stop:
			conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case data := <-sendCh:
			conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Warn().Err(err).Msg("write failed")
				<-stop
				return
			}
		}
	}
}

func (s *Session) emit(ctx context.Context, ev Event) {
	select {
	case s.events <- ev:
	case <-ctx.Done():
	}
}
