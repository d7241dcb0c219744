package gemini

import (
	"context"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/steveyiyo/livebridge/internal/core/audio"
	"github.com/steveyiyo/livebridge/internal/core/wire"
)

// State is the protocol state of a Session.
type State int32

const (
	StateIdle State = iota
	StateConnecting
	StateAwaitingSetupAck
	StateStreaming
	StateClosing
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateAwaitingSetupAck:
		return "awaiting_setup_ack"
	case StateStreaming:
		return "streaming"
	case StateClosing:
		return "closing"
	}
	return "unknown"
}

// Config holds what a Session needs to open a conversation.
type Config struct {
	// URL is the full socket URL, credential included (see LiveURL).
	URL         string
	Model       string
	Instruction string
}

// Session drives one conversation with the Live API: it dials, performs the
// setup handshake, forwards capture audio once the handshake completes and
// queues synthesized speech on the Player.
//
// Connect, Disconnect and SendAudioChunk are safe for concurrent use.
// SendAudioChunk is meant to be called from the audio capture callback and
// never blocks on anything but the transport write.
type Session struct {
	cfg      Config
	dialer   Dialer
	player   Player
	conv     audio.Converter
	outbound *audio.OutboundPipeline
	observer Observer
	logger   *zap.Logger

	// mu serializes state transitions and guards the fields below it.
	mu        sync.Mutex
	transport Transport
	inbound   *audio.InboundPipeline
	cancel    context.CancelFunc

	state         atomic.Int32
	gen           atomic.Uint64
	connected     atomic.Bool
	disconnecting atomic.Bool

	// sendMu keeps one writer on the transport so chunks leave in call order.
	sendMu sync.Mutex
}

// Option configures a Session.
type Option func(*Session)

// WithObserver routes session events to o.
func WithObserver(o Observer) Option {
	return func(s *Session) { s.observer = o }
}

// WithLogger sets the logger. Dropped frames are logged at debug level.
func WithLogger(l *zap.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// WithConverter replaces the default Linear resampler.
func WithConverter(c audio.Converter) Option {
	return func(s *Session) { s.conv = c }
}

// NewSession returns an idle Session. It panics if dialer or player is nil.
func NewSession(cfg Config, dialer Dialer, player Player, opts ...Option) *Session {
	if dialer == nil || player == nil {
		panic("gemini: NewSession requires a dialer and a player")
	}
	s := &Session{
		cfg:      cfg,
		dialer:   dialer,
		player:   player,
		conv:     audio.Linear{},
		observer: nopObserver{},
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.observer == nil {
		s.observer = nopObserver{}
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	s.outbound = audio.NewOutboundPipeline(s.conv)
	return s
}

// State returns the current protocol state.
func (s *Session) State() State {
	return State(s.state.Load())
}

// Connected reports whether the transport is open. It turns false on
// Disconnect and whenever the connection is lost.
func (s *Session) Connected() bool {
	return s.connected.Load()
}

// Connect starts dialing and returns immediately. It is a no-op unless the
// session is Idle.
func (s *Session) Connect() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.State() != StateIdle {
		return
	}

	gen := s.gen.Add(1)
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.disconnecting.Store(false)
	s.inbound = audio.NewInboundPipeline(s.conv, s.player.Format())
	s.setState(StateConnecting)

	go s.dial(ctx, gen)
}

// Disconnect tears the session down to Idle. It does not wait for an
// in-flight dial or read to finish and may be called in any state, any number
// of times.
func (s *Session) Disconnect() {
	s.mu.Lock()
	s.disconnecting.Store(true)
	if s.State() == StateIdle {
		s.connected.Store(false)
		s.mu.Unlock()
		return
	}
	s.setState(StateClosing)
	t := s.teardownLocked()
	s.mu.Unlock()

	s.closeTransport(t)
	s.logger.Info("session disconnected")
}

// SendAudioChunk forwards one capture buffer. Outside Streaming the buffer is
// dropped; buffers are never queued waiting for the handshake.
func (s *Session) SendAudioChunk(buf audio.Buffer) {
	if s.State() != StateStreaming {
		s.observer.AudioDropped(DropNotStreaming)
		return
	}
	chunk, ok := s.outbound.Submit(buf)
	if !ok {
		s.observer.AudioDropped(DropOutbound)
		s.logger.Debug("capture buffer dropped", zap.Stringer("format", buf.Format))
		return
	}
	msg, err := wire.Encode(chunk)
	if err != nil {
		s.observer.AudioDropped(DropOutbound)
		return
	}

	s.mu.Lock()
	t := s.transport
	s.mu.Unlock()
	if t == nil {
		s.observer.AudioDropped(DropSend)
		return
	}
	if err := s.write(t, msg); err != nil {
		s.observer.AudioDropped(DropSend)
		s.logger.Debug("audio chunk send failed", zap.Error(err))
		return
	}
	s.observer.ChunkSent()
}

func (s *Session) dial(ctx context.Context, gen uint64) {
	t, err := s.dialer.Dial(ctx, s.cfg.URL)
	if err != nil {
		s.logger.Warn("dial failed", zap.Error(err))
		s.lost(gen)
		return
	}

	s.mu.Lock()
	if s.stale(gen) {
		s.mu.Unlock()
		t.Close()
		return
	}
	s.transport = t
	s.setState(StateAwaitingSetupAck)
	s.connected.Store(true)
	s.mu.Unlock()

	setup, err := wire.Encode(wire.SetupRequest{Model: s.cfg.Model, Instruction: s.cfg.Instruction})
	if err == nil {
		err = s.write(t, setup)
	}
	if err != nil {
		s.logger.Warn("setup request failed", zap.Error(err))
		s.lost(gen)
		return
	}
	s.logger.Info("setup request sent", zap.String("model", s.cfg.Model))

	go s.receive(gen, t)
}

// receive reads one message at a time and dispatches it before reading the
// next, so inbound frames are handled in arrival order.
func (s *Session) receive(gen uint64, t Transport) {
	for {
		msg, err := t.Receive()
		if s.stale(gen) {
			return
		}
		if err != nil {
			s.logger.Warn("receive failed", zap.Error(err))
			s.lost(gen)
			return
		}
		s.dispatch(gen, msg)
	}
}

func (s *Session) dispatch(gen uint64, msg []byte) {
	frame := wire.Decode(msg)
	s.observer.FrameReceived(frame.Kind())

	switch f := frame.(type) {
	case wire.SetupAck:
		s.mu.Lock()
		if !s.stale(gen) && s.State() == StateAwaitingSetupAck {
			s.setState(StateStreaming)
			s.logger.Info("setup acknowledged, streaming")
		}
		s.mu.Unlock()

	case wire.SynthesizedAudio:
		if s.State() != StateStreaming {
			return
		}
		s.mu.Lock()
		in := s.inbound
		s.mu.Unlock()
		if in == nil {
			return
		}
		for _, part := range f.Parts {
			buf, ok := in.Submit(part.Data, part.MIMEType)
			if !ok {
				if part.IsAudio() {
					s.observer.AudioDropped(DropInbound)
				}
				continue
			}
			// Checked under mu so nothing is queued after teardown resets the player.
			s.mu.Lock()
			if s.stale(gen) || s.State() != StateStreaming {
				s.mu.Unlock()
				return
			}
			s.player.Enqueue(buf)
			s.mu.Unlock()
			s.observer.PlaybackQueued(buf)
		}

	case wire.Unrecognized:
		s.logger.Debug("ignoring inbound message", zap.Int("bytes", len(f.Raw)))
	}
}

// lost handles transport failure for generation gen.
func (s *Session) lost(gen uint64) {
	s.mu.Lock()
	if s.stale(gen) {
		s.mu.Unlock()
		return
	}
	s.setState(StateClosing)
	t := s.teardownLocked()
	s.mu.Unlock()

	s.closeTransport(t)
}

// stale reports whether work started for generation gen must stop.
func (s *Session) stale(gen uint64) bool {
	return s.disconnecting.Load() || s.gen.Load() != gen
}

// teardownLocked returns the session to Idle and hands back the detached
// transport, which the caller closes once mu is released.
func (s *Session) teardownLocked() Transport {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	t := s.transport
	s.transport = nil
	s.player.Reset()
	s.inbound = nil
	s.connected.Store(false)
	s.setState(StateIdle)
	return t
}

func (s *Session) closeTransport(t Transport) {
	if t == nil {
		return
	}
	if err := t.Close(); err != nil {
		s.logger.Debug("transport close", zap.Error(err))
	}
}

func (s *Session) write(t Transport, msg []byte) error {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()
	return t.Send(msg)
}

func (s *Session) setState(to State) {
	from := State(s.state.Swap(int32(to)))
	if from == to {
		return
	}
	s.logger.Debug("state change", zap.Stringer("from", from), zap.Stringer("to", to))
	s.observer.StateChanged(from, to)
}
