package session

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/steveyiyo/livebridge/internal/core/audio"
	"github.com/steveyiyo/livebridge/internal/core/gemini"
	"github.com/steveyiyo/livebridge/internal/metrics"
	"github.com/steveyiyo/livebridge/internal/repo/memory"
	"github.com/steveyiyo/livebridge/pkg/types"
)

// ErrNoSession is returned when an operation needs a live session and there is none.
var ErrNoSession = errors.New("session: no live session")

// Broadcaster receives state events. *ws.Hub satisfies it.
type Broadcaster interface {
	Broadcast(v any)
}

type Options struct {
	Session   gemini.Config
	Dialer    gemini.Dialer
	Player    gemini.Player
	Converter audio.Converter
	Metrics   *metrics.Metrics
	Events    Broadcaster
	Logger    *zap.Logger
}

// Service owns the device's single live session.
type Service struct {
	Repo *memory.SessionRepo

	opts   Options
	logger *zap.Logger

	// mu serializes Connect and Disconnect; live is read lock-free from the
	// capture callback.
	mu   sync.Mutex
	live atomic.Pointer[liveSession]

	events chan types.Event
	done   chan struct{}
}

type liveSession struct {
	rec *memory.Session
	s   *gemini.Session
}

func NewService(repo *memory.SessionRepo, opts Options) *Service {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Converter == nil {
		opts.Converter = audio.Linear{}
	}
	svc := &Service{
		Repo:   repo,
		opts:   opts,
		logger: opts.Logger,
		events: make(chan types.Event, 64),
		done:   make(chan struct{}),
	}
	go svc.pump()
	return svc
}

// Connect starts a new session unless one is already live, in which case the
// live one is returned.
func (s *Service) Connect() (*memory.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur := s.live.Load(); cur != nil && cur.s.State() != gemini.StateIdle {
		return cur.rec, nil
	}
	if s.opts.Dialer == nil || s.opts.Player == nil {
		return nil, errors.New("session: dialer and player are required")
	}

	rec := &memory.Session{
		ID:        "sess_" + uuid.NewString(),
		CreatedAt: time.Now(),
		Model:     s.opts.Session.Model,
	}
	rec.SetState(gemini.StateIdle.String())
	s.Repo.Save(rec)

	logger := s.logger.With(zap.String("session_id", rec.ID))
	gs := gemini.NewSession(s.opts.Session, s.opts.Dialer, s.opts.Player,
		gemini.WithConverter(s.opts.Converter),
		gemini.WithLogger(logger),
		gemini.WithObserver(&recorder{svc: s, rec: rec}),
	)
	s.live.Store(&liveSession{rec: rec, s: gs})
	gs.Connect()
	logger.Info("session started", zap.String("model", rec.Model))
	return rec, nil
}

// Disconnect tears down the live session.
func (s *Service) Disconnect() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur := s.live.Load()
	if cur == nil {
		return ErrNoSession
	}
	cur.s.Disconnect()
	return nil
}

// SendAudio forwards one capture buffer to the live session, if any.
func (s *Service) SendAudio(buf audio.Buffer) {
	if cur := s.live.Load(); cur != nil {
		cur.s.SendAudioChunk(buf)
	}
}

func (s *Service) Status() types.StatusResp {
	cur := s.live.Load()
	if cur == nil {
		return types.StatusResp{State: gemini.StateIdle.String()}
	}
	return types.StatusResp{
		SessionID: cur.rec.ID,
		State:     cur.s.State().String(),
		Connected: cur.s.Connected(),
	}
}

func (s *Service) Summary(id string) (types.SummaryResp, bool) {
	sess, ok := s.Repo.Get(id)
	if !ok {
		return types.SummaryResp{}, false
	}
	return types.SummaryResp{
		SessionID:       sess.ID,
		Model:           sess.Model,
		CreatedAt:       sess.CreatedAt.UnixMilli(),
		State:           sess.State(),
		ChunksSent:      sess.ChunksSent.Load(),
		ChunksDropped:   sess.ChunksDropped.Load(),
		FramesReceived:  sess.FramesReceived.Load(),
		FramesIgnored:   sess.FramesIgnored.Load(),
		PlaybackBuffers: sess.PlaybackBuffers.Load(),
		InboundDrops:    sess.InboundDrops.Load(),
	}, true
}

// Close disconnects the live session and stops event delivery.
func (s *Service) Close() {
	_ = s.Disconnect()
	s.mu.Lock()
	defer s.mu.Unlock()
	select {
	case <-s.done:
	default:
		close(s.done)
	}
}

// publish queues ev for subscribers without blocking the caller.
func (s *Service) publish(ev types.Event) {
	if s.opts.Events == nil {
		return
	}
	select {
	case s.events <- ev:
	default:
		s.logger.Warn("event dropped, subscribers too slow", zap.String("state", ev.State))
	}
}

func (s *Service) pump() {
	for {
		select {
		case ev := <-s.events:
			s.opts.Events.Broadcast(ev)
		case <-s.done:
			return
		}
	}
}
