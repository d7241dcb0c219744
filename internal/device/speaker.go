package device

import (
	"fmt"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
	"go.uber.org/zap"

	"github.com/steveyiyo/livebridge/internal/core/audio"
)

// Speaker plays mono 16-bit audio at the output device's native rate.
// It implements gemini.Player.
type Speaker struct {
	format audio.Format
	ctx    *oto.Context
	queue  *pcmQueue
	logger *zap.Logger

	mu     sync.Mutex
	player *oto.Player
	closed bool
}

// NewSpeaker opens the output at rate. buffer bounds the device-side latency.
func NewSpeaker(rate int, buffer time.Duration, logger *zap.Logger) (*Speaker, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	format := audio.Mono(rate)
	if err := format.Validate(); err != nil {
		return nil, err
	}
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   rate,
		ChannelCount: format.Channels,
		Format:       oto.FormatSignedInt16LE,
		BufferSize:   buffer,
	})
	if err != nil {
		return nil, fmt.Errorf("open speaker: %w", err)
	}
	<-ready
	logger.Info("speaker ready", zap.Stringer("format", format), zap.Duration("buffer", buffer))
	return &Speaker{format: format, ctx: ctx, queue: newPCMQueue(), logger: logger}, nil
}

func (s *Speaker) Format() audio.Format { return s.format }

// Enqueue appends buf to the playback queue, starting the player on first use.
func (s *Speaker) Enqueue(buf audio.Buffer) {
	if buf.Format != s.format {
		s.logger.Debug("playback format mismatch",
			zap.Stringer("got", buf.Format), zap.Stringer("want", s.format))
		return
	}
	s.queue.Write(audio.EncodeLE(buf.Samples))

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.player == nil && !s.closed {
		s.player = s.ctx.NewPlayer(s.queue)
		s.player.Play()
	}
}

// Reset drops queued audio that the device has not pulled yet.
func (s *Speaker) Reset() {
	s.queue.Reset()
}

func (s *Speaker) Close() error {
	s.queue.Close()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	if s.player != nil {
		err := s.player.Close()
		s.player = nil
		return err
	}
	return nil
}
