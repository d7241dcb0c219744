package gemini

import (
	"github.com/steveyiyo/livebridge/internal/core/audio"
	"github.com/steveyiyo/livebridge/internal/core/wire"
)

// Player is the playback device a Session writes synthesized speech to.
type Player interface {
	// Format is the device's native output format.
	Format() audio.Format
	// Enqueue schedules buf after everything already queued.
	Enqueue(buf audio.Buffer)
	// Reset discards queued audio that has not started playing.
	Reset()
}

// Drop stages reported to Observer.AudioDropped.
const (
	DropNotStreaming = "not_streaming"
	DropOutbound     = "outbound_conversion"
	DropInbound      = "inbound_decode"
	DropSend         = "send"
)

// Observer receives session events. Methods are called synchronously from the
// capture callback and the receive loop and must not call back into the Session.
type Observer interface {
	StateChanged(from, to State)
	ChunkSent()
	AudioDropped(stage string)
	FrameReceived(kind wire.Kind)
	PlaybackQueued(buf audio.Buffer)
}

type nopObserver struct{}

func (nopObserver) StateChanged(State, State)   {}
func (nopObserver) ChunkSent()                  {}
func (nopObserver) AudioDropped(string)         {}
func (nopObserver) FrameReceived(wire.Kind)     {}
func (nopObserver) PlaybackQueued(audio.Buffer) {}
