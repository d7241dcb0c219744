package session

import (
	"time"

	"github.com/steveyiyo/livebridge/internal/core/audio"
	"github.com/steveyiyo/livebridge/internal/core/gemini"
	"github.com/steveyiyo/livebridge/internal/core/wire"
	"github.com/steveyiyo/livebridge/internal/repo/memory"
	"github.com/steveyiyo/livebridge/pkg/types"
)

// recorder fans session events out to the record, metrics and subscribers.
type recorder struct {
	svc *Service
	rec *memory.Session
}

func (r *recorder) StateChanged(from, to gemini.State) {
	r.rec.SetState(to.String())
	if m := r.svc.opts.Metrics; m != nil {
		m.StateChanged(from, to)
	}
	r.svc.publish(types.Event{
		T:         time.Now().UnixMilli(),
		Type:      "state",
		SessionID: r.rec.ID,
		From:      from.String(),
		State:     to.String(),
	})
}

func (r *recorder) ChunkSent() {
	r.rec.ChunksSent.Add(1)
	if m := r.svc.opts.Metrics; m != nil {
		m.ChunkSent()
	}
}

func (r *recorder) AudioDropped(stage string) {
	if stage == gemini.DropInbound {
		r.rec.InboundDrops.Add(1)
	} else {
		r.rec.ChunksDropped.Add(1)
	}
	if m := r.svc.opts.Metrics; m != nil {
		m.AudioDropped(stage)
	}
}

func (r *recorder) FrameReceived(kind wire.Kind) {
	r.rec.FramesReceived.Add(1)
	if kind == wire.KindUnrecognized {
		r.rec.FramesIgnored.Add(1)
	}
	if m := r.svc.opts.Metrics; m != nil {
		m.FrameReceived(kind)
	}
}

func (r *recorder) PlaybackQueued(buf audio.Buffer) {
	r.rec.PlaybackBuffers.Add(1)
	if m := r.svc.opts.Metrics; m != nil {
		m.PlaybackQueued(buf)
	}
}
