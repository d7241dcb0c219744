package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/steveyiyo/livebridge/internal/core/audio"
	"github.com/steveyiyo/livebridge/internal/core/gemini"
	"github.com/steveyiyo/livebridge/internal/core/wire"
)

// Metrics contains the Prometheus metrics for the bridge engine.
// It implements gemini.Observer.
type Metrics struct {
	// Outbound audio
	ChunksSent    prometheus.Counter
	ChunksDropped prometheus.Counter
	Drops         *prometheus.CounterVec

	// Inbound frames and playback
	FramesReceived  *prometheus.CounterVec
	PlaybackBuffers prometheus.Counter
	PlaybackSeconds prometheus.Histogram

	// Session lifecycle
	StateTransitions *prometheus.CounterVec
	Connected        prometheus.Gauge
}

// New creates the metrics and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		ChunksSent: f.NewCounter(prometheus.CounterOpts{
			Name: "livebridge_audio_chunks_sent_total",
			Help: "Total number of capture chunks written to the live socket",
		}),
		ChunksDropped: f.NewCounter(prometheus.CounterOpts{
			Name: "livebridge_audio_chunks_dropped_total",
			Help: "Total number of capture chunks that were not sent",
		}),
		Drops: f.NewCounterVec(prometheus.CounterOpts{
			Name: "livebridge_audio_drops_total",
			Help: "Dropped audio by pipeline stage",
		}, []string{"stage"}),

		FramesReceived: f.NewCounterVec(prometheus.CounterOpts{
			Name: "livebridge_frames_received_total",
			Help: "Inbound frames by decoded kind",
		}, []string{"kind"}),
		PlaybackBuffers: f.NewCounter(prometheus.CounterOpts{
			Name: "livebridge_playback_buffers_total",
			Help: "Total number of synthesized buffers queued for playback",
		}),
		PlaybackSeconds: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "livebridge_playback_buffer_seconds",
			Help:    "Duration of synthesized buffers queued for playback",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 10), // 10ms to ~5s
		}),

		StateTransitions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "livebridge_state_transitions_total",
			Help: "Session state transitions by target state",
		}, []string{"state"}),
		Connected: f.NewGauge(prometheus.GaugeOpts{
			Name: "livebridge_connected",
			Help: "1 while the live socket is open",
		}),
	}
}

func (m *Metrics) StateChanged(_, to gemini.State) {
	m.StateTransitions.WithLabelValues(to.String()).Inc()
	switch to {
	case gemini.StateAwaitingSetupAck, gemini.StateStreaming:
		m.Connected.Set(1)
	case gemini.StateIdle:
		m.Connected.Set(0)
	}
}

func (m *Metrics) ChunkSent() { m.ChunksSent.Inc() }

func (m *Metrics) AudioDropped(stage string) {
	m.Drops.WithLabelValues(stage).Inc()
	if stage != gemini.DropInbound {
		m.ChunksDropped.Inc()
	}
}

func (m *Metrics) FrameReceived(kind wire.Kind) {
	m.FramesReceived.WithLabelValues(string(kind)).Inc()
}

func (m *Metrics) PlaybackQueued(buf audio.Buffer) {
	m.PlaybackBuffers.Inc()
	if buf.Format.SampleRate > 0 {
		d := time.Duration(buf.Frames()) * time.Second / time.Duration(buf.Format.SampleRate)
		m.PlaybackSeconds.Observe(d.Seconds())
	}
}
