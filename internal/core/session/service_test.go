package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap/zaptest"

	"github.com/steveyiyo/livebridge/internal/core/audio"
	"github.com/steveyiyo/livebridge/internal/core/gemini"
	"github.com/steveyiyo/livebridge/internal/metrics"
	"github.com/steveyiyo/livebridge/internal/repo/memory"
	"github.com/steveyiyo/livebridge/pkg/types"
)

type pipeTransport struct {
	inbox  chan []byte
	closed chan struct{}
	once   sync.Once
}

func (p *pipeTransport) Send([]byte) error {
	select {
	case <-p.closed:
		return errors.New("closed")
	default:
		return nil
	}
}

func (p *pipeTransport) Receive() ([]byte, error) {
	select {
	case m := <-p.inbox:
		return m, nil
	case <-p.closed:
		return nil, errors.New("closed")
	}
}

func (p *pipeTransport) Close() error {
	p.once.Do(func() { close(p.closed) })
	return nil
}

// ackDialer returns transports that acknowledge setup immediately.
type ackDialer struct{}

func (ackDialer) Dial(context.Context, string) (gemini.Transport, error) {
	t := &pipeTransport{inbox: make(chan []byte, 4), closed: make(chan struct{})}
	t.inbox <- []byte(`{"setupComplete":{}}`)
	return t, nil
}

type nullPlayer struct{}

func (nullPlayer) Format() audio.Format  { return audio.SynthesisFormat }
func (nullPlayer) Enqueue(audio.Buffer) {}
func (nullPlayer) Reset()               {}

type eventSink struct {
	mu     sync.Mutex
	events []types.Event
}

func (e *eventSink) Broadcast(v any) {
	e.mu.Lock()
	e.events = append(e.events, v.(types.Event))
	e.mu.Unlock()
}

func (e *eventSink) states() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []string
	for _, ev := range e.events {
		out = append(out, ev.State)
	}
	return out
}

func newTestService(t *testing.T) (*Service, *eventSink, *metrics.Metrics) {
	t.Helper()
	sink := &eventSink{}
	m := metrics.New(prometheus.NewRegistry())
	svc := NewService(memory.NewSessionRepo(), Options{
		Session: gemini.Config{URL: "ws://test", Model: "models/test"},
		Dialer:  ackDialer{},
		Player:  nullPlayer{},
		Metrics: m,
		Events:  sink,
		Logger:  zaptest.NewLogger(t),
	})
	t.Cleanup(svc.Close)
	return svc, sink, m
}

func waitStatus(t *testing.T, svc *Service, state string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for svc.Status().State != state {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s, at %s", state, svc.Status().State)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestConnectReusesLiveSession(t *testing.T) {
	svc, _, _ := newTestService(t)

	first, err := svc.Connect()
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(first.ID, "sess_") {
		t.Errorf("id = %q", first.ID)
	}
	waitStatus(t, svc, "streaming")

	again, err := svc.Connect()
	if err != nil {
		t.Fatal(err)
	}
	if again != first {
		t.Errorf("Connect while live created %s, want %s", again.ID, first.ID)
	}
	if n := len(svc.Repo.List()); n != 1 {
		t.Errorf("records = %d, want 1", n)
	}

	if err := svc.Disconnect(); err != nil {
		t.Fatal(err)
	}
	next, err := svc.Connect()
	if err != nil {
		t.Fatal(err)
	}
	if next.ID == first.ID {
		t.Error("Connect after Disconnect reused the old record")
	}
}

func TestDisconnectWithoutSession(t *testing.T) {
	svc, _, _ := newTestService(t)
	if err := svc.Disconnect(); !errors.Is(err, ErrNoSession) {
		t.Errorf("err = %v, want ErrNoSession", err)
	}
	if st := svc.Status(); st.State != "idle" || st.Connected || st.SessionID != "" {
		t.Errorf("status = %+v", st)
	}
}

func TestSendAudioCountsAndSummary(t *testing.T) {
	svc, sink, m := newTestService(t)

	// No live session yet: nothing to count.
	svc.SendAudio(audio.Buffer{Format: audio.CaptureFormat, Samples: make([]int16, 160)})

	rec, err := svc.Connect()
	if err != nil {
		t.Fatal(err)
	}
	waitStatus(t, svc, "streaming")
	for i := 0; i < 3; i++ {
		svc.SendAudio(audio.Buffer{Format: audio.Mono(48000), Samples: make([]int16, 480)})
	}
	svc.SendAudio(audio.Buffer{Format: audio.Format{SampleRate: 48000, Channels: 6, BitDepth: 16}, Samples: make([]int16, 60)})
	if err := svc.Disconnect(); err != nil {
		t.Fatal(err)
	}

	sum, ok := svc.Summary(rec.ID)
	if !ok {
		t.Fatal("summary missing")
	}
	if sum.ChunksSent != 3 || sum.ChunksDropped != 1 || sum.FramesReceived != 1 || sum.State != "idle" {
		t.Errorf("summary = %+v", sum)
	}
	if _, ok := svc.Summary("sess_missing"); ok {
		t.Error("summary for unknown id")
	}

	if v := testutil.ToFloat64(m.ChunksSent); v != 3 {
		t.Errorf("metric chunks sent = %v", v)
	}

	deadline := time.Now().Add(2 * time.Second)
	want := []string{"connecting", "awaiting_setup_ack", "streaming", "closing", "idle"}
	for len(sink.states()) < len(want) && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	got := sink.states()
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("events = %v, want %v", got, want)
	}
}

func TestConnectRequiresCollaborators(t *testing.T) {
	svc := NewService(memory.NewSessionRepo(), Options{})
	defer svc.Close()
	if _, err := svc.Connect(); err == nil {
		t.Error("Connect succeeded without a dialer")
	}
}
