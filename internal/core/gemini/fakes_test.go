package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/steveyiyo/livebridge/internal/core/audio"
	"github.com/steveyiyo/livebridge/internal/core/wire"
)

var errTransportClosed = errors.New("transport closed")

type fakeTransport struct {
	inbox     chan []byte
	closed    chan struct{}
	closeOnce sync.Once
	// closeGate, when set, holds Close until it is closed.
	closeGate chan struct{}

	mu      sync.Mutex
	sent    [][]byte
	sendErr error
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		inbox:  make(chan []byte, 16),
		closed: make(chan struct{}),
	}
}

func (t *fakeTransport) Send(msg []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.sendErr != nil {
		return t.sendErr
	}
	select {
	case <-t.closed:
		return errTransportClosed
	default:
	}
	t.sent = append(t.sent, msg)
	return nil
}

func (t *fakeTransport) Receive() ([]byte, error) {
	select {
	case msg := <-t.inbox:
		return msg, nil
	case <-t.closed:
		return nil, errTransportClosed
	}
}

func (t *fakeTransport) Close() error {
	if t.closeGate != nil {
		<-t.closeGate
	}
	t.closeOnce.Do(func() { close(t.closed) })
	return nil
}

func (t *fakeTransport) isClosed() bool {
	select {
	case <-t.closed:
		return true
	default:
		return false
	}
}

func (t *fakeTransport) deliver(msg string) {
	t.inbox <- []byte(msg)
}

func (t *fakeTransport) sentFrames() [][]byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([][]byte, len(t.sent))
	copy(out, t.sent)
	return out
}

type fakeDialer struct {
	// release, when set, holds Dial until it is closed or ctx ends.
	release   chan struct{}
	err       error
	sendErr   error
	closeGate chan struct{}

	mu         sync.Mutex
	urls       []string
	transports []*fakeTransport
}

func (d *fakeDialer) Dial(ctx context.Context, rawURL string) (Transport, error) {
	d.mu.Lock()
	d.urls = append(d.urls, rawURL)
	release := d.release
	d.mu.Unlock()

	if release != nil {
		select {
		case <-release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if d.err != nil {
		return nil, d.err
	}
	t := newFakeTransport()
	t.sendErr = d.sendErr
	t.closeGate = d.closeGate
	d.mu.Lock()
	d.transports = append(d.transports, t)
	d.mu.Unlock()
	return t, nil
}

func (d *fakeDialer) dials() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.urls)
}

func (d *fakeDialer) transport(t *testing.T, i int) *fakeTransport {
	t.Helper()
	var tr *fakeTransport
	waitFor(t, "transport dialed", func() bool {
		d.mu.Lock()
		defer d.mu.Unlock()
		if len(d.transports) > i {
			tr = d.transports[i]
			return true
		}
		return false
	})
	return tr
}

type fakePlayer struct {
	format audio.Format

	mu     sync.Mutex
	queued []audio.Buffer
	resets int
	// log records "enqueue" and "reset" calls in order.
	log []string
}

func (p *fakePlayer) Format() audio.Format { return p.format }

func (p *fakePlayer) Enqueue(buf audio.Buffer) {
	p.mu.Lock()
	p.queued = append(p.queued, buf)
	p.log = append(p.log, "enqueue")
	p.mu.Unlock()
}

func (p *fakePlayer) Reset() {
	p.mu.Lock()
	p.resets++
	p.log = append(p.log, "reset")
	p.mu.Unlock()
}

func (p *fakePlayer) buffers() []audio.Buffer {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]audio.Buffer(nil), p.queued...)
}

func (p *fakePlayer) calls() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.log...)
}

func (p *fakePlayer) resetCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.resets
}

type recordingObserver struct {
	mu          sync.Mutex
	transitions []State
	sent        int
	drops       map[string]int
	frames      int
}

func newRecordingObserver() *recordingObserver {
	return &recordingObserver{drops: map[string]int{}}
}

func (o *recordingObserver) StateChanged(_, to State) {
	o.mu.Lock()
	o.transitions = append(o.transitions, to)
	o.mu.Unlock()
}

func (o *recordingObserver) ChunkSent() {
	o.mu.Lock()
	o.sent++
	o.mu.Unlock()
}

func (o *recordingObserver) AudioDropped(stage string) {
	o.mu.Lock()
	o.drops[stage]++
	o.mu.Unlock()
}

func (o *recordingObserver) FrameReceived(wire.Kind) {
	o.mu.Lock()
	o.frames++
	o.mu.Unlock()
}

func (o *recordingObserver) PlaybackQueued(audio.Buffer) {}

func (o *recordingObserver) frameCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.frames
}

func (o *recordingObserver) count(to State) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	n := 0
	for _, s := range o.transitions {
		if s == to {
			n++
		}
	}
	return n
}

func (o *recordingObserver) dropCount(stage string) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.drops[stage]
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}

func waitState(t *testing.T, s *Session, want State) {
	t.Helper()
	waitFor(t, "state "+want.String(), func() bool { return s.State() == want })
}

// decodeAudioChunk extracts the single media chunk of an outbound realtime_input frame.
func decodeAudioChunk(t *testing.T, msg []byte) (data, mime string) {
	t.Helper()
	var f struct {
		RealtimeInput struct {
			MediaChunks []struct {
				Data     string `json:"data"`
				MimeType string `json:"mime_type"`
			} `json:"media_chunks"`
		} `json:"realtime_input"`
	}
	if err := json.Unmarshal(msg, &f); err != nil {
		t.Fatalf("unmarshal %s: %v", msg, err)
	}
	if len(f.RealtimeInput.MediaChunks) != 1 {
		t.Fatalf("frame %s has %d media chunks", msg, len(f.RealtimeInput.MediaChunks))
	}
	c := f.RealtimeInput.MediaChunks[0]
	return c.Data, c.MimeType
}
