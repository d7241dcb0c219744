package device

import (
	"bytes"
	"testing"
	"time"

	"github.com/steveyiyo/livebridge/internal/core/audio"
)

func TestQueueFIFO(t *testing.T) {
	q := newPCMQueue()
	q.Write([]byte{1, 2, 3})
	q.Write([]byte{4, 5})

	p := make([]byte, 4)
	n, err := q.Read(p)
	if err != nil || n != 4 || !bytes.Equal(p, []byte{1, 2, 3, 4}) {
		t.Fatalf("Read = %d %v %v", n, p, err)
	}
	if q.Len() != 1 {
		t.Errorf("Len = %d, want 1", q.Len())
	}
}

func TestQueueResetDropsUnread(t *testing.T) {
	q := newPCMQueue()
	q.Write(make([]byte, 100))
	q.Reset()
	if q.Len() != 0 {
		t.Fatalf("Len = %d after Reset", q.Len())
	}
	q.Write([]byte{9})
	p := make([]byte, 8)
	if n, _ := q.Read(p); n != 1 || p[0] != 9 {
		t.Errorf("Read after Reset = %d %v", n, p[:n])
	}
}

func TestQueueReadBlocksUntilWrite(t *testing.T) {
	q := newPCMQueue()
	got := make(chan byte)
	go func() {
		p := make([]byte, 1)
		_, _ = q.Read(p)
		got <- p[0]
	}()

	select {
	case <-got:
		t.Fatal("Read returned on an empty queue")
	case <-time.After(20 * time.Millisecond):
	}
	q.Write([]byte{7})
	select {
	case b := <-got:
		if b != 7 {
			t.Errorf("read %d", b)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Read did not wake up")
	}
}

func TestQueueCloseWakesReaderWithSilence(t *testing.T) {
	q := newPCMQueue()
	done := make(chan []byte)
	go func() {
		p := []byte{1, 1, 1}
		_, _ = q.Read(p)
		done <- p
	}()
	time.Sleep(10 * time.Millisecond)
	q.Close()

	select {
	case p := <-done:
		if !bytes.Equal(p, []byte{0, 0, 0}) {
			t.Errorf("read %v after Close, want silence", p)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Close did not wake the reader")
	}
	q.Write([]byte{1})
	if q.Len() != 0 {
		t.Error("Write after Close was queued")
	}
}

func TestCaptureBuffer(t *testing.T) {
	stereo := audio.Format{SampleRate: 48000, Channels: 2, BitDepth: 16}
	// Three samples plus an odd byte: one full stereo frame survives.
	buf, ok := captureBuffer(stereo, []byte{1, 0, 2, 0, 3, 0, 4})
	if !ok || buf.Frames() != 1 || buf.Samples[0] != 1 || buf.Samples[1] != 2 {
		t.Fatalf("buffer = %+v, %v", buf, ok)
	}
	if buf.Format != stereo {
		t.Errorf("format = %v", buf.Format)
	}

	if _, ok := captureBuffer(stereo, []byte{1, 0}); ok {
		t.Error("partial frame produced a buffer")
	}
}
