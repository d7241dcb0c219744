package device

import "sync"

// pcmQueue is a FIFO of PCM bytes read by the playback player. Read blocks
// until data arrives or the queue is closed.
type pcmQueue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	buf    []byte
	closed bool
}

func newPCMQueue() *pcmQueue {
	q := &pcmQueue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

func (q *pcmQueue) Write(p []byte) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.buf = append(q.buf, p...)
	q.cond.Signal()
}

// Read implements io.Reader for the player. After Close it returns silence
// until the player is torn down.
func (q *pcmQueue) Read(p []byte) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.buf) == 0 && !q.closed {
		q.cond.Wait()
	}
	if len(q.buf) == 0 {
		clear(p)
		return len(p), nil
	}
	n := copy(p, q.buf)
	q.buf = q.buf[n:]
	return n, nil
}

// Reset drops everything not yet read.
func (q *pcmQueue) Reset() {
	q.mu.Lock()
	q.buf = nil
	q.mu.Unlock()
}

func (q *pcmQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.buf)
}

func (q *pcmQueue) Close() {
	q.mu.Lock()
	q.closed = true
	q.buf = nil
	q.cond.Broadcast()
	q.mu.Unlock()
}
