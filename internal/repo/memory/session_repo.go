package memory

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

type Session struct {
	ID        string
	CreatedAt time.Time
	Model     string

	state atomic.Value // string

	ChunksSent      atomic.Int64
	ChunksDropped   atomic.Int64
	FramesReceived  atomic.Int64
	FramesIgnored   atomic.Int64
	PlaybackBuffers atomic.Int64
	InboundDrops    atomic.Int64
}

func (s *Session) State() string {
	v, _ := s.state.Load().(string)
	return v
}

func (s *Session) SetState(state string) {
	s.state.Store(state)
}

type SessionRepo struct {
	m sync.Map
}

func NewSessionRepo() *SessionRepo {
	return &SessionRepo{}
}

func (r *SessionRepo) Save(s *Session) {
	r.m.Store(s.ID, s)
}

func (r *SessionRepo) Get(id string) (*Session, bool) {
	v, ok := r.m.Load(id)
	if !ok {
		return nil, false
	}
	return v.(*Session), true
}

// List returns every record, oldest first.
func (r *SessionRepo) List() []*Session {
	var out []*Session
	r.m.Range(func(_, v any) bool {
		out = append(out, v.(*Session))
		return true
	})
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}
