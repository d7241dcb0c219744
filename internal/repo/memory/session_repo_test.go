package memory

import (
	"testing"
	"time"
)

func TestSessionRepo(t *testing.T) {
	r := NewSessionRepo()
	now := time.Now()
	b := &Session{ID: "sess_b", CreatedAt: now}
	a := &Session{ID: "sess_a", CreatedAt: now.Add(-time.Minute)}
	r.Save(b)
	r.Save(a)

	got, ok := r.Get("sess_b")
	if !ok || got != b {
		t.Fatalf("Get = %v, %v", got, ok)
	}
	if _, ok := r.Get("sess_missing"); ok {
		t.Error("Get found a missing id")
	}

	list := r.List()
	if len(list) != 2 || list[0].ID != "sess_a" || list[1].ID != "sess_b" {
		t.Errorf("List order = %v", list)
	}
}

func TestSessionState(t *testing.T) {
	s := &Session{ID: "sess_x"}
	if s.State() != "" {
		t.Errorf("zero state = %q", s.State())
	}
	s.SetState("streaming")
	s.ChunksSent.Add(3)
	if s.State() != "streaming" || s.ChunksSent.Load() != 3 {
		t.Errorf("state=%q sent=%d", s.State(), s.ChunksSent.Load())
	}
}
