package types

type CreateSessionResp struct {
	SessionID string `json:"session_id"`
	State     string `json:"state"`
	EventsURL string `json:"events_url"`
}

type StatusResp struct {
	SessionID string `json:"session_id,omitempty"`
	State     string `json:"state"`
	Connected bool   `json:"connected"`
}

type SummaryResp struct {
	SessionID       string `json:"session_id"`
	Model           string `json:"model"`
	CreatedAt       int64  `json:"created_at"`
	State           string `json:"state"`
	ChunksSent      int64  `json:"chunks_sent"`
	ChunksDropped   int64  `json:"chunks_dropped"`
	FramesReceived  int64  `json:"frames_received"`
	FramesIgnored   int64  `json:"frames_ignored"`
	PlaybackBuffers int64  `json:"playback_buffers"`
	InboundDrops    int64  `json:"inbound_drops"`
}

// Event is pushed to /v1/events subscribers.
type Event struct {
	T         int64  `json:"t"`
	Type      string `json:"type"`
	SessionID string `json:"session_id,omitempty"`
	From      string `json:"from,omitempty"`
	State     string `json:"state"`
}

type ErrorResp struct {
	Error string `json:"error"`
}
