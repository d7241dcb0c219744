package gemini

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Maximum inbound message size; synthesized audio arrives in large frames.
	maxMessageSize = 8 << 20
)

// Transport is an open, message-oriented connection to the service. Send may
// be called concurrently with Receive; Close unblocks a pending Receive.
type Transport interface {
	Send(msg []byte) error
	Receive() ([]byte, error)
	Close() error
}

// Dialer opens a Transport. A nil error means the connection is open.
type Dialer interface {
	Dial(ctx context.Context, rawURL string) (Transport, error)
}

// LiveURL appends the credential to endpoint as the "key" query parameter.
func LiveURL(endpoint, apiKey string) (string, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("key", apiKey)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// WebsocketDialer dials the service over a websocket.
type WebsocketDialer struct {
	HandshakeTimeout time.Duration
	Subprotocol      string
}

// Dial implements Dialer.
func (d WebsocketDialer) Dial(ctx context.Context, rawURL string) (Transport, error) {
	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: d.HandshakeTimeout,
	}
	if d.Subprotocol != "" {
		dialer.Subprotocols = []string{d.Subprotocol}
	}
	conn, _, err := dialer.DialContext(ctx, rawURL, nil)
	if err != nil {
		return nil, err
	}
	conn.SetReadLimit(maxMessageSize)
	return &wsTransport{conn: conn}, nil
}

type wsTransport struct {
	conn *websocket.Conn
}

func (t *wsTransport) Send(msg []byte) error {
	t.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return t.conn.WriteMessage(websocket.TextMessage, msg)
}

// Receive returns the payload of the next text or binary message.
func (t *wsTransport) Receive() ([]byte, error) {
	for {
		mt, msg, err := t.conn.ReadMessage()
		if err != nil {
			return nil, err
		}
		if mt == websocket.TextMessage || mt == websocket.BinaryMessage {
			return msg, nil
		}
	}
}

// Close sends a close frame on a best-effort basis and drops the connection.
func (t *wsTransport) Close() error {
	_ = t.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	return t.conn.Close()
}
