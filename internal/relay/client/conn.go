package client

import (
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"shadowbar/internal/domain"
	"shadowbar/internal/protocol/wire"
)

const (
	writeTimeout = 10 * time.Second
	// readIdle must exceed the relay's ping interval; the deadline is
	// refreshed on every ping and every envelope.
	readIdle    = 90 * time.Second
	maxEnvelope = 1 << 20
)

// conn wraps one websocket with a write lock and idempotent close. gorilla
// connections allow one concurrent reader and one concurrent writer; the
// serve loop and heartbeat goroutine share the writer side.
type conn struct {
	ws      *websocket.Conn
	writeMu sync.Mutex
	done    chan struct{}
	once    sync.Once
}

func newConn(ws *websocket.Conn) *conn {
	c := &conn{ws: ws, done: make(chan struct{})}
	ws.SetReadLimit(maxEnvelope)
	_ = ws.SetReadDeadline(time.Now().Add(readIdle))
	ws.SetPingHandler(func(payload string) error {
		_ = ws.SetReadDeadline(time.Now().Add(readIdle))
		deadline := time.Now().Add(writeTimeout)
		return ws.WriteControl(websocket.PongMessage, []byte(payload), deadline)
	})
	return c
}

func (c *conn) read() (domain.Envelope, error) {
	_, data, err := c.ws.ReadMessage()
	if err != nil {
		return domain.Envelope{}, err
	}
	_ = c.ws.SetReadDeadline(time.Now().Add(readIdle))
	return wire.Decode(data)
}

func (c *conn) send(env domain.Envelope) error {
	b, err := wire.Encode(env)
	if err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	select {
	case <-c.done:
		return errConnClosed
	default:
	}
	_ = c.ws.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.ws.WriteMessage(websocket.TextMessage, b)
}

func (c *conn) close() {
	c.once.Do(func() {
		close(c.done)
		_ = c.ws.Close()
	})
}

// baseURL strips any endpoint path off a configured relay URL, so both
// "ws://host:8000" and "ws://host:8000/ws/announce" work.
func baseURL(relayURL string) string {
	relayURL = strings.TrimSuffix(relayURL, "/")
	for _, suffix := range []string{"/ws/announce", "/ws/input", "/ws/lookup"} {
		relayURL = strings.TrimSuffix(relayURL, suffix)
	}
	return relayURL
}

func announceURL(relayURL string) string { return baseURL(relayURL) + "/ws/announce" }
func inputURL(relayURL string) string    { return baseURL(relayURL) + "/ws/input" }
func lookupURL(relayURL string) string   { return baseURL(relayURL) + "/ws/lookup" }

// httpURL converts the relay's websocket base to its HTTP introspection base.
func httpURL(relayURL string) string {
	base := baseURL(relayURL)
	switch {
	case strings.HasPrefix(base, "wss://"):
		return "https://" + strings.TrimPrefix(base, "wss://")
	case strings.HasPrefix(base, "ws://"):
		return "http://" + strings.TrimPrefix(base, "ws://")
	default:
		return base
	}
}
