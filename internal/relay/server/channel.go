package server

import (
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"shadowbar/internal/domain"
)

const (
	wsWriteTimeout = 10 * time.Second
	wsPingInterval = 30 * time.Second
	wsPongWait     = 60 * time.Second
	wsMaxEnvelope  = 1 << 20
	channelBacklog = 16
)

// ErrChannelClosed is returned by Send once the peer socket is gone.
var ErrChannelClosed = errors.New("channel closed")

// Channel is a handle allowing the router to push envelopes to one socket.
type Channel interface {
	Send(domain.Envelope) error
	Close() error
}

// wsChannel funnels all writes to a websocket through one goroutine, since
// gorilla connections support a single concurrent writer. It also keeps the
// transport alive with pings.
type wsChannel struct {
	ws   *websocket.Conn
	out  chan domain.Envelope
	quit chan struct{}
	once sync.Once
}

func newWSChannel(ws *websocket.Conn) *wsChannel {
	c := &wsChannel{
		ws:   ws,
		out:  make(chan domain.Envelope, channelBacklog),
		quit: make(chan struct{}),
	}
	go c.writeLoop()
	return c
}

func (c *wsChannel) writeLoop() {
	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()
	defer c.ws.Close()

	for {
		select {
		case env := <-c.out:
			if c.write(env) != nil {
				c.Close()
				return
			}
		case <-ticker.C:
			deadline := time.Now().Add(wsWriteTimeout)
			if c.ws.WriteControl(websocket.PingMessage, nil, deadline) != nil {
				c.Close()
				return
			}
		case <-c.quit:
			// Drain whatever was queued before the close, so a final
			// ERROR still reaches the peer.
			for {
				select {
				case env := <-c.out:
					if c.write(env) != nil {
						return
					}
				default:
					deadline := time.Now().Add(wsWriteTimeout)
					_ = c.ws.WriteControl(websocket.CloseMessage,
						websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
					return
				}
			}
		}
	}
}

func (c *wsChannel) write(env domain.Envelope) error {
	_ = c.ws.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return c.ws.WriteJSON(env)
}

func (c *wsChannel) Send(env domain.Envelope) error {
	select {
	case <-c.quit:
		return ErrChannelClosed
	default:
	}
	select {
	case c.out <- env:
		return nil
	case <-c.quit:
		return ErrChannelClosed
	}
}

func (c *wsChannel) Close() error {
	c.once.Do(func() { close(c.quit) })
	return nil
}
