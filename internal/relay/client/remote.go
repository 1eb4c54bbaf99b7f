package client

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"shadowbar/internal/domain"
)

// DefaultTimeout bounds a Send when the caller supplies no deadline of its
// own. Connect never waits indefinitely.
const DefaultTimeout = 30 * time.Second

type connectOptions struct {
	timeout time.Duration
	from    domain.Address
}

type ConnectOption func(*connectOptions)

// WithTimeout overrides the per-request default deadline.
func WithTimeout(d time.Duration) ConnectOption {
	return func(o *connectOptions) { o.timeout = d }
}

// WithFrom stamps outgoing requests with the caller's own address.
func WithFrom(addr domain.Address) ConnectOption {
	return func(o *connectOptions) { o.from = addr }
}

// RemoteAgent is a callable proxy for one remote address. It holds no direct
// network reference to the agent — only to the relay.
type RemoteAgent struct {
	address  domain.Address
	relayURL string
	opts     connectOptions

	mu   sync.Mutex // guards conn
	conn *inputConn
}

// Connect returns a proxy for the agent at address. No traffic flows until
// the first Send.
func Connect(address domain.Address, relayURL string, opts ...ConnectOption) (*RemoteAgent, error) {
	if !address.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrBadAddress, address)
	}
	o := connectOptions{timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(&o)
	}
	return &RemoteAgent{address: address, relayURL: relayURL, opts: o}, nil
}

// Address returns the remote agent's address.
func (a *RemoteAgent) Address() domain.Address { return a.address }

// Send ships payload and blocks until the response arrives or the default
// timeout fires.
func (a *RemoteAgent) Send(payload string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), a.opts.timeout)
	defer cancel()
	return a.SendContext(ctx, payload)
}

// SendContext is the suspending variant: it honors the caller's context for
// cancellation and deadline. When the context carries no deadline the default
// timeout still applies.
func (a *RemoteAgent) SendContext(ctx context.Context, payload string) (string, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.opts.timeout)
		defer cancel()
	}

	conn, err := a.inputConn(ctx)
	if err != nil {
		return "", err
	}

	requestID := uuid.NewString()
	wait := conn.addWaiter(requestID)
	defer conn.dropWaiter(requestID)

	err = conn.send(domain.Envelope{
		Kind:      domain.KindInput,
		From:      a.opts.from,
		To:        a.address,
		RequestID: requestID,
		Payload:   payload,
	})
	if err != nil {
		a.discard(conn)
		return "", err
	}

	select {
	case env := <-wait:
		if env.Kind == domain.KindError {
			return "", fmt.Errorf("%w: %s", domain.ReasonError(env.Reason), env.Detail)
		}
		return env.Payload, nil
	case <-conn.done:
		a.discard(conn)
		return "", fmt.Errorf("relay connection lost: %w", domain.ErrTimeout)
	case <-ctx.Done():
		if ctx.Err() == context.DeadlineExceeded {
			return "", fmt.Errorf("no response within deadline: %w", domain.ErrTimeout)
		}
		return "", ctx.Err()
	}
}

// Close tears down the input socket, failing any in-flight calls.
func (a *RemoteAgent) Close() {
	a.mu.Lock()
	conn := a.conn
	a.conn = nil
	a.mu.Unlock()
	if conn != nil {
		conn.close()
	}
}

// inputConn returns the live shared socket, dialing one if needed.
func (a *RemoteAgent) inputConn(ctx context.Context) (*inputConn, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.conn != nil {
		select {
		case <-a.conn.done:
			a.conn = nil // dead, redial below
		default:
			return a.conn, nil
		}
	}

	ws, _, err := websocket.DefaultDialer.DialContext(ctx, inputURL(a.relayURL), nil)
	if err != nil {
		return nil, err
	}
	a.conn = newInputConn(ws)
	return a.conn, nil
}

func (a *RemoteAgent) discard(c *inputConn) {
	c.close()
	a.mu.Lock()
	if a.conn == c {
		a.conn = nil
	}
	a.mu.Unlock()
}

// inputConn multiplexes concurrent requests over one input socket. A reader
// goroutine dispatches each terminal envelope to the waiter registered under
// its request id; envelopes without a waiter are dropped.
type inputConn struct {
	*conn

	mu      sync.Mutex
	waiters map[string]chan domain.Envelope
}

func newInputConn(ws *websocket.Conn) *inputConn {
	c := &inputConn{conn: newConn(ws), waiters: make(map[string]chan domain.Envelope)}
	go c.readLoop()
	return c
}

func (c *inputConn) readLoop() {
	defer c.close()
	for {
		env, err := c.read()
		if err != nil {
			return
		}
		if !env.Terminal() {
			continue
		}
		c.mu.Lock()
		wait, ok := c.waiters[env.RequestID]
		if ok {
			delete(c.waiters, env.RequestID)
		}
		c.mu.Unlock()
		if ok {
			wait <- env // buffered; never blocks
		}
	}
}

func (c *inputConn) addWaiter(requestID string) <-chan domain.Envelope {
	ch := make(chan domain.Envelope, 1)
	c.mu.Lock()
	c.waiters[requestID] = ch
	c.mu.Unlock()
	return ch
}

func (c *inputConn) dropWaiter(requestID string) {
	c.mu.Lock()
	delete(c.waiters, requestID)
	c.mu.Unlock()
}
