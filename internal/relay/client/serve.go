package client

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"

	"shadowbar/internal/crypto"
	"shadowbar/internal/domain"
	"shadowbar/internal/logging"
	"shadowbar/internal/protocol/wire"
)

// Handler produces the response payload for one request. It runs serialized:
// the serve loop processes INPUTs in arrival order, one at a time.
type Handler func(ctx context.Context, from domain.Address, payload string) (string, error)

// TrustGate decides whether a request from the given address may reach the
// handler at all.
type TrustGate func(from domain.Address) bool

type serveOptions struct {
	summary   string
	heartbeat time.Duration
	gate      TrustGate
	maxWait   time.Duration
}

type ServeOption func(*serveOptions)

// WithSummary sets the capability description carried in ANNOUNCE.
func WithSummary(s string) ServeOption { return func(o *serveOptions) { o.summary = s } }

// WithHeartbeat overrides the re-announce interval (default 60s).
func WithHeartbeat(d time.Duration) ServeOption { return func(o *serveOptions) { o.heartbeat = d } }

// WithTrustGate installs a gate consulted before each handler invocation.
// Refused requests yield a HANDLER_FAILURE error to the caller.
func WithTrustGate(g TrustGate) ServeOption { return func(o *serveOptions) { o.gate = g } }

// WithMaxReconnectWait bounds the exponential backoff between reconnect
// attempts (default 30s).
func WithMaxReconnectWait(d time.Duration) ServeOption { return func(o *serveOptions) { o.maxWait = d } }

// Serve announces id on the relay and answers requests until ctx is
// cancelled. It only returns the ctx error; every transport failure is
// retried with backoff and a fresh announce.
func Serve(ctx context.Context, id domain.Identity, relayURL string, handler Handler, opts ...ServeOption) error {
	o := serveOptions{heartbeat: 60 * time.Second, maxWait: 30 * time.Second}
	for _, opt := range opts {
		opt(&o)
	}

	addr := crypto.AddressFromPub(id.Pub)
	log := logging.Log.WithField("address", addr.Short())

	bo := backoff.NewExponentialBackOff()
	bo.MaxInterval = o.maxWait
	bo.MaxElapsedTime = 0 // retry forever; ctx is the only way out

	for {
		// A session that got as far as announcing resets the backoff, so a
		// drop after a long healthy run reconnects promptly.
		err := serveSession(ctx, id, relayURL, handler, o, bo.Reset)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		wait := bo.NextBackOff()
		log.WithError(err).WithField("retry_in", wait).Warn("relay connection lost")
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// serveSession runs one announce connection to completion. onAnnounced fires
// once the ANNOUNCE has been written.
func serveSession(ctx context.Context, id domain.Identity, relayURL string, handler Handler, o serveOptions, onAnnounced func()) error {
	addr := crypto.AddressFromPub(id.Pub)
	log := logging.Log.WithField("address", addr.Short())

	ws, _, err := websocket.DefaultDialer.DialContext(ctx, announceURL(relayURL), nil)
	if err != nil {
		return err
	}
	conn := newConn(ws)
	defer conn.close()

	// Cancel tears the socket down so the read loop unblocks.
	stop := context.AfterFunc(ctx, func() { conn.close() })
	defer stop()

	if err := conn.send(wire.NewAnnounce(id, o.summary)); err != nil {
		return err
	}
	if onAnnounced != nil {
		onAnnounced()
	}
	log.Info("announced to relay")

	heartbeat := time.NewTicker(o.heartbeat)
	defer heartbeat.Stop()
	go func() {
		for {
			select {
			case <-heartbeat.C:
				// Re-signed each time so the timestamp stays fresh.
				if err := conn.send(wire.NewAnnounce(id, o.summary)); err != nil {
					return
				}
			case <-conn.done:
				return
			}
		}
	}()

	for {
		env, err := conn.read()
		if err != nil {
			return err
		}
		switch env.Kind {
		case domain.KindInput:
			respond(ctx, conn, handler, o.gate, addr, env)
		case domain.KindError:
			log.WithField("reason", env.Reason).WithField("detail", env.Detail).Warn("error from relay")
		default:
			log.WithField("kind", env.Kind).Debug("ignoring unexpected envelope")
		}
	}
}

// respond runs the handler for one INPUT and pushes the terminal envelope.
// Handler failures become ERROR envelopes; the caller must never be left to
// its timeout when the agent itself knows the request is dead.
func respond(ctx context.Context, conn *conn, handler Handler, gate TrustGate, self domain.Address, in domain.Envelope) {
	log := logging.Log.WithField("request_id", in.RequestID)

	if gate != nil && !gate(in.From) {
		log.WithField("from", in.From.Short()).Info("request refused by trust gate")
		_ = conn.send(domain.Envelope{
			Kind:      domain.KindError,
			RequestID: in.RequestID,
			From:      self,
			Reason:    domain.ReasonHandlerFailure,
			Detail:    "request refused",
		})
		return
	}

	result, err := handler(ctx, in.From, in.Payload)
	if err != nil {
		log.WithError(err).Warn("handler failed")
		_ = conn.send(domain.Envelope{
			Kind:      domain.KindError,
			RequestID: in.RequestID,
			From:      self,
			Reason:    domain.ReasonHandlerFailure,
			Detail:    err.Error(),
		})
		return
	}
	_ = conn.send(domain.Envelope{
		Kind:      domain.KindOutput,
		RequestID: in.RequestID,
		From:      self,
		Payload:   result,
	})
	log.Debug("response sent")
}

var errConnClosed = errors.New("connection closed")
