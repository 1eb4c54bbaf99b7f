package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"shadowbar/internal/domain"
	"shadowbar/internal/logging"
	"shadowbar/internal/protocol/wire"
)

// readEnvelope blocks for the next envelope on ws. Decode failures come back
// wrapping domain.ErrMalformedEnvelope; anything else is a transport error.
func readEnvelope(ws *websocket.Conn) (domain.Envelope, error) {
	_, data, err := ws.ReadMessage()
	if err != nil {
		return domain.Envelope{}, err
	}
	return wire.Decode(data)
}

func errEnvelope(requestID string, reason domain.Reason, detail string) domain.Envelope {
	return domain.Envelope{
		Kind:      domain.KindError,
		RequestID: requestID,
		Reason:    reason,
		Detail:    detail,
	}
}

// violation reports a protocol error to the peer and closes its channel.
// Fatal to this socket only; registry and pending state are untouched here.
func violation(ch Channel, requestID, detail string) {
	_ = ch.Send(errEnvelope(requestID, domain.ReasonProtocolViolation, detail))
	_ = ch.Close()
}

func (s *Server) upgrade(w http.ResponseWriter, r *http.Request) (*websocket.Conn, bool) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Log.WithError(err).Debug("websocket upgrade failed")
		return nil, false
	}
	ws.SetReadLimit(wsMaxEnvelope)
	_ = ws.SetReadDeadline(time.Now().Add(wsPongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	return ws, true
}

// handleAnnounce serves one agent socket: Connecting → Authenticated(address)
// → Active → Closed.
func (s *Server) handleAnnounce(w http.ResponseWriter, r *http.Request) {
	ws, ok := s.upgrade(w, r)
	if !ok {
		return
	}
	ch := newWSChannel(ws)
	defer ch.Close()

	// The first envelope authenticates the socket. Anything else is fatal.
	first, err := readEnvelope(ws)
	if err != nil {
		if errors.Is(err, domain.ErrMalformedEnvelope) {
			violation(ch, "", err.Error())
		}
		return
	}
	if first.Kind != domain.KindAnnounce {
		violation(ch, "", "announce socket expects ANNOUNCE first")
		return
	}
	if !first.From.Valid() {
		violation(ch, "", "malformed address")
		return
	}
	if !wire.VerifyAnnounce(first) {
		_ = ch.Send(errEnvelope("", domain.ReasonBadSignature, "announce signature invalid"))
		_ = ch.Close()
		return
	}

	addr := first.From
	s.registry.Register(addr, ch, first.Summary)
	defer s.registry.Unregister(addr, ch)
	log := logging.Log.WithField("address", addr.Short())
	log.Info("agent registered")
	defer log.Info("agent disconnected")

	for {
		env, err := readEnvelope(ws)
		if err != nil {
			if errors.Is(err, domain.ErrMalformedEnvelope) {
				violation(ch, "", err.Error())
			}
			return
		}
		switch env.Kind {
		case domain.KindAnnounce:
			// Heartbeat re-announce. Must still be this agent's own claims.
			if env.From != addr || !wire.VerifyAnnounce(env) {
				violation(ch, "", "heartbeat announce rejected")
				return
			}
			s.registry.Heartbeat(addr, ch, env.Summary)
		case domain.KindOutput, domain.KindError:
			if !s.pending.Resolve(env.RequestID, env) {
				// Late or duplicate terminal; the waiter is gone. Not fatal.
				log.WithField("request_id", env.RequestID).Debug("dropping unmatched terminal envelope")
			}
		default:
			violation(ch, "", "unexpected "+string(env.Kind)+" on announce socket")
			return
		}
	}
}

// handleInput serves one caller socket. A socket may carry many sequential
// INPUTs, and several may be in flight at once, distinguished by request id.
func (s *Server) handleInput(w http.ResponseWriter, r *http.Request) {
	ws, ok := s.upgrade(w, r)
	if !ok {
		return
	}
	ch := newWSChannel(ws)
	defer ch.Close()

	for {
		env, err := readEnvelope(ws)
		if err != nil {
			if errors.Is(err, domain.ErrMalformedEnvelope) {
				violation(ch, "", err.Error())
			}
			return
		}
		if env.Kind != domain.KindInput {
			violation(ch, env.RequestID, "input socket expects INPUT")
			return
		}
		s.routeInput(env, ch)
	}
}

// routeInput forwards one INPUT to its target, or answers immediately when
// the target is unreachable. The terminal envelope travels back through the
// pending table, not through any return value here.
func (s *Server) routeInput(env domain.Envelope, caller Channel) {
	log := logging.Log.WithField("request_id", env.RequestID).WithField("to", env.To.Short())

	target, online := s.registry.Lookup(env.To)
	if !env.To.Valid() || !online {
		log.Debug("input for offline address")
		_ = caller.Send(errEnvelope(env.RequestID, domain.ReasonAddressOffline, "agent not registered"))
		return
	}
	if err := s.pending.Add(env.RequestID, caller, s.cfg.RequestTimeout); err != nil {
		_ = caller.Send(errEnvelope(env.RequestID, domain.ReasonProtocolViolation, err.Error()))
		return
	}
	if err := target.Send(env); err != nil {
		// The agent vanished between lookup and forward.
		s.pending.Remove(env.RequestID)
		_ = caller.Send(errEnvelope(env.RequestID, domain.ReasonAddressOffline, "agent connection lost"))
		return
	}
	log.Debug("input forwarded")
}

// handleLookup answers reachability queries. Stateless: one round trip per
// envelope, no registry entry, no correlation.
func (s *Server) handleLookup(w http.ResponseWriter, r *http.Request) {
	ws, ok := s.upgrade(w, r)
	if !ok {
		return
	}
	ch := newWSChannel(ws)
	defer ch.Close()

	for {
		env, err := readEnvelope(ws)
		if err != nil {
			if errors.Is(err, domain.ErrMalformedEnvelope) {
				violation(ch, "", err.Error())
			}
			return
		}
		if env.Kind != domain.KindLookup {
			violation(ch, "", "lookup socket expects LOOKUP")
			return
		}
		_, online := s.registry.Lookup(env.To)
		_ = ch.Send(domain.Envelope{
			Kind:   domain.KindLookupResult,
			To:     env.To,
			Online: online,
		})
	}
}
