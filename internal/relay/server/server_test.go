package server_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"shadowbar/internal/crypto"
	"shadowbar/internal/domain"
	"shadowbar/internal/protocol/wire"
	"shadowbar/internal/relay/server"
)

// testRelay starts a relay with short sweep intervals behind httptest.
func testRelay(t *testing.T, cfg server.Config) (*server.Server, string) {
	t.Helper()
	if cfg.SweepInterval == 0 {
		cfg.SweepInterval = 20 * time.Millisecond
	}
	s := server.New(cfg)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		ts.Close()
		s.Close()
	})
	return s, "ws" + strings.TrimPrefix(ts.URL, "http")
}

func dial(t *testing.T, base, path string) *websocket.Conn {
	t.Helper()
	ws, _, err := websocket.DefaultDialer.Dial(base+path, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", path, err)
	}
	t.Cleanup(func() { ws.Close() })
	return ws
}

func send(t *testing.T, ws *websocket.Conn, env domain.Envelope) {
	t.Helper()
	b, err := wire.Encode(env)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if err := ws.WriteMessage(websocket.TextMessage, b); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func recv(t *testing.T, ws *websocket.Conn, within time.Duration) domain.Envelope {
	t.Helper()
	_ = ws.SetReadDeadline(time.Now().Add(within))
	_, data, err := ws.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	env, err := wire.Decode(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	return env
}

// announce registers a fresh identity and returns its address and socket.
func announce(t *testing.T, base string) (domain.Identity, domain.Address, *websocket.Conn) {
	t.Helper()
	id, err := crypto.GenerateEd25519()
	if err != nil {
		t.Fatalf("GenerateEd25519: %v", err)
	}
	ws := dial(t, base, "/ws/announce")
	send(t, ws, wire.NewAnnounce(id, "test agent"))
	waitOnline(t, base, crypto.AddressFromPub(id.Pub), true)
	return id, crypto.AddressFromPub(id.Pub), ws
}

// waitOnline polls the lookup endpoint until the address reaches the wanted
// reachability state.
func waitOnline(t *testing.T, base string, addr domain.Address, want bool) {
	t.Helper()
	ws := dial(t, base, "/ws/lookup")
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		send(t, ws, domain.Envelope{Kind: domain.KindLookup, To: addr})
		res := recv(t, ws, time.Second)
		if res.Kind == domain.KindLookupResult && res.Online == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("address %s never became online=%v", addr.Short(), want)
}

func TestRoundTrip_EchoAgent(t *testing.T) {
	_, base := testRelay(t, server.Config{})
	_, addr, agentWS := announce(t, base)

	// Echo agent: reply to each INPUT with an OUTPUT carrying the same
	// payload and request id.
	go func() {
		for {
			_, data, err := agentWS.ReadMessage()
			if err != nil {
				return
			}
			in, err := wire.Decode(data)
			if err != nil || in.Kind != domain.KindInput {
				continue
			}
			out, _ := wire.Encode(domain.Envelope{
				Kind:      domain.KindOutput,
				RequestID: in.RequestID,
				Payload:   in.Payload,
			})
			if agentWS.WriteMessage(websocket.TextMessage, out) != nil {
				return
			}
		}
	}()

	caller := dial(t, base, "/ws/input")
	send(t, caller, domain.Envelope{
		Kind:      domain.KindInput,
		To:        addr,
		RequestID: "r-echo",
		Payload:   "ping",
	})

	res := recv(t, caller, 3*time.Second)
	if res.Kind != domain.KindOutput {
		t.Fatalf("got %s (%s), want OUTPUT", res.Kind, res.Reason)
	}
	if res.RequestID != "r-echo" || res.Payload != "ping" {
		t.Fatalf("bad correlation: %+v", res)
	}
}

func TestOfflineAddress_FailsImmediately(t *testing.T) {
	_, base := testRelay(t, server.Config{RequestTimeout: time.Minute})

	caller := dial(t, base, "/ws/input")
	start := time.Now()
	send(t, caller, domain.Envelope{
		Kind:      domain.KindInput,
		To:        domain.Address("0x" + strings.Repeat("d", 64)),
		RequestID: "r-dead",
		Payload:   "anyone there?",
	})

	res := recv(t, caller, 3*time.Second)
	if res.Kind != domain.KindError || res.Reason != domain.ReasonAddressOffline {
		t.Fatalf("got %+v, want ERROR/ADDRESS_OFFLINE", res)
	}
	if res.RequestID != "r-dead" {
		t.Fatalf("error carries id %q, want r-dead", res.RequestID)
	}
	// Sub-timeout latency: the configured minute must play no part.
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("offline answer took %v", elapsed)
	}
}

func TestDuplicateTerminal_IsDropped(t *testing.T) {
	_, base := testRelay(t, server.Config{})
	_, addr, agentWS := announce(t, base)

	// Answer every INPUT twice with the same request id.
	go func() {
		for {
			_, data, err := agentWS.ReadMessage()
			if err != nil {
				return
			}
			in, err := wire.Decode(data)
			if err != nil || in.Kind != domain.KindInput {
				continue
			}
			out, _ := wire.Encode(domain.Envelope{
				Kind:      domain.KindOutput,
				RequestID: in.RequestID,
				Payload:   "pong",
			})
			_ = agentWS.WriteMessage(websocket.TextMessage, out)
			_ = agentWS.WriteMessage(websocket.TextMessage, out)
		}
	}()

	caller := dial(t, base, "/ws/input")
	send(t, caller, domain.Envelope{Kind: domain.KindInput, To: addr, RequestID: "r-1", Payload: "x"})
	if res := recv(t, caller, 3*time.Second); res.RequestID != "r-1" || res.Kind != domain.KindOutput {
		t.Fatalf("first exchange broken: %+v", res)
	}

	// A fresh request on the same socket is unaffected by the duplicate.
	send(t, caller, domain.Envelope{Kind: domain.KindInput, To: addr, RequestID: "r-2", Payload: "y"})
	if res := recv(t, caller, 3*time.Second); res.RequestID != "r-2" || res.Kind != domain.KindOutput {
		t.Fatalf("second exchange broken: %+v", res)
	}
}

func TestReAnnounce_SupersedesConnection(t *testing.T) {
	_, base := testRelay(t, server.Config{})
	id, addr, firstWS := announce(t, base)

	// Same identity announces again, as after a process restart.
	secondWS := dial(t, base, "/ws/announce")
	send(t, secondWS, wire.NewAnnounce(id, "restarted"))

	// The relay closes the superseded socket.
	_ = firstWS.SetReadDeadline(time.Now().Add(3 * time.Second))
	for {
		if _, _, err := firstWS.ReadMessage(); err != nil {
			break
		}
	}
	waitOnline(t, base, addr, true)
}

func TestUncleanDisconnect_EvictsRegistration(t *testing.T) {
	_, base := testRelay(t, server.Config{})
	_, addr, agentWS := announce(t, base)

	// Drop the transport without a close handshake.
	_ = agentWS.UnderlyingConn().Close()

	waitOnline(t, base, addr, false)

	// A request after eviction fails fast rather than hanging.
	caller := dial(t, base, "/ws/input")
	send(t, caller, domain.Envelope{Kind: domain.KindInput, To: addr, RequestID: "r-gone", Payload: "x"})
	res := recv(t, caller, 3*time.Second)
	if res.Kind != domain.KindError || res.Reason != domain.ReasonAddressOffline {
		t.Fatalf("got %+v, want ERROR/ADDRESS_OFFLINE", res)
	}
}

func TestPendingTimeout_SweptAndReported(t *testing.T) {
	_, base := testRelay(t, server.Config{
		RequestTimeout: 100 * time.Millisecond,
		SweepInterval:  20 * time.Millisecond,
	})
	_, addr, _ := announce(t, base) // never answers

	caller := dial(t, base, "/ws/input")
	send(t, caller, domain.Envelope{Kind: domain.KindInput, To: addr, RequestID: "r-slow", Payload: "x"})

	res := recv(t, caller, 3*time.Second)
	if res.Kind != domain.KindError || res.Reason != domain.ReasonTimeout {
		t.Fatalf("got %+v, want ERROR/TIMEOUT", res)
	}
	if res.RequestID != "r-slow" {
		t.Fatalf("timeout carries id %q, want r-slow", res.RequestID)
	}
}

func TestAnnounceSocket_RejectsWrongFirstEnvelope(t *testing.T) {
	_, base := testRelay(t, server.Config{})

	ws := dial(t, base, "/ws/announce")
	send(t, ws, domain.Envelope{Kind: domain.KindLookup, To: domain.Address("0xabc")})

	res := recv(t, ws, 3*time.Second)
	if res.Kind != domain.KindError || res.Reason != domain.ReasonProtocolViolation {
		t.Fatalf("got %+v, want ERROR/PROTOCOL_VIOLATION", res)
	}
	// And the socket is closed afterwards.
	_ = ws.SetReadDeadline(time.Now().Add(3 * time.Second))
	if _, _, err := ws.ReadMessage(); err == nil {
		t.Fatal("socket still open after protocol violation")
	}
}

func TestAnnounce_BadSignatureRejected(t *testing.T) {
	_, base := testRelay(t, server.Config{})

	id, _ := crypto.GenerateEd25519()
	env := wire.NewAnnounce(id, "liar")
	other, _ := crypto.GenerateEd25519()
	env.From = crypto.AddressFromPub(other.Pub) // claims someone else's address

	ws := dial(t, base, "/ws/announce")
	send(t, ws, env)

	res := recv(t, ws, 3*time.Second)
	if res.Kind != domain.KindError || res.Reason != domain.ReasonBadSignature {
		t.Fatalf("got %+v, want ERROR/BAD_SIGNATURE", res)
	}
}

func TestStatusAndAgentsEndpoints(t *testing.T) {
	s, base := testRelay(t, server.Config{})
	_, addr, _ := announce(t, base)
	_ = s

	httpBase := "http" + strings.TrimPrefix(base, "ws")

	var status struct {
		Service         string `json:"service"`
		AgentsOnline    int    `json:"agents_online"`
		PendingRequests int    `json:"pending_requests"`
	}
	getJSON(t, httpBase+"/", &status)
	if status.AgentsOnline != 1 || status.PendingRequests != 0 {
		t.Fatalf("status = %+v", status)
	}

	var agents struct {
		Count  int `json:"count"`
		Agents []struct {
			Address domain.Address `json:"address"`
			Summary string         `json:"summary"`
		} `json:"agents"`
	}
	getJSON(t, httpBase+"/agents", &agents)
	if agents.Count != 1 || agents.Agents[0].Address != addr {
		t.Fatalf("agents = %+v", agents)
	}
}

func getJSON(t *testing.T, url string, out any) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET %s: %s", url, resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("decode %s: %v", url, err)
	}
}
