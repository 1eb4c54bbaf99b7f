package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/websocket"

	"shadowbar/internal/domain"
)

// Status is the relay's health summary.
type Status struct {
	Service         string `json:"service"`
	AgentsOnline    int    `json:"agents_online"`
	PendingRequests int    `json:"pending_requests"`
}

// AgentListing is one registered agent as reported by the relay.
type AgentListing struct {
	Address domain.Address `json:"address"`
	Summary string         `json:"summary,omitempty"`
}

// Lookup asks the relay whether address is currently reachable. One round
// trip over a throwaway lookup socket.
func Lookup(ctx context.Context, relayURL string, address domain.Address) (bool, error) {
	ws, _, err := websocket.DefaultDialer.DialContext(ctx, lookupURL(relayURL), nil)
	if err != nil {
		return false, err
	}
	c := newConn(ws)
	defer c.close()

	if err := c.send(domain.Envelope{Kind: domain.KindLookup, To: address}); err != nil {
		return false, err
	}
	res, err := c.read()
	if err != nil {
		return false, err
	}
	if res.Kind != domain.KindLookupResult {
		return false, fmt.Errorf("%w: %s in reply to LOOKUP", domain.ErrProtocolViolation, res.Kind)
	}
	return res.Online, nil
}

// FetchStatus polls the relay's read-only health endpoint.
func FetchStatus(ctx context.Context, relayURL string) (Status, error) {
	var out Status
	return out, getJSON(ctx, httpURL(relayURL)+"/", &out)
}

// FetchAgents lists the currently registered addresses.
func FetchAgents(ctx context.Context, relayURL string) ([]AgentListing, error) {
	var out struct {
		Agents []AgentListing `json:"agents"`
	}
	if err := getJSON(ctx, httpURL(relayURL)+"/agents", &out); err != nil {
		return nil, err
	}
	return out.Agents, nil
}

func getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("relay get %s: %s", url, resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
