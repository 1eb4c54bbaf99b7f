package app

import (
	"os"
	"strconv"
	"time"
)

// Defaults applied when the environment and flags are silent.
const (
	DefaultRelayURL = "ws://127.0.0.1:8000"
	DefaultTimeout  = 30 * time.Second
)

// Config holds runtime wiring options for building the app.
type Config struct {
	Home     string        // config directory, e.g. $HOME/.shadowbar
	RelayURL string        // relay base URL, e.g. ws://127.0.0.1:8000
	Timeout  time.Duration // default wait for a remote agent's reply
}

// FromEnv fills any unset fields from the environment, then from the
// built-in defaults. SHADOWBAR_RELAY_URL overrides the relay address and
// SHADOWBAR_TIMEOUT (whole seconds) the request timeout.
func (c Config) FromEnv() Config {
	if c.RelayURL == "" {
		c.RelayURL = os.Getenv("SHADOWBAR_RELAY_URL")
	}
	if c.RelayURL == "" {
		c.RelayURL = DefaultRelayURL
	}
	if c.Timeout == 0 {
		if raw := os.Getenv("SHADOWBAR_TIMEOUT"); raw != "" {
			if secs, err := strconv.Atoi(raw); err == nil && secs > 0 {
				c.Timeout = time.Duration(secs) * time.Second
			}
		}
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	return c
}
