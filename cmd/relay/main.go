// Package main runs the shadowbar relay: a WebSocket switchboard that
// forwards requests between agents by address. It keeps no message history;
// everything is held in memory and lost on process exit.
//
// Endpoints
//
//	GET /ws/announce
//	    Serving agents connect here. The first message must be a signed
//	    ANNOUNCE naming the agent's address; later messages are heartbeat
//	    re-announcements or OUTPUT/ERROR replies to forwarded requests.
//
//	GET /ws/input
//	    Callers connect here and send INPUT envelopes addressed to an
//	    agent. The terminal OUTPUT or ERROR comes back on the same socket.
//
//	GET /ws/lookup
//	    One LOOKUP in, one LOOKUP_RESULT out per message. Reports whether
//	    an address has a live announce connection.
//
//	GET /agents
//	    List the currently registered addresses and their summaries.
//
//	GET /
//	    Health summary: agents online and requests in flight.
//
// The relay never holds keys and never signs anything; it verifies announce
// signatures so only a keyholder can claim an address, then routes opaque
// payloads between sockets.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"shadowbar/internal/logging"
	"shadowbar/internal/relay/server"
)

func main() {
	addr := flag.String("addr", ":8000", "listen address")
	requestTimeout := flag.Duration("request-timeout", 5*time.Minute, "how long a forwarded request may stay unanswered")
	staleAfter := flag.Duration("stale-after", 2*time.Minute, "evict agents silent for longer than this")
	debug := flag.Bool("debug", false, "verbose logging")
	flag.Parse()

	logging.Setup()
	logging.Debug(*debug)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(server.Config{
		RequestTimeout: *requestTimeout,
		StaleAfter:     *staleAfter,
	})
	defer srv.Close()

	if err := srv.Run(ctx, *addr); err != nil {
		logging.Log.WithError(err).Fatal("relay exited")
	}
}
