package commands

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"shadowbar/internal/domain"
	"shadowbar/internal/logging"
	"shadowbar/internal/relay/client"
	identitysvc "shadowbar/internal/services/identity"
)

// serve: announce on the relay and answer incoming requests until
// interrupted. Without --exec the agent echoes payloads back, which is
// handy for checking a relay end to end.
func serveCmd() *cobra.Command {
	var (
		summary string
		execCmd string
		allow   []string
		debug   bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Announce on the relay and answer incoming requests",
		RunE: func(cmd *cobra.Command, args []string) error {
			logging.Setup()
			logging.Debug(debug)

			id, created, err := wire.IDs.LoadOrCreate(passphrase)
			if err != nil {
				return err
			}
			self := identitysvc.Address(id)
			if created {
				fmt.Printf("New identity created in %s.\n", home)
			}
			fmt.Printf("Serving as %s\n", self)

			handler := echoHandler
			if execCmd != "" {
				handler = execHandler(execCmd)
			}

			opts := []client.ServeOption{client.WithSummary(summary)}
			if len(allow) > 0 {
				gate, err := allowGate(allow)
				if err != nil {
					return err
				}
				opts = append(opts, client.WithTrustGate(gate))
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			err = client.Serve(ctx, id, wire.Config.RelayURL, handler, opts...)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
	cmd.Flags().StringVar(&summary, "summary", "", "one-line capability description shown in the relay listing")
	cmd.Flags().StringVar(&execCmd, "exec", "", "shell command to run per request; payload on stdin, stdout is the reply")
	cmd.Flags().StringSliceVar(&allow, "allow", nil, "only accept requests from these addresses")
	cmd.Flags().BoolVar(&debug, "debug", false, "verbose logging")
	return cmd
}

func echoHandler(_ context.Context, _ domain.Address, payload string) (string, error) {
	return payload, nil
}

// execHandler runs command once per request with the payload on stdin.
func execHandler(command string) client.Handler {
	return func(ctx context.Context, from domain.Address, payload string) (string, error) {
		c := exec.CommandContext(ctx, "sh", "-c", command)
		c.Stdin = strings.NewReader(payload)
		var out, errBuf bytes.Buffer
		c.Stdout = &out
		c.Stderr = &errBuf
		if err := c.Run(); err != nil {
			logging.Log.WithField("from", from.Short()).WithError(err).Warn("exec handler failed")
			if errBuf.Len() > 0 {
				return "", fmt.Errorf("%s", strings.TrimSpace(errBuf.String()))
			}
			return "", err
		}
		return strings.TrimRight(out.String(), "\n"), nil
	}
}

func allowGate(addrs []string) (client.TrustGate, error) {
	allowed := make(map[domain.Address]struct{}, len(addrs))
	for _, raw := range addrs {
		a := domain.Address(strings.ToLower(raw))
		if !a.Valid() {
			return nil, fmt.Errorf("invalid address in --allow: %q", raw)
		}
		allowed[a] = struct{}{}
	}
	return func(from domain.Address) bool {
		_, ok := allowed[from]
		return ok
	}, nil
}
