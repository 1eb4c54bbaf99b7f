package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"shadowbar/internal/domain"
	"shadowbar/internal/relay/client"
	identitysvc "shadowbar/internal/services/identity"
)

// send <address> <payload>: forward a request through the relay and print
// the agent's reply.
func sendCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "send <address> <payload>",
		Short: "Send a request to an agent and print the reply",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			target := domain.Address(strings.ToLower(args[0]))
			payload := args[1]

			opts := []client.ConnectOption{client.WithTimeout(wire.Config.Timeout)}
			if id, err := wire.IDs.Load(passphrase); err == nil {
				opts = append(opts, client.WithFrom(identitysvc.Address(id)))
			}

			remote, err := client.Connect(target, wire.Config.RelayURL, opts...)
			if err != nil {
				return err
			}
			defer remote.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), wire.Config.Timeout)
			defer cancel()

			reply, err := remote.SendContext(ctx, payload)
			if err != nil {
				return err
			}
			fmt.Println(reply)
			return nil
		},
	}
}
