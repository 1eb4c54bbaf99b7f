package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"shadowbar/internal/domain"
	"shadowbar/internal/relay/client"
)

func lookupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lookup <address>",
		Short: "Ask the relay whether an address is online",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			addr := domain.Address(strings.ToLower(args[0]))
			if !addr.Valid() {
				return fmt.Errorf("%w: %q", domain.ErrBadAddress, args[0])
			}
			online, err := client.Lookup(cmd.Context(), wire.Config.RelayURL, addr)
			if err != nil {
				return err
			}
			if online {
				fmt.Printf("%s is online\n", addr)
			} else {
				fmt.Printf("%s is offline\n", addr)
			}
			return nil
		},
	}
}
