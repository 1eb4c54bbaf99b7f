package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"shadowbar/internal/relay/client"
)

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show relay health and the registered agents",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := client.FetchStatus(cmd.Context(), wire.Config.RelayURL)
			if err != nil {
				return err
			}
			fmt.Printf("relay: %s\nagents online: %d\npending requests: %d\n",
				st.Service, st.AgentsOnline, st.PendingRequests)

			agents, err := client.FetchAgents(cmd.Context(), wire.Config.RelayURL)
			if err != nil {
				return err
			}
			for _, a := range agents {
				if a.Summary != "" {
					fmt.Printf("  %s  %s\n", a.Address, a.Summary)
				} else {
					fmt.Printf("  %s\n", a.Address)
				}
			}
			return nil
		},
	}
}
