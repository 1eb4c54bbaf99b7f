package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	identitysvc "shadowbar/internal/services/identity"
)

func addressCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "address",
		Short: "Print the local agent address",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := wire.IDs.Load(passphrase)
			if err != nil {
				return err
			}
			fmt.Println(identitysvc.Address(id))
			return nil
		},
	}
}
