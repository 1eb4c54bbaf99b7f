package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	identitysvc "shadowbar/internal/services/identity"
)

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Generate an identity key and print its recovery phrase",
		RunE: func(cmd *cobra.Command, args []string) error {
			has, err := wire.Identity.HasIdentity()
			if err != nil {
				return err
			}
			if has {
				return fmt.Errorf("identity already exists in %s (use recover to replace it)", home)
			}
			id, phrase, err := wire.IDs.Generate(passphrase)
			if err != nil {
				return err
			}
			fmt.Printf("Identity created.\nAddress: %s\n\n", identitysvc.Address(id))
			fmt.Printf("Recovery phrase (write it down, never share it):\n  %s\n", phrase)
			return nil
		},
	}
}
