package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	identitysvc "shadowbar/internal/services/identity"
)

// recover <word>...: rebuild the identity from a 12-word recovery phrase.
func recoverCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "recover <word>...",
		Short: "Rebuild the identity from a recovery phrase",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			phrase := strings.ToLower(strings.Join(args, " "))
			id, err := wire.IDs.Recover(passphrase, phrase)
			if err != nil {
				return err
			}
			fmt.Printf("Identity recovered.\nAddress: %s\n", identitysvc.Address(id))
			return nil
		},
	}
}
