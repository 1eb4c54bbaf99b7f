package commands

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"shadowbar/internal/app"
)

var (
	home       string
	passphrase string
	relayURL   string
	timeout    time.Duration

	wire *app.Wire
)

func Execute() error {
	root := &cobra.Command{
		Use:   "shadowbar",
		Short: "Address-based agent messaging over a relay",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if home == "" {
				dir, err := os.UserHomeDir()
				if err != nil {
					return err
				}
				home = filepath.Join(dir, ".shadowbar")
			}
			if err := os.MkdirAll(home, 0o700); err != nil {
				return err
			}

			var err error
			wire, err = app.NewWire(app.Config{
				Home:     home,
				RelayURL: relayURL,
				Timeout:  timeout,
			})
			return err
		},
	}

	root.PersistentFlags().StringVar(&home, "home", "", "config dir (default ~/.shadowbar)")
	root.PersistentFlags().StringVarP(&passphrase, "passphrase", "p", "", "passphrase protecting the local key")
	root.PersistentFlags().StringVar(&relayURL, "relay", "", "relay base URL (default $SHADOWBAR_RELAY_URL or ws://127.0.0.1:8000)")
	root.PersistentFlags().DurationVar(&timeout, "timeout", 0, "reply wait for send (default $SHADOWBAR_TIMEOUT seconds or 30s)")

	root.AddCommand(initCmd(), recoverCmd(), addressCmd(), serveCmd(), sendCmd(), lookupCmd(), statusCmd())
	return root.Execute()
}
