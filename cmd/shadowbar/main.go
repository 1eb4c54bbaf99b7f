package main

import (
	"os"

	"shadowbar/cmd/shadowbar/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
