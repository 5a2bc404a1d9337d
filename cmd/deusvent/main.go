package main

import (
	"os"

	"deusvent/cmd/deusvent/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
