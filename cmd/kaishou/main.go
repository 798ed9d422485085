package main

import (
	"os"

	"github.com/ayusman/kaishou/cmd/kaishou/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
