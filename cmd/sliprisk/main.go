package main

import (
	"os"

	"github.com/rustyeddy/sliprisk/cmd/sliprisk/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
