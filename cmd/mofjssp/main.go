package main

import (
	"os"

	"github.com/luishpmendes/mofjssp/cmd/mofjssp/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
