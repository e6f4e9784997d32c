package main

import (
	"os"

	"github.com/wheelplan/projection-engine/cmd/wheelctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
