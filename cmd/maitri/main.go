package main

import (
	"os"

	"github.com/AbheyTiwari/Maitri/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
