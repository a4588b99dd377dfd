package main

import (
	"os"

	"github.com/smarvasti/haftify/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
