package main

import (
	"os"

	"github.com/nstehr/bastion/bastion-core/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
