package main

import (
	"os"

	"github.com/cmccabe/expertise-engine/internal/cli"
)

func main() {
	if err := cli.RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
