// Package main is the entry point for the golembot CLI.
package main

import (
	"os"

	"github.com/alexk-dev/golemcore-bot-sub013/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
