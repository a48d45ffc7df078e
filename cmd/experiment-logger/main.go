package main

import (
	"os"

	"experiment-logger/internal/cli"
)

// @title Experiment Logger API
// @version 1.0
// @description Log experiment runs against a configurable form and plot the accumulated log.
// @BasePath /api/v1
func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
