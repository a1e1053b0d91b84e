package main

import (
	"errors"
	"os"

	"github.com/xinjiayu/rxcore/internal/cli"
)

// Set via ldflags at build time.
var version = "dev"

func main() {
	rootCmd := cli.NewRootCmd(version)

	if err := rootCmd.Execute(); err != nil {
		var exitErr *cli.ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}
