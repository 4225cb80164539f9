// Package main provides the entry point for the crunchize CLI.
package main

import (
	"fmt"
	"os"

	"github.com/hristovelev/crunchize/internal/cli"
	crunchizeerrors "github.com/hristovelev/crunchize/internal/errors"

	_ "github.com/hristovelev/crunchize/internal/tasks"
)

func main() {
	if err := cli.Execute(); err != nil {
		if ce := crunchizeerrors.AsCrunchizeError(err); ce != nil {
			fmt.Fprintln(os.Stderr, ce.UserMessage())
			os.Exit(ce.ExitStatus())
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
