// Package cli implements the crunchize command-line interface.
package cli

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	verbose     bool
	dryRun      bool
	fileAmount  float64
	everyNth    int
	dumpPathArg string
)

// rootCmd is the base command when crunchize is called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "crunchize",
	Short: "Declarative batch image-sequence processing",
	Long: `crunchize runs a declarative playbook of tasks over sequences of
images and video, the way Ansible runs a playbook of tasks over hosts.

Quick start:
  crunchize run playbook.yaml
  crunchize run playbook.yaml --dry-run
  crunchize run playbook.yaml --file-amount 0.5`,
	SilenceUsage: true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and runs it.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newVersionCmd())
}

// newVersionCmd reports the build version.
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show crunchize version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("crunchize version 0.1.0-dev")
		},
	}
}

// newRunID generates the run identity stamped into logs for one invocation.
func newRunID() string {
	return uuid.NewString()
}
