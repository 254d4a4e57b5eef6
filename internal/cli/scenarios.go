package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"wardsim/internal/scenario"
)

// NewScenariosCommand creates the scenarios command: list the loadable
// scenarios in the configured directory.
func NewScenariosCommand(root *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "scenarios",
		Short: "List available scenarios",
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := &OutputFormatter{
				Format:    root.Format,
				Writer:    cmd.OutOrStdout(),
				ErrWriter: cmd.ErrOrStderr(),
				Verbose:   root.Verbose,
			}
			log := newLogger(root, cmd.ErrOrStderr())

			lib, err := scenario.LoadDir(root.Scenarios, log)
			if err != nil {
				return WrapExitError(ExitCommandError, "loading scenarios", err)
			}

			summaries := lib.List()
			if root.Format == "json" {
				return formatter.Success(summaries)
			}

			if len(summaries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No scenarios found.")
				return nil
			}
			for _, s := range summaries {
				fmt.Fprintf(cmd.OutOrStdout(), "%-20s %-30s %d patients, starts %s\n",
					s.ID, s.Name, s.Patients, s.StartTime)
			}
			return nil
		},
	}
}
