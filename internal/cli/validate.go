package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"wardsim/internal/scenario"
)

// NewValidateCommand creates the validate command: parse and check one or
// more scenario files without starting anything.
func NewValidateCommand(root *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <scenario.yaml> [more.yaml...]",
		Short: "Validate scenario files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := &OutputFormatter{
				Format:    root.Format,
				Writer:    cmd.OutOrStdout(),
				ErrWriter: cmd.ErrOrStderr(),
				Verbose:   root.Verbose,
			}
			log := newLogger(root, cmd.ErrOrStderr())

			type fileResult struct {
				File  string `json:"file"`
				OK    bool   `json:"ok"`
				Error string `json:"error,omitempty"`
			}

			results := make([]fileResult, 0, len(args))
			failed := 0
			for _, path := range args {
				res := fileResult{File: path, OK: true}
				if _, err := scenario.Load(path, log); err != nil {
					res.OK = false
					res.Error = err.Error()
					failed++
				}
				results = append(results, res)
			}

			if root.Format == "json" {
				if err := formatter.Success(results); err != nil {
					return err
				}
			} else {
				for _, res := range results {
					if res.OK {
						fmt.Fprintf(cmd.OutOrStdout(), "ok    %s\n", res.File)
					} else {
						fmt.Fprintf(cmd.OutOrStdout(), "FAIL  %s\n      %s\n", res.File, res.Error)
					}
				}
			}

			if failed > 0 {
				return NewExitError(ExitFailure, fmt.Sprintf("%d of %d files invalid", failed, len(args)))
			}
			return nil
		},
	}
}
