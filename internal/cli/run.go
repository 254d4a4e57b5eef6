package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"wardsim/internal/engine"
	"wardsim/internal/scenario"
)

// script is a scripted shift: a scenario plus the actions to run against
// it, in order. Used for smoke-testing scenario files from the command
// line without the HTTP API.
type script struct {
	Scenario string         `yaml:"scenario"`
	Actions  []scriptAction `yaml:"actions"`
}

type scriptAction struct {
	Action   engine.ActionKind `yaml:"action"`
	Patient  string            `yaml:"patient"`
	Details  map[string]any    `yaml:"details"`
	TimeCost *int              `yaml:"time_cost_minutes"`
}

// runTranscript is the JSON payload for a completed scripted run.
type runTranscript struct {
	SessionID string                 `json:"session_id"`
	Results   []*engine.ActionResult `json:"results"`
	Summary   *engine.SessionSummary `json:"summary"`
	Timeline  []engine.TimelineEntry `json:"timeline"`
}

// NewRunCommand creates the run command: play a scripted action sequence
// against a scenario and print what happened.
func NewRunCommand(root *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run <script.yaml>",
		Short: "Play a scripted shift against a scenario",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := &OutputFormatter{
				Format:    root.Format,
				Writer:    cmd.OutOrStdout(),
				ErrWriter: cmd.ErrOrStderr(),
				Verbose:   root.Verbose,
			}
			log := newLogger(root, cmd.ErrOrStderr())

			data, err := os.ReadFile(args[0])
			if err != nil {
				return WrapExitError(ExitCommandError, "reading script", err)
			}
			var sc script
			if err := yaml.Unmarshal(data, &sc); err != nil {
				return WrapExitError(ExitCommandError, "parsing script", err)
			}
			if sc.Scenario == "" {
				return NewExitError(ExitCommandError, "script is missing a scenario id")
			}

			lib, err := scenario.LoadDir(root.Scenarios, log)
			if err != nil {
				return WrapExitError(ExitCommandError, "loading scenarios", err)
			}

			sess, err := lib.CreateSession(sc.Scenario, nil)
			if err != nil {
				return WrapExitError(ExitFailure, "creating session", err)
			}

			transcript := runTranscript{SessionID: sess.ID}
			for i, a := range sc.Actions {
				result, err := sess.Execute(engine.UserAction{
					Kind:            a.Action,
					PatientID:       a.Patient,
					Details:         a.Details,
					TimeCostMinutes: a.TimeCost,
				})
				if err != nil {
					return WrapExitError(ExitFailure, fmt.Sprintf("action %d (%s)", i+1, a.Action), err)
				}
				transcript.Results = append(transcript.Results, result)
				formatter.VerboseLog("action %d: %s on %s -> success=%v time=%s",
					i+1, a.Action, a.Patient, result.Success, result.NewSimulationTime.Format("15:04"))
			}

			summary, err := sess.Complete()
			if err != nil {
				return WrapExitError(ExitFailure, "completing session", err)
			}
			transcript.Summary = summary
			transcript.Timeline = sess.Timeline()

			if root.Format == "json" {
				return formatter.Success(transcript)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Session %s: %d actions, %d minutes elapsed\n",
				summary.SessionID, summary.ActionsTaken, summary.ElapsedMinutes)
			for _, entry := range transcript.Timeline {
				fmt.Fprintf(out, "  %s  %-12s %s\n",
					entry.Timestamp.Format("15:04"), entry.Kind, entry.Summary)
			}
			for _, p := range summary.Patients {
				fmt.Fprintf(out, "Patient %s (%s): %s\n", p.Name, p.ID, p.CurrentState)
			}
			return nil
		},
	}
}
