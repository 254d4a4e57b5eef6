package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"wardsim/internal/engine"
	"wardsim/internal/httpapi"
	"wardsim/internal/nurse"
	"wardsim/internal/scenario"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	Addr     string
	Config   string
	LLMURL   string
	LLMKey   string
	LLMModel string
}

// ServeConfig is the optional YAML config file for serve. Explicit flags
// take precedence over file values.
type ServeConfig struct {
	Addr                  string `yaml:"addr"`
	ScenariosDir          string `yaml:"scenarios_dir"`
	SessionTimeoutMinutes int    `yaml:"session_timeout_minutes"`
}

func loadServeConfig(path string) (*ServeConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	var cfg ServeConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return &cfg, nil
}

// NewServeCommand creates the serve command: load the scenario library and
// run the HTTP API until interrupted.
func NewServeCommand(root *RootOptions) *cobra.Command {
	opts := &ServeOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the simulation HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := newLogger(root, cmd.ErrOrStderr())

			if opts.Config != "" {
				cfg, err := loadServeConfig(opts.Config)
				if err != nil {
					return WrapExitError(ExitCommandError, "config file", err)
				}
				if cfg.Addr != "" && !cmd.Flags().Changed("addr") {
					opts.Addr = cfg.Addr
				}
				if cfg.ScenariosDir != "" && !cmd.Flags().Changed("scenarios") {
					root.Scenarios = cfg.ScenariosDir
				}
				if cfg.SessionTimeoutMinutes > 0 {
					// The timeout is advisory. Sessions are never reaped on a timer;
					// they end when the resident completes or deletes them.
					log.Info("session timeout configured but not enforced",
						"timeout_minutes", cfg.SessionTimeoutMinutes)
				}
			}

			lib, err := scenario.LoadDir(root.Scenarios, log)
			if err != nil {
				return WrapExitError(ExitCommandError, "loading scenarios", err)
			}

			var responder nurse.Responder = nurse.TopicResponder{}
			if opts.LLMURL != "" {
				responder = nurse.NewLLMResponder(opts.LLMURL, opts.LLMKey, opts.LLMModel)
				log.Info("nurse dialogue using chat endpoint", "url", opts.LLMURL, "model", opts.LLMModel)
			}

			svc := engine.NewService(lib, log)
			server := httpapi.NewServer(svc, lib, responder, log)

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			if err := server.ListenAndServe(ctx, opts.Addr); err != nil {
				return WrapExitError(ExitCommandError, "http server", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", ":8080", "listen address")
	cmd.Flags().StringVar(&opts.Config, "config", "", "optional YAML config file (addr, scenarios_dir, session_timeout_minutes)")
	cmd.Flags().StringVar(&opts.LLMURL, "llm-url", "", "OpenAI-compatible base URL for nurse dialogue (topic routing when empty)")
	cmd.Flags().StringVar(&opts.LLMKey, "llm-key", "", "API key for the chat endpoint")
	cmd.Flags().StringVar(&opts.LLMModel, "llm-model", "gpt-4o-mini", "model name for the chat endpoint")

	return cmd
}
