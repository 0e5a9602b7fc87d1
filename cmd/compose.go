// This file implements the compose command: read one guest-message
// envelope from a file or stdin and print the guarded draft as JSON.
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/naterendon1/hostaway-autoreply-sub000/core/assemble"
	"github.com/naterendon1/hostaway-autoreply-sub000/core/config"
	"github.com/naterendon1/hostaway-autoreply-sub000/core/hostaway"
	"github.com/naterendon1/hostaway-autoreply-sub000/core/learning"
	"github.com/naterendon1/hostaway-autoreply-sub000/core/llm"
	"github.com/naterendon1/hostaway-autoreply-sub000/core/pipeline"
	"github.com/naterendon1/hostaway-autoreply-sub000/core/places"
)

var (
	composeConfigPath string
	composeInputPath  string
)

// envelope is the compose command's input document.
type envelope struct {
	Message string          `json:"message"`
	History []assemble.Line `json:"history"`
	Meta    assemble.Meta   `json:"meta"`
}

var composeCmd = &cobra.Command{
	Use:   "compose",
	Short: "Compose a reply for one guest message",
	Long: `Compose reads a JSON envelope {message, history, meta} from a file
(or stdin with -) and prints the guarded draft reply as JSON.`,
	RunE: runCompose,
}

func init() {
	composeCmd.Flags().StringVarP(&composeConfigPath, "config", "c", "", "path to yaml config file")
	composeCmd.Flags().StringVarP(&composeInputPath, "input", "i", "-", "path to the JSON envelope, - for stdin")
	rootCmd.AddCommand(composeCmd)
}

func runCompose(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(composeConfigPath)
	if err != nil {
		return err
	}
	logger := newLogger(cfg.Logging.Level)

	env, err := readEnvelope(composeInputPath)
	if err != nil {
		return err
	}

	p, store, err := buildPipeline(cfg, logger)
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
	}

	draft, _ := p.ComposeReply(context.Background(), env.Message, env.History, env.Meta)

	out, err := json.MarshalIndent(draft, "", "  ")
	if err != nil {
		return fmt.Errorf("encode draft: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}

// buildPipeline owns client lifecycle; the core packages only see the
// narrow interfaces.
func buildPipeline(cfg *config.Config, logger *slog.Logger) (*pipeline.Pipeline, *learning.Store, error) {
	var provider assemble.Provider
	if cfg.Hostaway.ClientID != "" && cfg.Hostaway.ClientSecret != "" {
		provider = hostaway.NewClient(cfg.Hostaway, logger)
	}

	placeAPI, err := places.NewClient(cfg.Places, logger)
	if err != nil {
		return nil, nil, err
	}

	var store *learning.Store
	var examples assemble.ExampleFinder
	if cfg.Learning.DBPath != "" {
		store, err = learning.Open(cfg.Learning.DBPath, logger)
		if err != nil {
			logger.Warn("learning store unavailable", "error", err)
		} else {
			examples = store
		}
	}

	var completer llm.Completer
	if cfg.Model.APIKey != "" {
		completer, err = llm.NewAnthropicCompleter(cfg.Model)
		if err != nil {
			return nil, nil, err
		}
	}

	assembler := assemble.New(provider, placeAPI, examples, logger)
	adapter := llm.NewAdapter(completer, logger)
	return pipeline.New(assembler, adapter, logger), store, nil
}

func readEnvelope(path string) (*envelope, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read envelope: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("parse envelope: %w", err)
	}
	if env.Message == "" && len(env.History) == 0 {
		return nil, fmt.Errorf("envelope has no message or history")
	}
	return &env, nil
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
