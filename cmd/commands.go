package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	cotc "github.com/cotcprotocol/gosdk"
)

type globalFlags struct {
	configPath string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}
	cmd := &cobra.Command{
		Use:           "cotc",
		Short:         "Validate AI-generated content against COTC contracts",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&flags.configPath, "config", "cotc.yaml", "path to the configuration file")
	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	cmd.AddCommand(newValidateCmd(flags))
	cmd.AddCommand(newBatchCmd(flags))
	cmd.AddCommand(newMetricsCmd(flags))
	return cmd
}

// session bundles everything a command needs to talk to the service.
type session struct {
	config       *cotc.Config
	client       *cotc.Client
	orchestrator *cotc.Orchestrator
}

func (s *session) Close() error {
	return s.client.Close()
}

func openSession(flags *globalFlags, stderr io.Writer) (*session, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(flags.logLevel)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", flags.logLevel, err)
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	config, err := cotc.LoadConfig(flags.configPath)
	if err != nil {
		return nil, err
	}

	registry, err := config.Registry()
	if err != nil {
		return nil, err
	}

	client, err := cotc.New(config.ClientOptions()...)
	if err != nil {
		return nil, err
	}

	opts := append(config.OrchestratorOptions(), cotc.WithLogger(logger))
	orchestrator, err := cotc.NewOrchestrator(client, registry, opts...)
	if err != nil {
		client.Close()
		return nil, err
	}

	return &session{config: config, client: client, orchestrator: orchestrator}, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newValidateCmd(flags *globalFlags) *cobra.Command {
	var (
		useCase  string
		priority string
		file     string
		timeout  time.Duration
		meta     map[string]string
	)

	cmd := &cobra.Command{
		Use:   "validate [content]",
		Short: "Validate a single piece of content",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := readContent(args, file)
			if err != nil {
				return err
			}
			p, err := cotc.ParsePriority(priority)
			if err != nil {
				return err
			}

			s, err := openSession(flags, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer s.Close()

			metadata := make(map[string]any, len(meta))
			for k, v := range meta {
				metadata[k] = v
			}

			result := s.orchestrator.Validate(cmd.Context(), content, useCase,
				cotc.WithPriority(p),
				cotc.WithMetadata(metadata),
				cotc.WithValidationTimeout(timeout),
			)
			if err := writeJSON(cmd.OutOrStdout(), result); err != nil {
				return err
			}
			if !result.Approved {
				return fmt.Errorf("content not approved (status %s)", result.Status)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&useCase, "use-case", "", "business use case (must be listed under contracts)")
	cmd.Flags().StringVar(&priority, "priority", "medium", "validation priority (low, medium, high)")
	cmd.Flags().StringVar(&file, "file", "", "read content from a file instead of the argument")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "how long to wait for a verdict (default from config)")
	cmd.Flags().StringToStringVar(&meta, "meta", nil, "metadata key=value pairs")
	_ = cmd.MarkFlagRequired("use-case")
	return cmd
}

func readContent(args []string, file string) (string, error) {
	switch {
	case file != "" && len(args) > 0:
		return "", errors.New("pass content either as an argument or with --file, not both")
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return "", err
		}
		return string(data), nil
	case len(args) == 1:
		return args[0], nil
	}
	return "", errors.New("no content given")
}

type batchOutput struct {
	Results []fileResult      `json:"results"`
	Summary cotc.BatchSummary `json:"summary"`
}

type fileResult struct {
	File   string                 `json:"file"`
	Result *cotc.ValidationResult `json:"result"`
}

func newBatchCmd(flags *globalFlags) *cobra.Command {
	var (
		useCase  string
		priority string
		workers  int
	)

	cmd := &cobra.Command{
		Use:   "batch <glob>...",
		Short: "Validate every file matching the given globs",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := cotc.ParsePriority(priority)
			if err != nil {
				return err
			}

			files, err := expandGlobs(args)
			if err != nil {
				return err
			}
			if len(files) == 0 {
				return errors.New("no files matched")
			}

			items := make([]cotc.BatchItem, len(files))
			for i, f := range files {
				data, err := os.ReadFile(f)
				if err != nil {
					return err
				}
				items[i] = cotc.BatchItem{
					Content: string(data),
					UseCase: useCase,
					Options: []cotc.ValidateOption{
						cotc.WithPriority(p),
						cotc.WithMetadata(map[string]any{"file": f}),
					},
				}
			}

			s, err := openSession(flags, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer s.Close()

			if workers <= 0 {
				workers = s.config.Batch.Workers
			}
			results := cotc.NewBatchValidator(s.orchestrator, workers).Validate(cmd.Context(), items)

			out := batchOutput{Results: make([]fileResult, len(files)), Summary: cotc.Summarize(results)}
			for i, f := range files {
				out.Results[i] = fileResult{File: f, Result: results[i]}
			}
			return writeJSON(cmd.OutOrStdout(), out)
		},
	}
	cmd.Flags().StringVar(&useCase, "use-case", "", "business use case applied to every file")
	cmd.Flags().StringVar(&priority, "priority", "medium", "validation priority (low, medium, high)")
	cmd.Flags().IntVar(&workers, "workers", 0, "maximum concurrent validations (default from config, else 10)")
	_ = cmd.MarkFlagRequired("use-case")
	return cmd
}

func expandGlobs(patterns []string) ([]string, error) {
	var files []string
	seen := make(map[string]struct{})
	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("bad pattern %q: %w", pattern, err)
		}
		for _, m := range matches {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			files = append(files, m)
		}
	}
	return files, nil
}

func newMetricsCmd(flags *globalFlags) *cobra.Command {
	var (
		timeRange string
		useCases  []string
	)

	cmd := &cobra.Command{
		Use:   "metrics",
		Short: "Show aggregate validation metrics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(flags, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer s.Close()

			metrics := s.orchestrator.GetMetrics(cmd.Context(), cotc.TimeRange(timeRange), useCases...)
			if metrics == nil {
				return errors.New("metrics unavailable")
			}
			return writeJSON(cmd.OutOrStdout(), metrics)
		},
	}
	cmd.Flags().StringVar(&timeRange, "range", "24h", "time range (1h, 24h, 7d, 30d)")
	cmd.Flags().StringSliceVar(&useCases, "use-case", nil, "restrict to these use cases")
	return cmd
}
