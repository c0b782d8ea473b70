package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	cli "github.com/urfave/cli/v3"

	"github.com/postpilot/postpilot/pkg/config"
	"github.com/postpilot/postpilot/pkg/llm"
	"github.com/postpilot/postpilot/pkg/log"
	"github.com/postpilot/postpilot/pkg/persistence"
	"github.com/postpilot/postpilot/pkg/persistence/file"
	"github.com/postpilot/postpilot/pkg/scheduler"
	"github.com/postpilot/postpilot/pkg/source"
	"github.com/postpilot/postpilot/pkg/workflow"
)

func main() {
	command := &cli.Command{
		Name:                  "postpilot",
		EnableShellCompletion: true,
		Usage:                 "Content-ideation pipeline for growing a social media account",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the YAML configuration file",
				Value:   "",
				Sources: cli.EnvVars("POSTPILOT_CONFIG"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Commands: []*cli.Command{
			runCommand(),
			scheduleCommand(),
		},
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := command.Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runCommand() *cli.Command {
	return &cli.Command{
		Name:      "run",
		Usage:     "Run the pipeline once for a creator goal",
		ArgsUsage: "\"I want to start a fitness account\"",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "run-id",
				Usage: "Custom run ID (auto-generated if not provided)",
				Value: "",
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			userInput := command.Args().First()
			if userInput == "" {
				return fmt.Errorf("a creator goal is required, e.g. postpilot run %q",
					"I want to start a fitness account")
			}

			env, err := setup(ctx, command)
			if err != nil {
				return err
			}
			defer env.close(ctx)

			result, err := env.pipeline.Run(ctx, userInput, command.String("run-id"))
			if err != nil {
				return err
			}

			return printResult(result)
		},
	}
}

func scheduleCommand() *cli.Command {
	return &cli.Command{
		Name:  "schedule",
		Usage: "Run the pipeline periodically on a cron schedule",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "cron",
				Usage:   "Cron expression, overrides the configuration file",
				Value:   "",
				Sources: cli.EnvVars("POSTPILOT_CRON"),
			},
			&cli.StringFlag{
				Name:    "input",
				Usage:   "Creator goal for scheduled runs, overrides the configuration file",
				Value:   "",
				Sources: cli.EnvVars("POSTPILOT_INPUT"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			env, err := setup(ctx, command)
			if err != nil {
				return err
			}
			defer env.close(ctx)

			expression := command.String("cron")
			if expression == "" {
				expression = env.cfg.Scheduler.CronExpression
			}

			userInput := command.String("input")
			if userInput == "" {
				userInput = env.cfg.Scheduler.Input
			}

			if expression == "" || userInput == "" {
				return fmt.Errorf("scheduling needs both a cron expression and a creator goal")
			}

			runner := scheduler.New(env.logger)

			err = runner.AddJob("content-ideation", expression, func(jobCtx context.Context) error {
				result, runErr := env.pipeline.Run(jobCtx, userInput, "")
				if runErr != nil {
					return runErr
				}

				return printResult(result)
			})
			if err != nil {
				return err
			}

			runner.Start()
			env.logger.InfoContext(ctx, "Scheduler started", "cron", expression)

			<-ctx.Done()
			<-runner.Stop().Done()

			return nil
		},
	}
}

type environment struct {
	cfg      config.Config
	logger   *slog.Logger
	pipeline *workflow.Pipeline
	source   source.ContentSource
}

func setup(ctx context.Context, command *cli.Command) (*environment, error) {
	log.Setup(command.String("log-level"))
	logger := log.WithModule("postpilot")

	cfg, err := config.Load(command.String("config"))
	if err != nil {
		return nil, err
	}

	contentSource, err := buildSource(cfg)
	if err != nil {
		return nil, err
	}

	checkpointer, err := buildCheckpointer(cfg)
	if err != nil {
		return nil, err
	}

	pipeline, err := workflow.NewPipeline(ctx, workflow.Dependencies{
		LLM:               llm.NewHTTPClient(cfg.LLM),
		Source:            contentSource,
		SourceLimit:       cfg.Source.Limit,
		MaxSelectedPosts:  cfg.Pipeline.MaxSelectedPosts,
		FilterConcurrency: cfg.Pipeline.FilterConcurrency,
		Logger:            logger,
	}, checkpointer)
	if err != nil {
		return nil, err
	}

	return &environment{
		cfg:      cfg,
		logger:   logger,
		pipeline: pipeline,
		source:   contentSource,
	}, nil
}

func (e *environment) close(ctx context.Context) {
	if err := e.source.Shutdown(ctx); err != nil {
		e.logger.Warn("Failed to shut down content source", "error", err)
	}

	if err := e.pipeline.Close(); err != nil {
		e.logger.Warn("Failed to close pipeline", "error", err)
	}
}

func buildSource(cfg config.Config) (source.ContentSource, error) {
	switch cfg.Source.Mode {
	case config.SourceModeBrowser:
		return source.NewBrowserSource(cfg.Source.Browser), nil
	case config.SourceModeMock:
		return source.NewMockSource(), nil
	default:
		return nil, fmt.Errorf("unknown source mode %q", cfg.Source.Mode)
	}
}

func buildCheckpointer(cfg config.Config) (persistence.Checkpointer, error) {
	if cfg.DataPath == "" {
		return persistence.Noop{}, nil
	}

	return file.NewCheckpointer(cfg.DataPath)
}

func printResult(result workflow.FinalResult) error {
	payload, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}

	fmt.Println(string(payload))

	return nil
}
