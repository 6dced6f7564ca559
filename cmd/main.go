package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/thomas-vilte/matereview/internal/ai"
	"github.com/thomas-vilte/matereview/internal/ai/gemini"
	"github.com/thomas-vilte/matereview/internal/ai/tokens"
	"github.com/thomas-vilte/matereview/internal/cli/registry"
	"github.com/thomas-vilte/matereview/internal/commands/doctor"
	"github.com/thomas-vilte/matereview/internal/commands/review"
	cfg "github.com/thomas-vilte/matereview/internal/config"
	"github.com/thomas-vilte/matereview/internal/i18n"
	"github.com/thomas-vilte/matereview/internal/logger"
	"github.com/thomas-vilte/matereview/internal/services"
	"github.com/thomas-vilte/matereview/internal/services/cost"
	"github.com/thomas-vilte/matereview/internal/ui"
	"github.com/thomas-vilte/matereview/internal/vcs/github"
	"github.com/thomas-vilte/matereview/internal/version"
	"github.com/urfave/cli/v3"
)

func main() {
	app, err := initializeApp()
	if err != nil {
		log.Fatalf("error starting mate-review: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, os.Args); err != nil {
		stop()
		os.Exit(1)
	}
}

func initializeApp() (*cli.Command, error) {
	// Usage strings are rendered before flags are parsed, so the language
	// comes from a quiet first load. The real load happens in Before.
	appConfig := cfg.Default()
	if pre, err := cfg.Load(cfg.LoadOptions{}); err == nil {
		*appConfig = *pre
	}

	translations, err := i18n.NewTranslations(cfg.GetLocaleConfig(appConfig.Language), "")
	if err != nil {
		return nil, err
	}

	registerCommand := registry.NewRegistry(appConfig, translations)

	if err := registerCommand.Register("review", review.NewReviewCommand(newReviewServiceProvider(appConfig))); err != nil {
		return nil, err
	}
	if err := registerCommand.Register("doctor", doctor.NewDoctorCommand()); err != nil {
		return nil, err
	}

	commands := registerCommand.CreateCommands()

	helpCommand := &cli.Command{
		Name:    "help",
		Aliases: []string{"h"},
		Usage:   translations.GetMessage("help_command_usage", 0, nil),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return cli.ShowAppHelp(cmd.Root())
		},
	}
	commands = append(commands, helpCommand)

	return &cli.Command{
		Name:        "mate-review",
		Usage:       translations.GetMessage("app_usage", 0, nil),
		Version:     version.Version,
		Description: translations.GetMessage("app_description", 0, nil),
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "debug",
				Usage: translations.GetMessage("flags.debug", 0, nil),
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: translations.GetMessage("flags.verbose", 0, nil),
			},
			&cli.StringFlag{
				Name:    "lang",
				Aliases: []string{"l"},
				Usage:   translations.GetMessage("flags.lang", 0, nil),
			},
			&cli.StringFlag{
				Name:  "model",
				Usage: translations.GetMessage("flags.model", 0, nil),
			},
			&cli.StringFlag{
				Name:  "config",
				Usage: translations.GetMessage("flags.config", 0, nil),
			},
			&cli.StringFlag{
				Name:  "env-file",
				Usage: translations.GetMessage("flags.env_file", 0, nil),
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			loaded, err := cfg.Load(cfg.LoadOptions{
				ConfigFile: cmd.String("config"),
				EnvFile:    cmd.String("env-file"),
				Language:   cmd.String("lang"),
				Model:      cmd.String("model"),
			})
			if err != nil {
				ui.HandleAppError(os.Stderr, err, translations)
				return ctx, err
			}
			*appConfig = *loaded
			_ = translations.SetLanguage(appConfig.Language)

			logger.Initialize(cmd.Bool("debug"), cmd.Bool("verbose"))
			log := logger.FromContext(ctx).With("version", version.FullVersion())
			log.Debug("configuration loaded",
				"config_file", appConfig.PathFile,
				"model", appConfig.Model,
				"language", appConfig.Language,
				"estimate", string(appConfig.Estimate))
			return logger.WithLogger(ctx, log), nil
		},
		Commands:              commands,
		EnableShellCompletion: true,
	}, nil
}

// newReviewServiceProvider assembles the review pipeline once the command
// knows which estimate mode was asked for.
func newReviewServiceProvider(appConfig *cfg.Config) review.ReviewServiceProvider {
	return func(ctx context.Context, estimate cfg.EstimateMode) (review.ReviewService, error) {
		ghClient, err := github.NewGitHubClient(appConfig)
		if err != nil {
			return nil, err
		}

		var counter ai.TokenCounter
		switch estimate {
		case cfg.EstimateAPI:
			c, err := gemini.NewTokenCounter(ctx, appConfig)
			if err != nil {
				return nil, err
			}
			counter = c
		case cfg.EstimateLocal:
			counter = tokens.NewLocalCounter()
		}

		return services.NewReviewService(
			services.WithPullRequestReader(ghClient),
			services.WithCompletionClient(gemini.NewCompletionClient(appConfig)),
			services.WithCostEstimator(ai.NewCostEstimator(counter, cost.NewCalculator(), appConfig.Model, ai.DefaultEstimatedOutputTokens)),
			services.WithReviewConfig(appConfig),
		), nil
	}
}
