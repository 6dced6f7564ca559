package review

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	cfg "github.com/thomas-vilte/matereview/internal/config"
	domainErrors "github.com/thomas-vilte/matereview/internal/errors"
	"github.com/thomas-vilte/matereview/internal/i18n"
	"github.com/thomas-vilte/matereview/internal/logger"
	"github.com/thomas-vilte/matereview/internal/models"
	"github.com/thomas-vilte/matereview/internal/output"
	"github.com/thomas-vilte/matereview/internal/ui"
	"github.com/thomas-vilte/matereview/internal/vcs"
	"github.com/urfave/cli/v3"
)

// ReviewService is the part of services.ReviewService the command needs.
type ReviewService interface {
	Review(ctx context.Context, ref models.PullRequestRef, progress func(models.ProgressEvent)) (models.ReviewReport, error)
}

// ReviewServiceProvider builds the service on demand, once flags are known.
type ReviewServiceProvider func(ctx context.Context, estimate cfg.EstimateMode) (ReviewService, error)

// PromptFunc asks the user for the missing parts of a pull request reference.
type PromptFunc func(ref models.PullRequestRef, t *i18n.Translations) (models.PullRequestRef, error)

type ReviewCommand struct {
	provider   ReviewServiceProvider
	prompt     PromptFunc
	isTerminal func() bool
	stdout     io.Writer
	stderr     io.Writer
}

type Option func(*ReviewCommand)

func WithPrompt(p PromptFunc) Option {
	return func(c *ReviewCommand) {
		c.prompt = p
	}
}

func WithTerminalCheck(fn func() bool) Option {
	return func(c *ReviewCommand) {
		c.isTerminal = fn
	}
}

func WithWriters(stdout, stderr io.Writer) Option {
	return func(c *ReviewCommand) {
		c.stdout = stdout
		c.stderr = stderr
	}
}

func NewReviewCommand(provider ReviewServiceProvider, opts ...Option) *ReviewCommand {
	c := &ReviewCommand{
		provider:   provider,
		prompt:     ui.PromptPullRequest,
		isTerminal: stdinIsTerminal,
		stdout:     os.Stdout,
		stderr:     os.Stderr,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func stdinIsTerminal() bool {
	fd := os.Stdin.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func (c *ReviewCommand) CreateCommand(t *i18n.Translations, config *cfg.Config) *cli.Command {
	return &cli.Command{
		Name:    "review",
		Aliases: []string{"r"},
		Usage:   t.GetMessage("review.command_usage", 0, nil),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "owner",
				Aliases: []string{"o"},
				Usage:   t.GetMessage("review.owner_usage", 0, nil),
			},
			&cli.StringFlag{
				Name:  "repo",
				Usage: t.GetMessage("review.repo_usage", 0, nil),
			},
			&cli.IntFlag{
				Name:    "pr",
				Aliases: []string{"n"},
				Usage:   t.GetMessage("review.pr_usage", 0, nil),
			},
			&cli.StringFlag{
				Name:    "url",
				Aliases: []string{"u"},
				Usage:   t.GetMessage("review.url_usage", 0, nil),
			},
			&cli.StringFlag{
				Name:  "repo-url",
				Usage: t.GetMessage("review.repo_url_usage", 0, nil),
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Value:   string(output.FormatText),
				Usage: t.GetMessage("review.format_usage", 0, map[string]interface{}{
					"Formats": strings.Join(output.SupportedFormats(), ", "),
				}),
			},
			&cli.StringFlag{
				Name:  "output",
				Usage: t.GetMessage("review.output_usage", 0, nil),
			},
			&cli.StringFlag{
				Name:  "estimate",
				Usage: t.GetMessage("review.estimate_usage", 0, nil),
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			err := c.run(ctx, cmd, t, config)
			if err != nil {
				ui.HandleAppError(c.stderr, err, t)
			}
			return err
		},
	}
}

func (c *ReviewCommand) run(ctx context.Context, cmd *cli.Command, t *i18n.Translations, config *cfg.Config) error {
	log := logger.FromContext(ctx)
	start := time.Now()

	writer, err := output.NewWriter(cmd.String("format"), output.LabelsFromTranslations(t))
	if err != nil {
		return err
	}

	estimate := config.Estimate
	if e := cmd.String("estimate"); e != "" {
		estimate = cfg.EstimateMode(strings.ToLower(e))
		switch estimate {
		case cfg.EstimateOff, cfg.EstimateAPI, cfg.EstimateLocal:
		default:
			return domainErrors.ErrInvalidConfig.WithContext("field", "estimate").
				WithSuggestion("Valid values: off, api, local")
		}
	}

	ref, err := c.resolveRef(cmd, t)
	if err != nil {
		return err
	}

	log.Info("executing review command",
		"pull_request", ref.String(),
		"format", cmd.String("format"),
		"estimate", string(estimate))

	service, err := c.provider(ctx, estimate)
	if err != nil {
		return err
	}

	spinner := ui.NewSmartSpinner(t.GetMessage("review.starting", 0, map[string]interface{}{"Ref": ref.String()}))
	spinner.Start()

	report, err := service.Review(ctx, ref, func(event models.ProgressEvent) {
		c.onProgress(spinner, event, t)
	})
	if err != nil {
		log.Error("review failed",
			"error", err,
			"duration_ms", time.Since(start).Milliseconds())
		spinner.Error(t.GetMessage("review.failed", 0, nil))
		return err
	}
	spinner.Success(t.GetMessage("review.done", 0, map[string]interface{}{"Ref": ref.String()}))

	if err := c.write(writer, report, cmd.String("output"), t); err != nil {
		return err
	}

	if report.Usage != nil {
		_, _ = fmt.Fprintln(c.stderr)
		ui.PrintTokenUsage(c.stderr, report.Usage, t)
	}

	log.Info("review command finished",
		"issues", len(report.Issues),
		"duration_ms", time.Since(start).Milliseconds())
	return nil
}

// resolveRef merges --url, --repo-url and the explicit flags, then falls back
// to the interactive form when something is missing and stdin is a terminal.
func (c *ReviewCommand) resolveRef(cmd *cli.Command, t *i18n.Translations) (models.PullRequestRef, error) {
	ref := models.PullRequestRef{
		Owner:  strings.TrimSpace(cmd.String("owner")),
		Repo:   strings.TrimSpace(cmd.String("repo")),
		Number: int(cmd.Int("pr")),
	}

	if raw := cmd.String("url"); raw != "" {
		return vcs.ParsePullRequestURL(raw)
	}

	if raw := cmd.String("repo-url"); raw != "" {
		owner, repo, err := vcs.ParseRepository(raw)
		if err != nil {
			return models.PullRequestRef{}, err
		}
		ref.Owner, ref.Repo = owner, repo
	}

	if err := ref.Validate(); err == nil {
		return ref, nil
	} else if !c.isTerminal() || c.prompt == nil {
		return models.PullRequestRef{}, err
	}

	prompted, err := c.prompt(ref, t)
	if err != nil {
		return models.PullRequestRef{}, err
	}
	return prompted, prompted.Validate()
}

func (c *ReviewCommand) onProgress(spinner *ui.SmartSpinner, event models.ProgressEvent, t *i18n.Translations) {
	switch event.Type {
	case models.ProgressRetrying:
		id := "review.progress.retrying"
		if final, _ := event.Data["final"].(bool); final {
			id = "review.progress.giving_up"
		}
		spinner.Log(ui.Warning.Sprint(t.GetMessage(id, 0, map[string]interface{}{
			"Attempt": event.Data["attempt"],
			"Max":     event.Data["max_attempts"],
			"Delay":   event.Data["delay"],
			"Error":   event.Message,
		})))
	case models.ProgressEstimating:
		if event.Data == nil {
			spinner.UpdateMessage(t.GetMessage("review.progress.estimating", 0, nil))
			return
		}
		input, _ := event.Data["input_tokens"].(int)
		outputTokens, _ := event.Data["output_tokens"].(int)
		cost, _ := event.Data["estimated_cost"].(float64)
		spinner.Stop()
		ui.PrintEstimate(c.stderr, input, outputTokens, cost, t)
		spinner.Start()
	default:
		spinner.UpdateMessage(t.GetMessage("review.progress."+string(event.Type), 0, event.Data))
	}
}

func (c *ReviewCommand) write(writer output.Writer, report models.ReviewReport, path string, t *i18n.Translations) error {
	if path == "" {
		return writer.Write(c.stdout, report)
	}

	f, err := os.Create(path)
	if err != nil {
		return domainErrors.NewAppError(domainErrors.TypeInternal, "could not create output file", err).
			WithContext("path", path)
	}
	defer func() { _ = f.Close() }()

	if err := writer.Write(f, report); err != nil {
		return domainErrors.NewAppError(domainErrors.TypeInternal, "could not write report", err)
	}
	ui.PrintSuccess(c.stderr, t.GetMessage("review.saved", 0, map[string]interface{}{"Path": path}))
	return nil
}
