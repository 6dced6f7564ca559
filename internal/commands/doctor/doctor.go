package doctor

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/thomas-vilte/matereview/internal/config"
	"github.com/thomas-vilte/matereview/internal/i18n"
	"github.com/thomas-vilte/matereview/internal/services/cost"
	"github.com/thomas-vilte/matereview/internal/ui"
	"github.com/urfave/cli/v3"
)

type DoctorCommand struct {
	out io.Writer
}

func NewDoctorCommand() *DoctorCommand {
	return &DoctorCommand{out: os.Stdout}
}

// WithOutput redirects the report, used by tests.
func (d *DoctorCommand) WithOutput(w io.Writer) *DoctorCommand {
	d.out = w
	return d
}

func (d *DoctorCommand) CreateCommand(t *i18n.Translations, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:    "doctor",
		Aliases: []string{"dr"},
		Usage:   t.GetMessage("doctor.command_usage", 0, nil),
		Action: func(ctx context.Context, command *cli.Command) error {
			return d.runHealthCheck(ctx, t, cfg)
		},
	}
}

type healthCheck struct {
	name string
	fn   func(context.Context, *i18n.Translations, *config.Config) checkResult
}

type checkStatus int

const (
	checkStatusOK checkStatus = iota
	checkStatusWarning
	checkStatusError
)

type checkResult struct {
	status     checkStatus
	message    string
	suggestion string
}

func (d *DoctorCommand) runHealthCheck(ctx context.Context, t *i18n.Translations, cfg *config.Config) error {
	ui.PrintSectionBanner(d.out, t.GetMessage("doctor.running_checks", 0, nil))

	checks := []healthCheck{
		{name: "doctor.check_config_file", fn: d.checkConfigFile},
		{name: "doctor.check_github_token", fn: d.checkGitHubToken},
		{name: "doctor.check_gemini_key", fn: d.checkGeminiAPIKey},
		{name: "doctor.check_model", fn: d.checkModel},
		{name: "doctor.check_endpoints", fn: d.checkEndpoints},
		{name: "doctor.check_retry", fn: d.checkRetry},
	}

	var warnings, failures int
	for _, check := range checks {
		checkName := t.GetMessage(check.name, 0, nil)
		result := check.fn(ctx, t, cfg)

		switch result.status {
		case checkStatusOK:
			ui.PrintSuccess(d.out, checkName)
		case checkStatusWarning:
			ui.PrintWarning(d.out, checkName)
			warnings++
		case checkStatusError:
			ui.PrintError(d.out, checkName)
			failures++
		}
		if result.message != "" {
			ui.PrintInfo(d.out, "  "+result.message)
		}
		if result.suggestion != "" {
			_, _ = fmt.Fprintf(d.out, "   → %s\n", result.suggestion)
		}
	}

	ui.PrintSectionBanner(d.out, t.GetMessage("doctor.summary", 0, nil))
	switch {
	case failures > 0:
		ui.PrintError(d.out, t.GetMessage("doctor.has_errors", 0, nil))
	case warnings > 0:
		ui.PrintWarning(d.out, t.GetMessage("doctor.has_warnings", 0, nil))
	default:
		ui.PrintSuccess(d.out, t.GetMessage("doctor.all_good", 0, nil))
	}

	return nil
}

func (d *DoctorCommand) checkConfigFile(_ context.Context, t *i18n.Translations, cfg *config.Config) checkResult {
	if cfg.PathFile == "" {
		return checkResult{
			status:     checkStatusWarning,
			message:    t.GetMessage("doctor.config_not_found", 0, nil),
			suggestion: t.GetMessage("doctor.config_optional", 0, map[string]interface{}{"Path": config.DefaultConfigPath()}),
		}
	}
	return checkResult{
		status:  checkStatusOK,
		message: fmt.Sprintf("(%s)", cfg.PathFile),
	}
}

func (d *DoctorCommand) checkGitHubToken(_ context.Context, t *i18n.Translations, cfg *config.Config) checkResult {
	if cfg.GitHubToken == "" {
		return checkResult{
			status:     checkStatusError,
			message:    t.GetMessage("doctor.github_not_configured", 0, nil),
			suggestion: t.GetMessage("doctor.set_github_token", 0, nil),
		}
	}
	return checkResult{
		status:  checkStatusOK,
		message: maskSecret(cfg.GitHubToken),
	}
}

func (d *DoctorCommand) checkGeminiAPIKey(_ context.Context, t *i18n.Translations, cfg *config.Config) checkResult {
	if cfg.GeminiAPIKey == "" {
		return checkResult{
			status:     checkStatusError,
			message:    t.GetMessage("doctor.gemini_not_configured", 0, nil),
			suggestion: t.GetMessage("doctor.set_gemini_key", 0, nil),
		}
	}
	return checkResult{
		status:  checkStatusOK,
		message: maskSecret(cfg.GeminiAPIKey),
	}
}

func (d *DoctorCommand) checkModel(_ context.Context, t *i18n.Translations, cfg *config.Config) checkResult {
	if _, ok := cost.NewCalculator().GetPricing(cfg.Model); !ok {
		return checkResult{
			status:     checkStatusWarning,
			message:    cfg.Model,
			suggestion: t.GetMessage("doctor.model_unpriced", 0, nil),
		}
	}
	return checkResult{
		status:  checkStatusOK,
		message: fmt.Sprintf("%s (%s)", cfg.Model, cfg.Language),
	}
}

func (d *DoctorCommand) checkEndpoints(_ context.Context, _ *i18n.Translations, cfg *config.Config) checkResult {
	return checkResult{
		status:  checkStatusOK,
		message: fmt.Sprintf("GitHub %s | Gemini %s", cfg.GitHubAPIURL, cfg.GeminiAPIURL),
	}
}

func (d *DoctorCommand) checkRetry(_ context.Context, t *i18n.Translations, cfg *config.Config) checkResult {
	return checkResult{
		status: checkStatusOK,
		message: t.GetMessage("doctor.retry_details", 0, map[string]interface{}{
			"Attempts": cfg.MaxAttempts,
			"Backoff":  cfg.InitialBackoff.String(),
			"Timeout":  cfg.CompletionTimeout.String(),
			"Estimate": string(cfg.Estimate),
		}),
	}
}

// maskSecret keeps the first and last four characters.
func maskSecret(s string) string {
	if len(s) <= 8 {
		return strings.Repeat("*", len(s))
	}
	return s[:4] + strings.Repeat("*", len(s)-8) + s[len(s)-4:]
}
