package errors

import "fmt"

// ErrorType defines the category of the error
type ErrorType string

const (
	TypeConfiguration ErrorType = "CONFIGURATION"
	TypeValidation    ErrorType = "VALIDATION"
	TypeVCS           ErrorType = "VCS"
	TypeAI            ErrorType = "AI"
	TypeInternal      ErrorType = "INTERNAL"
)

// AppError represents a domain-level error with a type and an underlying error
type AppError struct {
	Type       ErrorType
	Message    string
	Context    map[string]interface{}
	Err        error
	Suggestion string
	// Diagnostic holds the raw remote payload that caused the error, if any.
	Diagnostic string
}

func (e *AppError) Error() string {
	var msg string
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %s (%v)", e.Type, e.Message, e.Err)
	} else {
		msg = fmt.Sprintf("%s: %s", e.Type, e.Message)
	}

	if e.Context != nil {
		if field, ok := e.Context["field"].(string); ok && field != "" {
			msg += fmt.Sprintf(" - %s", field)
		}
	}

	return msg
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is reports whether target is an AppError of the same type and message,
// so the package-level sentinels keep matching after WithError/WithContext.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Type == t.Type && e.Message == t.Message
}

func (e *AppError) clone() *AppError {
	return &AppError{
		Type:       e.Type,
		Message:    e.Message,
		Context:    e.Context,
		Err:        e.Err,
		Suggestion: e.Suggestion,
		Diagnostic: e.Diagnostic,
	}
}

// WithError creates a new AppError with an underlying error
func (e *AppError) WithError(err error) *AppError {
	c := e.clone()
	c.Err = err
	return c
}

// WithContext creates a new AppError with additional context
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	ctx := make(map[string]interface{})
	for k, v := range e.Context {
		ctx[k] = v
	}
	ctx[key] = value
	c := e.clone()
	c.Context = ctx
	return c
}

func (e *AppError) WithSuggestion(suggestion string) *AppError {
	c := e.clone()
	c.Suggestion = suggestion
	return c
}

// WithDiagnostic attaches the raw payload that should be shown to the user.
func (e *AppError) WithDiagnostic(raw string) *AppError {
	c := e.clone()
	c.Diagnostic = raw
	return c
}

// NewAppError creates a new AppError
func NewAppError(t ErrorType, msg string, err error) *AppError {
	return &AppError{
		Type:    t,
		Message: msg,
		Err:     err,
	}
}

// Validation errors
var (
	ErrInvalidPullRequestRef = NewAppError(TypeValidation, "Incomplete pull request reference", nil).
					WithSuggestion("Provide the repository owner, the repository name and a PR number >= 1")

	ErrInvalidPullRequestURL = NewAppError(TypeValidation, "Not a GitHub pull request URL", nil).
					WithSuggestion("Use the form: https://github.com/<owner>/<repo>/pull/<number>")

	ErrInvalidRepositoryURL = NewAppError(TypeValidation, "Could not parse repository URL", nil).
				WithSuggestion("Use owner/repo, https://github.com/<owner>/<repo> or git@github.com:<owner>/<repo>.git")

	ErrUnsupportedFormat = NewAppError(TypeValidation, "Unsupported output format", nil).
				WithSuggestion("Valid formats: text, markdown, json, html")
)

// Configuration errors
var (
	ErrGitHubTokenMissing = NewAppError(TypeConfiguration, "GitHub token is missing", nil).
				WithSuggestion("Export GITHUB_TOKEN or add it to your .env file")

	ErrGeminiAPIKeyMissing = NewAppError(TypeConfiguration, "Gemini API key is missing", nil).
				WithSuggestion("Export GEMINI_API_KEY or add it to your .env file")

	ErrInvalidConfig = NewAppError(TypeConfiguration, "Configuration is invalid", nil)

	ErrConfigFile = NewAppError(TypeConfiguration, "Failed to read configuration file", nil).
			WithSuggestion("Check the path passed to --config and that the file is valid TOML")
)

// VCS errors
var (
	ErrRemoteFetch = NewAppError(TypeVCS, "Failed to fetch pull request data from GitHub", nil).
			WithSuggestion("Check your network connection and that the pull request exists")
)

// Suggestions attached to ErrRemoteFetch depending on the HTTP status GitHub returned.
const (
	SuggestionGitHubTokenInvalid = "Generate a new token at: https://github.com/settings/tokens"
	SuggestionRepositoryNotFound = "Check the owner, repository and PR number, and that your token can read the repository"
	SuggestionGitHubRateLimit    = "Wait a few minutes or use a personal access token for higher limits"
)

// AI errors
var (
	ErrRemoteCallExhausted = NewAppError(TypeAI, "Gemini request failed on every attempt", nil).
				WithSuggestion("Wait a few minutes and try again, or check your API quota")

	ErrMalformedEnvelope = NewAppError(TypeAI, "Gemini response has an unexpected shape", nil).
				WithSuggestion("This is likely a temporary issue, please try again")

	ErrMalformedPayload = NewAppError(TypeAI, "Gemini returned a review that is not valid JSON", nil).
				WithSuggestion("This is likely a temporary issue, please try again")

	ErrBuildPrompt = NewAppError(TypeInternal, "Failed to build review prompt", nil)

	ErrBuildRequest = NewAppError(TypeInternal, "Failed to build Gemini request", nil).
				WithSuggestion("Check MATE_REVIEW_GEMINI_API_URL and the model name")
)
