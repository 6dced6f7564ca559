package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/thomas-vilte/matereview/internal/logger"
	"github.com/thomas-vilte/matereview/internal/models"
	"github.com/thomas-vilte/matereview/internal/services/cost"
)

// DefaultEstimatedOutputTokens is what a typical review answer costs.
const DefaultEstimatedOutputTokens = 2000

// CostEstimate is the pre-flight price of a review request.
type CostEstimate struct {
	Model         string
	InputTokens   int
	OutputTokens  int
	EstimatedCost float64
}

// CostEstimator prices a prompt before sending it and the real usage after.
type CostEstimator struct {
	counter               TokenCounter
	calculator            *cost.Calculator
	model                 string
	estimatedOutputTokens int
}

func NewCostEstimator(counter TokenCounter, calculator *cost.Calculator, model string, estimatedOutputTokens int) *CostEstimator {
	if calculator == nil {
		calculator = cost.NewCalculator()
	}
	if estimatedOutputTokens <= 0 {
		estimatedOutputTokens = DefaultEstimatedOutputTokens
	}
	return &CostEstimator{
		counter:               counter,
		calculator:            calculator,
		model:                 model,
		estimatedOutputTokens: estimatedOutputTokens,
	}
}

// CanEstimate reports whether a token counter is wired in.
func (e *CostEstimator) CanEstimate() bool {
	return e.counter != nil
}

// Estimate counts the prompt tokens and prices them with the expected answer size.
func (e *CostEstimator) Estimate(ctx context.Context, prompt string) (CostEstimate, error) {
	if e.counter == nil {
		return CostEstimate{}, fmt.Errorf("no token counter configured")
	}

	inputTokens, err := e.counter.CountTokens(ctx, prompt)
	if err != nil {
		return CostEstimate{}, fmt.Errorf("error counting tokens: %w", err)
	}

	estimate := CostEstimate{
		Model:         e.model,
		InputTokens:   inputTokens,
		OutputTokens:  e.estimatedOutputTokens,
		EstimatedCost: e.calculator.EstimateCost(e.model, inputTokens, e.estimatedOutputTokens),
	}

	logger.FromContext(ctx).Info("review cost estimate",
		"model", estimate.Model,
		"input_tokens", estimate.InputTokens,
		"output_tokens", estimate.OutputTokens,
		"estimated_cost_usd", estimate.EstimatedCost)

	return estimate, nil
}

// ApplyUsage fills the model, cost and duration of usage reported by the provider.
func (e *CostEstimator) ApplyUsage(usage *models.TokenUsage, elapsed time.Duration) {
	if usage == nil {
		return
	}
	usage.Model = e.model
	usage.CostUSD = e.calculator.EstimateCost(e.model, usage.InputTokens, usage.OutputTokens)
	usage.DurationMs = elapsed.Milliseconds()
}
