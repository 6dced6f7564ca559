package cost

import (
	"sort"
	"strings"
)

type PricingTable struct {
	InputPricePerMillion  float64
	OutputPricePerMillion float64
}

// https://ai.google.dev/gemini-api/docs/pricing
var geminiPricing = map[string]PricingTable{
	"gemini-1.5-flash":       {InputPricePerMillion: 0.075, OutputPricePerMillion: 0.30},
	"gemini-1.5-pro":         {InputPricePerMillion: 1.25, OutputPricePerMillion: 5.00},
	"gemini-2.0-flash":       {InputPricePerMillion: 0.10, OutputPricePerMillion: 0.40},
	"gemini-2.5-flash":       {InputPricePerMillion: 0.30, OutputPricePerMillion: 2.50},
	"gemini-2.5-flash-lite":  {InputPricePerMillion: 0.10, OutputPricePerMillion: 0.40},
	"gemini-2.5-pro":         {InputPricePerMillion: 1.25, OutputPricePerMillion: 10.00},
	"gemini-3-flash-preview": {InputPricePerMillion: 0.50, OutputPricePerMillion: 3.00},
	"gemini-3-pro-preview":   {InputPricePerMillion: 2.00, OutputPricePerMillion: 12.00},
}

// Calculator prices Gemini calls. Each Calculator owns a copy of the table,
// so AddPricing never leaks between instances.
type Calculator struct {
	pricing map[string]PricingTable
}

func NewCalculator() *Calculator {
	table := make(map[string]PricingTable, len(geminiPricing))
	for model, p := range geminiPricing {
		table[model] = p
	}
	return &Calculator{pricing: table}
}

// EstimateCost returns the USD cost of a call, or 0 for unknown models.
func (c *Calculator) EstimateCost(model string, inputTokens, outputTokens int) float64 {
	p, ok := c.GetPricing(model)
	if !ok {
		return 0
	}

	inputCost := (float64(inputTokens) / 1_000_000) * p.InputPricePerMillion
	outputCost := (float64(outputTokens) / 1_000_000) * p.OutputPricePerMillion

	return inputCost + outputCost
}

// GetPricing looks the model up exactly first, then by the longest known
// model name it starts with ("gemini-2.5-flash-001" prices as "gemini-2.5-flash").
func (c *Calculator) GetPricing(model string) (PricingTable, bool) {
	model = strings.ToLower(strings.TrimPrefix(model, "models/"))

	if p, ok := c.pricing[model]; ok {
		return p, true
	}

	names := make([]string, 0, len(c.pricing))
	for name := range c.pricing {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return len(names[i]) > len(names[j]) })

	for _, name := range names {
		if strings.HasPrefix(model, name) {
			return c.pricing[name], true
		}
	}
	return PricingTable{}, false
}

// AddPricing registers or overrides a model price.
func (c *Calculator) AddPricing(model string, table PricingTable) {
	c.pricing[strings.ToLower(model)] = table
}
