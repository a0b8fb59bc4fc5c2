package usage

import "strings"

// modelPrice is USD per million tokens. Published rates drift; every output
// of EstimateCost is an approximation, never billing truth.
type modelPrice struct {
	prompt     float64
	completion float64
}

var modelPrices = map[string]modelPrice{
	// OpenAI
	"gpt-4o":        {5.00, 15.00},
	"gpt-4o-mini":   {0.15, 0.60},
	"gpt-4.1":       {2.00, 8.00},
	"gpt-4.1-mini":  {0.40, 1.60},
	"gpt-4-turbo":   {10.00, 30.00},
	"gpt-3.5-turbo": {0.50, 1.50},
	"o3":            {2.00, 8.00},
	// Anthropic
	"claude-3-5-sonnet": {3.00, 15.00},
	"claude-3-opus":     {15.00, 75.00},
	"claude-3-haiku":    {0.25, 1.25},
	"claude-sonnet-4":   {3.00, 15.00},
	"claude-opus-4":     {15.00, 75.00},
	// Google
	"gemini-1.5-pro":   {1.25, 5.00},
	"gemini-1.5-flash": {0.075, 0.30},
	"gemini-2.0-flash": {0.10, 0.40},
}

// EstimateCost returns the approximate USD cost of a request. Model names
// resolve by exact match first, then by the longest known prefix, so dated
// releases ("gpt-4o-2024-08-06") share their family's rate and gateway-style
// names ("openai/gpt-4o") drop the provider segment. False when the model
// is unknown.
func EstimateCost(model string, promptTokens, completionTokens int) (float64, bool) {
	name := strings.ToLower(strings.TrimSpace(model))
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	if name == "" {
		return 0, false
	}

	price, ok := modelPrices[name]
	if !ok {
		bestLen := 0
		for prefix, p := range modelPrices {
			if strings.HasPrefix(name, prefix) && len(prefix) > bestLen {
				price, bestLen = p, len(prefix)
			}
		}
		if bestLen == 0 {
			return 0, false
		}
	}

	const million = 1_000_000
	return float64(promptTokens)/million*price.prompt +
		float64(completionTokens)/million*price.completion, true
}
