package remote

import (
	"fmt"
	"sort"
	"strings"

	"FinInfer/internal/domain/models"
)

// buildPrompt renders the sanitized inputs as a structured analysis request.
// The response format is pinned to a strict JSON object so parsing stays
// deterministic.
func buildPrompt(snapshot models.MarketSnapshot, features models.FeatureVector, sentiment, onChain map[string]any) string {
	var b strings.Builder

	b.WriteString("You are a professional quantitative crypto trading assistant. ")
	b.WriteString("Based on the data below, produce a trading recommendation.\n\n")

	b.WriteString("## Market Data\n")
	fmt.Fprintf(&b, "- Pair: %s\n", snapshot.Symbol)
	fmt.Fprintf(&b, "- Current price: $%.2f\n", snapshot.Price)
	fmt.Fprintf(&b, "- 24h high: $%.2f\n", snapshot.High24h)
	fmt.Fprintf(&b, "- 24h low: $%.2f\n", snapshot.Low24h)
	fmt.Fprintf(&b, "- 24h volume: $%.0f\n", snapshot.Volume24h)

	b.WriteString("\n## Technical Indicators\n")
	names := make([]string, 0, len(features))
	for name := range features {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(&b, "- %s: %.2f\n", name, features[name])
	}

	if len(sentiment) > 0 {
		b.WriteString("\n## Market Sentiment\n")
		writeSection(&b, sentiment)
	}
	if len(onChain) > 0 {
		b.WriteString("\n## On-Chain Data\n")
		writeSection(&b, onChain)
	}

	b.WriteString(`
## Task
Weigh all of the data above across short, medium, and long horizons,
identify key support/resistance, and give a clear risk-controlled
recommendation.

## Output Format
Respond with a single valid JSON object containing exactly these fields:
{
    "signal": "BUY" or "SELL" or "HOLD",
    "confidence": number between 0.0 and 1.0,
    "position_size": number between 0.0 and 1.0 (fraction of account),
    "stop_loss": stop-loss price (number or null),
    "take_profit": take-profit price (number or null),
    "reasoning": "concise analysis combining technicals, sentiment and flows"
}
`)

	return b.String()
}

func writeSection(b *strings.Builder, data map[string]any) {
	keys := make([]string, 0, len(data))
	for key := range data {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Fprintf(b, "- %s: %v\n", key, data[key])
	}
}
