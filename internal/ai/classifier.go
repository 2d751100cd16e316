package ai

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"fintrack/internal/core"
)

// MaxHistoryInPrompt caps the history examples sent with a classification.
const MaxHistoryInPrompt = 10

// HistoryEntry is a past record used as a categorization hint.
type HistoryEntry struct {
	Description string
	Category    string
}

type Prediction struct {
	Category   string
	Confidence float64
	Reasoning  string
}

// FallbackPrediction is returned whenever classification fails.
var FallbackPrediction = Prediction{
	Category:   core.CategoryOther,
	Confidence: 0.3,
	Reasoning:  "Fallback categorization",
}

const (
	defaultConfidence = 0.5
	defaultReasoning  = "AI categorization"
)

type Classifier struct {
	completer Completer
}

func NewClassifier(c Completer) *Classifier {
	return &Classifier{completer: c}
}

// Classify suggests a category for a transaction. It never fails: any
// problem with the completion yields FallbackPrediction.
func (c *Classifier) Classify(ctx context.Context, description string, amount core.Money, history []HistoryEntry) Prediction {
	raw, err := complete(ctx, c.completer,
		"You are a financial categorization expert. Always respond with valid JSON only.",
		classifyPrompt(description, amount, history), 0.3, 200)
	if err != nil {
		slog.WarnContext(ctx, "Category prediction failed, using fallback", "error", err)
		return FallbackPrediction
	}

	o, err := decodeObject(raw)
	if err != nil {
		slog.WarnContext(ctx, "Category prediction unreadable, using fallback", "error", err)
		return FallbackPrediction
	}

	p := Prediction{Category: core.CategoryOther, Confidence: defaultConfidence, Reasoning: defaultReasoning}
	if cat, ok := o.str("category"); ok {
		p.Category = core.CoerceCategory(cat)
	}
	if conf, ok := o.number("confidence"); ok && conf > 0 {
		p.Confidence = min(conf, 1)
	}
	if reason, ok := o.str("reasoning"); ok {
		p.Reasoning = reason
	}
	return p
}

func classifyPrompt(description string, amount core.Money, history []HistoryEntry) string {
	var b strings.Builder
	b.WriteString("You are a financial assistant helping categorize transactions.\n\n")
	b.WriteString("Transaction details:\n")
	fmt.Fprintf(&b, "- Description: %q\n", description)
	fmt.Fprintf(&b, "- Amount: $%s\n", amount.Abs())

	if len(history) > 0 {
		b.WriteString("\nUser's recent transaction patterns:\n")
		for i, h := range history {
			if i == MaxHistoryInPrompt {
				break
			}
			fmt.Fprintf(&b, "- %q → %s\n", h.Description, h.Category)
		}
	}

	fmt.Fprintf(&b, "\nAvailable categories: %s\n\n", strings.Join(core.Categories, ", "))
	b.WriteString("Analyze this transaction and respond with a JSON object containing:\n")
	b.WriteString("- category: the most appropriate category from the list\n")
	b.WriteString("- confidence: a number between 0 and 1 indicating your confidence\n")
	b.WriteString("- reasoning: brief explanation (max 20 words)\n\n")
	b.WriteString("Respond ONLY with valid JSON, no additional text.")
	return b.String()
}
