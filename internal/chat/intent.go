package chat

import (
	"context"
	"fmt"

	"github.com/coachly/coachly/internal/log"
)

// Category is a coarse classification of a raw user message.
type Category string

const (
	CategoryNutrition    Category = "nutrition_question"
	CategoryWorkout      Category = "workout_question"
	CategoryProgress     Category = "progress_tracking"
	CategoryMotivation   Category = "motivation"
	CategoryConversation Category = "general_conversation"
)

// Classification is the router's verdict for one message.
type Classification struct {
	Category   Category `json:"category"`
	Confidence float64  `json:"confidence"`
	Rationale  string   `json:"rationale,omitempty"`
}

const classifyPrompt = `Classify the user message into exactly one category:
nutrition_question, workout_question, progress_tracking, motivation, general_conversation.
Respond with a single line of JSON: {"category": "<category>", "confidence": <0..1>, "rationale": "<short reason>"}.
No other text.`

// Router pre-classifies user messages so the right system prompt can be
// selected before the main model call. Classification is best-effort: any
// failure degrades to general conversation rather than failing the turn.
type Router struct {
	transport Transport
	parser    *Parser
	logger    log.Logger
}

// NewRouter creates a Router.
func NewRouter(transport Transport, parser *Parser, logger log.Logger) *Router {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Router{transport: transport, parser: parser, logger: logger}
}

// Classify issues a single non-streaming model call with a fixed
// classification prompt and parses the response with the same tolerant
// JSON-extraction discipline as the tool-intent parser. Malformed output
// maps to {general_conversation, 0.4}; a transport error maps to
// {general_conversation, 0.0}. Never returns an error.
func (r *Router) Classify(ctx context.Context, rawMessage string) Classification {
	msgs := []Message{
		NewTextMessage(RoleSystem, classifyPrompt),
		NewTextMessage(RoleUser, rawMessage),
	}

	chunk, err := r.transport.InvokeOnce(ctx, msgs)
	if err != nil {
		r.logger.Warn("intent classification transport failed", "error", err)
		return Classification{Category: CategoryConversation, Confidence: 0.0}
	}

	raw := chunk.TextContent()
	obj := r.parser.ParseJSON(raw)
	if obj == nil {
		obj = r.parser.FallbackJSONExtract(raw)
	}
	if obj == nil {
		r.logger.Debug("intent classification output unparseable", "output_len", len(raw))
		return Classification{Category: CategoryConversation, Confidence: 0.4}
	}

	c := Classification{
		Category:  normalizeCategory(stringField(obj, "category")),
		Rationale: stringField(obj, "rationale"),
	}
	if conf, ok := obj["confidence"].(float64); ok && conf >= 0 && conf <= 1 {
		c.Confidence = conf
	} else {
		c.Confidence = 0.4
	}
	return c
}

// normalizeCategory maps arbitrary model output onto the five known
// categories, defaulting to general conversation.
func normalizeCategory(s string) Category {
	switch Category(s) {
	case CategoryNutrition, CategoryWorkout, CategoryProgress, CategoryMotivation, CategoryConversation:
		return Category(s)
	default:
		return CategoryConversation
	}
}

// MapCategoryToPlan translates the five categories into one of the four
// downstream plan contexts. Total function: unknown categories land on the
// general plan.
func MapCategoryToPlan(c Category) Plan {
	switch c {
	case CategoryNutrition:
		return PlanNutrition
	case CategoryWorkout:
		return PlanWorkout
	case CategoryProgress:
		return PlanMetrics
	default:
		return PlanGeneral
	}
}

// String implements fmt.Stringer for logging.
func (c Classification) String() string {
	return fmt.Sprintf("%s (%.2f)", c.Category, c.Confidence)
}
