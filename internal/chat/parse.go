package chat

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/coachly/coachly/internal/log"
)

// fallbackAssistantResponse is substituted when the model's structured
// output carries no usable answer text.
const fallbackAssistantResponse = "I'm sorry, I couldn't put together a proper answer just now. Could you try rephrasing that?"

// Parser extracts structured tool-call intent from noisy model text output.
// Every method recovers locally: malformed input yields a nil result or a
// fallback intent, never an error or panic, and each recovery is counted so
// fallback rates stay observable.
type Parser struct {
	logger  log.Logger
	metrics *Metrics
}

// NewParser creates a Parser. metrics may be nil to disable counting.
func NewParser(logger log.Logger, metrics *Metrics) *Parser {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Parser{logger: logger, metrics: metrics}
}

// fence strips a leading ```json or ``` fence and a trailing ``` fence,
// case-insensitively.
var (
	openFenceRe  = regexp.MustCompile(`(?i)^\x60{3}(?:json)?\s*`)
	closeFenceRe = regexp.MustCompile("\x60{3}\\s*$")
)

// ParseJSON extracts a JSON object from raw model text. It tolerates
// markdown fences and prose before or after the object by slicing between
// the first '{' and last '}'. Returns nil when no well-formed non-null
// object can be extracted; callers must treat nil as "no structured intent"
// and fall back to the raw text.
func (p *Parser) ParseJSON(raw string) map[string]any {
	s := strings.TrimSpace(raw)
	s = openFenceRe.ReplaceAllString(s, "")
	s = closeFenceRe.ReplaceAllString(s, "")

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end == -1 || end < start {
		p.logger.Debug("no JSON object boundaries in model output", "length", len(raw))
		return nil
	}

	var obj map[string]any
	if err := json.Unmarshal([]byte(s[start:end+1]), &obj); err != nil {
		p.logger.Debug("model output is not valid JSON", "error", err)
		return nil
	}
	if obj == nil {
		p.logger.Debug("model output parsed to null, rejecting")
		return nil
	}
	return obj
}

// fallbackPatterns are tried in order when bracket slicing was defeated,
// e.g. by nested braces inside prose. Patterns anchored on known field
// names come first; a generic object match is last resort.
var fallbackPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\{[^{}]*"needs_tool"[\s\S]*?\}`),
	regexp.MustCompile(`\{[^{}]*"tool_name"[\s\S]*?\}`),
	regexp.MustCompile(`\{[^{}]*"category"[\s\S]*?\}`),
	regexp.MustCompile(`\{[\s\S]*\}`),
}

// FallbackJSONExtract is the secondary, regex-based extraction path. The
// first pattern whose match parses as a JSON object wins; no match returns
// nil.
func (p *Parser) FallbackJSONExtract(raw string) map[string]any {
	for _, re := range fallbackPatterns {
		m := re.FindString(raw)
		if m == "" {
			continue
		}
		var obj map[string]any
		if err := json.Unmarshal([]byte(m), &obj); err != nil || obj == nil {
			continue
		}
		return obj
	}
	return nil
}

// ParseToolCallResponse turns raw model output into a ToolCallIntent. It
// never fails: on unparseable input the raw text (or a generic fallback)
// becomes the assistant response, and the two intent invariants are
// enforced with their own fallbacks:
//
//   - needs_tool without a tool name is coerced to a direct response
//   - a direct response without text gets the generic fallback string
func (p *Parser) ParseToolCallResponse(raw string) ToolCallIntent {
	obj := p.ParseJSON(raw)
	if obj == nil {
		obj = p.FallbackJSONExtract(raw)
	}
	if obj == nil {
		p.countFallback("unparseable")
		resp := strings.TrimSpace(raw)
		if resp == "" {
			resp = fallbackAssistantResponse
		}
		return ToolCallIntent{AssistantResponse: resp}
	}

	intent := ToolCallIntent{
		NeedsTool: boolField(obj, "needs_tool"),
		ToolName:  stringField(obj, "tool_name"),
		ToolArgs:  mapField(obj, "tool_args"),
	}
	intent.AssistantResponse = stringField(obj, "response")

	if intent.NeedsTool && intent.ToolName == "" {
		p.logger.Debug("intent requested a tool without naming one, coercing to direct response")
		p.countFallback("missing_tool_name")
		intent.NeedsTool = false
		intent.ToolArgs = nil
		if intent.AssistantResponse == "" {
			intent.AssistantResponse = fallbackAssistantResponse
		}
	}
	if !intent.NeedsTool && intent.AssistantResponse == "" {
		p.countFallback("missing_response")
		intent.AssistantResponse = fallbackAssistantResponse
	}
	return intent
}

func (p *Parser) countFallback(reason string) {
	if p.metrics != nil {
		p.metrics.CountParseFallback(reason)
	}
}

func boolField(obj map[string]any, key string) bool {
	v, ok := obj[key].(bool)
	return ok && v
}

func stringField(obj map[string]any, key string) string {
	v, _ := obj[key].(string)
	return strings.TrimSpace(v)
}

func mapField(obj map[string]any, key string) map[string]any {
	v, _ := obj[key].(map[string]any)
	return v
}

// requiredToolArgs maps each recognized tool to the argument keys it cannot
// run without. Unknown tools are assumed valid: the open-world default keeps
// newly registered tools usable before this table learns about them.
var requiredToolArgs = map[string][]string{
	"get_workout_plan":         {"userId"},
	"get_diet_plan":            {"userId"},
	"nutrition_lookup":         {"foodName"},
	"calculate_health_metrics": {"userId"},
}

// ValidateToolArgs reports whether args carries every required key for the
// named tool, with each value present and non-nil.
func ValidateToolArgs(toolName string, args map[string]any) bool {
	required, known := requiredToolArgs[toolName]
	if !known {
		return true
	}
	for _, key := range required {
		v, ok := args[key]
		if !ok || v == nil {
			return false
		}
	}
	return true
}
