package chat

import (
	"testing"
)

func TestParseJSON(t *testing.T) {
	p := NewParser(nil, nil)

	tests := []struct {
		name string
		raw  string
		want map[string]any // nil means expect nil
	}{
		{
			name: "plain object",
			raw:  `{"needs_tool": false, "response": "hi"}`,
			want: map[string]any{"needs_tool": false, "response": "hi"},
		},
		{
			name: "fenced json block",
			raw:  "```json\n{\"needs_tool\": true, \"tool_name\": \"get_diet_plan\"}\n```",
			want: map[string]any{"needs_tool": true, "tool_name": "get_diet_plan"},
		},
		{
			name: "bare fence",
			raw:  "```\n{\"response\": \"ok\"}\n```",
			want: map[string]any{"response": "ok"},
		},
		{
			name: "prose around the object",
			raw:  `Sure! Here is the plan: {"response": "done"} Hope that helps.`,
			want: map[string]any{"response": "done"},
		},
		{
			name: "not json at all",
			raw:  "I just feel tired today.",
			want: nil,
		},
		{
			name: "empty input",
			raw:  "",
			want: nil,
		},
		{
			name: "null literal rejected",
			raw:  "null",
			want: nil,
		},
		{
			name: "unbalanced braces",
			raw:  `{"response": "oops"`,
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := p.ParseJSON(tt.raw)
			if (got == nil) != (tt.want == nil) {
				t.Fatalf("ParseJSON(%q) = %v, want nil=%v", tt.raw, got, tt.want == nil)
			}
			for k, want := range tt.want {
				if got[k] != want {
					t.Errorf("ParseJSON(%q)[%q] = %v, want %v", tt.raw, k, got[k], want)
				}
			}
		})
	}
}

func TestFallbackJSONExtract(t *testing.T) {
	p := NewParser(nil, nil)

	// Braces in surrounding prose defeat first-brace/last-brace slicing; the
	// anchored regex still finds a flat intent object.
	raw := `Budget {today} first. {"needs_tool": true, "tool_name": "nutrition_lookup"} and some } noise`
	got := p.FallbackJSONExtract(raw)
	if got == nil {
		t.Fatal("FallbackJSONExtract returned nil")
	}
	if got["tool_name"] != "nutrition_lookup" {
		t.Errorf("tool_name = %v, want nutrition_lookup", got["tool_name"])
	}

	if got := p.FallbackJSONExtract("no objects here"); got != nil {
		t.Errorf("FallbackJSONExtract on plain text = %v, want nil", got)
	}
}

func TestParseToolCallResponse(t *testing.T) {
	p := NewParser(nil, nil)

	t.Run("tool request", func(t *testing.T) {
		intent := p.ParseToolCallResponse(`{"needs_tool": true, "tool_name": "get_workout_plan", "tool_args": {"userId": "u1"}}`)
		if !intent.NeedsTool || intent.ToolName != "get_workout_plan" {
			t.Fatalf("intent = %+v, want tool request for get_workout_plan", intent)
		}
		if intent.ToolArgs["userId"] != "u1" {
			t.Errorf("tool_args = %v, want userId u1", intent.ToolArgs)
		}
	})

	t.Run("direct response", func(t *testing.T) {
		intent := p.ParseToolCallResponse(`{"needs_tool": false, "response": "Drink more water."}`)
		if intent.NeedsTool {
			t.Fatal("NeedsTool = true, want false")
		}
		if intent.AssistantResponse != "Drink more water." {
			t.Errorf("AssistantResponse = %q", intent.AssistantResponse)
		}
	})

	t.Run("unparseable input becomes the response", func(t *testing.T) {
		intent := p.ParseToolCallResponse("Let's crush today's workout!")
		if intent.NeedsTool {
			t.Fatal("NeedsTool = true, want false")
		}
		if intent.AssistantResponse != "Let's crush today's workout!" {
			t.Errorf("AssistantResponse = %q, want raw text", intent.AssistantResponse)
		}
	})

	t.Run("needs_tool without a name is coerced", func(t *testing.T) {
		intent := p.ParseToolCallResponse(`{"needs_tool": true, "response": "checking..."}`)
		if intent.NeedsTool {
			t.Fatal("NeedsTool = true after coercion, want false")
		}
		if intent.ToolArgs != nil {
			t.Errorf("ToolArgs = %v, want nil", intent.ToolArgs)
		}
		if intent.AssistantResponse != "checking..." {
			t.Errorf("AssistantResponse = %q", intent.AssistantResponse)
		}
	})

	t.Run("direct response without text gets the fallback", func(t *testing.T) {
		intent := p.ParseToolCallResponse(`{"needs_tool": false}`)
		if intent.AssistantResponse != fallbackAssistantResponse {
			t.Errorf("AssistantResponse = %q, want fallback", intent.AssistantResponse)
		}
	})

	t.Run("empty input gets the fallback", func(t *testing.T) {
		intent := p.ParseToolCallResponse("   ")
		if intent.AssistantResponse != fallbackAssistantResponse {
			t.Errorf("AssistantResponse = %q, want fallback", intent.AssistantResponse)
		}
	})
}

func TestValidateToolArgs(t *testing.T) {
	tests := []struct {
		name string
		tool string
		args map[string]any
		want bool
	}{
		{"workout plan with userId", "get_workout_plan", map[string]any{"userId": "u1"}, true},
		{"workout plan missing userId", "get_workout_plan", map[string]any{}, false},
		{"workout plan nil args", "get_workout_plan", nil, false},
		{"nil value counts as missing", "nutrition_lookup", map[string]any{"foodName": nil}, false},
		{"nutrition lookup ok", "nutrition_lookup", map[string]any{"foodName": "rice"}, true},
		{"diet plan missing userId", "get_diet_plan", map[string]any{"user": "u1"}, false},
		{"health metrics ok", "calculate_health_metrics", map[string]any{"userId": "u1"}, true},
		{"unknown tool passes", "brand_new_tool", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidateToolArgs(tt.tool, tt.args); got != tt.want {
				t.Errorf("ValidateToolArgs(%q, %v) = %v, want %v", tt.tool, tt.args, got, tt.want)
			}
		})
	}
}
