package chat_test

import (
	"context"
	"errors"
	"testing"

	"github.com/coachly/coachly/internal/chat"
	"github.com/coachly/coachly/internal/testutil"
)

func newRouter(transport chat.Transport) *chat.Router {
	return chat.NewRouter(transport, chat.NewParser(nil, nil), nil)
}

func TestClassify(t *testing.T) {
	ctx := context.Background()

	t.Run("well-formed classification", func(t *testing.T) {
		tr := testutil.NewScriptedTransport(
			testutil.TextScript(`{"category": "workout_question", "confidence": 0.92, "rationale": "asks about sets"}`),
		)
		got := newRouter(tr).Classify(ctx, "how many sets should I do?")
		if got.Category != chat.CategoryWorkout {
			t.Errorf("category = %s, want workout_question", got.Category)
		}
		if got.Confidence != 0.92 {
			t.Errorf("confidence = %v, want 0.92", got.Confidence)
		}
	})

	t.Run("malformed output degrades to general at 0.4", func(t *testing.T) {
		tr := testutil.NewScriptedTransport(testutil.TextScript("workout, probably"))
		got := newRouter(tr).Classify(ctx, "hm")
		if got.Category != chat.CategoryConversation || got.Confidence != 0.4 {
			t.Errorf("got %+v, want general_conversation at 0.4", got)
		}
	})

	t.Run("stray brace after the object still extracts", func(t *testing.T) {
		tr := testutil.NewScriptedTransport(
			testutil.TextScript(`{"category": "workout_question", "confidence": 0.9} extra } brace`),
		)
		got := newRouter(tr).Classify(ctx, "sets?")
		if got.Category != chat.CategoryWorkout {
			t.Errorf("category = %s, want workout_question", got.Category)
		}
		if got.Confidence != 0.9 {
			t.Errorf("confidence = %v, want 0.9", got.Confidence)
		}
	})

	t.Run("transport error degrades to general at 0.0", func(t *testing.T) {
		tr := testutil.NewScriptedTransport(testutil.ErrScript(errors.New("connection refused")))
		got := newRouter(tr).Classify(ctx, "hm")
		if got.Category != chat.CategoryConversation || got.Confidence != 0.0 {
			t.Errorf("got %+v, want general_conversation at 0.0", got)
		}
	})

	t.Run("unknown category normalizes to general", func(t *testing.T) {
		tr := testutil.NewScriptedTransport(
			testutil.TextScript(`{"category": "sleep_advice", "confidence": 0.8}`),
		)
		got := newRouter(tr).Classify(ctx, "how do I sleep better?")
		if got.Category != chat.CategoryConversation {
			t.Errorf("category = %s, want general_conversation", got.Category)
		}
		if got.Confidence != 0.8 {
			t.Errorf("confidence = %v, want 0.8 (category fallback keeps reported confidence)", got.Confidence)
		}
	})

	t.Run("out-of-range confidence clamps to 0.4", func(t *testing.T) {
		tr := testutil.NewScriptedTransport(
			testutil.TextScript(`{"category": "nutrition_question", "confidence": 7}`),
		)
		got := newRouter(tr).Classify(ctx, "protein?")
		if got.Category != chat.CategoryNutrition || got.Confidence != 0.4 {
			t.Errorf("got %+v, want nutrition_question at 0.4", got)
		}
	})
}

func TestMapCategoryToPlan(t *testing.T) {
	tests := []struct {
		category chat.Category
		want     chat.Plan
	}{
		{chat.CategoryNutrition, chat.PlanNutrition},
		{chat.CategoryWorkout, chat.PlanWorkout},
		{chat.CategoryProgress, chat.PlanMetrics},
		{chat.CategoryMotivation, chat.PlanGeneral},
		{chat.CategoryConversation, chat.PlanGeneral},
		{chat.Category("something_else"), chat.PlanGeneral},
	}
	for _, tt := range tests {
		if got := chat.MapCategoryToPlan(tt.category); got != tt.want {
			t.Errorf("MapCategoryToPlan(%s) = %s, want %s", tt.category, got, tt.want)
		}
	}
}
