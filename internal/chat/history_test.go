package chat

import (
	"fmt"
	"testing"
)

func TestBuildHistory(t *testing.T) {
	t.Run("keeps only the most recent turns in order", func(t *testing.T) {
		var turns []ConversationTurn
		for i := 0; i < 10; i++ {
			role := TurnRoleUser
			if i%2 == 1 {
				role = TurnRoleAssistant
			}
			turns = append(turns, ConversationTurn{Role: role, Content: fmt.Sprintf("turn %d", i)})
		}

		msgs := BuildHistory(turns)
		if len(msgs) != MaxHistoryTurns {
			t.Fatalf("got %d messages, want %d", len(msgs), MaxHistoryTurns)
		}
		// First kept turn is original index 4.
		if msgs[0].Parts[0].Text != "turn 4" {
			t.Errorf("first kept turn = %q, want turn 4", msgs[0].Parts[0].Text)
		}
		if msgs[len(msgs)-1].Parts[0].Text != "turn 9" {
			t.Errorf("last kept turn = %q, want turn 9", msgs[len(msgs)-1].Parts[0].Text)
		}
	})

	t.Run("role mapping", func(t *testing.T) {
		msgs := BuildHistory([]ConversationTurn{
			{Role: TurnRoleUser, Content: "hi"},
			{Role: TurnRoleAssistant, Content: "hello"},
		})
		if len(msgs) != 2 {
			t.Fatalf("got %d messages, want 2", len(msgs))
		}
		if msgs[0].Role != RoleUser || msgs[1].Role != RoleModel {
			t.Errorf("roles = %s, %s; want user, model", msgs[0].Role, msgs[1].Role)
		}
	})

	t.Run("unknown roles are skipped", func(t *testing.T) {
		msgs := BuildHistory([]ConversationTurn{
			{Role: TurnRoleUser, Content: "hi"},
			{Role: TurnRole("system"), Content: "ignored"},
			{Role: TurnRoleAssistant, Content: "hello"},
		})
		if len(msgs) != 2 {
			t.Fatalf("got %d messages, want 2", len(msgs))
		}
	})

	t.Run("multimodal parts preserve order", func(t *testing.T) {
		msgs := BuildHistory([]ConversationTurn{{
			Role: TurnRoleUser,
			Parts: []Part{
				NewTextPart("what is this?"),
				NewImagePart("image/png", []byte{1, 2, 3}),
			},
		}})
		if len(msgs) != 1 || len(msgs[0].Parts) != 2 {
			t.Fatalf("msgs = %+v", msgs)
		}
		if msgs[0].Parts[0].Text != "what is this?" {
			t.Errorf("first part = %+v", msgs[0].Parts[0])
		}
		if msgs[0].Parts[1].MIMEType != "image/png" {
			t.Errorf("second part = %+v", msgs[0].Parts[1])
		}
	})

	t.Run("empty history", func(t *testing.T) {
		if msgs := BuildHistory(nil); len(msgs) != 0 {
			t.Errorf("got %d messages, want 0", len(msgs))
		}
	})
}

func TestBuildInitialMessages(t *testing.T) {
	history := []Message{NewTextMessage(RoleUser, "earlier")}

	t.Run("system prompt first, user message last", func(t *testing.T) {
		msgs := BuildInitialMessages("be helpful", history, "question", nil)
		if len(msgs) != 3 {
			t.Fatalf("got %d messages, want 3", len(msgs))
		}
		if msgs[0].Role != RoleSystem || msgs[0].Parts[0].Text != "be helpful" {
			t.Errorf("first = %+v", msgs[0])
		}
		if msgs[2].Role != RoleUser || msgs[2].Parts[0].Text != "question" {
			t.Errorf("last = %+v", msgs[2])
		}
	})

	t.Run("no system prompt", func(t *testing.T) {
		msgs := BuildInitialMessages("", nil, "question", nil)
		if len(msgs) != 1 || msgs[0].Role != RoleUser {
			t.Fatalf("msgs = %+v", msgs)
		}
	})

	t.Run("attachments form one multi-part user message", func(t *testing.T) {
		msgs := BuildInitialMessages("", nil, "what do you see?", []Part{
			NewImagePart("image/jpeg", []byte{9}),
		})
		if len(msgs) != 1 {
			t.Fatalf("got %d messages, want 1", len(msgs))
		}
		parts := msgs[0].Parts
		if len(parts) != 2 || parts[0].Text != "what do you see?" || parts[1].MIMEType != "image/jpeg" {
			t.Errorf("parts = %+v", parts)
		}
	})
}
