package session

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"

	"github.com/coachly/coachly/internal/chat"
)

func TestStoreLifecycle(t *testing.T) {
	s := NewStore()

	sess := s.Create("u1", "Leg day questions")
	if sess.ID == uuid.Nil {
		t.Fatal("session has nil ID")
	}
	if sess.UserID != "u1" || sess.Title != "Leg day questions" {
		t.Errorf("session = %+v", sess)
	}

	got, err := s.Get(sess.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.ID != sess.ID {
		t.Errorf("Get returned %s, want %s", got.ID, sess.ID)
	}

	if err := s.Delete(sess.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Get(sess.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after delete err = %v, want ErrNotFound", err)
	}
	if err := s.Delete(sess.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete err = %v, want ErrNotFound", err)
	}
}

func TestAppendTurnAndHistory(t *testing.T) {
	s := NewStore()
	sess := s.Create("u1", "t")

	turns := []chat.ConversationTurn{
		{Role: chat.TurnRoleUser, Content: "hi"},
		{Role: chat.TurnRoleAssistant, Content: "hello!"},
	}
	for _, turn := range turns {
		if err := s.AppendTurn(sess.ID, turn); err != nil {
			t.Fatalf("AppendTurn: %v", err)
		}
	}

	history, err := s.History(sess.ID)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("history length = %d, want 2", len(history))
	}
	if history[0].Content != "hi" || history[1].Content != "hello!" {
		t.Errorf("history = %+v", history)
	}

	// Mutating the returned slice must not affect the store.
	history[0].Content = "tampered"
	again, _ := s.History(sess.ID)
	if again[0].Content != "hi" {
		t.Error("History returned a shared slice")
	}

	if err := s.AppendTurn(uuid.New(), turns[0]); !errors.Is(err, ErrNotFound) {
		t.Errorf("AppendTurn to missing session err = %v, want ErrNotFound", err)
	}
}

func TestHistoryCap(t *testing.T) {
	s := NewStore()
	sess := s.Create("u1", "t")

	for i := 0; i < MaxTurns+10; i++ {
		err := s.AppendTurn(sess.ID, chat.ConversationTurn{
			Role: chat.TurnRoleUser, Content: fmt.Sprintf("turn %d", i),
		})
		if err != nil {
			t.Fatalf("AppendTurn: %v", err)
		}
	}

	history, err := s.History(sess.ID)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != MaxTurns {
		t.Fatalf("history length = %d, want %d", len(history), MaxTurns)
	}
	if history[0].Content != "turn 10" {
		t.Errorf("oldest kept turn = %q, want turn 10", history[0].Content)
	}
}

func TestListOrdering(t *testing.T) {
	s := NewStore()
	a := s.Create("u1", "a")
	b := s.Create("u1", "b")

	// Touch a so it becomes the most recently updated.
	if err := s.AppendTurn(a.ID, chat.ConversationTurn{Role: chat.TurnRoleUser, Content: "x"}); err != nil {
		t.Fatalf("AppendTurn: %v", err)
	}

	list := s.List()
	if len(list) != 2 {
		t.Fatalf("list length = %d, want 2", len(list))
	}
	if list[0].ID != a.ID || list[1].ID != b.ID {
		t.Errorf("list order = %s, %s; want %s, %s", list[0].ID, list[1].ID, a.ID, b.ID)
	}
	for _, sess := range list {
		if sess.Turns != nil {
			t.Errorf("list entry %s carries turns", sess.ID)
		}
	}
}
