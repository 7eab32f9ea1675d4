package api

import (
	"bufio"
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/coachly/coachly/internal/chat"
	"github.com/coachly/coachly/internal/session"
	"github.com/coachly/coachly/internal/testutil"
)

// classifyScript is a canned classification response for the first model
// call of every chat request.
func classifyScript(category string) testutil.Script {
	return testutil.TextScript(`{"category": "` + category + `", "confidence": 0.9}`)
}

func postChat(t *testing.T, handler http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestChatTurn(t *testing.T) {
	store := session.NewStore()
	sess := store.Create("u1", "t")
	tr := testutil.NewScriptedTransport(
		classifyScript("workout_question"),
		testutil.TextScript("Start with squats."),
	)
	srv := newTestServer(t, tr, nil, store)
	handler := srv.Handler()

	rec := postChat(t, handler, "/api/v1/chat", `{"sessionId": "`+sess.ID.String()+`", "message": "what should I do first?"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}

	var resp ChatResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Response != "Start with squats." {
		t.Errorf("response = %q", resp.Response)
	}
	if resp.Category != "workout_question" {
		t.Errorf("category = %q", resp.Category)
	}

	// Both turns recorded on the session.
	history, err := store.History(sess.ID)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("history = %d turns, want 2", len(history))
	}
	if history[0].Role != chat.TurnRoleUser || history[1].Role != chat.TurnRoleAssistant {
		t.Errorf("history roles = %s, %s", history[0].Role, history[1].Role)
	}
	if history[1].Content != "Start with squats." {
		t.Errorf("assistant turn = %q", history[1].Content)
	}
}

func TestChatValidation(t *testing.T) {
	store := session.NewStore()
	sess := store.Create("u1", "t")
	srv := newTestServer(t, testutil.NewScriptedTransport(), nil, store)
	handler := srv.Handler()

	tests := []struct {
		name string
		body string
		want int
	}{
		{"invalid json", `{`, http.StatusBadRequest},
		{"missing message", `{"sessionId": "` + sess.ID.String() + `"}`, http.StatusBadRequest},
		{"missing session id", `{"message": "hi"}`, http.StatusBadRequest},
		{"unknown session", `{"sessionId": "00000000-0000-0000-0000-000000000001", "message": "hi"}`, http.StatusNotFound},
		{"oversized message", `{"sessionId": "` + sess.ID.String() + `", "message": "` + strings.Repeat("x", MaxMessageLength+1) + `"}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postChat(t, handler, "/api/v1/chat", tt.body)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

// sseEvent is one parsed server-sent event.
type sseEvent struct {
	name string
	data string
}

func parseSSE(t *testing.T, body *bytes.Buffer) []sseEvent {
	t.Helper()
	var events []sseEvent
	var cur sseEvent
	scanner := bufio.NewScanner(body)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			cur.name = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			cur.data += strings.TrimPrefix(line, "data: ")
		case line == "":
			if cur.name != "" {
				events = append(events, cur)
				cur = sseEvent{}
			}
		}
	}
	return events
}

func TestChatStream(t *testing.T) {
	store := session.NewStore()
	sess := store.Create("u1", "t")
	tr := testutil.NewScriptedTransport(
		classifyScript("nutrition_question"),
		testutil.TextScript("Eat more protein."),
	)
	srv := newTestServer(t, tr, nil, store)
	handler := srv.Handler()

	rec := postChat(t, handler, "/api/v1/chat/stream", `{"sessionId": "`+sess.ID.String()+`", "message": "diet tips?"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("content type = %q", ct)
	}

	events := parseSSE(t, rec.Body)
	if len(events) < 2 {
		t.Fatalf("got %d events, want chunks plus done", len(events))
	}

	var words []string
	var sawTerminal bool
	for _, ev := range events[:len(events)-1] {
		if ev.name != "chunk" {
			t.Fatalf("unexpected event %q", ev.name)
		}
		var d chat.Delta
		if err := json.Unmarshal([]byte(ev.data), &d); err != nil {
			t.Fatalf("decode chunk: %v", err)
		}
		if d.IsComplete {
			sawTerminal = true
		} else {
			words = append(words, d.Word)
		}
	}
	if got := strings.Join(words, ""); got != "Eat more protein." {
		t.Errorf("streamed words = %q", got)
	}
	if !sawTerminal {
		t.Error("no terminal chunk before done event")
	}

	done := events[len(events)-1]
	if done.name != "done" {
		t.Fatalf("last event = %q, want done", done.name)
	}
	var resp ChatResponse
	if err := json.Unmarshal([]byte(done.data), &resp); err != nil {
		t.Fatalf("decode done: %v", err)
	}
	if resp.Response != "Eat more protein." {
		t.Errorf("done response = %q", resp.Response)
	}

	history, err := store.History(sess.ID)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 2 {
		t.Errorf("history = %d turns, want 2", len(history))
	}
}

func TestChatStreamTransportFailure(t *testing.T) {
	store := session.NewStore()
	sess := store.Create("u1", "t")
	tr := testutil.NewScriptedTransport(
		classifyScript("general_conversation"),
		// No script left for the streaming call.
	)
	srv := newTestServer(t, tr, nil, store)
	handler := srv.Handler()

	rec := postChat(t, handler, "/api/v1/chat/stream", `{"sessionId": "`+sess.ID.String()+`", "message": "hi"}`)
	events := parseSSE(t, rec.Body)
	if len(events) == 0 {
		t.Fatal("no events")
	}
	last := events[len(events)-1]
	if last.name != "error" {
		t.Errorf("last event = %q, want error", last.name)
	}

	// A failed turn must not be recorded.
	history, _ := store.History(sess.ID)
	if len(history) != 0 {
		t.Errorf("history = %d turns, want 0", len(history))
	}
}
