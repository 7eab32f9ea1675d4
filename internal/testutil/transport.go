// Package testutil provides shared test doubles for the chat pipeline.
package testutil

import (
	"context"
	"errors"
	"iter"
	"sync"

	"github.com/coachly/coachly/internal/chat"
)

// Step is one yielded element of a scripted model call.
type Step struct {
	Chunk chat.StreamChunk
	Err   error // terminates the call when set
}

// Script describes one scripted model call.
type Script struct {
	Steps []Step
}

// TextScript builds a script that streams each string as one text chunk.
func TextScript(texts ...string) Script {
	s := Script{}
	for _, t := range texts {
		s.Steps = append(s.Steps, Step{Chunk: chat.StreamChunk{Text: t}})
	}
	return s
}

// ErrScript builds a script that fails immediately.
func ErrScript(err error) Script {
	return Script{Steps: []Step{{Err: err}}}
}

// ScriptedTransport replays queued scripts, one per model call, in order.
// It records the messages of every call for assertions. Safe for
// concurrent use, though tests typically drive it from one goroutine.
type ScriptedTransport struct {
	mu      sync.Mutex
	scripts []Script
	calls   [][]chat.Message
}

// NewScriptedTransport queues the given scripts.
func NewScriptedTransport(scripts ...Script) *ScriptedTransport {
	return &ScriptedTransport{scripts: scripts}
}

func (t *ScriptedTransport) next(msgs []chat.Message) (Script, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.calls = append(t.calls, msgs)
	if len(t.scripts) == 0 {
		return Script{}, errors.New("scripted transport: no script queued for call")
	}
	s := t.scripts[0]
	t.scripts = t.scripts[1:]
	return s, nil
}

// InvokeStreaming replays the next script as a chunk sequence.
func (t *ScriptedTransport) InvokeStreaming(_ context.Context, msgs []chat.Message) iter.Seq2[chat.StreamChunk, error] {
	return func(yield func(chat.StreamChunk, error) bool) {
		script, err := t.next(msgs)
		if err != nil {
			yield(chat.StreamChunk{}, err)
			return
		}
		for _, step := range script.Steps {
			if step.Err != nil {
				yield(chat.StreamChunk{}, step.Err)
				return
			}
			if !yield(step.Chunk, nil) {
				return
			}
		}
	}
}

// InvokeOnce replays the next script as a single concatenated chunk.
// A script with a single chunk returns that chunk unchanged; multi-chunk
// scripts collapse to their concatenated text.
func (t *ScriptedTransport) InvokeOnce(_ context.Context, msgs []chat.Message) (chat.StreamChunk, error) {
	script, err := t.next(msgs)
	if err != nil {
		return chat.StreamChunk{}, err
	}
	if len(script.Steps) == 1 && script.Steps[0].Err == nil {
		return script.Steps[0].Chunk, nil
	}
	var text string
	for _, step := range script.Steps {
		if step.Err != nil {
			return chat.StreamChunk{}, step.Err
		}
		text += step.Chunk.TextContent()
	}
	return chat.StreamChunk{Text: text}, nil
}

// Calls returns the messages of every model call made so far.
func (t *ScriptedTransport) Calls() [][]chat.Message {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([][]chat.Message, len(t.calls))
	copy(out, t.calls)
	return out
}

// Remaining reports how many scripts are still queued.
func (t *ScriptedTransport) Remaining() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.scripts)
}
