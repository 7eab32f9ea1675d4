package chat

import (
	"context"
	"unicode"
)

// Emitter turns raw model text into word-level deltas with ordering and
// completion guarantees. Delivery is strictly sequential: each callback
// invocation is awaited before the next token is sent, so a consumer can
// apply backpressure by delaying its return.
type Emitter struct{}

// NewEmitter creates an Emitter.
func NewEmitter() *Emitter {
	return &Emitter{}
}

// splitWords tokenizes text into words with their trailing whitespace
// attached, so the concatenation of all tokens reproduces the input exactly.
// Leading whitespace forms a token of its own.
func splitWords(text string) []string {
	var tokens []string
	start := 0
	inSpace := true
	for i, r := range text {
		isSpace := unicode.IsSpace(r)
		if !isSpace && inSpace && i > start {
			// word boundary: previous run of word+space ends here
			tokens = append(tokens, text[start:i])
			start = i
		}
		inSpace = isSpace
	}
	if start < len(text) {
		tokens = append(tokens, text[start:])
	}
	return tokens
}

// EmitText delivers newText to onChunk as ordered word deltas. accumulated
// is the response text already delivered in this turn; each delta carries
// the partial response including tokens emitted so far. Returns the last
// non-empty token emitted (callers use it to detect whether anything
// streamed) and the updated accumulated text.
//
// A nil onChunk skips delivery but still advances accumulation, so
// non-streaming turns share the same path.
func (e *Emitter) EmitText(ctx context.Context, newText, accumulated string, onChunk ChunkFunc) (lastWord, newAccumulated string, err error) {
	newAccumulated = accumulated
	for _, token := range splitWords(newText) {
		if token == "" {
			continue
		}
		newAccumulated += token
		lastWord = token
		if onChunk == nil {
			continue
		}
		if err := ctx.Err(); err != nil {
			return lastWord, newAccumulated, err
		}
		if err := onChunk(ctx, Delta{
			Word:            token,
			PartialResponse: newAccumulated,
			IsComplete:      false,
		}); err != nil {
			return lastWord, newAccumulated, err
		}
	}
	return lastWord, newAccumulated, nil
}

// SendCompletion emits the terminal delta, exactly once per turn, carrying
// the final text. It is a no-op when there is no callback or when nothing
// was ever streamed; the empty-turn case is the caller's to handle.
func (e *Emitter) SendCompletion(ctx context.Context, onChunk ChunkFunc, finalText, lastWord string) error {
	if onChunk == nil || lastWord == "" {
		return nil
	}
	return onChunk(ctx, Delta{
		Word:            "",
		PartialResponse: finalText,
		IsComplete:      true,
	})
}
