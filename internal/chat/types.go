package chat

import (
	"context"
	"iter"
)

// TurnRole identifies who produced a stored conversation turn. Values match
// the role strings persisted by the product's conversation store.
type TurnRole string

const (
	// TurnRoleUser marks a turn written by the end user.
	TurnRoleUser TurnRole = "user"

	// TurnRoleAssistant marks a turn written by the assistant. The store
	// uses the historical value "ai".
	TurnRoleAssistant TurnRole = "ai"
)

// ConversationTurn is one stored turn of a conversation. Turns are immutable
// once appended; the pipeline only ever sees a bounded window of them.
type ConversationTurn struct {
	Role      TurnRole `json:"role"`
	Content   string   `json:"content"`
	Parts     []Part   `json:"parts,omitempty"` // set instead of Content for multimodal turns
	Timestamp int64    `json:"timestamp,omitempty"`
}

// PartKind discriminates the Part union.
type PartKind string

const (
	PartText  PartKind = "text"
	PartImage PartKind = "image"
)

// Part is one element of a multimodal message: either plain text or an
// inline image attachment.
type Part struct {
	Kind     PartKind `json:"type"`
	Text     string   `json:"text,omitempty"`
	Data     []byte   `json:"data,omitempty"`
	MIMEType string   `json:"mimeType,omitempty"`
}

// NewTextPart creates a text part.
func NewTextPart(text string) Part {
	return Part{Kind: PartText, Text: text}
}

// NewImagePart creates an inline image part.
func NewImagePart(mimeType string, data []byte) Part {
	return Part{Kind: PartImage, MIMEType: mimeType, Data: data}
}

// MessageRole identifies the author of a message sent to the model transport.
type MessageRole string

const (
	RoleSystem MessageRole = "system"
	RoleUser   MessageRole = "user"
	RoleModel  MessageRole = "model"
	RoleTool   MessageRole = "tool"
)

// Message is one ordered entry of the sequence handed to the model transport.
type Message struct {
	Role  MessageRole
	Parts []MessagePart
}

// MessagePart is one part of a transport message. Beyond text and media it
// can carry a function call echoed back to the model, or a tool result.
type MessagePart struct {
	Text         string
	MIMEType     string
	Data         []byte
	FunctionCall *FunctionCallPayload
	ToolResult   *ToolResult
}

// NewTextMessage creates a single-part text message.
func NewTextMessage(role MessageRole, text string) Message {
	return Message{Role: role, Parts: []MessagePart{{Text: text}}}
}

// FunctionCallPayload is a tool invocation request extracted from model
// output, in canonical form regardless of which provider shape carried it.
type FunctionCallPayload struct {
	Name string         `json:"name"`
	Args map[string]any `json:"args"`
}

// ToolResult is the outcome of invoking a tool, fed back to the model as a
// new turn. Exactly one of Output or Error is meaningful.
type ToolResult struct {
	Name   string `json:"name"`
	Output any    `json:"output,omitempty"`
	Error  string `json:"error,omitempty"`
}

// ChunkPart is one element of a mixed content array inside a StreamChunk.
type ChunkPart struct {
	Text         string
	FunctionCall *FunctionCallPayload
}

// ToolCallWrapper is the legacy list-of-tool-calls chunk shape some provider
// schema versions emit. Only the nested function payload matters.
type ToolCallWrapper struct {
	Function *FunctionCallPayload
}

// StreamChunk is the canonical unit of streamed model output. The transport
// normalizes every known provider shape into this type before it reaches the
// detector, so shape checks never leak into orchestration logic.
//
// A chunk carries its payload in exactly one of three historical shapes:
// plain Text, a mixed Content part array, or the legacy metadata fields
// (FunctionCall / ToolCalls).
type StreamChunk struct {
	// Text is set for plain-text chunks.
	Text string

	// Content is set when the provider emitted an array of mixed
	// text/function-call parts.
	Content []ChunkPart

	// FunctionCall is the legacy metadata field holding a direct
	// function-call object.
	FunctionCall *FunctionCallPayload

	// ToolCalls is the legacy metadata field holding a list of tool-call
	// wrappers.
	ToolCalls []ToolCallWrapper
}

// TextContent returns all displayable text carried by the chunk, in part
// order.
func (c StreamChunk) TextContent() string {
	if len(c.Content) == 0 {
		return c.Text
	}
	var out string
	for _, p := range c.Content {
		out += p.Text
	}
	return out
}

// ToolCallIntent is the structured intent parsed from a model response that
// may request a tool. Invariants (enforced by ParseToolCallResponse):
// NeedsTool implies a non-empty ToolName, and !NeedsTool implies a non-empty
// AssistantResponse.
type ToolCallIntent struct {
	NeedsTool         bool
	ToolName          string
	ToolArgs          map[string]any
	AssistantResponse string
}

// Delta is one increment delivered to the caller's chunk callback. Exactly
// one IsComplete=true delta ends a successful turn that produced output.
type Delta struct {
	Word            string `json:"word"`
	PartialResponse string `json:"partialResponse"`
	IsComplete      bool   `json:"isComplete"`
}

// ChunkFunc receives deltas in strict source order. The emitter awaits each
// invocation before proceeding, so a slow callback applies backpressure.
// Returning an error aborts the stream.
type ChunkFunc func(ctx context.Context, d Delta) error

// Transport is the model transport collaborator. The pipeline treats it as
// an opaque capability: connection pooling, auth and retries toward the
// provider live behind it.
type Transport interface {
	// InvokeStreaming starts a streaming model call. The returned sequence
	// yields canonical chunks until the call completes or fails.
	InvokeStreaming(ctx context.Context, msgs []Message) iter.Seq2[StreamChunk, error]

	// InvokeOnce performs a single non-streaming model call.
	InvokeOnce(ctx context.Context, msgs []Message) (StreamChunk, error)
}

// Tool is a server-side function the model may request. Implementations live
// in the tool registry collaborator; the pipeline never constructs tool
// logic itself.
type Tool interface {
	Call(ctx context.Context, args map[string]any) (any, error)
}

// Registry resolves tool names to implementations.
type Registry interface {
	Get(name string) (Tool, bool)
}

// UsedTools tracks which tools were invoked in the current turn, enforcing
// at-most-one invocation per tool per turn. It is request-scoped state owned
// by a single pipeline run; no locking needed.
type UsedTools map[string]struct{}

// Has reports whether the named tool was already used this turn.
func (u UsedTools) Has(name string) bool {
	_, ok := u[name]
	return ok
}

// Add records a successful dispatch. Callers must only add after the tool
// actually ran, so legitimate retries after failures are not blocked.
func (u UsedTools) Add(name string) {
	u[name] = struct{}{}
}

// Names returns the used tool names. Order is not significant.
func (u UsedTools) Names() []string {
	names := make([]string, 0, len(u))
	for n := range u {
		names = append(names, n)
	}
	return names
}
