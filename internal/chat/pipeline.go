package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/coachly/coachly/internal/log"
)

// Sentinel errors for pipeline operations.
var (
	// ErrTransport indicates the model transport failed; the turn is
	// aborted. Retry policy, if any, lives behind the transport.
	ErrTransport = errors.New("model transport failed")

	// ErrCanceled indicates the caller disconnected mid-turn.
	ErrCanceled = errors.New("turn canceled")
)

// turnState tracks the orchestrator's position in a turn. States advance
// monotonically; the zero value is the initial state.
type turnState int

const (
	stateAwaitingFirstResponse turnState = iota
	stateToolDetected
	stateValidatingArgs
	stateExecutingTool
	stateAwaitingSecondResponse
	stateDone
)

func (s turnState) String() string {
	switch s {
	case stateAwaitingFirstResponse:
		return "awaiting_first_response"
	case stateToolDetected:
		return "tool_detected"
	case stateValidatingArgs:
		return "validating_args"
	case stateExecutingTool:
		return "executing_tool"
	case stateAwaitingSecondResponse:
		return "awaiting_second_response"
	default:
		return "done"
	}
}

// TurnRequest is one inbound chat turn.
type TurnRequest struct {
	Message      string
	Attachments  []Part // optional multimodal parts accompanying the message
	History      []ConversationTurn
	SystemPrompt string
}

// TurnResult is the terminal outcome of a turn.
type TurnResult struct {
	FinalText string
	UsedTools []string
	// ToolErr records a tool execution failure. Non-fatal: the failure was
	// fed back to the model so it could explain it to the user.
	ToolErr error
}

// Config contains all required parameters for the Pipeline.
type Config struct {
	Transport Transport
	Registry  Registry
	Logger    log.Logger
	Metrics   *Metrics // optional; nil disables counting
}

func (cfg Config) validate() error {
	if cfg.Transport == nil {
		return errors.New("transport is required")
	}
	if cfg.Registry == nil {
		return errors.New("tool registry is required")
	}
	if cfg.Logger == nil {
		return errors.New("logger is required")
	}
	return nil
}

// Pipeline orchestrates one chat turn: it streams the first model call
// through the detector and emitter, dispatches at most one tool per model
// call, and when a tool ran issues a second model call with the result
// appended to history.
//
// A Pipeline is stateless and safe for concurrent use; all per-turn state
// (accumulated text, used-tool set) is local to RunTurn, exclusively owned
// by the goroutine handling that request.
type Pipeline struct {
	transport Transport
	registry  Registry
	detector  *Detector
	emitter   *Emitter
	parser    *Parser
	logger    log.Logger
	metrics   *Metrics
}

// New creates a Pipeline with required configuration.
func New(cfg Config) (*Pipeline, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Pipeline{
		transport: cfg.Transport,
		registry:  cfg.Registry,
		detector:  NewDetector(cfg.Logger),
		emitter:   NewEmitter(),
		parser:    NewParser(cfg.Logger, cfg.Metrics),
		logger:    cfg.Logger,
		metrics:   cfg.Metrics,
	}, nil
}

// Parser exposes the pipeline's tolerant model-output parser, shared with
// the intent router so both apply the same extraction discipline.
func (p *Pipeline) Parser() *Parser {
	return p.parser
}

// RunTurn executes one full chat turn. onChunk may be nil for non-streaming
// callers; when set it receives ordered word deltas and, if anything
// streamed, exactly one terminal delta.
//
// Errors: a transport failure aborts the turn (wrapped in ErrTransport);
// caller disconnection surfaces as ErrCanceled. Tool execution failures are
// not errors here; they are recorded in TurnResult.ToolErr and explained
// to the user by the model.
func (p *Pipeline) RunTurn(ctx context.Context, req TurnRequest, onChunk ChunkFunc) (*TurnResult, error) {
	used := make(UsedTools)
	msgs := BuildInitialMessages(req.SystemPrompt, BuildHistory(req.History), req.Message, req.Attachments)

	state := stateAwaitingFirstResponse
	p.logger.Debug("turn started", "state", state.String(), "history", len(req.History))

	// First model call: detection enabled.
	first, err := p.streamCall(ctx, msgs, onChunk, streamState{detect: true})
	if err != nil {
		return nil, p.finishStreamError(ctx, onChunk, first, err)
	}

	payload := first.payload
	if payload == nil {
		// No native function call: the accumulated text may still be a
		// JSON tool intent.
		intent := p.parser.ParseToolCallResponse(first.accumulated)
		if intent.NeedsTool {
			payload = &FunctionCallPayload{Name: intent.ToolName, Args: intent.ToolArgs}
			// The streamed text was protocol JSON, not an answer; the
			// second call starts the visible response over.
			first.accumulated, first.lastWord = "", ""
		} else if first.lastWord == "" {
			// Nothing streamed and no tool requested: the parsed answer is
			// the final text, no terminal signal per the empty-turn rule.
			p.metrics.CountEmptyTurn()
			return &TurnResult{FinalText: intent.AssistantResponse, UsedTools: used.Names()}, nil
		}
	}

	if payload == nil {
		if err := p.emitter.SendCompletion(ctx, onChunk, first.accumulated, first.lastWord); err != nil {
			return nil, fmt.Errorf("sending completion: %w", err)
		}
		return &TurnResult{FinalText: first.accumulated, UsedTools: used.Names()}, nil
	}

	state = stateToolDetected
	p.logger.Debug("tool call detected", "state", state.String(), "tool", payload.Name)

	if used.Has(payload.Name) {
		// Duplicate streaming chunks reporting the same call are ignored.
		p.logger.Debug("tool already used this turn, ignoring", "tool", payload.Name)
		return p.finishDirect(ctx, onChunk, first, used)
	}

	state = stateValidatingArgs
	if !ValidateToolArgs(payload.Name, payload.Args) {
		// An invalid tool call must not block the user from getting a
		// response: fall back to whatever the model already said.
		p.logger.Warn("tool arguments failed validation, answering directly",
			"tool", payload.Name)
		p.metrics.CountToolDispatch(payload.Name, "invalid_args")
		return p.finishDirect(ctx, onChunk, first, used)
	}

	state = stateExecutingTool
	p.logger.Debug("executing tool", "state", state.String(), "tool", payload.Name)
	result, toolErr := p.dispatch(ctx, payload, used)

	// Cancellation during tool execution: the tool was allowed to complete,
	// but its result is discarded and no second model call is made.
	if ctx.Err() != nil {
		p.logger.Info("turn canceled during tool execution", "tool", payload.Name)
		return nil, fmt.Errorf("%w: %w", ErrCanceled, ctx.Err())
	}

	// Second model call with the tool result appended. Detection is
	// disabled here: at most one tool runs per turn.
	state = stateAwaitingSecondResponse
	p.logger.Debug("issuing follow-up model call", "state", state.String(), "tool", payload.Name)

	msgs = append(msgs,
		Message{Role: RoleModel, Parts: []MessagePart{{FunctionCall: payload}}},
		Message{Role: RoleTool, Parts: []MessagePart{{ToolResult: result}}},
	)

	second, err := p.streamCall(ctx, msgs, onChunk, streamState{
		accumulated: first.accumulated,
		lastWord:    first.lastWord,
	})
	if err != nil {
		return nil, p.finishStreamError(ctx, onChunk, second, err)
	}

	state = stateDone
	finalText := second.accumulated
	if second.lastWord == "" {
		p.metrics.CountEmptyTurn()
		if finalText == "" {
			finalText = fallbackAssistantResponse
		}
	} else if err := p.emitter.SendCompletion(ctx, onChunk, finalText, second.lastWord); err != nil {
		return nil, fmt.Errorf("sending completion: %w", err)
	}

	p.logger.Debug("turn complete", "state", state.String(),
		"used_tools", used.Names(), "final_len", len(finalText))
	return &TurnResult{FinalText: finalText, UsedTools: used.Names(), ToolErr: toolErr}, nil
}

// streamState carries streaming progress across the two model calls of a
// turn.
type streamState struct {
	detect      bool
	accumulated string
	lastWord    string
	payload     *FunctionCallPayload
}

// streamCall runs one streaming model call, feeding every chunk through the
// detector (when enabled) and the emitter. The first chunk producing a
// payload suppresses further detection for the remainder of the call.
func (p *Pipeline) streamCall(ctx context.Context, msgs []Message, onChunk ChunkFunc, st streamState) (streamState, error) {
	for chunk, err := range p.transport.InvokeStreaming(ctx, msgs) {
		if err != nil {
			// A provider may surface the caller's cancellation as a stream
			// error before the loop's own context check runs. That is a
			// disconnect, not a transport failure, and must not trigger a
			// completion write to a client that is gone.
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return st, fmt.Errorf("%w: %w", ErrCanceled, err)
			}
			return st, fmt.Errorf("%w: %w", ErrTransport, err)
		}
		if ctx.Err() != nil {
			return st, fmt.Errorf("%w: %w", ErrCanceled, ctx.Err())
		}

		if st.detect && st.payload == nil {
			if payload := p.detector.Detect(chunk); payload != nil {
				st.payload = payload
			}
		}

		if text := chunk.TextContent(); text != "" {
			last, acc, err := p.emitter.EmitText(ctx, text, st.accumulated, onChunk)
			st.accumulated = acc
			if last != "" {
				st.lastWord = last
			}
			if err != nil {
				if ctx.Err() != nil {
					return st, fmt.Errorf("%w: %w", ErrCanceled, ctx.Err())
				}
				return st, fmt.Errorf("chunk callback: %w", err)
			}
		}
	}
	return st, nil
}

// dispatch looks up and invokes the named tool. Execution errors are caught
// and converted into an error result for the model to explain; the tool is
// added to the used set only on success so a failed call can legitimately
// be retried in a later turn of the same conversation.
//
// The tool runs on a context detached from cancellation: a caller
// disconnect mid-execution lets the tool finish (tools are side-effect
// bounded) and the orchestrator discards the result afterwards.
func (p *Pipeline) dispatch(ctx context.Context, payload *FunctionCallPayload, used UsedTools) (*ToolResult, error) {
	tool, ok := p.registry.Get(payload.Name)
	if !ok {
		p.logger.Warn("model requested unknown tool", "tool", payload.Name)
		p.metrics.CountToolDispatch(payload.Name, "unknown")
		err := fmt.Errorf("tool %q is not available", payload.Name)
		return &ToolResult{Name: payload.Name, Error: err.Error()}, err
	}

	output, err := tool.Call(context.WithoutCancel(ctx), payload.Args)
	if err != nil {
		p.logger.Warn("tool execution failed", "tool", payload.Name, "error", err)
		p.metrics.CountToolDispatch(payload.Name, "error")
		return &ToolResult{Name: payload.Name, Error: err.Error()}, err
	}

	used.Add(payload.Name)
	p.metrics.CountToolDispatch(payload.Name, "ok")
	p.logger.Debug("tool executed", "tool", payload.Name, "result", summarize(output))
	return &ToolResult{Name: payload.Name, Output: output}, nil
}

// finishDirect ends the turn with the model's own first-call text, used when
// a detected tool call cannot or must not be dispatched.
func (p *Pipeline) finishDirect(ctx context.Context, onChunk ChunkFunc, st streamState, used UsedTools) (*TurnResult, error) {
	finalText := st.accumulated
	if st.lastWord == "" {
		p.metrics.CountEmptyTurn()
		if finalText == "" {
			finalText = fallbackAssistantResponse
		}
	} else if err := p.emitter.SendCompletion(ctx, onChunk, finalText, st.lastWord); err != nil {
		return nil, fmt.Errorf("sending completion: %w", err)
	}
	return &TurnResult{FinalText: finalText, UsedTools: used.Names()}, nil
}

// finishStreamError maps a failed stream to the terminal error path. If any
// text had already streamed, the partial text is sealed with a completion
// signal; otherwise no terminal signal is sent.
func (p *Pipeline) finishStreamError(ctx context.Context, onChunk ChunkFunc, st streamState, err error) error {
	if errors.Is(err, ErrCanceled) {
		// Caller is gone: no further onChunk calls.
		return err
	}
	if st.lastWord != "" {
		if cerr := p.emitter.SendCompletion(ctx, onChunk, st.accumulated, st.lastWord); cerr != nil {
			p.logger.Debug("completion after stream error failed", "error", cerr)
		}
	}
	return err
}

// summarize renders a tool output compactly for debug logs.
func summarize(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%T", v)
	}
	const maxLen = 200
	if len(b) > maxLen {
		return string(b[:maxLen]) + "..."
	}
	return string(b)
}
