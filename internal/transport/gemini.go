package transport

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"github.com/coachly/coachly/internal/chat"
	"github.com/coachly/coachly/internal/log"
)

// GeminiConfig contains all required parameters for the Gemini transport.
type GeminiConfig struct {
	// APIKey for the Gemini API. Empty falls back to the SDK's own
	// environment lookup (GEMINI_API_KEY / GOOGLE_API_KEY).
	APIKey string

	// Model is the model identifier, e.g. "gemini-2.5-flash".
	Model string

	// Tools are declared to the model so it can emit function calls.
	Tools []ToolDeclaration

	// Temperature is optional; nil uses the provider default.
	Temperature *float32

	Logger log.Logger

	// Retry settings; zero value uses DefaultRetryConfig.
	Retry RetryConfig

	// RateLimiter paces provider calls. nil installs a default of
	// 10 req/s sustained with a burst of 30.
	RateLimiter *rate.Limiter
}

// Gemini is the Gemini-backed model transport. It owns provider auth,
// rate limiting and retries; the pipeline treats it as opaque.
type Gemini struct {
	client      *genai.Client
	model       string
	tools       []*genai.Tool
	temperature *float32
	logger      log.Logger
	retry       RetryConfig
	limiter     *rate.Limiter
}

// NewGemini creates a Gemini transport.
func NewGemini(ctx context.Context, cfg GeminiConfig) (*Gemini, error) {
	if cfg.Model == "" {
		return nil, errors.New("model name is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.NewNop()
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}

	retry := cfg.Retry
	if retry.MaxRetries == 0 {
		retry = DefaultRetryConfig()
	}
	limiter := cfg.RateLimiter
	if limiter == nil {
		limiter = rate.NewLimiter(10, 30)
	}

	return &Gemini{
		client:      client,
		model:       cfg.Model,
		tools:       declarations(cfg.Tools),
		temperature: cfg.Temperature,
		logger:      logger,
		retry:       retry,
		limiter:     limiter,
	}, nil
}

// declarations converts tool declarations into the provider's shape.
func declarations(tools []ToolDeclaration) []*genai.Tool {
	if len(tools) == 0 {
		return nil
	}
	decls := make([]*genai.FunctionDeclaration, 0, len(tools))
	for _, t := range tools {
		fd := &genai.FunctionDeclaration{
			Name:        t.Name,
			Description: t.Description,
		}
		if t.Parameters != nil {
			fd.ParametersJsonSchema = t.Parameters
		}
		decls = append(decls, fd)
	}
	return []*genai.Tool{{FunctionDeclarations: decls}}
}

// InvokeStreaming starts a streaming model call. Transient failures before
// the first chunk are retried with exponential backoff; once any chunk has
// been delivered a failure is surfaced as-is, since replaying a partially
// consumed stream would duplicate output.
func (g *Gemini) InvokeStreaming(ctx context.Context, msgs []chat.Message) iter.Seq2[chat.StreamChunk, error] {
	return func(yield func(chat.StreamChunk, error) bool) {
		contents, config, err := g.convert(msgs)
		if err != nil {
			yield(chat.StreamChunk{}, err)
			return
		}

		delay := g.retry.InitialInterval
		for attempt := 0; ; attempt++ {
			if err := g.limiter.Wait(ctx); err != nil {
				yield(chat.StreamChunk{}, fmt.Errorf("rate limit wait: %w", err))
				return
			}

			delivered := false
			var streamErr error
			for resp, err := range g.client.Models.GenerateContentStream(ctx, g.model, contents, config) {
				if err != nil {
					streamErr = err
					break
				}
				delivered = true
				if !yield(normalize(resp), nil) {
					return
				}
			}
			if streamErr == nil {
				return
			}
			if delivered || !retryableError(streamErr) || attempt >= g.retry.MaxRetries {
				yield(chat.StreamChunk{}, fmt.Errorf("generate stream: %w", streamErr))
				return
			}

			g.logger.Debug("retrying streaming call",
				"attempt", attempt+1, "delay", delay, "error", streamErr)
			select {
			case <-ctx.Done():
				yield(chat.StreamChunk{}, fmt.Errorf("context canceled during retry: %w", ctx.Err()))
				return
			case <-time.After(delay):
				delay = min(delay*2, g.retry.MaxInterval)
			}
		}
	}
}

// InvokeOnce performs a single non-streaming model call with retries.
func (g *Gemini) InvokeOnce(ctx context.Context, msgs []chat.Message) (chat.StreamChunk, error) {
	contents, config, err := g.convert(msgs)
	if err != nil {
		return chat.StreamChunk{}, err
	}

	var lastErr error
	delay := g.retry.InitialInterval
	start := time.Now()

	for attempt := 0; attempt <= g.retry.MaxRetries; attempt++ {
		if err := g.limiter.Wait(ctx); err != nil {
			return chat.StreamChunk{}, fmt.Errorf("rate limit wait: %w", err)
		}

		resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, config)
		if err == nil {
			g.logger.Debug("model call succeeded", "attempts", attempt+1, "elapsed", time.Since(start))
			return normalize(resp), nil
		}
		lastErr = err

		if !retryableError(err) {
			return chat.StreamChunk{}, fmt.Errorf("generate content: %w", err)
		}
		if attempt == g.retry.MaxRetries {
			break
		}

		g.logger.Debug("retrying after error", "attempt", attempt+1, "delay", delay, "error", err)
		select {
		case <-ctx.Done():
			return chat.StreamChunk{}, fmt.Errorf("context canceled during retry: %w", ctx.Err())
		case <-time.After(delay):
			delay = min(delay*2, g.retry.MaxInterval)
		}
	}

	return chat.StreamChunk{}, fmt.Errorf("generate content after %d retries (elapsed: %v): %w",
		g.retry.MaxRetries, time.Since(start), lastErr)
}

// convert maps canonical messages into provider contents. System messages
// become the system instruction; tool results ride in user-role contents as
// function responses, matching the Gemini API's expectations.
func (g *Gemini) convert(msgs []chat.Message) ([]*genai.Content, *genai.GenerateContentConfig, error) {
	config := &genai.GenerateContentConfig{
		Tools:       g.tools,
		Temperature: g.temperature,
	}

	contents := make([]*genai.Content, 0, len(msgs))
	for _, msg := range msgs {
		parts, err := convertParts(msg.Parts)
		if err != nil {
			return nil, nil, err
		}

		switch msg.Role {
		case chat.RoleSystem:
			if config.SystemInstruction == nil {
				config.SystemInstruction = &genai.Content{}
			}
			config.SystemInstruction.Parts = append(config.SystemInstruction.Parts, parts...)
		case chat.RoleUser, chat.RoleTool:
			contents = append(contents, &genai.Content{Role: genai.RoleUser, Parts: parts})
		case chat.RoleModel:
			contents = append(contents, &genai.Content{Role: genai.RoleModel, Parts: parts})
		default:
			return nil, nil, fmt.Errorf("unsupported message role: %q", msg.Role)
		}
	}
	return contents, config, nil
}

func convertParts(parts []chat.MessagePart) ([]*genai.Part, error) {
	out := make([]*genai.Part, 0, len(parts))
	for _, p := range parts {
		switch {
		case p.FunctionCall != nil:
			out = append(out, &genai.Part{FunctionCall: &genai.FunctionCall{
				Name: p.FunctionCall.Name,
				Args: p.FunctionCall.Args,
			}})
		case p.ToolResult != nil:
			response := map[string]any{"output": p.ToolResult.Output}
			if p.ToolResult.Error != "" {
				response = map[string]any{"error": p.ToolResult.Error}
			}
			out = append(out, &genai.Part{FunctionResponse: &genai.FunctionResponse{
				Name:     p.ToolResult.Name,
				Response: response,
			}})
		case p.Data != nil:
			out = append(out, &genai.Part{InlineData: &genai.Blob{
				MIMEType: p.MIMEType,
				Data:     p.Data,
			}})
		default:
			out = append(out, &genai.Part{Text: p.Text})
		}
	}
	return out, nil
}

// normalize maps a provider response into the canonical chunk type. A
// single text part becomes a plain-text chunk; anything mixed keeps the
// part array so the detector can scan every element.
func normalize(resp *genai.GenerateContentResponse) chat.StreamChunk {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return chat.StreamChunk{}
	}

	parts := resp.Candidates[0].Content.Parts
	if len(parts) == 1 && parts[0].FunctionCall == nil {
		return chat.StreamChunk{Text: parts[0].Text}
	}

	out := make([]chat.ChunkPart, 0, len(parts))
	for _, p := range parts {
		cp := chat.ChunkPart{Text: p.Text}
		if p.FunctionCall != nil {
			cp.FunctionCall = &chat.FunctionCallPayload{
				Name: p.FunctionCall.Name,
				Args: p.FunctionCall.Args,
			}
		}
		out = append(out, cp)
	}
	return chat.StreamChunk{Content: out}
}
