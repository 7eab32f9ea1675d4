package chat

import "github.com/coachly/coachly/internal/log"

// Detector inspects canonical stream chunks for embedded tool invocation
// requests. It is stateless; diagnostic logging is its only side effect.
type Detector struct {
	logger log.Logger
}

// NewDetector creates a Detector.
func NewDetector(logger log.Logger) *Detector {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Detector{logger: logger}
}

// Detect returns the function-call payload embedded in a chunk, or nil.
// Checks run in priority order:
//
//  1. the legacy metadata field holding a direct function-call object
//  2. the legacy metadata field holding a list of tool-call wrappers,
//     taking the first wrapper's nested payload
//  3. a full scan of the content part array
//
// The content scan visits every element, not just the first: providers emit
// mixed arrays like [text, functionCall], so a first-only scan would
// silently drop calls.
func (d *Detector) Detect(chunk StreamChunk) *FunctionCallPayload {
	if chunk.FunctionCall != nil {
		return chunk.FunctionCall
	}

	if len(chunk.ToolCalls) > 0 && chunk.ToolCalls[0].Function != nil {
		return chunk.ToolCalls[0].Function
	}

	for i, part := range chunk.Content {
		if part.FunctionCall != nil {
			d.logger.Debug("function call found in content array",
				"index", i,
				"tool", part.FunctionCall.Name,
			)
			return part.FunctionCall
		}
	}

	return nil
}
