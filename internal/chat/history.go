package chat

// MaxHistoryTurns bounds how many stored turns the pipeline replays into a
// model call. Older turns are silently dropped to keep prompts bounded.
const MaxHistoryTurns = 6

// BuildHistory converts stored conversation turns into the ordered message
// sequence the model consumes. At most the last MaxHistoryTurns turns are
// kept, in original order. User turns map to user messages, assistant turns
// to model messages; turns with any other role are skipped so new roles can
// be introduced upstream without breaking older deployments.
//
// Pure function: no side effects.
func BuildHistory(turns []ConversationTurn) []Message {
	if len(turns) > MaxHistoryTurns {
		turns = turns[len(turns)-MaxHistoryTurns:]
	}

	msgs := make([]Message, 0, len(turns))
	for _, t := range turns {
		var role MessageRole
		switch t.Role {
		case TurnRoleUser:
			role = RoleUser
		case TurnRoleAssistant:
			role = RoleModel
		default:
			continue
		}
		msgs = append(msgs, Message{Role: role, Parts: turnParts(t)})
	}
	return msgs
}

// turnParts maps a stored turn's content to transport parts, preserving
// multimodal part order when present.
func turnParts(t ConversationTurn) []MessagePart {
	if len(t.Parts) == 0 {
		return []MessagePart{{Text: t.Content}}
	}
	parts := make([]MessagePart, 0, len(t.Parts))
	for _, p := range t.Parts {
		parts = append(parts, partToMessagePart(p))
	}
	return parts
}

func partToMessagePart(p Part) MessagePart {
	switch p.Kind {
	case PartImage:
		return MessagePart{MIMEType: p.MIMEType, Data: p.Data}
	default:
		return MessagePart{Text: p.Text}
	}
}

// BuildInitialMessages assembles the full prompt for the first model call of
// a turn: system prompt, bounded history, then the current user message.
// When attachments are present the user message is a single message whose
// content is the full part array, order preserved.
func BuildInitialMessages(systemPrompt string, history []Message, userMessage string, attachments []Part) []Message {
	msgs := make([]Message, 0, len(history)+2)
	if systemPrompt != "" {
		msgs = append(msgs, NewTextMessage(RoleSystem, systemPrompt))
	}
	msgs = append(msgs, history...)

	if len(attachments) == 0 {
		msgs = append(msgs, NewTextMessage(RoleUser, userMessage))
		return msgs
	}

	parts := make([]MessagePart, 0, len(attachments)+1)
	if userMessage != "" {
		parts = append(parts, MessagePart{Text: userMessage})
	}
	for _, a := range attachments {
		parts = append(parts, partToMessagePart(a))
	}
	msgs = append(msgs, Message{Role: RoleUser, Parts: parts})
	return msgs
}
