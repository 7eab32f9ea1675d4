// Package chat implements the streaming conversational tool-orchestration
// pipeline at the heart of coachly.
//
// A turn flows through six cooperating pieces: the intent Router selects a
// plan persona, BuildInitialMessages assembles the prompt from bounded
// history, the Pipeline streams the model call through the Detector and
// Emitter, and when a tool call is found the Pipeline validates, dispatches
// it at most once, and re-invokes the model with the result.
//
// Everything here is request-scoped: a Pipeline is shared and stateless,
// while all mutable turn state lives inside RunTurn. Chunk processing is
// strictly sequential so downstream consumers render text in arrival order.
package chat
