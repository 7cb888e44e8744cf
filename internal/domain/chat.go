package domain

// Tool call status values
const (
	ToolStatusRunning   = "running"
	ToolStatusCompleted = "completed"
	ToolStatusError     = "error"
)

// Stream event types
const (
	EventTextChunk   = "text_chunk"
	EventCitation    = "citation"
	EventToolCall    = "tool_call"
	EventUIComponent = "ui_component"
	EventComplete    = "complete"
	EventError       = "error"
)

// ChatRequest is the request to the streaming chat endpoint
type ChatRequest struct {
	Query          string `json:"query" binding:"required"`
	ConversationID string `json:"conversation_id,omitempty"`
}

// Citation references a passage in a source PDF document
type Citation struct {
	ID             int      `json:"id"`
	Document       string   `json:"document"`
	Page           int      `json:"page"`
	TextSnippet    string   `json:"text_snippet"`
	RelevanceScore *float64 `json:"relevance_score,omitempty"`
}

// ToolCall is a reasoning step indicator shown during response generation
type ToolCall struct {
	Tool    string `json:"tool"`
	Status  string `json:"status"` // running, completed, error
	Message string `json:"message,omitempty"`
}

// UIComponent describes a generative UI component attached to a response
type UIComponent struct {
	Type string         `json:"type"`
	Data map[string]any `json:"data"`
}

// StreamEvent is one unit of the SSE streaming protocol. Exactly one payload
// field is populated, selected by Type.
type StreamEvent struct {
	Type          string         `json:"type"`
	Content       string         `json:"content,omitempty"`
	Citation      *Citation      `json:"citation,omitempty"`
	ToolCall      *ToolCall      `json:"tool_call,omitempty"`
	ComponentType string         `json:"component_type,omitempty"`
	ComponentData map[string]any `json:"component_data,omitempty"`
}
