package model

import "time"

// MediaFrame is the realtime audio frame sent over the live session.
// Data holds the text-encoded PCM bytes.
type MediaFrame struct {
	Data     string `json:"data"`
	MIMEType string `json:"mimeType"`
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ConversationTurn is one immutable history entry. Timestamp is unix millis.
type ConversationTurn struct {
	Role      Role   `json:"role"`
	Content   string `json:"content"`
	Timestamp int64  `json:"timestamp"`
}

// NewTurn stamps a history entry with the current time.
func NewTurn(role Role, content string) ConversationTurn {
	return ConversationTurn{Role: role, Content: content, Timestamp: time.Now().UnixMilli()}
}

// Protocol is a user-defined trigger phrase and the action it maps to.
type Protocol struct {
	ID     string `json:"id"`
	Phrase string `json:"phrase"`
	Action string `json:"action"`
}

// PersistedState is the durable projection of the assistant state.
type PersistedState struct {
	Protocols []Protocol
	Memories  []string
	History   []ConversationTurn
}

// Stats are the simulated system gauges the remote model can adjust.
type Stats struct {
	Power  int `json:"power"`
	Memory int `json:"memory"`
	Logic  int `json:"logic"`
}

// ToolCall is a function call requested by the remote model.
type ToolCall struct {
	ID   string
	Name string
	Args map[string]any
}

// ToolResponse is the reply sent back for a ToolCall.
type ToolResponse struct {
	ID       string
	Name     string
	Response map[string]any
}

type SourceRef struct {
	URI   string `json:"uri"`
	Title string `json:"title"`
}

// ScriptureResult is the outcome of a grounded scripture lookup.
type ScriptureResult struct {
	Explanation string      `json:"explanation"`
	Source      string      `json:"source"`
	URLs        []SourceRef `json:"urls"`
}

// Snapshot is everything the HUD renders at one point in time.
type Snapshot struct {
	Status          string             `json:"status"`
	Listening       bool               `json:"listening"`
	Muted           bool               `json:"muted"`
	Transcription   string             `json:"transcription"`
	Response        string             `json:"response"`
	Logs            []string           `json:"logs"`
	Stats           Stats              `json:"stats"`
	Protocols       []Protocol         `json:"protocols"`
	Memories        []string           `json:"memories"`
	History         []ConversationTurn `json:"history"`
	Searching       bool               `json:"searching"`
	ScriptureResult *ScriptureResult   `json:"scriptureResult"`
}
