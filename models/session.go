package models

import "time"

// Chat roles as stored in conversation history.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// ToolCall is one structured tool request emitted by the model.
type ToolCall struct {
	ID        string `bson:"id" json:"id"`
	Name      string `bson:"name" json:"name"`
	Arguments string `bson:"arguments" json:"arguments"`
}

// ChatMessage is one turn of a conversation. Tool-result turns carry the
// ToolCallID of the call they answer; the model relies on that correlation.
type ChatMessage struct {
	Role       string     `bson:"role" json:"role"`
	Content    string     `bson:"content" json:"content"`
	ToolCalls  []ToolCall `bson:"toolCalls,omitempty" json:"toolCalls,omitempty"`
	ToolCallID string     `bson:"toolCallId,omitempty" json:"toolCallId,omitempty"`
}

// Session is one conversation, keyed by (instance, caller-supplied session id).
// The system turn is rebuilt per request and never persisted.
type Session struct {
	ID         string        `bson:"id" json:"id"`
	InstanceID string        `bson:"instanceId" json:"instanceId"`
	SessionID  string        `bson:"sessionId" json:"sessionId"`
	Messages   []ChatMessage `bson:"messages" json:"messages"`
	CreatedAt  time.Time     `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time     `bson:"updatedAt" json:"updatedAt"`
}
