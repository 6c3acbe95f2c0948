package models

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// ChatTurn is one element of the conversation history sent with /chat.
type ChatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
