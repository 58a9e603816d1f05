package conversation

import "time"

// Role identifies who authored a chat message.
type Role string

const (
	RoleUser     Role = "user"
	RoleAgent    Role = "agent"
	RoleOperator Role = "operator"
)

var roleLabels = map[Role]string{
	RoleUser:     "Usuario",
	RoleAgent:    "Agente IA",
	RoleOperator: "Operador",
}

func (r Role) Label() string {
	return roleLabels[r]
}

// ChatMessage is a single entry in a conversation history. The sender role is
// encoded by IsFromUser/IsFromAgent; both set at once is never valid.
type ChatMessage struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversationId"`
	Content        string    `json:"content"`
	Timestamp      time.Time `json:"timestamp"`
	IsFromUser     bool      `json:"isFromUser"`
	IsFromAgent    bool      `json:"isFromAgent"`
}

func NewUserMessage(id, conversationID, content string, ts time.Time) ChatMessage {
	return ChatMessage{ID: id, ConversationID: conversationID, Content: content, Timestamp: ts, IsFromUser: true}
}

func NewAgentMessage(id, conversationID, content string, ts time.Time) ChatMessage {
	return ChatMessage{ID: id, ConversationID: conversationID, Content: content, Timestamp: ts, IsFromAgent: true}
}

func NewOperatorMessage(id, conversationID, content string, ts time.Time) ChatMessage {
	return ChatMessage{ID: id, ConversationID: conversationID, Content: content, Timestamp: ts}
}

func (m ChatMessage) Role() Role {
	switch {
	case m.IsFromUser:
		return RoleUser
	case m.IsFromAgent:
		return RoleAgent
	default:
		return RoleOperator
	}
}

// Validate rejects messages that claim to be from both the user and the agent.
func (m ChatMessage) Validate() error {
	if m.ID == "" {
		return &ValidationError{Field: "id", Reason: "message id is required"}
	}
	if m.IsFromUser && m.IsFromAgent {
		return &ValidationError{Field: "sender", Reason: "message " + m.ID + " cannot be from both user and agent"}
	}
	return nil
}

// RoleCounts tallies a message sequence by sender role.
type RoleCounts struct {
	User     int `json:"user"`
	Agent    int `json:"agent"`
	Operator int `json:"operator"`
}

func CountRoles(messages []ChatMessage) RoleCounts {
	var counts RoleCounts
	for _, m := range messages {
		switch m.Role() {
		case RoleUser:
			counts.User++
		case RoleAgent:
			counts.Agent++
		default:
			counts.Operator++
		}
	}
	return counts
}
