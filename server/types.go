package server

import (
	"time"

	"github.com/NextMind-AI/chatviewer-go/conversation"
	"github.com/NextMind-AI/chatviewer-go/metrics"
	"github.com/NextMind-AI/chatviewer-go/session"
)

// previewLength is how many characters of a message the list cards show.
const previewLength = 60

// ConversationSummary is a conversation as rendered by a list card.
type ConversationSummary struct {
	conversation.Conversation
	DisplayName       string `json:"displayName"`
	StatusLabel       string `json:"statusLabel"`
	StatusDescription string `json:"statusDescription"`
	ReceivedPreview   string `json:"receivedPreview"`
	SentPreview       string `json:"sentPreview"`
}

func newConversationSummary(c conversation.Conversation) ConversationSummary {
	return ConversationSummary{
		Conversation:      c,
		DisplayName:       c.DisplayName(),
		StatusLabel:       c.Status.Label(),
		StatusDescription: c.Status.Description(),
		ReceivedPreview:   conversation.Preview(c.LastReceivedMessage, previewLength),
		SentPreview:       conversation.Preview(c.LastSentMessage, previewLength),
	}
}

type ConversationListResponse struct {
	Conversations []ConversationSummary `json:"conversations"`
	Total         int                   `json:"total"`
}

// ConversationMessage is a chat message with its sender resolved.
type ConversationMessage struct {
	conversation.ChatMessage
	Sender      conversation.Role `json:"sender"`
	SenderLabel string            `json:"senderLabel"`
}

func newConversationMessage(m conversation.ChatMessage) ConversationMessage {
	return ConversationMessage{
		ChatMessage: m,
		Sender:      m.Role(),
		SenderLabel: m.Role().Label(),
	}
}

func newConversationMessages(messages []conversation.ChatMessage) []ConversationMessage {
	out := make([]ConversationMessage, 0, len(messages))
	for _, m := range messages {
		out = append(out, newConversationMessage(m))
	}
	return out
}

// ConversationResponse represents the paginated response for conversation messages
type ConversationResponse struct {
	Messages        []ConversationMessage `json:"messages"`
	TotalMessages   int                   `json:"total_messages"`
	Page            int                   `json:"page"`
	PageSize        int                   `json:"page_size"`
	TotalPages      int                   `json:"total_pages"`
	HasNextPage     bool                  `json:"has_next_page"`
	HasPreviousPage bool                  `json:"has_previous_page"`
}

type DashboardResponse struct {
	Metrics     metrics.DashboardMetrics `json:"metrics"`
	Formatted   FormattedTiming          `json:"formatted"`
	TimeFilter  conversation.TimeFilter  `json:"timeFilter"`
	LastRefresh time.Time                `json:"lastRefresh"`
	NextRefresh *time.Time               `json:"nextRefresh,omitempty"`
}

// FormattedTiming carries the duration figures as the panel displays them.
type FormattedTiming struct {
	TiempoPromedioRespuesta    string `json:"tiempoPromedioRespuesta"`
	TiempoPromedioAgendamiento string `json:"tiempoPromedioAgendamiento"`
}

type SessionResponse struct {
	Open         bool                    `json:"open"`
	Conversation *ConversationSummary    `json:"conversation,omitempty"`
	Messages     []ConversationMessage   `json:"messages,omitempty"`
	Counts       conversation.RoleCounts `json:"counts"`
	Sending      bool                    `json:"sending"`
}

func newSessionResponse(state session.State) SessionResponse {
	summary := newConversationSummary(state.Conversation)
	return SessionResponse{
		Open:         true,
		Conversation: &summary,
		Messages:     newConversationMessages(state.Messages),
		Counts:       state.Counts,
		Sending:      state.Sending,
	}
}

type HealthResponse struct {
	Status        string    `json:"status"`
	Conversations int       `json:"conversations"`
	SessionOpen   bool      `json:"session_open"`
	LastRefresh   time.Time `json:"last_refresh"`
	Uptime        string    `json:"uptime"`
}

type StatusRequest struct {
	Status string `json:"status"`
}

type SendMessageRequest struct {
	Content string `json:"content"`
}

type OpenSessionRequest struct {
	ConversationID string `json:"conversation_id"`
}

type RefreshResponse struct {
	LastRefresh time.Time `json:"lastRefresh"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}
