package fixtures

import (
	"fmt"
	"time"

	"github.com/NextMind-AI/chatviewer-go/conversation"
	"github.com/NextMind-AI/chatviewer-go/metrics"
)

// File is the on-disk fixture document.
type File struct {
	// Conversations are listed in display order
	Conversations []ConversationRecord `json:"conversations" jsonschema_description:"Seed conversations in display order"`
	// Messages maps a conversation id to its chat history
	Messages map[string][]MessageRecord `json:"messages,omitempty" jsonschema_description:"Chat history keyed by conversation id"`
	// Timing holds the auxiliary timing figures per time filter (hoy, semana, mes)
	Timing map[string]metrics.Timing `json:"timing,omitempty" jsonschema_description:"Timing figures keyed by time filter"`
}

// ConversationRecord is a conversation as written in a fixture. Timestamps
// are either absolute or relative to load time.
type ConversationRecord struct {
	ID                  string     `json:"id" jsonschema:"minLength=1"`
	ContactName         string     `json:"contactName"`
	PhoneNumber         string     `json:"phoneNumber"`
	LastReceivedMessage string     `json:"lastReceivedMessage"`
	LastSentMessage     string     `json:"lastSentMessage"`
	LastMessageTime     *time.Time `json:"lastMessageTime,omitempty"`
	MinutesAgo          *float64   `json:"minutesAgo,omitempty" jsonschema_description:"Age of the last message relative to load time"`
	Status              string     `json:"status" jsonschema:"enum=agente_activo,enum=intervencion_humana,enum=sin_responder,enum=agendada,enum=pendiente_agendar"`
	MessagesCount       int        `json:"messagesCount" jsonschema:"minimum=0"`
	AverageResponseTime *float64   `json:"averageResponseTime,omitempty" jsonschema_description:"Average response time in minutes"`
}

type MessageRecord struct {
	ID          string     `json:"id" jsonschema:"minLength=1"`
	Content     string     `json:"content"`
	Timestamp   *time.Time `json:"timestamp,omitempty"`
	MinutesAgo  *float64   `json:"minutesAgo,omitempty"`
	IsFromUser  bool       `json:"isFromUser"`
	IsFromAgent bool       `json:"isFromAgent"`
}

// Dataset is a resolved fixture ready to seed the store.
type Dataset struct {
	Conversations []conversation.Conversation
	Messages      map[string][]conversation.ChatMessage
	Timings       metrics.Timings
}

func resolveTime(abs *time.Time, minutesAgo *float64, now time.Time) time.Time {
	switch {
	case abs != nil:
		return *abs
	case minutesAgo != nil:
		return now.Add(-time.Duration(*minutesAgo * float64(time.Minute)))
	default:
		return now
	}
}

func (r ConversationRecord) Resolve(now time.Time) (conversation.Conversation, error) {
	status, err := conversation.ParseStatus(r.Status)
	if err != nil {
		return conversation.Conversation{}, fmt.Errorf("conversation %s: %w", r.ID, err)
	}
	return conversation.Conversation{
		ID:                  r.ID,
		ContactName:         r.ContactName,
		PhoneNumber:         r.PhoneNumber,
		LastReceivedMessage: r.LastReceivedMessage,
		LastSentMessage:     r.LastSentMessage,
		LastMessageTime:     resolveTime(r.LastMessageTime, r.MinutesAgo, now),
		Status:              status,
		MessagesCount:       r.MessagesCount,
		AverageResponseTime: r.AverageResponseTime,
	}, nil
}

func (r MessageRecord) Resolve(conversationID string, now time.Time) (conversation.ChatMessage, error) {
	m := conversation.ChatMessage{
		ID:             r.ID,
		ConversationID: conversationID,
		Content:        r.Content,
		Timestamp:      resolveTime(r.Timestamp, r.MinutesAgo, now),
		IsFromUser:     r.IsFromUser,
		IsFromAgent:    r.IsFromAgent,
	}
	if err := m.Validate(); err != nil {
		return conversation.ChatMessage{}, fmt.Errorf("conversation %s: %w", conversationID, err)
	}
	return m, nil
}

// Resolve converts the document into domain values, anchoring relative
// timestamps at now.
func (f File) Resolve(now time.Time) (Dataset, error) {
	ds := Dataset{
		Conversations: make([]conversation.Conversation, 0, len(f.Conversations)),
		Messages:      make(map[string][]conversation.ChatMessage, len(f.Messages)),
		Timings:       make(metrics.Timings, len(f.Timing)),
	}

	for _, record := range f.Conversations {
		c, err := record.Resolve(now)
		if err != nil {
			return Dataset{}, err
		}
		ds.Conversations = append(ds.Conversations, c)
	}

	for conversationID, records := range f.Messages {
		messages := make([]conversation.ChatMessage, 0, len(records))
		for _, record := range records {
			m, err := record.Resolve(conversationID, now)
			if err != nil {
				return Dataset{}, err
			}
			messages = append(messages, m)
		}
		ds.Messages[conversationID] = messages
	}

	for key, timing := range f.Timing {
		filter, err := conversation.ParseTimeFilter(key)
		if err != nil {
			return Dataset{}, err
		}
		ds.Timings[filter] = timing
	}

	return ds, nil
}

// Store builds a conversation store seeded with the dataset.
func (d Dataset) Store() (*conversation.Store, error) {
	return conversation.NewStore(d.Conversations, d.Messages)
}
