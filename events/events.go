package events

import (
	"context"
	"time"

	"github.com/NextMind-AI/chatviewer-go/conversation"
	"github.com/NextMind-AI/chatviewer-go/metrics"
	"github.com/google/uuid"
)

const (
	TypeStatusChanged = "conversation.status_changed.v1"
	TypeMessageSent   = "conversation.message_sent.v1"
	TypeRefreshed     = "dashboard.refreshed.v1"
)

// Event describes a completed dashboard action. Metrics are the aggregate
// after the action was applied.
type Event struct {
	Type           string                   `json:"type"`
	ConversationID string                   `json:"conversation_id,omitempty"`
	PreviousStatus conversation.Status      `json:"previous_status,omitempty"`
	Status         conversation.Status      `json:"status,omitempty"`
	MessageID      string                   `json:"message_id,omitempty"`
	Metrics        metrics.DashboardMetrics `json:"metrics"`
	Time           time.Time                `json:"time"`
}

type Meta struct {
	// Unique event ID
	ID string `json:"id"`
	// Trace / request correlation ID
	CorrelationID string `json:"correlation_id,omitempty"`
	// Emitting service
	Producer string `json:"producer,omitempty"`
	// Timestamp when the event was emitted
	Time time.Time `json:"time"`
	// Event name and version, e.g. conversation.status_changed.v1
	Type string `json:"type"`
}

type Envelope struct {
	Meta Meta  `json:"meta"`
	Data Event `json:"data"`
}

// Wrap builds an envelope with a fresh id.
func Wrap(producer string, e Event) Envelope {
	id := uuid.NewString()
	return Envelope{
		Meta: Meta{
			ID:            id,
			CorrelationID: id,
			Producer:      producer,
			Time:          e.Time.UTC(),
			Type:          e.Type,
		},
		Data: e,
	}
}

// Publisher forwards events outside the process.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}
