package conversation

import (
	"encoding/json"
	"fmt"
	"time"
)

// Status is the handling mode of a conversation. Only the five declared values
// can be produced by ParseStatus or by JSON/text decoding.
type Status string

const (
	StatusAgentActive     Status = "agente_activo"
	StatusHumanIntervened Status = "intervencion_humana"
	StatusUnanswered      Status = "sin_responder"
	StatusScheduled       Status = "agendada"
	StatusPendingSchedule Status = "pendiente_agendar"
)

// Statuses lists every status in display order.
var Statuses = []Status{
	StatusAgentActive,
	StatusHumanIntervened,
	StatusScheduled,
	StatusPendingSchedule,
	StatusUnanswered,
}

var statusLabels = map[Status]string{
	StatusAgentActive:     "Agente IA",
	StatusHumanIntervened: "Intervención Humana",
	StatusUnanswered:      "Sin Responder",
	StatusScheduled:       "Agendada",
	StatusPendingSchedule: "Pendiente Agendar",
}

var statusDescriptions = map[Status]string{
	StatusAgentActive:     "Agente conversacional activo",
	StatusHumanIntervened: "Intervención humana",
	StatusUnanswered:      "Sin responder",
	StatusScheduled:       "Cita agendada",
	StatusPendingSchedule: "Pendiente de agendar",
}

// ParseStatus converts raw input into a Status.
func ParseStatus(raw string) (Status, error) {
	s := Status(raw)
	if !s.Valid() {
		return "", &ValidationError{Field: "status", Reason: fmt.Sprintf("unknown status %q", raw)}
	}
	return s, nil
}

func (s Status) Valid() bool {
	_, ok := statusLabels[s]
	return ok
}

// Label is the short operator-facing name used in notifications and filters.
func (s Status) Label() string {
	return statusLabels[s]
}

// Description is the badge text shown on a conversation card.
func (s Status) Description() string {
	return statusDescriptions[s]
}

func (s Status) String() string {
	return string(s)
}

func (s *Status) UnmarshalText(text []byte) error {
	parsed, err := ParseStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

func (s *Status) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return &ValidationError{Field: "status", Reason: "must be a string"}
	}
	return s.UnmarshalText([]byte(raw))
}

// TimeFilter selects the window of the auxiliary timing metrics.
type TimeFilter string

const (
	TimeFilterToday TimeFilter = "hoy"
	TimeFilterWeek  TimeFilter = "semana"
	TimeFilterMonth TimeFilter = "mes"
)

var TimeFilters = []TimeFilter{TimeFilterToday, TimeFilterWeek, TimeFilterMonth}

func ParseTimeFilter(raw string) (TimeFilter, error) {
	switch f := TimeFilter(raw); f {
	case TimeFilterToday, TimeFilterWeek, TimeFilterMonth:
		return f, nil
	}
	return "", &ValidationError{Field: "time_filter", Reason: fmt.Sprintf("unknown time filter %q", raw)}
}

// Conversation is one ongoing exchange with a single contact.
type Conversation struct {
	ID                  string    `json:"id"`
	ContactName         string    `json:"contactName"`
	PhoneNumber         string    `json:"phoneNumber"`
	LastReceivedMessage string    `json:"lastReceivedMessage"`
	LastSentMessage     string    `json:"lastSentMessage"`
	LastMessageTime     time.Time `json:"lastMessageTime"`
	Status              Status    `json:"status"`
	MessagesCount       int       `json:"messagesCount"`
	// AverageResponseTime is expressed in minutes.
	AverageResponseTime *float64 `json:"averageResponseTime,omitempty"`
}

// DisplayName falls back to a placeholder for contacts without a name.
func (c Conversation) DisplayName() string {
	if c.ContactName == "" {
		return "Contacto sin nombre"
	}
	return c.ContactName
}

func (c Conversation) clone() Conversation {
	if c.AverageResponseTime != nil {
		v := *c.AverageResponseTime
		c.AverageResponseTime = &v
	}
	return c
}

// Preview truncates a message to maxLength runes, appending "..." when cut.
func Preview(message string, maxLength int) string {
	runes := []rune(message)
	if len(runes) <= maxLength {
		return message
	}
	return string(runes[:maxLength]) + "..."
}
