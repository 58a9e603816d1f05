package metrics

import (
	"fmt"
	"math"

	"github.com/NextMind-AI/chatviewer-go/conversation"
)

// DashboardMetrics is an aggregate snapshot of the conversation collection.
// It has no identity of its own and is always recomputed from the store.
type DashboardMetrics struct {
	TotalConversacionesActivas int `json:"totalConversacionesActivas"`
	ConversacionesAgente       int `json:"conversacionesAgente"`
	// The wire name keeps the spelling the dashboard frontend expects.
	IntervencionesHumanas      int `json:"intervenciouesHumanas"`
	CitasAgendadas             int `json:"citasAgendadas"`
	ConversacionesSinResponder int `json:"conversacionesSinResponder"`
	PendientesAgendar          int `json:"pendientesAgendar"`

	Timing
}

// Timing holds the timing and efficiency figures, all supplied from outside
// the conversation collection. Times are in minutes, hours saved in hours and
// attendance as a percentage.
type Timing struct {
	TiempoPromedioRespuesta    float64 `json:"tiempoPromedioRespuesta"`
	TiempoPromedioAgendamiento float64 `json:"tiempoPromedioAgendamiento"`
	TiempoManualAhorrado       float64 `json:"tiempoManualAhorrado"`
	AsistenciaCitas            float64 `json:"asistenciaCitas"`
}

// Compute counts the conversations per status in a single pass. Statuses are
// mutually exclusive, so the bucket counts always add up to the total.
func Compute(conversations []conversation.Conversation, timing Timing) DashboardMetrics {
	m := DashboardMetrics{
		TotalConversacionesActivas: len(conversations),
		Timing:                     timing,
	}

	for _, c := range conversations {
		switch c.Status {
		case conversation.StatusAgentActive:
			m.ConversacionesAgente++
		case conversation.StatusHumanIntervened:
			m.IntervencionesHumanas++
		case conversation.StatusScheduled:
			m.CitasAgendadas++
		case conversation.StatusUnanswered:
			m.ConversacionesSinResponder++
		case conversation.StatusPendingSchedule:
			m.PendientesAgendar++
		}
	}

	return m
}

// BucketSum adds up the per-status counts.
func (m DashboardMetrics) BucketSum() int {
	return m.ConversacionesAgente +
		m.IntervencionesHumanas +
		m.CitasAgendadas +
		m.ConversacionesSinResponder +
		m.PendientesAgendar
}

// Count returns the bucket for a single status.
func (m DashboardMetrics) Count(status conversation.Status) int {
	switch status {
	case conversation.StatusAgentActive:
		return m.ConversacionesAgente
	case conversation.StatusHumanIntervened:
		return m.IntervencionesHumanas
	case conversation.StatusScheduled:
		return m.CitasAgendadas
	case conversation.StatusUnanswered:
		return m.ConversacionesSinResponder
	case conversation.StatusPendingSchedule:
		return m.PendientesAgendar
	}
	return 0
}

// DefaultTiming approximates the timing figures when no external data is
// available: the mean of the known per-conversation response times.
func DefaultTiming(conversations []conversation.Conversation) Timing {
	var sum float64
	var n int
	for _, c := range conversations {
		if c.AverageResponseTime != nil {
			sum += *c.AverageResponseTime
			n++
		}
	}
	if n == 0 {
		return Timing{}
	}
	return Timing{TiempoPromedioRespuesta: sum / float64(n)}
}

// FormatMinutes renders a duration in minutes as "N min" or "Hh Mm".
func FormatMinutes(minutes float64) string {
	if minutes < 60 {
		return fmt.Sprintf("%d min", int(math.Round(minutes)))
	}
	hours := int(math.Floor(minutes / 60))
	remaining := int(math.Round(math.Mod(minutes, 60)))
	return fmt.Sprintf("%dh %dm", hours, remaining)
}
