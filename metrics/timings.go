package metrics

import (
	"github.com/NextMind-AI/chatviewer-go/conversation"
)

// Timings maps each time filter to its timing figures.
type Timings map[conversation.TimeFilter]Timing

// For returns the timing set of a filter, approximating it from the
// conversations when none was supplied.
func (t Timings) For(filter conversation.TimeFilter, conversations []conversation.Conversation) Timing {
	if timing, ok := t[filter]; ok {
		return timing
	}
	return DefaultTiming(conversations)
}

// Clone copies the map so perturbations never leak into the caller's data.
func (t Timings) Clone() Timings {
	out := make(Timings, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}

// Perturb shifts the hours-saved figure of every set by delta, clamped at zero.
// Counts are never touched.
func (t Timings) Perturb(delta float64) {
	for k, v := range t {
		v.TiempoManualAhorrado += delta
		if v.TiempoManualAhorrado < 0 {
			v.TiempoManualAhorrado = 0
		}
		t[k] = v
	}
}
