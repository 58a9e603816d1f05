package session

import (
	"context"
	"time"

	"github.com/NextMind-AI/chatviewer-go/conversation"
	"github.com/rs/zerolog/log"
)

// delivery is the simulated send acknowledgement of one operator message. It
// only completes if it is still the session's pending delivery when it fires.
type delivery struct {
	message conversation.ChatMessage
	timer   *time.Timer
	cancel  context.CancelFunc
}

func (s *Session) scheduleDeliveryLocked(msg conversation.ChatMessage) {
	s.cancelPendingLocked()

	ctx, cancel := context.WithCancel(context.Background())
	d := &delivery{
		message: msg,
		cancel:  cancel,
	}
	d.timer = time.AfterFunc(s.options.SendDelay, func() {
		s.deliver(ctx, d)
	})
	s.pending = d

	log.Debug().
		Str("conversation_id", msg.ConversationID).
		Str("message_id", msg.ID).
		Dur("delay", s.options.SendDelay).
		Msg("Scheduled message delivery")
}

func (s *Session) deliver(ctx context.Context, d *delivery) {
	s.mutex.Lock()
	if ctx.Err() != nil || s.pending != d {
		s.mutex.Unlock()
		log.Info().
			Str("message_id", d.message.ID).
			Msg("Discarded delivery for a stale session")
		return
	}
	s.pending = nil
	onDelivered := s.options.OnDelivered
	s.mutex.Unlock()

	log.Info().
		Str("conversation_id", d.message.ConversationID).
		Str("message_id", d.message.ID).
		Msg("Message delivered")

	if onDelivered != nil {
		onDelivered(d.message)
	}
}

func (s *Session) cancelPendingLocked() {
	if s.pending == nil {
		return
	}
	log.Info().
		Str("message_id", s.pending.message.ID).
		Msg("Cancelling pending delivery")

	s.pending.timer.Stop()
	s.pending.cancel()
	s.pending = nil
}
