package session

import (
	"strings"
	"sync"
	"time"

	"github.com/NextMind-AI/chatviewer-go/conversation"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Store is the part of the conversation store the chat session depends on.
type Store interface {
	FindByID(id string) (conversation.Conversation, bool)
	History(id string) []conversation.ChatMessage
	AppendMessage(m conversation.ChatMessage) error
	RecordSentMessage(id, content string, ts time.Time) (conversation.Conversation, error)
}

// Options configures a Session. Zero values fall back to real time, random
// UUIDs and immediate delivery.
type Options struct {
	SendDelay   time.Duration
	Now         func() time.Time
	NewID       func() string
	OnDelivered func(conversation.ChatMessage)
}

// State is a read-only view of the open conversation.
type State struct {
	Conversation conversation.Conversation  `json:"conversation"`
	Messages     []conversation.ChatMessage `json:"messages"`
	Counts       conversation.RoleCounts    `json:"counts"`
	Sending      bool                       `json:"sending"`
}

// Session tracks which conversation is open in the chat viewer and the
// messages shown for it.
type Session struct {
	store   Store
	options Options

	conversationID string
	messages       []conversation.ChatMessage
	open           bool
	pending        *delivery
	mutex          sync.Mutex
}

func New(store Store, options Options) *Session {
	if options.Now == nil {
		options.Now = time.Now
	}
	if options.NewID == nil {
		options.NewID = func() string { return "msg-" + uuid.NewString() }
	}
	return &Session{
		store:   store,
		options: options,
	}
}

// Open selects a conversation and loads its history. A conversation without
// history opens with an empty sequence.
func (s *Session) Open(id string) error {
	c, ok := s.store.FindByID(id)
	if !ok {
		return &conversation.NotFoundError{ID: id}
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.cancelPendingLocked()
	s.conversationID = c.ID
	s.messages = s.store.History(c.ID)
	s.open = true

	log.Info().
		Str("conversation_id", id).
		Int("messages", len(s.messages)).
		Msg("Chat session opened")

	return nil
}

// Close clears the selection. Calling it without an open session is a no-op.
func (s *Session) Close() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if !s.open {
		return
	}
	s.cancelPendingLocked()
	log.Info().Str("conversation_id", s.conversationID).Msg("Chat session closed")

	s.conversationID = ""
	s.messages = nil
	s.open = false
}

// OpenID returns the id of the open conversation.
func (s *Session) OpenID() (string, bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.conversationID, s.open
}

func (s *Session) Current() (State, bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if !s.open {
		return State{}, false
	}
	c, ok := s.store.FindByID(s.conversationID)
	if !ok {
		return State{}, false
	}

	messages := append([]conversation.ChatMessage{}, s.messages...)
	return State{
		Conversation: c,
		Messages:     messages,
		Counts:       conversation.CountRoles(messages),
		Sending:      s.pending != nil,
	}, true
}

// AppendOperatorMessage adds a human-operator message to the open
// conversation. Blank content is ignored and reported with ok=false.
func (s *Session) AppendOperatorMessage(content string) (conversation.ChatMessage, bool, error) {
	s.mutex.Lock()

	if !s.open {
		s.mutex.Unlock()
		return conversation.ChatMessage{}, false, &conversation.ValidationError{Field: "session", Reason: "no conversation is open"}
	}

	content = strings.TrimSpace(content)
	if content == "" {
		s.mutex.Unlock()
		return conversation.ChatMessage{}, false, nil
	}

	ts := s.options.Now()
	msg := conversation.NewOperatorMessage(s.options.NewID(), s.conversationID, content, ts)

	// The append validates the message, so a rejected one is never counted.
	if err := s.store.AppendMessage(msg); err != nil {
		s.mutex.Unlock()
		return conversation.ChatMessage{}, false, err
	}
	if _, err := s.store.RecordSentMessage(s.conversationID, content, ts); err != nil {
		s.mutex.Unlock()
		return conversation.ChatMessage{}, false, err
	}
	s.messages = append(s.messages, msg)

	log.Info().
		Str("conversation_id", s.conversationID).
		Str("message_id", msg.ID).
		Msg("Operator message appended")

	if s.options.SendDelay > 0 {
		s.scheduleDeliveryLocked(msg)
		s.mutex.Unlock()
		return msg, true, nil
	}

	s.mutex.Unlock()
	if s.options.OnDelivered != nil {
		s.options.OnDelivered(msg)
	}
	return msg, true, nil
}

// Sending reports whether a send is still waiting to complete.
func (s *Session) Sending() bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.pending != nil
}
