package conversation

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Store is the authoritative in-memory collection of conversations and their
// message histories. Every read returns copies, so the mutation methods are
// the only write path.
type Store struct {
	conversations []Conversation
	index         map[string]int
	history       map[string][]ChatMessage
	mutex         sync.RWMutex
}

// NewStore seeds a store. Conversations keep the order they are given in.
// Messages whose conversation is unknown are kept but never reachable.
func NewStore(seed []Conversation, history map[string][]ChatMessage) (*Store, error) {
	s := &Store{
		conversations: make([]Conversation, 0, len(seed)),
		index:         make(map[string]int, len(seed)),
		history:       make(map[string][]ChatMessage, len(history)),
	}

	for _, c := range seed {
		if c.ID == "" {
			return nil, &ValidationError{Field: "id", Reason: "conversation id is required"}
		}
		if _, exists := s.index[c.ID]; exists {
			return nil, &ValidationError{Field: "id", Reason: "duplicate conversation id " + c.ID}
		}
		if !c.Status.Valid() {
			return nil, &ValidationError{Field: "status", Reason: "conversation " + c.ID + " has unknown status " + string(c.Status)}
		}
		if c.MessagesCount < 0 {
			return nil, &ValidationError{Field: "messagesCount", Reason: "conversation " + c.ID + " has a negative message count"}
		}
		s.index[c.ID] = len(s.conversations)
		s.conversations = append(s.conversations, c.clone())
	}

	orphaned := 0
	for conversationID, messages := range history {
		for _, m := range messages {
			if err := m.Validate(); err != nil {
				return nil, err
			}
		}
		if _, exists := s.index[conversationID]; !exists {
			orphaned += len(messages)
		}
		s.history[conversationID] = append([]ChatMessage(nil), messages...)
	}

	if orphaned > 0 {
		log.Warn().
			Int("orphaned_messages", orphaned).
			Msg("Seed contains messages for unknown conversations")
	}

	return s, nil
}

// ListAll returns every conversation in seed order.
func (s *Store) ListAll() []Conversation {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	out := make([]Conversation, len(s.conversations))
	for i, c := range s.conversations {
		out[i] = c.clone()
	}
	return out
}

func (s *Store) FindByID(id string) (Conversation, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	i, ok := s.index[id]
	if !ok {
		return Conversation{}, false
	}
	return s.conversations[i].clone(), true
}

func (s *Store) Len() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return len(s.conversations)
}

// SetStatus replaces the status of a conversation and returns the updated
// record. On error the collection is left untouched.
func (s *Store) SetStatus(id string, status Status) (Conversation, error) {
	if !status.Valid() {
		return Conversation{}, &ValidationError{Field: "status", Reason: "unknown status " + string(status)}
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	i, ok := s.index[id]
	if !ok {
		return Conversation{}, &NotFoundError{ID: id}
	}
	s.conversations[i].Status = status
	return s.conversations[i].clone(), nil
}

// RecordSentMessage updates the last-sent cache of a conversation and counts
// the message.
func (s *Store) RecordSentMessage(id, content string, ts time.Time) (Conversation, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	i, ok := s.index[id]
	if !ok {
		return Conversation{}, &NotFoundError{ID: id}
	}
	c := &s.conversations[i]
	c.LastSentMessage = content
	c.LastMessageTime = ts
	c.MessagesCount++
	return c.clone(), nil
}

// History returns the message sequence of a conversation, empty when none.
func (s *Store) History(id string) []ChatMessage {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return append([]ChatMessage{}, s.history[id]...)
}

// AppendMessage adds a message to the end of its conversation history.
func (s *Store) AppendMessage(m ChatMessage) error {
	if err := m.Validate(); err != nil {
		return err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, ok := s.index[m.ConversationID]; !ok {
		return &NotFoundError{ID: m.ConversationID}
	}
	s.history[m.ConversationID] = append(s.history[m.ConversationID], m)
	return nil
}
