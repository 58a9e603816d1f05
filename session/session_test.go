package session

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/NextMind-AI/chatviewer-go/conversation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)

func newStore(t *testing.T) *conversation.Store {
	t.Helper()
	store, err := conversation.NewStore(
		[]conversation.Conversation{
			{ID: "1", ContactName: "María González", Status: conversation.StatusAgentActive, MessagesCount: 8},
			{ID: "2", ContactName: "Carlos Rodríguez", Status: conversation.StatusHumanIntervened, MessagesCount: 12},
		},
		map[string][]conversation.ChatMessage{
			"1": {
				conversation.NewUserMessage("m1", "1", "Hola", now.Add(-time.Hour)),
				conversation.NewAgentMessage("m2", "1", "¡Hola María!", now.Add(-58*time.Minute)),
			},
		},
	)
	require.NoError(t, err)
	return store
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("op-%d", n)
	}
}

type deliveries struct {
	mu       sync.Mutex
	messages []conversation.ChatMessage
}

func (d *deliveries) record(m conversation.ChatMessage) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.messages = append(d.messages, m)
}

func (d *deliveries) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.messages)
}

func TestOpen_LoadsHistory(t *testing.T) {
	s := New(newStore(t), Options{})

	require.NoError(t, s.Open("1"))
	state, ok := s.Current()
	require.True(t, ok)
	assert.Equal(t, "1", state.Conversation.ID)
	assert.Len(t, state.Messages, 2)
	assert.Equal(t, conversation.RoleCounts{User: 1, Agent: 1}, state.Counts)

	require.NoError(t, s.Open("2"))
	state, ok = s.Current()
	require.True(t, ok)
	assert.Equal(t, "2", state.Conversation.ID)
	assert.Empty(t, state.Messages)
}

func TestOpen_UnknownConversation(t *testing.T) {
	s := New(newStore(t), Options{})

	err := s.Open("404")
	assert.True(t, errors.Is(err, conversation.ErrNotFound))
	_, ok := s.Current()
	assert.False(t, ok)
}

func TestClose_IsIdempotent(t *testing.T) {
	s := New(newStore(t), Options{})
	s.Close()

	require.NoError(t, s.Open("1"))
	s.Close()
	s.Close()

	_, ok := s.Current()
	assert.False(t, ok)
	_, open := s.OpenID()
	assert.False(t, open)
}

func TestAppendOperatorMessage(t *testing.T) {
	store := newStore(t)
	s := New(store, Options{Now: func() time.Time { return now }, NewID: sequentialIDs()})
	require.NoError(t, s.Open("1"))

	msg, ok, err := s.AppendOperatorMessage("Hola, te atiendo yo ahora")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "op-1", msg.ID)
	assert.False(t, msg.IsFromUser)
	assert.False(t, msg.IsFromAgent)
	assert.Equal(t, now, msg.Timestamp)

	state, _ := s.Current()
	require.Len(t, state.Messages, 3)
	assert.Equal(t, "Hola, te atiendo yo ahora", state.Messages[2].Content)
	assert.Equal(t, 1, state.Counts.Operator)

	c, _ := store.FindByID("1")
	assert.Equal(t, 9, c.MessagesCount)
	assert.Equal(t, "Hola, te atiendo yo ahora", c.LastSentMessage)
	assert.Equal(t, now, c.LastMessageTime)
	assert.Len(t, store.History("1"), 3)
}

func TestAppendOperatorMessage_BlankIsNoop(t *testing.T) {
	store := newStore(t)
	s := New(store, Options{})
	require.NoError(t, s.Open("1"))

	for _, content := range []string{"", "   ", "\n\t"} {
		_, ok, err := s.AppendOperatorMessage(content)
		require.NoError(t, err)
		assert.False(t, ok)
	}

	state, _ := s.Current()
	assert.Len(t, state.Messages, 2)
	c, _ := store.FindByID("1")
	assert.Equal(t, 8, c.MessagesCount)
}

func TestAppendOperatorMessage_TrimsContent(t *testing.T) {
	s := New(newStore(t), Options{})
	require.NoError(t, s.Open("1"))

	msg, ok, err := s.AppendOperatorMessage("  hola  ")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "hola", msg.Content)
}

func TestAppendOperatorMessage_RequiresOpenSession(t *testing.T) {
	s := New(newStore(t), Options{})

	_, ok, err := s.AppendOperatorMessage("hola")
	assert.False(t, ok)
	assert.True(t, errors.Is(err, conversation.ErrValidation))
}

func TestDelivery_ImmediateWithoutDelay(t *testing.T) {
	var got deliveries
	s := New(newStore(t), Options{OnDelivered: got.record})
	require.NoError(t, s.Open("1"))

	_, _, err := s.AppendOperatorMessage("hola")
	require.NoError(t, err)
	assert.Equal(t, 1, got.count())
	assert.False(t, s.Sending())
}

func TestDelivery_FiresAfterDelay(t *testing.T) {
	var got deliveries
	s := New(newStore(t), Options{SendDelay: 20 * time.Millisecond, OnDelivered: got.record})
	require.NoError(t, s.Open("1"))

	_, _, err := s.AppendOperatorMessage("hola")
	require.NoError(t, err)
	assert.True(t, s.Sending())

	assert.Eventually(t, func() bool { return got.count() == 1 }, time.Second, 5*time.Millisecond)
	assert.False(t, s.Sending())
}

func TestDelivery_DiscardedWhenSessionCloses(t *testing.T) {
	var got deliveries
	s := New(newStore(t), Options{SendDelay: 30 * time.Millisecond, OnDelivered: got.record})
	require.NoError(t, s.Open("1"))

	_, _, err := s.AppendOperatorMessage("hola")
	require.NoError(t, err)
	s.Close()

	assert.Never(t, func() bool { return got.count() > 0 }, 120*time.Millisecond, 10*time.Millisecond)
}

func TestDelivery_DiscardedWhenAnotherConversationOpens(t *testing.T) {
	var got deliveries
	s := New(newStore(t), Options{SendDelay: 30 * time.Millisecond, OnDelivered: got.record})
	require.NoError(t, s.Open("1"))

	_, _, err := s.AppendOperatorMessage("hola")
	require.NoError(t, err)
	require.NoError(t, s.Open("2"))

	assert.Never(t, func() bool { return got.count() > 0 }, 120*time.Millisecond, 10*time.Millisecond)
	assert.False(t, s.Sending())
}

func TestDelivery_NewSendReplacesPending(t *testing.T) {
	var got deliveries
	s := New(newStore(t), Options{SendDelay: 30 * time.Millisecond, OnDelivered: got.record, NewID: sequentialIDs()})
	require.NoError(t, s.Open("1"))

	_, _, err := s.AppendOperatorMessage("uno")
	require.NoError(t, err)
	_, _, err = s.AppendOperatorMessage("dos")
	require.NoError(t, err)

	assert.Eventually(t, func() bool { return got.count() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(60 * time.Millisecond)

	got.mu.Lock()
	defer got.mu.Unlock()
	require.Len(t, got.messages, 1)
	assert.Equal(t, "op-2", got.messages[0].ID)
}

func TestAppendOperatorMessage_RejectedMessageIsNotCounted(t *testing.T) {
	store := newStore(t)
	s := New(store, Options{NewID: func() string { return "" }})
	require.NoError(t, s.Open("1"))

	_, ok, err := s.AppendOperatorMessage("hola")
	assert.False(t, ok)
	assert.True(t, errors.Is(err, conversation.ErrValidation))

	c, _ := store.FindByID("1")
	assert.Equal(t, 8, c.MessagesCount)
	assert.Empty(t, c.LastSentMessage)
	assert.Len(t, store.History("1"), 2)

	state, _ := s.Current()
	assert.Len(t, state.Messages, 2)
}
