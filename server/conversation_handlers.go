package server

import (
	"errors"

	"github.com/NextMind-AI/chatviewer-go/conversation"
	"github.com/NextMind-AI/chatviewer-go/projection"
	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"
)

// conversationsHandler handles GET /api/conversations
func (s *Server) conversationsHandler(c fiber.Ctx) error {
	filter, err := projection.ParseFilter(c.Query("status"))
	if err != nil {
		return invalidParameter(c, "status", err)
	}

	list := s.dashboard.Conversations(c.Query("search"), filter)

	summaries := make([]ConversationSummary, 0, len(list))
	for _, conv := range list {
		summaries = append(summaries, newConversationSummary(conv))
	}

	return c.JSON(ConversationListResponse{
		Conversations: summaries,
		Total:         len(summaries),
	})
}

// conversationHandler handles GET /api/conversations/:id
func (s *Server) conversationHandler(c fiber.Ctx) error {
	conv, err := s.dashboard.Conversation(c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(newConversationSummary(conv))
}

// conversationMessagesHandler handles GET /api/conversations/:id/messages
func (s *Server) conversationMessagesHandler(c fiber.Ctx) error {
	id := c.Params("id")

	page := queryInt(c, "page", 1, 0)
	pageSize := queryInt(c, "page_size", 10, 100)

	history, err := s.dashboard.History(id)
	if err != nil {
		return respondError(c, err)
	}

	total := len(history)
	totalPages := (total + pageSize - 1) / pageSize
	start := total
	if page <= totalPages {
		start = (page - 1) * pageSize
	}
	end := min(start+pageSize, total)

	return c.JSON(ConversationResponse{
		Messages:        newConversationMessages(history[start:end]),
		TotalMessages:   total,
		Page:            page,
		PageSize:        pageSize,
		TotalPages:      totalPages,
		HasNextPage:     page < totalPages,
		HasPreviousPage: page > 1,
	})
}

// statusHandler handles PUT /api/conversations/:id/status
func (s *Server) statusHandler(c fiber.Ctx) error {
	id := c.Params("id")

	var req StatusRequest
	if err := c.Bind().JSON(&req); err != nil {
		log.Error().Err(err).Msg("Error parsing JSON")
		return invalidParameter(c, "body", err)
	}

	status, err := conversation.ParseStatus(req.Status)
	if err != nil {
		return respondError(c, err)
	}

	log.Info().
		Str("conversation_id", id).
		Str("status", string(status)).
		Msg("Received status change request")

	return s.respondConversation(c)(s.dashboard.ChangeStatus(id, status))
}

func (s *Server) toggleModeHandler(c fiber.Ctx) error {
	return s.respondConversation(c)(s.dashboard.ToggleMode(c.Params("id")))
}

func (s *Server) stallHandler(c fiber.Ctx) error {
	return s.respondConversation(c)(s.dashboard.MarkStalled(c.Params("id")))
}

func (s *Server) scheduleHandler(c fiber.Ctx) error {
	return s.respondConversation(c)(s.dashboard.MarkScheduled(c.Params("id")))
}

func (s *Server) pendingScheduleHandler(c fiber.Ctx) error {
	return s.respondConversation(c)(s.dashboard.MarkPendingSchedule(c.Params("id")))
}

func (s *Server) respondConversation(c fiber.Ctx) func(conversation.Conversation, error) error {
	return func(conv conversation.Conversation, err error) error {
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(newConversationSummary(conv))
	}
}

// sendMessageHandler handles POST /api/conversations/:id/messages
func (s *Server) sendMessageHandler(c fiber.Ctx) error {
	id := c.Params("id")

	var req SendMessageRequest
	if err := c.Bind().JSON(&req); err != nil {
		log.Error().Err(err).Msg("Error parsing JSON")
		return invalidParameter(c, "body", err)
	}

	msg, err := s.dashboard.SendMessage(id, req.Content)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(newConversationMessage(msg))
}

// openSessionHandler handles POST /api/session
func (s *Server) openSessionHandler(c fiber.Ctx) error {
	var req OpenSessionRequest
	if err := c.Bind().JSON(&req); err != nil {
		return invalidParameter(c, "body", err)
	}
	if req.ConversationID == "" {
		return invalidParameter(c, "conversation_id", errors.New("conversation_id is required"))
	}

	state, err := s.dashboard.OpenChat(req.ConversationID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(newSessionResponse(state))
}

// sessionHandler handles GET /api/session
func (s *Server) sessionHandler(c fiber.Ctx) error {
	state, open := s.dashboard.Session()
	if !open {
		return c.JSON(SessionResponse{})
	}
	return c.JSON(newSessionResponse(state))
}

// closeSessionHandler handles DELETE /api/session
func (s *Server) closeSessionHandler(c fiber.Ctx) error {
	s.dashboard.CloseChat()
	return c.SendStatus(fiber.StatusNoContent)
}
