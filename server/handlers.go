package server

import (
	"errors"
	"strconv"
	"time"

	"github.com/NextMind-AI/chatviewer-go/conversation"
	"github.com/NextMind-AI/chatviewer-go/fixtures"
	"github.com/NextMind-AI/chatviewer-go/metrics"
	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"
)

func (s *Server) healthCheckHandler(c fiber.Ctx) error {
	snapshot := s.dashboard.Snapshot("")
	_, open := s.dashboard.Session()

	return c.JSON(HealthResponse{
		Status:        "ok",
		Conversations: snapshot.Metrics.TotalConversacionesActivas,
		SessionOpen:   open,
		LastRefresh:   snapshot.LastRefresh,
		Uptime:        time.Since(s.startedAt).Round(time.Second).String(),
	})
}

// dashboardHandler handles GET /api/dashboard
func (s *Server) dashboardHandler(c fiber.Ctx) error {
	var filter conversation.TimeFilter
	if raw := c.Query("time_filter"); raw != "" {
		parsed, err := conversation.ParseTimeFilter(raw)
		if err != nil {
			return invalidParameter(c, "time_filter", err)
		}
		filter = parsed
	}

	snapshot := s.dashboard.Snapshot(filter)

	return c.JSON(DashboardResponse{
		Metrics: snapshot.Metrics,
		Formatted: FormattedTiming{
			TiempoPromedioRespuesta:    metrics.FormatMinutes(snapshot.Metrics.TiempoPromedioRespuesta),
			TiempoPromedioAgendamiento: metrics.FormatMinutes(snapshot.Metrics.TiempoPromedioAgendamiento),
		},
		TimeFilter:  snapshot.TimeFilter,
		LastRefresh: snapshot.LastRefresh,
		NextRefresh: snapshot.NextRefresh,
	})
}

// refreshHandler handles POST /api/dashboard/refresh
func (s *Server) refreshHandler(c fiber.Ctx) error {
	log.Info().Msg("Received manual refresh request")
	return c.JSON(RefreshResponse{LastRefresh: s.dashboard.Refresh()})
}

func (s *Server) notificationsHandler(c fiber.Ctx) error {
	if s.notifications == nil {
		return c.JSON([]any{})
	}
	return c.JSON(s.notifications.Recent())
}

func (s *Server) fixtureSchemaHandler(c fiber.Ctx) error {
	return c.JSON(fixtures.Schema())
}

// respondError maps domain errors to the API error envelope.
func respondError(c fiber.Ctx, err error) error {
	var validation *conversation.ValidationError

	switch {
	case errors.Is(err, conversation.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
			Error: ErrorDetail{Code: "NOT_FOUND", Message: err.Error()},
		})
	case errors.As(err, &validation):
		log.Warn().Err(err).Str("path", c.Path()).Msg("Rejected request")
		return c.Status(fiber.StatusUnprocessableEntity).JSON(ErrorResponse{
			Error: ErrorDetail{
				Code:    "VALIDATION_ERROR",
				Message: err.Error(),
				Details: fiber.Map{"field": validation.Field},
			},
		})
	default:
		log.Error().Err(err).Str("path", c.Path()).Msg("Request failed")
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error: ErrorDetail{Code: "INTERNAL_ERROR", Message: "Internal server error"},
		})
	}
}

func invalidParameter(c fiber.Ctx, name string, err error) error {
	return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
		Error: ErrorDetail{
			Code:    "INVALID_PARAMETER",
			Message: err.Error(),
			Details: fiber.Map{"parameter": name},
		},
	})
}

func queryInt(c fiber.Ctx, key string, defaultValue, max int) int {
	raw := c.Query(key)
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 || (max > 0 && v > max) {
		return defaultValue
	}
	return v
}
