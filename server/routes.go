package server

func (s *Server) setupRoutes() {
	s.app.Get("/health", s.healthCheckHandler)

	api := s.app.Group("/api")

	api.Get("/dashboard", s.dashboardHandler)
	api.Post("/dashboard/refresh", s.refreshHandler)
	api.Get("/notifications", s.notificationsHandler)
	api.Get("/schema/fixture", s.fixtureSchemaHandler)

	api.Get("/conversations", s.conversationsHandler)
	api.Get("/conversations/:id", s.conversationHandler)
	api.Get("/conversations/:id/messages", s.conversationMessagesHandler)
	api.Post("/conversations/:id/messages", s.sendMessageHandler)
	api.Put("/conversations/:id/status", s.statusHandler)
	api.Post("/conversations/:id/toggle-mode", s.toggleModeHandler)
	api.Post("/conversations/:id/stall", s.stallHandler)
	api.Post("/conversations/:id/schedule", s.scheduleHandler)
	api.Post("/conversations/:id/pending-schedule", s.pendingScheduleHandler)

	api.Post("/session", s.openSessionHandler)
	api.Get("/session", s.sessionHandler)
	api.Delete("/session", s.closeSessionHandler)
}
