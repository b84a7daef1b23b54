package http

// registerV1Routes sets up the v1 API
// Groups: /api/v1/realtime, /api/v1/network, /api/v1/trends
func (s *Server) registerV1Routes() {
	v1 := s.engine.Group("/api/v1")
	v1.Use(apiVersionMiddleware())
	v1.Use(sessionMiddleware(s.sessions))

	// Realtime endpoints - live feeds, cached per session until refreshed
	realtime := v1.Group("/realtime")
	{
		realtime.GET("/bikes", s.handleV1RealtimeBikes)
		realtime.GET("/trams", s.handleV1RealtimeTrams)
		realtime.POST("/trams/refresh", s.handleV1RefreshTrams)
	}

	v1.GET("/network", s.handleV1Network)

	// Trend endpoints - charts over the historical corpus
	trends := v1.Group("/trends")
	{
		trends.GET("/park-ride", s.handleV1ParkRideTrends)
		trends.GET("/bikes", s.handleV1BikeTrends)
	}
}
