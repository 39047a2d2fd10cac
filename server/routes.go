package server

func (s *Server) initRoutes() {
	// CORS preflight for every route
	s.RegisterRouteHandler("OPTIONS /", ChainMiddleware(s.PreflightHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteHealth, ChainMiddleware(s.HealthHandler(), s.APIMiddleware()...))

	// Public auth routes
	s.RegisterRouteHandler("POST "+RouteAuthRegister, ChainMiddleware(s.RegisterHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteAuthLogin, ChainMiddleware(s.LoginHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteAuthRefresh, ChainMiddleware(s.RefreshHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteAuthLogout, ChainMiddleware(s.LogoutHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteForgotPassword, ChainMiddleware(s.ForgotPasswordHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteResetPassword, ChainMiddleware(s.ResetPasswordHandler(), s.APIMiddleware()...))

	// Bearer token routes
	s.RegisterRouteHandler("GET "+RouteAuthMe, ChainMiddleware(s.MeHandler(), s.APIMiddleware(s.RequireAuth())...))
	s.RegisterRouteHandler("GET "+RouteSessions, ChainMiddleware(s.ListSessionsHandler(), s.APIMiddleware(s.RequireAuth())...))
	s.RegisterRouteHandler("POST "+RouteSessionsEnd, ChainMiddleware(s.EndSessionsHandler(), s.APIMiddleware(s.RequireAuth())...))

	// Admin routes
	admin := s.APIMiddleware(s.RequireAuth(), s.RequireAdmin())
	s.RegisterRouteHandler("GET "+RouteAdminIdentitySessions, ChainMiddleware(s.AdminListSessionsHandler(), admin...))
	s.RegisterRouteHandler("POST "+RouteAdminIdentityActivate, ChainMiddleware(s.AdminActivateHandler(), admin...))
	s.RegisterRouteHandler("POST "+RouteAdminIdentityDeactivate, ChainMiddleware(s.AdminDeactivateHandler(), admin...))
	s.RegisterRouteHandler("DELETE "+RouteAdminIdentity, ChainMiddleware(s.AdminDeleteIdentityHandler(), admin...))
	s.RegisterRouteHandler("POST "+RouteAdminSweepSessions, ChainMiddleware(s.AdminSweepSessionsHandler(), admin...))
}
