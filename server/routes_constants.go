package server

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	// Auth Routes - Registration, Login & Logout
	RouteAuthRegister = "/auth/register"
	RouteAuthLogin    = "/auth/login"
	RouteAuthRefresh  = "/auth/refresh"
	RouteAuthLogout   = "/auth/logout"
	RouteAuthMe       = "/auth/me"

	// Auth Routes - Password Management
	RouteForgotPassword = "/auth/forgot-password"
	RouteResetPassword  = "/auth/reset-password"

	// Session Routes (bearer token)
	RouteSessions    = "/sessions"
	RouteSessionsEnd = "/sessions/end"

	// Admin Routes (bearer token with is_admin)
	RouteAdminIdentity           = "/admin/identities/{id}"
	RouteAdminIdentitySessions   = "/admin/identities/{id}/sessions"
	RouteAdminIdentityActivate   = "/admin/identities/{id}/activate"
	RouteAdminIdentityDeactivate = "/admin/identities/{id}/deactivate"
	RouteAdminSweepSessions      = "/admin/sessions/sweep"

	RouteHealth = "/healthz"
)
