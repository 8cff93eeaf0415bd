package server

// Route path constants
const (
	// Auth Routes
	RouteAuthStart    = "/auth/start"
	RouteAuthCallback = "/auth/callback"
	RouteAuthLogout   = "/auth/logout"

	// Proxy Routes
	RouteProxyAction = "/proxy/action"
	RouteChat        = "/chat"

	RouteHealth = "/healthz"
)
