package handlers

import "net/http"

type RouteRegistrar interface {
	RegisterRoutes(mux *http.ServeMux)
}

// NewRouter mounts the health check unauthenticated and every other route
// behind session.
func NewRouter(health *HealthHandler, session func(http.Handler) http.Handler, routes ...RouteRegistrar) http.Handler {
	api := http.NewServeMux()
	for _, r := range routes {
		r.RegisterRoutes(api)
	}

	root := http.NewServeMux()
	health.RegisterRoutes(root)
	root.Handle("/", session(api))
	return root
}
