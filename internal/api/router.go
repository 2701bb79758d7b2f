package api

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

// Route is one entry of the routing table.
type Route struct {
	Name        string
	Method      string
	Pattern     string
	HandlerFunc http.HandlerFunc
}

// RESTLogger logs every request handled by inner.
func RESTLogger(inner http.Handler, name string, logger zerolog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		inner.ServeHTTP(w, r)

		logger.Info().
			Str("method", r.Method).
			Str("uri", r.RequestURI).
			Str("route", name).
			Dur("took", time.Since(start)).
			Msg("Request handled")
	})
}

func (s *Server) newRouter() *mux.Router {
	router := mux.NewRouter().StrictSlash(true)
	routes := []Route{
		{"Health", http.MethodGet, "/healthz", s.health},
		{"Scan", http.MethodGet, "/api/v1/scan", s.scan},
	}

	for _, route := range routes {
		var handler http.Handler = route.HandlerFunc
		handler = RESTLogger(handler, route.Name, s.logger)

		router.
			Methods(route.Method).
			Path(route.Pattern).
			Name(route.Name).
			Handler(handler)
	}
	return router
}
