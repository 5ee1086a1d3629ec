// internal/handlers/server.go
package handlers

import (
	"net/http"

	"github.com/faaizHadaina/jobi-socket/internal/middleware"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"
)

// WelcomeText is served on the root path.
const WelcomeText = "Welcome to JobiGames Socket API"

func PingHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte(WelcomeText))
}

// NewRouter wires the HTTP routes. An empty allowedOrigins list allows any origin.
func NewRouter(logger *logrus.Logger, hub *Hub, events EventHandler, allowedOrigins []string) http.Handler {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(chimw.Heartbeat("/ping"))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300, // Maximum value not ignored by any of major browsers
	}))
	r.Use(middleware.LogMiddleware(logger))

	r.Get("/", PingHandler)
	r.Get("/ws", GameWSHandler(logger, hub, events))
	return r
}
