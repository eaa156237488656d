package api

import (
	"net/http"
	"time"

	// This blank import is required by swaggo to find the API definitions.
	_ "nova-chat/backend/docs"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
)

const requestTimeout = 60 * time.Second

// Handlers groups everything the router mounts.
type Handlers struct {
	Chat   *ChatHandler
	Models *ModelHandler
	Relay  *RelayHandler
	Events http.Handler
}

// NewRouter creates a chi router with all the application's routes. gatherer
// backs the /metrics endpoint; nil uses the default registry.
func NewRouter(h Handlers, gatherer prometheus.Gatherer) *chi.Mux {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/api/swagger/*", httpSwagger.WrapHandler)
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	// Liveness probe; only the status code matters.
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {
		// Plain JSON routes get a timeout so stuck connections are released.
		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(requestTimeout))

			r.Get("/settings", h.Chat.GetSettings)
			r.Post("/settings", h.Chat.UpdateSettings)

			r.Get("/conversation", h.Chat.GetConversation)
			r.Delete("/conversation", h.Chat.HandleClearHistory)
			r.Post("/conversation/cancel", h.Chat.HandleCancel)
			r.Post("/conversation/new", h.Chat.HandleNewChat)

			r.Get("/conversations", h.Chat.GetConversations)
			r.Get("/conversations/{conversationID}", h.Chat.GetConversationByID)
			r.Put("/conversations/{conversationID}/title", h.Chat.UpdateConversationTitle)

			r.Get("/models", h.Models.HandleListModels)
		})

		// Streaming routes hold the connection open and must not time out.
		r.Group(func(r chi.Router) {
			r.Post("/conversation/messages", h.Chat.HandleSendMessage)
			r.Post("/chat", h.Relay.HandleChat)
			if h.Events != nil {
				r.Get("/events", h.Events.ServeHTTP)
			}
		})
	})

	return r
}
