package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"solidchat-backend/internal/handlers"
	"solidchat-backend/pkg/httputil"
)

// NewRouter builds the HTTP surface: the chat pane view and mutations under
// /v1/chat, the sidebar under /v1/chats.
func NewRouter(chat *handlers.ChatHandler, chatList *handlers.ChatListHandler, webID string) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Use(identityMiddleware(webID))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Route("/chat", func(r chi.Router) {
			r.Get("/", chat.GetChat)
			r.Post("/messages", chat.SendMessage)
			r.Patch("/messages", chat.EditMessage)
			r.Delete("/messages", chat.DeleteMessage)
			r.Post("/reactions", chat.React)
			r.Post("/history", chat.LoadHistory)
		})

		r.Route("/chats", func(r chi.Router) {
			r.Get("/", chatList.ListChats)
			r.Post("/", chatList.AddChat)
			r.Delete("/", chatList.RemoveChat)
			r.Post("/select", chatList.SelectChat)
			r.Post("/discover", chatList.DiscoverChats)
		})
	})

	return r
}
