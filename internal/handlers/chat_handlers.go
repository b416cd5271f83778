package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"solidchat-backend/internal/models"
	"solidchat-backend/internal/panes"
	"solidchat-backend/internal/services"
	"solidchat-backend/pkg/httputil"
)

// ChatHandler serves the chat pane over HTTP: the rendered view model plus
// the message mutations.
type ChatHandler struct {
	registry *panes.Registry
	chats    *services.ChatListService
}

// NewChatHandler creates a ChatHandler.
func NewChatHandler(registry *panes.Registry, chats *services.ChatListService) *ChatHandler {
	return &ChatHandler{registry: registry, chats: chats}
}

// chatViewResponse is the pane snapshot plus paging state.
type chatViewResponse struct {
	panes.ViewSnapshot
	Subject string `json:"subject"`
	HasMore bool   `json:"hasMore"`
}

func (h *ChatHandler) session(w http.ResponseWriter, r *http.Request, subject string) (*panes.ChatSession, bool) {
	if subject == "" {
		subject = h.chats.Active()
	}
	if subject == "" {
		httputil.RespondError(w, http.StatusBadRequest, "subject is required")
		return nil, false
	}
	pane, _, ok := h.registry.Select(subject, nil)
	if !ok {
		httputil.RespondError(w, http.StatusNotFound, "no pane can display this subject")
		return nil, false
	}
	sess, err := pane.Render(r.Context(), subject)
	if err != nil {
		httputil.RespondError(w, http.StatusBadGateway, "failed to open chat: "+err.Error())
		return nil, false
	}
	chat, ok := sess.(*panes.ChatSession)
	if !ok {
		httputil.RespondError(w, http.StatusBadRequest, "subject is not a chat")
		return nil, false
	}
	return chat, true
}

// GetChat renders the chat for ?subject= (default: the active chat) and
// returns its view model.
func (h *ChatHandler) GetChat(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r, r.URL.Query().Get("subject"))
	if !ok {
		return
	}
	httputil.RespondJSON(w, http.StatusOK, chatViewResponse{
		ViewSnapshot: sess.Snapshot(),
		Subject:      sess.Subject(),
		HasMore:      sess.HasMore(),
	})
}

// SendMessage posts a new message to the chat.
func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req models.SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Content == "" {
		httputil.RespondError(w, http.StatusBadRequest, "content is required")
		return
	}

	sess, ok := h.session(w, r, req.Subject)
	if !ok {
		return
	}
	msg, err := sess.Send(r.Context(), req.Content)
	if err != nil {
		if errors.Is(err, services.ErrNoIdentity) {
			httputil.RespondError(w, http.StatusUnauthorized, "sign in to send messages")
			return
		}
		// The message was rendered optimistically but not persisted.
		httputil.RespondJSON(w, http.StatusAccepted, msg)
		return
	}
	httputil.RespondJSON(w, http.StatusCreated, msg)
}

// EditMessage replaces a message's content.
func (h *ChatHandler) EditMessage(w http.ResponseWriter, r *http.Request) {
	var req models.EditMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.URI == "" || req.Content == "" {
		httputil.RespondError(w, http.StatusBadRequest, "uri and content are required")
		return
	}

	sess, ok := h.session(w, r, req.Subject)
	if !ok {
		return
	}
	if err := sess.Edit(r.Context(), req.URI, req.Content); err != nil {
		h.mutationError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, map[string]string{"status": "edited"})
}

// DeleteMessage removes a message.
func (h *ChatHandler) DeleteMessage(w http.ResponseWriter, r *http.Request) {
	var req models.DeleteMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.URI == "" {
		httputil.RespondError(w, http.StatusBadRequest, "uri is required")
		return
	}

	sess, ok := h.session(w, r, req.Subject)
	if !ok {
		return
	}
	if err := sess.Delete(r.Context(), req.URI); err != nil {
		h.mutationError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// React adds an emoji reaction to a message.
func (h *ChatHandler) React(w http.ResponseWriter, r *http.Request) {
	var req models.ReactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.URI == "" || req.Emoji == "" {
		httputil.RespondError(w, http.StatusBadRequest, "uri and emoji are required")
		return
	}

	sess, ok := h.session(w, r, req.Subject)
	if !ok {
		return
	}
	if err := sess.React(r.Context(), req.URI, req.Emoji); err != nil {
		h.mutationError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, map[string]string{"status": "reacted"})
}

// LoadHistory pages older messages into the chat view.
func (h *ChatHandler) LoadHistory(w http.ResponseWriter, r *http.Request) {
	var req models.LoadHistoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sess, ok := h.session(w, r, req.Subject)
	if !ok {
		return
	}
	loaded, err := sess.LoadMore(r.Context())
	if err != nil {
		httputil.RespondError(w, http.StatusBadGateway, "failed to load history: "+err.Error())
		return
	}
	httputil.RespondJSON(w, http.StatusOK, models.HistoryResponse{
		Loaded:     loaded,
		OldestDate: sess.OldestLoaded(),
		HasMore:    sess.HasMore(),
	})
}

func (h *ChatHandler) mutationError(w http.ResponseWriter, err error) {
	if errors.Is(err, services.ErrNoIdentity) {
		httputil.RespondError(w, http.StatusUnauthorized, "sign in to modify messages")
		return
	}
	httputil.RespondError(w, http.StatusBadGateway, err.Error())
}
