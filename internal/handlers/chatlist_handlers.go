package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"solidchat-backend/internal/auth"
	"solidchat-backend/internal/models"
	"solidchat-backend/internal/panes"
	"solidchat-backend/internal/services"
	"solidchat-backend/pkg/httputil"
)

// ChatListHandler serves the sidebar: listing, adding, removing, and
// selecting chats, plus type-index discovery.
type ChatListHandler struct {
	pane  *panes.ChatListPane
	chats *services.ChatListService
}

// NewChatListHandler creates a ChatListHandler.
func NewChatListHandler(pane *panes.ChatListPane, chats *services.ChatListService) *ChatListHandler {
	return &ChatListHandler{pane: pane, chats: chats}
}

// ListChats returns the sidebar entries with refreshed previews.
func (h *ChatListHandler) ListChats(w http.ResponseWriter, r *http.Request) {
	entries, err := h.pane.Entries(r.Context())
	if err != nil {
		httputil.RespondError(w, http.StatusInternalServerError, "failed to load chat list: "+err.Error())
		return
	}
	httputil.RespondJSON(w, http.StatusOK, models.ChatListResponse{
		Chats:  entries,
		Active: h.chats.Active(),
	})
}

// AddChat tracks a new chat in the sidebar.
func (h *ChatListHandler) AddChat(w http.ResponseWriter, r *http.Request) {
	var req models.AddChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.URI == "" {
		httputil.RespondError(w, http.StatusBadRequest, "uri is required")
		return
	}

	entry, err := h.chats.Add(r.Context(), req.URI, req.Title)
	if err != nil {
		httputil.RespondError(w, http.StatusInternalServerError, "failed to add chat: "+err.Error())
		return
	}
	httputil.RespondJSON(w, http.StatusCreated, entry)
}

// RemoveChat drops a chat from the sidebar.
func (h *ChatListHandler) RemoveChat(w http.ResponseWriter, r *http.Request) {
	uri := r.URL.Query().Get("uri")
	if uri == "" {
		httputil.RespondError(w, http.StatusBadRequest, "uri is required")
		return
	}
	if err := h.chats.Remove(r.Context(), uri); err != nil {
		httputil.RespondError(w, http.StatusInternalServerError, "failed to remove chat: "+err.Error())
		return
	}
	httputil.RespondJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}

// SelectChat makes a chat the active one and moves it to the front.
func (h *ChatListHandler) SelectChat(w http.ResponseWriter, r *http.Request) {
	var req models.SelectChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.URI == "" {
		httputil.RespondError(w, http.StatusBadRequest, "uri is required")
		return
	}
	if err := h.chats.Select(r.Context(), req.URI); err != nil {
		httputil.RespondError(w, http.StatusInternalServerError, "failed to select chat: "+err.Error())
		return
	}
	httputil.RespondJSON(w, http.StatusOK, map[string]string{"status": "selected", "active": req.URI})
}

// DiscoverChats scans the signed-in user's type indexes for registered
// chats and adds any new ones to the sidebar.
func (h *ChatListHandler) DiscoverChats(w http.ResponseWriter, r *http.Request) {
	webid, _ := auth.WebIDFromContext(r.Context())
	found, err := h.chats.Discover(r.Context(), webid)
	if err != nil {
		if errors.Is(err, services.ErrNoIdentity) {
			httputil.RespondError(w, http.StatusUnauthorized, "sign in to discover chats")
			return
		}
		httputil.RespondError(w, http.StatusBadGateway, "discovery failed: "+err.Error())
		return
	}
	httputil.RespondJSON(w, http.StatusOK, models.DiscoverResponse{Found: found})
}
