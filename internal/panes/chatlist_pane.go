package panes

import (
	"context"
	"strings"
	"time"

	"github.com/deiu/rdf2go"

	"solidchat-backend/internal/logger"
	"solidchat-backend/internal/models"
	"solidchat-backend/internal/services"
)

// ChatListPane renders the sidebar: every tracked chat with its latest
// message preview, most recent selection first.
type ChatListPane struct {
	chats   *services.ChatListService
	history *services.HistoryService
}

// NewChatListPane creates the chat-list pane.
func NewChatListPane(chats *services.ChatListService, history *services.HistoryService) *ChatListPane {
	return &ChatListPane{chats: chats, history: history}
}

func (p *ChatListPane) Name() string { return "chat-list" }

// Label claims the synthetic chat-list subject only; the sidebar is not
// keyed to a pod resource.
func (p *ChatListPane) Label(subject string, _ *rdf2go.Graph) string {
	if strings.HasSuffix(subject, "/chat-list") || subject == "chat-list" {
		return "Chats"
	}
	return ""
}

// Render produces a snapshot session over the current chat list with
// previews refreshed from today's daily documents.
func (p *ChatListPane) Render(ctx context.Context, subject string) (Session, error) {
	entries, err := p.Entries(ctx)
	if err != nil {
		return nil, err
	}
	return &chatListSession{subject: subject, entries: entries, active: p.chats.Active()}, nil
}

// Entries returns the chat list with each entry's preview refreshed from
// its most recent daily document. Preview fetch failures leave the stored
// preview in place.
func (p *ChatListPane) Entries(ctx context.Context) ([]models.ChatListEntry, error) {
	entries, err := p.chats.List(ctx)
	if err != nil {
		return nil, err
	}

	for i := range entries {
		msg, ok := p.latestMessage(ctx, entries[i].URI)
		if !ok {
			continue
		}
		entries[i].LastMessage = msg.Content
		entries[i].Timestamp = msg.Date
		if err := p.chats.UpdatePreview(ctx, entries[i].URI, msg.Content, msg.Date); err != nil {
			logger.L.Debug("failed to persist chat preview", "uri", entries[i].URI, "error", err)
		}
	}
	return entries, nil
}

// latestMessage walks back a few days from today to find the chat's newest
// message.
func (p *ChatListPane) latestMessage(ctx context.Context, chatURI string) (models.Message, bool) {
	base := services.ChatBaseURL(chatURI)
	for i := 0; i < 3; i++ {
		day := time.Now().AddDate(0, 0, -i)
		msgs, err := p.history.LoadDay(ctx, base, day)
		if err != nil {
			logger.L.Debug("preview load failed", "uri", chatURI, "error", err)
			return models.Message{}, false
		}
		if len(msgs) > 0 {
			return msgs[len(msgs)-1], true
		}
	}
	return models.Message{}, false
}

type chatListSession struct {
	subject string
	entries []models.ChatListEntry
	active  string
}

func (s *chatListSession) Subject() string { return s.subject }
func (s *chatListSession) Close()          {}

func (s *chatListSession) Snapshot() ViewSnapshot {
	snap := ViewSnapshot{Title: "Chats"}
	if len(s.entries) == 0 {
		snap.Empty = true
	}
	return snap
}

// List exposes the rendered entries and active selection for the HTTP
// layer, which serves the sidebar as structured data rather than messages.
func (s *chatListSession) List() models.ChatListResponse {
	return models.ChatListResponse{Chats: s.entries, Active: s.active}
}
