package store

import (
	"context"
	"errors"

	"solidchat-backend/internal/models"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// Store is the local persistence interface for sidebar state. The chat list
// is a single JSON-encoded array held under one named key, matching how the
// browser client kept it in localStorage. Keeping this behind an interface
// allows mocking in tests and swapping the KV backend.
type Store interface {
	// GetChatList returns the persisted sidebar entries.
	// Returns ErrNotFound when the list has never been saved.
	GetChatList(ctx context.Context) ([]models.ChatListEntry, error)

	// SaveChatList replaces the persisted sidebar entries.
	SaveChatList(ctx context.Context, chats []models.ChatListEntry) error

	Close() error
}
