// Package pebbledb implements the local store on an embedded Pebble
// database — the desktop analog of the browser's localStorage.
package pebbledb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cockroachdb/pebble"

	"solidchat-backend/internal/models"
	"solidchat-backend/internal/store"
)

// chatListKey is the single named key the chat list lives under.
const chatListKey = "solidchat-chats"

// Ensure PebbleStore implements the Store interface.
var _ store.Store = (*PebbleStore)(nil)

// PebbleStore persists sidebar state in a Pebble database on disk.
type PebbleStore struct {
	db *pebble.DB
}

// Open opens (or creates) the database at the given path.
func Open(path string) (*PebbleStore, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("failed to open chat list db at %s: %w", path, err)
	}
	return &PebbleStore{db: db}, nil
}

// GetChatList returns the persisted sidebar entries.
func (s *PebbleStore) GetChatList(_ context.Context) ([]models.ChatListEntry, error) {
	value, closer, err := s.db.Get([]byte(chatListKey))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to read chat list: %w", err)
	}
	defer closer.Close()

	var chats []models.ChatListEntry
	if err := json.Unmarshal(value, &chats); err != nil {
		return nil, fmt.Errorf("corrupt chat list record: %w", err)
	}
	return chats, nil
}

// SaveChatList replaces the persisted sidebar entries.
func (s *PebbleStore) SaveChatList(_ context.Context, chats []models.ChatListEntry) error {
	data, err := json.Marshal(chats)
	if err != nil {
		return fmt.Errorf("failed to marshal chat list: %w", err)
	}
	if err := s.db.Set([]byte(chatListKey), data, pebble.Sync); err != nil {
		return fmt.Errorf("failed to save chat list: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *PebbleStore) Close() error {
	return s.db.Close()
}
