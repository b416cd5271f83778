package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/deiu/rdf2go"

	"solidchat-backend/internal/logger"
	"solidchat-backend/internal/models"
	"solidchat-backend/internal/pod"
	"solidchat-backend/internal/rdf"
	"solidchat-backend/internal/store"
)

// ChatListService manages the persisted list of tracked chats. The list
// survives restarts through the Store; ordering is most-recently-selected
// first, with newly added chats placed at the front.
type ChatListService struct {
	store      store.Store
	pod        *pod.Client
	defaultURI string

	mu     sync.Mutex
	chats  []models.ChatListEntry
	active string
	loaded bool
}

// NewChatListService creates a ChatListService backed by st. defaultURI
// seeds the list on first run so the app never starts empty.
func NewChatListService(st store.Store, podClient *pod.Client, defaultURI string) *ChatListService {
	return &ChatListService{store: st, pod: podClient, defaultURI: defaultURI, active: defaultURI}
}

// List returns the current chat list, loading it from the store on first
// call and seeding the default chat when nothing is persisted yet.
func (s *ChatListService) List(ctx context.Context) ([]models.ChatListEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	out := make([]models.ChatListEntry, len(s.chats))
	copy(out, s.chats)
	return out, nil
}

// Active returns the currently selected chat URI.
func (s *ChatListService) Active() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Add inserts a chat at the front of the list, or updates the stored title
// when the URI is already tracked. An empty title is derived from the URI.
func (s *ChatListService) Add(ctx context.Context, uri, title string) (models.ChatListEntry, error) {
	if uri == "" {
		return models.ChatListEntry{}, errors.New("chat URI is required")
	}
	if title == "" {
		title = TitleFromURI(uri)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoaded(ctx); err != nil {
		return models.ChatListEntry{}, err
	}

	for i := range s.chats {
		if s.chats[i].URI == uri {
			s.chats[i].Title = title
			entry := s.chats[i]
			return entry, s.persist(ctx)
		}
	}

	entry := models.ChatListEntry{URI: uri, Title: title, Timestamp: time.Now()}
	s.chats = append([]models.ChatListEntry{entry}, s.chats...)
	return entry, s.persist(ctx)
}

// Remove drops a chat from the list. Removing the active chat falls the
// selection back to the first remaining entry, or the default chat.
func (s *ChatListService) Remove(ctx context.Context, uri string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoaded(ctx); err != nil {
		return err
	}

	kept := s.chats[:0]
	for _, c := range s.chats {
		if c.URI != uri {
			kept = append(kept, c)
		}
	}
	s.chats = kept

	if s.active == uri {
		if len(s.chats) > 0 {
			s.active = s.chats[0].URI
		} else {
			s.active = s.defaultURI
		}
	}
	return s.persist(ctx)
}

// Select marks a chat active and moves it to the front of the list. An
// untracked URI is added first.
func (s *ChatListService) Select(ctx context.Context, uri string) error {
	if uri == "" {
		return errors.New("chat URI is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoaded(ctx); err != nil {
		return err
	}

	idx := -1
	for i := range s.chats {
		if s.chats[i].URI == uri {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.chats = append([]models.ChatListEntry{{URI: uri, Title: TitleFromURI(uri), Timestamp: time.Now()}}, s.chats...)
	} else if idx > 0 {
		entry := s.chats[idx]
		s.chats = append(s.chats[:idx], s.chats[idx+1:]...)
		s.chats = append([]models.ChatListEntry{entry}, s.chats...)
	}

	s.active = uri
	return s.persist(ctx)
}

// UpdatePreview records the latest message snippet and timestamp for a chat
// so the sidebar can show it without refetching the chat document.
func (s *ChatListService) UpdatePreview(ctx context.Context, uri, lastMessage string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoaded(ctx); err != nil {
		return err
	}
	for i := range s.chats {
		if s.chats[i].URI == uri {
			s.chats[i].LastMessage = truncatePreview(lastMessage)
			s.chats[i].Timestamp = at
			return s.persist(ctx)
		}
	}
	return nil
}

// Discover scans the WebID's public and private type indexes for registered
// LongChat instances and adds any that are not yet tracked. It returns the
// URIs it added. Index failures degrade silently since many profiles have
// no type index at all.
func (s *ChatListService) Discover(ctx context.Context, webid string) ([]string, error) {
	if webid == "" {
		return nil, ErrNoIdentity
	}

	profile, err := s.pod.Load(ctx, docOf(webid))
	if err != nil {
		return nil, fmt.Errorf("failed to load profile for discovery: %w", err)
	}

	person := rdf2go.NewResource(webid)
	var indexes []string
	for _, pred := range []rdf2go.Term{rdf.Solid("publicTypeIndex"), rdf.Solid("privateTypeIndex")} {
		if t := rdf.Any(profile, person, pred); t != nil {
			indexes = append(indexes, t.RawValue())
		}
	}

	var found []string
	for _, indexURI := range indexes {
		g, err := s.pod.Load(ctx, indexURI)
		if err != nil {
			logger.L.Debug("skipping unreadable type index", "uri", indexURI, "error", err)
			continue
		}
		for _, reg := range g.All(nil, rdf.Solid("forClass"), rdf.Meeting("LongChat")) {
			for _, inst := range g.All(reg.Subject, rdf.Solid("instance"), nil) {
				found = append(found, inst.Object.RawValue())
			}
		}
	}

	var added []string
	for _, uri := range found {
		title := s.chatTitle(ctx, uri)
		s.mu.Lock()
		tracked := false
		for i := range s.chats {
			if s.chats[i].URI == uri {
				tracked = true
				break
			}
		}
		s.mu.Unlock()
		if tracked {
			continue
		}
		if _, err := s.Add(ctx, uri, title); err != nil {
			return added, err
		}
		added = append(added, uri)
	}
	return added, nil
}

// chatTitle fetches a discovered chat's dct:title, falling back to a
// URI-derived label when the document is unreadable or untitled.
func (s *ChatListService) chatTitle(ctx context.Context, uri string) string {
	g, err := s.pod.Load(ctx, docOf(uri))
	if err != nil {
		return TitleFromURI(uri)
	}
	if title := ExtractTitle(g); title != "" {
		return title
	}
	return TitleFromURI(uri)
}

func (s *ChatListService) ensureLoaded(ctx context.Context) error {
	if s.loaded {
		return nil
	}
	chats, err := s.store.GetChatList(ctx)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("failed to load chat list: %w", err)
	}
	if len(chats) == 0 && s.defaultURI != "" {
		chats = []models.ChatListEntry{{
			URI:       s.defaultURI,
			Title:     TitleFromURI(s.defaultURI),
			Timestamp: time.Now(),
		}}
	}
	s.chats = chats
	if s.active == "" && len(chats) > 0 {
		s.active = chats[0].URI
	}
	s.loaded = true
	return nil
}

func (s *ChatListService) persist(ctx context.Context) error {
	if err := s.store.SaveChatList(ctx, s.chats); err != nil {
		return fmt.Errorf("failed to save chat list: %w", err)
	}
	return nil
}

// TitleFromURI derives a human label from a chat URI: the last meaningful
// path segment, URL-decoded, with dashes and underscores spaced out.
func TitleFromURI(uri string) string {
	trimmed, _, _ := strings.Cut(uri, "#")
	trimmed = strings.TrimSuffix(trimmed, "/")
	seg := trimmed
	if i := strings.LastIndexByte(trimmed, '/'); i >= 0 {
		seg = trimmed[i+1:]
	}
	seg = strings.TrimSuffix(seg, ".ttl")
	if seg == "chat" || seg == "index" {
		// Generic document names say nothing; use the parent segment.
		if j := strings.LastIndexByte(trimmed, '/'); j >= 0 {
			parent := trimmed[:j]
			if i := strings.LastIndexByte(parent, '/'); i >= 0 && i+1 < len(parent) {
				seg = parent[i+1:]
			}
		}
	}
	if decoded, err := url.PathUnescape(seg); err == nil {
		seg = decoded
	}
	seg = strings.NewReplacer("-", " ", "_", " ").Replace(seg)
	if seg == "" {
		return uri
	}
	return seg
}

const previewMax = 80

func truncatePreview(s string) string {
	runes := []rune(s)
	if len(runes) <= previewMax {
		return s
	}
	return string(runes[:previewMax]) + "…"
}
