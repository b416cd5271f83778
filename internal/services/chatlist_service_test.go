package services

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solidchat-backend/internal/models"
	"solidchat-backend/internal/pod"
	"solidchat-backend/internal/store"
)

// memStore is an in-memory Store for tests.
type memStore struct {
	chats []models.ChatListEntry
	saved int
}

func (m *memStore) GetChatList(context.Context) ([]models.ChatListEntry, error) {
	if m.chats == nil {
		return nil, store.ErrNotFound
	}
	return append([]models.ChatListEntry(nil), m.chats...), nil
}

func (m *memStore) SaveChatList(_ context.Context, chats []models.ChatListEntry) error {
	m.chats = append([]models.ChatListEntry(nil), chats...)
	m.saved++
	return nil
}

func (m *memStore) Close() error { return nil }

const defaultChat = "https://pod.example/public/global/chat.ttl"

func newChatListFixture(t *testing.T) (*ChatListService, *memStore, *fakePod) {
	t.Helper()
	fake := newFakePod()
	srv := httptest.NewServer(fake.handler())
	t.Cleanup(srv.Close)
	mem := &memStore{}
	return NewChatListService(mem, pod.NewClient(srv.Client(), ""), defaultChat), mem, fake
}

func TestChatListSeedsDefaultChat(t *testing.T) {
	svc, _, _ := newChatListFixture(t)

	chats, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, chats, 1)
	assert.Equal(t, defaultChat, chats[0].URI)
	assert.Equal(t, defaultChat, svc.Active())
	assert.NotEmpty(t, chats[0].Title)
}

func TestChatListAddPutsNewChatFirst(t *testing.T) {
	svc, mem, _ := newChatListFixture(t)
	ctx := context.Background()

	entry, err := svc.Add(ctx, "https://pod.example/chats/team/index.ttl", "Team")
	require.NoError(t, err)
	assert.Equal(t, "Team", entry.Title)

	chats, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, chats, 2)
	assert.Equal(t, "https://pod.example/chats/team/index.ttl", chats[0].URI)
	assert.Equal(t, defaultChat, chats[1].URI)
	assert.Positive(t, mem.saved, "list is persisted on change")
}

func TestChatListAddExistingUpdatesTitle(t *testing.T) {
	svc, _, _ := newChatListFixture(t)
	ctx := context.Background()

	_, err := svc.Add(ctx, "https://pod.example/c/index.ttl", "First")
	require.NoError(t, err)
	_, err = svc.Add(ctx, "https://pod.example/c/index.ttl", "Renamed")
	require.NoError(t, err)

	chats, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, chats, 2)
	assert.Equal(t, "Renamed", chats[0].Title)
}

func TestChatListAddDerivesTitleFromURI(t *testing.T) {
	svc, _, _ := newChatListFixture(t)

	entry, err := svc.Add(context.Background(), "https://pod.example/chats/team-standup/chat.ttl", "")
	require.NoError(t, err)
	assert.Equal(t, "team standup", entry.Title)
}

func TestChatListSelectMovesToFront(t *testing.T) {
	svc, _, _ := newChatListFixture(t)
	ctx := context.Background()

	_, err := svc.Add(ctx, "https://pod.example/a/chat.ttl", "A")
	require.NoError(t, err)
	_, err = svc.Add(ctx, "https://pod.example/b/chat.ttl", "B")
	require.NoError(t, err)

	require.NoError(t, svc.Select(ctx, defaultChat))
	chats, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, defaultChat, chats[0].URI)
	assert.Equal(t, defaultChat, svc.Active())
}

func TestChatListSelectUntrackedAdds(t *testing.T) {
	svc, _, _ := newChatListFixture(t)
	ctx := context.Background()

	require.NoError(t, svc.Select(ctx, "https://pod.example/new/chat.ttl"))
	chats, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, "https://pod.example/new/chat.ttl", chats[0].URI)
	assert.Equal(t, "https://pod.example/new/chat.ttl", svc.Active())
}

func TestChatListRemoveFallsBackActive(t *testing.T) {
	svc, _, _ := newChatListFixture(t)
	ctx := context.Background()

	_, err := svc.Add(ctx, "https://pod.example/a/chat.ttl", "A")
	require.NoError(t, err)
	require.NoError(t, svc.Select(ctx, "https://pod.example/a/chat.ttl"))
	require.NoError(t, svc.Remove(ctx, "https://pod.example/a/chat.ttl"))

	chats, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, chats, 1)
	assert.Equal(t, defaultChat, svc.Active())
}

func TestChatListSurvivesRestart(t *testing.T) {
	mem := &memStore{}
	fake := newFakePod()
	srv := httptest.NewServer(fake.handler())
	t.Cleanup(srv.Close)
	client := pod.NewClient(srv.Client(), "")

	svc := NewChatListService(mem, client, defaultChat)
	_, err := svc.Add(context.Background(), "https://pod.example/a/chat.ttl", "A")
	require.NoError(t, err)

	// A fresh service over the same store sees the persisted list.
	svc2 := NewChatListService(mem, client, defaultChat)
	chats, err := svc2.List(context.Background())
	require.NoError(t, err)
	require.Len(t, chats, 2)
	assert.Equal(t, "https://pod.example/a/chat.ttl", chats[0].URI)
}

func TestChatListUpdatePreview(t *testing.T) {
	svc, _, _ := newChatListFixture(t)
	ctx := context.Background()
	at := time.Date(2026, 8, 27, 10, 0, 0, 0, time.UTC)

	require.NoError(t, svc.UpdatePreview(ctx, defaultChat, "latest words", at))
	chats, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, "latest words", chats[0].LastMessage)
	assert.Equal(t, at, chats[0].Timestamp)
}

func TestDiscoverFindsTypeIndexChats(t *testing.T) {
	fake := newFakePod()
	srv := httptest.NewServer(fake.handler())
	t.Cleanup(srv.Close)
	mem := &memStore{}
	svc := NewChatListService(mem, pod.NewClient(srv.Client(), ""), defaultChat)

	webid := srv.URL + "/profile/card#me"
	fake.docs["/profile/card"] = `
@prefix solid: <http://www.w3.org/ns/solid/terms#> .
<` + webid + `> solid:publicTypeIndex <` + srv.URL + `/settings/publicTypeIndex.ttl> .
`
	fake.docs["/settings/publicTypeIndex.ttl"] = `
@prefix solid: <http://www.w3.org/ns/solid/terms#> .
@prefix meeting: <http://www.w3.org/ns/pim/meeting#> .
<#reg> solid:forClass meeting:LongChat ;
    solid:instance <` + srv.URL + `/chats/found/index.ttl#this> .
`
	fake.docs["/chats/found/index.ttl"] = `
@prefix dct: <http://purl.org/dc/terms/> .
<#this> dct:title "Found Chat" .
`

	added, err := svc.Discover(context.Background(), webid)
	require.NoError(t, err)
	require.Len(t, added, 1)

	chats, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Found Chat", chats[0].Title)
}

func TestDiscoverWithoutIdentity(t *testing.T) {
	svc, _, _ := newChatListFixture(t)
	_, err := svc.Discover(context.Background(), "")
	assert.ErrorIs(t, err, ErrNoIdentity)
}

func TestDiscoverIgnoresUnreadableIndex(t *testing.T) {
	fake := newFakePod()
	srv := httptest.NewServer(fake.handler())
	t.Cleanup(srv.Close)
	svc := NewChatListService(&memStore{}, pod.NewClient(srv.Client(), ""), defaultChat)

	webid := srv.URL + "/profile/card#me"
	fake.docs["/profile/card"] = `
@prefix solid: <http://www.w3.org/ns/solid/terms#> .
<` + webid + `> solid:publicTypeIndex <` + srv.URL + `/settings/missing.ttl> .
`

	added, err := svc.Discover(context.Background(), webid)
	require.NoError(t, err)
	assert.Empty(t, added)
}

func TestTitleFromURI(t *testing.T) {
	cases := map[string]string{
		"https://pod.example/chats/team-standup/chat.ttl":  "team standup",
		"https://pod.example/chats/general/index.ttl#this": "general",
		"https://pod.example/my%20chats/weekly_sync/":      "weekly sync",
		"https://pod.example/public/global/chat.ttl":       "global",

		// Generic names with no parent segment stay as-is.
		"chat.ttl":  "chat",
		"index.ttl": "index",
	}
	for uri, want := range cases {
		assert.Equal(t, want, TitleFromURI(uri), uri)
	}
}
