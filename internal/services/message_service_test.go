package services

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solidchat-backend/internal/auth"
	"solidchat-backend/internal/pod"
)

const testWebID = "https://alice.solidcommunity.net/profile/card#me"

func newMessageFixture(t *testing.T) (*MessageService, *fakePod, string) {
	t.Helper()
	fake := newFakePod()
	srv := httptest.NewServer(fake.handler())
	t.Cleanup(srv.Close)

	client := pod.NewClient(srv.Client(), "")
	history := NewHistoryService(client)
	now := time.Date(2026, 8, 27, 15, 0, 0, 0, time.UTC)
	history.now = func() time.Time { return now }

	svc := NewMessageService(client, history)
	svc.now = func() time.Time { return now }
	svc.newSuffix = func() string { return "abc123" }

	// Today's document already exists so Send needs no container setup.
	fake.docs["/chats/general/2026/08/27/chat.ttl"] = chatPrefixes
	return svc, fake, srv.URL + "/chats/general/index.ttl#this"
}

func signedIn() context.Context {
	return auth.WithWebID(context.Background(), testWebID)
}

func (f *fakePod) lastPatch() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.patches) == 0 {
		return ""
	}
	return f.patches[len(f.patches)-1]
}

func TestSendInsertsMessageTriples(t *testing.T) {
	svc, fake, subject := newMessageFixture(t)

	msg, err := svc.Send(signedIn(), subject, "hello world")
	require.NoError(t, err)
	require.NotNil(t, msg)

	assert.Contains(t, msg.URI, "/2026/08/27/chat.ttl#msg-")
	assert.True(t, strings.HasSuffix(msg.URI, "-abc123"))
	assert.Equal(t, "hello world", msg.Content)
	assert.Equal(t, testWebID, msg.AuthorURI)

	patch := fake.lastPatch()
	assert.True(t, strings.HasPrefix(patch, "INSERT DATA {"))
	assert.NotContains(t, patch, "DELETE")
	assert.Contains(t, patch, "<http://rdfs.org/sioc/ns#content> \"hello world\"")
	assert.Contains(t, patch, "<http://www.w3.org/2005/01/wf/flow#message>")
	assert.Contains(t, patch, "<http://purl.org/dc/terms/created>")
	assert.Contains(t, patch, "<http://xmlns.com/foaf/0.1/maker> <"+testWebID+">")
}

func TestSendRequiresIdentity(t *testing.T) {
	svc, fake, subject := newMessageFixture(t)

	msg, err := svc.Send(context.Background(), subject, "hello")
	assert.ErrorIs(t, err, ErrNoIdentity)
	assert.Nil(t, msg)
	assert.Empty(t, fake.requests(), "no network call before the identity check")
}

func TestSendReturnsMessageOnPatchFailure(t *testing.T) {
	svc, fake, subject := newMessageFixture(t)
	fake.failPatch = true

	msg, err := svc.Send(signedIn(), subject, "doomed")
	require.Error(t, err)
	require.NotNil(t, msg, "caller still gets the message for optimistic display")
	assert.Equal(t, "doomed", msg.Content)
}

func TestEditSendsConditionalReplace(t *testing.T) {
	svc, fake, subject := newMessageFixture(t)
	docURI := ChatBaseURL(subject) + "/2026/08/27/chat.ttl"
	msgURI := docURI + "#msg-1"

	err := svc.Edit(signedIn(), docURI, msgURI, "old text", "new text")
	require.NoError(t, err)

	patch := fake.lastPatch()
	assert.True(t, strings.HasPrefix(patch, "DELETE {"))
	assert.Contains(t, patch, "INSERT {")
	assert.Contains(t, patch, "WHERE {")
	assert.Contains(t, patch, "\"old text\"")
	assert.Contains(t, patch, "\"new text\"")
	assert.Contains(t, patch, "<http://purl.org/dc/terms/modified>")
}

func TestDeleteRemovesAllMessageStatements(t *testing.T) {
	svc, fake, subject := newMessageFixture(t)
	docPath := "/chats/general/2026/08/27/chat.ttl"
	fake.docs[docPath] = chatPrefixes + `
<#this> flow:message :msg-1 .
:msg-1 sioc:content "bye" ;
    dct:created "2026-08-27T10:00:00Z"^^xsd:dateTime ;
    foaf:maker <` + testWebID + `> .
:msg-2 sioc:content "stays" ;
    dct:created "2026-08-27T11:00:00Z"^^xsd:dateTime .
`
	docURI := ChatBaseURL(subject) + "/2026/08/27/chat.ttl"

	err := svc.Delete(signedIn(), docURI, docURI+"#msg-1")
	require.NoError(t, err)

	patch := fake.lastPatch()
	assert.True(t, strings.HasPrefix(patch, "DELETE DATA {"))
	assert.Contains(t, patch, "\"bye\"")
	assert.Contains(t, patch, "<http://www.w3.org/2005/01/wf/flow#message>")
	assert.NotContains(t, patch, "\"stays\"")
}

func TestDeleteUnknownMessageFails(t *testing.T) {
	svc, fake, subject := newMessageFixture(t)
	docURI := ChatBaseURL(subject) + "/2026/08/27/chat.ttl"

	err := svc.Delete(signedIn(), docURI, docURI+"#msg-missing")
	require.Error(t, err)
	assert.Empty(t, fake.patches)
}

func TestReactInsertsReactionNode(t *testing.T) {
	svc, fake, subject := newMessageFixture(t)
	docURI := ChatBaseURL(subject) + "/2026/08/27/chat.ttl"

	err := svc.React(signedIn(), docURI, docURI+"#msg-1", "👍")
	require.NoError(t, err)

	patch := fake.lastPatch()
	assert.True(t, strings.HasPrefix(patch, "INSERT DATA {"))
	assert.Contains(t, patch, "#reaction-")
	assert.Contains(t, patch, "<http://schema.org/about>")
	assert.Contains(t, patch, "<http://schema.org/name> \"👍\"")
	assert.Contains(t, patch, "<http://schema.org/agent> <"+testWebID+">")
}

func TestMutationsRequireIdentity(t *testing.T) {
	svc, fake, subject := newMessageFixture(t)
	docURI := ChatBaseURL(subject) + "/2026/08/27/chat.ttl"
	ctx := context.Background()

	assert.ErrorIs(t, svc.Edit(ctx, docURI, docURI+"#m", "a", "b"), ErrNoIdentity)
	assert.ErrorIs(t, svc.Delete(ctx, docURI, docURI+"#m"), ErrNoIdentity)
	assert.ErrorIs(t, svc.React(ctx, docURI, docURI+"#m", "x"), ErrNoIdentity)
	assert.Empty(t, fake.requests())
}
