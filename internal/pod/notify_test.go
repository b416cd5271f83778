package pod

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifierSubscribeAndPub(t *testing.T) {
	upgrader := websocket.Upgrader{Subprotocols: []string{"solid-0.1"}}
	subs := make(chan string, 1)

	wsSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer ws.Close()

		_, msg, err := ws.ReadMessage()
		if err != nil {
			return
		}
		line := string(msg)
		uri, ok := strings.CutPrefix(line, "sub ")
		if !ok {
			return
		}
		subs <- uri
		// Announce a change to the subscribed document.
		ws.WriteMessage(websocket.TextMessage, []byte("pub "+uri))
		// Hold the connection open until the client goes away.
		ws.ReadMessage()
	}))
	t.Cleanup(wsSrv.Close)
	wsURL := "ws" + strings.TrimPrefix(wsSrv.URL, "http")

	docSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/turtle")
		w.Header().Set("Updates-Via", wsURL)
		fmt.Fprint(w, testDoc)
	}))
	t.Cleanup(docSrv.Close)

	client := NewClient(docSrv.Client(), "")
	docURI := docSrv.URL + "/chat.ttl"
	_, err := client.Load(context.Background(), docURI)
	require.NoError(t, err)

	pubs := make(chan string, 1)
	notifier := NewNotifier(client, func(uri string) { pubs <- uri })
	t.Cleanup(notifier.Close)

	require.NoError(t, notifier.Subscribe(context.Background(), docURI))

	select {
	case uri := <-subs:
		assert.Equal(t, docURI, uri)
	case <-time.After(2 * time.Second):
		t.Fatal("server never received the subscription")
	}

	select {
	case uri := <-pubs:
		assert.Equal(t, docURI, uri)
	case <-time.After(2 * time.Second):
		t.Fatal("pub notification never arrived")
	}
}

func TestNotifierSubscribeWithoutEndpointIsNoop(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/turtle")
		fmt.Fprint(w, testDoc)
	}))
	t.Cleanup(srv.Close)

	client := NewClient(srv.Client(), "")
	docURI := srv.URL + "/chat.ttl"
	_, err := client.Load(context.Background(), docURI)
	require.NoError(t, err)

	notifier := NewNotifier(client, func(string) {})
	assert.NoError(t, notifier.Subscribe(context.Background(), docURI))
}
