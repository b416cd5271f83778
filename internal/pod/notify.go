package pod

import (
	"context"
	"strings"
	"sync"

	"github.com/gorilla/websocket"

	"solidchat-backend/internal/logger"
)

// Notifier subscribes to a pod's change-notification websocket (the
// `Updates-Via` pub/sub protocol: the client sends "sub <uri>" frames and
// receives "pub <uri>" whenever the document changes). One connection is
// held per advertised endpoint; notifications are best-effort and a failed
// subscription never degrades the panes beyond losing live refresh.
type Notifier struct {
	client *Client
	dialer *websocket.Dialer
	onPub  func(docURI string)

	mu    sync.Mutex
	conns map[string]*notifyConn // endpoint -> connection
}

type notifyConn struct {
	ws *websocket.Conn
	mu sync.Mutex // guards writes; reads stay on the single reader goroutine
}

// NewNotifier creates a notifier that invokes onPub with the document URI of
// every change notification received.
func NewNotifier(client *Client, onPub func(docURI string)) *Notifier {
	dialer := *websocket.DefaultDialer
	dialer.Subprotocols = []string{"solid-0.1"}
	return &Notifier{
		client: client,
		dialer: &dialer,
		onPub:  onPub,
		conns:  make(map[string]*notifyConn),
	}
}

// Subscribe registers for change notifications on docURI, using the endpoint
// the server advertised when the document was fetched. It is a no-op if no
// endpoint is known.
func (n *Notifier) Subscribe(ctx context.Context, docURI string) error {
	endpoint := n.client.UpdatesVia(docURI)
	if endpoint == "" {
		logger.L.Debug("no updates-via endpoint advertised", "doc", docURI)
		return nil
	}

	conn, err := n.connect(ctx, endpoint)
	if err != nil {
		return err
	}

	conn.mu.Lock()
	defer conn.mu.Unlock()
	return conn.ws.WriteMessage(websocket.TextMessage, []byte("sub "+docURI))
}

func (n *Notifier) connect(ctx context.Context, endpoint string) (*notifyConn, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if conn, ok := n.conns[endpoint]; ok {
		return conn, nil
	}

	ws, _, err := n.dialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		return nil, err
	}
	conn := &notifyConn{ws: ws}
	n.conns[endpoint] = conn

	go n.readLoop(endpoint, conn)
	return conn, nil
}

func (n *Notifier) readLoop(endpoint string, conn *notifyConn) {
	defer func() {
		n.mu.Lock()
		delete(n.conns, endpoint)
		n.mu.Unlock()
		conn.ws.Close()
	}()

	for {
		_, message, err := conn.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.L.Warn("notification socket closed", "endpoint", endpoint, "error", err)
			}
			return
		}

		line := strings.TrimSpace(string(message))
		if uri, ok := strings.CutPrefix(line, "pub "); ok && n.onPub != nil {
			n.onPub(strings.TrimSpace(uri))
		}
		// "ack <uri>" and anything else is ignored.
	}
}

// Close tears down all notification connections.
func (n *Notifier) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	for endpoint, conn := range n.conns {
		conn.ws.Close()
		delete(n.conns, endpoint)
	}
}
