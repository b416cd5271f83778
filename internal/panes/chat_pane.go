package panes

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/deiu/rdf2go"
	"golang.org/x/sync/singleflight"

	"solidchat-backend/internal/logger"
	"solidchat-backend/internal/models"
	"solidchat-backend/internal/pod"
	"solidchat-backend/internal/rdf"
	"solidchat-backend/internal/services"
)

// ChatPane renders LongChat subjects. It keeps one live session per
// subject; repeated Render calls for the same subject resume the session
// instead of rebuilding it.
type ChatPane struct {
	pod      *pod.Client
	history  *services.HistoryService
	messages *services.MessageService
	avatars  *services.AvatarService
	notifier *pod.Notifier
	webID    string

	mu       sync.Mutex
	sessions map[string]*ChatSession
}

// NewChatPane creates the chat pane. notifier may be nil, in which case
// sessions refresh only on demand.
func NewChatPane(podClient *pod.Client, history *services.HistoryService, messages *services.MessageService, avatars *services.AvatarService, notifier *pod.Notifier, webID string) *ChatPane {
	return &ChatPane{
		pod:      podClient,
		history:  history,
		messages: messages,
		avatars:  avatars,
		notifier: notifier,
		webID:    webID,
		sessions: make(map[string]*ChatSession),
	}
}

func (p *ChatPane) Name() string { return "long-chat" }

// Label claims subjects typed as chats, and falls back to a URI heuristic
// when the graph is unavailable or untyped.
func (p *ChatPane) Label(subject string, g *rdf2go.Graph) string {
	node := rdf2go.NewResource(subject)
	if g != nil {
		if rdf.Holds(g, node, rdf.RDF("type"), rdf.Meeting("LongChat")) ||
			rdf.Holds(g, node, rdf.RDF("type"), rdf.Flow("Chat")) {
			if title := services.ExtractTitle(g); title != "" {
				return title
			}
			return services.TitleFromURI(subject)
		}
	}
	doc, _, _ := strings.Cut(subject, "#")
	if strings.Contains(doc, "/chat") || strings.HasSuffix(doc, "chat.ttl") {
		return services.TitleFromURI(subject)
	}
	return ""
}

// Render opens or resumes the session for a chat subject and performs an
// initial refresh.
func (p *ChatPane) Render(ctx context.Context, subject string) (Session, error) {
	p.mu.Lock()
	sess, ok := p.sessions[subject]
	if !ok {
		sess = &ChatSession{
			pane:    p,
			subject: subject,
			view:    NewMemoryView(),
		}
		sess.reconciler = NewReconciler(sess.view)
		p.sessions[subject] = sess
	}
	p.mu.Unlock()

	if !ok {
		sess.view.SetTitle(p.sessionTitle(ctx, subject))
		p.subscribe(ctx, subject)
	}
	if err := sess.Refresh(ctx); err != nil {
		// The session stays usable; the view carries the error status.
		logger.L.Warn("initial chat refresh failed", "subject", subject, "error", err)
	}
	return sess, nil
}

// Session returns the live session for a subject if one exists.
func (p *ChatPane) Session(subject string) (*ChatSession, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	sess, ok := p.sessions[subject]
	return sess, ok
}

// HandleUpdate reacts to a server-pushed document change: the matching
// session drops its cached copy and refreshes.
func (p *ChatPane) HandleUpdate(docURI string) {
	p.mu.Lock()
	var target *ChatSession
	for _, sess := range p.sessions {
		if strings.HasPrefix(docURI, services.ChatBaseURL(sess.subject)) {
			target = sess
			break
		}
	}
	p.mu.Unlock()
	if target == nil {
		return
	}

	p.pod.Forget(docURI)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := target.Refresh(ctx); err != nil {
		logger.L.Warn("push-triggered refresh failed", "doc", docURI, "error", err)
	}
}

func (p *ChatPane) subscribe(ctx context.Context, subject string) {
	if p.notifier == nil {
		return
	}
	base := services.ChatBaseURL(subject)
	today := services.DailyDocURI(base, time.Now())
	for _, doc := range []string{rootDoc(subject), today} {
		if err := p.notifier.Subscribe(ctx, doc); err != nil {
			logger.L.Debug("live update subscription unavailable", "doc", doc, "error", err)
		}
	}
}

func (p *ChatPane) sessionTitle(ctx context.Context, subject string) string {
	if g, err := p.pod.Load(ctx, rootDoc(subject)); err == nil {
		if title := services.ExtractTitle(g); title != "" {
			return title
		}
	}
	return services.TitleFromURI(subject)
}

func (p *ChatPane) own(m models.Message) bool {
	return p.webID != "" && m.AuthorURI == p.webID
}

// ChatSession is a live rendering of one chat. All message state flows
// through the reconciler; the view never sees a full repaint after the
// first one.
type ChatSession struct {
	pane    *ChatPane
	subject string
	view    *MemoryView

	mu           sync.Mutex
	reconciler   *Reconciler
	oldestLoaded time.Time
	hasMore      bool

	refreshGroup singleflight.Group
}

func (s *ChatSession) Subject() string { return s.subject }

// Snapshot returns the view model for the HTTP layer.
func (s *ChatSession) Snapshot() ViewSnapshot {
	return s.view.Snapshot()
}

// HasMore reports whether older history is likely to exist.
func (s *ChatSession) HasMore() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hasMore
}

// OldestLoaded returns the oldest date the session has paged back to.
func (s *ChatSession) OldestLoaded() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.oldestLoaded
}

// Close drops the session from the pane.
func (s *ChatSession) Close() {
	s.pane.mu.Lock()
	delete(s.pane.sessions, s.subject)
	s.pane.mu.Unlock()
}

// Refresh re-reads the chat's documents and reconciles the view. Concurrent
// calls for the same session coalesce into one pass. On failure the view
// keeps its rendered messages and only the status line changes.
func (s *ChatSession) Refresh(ctx context.Context) error {
	_, err, _ := s.refreshGroup.Do("refresh", func() (any, error) {
		return nil, s.refresh(ctx)
	})
	return err
}

func (s *ChatSession) refresh(ctx context.Context) error {
	msgs, err := s.collect(ctx)
	if err != nil {
		s.view.SetStatus("Could not refresh chat: " + err.Error())
		return err
	}

	s.mu.Lock()
	s.reconciler.Apply(msgs, s.pane.own)
	s.mu.Unlock()
	s.view.SetStatus("")

	s.applyAvatars(ctx, msgs)
	return nil
}

// collect merges the messages on the root chat document with the recent
// daily partitions, deduplicated by URI.
func (s *ChatSession) collect(ctx context.Context) ([]models.Message, error) {
	var msgs []models.Message

	root := rootDoc(s.subject)
	if g, err := s.pane.pod.Load(ctx, root); err == nil {
		msgs = append(msgs, services.ExtractMessages(g, root)...)
	} else if !errors.Is(err, pod.ErrNotFound) {
		return nil, err
	}

	recent, oldest, err := s.pane.history.LoadRecentHistory(ctx, s.subject, services.DefaultDaysBack)
	if err != nil {
		return nil, err
	}
	msgs = append(msgs, recent...)

	s.mu.Lock()
	if s.oldestLoaded.IsZero() {
		s.oldestLoaded = oldest
		s.hasMore = true
	}
	s.mu.Unlock()

	return dedupeByURI(msgs), nil
}

// LoadMore pages older history into the view. The returned count is the
// number of messages added.
func (s *ChatSession) LoadMore(ctx context.Context) (int, error) {
	s.mu.Lock()
	oldest := s.oldestLoaded
	more := s.hasMore
	s.mu.Unlock()
	if !more {
		return 0, nil
	}

	page, err := s.pane.history.LoadPreviousDays(ctx, s.subject, oldest, services.DefaultDaysBack)
	if err != nil {
		s.view.SetStatus("Could not load older messages: " + err.Error())
		return 0, err
	}

	s.mu.Lock()
	s.oldestLoaded = page.OldestDate
	s.hasMore = page.HasMore

	var fresh []MessageView
	for _, m := range page.Messages {
		if s.reconciler.Rendered(m.URI) {
			continue
		}
		fresh = append(fresh, NewMessageView(m, s.pane.own(m)))
		s.reconciler.Track(m)
	}
	s.mu.Unlock()

	if len(fresh) > 0 {
		s.view.Prepend(fresh)
		s.applyAvatars(ctx, page.Messages)
	}
	return len(fresh), nil
}

// Send posts a message and renders it optimistically: the view appends even
// when the pod write fails, and the next refresh settles the truth.
func (s *ChatSession) Send(ctx context.Context, content string) (*models.Message, error) {
	msg, err := s.pane.messages.Send(ctx, s.subject, content)
	if msg != nil {
		s.mu.Lock()
		s.reconciler.Track(*msg)
		s.mu.Unlock()
		s.view.Append(NewMessageView(*msg, true))
		s.view.ClearEmptyState()
		s.view.ScrollToBottom()
	}
	if err != nil {
		s.view.SetStatus("Message not saved: " + err.Error())
	}
	return msg, err
}

// Edit changes a message's content. The view updates only after the pod
// confirms the patch.
func (s *ChatSession) Edit(ctx context.Context, msgURI, newContent string) error {
	docURI, current, err := s.locate(ctx, msgURI)
	if err != nil {
		return err
	}
	if err := s.pane.messages.Edit(ctx, docURI, msgURI, current, newContent); err != nil {
		s.view.SetStatus("Edit failed: " + err.Error())
		return err
	}
	s.view.SetContent(msgURI, newContent, true)
	s.mu.Lock()
	s.reconciler.Track(models.Message{URI: msgURI, Content: newContent, Edited: true})
	s.mu.Unlock()
	return nil
}

// Delete removes a message. The view updates only after confirmation.
func (s *ChatSession) Delete(ctx context.Context, msgURI string) error {
	docURI := msgDoc(msgURI)
	if err := s.pane.messages.Delete(ctx, docURI, msgURI); err != nil {
		s.view.SetStatus("Delete failed: " + err.Error())
		return err
	}
	s.view.Remove(msgURI)
	s.mu.Lock()
	s.reconciler.Untrack(msgURI)
	s.mu.Unlock()
	return nil
}

// React adds an emoji reaction and refreshes the message's reaction set
// from the document after the patch lands.
func (s *ChatSession) React(ctx context.Context, msgURI, emoji string) error {
	docURI := msgDoc(msgURI)
	if err := s.pane.messages.React(ctx, docURI, msgURI, emoji); err != nil {
		s.view.SetStatus("Reaction failed: " + err.Error())
		return err
	}
	if g, err := s.pane.pod.Load(ctx, docURI); err == nil {
		for _, m := range services.ExtractMessages(g, docURI) {
			if m.URI == msgURI {
				s.view.SetReactions(msgURI, m.Reactions)
				s.mu.Lock()
				s.reconciler.Track(m)
				s.mu.Unlock()
				break
			}
		}
	}
	return nil
}

// locate finds the document holding a message and its current content.
func (s *ChatSession) locate(ctx context.Context, msgURI string) (docURI, content string, err error) {
	docURI = msgDoc(msgURI)
	g, err := s.pane.pod.Load(ctx, docURI)
	if err != nil {
		return "", "", err
	}
	if t := rdf.Any(g, rdf2go.NewResource(msgURI), rdf.Sioc("content")); t != nil {
		return docURI, t.RawValue(), nil
	}
	return docURI, "", nil
}

func (s *ChatSession) applyAvatars(ctx context.Context, msgs []models.Message) {
	var ids []string
	for _, m := range msgs {
		if m.AuthorURI != "" {
			ids = append(ids, m.AuthorURI)
		}
	}
	if len(ids) == 0 {
		return
	}
	for id, uri := range s.pane.avatars.ResolveBatch(ctx, ids) {
		if uri != "" {
			s.view.SetAvatar(id, uri)
		}
	}
}

func rootDoc(subject string) string {
	doc, _, _ := strings.Cut(subject, "#")
	return doc
}

func msgDoc(msgURI string) string {
	doc, _, _ := strings.Cut(msgURI, "#")
	return doc
}

func dedupeByURI(msgs []models.Message) []models.Message {
	seen := make(map[string]bool, len(msgs))
	out := msgs[:0]
	for _, m := range msgs {
		if seen[m.URI] {
			continue
		}
		seen[m.URI] = true
		out = append(out, m)
	}
	services.SortMessages(out)
	return out
}
