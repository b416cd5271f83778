package panes

import (
	"sort"
	"strings"
	"sync"
	"time"

	"solidchat-backend/internal/models"
)

// MessageView is the render-ready projection of a message. Presentation
// fields are computed once here instead of at paint time so a view renderer
// stays a dumb template.
type MessageView struct {
	URI       string            `json:"uri"`
	Content   string            `json:"content"`
	Date      time.Time         `json:"date"`
	TimeLabel string            `json:"timeLabel"`
	Author    string            `json:"author"`
	AuthorURI string            `json:"authorUri,omitempty"`
	Initials  string            `json:"initials"`
	Avatar    string            `json:"avatar,omitempty"`
	Own       bool              `json:"own"`
	Edited    bool              `json:"edited,omitempty"`
	Reactions models.Reactions  `json:"reactions,omitempty"`
}

// View is the rendering surface a chat session drives. Implementations
// deliver the calls to an actual frontend; the session only ever issues
// minimal updates against it.
type View interface {
	// ReplaceAll swaps the full message list in one shot (first render).
	ReplaceAll(msgs []MessageView)
	// Append adds one message at the end.
	Append(msg MessageView)
	// Prepend inserts older messages before the current list.
	Prepend(msgs []MessageView)
	// Remove deletes a rendered message by URI.
	Remove(uri string)
	// SetReactions replaces the reaction set shown for one message.
	SetReactions(uri string, reactions models.Reactions)
	// SetContent replaces the body of one rendered message.
	SetContent(uri, content string, edited bool)
	// SetAvatar sets a resolved avatar for all messages by an author.
	SetAvatar(authorURI, avatarURI string)
	// ShowEmptyState and ClearEmptyState toggle the "no messages" notice.
	ShowEmptyState()
	ClearEmptyState()
	// SetStatus surfaces a transient status or error line.
	SetStatus(msg string)
	// SetTitle updates the pane heading.
	SetTitle(title string)
	// ScrollToBottom pins the viewport at the newest message.
	ScrollToBottom()
}

// NewMessageView projects a message for rendering. own flags messages
// authored by the signed-in identity.
func NewMessageView(m models.Message, own bool) MessageView {
	return MessageView{
		URI:       m.URI,
		Content:   m.Content,
		Date:      m.Date,
		TimeLabel: TimeLabel(m.Date, time.Now()),
		Author:    m.Author,
		AuthorURI: m.AuthorURI,
		Initials:  Initials(m.Author),
		Own:       own,
		Edited:    m.Edited,
		Reactions: m.Reactions,
	}
}

// Initials derives up to two uppercase initials from a display name for the
// avatar fallback badge.
func Initials(name string) string {
	fields := strings.Fields(name)
	var b strings.Builder
	for i, f := range fields {
		if i == 2 {
			break
		}
		b.WriteString(strings.ToUpper(string([]rune(f)[0])))
	}
	if b.Len() == 0 {
		return "?"
	}
	return b.String()
}

// TimeLabel renders a message timestamp relative to now: clock time for
// today, weekday within the last week, short date otherwise.
func TimeLabel(t, now time.Time) string {
	ty, tm, td := t.Date()
	ny, nm, nd := now.Date()
	switch {
	case ty == ny && tm == nm && td == nd:
		return t.Format("15:04")
	case now.Sub(t) < 7*24*time.Hour && t.Before(now):
		return t.Format("Mon 15:04")
	case ty == ny:
		return t.Format("Jan 2")
	default:
		return t.Format("Jan 2 2006")
	}
}

// MemoryView is an in-process View that keeps the rendered state in memory.
// The HTTP layer serves its snapshot as the pane's view model; tests assert
// against its operation counters to check update minimality.
type MemoryView struct {
	mu       sync.Mutex
	msgs     []MessageView
	title    string
	status   string
	empty    bool
	scrolled bool
}

// NewMemoryView creates an empty in-memory view.
func NewMemoryView() *MemoryView {
	return &MemoryView{}
}

func (v *MemoryView) ReplaceAll(msgs []MessageView) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.msgs = append([]MessageView(nil), msgs...)
}

func (v *MemoryView) Append(msg MessageView) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.msgs = append(v.msgs, msg)
}

func (v *MemoryView) Prepend(msgs []MessageView) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.msgs = append(append([]MessageView(nil), msgs...), v.msgs...)
}

func (v *MemoryView) Remove(uri string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for i := range v.msgs {
		if v.msgs[i].URI == uri {
			v.msgs = append(v.msgs[:i], v.msgs[i+1:]...)
			break
		}
	}
}

func (v *MemoryView) SetReactions(uri string, reactions models.Reactions) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for i := range v.msgs {
		if v.msgs[i].URI == uri {
			v.msgs[i].Reactions = reactions
			return
		}
	}
}

func (v *MemoryView) SetContent(uri, content string, edited bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for i := range v.msgs {
		if v.msgs[i].URI == uri {
			v.msgs[i].Content = content
			v.msgs[i].Edited = edited
			return
		}
	}
}

func (v *MemoryView) SetAvatar(authorURI, avatarURI string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for i := range v.msgs {
		if v.msgs[i].AuthorURI == authorURI {
			v.msgs[i].Avatar = avatarURI
		}
	}
}

func (v *MemoryView) ShowEmptyState() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.empty = true
}

func (v *MemoryView) ClearEmptyState() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.empty = false
}

func (v *MemoryView) SetStatus(msg string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.status = msg
}

func (v *MemoryView) SetTitle(title string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.title = title
}

func (v *MemoryView) ScrollToBottom() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.scrolled = true
}

// ViewSnapshot is the serializable state of a memory view.
type ViewSnapshot struct {
	Title    string        `json:"title"`
	Status   string        `json:"status,omitempty"`
	Empty    bool          `json:"empty"`
	Messages []MessageView `json:"messages"`
}

// Snapshot returns the current rendered state, messages in display order.
func (v *MemoryView) Snapshot() ViewSnapshot {
	v.mu.Lock()
	defer v.mu.Unlock()
	msgs := append([]MessageView(nil), v.msgs...)
	sort.SliceStable(msgs, func(i, j int) bool {
		if msgs[i].Date.Equal(msgs[j].Date) {
			return msgs[i].URI < msgs[j].URI
		}
		return msgs[i].Date.Before(msgs[j].Date)
	})
	return ViewSnapshot{Title: v.title, Status: v.status, Empty: v.empty, Messages: msgs}
}
