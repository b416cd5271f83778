package panes

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solidchat-backend/internal/models"
)

// recordingView logs every operation the reconciler issues.
type recordingView struct {
	ops []string
}

func (v *recordingView) op(format string, args ...any) {
	v.ops = append(v.ops, fmt.Sprintf(format, args...))
}

func (v *recordingView) ReplaceAll(msgs []MessageView) { v.op("replace:%d", len(msgs)) }
func (v *recordingView) Append(msg MessageView)        { v.op("append:%s", msg.URI) }
func (v *recordingView) Prepend(msgs []MessageView)    { v.op("prepend:%d", len(msgs)) }
func (v *recordingView) Remove(uri string)             { v.op("remove:%s", uri) }
func (v *recordingView) SetReactions(uri string, r models.Reactions) {
	v.op("reactions:%s:%d", uri, r.Count())
}
func (v *recordingView) SetContent(uri, content string, edited bool) {
	v.op("content:%s:%s", uri, content)
}
func (v *recordingView) SetAvatar(authorURI, avatarURI string) { v.op("avatar:%s", authorURI) }
func (v *recordingView) ShowEmptyState()                       { v.op("empty:on") }
func (v *recordingView) ClearEmptyState()                      { v.op("empty:off") }
func (v *recordingView) SetStatus(msg string)                  { v.op("status:%s", msg) }
func (v *recordingView) SetTitle(title string)                 { v.op("title:%s", title) }
func (v *recordingView) ScrollToBottom()                       { v.op("scroll") }

func (v *recordingView) count(prefix string) int {
	n := 0
	for _, op := range v.ops {
		if len(op) >= len(prefix) && op[:len(prefix)] == prefix {
			n++
		}
	}
	return n
}

func (v *recordingView) reset() { v.ops = nil }

func msgAt(uri string, minute int) models.Message {
	return models.Message{
		URI:       uri,
		Content:   "content of " + uri,
		Date:      time.Date(2026, 8, 27, 10, minute, 0, 0, time.UTC),
		Reactions: models.Reactions{},
	}
}

func notOwn(models.Message) bool { return false }

func TestReconcilerFirstPassReplacesAndScrolls(t *testing.T) {
	view := &recordingView{}
	r := NewReconciler(view)

	r.Apply([]models.Message{msgAt("m1", 1), msgAt("m2", 2)}, notOwn)

	assert.Equal(t, 1, view.count("replace:"))
	assert.Equal(t, 0, view.count("append:"))
	assert.Equal(t, 1, view.count("scroll"))
	assert.Equal(t, 1, view.count("empty:off"))
}

func TestReconcilerSecondPassIsIdempotent(t *testing.T) {
	view := &recordingView{}
	r := NewReconciler(view)
	msgs := []models.Message{msgAt("m1", 1), msgAt("m2", 2)}

	r.Apply(msgs, notOwn)
	view.reset()
	r.Apply(msgs, notOwn)

	assert.Equal(t, 0, view.count("replace:"))
	assert.Equal(t, 0, view.count("append:"))
	assert.Equal(t, 0, view.count("remove:"))
	assert.Equal(t, 0, view.count("content:"))
	assert.Equal(t, 0, view.count("reactions:"))
	assert.Equal(t, 0, view.count("scroll"), "no new messages, no scroll jump")
}

func TestReconcilerAppendsOnlyNewMessages(t *testing.T) {
	view := &recordingView{}
	r := NewReconciler(view)

	r.Apply([]models.Message{msgAt("m1", 1)}, notOwn)
	view.reset()
	r.Apply([]models.Message{msgAt("m1", 1), msgAt("m2", 2)}, notOwn)

	assert.Equal(t, []string{"append:m2", "empty:off", "scroll"}, view.ops)
}

func TestReconcilerRemovesVanishedMessages(t *testing.T) {
	view := &recordingView{}
	r := NewReconciler(view)

	r.Apply([]models.Message{msgAt("m1", 1), msgAt("m2", 2)}, notOwn)
	view.reset()
	r.Apply([]models.Message{msgAt("m1", 1)}, notOwn)

	assert.Equal(t, 1, view.count("remove:m2"))
	assert.False(t, r.Rendered("m2"))
	assert.Equal(t, 0, view.count("scroll"), "removal alone does not scroll")
}

func TestReconcilerEmptyStates(t *testing.T) {
	view := &recordingView{}
	r := NewReconciler(view)

	r.Apply(nil, notOwn)
	assert.Equal(t, 1, view.count("empty:on"))

	view.reset()
	r.Apply([]models.Message{msgAt("m1", 1)}, notOwn)
	assert.Equal(t, 1, view.count("empty:off"))

	view.reset()
	r.Apply(nil, notOwn)
	assert.Equal(t, 1, view.count("remove:m1"))
	assert.Equal(t, 1, view.count("empty:on"))
}

func TestReconcilerReactionChanges(t *testing.T) {
	view := &recordingView{}
	r := NewReconciler(view)
	m := msgAt("m1", 1)

	r.Apply([]models.Message{m}, notOwn)

	// Same reactions: no repaint.
	view.reset()
	r.Apply([]models.Message{m}, notOwn)
	assert.Equal(t, 0, view.count("reactions:"))

	// A new reaction repaints exactly that message's chips.
	reacted := msgAt("m1", 1)
	reacted.Reactions = models.Reactions{"👍": {"https://alice.example/#me"}}
	view.reset()
	r.Apply([]models.Message{reacted}, notOwn)
	assert.Equal(t, 1, view.count("reactions:m1:1"))
	assert.Equal(t, 0, view.count("append:"))
}

func TestReconcilerContentEdits(t *testing.T) {
	view := &recordingView{}
	r := NewReconciler(view)
	m := msgAt("m1", 1)

	r.Apply([]models.Message{m}, notOwn)

	edited := m
	edited.Content = "rewritten"
	edited.Edited = true
	view.reset()
	r.Apply([]models.Message{edited}, notOwn)

	assert.Equal(t, 1, view.count("content:m1:rewritten"))
	assert.Equal(t, 0, view.count("append:"))
	assert.Equal(t, 0, view.count("remove:"))
}

func TestReconcilerTrackSuppressesReappend(t *testing.T) {
	view := &recordingView{}
	r := NewReconciler(view)
	r.Apply(nil, notOwn)

	// Optimistically rendered message is tracked out of band; the next
	// apply must not append it again.
	sent := msgAt("m1", 1)
	r.Track(sent)
	view.reset()
	r.Apply([]models.Message{sent}, notOwn)

	assert.Equal(t, 0, view.count("append:"))
	require.True(t, r.Rendered("m1"))
}

func TestReconcilerOwnFlag(t *testing.T) {
	view := &recordingView{}
	r := NewReconciler(view)
	mine := "https://alice.example/#me"

	var appended []MessageView
	r.Apply([]models.Message{{URI: "m1", Content: "x", AuthorURI: mine, Reactions: models.Reactions{}}},
		func(m models.Message) bool {
			own := m.AuthorURI == mine
			appended = append(appended, NewMessageView(m, own))
			return own
		})
	require.NotEmpty(t, appended)
	assert.True(t, appended[0].Own)
}
