package panes

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solidchat-backend/internal/models"
)

func TestInitials(t *testing.T) {
	assert.Equal(t, "AA", Initials("Alice Anderson"))
	assert.Equal(t, "B", Initials("bob"))
	assert.Equal(t, "AB", Initials("alice bob carol"))
	assert.Equal(t, "?", Initials(""))
	assert.Equal(t, "?", Initials("   "))
}

func TestTimeLabel(t *testing.T) {
	now := time.Date(2026, 8, 27, 18, 0, 0, 0, time.UTC)

	assert.Equal(t, "09:30", TimeLabel(time.Date(2026, 8, 27, 9, 30, 0, 0, time.UTC), now))
	assert.Equal(t, "Tue 14:00", TimeLabel(time.Date(2026, 8, 25, 14, 0, 0, 0, time.UTC), now))
	assert.Equal(t, "Mar 3", TimeLabel(time.Date(2026, 3, 3, 8, 0, 0, 0, time.UTC), now))
	assert.Equal(t, "Jan 2 2019", TimeLabel(time.Date(2019, 1, 2, 8, 0, 0, 0, time.UTC), now))
}

func TestMemoryViewSnapshotOrdersMessages(t *testing.T) {
	v := NewMemoryView()
	v.Append(MessageView{URI: "m2", Date: time.Date(2026, 8, 27, 11, 0, 0, 0, time.UTC)})
	v.Append(MessageView{URI: "m1", Date: time.Date(2026, 8, 27, 10, 0, 0, 0, time.UTC)})

	snap := v.Snapshot()
	require.Len(t, snap.Messages, 2)
	assert.Equal(t, "m1", snap.Messages[0].URI)
	assert.Equal(t, "m2", snap.Messages[1].URI)
}

func TestMemoryViewMutations(t *testing.T) {
	v := NewMemoryView()
	v.SetTitle("General")
	v.Append(MessageView{URI: "m1", Content: "hi", AuthorURI: "https://a.example/#me"})

	v.SetContent("m1", "edited", true)
	v.SetReactions("m1", models.Reactions{"👍": {"https://b.example/#me"}})
	v.SetAvatar("https://a.example/#me", "https://a.example/photo.png")

	snap := v.Snapshot()
	assert.Equal(t, "General", snap.Title)
	require.Len(t, snap.Messages, 1)
	m := snap.Messages[0]
	assert.Equal(t, "edited", m.Content)
	assert.True(t, m.Edited)
	assert.Equal(t, 1, m.Reactions.Count())
	assert.Equal(t, "https://a.example/photo.png", m.Avatar)

	v.Remove("m1")
	assert.Empty(t, v.Snapshot().Messages)
}

func TestMemoryViewEmptyState(t *testing.T) {
	v := NewMemoryView()
	v.ShowEmptyState()
	assert.True(t, v.Snapshot().Empty)
	v.ClearEmptyState()
	assert.False(t, v.Snapshot().Empty)
}
