package models

import (
	"sort"
	"strings"
	"time"
)

// Reactions maps an emoji symbol to the identities (WebIDs) that reacted with
// it. Agent order within an emoji is not significant.
type Reactions map[string][]string

// Add records a reaction, ignoring a duplicate (emoji, agent) pair.
// It reports whether the reaction was actually added.
func (r Reactions) Add(emoji, agent string) bool {
	for _, a := range r[emoji] {
		if a == agent {
			return false
		}
	}
	r[emoji] = append(r[emoji], agent)
	return true
}

// Count returns the total number of (emoji, agent) pairs.
func (r Reactions) Count() int {
	n := 0
	for _, agents := range r {
		n += len(agents)
	}
	return n
}

// Signature returns a canonical serialization of the reaction map, used to
// detect changes between extraction passes without redrawing unchanged chips.
func (r Reactions) Signature() string {
	if len(r) == 0 {
		return ""
	}
	emojis := make([]string, 0, len(r))
	for e := range r {
		emojis = append(emojis, e)
	}
	sort.Strings(emojis)

	var b strings.Builder
	for _, e := range emojis {
		agents := append([]string(nil), r[e]...)
		sort.Strings(agents)
		b.WriteString(e)
		b.WriteString("=")
		b.WriteString(strings.Join(agents, ","))
		b.WriteString(";")
	}
	return b.String()
}

// Message is a single chat message extracted from a pod document.
// URI is the primary key and stays stable across reloads.
type Message struct {
	URI       string    `json:"uri"`
	Content   string    `json:"content"`
	Date      time.Time `json:"date"`
	Author    string    `json:"author,omitempty"`
	AuthorURI string    `json:"author_uri,omitempty"`
	Reactions Reactions `json:"reactions,omitempty"`
	Edited    bool      `json:"edited"`
	DocURI    string    `json:"doc_uri"` // daily document the message statements live in
}

// ChatListEntry is one sidebar row, persisted locally.
type ChatListEntry struct {
	URI         string    `json:"uri"`
	Title       string    `json:"title"`
	LastMessage string    `json:"lastMessage"`
	Timestamp   time.Time `json:"timestamp"`
}
