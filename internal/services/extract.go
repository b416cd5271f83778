package services

import (
	"sort"
	"strings"
	"time"

	"github.com/deiu/rdf2go"

	"solidchat-backend/internal/models"
	"solidchat-backend/internal/rdf"
)

// maxMessagesPerDocument caps extraction to the most recent messages of a
// document for rendering performance.
const maxMessagesPerDocument = 100

// ExtractMessages scans a loaded chat document for message and reaction
// statements and returns the messages sorted ascending by date, capped to
// the most recent 100. Statements without resolvable content are dropped.
// A nil graph (document never loaded) yields no messages.
func ExtractMessages(g *rdf2go.Graph, docURI string) []models.Message {
	if g == nil {
		return nil
	}

	byURI := make(map[string]int)
	var messages []models.Message

	for _, st := range g.All(nil, rdf.Sioc("content"), nil) {
		content := st.Object.RawValue()
		if content == "" {
			continue
		}
		msgNode := st.Subject
		uri := msgNode.RawValue()
		if _, seen := byURI[uri]; seen {
			continue
		}

		date := time.Now()
		if ts, ok := rdf.ParseTime(rdf.FirstOf(g, msgNode, rdf.CreatedAliases)); ok {
			date = ts
		}

		msg := models.Message{
			URI:       uri,
			Content:   content,
			Date:      date,
			Reactions: models.Reactions{},
			Edited:    rdf.Any(g, msgNode, rdf.DCT("modified")) != nil,
			DocURI:    docURI,
		}

		if maker := rdf.FirstOf(g, msgNode, rdf.AuthorAliases); maker != nil {
			msg.AuthorURI = maker.RawValue()
			msg.Author = authorDisplayName(g, maker)
		}

		messages = append(messages, msg)
		byURI[uri] = len(messages) - 1
	}

	// Fold reactions into their owning messages, deduplicating identical
	// (emoji, agent) pairs; the server never dedups for us.
	for _, st := range g.All(nil, rdf.Schema("about"), nil) {
		reactionNode := st.Subject
		idx, ok := byURI[st.Object.RawValue()]
		if !ok {
			continue
		}
		emoji := rdf.Any(g, reactionNode, rdf.Schema("name"))
		agent := rdf.Any(g, reactionNode, rdf.Schema("agent"))
		if emoji == nil || agent == nil || emoji.RawValue() == "" || agent.RawValue() == "" {
			continue
		}
		messages[idx].Reactions.Add(emoji.RawValue(), agent.RawValue())
	}

	SortMessages(messages)
	if len(messages) > maxMessagesPerDocument {
		messages = messages[len(messages)-maxMessagesPerDocument:]
	}
	return messages
}

// SortMessages orders messages ascending by date. The graph gives no stable
// statement order, so ties are broken by message URI (which embeds the send
// timestamp) to keep output deterministic.
func SortMessages(messages []models.Message) {
	sort.SliceStable(messages, func(i, j int) bool {
		if !messages[i].Date.Equal(messages[j].Date) {
			return messages[i].Date.Before(messages[j].Date)
		}
		return messages[i].URI < messages[j].URI
	})
}

// ExtractTitle returns the chat title stated in the document, if any.
func ExtractTitle(g *rdf2go.Graph) string {
	if g == nil {
		return ""
	}
	if t := rdf.Any(g, nil, rdf.DCT("title")); t != nil {
		return t.RawValue()
	}
	if t := rdf.Any(g, nil, rdf.DC("title")); t != nil {
		return t.RawValue()
	}
	return ""
}

// authorDisplayName resolves a display name for an author reference: a
// foaf:name in the same document wins, then the host label of the author
// URI, then "Unknown".
func authorDisplayName(g *rdf2go.Graph, maker rdf2go.Term) string {
	if name := rdf.Any(g, maker, rdf.FOAF("name")); name != nil && name.RawValue() != "" {
		return name.RawValue()
	}
	if label := hostLabel(maker.RawValue()); label != "" {
		return label
	}
	return "Unknown"
}

// hostLabel derives a rough display name from an identity URI, e.g.
// "https://alice.solidcommunity.net/profile/card#me" -> "alice".
func hostLabel(uri string) string {
	_, rest, found := strings.Cut(uri, "//")
	if !found {
		return ""
	}
	label, _, _ := strings.Cut(rest, ".")
	return label
}
