package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/deiu/rdf2go"
	"github.com/google/uuid"

	"solidchat-backend/internal/auth"
	"solidchat-backend/internal/logger"
	"solidchat-backend/internal/models"
	"solidchat-backend/internal/pod"
	"solidchat-backend/internal/rdf"
)

// ErrNoIdentity is returned when a mutation is attempted without a
// signed-in WebID. No network call is made in that case.
var ErrNoIdentity = errors.New("no signed-in identity")

// MessageService performs chat mutations against pod documents. Every write
// is expressed as a SPARQL-update PATCH built from explicit triples, so a
// conforming pod applies exactly the intended change.
type MessageService struct {
	pod     *pod.Client
	history *HistoryService

	now       func() time.Time
	newSuffix func() string
}

// NewMessageService creates a MessageService.
func NewMessageService(podClient *pod.Client, history *HistoryService) *MessageService {
	return &MessageService{
		pod:       podClient,
		history:   history,
		now:       time.Now,
		newSuffix: func() string { return uuid.NewString()[:6] },
	}
}

// webID extracts the caller identity or fails with ErrNoIdentity.
func webID(ctx context.Context) (string, error) {
	id, ok := auth.WebIDFromContext(ctx)
	if !ok || id == "" {
		return "", ErrNoIdentity
	}
	return id, nil
}

// Send creates a new message in today's daily document for the chat subject.
// The returned message is non-nil even when the pod write fails, so the
// caller can render it optimistically; the error still reports the failure.
func (s *MessageService) Send(ctx context.Context, subject, content string) (*models.Message, error) {
	author, err := webID(ctx)
	if err != nil {
		return nil, err
	}

	docURI, err := s.history.EnsureDailyChat(ctx, subject)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare daily chat: %w", err)
	}

	now := s.now()
	msgURI := fmt.Sprintf("%s#msg-%d-%s", docURI, now.UnixMilli(), s.newSuffix())
	chatNode := rdf2go.NewResource(chatSubjectNode(subject, docURI))
	msgNode := rdf2go.NewResource(msgURI)

	ins := []*rdf2go.Triple{
		rdf2go.NewTriple(chatNode, rdf.Flow("message"), msgNode),
		rdf2go.NewTriple(msgNode, rdf.RDF("type"), rdf.Flow("Message")),
		rdf2go.NewTriple(msgNode, rdf.Sioc("content"), rdf2go.NewLiteral(content)),
		rdf2go.NewTriple(msgNode, rdf.DCT("created"), rdf.DateTimeLiteral(now)),
		rdf2go.NewTriple(msgNode, rdf.FOAF("maker"), rdf2go.NewResource(author)),
	}

	msg := &models.Message{
		URI:       msgURI,
		Content:   content,
		Date:      now,
		Author:    hostLabel(author),
		AuthorURI: author,
		Reactions: models.Reactions{},
		DocURI:    docURI,
	}

	if err := s.pod.Update(ctx, docURI, nil, ins); err != nil {
		// The optimistic copy stays with the caller; a later refresh of
		// the document reconciles the divergence.
		logger.L.Error("failed to persist message", "doc", docURI, "error", err)
		return msg, fmt.Errorf("failed to send message: %w", err)
	}
	return msg, nil
}

// Edit replaces a message's content, conditioned on the currently stored
// content so a concurrent edit loses cleanly instead of clobbering. The
// modification timestamp marks the message as edited.
func (s *MessageService) Edit(ctx context.Context, docURI, msgURI, oldContent, newContent string) error {
	if _, err := webID(ctx); err != nil {
		return err
	}

	msgNode := rdf2go.NewResource(msgURI)
	del := []*rdf2go.Triple{
		rdf2go.NewTriple(msgNode, rdf.Sioc("content"), rdf2go.NewLiteral(oldContent)),
	}
	ins := []*rdf2go.Triple{
		rdf2go.NewTriple(msgNode, rdf.Sioc("content"), rdf2go.NewLiteral(newContent)),
		rdf2go.NewTriple(msgNode, rdf.DCT("modified"), rdf.DateTimeLiteral(s.now())),
	}
	where := []*rdf2go.Triple{
		rdf2go.NewTriple(msgNode, rdf.Sioc("content"), rdf2go.NewLiteral(oldContent)),
	}

	if err := s.pod.UpdateWhere(ctx, docURI, del, ins, where); err != nil {
		return fmt.Errorf("failed to edit message: %w", err)
	}
	return nil
}

// Delete removes every statement whose subject is the message, taken from
// the cached document graph. Statements pointing AT the message (the chat's
// membership triple included) are deleted alongside.
func (s *MessageService) Delete(ctx context.Context, docURI, msgURI string) error {
	if _, err := webID(ctx); err != nil {
		return err
	}

	g, err := s.pod.Load(ctx, docURI)
	if err != nil {
		return fmt.Errorf("failed to load document for delete: %w", err)
	}

	msgNode := rdf2go.NewResource(msgURI)
	del := g.All(msgNode, nil, nil)
	del = append(del, g.All(nil, nil, msgNode)...)
	if len(del) == 0 {
		return fmt.Errorf("message %s not present in %s", msgURI, docURI)
	}

	if err := s.pod.Update(ctx, docURI, del, nil); err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}
	return nil
}

// React attaches an emoji reaction from the signed-in identity to a message.
// Reactions are standalone nodes in the same document linked by schema:about.
func (s *MessageService) React(ctx context.Context, docURI, msgURI, emoji string) error {
	agent, err := webID(ctx)
	if err != nil {
		return err
	}

	reactionURI := fmt.Sprintf("%s#reaction-%d-%s", docURI, s.now().UnixMilli(), s.newSuffix())
	node := rdf2go.NewResource(reactionURI)
	ins := []*rdf2go.Triple{
		rdf2go.NewTriple(node, rdf.Schema("about"), rdf2go.NewResource(msgURI)),
		rdf2go.NewTriple(node, rdf.Schema("name"), rdf2go.NewLiteral(emoji)),
		rdf2go.NewTriple(node, rdf.Schema("agent"), rdf2go.NewResource(agent)),
	}

	if err := s.pod.Update(ctx, docURI, nil, ins); err != nil {
		return fmt.Errorf("failed to add reaction: %w", err)
	}
	return nil
}

// chatSubjectNode resolves the membership subject inside the daily document.
// A fragmented chat subject keeps its fragment on the daily document; a
// bare container subject falls back to the conventional #this node.
func chatSubjectNode(subject, docURI string) string {
	if _, frag, ok := strings.Cut(subject, "#"); ok && frag != "" {
		return docURI + "#" + frag
	}
	return docURI + "#this"
}
