package services

import (
	"context"
	"strings"
	"sync"

	"github.com/deiu/rdf2go"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"

	"solidchat-backend/internal/logger"
	"solidchat-backend/internal/pod"
	"solidchat-backend/internal/rdf"
)

const (
	avatarCacheSize = 256
	avatarFetchers  = 4
)

// AvatarService resolves WebIDs to avatar image URIs by reading the
// profile document's vcard:hasPhoto, falling back to foaf:img. Results are
// kept in a bounded LRU so long-running sessions over many authors do not
// grow without limit; unresolvable profiles cache an empty string so they
// are not re-fetched on every render.
type AvatarService struct {
	pod *pod.Client

	mu    sync.Mutex
	cache *lru.Cache[string, string]
}

// NewAvatarService creates an AvatarService.
func NewAvatarService(podClient *pod.Client) *AvatarService {
	cache, _ := lru.New[string, string](avatarCacheSize)
	return &AvatarService{pod: podClient, cache: cache}
}

// Resolve returns the avatar URI for one WebID, empty if the profile has
// none or could not be fetched.
func (s *AvatarService) Resolve(ctx context.Context, webid string) string {
	if webid == "" {
		return ""
	}
	s.mu.Lock()
	if uri, ok := s.cache.Get(webid); ok {
		s.mu.Unlock()
		return uri
	}
	s.mu.Unlock()

	uri := s.fetch(ctx, webid)
	s.mu.Lock()
	s.cache.Add(webid, uri)
	s.mu.Unlock()
	return uri
}

// ResolveBatch resolves a set of WebIDs concurrently and returns the
// webid-to-avatar map. Individual failures degrade to empty entries.
func (s *AvatarService) ResolveBatch(ctx context.Context, webids []string) map[string]string {
	out := make(map[string]string, len(webids))
	var outMu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(avatarFetchers)
	seen := make(map[string]bool, len(webids))
	for _, id := range webids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		g.Go(func() error {
			uri := s.Resolve(ctx, id)
			outMu.Lock()
			out[id] = uri
			outMu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (s *AvatarService) fetch(ctx context.Context, webid string) string {
	g, err := s.pod.Load(ctx, docOf(webid))
	if err != nil {
		logger.L.Debug("could not load profile for avatar", "webid", webid, "error", err)
		return ""
	}
	person := rdf2go.NewResource(webid)
	if photo := rdf.Any(g, person, rdf.VCard("hasPhoto")); photo != nil {
		return photo.RawValue()
	}
	if img := rdf.Any(g, person, rdf.FOAF("img")); img != nil {
		return img.RawValue()
	}
	return ""
}

// docOf strips a WebID's fragment to get its profile document URI.
func docOf(webid string) string {
	doc, _, _ := strings.Cut(webid, "#")
	return doc
}
