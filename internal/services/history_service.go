package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"solidchat-backend/internal/logger"
	"solidchat-backend/internal/models"
	"solidchat-backend/internal/pod"
)

// Scroll-back policy constants. These bound worst-case fetch fan-out against
// sparse chat histories (most days have zero messages) while still making
// forward progress; they are tunable, not correctness-critical.
const (
	// DefaultDaysBack is the initial scroll-back window.
	DefaultDaysBack = 7
	// maxEmptyDays stops backward paging after this many consecutive days
	// with no messages and signals that no more history is likely.
	maxEmptyDays = 30
	// enoughMessages ends a page early once this many messages accumulated.
	enoughMessages = 50
	// walkFactor caps a page's walk at daysToLoad*walkFactor calendar days.
	walkFactor = 3
)

// HistoryPage is one chunk of scroll-back.
type HistoryPage struct {
	Messages   []models.Message
	OldestDate time.Time
	HasMore    bool
}

// HistoryService assembles scroll-back windows from date-partitioned daily
// chat documents and creates the current day's document on demand.
type HistoryService struct {
	pod *pod.Client
	now func() time.Time
}

// NewHistoryService creates a HistoryService.
func NewHistoryService(podClient *pod.Client) *HistoryService {
	return &HistoryService{pod: podClient, now: time.Now}
}

// ChatBaseURL derives the partition root from a chat subject: the fragment
// is stripped, then a trailing .ttl document segment or trailing slash.
func ChatBaseURL(subject string) string {
	base, _, _ := strings.Cut(subject, "#")
	if strings.HasSuffix(base, ".ttl") {
		if i := strings.LastIndexByte(base, '/'); i >= 0 {
			base = base[:i]
		}
	} else {
		base = strings.TrimSuffix(base, "/")
	}
	return base
}

// DailyDocURI returns the daily chat document URI for a date:
// <base>/<yyyy>/<mm>/<dd>/chat.ttl.
func DailyDocURI(base string, day time.Time) string {
	return fmt.Sprintf("%s/%04d/%02d/%02d/chat.ttl", base, day.Year(), int(day.Month()), day.Day())
}

// LoadDay force-loads one day's document and extracts its messages. A
// missing daily document is a valid empty state, not an error.
func (s *HistoryService) LoadDay(ctx context.Context, base string, day time.Time) ([]models.Message, error) {
	docURI := DailyDocURI(base, day)
	g, err := s.pod.Reload(ctx, docURI)
	if err != nil {
		if errors.Is(err, pod.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return ExtractMessages(g, docURI), nil
}

// LoadRecentHistory loads the last daysBack calendar days (today included)
// and returns the combined messages sorted ascending by date plus the oldest
// boundary date reached (today - daysBack).
func (s *HistoryService) LoadRecentHistory(ctx context.Context, subject string, daysBack int) ([]models.Message, time.Time, error) {
	if daysBack <= 0 {
		daysBack = DefaultDaysBack
	}
	base := ChatBaseURL(subject)
	today := s.now()

	var all []models.Message
	for i := 0; i < daysBack; i++ {
		day := today.AddDate(0, 0, -i)
		msgs, err := s.LoadDay(ctx, base, day)
		if err != nil {
			// Degrade to what was already gathered; the pane shows the
			// error in its status line without dropping rendered state.
			logger.L.Warn("failed to load daily chat", "base", base, "day", day.Format("2006-01-02"), "error", err)
			continue
		}
		all = append(all, msgs...)
	}

	SortMessages(all)
	return all, today.AddDate(0, 0, -daysBack), nil
}

// LoadPreviousDays walks backward from the day before oldestLoadedDate,
// accumulating messages. It stops when it has walked daysToLoad*3 days,
// found 30 consecutive empty days (HasMore=false), or gathered 50 messages.
func (s *HistoryService) LoadPreviousDays(ctx context.Context, subject string, oldestLoadedDate time.Time, daysToLoad int) (HistoryPage, error) {
	if daysToLoad <= 0 {
		daysToLoad = DefaultDaysBack
	}
	base := ChatBaseURL(subject)
	current := oldestLoadedDate.AddDate(0, 0, -1)

	var all []models.Message
	daysChecked := 0
	consecutiveEmpty := 0

	for daysChecked < daysToLoad*walkFactor && consecutiveEmpty < maxEmptyDays {
		msgs, err := s.LoadDay(ctx, base, current)
		if err != nil {
			return HistoryPage{}, fmt.Errorf("failed to page chat history: %w", err)
		}
		if len(msgs) > 0 {
			all = append(all, msgs...)
			consecutiveEmpty = 0
		} else {
			consecutiveEmpty++
		}

		current = current.AddDate(0, 0, -1)
		daysChecked++

		if len(all) >= enoughMessages {
			break
		}
	}

	SortMessages(all)
	return HistoryPage{
		Messages:   all,
		OldestDate: current,
		HasMore:    consecutiveEmpty < maxEmptyDays,
	}, nil
}

// EnsureDailyChat makes sure today's daily document exists, creating the
// year/month/day containers and a seed document on first write of the day.
// It returns the daily document URI.
func (s *HistoryService) EnsureDailyChat(ctx context.Context, subject string) (string, error) {
	base := ChatBaseURL(subject)
	now := s.now()
	docURI := DailyDocURI(base, now)

	if _, err := s.pod.Load(ctx, docURI); err == nil {
		return docURI, nil
	} else if !errors.Is(err, pod.ErrNotFound) {
		return "", err
	}

	logger.L.Info("creating daily chat document", "uri", docURI)

	year := fmt.Sprintf("%s/%04d/", base, now.Year())
	month := fmt.Sprintf("%s%02d/", year, int(now.Month()))
	day := fmt.Sprintf("%s%02d/", month, now.Day())
	for _, container := range []string{year, month, day} {
		if err := s.pod.EnsureContainer(ctx, container); err != nil {
			return "", fmt.Errorf("failed to prepare containers for %s: %w", docURI, err)
		}
	}

	if err := s.pod.PutTurtle(ctx, docURI, seedTurtle(now)); err != nil {
		return "", err
	}
	if _, err := s.pod.Reload(ctx, docURI); err != nil {
		return "", err
	}
	return docURI, nil
}

// seedTurtle is the initial body of a fresh daily chat document.
func seedTurtle(now time.Time) string {
	return fmt.Sprintf(`@prefix : <#> .
@prefix rdf: <http://www.w3.org/1999/02/22-rdf-syntax-ns#> .
@prefix dct: <http://purl.org/dc/terms/> .
@prefix meeting: <http://www.w3.org/ns/pim/meeting#> .
@prefix xsd: <http://www.w3.org/2001/XMLSchema#> .

<#this>
    rdf:type meeting:LongChat ;
    dct:title "Chat %s" ;
    dct:created "%s"^^xsd:dateTime .
`, now.Format("2006-01-02"), now.UTC().Format(time.RFC3339))
}
