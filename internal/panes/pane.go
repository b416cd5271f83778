package panes

import (
	"context"

	"github.com/deiu/rdf2go"
)

// Pane renders one kind of subject. Label inspects a subject and its graph
// and returns a non-empty display label when the pane can handle it; the
// registry picks the first pane that claims a subject.
type Pane interface {
	// Name is the pane's stable identifier.
	Name() string
	// Label returns a display label for the subject, or "" to decline it.
	Label(subject string, g *rdf2go.Graph) string
	// Render opens (or resumes) a session for the subject.
	Render(ctx context.Context, subject string) (Session, error)
}

// Session is a live rendering of one subject.
type Session interface {
	Subject() string
	Snapshot() ViewSnapshot
	Close()
}

// Registry resolves subjects to panes in registration order.
type Registry struct {
	panes []Pane
}

// NewRegistry creates a registry with the given panes, tried in order.
func NewRegistry(panes ...Pane) *Registry {
	return &Registry{panes: panes}
}

// Register appends a pane.
func (r *Registry) Register(p Pane) {
	r.panes = append(r.panes, p)
}

// Select returns the first pane claiming the subject, plus its label.
// ok is false when no pane handles it.
func (r *Registry) Select(subject string, g *rdf2go.Graph) (Pane, string, bool) {
	for _, p := range r.panes {
		if label := p.Label(subject, g); label != "" {
			return p, label, true
		}
	}
	return nil, "", false
}

// ByName finds a registered pane by identifier.
func (r *Registry) ByName(name string) (Pane, bool) {
	for _, p := range r.panes {
		if p.Name() == name {
			return p, true
		}
	}
	return nil, false
}
