package panes

import (
	"solidchat-backend/internal/models"
)

// Reconciler diffs freshly extracted messages against what the view already
// shows and issues the minimal set of view operations. Messages already on
// screen are never re-rendered; only genuinely new, removed, or changed
// entries produce calls.
type Reconciler struct {
	view View

	rendered  map[string]renderedState
	firstPass bool
}

type renderedState struct {
	content     string
	edited      bool
	reactionSig string
}

// NewReconciler wraps a view with diffing state. The first Apply does a
// bulk replace; later applies patch incrementally.
func NewReconciler(view View) *Reconciler {
	return &Reconciler{view: view, rendered: make(map[string]renderedState), firstPass: true}
}

// Apply reconciles the view to show exactly msgs, which must be sorted in
// display order. own reports whether a message belongs to the signed-in
// identity.
func (r *Reconciler) Apply(msgs []models.Message, own func(models.Message) bool) {
	if r.firstPass {
		r.applyInitial(msgs, own)
		return
	}

	incoming := make(map[string]models.Message, len(msgs))
	for _, m := range msgs {
		incoming[m.URI] = m
	}

	added := 0
	for _, m := range msgs {
		prev, seen := r.rendered[m.URI]
		if !seen {
			r.view.Append(NewMessageView(m, own(m)))
			r.rendered[m.URI] = stateOf(m)
			added++
			continue
		}
		if prev.content != m.Content || prev.edited != m.Edited {
			r.view.SetContent(m.URI, m.Content, m.Edited)
		}
		if sig := m.Reactions.Signature(); sig != prev.reactionSig {
			r.view.SetReactions(m.URI, m.Reactions)
		}
		r.rendered[m.URI] = stateOf(m)
	}

	for uri := range r.rendered {
		if _, ok := incoming[uri]; !ok {
			r.view.Remove(uri)
			delete(r.rendered, uri)
		}
	}

	if len(r.rendered) == 0 {
		r.view.ShowEmptyState()
	} else {
		r.view.ClearEmptyState()
	}
	if added > 0 {
		r.view.ScrollToBottom()
	}
}

func (r *Reconciler) applyInitial(msgs []models.Message, own func(models.Message) bool) {
	views := make([]MessageView, 0, len(msgs))
	for _, m := range msgs {
		views = append(views, NewMessageView(m, own(m)))
		r.rendered[m.URI] = stateOf(m)
	}
	r.view.ReplaceAll(views)
	if len(msgs) == 0 {
		r.view.ShowEmptyState()
	} else {
		r.view.ClearEmptyState()
	}
	r.view.ScrollToBottom()
	r.firstPass = false
}

// Track records a message as rendered without emitting view calls. Used for
// optimistic sends, where the caller appends to the view itself.
func (r *Reconciler) Track(m models.Message) {
	r.rendered[m.URI] = stateOf(m)
}

// Untrack forgets a message without emitting view calls.
func (r *Reconciler) Untrack(uri string) {
	delete(r.rendered, uri)
}

// Rendered reports whether a message URI is currently on screen.
func (r *Reconciler) Rendered(uri string) bool {
	_, ok := r.rendered[uri]
	return ok
}

func stateOf(m models.Message) renderedState {
	return renderedState{content: m.Content, edited: m.Edited, reactionSig: m.Reactions.Signature()}
}
