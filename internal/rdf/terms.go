package rdf

import (
	"time"

	"github.com/deiu/rdf2go"
)

// Any returns the object of the first statement matching (subject, predicate)
// in the graph, or nil when none exists.
func Any(g *rdf2go.Graph, subject, predicate rdf2go.Term) rdf2go.Term {
	if t := g.One(subject, predicate, nil); t != nil {
		return t.Object
	}
	return nil
}

// FirstOf tries each predicate in order against (subject, predicate, nil)
// and returns the first object found.
func FirstOf(g *rdf2go.Graph, subject rdf2go.Term, predicates []rdf2go.Term) rdf2go.Term {
	for _, p := range predicates {
		if o := Any(g, subject, p); o != nil {
			return o
		}
	}
	return nil
}

// Holds reports whether the graph contains the given statement.
func Holds(g *rdf2go.Graph, subject, predicate, object rdf2go.Term) bool {
	return g.One(subject, predicate, object) != nil
}

// timeLayouts are tried in order when parsing date literals; pods in the
// wild emit a few RFC 3339 variants plus bare dates.
var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseTime parses a date/dateTime literal. The boolean is false when the
// term is nil or not parseable as a timestamp.
func ParseTime(term rdf2go.Term) (time.Time, bool) {
	if term == nil {
		return time.Time{}, false
	}
	raw := term.RawValue()
	for _, layout := range timeLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// DateTimeLiteral builds an xsd:dateTime literal for t in UTC.
func DateTimeLiteral(t time.Time) rdf2go.Term {
	return rdf2go.NewLiteralWithDatatype(t.UTC().Format(time.RFC3339), XSD("dateTime"))
}
