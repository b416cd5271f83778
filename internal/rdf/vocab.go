// Package rdf holds the fixed vocabulary the chat panes speak plus small
// helpers over rdf2go terms. The predicate set must match other Solid chat
// clients exactly, so everything is pinned here rather than configurable.
package rdf

import "github.com/deiu/rdf2go"

// Namespace returns a term constructor rooted at base, mirroring how the
// panes build predicates from a namespace prefix.
func Namespace(base string) func(string) rdf2go.Term {
	return func(name string) rdf2go.Term {
		return rdf2go.NewResource(base + name)
	}
}

var (
	RDF     = Namespace("http://www.w3.org/1999/02/22-rdf-syntax-ns#")
	Flow    = Namespace("http://www.w3.org/2005/01/wf/flow#")
	Sioc    = Namespace("http://rdfs.org/sioc/ns#")
	DC      = Namespace("http://purl.org/dc/elements/1.1/")
	DCT     = Namespace("http://purl.org/dc/terms/")
	FOAF    = Namespace("http://xmlns.com/foaf/0.1/")
	Schema  = Namespace("http://schema.org/")
	Meeting = Namespace("http://www.w3.org/ns/pim/meeting#")
	XSD     = Namespace("http://www.w3.org/2001/XMLSchema#")
	Solid   = Namespace("http://www.w3.org/ns/solid/terms#")
	VCard   = Namespace("http://www.w3.org/2006/vcard/ns#")
)

// Creation-date and author predicates are checked in this exact priority
// order; the first statement found wins.
var (
	CreatedAliases = []rdf2go.Term{DCT("created"), DC("created"), DC("date")}
	AuthorAliases  = []rdf2go.Term{FOAF("maker"), DC("author"), DCT("creator")}
)
