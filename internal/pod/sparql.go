package pod

import (
	"strings"

	"github.com/deiu/rdf2go"
)

// SPARQL-update bodies are assembled from rdf2go's N-Triples serialization.
// Deletions are always written as explicit DELETE DATA statement sets, never
// variable patterns, so a patch can only ever match the exact triples it names.

func tripleBlock(triples []*rdf2go.Triple) string {
	var b strings.Builder
	for _, t := range triples {
		b.WriteString("  ")
		b.WriteString(t.String())
		b.WriteString("\n")
	}
	return b.String()
}

// dataPatch renders DELETE DATA / INSERT DATA operations for ground triples.
func dataPatch(deletions, insertions []*rdf2go.Triple) string {
	var parts []string
	if len(deletions) > 0 {
		parts = append(parts, "DELETE DATA {\n"+tripleBlock(deletions)+"}")
	}
	if len(insertions) > 0 {
		parts = append(parts, "INSERT DATA {\n"+tripleBlock(insertions)+"}")
	}
	return strings.Join(parts, ";\n") + "\n"
}

// wherePatch renders a combined DELETE/INSERT/WHERE operation, used for
// edits that must be scoped by a match on the current value.
func wherePatch(deletions, insertions, where []*rdf2go.Triple) string {
	var b strings.Builder
	b.WriteString("DELETE {\n")
	b.WriteString(tripleBlock(deletions))
	b.WriteString("}\nINSERT {\n")
	b.WriteString(tripleBlock(insertions))
	b.WriteString("}\nWHERE {\n")
	b.WriteString(tripleBlock(where))
	b.WriteString("}\n")
	return b.String()
}
