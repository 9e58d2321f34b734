// Package ast defines the in-memory form of parsed statute documents.
//
// A Document is an ordered sequence of statutes. Statute identifiers are
// unique within a document; the parser rejects duplicates. All nodes
// support deep cloning so cached copies can be handed out without
// exposing shared mutable state.
package ast

import "fmt"

// Position is a location in the source text.
type Position struct {
	Offset int // Byte offset from the start of the document
	Line   int // 1-based line number
	Column int // 1-based column number
}

// String returns a human-readable representation of the position.
func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Effect is a single THEN clause: a named action with literal arguments.
type Effect struct {
	Name string   // Effect name, e.g. "charge"
	Args []string // Literal arguments in declaration order
	Pos  Position // Position of the THEN keyword
}

// Clone returns a deep copy of the effect.
func (e Effect) Clone() Effect {
	out := e
	if e.Args != nil {
		out.Args = make([]string, len(e.Args))
		copy(out.Args, e.Args)
	}
	return out
}

// Statute is a single named rule declaration: an optional title, a
// precondition expression, and one or more effects.
type Statute struct {
	ID      string   // Unique identifier within the document
	Title   string   // Optional human-readable title
	When    string   // Precondition expression in source form
	Effects []Effect // Effects applied when the precondition holds
	Pos     Position // Position of the STATUTE keyword
}

// Clone returns a deep copy of the statute.
func (s *Statute) Clone() *Statute {
	if s == nil {
		return nil
	}
	out := &Statute{
		ID:    s.ID,
		Title: s.Title,
		When:  s.When,
		Pos:   s.Pos,
	}
	if s.Effects != nil {
		out.Effects = make([]Effect, len(s.Effects))
		for i, e := range s.Effects {
			out.Effects[i] = e.Clone()
		}
	}
	return out
}

// Document is an ordered sequence of statutes.
type Document struct {
	Statutes []*Statute
}

// Len returns the number of statutes in the document.
func (d *Document) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Statutes)
}

// Lookup returns the statute with the given id, or nil if absent.
func (d *Document) Lookup(id string) *Statute {
	if d == nil {
		return nil
	}
	for _, s := range d.Statutes {
		if s.ID == id {
			return s
		}
	}
	return nil
}

// Clone returns a deep copy of the document.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	out := &Document{}
	if d.Statutes != nil {
		out.Statutes = make([]*Statute, len(d.Statutes))
		for i, s := range d.Statutes {
			out.Statutes[i] = s.Clone()
		}
	}
	return out
}
