// Package parser implements the statute DSL grammar.
//
// The grammar is deliberately small:
//
//	document := statute*
//	statute  := "STATUTE" ident "{" clause* "}"
//	clause   := "TITLE" string
//	          | "WHEN" raw-expression-to-end-of-line
//	          | "THEN" ident "(" args ")"
//
// Comments run from '#' to end of line. Statute identifiers must be
// unique within a document. Missing WHEN or THEN clauses are reported
// as non-fatal warnings, not errors.
package parser

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dshills/lawkit/internal/dsl/ast"
)

// Diagnostic is a non-fatal warning produced during parsing.
type Diagnostic struct {
	StatuteID string       // Statute the warning applies to, if any
	Pos       ast.Position // Source position
	Message   string       // Human-readable message
}

// String returns a human-readable representation of the diagnostic.
func (d Diagnostic) String() string {
	if d.StatuteID != "" {
		return fmt.Sprintf("%s: statute %q: %s", d.Pos, d.StatuteID, d.Message)
	}
	return fmt.Sprintf("%s: %s", d.Pos, d.Message)
}

// ParseError is a fatal syntax error with its source position.
type ParseError struct {
	Pos     ast.Position
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at %s: %s", e.Pos, e.Message)
}

// Parser parses statute DSL documents.
// A Parser is not safe for concurrent use; each ParseDocument call
// replaces the warnings from the previous call.
type Parser struct {
	warnings []Diagnostic
}

// New creates a new statute DSL parser.
func New() *Parser {
	return &Parser{}
}

// Warnings returns the non-fatal diagnostics from the most recent
// ParseDocument call.
func (p *Parser) Warnings() []Diagnostic {
	return p.warnings
}

// ParseDocument parses a complete document.
// On error the returned document is nil and no partial state leaks.
func (p *Parser) ParseDocument(text string) (*ast.Document, error) {
	s := &scanner{input: text, line: 1, col: 1}
	doc := &ast.Document{}
	seen := make(map[string]ast.Position)
	var warnings []Diagnostic

	for {
		s.skipSpaceAndComments()
		if s.eof() {
			break
		}

		st, warns, err := parseStatute(s)
		if err != nil {
			return nil, err
		}

		if prev, dup := seen[st.ID]; dup {
			return nil, &ParseError{
				Pos:     st.Pos,
				Message: fmt.Sprintf("duplicate statute id %q (first declared at %s)", st.ID, prev),
			}
		}
		seen[st.ID] = st.Pos

		doc.Statutes = append(doc.Statutes, st)
		warnings = append(warnings, warns...)
	}

	p.warnings = warnings
	return doc, nil
}

// parseStatute parses: "STATUTE" ident "{" clause* "}".
func parseStatute(s *scanner) (*ast.Statute, []Diagnostic, error) {
	pos := s.position()

	if err := s.expectKeyword("STATUTE"); err != nil {
		return nil, nil, err
	}

	s.skipSpaceAndComments()
	id, err := s.parseIdentifier()
	if err != nil {
		return nil, nil, err
	}

	st := &ast.Statute{ID: id, Pos: pos}

	s.skipSpaceAndComments()
	if err := s.expectByte('{'); err != nil {
		return nil, nil, err
	}

	for {
		s.skipSpaceAndComments()
		if s.eof() {
			return nil, nil, &ParseError{
				Pos:     s.position(),
				Message: fmt.Sprintf("unexpected end of input in statute %q (missing '}')", id),
			}
		}
		if s.peek() == '}' {
			s.advance()
			break
		}

		if err := parseClause(s, st); err != nil {
			return nil, nil, err
		}
	}

	var warns []Diagnostic
	if st.When == "" {
		warns = append(warns, Diagnostic{
			StatuteID: id,
			Pos:       pos,
			Message:   "no WHEN clause; statute can never apply",
		})
	}
	if len(st.Effects) == 0 {
		warns = append(warns, Diagnostic{
			StatuteID: id,
			Pos:       pos,
			Message:   "no THEN clause; statute has no effect",
		})
	}

	return st, warns, nil
}

// parseClause parses one TITLE, WHEN, or THEN clause into the statute.
func parseClause(s *scanner, st *ast.Statute) error {
	pos := s.position()
	kw, err := s.parseIdentifier()
	if err != nil {
		return err
	}

	switch kw {
	case "TITLE":
		s.skipSpaceAndComments()
		title, err := s.parseString()
		if err != nil {
			return err
		}
		st.Title = title
		return nil

	case "WHEN":
		expr := strings.TrimSpace(s.readToLineEnd())
		if expr == "" {
			return &ParseError{Pos: pos, Message: "empty WHEN expression"}
		}
		st.When = expr
		return nil

	case "THEN":
		eff, err := parseEffect(s, pos)
		if err != nil {
			return err
		}
		st.Effects = append(st.Effects, eff)
		return nil

	default:
		return &ParseError{
			Pos:     pos,
			Message: fmt.Sprintf("expected TITLE, WHEN, or THEN, got %q", kw),
		}
	}
}

// parseEffect parses: ident "(" args ")" after a THEN keyword.
func parseEffect(s *scanner, pos ast.Position) (ast.Effect, error) {
	s.skipSpaceAndComments()
	name, err := s.parseIdentifier()
	if err != nil {
		return ast.Effect{}, err
	}

	eff := ast.Effect{Name: name, Pos: pos}

	s.skipSpaceAndComments()
	if err := s.expectByte('('); err != nil {
		return ast.Effect{}, err
	}

	for {
		s.skipSpaceAndComments()
		if s.eof() {
			return ast.Effect{}, &ParseError{
				Pos:     s.position(),
				Message: "unexpected end of input in effect arguments",
			}
		}
		if s.peek() == ')' {
			s.advance()
			return eff, nil
		}

		arg, err := parseArg(s)
		if err != nil {
			return ast.Effect{}, err
		}
		eff.Args = append(eff.Args, arg)

		s.skipSpaceAndComments()
		if s.peek() == ',' {
			s.advance()
		}
	}
}

// parseArg parses a single effect argument: a quoted string, an
// identifier, or a bare numeric literal.
func parseArg(s *scanner) (string, error) {
	if s.peek() == '"' {
		return s.parseString()
	}
	if isDigit(s.peek()) || s.peek() == '-' {
		return s.parseNumber()
	}
	return s.parseIdentifier()
}

// scanner holds the lexing state over the raw source.
type scanner struct {
	input string
	pos   int
	line  int
	col   int
}

func (s *scanner) eof() bool {
	return s.pos >= len(s.input)
}

func (s *scanner) peek() byte {
	if s.eof() {
		return 0
	}
	return s.input[s.pos]
}

// advance consumes one byte, maintaining line/column tracking.
func (s *scanner) advance() {
	if s.eof() {
		return
	}
	if s.input[s.pos] == '\n' {
		s.line++
		s.col = 1
	} else {
		s.col++
	}
	s.pos++
}

func (s *scanner) position() ast.Position {
	return ast.Position{Offset: s.pos, Line: s.line, Column: s.col}
}

// skipSpaceAndComments consumes whitespace and '#' line comments.
func (s *scanner) skipSpaceAndComments() {
	for !s.eof() {
		c := s.peek()
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			s.advance()
		case c == '#':
			for !s.eof() && s.peek() != '\n' {
				s.advance()
			}
		default:
			return
		}
	}
}

// readToLineEnd consumes and returns everything up to the next newline
// or a '#' comment, whichever comes first. The newline is not consumed.
func (s *scanner) readToLineEnd() string {
	start := s.pos
	for !s.eof() && s.peek() != '\n' && s.peek() != '#' {
		s.advance()
	}
	return s.input[start:s.pos]
}

// expectKeyword consumes the given keyword or fails.
func (s *scanner) expectKeyword(kw string) error {
	pos := s.position()
	got, err := s.parseIdentifier()
	if err != nil {
		return err
	}
	if got != kw {
		return &ParseError{
			Pos:     pos,
			Message: fmt.Sprintf("expected %q, got %q", kw, got),
		}
	}
	return nil
}

// expectByte consumes the given byte or fails.
func (s *scanner) expectByte(b byte) error {
	if s.eof() || s.peek() != b {
		return &ParseError{
			Pos:     s.position(),
			Message: fmt.Sprintf("expected %q", string(b)),
		}
	}
	s.advance()
	return nil
}

// parseIdentifier parses an identifier: a letter or underscore followed
// by letters, digits, underscores, or dots.
func (s *scanner) parseIdentifier() (string, error) {
	start := s.pos
	r, size := utf8.DecodeRuneInString(s.input[s.pos:])
	if size == 0 || !(unicode.IsLetter(r) || r == '_') {
		return "", &ParseError{
			Pos:     s.position(),
			Message: "expected identifier",
		}
	}
	for !s.eof() {
		r, size := utf8.DecodeRuneInString(s.input[s.pos:])
		if !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '.') {
			break
		}
		for i := 0; i < size; i++ {
			s.advance()
		}
	}
	return s.input[start:s.pos], nil
}

// parseString parses a double-quoted string. Backslash escapes the
// next byte (only \" and \\ are meaningful).
func (s *scanner) parseString() (string, error) {
	if err := s.expectByte('"'); err != nil {
		return "", err
	}
	var b strings.Builder
	for {
		if s.eof() || s.peek() == '\n' {
			return "", &ParseError{
				Pos:     s.position(),
				Message: "unterminated string",
			}
		}
		c := s.peek()
		s.advance()
		switch c {
		case '"':
			return b.String(), nil
		case '\\':
			if s.eof() {
				return "", &ParseError{
					Pos:     s.position(),
					Message: "unterminated string",
				}
			}
			b.WriteByte(s.peek())
			s.advance()
		default:
			b.WriteByte(c)
		}
	}
}

// parseNumber parses a bare integer or decimal literal, returned in
// source form.
func (s *scanner) parseNumber() (string, error) {
	start := s.pos
	if s.peek() == '-' {
		s.advance()
	}
	if !isDigit(s.peek()) {
		return "", &ParseError{
			Pos:     s.position(),
			Message: "expected number",
		}
	}
	for !s.eof() && (isDigit(s.peek()) || s.peek() == '.') {
		s.advance()
	}
	return s.input[start:s.pos], nil
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}
