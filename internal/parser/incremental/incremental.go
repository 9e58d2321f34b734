package incremental

import (
	"errors"
	"strings"

	"github.com/dshills/lawkit/internal/dsl/ast"
	"github.com/dshills/lawkit/internal/parser"
)

// ErrNotInitialized is returned by ParseIncremental before a successful
// ParseInitial has established a baseline buffer.
var ErrNotInitialized = errors.New("incremental parser not initialized")

// statuteRecord is a cached statute AST with its source byte range.
type statuteRecord struct {
	node  *ast.Statute
	start int // Inclusive start offset in the source that produced it
	end   int // Exclusive end offset
}

// Parser maintains per-statute cached ASTs across a sequence of edits
// to one logical document.
//
// The cached records and the lastText buffer always describe the same
// successful parse: a failed parse leaves both untouched, so a caller
// can correct the offending edit and retry without losing prior work.
//
// A Parser is not safe for concurrent use.
type Parser struct {
	base     parser.Parser
	statutes map[string]statuteRecord
	lastText string
	ready    bool
}

// New creates an incremental parser around the given base parser.
func New(base parser.Parser) *Parser {
	return &Parser{
		base:     base,
		statutes: make(map[string]statuteRecord),
	}
}

// ParseInitial performs a full parse of text and populates the statute
// cache from the result.
func (p *Parser) ParseInitial(text string) (*ast.Document, error) {
	doc, err := p.base.ParseDocument(text)
	if err != nil {
		return nil, err
	}

	records := make(map[string]statuteRecord, doc.Len())
	for _, st := range doc.Statutes {
		if start, end, ok := findStatuteRange(text, st.ID); ok {
			records[st.ID] = statuteRecord{node: st, start: start, end: end}
		}
	}

	p.statutes = records
	p.lastText = text
	p.ready = true
	return doc, nil
}

// ParseIncremental applies a batch of edits to the last successfully
// parsed buffer and reparses, reusing the cached ASTs of statutes whose
// source ranges no edit touched.
//
// Edits are applied sequentially: edit i's offsets are interpreted
// against the buffer produced by edit i-1. That ordering is a caller
// contract and is not validated beyond each edit's own bounds checks.
func (p *Parser) ParseIncremental(edits []TextEdit) (*ast.Document, error) {
	if !p.ready {
		return nil, ErrNotInitialized
	}

	newText := p.lastText
	for _, edit := range edits {
		applied, err := edit.Apply(newText)
		if err != nil {
			return nil, err
		}
		newText = applied
	}

	// A cached statute is affected iff its byte range overlaps any
	// edit's range. Offsets of statutes downstream of an edit are not
	// shifted here; their stale ranges are carried forward unchanged,
	// matching the textual re-scan they get once an edit does hit them.
	affected := make(map[string]bool)
	for id, rec := range p.statutes {
		for _, edit := range edits {
			if edit.overlaps(rec.start, rec.end) {
				affected[id] = true
				break
			}
		}
	}

	// The grammar itself is not incrementally parsed; only AST reuse
	// is incremental. A full reparse validates the whole buffer.
	doc, err := p.base.ParseDocument(newText)
	if err != nil {
		return nil, err
	}

	records := make(map[string]statuteRecord, doc.Len())
	for _, st := range doc.Statutes {
		old, cached := p.statutes[st.ID]
		if cached && !affected[st.ID] {
			// Untouched statute: keep the existing AST and offsets.
			records[st.ID] = old
			continue
		}
		if start, end, ok := findStatuteRange(newText, st.ID); ok {
			records[st.ID] = statuteRecord{node: st, start: start, end: end}
		}
	}

	p.statutes = records
	p.lastText = newText
	return doc, nil
}

// Cached returns the cached AST for a statute id.
// The returned node is shared with the cache and must be treated as
// read-only.
func (p *Parser) Cached(id string) (*ast.Statute, bool) {
	rec, ok := p.statutes[id]
	if !ok {
		return nil, false
	}
	return rec.node, true
}

// Text returns the buffer that produced the current cache contents.
func (p *Parser) Text() string {
	return p.lastText
}

// CacheSize returns the number of cached statutes.
func (p *Parser) CacheSize() int {
	return len(p.statutes)
}

// ClearCache drops all cached statutes and the baseline buffer,
// returning the parser to its uninitialized state.
func (p *Parser) ClearCache() {
	p.statutes = make(map[string]statuteRecord)
	p.lastText = ""
	p.ready = false
}

// findStatuteRange locates the source byte range of a statute by
// textual scan: the literal token sequence "STATUTE <id>" followed by
// brace matching on raw bytes to the first balanced closing brace.
//
// This is a heuristic over raw source, not a span reported by the
// grammar: braces inside string literals or comments are counted like
// any other byte. The long-term fix is for the base parser to report
// spans directly.
func findStatuteRange(text, id string) (start, end int, ok bool) {
	const keyword = "STATUTE"

	search := 0
	for {
		idx := strings.Index(text[search:], keyword)
		if idx < 0 {
			return 0, 0, false
		}
		idx += search
		search = idx + len(keyword)

		// Keyword must start on a token boundary.
		if idx > 0 && isIdentByte(text[idx-1]) {
			continue
		}

		// At least one whitespace byte, then the identifier.
		j := idx + len(keyword)
		if j >= len(text) || !isSpaceByte(text[j]) {
			continue
		}
		for j < len(text) && isSpaceByte(text[j]) {
			j++
		}
		if !strings.HasPrefix(text[j:], id) {
			continue
		}
		k := j + len(id)
		if k < len(text) && isIdentByte(text[k]) {
			continue
		}

		// Brace-match from the identifier to the first balanced close.
		depth := 0
		opened := false
		for i := k; i < len(text); i++ {
			switch text[i] {
			case '{':
				depth++
				opened = true
			case '}':
				if opened {
					depth--
					if depth == 0 {
						return idx, i + 1, true
					}
				}
			}
		}
		return 0, 0, false
	}
}

func isIdentByte(b byte) bool {
	return b == '_' || b == '.' ||
		(b >= 'a' && b <= 'z') ||
		(b >= 'A' && b <= 'Z') ||
		(b >= '0' && b <= '9')
}

func isSpaceByte(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}
