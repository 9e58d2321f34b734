package parser

import (
	"github.com/dshills/lawkit/internal/dsl/ast"
	dslparser "github.com/dshills/lawkit/internal/dsl/parser"
	"github.com/dshills/lawkit/internal/parser/cache"
)

// Parser is the base-parser contract consumed by the caching wrappers.
// *dslparser.Parser satisfies it; tests substitute fakes.
type Parser interface {
	// ParseDocument parses a complete document from source text.
	ParseDocument(text string) (*ast.Document, error)

	// Warnings returns the non-fatal diagnostics from the most
	// recent ParseDocument call.
	Warnings() []dslparser.Diagnostic
}

// CachingParser wraps a base parser with a content-addressed document
// cache. Successful parses are memoized by content hash; failed parses
// are never cached, since edited input is expected to differ before
// resubmission and a cached error would mask the fix.
type CachingParser struct {
	base  Parser
	cache *cache.Cache[*ast.Document]
}

// DefaultCacheSize is the document cache capacity used by NewCaching
// when the caller passes a non-positive size.
const DefaultCacheSize = 64

// NewCaching creates a caching parser around the given base parser.
// Extra cache options (e.g. cache.WithMaxAge) are applied on top of
// the document-cloning behavior the wrapper requires.
func NewCaching(base Parser, cacheSize int, opts ...cache.Option[*ast.Document]) *CachingParser {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}

	// Returned documents must be isolated copies: callers can never
	// mutate the cached AST through a returned value.
	all := append([]cache.Option[*ast.Document]{
		cache.WithClone(func(d *ast.Document) *ast.Document { return d.Clone() }),
	}, opts...)

	return &CachingParser{
		base:  base,
		cache: cache.New(cacheSize, all...),
	}
}

// ParseDocument parses text, serving repeated content from the cache.
func (p *CachingParser) ParseDocument(text string) (*ast.Document, error) {
	key := cache.KeyFor(text)

	if doc, ok := p.cache.Get(key); ok {
		return doc, nil
	}

	doc, err := p.base.ParseDocument(text)
	if err != nil {
		return nil, err
	}

	p.cache.Put(key, doc)
	return doc.Clone(), nil
}

// Warnings passes through the base parser's diagnostics.
// Note that a cache hit does not re-run the base parser, so warnings
// reflect the most recent actual parse.
func (p *CachingParser) Warnings() []dslparser.Diagnostic {
	return p.base.Warnings()
}

// CacheStats returns document cache statistics.
func (p *CachingParser) CacheStats() cache.Stats {
	return p.cache.Stats()
}

// ClearCache empties the document cache and resets its counters.
func (p *CachingParser) ClearCache() {
	p.cache.Clear()
}
