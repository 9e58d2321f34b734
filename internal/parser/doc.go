// Package parser provides cache-aware wrappers around the statute DSL
// parser for interactive, edit-by-edit re-validation.
//
// Two granularities are offered:
//
//   - CachingParser memoizes whole-document parses by content hash.
//     It fits callers that re-submit full buffers without tracking
//     edit history.
//
//   - incremental.Parser (subpackage) keeps a per-statute cache keyed
//     by statute id and reuses the ASTs of statutes untouched by a
//     batch of byte-range edits, paying a full reparse but not a full
//     AST rebuild on every keystroke.
//
// Neither wrapper invents error information: base-parser failures are
// propagated verbatim and never cached, so a caller can fix the
// offending edit and retry without losing previously cached work.
//
// Instances are not safe for concurrent use. At most one in-flight
// parse call per instance is assumed; callers needing shared access
// must serialize externally.
package parser
