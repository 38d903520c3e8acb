// Package taxonomy normalizes extracted keywords against the canonical
// vocabulary and bulk-loads that vocabulary from tabular sources.
//
// The normalizer resolves verbatim terms case-insensitively against term
// names and synonyms, and uses find-or-create semantics for unmatched terms
// so no keyword is ever silently dropped. Content-based term IDs make
// concurrent creation of the same term converge on a single record.
package taxonomy
