// Package search answers queries over fully analyzed campaign documents.
//
// Only completed documents are searchable. A query is matched as
// case-insensitive text against the filename and the searchable-content
// digest, then the matches are reordered by cosine similarity between the
// query embedding and each document's stored vector. Category and
// subcategory filters narrow the set, facet counts summarize it, and
// results are returned a page at a time.
package search
