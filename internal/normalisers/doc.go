// Package normalisers provides text extractors that turn attachment files
// into plain text pages ready for chunking.
package normalisers
