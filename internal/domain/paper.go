// Package domain provides domain models and business logic for the CiteRight pipeline.
package domain

import (
	"regexp"
	"strings"
)

// whitespaceRegex matches one or more whitespace characters (spaces, tabs, newlines).
var whitespaceRegex = regexp.MustCompile(`\s+`)

// Paper represents a candidate paper flowing through one pipeline run.
// Papers are created by the retrieval client, enriched in place by the
// relevance scorer, consumed read-only by the review synthesizer, and
// discarded at the end of the run.
type Paper struct {
	// ID is the globally unique source identifier (the arXiv entry URL).
	ID string `json:"id"`

	// Title is the paper title with whitespace normalized.
	Title string `json:"title"`

	// Authors is the ordered list of author names.
	Authors []string `json:"authors"`

	// Abstract is the paper abstract. The aggregator trims it to a
	// bounded length at a sentence boundary when possible.
	Abstract string `json:"abstract"`

	// PDFURL is the URL of the paper PDF, if any.
	PDFURL string `json:"pdf_url,omitempty"`

	// Published is the publication date as an ISO-like string ("2023-01-15").
	// May be empty when the source provides no date.
	Published string `json:"published,omitempty"`

	// Categories are the source's subject classification tags.
	Categories []string `json:"categories,omitempty"`

	// Comment is the author comment field, if any.
	Comment string `json:"comment,omitempty"`

	// JournalRef is the journal reference, if any.
	JournalRef string `json:"journal_ref,omitempty"`

	// DOI is the digital object identifier, if any.
	DOI string `json:"doi,omitempty"`

	// RelevanceScore is the normalized relevance score in [0,1].
	// Seed papers always carry 1.0.
	RelevanceScore float64 `json:"relevance_score"`

	// IsSeed marks papers requested explicitly by identifier. Seed
	// papers are exempt from threshold filtering.
	IsSeed bool `json:"is_seed"`
}

// FirstAuthor returns the first author name, or an empty string when
// the author list is empty.
func (p *Paper) FirstAuthor() string {
	if len(p.Authors) == 0 {
		return ""
	}
	return p.Authors[0]
}

// NormalizeKeyword normalizes a keyword string by:
// - Converting to lowercase
// - Trimming leading/trailing whitespace
// - Collapsing multiple whitespace characters into a single space
func NormalizeKeyword(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	s = strings.ToLower(s)
	return whitespaceRegex.ReplaceAllString(s, " ")
}

// DedupeKeywords normalizes the given keywords and removes duplicates
// while preserving the original order. Empty terms are dropped.
func DedupeKeywords(keywords []string) []string {
	seen := make(map[string]struct{}, len(keywords))
	out := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		norm := NormalizeKeyword(kw)
		if norm == "" {
			continue
		}
		if _, ok := seen[norm]; ok {
			continue
		}
		seen[norm] = struct{}{}
		out = append(out, norm)
	}
	return out
}

// NormalizeSeedID cleans up a user-supplied seed paper identifier.
// Full arXiv URLs are reduced to their final path segment and a
// trailing ".pdf" suffix is removed, so both
// "https://arxiv.org/pdf/2301.12345.pdf" and "2301.12345" resolve to
// the same identifier.
func NormalizeSeedID(id string) string {
	id = strings.TrimSpace(id)
	if strings.Contains(id, "arxiv.org") && strings.Contains(id, "/") {
		parts := strings.Split(id, "/")
		id = parts[len(parts)-1]
	}
	return strings.TrimSuffix(id, ".pdf")
}
