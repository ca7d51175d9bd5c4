// Package relevance scores candidate papers against a keyword set.
package relevance

import (
	"regexp"
	"strings"

	"github.com/citeright/citeright/internal/domain"
)

const (
	// DefaultPhraseWindowMin is the shortest sub-phrase generated when
	// expanding long keywords.
	DefaultPhraseWindowMin = 2

	// DefaultPhraseWindowMax is the longest sub-phrase generated when
	// expanding long keywords.
	DefaultPhraseWindowMax = 4

	// DefaultMatchCapPerTerm caps the weighted contribution of a single
	// term so one repeated term cannot dominate the score.
	DefaultMatchCapPerTerm = 4

	// DefaultTitleWeight is the multiplier applied to title matches.
	DefaultTitleWeight = 3

	// DefaultBoost compensates for the per-term cap systematically
	// under-scoring papers that match many distinct terms lightly.
	DefaultBoost = 1.5
)

// Config holds the scoring parameters. The defaults reproduce the
// tuning the pipeline ships with; all values are overridable through
// configuration.
type Config struct {
	PhraseWindowMin int
	PhraseWindowMax int
	MatchCapPerTerm int
	TitleWeight     int
	Boost           float64
}

func (c *Config) applyDefaults() {
	if c.PhraseWindowMin == 0 {
		c.PhraseWindowMin = DefaultPhraseWindowMin
	}
	if c.PhraseWindowMax == 0 {
		c.PhraseWindowMax = DefaultPhraseWindowMax
	}
	if c.MatchCapPerTerm == 0 {
		c.MatchCapPerTerm = DefaultMatchCapPerTerm
	}
	if c.TitleWeight == 0 {
		c.TitleWeight = DefaultTitleWeight
	}
	if c.Boost == 0 {
		c.Boost = DefaultBoost
	}
}

// Scorer computes normalized relevance scores in [0,1] for papers
// against an ordered keyword set. A Scorer is stateless and safe for
// concurrent use.
type Scorer struct {
	config Config
}

// NewScorer creates a Scorer with the given configuration.
func NewScorer(cfg Config) *Scorer {
	cfg.applyDefaults()
	return &Scorer{config: cfg}
}

// Score populates RelevanceScore on every non-seed paper in place and
// returns the same slice. Seed papers are skipped; they keep their
// fixed score of 1.0. An empty keyword set scores every non-seed paper
// at 0.
func (s *Scorer) Score(papers []*domain.Paper, keywords []string) []*domain.Paper {
	terms := s.expandTerms(keywords)
	matchers := make([]*regexp.Regexp, len(terms))
	for i, term := range terms {
		matchers[i] = phraseMatcher(term)
	}

	for _, paper := range papers {
		if paper.IsSeed {
			continue
		}
		paper.RelevanceScore = s.scoreOne(paper, matchers)
	}
	return papers
}

// scoreOne computes the normalized score for a single paper.
func (s *Scorer) scoreOne(paper *domain.Paper, matchers []*regexp.Regexp) float64 {
	if len(matchers) == 0 {
		return 0
	}

	title := strings.ToLower(paper.Title)
	abstract := strings.ToLower(paper.Abstract)

	matches := 0
	for _, matcher := range matchers {
		titleMatches := len(matcher.FindAllStringIndex(title, -1))
		abstractMatches := len(matcher.FindAllStringIndex(abstract, -1))

		weighted := s.config.TitleWeight*titleMatches + abstractMatches
		if weighted > s.config.MatchCapPerTerm {
			weighted = s.config.MatchCapPerTerm
		}
		matches += weighted
	}

	score := float64(matches) / float64(len(matchers)*s.config.MatchCapPerTerm) * s.config.Boost
	if score > 1.0 {
		score = 1.0
	}
	return score
}

// expandTerms lower-cases the keyword set and widens recall for
// compound phrases: every keyword of more than two words additionally
// contributes all contiguous word windows of the configured lengths.
// Duplicates across keywords and windows are removed preserving order.
func (s *Scorer) expandTerms(keywords []string) []string {
	seen := make(map[string]struct{})
	terms := make([]string, 0, len(keywords))

	add := func(term string) {
		if term == "" {
			return
		}
		if _, ok := seen[term]; ok {
			return
		}
		seen[term] = struct{}{}
		terms = append(terms, term)
	}

	for _, keyword := range keywords {
		lowered := strings.ToLower(strings.TrimSpace(keyword))
		add(lowered)

		words := strings.Fields(lowered)
		if len(words) <= 2 {
			continue
		}
		for size := s.config.PhraseWindowMin; size <= s.config.PhraseWindowMax; size++ {
			if size > len(words) {
				break
			}
			for start := 0; start+size <= len(words); start++ {
				add(strings.Join(words[start:start+size], " "))
			}
		}
	}
	return terms
}

// phraseMatcher compiles a case-insensitive whole-phrase matcher for a
// lower-cased term.
func phraseMatcher(term string) *regexp.Regexp {
	return regexp.MustCompile(`\b` + regexp.QuoteMeta(term) + `\b`)
}
