// Package keywords derives search keywords from a research title and
// problem statement using a language model.
package keywords

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/citeright/citeright/internal/domain"
	"github.com/citeright/citeright/internal/llm"
)

const (
	// DefaultTemperature keeps keyword output focused and parseable.
	DefaultTemperature = 0.3

	// DefaultMaxTokens bounds the keyword list response.
	DefaultMaxTokens = 256
)

// derivePromptTemplate instructs the model to return a bare
// comma-separated list; the parser still tolerates numbered or
// bulleted lines when the model ignores the format.
const derivePromptTemplate = `Generate 5-7 precise academic search keywords for this research topic.
Return ONLY a comma-separated list of keywords without numbering, explanation, or additional text.

TITLE: %s
PROBLEM: %s

Example good response format: "keyword1, keyword2, keyword3, keyword4, keyword5"
`

// Config holds tuning parameters for keyword derivation.
type Config struct {
	// Temperature is the sampling temperature for the derivation call.
	Temperature float64

	// MaxTokens is the response token budget.
	MaxTokens int
}

func (c *Config) applyDefaults() {
	if c.Temperature == 0 {
		c.Temperature = DefaultTemperature
	}
	if c.MaxTokens == 0 {
		c.MaxTokens = DefaultMaxTokens
	}
}

// Deriver turns a title and problem statement into an ordered set of
// distinct search terms.
type Deriver struct {
	client llm.Client
	config Config
	logger zerolog.Logger
}

// NewDeriver creates a Deriver backed by the given completion client.
func NewDeriver(client llm.Client, cfg Config, logger zerolog.Logger) *Deriver {
	cfg.applyDefaults()
	return &Deriver{
		client: client,
		config: cfg,
		logger: logger.With().Str("component", "keyword_deriver").Logger(),
	}
}

// Derive returns the keyword set for the given title and problem.
// Both arguments are required; an empty one yields an error wrapping
// domain.ErrInvalidInput. Model failures never surface as errors: the
// deriver degrades to a single-element set containing the trimmed
// title so the pipeline can still search.
func (d *Deriver) Derive(ctx context.Context, title, problem string) ([]string, error) {
	if strings.TrimSpace(title) == "" {
		return nil, domain.NewValidationError("title", "must not be empty")
	}
	if strings.TrimSpace(problem) == "" {
		return nil, domain.NewValidationError("problem", "must not be empty")
	}

	resp, err := d.client.Complete(ctx, llm.Request{
		Prompt:      fmt.Sprintf(derivePromptTemplate, title, problem),
		Temperature: d.config.Temperature,
		MaxTokens:   d.config.MaxTokens,
	})
	if err != nil {
		d.logger.Warn().Err(err).Msg("keyword derivation failed, falling back to title")
		return []string{strings.TrimSpace(title)}, nil
	}

	terms := domain.DedupeKeywords(parseTerms(resp.Content))
	if len(terms) == 0 {
		d.logger.Warn().Str("response", resp.Content).Msg("empty keyword response, falling back to title")
		return []string{strings.TrimSpace(title)}, nil
	}

	d.logger.Debug().Strs("keywords", terms).Msg("derived keywords")
	return terms, nil
}

// parseTerms extracts keyword terms from a raw model response.
// Comma-separated responses are split on commas; otherwise each
// non-empty line is taken as one term with leading list markers
// stripped.
func parseTerms(response string) []string {
	if strings.Contains(response, ",") {
		parts := strings.Split(response, ",")
		terms := make([]string, 0, len(parts))
		for _, part := range parts {
			if term := strings.TrimSpace(part); term != "" {
				terms = append(terms, term)
			}
		}
		return terms
	}

	lines := strings.Split(response, "\n")
	terms := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		terms = append(terms, stripListMarker(line))
	}
	return terms
}

// stripListMarker removes a leading "1. " numbering or a bullet
// character from a line.
func stripListMarker(line string) string {
	if before, after, ok := strings.Cut(line, ". "); ok && isDigits(before) {
		return strings.TrimSpace(after)
	}
	for _, prefix := range []string{"•", "-", "*"} {
		if strings.HasPrefix(line, prefix) {
			return strings.TrimSpace(strings.TrimPrefix(line, prefix))
		}
	}
	return line
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
