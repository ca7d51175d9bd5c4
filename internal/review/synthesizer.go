// Package review synthesizes a structured literature review from a
// ranked paper set using a language model.
package review

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	"github.com/citeright/citeright/internal/domain"
	"github.com/citeright/citeright/internal/llm"
)

const (
	// DefaultBatchThreshold is the paper count above which synthesis
	// switches to the two-phase batched path.
	DefaultBatchThreshold = 5

	// DefaultTemperature balances coherence with some variety in prose.
	DefaultTemperature = 0.4

	// DefaultMaxTokens is the token budget for the review itself.
	DefaultMaxTokens = 2500

	// DefaultSummaryMaxTokens is the token budget for one per-paper
	// summary in the batched path.
	DefaultSummaryMaxTokens = 400
)

// NoPapersMessage is returned when there is nothing to review. No
// model call is made in that case.
const NoPapersMessage = "No papers available for review."

// yearRegex extracts the first four-digit run from a date string.
var yearRegex = regexp.MustCompile(`\d{4}`)

const reviewPromptTemplate = `Create a comprehensive literature review based on the following research problem and paper material.

Research Problem:
%s

Available Papers:
%s

Please structure the literature review with the following sections:
1. Introduction: Provide context for the research problem.
2. Current Approaches: Organize and discuss the different methodologies used across papers.
3. Key Findings: Synthesize the main results and their implications.
4. Research Gaps: Identify areas that need further investigation.
5. Conclusion: Summarize the state of knowledge in this field.

Use proper academic citation format [Author, Year] when referring to specific papers.
Make connections between papers and highlight common themes or contradictions.
`

const summaryPromptTemplate = `Summarize the following paper in 3-5 sentences covering its approach, its main contribution, and its relevance to the research problem below.

Research Problem:
%s

Title: %s
Authors: %s
Year: %s
Abstract: %s
`

// Config holds synthesis parameters.
type Config struct {
	BatchThreshold   int
	Temperature      float64
	MaxTokens        int
	SummaryMaxTokens int
}

func (c *Config) applyDefaults() {
	if c.BatchThreshold == 0 {
		c.BatchThreshold = DefaultBatchThreshold
	}
	if c.Temperature == 0 {
		c.Temperature = DefaultTemperature
	}
	if c.MaxTokens == 0 {
		c.MaxTokens = DefaultMaxTokens
	}
	if c.SummaryMaxTokens == 0 {
		c.SummaryMaxTokens = DefaultSummaryMaxTokens
	}
}

// Synthesizer produces review prose from papers and a problem statement.
type Synthesizer struct {
	client llm.Client
	config Config
	logger zerolog.Logger
}

// NewSynthesizer creates a Synthesizer backed by the given completion
// client.
func NewSynthesizer(client llm.Client, cfg Config, logger zerolog.Logger) *Synthesizer {
	cfg.applyDefaults()
	return &Synthesizer{
		client: client,
		config: cfg,
		logger: logger.With().Str("component", "review_synthesizer").Logger(),
	}
}

// Synthesize returns the review text for the given problem and papers.
// It never returns an error: model failures produce an error-description
// string as the review body, which the orchestrator surfaces directly
// to the caller as content.
//
// Paper sets up to the batch threshold are reviewed in a single model
// call over the raw abstracts. Larger sets take a two-phase path: one
// short structured summary per paper, then a single synthesis call over
// the concatenated summaries, which bounds total prompt size as the
// paper count grows.
func (s *Synthesizer) Synthesize(ctx context.Context, problem string, papers []*domain.Paper) string {
	if len(papers) == 0 {
		return NoPapersMessage
	}

	var material string
	if len(papers) > s.config.BatchThreshold {
		summaries, err := s.summarizePapers(ctx, problem, papers)
		if err != nil {
			s.logger.Error().Err(err).Msg("paper summarization failed")
			return fmt.Sprintf("Error generating literature review: %v", err)
		}
		material = summaries
	} else {
		material = formatAbstracts(papers)
	}

	resp, err := s.client.Complete(ctx, llm.Request{
		Prompt:      fmt.Sprintf(reviewPromptTemplate, problem, material),
		Temperature: s.config.Temperature,
		MaxTokens:   s.config.MaxTokens,
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("review synthesis failed")
		return fmt.Sprintf("Error generating literature review: %v", err)
	}
	return resp.Content
}

// summarizePapers requests one short structured summary per paper and
// concatenates them as the material for the final synthesis call.
func (s *Synthesizer) summarizePapers(ctx context.Context, problem string, papers []*domain.Paper) (string, error) {
	var sb strings.Builder
	for i, paper := range papers {
		resp, err := s.client.Complete(ctx, llm.Request{
			Prompt: fmt.Sprintf(summaryPromptTemplate,
				problem, paper.Title, strings.Join(paper.Authors, ", "), CitationYear(paper), paper.Abstract),
			Temperature: s.config.Temperature,
			MaxTokens:   s.config.SummaryMaxTokens,
		})
		if err != nil {
			return "", fmt.Errorf("summarizing paper %q: %w", paper.Title, err)
		}

		fmt.Fprintf(&sb, "Paper %d:\n", i+1)
		fmt.Fprintf(&sb, "Title: %s\n", paper.Title)
		fmt.Fprintf(&sb, "Citation: [%s, %s]\n", FirstAuthorSurname(paper), CitationYear(paper))
		fmt.Fprintf(&sb, "Summary: %s\n\n", strings.TrimSpace(resp.Content))
	}
	return sb.String(), nil
}

// formatAbstracts renders the single-pass prompt material: one block
// per paper with title, authors, citation info and the raw abstract.
func formatAbstracts(papers []*domain.Paper) string {
	var sb strings.Builder
	for i, paper := range papers {
		authors := strings.Join(paper.Authors, ", ")
		if authors == "" {
			authors = "Unknown"
		}
		abstract := paper.Abstract
		if abstract == "" {
			abstract = "Not available"
		}

		fmt.Fprintf(&sb, "Paper %d:\n", i+1)
		fmt.Fprintf(&sb, "Title: %s\n", paper.Title)
		fmt.Fprintf(&sb, "Authors: %s\n", authors)
		fmt.Fprintf(&sb, "Year: %s\n", CitationYear(paper))
		fmt.Fprintf(&sb, "Citation: [%s, %s]\n", FirstAuthorSurname(paper), CitationYear(paper))
		fmt.Fprintf(&sb, "Abstract: %s\n\n", abstract)
	}
	return sb.String()
}

// CitationYear returns the first four-digit run in the paper's
// publication date, or "n.d." when no date is available.
func CitationYear(paper *domain.Paper) string {
	if year := yearRegex.FindString(paper.Published); year != "" {
		return year
	}
	return "n.d."
}

// FirstAuthorSurname returns the last whitespace-delimited token of the
// first author's name, or "Unknown" when there are no authors.
func FirstAuthorSurname(paper *domain.Paper) string {
	first := paper.FirstAuthor()
	fields := strings.Fields(first)
	if len(fields) == 0 {
		return "Unknown"
	}
	return fields[len(fields)-1]
}
