// Package query generates search phrases via a generative text service,
// validates them, and falls back deterministically when the service is
// unavailable.
package query

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"searchagent/internal/retry"
	"searchagent/internal/timing"
)

const (
	historyCap    = 20
	promptHistory = 3
	minQueryLen   = 3
	maxQueryLen   = 100
)

// forbiddenTerms rejects candidates by case-insensitive substring match.
var forbiddenTerms = []string{"explicit", "illegal", "hack", "crack"}

// TextService is the generative backend. Treated as unreliable: transient
// failures are expected and retried.
type TextService interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// Generated is one validated search query and the parameters that shaped it.
type Generated struct {
	Text      string
	Category  string
	QueryType string
}

// Generator produces search queries. Not safe for concurrent use; the agent
// runs a single cycle at a time.
type Generator struct {
	svc     TextService
	params  Parameters
	history *History
	rng     timing.Rand
	sleeper timing.Sleeper
	policy  retry.Policy
	log     *zap.Logger
}

// NewGenerator creates a generator with the standard 3-attempt, 1s-base
// backoff budget.
func NewGenerator(svc TextService, params Parameters, rng timing.Rand, sleeper timing.Sleeper, log *zap.Logger) *Generator {
	return &Generator{
		svc:     svc,
		params:  params,
		history: NewHistory(historyCap),
		rng:     rng,
		sleeper: sleeper,
		policy:  retry.Policy{Attempts: 3, BaseDelay: time.Second},
		log:     log.Named("query"),
	}
}

// Generate returns the next search query. It never fails: after the retry
// budget is exhausted it returns the deterministic fallback without touching
// the service again.
func (g *Generator) Generate(ctx context.Context) Generated {
	var out Generated
	err := g.policy.Do(ctx, g.sleeper, func(attempt int) error {
		category := timing.Pick(g.rng, g.params.Categories)
		queryType := timing.Pick(g.rng, g.params.QueryTypes)
		complexity := timing.Pick(g.rng, g.params.Complexities)

		raw, err := g.svc.GenerateText(ctx, g.buildPrompt(category, queryType, complexity))
		if err != nil {
			g.log.Warn("query generation attempt failed",
				zap.Int("attempt", attempt+1), zap.Error(err))
			return err
		}

		candidate := cleanCandidate(raw)
		if err := Validate(candidate); err != nil {
			g.log.Warn("generated query rejected",
				zap.Int("attempt", attempt+1), zap.Error(err))
			return err
		}

		out = Generated{Text: candidate, Category: category, QueryType: queryType}
		return nil
	})
	if err != nil {
		fallback := "what is " + timing.Pick(g.rng, g.params.Categories)
		g.log.Warn("using fallback query", zap.String("query", fallback))
		return Generated{Text: fallback, Category: "general", QueryType: "fallback"}
	}

	g.history.Add(out.Text)
	g.log.Info("generated query",
		zap.String("query", out.Text),
		zap.String("category", out.Category),
		zap.String("type", out.QueryType))
	return out
}

// History exposes the bounded history, mainly for tests and diagnostics.
func (g *Generator) History() *History {
	return g.history
}

func (g *Generator) buildPrompt(category, queryType, complexity string) string {
	var b strings.Builder
	if recent := g.history.Recent(promptHistory); len(recent) > 0 {
		fmt.Fprintf(&b, "Recent search topics: %s. ", strings.Join(recent, ", "))
	}
	fmt.Fprintf(&b, "Generate a %s %s about %s that would be suitable for a web search.\n\n",
		complexity, queryType, category)
	b.WriteString("Requirements:\n")
	b.WriteString("- Make it naturally human-like and interesting\n")
	b.WriteString("- 3-15 words maximum\n")
	b.WriteString("- Avoid repetition of recent topics\n")
	b.WriteString("- Be specific enough to get good search results\n")
	b.WriteString("- Safe for general audiences\n\n")
	fmt.Fprintf(&b, "Category: %s\nType: %s\nComplexity: %s\n\n", category, queryType, complexity)
	b.WriteString("Respond with ONLY the search query, nothing else.")
	return b.String()
}

// Validate checks a candidate query against the length and content rules.
// Length is measured in runes so non-ASCII queries are not penalized for
// their encoding.
func Validate(q string) error {
	if n := utf8.RuneCountInString(q); n < minQueryLen {
		return fmt.Errorf("query too short: %d chars", n)
	} else if n > maxQueryLen {
		return fmt.Errorf("query too long: %d chars", n)
	}
	lower := strings.ToLower(q)
	for _, term := range forbiddenTerms {
		if strings.Contains(lower, term) {
			return fmt.Errorf("query contains forbidden term %q", term)
		}
	}
	return nil
}

// cleanCandidate strips whitespace and surrounding quotes from the raw
// service response.
func cleanCandidate(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.Trim(s, "\"'")
	return strings.TrimSpace(s)
}
