package query

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"searchagent/internal/timing"
)

// stubService scripts the text service responses per call.
type stubService struct {
	calls     int
	responses []string
	errs      []error
}

func (s *stubService) GenerateText(_ context.Context, _ string) (string, error) {
	i := s.calls
	s.calls++
	var err error
	if i < len(s.errs) {
		err = s.errs[i]
	}
	if err != nil {
		return "", err
	}
	if i < len(s.responses) {
		return s.responses[i], nil
	}
	return "", errors.New("no scripted response")
}

type instantSleeper struct{}

func (instantSleeper) Sleep(ctx context.Context, _ time.Duration) error {
	return ctx.Err()
}

func newTestGenerator(svc TextService) *Generator {
	return NewGenerator(svc, DefaultParameters(), timing.NewSeededRand(42), instantSleeper{}, zap.NewNop())
}

func TestGenerate_ValidQuery(t *testing.T) {
	svc := &stubService{responses: []string{` "why do cats purr at night" `}}
	g := newTestGenerator(svc)

	got := g.Generate(context.Background())
	if got.Text != "why do cats purr at night" {
		t.Errorf("expected trimmed query, got %q", got.Text)
	}
	if got.Category == "" || got.QueryType == "" {
		t.Errorf("expected category and type to be set, got %+v", got)
	}
	if got.QueryType == "fallback" {
		t.Errorf("unexpected fallback for a valid response")
	}
	if g.History().Len() != 1 {
		t.Errorf("expected history length 1, got %d", g.History().Len())
	}
}

func TestGenerate_NeverReturnsInvalidQuery(t *testing.T) {
	bad := []string{
		"no",
		strings.Repeat("x", 150),
		"how to hack a router",
		"EXPLICIT content search",
		"",
	}
	for _, response := range bad {
		svc := &stubService{responses: []string{response, response, response}}
		g := newTestGenerator(svc)
		got := g.Generate(context.Background())

		if err := Validate(got.Text); err != nil {
			t.Errorf("response %q: returned query %q fails validation: %v", response, got.Text, err)
		}
		if got.Category != "general" || got.QueryType != "fallback" {
			t.Errorf("response %q: expected fallback tagging, got %+v", response, got)
		}
	}
}

func TestGenerate_FallbackAfterThreeFailures(t *testing.T) {
	boom := errors.New("service unavailable")
	svc := &stubService{errs: []error{boom, boom, boom}}
	g := newTestGenerator(svc)

	got := g.Generate(context.Background())
	if svc.calls != 3 {
		t.Errorf("expected exactly 3 service calls, got %d", svc.calls)
	}
	if got.Category != "general" || got.QueryType != "fallback" {
		t.Errorf("expected fallback tags, got %+v", got)
	}
	if !strings.HasPrefix(got.Text, "what is ") {
		t.Errorf("expected deterministic fallback shape, got %q", got.Text)
	}
	if g.History().Len() != 0 {
		t.Errorf("fallback must not enter history, got length %d", g.History().Len())
	}
}

func TestGenerate_ValidationFailureConsumesAttempt(t *testing.T) {
	// First two candidates fail validation, third is good.
	svc := &stubService{responses: []string{"xx", "hack the planet", "best hiking trails in patagonia"}}
	g := newTestGenerator(svc)

	got := g.Generate(context.Background())
	if svc.calls != 3 {
		t.Errorf("expected 3 service calls (one per attempt), got %d", svc.calls)
	}
	if got.Text != "best hiking trails in patagonia" {
		t.Errorf("expected third candidate, got %q", got.Text)
	}
}

func TestGenerate_PromptEmbedsRecentHistory(t *testing.T) {
	g := newTestGenerator(nil)
	for i := 0; i < 5; i++ {
		g.history.Add(fmt.Sprintf("query %d", i))
	}

	prompt := g.buildPrompt("science", "question", "simple")
	if !strings.Contains(prompt, "query 2, query 3, query 4") {
		t.Errorf("prompt missing 3 most recent history entries:\n%s", prompt)
	}
	if strings.Contains(prompt, "query 1") {
		t.Errorf("prompt should only include the most recent 3 entries:\n%s", prompt)
	}
	for _, want := range []string{"science", "question", "simple", "ONLY the search query"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, prompt)
		}
	}
}

func TestHistory_EvictsOldest(t *testing.T) {
	h := NewHistory(20)
	for i := 1; i <= 21; i++ {
		h.Add(fmt.Sprintf("q%d", i))
	}
	if h.Len() != 20 {
		t.Fatalf("expected length 20 after 21 adds, got %d", h.Len())
	}
	recent := h.Recent(20)
	if recent[0] != "q2" {
		t.Errorf("expected oldest entry q2 after eviction, got %q", recent[0])
	}
	if recent[len(recent)-1] != "q21" {
		t.Errorf("expected newest entry q21, got %q", recent[len(recent)-1])
	}
}

func TestHistory_RecentOrdering(t *testing.T) {
	h := NewHistory(20)
	h.Add("a")
	h.Add("b")
	h.Add("c")
	got := h.Recent(2)
	if len(got) != 2 || got[0] != "b" || got[1] != "c" {
		t.Errorf("expected [b c], got %v", got)
	}
	if got := h.Recent(10); len(got) != 3 {
		t.Errorf("expected all 3 entries when asking for more, got %v", got)
	}
	if got := h.Recent(0); got != nil {
		t.Errorf("expected nil for n=0, got %v", got)
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		query string
		ok    bool
	}{
		{"why is the sky blue", true},
		{"abc", true},
		{"ab", false},
		{strings.Repeat("a", 100), true},
		{strings.Repeat("a", 101), false},
		// Length limits are in runes, not bytes.
		{strings.Repeat("日", 100), true},
		{strings.Repeat("日", 101), false},
		{"日本", false},
		{"東京のラーメン店", true},
		{"how to crack passwords", false},
		{"ILLEGAL streaming sites", false},
		{"life hacks for students", false}, // substring match is intentional
		{"", false},
	}
	for _, tc := range cases {
		err := Validate(tc.query)
		if tc.ok && err != nil {
			t.Errorf("Validate(%q): unexpected error %v", tc.query, err)
		}
		if !tc.ok && err == nil {
			t.Errorf("Validate(%q): expected rejection", tc.query)
		}
	}
}
