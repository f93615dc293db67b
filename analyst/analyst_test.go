package analyst

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	apperrors "betlogic/errors"
	"betlogic/llmclient"
	"betlogic/prompts"
	"betlogic/validation"
)

const complete = `1) CONTEXT ȘI MIZE:
Meciul nu a început încă, iar riscul unei surprize este real pentru ambele echipe din Test League.

2) DINAMICA TACTICĂ:
Team A preferă posesia în zona centrală, în timp ce Team B mizează pe tranziții rapide pe flancuri.

3) FACTORI CRITICI DE ANALIZĂ:
1) Situația lotului: absența unui mijlocaș titular poate reduce controlul jocului.
2) Tendințe statistice: ambele echipe marchează des în ultimele 15 minute.
3) Factori externi: terenul greu poate încetini ritmul.

4) SCENARII POSIBILE:
A) Scenariu principal: Team A controlează posesia și creează mai multe ocazii.
B) Scenariu alternativ: un gol timpuriu al oaspeților schimbă cursul meciului.

5) INTERPRETARE ȘI NIVEL DE INCERTITUDINE:
Nivel de incertitudine Mediu, deoarece formele recente ale echipelor sunt apropiate.`

type reply struct {
	text string
	err  error
}

type scriptedProvider struct {
	mu       sync.Mutex
	replies  []reply
	prompts  []string
	attempts []int
}

func (p *scriptedProvider) Call(_ context.Context, prompt string, attempt int) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.prompts = append(p.prompts, prompt)
	p.attempts = append(p.attempts, attempt)
	if len(p.replies) == 0 {
		return "", errors.New("unexpected provider call")
	}
	r := p.replies[0]
	p.replies = p.replies[1:]
	return r.text, r.err
}

func (p *scriptedProvider) calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.prompts)
}

var testRequest = Request{TeamsLabel: "Team A vs Team B", League: "Test League", MatchStatus: "NS"}

func newTestAnalyst(t *testing.T, provider Provider, cache *Cache, opts ...Option) *Analyst {
	t.Helper()
	tmpl, err := prompts.Lookup("ro-analyst")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	return New(provider, tmpl, cache, nil, opts...)
}

func newTestCache(t *testing.T, now func() time.Time) *Cache {
	t.Helper()
	cache, err := NewCache(16, 10*time.Minute, now)
	if err != nil {
		t.Fatalf("NewCache: %v", err)
	}
	return cache
}

func TestAnalyzeAcceptsFirstAttemptAndCaches(t *testing.T) {
	provider := &scriptedProvider{replies: []reply{{text: "## Analiză\n\n" + complete}}}
	a := newTestAnalyst(t, provider, newTestCache(t, nil))

	res, err := a.Analyze(context.Background(), testRequest)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if res.Stage != StageFirstAttempt || res.Cached || res.Calls != 1 {
		t.Errorf("unexpected result %+v", res)
	}
	if strings.Contains(res.Text, "#") {
		t.Errorf("markdown heading survived sanitization: %q", res.Text[:40])
	}
	if !strings.HasSuffix(res.Text, "sunt apropiate.") {
		t.Errorf("unexpected tail %q", res.Text[len(res.Text)-30:])
	}

	again, err := a.Analyze(context.Background(), Request{TeamsLabel: "  Team A   vs Team B ", League: "Test League", MatchStatus: "NS"})
	if err != nil {
		t.Fatalf("cached Analyze: %v", err)
	}
	if !again.Cached || again.Stage != StageCache || again.Text != res.Text {
		t.Errorf("expected identical cached result, got %+v", again)
	}
	if provider.calls() != 1 {
		t.Errorf("provider called %d times, want 1", provider.calls())
	}
	if provider.attempts[0] != 1 {
		t.Errorf("first call should start at attempt 1, got %d", provider.attempts[0])
	}
}

func TestAnalyzeRejectsIncompleteRequest(t *testing.T) {
	provider := &scriptedProvider{}
	a := newTestAnalyst(t, provider, nil)
	_, err := a.Analyze(context.Background(), Request{TeamsLabel: "A vs B", League: " ", MatchStatus: "NS"})
	if !apperrors.IsInvalidInput(err) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if provider.calls() != 0 {
		t.Error("provider must not be called for invalid input")
	}
}

func TestCachedEntryExpires(t *testing.T) {
	now := time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	provider := &scriptedProvider{replies: []reply{{text: complete}, {text: complete}}}
	a := newTestAnalyst(t, provider, newTestCache(t, clock))

	if _, err := a.Analyze(context.Background(), testRequest); err != nil {
		t.Fatal(err)
	}
	now = now.Add(10 * time.Minute)
	if res, _ := a.Analyze(context.Background(), testRequest); !res.Cached {
		t.Fatal("entry should still be live exactly at its TTL")
	}
	now = now.Add(time.Second)
	res, err := a.Analyze(context.Background(), testRequest)
	if err != nil {
		t.Fatal(err)
	}
	if res.Cached || provider.calls() != 2 {
		t.Errorf("expired entry should regenerate, cached=%v calls=%d", res.Cached, provider.calls())
	}
}

func TestStrictRetrySentinelIsInvalidOutput(t *testing.T) {
	provider := &scriptedProvider{replies: []reply{
		{text: "```js\nconsole.log('x')\n```"},
		{text: prompts.Unavailable},
	}}
	cache := newTestCache(t, nil)
	a := newTestAnalyst(t, provider, cache)

	_, err := a.Analyze(context.Background(), testRequest)
	if !errors.Is(err, apperrors.ErrOutputInvalid) {
		t.Fatalf("expected invalid output, got %v", err)
	}
	var outErr *OutputError
	if !errors.As(err, &outErr) || outErr.Reason != ReasonDeclined {
		t.Errorf("expected declined OutputError, got %#v", err)
	}
	if len(provider.attempts) != 2 || provider.attempts[1] != 2 {
		t.Errorf("attempts = %v, want [1 2]", provider.attempts)
	}
	if !strings.Contains(provider.prompts[1], "IMPORTANT: Ai returnat un output invalid") {
		t.Error("second prompt should carry the strict directive")
	}
	if cache.Len() != 0 {
		t.Error("rejected output must not be cached")
	}
}

func TestStrictRetryRecovers(t *testing.T) {
	provider := &scriptedProvider{replies: []reply{
		{text: `{"analiza": "indisponibila"}`},
		{text: complete},
	}}
	a := newTestAnalyst(t, provider, nil)

	res, err := a.Analyze(context.Background(), testRequest)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if res.Stage != StageStrictRetry || res.Calls != 2 || res.Text != complete {
		t.Errorf("unexpected result %+v", res)
	}
}

func TestStrictRetryStillCode(t *testing.T) {
	provider := &scriptedProvider{replies: []reply{
		{text: "<div>nimic</div>"},
		{text: "SELECT * FROM meciuri"},
	}}
	a := newTestAnalyst(t, provider, nil)

	_, err := a.Analyze(context.Background(), testRequest)
	var outErr *OutputError
	if !errors.As(err, &outErr) || !errors.Is(err, apperrors.ErrOutputInvalid) {
		t.Fatalf("expected invalid OutputError, got %v", err)
	}
	if outErr.Rule != "sql_select" {
		t.Errorf("rule = %q", outErr.Rule)
	}
}

func TestSalvageableStrictReplyIsContinued(t *testing.T) {
	cut := strings.Index(complete, "4) SCENARII")
	provider := &scriptedProvider{replies: []reply{
		{text: "<div>nimic</div>"},
		{text: complete[:cut]},
		{text: complete[cut:]},
	}}
	a := newTestAnalyst(t, provider, nil)

	res, err := a.Analyze(context.Background(), testRequest)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if res.Stage != StageContinuation || res.Calls != 3 || res.Text != complete {
		t.Errorf("unexpected result %+v", res)
	}
	want := []int{1, 2, 2}
	for i, attempt := range provider.attempts {
		if attempt != want[i] {
			t.Errorf("call %d started at attempt %d, want %d", i+1, attempt, want[i])
		}
	}
	if strings.Contains(provider.prompts[2], prompts.Unavailable) {
		t.Error("continuation should build on the base prompt, not the strict one")
	}
}

func TestMissingSectionsTriggerContinuation(t *testing.T) {
	cut := strings.Index(complete, "4) SCENARII")
	provider := &scriptedProvider{replies: []reply{
		{text: complete[:cut]},
		{text: complete[cut:]},
	}}
	cache := newTestCache(t, nil)
	a := newTestAnalyst(t, provider, cache)

	res, err := a.Analyze(context.Background(), testRequest)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if res.Stage != StageContinuation || res.Calls != 2 {
		t.Errorf("unexpected result %+v", res)
	}
	if res.Text != complete {
		t.Errorf("merged text mismatch:\n%s", res.Text)
	}
	if provider.attempts[1] != 2 {
		t.Errorf("continuation should start at attempt 2, got %d", provider.attempts[1])
	}
	if !strings.Contains(provider.prompts[1], complete[:cut-2]) {
		t.Error("continuation prompt should quote the partial text")
	}
	if strings.Index(res.Text, "3) FACTORI") > strings.Index(res.Text, "4) SCENARII") {
		t.Error("sections out of order")
	}
	if cached, ok := cache.Get(testRequest.CacheKey()); !ok || cached != complete {
		t.Error("merged analysis should be cached")
	}
}

func TestUnterminatedTextIsContinued(t *testing.T) {
	partial := strings.TrimSuffix(complete, " apropiate.")
	provider := &scriptedProvider{replies: []reply{
		{text: partial},
		{text: "echipelor sunt apropiate."},
	}}
	a := newTestAnalyst(t, provider, nil)

	res, err := a.Analyze(context.Background(), testRequest)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if res.Text != complete {
		t.Errorf("overlap not trimmed:\n%s", res.Text[len(res.Text)-60:])
	}
}

func TestRestartedContinuationReplacesPartial(t *testing.T) {
	cut := strings.Index(complete, "4) SCENARII")
	provider := &scriptedProvider{replies: []reply{
		{text: complete[:cut]},
		{text: complete},
	}}
	a := newTestAnalyst(t, provider, nil)

	res, err := a.Analyze(context.Background(), testRequest)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if strings.Count(res.Text, "1) CONTEXT ȘI MIZE:") != 1 {
		t.Errorf("section 1 duplicated:\n%s", res.Text)
	}
}

func TestContinuationStillIncompleteIsTruncated(t *testing.T) {
	cut := strings.Index(complete, "4) SCENARII")
	provider := &scriptedProvider{replies: []reply{
		{text: complete[:cut]},
		{text: "4) SCENARII POSIBILE:\nA) Scenariu principal: gazdele"},
	}}
	cache := newTestCache(t, nil)
	a := newTestAnalyst(t, provider, cache)

	_, err := a.Analyze(context.Background(), testRequest)
	if !errors.Is(err, apperrors.ErrOutputTruncated) {
		t.Fatalf("expected truncated output, got %v", err)
	}
	if cache.Len() != 0 {
		t.Error("truncated output must not be cached")
	}
}

func TestUpstreamErrorPassesThrough(t *testing.T) {
	upstream := &llmclient.UpstreamError{Status: 429, Kind: llmclient.KindHTTPStatus, Message: "rate limited", Attempts: 3}
	provider := &scriptedProvider{replies: []reply{{err: upstream}}}
	cache := newTestCache(t, nil)
	a := newTestAnalyst(t, provider, cache)

	_, err := a.Analyze(context.Background(), testRequest)
	var got *llmclient.UpstreamError
	if !errors.As(err, &got) || got.Status != 429 {
		t.Fatalf("expected upstream 429, got %v", err)
	}
	if !apperrors.IsTransient(err) {
		t.Error("429 should classify as transient")
	}
	if provider.calls() != 1 || cache.Len() != 0 {
		t.Errorf("calls=%d cached=%d", provider.calls(), cache.Len())
	}
}

func TestUpstreamErrorDuringContinuation(t *testing.T) {
	cut := strings.Index(complete, "4) SCENARII")
	provider := &scriptedProvider{replies: []reply{
		{text: complete[:cut]},
		{err: &llmclient.UpstreamError{Status: 504, Kind: llmclient.KindTimeout, Message: "OpenRouter timeout"}},
	}}
	a := newTestAnalyst(t, provider, nil)

	_, err := a.Analyze(context.Background(), testRequest)
	var got *llmclient.UpstreamError
	if !errors.As(err, &got) || !got.Timeout() {
		t.Fatalf("expected upstream timeout, got %v", err)
	}
}

func TestWithPolicyChangesRequiredSections(t *testing.T) {
	cut := strings.Index(complete, "4) SCENARII")
	policy := validation.DefaultPolicy
	policy.RequiredSections = []int{1, 2, 3}
	provider := &scriptedProvider{replies: []reply{{text: complete[:cut]}}}
	a := newTestAnalyst(t, provider, nil, WithPolicy(policy))

	res, err := a.Analyze(context.Background(), testRequest)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if res.Stage != StageFirstAttempt || res.Calls != 1 {
		t.Errorf("three sections should satisfy the policy, got %+v", res)
	}
}

func TestWithClockMeasuresDuration(t *testing.T) {
	now := time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)
	clock := func() time.Time {
		now = now.Add(2 * time.Second)
		return now
	}
	provider := &scriptedProvider{replies: []reply{{text: complete}}}
	a := newTestAnalyst(t, provider, nil, WithClock(clock))

	res, err := a.Analyze(context.Background(), testRequest)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if res.Duration != 2*time.Second {
		t.Errorf("Duration = %v, want 2s", res.Duration)
	}
}
