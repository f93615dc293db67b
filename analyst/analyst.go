package analyst

import (
	"context"
	"fmt"
	"strings"
	"time"

	apperrors "betlogic/errors"
	"betlogic/prompts"
	"betlogic/utils"
	"betlogic/validation"
	"betlogic/web/format"

	"go.uber.org/zap"
)

// Provider produces the raw model answer for a prompt. attempt is the
// 1-based index the provider's retry loop starts from.
type Provider interface {
	Call(ctx context.Context, prompt string, attempt int) (string, error)
}

// Stage names the step that produced an accepted analysis.
type Stage string

const (
	StageCache        Stage = "cache"
	StageFirstAttempt Stage = "first_attempt"
	StageStrictRetry  Stage = "strict_retry"
	StageContinuation Stage = "continuation"
)

// ReasonDeclined marks a strict retry answered with the unavailable sentinel.
const ReasonDeclined validation.Reason = "declined"

// Result is an accepted analysis.
type Result struct {
	Text     string
	Stage    Stage
	Cached   bool
	Calls    int
	Duration time.Duration
}

// OutputError reports an answer that the validator rejected after every
// recovery step. Kind is ErrOutputInvalid or ErrOutputTruncated.
type OutputError struct {
	Kind   error
	Reason validation.Reason
	Rule   string
	Text   string
}

func (e *OutputError) Error() string {
	if e.Rule != "" {
		return fmt.Sprintf("%v: %s (%s)", e.Kind, e.Reason, e.Rule)
	}
	return fmt.Sprintf("%v: %s", e.Kind, e.Reason)
}

func (e *OutputError) Unwrap() error { return e.Kind }

// Analyst runs the generate, validate, recover pipeline for one fixture at a
// time and caches accepted analyses.
type Analyst struct {
	provider Provider
	template prompts.Template
	policy   validation.Policy
	cache    *Cache
	logger   *zap.Logger
	now      func() time.Time
}

// Option configures an Analyst.
type Option func(*Analyst)

// WithPolicy replaces the default validation policy.
func WithPolicy(p validation.Policy) Option {
	return func(a *Analyst) { a.policy = p }
}

// WithClock sets the clock used for durations.
func WithClock(now func() time.Time) Option {
	return func(a *Analyst) { a.now = now }
}

// New builds an Analyst. cache may be nil to disable caching.
func New(provider Provider, template prompts.Template, cache *Cache, logger *zap.Logger, opts ...Option) *Analyst {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &Analyst{
		provider: provider,
		template: template,
		policy:   validation.DefaultPolicy,
		cache:    cache,
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Template returns the prompt strategy in use.
func (a *Analyst) Template() prompts.Template { return a.template }

// Analyze returns a validated, complete analysis for req. Upstream failures
// come back as *llmclient.UpstreamError (wrapped), rejected output as
// *OutputError.
func (a *Analyst) Analyze(ctx context.Context, req Request) (Result, error) {
	start := a.now()
	req = req.Normalized()
	if err := req.Validate(); err != nil {
		return Result{}, err
	}

	key := req.CacheKey()
	logger := a.logger.With(zap.String("match", req.TeamsLabel), zap.String("league", req.League))
	if a.cache != nil {
		if text, ok := a.cache.Get(key); ok {
			logger.Debug("Analysis served from cache")
			return Result{Text: text, Stage: StageCache, Cached: true}, nil
		}
	}

	base, err := a.template.Base(req.TeamsLabel, req.League, req.MatchStatus)
	if err != nil {
		return Result{}, err
	}

	calls := 0
	generate := func(prompt string, attempt int) (string, validation.Verdict, error) {
		calls++
		raw, err := a.provider.Call(ctx, prompt, attempt)
		if err != nil {
			return "", validation.Verdict{}, err
		}
		text := format.Sanitize(raw)
		return text, a.policy.Check(text), nil
	}

	text, verdict, err := generate(base, 1)
	if err != nil {
		return Result{}, apperrors.WrapError(err, "first attempt")
	}
	stage := StageFirstAttempt

	if !verdict.Complete() && !verdict.Salvageable() {
		logger.Warn("Analysis rejected, retrying with strict prompt",
			zap.String("reason", string(verdict.Reason())),
			zap.String("rule", verdict.CodeRule),
			zap.String("preview", utils.TruncateForLog(text, 200)))

		text, verdict, err = generate(a.template.Strict(base), 2)
		if err != nil {
			return Result{}, apperrors.WrapError(err, "strict retry")
		}
		stage = StageStrictRetry
		if a.isSentinel(text) {
			logger.Warn("Model declined under strict prompt")
			return Result{}, &OutputError{Kind: apperrors.ErrOutputInvalid, Reason: ReasonDeclined, Text: text}
		}
		if !verdict.Complete() && !verdict.Salvageable() {
			logger.Warn("Strict retry rejected",
				zap.String("reason", string(verdict.Reason())),
				zap.String("rule", verdict.CodeRule))
			return Result{}, &OutputError{Kind: apperrors.ErrOutputInvalid, Reason: verdict.Reason(), Rule: verdict.CodeRule, Text: text}
		}
	}

	if !verdict.Complete() {
		logger.Info("Analysis incomplete, requesting continuation",
			zap.String("reason", string(verdict.Reason())),
			zap.Ints("missing_sections", verdict.MissingSections))

		cont, _, err := generate(a.template.Continuation(base, text), 2)
		if err != nil {
			return Result{}, apperrors.WrapError(err, "continuation")
		}
		stage = StageContinuation

		final, ok := a.finish(text, cont)
		if !ok {
			merged := a.policy.Check(mergeContinuation(text, cont))
			logger.Warn("Continuation did not complete the analysis",
				zap.String("reason", string(merged.Reason())))
			return Result{}, &OutputError{Kind: apperrors.ErrOutputTruncated, Reason: merged.Reason(), Rule: merged.CodeRule, Text: text}
		}
		text = final
	}

	if a.cache != nil {
		a.cache.Set(key, text)
	}
	elapsed := a.now().Sub(start)
	logger.Info("Analysis accepted",
		zap.String("stage", string(stage)),
		zap.Int("calls", calls),
		zap.Duration("duration", elapsed))
	return Result{Text: text, Stage: stage, Calls: calls, Duration: elapsed}, nil
}

// finish prefers the merged text and falls back to the continuation alone
// when the model rewrote the whole analysis.
func (a *Analyst) finish(partial, cont string) (string, bool) {
	merged := mergeContinuation(partial, cont)
	if a.policy.Check(merged).Complete() {
		return merged, true
	}
	if a.policy.Check(cont).Complete() {
		return cont, true
	}
	return "", false
}

func (a *Analyst) isSentinel(text string) bool {
	s := strings.TrimRight(strings.TrimSpace(text), ".!")
	return strings.EqualFold(s, a.template.Sentinel())
}
