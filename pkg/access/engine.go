package access

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/modfleet/gatehouse/pkg/discord"
	"github.com/modfleet/gatehouse/pkg/observability"
)

const (
	// defaultMaxAttempts bounds the evaluation at 1 initial try + 2 retries
	defaultMaxAttempts = 3
	// defaultBackoffInterval is the delay before the first retry; each
	// subsequent retry doubles it, capped at defaultBackoffCap
	defaultBackoffInterval = 100 * time.Millisecond
	defaultBackoffCap      = 200 * time.Millisecond
)

// Policy is the fixed access policy: membership in one guild plus any one of
// a set of role ids.
type Policy struct {
	GuildID         string
	RequiredRoleIDs []string
}

// Engine decides whether a subject may use the dashboard. It is the single
// authority consumed by every enforcement point; cache policy and retry
// policy live here and nowhere else.
type Engine struct {
	gateway discord.Gateway
	cache   Cache
	policy  Policy
	roleSet map[string]struct{}

	logger  *observability.Logger
	metrics *observability.Metrics

	skipChecks      bool
	maxAttempts     int
	backoffInterval time.Duration
	backoffCap      time.Duration
}

// EngineOption configures an Engine
type EngineOption func(*Engine)

// WithLogger attaches a structured logger
func WithLogger(logger *observability.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithMetrics records decision, cache, and retry metrics
func WithMetrics(metrics *observability.Metrics) EngineOption {
	return func(e *Engine) {
		e.metrics = metrics
	}
}

// WithSkipChecks bypasses evaluation entirely and grants every subject.
// Local development only; the composition root must never enable this from a
// production configuration path.
func WithSkipChecks(skip bool) EngineOption {
	return func(e *Engine) {
		e.skipChecks = skip
	}
}

// WithMaxAttempts overrides the retry budget (total attempts, minimum 1)
func WithMaxAttempts(attempts int) EngineOption {
	return func(e *Engine) {
		if attempts >= 1 {
			e.maxAttempts = attempts
		}
	}
}

// WithBackoffInterval overrides the first-retry delay and its cap (tests)
func WithBackoffInterval(interval, cap time.Duration) EngineOption {
	return func(e *Engine) {
		e.backoffInterval = interval
		e.backoffCap = cap
	}
}

// NewEngine creates the decision engine
func NewEngine(gateway discord.Gateway, cache Cache, policy Policy, opts ...EngineOption) *Engine {
	e := &Engine{
		gateway:         gateway,
		cache:           cache,
		policy:          policy,
		roleSet:         make(map[string]struct{}, len(policy.RequiredRoleIDs)),
		logger:          observability.NewLogger(observability.InfoLevel, nil),
		maxAttempts:     defaultMaxAttempts,
		backoffInterval: defaultBackoffInterval,
		backoffCap:      defaultBackoffCap,
	}
	for _, roleID := range policy.RequiredRoleIDs {
		e.roleSet[roleID] = struct{}{}
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate resolves the subject's access. The returned error is non-nil only
// for DecisionTransientFailure, carrying the last-seen upstream reason; every
// other decision is a definitive answer.
//
// Cache policy: only grants are cached. A denial is never cached, and any
// stale entry is removed on denial or failure, so a role-propagation delay or
// an upstream hiccup cannot lock a legitimate user out for a full TTL window.
func (e *Engine) Evaluate(ctx context.Context, subjectID, bearerToken string) (Decision, error) {
	if e.skipChecks {
		return DecisionGranted, nil
	}

	if granted, ok := e.cache.Get(ctx, subjectID); ok {
		if granted {
			e.countCacheHit()
			e.record(DecisionGranted)
			return DecisionGranted, nil
		}
		// Only grants are written by this engine. A cached false can only
		// come from an external writer sharing the backend; drop it and
		// re-evaluate rather than denying on stale data.
		e.cache.Invalidate(ctx, subjectID)
	}
	e.countCacheMiss()

	decision, err := e.evaluateUpstream(ctx, bearerToken)
	switch {
	case err != nil && errors.Is(err, discord.ErrUnauthorized):
		e.cache.Invalidate(ctx, subjectID)
		e.record(DecisionUnauthorized)
		return DecisionUnauthorized, nil
	case err != nil:
		e.cache.Invalidate(ctx, subjectID)
		e.record(DecisionTransientFailure)
		e.logger.WithError(err).WithField("subject_id", subjectID).Warn("access evaluation failed after retries")
		return DecisionTransientFailure, err
	case decision == DecisionGranted:
		e.cache.Put(ctx, subjectID, true)
	default:
		// Denials are not cached: denial is already the safe default and a
		// repeated upstream check is cheaper than a wrongly prolonged lockout.
		e.cache.Invalidate(ctx, subjectID)
	}

	e.record(decision)
	return decision, nil
}

// evaluateUpstream runs the two-call policy check under the bounded retry
// budget. Terminal answers (grant, both denial kinds, unauthorized) stop the
// loop immediately; only transient gateway errors are retried.
func (e *Engine) evaluateUpstream(ctx context.Context, bearerToken string) (Decision, error) {
	var decision Decision

	operation := func() error {
		d, err := e.checkPolicy(ctx, bearerToken)
		if err != nil {
			if discord.IsTransient(err) {
				e.countRetry()
				return err
			}
			return backoff.Permanent(err)
		}
		decision = d
		return nil
	}

	err := backoff.Retry(operation, backoff.WithContext(e.newBackOff(), ctx))
	if err != nil {
		return 0, err
	}
	return decision, nil
}

// checkPolicy performs one full policy check: membership first, then roles.
// Membership absence is a real answer, so the role endpoint is never called
// for non-members.
func (e *Engine) checkPolicy(ctx context.Context, bearerToken string) (Decision, error) {
	guilds, err := e.gateway.ListGuilds(ctx, bearerToken)
	if err != nil {
		return 0, err
	}

	member := false
	for _, guild := range guilds {
		if guild.ID == e.policy.GuildID {
			member = true
			break
		}
	}
	if !member {
		return DecisionDeniedNotMember, nil
	}

	membership, err := e.gateway.GetGuildMember(ctx, bearerToken, e.policy.GuildID)
	if err != nil {
		return 0, err
	}

	for _, roleID := range membership.Roles {
		if _, ok := e.roleSet[roleID]; ok {
			return DecisionGranted, nil
		}
	}
	return DecisionDeniedNoRole, nil
}

// newBackOff builds the retry schedule: maxAttempts-1 retries with the delay
// doubling from backoffInterval up to backoffCap, no jitter.
func (e *Engine) newBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = e.backoffInterval
	b.RandomizationFactor = 0
	b.Multiplier = 2
	b.MaxInterval = e.backoffCap
	b.MaxElapsedTime = 0
	return backoff.WithMaxRetries(b, uint64(e.maxAttempts-1))
}

func (e *Engine) record(decision Decision) {
	if e.metrics != nil {
		e.metrics.AccessDecisionsTotal.WithLabelValues(decision.String()).Inc()
	}
}

func (e *Engine) countCacheHit() {
	if e.metrics != nil {
		e.metrics.AccessCacheHitsTotal.Inc()
	}
}

func (e *Engine) countCacheMiss() {
	if e.metrics != nil {
		e.metrics.AccessCacheMissTotal.Inc()
	}
}

func (e *Engine) countRetry() {
	if e.metrics != nil {
		e.metrics.AccessRetriesTotal.Inc()
	}
}
