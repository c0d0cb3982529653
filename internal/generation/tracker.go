// Package generation tracks the lifecycle of in-flight generation requests
// as a finite state machine over queued, running, complete, review, and
// error. Polling the service is the source of truth; the push channel is a
// latency optimization layered on the same transition gate.
package generation

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/MichaelBlackwell/bidfoundry/internal/api/swarmhq"
	"github.com/MichaelBlackwell/bidfoundry/internal/domain"
)

// transitions holds the direct edges of the lifecycle machine. Terminal
// states have no outgoing edges.
var transitions = map[domain.GenerationState][]domain.GenerationState{
	domain.StateQueued:  {domain.StateRunning, domain.StateError},
	domain.StateRunning: {domain.StateComplete, domain.StateReview, domain.StateError},
}

// CanTransition reports whether to is a direct successor of from.
func CanTransition(from, to domain.GenerationState) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// reachable reports whether to can be reached from from through any number
// of legal transitions. Polls may be arbitrarily spaced, so the service can
// legitimately report a state several hops ahead of the last observation.
func reachable(from, to domain.GenerationState) bool {
	if from == to {
		return true
	}
	for _, next := range transitions[from] {
		if reachable(next, to) {
			return true
		}
	}
	return false
}

// TrackerOption configures the tracker.
type TrackerOption func(*Tracker)

// WithLogger sets the tracker's logger.
func WithLogger(logger *slog.Logger) TrackerOption {
	return func(t *Tracker) {
		t.logger = logger
	}
}

// Tracker submits generation requests and interprets observed statuses.
// Each request has its own independent machine keyed by request id; there
// is no shared state between requests.
type Tracker struct {
	client *swarmhq.Client
	logger *slog.Logger

	mu       sync.Mutex
	inflight map[string]domain.GenerationState
}

// NewTracker creates a tracker backed by the given service client.
func NewTracker(client *swarmhq.Client, opts ...TrackerOption) *Tracker {
	t := &Tracker{
		client:   client,
		logger:   slog.Default(),
		inflight: make(map[string]domain.GenerationState),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Start submits a request. pushChannelID names an out-of-band channel the
// service may stream progress to; correctness never depends on it.
func (t *Tracker) Start(ctx context.Context, req domain.GenerationRequest, pushChannelID string) (*domain.GenerationStartResult, error) {
	res, err := t.client.StartGeneration(ctx, &swarmhq.GenerateRequest{
		DocumentType:       req.DocumentType,
		CompanyProfileID:   req.CompanyProfileID,
		OpportunityContext: req.OpportunityContext,
		Config:             req.Config,
		PushChannelID:      pushChannelID,
	})
	if err != nil {
		return nil, err
	}

	initial := domain.StateQueued
	if res.Status == "started" {
		initial = domain.StateRunning
	}

	t.mu.Lock()
	t.inflight[res.RequestID] = initial
	t.mu.Unlock()

	t.logger.Info("generation submitted",
		slog.String("request_id", res.RequestID),
		slog.String("state", string(initial)),
	)
	return res, nil
}

// Poll fetches the current status and advances the machine. The returned
// status reflects the machine's effective state, which never regresses and
// never leaves a terminal state.
func (t *Tracker) Poll(ctx context.Context, requestID string) (*domain.GenerationStatus, error) {
	status, err := t.client.GenerationStatus(ctx, requestID)
	if err != nil {
		return nil, err
	}
	status.Status = t.apply(requestID, status.Status)
	return status, nil
}

// Observe feeds an out-of-band status (push channel) through the same
// transition gate as polling and returns the effective state.
func (t *Tracker) Observe(status *domain.GenerationStatus) domain.GenerationState {
	return t.apply(status.RequestID, status.Status)
}

// State returns the tracked state for a request, if known.
func (t *Tracker) State(requestID string) (domain.GenerationState, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.inflight[requestID]
	return s, ok
}

// Release discards the in-flight state for a request. Called once the
// registry reflects completion; the registry owns the document from there.
func (t *Tracker) Release(requestID string) {
	t.mu.Lock()
	delete(t.inflight, requestID)
	t.mu.Unlock()
}

// Regenerate re-enters the machine at queued under a new request id. There
// is no automatic retry anywhere: a terminal error state stays terminal
// until the caller asks for this explicitly.
func (t *Tracker) Regenerate(ctx context.Context, documentID string, opts domain.RegenerationOptions) (*domain.GenerationStartResult, error) {
	res, err := t.client.Regenerate(ctx, documentID, NormalizeRegeneration(opts))
	if err != nil {
		return nil, err
	}

	t.mu.Lock()
	t.inflight[res.RequestID] = domain.StateQueued
	t.mu.Unlock()

	t.logger.Info("regeneration submitted",
		slog.String("document_id", documentID),
		slog.String("request_id", res.RequestID),
	)
	return res, nil
}

// NormalizeRegeneration resolves conflicting retry flags before submission:
// when both are asserted, higher-rounds wins and same-config is cleared.
// A partial NewConfig is left untouched; the service merges it over the
// chosen base.
func NormalizeRegeneration(opts domain.RegenerationOptions) domain.RegenerationOptions {
	if opts.RetryWithHigherRounds {
		opts.RetryWithSameConfig = false
	}
	return opts
}

// apply advances the machine for requestID toward observed and returns the
// effective state. Terminal states are frozen; regressions are ignored.
func (t *Tracker) apply(requestID string, observed domain.GenerationState) domain.GenerationState {
	t.mu.Lock()
	defer t.mu.Unlock()

	current, ok := t.inflight[requestID]
	if !ok {
		// First observation of a request this tracker did not submit.
		t.inflight[requestID] = observed
		return observed
	}

	if current.Terminal() {
		if observed != current {
			t.logger.Warn("ignoring status for finished request",
				slog.String("request_id", requestID),
				slog.String("state", string(current)),
				slog.String("observed", string(observed)),
			)
		}
		return current
	}

	if !reachable(current, observed) {
		t.logger.Warn("ignoring stale status",
			slog.String("request_id", requestID),
			slog.String("state", string(current)),
			slog.String("observed", string(observed)),
		)
		return current
	}

	t.inflight[requestID] = observed
	return observed
}

// WaitCondition lets callers drive their own poll loop; the tracker places
// no lower bound on poll spacing.
type WaitCondition func(*domain.GenerationStatus) bool

// Done is the WaitCondition satisfied by any terminal state.
func Done(s *domain.GenerationStatus) bool {
	return s.Status.Terminal()
}

// ErrAbandoned is returned by PollUntil when the context ends first.
// Abandoning a poll loop only stops observation; the underlying request is
// unaffected.
var ErrAbandoned = fmt.Errorf("generation: polling abandoned")

// PollUntil polls at the given interval until cond holds. The caller owns
// interval and termination; the last observed status is returned alongside
// ErrAbandoned when the context ends first.
func (t *Tracker) PollUntil(ctx context.Context, requestID string, interval time.Duration, cond WaitCondition) (*domain.GenerationStatus, error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		status, err := t.Poll(ctx, requestID)
		if err != nil {
			return nil, err
		}
		if cond(status) {
			return status, nil
		}

		select {
		case <-ctx.Done():
			return status, ErrAbandoned
		case <-ticker.C:
		}
	}
}
