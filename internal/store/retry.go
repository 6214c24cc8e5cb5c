package store

import (
	"context"

	"github.com/aitools-hub/catalog-cli/internal/model"
	"github.com/aitools-hub/catalog-cli/internal/resilience"
)

// RetryStore wraps a Store and retries calls that fail transiently.
type RetryStore struct {
	next Store
	cfg  resilience.RetryConfig
}

// WithRetry decorates st with cfg's retry policy.
func WithRetry(st Store, cfg resilience.RetryConfig) *RetryStore {
	return &RetryStore{next: st, cfg: cfg}
}

func (s *RetryStore) policy(op string) resilience.RetryConfig {
	cfg := s.cfg
	if cfg.OnRetry == nil {
		cfg.OnRetry = resilience.RetryLogger(op)
	}
	return cfg
}

func (s *RetryStore) CreateRun(ctx context.Context, input model.RunInput) (*model.Run, error) {
	return resilience.DoVal(ctx, s.policy("create_run"), func(ctx context.Context) (*model.Run, error) {
		return s.next.CreateRun(ctx, input)
	})
}

func (s *RetryStore) CompleteRun(ctx context.Context, runID string, report *model.ChangeReport) error {
	return resilience.Do(ctx, s.policy("complete_run"), func(ctx context.Context) error {
		return s.next.CompleteRun(ctx, runID, report)
	})
}

func (s *RetryStore) FailRun(ctx context.Context, runID string, message string) error {
	return resilience.Do(ctx, s.policy("fail_run"), func(ctx context.Context) error {
		return s.next.FailRun(ctx, runID, message)
	})
}

func (s *RetryStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	return resilience.DoVal(ctx, s.policy("get_run"), func(ctx context.Context) (*model.Run, error) {
		return s.next.GetRun(ctx, runID)
	})
}

func (s *RetryStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	return resilience.DoVal(ctx, s.policy("list_runs"), func(ctx context.Context) ([]model.Run, error) {
		return s.next.ListRuns(ctx, filter)
	})
}

func (s *RetryStore) CreatePhase(ctx context.Context, runID string, name string) (*model.RunPhase, error) {
	return resilience.DoVal(ctx, s.policy("create_phase"), func(ctx context.Context) (*model.RunPhase, error) {
		return s.next.CreatePhase(ctx, runID, name)
	})
}

func (s *RetryStore) CompletePhase(ctx context.Context, phaseID string, result *model.PhaseResult) error {
	return resilience.Do(ctx, s.policy("complete_phase"), func(ctx context.Context) error {
		return s.next.CompletePhase(ctx, phaseID, result)
	})
}

func (s *RetryStore) ListPhases(ctx context.Context, runID string) ([]model.RunPhase, error) {
	return resilience.DoVal(ctx, s.policy("list_phases"), func(ctx context.Context) ([]model.RunPhase, error) {
		return s.next.ListPhases(ctx, runID)
	})
}

func (s *RetryStore) Migrate(ctx context.Context) error {
	return resilience.Do(ctx, s.policy("migrate"), s.next.Migrate)
}

func (s *RetryStore) Close() error {
	return s.next.Close()
}
