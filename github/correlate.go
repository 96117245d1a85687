package github

import (
	"context"
	"log/slog"
	"strings"
	"time"
)

// RunLister is the gateway capability the correlator needs.
type RunLister interface {
	ListWorkflowRuns(ctx context.Context, owner, repo, workflowFile string, limit int, branch string) ([]WorkflowRun, error)
}

// CorrelatorConfig tunes the retry loop and the matching heuristics. The
// recency window and attempt/delay counts are load-bearing for correctness
// under GitHub's dispatch latency.
type CorrelatorConfig struct {
	// InitialDelay is the mandatory wait before the first attempt, giving
	// GitHub's backend time to materialize the run.
	InitialDelay time.Duration
	// RetryDelay separates attempts.
	RetryDelay time.Duration
	// MaxAttempts bounds the retry loop.
	MaxAttempts int
	// RecencyWindow is how far back a queued/in-progress run may have been
	// created and still count as "ours".
	RecencyWindow time.Duration
	// PageSize bounds each run listing.
	PageSize int
}

func DefaultCorrelatorConfig() CorrelatorConfig {
	return CorrelatorConfig{
		InitialDelay:  3 * time.Second,
		RetryDelay:    5 * time.Second,
		MaxAttempts:   5,
		RecencyWindow: 30 * time.Second,
		PageSize:      20,
	}
}

// CorrelationRequest describes a dispatch that just returned successfully.
type CorrelationRequest struct {
	Owner        string
	Repo         string
	WorkflowFile string
	Branch       string
	// BuildNumber is the primary correlation signal: CI conventionally
	// names runs using the build identifier passed as an input.
	BuildNumber string
}

// Correlator locates the run GitHub assigned to a dispatch. The dispatch API
// is fire-and-forget, so this is inherently a race: the run may not exist
// yet at call time, and a concurrent dispatch to the same workflow and
// branch can be picked up instead. Best effort, by design of the underlying
// API, and a wrong guess is user-correctable.
type Correlator struct {
	gateway RunLister
	config  CorrelatorConfig

	// injectable for tests
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

func NewCorrelator(gateway RunLister, config CorrelatorConfig) *Correlator {
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 1
	}
	if config.PageSize <= 0 {
		config.PageSize = 20
	}
	return &Correlator{
		gateway: gateway,
		config:  config,
		now:     time.Now,
		sleep:   sleepContext,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Locate finds the run resulting from the dispatch described by req. It
// returns nil on a miss, never an error: a deployment without a run id is a
// valid outcome and the trigger must not fail because of it. Listing errors
// consume an attempt and the loop continues.
func (c *Correlator) Locate(ctx context.Context, req CorrelationRequest) *WorkflowRun {
	if err := c.sleep(ctx, c.config.InitialDelay); err != nil {
		return nil
	}

	for attempt := 1; attempt <= c.config.MaxAttempts; attempt++ {
		if attempt > 1 {
			if err := c.sleep(ctx, c.config.RetryDelay); err != nil {
				return nil
			}
		}

		runs, err := c.gateway.ListWorkflowRuns(ctx, req.Owner, req.Repo, req.WorkflowFile, c.config.PageSize, req.Branch)
		if err != nil {
			slog.Warn("Run listing failed during correlation",
				"owner", req.Owner,
				"repo", req.Repo,
				"workflow_file", req.WorkflowFile,
				"attempt", attempt,
				"error", err)
			continue
		}

		final := attempt == c.config.MaxAttempts
		if run, strategy := c.match(runs, req, final); run != nil {
			slog.Info("Correlated dispatch to workflow run",
				"owner", req.Owner,
				"repo", req.Repo,
				"workflow_file", req.WorkflowFile,
				"build_number", req.BuildNumber,
				"run_id", run.ID,
				"strategy", strategy,
				"attempt", attempt)
			return run
		}
	}

	slog.Warn("Could not correlate dispatch to any workflow run",
		"owner", req.Owner,
		"repo", req.Repo,
		"workflow_file", req.WorkflowFile,
		"build_number", req.BuildNumber,
		"attempts", c.config.MaxAttempts)
	return nil
}

// match applies the tie-break strategies in priority order:
//  1. a run whose display name contains the build number;
//  2. the newest queued/in-progress run created within the recency window;
//  3. on the final attempt only, the newest run regardless of age or status
//     (a best-effort guess beats no correlation at all).
//
// The order is observable behavior under concurrent dispatch; do not
// reorder.
func (c *Correlator) match(runs []WorkflowRun, req CorrelationRequest, finalAttempt bool) (*WorkflowRun, string) {
	if len(runs) == 0 {
		return nil, ""
	}

	if req.BuildNumber != "" {
		for i := range runs {
			if strings.Contains(runs[i].Name, req.BuildNumber) {
				return &runs[i], "name"
			}
		}
	}

	cutoff := c.now().Add(-c.config.RecencyWindow)
	var recent *WorkflowRun
	for i := range runs {
		run := &runs[i]
		if run.Status != RunStatusQueued && run.Status != RunStatusInProgress {
			continue
		}
		if run.CreatedAt.Before(cutoff) {
			continue
		}
		if recent == nil || run.CreatedAt.After(recent.CreatedAt) {
			recent = run
		}
	}
	if recent != nil {
		return recent, "recency"
	}

	if finalAttempt {
		newest := &runs[0]
		for i := range runs {
			if runs[i].CreatedAt.After(newest.CreatedAt) {
				newest = &runs[i]
			}
		}
		return newest, "fallback"
	}

	return nil, ""
}
