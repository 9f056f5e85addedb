package migration

import (
	"context"

	"github.com/robfig/cron/v3"

	"github.com/onyx-go/dbkit/internal/logging"
)

// ScheduledRunner wraps a Planner+Executor pair behind a cron schedule,
// per §6.1's additive convenience on top of the core plan/apply algorithm.
type ScheduledRunner struct {
	cron     *cron.Cron
	planner  *Planner
	executor *Executor
	history  History
	logger   logging.Logger
}

// NewScheduledRunner validates cronExpr and returns a ScheduledRunner ready
// to Start against planner/executor/history.
func NewScheduledRunner(cronExpr string, planner *Planner, executor *Executor, history History) (*ScheduledRunner, error) {
	r := &ScheduledRunner{
		cron:     cron.New(),
		planner:  planner,
		executor: executor,
		history:  history,
		logger:   executor.Logger,
	}
	if r.logger == nil {
		r.logger = logging.NewNullLogger()
	}
	if _, err := r.cron.AddFunc(cronExpr, r.tick); err != nil {
		return nil, err
	}
	return r, nil
}

// Start begins the cron loop; ticks run the plan/apply cycle on their own
// goroutine managed by the underlying cron scheduler.
func (r *ScheduledRunner) Start() { r.cron.Start() }

// Stop halts the cron loop and waits for any in-flight tick to finish.
func (r *ScheduledRunner) Stop() {
	ctx := r.cron.Stop()
	<-ctx.Done()
}

// tick runs one plan_up(history, nil) + apply cycle. A failure is logged
// and does not stop the schedule: the next tick retries against whatever
// history looks like then, per §6.1.
func (r *ScheduledRunner) tick() {
	ctx := context.Background()
	applied, err := r.history.GetApplied(ctx)
	if err != nil {
		r.logger.ErrorContext(ctx, "migration scheduler: failed to read history", map[string]interface{}{"error": err.Error()})
		return
	}
	plan, err := r.planner.PlanUp(applied, "")
	if err != nil {
		r.logger.ErrorContext(ctx, "migration scheduler: failed to plan", map[string]interface{}{"error": err.Error()})
		return
	}
	if len(plan) == 0 {
		return
	}
	r.logger.InfoContext(ctx, "migration scheduler: applying pending migrations", map[string]interface{}{"count": len(plan)})
	results, err := r.executor.Apply(ctx, plan)
	if err != nil {
		r.logger.ErrorContext(ctx, "migration scheduler: run failed", map[string]interface{}{"error": err.Error()})
		return
	}
	for _, res := range results {
		if res.Err != nil {
			r.logger.WarnContext(ctx, "migration scheduler: migration did not apply, will retry next tick", map[string]interface{}{
				"migration": res.MigrationID, "error": res.Err.Error(),
			})
		}
	}
}
