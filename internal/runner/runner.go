package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/openai/openai-go/v2"
	"github.com/rs/zerolog"

	"github.com/petasbytes/stock-analyzer/internal/metrics"
	"github.com/petasbytes/stock-analyzer/internal/telemetry"
)

// ErrRunTimeout is wrapped by WaitOnRun when Policy.Timeout elapses first.
var ErrRunTimeout = errors.New("run did not reach a terminal status in time")

type Runner struct {
	Client *openai.Client
	Policy Policy
	Out    io.Writer // progress lines; os.Stdout when nil
	Log    zerolog.Logger
}

func New(client *openai.Client, policy Policy, out io.Writer, log zerolog.Logger) *Runner {
	return &Runner{Client: client, Policy: policy, Out: out, Log: log}
}

// IsPending reports whether status still needs polling.
func IsPending(status openai.RunStatus) bool {
	return status == openai.RunStatusQueued || status == openai.RunStatusInProgress
}

// Succeeded reports whether run finished with status completed.
func Succeeded(run *openai.Run) bool {
	return run != nil && run.Status == openai.RunStatusCompleted
}

func (r *Runner) out() io.Writer {
	if r.Out == nil {
		return os.Stdout
	}
	return r.Out
}

// CreateRun starts the assistant on the thread. instructions overrides the
// assistant's own instructions for this run only; nil keeps them.
func (r *Runner) CreateRun(ctx context.Context, threadID, assistantID string, instructions *string) (*openai.Run, error) {
	params := openai.BetaThreadRunNewParams{AssistantID: assistantID}
	if instructions != nil {
		params.Instructions = openai.String(*instructions)
	}
	run, err := r.Client.Beta.Threads.Runs.New(ctx, threadID, params)
	metrics.ObserveCall("create_run", err)
	if err != nil {
		return nil, fmt.Errorf("create run on thread %s: %w", threadID, err)
	}
	return run, nil
}

func (r *Runner) RetrieveRun(ctx context.Context, threadID, runID string) (*openai.Run, error) {
	run, err := r.Client.Beta.Threads.Runs.Get(ctx, threadID, runID)
	metrics.ObserveCall("retrieve_run", err)
	if err != nil {
		return nil, fmt.Errorf("retrieve run %s: %w", runID, err)
	}
	return run, nil
}

// RunAssistant creates a run and blocks until it reaches a terminal status.
func (r *Runner) RunAssistant(ctx context.Context, assistantID, threadID, assistantName string, instructions *string) (*openai.Run, error) {
	run, err := r.CreateRun(ctx, threadID, assistantID, instructions)
	if err != nil {
		return nil, err
	}
	return r.WaitOnRun(ctx, run, threadID, assistantName)
}

// WaitOnRun polls run until its status is terminal, rewriting a progress line
// with the elapsed time before each sleep. On cancellation or timeout it
// returns the last observed run together with the error.
func (r *Runner) WaitOnRun(ctx context.Context, run *openai.Run, threadID, assistantName string) (*openai.Run, error) {
	w := r.out()
	start := time.Now()
	fmt.Fprintf(w, "Run initiated with ID: %s\n", run.ID)
	fmt.Fprintf(w, "Waiting for response from `%s` Assistant.", assistantName)

	if r.Policy.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeoutCause(ctx, r.Policy.Timeout, ErrRunTimeout)
		defer cancel()
	}

	interval := r.Policy.first()
	polls := 0
	for IsPending(run.Status) {
		fmt.Fprintf(w, "\rWaiting for response from `%s` Assistant. Elapsed time: %.2f seconds",
			assistantName, time.Since(start).Seconds())

		if err := sleep(ctx, interval); err != nil {
			fmt.Fprintln(w)
			return run, r.interrupted(ctx, run)
		}
		next, err := r.RetrieveRun(ctx, threadID, run.ID)
		if err != nil {
			fmt.Fprintln(w)
			if ctx.Err() != nil {
				return run, r.interrupted(ctx, run)
			}
			return run, err
		}
		run = next
		polls++
		metrics.RunPolls.Inc()
		telemetry.EmitCtx(ctx, "run_polled", map[string]any{
			"run_id":      run.ID,
			"status":      string(run.Status),
			"poll":        polls,
			"interval_ms": interval.Milliseconds(),
		})
		r.Log.Debug().Str("run_id", run.ID).Str("status", string(run.Status)).Int("poll", polls).Msg("run polled")
		interval = r.Policy.next(interval)
	}

	total := time.Since(start)
	fmt.Fprintf(w, "\nDone! Response received in %.2f seconds.\n\n", total.Seconds())

	metrics.RunDuration.WithLabelValues(string(run.Status)).Observe(total.Seconds())
	telemetry.EmitCtx(ctx, "run_finished", map[string]any{
		"run_id":      run.ID,
		"status":      string(run.Status),
		"polls":       polls,
		"duration_ms": total.Milliseconds(),
	})
	return run, nil
}

func (r *Runner) interrupted(ctx context.Context, run *openai.Run) error {
	if errors.Is(context.Cause(ctx), ErrRunTimeout) {
		return fmt.Errorf("wait on run %s (last status %s) after %s: %w: %w",
			run.ID, run.Status, r.Policy.Timeout, ErrRunTimeout, ctx.Err())
	}
	return fmt.Errorf("wait on run %s (last status %s): %w", run.ID, run.Status, ctx.Err())
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
