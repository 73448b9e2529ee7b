// Package app runs the end-to-end assistant workflow behind the CLI.
package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/openai/openai-go/v2"
	"github.com/rs/zerolog"

	"github.com/petasbytes/stock-analyzer/internal/assistants"
	"github.com/petasbytes/stock-analyzer/internal/config"
	"github.com/petasbytes/stock-analyzer/internal/runner"
	"github.com/petasbytes/stock-analyzer/internal/telemetry"
	"github.com/petasbytes/stock-analyzer/memory"
)

type App struct {
	Config     *config.Config
	Assistants *assistants.Service
	Runner     *runner.Runner
	Out        io.Writer
	Log        zerolog.Logger
}

// Result carries the identifiers printed by Run.
type Result struct {
	AssistantID string
	ThreadID    string
	RunID       string
	RunStatus   openai.RunStatus
	Created     bool
	Response    string
}

func New(cfg *config.Config, client *openai.Client, out io.Writer, log zerolog.Logger) *App {
	if out == nil {
		out = os.Stdout
	}
	policy := runner.DefaultPolicy()
	if cfg.PollInterval > 0 {
		policy.Interval = cfg.PollInterval
	}
	if cfg.PollMultiplier > 0 {
		policy.Multiplier = cfg.PollMultiplier
	}
	// Zero from config means uncapped, so it is copied as-is.
	policy.MaxInterval = cfg.PollMaxInterval
	policy.Timeout = cfg.RunTimeout
	return &App{
		Config:     cfg,
		Assistants: assistants.New(client),
		Runner:     runner.New(client, policy, out, log),
		Out:        out,
		Log:        log,
	}
}

// Run resolves the assistant, opens a fresh thread, posts the prompt and waits
// for the run. Any remote error aborts the sequence. A run that ends failed,
// cancelled or expired is not an error.
func (a *App) Run(ctx context.Context) (*Result, error) {
	cfg := a.Config
	if _, ok := telemetry.SessionIDFromContext(ctx); !ok {
		ctx = telemetry.WithSessionID(ctx, telemetry.NewSessionID())
	}

	res, err := a.Assistants.Resolve(ctx, cfg.AssistantName, cfg.AssistantInstructions, cfg.Model, cfg.Reconcile)
	if err != nil {
		return nil, err
	}
	asst := res.Assistant
	if res.Created {
		fmt.Fprintf(a.Out, "No matching `%s` assistant found, creating a new assistant with ID: %s\n", cfg.AssistantName, asst.ID)
	} else {
		if asst, err = a.Assistants.RetrieveAssistant(ctx, asst.ID); err != nil {
			return nil, err
		}
		fmt.Fprintf(a.Out, "Matching `%s` assistant found, using the first matching assistant with ID: %s\n", cfg.AssistantName, asst.ID)
	}
	ev := a.Log.Info().Str("assistant_id", asst.ID).Str("outcome", res.Outcome())
	if res.Reconciled {
		ev = ev.Str("deleted_assistant_id", res.Discarded)
	}
	ev.Msg("assistant resolved")

	thread, err := a.Assistants.CreateThread(ctx)
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(a.Out, "Thread created with ID: %s\n", thread.ID)

	if _, err := a.Assistants.SendMessage(ctx, thread.ID, cfg.Prompt); err != nil {
		return nil, err
	}
	telemetry.EmitPromptFeatures(ctx, thread.ID, cfg.Prompt)

	run, err := a.Runner.RunAssistant(ctx, asst.ID, thread.ID, cfg.AssistantName, nil)
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(a.Out, "Run finished with ID: %s (status: %s)\n", run.ID, run.Status)
	if !runner.Succeeded(run) {
		a.Log.Warn().
			Str("run_id", run.ID).
			Str("status", string(run.Status)).
			Str("last_error_code", string(run.LastError.Code)).
			Str("last_error", run.LastError.Message).
			Msg("run ended without completing")
	}

	out := &Result{
		AssistantID: asst.ID,
		ThreadID:    thread.ID,
		RunID:       run.ID,
		RunStatus:   run.Status,
		Created:     res.Created,
	}

	if cfg.ShowResponse || cfg.TranscriptPath != "" {
		msgs, err := a.Assistants.ListMessages(ctx, thread.ID)
		if err != nil {
			return nil, err
		}
		if cfg.ShowResponse {
			out.Response = latestReply(msgs)
			fmt.Fprintf(a.Out, "Assistant response: %s\n", out.Response)
		}
		if cfg.TranscriptPath != "" {
			a.saveTranscript(ctx, out, msgs)
		}
	}
	return out, nil
}

// latestReply returns the text of the newest assistant message. msgs is most recent first.
func latestReply(msgs []openai.Message) string {
	for _, m := range msgs {
		if m.Role == openai.MessageRoleAssistant {
			return assistants.MessageText(m)
		}
	}
	return ""
}

func (a *App) saveTranscript(ctx context.Context, r *Result, msgs []openai.Message) {
	path := a.Config.TranscriptPath
	prev, err := memory.LoadSession(path)
	switch {
	case err != nil:
		a.Log.Warn().Err(err).Str("path", path).Msg("previous transcript unreadable, overwriting")
	case prev != nil:
		a.Log.Debug().
			Str("previous_session_id", prev.SessionID).
			Str("previous_thread_id", prev.ThreadID).
			Str("previous_run_status", prev.RunStatus).
			Msg("replacing previous transcript")
		if prev.AssistantID != r.AssistantID {
			a.Log.Warn().
				Str("previous_assistant_id", prev.AssistantID).
				Str("assistant_id", r.AssistantID).
				Msg("assistant changed since previous transcript")
		}
	}

	sid, _ := telemetry.SessionIDFromContext(ctx)
	s := &memory.Session{
		SessionID:   sid,
		AssistantID: r.AssistantID,
		ThreadID:    r.ThreadID,
		RunID:       r.RunID,
		RunStatus:   string(r.RunStatus),
		SavedAt:     time.Now().UTC(),
		Messages:    make([]memory.Message, 0, len(msgs)),
	}
	for i := len(msgs) - 1; i >= 0; i-- {
		s.Messages = append(s.Messages, memory.Message{
			Role: string(msgs[i].Role),
			Text: assistants.MessageText(msgs[i]),
		})
	}
	if err := memory.SaveSession(path, s); err != nil {
		a.Log.Warn().Err(err).Str("path", path).Msg("failed to save transcript")
	}
}
