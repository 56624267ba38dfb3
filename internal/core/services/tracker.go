package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/probelab/researchd/internal/core/domain"
	"github.com/probelab/researchd/internal/core/ports"
)

const (
	timeoutResultText = "Research process timed out. Try a simpler query or check your internet connection."
	partialResultText = "Research completed with partial results. Some data sources may have failed."
)

const defaultResearchTimeout = 7 * time.Minute

// ResearchTracker owns the session lifecycle: it creates the record, runs
// the pipeline on a background goroutine with a hard wall-clock budget, and
// writes the terminal outcome back into the store.
//
// The budget bounds only the wait, not the work: a timed-out pipeline
// invocation keeps running (and consuming resources) after the session is
// marked timeout. There is no user-initiated cancellation.
type ResearchTracker struct {
	logger   *slog.Logger
	repo     ports.SessionRepository
	pipeline ports.Pipeline
	bus      *EventBus
	timeout  time.Duration
}

func NewResearchTracker(logger *slog.Logger, repo ports.SessionRepository, pipeline ports.Pipeline, bus *EventBus, timeout time.Duration) *ResearchTracker {
	if timeout <= 0 {
		timeout = defaultResearchTimeout
	}
	return &ResearchTracker{
		logger:   logger,
		repo:     repo,
		pipeline: pipeline,
		bus:      bus,
		timeout:  timeout,
	}
}

// Submit creates a session in the started state and schedules the run.
// It never blocks on execution; failures surface later through polling.
func (t *ResearchTracker) Submit(ctx context.Context, question string) (domain.SessionID, error) {
	id := domain.SessionID(uuid.New().String())
	now := time.Now()

	session := domain.Session{
		ID:          id,
		Question:    question,
		Status:      domain.StatusStarted,
		Progress:    0,
		CurrentStep: "initializing",
		Message:     "Research session started",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := t.repo.Create(ctx, session); err != nil {
		return "", fmt.Errorf("failed to create session: %w", err)
	}

	t.publishStatus(id, domain.StatusStarted, 0)
	go t.run(context.WithoutCancel(ctx), id, question)

	return id, nil
}

// run is the background body of one session.
func (t *ResearchTracker) run(ctx context.Context, id domain.SessionID, question string) {
	t.setRunning(ctx, id)
	t.updateProgress(ctx, id, 5, "initializing", "Starting research process...")
	t.appendLog(ctx, id, fmt.Sprintf("Starting multi-source research for: %q", question))

	type outcome struct {
		state domain.ResearchState
		err   error
	}
	// Buffered so an abandoned invocation can still deliver and exit.
	resultCh := make(chan outcome, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				resultCh <- outcome{err: fmt.Errorf("pipeline panic: %v", r)}
			}
		}()
		t.appendLog(ctx, id, "Starting parallel research process...")
		t.updateProgress(ctx, id, 10, "research_started", "Running parallel searches...")
		final, err := t.pipeline.Invoke(ctx, domain.ResearchState{Question: question})
		resultCh <- outcome{state: final, err: err}
	}()

	timer := time.NewTimer(t.timeout)
	defer timer.Stop()

	select {
	case out := <-resultCh:
		if out.err != nil {
			t.failSession(ctx, id, out.err)
			return
		}
		if out.state.FinalAnswer != "" {
			t.appendLog(ctx, id, "Research completed successfully!")
			t.finish(ctx, id, domain.StatusCompleted, 100, "completed",
				"Research completed successfully!", out.state.FinalAnswer)
		} else {
			t.appendLog(ctx, id, "Research completed with some issues")
			t.finish(ctx, id, domain.StatusPartialSuccess, 90, "completed_with_issues",
				"Research completed but with some issues", partialResultText)
		}
	case <-timer.C:
		// The pipeline goroutine is not stopped; we only give up waiting.
		msg := fmt.Sprintf("Research timed out after %d minutes", int(t.timeout.Minutes()))
		t.appendLog(ctx, id, msg)
		t.finish(ctx, id, domain.StatusTimeout, 75, "timeout", msg, timeoutResultText)
	}
}

func (t *ResearchTracker) setRunning(ctx context.Context, id domain.SessionID) {
	err := t.repo.Update(ctx, id, func(s *domain.Session) {
		s.Status = domain.StatusRunning
		s.UpdatedAt = time.Now()
	})
	if err != nil {
		t.logger.Error("failed to mark session running", "session_id", id, "error", err)
		return
	}
	// The record is still at progress 0 here; the first progress write
	// follows in updateProgress. Published progress must not run ahead of
	// what a concurrent status poll can read.
	t.publishStatus(id, domain.StatusRunning, 0)
}

// updateProgress mirrors a phase transition into the record and its log.
func (t *ResearchTracker) updateProgress(ctx context.Context, id domain.SessionID, progress int, step, message string) {
	err := t.repo.Update(ctx, id, func(s *domain.Session) {
		if s.Status.Terminal() {
			return
		}
		s.Progress = progress
		s.CurrentStep = step
		s.Message = message
		s.UpdatedAt = time.Now()
	})
	if err != nil {
		t.logger.Error("failed to update session progress", "session_id", id, "error", err)
		return
	}
	t.appendLog(ctx, id, step+": "+message)
	t.publishStatus(id, domain.StatusRunning, progress)
}

// appendLog adds one timestamped line to the session output log.
func (t *ResearchTracker) appendLog(ctx context.Context, id domain.SessionID, message string) {
	line := fmt.Sprintf("[%s] %s\n", time.Now().Format("15:04:05"), message)
	err := t.repo.Update(ctx, id, func(s *domain.Session) {
		s.OutputLog += line
	})
	if err != nil {
		t.logger.Error("failed to append session log", "session_id", id, "error", err)
		return
	}
	t.logger.Info("session progress", "session_id", id, "message", message)
	t.bus.Publish(Event{
		SessionID: id,
		Type:      EventTypeLog,
		Data:      message,
		Timestamp: time.Now().Unix(),
	})
}

// finish writes a terminal state. CompletedAt is set exactly once.
func (t *ResearchTracker) finish(ctx context.Context, id domain.SessionID, status domain.SessionStatus, progress int, step, message, result string) {
	now := time.Now()
	err := t.repo.Update(ctx, id, func(s *domain.Session) {
		s.Status = status
		s.Progress = progress
		s.CurrentStep = step
		s.Message = message
		s.Result = &result
		s.UpdatedAt = now
		if s.CompletedAt == nil {
			completed := now
			s.CompletedAt = &completed
		}
	})
	if err != nil {
		t.logger.Error("failed to finish session", "session_id", id, "status", status, "error", err)
		return
	}
	t.publishStatus(id, status, progress)
}

func (t *ResearchTracker) failSession(ctx context.Context, id domain.SessionID, cause error) {
	t.logger.Error("research run failed", "session_id", id, "error", cause)
	t.appendLog(ctx, id, "Research failed: "+cause.Error())
	t.finish(ctx, id, domain.StatusError, 0, "error",
		"Error occurred: "+cause.Error(),
		"Research failed due to an error: "+cause.Error())
}

func (t *ResearchTracker) publishStatus(id domain.SessionID, status domain.SessionStatus, progress int) {
	payload, err := json.Marshal(map[string]any{
		"status":   status,
		"progress": progress,
	})
	if err != nil {
		payload = fmt.Appendf(nil, `{"status":%q}`, status)
	}
	t.bus.Publish(Event{
		SessionID: id,
		Type:      EventTypeStatus,
		Data:      string(payload),
		Timestamp: time.Now().Unix(),
	})
}
