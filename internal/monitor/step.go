package monitor

import (
	"github.com/dandantas/refreshwatch/internal/model"
	"github.com/dandantas/refreshwatch/internal/render"
)

// RenderKind selects the sink operation a RenderCommand maps to
type RenderKind int

const (
	RenderNone RenderKind = iota
	RenderReset
	RenderProgress
	RenderMessage
)

// RenderCommand is one presentation effect of a poll step
type RenderCommand struct {
	Kind    RenderKind
	Percent int
	Text    string
}

// Transition is the result of feeding one status snapshot to a session
type Transition struct {
	Phase   model.Phase
	Session *model.PollSession // next session state; nil once the session is finished
	Last    model.PollSession  // session as of this step, kept for bookkeeping after it finishes
	Renders []RenderCommand
	Outcome model.SessionOutcome
}

// Step derives the next state of a session from a full status snapshot.
// It is pure: the same session and status always give the same transition.
func Step(session model.PollSession, status model.JobStatus) Transition {
	if status.Locked {
		// Another consumer reports this job; stop without rendering anything
		return Transition{
			Phase: model.PhaseIdle,
			Last:  session,
			Outcome: model.SessionOutcome{
				Outcome: model.OutcomeLocked,
				State:   status.State,
			},
		}
	}

	percent := status.Percent()
	next := session
	next.Polls++
	next.LastPercent = percent

	renders := []RenderCommand{{Kind: RenderProgress, Percent: percent}}

	if status.Active() {
		return Transition{
			Phase:   model.PhasePolling,
			Session: &next,
			Last:    next,
			Renders: renders,
			Outcome: model.SessionOutcome{Outcome: model.OutcomeRunning, State: status.State},
		}
	}

	message := status.TerminalMessage()
	outcome := model.OutcomeFailed
	if status.HasResult() {
		outcome = model.OutcomeCompleted
	}

	return Transition{
		Phase:   model.PhaseTerminal,
		Session: nil,
		Last:    next,
		Renders: append(renders, RenderCommand{Kind: RenderMessage, Text: message}),
		Outcome: model.SessionOutcome{
			Outcome: outcome,
			State:   status.State,
			Message: message,
		},
	}
}

// apply maps a command onto a sink
func (c RenderCommand) apply(sink render.Sink) {
	switch c.Kind {
	case RenderReset:
		sink.Reset()
	case RenderProgress:
		sink.ShowProgress(c.Percent)
	case RenderMessage:
		sink.ShowMessage(c.Text)
	}
}
