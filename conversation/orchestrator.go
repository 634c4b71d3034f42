// Package conversation implements the gateway's top-level state machine.
// Each inbound turn loads or creates persisted state, dispatches to the
// handler for the current stage, invokes downstream collaborators through
// the fallback executor, routes failures through the error handler, and
// persists the updated state before returning - on failure paths too, so
// retried turns observe consistent state.
//
// Turns for different sessions run fully in parallel. Turns for the same
// session must be serialized by the caller; the orchestrator performs no
// intra-session locking.
package conversation

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Purnavu-12/Gram-Sahayak-sub001/collab"
	apperrors "github.com/Purnavu-12/Gram-Sahayak-sub001/errors"
	"github.com/Purnavu-12/Gram-Sahayak-sub001/fault"
	"github.com/Purnavu-12/Gram-Sahayak-sub001/logger"
	"github.com/Purnavu-12/Gram-Sahayak-sub001/resilience"
	"github.com/Purnavu-12/Gram-Sahayak-sub001/tracing"
)

// Input is one inbound conversation turn.
type Input struct {
	SessionID         string
	UserID            string
	PreferredLanguage string
	TextInput         string
	AudioData         []byte

	// TraceContext continues a trace received over the wire, when present.
	TraceContext *tracing.TraceContext
}

// Response is the user-facing part of a turn's output.
type Response struct {
	Text       string `json:"text"`
	AudioURL   string `json:"audioUrl,omitempty"`
	VisualData any    `json:"visualData,omitempty"`
}

// ErrorInfo is the terminal error envelope.
type ErrorInfo struct {
	Code        string `json:"code"`
	Message     string `json:"message"`
	Recoverable bool   `json:"recoverable"`
}

// Output is the structured result of a turn. The orchestrator never lets
// a raw error escape; failures surface here with stage ERROR.
type Output struct {
	SessionID        string     `json:"sessionId"`
	Stage            Stage      `json:"stage"`
	Response         Response   `json:"response"`
	NextActions      []string   `json:"nextActions,omitempty"`
	NonAuthoritative bool       `json:"nonAuthoritative,omitempty"`
	Error            *ErrorInfo `json:"error,omitempty"`
}

// Collaborators are the downstream services a turn may invoke.
type Collaborators struct {
	Transcriber collab.Transcriber
	Synthesizer collab.Synthesizer
	Dialects    collab.DialectDetector
	Profiles    collab.ProfileStore
	Schemes     collab.SchemeMatcher
	Forms       collab.FormFiller
	Documents   collab.DocumentGuide
	Tracking    collab.SubmissionTracker
}

// maxRetriesPerTurn bounds in-turn retries issued by recovery directives.
const maxRetriesPerTurn = 1

// Orchestrator drives the conversation state machine.
type Orchestrator struct {
	states *StateStore
	svc    Collaborators
	exec   *resilience.Executor
	faults *fault.Handler
	tracer *tracing.Tracer
	log    *logger.Logger

	handlers map[Stage]stageHandler
}

// turn carries the per-turn working set through the stage handlers.
type turn struct {
	state *State
	text  string
	span  *tracing.Span
}

// stageResult is what a handler produces on success.
type stageResult struct {
	text        string
	visual      any
	nextActions []string
	service     string
	confidence  float64
	advanceTo   Stage // empty means stay in the current stage
}

type stageHandler func(ctx context.Context, t *turn) (stageResult, error)

// NewOrchestrator wires the state machine and its dispatch table.
func NewOrchestrator(states *StateStore, svc Collaborators, exec *resilience.Executor, faults *fault.Handler, tracer *tracing.Tracer, log *logger.Logger) *Orchestrator {
	o := &Orchestrator{
		states: states,
		svc:    svc,
		exec:   exec,
		faults: faults,
		tracer: tracer,
		log:    log.WithComponent("orchestrator"),
	}
	o.handlers = map[Stage]stageHandler{
		StageInitial:               o.handleDialectDetection,
		StageDialectDetection:      o.handleDialectDetection,
		StageProfileCollection:     o.handleProfileCollection,
		StageSchemeDiscovery:       o.handleSchemeDiscovery,
		StageSchemeSelection:       o.handleSchemeSelection,
		StageFormFilling:           o.handleFormFilling,
		StageDocumentGuidance:      o.handleDocumentGuidance,
		StageApplicationSubmission: o.handleSubmission,
		StageTracking:              o.handleTracking,
		StageCompleted:             o.handleCompleted,
		StageError:                 o.handleErrorStage,
	}
	return o
}

// ProcessTurn handles one inbound turn end to end.
func (o *Orchestrator) ProcessTurn(ctx context.Context, in Input) Output {
	span := o.tracer.ContinueTrace("conversation.turn", in.TraceContext, map[string]any{
		"user.id": in.UserID,
	})

	state, err := o.getOrCreateState(ctx, in)
	if err != nil {
		o.tracer.FinishSpan(span, tracing.StatusError, err)
		ec, rec := o.faults.Handle(ctx, err, "store", "load_state", 1)
		if rec.ResetState && in.SessionID != "" {
			// Drop the unreadable entry so the next turn starts a fresh
			// session instead of hitting the same failure again.
			if derr := o.states.Delete(ctx, in.SessionID); derr != nil {
				o.log.Error("failed to drop unreadable conversation state", logger.Fields(
					logger.FieldSessionID, in.SessionID,
					logger.FieldError, derr.Error(),
				))
			}
		}
		return Output{
			SessionID: in.SessionID,
			Stage:     StageError,
			Response:  Response{Text: rec.FallbackResponse},
			Error: &ErrorInfo{
				Code:        string(ec.Category),
				Message:     "could not load conversation state",
				Recoverable: ec.Severity != fault.SeverityCritical,
			},
		}
	}
	span.SetTag("session.id", state.SessionID)
	span.SetTag("stage", string(state.CurrentStage))

	out := o.runTurn(ctx, state, in, span)

	// Persist on every path, success or failure, so a retried turn sees
	// consistent state. A crash before this write loses only this turn.
	state.Touch()
	if err := o.states.Save(ctx, state); err != nil {
		o.log.Error("failed to persist conversation state", logger.Fields(
			logger.FieldSessionID, state.SessionID,
			logger.FieldError, err.Error(),
		))
	}

	if out.Error != nil {
		o.tracer.FinishSpan(span, tracing.StatusError, nil)
	} else {
		o.tracer.FinishSpan(span, tracing.StatusSuccess, nil)
	}
	return out
}

// History returns the ordered message list for a session.
func (o *Orchestrator) History(ctx context.Context, sessionID string) ([]Message, error) {
	state, err := o.states.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if state == nil {
		return nil, apperrors.NotFound("conversation", sessionID)
	}
	return state.Messages, nil
}

// End deletes the persisted conversation.
func (o *Orchestrator) End(ctx context.Context, sessionID string) error {
	return o.states.Delete(ctx, sessionID)
}

func (o *Orchestrator) getOrCreateState(ctx context.Context, in Input) (*State, error) {
	if in.SessionID != "" {
		state, err := o.states.Load(ctx, in.SessionID)
		if err != nil {
			return nil, err
		}
		if state != nil {
			return state, nil
		}
	}
	return NewState(uuid.New().String(), in.UserID, in.PreferredLanguage), nil
}

func (o *Orchestrator) runTurn(ctx context.Context, state *State, in Input, span *tracing.Span) Output {
	t := &turn{state: state, span: span}

	// Audio must pass through transcription before stage dispatch.
	text, transcript, err := o.resolveText(ctx, in)
	if err != nil {
		return o.recover(ctx, t, nil, "speech", err)
	}
	t.text = text

	handler, ok := o.handlers[state.CurrentStage]
	if !ok {
		handler = o.handleErrorStage
	}

	res, err := handler(ctx, t)
	if err != nil {
		return o.recover(ctx, t, handler, serviceForStage(state.CurrentStage), err)
	}

	return o.succeed(ctx, t, res, transcript)
}

// succeed appends history, advances the stage, and assembles the output.
func (o *Orchestrator) succeed(ctx context.Context, t *turn, res stageResult, transcript *collab.Transcript) Output {
	state := t.state

	if t.text != "" {
		msg := Message{Role: RoleUser, Content: t.text, Language: state.PreferredLanguage}
		if transcript != nil {
			msg.ServiceName = "speech"
			msg.Confidence = transcript.Confidence
		}
		state.Append(msg)
	}
	state.AppendAssistant(res.text, res.service, res.confidence)

	if res.advanceTo != "" {
		o.advance(state, res.advanceTo)
	}
	state.Metadata.RetryCount = 0

	out := Output{
		SessionID:   state.SessionID,
		Stage:       state.CurrentStage,
		Response:    Response{Text: res.text, VisualData: res.visual},
		NextActions: res.nextActions,
	}
	out.Response.AudioURL = o.synthesize(ctx, res.text, state.PreferredLanguage)
	return out
}

// advance walks the stage graph one validated edge at a time so no stage
// is skipped silently.
func (o *Orchestrator) advance(state *State, to Stage) {
	for state.CurrentStage != to {
		next, ok := state.CurrentStage.Next()
		if !ok || !CanTransition(state.CurrentStage, next) {
			o.log.Error("illegal stage transition dropped", logger.Fields(
				logger.FieldSessionID, state.SessionID,
				"from", string(state.CurrentStage),
				"to", string(to),
			))
			return
		}
		state.CurrentStage = next
	}
}

// resolveText prefers transcribed audio over raw text input.
func (o *Orchestrator) resolveText(ctx context.Context, in Input) (string, *collab.Transcript, error) {
	if len(in.AudioData) == 0 {
		return in.TextInput, nil, nil
	}

	outcome, err := resilience.Execute(ctx, o.exec, "speech",
		func(ctx context.Context) (collab.Transcript, error) {
			return o.svc.Transcriber.Transcribe(ctx, in.AudioData, in.PreferredLanguage)
		}, nil)
	if err != nil {
		return "", nil, err
	}
	return outcome.Value.Text, &outcome.Value, nil
}

// synthesize produces a spoken rendering of the response, best effort.
// A TTS failure never fails the turn.
func (o *Orchestrator) synthesize(ctx context.Context, text, language string) string {
	if o.svc.Synthesizer == nil || text == "" {
		return ""
	}

	ttsCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	audio, err := o.svc.Synthesizer.Synthesize(ttsCtx, text, language)
	if err != nil {
		o.log.Debug("speech synthesis skipped", logger.ErrorFields("synthesize", err))
		return ""
	}
	return audio.URL
}

// recover routes a turn failure through the error handler and applies the
// resulting strategy: an in-turn retry, a non-authoritative fallback
// response, a state reset, or a terminal error envelope.
func (o *Orchestrator) recover(ctx context.Context, t *turn, handler stageHandler, service string, err error) Output {
	state := t.state
	state.Metadata.ErrorCount++

	ec, rec := o.faults.Handle(ctx, err, service, string(state.CurrentStage), state.Metadata.ErrorCount)
	t.span.Log("warn", "turn failed", map[string]any{"category": string(ec.Category)})

	if rec.ShouldRetry && handler != nil && state.Metadata.RetryCount < maxRetriesPerTurn {
		state.Metadata.RetryCount++
		if !sleepCtx(ctx, rec.RetryDelay) {
			return o.terminal(state, ec, "request cancelled")
		}

		res, retryErr := handler(ctx, t)
		if retryErr == nil {
			return o.succeed(ctx, t, res, nil)
		}
		// One in-turn retry only; classify the second failure and fall
		// through to its fallback or a terminal envelope.
		state.Metadata.ErrorCount++
		ec, rec = o.faults.Handle(ctx, retryErr, service, string(state.CurrentStage), state.Metadata.ErrorCount)
	}

	if rec.ResetState {
		state.ResetToSafeStage()
	}

	if rec.Success && rec.FallbackResponse != "" {
		state.AppendAssistant(rec.FallbackResponse, "fallback", 0)
		out := Output{
			SessionID:        state.SessionID,
			Stage:            state.CurrentStage,
			Response:         Response{Text: rec.FallbackResponse},
			NonAuthoritative: true,
		}
		if ec.Severity == fault.SeverityCritical {
			out.Error = &ErrorInfo{Code: string(ec.Category), Message: rec.Message, Recoverable: false}
		}
		return out
	}

	return o.terminal(state, ec, rec.FallbackResponse)
}

// terminal builds the stage-ERROR envelope returned when no recovery
// resolves the turn.
func (o *Orchestrator) terminal(state *State, ec fault.ErrorContext, message string) Output {
	if message == "" {
		message = "I ran into a problem I could not recover from. Please try again."
	}
	if ec.Severity == fault.SeverityCritical {
		// Reset so the next turn starts from a clean checkpoint.
		state.ResetToSafeStage()
	}
	return Output{
		SessionID: state.SessionID,
		Stage:     StageError,
		Response:  Response{Text: message},
		Error: &ErrorInfo{
			Code:        string(ec.Category),
			Message:     message,
			Recoverable: ec.Severity != fault.SeverityCritical,
		},
	}
}

// serviceForStage names the collaborator a stage depends on, so error
// records carry the failing service rather than the stage itself.
func serviceForStage(stage Stage) string {
	switch stage {
	case StageInitial, StageDialectDetection:
		return "dialect"
	case StageProfileCollection:
		return "profiles"
	case StageSchemeDiscovery:
		return "schemes"
	case StageSchemeSelection, StageFormFilling:
		return "forms"
	case StageDocumentGuidance:
		return "documents"
	case StageApplicationSubmission, StageTracking:
		return "tracking"
	default:
		return "gateway"
	}
}

// sleepCtx waits for d unless the context ends first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
