package gate

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/abhisek/readgate/internal/policy"
	"github.com/abhisek/readgate/internal/qa"
	"github.com/abhisek/readgate/internal/source"
)

// SourceResolver resolves an action's effective source. *source.Resolver
// satisfies it.
type SourceResolver interface {
	Resolve(ctx context.Context, desc source.ActionDescriptor) (source.EffectiveSource, error)
}

// Config bounds the asynchronous stages.
type Config struct {
	// GenerationTimeout is terminal: the workflow ends with an error.
	GenerationTimeout time.Duration

	// ValidationTimeout is recoverable: the quiz stays active.
	ValidationTimeout time.Duration
}

// DefaultConfig returns the production timeouts.
func DefaultConfig() Config {
	return Config{
		GenerationTimeout: 30 * time.Second,
		ValidationTimeout: 15 * time.Second,
	}
}

// Deps are the collaborators a Controller drives.
type Deps struct {
	Resolver  SourceResolver
	Policy    *policy.Policy
	Generator QuestionGenerator
	Validator *AnswerValidator
	Resumer   *ActionResumer
	Config    Config
	Metrics   *Metrics
	Log       *zap.Logger
}

// Trace describes a finished workflow.
type Trace struct {
	WorkflowID  string
	Source      source.EffectiveSource
	Requirement policy.Requirement
	Path        []State
	Started     time.Time
	Finished    time.Time
}

// Controller runs one gate workflow. All state is owned by the goroutine
// inside Run; other goroutines talk to it through commands and completion
// events, each tagged with the attempt it belongs to so late results of
// superseded work are dropped.
type Controller struct {
	deps     Deps
	surfaces Surfaces
	log      *zap.Logger
	id       string

	started atomic.Bool
	current atomic.Int32

	events chan any
	done   chan struct{}
	wg     sync.WaitGroup
	once   sync.Once

	// Owned by the loop.
	ctx        context.Context
	uiCtx      context.Context
	desc       source.ActionDescriptor
	attempt    uint64
	opCancel   context.CancelFunc
	genTimer   *time.Timer
	src        source.EffectiveSource
	req        policy.Requirement
	session    *qa.Session
	intentMode bool
	reader     bool
	quizShown  bool
	path       []State
	entered    time.Time
	verdict    Verdict
	runErr     error
	trace      Trace
}

// NewController creates a Controller for a single workflow.
func NewController(deps Deps, surfaces Surfaces) *Controller {
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	if deps.Config.GenerationTimeout <= 0 {
		deps.Config.GenerationTimeout = DefaultConfig().GenerationTimeout
	}
	if deps.Config.ValidationTimeout <= 0 {
		deps.Config.ValidationTimeout = DefaultConfig().ValidationTimeout
	}
	if deps.Resumer == nil {
		deps.Resumer = NewActionResumer(nil)
	}
	id := uuid.NewString()
	return &Controller{
		deps:     deps,
		surfaces: surfaces,
		log:      deps.Log.With(zap.String("workflow_id", id)),
		id:       id,
		events:   make(chan any),
		done:     make(chan struct{}),
	}
}

// ID returns the workflow id.
func (c *Controller) ID() string { return c.id }

// State returns the current state. Safe from any goroutine.
func (c *Controller) State() State { return State(c.current.Load()) }

// Done is closed when the workflow has terminated.
func (c *Controller) Done() <-chan struct{} { return c.done }

// Trace returns the workflow trace. Valid after Run returns.
func (c *Controller) Trace() Trace { return c.trace }

// completion events

type resolvedEvent struct {
	attempt uint64
	src     source.EffectiveSource
	err     error
}

type generatedEvent struct {
	attempt uint64
	res     qa.GenerateResult
	err     error
}

type generationTimeoutEvent struct {
	attempt uint64
}

type validatedEvent struct {
	attempt uint64
	verdict Verdict
	err     error
}

// commands

type commandKind int

const (
	cmdCompleteReading commandKind = iota
	cmdSubmitIntent
	cmdSubmit
	cmdClose
)

type command struct {
	kind    commandKind
	answers []int
	text    string
	reply   chan error
}

// Run executes the workflow for desc and blocks until it terminates. It may
// be called once; later calls return ErrBusy. The returned error is non-nil
// for hard failures: a missing required source, a generation timeout, a
// cancelled ctx, or a failing continuation.
func (c *Controller) Run(ctx context.Context, desc source.ActionDescriptor) (Verdict, error) {
	if !c.started.CompareAndSwap(false, true) {
		return Verdict{}, ErrBusy
	}

	c.deps.Metrics.addActive(ctx, 1)
	defer c.deps.Metrics.addActive(context.WithoutCancel(ctx), -1)

	var cancel context.CancelFunc
	c.ctx, cancel = context.WithCancel(ctx)
	c.uiCtx = context.WithoutCancel(ctx)
	c.desc = desc
	c.trace = Trace{WorkflowID: c.id, Started: time.Now()}
	c.path = []State{StateIdle}
	c.entered = c.trace.Started

	c.transition(StateResolving)
	c.startResolve()

	for c.State() != StateResolved {
		select {
		case ev := <-c.events:
			c.handle(ev)
		case <-c.ctx.Done():
			c.finish(Verdict{Outcome: OutcomeAbandoned, Reason: "cancelled"}, ctx.Err())
		}
	}

	c.terminate()
	cancel()
	close(c.done)
	c.wg.Wait()

	c.trace.Finished = time.Now()
	c.trace.Source = c.src
	c.trace.Requirement = c.req
	c.trace.Path = c.path
	return c.verdict, c.runErr
}

// CompleteReading moves from reading to generating.
func (c *Controller) CompleteReading() error {
	return c.send(command{kind: cmdCompleteReading})
}

// SubmitIntent supplies the opinion requested by the intent prompt.
func (c *Controller) SubmitIntent(text string) error {
	return c.send(command{kind: cmdSubmitIntent, text: text})
}

// Submit sends answers for scoring. While a submission is in flight further
// submissions return ErrBusy.
func (c *Controller) Submit(answers []int) error {
	return c.send(command{kind: cmdSubmit, answers: append([]int(nil), answers...)})
}

// Close abandons the workflow. It is refused while validating.
func (c *Controller) Close() error {
	return c.send(command{kind: cmdClose})
}

func (c *Controller) send(cmd command) error {
	if !c.started.Load() {
		return fmt.Errorf("%w: workflow not started", ErrInvalidTransition)
	}
	cmd.reply = make(chan error, 1)
	select {
	case c.events <- cmd:
	case <-c.done:
		return ErrWorkflowClosed
	}
	select {
	case err := <-cmd.reply:
		return err
	case <-c.done:
		return ErrWorkflowClosed
	}
}

// post delivers a completion event unless the workflow has ended.
func (c *Controller) post(ev any) {
	select {
	case c.events <- ev:
	case <-c.done:
	}
}

// spawn runs fn in a tracked goroutine; Run waits for all of them.
func (c *Controller) spawn(fn func()) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		fn()
	}()
}

// beginOp supersedes any in-flight operation and returns a context for the
// next one along with its attempt token.
func (c *Controller) beginOp(timeout time.Duration) (context.Context, uint64) {
	c.cancelOp()
	c.attempt++
	var ctx context.Context
	if timeout > 0 {
		ctx, c.opCancel = context.WithTimeout(c.ctx, timeout)
	} else {
		ctx, c.opCancel = context.WithCancel(c.ctx)
	}
	return ctx, c.attempt
}

func (c *Controller) cancelOp() {
	if c.opCancel != nil {
		c.opCancel()
		c.opCancel = nil
	}
}

func (c *Controller) transition(to State) {
	from := c.State()
	if !canTransition(from, to) {
		// Unreachable from the handlers below; a bug if it fires.
		c.log.DPanic("illegal transition", zap.Stringer("from", from), zap.Stringer("to", to))
	}
	now := time.Now()
	c.deps.Metrics.recordStage(c.uiCtx, from, now.Sub(c.entered))
	c.entered = now
	c.path = append(c.path, to)
	c.current.Store(int32(to))
	c.log.Debug("transition", zap.Stringer("from", from), zap.Stringer("to", to))
}

func (c *Controller) handle(ev any) {
	switch ev := ev.(type) {
	case command:
		ev.reply <- c.handleCommand(ev)
	case resolvedEvent:
		if ev.attempt == c.attempt && c.State() == StateResolving {
			c.onResolved(ev)
		}
	case generatedEvent:
		if ev.attempt == c.attempt && c.State() == StateGenerating {
			c.onGenerated(ev)
		} else {
			c.log.Debug("dropping stale generation result")
		}
	case generationTimeoutEvent:
		if ev.attempt == c.attempt && c.State() == StateGenerating {
			c.log.Warn("question generation timed out", zap.Duration("timeout", c.deps.Config.GenerationTimeout))
			c.finish(Verdict{Outcome: OutcomeError, Reason: "generation_timeout"}, ErrGenerationTimeout)
		}
	case validatedEvent:
		if ev.attempt == c.attempt && c.State() == StateValidating {
			c.onValidated(ev)
		}
	}
}

func (c *Controller) handleCommand(cmd command) error {
	state := c.State()
	switch cmd.kind {
	case cmdCompleteReading:
		if state == StateGenerating {
			return ErrBusy
		}
		if state != StateReading || c.intentMode {
			return fmt.Errorf("%w: complete reading in %s", ErrInvalidTransition, state)
		}
		c.startGeneration()
		return nil

	case cmdSubmitIntent:
		if state != StateReading || !c.intentMode {
			return fmt.Errorf("%w: intent in %s", ErrInvalidTransition, state)
		}
		if !c.deps.Policy.IntentSatisfied(cmd.text) {
			return ErrIntentTooShort
		}
		c.finish(Verdict{Outcome: OutcomeBypassed, Reason: ReasonIntentFallback, IntentText: cmd.text}, nil)
		return nil

	case cmdSubmit:
		if state == StateValidating {
			return ErrBusy
		}
		if state != StateQuizActive {
			return fmt.Errorf("%w: submit in %s", ErrInvalidTransition, state)
		}
		if len(cmd.answers) != len(c.session.Questions) {
			return fmt.Errorf("%w: got %d, want %d", qa.ErrAnswerCount, len(cmd.answers), len(c.session.Questions))
		}
		c.startValidation(cmd.answers)
		return nil

	case cmdClose:
		switch state {
		case StateResolving, StateReading, StateGenerating, StateQuizActive:
			c.finish(Verdict{Outcome: OutcomeAbandoned, Reason: "closed_by_user"}, nil)
			return nil
		case StateValidating:
			return fmt.Errorf("%w: close while validating", ErrInvalidTransition)
		}
		return ErrWorkflowClosed
	}
	return ErrInvalidTransition
}

func (c *Controller) startResolve() {
	ctx, attempt := c.beginOp(0)
	desc := c.desc
	c.spawn(func() {
		src, err := c.deps.Resolver.Resolve(ctx, desc)
		c.post(resolvedEvent{attempt: attempt, src: src, err: err})
	})
}

func (c *Controller) onResolved(ev resolvedEvent) {
	c.cancelOp()
	if ev.err != nil {
		reason := "resolution_failed"
		if errors.Is(ev.err, ErrRequiredSourceMissing) {
			reason = "required_source_missing"
		}
		c.log.Warn("source resolution failed", zap.String("reason", reason), zap.Error(ev.err))
		c.showError(UserError{Message: "This post's source could not be verified, so it cannot be shared.", Err: ev.err})
		c.finish(Verdict{Outcome: OutcomeError, Reason: reason}, ev.err)
		return
	}

	c.src = ev.src
	c.req = c.deps.Policy.Compute(policy.InputFor(ev.src, c.desc))

	if !c.req.Required {
		reason := c.req.Reason
		if reason == "" {
			reason = ReasonNotRequired
		}
		c.finish(Verdict{Outcome: OutcomeBypassed, Reason: reason}, nil)
		return
	}
	if !c.src.Presentable() {
		c.finish(Verdict{Outcome: OutcomeBypassed, Reason: ReasonNotPresentable}, nil)
		return
	}

	c.transition(StateReading)
	view := ReaderView{Source: c.src, Requirement: c.req, Intent: c.desc.Intent, UserText: c.desc.UserText}
	if err := c.surfaces.ShowReader(c.uiCtx, view); err != nil {
		c.log.Error("reader surface failed", zap.Error(err))
		c.finish(Verdict{Outcome: OutcomeError, Reason: "surface_failed"}, err)
		return
	}
	c.reader = true
}

// generationRequest captures the source and requirement by value: the
// reader may be torn down while the request is in flight.
func (c *Controller) generationRequest() qa.GenerateRequest {
	req := qa.GenerateRequest{
		ActorID:       c.desc.ActorUserID,
		UserText:      c.desc.UserText,
		QuestionCount: c.req.QuestionCount,
		TestMode:      c.req.TestMode,
	}
	switch c.src.Kind {
	case source.KindURL:
		req.SourceRef = c.src.URL
	case source.KindEditorial:
		req.SourceRef = source.EditorialURL(c.src.EditorialID)
		req.SummaryText = c.src.Body
	case source.KindMediaOCR:
		req.SourceRef = "media:" + c.src.MediaID
		req.SummaryText = c.src.Text
	case source.KindSelfText:
		req.SummaryText = c.src.Text
	}
	return req
}

func (c *Controller) startGeneration() {
	req := c.generationRequest()
	ctx, attempt := c.beginOp(0)
	c.transition(StateGenerating)

	c.wg.Add(1)
	c.genTimer = time.AfterFunc(c.deps.Config.GenerationTimeout, func() {
		defer c.wg.Done()
		c.post(generationTimeoutEvent{attempt: attempt})
	})

	c.spawn(func() {
		res, err := c.deps.Generator.GenerateQuestions(ctx, req)
		c.post(generatedEvent{attempt: attempt, res: res, err: err})
	})
}

func (c *Controller) stopGenTimer() {
	if c.genTimer != nil {
		if c.genTimer.Stop() {
			c.wg.Done()
		}
		c.genTimer = nil
	}
}

func (c *Controller) onGenerated(ev generatedEvent) {
	c.stopGenTimer()
	c.cancelOp()

	if ev.err != nil {
		c.recoverToReading(&GenerationError{Kind: qa.ErrorProvider, Err: ev.err})
		return
	}

	switch ev.res.Kind {
	case qa.ResultInsufficientContext:
		c.finish(Verdict{Outcome: OutcomeBypassed, Reason: ReasonInsufficientContext}, nil)
		return

	case qa.ResultError:
		if ev.res.ErrorKind == qa.ErrorTranscriptUnavailable {
			c.enterIntentMode()
			return
		}
		c.recoverToReading(&GenerationError{Kind: ev.res.ErrorKind, Message: ev.res.Error})
		return
	}

	if ev.res.Session == nil || len(ev.res.Session.Questions) == 0 {
		c.recoverToReading(&GenerationError{Kind: qa.ErrorInvalidOutput, Message: "empty quiz"})
		return
	}
	c.session = ev.res.Session

	// Mount the quiz before the reader goes away, and silence the reader
	// before unmounting it.
	if err := c.surfaces.ShowQuiz(c.uiCtx, *c.session); err != nil {
		// A mount that timed out may still have drawn the quiz.
		if herr := c.surfaces.HideQuiz(c.uiCtx); herr != nil {
			c.log.Warn("hide quiz failed", zap.Error(herr))
		}
		c.recoverToReading(&GenerationError{Kind: qa.ErrorInvalidOutput, Err: err})
		return
	}
	c.quizShown = true
	c.transition(StateQuizActive)
	c.hideReader()
}

// enterIntentMode handles a source whose transcript is unavailable: long
// enough user text stands in for it, otherwise the user is asked for an
// opinion.
func (c *Controller) enterIntentMode() {
	if c.deps.Policy.IntentSatisfied(c.desc.UserText) {
		c.finish(Verdict{Outcome: OutcomeBypassed, Reason: ReasonIntentFallback, IntentText: c.desc.UserText}, nil)
		return
	}
	c.intentMode = true
	c.transition(StateReading)
	if err := c.surfaces.ShowIntentPrompt(c.uiCtx, c.deps.Policy.IntentMinWords()); err != nil {
		c.log.Error("intent prompt failed", zap.Error(err))
		c.finish(Verdict{Outcome: OutcomeError, Reason: "surface_failed"}, err)
	}
}

func (c *Controller) recoverToReading(err *GenerationError) {
	c.log.Warn("question generation failed", zap.String("error_kind", string(err.Kind)), zap.Error(err))
	c.transition(StateReading)
	c.showError(UserError{Message: "Couldn't prepare the quiz. Try again.", Retryable: true, Err: err})
}

func (c *Controller) startValidation(answers []int) {
	ctx, attempt := c.beginOp(c.deps.Config.ValidationTimeout)
	qaID := c.session.QAID
	c.transition(StateValidating)
	c.spawn(func() {
		v, err := c.deps.Validator.Validate(ctx, qaID, answers)
		c.post(validatedEvent{attempt: attempt, verdict: v, err: err})
	})
}

func (c *Controller) onValidated(ev validatedEvent) {
	c.cancelOp()
	if ev.err != nil {
		c.log.Warn("answer validation failed", zap.Error(ev.err))
		c.transition(StateQuizActive)
		c.showError(UserError{Message: "Couldn't check your answers. Submit again.", Retryable: true, Err: ev.err})
		return
	}
	c.finish(ev.verdict, nil)
}

func (c *Controller) showError(e UserError) {
	if err := c.surfaces.ShowError(c.uiCtx, e); err != nil {
		c.log.Debug("error surface failed", zap.Error(err))
	}
}

func (c *Controller) hideReader() {
	if !c.reader {
		return
	}
	if err := c.surfaces.StopPlayback(c.uiCtx); err != nil {
		c.log.Warn("stop playback failed", zap.Error(err))
	}
	if err := c.surfaces.HideReader(c.uiCtx); err != nil {
		c.log.Warn("hide reader failed", zap.Error(err))
	}
	c.reader = false
}

func (c *Controller) hideQuiz() {
	if !c.quizShown {
		return
	}
	if err := c.surfaces.HideQuiz(c.uiCtx); err != nil {
		c.log.Warn("hide quiz failed", zap.Error(err))
	}
	c.quizShown = false
}

// finish is the single terminal transition.
func (c *Controller) finish(v Verdict, err error) {
	if c.State() == StateResolved {
		return
	}
	c.stopGenTimer()
	c.cancelOp()
	c.hideReader()
	c.hideQuiz()

	c.verdict = v
	c.runErr = err
	c.transition(StateResolved)
}

// terminate hands the verdict to the resumer and the user.
func (c *Controller) terminate() {
	res := c.deps.Resumer.Resume(&c.once, c.verdict, c.desc.Intent, c.desc.Continuation)
	c.verdict.Resumed = res.Invoked
	c.verdict.DegradedOption = res.DegradedOption
	if res.Err != nil {
		c.log.Error("continuation failed", zap.Error(res.Err))
		if c.runErr == nil {
			c.runErr = fmt.Errorf("resume action: %w", res.Err)
		}
	}

	if err := c.surfaces.ShowVerdict(c.uiCtx, c.verdict); err != nil {
		c.log.Debug("verdict surface failed", zap.Error(err))
	}
	c.transition(StateTerminated)

	fields := []zap.Field{
		zap.String("outcome", string(c.verdict.Outcome)),
		zap.String("state_path", statePath(c.path)),
		zap.Bool("resumed", c.verdict.Resumed),
	}
	if c.verdict.Outcome == OutcomeBypassed {
		fields = append(fields, zap.String("bypass_reason", c.verdict.Reason))
	}
	if c.runErr != nil {
		fields = append(fields, zap.Error(c.runErr))
	}
	c.log.Info("gate workflow finished", fields...)
}
