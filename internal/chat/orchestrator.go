// Package chat drives one user question through the classification →
// retrieval → response-generation pipeline, tracking per-stage progress and
// converting every failure into a terminal bot message instead of an error
// that escapes.
package chat

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/ragworks/finchat/internal/domain"
	"github.com/ragworks/finchat/internal/ragapi"
)

// Backend is the set of RAG endpoints a turn calls, in order. Implemented by
// *ragapi.Client.
type Backend interface {
	Classify(ctx context.Context, message string) (*ragapi.ClassifyResult, error)
	Retrieve(ctx context.Context, message string, cls *ragapi.ClassifyResult) (*ragapi.RetrieveResult, error)
	Generate(ctx context.Context, message string, ret *ragapi.RetrieveResult) (*ragapi.GenerateResult, error)
}

// Sink receives the full session snapshot after every state replacement.
// Surfaces use it to re-render the in-flight placeholder as stages advance.
type Sink func(domain.Session)

// Orchestrator owns the state of one conversation and runs its turns. All
// session mutation happens by whole-value replacement under the mutex; the
// Loading flag guarantees at most one turn in flight.
type Orchestrator struct {
	backend Backend
	timeout time.Duration

	mu      sync.Mutex
	session domain.Session
	sink    Sink
}

func New(id string, backend Backend, timeout time.Duration) *Orchestrator {
	return &Orchestrator{
		backend: backend,
		timeout: timeout,
		session: domain.Session{ID: id},
	}
}

// ID returns the session identifier.
func (o *Orchestrator) ID() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.session.ID
}

// SetSink registers the render callback. The sink is invoked synchronously
// after each replacement with the new snapshot and must not call back into
// the orchestrator.
func (o *Orchestrator) SetSink(sink Sink) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sink = sink
}

// Snapshot returns the current session value.
func (o *Orchestrator) Snapshot() domain.Session {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.session
}

// SetInput stores the current (not yet submitted) input text.
func (o *Orchestrator) SetInput(text string) {
	o.replace(func(s domain.Session) domain.Session {
		s.Input = text
		return s
	})
}

// Reset clears the message list. WorkshopComplete is deliberately untouched:
// it only flips on a fresh successful turn.
func (o *Orchestrator) Reset() {
	o.replace(func(s domain.Session) domain.Session {
		return s.WithMessages(nil)
	})
}

// Append runs one full turn for the given user text and returns the final
// bot message. Exactly one final message is produced whichever stage fails.
// Returns domain.ErrTurnInFlight while a previous turn is still running and
// domain.ErrEmptyMessage for blank input.
func (o *Orchestrator) Append(ctx context.Context, text string) (domain.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return domain.Message{}, domain.ErrEmptyMessage
	}
	user, err := o.begin(0, func(domain.Session) (domain.Message, bool) {
		return domain.NewUserMessage(text), true
	})
	if err != nil {
		return domain.Message{}, err
	}
	return o.runTurn(ctx, user), nil
}

// Retry drops the most recent user/bot pair and replays the recovered user
// question as a fresh turn. Returns domain.ErrNothingToRetry when the history
// does not end in a completed pair; the session is left untouched in that
// case.
func (o *Orchestrator) Retry(ctx context.Context) (domain.Message, error) {
	user, err := o.begin(2, func(s domain.Session) (domain.Message, bool) {
		prev, ok := s.LastTurn()
		if !ok {
			return domain.Message{}, false
		}
		return domain.NewUserMessage(prev.UserQuestion), true
	})
	if err != nil {
		return domain.Message{}, err
	}
	return o.runTurn(ctx, user), nil
}

// begin gates on Loading, derives the user message from the current session,
// drops the trailing `drop` messages and appends the user message plus the
// bot-waiting placeholder, all under one lock so a racing turn cannot slip in
// between the inspection and the replacement.
func (o *Orchestrator) begin(drop int, derive func(domain.Session) (domain.Message, bool)) (domain.Message, error) {
	o.mu.Lock()
	if o.session.Loading {
		o.mu.Unlock()
		return domain.Message{}, domain.ErrTurnInFlight
	}
	user, ok := derive(o.session)
	if !ok || len(o.session.Messages) < drop {
		o.mu.Unlock()
		return domain.Message{}, domain.ErrNothingToRetry
	}
	msgs := slices.Clone(o.session.Messages[:len(o.session.Messages)-drop])
	msgs = append(msgs, user, domain.NewWaitingMessage(user.Content, placeholderContent, domain.NewTracker()))
	next := o.session.WithMessages(msgs)
	next.Loading = true
	next.Input = ""
	o.session = next
	sink := o.sink
	o.mu.Unlock()

	if sink != nil {
		sink(next)
	}
	return user, nil
}

// runTurn is the sequential three-stage pipeline. Each stage either advances
// the tracker and re-renders the placeholder or finalizes the turn; no error
// ever propagates past this method.
func (o *Orchestrator) runTurn(ctx context.Context, user domain.Message) domain.Message {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	val := domain.NewTracker()
	var chart *domain.Chart

	// Stage 1: classification.
	cls, err := o.backend.Classify(ctx, user.Content)
	if err != nil {
		return o.finalize(user, failedAnswer, failedContext, val.Failed(domain.StageClassification, diagClassifierLambda), chart, false)
	}
	if !cls.HasIndex || !cls.HasCompanies {
		return o.finalize(user, failedAnswer, failedContext, val.Failed(domain.StageClassification, diagClassifierBody), chart, false)
	}
	if !cls.Resolved() {
		choices := joinOr(cls.Companies)
		val = val.Failed(domain.StageClassification, fmt.Sprintf(diagUnresolvedCompany, choices))
		return o.finalize(user, fmt.Sprintf(msgUnresolvedCompany, choices), failedContext, val, chart, false)
	}
	val = val.Completed(domain.StageClassification).WithCompany(cls.Index).Working(domain.StageRetrieval)
	o.progress(user, val)

	// Stage 2: retrieval.
	ret, err := o.backend.Retrieve(ctx, user.Content, cls)
	if err != nil {
		return o.finalize(user, failedAnswer, failedContext, val.Failed(domain.StageRetrieval, diagRetrievalLambda), chart, false)
	}
	if ret.Series != nil {
		chart = buildChart(ret.Series)
	}
	if ret.Fatal() {
		return o.finalize(user, failedAnswer, failedContext, val.Failed(domain.StageRetrieval, "RAG Error: "+ret.ErrorExplication), chart, false)
	}
	if !ret.HasResponse {
		return o.finalize(user, failedAnswer, failedContext, val.Failed(domain.StageRetrieval, diagRetrievalBody), chart, false)
	}
	val = val.Completed(domain.StageRetrieval).Working(domain.StagePromptEngineering)
	o.progress(user, val)

	// Stage 3: response generation.
	gen, err := o.backend.Generate(ctx, user.Content, ret)
	if err != nil {
		return o.finalize(user, failedAnswer, failedContext, val.Failed(domain.StagePromptEngineering, diagResponseLambda), chart, false)
	}
	if !gen.HasResult || !gen.HasContext {
		return o.finalize(user, failedAnswer, failedContext, val.Failed(domain.StagePromptEngineering, diagResponseBody), chart, false)
	}
	if gen.Warning() {
		val = val.Warning(domain.StagePromptEngineering, "Warning: "+gen.ErrorExplication)
		return o.finalize(user, gen.Result, failedContext, val, chart, false)
	}
	val = val.Completed(domain.StagePromptEngineering)

	// Stages 4 and 5 are derived: a retrieval advisory outranks a generation
	// advisory, and only an advisory-free retrieval counts as workshop
	// completion material.
	complete := false
	switch {
	case ret.Error != "":
		val = val.Warning(domain.StageChunking, "Warning: "+ret.ErrorExplication)
	case gen.Error != "":
		val = val.Completed(domain.StageChunking).Optional(domain.StageAccuracy).
			WithInfo("Validation successful! One optional task left: " + gen.ErrorExplication)
		complete = true
	default:
		val = val.Completed(domain.StageChunking).Completed(domain.StageAccuracy).
			WithInfo("Validation successful!")
		complete = true
	}
	return o.finalize(user, gen.Result, gen.Context, val, chart, complete)
}

// progress re-renders the in-flight placeholder with an updated tracker.
func (o *Orchestrator) progress(user domain.Message, val domain.Tracker) {
	o.replace(func(s domain.Session) domain.Session {
		return s.WithMessages(swapTail(s.Messages, domain.NewWaitingMessage(user.Content, placeholderContent, val)))
	})
}

// finalize replaces the placeholder with the final bot message and releases
// the Loading gate. This is the single exit point of every turn.
func (o *Orchestrator) finalize(user domain.Message, content, context string, val domain.Tracker, chart *domain.Chart, complete bool) domain.Message {
	final := domain.NewBotMessage(user.Content, content, context, val, chart)
	next := o.replace(func(s domain.Session) domain.Session {
		s = s.WithMessages(swapTail(s.Messages, final))
		s.Loading = false
		if complete {
			s.WorkshopComplete = true
		}
		return s
	})
	slog.Info("turn finished",
		"session", next.ID,
		"outcome", val.Outcome(),
		"company", val.Company,
		"chart", chart != nil,
	)
	return final
}

// replace swaps in a new session snapshot and notifies the sink outside the
// lock.
func (o *Orchestrator) replace(mutate func(domain.Session) domain.Session) domain.Session {
	o.mu.Lock()
	next := mutate(o.session)
	o.session = next
	sink := o.sink
	o.mu.Unlock()
	if sink != nil {
		sink(next)
	}
	return next
}

// swapTail replaces the trailing bot-waiting placeholder. If the tail is not
// a placeholder (a reset raced the turn), the message is appended instead so
// the turn still yields exactly one final entry.
func swapTail(msgs []domain.Message, m domain.Message) []domain.Message {
	out := slices.Clone(msgs)
	if n := len(out); n > 0 && out[n-1].Role == domain.RoleBotWaiting {
		out[n-1] = m
		return out
	}
	return append(out, m)
}
