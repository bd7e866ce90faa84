package onboarding

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/gosuda/garagedesk/internal/domain"
	"github.com/gosuda/garagedesk/internal/gateway"
)

// UnreachableMessage is reported when the preflight check fails.
const UnreachableMessage = "Server unreachable. Please try again later."

const (
	validationMessage = "Please fix the highlighted fields"
	notReadyMessage   = "Finish the earlier steps before completing onboarding"
	rejectedMessage   = "Onboarding could not be completed"
)

// Submitter performs the network side of completion.
type Submitter interface {
	Ping(ctx context.Context) error
	Complete(ctx context.Context, req *domain.CompleteOnboardingRequest) (*CompletionResponse, error)
}

// OnboardedMarker is told when completion succeeds. *auth.Manager implements it.
type OnboardedMarker interface {
	MarkOnboarded(ctx context.Context) error
}

type FailureKind int

const (
	FailureValidation FailureKind = iota + 1
	FailureUnreachable
	FailureRejected
	FailureNetwork
)

func (k FailureKind) String() string {
	switch k {
	case FailureValidation:
		return "validation"
	case FailureUnreachable:
		return "unreachable"
	case FailureRejected:
		return "rejected"
	case FailureNetwork:
		return "network"
	default:
		return "unknown"
	}
}

// Failure is the only error type Complete returns. Error() is the message to
// show; for rejections it is the server's message verbatim.
type Failure struct {
	Kind    FailureKind
	Message string
	// Step and Fields are set for validation failures.
	Step   Step
	Fields FieldErrors
	Err    error
}

func (f *Failure) Error() string { return f.Message }

func (f *Failure) Unwrap() error { return f.Err }

// CompletionResult is returned by a successful Complete.
type CompletionResult struct {
	Message string
	Data    *domain.OnboardingResult
}

// Controller owns the step cursor and the draft. All methods are safe for
// concurrent use, but Complete holds the lock for the whole submission so
// transitions wait for it.
type Controller struct {
	submitter Submitter
	marker    OnboardedMarker
	draft     *Draft

	mu     sync.Mutex
	cursor Step
	result *CompletionResult
}

type Option func(*Controller)

func WithDraft(d *Draft) Option {
	return func(c *Controller) { c.draft = d }
}

func WithOnboardedMarker(m OnboardedMarker) Option {
	return func(c *Controller) { c.marker = m }
}

func NewController(submitter Submitter, opts ...Option) *Controller {
	c := &Controller{submitter: submitter, cursor: StepWelcome}
	for _, opt := range opts {
		opt(c)
	}
	if c.draft == nil {
		c.draft = NewDraft()
	}
	return c
}

func (c *Controller) Draft() *Draft { return c.draft }

func (c *Controller) Current() Step {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cursor
}

func (c *Controller) Steps() []StepConfig {
	return StepsAt(c.Current())
}

// Next advances one step when the current step's data allows it. It reports
// whether the cursor moved.
func (c *Controller) Next() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cursor == StepComplete || !c.draft.CanProceed(c.cursor) {
		return false
	}
	c.cursor++
	return true
}

// Previous moves back one step. It is never gated.
func (c *Controller) Previous() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cursor == StepWelcome {
		return false
	}
	c.cursor--
	return true
}

// Reset abandons the setup: the draft is emptied and the cursor returns to
// the first step.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.draft.Reset()
	c.cursor = StepWelcome
	c.result = nil
}

// Complete validates the draft, checks connectivity and submits everything
// in one request. It is only accepted from STAFF_REGISTRATION; earlier
// cursors get a validation failure naming the current step. On success the
// cursor moves to COMPLETE and the draft is cleared. On failure the cursor
// and draft are left as they were and the returned error is a *Failure.
// Calling Complete again after a success returns the first result without
// another request and puts the cursor back on COMPLETE.
func (c *Controller) Complete(ctx context.Context) (*CompletionResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.result != nil {
		c.cursor = StepComplete
		return c.result, nil
	}
	if c.cursor != StepStaffRegistration {
		return nil, &Failure{Kind: FailureValidation, Message: notReadyMessage, Step: c.cursor}
	}

	data := c.draft.Snapshot()
	if step, fields := validateAll(data); len(fields) > 0 {
		return nil, &Failure{Kind: FailureValidation, Message: validationMessage, Step: step, Fields: fields}
	}

	if err := ctx.Err(); err != nil {
		return nil, networkFailure(err)
	}

	if err := c.submitter.Ping(ctx); err != nil {
		if ctx.Err() != nil {
			return nil, networkFailure(err)
		}
		log.Warn().Err(err).Msg("onboarding: preflight failed")
		return nil, &Failure{Kind: FailureUnreachable, Message: UnreachableMessage, Err: err}
	}

	resp, err := c.submitter.Complete(ctx, BuildRequest(data))
	if err != nil {
		var apiErr *gateway.Error
		if errors.As(err, &apiErr) {
			return nil, &Failure{Kind: FailureRejected, Message: apiErr.Message, Err: err}
		}
		return nil, networkFailure(err)
	}
	if !resp.Success {
		msg := resp.Message
		if msg == "" {
			msg = rejectedMessage
		}
		return nil, &Failure{Kind: FailureRejected, Message: msg}
	}

	c.cursor = StepComplete
	c.draft.Reset()
	c.result = &CompletionResult{Message: resp.Message, Data: resp.Data}

	if c.marker != nil {
		// The tenant exists server-side; a local bookkeeping error must not
		// turn this into a failure.
		if err := c.marker.MarkOnboarded(ctx); err != nil {
			log.Warn().Err(err).Msg("onboarding: could not mark session onboarded")
		}
	}

	log.Info().Str("garage", data.Garage.GarageName).Msg("onboarding: completed")
	return c.result, nil
}

func networkFailure(err error) *Failure {
	return &Failure{Kind: FailureNetwork, Message: gateway.NetworkErrorMessage, Err: err}
}
