package identity

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/dmitrymomot/twitterkit/pkg/logger"
	"github.com/dmitrymomot/twitterkit/pkg/oauth"
	"github.com/dmitrymomot/twitterkit/pkg/statemachine"
)

// State is a step of the sign-in flow.
type State string

const (
	StateIdle                      State = "idle"
	StateTempTokenRequested        State = "temp_token_requested"
	StateAwaitingUserAuthorization State = "awaiting_user_authorization"
	StateAccessTokenRequested      State = "access_token_requested"
	StateComplete                  State = "complete"
	StateFailed                    State = "failed"
)

type event string

const (
	eventRequestTempToken   event = "request_temp_token"
	eventRedirect           event = "redirect"
	eventRequestAccessToken event = "request_access_token"
	eventComplete           event = "complete"
	eventFail               event = "fail"
)

// TokenService is the OAuth1a half of sign-in. *oauth.OAuth1aService
// satisfies it.
type TokenService interface {
	RequestTempToken(ctx context.Context, callback string) (*oauth.Response, error)
	AuthorizeURL(tempToken oauth.Token) string
	RequestAccessToken(ctx context.Context, tempToken oauth.Token, verifier string) (*oauth.Response, error)
}

// Controller drives one sign-in flow. It is not reusable.
type Controller struct {
	service TokenService
	logger  *slog.Logger
	machine *statemachine.Machine[State, event]
}

// ControllerOption configures a Controller.
type ControllerOption func(*controllerOptions)

type controllerOptions struct {
	logger       *slog.Logger
	onTransition []func(from, to State)
}

func WithControllerLogger(l *slog.Logger) ControllerOption {
	return func(o *controllerOptions) { o.logger = l }
}

// OnTransition observes every state change after it happened.
func OnTransition(fn func(from, to State)) ControllerOption {
	return func(o *controllerOptions) {
		if fn != nil {
			o.onTransition = append(o.onTransition, fn)
		}
	}
}

func NewController(service TokenService, opts ...ControllerOption) *Controller {
	var o controllerOptions
	for _, opt := range opts {
		opt(&o)
	}

	smOpts := []statemachine.Option[State, event]{
		statemachine.WithTransition[State, event](eventRequestTempToken, StateTempTokenRequested, StateIdle),
		statemachine.WithTransition[State, event](eventRedirect, StateAwaitingUserAuthorization, StateTempTokenRequested),
		statemachine.WithTransition[State, event](eventRequestAccessToken, StateAccessTokenRequested, StateAwaitingUserAuthorization),
		statemachine.WithTransition[State, event](eventComplete, StateComplete, StateAccessTokenRequested),
		statemachine.WithTransition[State, event](eventFail, StateFailed,
			StateIdle, StateTempTokenRequested, StateAwaitingUserAuthorization, StateAccessTokenRequested),
		statemachine.WithTerminal[State, event](StateComplete, StateFailed),
	}
	for _, fn := range o.onTransition {
		smOpts = append(smOpts, statemachine.WithHook[State, event](func(from, to State, _ event) { fn(from, to) }))
	}
	return &Controller{
		service: service,
		logger:  logger.OrDiscard(o.logger).With(logger.Component("identity")),
		machine: statemachine.MustNew(StateIdle, smOpts...),
	}
}

func (c *Controller) State() State { return c.machine.Current() }

// Run performs request token, user authorization and access token in order.
// A controller that already finished returns ErrFlowFinished.
func (c *Controller) Run(ctx context.Context, a Authorizer) (*oauth.Response, error) {
	if c.machine.Terminal() {
		return nil, ErrFlowFinished
	}
	if closer, ok := a.(io.Closer); ok {
		defer closer.Close()
	}

	callback, err := a.Callback(ctx)
	if err != nil {
		return nil, c.fail(ctx, oauth.ReasonAuthorization, msgAuthorization, err)
	}

	c.logger.DebugContext(ctx, "obtaining request token to start the sign in flow")
	c.fire(eventRequestTempToken)
	temp, err := c.service.RequestTempToken(ctx, callback)
	if err != nil {
		return nil, c.fail(ctx, oauth.ReasonRequestToken, msgRequestToken, err)
	}

	c.logger.DebugContext(ctx, "redirecting user to complete authorization")
	c.fire(eventRedirect)
	verifier, err := a.Authorize(ctx, AuthorizeRequest{
		URL:         c.service.AuthorizeURL(temp.Token),
		CallbackURL: callback,
		TempToken:   temp.Token,
	})
	if err != nil {
		return nil, c.fail(ctx, oauth.ReasonAuthorization, msgAuthorization, err)
	}
	if verifier == "" {
		return nil, c.fail(ctx, oauth.ReasonAuthorization, msgBundle, nil)
	}

	c.logger.DebugContext(ctx, "converting the request token to an access token")
	c.fire(eventRequestAccessToken)
	resp, err := c.service.RequestAccessToken(ctx, temp.Token, verifier)
	if err != nil {
		return nil, c.fail(ctx, oauth.ReasonAccessToken, msgAccessToken, err)
	}

	c.fire(eventComplete)
	return resp, nil
}

// fire only sees events valid for the current step, so errors are bugs.
func (c *Controller) fire(e event) {
	if _, err := c.machine.Fire(e); err != nil {
		panic(err)
	}
}

// fail moves to StateFailed. Cancellation wins over the step's own reason.
func (c *Controller) fail(ctx context.Context, reason, message string, cause error) error {
	c.fire(eventFail)

	if oauth.IsCanceled(cause) || errors.Is(cause, context.Canceled) || ctx.Err() != nil {
		c.logger.DebugContext(ctx, "authorization canceled")
		return oauth.ErrCanceled
	}
	if cause != nil {
		c.logger.ErrorContext(ctx, message, logger.Error(cause))
	} else {
		c.logger.ErrorContext(ctx, message)
	}
	return authFailure(reason, message, cause)
}
