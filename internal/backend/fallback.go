package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"facility-intake-backend/internal/metrics"
	"facility-intake-backend/internal/types"
)

// DefaultFallbackDelay keeps the switch into degraded mode from flashing instantly.
const DefaultFallbackDelay = 600 * time.Millisecond

// DegradedResult is what every public operation returns. IsFallback is only ever
// set by Execute when it serves a substitute.
type DegradedResult[T any] struct {
	Value      T
	IsFallback bool
}

// Sender is the transport the coordinator drives.
type Sender interface {
	Send(ctx context.Context, url string, body []byte) ([]byte, error)
	SendBlind(ctx context.Context, url string, body []byte) error
}

type CoordinatorOptions struct {
	URL    string
	Delay  time.Duration
	Logger *zap.Logger
}

// Coordinator is the only path from domain operations to the remote endpoint.
type Coordinator struct {
	sender Sender
	url    string
	delay  time.Duration
	logger *zap.Logger
}

func NewCoordinator(sender Sender, opts CoordinatorOptions) *Coordinator {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	delay := opts.Delay
	if delay < 0 {
		delay = 0
	}
	return &Coordinator{
		sender: sender,
		url:    opts.URL,
		delay:  delay,
		logger: logger.With(zap.String("component", "fallback")),
	}
}

// NewEnvelope builds a request envelope. Actions form a closed set; an unknown
// action is a programming error.
func NewEnvelope(action types.Action, payload any) types.Envelope {
	if !action.Known() {
		panic(fmt.Sprintf("backend: unknown action %q", action))
	}
	return types.Envelope{Action: action, Payload: payload}
}

// Execute sends env and decodes a successful response into T. On any failure it
// serves substitute after the fallback delay when one is given, and otherwise
// returns the underlying error unchanged.
func Execute[T any](ctx context.Context, c *Coordinator, env types.Envelope, substitute *T) (DegradedResult[T], error) {
	var out DegradedResult[T]
	err := c.call(ctx, env, func(data json.RawMessage) error {
		return json.Unmarshal(data, &out.Value)
	})
	if err == nil {
		return out, nil
	}
	if substitute == nil {
		return DegradedResult[T]{}, err
	}
	c.pause(ctx)
	metrics.ObserveFallback(string(env.Action))
	c.logger.Info("serving substitute data", zap.String("action", string(env.Action)))
	return DegradedResult[T]{Value: *substitute, IsFallback: true}, nil
}

// call performs one send, classification and decode, recording exactly one
// outcome. The returned error is one of *NetworkError, *HTTPStatusError,
// *TransportFailure or *ApplicationError.
func (c *Coordinator) call(ctx context.Context, env types.Envelope, decode func(json.RawMessage) error) error {
	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("encode %s envelope: %w", env.Action, err)
	}
	raw, err := c.sender.Send(ctx, c.url, body)
	if err != nil {
		c.report(env.Action, err)
		return err
	}
	switch res := Classify(raw).(type) {
	case *Success:
		if err := decode(res.Data); err != nil {
			tf := &TransportFailure{Cause: CauseUnexpectedShape, Snippet: snippet(res.Data)}
			c.report(env.Action, tf)
			return tf
		}
		metrics.ObserveUpstream(string(env.Action), "success")
		return nil
	case *ApplicationError:
		c.report(env.Action, res)
		return res
	case *TransportFailure:
		c.report(env.Action, res)
		return res
	default:
		panic(fmt.Sprintf("backend: unhandled classification %T", res))
	}
}

// SendBlind delivers env without looking at the answer.
func (c *Coordinator) SendBlind(ctx context.Context, env types.Envelope) error {
	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("encode %s envelope: %w", env.Action, err)
	}
	return c.sender.SendBlind(ctx, c.url, body)
}

func (c *Coordinator) report(action types.Action, err error) {
	if appErr, ok := err.(*ApplicationError); ok {
		metrics.ObserveUpstream(string(action), "application_error")
		c.logger.Warn("backend reported failure",
			zap.String("action", string(action)),
			zap.String("message", appErr.Message))
		return
	}
	cause := causeOf(err)
	fields := []zap.Field{
		zap.String("action", string(action)),
		zap.String("cause", cause.String()),
		zap.String("hint", cause.Hint()),
		zap.Error(err),
	}
	switch e := err.(type) {
	case *HTTPStatusError:
		fields = append(fields, zap.Int("status", e.StatusCode), zap.String("snippet", e.Snippet))
	case *TransportFailure:
		fields = append(fields, zap.String("snippet", e.Snippet))
	}
	metrics.ObserveUpstream(string(action), cause.String())
	c.logger.Warn("backend call failed", fields...)
}

// pause waits the fallback delay. A cancelled context ends the wait early; the
// substitute is still served.
func (c *Coordinator) pause(ctx context.Context) {
	if c.delay <= 0 {
		return
	}
	t := time.NewTimer(c.delay)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}
