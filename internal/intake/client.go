// Package intake implements the named operations the intake UI performs against
// the remote endpoint. Each operation builds its envelope, applies its own
// validation and substitute policy, and goes through the fallback coordinator.
package intake

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"facility-intake-backend/internal/backend"
	"facility-intake-backend/internal/metrics"
	"facility-intake-backend/internal/types"
)

// Archiver keeps a recovery copy of the last successful submission.
type Archiver interface {
	SaveLastSubmission(ctx context.Context, payload types.SurveyPayload) error
}

// Options is the explicit configuration of a Client.
type Options struct {
	// DemoMode allows DemoAccessCode to log in with a canned session when the
	// backend rejects it or cannot be reached.
	DemoMode       bool
	DemoAccessCode string
	// MaxAttachmentBytes bounds each decoded attachment; zero means the default.
	MaxAttachmentBytes int64
	// FixturesFile replaces the embedded substitute data when set.
	FixturesFile string
	Archiver     Archiver
	Logger       *zap.Logger
	Now          func() time.Time
}

type Client struct {
	coord    *backend.Coordinator
	opts     Options
	fixtures fixtureSource
	logger   *zap.Logger
}

func NewClient(coord *backend.Coordinator, opts Options) (*Client, error) {
	if coord == nil {
		return nil, fmt.Errorf("coordinator is required")
	}
	src, err := loadFixtureSource(opts.FixturesFile)
	if err != nil {
		return nil, err
	}
	if opts.MaxAttachmentBytes <= 0 {
		opts.MaxAttachmentBytes = DefaultMaxAttachmentBytes
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		coord:    coord,
		opts:     opts,
		fixtures: src,
		logger:   logger.With(zap.String("component", "intake")),
	}, nil
}

// FetchDirectory loads the companies, properties and option lists for the form.
func (c *Client) FetchDirectory(ctx context.Context) (backend.DegradedResult[types.Directory], error) {
	env := backend.NewEnvelope(types.ActionGetCompanyData, nil)
	return backend.Execute(ctx, c.coord, env, c.fixtures.directory())
}

// Authenticate exchanges an access code for a session. Failures are surfaced,
// except for the configured demo code while demo mode is on.
func (c *Client) Authenticate(ctx context.Context, accessCode string) (backend.DegradedResult[types.Session], error) {
	code := strings.TrimSpace(accessCode)
	if code == "" {
		return backend.DegradedResult[types.Session]{}, ErrNoAccessCode
	}
	var substitute *types.Session
	if c.opts.DemoMode && c.opts.DemoAccessCode != "" && code == c.opts.DemoAccessCode {
		substitute = c.fixtures.demoSession()
	}
	env := backend.NewEnvelope(types.ActionLogin, map[string]string{"accessCode": code})
	return backend.Execute(ctx, c.coord, env, substitute)
}

// SubmitIntake validates and submits a survey. A failed submission is always
// returned as an error; it is never replaced by substitute data.
func (c *Client) SubmitIntake(ctx context.Context, payload types.SurveyPayload) (backend.DegradedResult[types.SubmitReceipt], error) {
	if err := Validate(payload); err != nil {
		return backend.DegradedResult[types.SubmitReceipt]{}, err
	}
	kept, dropped := PrepareAttachments(payload.Attachments, c.opts.MaxAttachmentBytes)
	for _, name := range dropped {
		c.logger.Warn("attachment dropped for size", zap.String("name", name), zap.Int64("limit", c.opts.MaxAttachmentBytes))
	}
	payload.Attachments = kept

	env := backend.NewEnvelope(types.ActionSubmitSurveyData, payload)
	res, err := backend.Execute[types.SubmitReceipt](ctx, c.coord, env, nil)
	if err != nil {
		return res, err
	}
	res.Value.Dropped = dropped
	c.archive(ctx, payload)
	return res, nil
}

func (c *Client) archive(ctx context.Context, payload types.SurveyPayload) {
	if c.opts.Archiver == nil {
		return
	}
	if err := c.opts.Archiver.SaveLastSubmission(ctx, payload); err != nil {
		metrics.ObserveArchiveFailure()
		c.logger.Error("failed to archive submission", zap.Error(err))
	}
}

// FetchHistory loads past service records for a property.
func (c *Client) FetchHistory(ctx context.Context, propertyName string) (backend.DegradedResult[types.History], error) {
	name := strings.TrimSpace(propertyName)
	if name == "" {
		return backend.DegradedResult[types.History]{}, ErrNoProperty
	}
	env := backend.NewEnvelope(types.ActionGetHistory, map[string]string{"propertyName": name})
	res, err := backend.Execute(ctx, c.coord, env, c.fixtures.history(name))
	if err == nil && res.Value.PropertyName == "" {
		res.Value.PropertyName = name
	}
	return res, err
}
