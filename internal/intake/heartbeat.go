package intake

import (
	"context"

	"go.uber.org/zap"

	"facility-intake-backend/internal/backend"
	"facility-intake-backend/internal/metrics"
	"facility-intake-backend/internal/types"
)

type HeartbeatOutcome string

const (
	// HeartbeatConfirmed means the backend answered with a success envelope.
	HeartbeatConfirmed HeartbeatOutcome = "confirmed"
	// HeartbeatBlindSent means the normal probe failed but a blind copy left the
	// process; nothing is known about whether it arrived.
	HeartbeatBlindSent HeartbeatOutcome = "blind_sent"
	HeartbeatFailed    HeartbeatOutcome = "failed"
)

type HeartbeatResult struct {
	Outcome HeartbeatOutcome `json:"outcome"`
	Detail  string           `json:"detail,omitempty"`
}

// SendHeartbeat probes the backend. It never returns an error.
func (c *Client) SendHeartbeat(ctx context.Context) HeartbeatResult {
	env := backend.NewEnvelope(types.ActionTestChat, map[string]int64{"timestamp": c.opts.Now().UnixMilli()})
	_, err := backend.Execute[map[string]any](ctx, c.coord, env, nil)
	if err == nil {
		metrics.ObserveHeartbeat(string(HeartbeatConfirmed))
		return HeartbeatResult{Outcome: HeartbeatConfirmed}
	}
	primary := err.Error()
	if blindErr := c.coord.SendBlind(ctx, env); blindErr != nil {
		c.logger.Warn("heartbeat failed", zap.String("primary", primary), zap.Error(blindErr))
		metrics.ObserveHeartbeat(string(HeartbeatFailed))
		return HeartbeatResult{Outcome: HeartbeatFailed, Detail: blindErr.Error()}
	}
	c.logger.Info("heartbeat sent blind", zap.String("primary", primary))
	metrics.ObserveHeartbeat(string(HeartbeatBlindSent))
	return HeartbeatResult{Outcome: HeartbeatBlindSent, Detail: primary}
}
