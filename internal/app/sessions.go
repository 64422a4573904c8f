package service

import (
	"context"
	"errors"

	"github.com/okian/vigia/internal/domain/flow"
	"github.com/okian/vigia/internal/domain/model"
	"github.com/okian/vigia/pkg/logger"
	"github.com/okian/vigia/pkg/metrics"
)

// Transition outcomes as exported to metrics.
const (
	outcomeOK       = "ok"
	outcomeInvalid  = "invalid"
	outcomeRejected = "rejected"
	outcomeError    = "error"
)

// StartSession opens an onboarding session on the landing screen.
func (s *Service) StartSession(_ context.Context) (flow.Session, error) {
	c, err := s.get()
	if err != nil {
		return flow.Session{}, err
	}
	sess := c.flows.Start()
	metrics.UpdateFlowSessions(c.flows.Len())
	return sess, nil
}

// Session returns an onboarding session and the events it accepts next.
func (s *Service) Session(_ context.Context, id string) (flow.Session, []flow.EventType, error) {
	c, err := s.get()
	if err != nil {
		return flow.Session{}, nil, err
	}
	sess, err := c.flows.Get(id)
	if err != nil {
		return flow.Session{}, nil, err
	}
	return sess, flow.Allowed(sess), nil
}

// Dispatch applies a user event to a session. A set_priorities event also
// replaces the service priority set; the session only moves on when that
// succeeds.
func (s *Service) Dispatch(ctx context.Context, id string, e flow.Event) (flow.Session, error) { //nolint:gocritic // hugeParam
	c, err := s.get()
	if err != nil {
		return flow.Session{}, err
	}
	sess, err := c.flows.Dispatch(ctx, id, e)
	outcome := outcomeOK
	switch {
	case err == nil:
	case errors.Is(err, flow.ErrInvalidTransition):
		outcome = outcomeInvalid
	case errors.Is(err, model.ErrValidation):
		outcome = outcomeRejected
	default:
		outcome = outcomeError
	}
	metrics.RecordFlowTransition(string(e.Type), outcome)
	if err != nil {
		s.logger.Debug(ctx, "flow event refused",
			logger.String("session_id", id),
			logger.String("event", string(e.Type)),
			logger.Error(err),
		)
		return sess, err
	}
	return sess, nil
}

// EndSession discards an onboarding session.
func (s *Service) EndSession(_ context.Context, id string) error {
	c, err := s.get()
	if err != nil {
		return err
	}
	if _, err := c.flows.Get(id); err != nil {
		return err
	}
	c.flows.Remove(id)
	metrics.UpdateFlowSessions(c.flows.Len())
	return nil
}
