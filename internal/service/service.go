package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/events"
	"github.com/spec-kit/complaint-service/internal/policy"
	"github.com/spec-kit/complaint-service/internal/repository"
	apperrors "github.com/spec-kit/complaint-service/pkg/util/errorutil"
)

// Clock returns the current instant. Tests inject a controllable one.
type Clock func() time.Time

func (c Clock) now() time.Time {
	if c == nil {
		return time.Now().UTC()
	}
	return c().UTC()
}

// authorize turns a policy denial into a forbidden error carrying the reason.
func authorize(actor domain.Actor, perm domain.Permission, scope domain.Scope) error {
	decision := policy.Authorize(actor, perm, scope)
	if decision.Allowed {
		return nil
	}
	return apperrors.NewForbidden(string(decision.Reason))
}

func lookupErr(err error, resource, id string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NewNotFound(resource, map[string]any{"id": id})
	}
	return apperrors.MapError(err)
}

type publisher struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	clock      Clock
}

// publish delivers an event after the owning transaction committed. Subscriber failures
// cannot undo the write, so they are logged.
func (p publisher) publish(ctx context.Context, event events.Event) {
	if p.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = p.clock.now()
	}
	if err := p.dispatcher.Publish(ctx, event); err != nil {
		p.logger.Warn("event delivery failed",
			zap.String("event_type", string(event.Type)),
			zap.String("complaint_id", event.ComplaintID),
			zap.Error(err))
	}
}

func eventActor(actor domain.Actor) events.Actor {
	if actor == nil {
		return events.Actor{}
	}
	return events.Actor{UserID: actor.ActorID(), Role: actor.Role()}
}
