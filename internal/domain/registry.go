// Package domain holds the activity registry and its membership rules.
package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"example.com/mergington/internal/events"
	"example.com/mergington/internal/observability"
)

var (
	// ErrActivityNotFound is returned when no activity has the requested name.
	ErrActivityNotFound = errors.New("activity not found")
	// ErrAlreadyRegistered is returned when the student is already signed up.
	ErrAlreadyRegistered = errors.New("student already signed up for this activity")
	// ErrNotRegistered is returned when removing a student who is not signed up.
	ErrNotRegistered = errors.New("student not registered for this activity")
	// ErrEmailRequired is returned when the email is blank.
	ErrEmailRequired = errors.New("email is required")
)

const (
	opSignup = "signup"
	opRemove = "remove"
)

// Publisher receives roster changes after they have been applied.
type Publisher interface {
	Publish(ctx context.Context, evt events.RosterChanged) error
}

// NoopPublisher discards events.
type NoopPublisher struct{}

// Publish performs no action.
func (NoopPublisher) Publish(context.Context, events.RosterChanged) error { return nil }

// Confirmation describes a successful signup or removal.
type Confirmation struct {
	Activity string
	Email    string
	removed  bool
}

// Message renders the confirmation shown to the caller.
func (c Confirmation) Message() string {
	if c.removed {
		return fmt.Sprintf("Removed %s from %s", c.Email, c.Activity)
	}
	return fmt.Sprintf("Signed up %s for %s", c.Email, c.Activity)
}

// Option configures optional Registry behaviour.
type Option func(*Registry)

// WithPublisher sets the destination for roster events.
func WithPublisher(p Publisher) Option {
	return func(r *Registry) {
		if p != nil {
			r.publisher = p
		}
	}
}

// WithLogger overrides the logger used to report publish failures.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// Registry owns every activity record for the lifetime of the process.
type Registry struct {
	mu         sync.RWMutex
	activities map[string]*Activity
	publisher  Publisher
	logger     *zap.Logger
	now        func() time.Time
}

// NewRegistry builds a registry holding a private copy of seed.
func NewRegistry(seed map[string]Activity, opts ...Option) *Registry {
	r := &Registry{
		activities: make(map[string]*Activity, len(seed)),
		publisher:  NoopPublisher{},
		logger:     zap.NewNop(),
		now:        func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(r)
	}
	for name, activity := range seed {
		a := activity.clone()
		r.activities[name] = &a
		observability.SetParticipants(name, len(a.Participants))
	}
	return r
}

// List returns a snapshot of every activity keyed by name.
func (r *Registry) List(ctx context.Context) map[string]Activity {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]Activity, len(r.activities))
	for name, a := range r.activities {
		out[name] = a.clone()
	}
	return out
}

// Signup appends email to the named activity's participants. The email is
// stored exactly as given; only an all-blank value is rejected.
func (r *Registry) Signup(ctx context.Context, activityName, email string) (Confirmation, error) {
	if strings.TrimSpace(email) == "" {
		observability.RecordOperation(opSignup, outcome(ErrEmailRequired))
		return Confirmation{}, ErrEmailRequired
	}

	r.mu.Lock()
	activity, ok := r.activities[activityName]
	if !ok {
		r.mu.Unlock()
		observability.RecordOperation(opSignup, outcome(ErrActivityNotFound))
		return Confirmation{}, ErrActivityNotFound
	}
	if activity.indexOf(email) >= 0 {
		r.mu.Unlock()
		observability.RecordOperation(opSignup, outcome(ErrAlreadyRegistered))
		return Confirmation{}, ErrAlreadyRegistered
	}
	activity.Participants = append(activity.Participants, email)
	count := len(activity.Participants)
	r.mu.Unlock()

	observability.RecordOperation(opSignup, outcome(nil))
	observability.SetParticipants(activityName, count)
	r.publish(ctx, events.TypeParticipantSignedUp, activityName, email, count)
	return Confirmation{Activity: activityName, Email: email}, nil
}

// RemoveParticipant deletes email from the named activity's participants.
func (r *Registry) RemoveParticipant(ctx context.Context, activityName, email string) (Confirmation, error) {
	if strings.TrimSpace(email) == "" {
		observability.RecordOperation(opRemove, outcome(ErrEmailRequired))
		return Confirmation{}, ErrEmailRequired
	}

	r.mu.Lock()
	activity, ok := r.activities[activityName]
	if !ok {
		r.mu.Unlock()
		observability.RecordOperation(opRemove, outcome(ErrActivityNotFound))
		return Confirmation{}, ErrActivityNotFound
	}
	idx := activity.indexOf(email)
	if idx < 0 {
		r.mu.Unlock()
		observability.RecordOperation(opRemove, outcome(ErrNotRegistered))
		return Confirmation{}, ErrNotRegistered
	}
	activity.Participants = append(activity.Participants[:idx], activity.Participants[idx+1:]...)
	count := len(activity.Participants)
	r.mu.Unlock()

	observability.RecordOperation(opRemove, outcome(nil))
	observability.SetParticipants(activityName, count)
	r.publish(ctx, events.TypeParticipantRemoved, activityName, email, count)
	return Confirmation{Activity: activityName, Email: email, removed: true}, nil
}

// publish never fails the caller; the roster change has already been applied.
func (r *Registry) publish(ctx context.Context, eventType, activityName, email string, count int) {
	evt := events.RosterChanged{
		EventID:          uuid.NewString(),
		EventType:        eventType,
		Activity:         activityName,
		Email:            email,
		ParticipantCount: count,
		OccurredAt:       r.now(),
	}
	if err := r.publisher.Publish(ctx, evt); err != nil {
		r.logger.Warn("roster event not published",
			zap.String("event_type", eventType),
			zap.String("activity", activityName),
			zap.Error(err),
		)
	}
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrActivityNotFound):
		return "activity_not_found"
	case errors.Is(err, ErrAlreadyRegistered):
		return "already_registered"
	case errors.Is(err, ErrNotRegistered):
		return "not_registered"
	default:
		return "invalid"
	}
}
