package chat

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"
)

// WithBreaker wraps a Service in a circuit breaker so a struggling backing
// store sheds load instead of stalling every session. Application outcomes
// (permission denied, not found) are not counted as failures. An open
// breaker surfaces as an ordinary error, which callers already treat as
// "operation skipped, no broadcast".
func WithBreaker(inner Service) Service {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "chat-service",
		Timeout: 15 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			return err == nil ||
				errors.Is(err, ErrPermissionDenied) ||
				errors.Is(err, ErrNotFound)
		},
	})
	return &breakerService{inner: inner, cb: cb}
}

type breakerService struct {
	inner Service
	cb    *gobreaker.CircuitBreaker
}

func (b *breakerService) IsMember(ctx context.Context, groupID, userID string) (bool, error) {
	v, err := b.cb.Execute(func() (interface{}, error) {
		return b.inner.IsMember(ctx, groupID, userID)
	})
	if err != nil {
		return false, err
	}
	return v.(bool), nil
}

func (b *breakerService) SendMessage(ctx context.Context, in SendMessageInput) (*Message, error) {
	v, err := b.cb.Execute(func() (interface{}, error) {
		return b.inner.SendMessage(ctx, in)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Message), nil
}

func (b *breakerService) MarkRead(ctx context.Context, groupID, userID, messageID string) error {
	_, err := b.cb.Execute(func() (interface{}, error) {
		return nil, b.inner.MarkRead(ctx, groupID, userID, messageID)
	})
	return err
}

func (b *breakerService) GetProfile(ctx context.Context, userID string) (*Profile, error) {
	v, err := b.cb.Execute(func() (interface{}, error) {
		return b.inner.GetProfile(ctx, userID)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Profile), nil
}
