package session

import (
	"context"

	"pkt.systems/codebridge/schema"
)

// Await adapts a callback style query into a blocking call.
//
//	clean, err := session.Await(ctx, s.IsClean)
func Await[T any](ctx context.Context, query func(func(T))) (T, error) {
	done := make(chan T, 1)
	query(func(v T) {
		select {
		case done <- v:
		default:
		}
	})
	select {
	case v := <-done:
		return v, nil
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// AwaitContent reads slot and blocks for the answer. A rejected read
// returns its error at once instead of waiting for ctx.
func AwaitContent(ctx context.Context, s *Session, slot schema.Slot) (string, error) {
	var rejected error
	value, err := Await(ctx, func(cb func(string)) {
		if rejected = s.Content(slot, cb); rejected != nil {
			cb("")
		}
	})
	if rejected != nil {
		return "", rejected
	}
	return value, err
}
