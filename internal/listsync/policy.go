package listsync

import "context"

// Policy decides how local state catches up after a mutation has been sent.
// reload replaces the held items with a fresh snapshot.
type Policy interface {
	Settle(ctx context.Context, reload func(context.Context) error) error
}

// FullResync discards local state and refetches the whole collection after
// every mutation, whatever the mutation's outcome was.
type FullResync struct{}

// Settle implements Policy.
func (FullResync) Settle(ctx context.Context, reload func(context.Context) error) error {
	return reload(ctx)
}
