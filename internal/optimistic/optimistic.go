// Package optimistic factors the "snapshot, apply, persist, restore on
// failure" pattern every mutation path follows. Mutations are atomic from the
// UI's perspective: either the backend accepted the change and the local state
// keeps it, or the rollback restores the pre-mutation snapshot. There is no
// retry or background sync; the user repeats the action.
package optimistic

import "context"

// Run applies a mutation locally, attempts to persist it, and rolls the local
// state back when persistence fails. The persistence error is returned
// unwrapped so callers can notify the user.
func Run(ctx context.Context, apply func(), rollback func(), persist func(context.Context) error) error {
	apply()
	if err := persist(ctx); err != nil {
		rollback()
		return err
	}
	return nil
}
