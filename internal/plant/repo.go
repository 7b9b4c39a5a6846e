package plant

import (
	"context"
	"time"
)

// Repo persists plant state.
type Repo interface {
	Create(ctx context.Context, s State) (State, error)
	Get(ctx context.Context, id string) (State, error)
	ListByUser(ctx context.Context, userID string) ([]State, error)

	// UpdateState persists health, soil, xp and the decay checkpoint.
	// It fails with ErrVersionConflict when the stored version no longer
	// matches s.Version; the returned State carries the bumped version.
	UpdateState(ctx context.Context, s State) (State, error)
}

// InteractionLog records care actions for the history endpoint.
type InteractionLog interface {
	Log(ctx context.Context, it Interaction) error

	// History returns the most recent interactions, newest first.
	History(ctx context.Context, plantID string, limit int) ([]Interaction, error)
}

// Simulator is the slice of the game engine the HTTP layer needs. The
// concrete implementation is game.Engine; handlers accept the interface so
// tests can substitute a fixed clock or canned behavior.
type Simulator interface {
	NewPlant(userID, name string, now time.Time) State
	ApplyDecay(s State, now time.Time) State
	ApplyAction(s State, a Action, now time.Time) (State, ActionResult)
	Snapshot(s State) Snapshot
	Now() time.Time
}
