package storage

import (
	"context"
	"testing"
	"time"

	"sproutling/internal/config"
	"sproutling/internal/plant"
	"sproutling/internal/user"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	db, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	store, err := New(db, config.Default())
	require.NoError(t, err)
	return store
}

func TestUsers_CreateAndLookup(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	users := store.Users()

	u := user.New("ash", "ash@example.com", time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))
	created, err := users.Create(ctx, u)
	require.NoError(t, err)
	assert.Equal(t, u.ID, created.ID)

	got, err := users.GetByUsername(ctx, "ash")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, "ash@example.com", got.Email)
	assert.Equal(t, u.CreatedAt, got.CreatedAt)

	_, err = users.GetByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, user.ErrNotFound)

	// Duplicate usernames are rejected by the schema.
	_, err = users.Create(ctx, user.New("ash", "other@example.com", time.Now()))
	assert.Error(t, err)
}

func TestPlants_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	plants := store.Plants()

	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := plant.New("u1", "Basil", 100, 50, t0)

	created, err := plants.Create(ctx, s)
	require.NoError(t, err)
	require.Equal(t, 1, created.Version)

	got, err := plants.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, s.ID, got.ID)
	assert.Equal(t, 100, got.Health)
	assert.Equal(t, 50, got.SoilQuality)
	assert.Equal(t, 0, got.XP)
	assert.Equal(t, t0, got.LastUpdated)
	assert.Equal(t, 1, got.Version)

	_, err = plants.Get(ctx, "missing")
	assert.ErrorIs(t, err, plant.ErrNotFound)
}

func TestPlants_ListByUser(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	plants := store.Plants()

	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	_, err := plants.Create(ctx, plant.New("u1", "Basil", 100, 50, t0))
	require.NoError(t, err)
	_, err = plants.Create(ctx, plant.New("u1", "Fern", 100, 50, t0.Add(time.Minute)))
	require.NoError(t, err)
	_, err = plants.Create(ctx, plant.New("u2", "Cactus", 100, 50, t0))
	require.NoError(t, err)

	out, err := plants.ListByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "Basil", out[0].Name)
	assert.Equal(t, "Fern", out[1].Name)
}

func TestPlants_UpdateState_VersionGuard(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	plants := store.Plants()

	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s, err := plants.Create(ctx, plant.New("u1", "Basil", 100, 50, t0))
	require.NoError(t, err)

	s.Health = 80
	s.XP = 105
	s.LastUpdated = t0.Add(10 * time.Hour)
	updated, err := plants.UpdateState(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Version)

	// A second write from the same stale read loses.
	s.Health = 60
	_, err = plants.UpdateState(ctx, s)
	assert.ErrorIs(t, err, plant.ErrVersionConflict)

	// The winning write is intact, and the snapshot columns track xp.
	got, err := plants.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, 80, got.Health)
	assert.Equal(t, 105, got.XP)
	assert.Equal(t, 2, got.Version)

	var level int
	var mood string
	err = store.db.QueryRow(`SELECT level, mood FROM plants WHERE id = ?`, s.ID).Scan(&level, &mood)
	require.NoError(t, err)
	assert.Equal(t, 2, level)
	assert.Equal(t, "Happy", mood)

	_, err = plants.UpdateState(ctx, plant.State{ID: "missing", Version: 1})
	assert.ErrorIs(t, err, plant.ErrNotFound)
}

func TestInteractions_HistoryNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	plants := store.Plants()

	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s, err := plants.Create(ctx, plant.New("u1", "Basil", 100, 50, t0))
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		require.NoError(t, plants.Log(ctx, plant.Interaction{
			PlantID:     s.ID,
			ActionType:  "water",
			EffectValue: 10 + i,
			CreatedAt:   t0.Add(time.Duration(i) * time.Hour),
		}))
	}

	out, err := plants.History(ctx, s.ID, 2)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, 12, out[0].EffectValue)
	assert.Equal(t, 11, out[1].EffectValue)

	all, err := plants.History(ctx, s.ID, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}
