// Package storage provides SQLite-backed persistence for users, plants and
// the interaction log.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"sproutling/internal/config"
	"sproutling/internal/game"
	"sproutling/internal/plant"
	"sproutling/internal/user"
)

// Store implements plant.Repo, plant.InteractionLog and user.Repo on a
// single database handle. Timestamps are stored as RFC3339Nano UTC text; a
// row with a malformed timestamp surfaces as a wrapped parse error rather
// than silently feeding garbage into decay math.
type Store struct {
	db *sql.DB

	// derive recomputes the level/mood snapshot columns on every write so
	// they can never drift from xp/health.
	derive game.Engine
}

// New returns a Store bound to an existing database handle.
func New(db *sql.DB, bal config.Balance) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("storage: db is nil")
	}
	return &Store{db: db, derive: game.NewEngine(bal, nil)}, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(field, raw string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse %s %q: %w", field, raw, err)
	}
	return t.UTC(), nil
}

// --- user.Repo ---

func (s *Store) Create(ctx context.Context, u user.User) (user.User, error) {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, username, email, created_at) VALUES (?, ?, ?, ?)`,
		u.ID, u.Username, u.Email, formatTime(u.CreatedAt))
	if err != nil {
		return user.User{}, fmt.Errorf("create user: insert: %w", err)
	}
	return u, nil
}

func (s *Store) Get(ctx context.Context, id string) (user.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, username, email, created_at FROM users WHERE id = ?`, id)
	return scanUser(row, "get user")
}

func (s *Store) GetByUsername(ctx context.Context, username string) (user.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, username, email, created_at FROM users WHERE username = ?`, username)
	return scanUser(row, "get user by username")
}

func scanUser(row *sql.Row, op string) (user.User, error) {
	var u user.User
	var createdAt string
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, fmt.Errorf("%s: scan: %w", op, err)
	}
	t, err := parseTime("created_at", createdAt)
	if err != nil {
		return user.User{}, fmt.Errorf("%s: %w", op, err)
	}
	u.CreatedAt = t
	return u, nil
}

// Users returns the user.Repo view of the store. user.Repo and plant.Repo
// both declare Create/Get, so the store exposes them through separate
// adapter views instead of one method set.
func (s *Store) Users() user.Repo { return s }

// --- plant.Repo ---

// Plants returns the plant.Repo + plant.InteractionLog view of the store.
func (s *Store) Plants() *PlantStore { return &PlantStore{s: s} }

type PlantStore struct {
	s *Store
}

func (p *PlantStore) Create(ctx context.Context, st plant.State) (plant.State, error) {
	if st.Version <= 0 {
		st.Version = 1
	}
	snap := p.s.derive.Snapshot(st)
	_, err := p.s.db.ExecContext(ctx,
		`INSERT INTO plants (id, user_id, name, level, xp, health, soil_quality, mood, last_updated, created_at, version)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		st.ID, st.UserID, st.Name, snap.Level, st.XP, st.Health, st.SoilQuality, snap.Mood,
		formatTime(st.LastUpdated), formatTime(st.CreatedAt), st.Version)
	if err != nil {
		return plant.State{}, fmt.Errorf("create plant: insert: %w", err)
	}
	return st, nil
}

const plantColumns = `id, user_id, name, xp, health, soil_quality, last_updated, created_at, version`

func (p *PlantStore) Get(ctx context.Context, id string) (plant.State, error) {
	row := p.s.db.QueryRowContext(ctx,
		`SELECT `+plantColumns+` FROM plants WHERE id = ?`, id)

	st, err := scanPlant(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return plant.State{}, plant.ErrNotFound
		}
		return plant.State{}, fmt.Errorf("get plant: %w", err)
	}
	return st, nil
}

func (p *PlantStore) ListByUser(ctx context.Context, userID string) ([]plant.State, error) {
	rows, err := p.s.db.QueryContext(ctx,
		`SELECT `+plantColumns+` FROM plants WHERE user_id = ? ORDER BY created_at ASC, id ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list plants: query: %w", err)
	}
	defer rows.Close()

	out := make([]plant.State, 0)
	for rows.Next() {
		st, err := scanPlant(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("list plants: %w", err)
		}
		out = append(out, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list plants: rows: %w", err)
	}
	return out, nil
}

// UpdateState persists the mutable state fields guarded by the version
// counter. A concurrent writer that got there first makes the UPDATE match
// zero rows, which comes back as plant.ErrVersionConflict.
func (p *PlantStore) UpdateState(ctx context.Context, st plant.State) (plant.State, error) {
	snap := p.s.derive.Snapshot(st)
	res, err := p.s.db.ExecContext(ctx,
		`UPDATE plants
		 SET xp = ?, health = ?, soil_quality = ?, level = ?, mood = ?, last_updated = ?, version = version + 1
		 WHERE id = ? AND version = ?`,
		st.XP, st.Health, st.SoilQuality, snap.Level, snap.Mood,
		formatTime(st.LastUpdated), st.ID, st.Version)
	if err != nil {
		return plant.State{}, fmt.Errorf("update plant state: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return plant.State{}, fmt.Errorf("update plant state: rows affected: %w", err)
	}
	if n == 0 {
		// Distinguish a missing plant from a stale version.
		var exists int
		err := p.s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM plants WHERE id = ?`, st.ID).Scan(&exists)
		if err != nil {
			return plant.State{}, fmt.Errorf("update plant state: existence check: %w", err)
		}
		if exists == 0 {
			return plant.State{}, plant.ErrNotFound
		}
		return plant.State{}, plant.ErrVersionConflict
	}
	st.Version++
	return st, nil
}

func scanPlant(scan func(...any) error) (plant.State, error) {
	var st plant.State
	var lastUpdated, createdAt string
	if err := scan(&st.ID, &st.UserID, &st.Name, &st.XP, &st.Health, &st.SoilQuality,
		&lastUpdated, &createdAt, &st.Version); err != nil {
		return plant.State{}, err
	}

	t, err := parseTime("last_updated", lastUpdated)
	if err != nil {
		return plant.State{}, err
	}
	st.LastUpdated = t

	t, err = parseTime("created_at", createdAt)
	if err != nil {
		return plant.State{}, err
	}
	st.CreatedAt = t
	return st, nil
}

// --- plant.InteractionLog ---

func (p *PlantStore) Log(ctx context.Context, it plant.Interaction) error {
	_, err := p.s.db.ExecContext(ctx,
		`INSERT INTO interactions (plant_id, action_type, effect_value, created_at) VALUES (?, ?, ?, ?)`,
		it.PlantID, it.ActionType, it.EffectValue, formatTime(it.CreatedAt))
	if err != nil {
		return fmt.Errorf("log interaction: insert: %w", err)
	}
	return nil
}

// History returns interactions for a plant, newest first. limit <= 0 means
// no limit.
func (p *PlantStore) History(ctx context.Context, plantID string, limit int) ([]plant.Interaction, error) {
	q := `SELECT id, plant_id, action_type, effect_value, created_at
	      FROM interactions WHERE plant_id = ? ORDER BY created_at DESC, id DESC`
	args := []any{plantID}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := p.s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("history: query: %w", err)
	}
	defer rows.Close()

	out := make([]plant.Interaction, 0)
	for rows.Next() {
		var it plant.Interaction
		var createdAt string
		if err := rows.Scan(&it.ID, &it.PlantID, &it.ActionType, &it.EffectValue, &createdAt); err != nil {
			return nil, fmt.Errorf("history: scan: %w", err)
		}
		t, err := parseTime("created_at", createdAt)
		if err != nil {
			return nil, fmt.Errorf("history: %w", err)
		}
		it.CreatedAt = t
		out = append(out, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history: rows: %w", err)
	}
	return out, nil
}
