package plant

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound        = errors.New("plant not found")
	ErrVersionConflict = errors.New("plant state changed since read")
)

// Action is a closed enumeration of care actions. Unknown input maps to
// ActionUnknown, which the engine treats as a zero-effect no-op.
type Action string

const (
	ActionUnknown   Action = ""
	ActionWater     Action = "water"
	ActionFeed      Action = "feed"
	ActionFertilize Action = "fertilize"

	// ActionRain is a weather event reserved for the future dynamic-event
	// path. It is never accepted from the player-facing action endpoint.
	ActionRain Action = "rain"
)

// ParseAction maps a wire string to an Action. The boolean reports whether
// the string named a player-invocable action.
func ParseAction(s string) (Action, bool) {
	switch Action(s) {
	case ActionWater:
		return ActionWater, true
	case ActionFeed:
		return ActionFeed, true
	case ActionFertilize:
		return ActionFertilize, true
	default:
		return ActionUnknown, false
	}
}

// State is the raw persisted state of a plant. Level, xp-needed and mood are
// derived from these fields on every read and never stored authoritatively.
type State struct {
	ID          string    `json:"plant_id"`
	UserID      string    `json:"user_id"`
	Name        string    `json:"plant_name"`
	Health      int       `json:"health"`
	SoilQuality int       `json:"soil_quality"`
	XP          int       `json:"xp"`
	LastUpdated time.Time `json:"last_updated"`
	CreatedAt   time.Time `json:"created_at"`

	// Version guards read-modify-write cycles at the persistence boundary.
	Version int `json:"-"`
}

// Snapshot is a State with the derived fields attached, the shape API
// responses use.
type Snapshot struct {
	State
	Level    int    `json:"level"`
	XPNeeded int    `json:"xp_needed"`
	Mood     string `json:"mood"`
}

// ActionResult reports what an action actually granted, post scaling.
type ActionResult struct {
	Action      Action `json:"action"`
	HealthBoost int    `json:"health_boost"`
	XPGained    int    `json:"xp_gained"`
	Message     string `json:"message"`
}

// Interaction is one logged care action. EffectValue is the realized health
// delta of the action alone, decay in the same request excluded.
type Interaction struct {
	ID          int64     `json:"id"`
	PlantID     string    `json:"plant_id"`
	ActionType  string    `json:"action_type"`
	EffectValue int       `json:"effect_value"`
	CreatedAt   time.Time `json:"created_at"`
}

// New returns a fresh plant state. Starting stats come from balance config
// via the engine; decay is never applied on the creation path.
func New(userID, name string, health, soil int, now time.Time) State {
	now = now.UTC()
	return State{
		ID:          uuid.NewString(),
		UserID:      userID,
		Name:        name,
		Health:      health,
		SoilQuality: soil,
		XP:          0,
		LastUpdated: now,
		CreatedAt:   now,
		Version:     1,
	}
}
