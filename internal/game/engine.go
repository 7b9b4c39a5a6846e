package game

import (
	"fmt"
	"time"

	"sproutling/internal/config"
	"sproutling/internal/plant"
)

// Mood labels derived from health. Presentation (icons etc.) is a client
// concern; the API ships the bare label.
const (
	MoodHappy    = "Happy"
	MoodNeutral  = "Neutral"
	MoodNeedCare = "Needs Care"
	MoodCritical = "Critical"
)

// Engine is the plant simulation: elapsed-time decay, action effects and
// stat derivation. It is pure: every method takes a state value and returns
// a new one, no I/O, no stored state beyond the balance numbers and clock.
//
// Callers own the ordering contract: decay is applied first, then at most
// one action on the decayed snapshot, then the result is persisted.
type Engine struct {
	Balance config.Balance
	Clock   Clock
}

func NewEngine(bal config.Balance, clock Clock) Engine {
	if clock == nil {
		clock = RealClock{}
	}
	return Engine{Balance: bal, Clock: clock}
}

func (e Engine) Now() time.Time {
	return e.Clock.Now().UTC()
}

// NewPlant builds the initial state: full health, middling soil, zero xp.
func (e Engine) NewPlant(userID, name string, now time.Time) plant.State {
	return plant.New(userID, name, e.Balance.StartHealth, e.Balance.StartSoil, now)
}

// ElapsedHours returns wall-clock hours between the decay checkpoint and
// now, both normalized to UTC. A clock that appears to run backward yields
// zero rather than negative decay.
func ElapsedHours(lastUpdated, now time.Time) float64 {
	h := now.UTC().Sub(lastUpdated.UTC()).Hours()
	if h < 0 {
		return 0
	}
	return h
}

// ApplyDecay reduces health and soil in proportion to the time since the
// last checkpoint and moves the checkpoint to now. Zero elapsed time is a
// strict no-op: the state comes back unchanged, timestamp included, so
// back-to-back calls never churn the checkpoint.
func (e Engine) ApplyDecay(s plant.State, now time.Time) plant.State {
	hours := ElapsedHours(s.LastUpdated, now)
	if hours <= 0 {
		return s
	}

	s.Health = e.clamp(float64(s.Health) - hours*e.Balance.HealthDecayPerHour)
	s.SoilQuality = e.clamp(float64(s.SoilQuality) - hours*e.Balance.SoilDecayPerHour)
	s.LastUpdated = now.UTC()
	return s
}

// ApplyAction applies one care action on top of an up-to-date state. The
// caller must have applied decay for the same instant first, otherwise the
// action credits against stale stats.
//
// Only the health delta is scaled by soil effectiveness; xp and soil deltas
// land at full magnitude. XP has no ceiling.
func (e Engine) ApplyAction(s plant.State, a plant.Action, now time.Time) (plant.State, plant.ActionResult) {
	eff := e.EffectFor(a)
	factor := e.Effectiveness(s.SoilQuality)
	boost := float64(eff.Health) * factor

	s.Health = e.clamp(float64(s.Health) + boost)
	s.XP += eff.XP
	s.SoilQuality = e.clamp(float64(s.SoilQuality) + float64(eff.Soil))
	s.LastUpdated = now.UTC()

	name := string(a)
	if name == "" {
		name = "nothing"
	}
	res := plant.ActionResult{
		Action:      a,
		HealthBoost: int(boost),
		XPGained:    eff.XP,
		Message:     fmt.Sprintf("Applied %s! Health gained %d, XP gained %d.", name, int(boost), eff.XP),
	}
	return s, res
}

// EffectFor resolves the base effect table. The switch is exhaustive over
// the Action enum; anything else is a zero-effect no-op, preserving the
// original lenient behavior for callers that skip validation.
func (e Engine) EffectFor(a plant.Action) config.Effect {
	switch a {
	case plant.ActionWater:
		return e.Balance.Water
	case plant.ActionFeed:
		return e.Balance.Feed
	case plant.ActionFertilize:
		return e.Balance.Fertilize
	case plant.ActionRain:
		return e.Balance.Rain
	default:
		return config.Effect{}
	}
}

// Effectiveness scales an action's health benefit by soil quality: 0.5 at
// barren soil up to 1.0 at soil 100 (soil is clamped, so the factor never
// exceeds 1.0 in practice).
func (e Engine) Effectiveness(soil int) float64 {
	return 0.5 + float64(soil)/200.0
}

func (e Engine) LevelOf(xp int) int {
	return 1 + xp/e.Balance.XPPerLevel
}

// XPNeeded is the xp remaining to the next level. At an exact boundary
// (including xp=0) the full bar remains, so the answer is XPPerLevel, not 0.
func (e Engine) XPNeeded(xp int) int {
	return e.Balance.XPPerLevel - xp%e.Balance.XPPerLevel
}

func (e Engine) MoodOf(health int) string {
	switch {
	case health >= e.Balance.MoodHappyAt:
		return MoodHappy
	case health >= e.Balance.MoodNeutralAt:
		return MoodNeutral
	case health >= e.Balance.MoodNeedCareAt:
		return MoodNeedCare
	default:
		return MoodCritical
	}
}

// Snapshot attaches the derived fields to a raw state for API responses.
// Derivation runs on every read; stored level/mood columns are snapshots of
// this computation, never inputs to it.
func (e Engine) Snapshot(s plant.State) plant.Snapshot {
	return plant.Snapshot{
		State:    s,
		Level:    e.LevelOf(s.XP),
		XPNeeded: e.XPNeeded(s.XP),
		Mood:     e.MoodOf(s.Health),
	}
}

func (e Engine) clamp(v float64) int {
	if v < 0 {
		return 0
	}
	max := float64(e.Balance.MaxStat)
	if v > max {
		return int(max)
	}
	return int(v)
}
