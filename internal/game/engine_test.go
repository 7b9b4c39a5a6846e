package game

import (
	"testing"
	"time"

	"sproutling/internal/config"
	"sproutling/internal/plant"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestEngine() Engine {
	return NewEngine(config.Default(), NewFakeClock(t0))
}

func newTestPlant(e Engine) plant.State {
	return e.NewPlant("u1", "Basil", t0)
}

func TestNewPlant_InitialState(t *testing.T) {
	e := newTestEngine()
	s := newTestPlant(e)

	assert.Equal(t, 100, s.Health)
	assert.Equal(t, 50, s.SoilQuality)
	assert.Equal(t, 0, s.XP)
	assert.Equal(t, t0, s.LastUpdated)
	assert.NotEmpty(t, s.ID)

	snap := e.Snapshot(s)
	assert.Equal(t, 1, snap.Level)
	assert.Equal(t, 100, snap.XPNeeded)
	assert.Equal(t, MoodHappy, snap.Mood)
}

func TestElapsedHours_NeverNegative(t *testing.T) {
	assert.Equal(t, 0.0, ElapsedHours(t0, t0.Add(-3*time.Hour)))
	assert.Equal(t, 0.0, ElapsedHours(t0, t0))
	assert.InDelta(t, 2.5, ElapsedHours(t0, t0.Add(150*time.Minute)), 1e-9)
}

func TestElapsedHours_NormalizesToUTC(t *testing.T) {
	loc := time.FixedZone("ET", -5*60*60)
	sameInstant := t0.In(loc)
	assert.Equal(t, 0.0, ElapsedHours(t0, sameInstant))
	assert.InDelta(t, 1.0, ElapsedHours(sameInstant, t0.Add(time.Hour)), 1e-9)
}

func TestApplyDecay_TenHoursIdle(t *testing.T) {
	e := newTestEngine()
	s := newTestPlant(e)

	now := t0.Add(10 * time.Hour)
	s = e.ApplyDecay(s, now)

	assert.Equal(t, 80, s.Health)
	assert.Equal(t, 45, s.SoilQuality)
	assert.Equal(t, now, s.LastUpdated)
	assert.Equal(t, 0, s.XP, "decay never touches xp")
}

func TestApplyDecay_ZeroElapsed_IsStrictNoOp(t *testing.T) {
	e := newTestEngine()
	s := newTestPlant(e)

	out := e.ApplyDecay(s, t0)
	assert.Equal(t, s, out)

	// Second call at the same instant is byte-identical too.
	out2 := e.ApplyDecay(out, t0)
	assert.Equal(t, out, out2)
}

func TestApplyDecay_BackwardClock_NoDecayNoChurn(t *testing.T) {
	e := newTestEngine()
	s := newTestPlant(e)

	out := e.ApplyDecay(s, t0.Add(-2*time.Hour))
	assert.Equal(t, s, out, "timestamp must not move backward")
}

func TestApplyDecay_ClampsToZero(t *testing.T) {
	e := newTestEngine()
	s := newTestPlant(e)

	// 2/h health decay: 200h is far past zero on both stats.
	s = e.ApplyDecay(s, t0.Add(200*time.Hour))
	assert.Equal(t, 0, s.Health)
	assert.Equal(t, 0, s.SoilQuality)
}

func TestApplyDecay_SelfHealsCorruptInputs(t *testing.T) {
	e := newTestEngine()
	s := newTestPlant(e)
	s.Health = 400
	s.SoilQuality = -30

	s = e.ApplyDecay(s, t0.Add(time.Hour))
	assert.LessOrEqual(t, s.Health, 100)
	assert.GreaterOrEqual(t, s.SoilQuality, 0)
}

func TestApplyDecay_Composition_CheckpointIsExact(t *testing.T) {
	e := newTestEngine()
	s := newTestPlant(e)

	// Decay stats are stored as ints, so composition is only exact when
	// the intermediate checkpoint lands on whole stat values.
	mid := t0.Add(4 * time.Hour)
	end := t0.Add(12 * time.Hour)

	stepped := e.ApplyDecay(e.ApplyDecay(s, mid), end)
	direct := e.ApplyDecay(s, end)

	assert.Equal(t, direct.Health, stepped.Health)
	assert.Equal(t, direct.SoilQuality, stepped.SoilQuality)
	assert.Equal(t, direct.LastUpdated, stepped.LastUpdated)
}

func TestApplyDecay_CompoundsFromCheckpointNotCreation(t *testing.T) {
	e := newTestEngine()
	s := newTestPlant(e)

	s = e.ApplyDecay(s, t0.Add(10*time.Hour))
	require.Equal(t, 80, s.Health)

	// Next call decays only the additional 5 hours.
	s = e.ApplyDecay(s, t0.Add(15*time.Hour))
	assert.Equal(t, 70, s.Health)
}

func TestLevelBoundaries(t *testing.T) {
	e := newTestEngine()

	cases := []struct {
		xp, level, needed int
	}{
		{0, 1, 100},
		{99, 1, 1},
		{100, 2, 100},
		{250, 3, 50},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.level, e.LevelOf(tc.xp), "xp=%d", tc.xp)
		assert.Equal(t, tc.needed, e.XPNeeded(tc.xp), "xp=%d", tc.xp)
	}
}

func TestMoodBoundaries(t *testing.T) {
	e := newTestEngine()

	cases := []struct {
		health int
		mood   string
	}{
		{100, MoodHappy},
		{80, MoodHappy},
		{79, MoodNeutral},
		{50, MoodNeutral},
		{49, MoodNeedCare},
		{20, MoodNeedCare},
		{19, MoodCritical},
		{0, MoodCritical},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.mood, e.MoodOf(tc.health), "health=%d", tc.health)
	}
}

func TestApplyAction_EffectivenessScaling(t *testing.T) {
	e := newTestEngine()

	// Barren soil halves the health benefit.
	s := newTestPlant(e)
	s.Health = 10
	s.SoilQuality = 0
	out, res := e.ApplyAction(s, plant.ActionWater, t0)
	assert.Equal(t, 7, res.HealthBoost) // 15 * 0.5, truncated
	assert.Equal(t, 17, out.Health)

	// Perfect soil gives the full benefit.
	s = newTestPlant(e)
	s.Health = 10
	s.SoilQuality = 100
	out, res = e.ApplyAction(s, plant.ActionWater, t0)
	assert.Equal(t, 15, res.HealthBoost)
	assert.Equal(t, 25, out.Health)
}

func TestApplyAction_OnlyHealthIsScaled(t *testing.T) {
	e := newTestEngine()
	s := newTestPlant(e)
	s.SoilQuality = 0
	s.Health = 50

	out, res := e.ApplyAction(s, plant.ActionFertilize, t0)
	assert.Equal(t, 10, res.HealthBoost) // 20 * 0.5
	assert.Equal(t, 15, res.XPGained)    // unscaled
	assert.Equal(t, 15, out.XP)
	assert.Equal(t, 10, out.SoilQuality) // unscaled
}

func TestApplyAction_ClampsHealthButNotXP(t *testing.T) {
	e := newTestEngine()
	s := newTestPlant(e)
	s.XP = 999999

	out, _ := e.ApplyAction(s, plant.ActionWater, t0)
	assert.Equal(t, 100, out.Health, "health clamps at max")
	assert.Equal(t, 1000004, out.XP, "xp has no ceiling")
}

func TestApplyAction_UnknownIsZeroEffect(t *testing.T) {
	e := newTestEngine()
	s := newTestPlant(e)
	s.Health = 40
	s.XP = 7

	now := t0.Add(time.Minute)
	out, res := e.ApplyAction(s, plant.ActionUnknown, now)

	assert.Equal(t, 40, out.Health)
	assert.Equal(t, 7, out.XP)
	assert.Equal(t, 50, out.SoilQuality)
	assert.Equal(t, now, out.LastUpdated)
	assert.Equal(t, 0, res.HealthBoost)
	assert.Equal(t, 0, res.XPGained)
}

func TestApplyAction_RainEvent(t *testing.T) {
	e := newTestEngine()
	s := newTestPlant(e)
	s.Health = 50
	s.SoilQuality = 100

	out, res := e.ApplyAction(s, plant.ActionRain, t0)
	assert.Equal(t, 25, res.HealthBoost)
	assert.Equal(t, 75, out.Health)
	assert.Equal(t, 5, out.XP)
}

func TestEndToEnd_DecayThenWater(t *testing.T) {
	e := newTestEngine()
	s := newTestPlant(e)

	now := t0.Add(10 * time.Hour)
	s = e.ApplyDecay(s, now)
	require.Equal(t, 80, s.Health)
	require.Equal(t, 45, s.SoilQuality)

	s, res := e.ApplyAction(s, plant.ActionWater, now)

	// factor = 0.5 + 45/200 = 0.725; 15 * 0.725 = 10.875 -> 10
	assert.Equal(t, 10, res.HealthBoost)
	assert.Equal(t, 90, s.Health)
	assert.Equal(t, 5, s.XP)
	assert.Equal(t, "Applied water! Health gained 10, XP gained 5.", res.Message)

	snap := e.Snapshot(s)
	assert.Equal(t, 1, snap.Level)
	assert.Equal(t, 95, snap.XPNeeded)
	assert.Equal(t, MoodHappy, snap.Mood)
}

func TestParseAction(t *testing.T) {
	for _, name := range []string{"water", "feed", "fertilize"} {
		a, ok := plant.ParseAction(name)
		assert.True(t, ok, name)
		assert.Equal(t, plant.Action(name), a)
	}

	// Rain is an event, not a player action.
	_, ok := plant.ParseAction("rain")
	assert.False(t, ok)

	_, ok = plant.ParseAction("sing")
	assert.False(t, ok)
}
