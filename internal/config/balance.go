package config

// Effect is the base stat deltas a care action grants before any scaling.
type Effect struct {
	Health int `yaml:"health" json:"health"`
	XP     int `yaml:"xp" json:"xp"`
	Soil   int `yaml:"soil_quality" json:"soil_quality"`
}

// Balance holds gameplay balance configuration.
type Balance struct {
	// Neglect decay, percent-points per hour.
	HealthDecayPerHour float64 `yaml:"health_decay_per_hour" json:"health_decay_per_hour"`
	SoilDecayPerHour   float64 `yaml:"soil_decay_per_hour" json:"soil_decay_per_hour"`

	// Stat bounds and leveling.
	MaxStat    int `yaml:"max_stat" json:"max_stat"`
	XPPerLevel int `yaml:"xp_per_level" json:"xp_per_level"`

	// Mood bands, inclusive lower bounds.
	MoodHappyAt    int `yaml:"mood_happy_at" json:"mood_happy_at"`
	MoodNeutralAt  int `yaml:"mood_neutral_at" json:"mood_neutral_at"`
	MoodNeedCareAt int `yaml:"mood_need_care_at" json:"mood_need_care_at"`

	// Action effects. Rain is a reserved weather event, not a player action.
	Water     Effect `yaml:"water" json:"water"`
	Feed      Effect `yaml:"feed" json:"feed"`
	Fertilize Effect `yaml:"fertilize" json:"fertilize"`
	Rain      Effect `yaml:"rain" json:"rain"`

	// New-plant starting stats.
	StartHealth int `yaml:"start_health" json:"start_health"`
	StartSoil   int `yaml:"start_soil" json:"start_soil"`
}

// Default returns the canonical balance numbers.
func Default() Balance {
	return Balance{
		HealthDecayPerHour: 2.0,
		SoilDecayPerHour:   0.5,
		MaxStat:            100,
		XPPerLevel:         100,
		MoodHappyAt:        80,
		MoodNeutralAt:      50,
		MoodNeedCareAt:     20,
		Water:              Effect{Health: 15, XP: 5, Soil: 0},
		Feed:               Effect{Health: 10, XP: 10, Soil: 5},
		Fertilize:          Effect{Health: 20, XP: 15, Soil: 10},
		Rain:               Effect{Health: 25, XP: 5, Soil: 0},
		StartHealth:        100,
		StartSoil:          50,
	}
}
