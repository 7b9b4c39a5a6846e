package telemetry

import "time"

// Record is one care interaction as seen by the stats calculator. Kept
// free of domain types so any log source can feed it.
type Record struct {
	Action string    `json:"action"`
	Effect int       `json:"effect"`
	At     time.Time `json:"at"`
}

// Stats summarizes a plant's interaction log.
type Stats struct {
	Interactions      int            `json:"interactions"`
	ActionCounts      map[string]int `json:"action_counts"`
	TotalHealthEffect int            `json:"total_health_effect"`
	AvgHealthEffect   float64        `json:"avg_health_effect"`
	ActionsPerDay     float64        `json:"actions_per_day"`
	FirstActionAt     *time.Time     `json:"first_action_at,omitempty"`
	LastActionAt      *time.Time     `json:"last_action_at,omitempty"`
}

// CalculateStats computes care stats from interaction records. The rate is
// measured from the oldest record to now, with a one-day floor so a brand
// new plant doesn't report absurd per-day numbers.
func CalculateStats(records []Record, now time.Time) Stats {
	stats := Stats{
		ActionCounts: make(map[string]int),
	}
	if len(records) == 0 {
		return stats
	}

	first := records[0].At
	last := records[0].At
	for _, rec := range records {
		stats.Interactions++
		stats.ActionCounts[rec.Action]++
		stats.TotalHealthEffect += rec.Effect
		if rec.At.Before(first) {
			first = rec.At
		}
		if rec.At.After(last) {
			last = rec.At
		}
	}

	stats.AvgHealthEffect = float64(stats.TotalHealthEffect) / float64(stats.Interactions)

	days := now.UTC().Sub(first.UTC()).Hours() / 24
	if days < 1 {
		days = 1
	}
	stats.ActionsPerDay = float64(stats.Interactions) / days

	f, l := first, last
	stats.FirstActionAt = &f
	stats.LastActionAt = &l
	return stats
}
