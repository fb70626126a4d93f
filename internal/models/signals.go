package models

// TimeOfDay is the coarse bucket a sampling instant falls into
type TimeOfDay string

const (
	TimeOfDayMorning   TimeOfDay = "morning"
	TimeOfDayAfternoon TimeOfDay = "afternoon"
	TimeOfDayEvening   TimeOfDay = "evening"
	TimeOfDayLateNight TimeOfDay = "late_night"
)

// TimeOfDayFor buckets an hour of day: [5,12) morning, [12,17) afternoon,
// [17,22) evening, everything else late night.
func TimeOfDayFor(hour int) TimeOfDay {
	switch {
	case hour >= 5 && hour < 12:
		return TimeOfDayMorning
	case hour >= 12 && hour < 17:
		return TimeOfDayAfternoon
	case hour >= 17 && hour < 22:
		return TimeOfDayEvening
	default:
		return TimeOfDayLateNight
	}
}

// CompletionSpeed classifies recent task completion latency against estimates
type CompletionSpeed string

const (
	CompletionSpeedFaster CompletionSpeed = "faster_than_usual"
	CompletionSpeedSlower CompletionSpeed = "slower_than_usual"
	CompletionSpeedUsual  CompletionSpeed = "usual"
)

// BehavioralSignals is one ephemeral snapshot of coarse engagement proxies.
// Snapshots are recomputed wholesale on each sampling tick; only the latest
// one is kept.
type BehavioralSignals struct {
	TimeOfDay         TimeOfDay       `json:"time_of_day"`
	TaskSwitchingFreq int             `json:"task_switching_freq"`
	IdleTimeMinutes   int             `json:"idle_time_minutes"`
	CompletionSpeed   CompletionSpeed `json:"completion_speed"`
	LateNightUsage    bool            `json:"late_night_usage"`
}
