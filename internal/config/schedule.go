package config

import "math"

// Schedule computes the value of one parameter at a given step.
type Schedule struct {
	cfg ScheduleConfig
}

// NewSchedule creates a schedule.
func NewSchedule(cfg ScheduleConfig) *Schedule {
	return &Schedule{cfg: cfg}
}

// Param returns the name of the scheduled parameter.
func (s *Schedule) Param() string { return s.cfg.Param }

// IsEnabled returns whether the parameter changes over time.
func (s *Schedule) IsEnabled() bool {
	return s.cfg.Progression.Type == "time"
}

// Level returns the progress (0.0 to 1.0) at step t.
func (s *Schedule) Level(t int) float64 {
	if !s.IsEnabled() {
		return 0
	}
	maxAt := float64(s.cfg.Progression.MaxAt)
	if maxAt <= 0 {
		maxAt = 1 // Prevent division by zero
	}
	return clampF(float64(t)/maxAt, 0.0, 1.0)
}

// Value interpolates from From to To at step t.
func (s *Schedule) Value(t int) float64 {
	return s.cfg.From + s.Level(t)*(s.cfg.To-s.cfg.From)
}

// Schedules is the set of schedules of one run.
type Schedules []*Schedule

// NewSchedules builds schedules from their configs.
func NewSchedules(cfgs []ScheduleConfig) Schedules {
	out := make(Schedules, 0, len(cfgs))
	for _, c := range cfgs {
		out = append(out, NewSchedule(c))
	}
	return out
}

// Apply returns a copy of params with every scheduled parameter set to its
// value at step t.
func (ss Schedules) Apply(params map[string]float64, t int) map[string]float64 {
	out := make(map[string]float64, len(params)+len(ss))
	for k, v := range params {
		out[k] = v
	}
	for _, s := range ss {
		out[s.cfg.Param] = s.Value(t)
	}
	return out
}

// clampF restricts a float64 to [min, max].
func clampF(val, min, max float64) float64 {
	return math.Max(min, math.Min(max, val))
}
