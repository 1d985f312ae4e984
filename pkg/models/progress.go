package models

// ProgressRecord is one aggregated row of the goals feed for a team.
// Records are built fresh on every aggregation pass and never mutated.
type ProgressRecord struct {
	Team     string  `json:"team"`
	Expected float64 `json:"expected"`
	Actual   float64 `json:"actual"`
	Percent  float64 `json:"percent"`
	Note     string  `json:"note,omitempty"`
}
