package events

import "time"

// BoardEvent announces a board mutation to connected listeners.
// Type is "category.create", "category.update", "category.delete",
// or the "link.*" equivalents.
type BoardEvent struct {
	Type    string    `json:"type"`
	ID      int64     `json:"id"`
	Section string    `json:"section,omitempty"`
	Actor   string    `json:"actor,omitempty"`
	At      time.Time `json:"at"`
}
