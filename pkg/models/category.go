package models

import "time"

// Category is one curated tile inside a section of the dashboard.
// IDs are positive once assigned by the store; locally minted
// temporary ids are negative (see internal/syncer).
type Category struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Section     string    `json:"section"`
	Icon        string    `json:"icon,omitempty"`
	Color       string    `json:"color,omitempty"`
	ExternalURL string    `json:"external_url,omitempty"`
	CSVURL      string    `json:"csv_url,omitempty"`
	CreatedAt   time.Time `json:"created_at,omitempty"`
}

func (c Category) RecordID() int64 { return c.ID }

func (c Category) WithRecordID(id int64) Category {
	c.ID = id
	return c
}

// WithField applies a single editable field by name. Unknown fields
// report false and leave the record unchanged.
func (c Category) WithField(field, value string) (Category, bool) {
	switch field {
	case "name":
		c.Name = value
	case "icon":
		c.Icon = value
	case "color":
		c.Color = value
	case "external_url":
		c.ExternalURL = value
	case "csv_url":
		c.CSVURL = value
	default:
		return c, false
	}
	return c, true
}
