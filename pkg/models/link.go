package models

import "time"

// Link is a resource entry belonging to a category. CategoryID is a
// plain reference: deleting a category does not cascade here.
type Link struct {
	ID         int64     `json:"id"`
	Title      string    `json:"title"`
	URL        string    `json:"url"`
	CategoryID int64     `json:"category_id"`
	CreatedAt  time.Time `json:"created_at,omitempty"`
}

func (l Link) RecordID() int64 { return l.ID }

func (l Link) WithRecordID(id int64) Link {
	l.ID = id
	return l
}

func (l Link) WithField(field, value string) (Link, bool) {
	switch field {
	case "title":
		l.Title = value
	case "url":
		l.URL = value
	default:
		return l, false
	}
	return l, true
}
