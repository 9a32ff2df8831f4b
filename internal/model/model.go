// Package model defines the domain types used across the application.
package model

import (
	"strings"
	"time"
)

// PujaEvent is one validated row from the puja events sheet.
// All fields come through as raw strings; date/time normalization
// happens later in the pipeline.
type PujaEvent struct {
	Date     string
	Time     string
	Seva     string
	Venue    string
	Activity string
	Link     string
	UniqueID string
	Details  string
}

// PresenceInterval is one row of Gurudev's travel schedule: a date
// range during which he is physically at the given location. Unlike
// puja events, both endpoints are always present.
type PresenceInterval struct {
	EventName string
	Location  string
	Start     time.Time
	End       time.Time
}

// Category is the categorizer's verdict for a single event.
type Category struct {
	Category string   `json:"category"`
	Tags     []string `json:"tags"`
}

// Visuals selects an icon name and an image search hint for an event.
type Visuals struct {
	Icon      string `json:"icon"`
	ImageHint string `json:"imageHint"`
}

// EnrichedEvent is a PujaEvent after one pipeline pass: canonical
// interval, derived flags, display strings, and category metadata.
// Never mutated after creation.
type EnrichedEvent struct {
	PujaEvent

	ID    string
	Start time.Time
	End   *time.Time

	Category Category
	Visuals  Visuals

	FormattedDate string
	FormattedTime string

	IsTomorrow        bool
	IsThisWeek        bool
	IsLongRunning     bool
	IsPresenceOverlap bool
}

// VisualsFor picks event visuals from activity/seva keywords.
func VisualsFor(activity, seva string) Visuals {
	a := strings.ToLower(activity)
	s := strings.ToLower(seva)

	switch {
	case strings.Contains(a, "homa") || strings.Contains(s, "homa"):
		if strings.Contains(s, "ganpati") {
			return Visuals{Icon: "utensils-crossed", ImageHint: "ganesha fire ritual"}
		}
		return Visuals{Icon: "bell", ImageHint: "fire ritual"}
	case strings.Contains(a, "parayan") || strings.Contains(s, "parayan"):
		return Visuals{Icon: "book-open", ImageHint: "scripture reading"}
	case strings.Contains(a, "archana") || strings.Contains(s, "archana"):
		return Visuals{Icon: "flower", ImageHint: "flower offering"}
	case strings.Contains(a, "ganpati") || strings.Contains(s, "ganpati"):
		return Visuals{Icon: "utensils-crossed", ImageHint: "ganesha worship"}
	}
	return Visuals{Icon: "zap", ImageHint: "spiritual event"}
}

// Matches reports whether the event matches a free-text search query.
// The match is a case-insensitive substring test over seva, activity,
// venue, category, and tags.
func (e *EnrichedEvent) Matches(query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return false
	}
	if strings.Contains(strings.ToLower(e.Seva), q) ||
		strings.Contains(strings.ToLower(e.Activity), q) ||
		strings.Contains(strings.ToLower(e.Venue), q) ||
		strings.Contains(strings.ToLower(e.Category.Category), q) {
		return true
	}
	for _, tag := range e.Category.Tags {
		if strings.Contains(strings.ToLower(tag), q) {
			return true
		}
	}
	return false
}
