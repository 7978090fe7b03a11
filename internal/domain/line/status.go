package line

import (
	"slices"
	"time"
)

// NominalSeverity is the severity code of a line running a good service.
const NominalSeverity = 10

// Category classifies a severity code.
type Category int

// Severity categories, from best to worst, plus the unclassified fallback.
const (
	CategoryGoodService Category = iota
	CategoryMinorDelays
	CategoryMajorDelays
	CategorySevereDelays
	CategoryClosure
	CategoryDisruption
)

// categoryLabels are the human labels of each category.
//
//nolint:gochecknoglobals // Read-only lookup table.
var categoryLabels = map[Category]string{
	CategoryGoodService:  "Good Service",
	CategoryMinorDelays:  "Minor Delays",
	CategoryMajorDelays:  "Major Delays",
	CategorySevereDelays: "Severe Delays",
	CategoryClosure:      "Closure",
	CategoryDisruption:   "Service Disruption",
}

// String returns the human label of the category.
func (c Category) String() string {
	if label, ok := categoryLabels[c]; ok {
		return label
	}

	return categoryLabels[CategoryDisruption]
}

// CategoryOf maps a feed severity code to its category.
// Codes outside 0-10 are unclassified and map to CategoryDisruption.
func CategoryOf(severity int) Category {
	switch {
	case severity == 10:
		return CategoryGoodService
	case severity == 9:
		return CategoryMinorDelays
	case severity >= 6 && severity <= 8:
		return CategoryMajorDelays
	case severity >= 2 && severity <= 5:
		return CategorySevereDelays
	case severity == 0 || severity == 1:
		return CategoryClosure
	default:
		return CategoryDisruption
	}
}

// Disruption is the optional structured detail attached to a status entry.
type Disruption struct {
	// Category is the feed's disruption category, e.g. "RealTime".
	Category string `json:"category"`
	// Description is the free-text explanation.
	Description string `json:"description"`
	// AffectedStops lists the names of affected stops.
	AffectedStops []string `json:"affected_stops,omitempty"`
	// From is the start of the validity window, zero if unknown.
	From time.Time `json:"from,omitzero"`
	// To is the end of the validity window, zero if unknown.
	To time.Time `json:"to,omitzero"`
}

// Status is the current state of one line.
type Status struct {
	// ID is the stable line id, e.g. "central".
	ID string `json:"id"`
	// Name is the display name, e.g. "Central".
	Name string `json:"name"`
	// Description is the human status text.
	Description string `json:"description"`
	// Severity is the feed severity code, lower is worse.
	Severity int `json:"severity"`
	// Disruptions holds structured details when the feed provides them.
	Disruptions []Disruption `json:"disruptions,omitempty"`
}

// Category returns the severity category of the line.
func (s *Status) Category() Category {
	return CategoryOf(s.Severity)
}

// IsDisrupted reports whether the line is running below nominal service.
func (s *Status) IsDisrupted() bool {
	return s.Severity < NominalSeverity
}

// StatusText returns the description or, when empty, the category label.
func (s *Status) StatusText() string {
	if s.Description != "" {
		return s.Description
	}

	return s.Category().String()
}

// Clone returns a deep copy of the status.
func (s *Status) Clone() Status {
	cloned := *s
	cloned.Disruptions = slices.Clone(s.Disruptions)

	for i := range cloned.Disruptions {
		cloned.Disruptions[i].AffectedStops = slices.Clone(s.Disruptions[i].AffectedStops)
	}

	return cloned
}

// Cached is a status stored in the local cache.
type Cached struct {
	Status

	// UpdatedAt is when the status was written to the cache.
	UpdatedAt time.Time `json:"updated_at"`
	// ExpiresAt is when the cached status is considered stale.
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the entry is stale at now.
func (c *Cached) Expired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}

// Filter returns the statuses whose ids are in ids, keeping ids order.
func Filter(statuses []Status, ids []string) []Status {
	byID := make(map[string]Status, len(statuses))
	for _, s := range statuses {
		byID[s.ID] = s
	}

	result := make([]Status, 0, len(ids))

	for _, id := range ids {
		if s, ok := byID[id]; ok {
			result = append(result, s)
		}
	}

	return result
}
