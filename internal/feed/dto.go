package feed

import (
	"time"

	"github.com/oshokin/commute-alarm/internal/domain/line"
)

// noStatusDescription is used when a line comes without status entries.
const noStatusDescription = "No status available"

type lineDTO struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	ModeName     string            `json:"modeName"`
	LineStatuses []lineStatusEntry `json:"lineStatuses"`
}

type lineStatusEntry struct {
	StatusSeverity            int              `json:"statusSeverity"`
	StatusSeverityDescription string           `json:"statusSeverityDescription"`
	Reason                    string           `json:"reason"`
	Disruption                *disruptionDTO   `json:"disruption"`
	ValidityPeriods           []validityPeriod `json:"validityPeriods"`
}

type disruptionDTO struct {
	Category      string    `json:"category"`
	Description   string    `json:"description"`
	AffectedStops []stopDTO `json:"affectedStops"`
}

type stopDTO struct {
	CommonName string `json:"commonName"`
}

type validityPeriod struct {
	FromDate string `json:"fromDate"`
	ToDate   string `json:"toDate"`
}

// feedTimeLayouts are tried in order; the feed omits the zone on some entries.
//
//nolint:gochecknoglobals // Read-only lookup table.
var feedTimeLayouts = []string{time.RFC3339, "2006-01-02T15:04:05"}

// parseFeedTime returns the zero time when value matches no known layout.
func parseFeedTime(value string) time.Time {
	for _, layout := range feedTimeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}

	return time.Time{}
}

// toDomain maps a feed line. The first status entry is authoritative.
func (d *lineDTO) toDomain() line.Status {
	status := line.Status{
		ID:   d.ID,
		Name: d.Name,
	}

	if len(d.LineStatuses) == 0 {
		status.Severity = 0
		status.Description = noStatusDescription

		return status
	}

	entry := d.LineStatuses[0]
	status.Severity = entry.StatusSeverity

	switch {
	case entry.Reason != "":
		status.Description = entry.Reason
	case entry.StatusSeverityDescription != "":
		status.Description = entry.StatusSeverityDescription
	default:
		status.Description = line.CategoryOf(entry.StatusSeverity).String()
	}

	for i := range d.LineStatuses {
		if disruption, ok := d.LineStatuses[i].disruption(); ok {
			status.Disruptions = append(status.Disruptions, disruption)
		}
	}

	return status
}

// disruption extracts the structured detail of an entry, if any.
func (e *lineStatusEntry) disruption() (line.Disruption, bool) {
	if e.Disruption == nil {
		return line.Disruption{}, false
	}

	result := line.Disruption{
		Category:    e.Disruption.Category,
		Description: e.Disruption.Description,
	}

	for _, stop := range e.Disruption.AffectedStops {
		if stop.CommonName != "" {
			result.AffectedStops = append(result.AffectedStops, stop.CommonName)
		}
	}

	if len(e.ValidityPeriods) > 0 {
		result.From = parseFeedTime(e.ValidityPeriods[0].FromDate)
		result.To = parseFeedTime(e.ValidityPeriods[0].ToDate)
	}

	return result, true
}
