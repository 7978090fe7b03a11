package notify

import (
	"errors"
	"fmt"
	"strings"

	"github.com/oshokin/commute-alarm/internal/domain/line"
)

// Notification titles.
const (
	TitleDisruption = "Service Disruptions Detected"
	TitleStatus     = "Tube Status Update"
	TitleFailed     = "Status Check Failed"
)

// errUnknownValue is returned when decoding an unknown channel or priority name.
var errUnknownValue = errors.New("unknown value")

// Channel selects how intrusive a notification is.
type Channel int

// Channels, from least to most intrusive.
const (
	ChannelSilent Channel = iota
	ChannelDefault
	ChannelUrgent
)

// String returns the channel name.
func (c Channel) String() string {
	switch c {
	case ChannelSilent:
		return "silent"
	case ChannelUrgent:
		return "urgent"
	default:
		return "default"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (c Channel) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Channel) UnmarshalText(text []byte) error {
	switch string(text) {
	case "silent":
		*c = ChannelSilent
	case "default":
		*c = ChannelDefault
	case "urgent":
		*c = ChannelUrgent
	default:
		return fmt.Errorf("%w: %q", errUnknownValue, text)
	}

	return nil
}

// Priority is the display priority of a notification.
type Priority int

// Priorities.
const (
	PriorityDefault Priority = iota
	PriorityHigh
)

// MarshalText implements encoding.TextMarshaler.
func (p Priority) MarshalText() ([]byte, error) {
	if p == PriorityHigh {
		return []byte("high"), nil
	}

	return []byte("default"), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Priority) UnmarshalText(text []byte) error {
	switch string(text) {
	case "default":
		*p = PriorityDefault
	case "high":
		*p = PriorityHigh
	default:
		return fmt.Errorf("%w: %q", errUnknownValue, text)
	}

	return nil
}

// Kind tells status reports from failures.
type Kind string

// Request kinds.
const (
	KindStatus Kind = "status"
	KindError  Kind = "error"
)

// TargetKind is where opening the notification leads.
type TargetKind string

// Navigation targets.
const (
	TargetSummary    TargetKind = "summary"
	TargetLineDetail TargetKind = "line_detail"
)

// Target is the navigation target of a notification.
type Target struct {
	// Kind is the destination view.
	Kind TargetKind `json:"kind"`
	// LineID is set for TargetLineDetail.
	LineID string `json:"line_id,omitempty"`
}

// LineRow is one monitored line in a status notification.
type LineRow struct {
	// LineID is the stable line id.
	LineID string `json:"line_id"`
	// Name is the display name.
	Name string `json:"name"`
	// StatusText is the human status.
	StatusText string `json:"status_text"`
	// Disrupted reports severity below nominal.
	Disrupted bool `json:"disrupted"`
}

// String renders the row as "name: status text".
func (r LineRow) String() string {
	return r.Name + ": " + r.StatusText
}

// Request is one notification to present.
type Request struct {
	// AlarmID identifies the alarm that fired.
	AlarmID string `json:"alarm_id"`
	// Kind tells status reports from failures.
	Kind Kind `json:"kind"`
	// Title is the headline.
	Title string `json:"title"`
	// ContentText is the collapsed one-line body.
	ContentText string `json:"content_text"`
	// Lines holds one row per monitored line of a status report.
	Lines []LineRow `json:"lines,omitempty"`
	// Summary is the footer of a status report or the expanded body of a failure.
	Summary string `json:"summary"`
	// Channel selects how intrusive the notification is.
	Channel Channel `json:"channel"`
	// Priority is the display priority.
	Priority Priority `json:"priority"`
	// Target is where opening the notification leads.
	Target Target `json:"target"`
}

// HasDisruption reports whether any row is disrupted.
func (r *Request) HasDisruption() bool {
	for _, row := range r.Lines {
		if row.Disrupted {
			return true
		}
	}

	return false
}

// Text renders the request as plain text.
func (r *Request) Text() string {
	var b strings.Builder

	b.WriteString(r.Title)
	b.WriteByte('\n')

	for _, row := range r.Lines {
		b.WriteString(row.String())
		b.WriteByte('\n')
	}

	if r.Summary != "" {
		b.WriteString(r.Summary)
	} else {
		b.WriteString(r.ContentText)
	}

	return strings.TrimSpace(b.String())
}

// RowOf converts a line status into a notification row.
func RowOf(status *line.Status) LineRow {
	return LineRow{
		LineID:     status.ID,
		Name:       status.Name,
		StatusText: status.StatusText(),
		Disrupted:  status.IsDisrupted(),
	}
}

// StatusReport builds the notification for the monitored statuses of an alarm.
// The channel is urgent when any monitored line is disrupted and silent otherwise.
func StatusReport(alarmID string, statuses []line.Status) Request {
	rows := make([]LineRow, 0, len(statuses))

	affected := 0

	for i := range statuses {
		row := RowOf(&statuses[i])
		if row.Disrupted {
			affected++
		}

		rows = append(rows, row)
	}

	req := Request{
		AlarmID:     alarmID,
		Kind:        KindStatus,
		Title:       TitleStatus,
		ContentText: fmt.Sprintf("%d line(s) checked", len(rows)),
		Lines:       rows,
		Summary:     "All lines running smoothly",
		Channel:     ChannelSilent,
		Priority:    PriorityDefault,
		Target:      targetOf(rows),
	}

	if affected > 0 {
		req.Title = TitleDisruption
		req.Summary = fmt.Sprintf("%d line(s) affected", affected)
		req.Channel = ChannelUrgent
		req.Priority = PriorityHigh
	}

	return req
}

// FailureReport builds the notification sent when no statuses could be obtained.
func FailureReport(alarmID string, lineIDs []string) Request {
	joined := strings.Join(lineIDs, ", ")

	return Request{
		AlarmID:     alarmID,
		Kind:        KindError,
		Title:       TitleFailed,
		ContentText: "We tried to check the status for: " + joined,
		Summary: "We tried to check the status for the following lines: " + joined +
			" but an error occurred. Please check your connection and try again.",
		Channel:  ChannelDefault,
		Priority: PriorityDefault,
		Target:   Target{Kind: TargetSummary},
	}
}

// MissingLinesReport builds the notification sent when none of the monitored
// lines exist in the feed any more.
func MissingLinesReport(alarmID string, lineIDs []string) Request {
	joined := strings.Join(lineIDs, ", ")

	return Request{
		AlarmID:     alarmID,
		Kind:        KindError,
		Title:       TitleFailed,
		ContentText: "Lines not found: " + joined,
		Summary: "None of the monitored lines were reported by the status feed: " + joined +
			". Please edit the alarm and select lines again.",
		Channel:  ChannelDefault,
		Priority: PriorityDefault,
		Target:   Target{Kind: TargetSummary},
	}
}

// targetOf leads to the line detail for a single row and to the summary otherwise.
func targetOf(rows []LineRow) Target {
	if len(rows) == 1 {
		return Target{Kind: TargetLineDetail, LineID: rows[0].LineID}
	}

	return Target{Kind: TargetSummary}
}
