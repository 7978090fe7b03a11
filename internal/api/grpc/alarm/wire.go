package alarm

import (
	"encoding/json"
	"fmt"
	"time"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	domain "github.com/oshokin/commute-alarm/internal/domain/alarm"
	"github.com/oshokin/commute-alarm/internal/domain/line"
)

// AlarmView is the wire form of a stored alarm.
type AlarmView struct {
	// ID is the alarm id.
	ID string `json:"id"`
	// Time is the trigger time as HH:MM.
	Time string `json:"time"`
	// Days lists the selected weekdays; empty for a one-time alarm.
	Days domain.Weekdays `json:"days"`
	// Lines are the monitored line ids.
	Lines []string `json:"lines"`
	// Enabled reports whether the alarm is scheduled.
	Enabled bool `json:"enabled"`
	// DisplayTime is the 12-hour rendering of Time.
	DisplayTime string `json:"display_time"`
	// DisplayDays describes the recurrence.
	DisplayDays string `json:"display_days"`
	// NextTrigger is the next firing instant of an enabled alarm.
	NextTrigger *time.Time `json:"next_trigger,omitempty"`
	// CreatedAt is when the alarm was stored.
	CreatedAt time.Time `json:"created_at"`
	// ModifiedAt is when the alarm was last written.
	ModifiedAt time.Time `json:"modified_at"`
}

// AlarmList is the ListAlarms response.
type AlarmList struct {
	// Alarms are ordered by time of day.
	Alarms []AlarmView `json:"alarms"`
	// CanCreateMore reports whether another alarm fits under the limit.
	CanCreateMore bool `json:"can_create_more"`
}

// AlarmDraft is the CreateAlarm and UpdateAlarm request.
type AlarmDraft struct {
	// ID selects the alarm to update; ignored by CreateAlarm.
	ID string `json:"id,omitempty"`
	// Time is the trigger time as HH:MM.
	Time string `json:"time"`
	// Days lists weekday names; empty means one-time.
	Days domain.Weekdays `json:"days"`
	// Lines are the monitored line ids.
	Lines []string `json:"lines"`
	// Enabled defaults to true when omitted.
	Enabled *bool `json:"enabled,omitempty"`
}

// EnabledRequest is the SetAlarmEnabled request.
type EnabledRequest struct {
	// ID is the alarm id.
	ID string `json:"id"`
	// Enabled is the requested flag.
	Enabled bool `json:"enabled"`
}

// LineSnapshot is the GetLineStatuses response.
type LineSnapshot struct {
	// Lines are the cached statuses.
	Lines []line.Cached `json:"lines"`
	// LastUpdated is when the cache was last written; absent for an empty cache.
	LastUpdated *time.Time `json:"last_updated,omitempty"`
}

// SyncResult is the wire form of one line status result.
type SyncResult struct {
	// Kind is "loading", "success" or "error".
	Kind string `json:"kind"`
	// Lines is set for success.
	Lines []line.Status `json:"lines,omitempty"`
	// Message is set for error.
	Message string `json:"message,omitempty"`
	// StatusCode is the HTTP status of an error, zero when not applicable.
	StatusCode int `json:"status_code,omitempty"`
}

// ToSyncResult converts a domain result to its wire form.
func ToSyncResult(r line.Result) SyncResult {
	return SyncResult{
		Kind:       r.Kind.String(),
		Lines:      r.Lines,
		Message:    r.Message,
		StatusCode: r.StatusCode,
	}
}

// EncodeStruct converts v to a Struct through its JSON form.
func EncodeStruct(v any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}

	result := new(structpb.Struct)
	if err = protojson.Unmarshal(data, result); err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}

	return result, nil
}

// DecodeStruct fills v from the JSON form of s.
func DecodeStruct(s *structpb.Struct, v any) error {
	data, err := protojson.Marshal(s)
	if err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}

	if err = json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}

	return nil
}
