package store

import (
	"encoding/json"
	"time"
)

// TimestampLayout is the persisted timestamp pattern (MM/dd/yyyy HH:mm:ss).
const TimestampLayout = "01/02/2006 15:04:05"

// Record is the persisted state of one realtime timer.
type Record struct {
	// ID identifies the timer across the whole collection.
	ID int

	// Target is the instant the timer was armed. Zero means not armed yet.
	Target time.Time

	// Seconds is the countdown length measured from Target.
	Seconds int

	// Ready is set once the record has been armed.
	Ready bool
}

type wireRecord struct {
	ID      int    `json:"timerIndex"`
	Target  string `json:"startDateTimeStr"`
	Seconds int    `json:"timerSeconds"`
	Ready   bool   `json:"dataIsReady"`
}

type collection struct {
	Timers []Record `json:"timersData"`
}

// MarshalJSON implements json.Marshaler using the persisted field names.
func (r Record) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireRecord{
		ID:      r.ID,
		Target:  FormatTimestamp(r.Target),
		Seconds: r.Seconds,
		Ready:   r.Ready,
	})
}

// UnmarshalJSON implements json.Unmarshaler. A timestamp that does not match
// TimestampLayout decodes as not armed.
func (r *Record) UnmarshalJSON(data []byte) error {
	var w wireRecord
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	target, _ := ParseTimestamp(w.Target)
	*r = Record{ID: w.ID, Target: target, Seconds: w.Seconds, Ready: w.Ready}
	return nil
}

// FormatTimestamp renders t in local time using TimestampLayout. The zero
// time renders as "".
func FormatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format(TimestampLayout)
}

// ParseTimestamp parses a local-time TimestampLayout string. "" yields the
// zero time and no error.
func ParseTimestamp(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation(TimestampLayout, s, time.Local)
	if err != nil {
		return time.Time{}, err
	}
	return t, nil
}

// TargetOr returns Target, or now when the record is not armed.
func (r Record) TargetOr(now time.Time) time.Time {
	if r.Target.IsZero() {
		return now
	}
	return r.Target
}

// EndsAt returns when the countdown stored in r reaches zero.
func (r Record) EndsAt(now time.Time) time.Time {
	return r.TargetOr(now).Add(time.Duration(r.Seconds) * time.Second)
}

// Remaining returns the whole seconds left at now, truncated toward zero.
// The result is negative once the countdown has passed.
func (r Record) Remaining(now time.Time) int {
	return int(r.EndsAt(now).Sub(now) / time.Second)
}

// Expired reports whether the stored countdown has run out at now.
func (r Record) Expired(now time.Time) bool {
	return r.Remaining(now) <= 0
}
