package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// SubmissionRow is one respondent's answers, keyed by field label
type SubmissionRow struct {
	ID           string                 `json:"id"`
	Data         map[string]interface{} `json:"data"`
	PrimaryValue string                 `json:"primaryValue,omitempty"`
	SubmittedAt  Timestamp              `json:"submittedAt"`
}

// Timestamp is a submission time. The upstream store emits it either as
// {"_seconds": n, "_nanoseconds": n}, {"seconds": n}, an RFC3339 string or a bare
// epoch-seconds number.
type Timestamp struct {
	time.Time
}

// NewTimestamp wraps t
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t.UTC()}
}

// Seconds returns epoch seconds, 0 for the zero time
func (t Timestamp) Seconds() int64 {
	if t.Time.IsZero() {
		return 0
	}
	return t.Time.Unix()
}

type wireTimestamp struct {
	UnderscoreSeconds *int64 `json:"_seconds"`
	UnderscoreNanos   int64  `json:"_nanoseconds"`
	Seconds           *int64 `json:"seconds"`
	Nanos             int64  `json:"nanoseconds"`
}

// UnmarshalJSON accepts every shape the upstream produces
func (t *Timestamp) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}

	switch b[0] {
	case '{':
		var w wireTimestamp
		if err := json.Unmarshal(b, &w); err != nil {
			return fmt.Errorf("decode timestamp object: %w", err)
		}
		switch {
		case w.UnderscoreSeconds != nil:
			t.Time = time.Unix(*w.UnderscoreSeconds, w.UnderscoreNanos).UTC()
		case w.Seconds != nil:
			t.Time = time.Unix(*w.Seconds, w.Nanos).UTC()
		default:
			t.Time = time.Time{}
		}
		return nil
	case '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		if s == "" {
			t.Time = time.Time{}
			return nil
		}
		parsed, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return fmt.Errorf("decode timestamp string: %w", err)
		}
		t.Time = parsed.UTC()
		return nil
	default:
		var secs float64
		if err := json.Unmarshal(b, &secs); err != nil {
			return fmt.Errorf("decode timestamp number: %w", err)
		}
		t.Time = time.Unix(int64(secs), 0).UTC()
		return nil
	}
}

// MarshalJSON writes the {"_seconds": n} shape the SPA reads
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Seconds int64 `json:"_seconds"`
		Nanos   int   `json:"_nanoseconds"`
	}{
		Seconds: t.Seconds(),
		Nanos:   t.Time.Nanosecond(),
	})
}
