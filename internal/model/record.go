package model

import (
	"bytes"
	"strings"
	"time"
)

// callTimeLayout is the timestamp layout used by the CDR feed.
const callTimeLayout = "2006-01-02 15:04:05"

// CallTime wraps time.Time to accept both the CDR feed layout and RFC 3339
// timestamps. It marshals back in the feed layout for report parity.
type CallTime struct {
	time.Time
}

// UnmarshalJSON parses a call timestamp. Empty, null and unparseable
// values decode to the zero time so a malformed record degrades instead
// of aborting its whole batch. Zero-time records stay out of daily
// breakdowns but still count in totals.
func (t *CallTime) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "null" {
		t.Time = time.Time{}
		return nil
	}
	*t = ParseCallTime(s)
	return nil
}

// ParseCallTime parses a feed timestamp, accepting the feed layout and
// RFC 3339. Empty and unparseable values yield the zero CallTime.
func ParseCallTime(s string) CallTime {
	s = strings.TrimSpace(s)
	if s == "" {
		return CallTime{}
	}

	parsed, err := time.Parse(callTimeLayout, s)
	if err != nil {
		parsed, err = time.Parse(time.RFC3339, s)
	}
	if err != nil {
		return CallTime{}
	}
	return CallTime{Time: parsed}
}

// MarshalJSON renders the timestamp in the feed layout, or an empty string
// for the zero time.
func (t CallTime) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte(`""`), nil
	}
	return []byte(`"` + t.Format(callTimeLayout) + `"`), nil
}

// Day returns the YYYY-MM-DD day key for daily breakdowns.
func (t CallTime) Day() string {
	return t.Format("2006-01-02")
}

// Code is a contract or service code. Some feeds serialize codes as JSON
// numbers rather than strings; both decode to the string form.
type Code string

// UnmarshalJSON accepts a quoted string, a bare number, or null.
func (c *Code) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*c = ""
		return nil
	}

	if data[0] == '"' {
		*c = Code(strings.TrimSpace(strings.Trim(string(data), `"`)))
		return nil
	}

	*c = Code(string(data))
	return nil
}

// IsEmpty reports whether the code carries no value.
func (c Code) IsEmpty() bool {
	return strings.TrimSpace(string(c)) == ""
}

// CDRRecord is a single call detail record from the ingestion feed.
// Records are read-only input; classification never mutates them.
type CDRRecord struct {
	CallTime        CallTime `json:"call_time"`
	CallerNumber    string   `json:"caller_number"`
	CalledNumber    string   `json:"called_number"`
	RawCallType     string   `json:"raw_call_type"`
	Operator        string   `json:"operator"`
	ClientCity      string   `json:"client_city"`
	DialedPrefix    string   `json:"dialed_prefix"`
	ContractCode    Code     `json:"contract_code"`
	ServiceCode     Code     `json:"service_code"`
	OriginalCost    float64  `json:"original_cost"`
	DurationSeconds int      `json:"duration_seconds"`
}

// BatchMetadata describes the provenance of a batch input document.
type BatchMetadata struct {
	SourceFile          string `json:"source_file"`
	GenerationTimestamp string `json:"generation_timestamp"`
	TotalRecords        int    `json:"total_records"`
}

// BatchDocument is the JSON envelope produced by CDR conversion and
// consumed by the processing pipeline.
type BatchDocument struct {
	Metadata BatchMetadata `json:"metadata"`
	Records  []CDRRecord   `json:"records"`
}
