package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCallTimeUnmarshal(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  time.Time
	}{
		{
			name:  "feed layout",
			input: `"2025-07-11 09:14:23"`,
			want:  time.Date(2025, 7, 11, 9, 14, 23, 0, time.UTC),
		},
		{
			name:  "rfc3339",
			input: `"2025-07-11T09:14:23Z"`,
			want:  time.Date(2025, 7, 11, 9, 14, 23, 0, time.UTC),
		},
		{
			name:  "empty string is zero time",
			input: `""`,
		},
		{
			name:  "null is zero time",
			input: `null`,
		},
		{
			name:  "unparseable degrades to zero time",
			input: `"yesterday"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ct CallTime
			err := json.Unmarshal([]byte(tt.input), &ct)
			require.NoError(t, err)
			if tt.want.IsZero() {
				assert.True(t, ct.IsZero())
				return
			}
			assert.True(t, tt.want.Equal(ct.Time), "got %v", ct.Time)
		})
	}
}

func TestParseCallTime(t *testing.T) {
	assert.True(t, ParseCallTime("").IsZero())
	assert.True(t, ParseCallTime("not a time").IsZero())
	assert.Equal(t, "2025-07-11", ParseCallTime("2025-07-11 09:14:23").Day())
}

func TestCallTimeMarshal(t *testing.T) {
	ct := CallTime{Time: time.Date(2025, 7, 11, 9, 14, 23, 0, time.UTC)}
	data, err := json.Marshal(ct)
	require.NoError(t, err)
	assert.Equal(t, `"2025-07-11 09:14:23"`, string(data))

	data, err = json.Marshal(CallTime{})
	require.NoError(t, err)
	assert.Equal(t, `""`, string(data))
}

func TestCodeUnmarshal(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Code
	}{
		{name: "string code", input: `"12345"`, want: "12345"},
		{name: "numeric code", input: `12345`, want: "12345"},
		{name: "padded string", input: `" 12345 "`, want: "12345"},
		{name: "null", input: `null`, want: ""},
		{name: "empty string", input: `""`, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c Code
			require.NoError(t, json.Unmarshal([]byte(tt.input), &c))
			assert.Equal(t, tt.want, c)
		})
	}
}

func TestCDRRecordUnmarshal(t *testing.T) {
	payload := `{
		"call_time": "2025-07-11 09:14:23",
		"caller_number": "0212345678",
		"called_number": "3331234567",
		"duration_seconds": 185,
		"raw_call_type": "Chiamata Mobile",
		"operator": "OperatorX",
		"original_cost": 0.25,
		"contract_code": 88001,
		"service_code": "2",
		"client_city": "Milano",
		"dialed_prefix": "333"
	}`

	var rec CDRRecord
	require.NoError(t, json.Unmarshal([]byte(payload), &rec))

	assert.Equal(t, "0212345678", rec.CallerNumber)
	assert.Equal(t, 185, rec.DurationSeconds)
	assert.Equal(t, Code("88001"), rec.ContractCode)
	assert.Equal(t, Code("2"), rec.ServiceCode)
	assert.InDelta(t, 0.25, rec.OriginalCost, 0.0001)
	assert.Equal(t, "2025-07-11", rec.CallTime.Day())
	assert.False(t, rec.ContractCode.IsEmpty())
}

func TestRoundMoney(t *testing.T) {
	assert.InDelta(t, 0.1, RoundMoney(0.1000049), 1e-9)
	assert.InDelta(t, 0.1001, RoundMoney(0.10005), 1e-9)
	assert.InDelta(t, -0.1001, RoundMoney(-0.10005), 1e-9)
	assert.InDelta(t, 0.0, RoundMoney(0), 1e-9)
}

func TestClassifiedRecordSavings(t *testing.T) {
	rec := ClassifiedRecord{
		CDRRecord:    CDRRecord{OriginalCost: 0.25},
		CustomerCost: 0.90,
	}
	assert.InDelta(t, 0.65, rec.Savings(), 1e-9)

	// Customer price below carrier cost yields negative savings.
	rec.CustomerCost = 0.10
	assert.InDelta(t, -0.15, rec.Savings(), 1e-9)
}
