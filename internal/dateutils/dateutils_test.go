package dateutils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatEpochMillis(t *testing.T) {
	nairobi := time.FixedZone("EAT", 3*60*60)

	tests := []struct {
		name     string
		millis   int64
		loc      *time.Location
		expected string
	}{
		{name: "epoch in UTC", millis: 0, loc: time.UTC, expected: "1970-01-01T00:00:00.000+0000"},
		{name: "nil location is UTC", millis: 0, loc: nil, expected: "1970-01-01T00:00:00.000+0000"},
		{name: "millisecond precision", millis: 1709288130250, loc: time.UTC, expected: "2024-03-01T10:15:30.250+0000"},
		{name: "positive offset", millis: 1709288130250, loc: nairobi, expected: "2024-03-01T13:15:30.250+0300"},
		{name: "negative millis", millis: -1, loc: time.UTC, expected: "1969-12-31T23:59:59.999+0000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatEpochMillis(tt.millis, tt.loc))
		})
	}
}

func TestParseTimestamp_RoundTrip(t *testing.T) {
	const millis = int64(1709288130250)
	parsed, err := ParseTimestamp(FormatEpochMillis(millis, time.FixedZone("EAT", 3*60*60)))
	require.NoError(t, err)
	assert.Equal(t, millis, parsed.UnixMilli())

	_, err = ParseTimestamp("01/03/2024")
	assert.Error(t, err)
}

func TestLoadLocation(t *testing.T) {
	loc, err := LoadLocation("")
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)

	loc, err = LoadLocation("Local")
	require.NoError(t, err)
	assert.Equal(t, time.Local, loc)

	_, err = LoadLocation("Mars/Olympus_Mons")
	assert.Error(t, err)
}
