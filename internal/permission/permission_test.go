package permission

import (
	"context"
	"errors"
	"testing"

	"teketeke/mpesa-sms/internal/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingRequester struct {
	answers []bool
	err     error
	calls   int
}

func (c *countingRequester) RequestAccess(ctx context.Context) (bool, error) {
	c.calls++
	if c.err != nil {
		return false, c.err
	}
	answer := c.answers[0]
	if len(c.answers) > 1 {
		c.answers = c.answers[1:]
	}
	return answer, nil
}

func TestParseStatus(t *testing.T) {
	tests := []struct {
		input    string
		expected Status
		wantErr  bool
	}{
		{input: "granted", expected: StatusGranted},
		{input: "denied", expected: StatusDenied},
		{input: "prompt", expected: StatusPrompt},
		{input: "", expected: StatusPrompt},
		{input: "maybe", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseStatus(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestGate_StartsInPrompt(t *testing.T) {
	g := NewGate(Static{Grant: true}, logging.NewMockLogger())
	assert.Equal(t, StatusPrompt, g.Status())
	assert.False(t, g.Granted())
}

func TestGate_GrantIsSticky(t *testing.T) {
	r := &countingRequester{answers: []bool{true, false}}
	g := NewGate(r, logging.NewMockLogger())

	granted, err := g.Request(context.Background())
	require.NoError(t, err)
	assert.True(t, granted)

	granted, err = g.Request(context.Background())
	require.NoError(t, err)
	assert.True(t, granted)
	assert.Equal(t, 1, r.calls)
	assert.True(t, g.Granted())
}

func TestGate_DenialCanBeRetried(t *testing.T) {
	logger := logging.NewMockLogger()
	r := &countingRequester{answers: []bool{false, true}}
	g := NewGate(r, logger)

	granted, err := g.Request(context.Background())
	require.NoError(t, err)
	assert.False(t, granted)
	assert.Equal(t, StatusDenied, g.Status())

	granted, err = g.Request(context.Background())
	require.NoError(t, err)
	assert.True(t, granted)
	assert.Equal(t, 2, r.calls)

	status, ok := logger.FieldValue("Permission handshake completed", logging.FieldStatus)
	require.True(t, ok)
	assert.Equal(t, "denied", status)
}

func TestGate_RequesterError(t *testing.T) {
	g := NewGate(&countingRequester{err: errors.New("host unavailable")}, logging.NewMockLogger())

	granted, err := g.Request(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "host unavailable")
	assert.False(t, granted)
	assert.Equal(t, StatusPrompt, g.Status())
}

func TestGate_NilRequester(t *testing.T) {
	g := NewGate(nil, logging.NewMockLogger())
	_, err := g.Request(context.Background())
	assert.Error(t, err)
}

func TestStatic_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	granted, err := Static{Grant: true}.RequestAccess(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, granted)
}
