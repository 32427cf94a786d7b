package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInterpretTreatsNaiveValueAsWallClockInZone(t *testing.T) {
	resolver := NewTimezoneResolver()

	// 10:00 stored naively, meant as 10:00 Asia/Kolkata (UTC+5:30).
	naive := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)
	got := resolver.Interpret(naive, "Asia/Kolkata")

	kolkata, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)
	want := time.Date(2025, 3, 10, 10, 0, 0, 0, kolkata)

	assert.True(t, got.Equal(want))
	assert.Equal(t, time.Date(2025, 3, 10, 4, 30, 0, 0, time.UTC), got.UTC())
}

func TestInterpretFallsBackToUTCOnUnknownTimezone(t *testing.T) {
	resolver := NewTimezoneResolver()

	naive := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)
	got := resolver.Interpret(naive, "Not/AZone")

	assert.True(t, got.Equal(naive))
}

func TestResolveLocationEmptyNameIsUTC(t *testing.T) {
	resolver := NewTimezoneResolver()
	assert.Equal(t, time.UTC, resolver.ResolveLocation(""))
}

func TestNowInUsesInjectedClock(t *testing.T) {
	resolver := NewTimezoneResolver()
	instant := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := fixedClock{t: instant}

	got := resolver.NowIn("Asia/Kolkata", clock)

	assert.True(t, got.Equal(instant))
	assert.Equal(t, "Asia/Kolkata", got.Location().String())
}

func TestValidateRejectsUnknownTimezone(t *testing.T) {
	resolver := NewTimezoneResolver()
	assert.NoError(t, resolver.Validate("Europe/Berlin"))
	assert.Error(t, resolver.Validate("Mars/OlympusMons"))
}
