package clock

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func newTestAuthority() *Authority {
	return NewAuthority(zerolog.Nop())
}

func TestTrySyncAccepted(t *testing.T) {
	messages := []string{
		"2025-02-26 14:15:30|CET-1CEST,M3.5.0/2,M10.5.0/3",
		"2023-01-01 00:00:00|UTC0",
		"2050-12-31 23:59:59|EST5EDT,M3.2.0,M11.1.0",
		"2030-06-15 12:00:00|PST8PDT,M3.2.0,M11.1.0",
	}
	for _, msg := range messages {
		a := newTestAuthority()
		require.False(t, a.IsValid())
		require.True(t, a.TrySync(msg), "message %q", msg)
		require.True(t, a.IsValid())
	}
}

func TestTrySyncRejected(t *testing.T) {
	messages := []string{
		"",
		"2025-02-26 14:15:30",                // missing delimiter
		"2025-13-01 00:00:00|UTC",            // month 13
		"2022-06-01 00:00:00|UTC0",           // year below window
		"2051-06-01 00:00:00|UTC0",           // year above window
		"2025-00-01 00:00:00|UTC0",           // month 0
		"2025-06-00 00:00:00|UTC0",           // day 0
		"2025-06-32 00:00:00|UTC0",           // day 32
		"2025-06-01 24:00:00|UTC0",           // hour 24
		"2025-06-01 12:60:00|UTC0",           // minute 60
		"2025-06-01 12:00:60|UTC0",           // second 60
		"2025-6-1 00:00:00|UTC0",             // fields not zero-padded
		"2025-06-01T00:00:00|UTC0",           // wrong separator
		"20XX-06-01 00:00:00|UTC0",           // non-numeric year
		"2025-06-01 00:00|UTC0",              // truncated
	}
	for _, msg := range messages {
		a := newTestAuthority()
		require.False(t, a.TrySync(msg), "message %q", msg)
		require.False(t, a.IsValid())
		require.Equal(t, "1970-01-01 00:00:00", a.Now())
	}
}

func TestRejectedMessageLeavesStateUnchanged(t *testing.T) {
	a := newTestAuthority()
	require.True(t, a.TrySync("2025-02-26 14:15:30|CET-1CEST,M3.5.0/2,M10.5.0/3"))
	require.False(t, a.TrySync("2025-13-01 00:00:00|UTC"))
	require.True(t, a.IsValid())
	require.Equal(t, "CET-1CEST,M3.5.0/2,M10.5.0/3", a.Timezone())
}

func TestResyncReappliesClock(t *testing.T) {
	a := newTestAuthority()
	require.True(t, a.TrySync("2025-02-26 14:15:30|UTC0"))
	require.True(t, a.TrySync("2026-01-01 08:00:00|EST5EDT,M3.2.0,M11.1.0"))
	require.True(t, a.IsValid())
	require.Equal(t, "EST5EDT,M3.2.0,M11.1.0", a.Timezone())
	now, err := time.Parse(Layout, a.Now())
	require.NoError(t, err)
	expected := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
	require.WithinDuration(t, expected, now, 2*time.Second)
}

func TestNowTracksElapsedTime(t *testing.T) {
	a := newTestAuthority()
	require.True(t, a.TrySync("2030-01-01 00:00:00|UTC0"))
	now, err := time.Parse(Layout, a.Now())
	require.NoError(t, err)
	expected := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	require.WithinDuration(t, expected, now, 2*time.Second)
}

func TestValidationIsRangeOnly(t *testing.T) {
	// Day 31 is accepted for every month; month length is not enforced.
	a := newTestAuthority()
	require.True(t, a.TrySync("2025-02-31 00:00:00|UTC0"))
	require.True(t, a.IsValid())
}

func TestPosixLocationOffsets(t *testing.T) {
	cases := []struct {
		spec   string
		name   string
		offset int
	}{
		{"CET-1CEST,M3.5.0/2,M10.5.0/3", "CET", 3600},
		{"EST5EDT,M3.2.0,M11.1.0", "EST", -5 * 3600},
		{"PST8PDT,M3.2.0,M11.1.0", "PST", -8 * 3600},
		{"UTC0", "UTC", 0},
		{"IST-5:30", "IST", 5*3600 + 30*60},
		{"", "UTC", 0},
		{"garbage-without-offset", "garbage", 0},
	}
	for _, tc := range cases {
		loc := posixLocation(tc.spec)
		name, offset := time.Date(2025, 6, 1, 0, 0, 0, 0, loc).Zone()
		require.Equal(t, tc.name, name, "spec %q", tc.spec)
		require.Equal(t, tc.offset, offset, "spec %q", tc.spec)
	}
}
