// Package clock owns the validity state of the wall clock. The logger boots
// with no usable clock; a companion device injects a sync message over the
// wireless link and acquisition stays gated until one is accepted.
package clock

import (
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// Layout is the timestamp format used on the wire and in records.
const Layout = "2006-01-02 15:04:05"

// epochPlaceholder is returned by Now when no sync has been applied yet.
const epochPlaceholder = "1970-01-01 00:00:00"

// Accepted year window for sync messages. Anything outside indicates a
// misbehaving companion rather than a plausible deployment date.
const (
	minYear = 2023
	maxYear = 2050
)

// snapshot is an immutable sync result. The sync path swaps the whole struct
// so the acquisition path never observes a partial timezone/instant update.
type snapshot struct {
	wall time.Time // local wall time carried by the sync message
	mono time.Time // monotonic reading taken when the sync was applied
	tz   string    // timezone spec, verbatim
}

// Authority is the single source of truth for "do we know what time it is".
// One writer (the time-sync handler) and one reader (the acquisition loop).
type Authority struct {
	log zerolog.Logger
	cur atomic.Pointer[snapshot]
}

func NewAuthority(log zerolog.Logger) *Authority {
	return &Authority{log: log.With().Str("component", "clock").Logger()}
}

// TrySync parses and validates a time-sync message of the form
// "YYYY-MM-DD HH:MM:SS|<timezone-spec>". On success the clock becomes valid
// and stays valid; a later accepted message simply re-applies the clock.
// Rejected messages leave the state untouched.
func (a *Authority) TrySync(msg string) bool {
	wall, tz, err := parseSyncMessage(msg)
	if err != nil {
		a.log.Warn().Err(err).Str("message", msg).Msg("rejected time sync")
		return false
	}
	s := &snapshot{wall: wall, mono: time.Now(), tz: tz}
	a.cur.Store(s)
	a.log.Info().Str("time", wall.Format(Layout)).Str("timezone", tz).Msg("clock synchronized")
	return true
}

// IsValid reports whether a sync message has ever been accepted.
func (a *Authority) IsValid() bool {
	return a.cur.Load() != nil
}

// Timezone returns the timezone spec of the last accepted sync, or "" if the
// clock has never been synchronized.
func (a *Authority) Timezone() string {
	s := a.cur.Load()
	if s == nil {
		return ""
	}
	return s.tz
}

// Now renders the current wall-clock value. Without a valid sync it returns
// the epoch placeholder instead of failing the caller.
func (a *Authority) Now() string {
	s := a.cur.Load()
	if s == nil {
		return epochPlaceholder
	}
	return s.wall.Add(time.Since(s.mono)).Format(Layout)
}

// parseSyncMessage validates the message strictly but purely syntactically:
// every field must be in range, month length and leap years are not checked.
func parseSyncMessage(msg string) (time.Time, string, error) {
	idx := strings.IndexByte(msg, '|')
	if idx < 0 {
		return time.Time{}, "", fmt.Errorf("missing '|' delimiter")
	}
	dt, tz := msg[:idx], msg[idx+1:]
	if len(dt) != len(Layout) || dt[4] != '-' || dt[7] != '-' || dt[10] != ' ' || dt[13] != ':' || dt[16] != ':' {
		return time.Time{}, "", fmt.Errorf("malformed date-time %q", dt)
	}
	fields := []struct {
		name     string
		s        string
		min, max int
	}{
		{"year", dt[0:4], minYear, maxYear},
		{"month", dt[5:7], 1, 12},
		{"day", dt[8:10], 1, 31},
		{"hour", dt[11:13], 0, 23},
		{"minute", dt[14:16], 0, 59},
		{"second", dt[17:19], 0, 59},
	}
	vals := make([]int, len(fields))
	for i, f := range fields {
		v, err := strconv.Atoi(f.s)
		if err != nil {
			return time.Time{}, "", fmt.Errorf("%s %q not numeric", f.name, f.s)
		}
		if v < f.min || v > f.max {
			return time.Time{}, "", fmt.Errorf("%s %d out of range %d-%d", f.name, v, f.min, f.max)
		}
		vals[i] = v
	}
	wall := time.Date(vals[0], time.Month(vals[1]), vals[2], vals[3], vals[4], vals[5], 0, posixLocation(tz))
	return wall, tz, nil
}

// posixLocation derives a fixed standard offset from the leading
// "NAME[+-]H[H][:MM]" part of a POSIX TZ spec such as
// "CET-1CEST,M3.5.0/2,M10.5.0/3". DST rules are not evaluated; the companion
// sends local wall time already, so only the zone label and standard offset
// matter here.
func posixLocation(spec string) *time.Location {
	i := 0
	for i < len(spec) && isAlpha(spec[i]) {
		i++
	}
	name := spec[:i]
	if name == "" {
		name = "UTC"
	}
	j := i
	sign := 1
	if j < len(spec) && (spec[j] == '+' || spec[j] == '-') {
		if spec[j] == '-' {
			sign = -1
		}
		j++
	}
	hours, ok := 0, false
	for j < len(spec) && spec[j] >= '0' && spec[j] <= '9' {
		hours = hours*10 + int(spec[j]-'0')
		j++
		ok = true
	}
	mins := 0
	if ok && j < len(spec) && spec[j] == ':' {
		j++
		for j < len(spec) && spec[j] >= '0' && spec[j] <= '9' {
			mins = mins*10 + int(spec[j]-'0')
			j++
		}
	}
	if !ok || hours > 24 {
		return time.FixedZone(name, 0)
	}
	// POSIX offsets are west-positive: "CET-1" is UTC+1.
	return time.FixedZone(name, -sign*(hours*3600+mins*60))
}

func isAlpha(c byte) bool {
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
}
