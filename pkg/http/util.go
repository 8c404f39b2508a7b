package http

import (
	"time"

	xutil "FinRank/pkg/util"
)

// ParseIntDefault parses string to int or returns default if empty/invalid.
func ParseIntDefault(s string, def int) int { return xutil.ParseIntDefault(s, def) }

// ParseSince resolves a "since" query value, see util.ParseSince.
func ParseSince(s string, now time.Time, def time.Duration) time.Time {
	return xutil.ParseSince(s, now, def)
}
