package model

import "time"

// Now is the clock used for every persisted timestamp. Always UTC, truncated to the
// millisecond precision the document store keeps.
var Now = func() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

func StringPtr(s string) *string { return &s }

func TimePtr(t time.Time) *time.Time { return &t }

func IntPtr(i int) *int { return &i }
