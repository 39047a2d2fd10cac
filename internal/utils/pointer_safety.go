package utils

import "time"

func Ptr[T any](v T) *T {
	return &v
}

// TimePtrUTC returns a UTC copy of t, or nil when t is nil
func TimePtrUTC(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	return Ptr(t.UTC())
}
