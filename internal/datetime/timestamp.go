// Package datetime holds the time types shared by the server and clients:
// millisecond timestamps, durations, calendar dates and a clock synchronised
// against the server.
package datetime

import (
	"fmt"
	"strconv"
	"time"
)

// Timestamp is a Unix timestamp with millisecond precision, UTC.
type Timestamp uint64

// Now returns the current timestamp.
func Now() Timestamp {
	return FromTime(time.Now())
}

// FromTime converts t to a Timestamp. Times before the epoch clamp to zero.
func FromTime(t time.Time) Timestamp {
	ms := t.UnixMilli()
	if ms < 0 {
		return 0
	}
	return Timestamp(ms)
}

// FromMilliseconds creates a timestamp from milliseconds since the epoch.
func FromMilliseconds(ms uint64) Timestamp {
	return Timestamp(ms)
}

// Milliseconds returns milliseconds since the epoch.
func (t Timestamp) Milliseconds() uint64 { return uint64(t) }

// Time converts the timestamp to a UTC time.Time.
func (t Timestamp) Time() time.Time {
	return time.UnixMilli(int64(t)).UTC()
}

// Diff returns the absolute duration between t and other.
func (t Timestamp) Diff(other Timestamp) Duration {
	if t > other {
		return Duration(t - other)
	}
	return Duration(other - t)
}

// Add returns t moved forward by d.
func (t Timestamp) Add(d Duration) Timestamp {
	return t + Timestamp(d)
}

// String returns the decimal number of milliseconds.
func (t Timestamp) String() string {
	return strconv.FormatUint(uint64(t), 10)
}

// ParseTimestamp parses a decimal number of milliseconds.
func ParseTimestamp(s string) (Timestamp, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse timestamp: %w", err)
	}
	return Timestamp(v), nil
}

// ServerTimestamp is a timestamp created on the server, so it can be
// trusted. Clients only obtain one by decoding server messages.
type ServerTimestamp struct {
	ts Timestamp
}

// ServerNow returns the current server timestamp.
func ServerNow() ServerTimestamp {
	return ServerTimestamp{ts: Now()}
}

// NewServerTimestamp creates a server timestamp from milliseconds.
func NewServerTimestamp(ms uint64) ServerTimestamp {
	return ServerTimestamp{ts: Timestamp(ms)}
}

// Timestamp returns the underlying timestamp.
func (s ServerTimestamp) Timestamp() Timestamp { return s.ts }

// Milliseconds returns milliseconds since the epoch.
func (s ServerTimestamp) Milliseconds() uint64 { return uint64(s.ts) }

func (s ServerTimestamp) String() string { return s.ts.String() }

// ParseServerTimestamp parses a decimal number of milliseconds.
func ParseServerTimestamp(s string) (ServerTimestamp, error) {
	ts, err := ParseTimestamp(s)
	if err != nil {
		return ServerTimestamp{}, err
	}
	return ServerTimestamp{ts: ts}, nil
}

func (s ServerTimestamp) MarshalJSON() ([]byte, error) {
	return []byte(s.ts.String()), nil
}

func (s *ServerTimestamp) UnmarshalJSON(data []byte) error {
	ts, err := ParseTimestamp(string(data))
	if err != nil {
		return err
	}
	s.ts = ts
	return nil
}
