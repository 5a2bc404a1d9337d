package datetime

import "fmt"

// Duration is a time span with millisecond precision. Its string form is
// HH:MM:SS where hours are not wrapped into days.
type Duration uint64

// DurationFromMilliseconds creates a duration of ms milliseconds.
func DurationFromMilliseconds(ms uint64) Duration { return Duration(ms) }

// DurationFromSeconds creates a duration of s seconds.
func DurationFromSeconds(s uint64) Duration { return Duration(s * 1000) }

// DurationFromDays creates a duration of whole 24-hour days.
func DurationFromDays(days uint64) Duration { return DurationFromSeconds(days * 24 * 60 * 60) }

// Milliseconds returns the duration in milliseconds.
func (d Duration) Milliseconds() uint64 { return uint64(d) }

// WholeSeconds returns the number of whole seconds.
func (d Duration) WholeSeconds() uint64 { return uint64(d) / 1000 }

// WholeMinutes returns the number of whole minutes.
func (d Duration) WholeMinutes() uint64 { return d.WholeSeconds() / 60 }

// WholeHours returns the number of whole hours.
func (d Duration) WholeHours() uint64 { return d.WholeMinutes() / 60 }

// WholeDays returns the number of whole 24-hour days.
func (d Duration) WholeDays() uint64 { return d.WholeHours() / 24 }

func (d Duration) String() string {
	hours := d.WholeHours()
	minutes := d.WholeMinutes() - hours*60
	seconds := d.WholeSeconds() - hours*60*60 - minutes*60
	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
}
