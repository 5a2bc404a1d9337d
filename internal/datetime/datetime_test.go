package datetime

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDurationWholeUnits(t *testing.T) {
	assert.Equal(t, uint64(0), DurationFromSeconds(1).WholeMinutes())
	assert.Equal(t, uint64(1), DurationFromSeconds(60).WholeMinutes())
	assert.Equal(t, uint64(1), DurationFromSeconds(61).WholeMinutes())

	assert.Equal(t, uint64(0), DurationFromSeconds(1).WholeHours())
	assert.Equal(t, uint64(1), DurationFromSeconds(60*60).WholeHours())
	assert.Equal(t, uint64(3), DurationFromSeconds(3*60*60+1).WholeHours())

	assert.Equal(t, uint64(0), DurationFromSeconds(1).WholeDays())
	assert.Equal(t, uint64(1), DurationFromSeconds(24*60*60).WholeDays())
	assert.Equal(t, uint64(2), DurationFromSeconds(2*24*60*60+1).WholeDays())
	assert.Equal(t, uint64(49_710), DurationFromSeconds(math.MaxUint32).WholeDays())

	assert.Equal(t, uint64(1), DurationFromMilliseconds(1999).WholeSeconds())
	assert.Equal(t, uint64(3651), DurationFromDays(3651).WholeDays())
}

func TestDurationString(t *testing.T) {
	tests := []struct {
		d    Duration
		want string
	}{
		{DurationFromSeconds(0), "00:00:00"},
		{DurationFromSeconds(83), "00:01:23"},
		{DurationFromSeconds(5*60*60 + 83), "05:01:23"},
		{DurationFromSeconds(math.MaxUint32), "1193046:28:15"},
		{DurationFromMilliseconds(999), "00:00:00"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.d.String())
	}
}

func TestTimestampDiff(t *testing.T) {
	assert.Equal(t, DurationFromMilliseconds(1), FromMilliseconds(1).Diff(FromMilliseconds(2)))
	t1 := FromMilliseconds(0)
	t2 := FromMilliseconds(math.MaxUint64)
	assert.Equal(t, DurationFromMilliseconds(math.MaxUint64), t1.Diff(t2))
	assert.Equal(t, DurationFromMilliseconds(math.MaxUint64), t2.Diff(t1))
	assert.Equal(t, FromMilliseconds(1500), FromMilliseconds(500).Add(DurationFromSeconds(1)))
}

func TestTimestampNow(t *testing.T) {
	assert.Greater(t, Now().Milliseconds(), uint64(0))
	assert.Greater(t, ServerNow().Milliseconds(), uint64(0))
}

func TestTimestampParse(t *testing.T) {
	ts, err := ParseTimestamp("1700000000123")
	require.NoError(t, err)
	assert.Equal(t, uint64(1700000000123), ts.Milliseconds())
	assert.Equal(t, "1700000000123", ts.String())

	st, err := ParseServerTimestamp("42")
	require.NoError(t, err)
	assert.Equal(t, NewServerTimestamp(42), st)

	_, err = ParseTimestamp("-1")
	assert.Error(t, err)
	_, err = ParseServerTimestamp("abc")
	assert.Error(t, err)
}

func TestDateFormat(t *testing.T) {
	assert.Equal(t, "2022-05-09", NewDate(2022, 5, 9).String())
}

func TestDateNewPanicsOnInvalid(t *testing.T) {
	assert.Panics(t, func() { NewDate(2022, 2, 30) })
	assert.Panics(t, func() { NewDate(2022, 13, 1) })
}

func TestDateDayOfWeek(t *testing.T) {
	day := NewDate(2023, 7, 6)
	assert.Equal(t, uint(3), day.DaysFromMonday())
	assert.Equal(t, uint(0), day.RemoveDays(3).DaysFromMonday())
	assert.Equal(t, uint(6), day.AddDays(3).DaysFromMonday())
}

func TestDateStartOf(t *testing.T) {
	day := NewDate(2023, 7, 6)
	assert.True(t, NewDate(2023, 7, 3).Equal(day.StartOfWeek()))
	assert.True(t, NewDate(2023, 7, 1).Equal(day.StartOfMonth()))
	assert.True(t, NewDate(2023, 1, 1).Equal(day.StartOfYear()))
}

func TestDateParse(t *testing.T) {
	valid := map[string]Date{
		"2022-05-09": NewDate(2022, 5, 9),
		"2022-01-01": NewDate(2022, 1, 1),
		"2022-12-31": NewDate(2022, 12, 31),
	}
	for in, want := range valid {
		got, err := ParseDate(in)
		require.NoError(t, err, in)
		assert.True(t, want.Equal(got), in)
	}

	for _, in := range []string{
		"2022-13-31", "2022-12-32", "2022-00-09", "2022-09-32", "2022-02-30",
		"1899-01-01", "3001-01-01", "2022-5-09", "2022/05/09", "2022-05-09 ", "",
	} {
		_, err := ParseDate(in)
		assert.Error(t, err, in)
	}
}

func TestDateDiff(t *testing.T) {
	d1 := NewDate(2022, 5, 9)
	d2 := NewDate(2022, 5, 10)
	assert.Equal(t, uint64(1), d1.Diff(d2).WholeDays())
	assert.Equal(t, uint64(1), d2.Diff(d1).WholeDays())
}

func TestDateOf(t *testing.T) {
	// 2023-07-06T12:00:00Z
	ts := FromMilliseconds(1688644800000)
	assert.Equal(t, "2023-07-06", DateOf(ts).String())
}

func TestSyncedTimestamp(t *testing.T) {
	local := FromMilliseconds(10_000)
	s := NewSyncedTimestamp()
	s.now = func() Timestamp { return local }

	assert.Equal(t, local, s.Now())

	// Request took 200ms, server answered in the middle of it
	s.Adjust(NewServerTimestamp(15_100), FromMilliseconds(9_800), FromMilliseconds(10_000))
	assert.Equal(t, int64(5_200), s.Offset())
	assert.Equal(t, FromMilliseconds(15_200), s.Now())

	// Server clock behind the local one
	s.Adjust(NewServerTimestamp(1_000), FromMilliseconds(9_000), FromMilliseconds(9_000))
	assert.Equal(t, int64(-8_000), s.Offset())
	assert.Equal(t, FromMilliseconds(2_000), s.Now())
}

func TestServerTimestampJSON(t *testing.T) {
	type doc struct {
		At ServerTimestamp `json:"at"`
	}
	data, err := json.Marshal(doc{At: NewServerTimestamp(1234)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"at":1234}`, string(data))

	var got doc
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, uint64(1234), got.At.Milliseconds())
}
