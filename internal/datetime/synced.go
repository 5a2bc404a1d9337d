package datetime

import "sync"

// SyncedTimestamp is a local clock corrected by the offset against the
// server clock, measured with a request round trip.
type SyncedTimestamp struct {
	mu       sync.RWMutex
	offsetMs int64
	now      func() Timestamp
}

// NewSyncedTimestamp returns a clock with no correction applied.
func NewSyncedTimestamp() *SyncedTimestamp {
	return &SyncedTimestamp{now: Now}
}

// Adjust recalculates the offset from a server timestamp received for a
// request sent at sentAt and answered at receivedAt, both local time. The
// server time is assumed to match the middle of the round trip.
func (s *SyncedTimestamp) Adjust(server ServerTimestamp, sentAt, receivedAt Timestamp) {
	mid := int64(sentAt) + (int64(receivedAt)-int64(sentAt))/2
	s.mu.Lock()
	s.offsetMs = int64(server.Milliseconds()) - mid
	s.mu.Unlock()
}

// Offset returns the current correction in milliseconds.
func (s *SyncedTimestamp) Offset() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.offsetMs
}

// Now returns the corrected current time.
func (s *SyncedTimestamp) Now() Timestamp {
	now := Now
	if s.now != nil {
		now = s.now
	}
	v := int64(now()) + s.Offset()
	if v < 0 {
		return 0
	}
	return Timestamp(v)
}
