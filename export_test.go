package openauth

import "time"

// SetClock replaces the Manager's clock.
func SetClock(m *Manager, now func() time.Time) {
	m.now = now
}
