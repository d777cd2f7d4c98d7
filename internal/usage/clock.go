package usage

import "time"

// Clock provides the current time and the timezone that defines "today".
// This interface allows time to be mocked in tests.
type Clock interface {
	Now() time.Time
	Location() *time.Location
}

// RealClock provides actual system time in a fixed location.
type RealClock struct {
	Loc *time.Location
}

// Now returns the current system time.
func (c RealClock) Now() time.Time {
	return time.Now()
}

// Location returns the configured location, defaulting to the local zone.
func (c RealClock) Location() *time.Location {
	if c.Loc == nil {
		return time.Local
	}
	return c.Loc
}

// TestClock provides fixed time for testing.
type TestClock struct {
	CurrentTime time.Time
	Loc         *time.Location
}

// Now returns the test time.
func (t *TestClock) Now() time.Time {
	return t.CurrentTime
}

// Location returns the test location, defaulting to UTC.
func (t *TestClock) Location() *time.Location {
	if t.Loc == nil {
		return time.UTC
	}
	return t.Loc
}

// Advance moves the test clock forward.
func (t *TestClock) Advance(d time.Duration) {
	t.CurrentTime = t.CurrentTime.Add(d)
}

// Today returns the calendar date of c.Now() in c.Location().
func Today(c Clock) string {
	return DateOf(c.Now(), c.Location())
}
