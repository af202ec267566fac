package clock

import "time"

// Clock abstracts time so workflow timestamps can be fixed in tests.
type Clock interface {
	Now() time.Time
}

// cairo resolves once at init; Africa/Cairo has no tzdata on some minimal
// images, so fall back to the fixed UTC+2 offset the business operates in.
var cairo = func() *time.Location {
	loc, err := time.LoadLocation("Africa/Cairo")
	if err != nil {
		return time.FixedZone("EET", 2*60*60)
	}
	return loc
}()

// SystemClock returns wall-clock time localized to Cairo, matching how the
// operations team reads every timestamp in the hub.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().In(cairo)
}

// Fixed is a Clock pinned to a single instant.
type Fixed struct {
	T time.Time
}

func (f Fixed) Now() time.Time {
	return f.T
}
