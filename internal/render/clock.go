package render

import "time"

// Clock is the time source used for pacing and the time uniform.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

type systemClock struct{}

func (systemClock) Now() time.Time        { return time.Now() }
func (systemClock) Sleep(d time.Duration) { time.Sleep(d) }

// SystemClock reads time.Now. Its monotonic reading keeps differences
// immune to wall clock adjustments.
var SystemClock Clock = systemClock{}

// Limiter caps the frame rate by sleeping out the remainder of each
// interval. It never sleeps longer than one interval and does not sleep
// when the caller is already late.
type Limiter struct {
	interval time.Duration
	clock    Clock
	last     time.Time
}

// NewLimiter returns a limiter for fps frames per second. fps <= 0
// disables limiting.
func NewLimiter(fps float64, clock Clock) *Limiter {
	if clock == nil {
		clock = SystemClock
	}
	l := &Limiter{clock: clock}
	if fps > 0 {
		l.interval = time.Duration(float64(time.Second) / fps)
	}
	return l
}

// Interval returns the minimum frame interval, zero when unlimited.
func (l *Limiter) Interval() time.Duration { return l.interval }

// Wait blocks until at least one interval has passed since the previous
// Wait returned.
func (l *Limiter) Wait() {
	if l.interval <= 0 {
		return
	}
	if !l.last.IsZero() {
		if elapsed := l.clock.Now().Sub(l.last); elapsed >= 0 && elapsed < l.interval {
			l.clock.Sleep(l.interval - elapsed)
		}
	}
	l.last = l.clock.Now()
}
