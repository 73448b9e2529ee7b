package runner

import "time"

// Policy controls the poll cadence.
type Policy struct {
	Interval    time.Duration // first sleep between polls
	Multiplier  float64       // growth per poll; <= 1 keeps a fixed cadence
	MaxInterval time.Duration // cap once backing off; 0 means uncapped
	Timeout     time.Duration // 0 waits until a terminal status or cancellation
}

// DefaultPolicy polls once a second forever. MaxInterval only matters once
// Multiplier is raised above 1.
func DefaultPolicy() Policy {
	return Policy{Interval: time.Second, Multiplier: 1, MaxInterval: 30 * time.Second}
}

func (p Policy) first() time.Duration {
	if p.Interval <= 0 {
		return time.Second
	}
	return p.Interval
}

func (p Policy) next(cur time.Duration) time.Duration {
	if p.Multiplier <= 1 {
		return cur
	}
	n := time.Duration(float64(cur) * p.Multiplier)
	if p.MaxInterval > 0 && n > p.MaxInterval {
		// A cap below the current interval never shortens the sleep.
		n = max(p.MaxInterval, cur)
	}
	return n
}
