// Package backoff provides the retry-delay policies used between failed
// sends. The stock policy is a fixed delay with no growth and no retry
// limit; exponential and jittered variants can be selected via
// configuration.
package backoff

import (
	"fmt"
	"math/rand"
	"time"
)

// DefaultMaxDelay caps exponential growth.
const DefaultMaxDelay = 2 * time.Minute

// Strategy yields the delay to wait before the next retry. Next is
// called once per failed attempt; Reset is called after a success so
// growing strategies start over.
type Strategy interface {
	Next() time.Duration
	Reset()
}

// New returns the named strategy with the given base delay.
// Valid names are "fixed", "exponential" and "jittered".
func New(name string, base time.Duration) (Strategy, error) {
	switch name {
	case "fixed":
		return Fixed{Delay: base}, nil
	case "exponential":
		return &Exponential{Base: base, Max: DefaultMaxDelay}, nil
	case "jittered":
		return &Jittered{
			Base: base,
			rng:  rand.New(rand.NewSource(time.Now().UnixNano())),
		}, nil
	default:
		return nil, fmt.Errorf("unknown backoff strategy %q", name)
	}
}

// Fixed always waits the same delay.
type Fixed struct {
	Delay time.Duration
}

func (f Fixed) Next() time.Duration { return f.Delay }
func (f Fixed) Reset()              {}

// Exponential doubles the delay after every consecutive failure, capped
// at Max.
type Exponential struct {
	Base time.Duration
	Max  time.Duration

	cur time.Duration
}

func (e *Exponential) Next() time.Duration {
	if e.cur == 0 {
		e.cur = e.Base
	} else {
		e.cur *= 2
		if e.cur > e.Max {
			e.cur = e.Max
		}
	}
	return e.cur
}

func (e *Exponential) Reset() { e.cur = 0 }

// Jittered waits the base delay scaled by a uniform factor in
// [0.5, 1.5) so synchronized simulators don't hammer a recovering
// server in lockstep.
type Jittered struct {
	Base time.Duration

	rng *rand.Rand
}

func (j *Jittered) Next() time.Duration {
	factor := 0.5 + j.rng.Float64()
	return time.Duration(float64(j.Base) * factor)
}

func (j *Jittered) Reset() {}
