package sensors

import (
	"math"
	"math/rand"
	"time"
)

// Simulation constants. The flows are modeled around a configurable base
// rate: the input wanders inside a small jitter band, and the output is
// the input minus either normal pipe loss or, with leakProbability, a
// larger leak amount.
const (
	inputJitter     = 0.2 // input varies by U(-jitter, +jitter)
	leakProbability = 0.2
	leakMin         = 0.1
	leakMax         = 0.8
	normalLossMax   = 0.1
)

// floatSource is the slice of math/rand the generator consumes.
// *rand.Rand satisfies it; tests substitute a scripted sequence.
type floatSource interface {
	Float64() float64
}

// Generator fabricates flow samples for a single device. It is not safe
// for concurrent use, which is fine: the loop driver is strictly
// sequential.
type Generator struct {
	deviceID string
	baseFlow float64
	rng      floatSource
	now      func() time.Time
}

// NewGenerator returns a generator seeded from the wall clock.
func NewGenerator(deviceID string, baseFlow float64) *Generator {
	return &Generator{
		deviceID: deviceID,
		baseFlow: baseFlow,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		now:      time.Now,
	}
}

// Generate fabricates one sample. Generation never fails.
//
// The input and the leak/normal subtraction are independent draws, so
// outputFlow <= inputFlow holds only through the subtraction itself and
// a small leak (near 0.1) is indistinguishable from normal-branch loss.
// That mirrors the real device firmware and is deliberate.
func (g *Generator) Generate() Sample {
	variation := -inputJitter + g.rng.Float64()*2*inputJitter
	inputFlow := math.Max(0, g.baseFlow+variation)

	var outputFlow float64
	if g.rng.Float64() < leakProbability {
		leak := leakMin + g.rng.Float64()*(leakMax-leakMin)
		outputFlow = math.Max(0, inputFlow-leak)
	} else {
		outputFlow = math.Max(0, inputFlow-g.rng.Float64()*normalLossMax)
	}

	return Sample{
		InputFlow:  round3(inputFlow),
		OutputFlow: round3(outputFlow),
		Timestamp:  g.now().UTC(),
		DeviceID:   g.deviceID,
	}
}

// round3 rounds to the 3-decimal precision of the simulated hardware.
func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
