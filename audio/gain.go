package audio

import (
	"math"
	"time"
)

// Gain is a shared output multiplier that approaches its target
// exponentially, so mute and unmute never click.
type Gain struct {
	value  float64
	target float64
	coeff  float64
}

// NewGain builds a gain stage for the given output rate. timeConstant is the
// time it takes to cover ~63% of a step.
func NewGain(rate int, timeConstant time.Duration, initial float64) *Gain {
	g := &Gain{value: initial, target: initial, coeff: 1}
	if rate > 0 && timeConstant > 0 {
		g.coeff = 1 - math.Exp(-1/(timeConstant.Seconds()*float64(rate)))
	}
	return g
}

func (g *Gain) SetTarget(target float64) {
	g.target = target
}

func (g *Gain) Target() float64 { return g.target }

func (g *Gain) Value() float64 { return g.value }

// Next advances the ramp by one sample and returns the multiplier to apply.
func (g *Gain) Next() float32 {
	if g.value != g.target {
		g.value += (g.target - g.value) * g.coeff
		if math.Abs(g.target-g.value) < 1e-4 {
			g.value = g.target
		}
	}
	return float32(g.value)
}
