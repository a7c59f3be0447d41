package main

import "github.com/teslashibe/go-magicdog/pkg/dog"

// Joint targets per leg (hip, thigh, calf) for two body heights.
var (
	poseLow  = [3]float64{0.0000, 1.0477, -2.0944} // base height 0.2 m
	poseHigh = [3]float64{0.0000, 0.7231, -1.4455} // base height 0.3 m
)

const (
	stepsToLow = 1000 // from the measured pose to poseLow
	stepsCycle = 700  // one half of the low/high cycle
	cycleStart = stepsToLow
	cycleMid   = 1750
	cycleEnd   = 2500

	jointKp = 100
	jointKd = 1.2
)

func lerp(a, b, t float64) float64 {
	t = min(max(t, 0), 1)
	return (1-t)*a + t*b
}

// trajectory yields the joint setpoints of the squat demo: settle from the
// initial pose into poseLow, then cycle poseLow → poseHigh → poseLow.
type trajectory struct {
	initial [dog.LegJointNum]float64
	step    int
}

func newTrajectory(state *dog.LegState) *trajectory {
	t := &trajectory{}
	for i := range t.initial {
		t.initial[i] = state.State[i].Q
	}
	return t
}

// next returns the command for the current step and advances.
func (tr *trajectory) next() dog.LegJointCommand {
	if tr.step >= cycleEnd {
		tr.step = cycleStart
	}

	var cmd dog.LegJointCommand
	for i := range cmd.Cmd {
		j := i % 3
		var q float64
		switch {
		case tr.step < cycleStart:
			q = lerp(tr.initial[i], poseLow[j], float64(tr.step)/stepsToLow)
		case tr.step < cycleMid:
			q = lerp(poseLow[j], poseHigh[j], float64(tr.step-cycleStart)/stepsCycle)
		default:
			q = lerp(poseHigh[j], poseLow[j], float64(tr.step-cycleMid)/stepsCycle)
		}
		cmd.Cmd[i] = dog.SingleLegJointCommand{QDes: q, Kp: jointKp, Kd: jointKd}
	}
	tr.step++
	return cmd
}
