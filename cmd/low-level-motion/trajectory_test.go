package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/teslashibe/go-magicdog/pkg/dog"
)

func TestTrajectorySettlesThenCycles(t *testing.T) {
	var st dog.LegState
	for i := range st.State {
		st.State[i].Q = 0.5
	}
	tr := newTrajectory(&st)

	first := tr.next()
	assert.InDelta(t, 0.5, first.Cmd[1].QDes, 1e-9)
	assert.Equal(t, float64(jointKp), first.Cmd[0].Kp)
	assert.Equal(t, jointKd, first.Cmd[11].Kd)

	for tr.step < cycleStart {
		tr.next()
	}
	low := tr.next()
	for i := range low.Cmd {
		assert.InDelta(t, poseLow[i%3], low.Cmd[i].QDes, 1e-9)
	}

	for tr.step < cycleMid {
		tr.next()
	}
	high := tr.next()
	// The falling half starts from poseHigh.
	assert.InDelta(t, poseHigh[1], high.Cmd[1].QDes, 1e-9)

	for tr.step < cycleEnd {
		tr.next()
	}
	again := tr.next()
	assert.Equal(t, cycleStart+1, tr.step)
	assert.InDelta(t, poseLow[2], again.Cmd[2].QDes, 1e-9)
}

func TestLerpClamps(t *testing.T) {
	assert.Equal(t, 1.0, lerp(1, 2, -1))
	assert.Equal(t, 2.0, lerp(1, 2, 3))
	assert.InDelta(t, 1.5, lerp(1, 2, 0.5), 1e-12)
}
