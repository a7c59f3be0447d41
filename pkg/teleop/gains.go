package teleop

import (
	"context"
	"fmt"

	"github.com/teslashibe/go-magicdog/pkg/dog"
)

// Gains scale joystick axes into velocities for logging. They never change
// what is sent to the robot.
type Gains struct {
	LeftX, LeftY, RightX, RightY float64
}

// GainsFor maps the speed ratio of gait onto the stick axes: left X is
// lateral, left Y straight, right X turn. Right Y has no gain. A gait with no
// configured ratio yields zero gains.
func GainsFor(all *dog.AllGaitSpeedRatio, gait dog.GaitMode) Gains {
	if all == nil {
		return Gains{}
	}
	r, ok := all.GaitSpeedRatios[gait]
	if !ok {
		return Gains{}
	}
	return Gains{LeftX: r.LateralRatio, LeftY: r.StraightRatio, RightX: r.TurnRatio}
}

// LoadGains fetches the speed ratios once and picks the ones for gait.
func LoadGains(ctx context.Context, r SpeedRatioReader, gait dog.GaitMode) (Gains, error) {
	all, err := r.GetAllGaitSpeedRatio(ctx)
	if err != nil {
		return Gains{}, fmt.Errorf("get speed ratios: %w", err)
	}
	return GainsFor(all, gait), nil
}

// Velocity is a joystick sample multiplied by gains, axis by axis.
type Velocity [4]float64

// Apply returns the gained velocity of cmd.
func (g Gains) Apply(cmd dog.JoystickCommand) Velocity {
	return Velocity{cmd.LeftX * g.LeftX, cmd.LeftY * g.LeftY, cmd.RightX * g.RightX, cmd.RightY * g.RightY}
}

// differs reports whether any axis moved by more than eps.
func (v Velocity) differs(o Velocity, eps float64) bool {
	for i := range v {
		d := v[i] - o[i]
		if d > eps || d < -eps {
			return true
		}
	}
	return false
}
