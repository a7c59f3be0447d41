package teleop

import (
	"math"
	"sync"
	"sync/atomic"

	"github.com/teslashibe/go-magicdog/pkg/dog"
)

// CommandState is the state shared between the input side and the sender.
//
// The four axes are independent atomics. A reader may observe a mix of two
// writes for one tick; the next tick reads a consistent value again.
type CommandState struct {
	leftX, leftY, rightX, rightY atomic.Uint64

	target atomic.Int32

	stopOnce sync.Once
	done     chan struct{}
}

// NewCommandState returns a running state with a zero joystick and the
// given gait target.
func NewCommandState(target dog.GaitMode) *CommandState {
	s := &CommandState{done: make(chan struct{})}
	s.target.Store(int32(target))
	return s
}

// SetJoystick stores all four axes.
func (s *CommandState) SetJoystick(cmd dog.JoystickCommand) {
	s.leftX.Store(math.Float64bits(cmd.LeftX))
	s.leftY.Store(math.Float64bits(cmd.LeftY))
	s.rightX.Store(math.Float64bits(cmd.RightX))
	s.rightY.Store(math.Float64bits(cmd.RightY))
}

// ZeroJoystick stops any commanded movement.
func (s *CommandState) ZeroJoystick() { s.SetJoystick(dog.JoystickCommand{}) }

// Joystick returns the current axes.
func (s *CommandState) Joystick() dog.JoystickCommand {
	return dog.JoystickCommand{
		LeftX:  math.Float64frombits(s.leftX.Load()),
		LeftY:  math.Float64frombits(s.leftY.Load()),
		RightX: math.Float64frombits(s.rightX.Load()),
		RightY: math.Float64frombits(s.rightY.Load()),
	}
}

// Target is the gait movement keys require.
func (s *CommandState) Target() dog.GaitMode { return dog.GaitMode(s.target.Load()) }

func (s *CommandState) SetTarget(g dog.GaitMode) { s.target.Store(int32(g)) }

// Stop clears the running flag. It is one-way; later calls do nothing.
func (s *CommandState) Stop() {
	s.stopOnce.Do(func() { close(s.done) })
}

// Running reports whether Stop has not been called yet.
func (s *CommandState) Running() bool {
	select {
	case <-s.done:
		return false
	default:
		return true
	}
}

// Done is closed by Stop.
func (s *CommandState) Done() <-chan struct{} { return s.done }
