package teleop

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/teslashibe/go-magicdog/internal/log"
	"github.com/teslashibe/go-magicdog/pkg/dog"
)

func newTestSender(m *mockMotion, state *CommandState, gains Gains) *Sender {
	return NewSender(m, state, WithGains(gains), WithTick(time.Millisecond), WithSenderLogger(log.Discard()))
}

func TestSenderChangeDetection(t *testing.T) {
	m := &mockMotion{}
	state := NewCommandState(dog.GaitDownClimbStairs)
	s := newTestSender(m, state, Gains{LeftX: 0.2, LeftY: 0.25, RightX: 0.4})
	ctx := context.Background()

	steps := []struct {
		name        string
		cmd         dog.JoystickCommand
		wantChanges uint64
	}{
		{"first tick always logs", dog.JoystickCommand{}, 1},
		{"same sample", dog.JoystickCommand{}, 1},
		{"below epsilon", dog.JoystickCommand{LeftY: 1e-6}, 1},
		{"forward", dog.JoystickCommand{LeftY: 1}, 2},
		{"still forward", dog.JoystickCommand{LeftY: 1}, 2},
		{"right Y has no gain", dog.JoystickCommand{LeftY: 1, RightY: 1}, 2},
		{"turn", dog.JoystickCommand{RightX: -1}, 3},
	}
	for _, step := range steps {
		state.SetJoystick(step.cmd)
		s.tickOnce(ctx)
		if got := s.Changes(); got != step.wantChanges {
			t.Errorf("%s: changes = %d, want %d", step.name, got, step.wantChanges)
		}
	}

	if got, want := s.LastVelocity(), (Velocity{0, 0, -0.4, 0}); got != want {
		t.Errorf("LastVelocity = %v, want %v", got, want)
	}
	if s.Ticks() != uint64(len(steps)) || m.sentCount() != len(steps) {
		t.Errorf("ticks = %d, sent = %d, want %d", s.Ticks(), m.sentCount(), len(steps))
	}
}

func TestSenderKeepsGoingOnError(t *testing.T) {
	m := &mockMotion{sendErr: errors.New("link down")}
	s := newTestSender(m, NewCommandState(dog.GaitDownClimbStairs), Gains{})

	for i := 0; i < 3; i++ {
		s.tickOnce(context.Background())
	}
	if s.Errors() != 3 || s.Ticks() != 3 {
		t.Errorf("errors = %d, ticks = %d, want 3 and 3", s.Errors(), s.Ticks())
	}
}

func TestSenderSendsCurrentSample(t *testing.T) {
	m := &mockMotion{}
	state := NewCommandState(dog.GaitDownClimbStairs)
	s := newTestSender(m, state, Gains{})

	want := dog.JoystickCommand{LeftX: -1, LeftY: 0.5, RightX: 0.25, RightY: 0}
	state.SetJoystick(want)
	s.tickOnce(context.Background())

	if m.sent[0] != want {
		t.Errorf("sent %+v, want %+v", m.sent[0], want)
	}
}

func TestSenderRunStopsWithState(t *testing.T) {
	m := &mockMotion{}
	state := NewCommandState(dog.GaitDownClimbStairs)
	s := newTestSender(m, state, Gains{})

	done := make(chan struct{})
	go func() {
		s.Run(context.Background())
		close(done)
	}()

	deadline := time.Now().Add(time.Second)
	for s.Ticks() < 5 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if s.Ticks() < 5 {
		t.Fatalf("ticks = %d after 1s", s.Ticks())
	}

	state.Stop()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sender did not stop")
	}
}

func TestCommandStateStopIsOneWay(t *testing.T) {
	s := NewCommandState(dog.GaitDownClimbStairs)
	if !s.Running() {
		t.Fatal("new state should be running")
	}
	s.Stop()
	s.Stop()
	if s.Running() {
		t.Error("state should stay stopped")
	}
	select {
	case <-s.Done():
	default:
		t.Error("Done should be closed")
	}
}

func TestGainsFor(t *testing.T) {
	all := &dog.AllGaitSpeedRatio{GaitSpeedRatios: map[dog.GaitMode]dog.GaitSpeedRatio{
		dog.GaitDownClimbStairs: {StraightRatio: 0.25, TurnRatio: 0.4, LateralRatio: 0.2},
	}}
	got := GainsFor(all, dog.GaitDownClimbStairs)
	want := Gains{LeftX: 0.2, LeftY: 0.25, RightX: 0.4}
	if got != want {
		t.Errorf("GainsFor = %+v, want %+v", got, want)
	}
	if g := GainsFor(all, dog.GaitTrot); g != (Gains{}) {
		t.Errorf("missing gait gains = %+v", g)
	}
	if g := GainsFor(nil, dog.GaitTrot); g != (Gains{}) {
		t.Errorf("nil ratios gains = %+v", g)
	}
}
