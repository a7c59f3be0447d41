package teleop

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/teslashibe/go-magicdog/internal/log"
	"github.com/teslashibe/go-magicdog/pkg/dog"
)

func newTestDispatcher(m *mockMotion) (*Dispatcher, *CommandState) {
	state := NewCommandState(dog.GaitDownClimbStairs)
	gate := NewGaitGate(m, state, WithPoll(time.Millisecond), WithGateLogger(log.Discard()))
	d := NewDispatcher(m, state, gate, WithKeyDelay(0), WithDispatcherLogger(log.Discard()))
	d.BindAll(KeyboardOperatorKeymap(nil, nil))
	return d, state
}

func TestDispatchEscStops(t *testing.T) {
	d, state := newTestDispatcher(&mockMotion{})

	err := d.Dispatch(context.Background(), KeyEsc)
	if !errors.Is(err, ErrExit) {
		t.Fatalf("Dispatch(ESC) = %v, want ErrExit", err)
	}
	if state.Running() {
		t.Error("ESC should stop the command state")
	}
}

func TestDispatchUnknownKeyIgnored(t *testing.T) {
	m := &mockMotion{}
	d, state := newTestDispatcher(m)

	if err := d.Dispatch(context.Background(), '?'); err != nil {
		t.Fatalf("Dispatch('?') = %v", err)
	}
	get, set := m.counts()
	if get+set != 0 || len(m.tricks) != 0 {
		t.Error("unknown key should not touch the robot")
	}
	if !state.Running() {
		t.Error("unknown key should not stop")
	}
}

func TestDispatchTrickZeroesJoystick(t *testing.T) {
	m := &mockMotion{}
	d, state := newTestDispatcher(m)
	state.SetJoystick(dog.JoystickCommand{LeftY: 1})

	if err := d.Dispatch(context.Background(), 'g'); err != nil {
		t.Fatal(err)
	}
	if state.Joystick() != (dog.JoystickCommand{}) {
		t.Errorf("joystick = %+v, want zero", state.Joystick())
	}
	if len(m.tricks) != 1 || m.tricks[0] != dog.TrickShakeRightHand {
		t.Errorf("tricks = %v", m.tricks)
	}
}

func TestDispatchTrickFailureReturned(t *testing.T) {
	m := &mockMotion{trickErr: &dog.Status{Code: dog.ServiceError, Message: "busy"}}
	d, _ := newTestDispatcher(m)

	err := d.Dispatch(context.Background(), KeySpace)
	if dog.CodeOf(err) != dog.ServiceError {
		t.Errorf("Dispatch(space) = %v", err)
	}
}

func TestDispatchGaitKeys(t *testing.T) {
	m := &mockMotion{}
	d, state := newTestDispatcher(m)
	ctx := context.Background()

	// Stances do not move the target.
	if err := d.Dispatch(ctx, '1'); err != nil {
		t.Fatal(err)
	}
	if state.Target() != dog.GaitDownClimbStairs {
		t.Errorf("target after '1' = %v", state.Target())
	}

	if err := d.Dispatch(ctx, '4'); err != nil {
		t.Fatal(err)
	}
	if state.Target() != dog.GaitUpClimbStairs {
		t.Errorf("target after '4' = %v, want UP_CLIMB_STAIRS", state.Target())
	}
	if _, set := m.counts(); set != 2 {
		t.Errorf("SetGait calls = %d, want 2", set)
	}
}

func TestMoveStoresJoystickAfterGate(t *testing.T) {
	m := &mockMotion{gait: dog.GaitStandR, lag: 2}
	d, state := newTestDispatcher(m)

	if err := d.Dispatch(context.Background(), 'w'); err != nil {
		t.Fatal(err)
	}
	if m.gait != dog.GaitDownClimbStairs {
		t.Errorf("gait = %v, want DOWN_CLIMB_STAIRS", m.gait)
	}
	if state.Joystick() != (dog.JoystickCommand{LeftY: 1}) {
		t.Errorf("joystick = %+v", state.Joystick())
	}

	// Already in gait: no further switch.
	if err := d.Dispatch(context.Background(), 'q'); err != nil {
		t.Fatal(err)
	}
	if _, set := m.counts(); set != 1 {
		t.Errorf("SetGait calls = %d, want 1", set)
	}
	if state.Joystick() != (dog.JoystickCommand{RightX: -1}) {
		t.Errorf("joystick = %+v", state.Joystick())
	}
}

func TestMoveAbortsWhenGateFails(t *testing.T) {
	m := &mockMotion{gait: dog.GaitStandR, setErr: &dog.Status{Code: dog.Timeout}}
	d, state := newTestDispatcher(m)

	err := d.Dispatch(context.Background(), 'd')
	if err == nil || dog.CodeOf(err) != dog.Timeout {
		t.Fatalf("Dispatch('d') = %v, want TIMEOUT", err)
	}
	if state.Joystick() != (dog.JoystickCommand{}) {
		t.Errorf("joystick = %+v, want untouched", state.Joystick())
	}
}

func TestDispatcherRunUntilEsc(t *testing.T) {
	m := &mockMotion{gait: dog.GaitDownClimbStairs}
	d, state := newTestDispatcher(m)

	keys := &scriptedKeys{keys: []byte{'w', '?', 'c', KeyEsc, 'f'}}
	if err := d.Run(context.Background(), keys); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if state.Running() {
		t.Error("state should be stopped")
	}
	if len(m.tricks) != 1 || m.tricks[0] != dog.TrickSitDown {
		t.Errorf("tricks = %v, want only SIT_DOWN", m.tricks)
	}
	if keys.i != 4 {
		t.Errorf("read %d keys, want 4", keys.i)
	}
}

func TestDispatcherRunContinuesAfterFailure(t *testing.T) {
	m := &mockMotion{trickErr: errors.New("rejected")}
	d, _ := newTestDispatcher(m)

	keys := &scriptedKeys{keys: []byte{'f', 'r'}}
	if err := d.Run(context.Background(), keys); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(m.tricks) != 2 {
		t.Errorf("tricks = %v, want both attempted", m.tricks)
	}
}

func TestKeymaps(t *testing.T) {
	rec := &recorder{}
	dancer := NewDancer(fakeTricks{rec: rec}, fakeSpeaker{rec}, fakeCamera{rec}, nil)
	full := KeyboardOperatorKeymap(dancer, nil)
	if len(full) != 22 {
		t.Errorf("operator keymap has %d keys, want 22", len(full))
	}
	seen := map[byte]bool{}
	for _, kb := range full {
		if seen[kb.Key] {
			t.Errorf("key %s bound twice", KeyName(kb.Key))
		}
		seen[kb.Key] = true
	}
	for _, k := range []byte("1234gfrcz hwasdqexWASD") {
		if !seen[k] {
			t.Errorf("key %s missing", KeyName(k))
		}
	}

	m := &mockMotion{}
	d, _ := newTestDispatcher(m)
	d.BindAll(HighLevelKeymap(m))
	if err := d.Dispatch(context.Background(), 'b'); err != nil {
		t.Fatal(err)
	}
	if !m.headEnabled {
		t.Error("'b' should enable the head motor")
	}
	if !strings.Contains(d.Help(), "Close head motor") {
		t.Errorf("help missing head motor entry:\n%s", d.Help())
	}
}

func TestLineReader(t *testing.T) {
	r := NewLineReader(strings.NewReader("\nw\n  map one \nesc\n"))
	k, err := r.ReadKey()
	if err != nil || k != 'w' {
		t.Fatalf("ReadKey = %q, %v", k, err)
	}
	line, err := r.ReadLine()
	if err != nil || line != "  map one " {
		t.Fatalf("ReadLine = %q, %v", line, err)
	}
	if k, _ := r.ReadKey(); k != KeyEsc {
		t.Errorf("ReadKey = %d, want ESC", k)
	}
	if _, err := r.ReadKey(); err == nil {
		t.Error("expected EOF")
	}
}
