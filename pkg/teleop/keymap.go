package teleop

import (
	"context"

	"github.com/teslashibe/go-magicdog/pkg/dog"
)

// movementKeys are shared by both keymaps. Axes are left X, left Y, right X,
// right Y.
func movementKeys(turnLeft, turnRight byte) Keymap {
	return Keymap{
		{'w', MoveBinding(0, 1, 0, 0, "Move forward")},
		{'a', MoveBinding(-1, 0, 0, 0, "Move left")},
		{'s', MoveBinding(0, -1, 0, 0, "Move backward")},
		{'d', MoveBinding(1, 0, 0, 0, "Move right")},
		{turnLeft, MoveBinding(0, 0, -1, 0, "Turn left")},
		{turnRight, MoveBinding(0, 0, 1, 0, "Turn right")},
		{'x', MoveBinding(0, 0, 0, 0, "Stop movement")},
	}
}

// KeyboardOperatorKeymap is the full operator layout: stances, locomotion
// gaits, tricks, dance and movement. nav may be nil, which leaves the
// navigation keys unbound.
func KeyboardOperatorKeymap(dancer *Dancer, nav *Navigator) Keymap {
	km := Keymap{
		{'1', GaitBinding(dog.GaitStandR, false, "Position control standing")},
		{'2', GaitBinding(dog.GaitStandB, false, "Force control standing")},
		{'3', GaitBinding(dog.GaitDownClimbStairs, true, "Down climb stairs")},
		{'4', GaitBinding(dog.GaitUpClimbStairs, true, "Up climb stairs")},
		{'g', TrickBinding(dog.TrickShakeRightHand, "Execute trick - shake right hand")},
		{'f', TrickBinding(dog.TrickFrontFlip, "Execute trick - front flip")},
		{'r', TrickBinding(dog.TrickBackFlip, "Execute trick - back flip")},
		{'c', TrickBinding(dog.TrickSitDown, "Execute trick - sit down")},
		{'z', TrickBinding(dog.TrickLieDown, "Execute trick - lie down")},
		{KeySpace, TrickBinding(dog.TrickHighJump, "Execute trick - jump")},
		{'W', TrickBinding(dog.TrickJumpFront, "Jump forward")},
		{'A', TrickBinding(dog.TrickSpinJumpLeft, "Jump left")},
		{'S', TrickBinding(dog.TrickStretch, "Stretch")},
		{'D', TrickBinding(dog.TrickSpinJumpRight, "Jump right")},
	}
	km = append(km, movementKeys('q', 'e')...)
	if dancer != nil {
		km = append(km, KeyBinding{'h', FuncBinding(dancer.Dance, "Execute trick - dance")})
	}
	if nav != nil {
		km = append(km,
			KeyBinding{'n', FuncBinding(nav.GoToTarget, "Navigate to target")},
			KeyBinding{'b', FuncBinding(nav.ComeBack, "Navigate back")},
			KeyBinding{'P', FuncBinding(nav.Pause, "Pause navigation")},
			KeyBinding{'U', FuncBinding(nav.Resume, "Resume navigation")},
			KeyBinding{'X', FuncBinding(nav.Cancel, "Cancel navigation")},
		)
	}
	return km
}

// HighLevelKeymap is the smaller layout of the high-level motion example.
// Turning is on t and g, and v/b toggle the head motor.
func HighLevelKeymap(head HeadMotor) Keymap {
	km := Keymap{
		{'1', GaitBinding(dog.GaitStandR, false, "Position control standing")},
		{'2', GaitBinding(dog.GaitStandB, false, "Force control standing")},
		{'3', TrickBinding(dog.TrickLieDown, "Execute trick - lie down")},
	}
	km = append(km, movementKeys('t', 'g')...)
	if head != nil {
		km = append(km,
			KeyBinding{'v', FuncBinding(func(ctx context.Context) error { return head.DisableHeadMotor(ctx) }, "Close head motor")},
			KeyBinding{'b', FuncBinding(func(ctx context.Context) error { return head.EnableHeadMotor(ctx) }, "Open head motor")},
		)
	}
	return km
}
