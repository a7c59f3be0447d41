// Package teleop drives the robot from operator input: a fixed-rate joystick
// sender, a gait gate that brings the robot into the locomotion gait before
// movement, and a key dispatcher that maps input to motion and tricks.
//
// The interfaces below are deliberately small. *dog.HighLevelMotion,
// *dog.Audio, *dog.Sensor and *dog.SlamNav satisfy them; tests use fakes.
package teleop

import (
	"context"

	"github.com/teslashibe/go-magicdog/pkg/dog"
)

// GaitController reads and requests the locomotion gait.
type GaitController interface {
	SetGait(ctx context.Context, gait dog.GaitMode) error
	GetGait(ctx context.Context) (dog.GaitMode, error)
}

// JoystickSender submits one joystick sample.
type JoystickSender interface {
	SendJoyStickCommand(ctx context.Context, cmd dog.JoystickCommand) error
}

// TrickExecutor runs a predefined trick. The call blocks until the robot
// accepts or rejects it.
type TrickExecutor interface {
	ExecuteTrick(ctx context.Context, trick dog.TrickAction) error
}

// Motion is everything the dispatcher needs from high-level motion.
type Motion interface {
	GaitController
	JoystickSender
	TrickExecutor
}

// SpeedRatioReader exposes the per-gait speed ratios used as gains.
type SpeedRatioReader interface {
	GetAllGaitSpeedRatio(ctx context.Context) (*dog.AllGaitSpeedRatio, error)
}

// HeadMotor toggles the head motor.
type HeadMotor interface {
	EnableHeadMotor(ctx context.Context) error
	DisableHeadMotor(ctx context.Context) error
}

// JoystickSwitch toggles whether the robot accepts joystick input.
type JoystickSwitch interface {
	EnableJoyStick(ctx context.Context) error
	DisableJoyStick(ctx context.Context) error
}

// Speaker plays a TTS command.
type Speaker interface {
	Play(ctx context.Context, cmd dog.TtsCommand) error
}

// Camera opens and closes the binocular camera feeding face recognition.
type Camera interface {
	OpenBinocularCamera(ctx context.Context) error
	CloseBinocularCamera(ctx context.Context) error
}

// Navigation is the subset of SLAM/navigation used by the navigation macros.
type Navigation interface {
	LoadMap(ctx context.Context, name string) error
	SwitchToLocation(ctx context.Context) error
	InitPose(ctx context.Context, pose dog.Pose3DEuler) error
	GetCurrentLocalizationInfo(ctx context.Context) (*dog.LocalizationInfo, error)
	ActivateNavMode(ctx context.Context, mode dog.NavMode) error
	SetNavTarget(ctx context.Context, target dog.NavTarget) error
	PauseNavTask(ctx context.Context) error
	ResumeNavTask(ctx context.Context) error
	CancelNavTask(ctx context.Context) error
}

var (
	_ Motion           = (*dog.HighLevelMotion)(nil)
	_ SpeedRatioReader = (*dog.HighLevelMotion)(nil)
	_ HeadMotor        = (*dog.HighLevelMotion)(nil)
	_ JoystickSwitch   = (*dog.HighLevelMotion)(nil)
	_ Speaker          = (*dog.Audio)(nil)
	_ Camera           = (*dog.Sensor)(nil)
	_ Navigation       = (*dog.SlamNav)(nil)
)
