package dog

import (
	"context"
	"fmt"

	"github.com/teslashibe/go-magicdog/pkg/protocol"
)

// SlamNav drives mapping, localization and navigation. Maps live on the
// robot and are addressed by name.
type SlamNav struct {
	r *Robot
}

func (s *SlamNav) SwitchToIdle(ctx context.Context) error {
	return s.r.call(ctx, protocol.MethodSwitchToIdle, nil, nil)
}

// SwitchToLocation enters localization mode on the loaded map.
func (s *SlamNav) SwitchToLocation(ctx context.Context) error {
	return s.r.call(ctx, protocol.MethodSwitchToLocation, nil, nil)
}

func (s *SlamNav) StartMapping(ctx context.Context) error {
	return s.r.call(ctx, protocol.MethodStartMapping, nil, nil)
}

func (s *SlamNav) CancelMapping(ctx context.Context) error {
	return s.r.call(ctx, protocol.MethodCancelMapping, nil, nil)
}

func (s *SlamNav) SaveMap(ctx context.Context, name string) error {
	if name == "" {
		return fmt.Errorf("dog: map name required")
	}
	return s.r.call(ctx, protocol.MethodSaveMap, MapNameParams{Name: name}, nil)
}

func (s *SlamNav) LoadMap(ctx context.Context, name string) error {
	if name == "" {
		return fmt.Errorf("dog: map name required")
	}
	return s.r.call(ctx, protocol.MethodLoadMap, MapNameParams{Name: name}, nil)
}

func (s *SlamNav) DeleteMap(ctx context.Context, name string) error {
	if name == "" {
		return fmt.Errorf("dog: map name required")
	}
	return s.r.call(ctx, protocol.MethodDeleteMap, MapNameParams{Name: name}, nil)
}

func (s *SlamNav) GetAllMapInfo(ctx context.Context) (*AllMapInfo, error) {
	var info AllMapInfo
	if err := s.r.call(ctx, protocol.MethodGetAllMapInfo, nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// InitPose seeds the localizer with the robot's pose on the current map.
func (s *SlamNav) InitPose(ctx context.Context, pose Pose3DEuler) error {
	return s.r.call(ctx, protocol.MethodInitPose, pose, nil)
}

func (s *SlamNav) GetCurrentLocalizationInfo(ctx context.Context) (*LocalizationInfo, error) {
	var info LocalizationInfo
	if err := s.r.call(ctx, protocol.MethodGetLocalization, nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

func (s *SlamNav) ActivateNavMode(ctx context.Context, mode NavMode) error {
	return s.r.call(ctx, protocol.MethodActivateNavMode, NavModeParams{Mode: mode}, nil)
}

func (s *SlamNav) SetNavTarget(ctx context.Context, target NavTarget) error {
	return s.r.call(ctx, protocol.MethodSetNavTarget, target, nil)
}

func (s *SlamNav) PauseNavTask(ctx context.Context) error {
	return s.r.call(ctx, protocol.MethodPauseNav, nil, nil)
}

func (s *SlamNav) ResumeNavTask(ctx context.Context) error {
	return s.r.call(ctx, protocol.MethodResumeNav, nil, nil)
}

func (s *SlamNav) CancelNavTask(ctx context.Context) error {
	return s.r.call(ctx, protocol.MethodCancelNav, nil, nil)
}

func (s *SlamNav) GetNavTaskStatus(ctx context.Context) (*NavStatus, error) {
	var st NavStatus
	if err := s.r.call(ctx, protocol.MethodGetNavStatus, nil, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

func (s *SlamNav) SubscribeOdometry() (*Stream[*Odometry], error) {
	return subscribe[Odometry](s.r, protocol.TopicOdometry)
}

func (s *SlamNav) UnsubscribeOdometry() error {
	return s.r.unsubscribe(protocol.TopicOdometry)
}

// StateMonitor reports battery and fault state.
type StateMonitor struct {
	r *Robot
}

func (m *StateMonitor) GetCurrentState(ctx context.Context) (*RobotState, error) {
	var st RobotState
	if err := m.r.call(ctx, protocol.MethodGetState, nil, &st); err != nil {
		return nil, err
	}
	return &st, nil
}
