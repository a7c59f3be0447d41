package dog

import (
	"context"

	"github.com/teslashibe/go-magicdog/pkg/protocol"
)

// HighLevelMotion commands gaits, tricks and the joystick.
type HighLevelMotion struct {
	r *Robot
}

// SetGait requests a gait change. The robot applies it asynchronously; poll
// GetGait to observe convergence.
func (m *HighLevelMotion) SetGait(ctx context.Context, gait GaitMode) error {
	return m.r.call(ctx, protocol.MethodSetGait, GaitParams{Gait: gait}, nil)
}

// GetGait returns the active gait.
func (m *HighLevelMotion) GetGait(ctx context.Context) (GaitMode, error) {
	var p GaitParams
	if err := m.r.call(ctx, protocol.MethodGetGait, nil, &p); err != nil {
		return GaitNone, err
	}
	return p.Gait, nil
}

// ExecuteTrick runs a trick and returns when the robot reports it finished.
func (m *HighLevelMotion) ExecuteTrick(ctx context.Context, trick TrickAction) error {
	return m.r.call(ctx, protocol.MethodExecuteTrick, TrickParams{Trick: trick}, nil)
}

// SendJoyStickCommand streams a joystick sample. It does not wait for a reply;
// the only failure is a local send error.
func (m *HighLevelMotion) SendJoyStickCommand(ctx context.Context, cmd JoystickCommand) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return m.r.conn.notify(protocol.MethodJoystick, cmd)
}

func (m *HighLevelMotion) EnableJoyStick(ctx context.Context) error {
	return m.r.call(ctx, protocol.MethodEnableJoystick, nil, nil)
}

func (m *HighLevelMotion) DisableJoyStick(ctx context.Context) error {
	return m.r.call(ctx, protocol.MethodDisableJoystick, nil, nil)
}

// GetAllGaitSpeedRatio returns the speed ratios of every gait.
func (m *HighLevelMotion) GetAllGaitSpeedRatio(ctx context.Context) (*AllGaitSpeedRatio, error) {
	var all AllGaitSpeedRatio
	if err := m.r.call(ctx, protocol.MethodGetAllGaitSpeedRatio, nil, &all); err != nil {
		return nil, err
	}
	if all.GaitSpeedRatios == nil {
		all.GaitSpeedRatios = make(map[GaitMode]GaitSpeedRatio)
	}
	return &all, nil
}

func (m *HighLevelMotion) SetGaitSpeedRatio(ctx context.Context, gait GaitMode, ratio GaitSpeedRatio) error {
	return m.r.call(ctx, protocol.MethodSetGaitSpeedRatio, SpeedRatioParams{Gait: gait, Ratio: ratio}, nil)
}

func (m *HighLevelMotion) GetHeadMotorEnabled(ctx context.Context) (bool, error) {
	var res EnabledResult
	if err := m.r.call(ctx, protocol.MethodGetHeadMotor, nil, &res); err != nil {
		return false, err
	}
	return res.Enabled, nil
}

func (m *HighLevelMotion) EnableHeadMotor(ctx context.Context) error {
	return m.r.call(ctx, protocol.MethodEnableHeadMotor, nil, nil)
}

func (m *HighLevelMotion) DisableHeadMotor(ctx context.Context) error {
	return m.r.call(ctx, protocol.MethodDisableHeadMotor, nil, nil)
}

// LowLevelMotion streams joint commands and joint state. The robot must be in
// LowLevel control and the GAIT_LOWLEVL_SDK gait.
type LowLevelMotion struct {
	r *Robot
}

// SubscribeLegState starts the joint state stream.
func (m *LowLevelMotion) SubscribeLegState() (*Stream[*LegState], error) {
	return subscribe[LegState](m.r, protocol.TopicLegState)
}

func (m *LowLevelMotion) UnsubscribeLegState() error {
	return m.r.unsubscribe(protocol.TopicLegState)
}

// PublishLegCommand sends one joint command frame without waiting for a reply.
func (m *LowLevelMotion) PublishLegCommand(cmd LegJointCommand) error {
	return m.r.conn.notify(protocol.MethodLegCommand, cmd)
}
