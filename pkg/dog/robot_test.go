package dog_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teslashibe/go-magicdog/internal/log"
	"github.com/teslashibe/go-magicdog/pkg/dog"
	"github.com/teslashibe/go-magicdog/pkg/protocol"
	"github.com/teslashibe/go-magicdog/pkg/sim"
)

func startSim(t *testing.T, cfg sim.Config) (*sim.Server, string) {
	t.Helper()
	cfg.Logger = log.Discard()
	srv := sim.New(cfg)
	addr, err := srv.Start("127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { srv.Shutdown() })
	return srv, addr
}

func connect(t *testing.T, addr string, opts ...dog.Option) *dog.Robot {
	t.Helper()
	opts = append([]dog.Option{dog.WithAddress(addr), dog.WithLogger(log.Discard())}, opts...)
	r := dog.New(opts...)
	require.NoError(t, r.Initialize("127.0.0.1"))
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, r.Connect(ctx))
	t.Cleanup(r.Shutdown)
	return r
}

func TestCallsBeforeConnectAreNotReady(t *testing.T) {
	r := dog.New(dog.WithLogger(log.Discard()))

	_, err := r.HighLevelMotion().GetGait(context.Background())
	require.Error(t, err)
	assert.Equal(t, dog.ServiceNotReady, dog.CodeOf(err))
	assert.True(t, errors.Is(err, dog.ErrNotConnected))

	// Connect without Initialize is refused too.
	err = r.Connect(context.Background())
	assert.Equal(t, dog.ServiceNotReady, dog.CodeOf(err))
}

func TestInitializeRejectsBadIP(t *testing.T) {
	r := dog.New()
	assert.Error(t, r.Initialize("not-an-ip"))
}

func TestGaitRoundTrip(t *testing.T) {
	srv, addr := startSim(t, sim.Config{ConvergeAfter: 2})
	r := connect(t, addr)
	ctx := context.Background()
	motion := r.HighLevelMotion()

	g, err := motion.GetGait(ctx)
	require.NoError(t, err)
	assert.Equal(t, dog.GaitPassive, g)

	require.NoError(t, motion.SetGait(ctx, dog.GaitDownClimbStairs))

	// Two polls still report the old gait, the third the new one.
	for i := 0; i < 2; i++ {
		g, err = motion.GetGait(ctx)
		require.NoError(t, err)
		assert.Equal(t, dog.GaitPassive, g, "poll %d", i)
	}
	g, err = motion.GetGait(ctx)
	require.NoError(t, err)
	assert.Equal(t, dog.GaitDownClimbStairs, g)

	assert.Equal(t, uint64(1), srv.Calls(protocol.MethodSetGait))
}

func TestServiceErrorStatus(t *testing.T) {
	srv, addr := startSim(t, sim.Config{})
	r := connect(t, addr)

	srv.Fail(protocol.MethodGetGait, dog.ServiceError, "gait service down")
	_, err := r.HighLevelMotion().GetGait(context.Background())
	require.Error(t, err)

	var st *dog.Status
	require.True(t, errors.As(err, &st))
	assert.Equal(t, dog.ServiceError, st.Code)
	assert.Equal(t, "gait service down", st.Message)

	// Injected failures are one-shot.
	_, err = r.HighLevelMotion().GetGait(context.Background())
	assert.NoError(t, err)
}

func TestCallTimeout(t *testing.T) {
	_, addr := startSim(t, sim.Config{TrickDelay: 300 * time.Millisecond})
	r := connect(t, addr, dog.WithCallTimeout(50*time.Millisecond))

	err := r.HighLevelMotion().ExecuteTrick(context.Background(), dog.TrickSitDown)
	require.Error(t, err)
	assert.Equal(t, dog.Timeout, dog.CodeOf(err))
}

func TestVolumeAndSpeech(t *testing.T) {
	srv, addr := startSim(t, sim.Config{})
	r := connect(t, addr)
	ctx := context.Background()
	audio := r.Audio()

	require.NoError(t, audio.SetVolume(ctx, 2))
	v, err := audio.GetVolume(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, v)

	assert.Error(t, audio.SetVolume(ctx, 101))

	require.NoError(t, audio.SetVoiceConfig(ctx, dog.SetSpeechConfig{
		WakeupName:   "小K",
		IsEnable:     true,
		IsDoaEnable:  true,
		SpeakerSpeed: 1.5,
	}))
	cfg, err := audio.GetVoiceConfig(ctx)
	require.NoError(t, err)
	assert.Equal(t, "小K", cfg.WakeupConfig.Name)
	assert.True(t, cfg.DialogConfig.IsDoaEnable)

	require.NoError(t, audio.Say(ctx, "10000086", "hello"))
	spoken := srv.Snapshot().Spoken
	require.Len(t, spoken, 1)
	assert.Equal(t, dog.TtsPriorityHigh, spoken[0].Priority)
	assert.Equal(t, dog.TtsModeClearBuffer, spoken[0].Mode)
}

func TestSpeedRatios(t *testing.T) {
	_, addr := startSim(t, sim.Config{})
	r := connect(t, addr)
	ctx := context.Background()
	motion := r.HighLevelMotion()

	want := dog.GaitSpeedRatio{StraightRatio: 0.25, TurnRatio: 0.4, LateralRatio: 0.2}
	require.NoError(t, motion.SetGaitSpeedRatio(ctx, dog.GaitDownClimbStairs, want))

	all, err := motion.GetAllGaitSpeedRatio(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, all.GaitSpeedRatios[dog.GaitDownClimbStairs])
}

func TestJoystickIsFireAndForget(t *testing.T) {
	srv, addr := startSim(t, sim.Config{})
	r := connect(t, addr)

	cmd := dog.JoystickCommand{LeftY: 1}
	for i := 0; i < 5; i++ {
		require.NoError(t, r.HighLevelMotion().SendJoyStickCommand(context.Background(), cmd))
	}
	assert.Eventually(t, func() bool {
		return srv.Snapshot().JoystickSeen == 5
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, cmd, srv.Snapshot().Joystick)
}

func TestStreamDelivery(t *testing.T) {
	srv, addr := startSim(t, sim.Config{})
	r := connect(t, addr)

	stream, err := r.Sensor().SubscribeLeftBinocularHighImg()
	require.NoError(t, err)
	assert.Eventually(t, func() bool {
		return srv.Subscribed(protocol.TopicLeftBinocularHigh)
	}, time.Second, 5*time.Millisecond)

	srv.Publish(protocol.TopicLeftBinocularHigh, dog.CompressedImage{Format: "jpeg", Data: []byte{0xff, 0xd8}})

	select {
	case img := <-stream.C():
		assert.Equal(t, "jpeg", img.Format)
		assert.Equal(t, []byte{0xff, 0xd8}, img.Data)
	case <-time.After(time.Second):
		t.Fatal("no frame delivered")
	}

	require.NoError(t, r.Sensor().UnsubscribeLeftBinocularHighImg())
	_, open := <-stream.C()
	assert.False(t, open, "stream should be closed after unsubscribe")
}

func TestStreamDropsWhenFull(t *testing.T) {
	srv, addr := startSim(t, sim.Config{})
	r := connect(t, addr, dog.WithStreamBuffer(1))

	stream, err := r.SlamNav().SubscribeOdometry()
	require.NoError(t, err)
	assert.Eventually(t, func() bool { return srv.Subscribed(protocol.TopicOdometry) }, time.Second, 5*time.Millisecond)

	for i := 0; i < 4; i++ {
		srv.Publish(protocol.TopicOdometry, dog.Odometry{ChildFrameID: "base_link"})
	}
	assert.Eventually(t, func() bool { return stream.Dropped() == 3 }, time.Second, 5*time.Millisecond)
	assert.Len(t, stream.C(), 1)
}

func TestNavigationFlow(t *testing.T) {
	_, addr := startSim(t, sim.Config{})
	r := connect(t, addr)
	ctx := context.Background()
	nav := r.SlamNav()

	require.NoError(t, nav.StartMapping(ctx))
	require.NoError(t, nav.SaveMap(ctx, "testmap"))

	maps, err := nav.GetAllMapInfo(ctx)
	require.NoError(t, err)
	require.Len(t, maps.MapInfos, 1)
	assert.Equal(t, "P5", maps.MapInfos[0].MapMetaData.MapImageData.Type)

	require.NoError(t, nav.LoadMap(ctx, "testmap"))
	require.NoError(t, nav.SwitchToLocation(ctx))
	require.NoError(t, nav.InitPose(ctx, dog.Pose2D(0, 0, 0)))

	loc, err := nav.GetCurrentLocalizationInfo(ctx)
	require.NoError(t, err)
	assert.True(t, loc.IsLocalization)

	require.NoError(t, nav.ActivateNavMode(ctx, dog.NavModeGridMap))
	require.NoError(t, nav.SetNavTarget(ctx, dog.NavTarget{ID: 1, FrameID: "map", Goal: dog.Pose2D(0, 10, 0)}))

	st, err := nav.GetNavTaskStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, dog.NavStatusRunning, st.Status)

	require.NoError(t, nav.PauseNavTask(ctx))
	require.NoError(t, nav.ResumeNavTask(ctx))
	require.NoError(t, nav.CancelNavTask(ctx))
	st, err = nav.GetNavTaskStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, dog.NavStatusCancel, st.Status)

	assert.Error(t, nav.DeleteMap(ctx, "missing"))
	require.NoError(t, nav.DeleteMap(ctx, "testmap"))
}

func TestMonitorAndLevel(t *testing.T) {
	_, addr := startSim(t, sim.Config{})
	r := connect(t, addr)
	ctx := context.Background()

	st, err := r.StateMonitor().GetCurrentState(ctx)
	require.NoError(t, err)
	assert.Greater(t, st.BmsData.BatteryPercentage, 0.0)
	assert.Equal(t, dog.BatteryGood, st.BmsData.BatteryState)

	require.NoError(t, r.SetMotionControlLevel(ctx, dog.LevelLow))
	level, err := r.GetMotionControlLevel(ctx)
	require.NoError(t, err)
	assert.Equal(t, dog.LevelLow, level)
}

func TestDisconnect(t *testing.T) {
	_, addr := startSim(t, sim.Config{})
	r := connect(t, addr)

	require.NoError(t, r.Disconnect(context.Background()))
	assert.False(t, r.Connected())

	_, err := r.HighLevelMotion().GetGait(context.Background())
	assert.Equal(t, dog.ServiceNotReady, dog.CodeOf(err))
}

func TestReconnectStaysUp(t *testing.T) {
	_, addr := startSim(t, sim.Config{})
	r := connect(t, addr)
	ctx := context.Background()

	for i := 0; i < 20; i++ {
		require.NoError(t, r.Disconnect(ctx))
		require.NoError(t, r.Connect(ctx))
	}
	time.Sleep(50 * time.Millisecond)
	assert.True(t, r.Connected())
	_, err := r.HighLevelMotion().GetGait(ctx)
	assert.NoError(t, err)
}
