package teleop

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teslashibe/go-magicdog/internal/log"
	"github.com/teslashibe/go-magicdog/pkg/dog"
	"github.com/teslashibe/go-magicdog/pkg/protocol"
	"github.com/teslashibe/go-magicdog/pkg/sim"
	"github.com/teslashibe/go-magicdog/pkg/telemetry"
)

func simRobot(t *testing.T, cfg sim.Config) (*sim.Server, *dog.Robot) {
	t.Helper()
	cfg.Logger = log.Discard()
	srv := sim.New(cfg)
	addr, err := srv.Start("127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { srv.Shutdown() })

	r := dog.New(dog.WithAddress(addr), dog.WithLogger(log.Discard()))
	require.NoError(t, r.Initialize("127.0.0.1"))
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, r.Connect(ctx))
	t.Cleanup(r.Shutdown)
	return srv, r
}

// The robot starts PASSIVE and reports the old gait for three polls after
// the switch.
func TestGateAgainstSimulator(t *testing.T) {
	srv, r := simRobot(t, sim.Config{ConvergeAfter: 3})
	gate := NewGaitGate(r.HighLevelMotion(), nil, WithGateLogger(log.Discard()))

	require.NoError(t, gate.Ensure(context.Background(), dog.GaitDownClimbStairs))

	assert.Equal(t, uint64(1), srv.Calls(protocol.MethodSetGait))
	assert.Equal(t, uint64(5), srv.Calls(protocol.MethodGetGait))
	assert.Equal(t, dog.GaitDownClimbStairs, srv.Snapshot().Gait)

	// Second call finds the gait already in place.
	require.NoError(t, gate.Ensure(context.Background(), dog.GaitDownClimbStairs))
	assert.Equal(t, uint64(1), srv.Calls(protocol.MethodSetGait))
}

func TestSessionEndToEnd(t *testing.T) {
	srv, r := simRobot(t, sim.Config{ConvergeAfter: 2})
	motion := r.HighLevelMotion()

	gains, err := LoadGains(context.Background(), motion, dog.GaitDownClimbStairs)
	require.NoError(t, err)
	assert.InDelta(t, 0.25, gains.LeftY, 1e-9)

	metrics := telemetry.New()
	target := dog.GaitDownClimbStairs
	s := NewSession(motion, SessionConfig{
		Target:   &target,
		Gains:    gains,
		GatePoll: time.Millisecond,
		Logger:   log.Discard(),
		Metrics:  metrics,
	})
	s.Dispatcher.BindAll(KeyboardOperatorKeymap(nil, nil))

	workerDone := make(chan struct{})
	worker := func(ctx context.Context) error {
		<-ctx.Done()
		close(workerDone)
		return nil
	}

	keys := make(chanKeys, 1)
	result := make(chan error, 1)
	go func() { result <- s.Run(context.Background(), keys, worker) }()

	keys <- 'w'
	assert.Eventually(t, func() bool {
		return srv.Snapshot().Joystick.LeftY == 1
	}, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, dog.GaitDownClimbStairs, srv.Snapshot().Gait)

	keys <- KeyEsc
	select {
	case err := <-result:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("session did not stop on ESC")
	}
	<-workerDone

	assert.False(t, s.State.Running())
	assert.Greater(t, s.Sender.Ticks(), uint64(0))
}

func TestSessionStopsWithContext(t *testing.T) {
	m := &mockMotion{}
	s := NewSession(m, SessionConfig{Logger: log.Discard()})

	ctx, cancel := context.WithCancel(context.Background())
	keys := make(chanKeys) // never yields
	result := make(chan error, 1)
	go func() { result <- s.Run(ctx, keys) }()

	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case err := <-result:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("session ignored cancellation")
	}
	assert.False(t, s.State.Running())
}

// Stopping the session from outside the key loop, as the dashboard's ESC
// does, must still leave the terminal usable.
func TestSessionRestoresTerminalOnStop(t *testing.T) {
	s := NewSession(&mockMotion{}, SessionConfig{Logger: log.Discard()})
	keys := &restoringKeys{chanKeys: make(chanKeys)}

	result := make(chan error, 1)
	go func() { result <- s.Run(context.Background(), keys) }()

	time.Sleep(20 * time.Millisecond)
	s.State.Stop()
	select {
	case err := <-result:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("session ignored Stop")
	}
	assert.Equal(t, 1, keys.restores())
}

func TestSessionTargetDefaults(t *testing.T) {
	s := NewSession(&mockMotion{}, SessionConfig{Logger: log.Discard()})
	assert.Equal(t, dog.GaitDownClimbStairs, s.State.Target())

	passive := dog.GaitPassive
	s = NewSession(&mockMotion{}, SessionConfig{Target: &passive, Logger: log.Discard()})
	assert.Equal(t, dog.GaitPassive, s.State.Target())
}
