package web

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teslashibe/go-magicdog/internal/log"
	"github.com/teslashibe/go-magicdog/pkg/dog"
	"github.com/teslashibe/go-magicdog/pkg/telemetry"
	"github.com/teslashibe/go-magicdog/pkg/teleop"
)

// robot is a minimal teleop.Motion that converges immediately.
type robot struct {
	mu       sync.Mutex
	gait     dog.GaitMode
	tricks   []dog.TrickAction
	setErr   error
	joystick []dog.JoystickCommand
}

func (r *robot) SetGait(ctx context.Context, g dog.GaitMode) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.setErr != nil {
		return r.setErr
	}
	r.gait = g
	return nil
}

func (r *robot) GetGait(ctx context.Context) (dog.GaitMode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.gait, nil
}

func (r *robot) ExecuteTrick(ctx context.Context, t dog.TrickAction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tricks = append(r.tricks, t)
	return nil
}

func (r *robot) SendJoyStickCommand(ctx context.Context, cmd dog.JoystickCommand) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.joystick = append(r.joystick, cmd)
	return nil
}

func newTestServer(t *testing.T, r *robot) (*Server, *teleop.Session) {
	t.Helper()
	metrics := telemetry.New()
	s := teleop.NewSession(r, teleop.SessionConfig{
		GatePoll: time.Millisecond,
		Logger:   log.Discard(),
		Metrics:  metrics,
	})
	s.Dispatcher.BindAll(teleop.KeyboardOperatorKeymap(nil, nil))
	return NewServer(s, Config{Logger: log.Discard(), Metrics: metrics}), s
}

func do(t *testing.T, srv *Server, method, path, body string) (int, []byte) {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := srv.App().Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data
}

func TestStateAndKeys(t *testing.T) {
	srv, _ := newTestServer(t, &robot{})

	code, body := do(t, srv, http.MethodGet, "/api/state", "")
	require.Equal(t, http.StatusOK, code)
	var st StateView
	require.NoError(t, json.Unmarshal(body, &st))
	assert.True(t, st.Running)
	assert.Equal(t, "DOWN_CLIMB_STAIRS", st.Target)

	code, body = do(t, srv, http.MethodGet, "/api/keys", "")
	require.Equal(t, http.StatusOK, code)
	var keys []KeyView
	require.NoError(t, json.Unmarshal(body, &keys))
	assert.Equal(t, "ESC", keys[0].Key)
	assert.Len(t, keys, 22) // ESC plus 21 keys without the dance routine
}

func TestKeyEndpoint(t *testing.T) {
	r := &robot{}
	srv, s := newTestServer(t, r)

	code, _ := do(t, srv, http.MethodPost, "/api/keys/c", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, []dog.TrickAction{dog.TrickSitDown}, r.tricks)

	code, _ = do(t, srv, http.MethodPost, "/api/keys/w", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, dog.JoystickCommand{LeftY: 1}, s.State.Joystick())
	assert.Equal(t, dog.GaitDownClimbStairs, r.gait)

	code, _ = do(t, srv, http.MethodPost, "/api/keys/toolong", "")
	assert.Equal(t, http.StatusBadRequest, code)

	events := srv.Events()
	require.Len(t, events, 2)
	assert.Equal(t, "c", events[0].Message)

	code, body := do(t, srv, http.MethodPost, "/api/keys/ESC", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(body), `"stopped":true`)
	assert.False(t, s.State.Running())
}

func TestJoystickEndpoint(t *testing.T) {
	r := &robot{gait: dog.GaitStandR}
	srv, s := newTestServer(t, r)

	code, _ := do(t, srv, http.MethodPost, "/api/joystick", `{"left_x_axis":0.5,"right_x_axis":-0.25}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, dog.JoystickCommand{LeftX: 0.5, RightX: -0.25}, s.State.Joystick())
	assert.Equal(t, dog.GaitDownClimbStairs, r.gait)

	code, _ = do(t, srv, http.MethodPost, "/api/joystick", `{"left_y_axis":2}`)
	assert.Equal(t, http.StatusBadRequest, code)

	r.gait = dog.GaitStandR
	r.setErr = errors.New("estop")
	code, _ = do(t, srv, http.MethodPost, "/api/joystick", `{"left_y_axis":1}`)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, dog.JoystickCommand{LeftX: 0.5, RightX: -0.25}, s.State.Joystick())

	// Zero needs no gait.
	code, _ = do(t, srv, http.MethodPost, "/api/joystick", `{}`)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, dog.JoystickCommand{}, s.State.Joystick())
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, &robot{})
	do(t, srv, http.MethodPost, "/api/keys/~", "")

	code, body := do(t, srv, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(body), `magicdog_dispatcher_keys_total{bound="false"} 1`)
}

func TestIndexPage(t *testing.T) {
	srv, _ := newTestServer(t, &robot{})
	code, body := do(t, srv, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(body), "/ws/telemetry")
}
