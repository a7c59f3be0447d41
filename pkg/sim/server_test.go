package sim

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/teslashibe/go-magicdog/internal/log"
	"github.com/teslashibe/go-magicdog/pkg/dog"
	"github.com/teslashibe/go-magicdog/pkg/protocol"
)

func TestModelGaitConvergence(t *testing.T) {
	tests := []struct {
		name          string
		convergeAfter int
	}{
		{"immediate", 0},
		{"three polls", 3},
		{"ten polls", 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newModel(tt.convergeAfter)
			if err := m.setGait(dog.GaitDownClimbStairs); err != nil {
				t.Fatalf("setGait: %v", err)
			}
			for i := 0; i < tt.convergeAfter; i++ {
				if g := m.getGait(); g != dog.GaitPassive {
					t.Fatalf("poll %d = %v, want PASSIVE", i, g)
				}
			}
			if g := m.getGait(); g != dog.GaitDownClimbStairs {
				t.Errorf("final poll = %v, want DOWN_CLIMB_STAIRS", g)
			}
		})
	}
}

func TestModelRejectsUnknownGait(t *testing.T) {
	m := newModel(0)
	if err := m.setGait(dog.GaitMode(4)); dog.CodeOf(err) != dog.ServiceError {
		t.Errorf("setGait(4) = %v, want SERVICE_ERROR", err)
	}
	if err := m.setGait(dog.GaitLowLevelSDK); err == nil {
		t.Error("low-level gait should need LowLevel control")
	}
}

func TestMapImage(t *testing.T) {
	img := generateMapImage(16, 12)
	if img.Type != "P5" || img.Width != 16 || img.Height != 12 {
		t.Errorf("header = %s %dx%d", img.Type, img.Width, img.Height)
	}
	if len(img.Image) != 16*12 {
		t.Errorf("len = %d", len(img.Image))
	}
	if img.Image[0] != 0 || img.Image[16+1] != 254 {
		t.Error("border should be occupied and interior free")
	}
}

func TestAPIState(t *testing.T) {
	srv := New(Config{Logger: log.Discard()})
	srv.SetGaitNow(dog.GaitStandR)
	app := srv.App()

	resp, err := app.Test(httptest.NewRequest("GET", "/api/state", nil))
	if err != nil {
		t.Fatalf("Test: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)

	var snap Snapshot
	if err := json.Unmarshal(body, &snap); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if snap.Gait != dog.GaitStandR {
		t.Errorf("gait = %v, want STAND_R", snap.Gait)
	}
	if snap.Level != dog.LevelHigh {
		t.Errorf("level = %v", snap.Level)
	}
}

func TestWebSocketRequestResponse(t *testing.T) {
	srv := New(Config{Logger: log.Discard()})
	addr, err := srv.Start("127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer srv.Shutdown()

	ws, _, err := websocket.DefaultDialer.Dial("ws://"+addr+"/ws/robot", nil)
	if err != nil {
		t.Fatalf("WebSocket dial error: %v", err)
	}
	defer ws.Close()

	req, _ := protocol.NewRequest("req-1", protocol.MethodGetVolume, nil)
	data, _ := req.Bytes()
	if err := ws.WriteMessage(websocket.TextMessage, data); err != nil {
		t.Fatal(err)
	}

	ws.SetReadDeadline(time.Now().Add(time.Second))
	_, data, err = ws.ReadMessage()
	if err != nil {
		t.Fatalf("Read error: %v", err)
	}
	resp, err := protocol.ParseMessage(data)
	if err != nil {
		t.Fatal(err)
	}
	if resp.Type != protocol.TypeResponse || resp.ID != "req-1" || resp.Code != 0 {
		t.Errorf("response = %+v", resp)
	}
	var v dog.VolumeParams
	resp.ParseData(&v)
	if v.Volume != 5 {
		t.Errorf("volume = %d, want 5", v.Volume)
	}

	// Unknown methods answer SERVICE_ERROR.
	req, _ = protocol.NewRequest("req-2", "motion.fly", nil)
	data, _ = req.Bytes()
	ws.WriteMessage(websocket.TextMessage, data)
	_, data, err = ws.ReadMessage()
	if err != nil {
		t.Fatal(err)
	}
	resp, _ = protocol.ParseMessage(data)
	if resp.Code != int(dog.ServiceError) {
		t.Errorf("code = %d, want %d", resp.Code, dog.ServiceError)
	}

	if srv.SessionCount() != 1 {
		t.Errorf("SessionCount = %d, want 1", srv.SessionCount())
	}
}

func TestPeriodicEventsOnlyWhenSubscribed(t *testing.T) {
	srv := New(Config{Logger: log.Discard(), EventRate: 10 * time.Millisecond})
	addr, err := srv.Start("127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer srv.Shutdown()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go srv.Run(ctx)

	ws, _, err := websocket.DefaultDialer.Dial("ws://"+addr+"/ws/robot", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer ws.Close()

	data, _ := protocol.NewSubscribe(protocol.TopicImu, true).Bytes()
	ws.WriteMessage(websocket.TextMessage, data)

	ws.SetReadDeadline(time.Now().Add(time.Second))
	_, data, err = ws.ReadMessage()
	if err != nil {
		t.Fatalf("no event: %v", err)
	}
	ev, _ := protocol.ParseMessage(data)
	if ev.Type != protocol.TypeEvent || ev.Topic != protocol.TopicImu {
		t.Errorf("event = %+v", ev)
	}
	var imu dog.Imu
	if err := ev.ParseData(&imu); err != nil {
		t.Fatal(err)
	}
	if imu.LinearAcceleration[2] != 9.81 {
		t.Errorf("imu = %+v", imu)
	}
}

func TestNavigationCompletes(t *testing.T) {
	m := newModel(0)
	m.nav = dog.NavStatus{ID: 1, Status: dog.NavStatusRunning}
	m.navGoal = dog.Pose2D(0, 10, 0)
	for i := 0; i < navTicks; i++ {
		m.advance()
	}
	if m.nav.Status != dog.NavStatusEndSuccess {
		t.Errorf("status = %v, want END_SUCCESS", m.nav.Status)
	}
	if m.localization.Pose.Position[1] != 10 {
		t.Errorf("pose = %v", m.localization.Pose)
	}
}
