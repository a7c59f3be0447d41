package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-magicdog/pkg/dog"
	"github.com/teslashibe/go-magicdog/pkg/hub"
	"github.com/teslashibe/go-magicdog/pkg/teleop"
)

// StateView is the session snapshot served to the dashboard.
type StateView struct {
	Running  bool                `json:"running"`
	Target   string              `json:"target"`
	Joystick dog.JoystickCommand `json:"joystick"`
	Velocity [4]float64          `json:"velocity"` // stick axes after gains
	Ticks    uint64              `json:"ticks"`
	Errors   uint64              `json:"errors"`
	Changes  uint64              `json:"changes"`
	Clients  int                 `json:"clients"`
}

// KeyView describes one bound key.
type KeyView struct {
	Key  string `json:"key"`
	Kind string `json:"kind"`
	Help string `json:"help"`
}

// Snapshot reads the current session state.
func (s *Server) Snapshot() StateView {
	st := s.session.State
	return StateView{
		Running:  st.Running(),
		Target:   st.Target().String(),
		Joystick: st.Joystick(),
		Velocity: s.session.Sender.LastVelocity(),
		Ticks:    s.session.Sender.Ticks(),
		Errors:   s.session.Sender.Errors(),
		Changes:  s.session.Sender.Changes(),
		Clients:  s.hub.ClientCount(),
	}
}

func (s *Server) handleState(c *fiber.Ctx) error {
	return c.JSON(s.Snapshot())
}

func (s *Server) handleKeys(c *fiber.Ctx) error {
	km := s.session.Dispatcher.Keymap()
	out := make([]KeyView, 0, len(km)+1)
	out = append(out, KeyView{Key: "ESC", Kind: "exit", Help: "Exit program"})
	for _, kb := range km {
		out = append(out, KeyView{Key: teleop.KeyName(kb.Key), Kind: kb.Kind.String(), Help: kb.Help})
	}
	return c.JSON(out)
}

// parseKey accepts a single character or a KeyName such as "SPACE".
func parseKey(name string) (byte, error) {
	switch name {
	case "ESC", "esc":
		return teleop.KeyEsc, nil
	case "SPACE", "space":
		return teleop.KeySpace, nil
	}
	if len(name) != 1 {
		return 0, fmt.Errorf("invalid key %q", name)
	}
	return name[0], nil
}

func (s *Server) handleKey(c *fiber.Ctx) error {
	key, err := parseKey(c.Params("key"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return s.dispatch(c, key)
}

func (s *Server) dispatch(c *fiber.Ctx, key byte) error {
	name := teleop.KeyName(key)
	err := s.session.Dispatcher.Dispatch(c.UserContext(), key)
	switch {
	case errors.Is(err, teleop.ErrExit):
		s.Record("key", "ESC: session stopped")
		return c.JSON(fiber.Map{"key": name, "stopped": true})
	case err != nil:
		s.Record("error", name+": "+err.Error())
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"key": name, "error": err.Error()})
	}
	s.Record("key", name)
	return c.JSON(fiber.Map{"key": name})
}

// handleJoystick takes the gait gate, then stores the stick values like a
// movement key would.
func (s *Server) handleJoystick(c *fiber.Ctx) error {
	var cmd dog.JoystickCommand
	if err := c.BodyParser(&cmd); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid joystick body"})
	}
	for _, v := range []float64{cmd.LeftX, cmd.LeftY, cmd.RightX, cmd.RightY} {
		if math.IsNaN(v) || v < -1 || v > 1 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "axis out of range [-1, 1]"})
		}
	}
	if !s.session.State.Running() {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "session stopped"})
	}

	if cmd != (dog.JoystickCommand{}) {
		if err := s.session.Gate.EnsureTarget(c.UserContext()); err != nil {
			s.Record("error", "joystick: "+err.Error())
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": err.Error()})
		}
	}
	s.session.State.SetJoystick(cmd)
	return c.JSON(cmd)
}

func (s *Server) handleEvents(c *fiber.Ctx) error {
	return c.JSON(s.Events())
}

type wsCommand struct {
	Key string `json:"key"`
}

// handleTelemetryWS streams state and events, and accepts {"key":"w"}
// frames from the browser.
func (s *Server) handleTelemetryWS(c *websocket.Conn) {
	client := hub.NewClient(s.hub, c)
	if client == nil {
		return
	}
	client.OnMessage = func(data []byte) {
		var cmd wsCommand
		if err := json.Unmarshal(data, &cmd); err != nil {
			return
		}
		key, err := parseKey(cmd.Key)
		if err != nil {
			return
		}
		if err := s.session.Dispatcher.Dispatch(s.ctx(), key); err != nil && !errors.Is(err, teleop.ErrExit) {
			s.Record("error", teleop.KeyName(key)+": "+err.Error())
			return
		}
		s.Record("key", teleop.KeyName(key))
	}
	client.Run()
}
