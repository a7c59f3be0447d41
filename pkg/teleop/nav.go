package teleop

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/teslashibe/go-magicdog/internal/log"
	"github.com/teslashibe/go-magicdog/pkg/dog"
)

// ErrNotLocalized is returned when the robot did not localize on the map
// after the initial pose was set.
var ErrNotLocalized = errors.New("teleop: robot not localized")

// NavMotion is what navigation needs from high-level motion. Navigation
// requires the stair-descending gait with the joystick disabled.
type NavMotion interface {
	GaitController
	JoystickSwitch
}

// Route is a round trip on a saved map: the robot starts at Start, walks to
// Target and comes back starting from Turnaround.
type Route struct {
	Map        string
	Start      dog.Pose3DEuler
	Target     dog.Pose3DEuler
	Turnaround dog.Pose3DEuler
	Home       dog.Pose3DEuler
}

// DefaultRoute walks ten metres along y on "testmap". The return leg turns
// the robot around on the spot at the far end.
func DefaultRoute() Route {
	return Route{
		Map:        "testmap",
		Start:      dog.Pose2D(0, 0, 0),
		Target:     dog.Pose2D(0, 10, 0),
		Turnaround: dog.Pose2D(0, 10, 0),
		Home:       dog.Pose2D(0, 10, 3.14),
	}
}

// Navigator runs the navigation macros.
type Navigator struct {
	nav    Navigation
	motion NavMotion
	route  Route
	logger *slog.Logger

	nextID atomic.Int32
}

func NewNavigator(nav Navigation, motion NavMotion, route Route) *Navigator {
	return &Navigator{nav: nav, motion: motion, route: route, logger: log.L()}
}

// WithLogger sets the logger and returns n.
func (n *Navigator) WithLogger(l *slog.Logger) *Navigator {
	n.logger = l
	return n
}

// GoToTarget localizes at the route start and navigates to the target.
func (n *Navigator) GoToTarget(ctx context.Context) error {
	if err := n.localize(ctx, n.route.Start); err != nil {
		return err
	}
	return n.navigate(ctx, n.route.Target)
}

// ComeBack localizes at the turnaround pose and navigates home.
func (n *Navigator) ComeBack(ctx context.Context) error {
	if err := n.localize(ctx, n.route.Turnaround); err != nil {
		return err
	}
	return n.navigate(ctx, n.route.Home)
}

func (n *Navigator) Pause(ctx context.Context) error  { return n.nav.PauseNavTask(ctx) }
func (n *Navigator) Resume(ctx context.Context) error { return n.nav.ResumeNavTask(ctx) }
func (n *Navigator) Cancel(ctx context.Context) error { return n.nav.CancelNavTask(ctx) }

func (n *Navigator) localize(ctx context.Context, pose dog.Pose3DEuler) error {
	if err := n.nav.LoadMap(ctx, n.route.Map); err != nil {
		return fmt.Errorf("load map %q: %w", n.route.Map, err)
	}
	if err := n.nav.SwitchToLocation(ctx); err != nil {
		return fmt.Errorf("switch to localization: %w", err)
	}
	if err := n.nav.InitPose(ctx, pose); err != nil {
		return fmt.Errorf("init pose: %w", err)
	}
	info, err := n.nav.GetCurrentLocalizationInfo(ctx)
	if err != nil {
		return fmt.Errorf("get localization: %w", err)
	}
	if !info.IsLocalization {
		return ErrNotLocalized
	}
	n.logger.Info("localized", "map", n.route.Map, "position", info.Pose.Position, "orientation", info.Pose.Orientation)

	if err := n.nav.ActivateNavMode(ctx, dog.NavModeGridMap); err != nil {
		return fmt.Errorf("activate navigation: %w", err)
	}
	return nil
}

func (n *Navigator) navigate(ctx context.Context, goal dog.Pose3DEuler) error {
	if err := n.motion.DisableJoyStick(ctx); err != nil {
		return fmt.Errorf("disable joystick: %w", err)
	}
	if err := n.motion.SetGait(ctx, dog.GaitDownClimbStairs); err != nil {
		return fmt.Errorf("set gait %s: %w", dog.GaitDownClimbStairs, err)
	}
	target := dog.NavTarget{ID: n.nextID.Add(1), FrameID: "map", Goal: goal}
	if err := n.nav.SetNavTarget(ctx, target); err != nil {
		return fmt.Errorf("set navigation target: %w", err)
	}
	n.logger.Info("navigation started", "id", target.ID, "position", goal.Position, "orientation", goal.Orientation)
	return nil
}
